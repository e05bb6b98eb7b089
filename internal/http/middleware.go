package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	m "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"hackathon-scoreboard/internal/auth"
	"hackathon-scoreboard/internal/metrics"
)

const RoleHeader = "X-Hackathon-Role"

type ctxKey int

const roleKey ctxKey = iota

// WithRole resolves the caller's role from RoleHeader. A missing header
// means Public.
func WithRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, err := auth.ParseRole(r.Header.Get(RoleHeader))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), roleKey, role)))
	})
}

func roleFrom(ctx context.Context) auth.Role {
	if role, ok := ctx.Value(roleKey).(auth.Role); ok {
		return role
	}
	return auth.Public
}

// Require rejects callers whose role may not perform action.
func Require(action auth.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := roleFrom(r.Context()).Check(action); err != nil {
				writeJSON(w, http.StatusForbidden, errResp{err.Error()})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAPIToken checks the bearer token when one is configured.
func RequireAPIToken(want string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if want == "" {
				next.ServeHTTP(w, r)
				return
			}
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || !auth.TokenMatches(got, want) {
				writeJSON(w, http.StatusUnauthorized, errResp{"unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit answers 429 once the token bucket is empty.
func RateLimit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				writeJSON(w, http.StatusTooManyRequests, errResp{"rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := m.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		metrics.ObserveRequest(r.Method, route, ww.Status(), time.Since(start))
	})
}
