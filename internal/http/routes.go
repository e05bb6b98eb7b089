package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	m "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"hackathon-scoreboard/internal/auth"
	"hackathon-scoreboard/internal/db"
	"hackathon-scoreboard/internal/events"
	"hackathon-scoreboard/internal/metrics"
	"hackathon-scoreboard/internal/teams"
)

var validate = validator.New()

// Mirror is the Postgres side of the server. It is optional.
type Mirror interface {
	Ping(ctx context.Context) error
	ReplaceTeams(ctx context.Context, ts []teams.Team) error
	InsertReport(ctx context.Context, r db.Report) error
	ListReports(ctx context.Context, limit int) ([]db.Report, error)
	GetReport(ctx context.Context, id string) (db.Report, error)
}

// Objects reads uploaded reports back from object storage.
type Objects interface {
	Get(ctx context.Context, ref string) ([]byte, error)
}

// Enqueuer is the part of the asynq client the server uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Server struct {
	Teams      *teams.Registry
	DB         Mirror
	Asynq      Enqueuer
	Objects    Objects
	Events     events.Publisher
	Log        *slog.Logger
	DataPath   string
	ReportPath string
	APIToken   string
	Limiter    *rate.Limiter

	saveMu sync.Mutex
}

func NewServer(s *Server, addr string) *http.Server {
	return &http.Server{Addr: addr, Handler: s.Routes()}
}

func (s *Server) Routes() http.Handler {
	if s.Events == nil {
		s.Events = events.Nop{}
	}
	if s.Limiter == nil {
		s.Limiter = rate.NewLimiter(rate.Inf, 1)
	}

	r := chi.NewRouter()
	r.Use(m.RequestID, m.RealIP, m.Logger, m.Recoverer, observe, WithRole)

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.Handler())

	// Read-only views open to every role
	r.Get("/categories", s.listCategories)
	r.Get("/teams", s.listTeams)
	r.Get("/teams/{id}", s.getTeam)
	r.Get("/leaderboard", s.leaderboard)
	r.Get("/stats", s.stats)
	r.With(Require(auth.ViewReport)).Get("/report", s.reportText)

	// Mutations are rate limited
	r.Group(func(r chi.Router) {
		r.Use(RateLimit(s.Limiter))
		r.With(Require(auth.RegisterTeam)).Post("/teams", s.registerTeam)
		r.With(Require(auth.SaveReport)).Post("/reports", s.createReport)

		// Staff and judges, API-token protected
		r.Group(func(r chi.Router) {
			r.Use(RequireAPIToken(s.APIToken))
			r.With(Require(auth.ScoreTeam)).Put("/teams/{id}/scores", s.setScores)
			r.With(Require(auth.EditTeam)).Patch("/teams/{id}", s.updateTeam)
			r.With(Require(auth.RemoveTeam)).Delete("/teams/{id}", s.removeTeam)
			r.With(Require(auth.SaveRecords)).Post("/admin/save", s.saveRecords)
			r.With(Require(auth.LoadRecords)).Post("/admin/load", s.loadRecords)
		})
	})

	// Report history
	r.Group(func(r chi.Router) {
		r.Use(RequireAPIToken(s.APIToken), Require(auth.ListReports))
		r.Get("/reports", s.listReports)
		r.Get("/reports/{id}", s.getReport)
		r.Get("/reports/{id}/text", s.reportObject)
	})

	return r
}

type errResp struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		if err := s.DB.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "db error"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "teams": s.Teams.Len()})
}

// afterMutation persists and announces a registry change. Failures here
// are logged; the change itself already happened.
func (s *Server) afterMutation(ctx context.Context, ev events.Event) {
	s.saveMu.Lock()
	_ = s.persistLocked(ctx)
	s.saveMu.Unlock()

	metrics.SetTeams(s.Teams.Len())
	if ev.Role == "" {
		ev.Role = string(roleFrom(ctx))
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		s.Log.Warn("event_dropped", "type", ev.Type, "err", err)
	}
}

// persistLocked writes one snapshot to the records file and the Postgres
// mirror. saveMu must be held, so writers land in snapshot order and the
// last one to finish carries the newest state.
func (s *Server) persistLocked(ctx context.Context) error {
	snap := s.Teams.Snapshot()
	err := teams.WriteFile(s.DataPath, snap)
	if err != nil {
		s.Log.Error("auto_save_failed", "path", s.DataPath, "err", err)
	}
	if s.DB != nil {
		if err := s.DB.ReplaceTeams(ctx, snap); err != nil {
			s.Log.Error("db_mirror_failed", "err", err)
		}
	}
	return err
}
