package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"hackathon-scoreboard/internal/events"
	"hackathon-scoreboard/internal/metrics"
	"hackathon-scoreboard/internal/report"
	"hackathon-scoreboard/internal/schemas"
	"hackathon-scoreboard/internal/scoring"
	"hackathon-scoreboard/internal/teams"
)

func teamID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid team id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	return validate.Struct(v)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	cats := scoring.Categories()
	out := make([]schemas.CategoryOut, 0, len(cats))
	for _, c := range cats {
		out = append(out, schemas.NewCategoryOut(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listTeams(w http.ResponseWriter, r *http.Request) {
	key, err := teams.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}
	ts := s.Teams.SortedFiltered(key, r.URL.Query().Get("category"))
	out := make([]schemas.TeamOut, 0, len(ts))
	for _, t := range ts {
		out = append(out, schemas.NewTeamOut(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getTeam(w http.ResponseWriter, r *http.Request) {
	id, err := teamID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}
	t, ok := s.Teams.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errResp{teams.ErrNotFound.Error()})
		return
	}
	writeJSON(w, http.StatusOK, schemas.TeamDetailOut{TeamOut: schemas.NewTeamOut(t), Details: t.FullDetails()})
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		category = scoring.FilterAll
	}
	ts := s.Teams.Leaderboard(category)
	out := make([]schemas.TeamOut, 0, len(ts))
	for i, t := range ts {
		o := schemas.NewTeamOut(t)
		o.Rank = i + 1
		out = append(out, o)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, report.Summarize(s.Teams))
}

func (s *Server) registerTeam(w http.ResponseWriter, r *http.Request) {
	var req schemas.RegisterTeamRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}
	t := teams.NewTeam(0, req.Name, req.University, req.Category, req.Scores)
	if err := nonBlank(t.Name, t.University, t.Category); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}

	var ok bool
	if req.ID != nil {
		t.ID = *req.ID
		ok = s.Teams.Register(t)
	} else {
		t, ok = s.Teams.RegisterNext(t)
	}
	metrics.RegistryOp("register", ok)
	if !ok {
		writeJSON(w, http.StatusConflict, errResp{teams.ErrDuplicate.Error() + ": id or name already registered in this category"})
		return
	}
	s.Log.Info("team_registered", "team_id", t.ID, "category", t.Category, "role", roleFrom(r.Context()))
	s.afterMutation(r.Context(), events.ForTeam(events.TeamRegistered, t))

	out := schemas.NewTeamOut(t)
	if hint, ok := scoring.Suggest(t.Category); ok {
		out.Warning = fmt.Sprintf("unknown category %q, did you mean %q?", t.Category, hint)
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) updateTeam(w http.ResponseWriter, r *http.Request) {
	id, err := teamID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}
	var req schemas.UpdateTeamRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}
	t, err := s.Teams.Update(id, func(t *teams.Team) error {
		if req.Name != nil {
			t.SetName(*req.Name)
		}
		if req.University != nil {
			t.SetUniversity(*req.University)
		}
		if req.Category != nil {
			t.SetCategory(*req.Category)
		}
		return nonBlank(t.Name, t.University, t.Category)
	})
	metrics.RegistryOp("update", err == nil)
	if err != nil {
		s.writeTeamErr(w, err)
		return
	}
	s.afterMutation(r.Context(), events.ForTeam(events.TeamUpdated, t))
	writeJSON(w, http.StatusOK, schemas.NewTeamOut(t))
}

func (s *Server) setScores(w http.ResponseWriter, r *http.Request) {
	id, err := teamID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}
	var req schemas.ScoresRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{fmt.Errorf("%w: %v", teams.ErrInvalidScores, err).Error()})
		return
	}
	t, err := s.Teams.Update(id, func(t *teams.Team) error {
		if !t.SetScores(req.Scores) {
			return teams.ErrInvalidScores
		}
		return nil
	})
	metrics.RegistryOp("score", err == nil)
	if err != nil {
		s.writeTeamErr(w, err)
		return
	}
	s.Log.Info("team_scored", "team_id", t.ID, "scores", t.Scores, "overall", t.OverallScore())
	s.afterMutation(r.Context(), events.ForTeam(events.TeamScored, t))
	writeJSON(w, http.StatusOK, schemas.NewTeamOut(t))
}

func (s *Server) removeTeam(w http.ResponseWriter, r *http.Request) {
	id, err := teamID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}
	ok := s.Teams.Remove(id)
	metrics.RegistryOp("remove", ok)
	if !ok {
		writeJSON(w, http.StatusNotFound, errResp{teams.ErrNotFound.Error()})
		return
	}
	s.Log.Info("team_removed", "team_id", id)
	s.afterMutation(r.Context(), events.Event{Type: events.TeamRemoved, TeamID: id})
	writeJSON(w, http.StatusOK, map[string]int{"removed": id})
}

func (s *Server) saveRecords(w http.ResponseWriter, r *http.Request) {
	s.saveMu.Lock()
	err := s.persistLocked(r.Context())
	s.saveMu.Unlock()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved": s.Teams.Len(), "path": s.DataPath})
}

func (s *Server) loadRecords(w http.ResponseWriter, r *http.Request) {
	s.saveMu.Lock()
	errs := s.Teams.LoadFile(s.DataPath)
	if s.DB != nil {
		if err := s.DB.ReplaceTeams(r.Context(), s.Teams.Snapshot()); err != nil {
			s.Log.Error("db_mirror_failed", "err", err)
		}
	}
	s.saveMu.Unlock()
	if errs == nil {
		errs = []teams.RowError{}
	}
	metrics.RowErrors(len(errs))
	metrics.RegistryOp("load", true)
	s.Log.Info("registry_loaded", "path", s.DataPath, "teams", s.Teams.Len(), "row_errors", len(errs))
	metrics.SetTeams(s.Teams.Len())
	ev := events.Event{Type: events.RegistryLoaded, Count: s.Teams.Len(), Role: string(roleFrom(r.Context()))}
	if err := s.Events.Publish(r.Context(), ev); err != nil {
		s.Log.Warn("event_dropped", "type", ev.Type, "err", err)
	}
	writeJSON(w, http.StatusOK, schemas.LoadResponse{Loaded: s.Teams.Len(), Errors: errs})
}

func (s *Server) writeTeamErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, teams.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errResp{err.Error()})
	case errors.Is(err, teams.ErrInvalidScores), errors.Is(err, teams.ErrInvalidTeam):
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
	}
}

func nonBlank(name, university, category string) error {
	fields := []struct{ field, value string }{
		{"name", name}, {"university", university}, {"category", category},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", teams.ErrInvalidTeam, strings.Join(missing, ", "))
	}
	return nil
}
