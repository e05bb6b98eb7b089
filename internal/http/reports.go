package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hackathon-scoreboard/internal/db"
	"hackathon-scoreboard/internal/metrics"
	"hackathon-scoreboard/internal/report"
	"hackathon-scoreboard/internal/schemas"
	"hackathon-scoreboard/internal/worker"
)

func (s *Server) reportText(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report.Build(s.Teams)))
}

// createReport writes the report file locally and, when a job queue is
// configured, hands a snapshot to the worker for upload.
func (s *Server) createReport(w http.ResponseWriter, r *http.Request) {
	snap := report.List(s.Teams.Snapshot())
	if err := report.WriteFile(s.ReportPath, snap); err != nil {
		metrics.ReportGenerated("api", false)
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return
	}
	metrics.ReportGenerated("api", true)

	out := schemas.ReportResponse{ReportID: uuid.NewString(), Path: s.ReportPath}
	role := string(roleFrom(r.Context()))
	if s.Asynq == nil {
		writeJSON(w, http.StatusOK, out)
		return
	}

	task, err := worker.NewReportTask(worker.ReportPayload{ReportID: out.ReportID, RequestedBy: role, Teams: snap})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return
	}
	if s.DB != nil {
		rec := db.Report{ID: out.ReportID, RequestedBy: role, TeamCount: len(snap), Status: db.ReportPending}
		if err := s.DB.InsertReport(r.Context(), rec); err != nil {
			writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
			return
		}
	}
	if _, err := s.Asynq.EnqueueContext(r.Context(), task); err != nil {
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return
	}
	s.Log.Info("report_enqueued", "report_id", out.ReportID, "teams", len(snap), "role", role)
	out.Queued = true
	writeJSON(w, http.StatusAccepted, out)
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeJSON(w, http.StatusServiceUnavailable, errResp{"report history needs a database"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	reps, err := s.DB.ListReports(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return
	}
	if reps == nil {
		reps = []db.Report{}
	}
	writeJSON(w, http.StatusOK, reps)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.lookupReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// reportObject streams an uploaded report back from object storage.
func (s *Server) reportObject(w http.ResponseWriter, r *http.Request) {
	if s.Objects == nil {
		writeJSON(w, http.StatusServiceUnavailable, errResp{"object storage is not configured"})
		return
	}
	rep, ok := s.lookupReport(w, r)
	if !ok {
		return
	}
	if rep.Status != db.ReportDone || rep.ObjectRef == "" {
		writeJSON(w, http.StatusConflict, errResp{"report is " + rep.Status})
		return
	}
	b, err := s.Objects.Get(r.Context(), rep.ObjectRef)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errResp{err.Error()})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) lookupReport(w http.ResponseWriter, r *http.Request) (db.Report, bool) {
	if s.DB == nil {
		writeJSON(w, http.StatusServiceUnavailable, errResp{"report history needs a database"})
		return db.Report{}, false
	}
	rep, err := s.DB.GetReport(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, db.ErrReportNotFound):
		writeJSON(w, http.StatusNotFound, errResp{err.Error()})
		return db.Report{}, false
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errResp{err.Error()})
		return db.Report{}, false
	}
	return rep, true
}
