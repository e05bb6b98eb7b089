package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"hackathon-scoreboard/internal/db"
	"hackathon-scoreboard/internal/metrics"
	"hackathon-scoreboard/internal/report"
	"hackathon-scoreboard/internal/teams"
)

const TypeReportGenerate = "report:generate"

var validate = validator.New()

// ReportPayload carries a frozen copy of the registry so the job never
// depends on the live one.
type ReportPayload struct {
	ReportID    string       `json:"report_id" validate:"required"`
	RequestedBy string       `json:"requested_by" validate:"required"`
	Teams       []teams.Team `json:"teams" validate:"dive"`
}

func NewReportTask(p ReportPayload) (*asynq.Task, error) {
	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("report payload: %w", err)
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReportGenerate, b, asynq.MaxRetry(3)), nil
}

func ParseReportPayload(b []byte) (ReportPayload, error) {
	var p ReportPayload
	if err := json.Unmarshal(b, &p); err != nil {
		return ReportPayload{}, fmt.Errorf("decode report payload: %w", err)
	}
	if err := validate.Struct(p); err != nil {
		return ReportPayload{}, fmt.Errorf("report payload: %w", err)
	}
	return p, nil
}

type Uploader interface {
	PutReport(ctx context.Context, id, text string) (string, error)
	PutSnapshot(ctx context.Context, id string, ts []teams.Team) (string, error)
}

type ReportStore interface {
	FinishReport(ctx context.Context, r db.Report) error
}

type Server struct {
	Store ReportStore
	S3    Uploader
	Log   *slog.Logger
}

func (s *Server) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReportGenerate, s.handleReport)
	return mux
}

func (s *Server) handleReport(ctx context.Context, t *asynq.Task) error {
	p, err := ParseReportPayload(t.Payload())
	if err != nil {
		s.Log.Error("report_payload_invalid", "err", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	ctx, span := otel.Tracer("hackathon-scoreboard/worker").Start(ctx, "report.generate",
		trace.WithAttributes(
			attribute.String("report.id", p.ReportID),
			attribute.String("report.requested_by", p.RequestedBy),
			attribute.Int("report.teams", len(p.Teams)),
		))
	defer span.End()

	log := s.Log.With("report_id", p.ReportID)
	log.Info("report_generation_started", "teams", len(p.Teams), "requested_by", p.RequestedBy)

	text := report.Build(report.List(p.Teams))
	rec := db.Report{ID: p.ReportID, RequestedBy: p.RequestedBy, TeamCount: len(p.Teams), Status: db.ReportDone}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ref, err := s.S3.PutReport(gctx, p.ReportID, text)
		rec.ObjectRef = ref
		return err
	})
	g.Go(func() error {
		ref, err := s.S3.PutSnapshot(gctx, p.ReportID, p.Teams)
		rec.SnapshotRef = ref
		return err
	})
	uploadErr := g.Wait()
	if uploadErr != nil {
		rec.Status, rec.Error = db.ReportFailed, uploadErr.Error()
		span.RecordError(uploadErr)
		span.SetStatus(codes.Error, uploadErr.Error())
	}

	if s.Store != nil {
		if err := s.Store.FinishReport(ctx, rec); err != nil {
			log.Error("report_record_failed", "err", err)
			metrics.ReportGenerated("worker", false)
			return err
		}
	}
	metrics.ReportGenerated("worker", uploadErr == nil)
	if uploadErr != nil {
		log.Error("report_upload_failed", "err", uploadErr)
		return uploadErr
	}

	span.SetStatus(codes.Ok, "report stored")
	log.Info("report_generation_finished", "object_ref", rec.ObjectRef, "snapshot_ref", rec.SnapshotRef)
	return nil
}

func Run(addr string, store ReportStore, up Uploader, log *slog.Logger) error {
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: addr}, asynq.Config{Concurrency: 5})
	w := &Server{Store: store, S3: up, Log: log}
	return srv.Run(w.mux())
}
