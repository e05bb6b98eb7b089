package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/time/rate"

	"hackathon-scoreboard/internal/config"
	"hackathon-scoreboard/internal/db"
	"hackathon-scoreboard/internal/events"
	httpSrv "hackathon-scoreboard/internal/http"
	"hackathon-scoreboard/internal/logging"
	"hackathon-scoreboard/internal/metrics"
	"hackathon-scoreboard/internal/migrations"
	"hackathon-scoreboard/internal/storage"
	"hackathon-scoreboard/internal/teams"
)

func main() {
	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatal(err)
	}
	logger, closer, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatal(err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := teams.NewRegistry()
	for _, e := range reg.LoadFile(cfg.Data.Path) {
		logger.Warn("row_rejected", "line", e.Line, "reason", e.Message)
	}
	metrics.SetTeams(reg.Len())
	logger.Info("registry_loaded", "path", cfg.Data.Path, "teams", reg.Len())

	srv := &httpSrv.Server{
		Teams:      reg,
		Log:        logger,
		DataPath:   cfg.Data.Path,
		ReportPath: cfg.Report.Path,
		APIToken:   cfg.HTTP.APIToken,
		Limiter:    rate.NewLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst),
		Events:     events.New(cfg.Kafka, logger),
	}
	defer srv.Events.Close()

	if cfg.Database.URL != "" {
		// Run embedded migrations (idempotent)
		if err := migrations.Run(cfg.Database.URL); err != nil {
			log.Fatal(err)
		}
		dbase, err := db.Open(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatal(err)
		}
		defer dbase.Close()
		store := db.NewStore(dbase)
		if reg.Len() == 0 {
			// Nothing on disk: fall back to the last mirrored state.
			ts, err := store.ListTeams(ctx)
			if err != nil {
				logger.Error("db_restore_failed", "err", err)
			} else if len(ts) > 0 {
				reg.Replace(ts)
				metrics.SetTeams(reg.Len())
				logger.Info("registry_restored", "source", "postgres", "teams", reg.Len())
			}
		} else if err := store.ReplaceTeams(ctx, reg.Snapshot()); err != nil {
			logger.Error("db_mirror_failed", "err", err)
		}
		srv.DB = store
	}
	if cfg.S3.Bucket != "" {
		s3c, err := storage.New(ctx, cfg.S3, logger)
		if err != nil {
			log.Fatal(err)
		}
		srv.Objects = s3c
	}
	if cfg.Redis.Addr != "" {
		asq := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr})
		defer asq.Close()
		srv.Asynq = asq
	}

	hs := httpSrv.NewServer(srv, cfg.HTTP.Addr)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	logger.Info("api_listening", "addr", cfg.HTTP.Addr)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
