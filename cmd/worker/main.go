package main

import (
	"context"
	"log"

	"hackathon-scoreboard/internal/config"
	"hackathon-scoreboard/internal/db"
	"hackathon-scoreboard/internal/logging"
	"hackathon-scoreboard/internal/storage"
	"hackathon-scoreboard/internal/worker"
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

	if cfg.Redis.Addr == "" {
		log.Fatal("redis address is not set (HACKATHON_REDIS_ADDR)")
	}

	// Start services
	s3c, err := storage.New(context.Background(), cfg.S3, logger)
	if err != nil {
		log.Fatal(err)
	}
	var store worker.ReportStore
	if cfg.Database.URL != "" {
		dbase, err := db.Open(context.Background(), cfg.Database.URL)
		if err != nil {
			log.Fatal(err)
		}
		defer dbase.Close()
		store = db.NewStore(dbase)
	}

	logger.Info("worker_starting", "redis", cfg.Redis.Addr, "bucket", cfg.S3.Bucket)
	if err := worker.Run(cfg.Redis.Addr, store, s3c, logger); err != nil {
		log.Fatal(err)
	}
}
