package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/CharlesScottBradley/fraudscan-sub002/internal/batch"
	"github.com/CharlesScottBradley/fraudscan-sub002/internal/config"
	"github.com/CharlesScottBradley/fraudscan-sub002/internal/extraction"
	infra "github.com/CharlesScottBradley/fraudscan-sub002/internal/infra/bigquery"
	"github.com/CharlesScottBradley/fraudscan-sub002/internal/logger"
)

func main() {
	// Parse CLI flags
	state := flag.String("state", "", "Restrict the batch to jurisdictions in one state, e.g. IN")
	limit := flag.Int("limit", 0, "Batch size; 0 applies the configured default")
	workers := flag.Int("workers", 0, "Concurrent extractions; 0 applies the configured default")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New()
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.NewWithLevel(cfg.Logger.Level)

	// Cancel the batch on SIGINT/SIGTERM: no new documents are issued, work
	// already in flight completes and persists.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	// All clients are constructed once here and injected; no component
	// reaches for ambient global state.
	repo, err := infra.NewRepository(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.DatasetID, cfg.Batch.FailureCooldown)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create document repository")
	}
	defer repo.Close()

	model, err := extraction.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create model client")
	}

	extractor := extraction.NewExtractor(extraction.NewFetcher(), model)

	workerCount := cfg.Batch.Workers
	if *workers > 0 {
		workerCount = *workers
	}

	scheduler := batch.NewScheduler(repo, extractor, batch.Options{
		DefaultLimit:    cfg.Batch.DefaultLimit,
		Workers:         workerCount,
		DocumentTimeout: cfg.Batch.DocumentTimeout,
		ModelName:       cfg.Gemini.Model,
	})

	log.Info().
		Str("state", *state).
		Int("workers", workerCount).
		Msg("Starting extraction batch run")

	summary, err := scheduler.Run(ctx, batch.BatchOptions{State: *state, Limit: *limit})
	if err != nil {
		log.Fatal().Err(err).Msg("Batch run failed")
	}

	log.Info().
		Int("selected", summary.Selected).
		Int("completed", summary.Completed).
		Int("failed", summary.Failed).
		Dur("elapsed", summary.Elapsed).
		Msg("Batch run finished")
}
