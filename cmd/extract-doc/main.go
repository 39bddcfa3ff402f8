package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/CharlesScottBradley/fraudscan-sub002/internal/config"
	"github.com/CharlesScottBradley/fraudscan-sub002/internal/extraction"
	infra "github.com/CharlesScottBradley/fraudscan-sub002/internal/infra/bigquery"
	"github.com/CharlesScottBradley/fraudscan-sub002/internal/logger"
)

// extract-doc runs one extraction attempt against a single document by ID and
// commits its terminal write. Useful for re-running a document by hand after
// a failure without waiting for the next batch.
func main() {
	docID := flag.String("id", "", "Document ID to extract")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New()
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.NewWithLevel(cfg.Logger.Level)

	if *docID == "" {
		log.Fatal().Msg("Error: --id is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Batch.DocumentTimeout+time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := infra.NewRepository(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.DatasetID, cfg.Batch.FailureCooldown)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create document repository")
	}
	defer repo.Close()

	doc, err := repo.GetDocument(ctx, *docID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load document")
	}
	if doc == nil {
		log.Fatal().Str("document_id", *docID).Msg("Document not found")
	}
	if !doc.SourceURL.Valid || doc.SourceURL.StringVal == "" {
		log.Fatal().Str("document_id", *docID).Msg("Document has no source URL")
	}

	model, err := extraction.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create model client")
	}

	extractor := extraction.NewExtractor(extraction.NewFetcher(), model)

	log.Info().
		Str("document_id", *docID).
		Str("source_url", doc.SourceURL.StringVal).
		Msg("Starting extraction")

	result := extractor.ExtractDocument(ctx, doc.SourceURL.StringVal)

	if result.Success {
		if err := repo.MarkExtractionCompleted(ctx, *docID, result.Data); err != nil {
			log.Fatal().Err(err).Msg("Failed to persist extraction")
		}
	} else {
		if err := repo.MarkExtractionFailed(ctx, *docID, result.Error); err != nil {
			log.Fatal().Err(err).Msg("Failed to persist failure")
		}
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}
