package extraction

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/CharlesScottBradley/fraudscan-sub002/internal/logger"
)

// MaxEncodedPDFBytes is the hard ceiling on a document's base64-encoded
// payload. It is a cost-control contract, not a document-format restriction:
// anything above it is rejected before spending a model call.
const MaxEncodedPDFBytes = 30 * 1024 * 1024

// Extractor sequences one document's pipeline: fetch, size check, model call,
// normalization. It performs no retries; a transient failure surfaces as an
// unsuccessful result for this attempt and retry policy belongs to the caller.
type Extractor struct {
	fetcher DocumentFetcher
	model   ModelClient
}

// NewExtractor wires the pipeline from injected dependencies.
func NewExtractor(fetcher DocumentFetcher, model ModelClient) *Extractor {
	return &Extractor{fetcher: fetcher, model: model}
}

// ExtractDocument runs one end-to-end extraction attempt against the document
// at sourceURL. Every failure mode collapses into the result's error channel;
// processing time is recorded regardless of outcome.
func (e *Extractor) ExtractDocument(ctx context.Context, sourceURL string) ExtractionResult {
	log := logger.FromContext(ctx)
	started := time.Now()

	fail := func(err error) ExtractionResult {
		log.Warn().
			Err(err).
			Str("source_url", sourceURL).
			Msg("Extraction attempt failed")
		return ExtractionResult{
			Success:          false,
			Error:            err.Error(),
			ProcessingTimeMS: time.Since(started).Milliseconds(),
		}
	}

	pdfBytes, err := e.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		return fail(err)
	}

	// Size is checked on the encoded payload post-fetch to avoid a second
	// network round trip. Over-size documents never reach the model.
	encodedLen := base64.StdEncoding.EncodedLen(len(pdfBytes))
	if encodedLen > MaxEncodedPDFBytes {
		return fail(&TooLargeError{EncodedBytes: encodedLen, LimitBytes: MaxEncodedPDFBytes})
	}

	rawText, err := e.model.GenerateFromDocument(ctx, pdfBytes, systemInstruction, extractionPrompt)
	if err != nil {
		return fail(err)
	}

	data, err := parseModelOutput(rawText)
	if err != nil {
		return fail(err)
	}

	log.Info().
		Str("source_url", sourceURL).
		Float64("confidence", data.Confidence).
		Int64("processing_ms", time.Since(started).Milliseconds()).
		Msg("Extraction attempt succeeded")

	return ExtractionResult{
		Success:          true,
		Data:             data,
		ProcessingTimeMS: time.Since(started).Milliseconds(),
	}
}
