package batch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/CharlesScottBradley/fraudscan-sub002/internal/extraction"
	infra "github.com/CharlesScottBradley/fraudscan-sub002/internal/infra/bigquery"
	"github.com/CharlesScottBradley/fraudscan-sub002/internal/logger"
)

// DocumentStore is the record-store surface the scheduler needs: filtered
// batch read plus the two mutually exclusive terminal writes, with run
// bookkeeping on the side.
type DocumentStore interface {
	ListPendingDocuments(ctx context.Context, state string, limit int) ([]*infra.PendingDocument, error)
	MarkExtractionCompleted(ctx context.Context, documentID string, data *extraction.ExtractedBudgetData) error
	MarkExtractionFailed(ctx context.Context, documentID string, errMsg string) error
	StartExtractionRun(ctx context.Context, documentID, modelName string) (string, error)
	FinishExtractionRun(ctx context.Context, runID string, result extraction.ExtractionResult) error
}

// DocumentExtractor runs one end-to-end extraction attempt.
type DocumentExtractor interface {
	ExtractDocument(ctx context.Context, sourceURL string) extraction.ExtractionResult
}

// Options configures a Scheduler.
type Options struct {
	// DefaultLimit is the batch size used when a run omits one.
	DefaultLimit int
	// Workers bounds the number of concurrent in-flight extractions. The
	// model call dominates latency, so this is the knob that bounds batch
	// wall-clock time without exceeding the service's rate limits.
	Workers int
	// DocumentTimeout bounds one document's attempt, independent of the HTTP
	// client's own timeout.
	DocumentTimeout time.Duration
	// ModelName is recorded on each extraction run for the audit trail.
	ModelName string
}

// BatchOptions scopes a single batch run.
type BatchOptions struct {
	// State restricts selection to jurisdictions in one state/region.
	// Empty selects across all jurisdictions.
	State string
	// Limit bounds the batch size; <= 0 applies the scheduler default.
	Limit int
}

// BatchSummary reports what a batch run did.
type BatchSummary struct {
	Selected  int
	Completed int
	Failed    int
	Elapsed   time.Duration
}

// Scheduler selects documents awaiting extraction and drives each through the
// extractor with a bounded worker pool. Documents never contend: each write is
// keyed by document id, so there is no cross-document locking and no
// batch-level transaction — cancellation mid-batch leaves prior documents
// fully persisted.
type Scheduler struct {
	store     DocumentStore
	extractor DocumentExtractor
	opts      Options
}

// NewScheduler wires a Scheduler from injected dependencies.
func NewScheduler(store DocumentStore, extractor DocumentExtractor, opts Options) *Scheduler {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 25
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.DocumentTimeout <= 0 {
		opts.DocumentTimeout = 5 * time.Minute
	}
	return &Scheduler{store: store, extractor: extractor, opts: opts}
}

// Run executes one batch: select pending documents, extract each, and commit
// exactly one terminal write per document per attempt. One document's failure
// never aborts the batch. Cancelling ctx stops issuing new extractions; work
// already in flight completes and persists.
func (s *Scheduler) Run(ctx context.Context, batch BatchOptions) (BatchSummary, error) {
	log := logger.FromContext(ctx)
	started := time.Now()

	limit := batch.Limit
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}

	docs, err := s.store.ListPendingDocuments(ctx, batch.State, limit)
	if err != nil {
		return BatchSummary{Elapsed: time.Since(started)}, err
	}

	log.Info().
		Int("selected", len(docs)).
		Str("state", batch.State).
		Int("workers", s.opts.Workers).
		Msg("Starting extraction batch")

	docChan := make(chan *infra.PendingDocument)
	var wg sync.WaitGroup
	var mu sync.Mutex
	summary := BatchSummary{Selected: len(docs)}

	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range docChan {
				ok := s.processDocument(ctx, doc)
				mu.Lock()
				if ok {
					summary.Completed++
				} else {
					summary.Failed++
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, doc := range docs {
		select {
		case docChan <- doc:
		case <-ctx.Done():
			log.Warn().Msg("Batch cancelled; no further documents will be issued")
			break feed
		}
	}
	close(docChan)
	wg.Wait()

	summary.Elapsed = time.Since(started)

	log.Info().
		Int("selected", summary.Selected).
		Int("completed", summary.Completed).
		Int("failed", summary.Failed).
		Dur("elapsed", summary.Elapsed).
		Msg("Extraction batch finished")

	return summary, nil
}

// processDocument runs one attempt and guarantees a terminal write. Returns
// true when the document ended in completed state.
func (s *Scheduler) processDocument(ctx context.Context, doc *infra.PendingDocument) bool {
	log := logger.FromContext(ctx).With().
		Str("document_id", doc.DocumentID).
		Str("jurisdiction", doc.JurisdictionName).
		Logger()

	attemptCtx, cancel := context.WithTimeout(ctx, s.opts.DocumentTimeout)
	defer cancel()

	// Run bookkeeping is awaited but never fatal to the attempt.
	runID, err := s.store.StartExtractionRun(attemptCtx, doc.DocumentID, s.opts.ModelName)
	if err != nil {
		log.Warn().Err(err).Msg("Could not record extraction run start")
	}

	result := s.extractor.ExtractDocument(attemptCtx, doc.SourceURL)

	// The terminal write is detached from batch cancellation and from the
	// per-document timeout: an attempt that started must end in a persisted
	// terminal state, never an ambiguous one.
	persistCtx, persistCancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer persistCancel()

	completed := s.persistResult(persistCtx, doc.DocumentID, result, log)

	if runID != "" {
		if err := s.store.FinishExtractionRun(persistCtx, runID, result); err != nil {
			log.Warn().Err(err).Str("run_id", runID).Msg("Could not record extraction run finish")
		}
	}

	return completed
}

// persistResult commits exactly one of the two terminal writes. If the
// success write itself fails, a failure write is attempted so the document is
// never left in an ambiguous state.
func (s *Scheduler) persistResult(ctx context.Context, documentID string, result extraction.ExtractionResult, log zerolog.Logger) bool {
	if result.Success {
		if err := s.store.MarkExtractionCompleted(ctx, documentID, result.Data); err != nil {
			log.Error().Err(err).Msg("Success write failed; recording attempt as failed")
			if failErr := s.store.MarkExtractionFailed(ctx, documentID, "persist extraction: "+err.Error()); failErr != nil {
				log.Error().Err(failErr).Msg("Failure write also failed; document state is stale")
			}
			return false
		}
		log.Info().
			Float64("confidence", result.Data.Confidence).
			Int64("processing_ms", result.ProcessingTimeMS).
			Msg("Document extraction completed")
		return true
	}

	if err := s.store.MarkExtractionFailed(ctx, documentID, result.Error); err != nil {
		log.Error().Err(err).Msg("Failure write failed; document state is stale")
		return false
	}
	log.Warn().
		Str("error", result.Error).
		Int64("processing_ms", result.ProcessingTimeMS).
		Msg("Document extraction failed")
	return false
}
