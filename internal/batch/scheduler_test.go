package batch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/CharlesScottBradley/fraudscan-sub002/internal/extraction"
	infra "github.com/CharlesScottBradley/fraudscan-sub002/internal/infra/bigquery"
)

// mockStore is a mock implementation of DocumentStore for testing.
type mockStore struct {
	ListPendingDocumentsFunc    func(ctx context.Context, state string, limit int) ([]*infra.PendingDocument, error)
	MarkExtractionCompletedFunc func(ctx context.Context, documentID string, data *extraction.ExtractedBudgetData) error
	MarkExtractionFailedFunc    func(ctx context.Context, documentID string, errMsg string) error

	mu           sync.Mutex
	completedIDs []string
	failedIDs    []string
	failedMsgs   map[string]string
	runsStarted  []string
	runsFinished []string
}

func (m *mockStore) ListPendingDocuments(ctx context.Context, state string, limit int) ([]*infra.PendingDocument, error) {
	if m.ListPendingDocumentsFunc != nil {
		return m.ListPendingDocumentsFunc(ctx, state, limit)
	}
	return nil, nil
}

func (m *mockStore) MarkExtractionCompleted(ctx context.Context, documentID string, data *extraction.ExtractedBudgetData) error {
	if m.MarkExtractionCompletedFunc != nil {
		if err := m.MarkExtractionCompletedFunc(ctx, documentID, data); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completedIDs = append(m.completedIDs, documentID)
	return nil
}

func (m *mockStore) MarkExtractionFailed(ctx context.Context, documentID string, errMsg string) error {
	if m.MarkExtractionFailedFunc != nil {
		if err := m.MarkExtractionFailedFunc(ctx, documentID, errMsg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failedIDs = append(m.failedIDs, documentID)
	if m.failedMsgs == nil {
		m.failedMsgs = make(map[string]string)
	}
	m.failedMsgs[documentID] = errMsg
	return nil
}

func (m *mockStore) StartExtractionRun(ctx context.Context, documentID, modelName string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runsStarted = append(m.runsStarted, documentID)
	return "run-" + documentID, nil
}

func (m *mockStore) FinishExtractionRun(ctx context.Context, runID string, result extraction.ExtractionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runsFinished = append(m.runsFinished, runID)
	return nil
}

// mockExtractor is a mock implementation of DocumentExtractor.
type mockExtractor struct {
	ExtractDocumentFunc func(ctx context.Context, sourceURL string) extraction.ExtractionResult
}

func (m *mockExtractor) ExtractDocument(ctx context.Context, sourceURL string) extraction.ExtractionResult {
	if m.ExtractDocumentFunc != nil {
		return m.ExtractDocumentFunc(ctx, sourceURL)
	}
	return extraction.ExtractionResult{Success: true, Data: &extraction.ExtractedBudgetData{Confidence: 0.5}}
}

func pendingDocs(ids ...string) []*infra.PendingDocument {
	docs := make([]*infra.PendingDocument, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, &infra.PendingDocument{
			DocumentID:       id,
			JurisdictionID:   "jur-1",
			JurisdictionName: "Marion County",
			Title:            "FY2024 Adopted Budget",
			SourceURL:        "https://example.gov/" + id + ".pdf",
		})
	}
	return docs
}

func TestSchedulerRun_MixedOutcomes(t *testing.T) {
	store := &mockStore{
		ListPendingDocumentsFunc: func(ctx context.Context, state string, limit int) ([]*infra.PendingDocument, error) {
			return pendingDocs("doc-1", "doc-2", "doc-3"), nil
		},
	}
	extractor := &mockExtractor{
		ExtractDocumentFunc: func(ctx context.Context, sourceURL string) extraction.ExtractionResult {
			if strings.Contains(sourceURL, "doc-2") {
				return extraction.ExtractionResult{Success: false, Error: "model request failed: timeout"}
			}
			return extraction.ExtractionResult{Success: true, Data: &extraction.ExtractedBudgetData{Confidence: 0.8}}
		},
	}

	s := NewScheduler(store, extractor, Options{Workers: 2, ModelName: "gemini-2.5-flash"})
	summary, err := s.Run(context.Background(), BatchOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Selected != 3 || summary.Completed != 2 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want 3 selected / 2 completed / 1 failed", summary)
	}
	if len(store.completedIDs) != 2 {
		t.Errorf("completed writes = %v, want 2", store.completedIDs)
	}
	if len(store.failedIDs) != 1 || store.failedIDs[0] != "doc-2" {
		t.Errorf("failed writes = %v, want [doc-2]", store.failedIDs)
	}
	if store.failedMsgs["doc-2"] == "" {
		t.Error("failed write must carry a non-empty error message")
	}
	// Exactly one terminal write per document per attempt.
	if total := len(store.completedIDs) + len(store.failedIDs); total != 3 {
		t.Errorf("terminal writes = %d, want 3", total)
	}
	if len(store.runsStarted) != 3 || len(store.runsFinished) != 3 {
		t.Errorf("run bookkeeping: started=%d finished=%d, want 3/3", len(store.runsStarted), len(store.runsFinished))
	}
}

func TestSchedulerRun_OneFailureDoesNotAbortBatch(t *testing.T) {
	store := &mockStore{
		ListPendingDocumentsFunc: func(ctx context.Context, state string, limit int) ([]*infra.PendingDocument, error) {
			return pendingDocs("doc-1", "doc-2", "doc-3", "doc-4"), nil
		},
	}
	extractor := &mockExtractor{
		ExtractDocumentFunc: func(ctx context.Context, sourceURL string) extraction.ExtractionResult {
			return extraction.ExtractionResult{Success: false, Error: "fetch failed"}
		},
	}

	s := NewScheduler(store, extractor, Options{Workers: 1})
	summary, err := s.Run(context.Background(), BatchOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Failed != 4 {
		t.Errorf("Failed = %d, want 4: every document gets its own attempt", summary.Failed)
	}
}

func TestSchedulerRun_DefaultLimit(t *testing.T) {
	var gotLimit int
	var gotState string
	store := &mockStore{
		ListPendingDocumentsFunc: func(ctx context.Context, state string, limit int) ([]*infra.PendingDocument, error) {
			gotLimit, gotState = limit, state
			return nil, nil
		},
	}

	s := NewScheduler(store, &mockExtractor{}, Options{DefaultLimit: 25, Workers: 2})

	if _, err := s.Run(context.Background(), BatchOptions{State: "IN"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if gotLimit != 25 {
		t.Errorf("limit = %d, want default 25", gotLimit)
	}
	if gotState != "IN" {
		t.Errorf("state = %q, want IN", gotState)
	}

	if _, err := s.Run(context.Background(), BatchOptions{Limit: 5}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if gotLimit != 5 {
		t.Errorf("limit = %d, want explicit 5", gotLimit)
	}
}

func TestSchedulerRun_SelectionError(t *testing.T) {
	store := &mockStore{
		ListPendingDocumentsFunc: func(ctx context.Context, state string, limit int) ([]*infra.PendingDocument, error) {
			return nil, errors.New("query failed")
		},
	}

	s := NewScheduler(store, &mockExtractor{}, Options{})
	_, err := s.Run(context.Background(), BatchOptions{})
	if err == nil {
		t.Fatal("Expected error when selection fails")
	}
}

func TestSchedulerRun_SuccessWriteFailureFallsBack(t *testing.T) {
	store := &mockStore{
		ListPendingDocumentsFunc: func(ctx context.Context, state string, limit int) ([]*infra.PendingDocument, error) {
			return pendingDocs("doc-1"), nil
		},
		MarkExtractionCompletedFunc: func(ctx context.Context, documentID string, data *extraction.ExtractedBudgetData) error {
			return errors.New("update quota exceeded")
		},
	}

	s := NewScheduler(store, &mockExtractor{}, Options{Workers: 1})
	summary, err := s.Run(context.Background(), BatchOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Completed != 0 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want 0 completed / 1 failed", summary)
	}
	if len(store.failedIDs) != 1 {
		t.Fatalf("Expected a fallback failure write, got %v", store.failedIDs)
	}
	if !strings.Contains(store.failedMsgs["doc-1"], "quota") {
		t.Errorf("Fallback write should carry the store error, got: %q", store.failedMsgs["doc-1"])
	}
}

func TestSchedulerRun_CancellationStopsNewWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	store := &mockStore{
		ListPendingDocumentsFunc: func(ctx context.Context, state string, limit int) ([]*infra.PendingDocument, error) {
			return pendingDocs("doc-1", "doc-2", "doc-3", "doc-4", "doc-5"), nil
		},
	}
	extractor := &mockExtractor{
		ExtractDocumentFunc: func(ctx context.Context, sourceURL string) extraction.ExtractionResult {
			cancel() // first in-flight document cancels the batch
			time.Sleep(10 * time.Millisecond)
			return extraction.ExtractionResult{Success: true, Data: &extraction.ExtractedBudgetData{Confidence: 0.5}}
		},
	}

	s := NewScheduler(store, extractor, Options{Workers: 1})
	summary, err := s.Run(ctx, BatchOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	processed := summary.Completed + summary.Failed
	if processed >= summary.Selected {
		t.Errorf("processed %d of %d documents; cancellation should stop issuing new work", processed, summary.Selected)
	}
	// In-flight work still got its terminal write.
	if processed == 0 {
		t.Error("in-flight document should complete and persist after cancellation")
	}
}
