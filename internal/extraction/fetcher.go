package extraction

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// DocumentFetcher retrieves raw document bytes from a source URL.
type DocumentFetcher interface {
	Fetch(ctx context.Context, sourceURL string) ([]byte, error)
}

// Fetcher downloads budget PDFs over HTTP(S), with a gs:// branch for
// jurisdictions whose documents are mirrored into Cloud Storage. It performs
// no size check; the orchestrator enforces the payload ceiling so the fetch
// happens exactly once.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a Fetcher with a sane transfer timeout. The per-attempt
// deadline still comes from the caller's context.
func NewFetcher() *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// NewFetcherWithClient creates a Fetcher using the provided HTTP client.
func NewFetcherWithClient(client *http.Client) *Fetcher {
	return &Fetcher{httpClient: client}
}

// Fetch retrieves the document bytes, failing with *FetchError on a
// non-success HTTP status or a transfer error.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL string) ([]byte, error) {
	if strings.HasPrefix(sourceURL, "gs://") {
		return f.fetchFromGCS(ctx, sourceURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, &FetchError{URL: sourceURL, Err: err}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: sourceURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: sourceURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: sourceURL, Err: err}
	}

	return data, nil
}

// fetchFromGCS downloads the file bytes from the given GCS URI.
// gcsURI example: gs://my-bucket/path/to/file.pdf
func (f *Fetcher) fetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	trimmed := strings.TrimPrefix(gcsURI, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 {
		return nil, &FetchError{URL: gcsURI, Err: fmt.Errorf("invalid GCS URI (no object path)")}
	}

	bucketName := parts[0]
	objectPath := parts[1]

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, &FetchError{URL: gcsURI, Err: fmt.Errorf("creating storage client: %w", err)}
	}
	defer storageClient.Close()

	rc, err := storageClient.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, &FetchError{URL: gcsURI, Err: fmt.Errorf("reading object %s/%s: %w", bucketName, objectPath, err)}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &FetchError{URL: gcsURI, Err: fmt.Errorf("reading bytes: %w", err)}
	}

	return data, nil
}
