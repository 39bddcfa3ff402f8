package extraction

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// ModelClient is the opaque boundary to the external extraction service:
// a document plus instructions in, raw text out. Implementations surface
// transport and credential failures as typed errors so the pipeline can be
// tested against a stub without touching the live service.
type ModelClient interface {
	GenerateFromDocument(ctx context.Context, pdfBytes []byte, system, prompt string) (string, error)
}

// GeminiClient sends budget PDFs to the Gemini vision model.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient constructs the model client once at process start; it is
// injected into the Extractor rather than reached for as ambient global state.
// apiKey may be empty when GEMINI_API_KEY or Vertex AI ADC is configured in
// the environment.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" && os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_GENAI_USE_VERTEXAI") == "" {
		return nil, &ModelTransportError{Err: fmt.Errorf("no Gemini credentials: set GEMINI_API_KEY or configure Vertex AI")}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, &ModelTransportError{Err: fmt.Errorf("create genai client: %w", err)}
	}

	return &GeminiClient{client: client, model: model}, nil
}

// GenerateFromDocument sends the PDF and prompts to Gemini and returns the
// first text part of the response. An answer with no text part is a
// *NoResponseError.
func (g *GeminiClient) GenerateFromDocument(ctx context.Context, pdfBytes []byte, system, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: "application/pdf",
						Data:     pdfBytes,
					},
				},
			},
		},
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", &ModelTransportError{Err: err}
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				return part.Text, nil
			}
		}
	}

	return "", &NoResponseError{}
}
