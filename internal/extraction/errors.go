package extraction

import "fmt"

// FetchError indicates the budget PDF could not be retrieved from its source.
type FetchError struct {
	URL        string
	StatusCode int // 0 when the transfer itself failed
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// TooLargeError indicates the document's encoded payload exceeds the hard
// operational ceiling and was rejected before spending a model call.
type TooLargeError struct {
	EncodedBytes int
	LimitBytes   int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("document too large: base64 payload %d bytes exceeds %d byte limit", e.EncodedBytes, e.LimitBytes)
}

// ModelTransportError indicates the extraction service call failed or timed
// out, or credentials were missing.
type ModelTransportError struct {
	Err error
}

func (e *ModelTransportError) Error() string {
	return fmt.Sprintf("model request failed: %v", e.Err)
}

func (e *ModelTransportError) Unwrap() error { return e.Err }

// NoResponseError indicates the model response contained no text block.
type NoResponseError struct{}

func (e *NoResponseError) Error() string {
	return "model response contained no text content"
}

// ParseError indicates the model's text output did not parse as the expected
// JSON schema. RawLength is kept for diagnostics; the raw text itself may be
// large and is not embedded in the message.
type ParseError struct {
	RawLength int
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model output (%d bytes): %v", e.RawLength, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
