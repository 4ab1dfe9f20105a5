package vision

import (
	"context"
	"fmt"
)

// Client sends one normalized product photo plus an instruction prompt to a
// vision-capable model and returns the raw response text. Parsing the text
// is the caller's concern; implementations must be safe for concurrent use.
type Client interface {
	// Invoke performs the model call. imageJPEG is a normalized JPEG; the
	// returned string is the model's message content, untouched.
	Invoke(ctx context.Context, imageJPEG []byte, prompt string) (string, error)
	// Name returns a short provider label for logs and the health endpoint.
	Name() string
}

// ModelInvocationError is the failure of a model call after the retry
// budget is spent, or immediately for non-retryable responses. It carries
// the HTTP status and a response body snippet for observability.
type ModelInvocationError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ModelInvocationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s model call failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s model call failed: %v", e.Provider, e.Err)
}

func (e *ModelInvocationError) Unwrap() error {
	return e.Err
}

// bodySnippet caps response bodies kept in errors and logs.
func bodySnippet(body string) string {
	const max = 200
	r := []rune(body)
	if len(r) > max {
		return string(r[:max]) + "..."
	}
	return body
}
