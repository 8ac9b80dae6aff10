package llm

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// RetryableError indicates a transient provider failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// classifyOpenAI maps go-openai errors onto RetryableError where the
// status says the request may succeed later.
func classifyOpenAI(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && retryableStatus(apiErr.HTTPStatusCode) {
		return fmt.Errorf("%s: %w", op, &RetryableError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message})
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && retryableStatus(reqErr.HTTPStatusCode) {
		return fmt.Errorf("%s: %w", op, &RetryableError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()})
	}
	return fmt.Errorf("%s: %w", op, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
