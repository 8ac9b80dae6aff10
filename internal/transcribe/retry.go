package transcribe

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy decides whether and when a failed chunk is attempted again.
type RetryPolicy struct {
	MaxRetries int
	Retryable  func(error) bool
	Backoff    func(attempt int) time.Duration
}

// WithRetry wraps t so each chunk may be retried under policy. The
// orchestrator itself never retries; this is an explicit caller choice.
func WithRetry(t Transcriber, policy RetryPolicy, log *slog.Logger) Transcriber {
	if policy.MaxRetries <= 0 || policy.Retryable == nil || policy.Backoff == nil {
		return t
	}
	if log == nil {
		log = slog.Default()
	}
	return &retryTranscriber{next: t, policy: policy, log: log}
}

type retryTranscriber struct {
	next   Transcriber
	policy RetryPolicy
	log    *slog.Logger
}

func (r *retryTranscriber) Transcribe(ctx context.Context, filename string, data []byte) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		text, err := r.next.Transcribe(ctx, filename, data)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !r.policy.Retryable(err) || attempt == r.policy.MaxRetries {
			break
		}
		r.log.Warn("retryable transcription error", "file", filename, "attempt", attempt, "error", err)
		select {
		case <-time.After(r.policy.Backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}
