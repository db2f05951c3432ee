package pipeline

import (
	"errors"
	"math/rand"
	"time"

	"github.com/norsteel/takeoff/internal/extraction"
)

// IsRetryable reports whether an extraction error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *extraction.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns the wait before retry attempt n (0-indexed), exponential
// with jitter, capped at 30s.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}
