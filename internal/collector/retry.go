package collector

import (
	"context"
	"log"
	"time"
)

// FetchWithRetry invokes fn, retrying with exponential backoff capped at
// 5 seconds. Failures never escape this boundary: after the last attempt
// the zero value and ok=false are returned, and callers treat "no data"
// as a first-class outcome.
func FetchWithRetry[T any](ctx context.Context, label string, attempts int, fn func() (T, error)) (T, bool) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := fn()
		if err == nil {
			return v, true
		}
		lastErr = err
		log.Printf("[WARN] %s fetch failed (attempt %d/%d): %v", label, attempt, attempts, err)
		if attempt < attempts {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			if backoff > 5*time.Second {
				backoff = 5 * time.Second
			}
			select {
			case <-ctx.Done():
				log.Printf("[WARN] %s fetch aborted: %v", label, ctx.Err())
				return zero, false
			case <-time.After(backoff):
			}
		}
	}
	log.Printf("[ERROR] %s fetch gave up after %d attempts: %v", label, attempts, lastErr)
	return zero, false
}
