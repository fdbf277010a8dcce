// Package retry holds the backoff policy used by the push retry loop.
package retry

import (
	"context"
	"time"

	"github.com/huangsam/publisher/schema"
)

// Backoff bounds.
const (
	BaseDelay = 2000 * time.Millisecond
	MaxDelay  = 10000 * time.Millisecond
)

// Delay returns the wait before retrying after the 0-based attempt n:
// min(2000 * 2^n, 10000) milliseconds.
func Delay(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	// 2000ms << 3 already exceeds the cap, so larger shifts are not needed.
	if n > 3 {
		return MaxDelay
	}
	return min(BaseDelay<<n, MaxDelay)
}

// ShouldRetry reports whether a failure of the given kind is transient.
func ShouldRetry(kind schema.ErrorKind) bool {
	switch kind {
	case schema.NetworkError, schema.Timeout, schema.ConnectionRefused, schema.ProxyError:
		return true
	default:
		return false
	}
}

// Wait blocks for d or until ctx is done, whichever comes first.
// It returns ctx.Err() when interrupted.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
