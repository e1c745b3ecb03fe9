package port

import (
	"context"
	"errors"
	"time"
)

// ErrRateLimited signals that the caller exceeded its window. Use
// errors.Is to detect it; the Decision carries the retry hint.
var ErrRateLimited = errors.New("ratelimit: too many actions")

// Decision is the outcome of a limiter check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration // populated when Allowed is false
}

// Limiter throttles actions per key (typically "user:action"). Implementations
// must be concurrency-safe and degrade gracefully: a refused action returns a
// retry hint, never an error, and transport failures of a remote backend fail
// open rather than blocking the hot path.
type Limiter interface {
	Allow(ctx context.Context, key string) Decision
}
