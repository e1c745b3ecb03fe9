package adapter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/ratelimit/port"
)

// MemoryLimiter keeps one token bucket per key in process memory. Suitable for
// single-instance deployments and as the fallback when Redis is not
// configured.
type MemoryLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*memoryBucket
	limit    rate.Limit
	burst    int
	lifetime time.Duration
}

type memoryBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryLimiter allows `limit` actions per `window` with a burst of the
// same size. Idle buckets are evicted lazily so the map stays bounded.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &MemoryLimiter{
		buckets:  make(map[string]*memoryBucket),
		limit:    rate.Every(window / time.Duration(limit)),
		burst:    limit,
		lifetime: 2 * window,
	}
}

// Ensure interface compliance at compile time
var _ port.Limiter = (*MemoryLimiter)(nil)

func (m *MemoryLimiter) Allow(_ context.Context, key string) port.Decision {
	now := time.Now()

	m.mu.Lock()
	b := m.buckets[key]
	if b == nil {
		b = &memoryBucket{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.buckets[key] = b
	}
	b.lastSeen = now
	m.evictStaleLocked(now)
	lim := b.limiter
	m.mu.Unlock()

	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return port.Decision{Allowed: false, RetryAfter: time.Second}
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return port.Decision{Allowed: false, RetryAfter: delay}
	}
	return port.Decision{Allowed: true}
}

func (m *MemoryLimiter) evictStaleLocked(now time.Time) {
	for key, b := range m.buckets {
		if now.Sub(b.lastSeen) > m.lifetime {
			delete(m.buckets, key)
		}
	}
}
