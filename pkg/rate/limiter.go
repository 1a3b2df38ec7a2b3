package rate

import (
	"math"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter limits operations per key.
type Limiter interface {
	Allow(key string) (bool, error)
}

// New returns a Limiter allowing limit operations per second for each key,
// with a burst of the same size. A non-positive limit disables limiting.
func New(limit float64) Limiter {
	if limit <= 0 {
		return NoLimiter{}
	}
	return NewLocalRateLimiter(rate.Limit(limit))
}

type localRateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLocalRateLimiter returns an in-memory token bucket limiter.
func NewLocalRateLimiter(limit rate.Limit) Limiter {
	return &localRateLimiter{
		limit:    limit,
		burst:    int(math.Max(1, math.Ceil(float64(limit)))),
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *localRateLimiter) Allow(key string) (bool, error) {
	l.mu.Lock()
	bucket, ok := l.limiters[key]
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = bucket
	}
	l.mu.Unlock()

	return bucket.Allow(), nil
}

// NoLimiter allows every operation.
type NoLimiter struct{}

func (NoLimiter) Allow(string) (bool, error) {
	return true, nil
}
