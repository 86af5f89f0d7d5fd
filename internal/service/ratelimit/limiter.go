package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a keyed token bucket. Webhook endpoints use it per client
// address so a runaway TradingView alert loop cannot flood the pipeline.
type Limiter struct {
	capacity float64
	refill   float64 // tokens per second
	nowFn    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.nowFn = now }
}

// New creates a limiter with the given burst capacity and refill rate.
func New(capacity, refillPerSec float64, opts ...Option) *Limiter {
	l := &Limiter{
		capacity: capacity,
		refill:   refillPerSec,
		nowFn:    time.Now,
		buckets:  make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow consumes one token for key, reporting whether one was available.
func (l *Limiter) Allow(key string) bool {
	now := l.nowFn()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * l.refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
