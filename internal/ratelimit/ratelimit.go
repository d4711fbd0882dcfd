// Package ratelimit provides fixed-window request counting keyed by an
// arbitrary string (the acting user id for lead mutations).
//
// A Limiter holds the policy (limit per window) and delegates counting to a
// CounterStore. MemoryStore serves a single process; RedisStore shares
// counters across every instance pointing at the same Redis.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// CounterStore counts hits per key within fixed windows.
type CounterStore interface {
	// Incr records one hit for key and returns the hit count in the current
	// window and when that window ends. A new window starts on the first hit
	// after the previous one ended.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)

	// Reset forgets all hits for key.
	Reset(ctx context.Context, key string) error
}

// Limiter allows at most limit hits per key per window.
type Limiter struct {
	store  CounterStore
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithKeyPrefix namespaces keys, e.g. "leads:mutate:".
func WithKeyPrefix(prefix string) Option {
	return func(l *Limiter) { l.prefix = prefix }
}

// WithClock overrides the time source used for RetryAfter.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a Limiter over store.
func New(store CounterStore, limit int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check records a hit for key and reports whether it is within the limit.
func (l *Limiter) Check(ctx context.Context, key string) (Decision, error) {
	count, resetAt, err := l.store.Incr(ctx, l.prefix+key, l.window)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{Limit: l.limit, ResetAt: resetAt}
	if count <= int64(l.limit) {
		d.Allowed = true
		d.Remaining = l.limit - int(count)
		return d, nil
	}

	d.RetryAfter = resetAt.Sub(l.now())
	if d.RetryAfter < time.Second {
		d.RetryAfter = time.Second
	}
	return d, nil
}

// Reset clears the window for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.store.Reset(ctx, l.prefix+key)
}
