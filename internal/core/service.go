package core

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/leadbook/internal/ratelimit"
)

// RateLimiter gates how often a user may mutate leads.
type RateLimiter interface {
	Check(ctx context.Context, key string) (ratelimit.Decision, error)
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	// Limiter is consulted before every create, update, and import. Nil disables it.
	Limiter RateLimiter

	MaxImportRows        int
	MaxConcurrentImports int
	ImportWait           time.Duration

	// HistoryPreview is how many history entries Get returns (default 20).
	HistoryPreview int

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service provides the business logic for leads.
type Service struct {
	store          Store
	limiter        RateLimiter
	imports        *ImportLimiter
	maxImportRows  int
	historyPreview int
	now            func() time.Time
}

// NewService creates a Service over store.
func NewService(store Store, opts Options) *Service {
	if opts.MaxImportRows <= 0 {
		opts.MaxImportRows = DefaultMaxImportRows
	}
	if opts.HistoryPreview <= 0 {
		opts.HistoryPreview = 20
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:          store,
		limiter:        opts.Limiter,
		imports:        NewImportLimiter(opts.MaxConcurrentImports, opts.ImportWait),
		maxImportRows:  opts.MaxImportRows,
		historyPreview: opts.HistoryPreview,
		now:            opts.Now,
	}
}

// Ping checks storage connectivity.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// MaxImportRows is the configured import batch ceiling.
func (s *Service) MaxImportRows() int { return s.maxImportRows }

// ImportStatus reports active and free import slots.
func (s *Service) ImportStatus() (active, available int) {
	return s.imports.Active(), s.imports.Available()
}

// WaitForImports blocks until in-flight imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.imports.WaitForDrain(ctx)
}

// checkActor rejects anonymous mutations.
func checkActor(actor User) (User, error) {
	actor.ID = strings.TrimSpace(actor.ID)
	if actor.ID == "" {
		return User{}, ErrUnauthenticated
	}
	if strings.TrimSpace(actor.FullName) == "" {
		actor.FullName = actor.DisplayName()
	}
	return actor, nil
}

// checkRate consults the limiter. A limiter failure is logged and the
// request is let through.
func (s *Service) checkRate(ctx context.Context, actor User) error {
	if s.limiter == nil {
		return nil
	}
	d, err := s.limiter.Check(ctx, actor.ID)
	if err != nil {
		slog.Warn("rate limiter unavailable, allowing request",
			"actor", actor.ID,
			"error", err,
		)
		return nil
	}
	if !d.Allowed {
		slog.Info("rate limit exceeded",
			"actor", actor.ID,
			"retry_after_ms", d.RetryAfter.Milliseconds(),
			"ip", GetIPAddressFromContext(ctx),
		)
		return &RateLimitError{RetryAfter: d.RetryAfter}
	}
	return nil
}

// timestamp returns the current canonical time.
func (s *Service) timestamp() time.Time {
	return CanonicalTime(s.now())
}

// nextVersion returns a timestamp strictly after prev.
func (s *Service) nextVersion(prev time.Time) time.Time {
	next := s.timestamp()
	if !next.After(prev) {
		next = CanonicalTime(prev).Add(time.Microsecond)
	}
	return next
}
