package usecase

import (
	"context"
	"math"
	"time"

	"github.com/xavierca1/immo-leads/internal/entity"
)

const (
	DefaultRateLimit       = 5
	DefaultRateLimitWindow = time.Hour
)

// RateLimiter is a fixed-window limiter over an injected store.
type RateLimiter struct {
	Store  entity.RateLimitStore
	Limit  int
	Window time.Duration
	Clock  func() time.Time
}

type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the number of whole seconds, rounded up, until the window
// resets.
func (d RateLimitDecision) RetryAfter(now time.Time) int {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return 0
	}
	return int(math.Ceil(wait.Seconds()))
}

func NewRateLimiter(store entity.RateLimitStore, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		Store:  store,
		Limit:  limit,
		Window: window,
	}
}

// Check counts one request for identifier. A store error is returned along
// with an allowing decision; callers decide whether to fail open.
func (l *RateLimiter) Check(ctx context.Context, identifier string) (RateLimitDecision, error) {
	limit := l.limit()
	now := l.Now()

	record, err := l.Store.Increment(ctx, identifier, now, l.window())
	if err != nil {
		return RateLimitDecision{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetAt:   now.Add(l.window()),
		}, err
	}

	if record.Count > limit {
		return RateLimitDecision{Allowed: false, Limit: limit, Remaining: 0, ResetAt: record.ResetAt}, nil
	}

	return RateLimitDecision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - record.Count,
		ResetAt:   record.ResetAt,
	}, nil
}

func (l *RateLimiter) Now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}

func (l *RateLimiter) limit() int {
	if l.Limit <= 0 {
		return DefaultRateLimit
	}
	return l.Limit
}

func (l *RateLimiter) window() time.Duration {
	if l.Window <= 0 {
		return DefaultRateLimitWindow
	}
	return l.Window
}
