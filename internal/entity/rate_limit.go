package entity

import (
	"context"
	"time"
)

type RateLimitRecord struct {
	Identifier string    `json:"identifier"`
	Count      int       `json:"count"`
	ResetAt    time.Time `json:"reset_at"`
}

// Expired reports whether the window ended strictly before now.
func (r RateLimitRecord) Expired(now time.Time) bool {
	return r.ResetAt.Before(now)
}

// RateLimitStore keeps fixed-window counters per client identifier.
//
// Increment starts a new window (count 1, reset now+window) when the
// identifier is unknown or its window expired, otherwise it adds one to the
// live window. Implementations must make that check-and-increment atomic.
type RateLimitStore interface {
	Increment(ctx context.Context, identifier string, now time.Time, window time.Duration) (RateLimitRecord, error)
	Sweep(ctx context.Context, now time.Time) (int, error)
}
