package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func TestIncrementStartsAndExtendsWindow(t *testing.T) {
	s := NewRateLimitStore(0)
	ctx := context.Background()

	rec, err := s.Increment(ctx, "a", t0, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Count)
	assert.Equal(t, t0.Add(time.Hour), rec.ResetAt)

	rec, err = s.Increment(ctx, "a", t0.Add(30*time.Minute), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Count)
	assert.Equal(t, t0.Add(time.Hour), rec.ResetAt, "window does not slide")

	// reset_at == now is still inside the window
	rec, _ = s.Increment(ctx, "a", t0.Add(time.Hour), time.Hour)
	assert.Equal(t, 3, rec.Count)

	rec, _ = s.Increment(ctx, "a", t0.Add(time.Hour+time.Millisecond), time.Hour)
	assert.Equal(t, 1, rec.Count)
	assert.Equal(t, t0.Add(2*time.Hour+time.Millisecond), rec.ResetAt)
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	s := NewRateLimitStore(0)
	ctx := context.Background()

	_, _ = s.Increment(ctx, "old", t0, time.Minute)
	_, _ = s.Increment(ctx, "older", t0.Add(-time.Minute), time.Minute)
	_, _ = s.Increment(ctx, "fresh", t0, time.Hour)

	removed, err := s.Sweep(ctx, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, s.Len())

	rec, _ := s.Increment(ctx, "fresh", t0.Add(3*time.Minute), time.Hour)
	assert.Equal(t, 2, rec.Count)
}

// A renewed window moves the record in the expiry index.
func TestSweepAfterWindowRenewal(t *testing.T) {
	s := NewRateLimitStore(0)
	ctx := context.Background()

	_, _ = s.Increment(ctx, "a", t0, time.Minute)
	_, _ = s.Increment(ctx, "b", t0, 10*time.Minute)
	_, _ = s.Increment(ctx, "a", t0.Add(2*time.Minute), time.Hour)

	removed, _ := s.Sweep(ctx, t0.Add(20*time.Minute))
	assert.Equal(t, 1, removed)

	rec, _ := s.Increment(ctx, "a", t0.Add(21*time.Minute), time.Hour)
	assert.Equal(t, 2, rec.Count)
}

func TestIncrementSweepsOverThreshold(t *testing.T) {
	s := NewRateLimitStore(3)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = s.Increment(ctx, fmt.Sprintf("ip-%d", i), t0, time.Minute)
	}
	assert.Equal(t, 4, s.Len())

	_, _ = s.Increment(ctx, "late", t0.Add(time.Hour), time.Minute)
	assert.Equal(t, 1, s.Len())
}

func TestIncrementConcurrent(t *testing.T) {
	s := NewRateLimitStore(0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Increment(ctx, "shared", t0, time.Hour)
		}()
	}
	wg.Wait()

	rec, _ := s.Increment(ctx, "shared", t0, time.Hour)
	assert.Equal(t, 51, rec.Count)
}
