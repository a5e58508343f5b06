package worker

import (
	"context"
	"time"

	"github.com/xavierca1/immo-leads/internal/entity"
	"go.uber.org/zap"
)

const DefaultSweepInterval = 10 * time.Minute

// RateLimitSweeper evicts expired rate-limit windows on a timer so eviction
// does not depend on request traffic.
type RateLimitSweeper struct {
	store        entity.RateLimitStore
	tickInterval time.Duration
	clock        func() time.Time
	logger       *zap.Logger
}

func NewRateLimitSweeper(store entity.RateLimitStore, interval time.Duration, logger *zap.Logger) *RateLimitSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimitSweeper{
		store:        store,
		tickInterval: interval,
		clock:        func() time.Time { return time.Now().UTC() },
		logger:       logger,
	}
}

func (s *RateLimitSweeper) Start(ctx context.Context) {
	s.logger.Info("rate limit sweeper started", zap.Duration("interval", s.tickInterval))

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("rate limit sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *RateLimitSweeper) SweepOnce(ctx context.Context) int {
	removed, err := s.store.Sweep(ctx, s.clock())
	if err != nil {
		s.logger.Warn("rate limit sweep failed", zap.Error(err))
		return 0
	}
	if removed > 0 {
		s.logger.Debug("expired rate limit windows removed", zap.Int("count", removed))
	}
	return removed
}
