package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xavierca1/immo-leads/internal/entity"
)

const rateLimitSchema = `
	CREATE TABLE IF NOT EXISTS rate_limits (
		identifier    TEXT PRIMARY KEY,
		request_count INTEGER NOT NULL,
		reset_at      TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS rate_limits_reset_at_idx ON rate_limits (reset_at);
`

// RateLimitRepository shares fixed-window counters between instances.
type RateLimitRepository struct {
	DB *sql.DB
}

func NewRateLimitRepository(db *sql.DB) *RateLimitRepository {
	return &RateLimitRepository{DB: db}
}

func (r *RateLimitRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, rateLimitSchema); err != nil {
		return fmt.Errorf("create rate_limits table: %w", err)
	}
	return nil
}

// Increment relies on ON CONFLICT so concurrent instances never lose a hit.
// Both CASE branches read the pre-update row.
func (r *RateLimitRepository) Increment(ctx context.Context, identifier string, now time.Time, window time.Duration) (entity.RateLimitRecord, error) {
	query := `
		INSERT INTO rate_limits (identifier, request_count, reset_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (identifier)
		DO UPDATE SET
			request_count = CASE WHEN rate_limits.reset_at < $3 THEN 1 ELSE rate_limits.request_count + 1 END,
			reset_at = CASE WHEN rate_limits.reset_at < $3 THEN EXCLUDED.reset_at ELSE rate_limits.reset_at END
		RETURNING request_count, reset_at
	`

	record := entity.RateLimitRecord{Identifier: identifier}
	err := r.DB.QueryRowContext(ctx, query, identifier, now.Add(window), now).
		Scan(&record.Count, &record.ResetAt)
	if err != nil {
		return entity.RateLimitRecord{}, fmt.Errorf("increment rate limit: %w", err)
	}

	return record, nil
}

func (r *RateLimitRepository) Sweep(ctx context.Context, now time.Time) (int, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM rate_limits WHERE reset_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("sweep rate limits: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *RateLimitRepository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}
