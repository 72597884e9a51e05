package limiter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLStore is the durable fallback counter, used when the fast backend is
// down. The whole question of whether a new request is admissible is answered
// inside one write transaction, so it stays race-safe when many stateless
// instances fall back at once. It keeps one fixed window per row; exact
// sliding behavior over the boundary is the fast path's job, this is the
// backstop.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an existing database handle. Like the Redis client, the
// handle is constructed once per process and injected.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate ensures the rate_limits table exists.
func (s *SQLStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS rate_limits (
			rl_key TEXT PRIMARY KEY,
			request_count INTEGER NOT NULL DEFAULT 0,
			window_start INTEGER NOT NULL,
			window_ms INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate rate_limits: %w", err)
	}
	return nil
}

// Check implements Store.
func (s *SQLStore) Check(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (res Result, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("begin rate limit check: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	nowMs := now.UnixMilli()
	windowMs := window.Milliseconds()

	var (
		count       int
		windowStart int64
	)
	row := tx.QueryRowContext(ctx, `
		SELECT request_count, window_start FROM rate_limits WHERE rl_key = ?`, key)
	scanErr := row.Scan(&count, &windowStart)

	switch {
	case scanErr != nil && !errors.Is(scanErr, sql.ErrNoRows):
		return Result{}, fmt.Errorf("read rate limit window: %w", scanErr)

	case errors.Is(scanErr, sql.ErrNoRows) || nowMs-windowStart >= windowMs:
		// Fresh key, or the previous window has fully elapsed.
		_, err = tx.ExecContext(ctx, `
			INSERT INTO rate_limits (rl_key, request_count, window_start, window_ms)
			VALUES (?, 1, ?, ?)
			ON CONFLICT(rl_key) DO UPDATE SET
				request_count = 1,
				window_start = excluded.window_start,
				window_ms = excluded.window_ms`, key, nowMs, windowMs)
		if err != nil {
			return Result{}, fmt.Errorf("open rate limit window: %w", err)
		}
		res = Result{
			Success:   true,
			Limit:     limit,
			Remaining: limit - 1,
			Reset:     now.Add(window),
		}

	case count < limit:
		_, err = tx.ExecContext(ctx, `
			UPDATE rate_limits SET request_count = request_count + 1
			WHERE rl_key = ?`, key)
		if err != nil {
			return Result{}, fmt.Errorf("count rate limit request: %w", err)
		}
		res = Result{
			Success:   true,
			Limit:     limit,
			Remaining: limit - count - 1,
			Reset:     time.UnixMilli(windowStart).Add(window),
		}

	default:
		// Window is full. Denials never increment the counter.
		res = Result{
			Success:    false,
			Limit:      limit,
			Remaining:  0,
			Reset:      time.UnixMilli(windowStart).Add(window),
			RetryAfter: retryAfter(windowStart, window, nowMs),
		}
	}

	if err = tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("commit rate limit check: %w", err)
	}
	return res, nil
}

// Cleanup deletes rows whose window has fully elapsed. Invoked out of band
// (see the gc command); never part of the hot path.
func (s *SQLStore) Cleanup(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM rate_limits WHERE window_start + window_ms < ?`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("cleanup rate limit windows: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

var _ Store = (*SQLStore)(nil)
