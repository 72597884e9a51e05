package limiter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "ratelimit:"

// RedisStore counts sliding windows on Redis sorted sets, one set per key,
// one member per admitted request scored by arrival time in milliseconds.
//
// A check is three short round-trips: purge expired members and count, then
// either read the oldest survivor (denial) or add a member and refresh the
// key's TTL (admission). There is no coordination step between them, so
// concurrent checks that all pass the count before any add lands can each be
// admitted; the overshoot is bounded by the number of in-flight checks for
// the key. Denials never write.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the Redis key prefix (default "ratelimit:").
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithTimeout bounds each check's Redis operations. The limiter relies on
// this (or the client's own dial/read timeouts) to guarantee a hung backend
// call still resolves to the fallback path.
func WithTimeout(d time.Duration) RedisOption {
	return func(s *RedisStore) { s.timeout = d }
}

// NewRedisStore wraps an existing client. The client is constructed once per
// process and injected; reachability is a per-call runtime property, so no
// ping happens here and a backend that recovers between calls is picked up
// automatically.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:  client,
		prefix:  defaultPrefix,
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check implements Store.
func (s *RedisStore) Check(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rkey := s.prefix + key
	nowMs := now.UnixMilli()
	windowStart := nowMs - window.Milliseconds()

	pipe := s.client.Pipeline()
	// Exclusive bound: an entry exactly windowStart old is still live.
	pipe.ZRemRangeByScore(ctx, rkey, "-inf", "("+strconv.FormatInt(windowStart, 10))
	cardCmd := pipe.ZCard(ctx, rkey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("redis window count: %w", err)
	}

	count := cardCmd.Val()
	if count >= int64(limit) {
		oldest, err := s.client.ZRangeWithScores(ctx, rkey, 0, 0).Result()
		if err != nil {
			return Result{}, fmt.Errorf("redis oldest entry: %w", err)
		}
		if len(oldest) == 0 {
			// Count said full but the set is gone; treat as backend
			// inconsistency and let the caller fall back.
			return Result{}, fmt.Errorf("redis window %q: count %d but empty set", key, count)
		}
		oldestMs := int64(oldest[0].Score)
		return Result{
			Success:    false,
			Limit:      limit,
			Remaining:  0,
			Reset:      time.UnixMilli(oldestMs).Add(window),
			RetryAfter: retryAfter(oldestMs, window, nowMs),
		}, nil
	}

	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()
	pipe = s.client.Pipeline()
	pipe.ZAdd(ctx, rkey, redis.Z{Score: float64(nowMs), Member: member})
	pipe.Expire(ctx, rkey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("redis window add: %w", err)
	}

	return Result{
		Success:   true,
		Limit:     limit,
		Remaining: limit - int(count) - 1,
		Reset:     now.Add(window),
	}, nil
}

// retryAfter is the whole-second wait until the oldest surviving entry falls
// out of the window, rounded up and clamped at zero for skewed clocks.
func retryAfter(oldestMs int64, window time.Duration, nowMs int64) time.Duration {
	ms := oldestMs + window.Milliseconds() - nowMs
	if ms <= 0 {
		return 0
	}
	secs := (ms + 999) / 1000
	return time.Duration(secs) * time.Second
}

var _ Store = (*RedisStore)(nil)
