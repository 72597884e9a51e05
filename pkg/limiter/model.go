package limiter

import (
	"context"
	"strconv"
	"time"
)

// Config defines one rate-limit policy, supplied per call site.
type Config struct {
	// MaxRequests is how many requests are admitted per Window. Must be > 0;
	// non-positive values are a caller bug and are not validated here.
	MaxRequests int
	// Window is the rolling window the limit applies to.
	Window time.Duration
	// Identifier optionally overrides caller resolution (see ResolveIdentifier).
	Identifier string
	// Endpoint scopes the counter. Two configs with different endpoints count
	// independently even for the same caller.
	Endpoint string
}

// Named presets used across the API surface. Plain data, not protocol.
var (
	PresetAuth   = Config{MaxRequests: 5, Window: time.Minute}
	PresetRead   = Config{MaxRequests: 200, Window: time.Minute}
	PresetWrite  = Config{MaxRequests: 50, Window: time.Minute}
	PresetUpload = Config{MaxRequests: 30, Window: time.Minute}
)

// Source tags which branch produced a Result.
type Source string

const (
	// SourceFast means the primary (Redis) backend answered.
	SourceFast Source = "fast"
	// SourceDurable means the relational fallback answered after the fast
	// backend erred or was absent.
	SourceDurable Source = "durable"
	// SourceFailOpen means both backends failed and the request was admitted
	// without any counter being kept.
	SourceFailOpen Source = "fail_open"
)

// Result is the outcome of a single rate-limit check.
type Result struct {
	// Success reports whether the request is admitted.
	Success bool
	// Limit echoes Config.MaxRequests.
	Limit int
	// Remaining is the budget left in the window after this decision.
	Remaining int
	// Reset is when the window rolls over (for denials, when the oldest
	// counted entry expires).
	Reset time.Time
	// RetryAfter is how long a denied caller should wait before retrying.
	// Zero when allowed. Never negative, even under clock skew.
	RetryAfter time.Duration
	// Source records which backend branch decided.
	Source Source
}

// Store is one counting backend. Implementations must be safe for concurrent
// use from arbitrarily many processes; all coordination lives behind this
// interface, never in client-side read-then-write loops outside the backend.
//
// now is supplied by the caller so a single check uses one notion of
// "current time" across every backend operation.
type Store interface {
	Check(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error)
}

// ForEndpoint returns a copy of the config scoped to the given endpoint.
// Handy when deriving call-site configs from the shared presets.
func (c Config) ForEndpoint(endpoint string) Config {
	c.Endpoint = endpoint
	return c
}

// Key derives the counter key for an identifier under this config.
// Identifier, endpoint and window length each partition the counter space.
func (c Config) Key(identifier string) string {
	return identifier + ":" + c.Endpoint + ":" + strconv.Itoa(int(c.Window/time.Second))
}
