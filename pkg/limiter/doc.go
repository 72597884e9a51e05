// Package limiter provides distributed sliding-window rate limiting with a
// dual-backend design: a low-latency Redis primary and a relational fallback,
// with a deliberate fail-open policy when both are unavailable.
//
// The primary entry point is the Limiter:
//
//	res := l.Check(ctx, req, limiter.PresetWrite)
//
// The returned Result reports whether the request is admitted, how much of the
// window budget remains, and timing hints for callers that want to set
// rate-limit headers (Retry-After, X-RateLimit-*).
//
// # Overview
//
// The package implements an exact sliding window: each admitted request for a
// key becomes one timestamped entry, entries older than the window are purged
// at read time, and a request is denied when the live entry count has reached
// MaxRequests. Unlike fixed clock-aligned buckets, this counts exactly the
// trailing window, so there is no burst at bucket boundaries.
//
// # Core Types
//
// Config defines the policy:
//
//   - MaxRequests: admissions allowed per Window
//   - Window: the rolling window length
//   - Identifier/Endpoint: optional key-scoping overrides
//
// The counter key is "identifier:endpoint:windowSeconds", so the same caller
// hitting two endpoints, or one endpoint under two window lengths, consumes
// independent budgets.
//
// # Backends
//
// Three Store implementations share one contract:
//
//   - RedisStore: the fast path. A sorted set per key holds one member per
//     admitted request, scored by arrival time in milliseconds. A check is
//     remove-expired, count, then conditionally add; brief races under heavy
//     concurrency may admit a small constant number of requests beyond the
//     limit, which is accepted rather than paying for a coordination step.
//   - SQLStore: the durable fallback, used only when Redis errs. The whole
//     check-and-increment runs inside a single write transaction so it stays
//     race-safe under many stateless callers. Latency budget is looser; it is
//     the backstop, not the hot path.
//   - MemoryStore: an in-process sliding window with the same semantics, for
//     tests and single-instance deployments.
//
// The two distributed backends are not kept in sync: a Redis outage starts a
// fresh counting history on the relational side for the affected windows.
//
// # Failure Policy
//
// Check never returns an error and never panics through to the caller. Any
// fast-backend failure falls through to the durable backend; if that also
// fails, the request is admitted (fail open) with Remaining = MaxRequests-1
// and Reset = now+Window. A limiter outage must never become an outage of the
// API it protects; denial-by-default would turn an infrastructure blip into a
// total blackout. Result.Source reports which branch decided, so the three
// contracts stay independently testable.
//
// # Caller Identity
//
// ResolveIdentifier derives the partitioning key from a request: an
// authenticated-principal hook first ("user:<id>"), then the first
// X-Forwarded-For entry, then X-Real-IP, then the connection address
// ("ip:<addr>"), and finally the literal "unknown". Principal resolution is
// best effort; an error or panic inside the hook counts as "no principal" and
// never aborts the check.
//
// # Concurrency
//
// The limiter runs inline on the request path. It owns no goroutines, no
// background sweeps and no locks of its own; correctness is pushed into the
// backend primitives (atomic score-range operations on Redis, one transaction
// on SQL). Every backend call is bounded by the backend client's own timeout
// so fail-open is always eventually reached.
//
// # Usage
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	fast := limiter.NewRedisStore(rdb, limiter.WithTimeout(200*time.Millisecond))
//
//	durable := limiter.NewSQLStore(db)
//
//	l := limiter.New(fast, durable,
//		limiter.WithLogger(log),
//		limiter.WithPrincipalFunc(sessionUserID),
//	)
//
//	mux.Handle("/api/certificates", limiter.Middleware(l, limiter.PresetWrite.ForEndpoint("certificates"))(h))
//
// The middleware attaches X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset to every response and answers 429 with Retry-After when
// the budget is exhausted.
package limiter
