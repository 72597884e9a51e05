package limiter

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Limiter orchestrates the two counting backends and the fail-open policy.
// Construct one per process and share it; backend reachability is evaluated
// per call, so a backend that recovers between calls is used again without
// reconstruction.
type Limiter struct {
	fast      Store
	durable   Store
	principal PrincipalFunc
	logger    *zap.Logger
	recorder  MetricsRecorder
	now       func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(l *Limiter) { l.logger = log }
}

// WithRecorder injects a metrics backend. Defaults to NoOpMetricsRecorder.
func WithRecorder(r MetricsRecorder) Option {
	return func(l *Limiter) { l.recorder = r }
}

// WithPrincipalFunc sets the authenticated-principal hook used by identifier
// resolution. The hook may fail or panic; both count as "no principal".
func WithPrincipalFunc(fn PrincipalFunc) Option {
	return func(l *Limiter) { l.principal = fn }
}

// WithClock overrides the time source. For tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New builds a Limiter over a fast store and a durable fallback. Either may
// be nil; with both nil every check fails open.
func New(fast, durable Store, opts ...Option) *Limiter {
	l := &Limiter{
		fast:     fast,
		durable:  durable,
		logger:   zap.NewNop(),
		recorder: &NoOpMetricsRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check evaluates cfg for the caller behind r and always produces a usable
// Result: no error, no panic, worst case the fail-open admission. When
// cfg.Identifier is empty the caller key is resolved from the request; when
// cfg.Endpoint is empty the request path scopes the counter.
func (l *Limiter) Check(ctx context.Context, r *http.Request, cfg Config) Result {
	if cfg.Identifier == "" {
		cfg.Identifier = ResolveIdentifier(r, l.principal)
	}
	if cfg.Endpoint == "" && r != nil && r.URL != nil {
		cfg.Endpoint = r.URL.Path
	}
	return l.CheckKey(ctx, cfg)
}

// CheckKey is Check for callers that already hold an identifier
// (cfg.Identifier must be set).
func (l *Limiter) CheckKey(ctx context.Context, cfg Config) (res Result) {
	start := l.now()
	defer func() {
		// A panicking store must not take the request path down with it.
		if rec := recover(); rec != nil {
			l.logger.Error("rate limit check panicked, failing open",
				zap.Any("panic", rec),
				zap.String("endpoint", cfg.Endpoint))
			res = l.failOpen(cfg, start)
		}
		l.record(cfg, res, l.now().Sub(start))
	}()

	key := cfg.Key(cfg.Identifier)

	if l.fast != nil {
		res, err := l.fast.Check(ctx, key, cfg.MaxRequests, cfg.Window, start)
		if err == nil {
			res.Source = SourceFast
			return res
		}
		l.recorder.Add("ratelimit.fallback", 1, nil)
		l.logger.Warn("fast rate limit backend failed, falling back",
			zap.Error(err),
			zap.String("endpoint", cfg.Endpoint))
	}

	if l.durable != nil {
		res, err := l.durable.Check(ctx, key, cfg.MaxRequests, cfg.Window, start)
		if err == nil {
			res.Source = SourceDurable
			return res
		}
		l.logger.Warn("durable rate limit backend failed",
			zap.Error(err),
			zap.String("endpoint", cfg.Endpoint))
	}

	return l.failOpen(cfg, start)
}

// failOpen admits the request when no backend could answer. A rate limiter
// outage must never become a full outage of the protected API, so the
// asymmetry here is deliberate: do not fail closed.
func (l *Limiter) failOpen(cfg Config, now time.Time) Result {
	l.recorder.Add("ratelimit.failopen", 1, nil)
	l.logger.Error("all rate limit backends unavailable, failing open",
		zap.String("endpoint", cfg.Endpoint))
	return Result{
		Success:   true,
		Limit:     cfg.MaxRequests,
		Remaining: cfg.MaxRequests - 1,
		Reset:     now.Add(cfg.Window),
		Source:    SourceFailOpen,
	}
}

func (l *Limiter) record(cfg Config, res Result, elapsed time.Duration) {
	tags := map[string]string{
		"source":  string(res.Source),
		"allowed": "true",
	}
	if !res.Success {
		tags["allowed"] = "false"
		l.recorder.Add("ratelimit.denied", 1, map[string]string{"source": string(res.Source)})
	}
	l.recorder.Add("ratelimit.call", 1, tags)
	l.recorder.Observe("ratelimit.latency", elapsed.Seconds(), map[string]string{"source": string(res.Source)})
}
