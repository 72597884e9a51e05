package limiter

// MetricsRecorder receives counters and timings from the limiter. Implement it
// to bridge into your metrics system; see internal/metrics for a Prometheus
// implementation.
//
// Emitted series:
//
//	ratelimit.call      counter, tags: source, allowed
//	ratelimit.denied    counter, tags: source
//	ratelimit.fallback  counter (fast backend failed, durable consulted)
//	ratelimit.failopen  counter (both backends failed, request admitted)
//	ratelimit.latency   timing in seconds, tags: source
type MetricsRecorder interface {
	Add(name string, value float64, tags map[string]string)
	Observe(name string, value float64, tags map[string]string)
}

// NoOpMetricsRecorder is a placeholder that does nothing.
// It ensures we never have to check 'if r.recorder != nil' in our hot path.
type NoOpMetricsRecorder struct{}

func (n *NoOpMetricsRecorder) Add(name string, value float64, tags map[string]string)     {}
func (n *NoOpMetricsRecorder) Observe(name string, value float64, tags map[string]string) {}
