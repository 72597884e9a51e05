// Package metrics exposes the limiter's metrics through Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/campushub/throttle/pkg/limiter"
)

// Recorder implements limiter.MetricsRecorder on Prometheus collectors.
type Recorder struct {
	calls    *prometheus.CounterVec
	denied   *prometheus.CounterVec
	fallback prometheus.Counter
	failopen prometheus.Counter
	latency  *prometheus.HistogramVec
}

// NewRecorder registers the limiter collectors on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "throttle_ratelimit_calls_total",
			Help: "Rate limit checks performed, by deciding backend and outcome.",
		}, []string{"source", "allowed"}),
		denied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "throttle_ratelimit_denied_total",
			Help: "Requests denied by the rate limiter.",
		}, []string{"source"}),
		fallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "throttle_ratelimit_fallback_total",
			Help: "Checks where the fast backend failed and the durable backend was consulted.",
		}),
		failopen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "throttle_ratelimit_failopen_total",
			Help: "Checks admitted because every backend was unavailable.",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "throttle_ratelimit_check_duration_seconds",
			Help:    "Rate limit check latency, by deciding backend.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
	}
	reg.MustRegister(r.calls, r.denied, r.fallback, r.failopen, r.latency)
	return r
}

// Add implements limiter.MetricsRecorder.
func (r *Recorder) Add(name string, value float64, tags map[string]string) {
	switch name {
	case "ratelimit.call":
		r.calls.WithLabelValues(tags["source"], tags["allowed"]).Add(value)
	case "ratelimit.denied":
		r.denied.WithLabelValues(tags["source"]).Add(value)
	case "ratelimit.fallback":
		r.fallback.Add(value)
	case "ratelimit.failopen":
		r.failopen.Add(value)
	}
}

// Observe implements limiter.MetricsRecorder.
func (r *Recorder) Observe(name string, value float64, tags map[string]string) {
	if name == "ratelimit.latency" {
		r.latency.WithLabelValues(tags["source"]).Observe(value)
	}
}

var _ limiter.MetricsRecorder = (*Recorder)(nil)
