package internal

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric results.
const (
	resultPublished = "published"
	resultSkipped   = "skipped"
	resultInvalid   = "invalid"
	resultFailed    = "failed"
	resultDetected  = "detected"
	resultNoChange  = "no_change"
)

var (
	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexsync",
		Name:      "dispatch_total",
		Help:      "Update records handed to the dispatcher, by kind and outcome.",
	}, []string{"kind", "result"})

	detectTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexsync",
		Name:      "detect_total",
		Help:      "Change detector runs, by detector and outcome.",
	}, []string{"detector", "result"})

	resolveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "indexsync",
		Name:      "resolve_duration_seconds",
		Help:      "Latency of scoped attribute value lookups, by backend type.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
	}, []string{"backend"})
)

// EmitDispatch records the outcome of one dispatch.
func EmitDispatch(kind, result string) {
	dispatchTotal.WithLabelValues(kind, result).Inc()
}

// EmitDetect records the outcome of one detector run.
func EmitDetect(detector, result string) {
	detectTotal.WithLabelValues(detector, result).Inc()
}

// EmitResolveLatency records the duration of one value lookup.
func EmitResolveLatency(backend string, started time.Time) {
	resolveDuration.WithLabelValues(backend).Observe(time.Since(started).Seconds())
}
