package pipeline

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsPolicy records request totals, durations, and in-flight counts as
// Prometheus metrics. Totals are labelled by method and status code ("error"
// when the chain failed); durations by method.
type MetricsPolicy struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// NewMetricsPolicy creates a MetricsPolicy and registers its collectors with
// reg. Pass prometheus.DefaultRegisterer to use the default registry.
func NewMetricsPolicy(reg prometheus.Registerer) *MetricsPolicy {
	p := &MetricsPolicy{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conduit",
			Subsystem: "pipeline",
			Name:      "requests_total",
			Help:      "Total number of pipeline requests by method and status.",
		}, []string{"method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "conduit",
			Subsystem: "pipeline",
			Name:      "request_duration_seconds",
			Help:      "Pipeline request latency distribution.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "conduit",
			Subsystem: "pipeline",
			Name:      "requests_in_flight",
			Help:      "Number of pipeline requests currently in flight.",
		}),
	}
	if reg != nil {
		reg.MustRegister(p.requests, p.duration, p.inflight)
	}
	return p
}

// Do implements Policy.
func (p *MetricsPolicy) Do(cc *CallContext, next *Next) (*Response, error) {
	method := cc.Request().Method
	p.inflight.Inc()
	start := time.Now()

	resp, err := next.Do()

	p.inflight.Dec()
	p.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	p.requests.WithLabelValues(method, status).Inc()
	return resp, err
}
