// Package metrics exposes Prometheus counters for identity operations.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts operation outcomes by status label.
type Recorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	limited    *prometheus.CounterVec
}

// NewRecorder creates a recorder with its own registry so tests stay isolated.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "email_identity",
			Name:      "operations_total",
			Help:      "Identity operations by outcome status.",
		}, []string{"operation", "status"}),
		limited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "email_identity",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"route"}),
	}
	reg.MustRegister(r.operations, r.limited, collectors.NewGoCollector())
	return r
}

// Observe records one outcome of operation. A nil recorder is a no-op.
func (r *Recorder) Observe(operation, status string) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(operation, status).Inc()
}

// Limited records a rejected request on route.
func (r *Recorder) Limited(route string) {
	if r == nil {
		return
	}
	r.limited.WithLabelValues(route).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
