package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Execution status label values
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusTimeout  = "timeout"
	StatusCanceled = "canceled"
	StatusInvalid  = "invalid"
)

type moduleMetrics struct {
	registrationPasses *prometheus.CounterVec
	registeredTools    prometheus.Gauge

	toolExecutionTotal    *prometheus.CounterVec
	toolExecutionDuration *prometheus.HistogramVec
	toolOutputTruncated   *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			registrationPasses: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "registration_passes_total",
					Help: "Total registration passes by outcome.",
				},
				[]string{"outcome"},
			),
			registeredTools: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "registered_tools",
					Help: "Number of tools registered by the last pass.",
				},
			),
			toolExecutionTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tool_execution_total",
					Help: "Total tool executions by tool and status.",
				},
				[]string{"tool", "status"},
			),
			toolExecutionDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "tool_execution_duration_seconds",
					Help:    "Tool execution duration in seconds by tool.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"tool"},
			),
			toolOutputTruncated: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tool_output_truncated_total",
					Help: "Total executions whose output hit the size cap, by tool.",
				},
				[]string{"tool"},
			),
		}

		prometheus.MustRegister(
			m.registrationPasses,
			m.registeredTools,
			m.toolExecutionTotal,
			m.toolExecutionDuration,
			m.toolOutputTruncated,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

// RecordRegistrationPass counts a pass. A pass that recovered from a failure
// is recorded with outcome "error" and leaves the gauge untouched.
func RecordRegistrationPass(registered int, ok bool) {
	m := getMetrics()
	if !ok {
		m.registrationPasses.WithLabelValues(StatusError).Inc()
		return
	}
	m.registrationPasses.WithLabelValues(StatusSuccess).Inc()
	m.registeredTools.Set(float64(registered))
}

func RecordToolExecution(tool string, duration time.Duration, status string, truncated bool) {
	m := getMetrics()
	m.toolExecutionTotal.WithLabelValues(tool, status).Inc()
	m.toolExecutionDuration.WithLabelValues(tool).Observe(duration.Seconds())
	if truncated {
		m.toolOutputTruncated.WithLabelValues(tool).Inc()
	}
}

// RecordValidationFailure counts an invocation rejected before any process
// was started.
func RecordValidationFailure(tool string) {
	getMetrics().toolExecutionTotal.WithLabelValues(tool, StatusInvalid).Inc()
}
