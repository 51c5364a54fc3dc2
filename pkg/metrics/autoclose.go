package metrics

import "github.com/prometheus/client_golang/prometheus"

// AutoCloseMetrics tracks the auto-close timer.
type AutoCloseMetrics struct {
	armed     prometheus.Gauge
	fired     prometheus.Counter
	failed    prometheus.Counter
	cancelled prometheus.Counter
}

// NewAutoCloseMetrics registers the auto-close collectors on the default registry.
func NewAutoCloseMetrics() *AutoCloseMetrics {
	return NewAutoCloseMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewAutoCloseMetricsWithRegisterer registers the auto-close collectors on registerer.
func NewAutoCloseMetricsWithRegisterer(registerer prometheus.Registerer) *AutoCloseMetrics {
	registerer = orDefault(registerer)
	return &AutoCloseMetrics{
		armed: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "companion_autoclose_armed",
			Help: "Number of tickets with an armed auto-close timer",
		}),
		fired: registerCounter(registerer, prometheus.CounterOpts{
			Name: "companion_autoclose_fired_total",
			Help: "Total number of tickets closed by the auto-close timer",
		}),
		failed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "companion_autoclose_failed_total",
			Help: "Total number of auto-close attempts that failed and will be retried",
		}),
		cancelled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "companion_autoclose_cancelled_total",
			Help: "Total number of auto-close attempts interrupted by a manual status change",
		}),
	}
}

// SetArmed records the current number of armed timers.
func (m *AutoCloseMetrics) SetArmed(n int) {
	if m == nil {
		return
	}
	m.armed.Set(float64(n))
}

// RecordFired counts a successful auto-close.
func (m *AutoCloseMetrics) RecordFired() {
	if m == nil {
		return
	}
	m.fired.Inc()
}

// RecordFailed counts a failed auto-close attempt.
func (m *AutoCloseMetrics) RecordFailed() {
	if m == nil {
		return
	}
	m.failed.Inc()
}

// RecordCancelled counts an in-flight auto-close interrupted by a manual action.
func (m *AutoCloseMetrics) RecordCancelled() {
	if m == nil {
		return
	}
	m.cancelled.Inc()
}
