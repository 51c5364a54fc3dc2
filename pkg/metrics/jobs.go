package metrics

import "github.com/prometheus/client_golang/prometheus"

// Job results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// JobMetrics tracks background refresh jobs and outbound messages.
type JobMetrics struct {
	refreshRuns  *prometheus.CounterVec
	messagesSent *prometheus.CounterVec
	eventsSent   prometheus.Counter
}

// NewJobMetrics registers the job collectors on the default registry.
func NewJobMetrics() *JobMetrics {
	return NewJobMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewJobMetricsWithRegisterer registers the job collectors on registerer.
func NewJobMetricsWithRegisterer(registerer prometheus.Registerer) *JobMetrics {
	registerer = orDefault(registerer)
	return &JobMetrics{
		refreshRuns: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "companion_refresh_runs_total",
			Help: "Total number of transport refresh runs by job and result",
		}, []string{"job", "result"}),
		messagesSent: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "companion_messages_total",
			Help: "Total number of guest messages by channel and delivery status",
		}, []string{"channel", "status"}),
		eventsSent: registerCounter(registerer, prometheus.CounterOpts{
			Name: "companion_change_events_total",
			Help: "Total number of data-changed events published",
		}),
	}
}

// RecordRefresh counts one refresh run.
func (m *JobMetrics) RecordRefresh(job string, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.refreshRuns.WithLabelValues(job, result).Inc()
}

// RecordMessage counts one delivery attempt.
func (m *JobMetrics) RecordMessage(channel, status string) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(channel, status).Inc()
}

// RecordChangeEvent counts one published data-changed event.
func (m *JobMetrics) RecordChangeEvent() {
	if m == nil {
		return
	}
	m.eventsSent.Inc()
}
