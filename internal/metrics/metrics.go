package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the pipeline. The struct
// is injected into components that record; a nil *Metrics is a no-op
// so pure-unit tests skip registration entirely.
type Metrics struct {
	messagesTotal     *prometheus.CounterVec
	rejectionsTotal   *prometheus.CounterVec
	extractionRetries prometheus.Counter
	dedupSkipsTotal   prometheus.Counter
}

// New registers all collectors. If registry is nil,
// prometheus.DefaultRegisterer is used.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		messagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sms_messages_total",
				Help: "Processed SMS messages by pipeline outcome",
			},
			[]string{"status"},
		),
		rejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sms_rejections_total",
				Help: "Heuristic classifier rejections by reason",
			},
			[]string{"reason"},
		),
		extractionRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sms_extraction_retries_total",
				Help: "Retried calls to the structured-extraction service",
			},
		),
		dedupSkipsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sms_dedup_skips_total",
				Help: "Inserts skipped because a duplicate was found in the window",
			},
		),
	}
}

func (m *Metrics) RecordOutcome(status string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.rejectionsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordExtractionRetry() {
	if m == nil {
		return
	}
	m.extractionRetries.Inc()
}

func (m *Metrics) RecordDedupSkip() {
	if m == nil {
		return
	}
	m.dedupSkipsTotal.Inc()
}
