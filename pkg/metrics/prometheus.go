package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder tracks signal flow and journal activity using Prometheus.
type Recorder struct {
	signalsReceived  *prometheus.CounterVec
	admissions       *prometheus.CounterVec
	journalMutations *prometheus.CounterVec
	publishFailures  prometheus.Counter
	dailyRiskUsed    prometheus.Gauge
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_signals_received_total",
				Help: "Total number of inbound signals by source",
			},
			[]string{"source"},
		),
		admissions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_admissions_total",
				Help: "Admission guard decisions by result and reason",
			},
			[]string{"result", "reason"},
		),
		journalMutations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_journal_mutations_total",
				Help: "Journal commands applied by verb and result",
			},
			[]string{"verb", "result"},
		),
		publishFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "signaldesk_publish_failures_total",
				Help: "Failed alert publications",
			},
		),
		dailyRiskUsed: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "signaldesk_daily_risk_used_pct",
				Help: "Risk percentage admitted since the UTC day boundary",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signaldesk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignal records an inbound signal by source (api, tradingview, telegram).
func (r *Recorder) RecordSignal(source string) {
	r.signalsReceived.WithLabelValues(source).Inc()
}

// RecordAdmission records a guard decision.
func (r *Recorder) RecordAdmission(admitted bool, reason string) {
	result := "admit"
	if !admitted {
		result = "reject"
	}
	r.admissions.WithLabelValues(result, reason).Inc()
}

// RecordJournalMutation records a journal command outcome.
func (r *Recorder) RecordJournalMutation(verb, result string) {
	r.journalMutations.WithLabelValues(verb, result).Inc()
}

// RecordPublishFailure records a failed channel publication.
func (r *Recorder) RecordPublishFailure() {
	r.publishFailures.Inc()
}

// RecordDailyRiskUsed records the current daily risk accumulator value.
func (r *Recorder) RecordDailyRiskUsed(pct float64) {
	r.dailyRiskUsed.Set(pct)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
