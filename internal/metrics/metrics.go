// Package metrics holds the Prometheus collectors of the telemetry pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "soleondash"

// Metrics groups the pipeline collectors.
type Metrics struct {
	ReadingsRecorded prometheus.Counter
	MalformedEvents  prometheus.Counter
	BatchesSent      prometheus.Counter
	BatchSize        prometheus.Histogram
	SendErrors       prometheus.Counter
	ArchiveErrors    prometheus.Counter
	ArchiveDropped   prometheus.Counter
	LastLevel        prometheus.Gauge
	ConsumerGone     prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ReadingsRecorded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_recorded_total",
			Help:      "Readings decoded from upstream and buffered for the dashboard.",
		}),
		MalformedEvents: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_events_total",
			Help:      "Upstream events dropped because they carried no reading.",
		}),
		BatchesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_sent_total",
			Help:      "Batches handed to the dashboard link.",
		}),
		BatchSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_readings",
			Help:      "Readings per batch sent to the dashboard.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		SendErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_errors_total",
			Help:      "Batches that could not be handed to the dashboard link.",
		}),
		ArchiveErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_errors_total",
			Help:      "Batches the archive writers failed to store.",
		}),
		ArchiveDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_dropped_total",
			Help:      "Batches dropped because the archive writers fell behind.",
		}),
		LastLevel: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_level_percent",
			Help:      "Most recent liquid level reported upstream.",
		}),
		ConsumerGone: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dashboard_closed",
			Help:      "1 once the dashboard process asked to stop or went away.",
		}),
	}
}
