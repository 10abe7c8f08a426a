package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// IngestMetrics holds Prometheus metrics for the ingest gateway.
type IngestMetrics struct {
	EventsTotal *prometheus.CounterVec
	BytesTotal  prometheus.Counter
}

// NewIngestMetrics initializes and registers the ingest metrics.
func NewIngestMetrics() *IngestMetrics {
	return &IngestMetrics{
		EventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracehub",
			Subsystem: "ingest",
			Name:      "events_total",
			Help:      "Total number of ingested events by status.",
		}, []string{"status"}), // status: accepted, rejected, rate_limited, publish_error
		BytesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "tracehub",
			Subsystem: "ingest",
			Name:      "bytes_total",
			Help:      "Total number of bytes accepted for ingestion.",
		}),
	}
}

// ProcessorMetrics holds Prometheus metrics for the indexing processor.
type ProcessorMetrics struct {
	RecordsTotal *prometheus.CounterVec
	RetriesTotal prometheus.Counter
}

// NewProcessorMetrics initializes and registers the processor metrics.
func NewProcessorMetrics() *ProcessorMetrics {
	return &ProcessorMetrics{
		RecordsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracehub",
			Subsystem: "processor",
			Name:      "records_total",
			Help:      "Total number of processed broker records by outcome.",
		}, []string{"outcome"}), // outcome: indexed, duplicate, dead_lettered
		RetriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "tracehub",
			Subsystem: "processor",
			Name:      "index_retries_total",
			Help:      "Total number of retried store writes.",
		}),
	}
}

// QueryMetrics holds Prometheus metrics for the query service.
type QueryMetrics struct {
	SearchesTotal  *prometheus.CounterVec
	SearchDuration prometheus.Histogram
}

// NewQueryMetrics initializes and registers the query metrics.
func NewQueryMetrics() *QueryMetrics {
	return &QueryMetrics{
		SearchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracehub",
			Subsystem: "query",
			Name:      "searches_total",
			Help:      "Total number of search requests by outcome.",
		}, []string{"outcome"}), // outcome: ok, degraded, invalid, error
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tracehub",
			Subsystem: "query",
			Name:      "search_duration_seconds",
			Help:      "Search request latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// NotifierMetrics holds Prometheus metrics for the alert monitor.
type NotifierMetrics struct {
	TicksTotal       *prometheus.CounterVec
	EvaluationsTotal *prometheus.CounterVec
	AlertsFiredTotal *prometheus.CounterVec
}

// NewNotifierMetrics initializes and registers the notifier metrics.
func NewNotifierMetrics() *NotifierMetrics {
	return &NotifierMetrics{
		TicksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracehub",
			Subsystem: "notifier",
			Name:      "ticks_total",
			Help:      "Total number of evaluation ticks by outcome.",
		}, []string{"outcome"}), // outcome: run, skipped_overlap, registry_error
		EvaluationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracehub",
			Subsystem: "notifier",
			Name:      "evaluations_total",
			Help:      "Total number of rule evaluations by outcome.",
		}, []string{"outcome"}), // outcome: below_threshold, fired, cooldown, error
		AlertsFiredTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracehub",
			Subsystem: "notifier",
			Name:      "alerts_fired_total",
			Help:      "Total number of fired alerts by rule.",
		}, []string{"rule"}),
	}
}
