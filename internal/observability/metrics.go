package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// feed-ingestion pipeline.
type Metrics struct {
	FeedFetches   *prometheus.CounterVec   // labels: outcome={success,error}
	DetailFetches *prometheus.CounterVec   // labels: outcome={success,error}
	FetchDuration *prometheus.HistogramVec // labels: stage={list,detail}

	CacheLookups *prometheus.CounterVec // labels: result={hit,miss}

	RecordsExtracted   prometheus.Counter
	SyntheticFragments *prometheus.CounterVec // labels: status
	RecordsPublished   prometheus.Counter

	CycleDuration   prometheus.Histogram
	PipelineRunning prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jma_etl",
			Name:      "feed_fetches_total",
			Help:      "List-feed retrievals by outcome.",
		}, []string{"outcome"}),
		DetailFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jma_etl",
			Name:      "detail_fetches_total",
			Help:      "Detail-document retrievals by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "jma_etl",
			Name:      "fetch_duration_seconds",
			Help:      "HTTP retrieval duration by stage.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"stage"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jma_etl",
			Name:      "cache_lookups_total",
			Help:      "Fetch-cycle cache lookups by result.",
		}, []string{"result"}),
		RecordsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jma_etl",
			Name:      "records_extracted_total",
			Help:      "Warning records extracted from detail documents.",
		}),
		SyntheticFragments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jma_etl",
			Name:      "synthetic_fragments_total",
			Help:      "Placeholder fragments emitted instead of real items, by status.",
		}, []string{"status"}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jma_etl",
			Name:      "records_published_total",
			Help:      "Warning records published to the sink topic.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jma_etl",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-and-parse cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "jma_etl",
			Name:      "pipeline_running",
			Help:      "1 when the background refresh loop is active, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.FeedFetches,
		m.DetailFetches,
		m.FetchDuration,
		m.CacheLookups,
		m.RecordsExtracted,
		m.SyntheticFragments,
		m.RecordsPublished,
		m.CycleDuration,
		m.PipelineRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FeedFetches:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "jma_etl", Name: "feed_fetches_total"}, []string{"outcome"}),
		DetailFetches:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "jma_etl", Name: "detail_fetches_total"}, []string{"outcome"}),
		FetchDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "jma_etl", Name: "fetch_duration_seconds"}, []string{"stage"}),
		CacheLookups:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "jma_etl", Name: "cache_lookups_total"}, []string{"result"}),
		RecordsExtracted:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "jma_etl", Name: "records_extracted_total"}),
		SyntheticFragments: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "jma_etl", Name: "synthetic_fragments_total"}, []string{"status"}),
		RecordsPublished:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "jma_etl", Name: "records_published_total"}),
		CycleDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "jma_etl", Name: "cycle_duration_seconds"}),
		PipelineRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "jma_etl", Name: "pipeline_running"}),
	}
}
