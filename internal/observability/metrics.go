package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ingestion run.
type Metrics struct {
	PagesFetched           prometheus.Counter
	ItemsReceived          prometheus.Counter
	DatasetsUpserted       prometheus.Counter
	DatasetsSkipped        prometheus.Counter
	DistributionsUpserted  prometheus.Counter
	DistributionsMissingID prometheus.Counter
	PublishErrors          prometheus.Counter
	PipelineRunning        prometheus.Gauge

	PageSize          prometheus.Histogram
	PageFetchDuration prometheus.Histogram
	PageLoadDuration  prometheus.Histogram
}

// NewMetrics creates and registers all ingestion metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.PagesFetched,
		m.ItemsReceived,
		m.DatasetsUpserted,
		m.DatasetsSkipped,
		m.DistributionsUpserted,
		m.DistributionsMissingID,
		m.PublishErrors,
		m.PipelineRunning,
		m.PageSize,
		m.PageFetchDuration,
		m.PageLoadDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "catalog_etl",
			Name:      "pages_fetched_total",
			Help:      "Total non-empty catalog pages fetched.",
		}),
		ItemsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "catalog_etl",
			Name:      "items_received_total",
			Help:      "Total catalog items received from the API.",
		}),
		DatasetsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "catalog_etl",
			Name:      "datasets_upserted_total",
			Help:      "Total dataset rows written to storage.",
		}),
		DatasetsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "catalog_etl",
			Name:      "datasets_skipped_total",
			Help:      "Catalog items dropped for a missing identifier.",
		}),
		DistributionsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "catalog_etl",
			Name:      "distributions_upserted_total",
			Help:      "Total distribution rows written to storage.",
		}),
		DistributionsMissingID: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "catalog_etl",
			Name:      "distributions_missing_id_total",
			Help:      "Distribution rows written without an identifier.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "catalog_etl",
			Name:      "publish_errors_total",
			Help:      "Pages whose datasets could not be published to the event sink.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "catalog_etl",
			Name:      "pipeline_running",
			Help:      "1 while the ingestion loop is active, 0 otherwise.",
		}),
		PageSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "catalog_etl",
			Name:      "page_size",
			Help:      "Number of items per fetched page.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		PageFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "catalog_etl",
			Name:      "page_fetch_duration_seconds",
			Help:      "Duration of a catalog page request.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		PageLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "catalog_etl",
			Name:      "page_load_duration_seconds",
			Help:      "Duration of the storage transaction for one page.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}
