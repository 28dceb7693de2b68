package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vendaval"

// Metrics holds the Prometheus collectors for the triage pipeline.
type Metrics struct {
	ClaimsAssessed     *prometheus.CounterVec // labels: outcome={success,rejected}
	AssessmentDuration prometheus.Histogram
	ImagesProcessed    *prometheus.CounterVec // labels: discard_reason={none,low_quality,unrelated,duplicate}
	ClustersPerClaim   prometheus.Histogram

	// Collaborator metrics.
	FetchErrors        *prometheus.CounterVec   // labels: kind
	ClassifierDuration *prometheus.HistogramVec // labels: provider
	ClassifierErrors   *prometheus.CounterVec   // labels: provider
	LabelCache         *prometheus.CounterVec   // labels: result={hit,miss,error}
	SinkErrors         *prometheus.CounterVec   // labels: sink
}

func newMetrics(help bool) *Metrics {
	h := func(s string) string {
		if help {
			return s
		}
		return ""
	}

	return &Metrics{
		ClaimsAssessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_assessed_total",
			Help:      h("Claims processed by outcome."),
		}, []string{"outcome"}),
		AssessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assessment_duration_seconds",
			Help:      h("Duration of a complete claim assessment."),
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ImagesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_processed_total",
			Help:      h("Input images by final discard reason (none = contributed a verdict)."),
		}, []string{"discard_reason"}),
		ClustersPerClaim: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "clusters_per_claim",
			Help:      h("Near-duplicate clusters found per claim."),
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200},
		}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      h("Image fetch failures by kind."),
		}, []string{"kind"}),
		ClassifierDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classifier_duration_seconds",
			Help:      h("Label detection call duration in seconds."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}, []string{"provider"}),
		ClassifierErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_errors_total",
			Help:      h("Label detection failures by provider."),
		}, []string{"provider"}),
		LabelCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "label_cache_total",
			Help:      h("Label cache lookups by result."),
		}, []string{"result"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      h("Result sink failures by sink."),
		}, []string{"sink"}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.ClaimsAssessed,
		m.AssessmentDuration,
		m.ImagesProcessed,
		m.ClustersPerClaim,
		m.FetchErrors,
		m.ClassifierDuration,
		m.ClassifierErrors,
		m.LabelCache,
		m.SinkErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with no registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}
