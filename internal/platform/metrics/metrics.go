package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the deduplication services.
// A nil *Metrics is valid and records nothing, so tests and callers that do
// not care about metrics can pass nil.
type Metrics struct {
	checksTotal      *prometheus.CounterVec
	candidatesFound  *prometheus.HistogramVec
	searchFailures   *prometheus.CounterVec
	annotationWrites prometheus.Counter
	annotationSkips  prometheus.Counter
	indexedTotal     *prometheus.CounterVec
}

// New creates and registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		checksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dedup_checks_total",
			Help: "Duplicate checks run, by event and terminal state",
		}, []string{"event", "state"}),
		candidatesFound: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dedup_candidates_found",
			Help:    "Duplicate candidates returned per search",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		}, []string{"event"}),
		searchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dedup_search_failures_total",
			Help: "Search backend calls that failed or timed out",
		}, []string{"event"}),
		annotationWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "dedup_annotation_writes_total",
			Help: "Task/Composition annotation writes performed",
		}),
		annotationSkips: factory.NewCounter(prometheus.CounterOpts{
			Name: "dedup_annotation_skips_total",
			Help: "Annotations skipped because the flag was already current",
		}),
		indexedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dedup_indexed_total",
			Help: "Declarations indexed into the search backend",
		}, []string{"event"}),
	}
}

func (m *Metrics) CheckCompleted(event, state string) {
	if m == nil {
		return
	}
	m.checksTotal.WithLabelValues(event, state).Inc()
}

func (m *Metrics) CandidatesFound(event string, count int) {
	if m == nil {
		return
	}
	m.candidatesFound.WithLabelValues(event).Observe(float64(count))
}

func (m *Metrics) SearchFailure(event string) {
	if m == nil {
		return
	}
	m.searchFailures.WithLabelValues(event).Inc()
}

func (m *Metrics) AnnotationWrite() {
	if m == nil {
		return
	}
	m.annotationWrites.Inc()
}

func (m *Metrics) AnnotationSkip() {
	if m == nil {
		return
	}
	m.annotationSkips.Inc()
}

func (m *Metrics) Indexed(event string) {
	if m == nil {
		return
	}
	m.indexedTotal.WithLabelValues(event).Inc()
}
