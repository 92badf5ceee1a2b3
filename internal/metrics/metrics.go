// Package metrics provides Prometheus metrics for the rating client.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeBusy    = "busy"
)

// Recorder owns the client's collectors and the registry they live in.
type Recorder struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	submissions        *prometheus.CounterVec
	refreshes          *prometheus.CounterVec
	submissionDuration prometheus.Histogram
	shelfBooks         prometheus.Gauge
	inFlight           prometheus.Gauge
}

// New creates a Recorder. Each Recorder uses its own registry unless one is
// supplied, so tests can build as many as they like.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: "bookrate",
		buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
	}

	r.submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "submissions_total",
		Help:      "Rating submissions by outcome.",
	}, []string{"outcome"})

	r.refreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "refreshes_total",
		Help:      "Shelf refreshes by outcome.",
	}, []string{"outcome"})

	r.submissionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "submission_duration_seconds",
		Help:      "Time from write call to confirmed transaction result.",
		Buckets:   r.buckets,
	})

	r.shelfBooks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "shelf_books",
		Help:      "Books in the last successfully fetched shelf.",
	})

	r.inFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "submission_in_flight",
		Help:      "1 while a submission is between start and refresh settle.",
	})

	r.registry.MustRegister(r.submissions, r.refreshes, r.submissionDuration, r.shelfBooks, r.inFlight)
	return r
}

// Submission records one submission attempt.
func (r *Recorder) Submission(outcome string, took time.Duration) {
	if r == nil {
		return
	}
	r.submissions.WithLabelValues(outcome).Inc()
	if outcome != OutcomeBusy {
		r.submissionDuration.Observe(took.Seconds())
	}
}

// Refresh records one shelf refresh and, on success, the shelf size.
func (r *Recorder) Refresh(outcome string, books int) {
	if r == nil {
		return
	}
	r.refreshes.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		r.shelfBooks.Set(float64(books))
	}
}

// SetInFlight flips the in-flight gauge.
func (r *Recorder) SetInFlight(busy bool) {
	if r == nil {
		return
	}
	if busy {
		r.inFlight.Set(1)
	} else {
		r.inFlight.Set(0)
	}
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
