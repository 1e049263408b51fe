package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the fetch pipeline.
type Metrics struct {
	Registry            *prometheus.Registry
	RequestsTotal       *prometheus.CounterVec
	RequestDuration     prometheus.Histogram
	RetriesTotal        prometheus.Counter
	ErrorsTotal         *prometheus.CounterVec
	OffersParsedTotal   prometheus.Counter
	ArticlesFailedTotal prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stparts_requests_total",
			Help: "Total HTTP requests issued through proxy sessions.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stparts_request_duration_seconds",
			Help:    "HTTP request latency through proxy sessions.",
			Buckets: prometheus.DefBuckets,
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stparts_retries_total",
			Help: "Total number of retry attempts after transient failures.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stparts_errors_total",
			Help: "Total number of fetch errors by type.",
		},
		[]string{"error_type"},
	)
	offersParsed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stparts_offers_parsed_total",
			Help: "Total number of offers parsed from result pages.",
		},
	)
	articlesFailed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stparts_articles_failed_total",
			Help: "Total number of articles whose processing failed.",
		},
	)

	registry.MustRegister(requests, requestDuration, retries, errorsTotal, offersParsed, articlesFailed)

	return &Metrics{
		Registry:            registry,
		RequestsTotal:       requests,
		RequestDuration:     requestDuration,
		RetriesTotal:        retries,
		ErrorsTotal:         errorsTotal,
		OffersParsedTotal:   offersParsed,
		ArticlesFailedTotal: articlesFailed,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// AddOffers increments the parsed offers counter.
func (m *Metrics) AddOffers(n int) {
	if m == nil {
		return
	}
	m.OffersParsedTotal.Add(float64(n))
}

// IncArticleFailed increments the failed articles counter.
func (m *Metrics) IncArticleFailed() {
	if m == nil {
		return
	}
	m.ArticlesFailedTotal.Inc()
}
