package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics contains metrics for the web surface.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	uploadsTotal    prometheus.Counter
	uploadsActive   prometheus.Gauge
	rateLimited     prometheus.Counter
}

// NewHTTPMetrics creates HTTP metrics and registers them with registry.
func NewHTTPMetrics(registry *prometheus.Registry) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oceanecho_http_requests_total",
				Help: "HTTP requests partitioned by route, method and status code.",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oceanecho_http_request_duration_seconds",
				Help:    "HTTP request latency partitioned by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		uploadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oceanecho_uploads_total",
			Help: "Audio files accepted through the upload form or API.",
		}),
		uploadsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oceanecho_uploads_active",
			Help: "Uploaded files currently held on disk.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oceanecho_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register HTTP metrics: %w", err)
	}
	return m, nil
}

// RecordRequest records a completed request.
func (m *HTTPMetrics) RecordRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// UploadStored records an upload written to disk.
func (m *HTTPMetrics) UploadStored() {
	if m == nil {
		return
	}
	m.uploadsTotal.Inc()
	m.uploadsActive.Inc()
}

// UploadRemoved records an upload deleted from disk.
func (m *HTTPMetrics) UploadRemoved() {
	if m == nil {
		return
	}
	m.uploadsActive.Dec()
}

// RateLimited records a rejected request.
func (m *HTTPMetrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.requestDuration.Describe(ch)
	m.uploadsTotal.Describe(ch)
	m.uploadsActive.Describe(ch)
	m.rateLimited.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.requestDuration.Collect(ch)
	m.uploadsTotal.Collect(ch)
	m.uploadsActive.Collect(ch)
	m.rateLimited.Collect(ch)
}
