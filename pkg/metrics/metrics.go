package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panel_http_requests_total",
			Help: "Total number of HTTP requests served by the panel.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "panel_http_request_duration_seconds",
			Help:    "Duration of HTTP requests served by the panel.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panel_upstream_requests_total",
			Help: "Total number of calls made to the crawler API.",
		},
		[]string{"endpoint", "outcome"}, // outcome: ok, api_error, transport_error, decode_error
	)

	// Sync crawls can run for minutes, hence the long tail.
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "panel_upstream_request_duration_seconds",
			Help:    "Duration of calls made to the crawler API.",
			Buckets: []float64{0.05, 0.25, 1, 5, 15, 60, 300, 900},
		},
		[]string{"endpoint"},
	)

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panel_submissions_total",
			Help: "Crawl jobs submitted from the panel, by resulting status.",
		},
		[]string{"operation", "mode", "status"},
	)

	ValidationRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panel_validation_rejections_total",
			Help: "Form submissions rejected before any call was made.",
		},
		[]string{"operation"},
	)

	UpstreamOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "panel_upstream_online",
			Help: "1 when the last status check reached the crawler API, 0 otherwise.",
		},
	)
)

// ObserveUpstream records one round trip to the crawler API.
func ObserveUpstream(endpoint, outcome string, took time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(endpoint).Observe(took.Seconds())
}

// SetUpstreamOnline flips the availability gauge.
func SetUpstreamOnline(online bool) {
	if online {
		UpstreamOnline.Set(1)
		return
	}
	UpstreamOnline.Set(0)
}
