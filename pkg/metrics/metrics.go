package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_http_requests_total",
			Help: "Total number of HTTP requests served from the mirror.",
		},
		[]string{"method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mirror_http_request_duration_seconds",
			Help:    "Duration of HTTP requests served from the mirror.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	URLsInQueue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mirror_urls_in_queue",
			Help: "Current number of URLs in the crawl frontier queue.",
		},
	)

	PagesCrawledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_pages_crawled_total",
			Help: "Total number of page visits.",
		},
		[]string{"status", "error_type"}, // status: success, failure
	)

	CrawlDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mirror_page_capture_duration_seconds",
			Help:    "Duration of a single page capture.",
			Buckets: []float64{1, 2.5, 5, 10, 15, 30, 60, 120},
		},
	)

	AssetsStoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_assets_stored_total",
			Help: "Assets written to the asset store.",
		},
		[]string{"category"},
	)

	AssetBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mirror_asset_bytes_total",
			Help: "Bytes written to the asset store.",
		},
	)

	AssetFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mirror_asset_failures_total",
			Help: "Asset downloads that failed.",
		},
	)

	BreakpointMismatch = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mirror_breakpoint_mismatch_percent",
			Help:    "Pixel mismatch percentage per compared breakpoint.",
			Buckets: []float64{0, 0.5, 1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"width"},
	)

	DiffPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_diff_pages_total",
			Help: "Pages compared by the visual differ.",
		},
		[]string{"result"}, // pass, fail
	)
)
