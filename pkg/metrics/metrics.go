package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediahub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediahub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	StorageOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediahub_storage_operations_total",
			Help: "Object storage operations by provider, operation and outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)

	UploadedBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediahub_uploaded_bytes_total",
			Help: "Bytes accepted for upload by media type",
		},
		[]string{"type"},
	)

	OrphanedObjects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediahub_orphaned_objects_total",
			Help: "Objects whose removal was handed off to the worker",
		},
	)
)

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordStorageOperation(provider, operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	StorageOperations.WithLabelValues(provider, operation, outcome).Inc()
}
