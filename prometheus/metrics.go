package prometheus

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lucasvrm/bipolar-api-sub002/pkg/config"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Synthetic data metrics
	SyntheticUsersCreatedCounter   prometheus.CounterVec
	SyntheticCheckInsCreatedCounter prometheus.Counter

	// Deletion metrics
	RowsDeletedCounter    prometheus.CounterVec
	DeletionRunDuration   prometheus.HistogramVec
	DryRunRequestsCounter prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Synthetic data metrics
	SyntheticUsersCreatedCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_synthetic_users_created_total",
			Help: "Total number of synthetic users created",
		},
		[]string{"role"},
	)

	SyntheticCheckInsCreatedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_synthetic_checkins_created_total",
			Help: "Total number of synthetic check-ins generated",
		},
	)

	// Deletion metrics
	RowsDeletedCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_rows_deleted_total",
			Help: "Total rows removed by the deletion engine, per table",
		},
		[]string{"table"},
	)

	DeletionRunDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_deletion_run_duration_seconds",
			Help:    "Duration of deletion engine runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DryRunRequestsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_dry_run_requests_total",
			Help: "Deletion requests split by dry-run flag",
		},
		[]string{"operation", "dry_run"},
	)
}

// MetricsMiddleware records request counts and latencies per route
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := strconv.Itoa(c.Response().Status)
			HttpRequestsTotal.WithLabelValues(c.Request().Method, c.Path(), status).Inc()
			HttpRequestDuration.WithLabelValues(c.Request().Method, c.Path(), status).
				Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordDeletionRun observes one deletion engine run
func RecordDeletionRun(operation string, dryRun bool, executionTimeMS int64) {
	DryRunRequestsCounter.WithLabelValues(operation, strconv.FormatBool(dryRun)).Inc()
	DeletionRunDuration.WithLabelValues(operation).
		Observe(float64(executionTimeMS) / 1000)
}
