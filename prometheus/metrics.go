package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Tenant resolution counter by outcome
	TenantResolutionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forms_tenant_resolutions_total",
			Help: "Total number of tenant resolutions by outcome",
		},
		[]string{"outcome"}, // outcome is "user_tenant", "payload", "admin_fallback", "unresolved"
	)

	// Host lookup counter
	HostLookupCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forms_host_lookups_total",
			Help: "Total number of host-based tenant lookups",
		},
		[]string{"result"}, // result is "found" or "not_found"
	)

	// Submission counter by result
	SubmissionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forms_submissions_total",
			Help: "Total number of form submissions by result",
		},
		[]string{"result"}, // result is "accepted", "rejected", "failed"
	)

	// Media upload counter
	UploadCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forms_media_uploads_total",
			Help: "Total number of media uploads by result",
		},
		[]string{"result"},
	)

	// Access denial counter by collection
	AccessDeniedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forms_access_denied_total",
			Help: "Total number of access policy denials",
		},
		[]string{"collection", "operation"},
	)

	// Form operation counter
	FormOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forms_form_operations_total",
			Help: "Total number of form operations",
		},
		[]string{"operation"}, // operation is "create", "read", "update", "delete", "list"
	)

	// Auth error counter
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forms_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"},
	)

	// HTTP request counter
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)
)

// Histogram metrics
var (
	// RequestDurationHistogram records request duration in seconds
	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	// DBOperationDuration records database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forms_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(
		TenantResolutionCounter,
		HostLookupCounter,
		SubmissionCounter,
		UploadCounter,
		AccessDeniedCounter,
		FormOperationCounter,
		AuthErrorCounter,
		RequestCounter,
		RequestDurationHistogram,
		DBOperationDuration,
	)
}

// RecordTenantResolution records the outcome of one tenant resolution
func RecordTenantResolution(outcome string) {
	TenantResolutionCounter.WithLabelValues(outcome).Inc()
}

// RecordHostLookup records a host-based tenant lookup result
func RecordHostLookup(result string) {
	HostLookupCounter.WithLabelValues(result).Inc()
}

// RecordSubmission records a submission attempt result
func RecordSubmission(result string) {
	SubmissionCounter.WithLabelValues(result).Inc()
}

// RecordUpload records a media upload result
func RecordUpload(result string) {
	UploadCounter.WithLabelValues(result).Inc()
}

// RecordAccessDenied records an access policy denial
func RecordAccessDenied(collection, operation string) {
	AccessDeniedCounter.WithLabelValues(collection, operation).Inc()
}

// RecordFormOperation records a form collection operation
func RecordFormOperation(operation string) {
	FormOperationCounter.WithLabelValues(operation).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.WithLabelValues(errorType).Inc()
}

// TrackDBOperation returns a function that records the duration of a
// database operation when deferred: defer TrackDBOperation("query")(time.Now())
func TrackDBOperation(operation string) func(time.Time) {
	return func(start time.Time) {
		DBOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// HTTPMetrics holds configuration for HTTP metrics collection
type HTTPMetrics struct {
	ServiceName string
}

// NewHTTPMetrics creates a new HTTP metrics collector for the service
func NewHTTPMetrics(serviceName string) *HTTPMetrics {
	return &HTTPMetrics{ServiceName: serviceName}
}

// Middleware creates an Echo middleware function that records HTTP request metrics
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			RequestCounter.WithLabelValues(m.ServiceName, method, path, statusStr).Inc()

			duration := time.Since(start).Seconds()
			RequestDurationHistogram.WithLabelValues(m.ServiceName, method, path, statusStr).Observe(duration)

			return err
		}
	}
}

// GetPrometheusHandler returns an HTTP handler for exposing Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
