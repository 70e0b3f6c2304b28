package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

// Module provides the application metrics set.
var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)

// Metrics holds the prometheus instruments shared across components.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	JobRuns         *prometheus.CounterVec
	JobFailures     *prometheus.CounterVec
	LedgerRowsWritten prometheus.Counter
	ReportsProcessed  prometheus.Counter
	ReportAnomalies   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "washfleet_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "washfleet_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		JobRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "washfleet_job_runs_total",
			Help: "Scheduler job invocations.",
		}, []string{"job"}),
		JobFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "washfleet_job_failures_total",
			Help: "Scheduler job failures.",
		}, []string{"job"}),
		LedgerRowsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "washfleet_ledger_rows_written_total",
			Help: "Usage ledger rows inserted or updated.",
		}),
		ReportsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "washfleet_inspection_reports_processed_total",
			Help: "Inspection report PDFs processed.",
		}),
		ReportAnomalies: promauto.NewCounter(prometheus.CounterOpts{
			Name: "washfleet_inspection_anomalies_total",
			Help: "Inspection comparisons classified outside tolerance.",
		}),
	}
}

// GinMiddleware records request counts and latency per route.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
