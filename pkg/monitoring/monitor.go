package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 目录检索次数，按排序键区分
	CatalogSearches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_searches_total",
			Help: "Total number of catalog searches by sort key",
		},
		[]string{"sort"},
	)

	EnrollmentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "enrollments_created_total",
			Help: "Enrollments actually inserted (repeats are not counted)",
		},
	)

	// kind: course / module / content_item
	OwnershipDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ownership_denials_total",
			Help: "Mutations rejected by the ownership check",
		},
		[]string{"kind"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(CatalogSearches)
		prometheus.MustRegister(EnrollmentsCreated)
		prometheus.MustRegister(OwnershipDenials)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
