package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "exam_attempts"

// Metrics holds the HTTP and attempt-lifecycle collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	attemptsStarted   *prometheus.CounterVec
	attemptsEvaluated *prometheus.CounterVec
	startsRejected    *prometheus.CounterVec
	attemptsExpired   prometheus.Counter
}

// New registers every collector on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		attemptsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "started_total",
				Help:      "Attempts started, by exam category",
			},
			[]string{"category"},
		),
		attemptsEvaluated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluated_total",
				Help:      "Attempts evaluated, by exam category, result and end reason",
			},
			[]string{"category", "result", "end_reason"},
		),
		startsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "start_rejected_total",
				Help:      "Start requests refused, by reason",
			},
			[]string{"reason"},
		),
		attemptsExpired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "expired_total",
				Help:      "Timed attempts finalized by the expiry sweeper",
			},
		),
	}

	reg.MustRegister(
		m.requestCounter,
		m.requestDuration,
		m.attemptsStarted,
		m.attemptsEvaluated,
		m.startsRejected,
		m.attemptsExpired,
	)
	return m
}

func (m *Metrics) AttemptStarted(category string) {
	if m == nil {
		return
	}
	m.attemptsStarted.WithLabelValues(category).Inc()
}

func (m *Metrics) AttemptEvaluated(category string, passed bool, endReason string) {
	if m == nil {
		return
	}
	result := "failed"
	if passed {
		result = "passed"
	}
	m.attemptsEvaluated.WithLabelValues(category, result, endReason).Inc()
}

func (m *Metrics) StartRejected(reason string) {
	if m == nil {
		return
	}
	m.startsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) AttemptsExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.attemptsExpired.Add(float64(n))
}

// Middleware records request count and latency per route template
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.requestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.requestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
