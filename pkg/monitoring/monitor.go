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

	QuestionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "testria_questions_created_total",
			Help: "Questions committed by the authoring transaction",
		},
	)

	TestAnswers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testria_test_answers_total",
			Help: "Graded test answers by result",
		},
		[]string{"result"},
	)

	TestSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testria_test_sessions_total",
			Help: "Test session lifecycle events",
		},
		[]string{"event"},
	)

	Tasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testria_tasks_total",
			Help: "Background tasks processed by type and status",
		},
		[]string{"type", "status"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(QuestionsCreated)
		prometheus.MustRegister(TestAnswers)
		prometheus.MustRegister(TestSessions)
		prometheus.MustRegister(Tasks)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
