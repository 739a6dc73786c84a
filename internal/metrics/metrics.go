// Package metrics exposes Prometheus collectors for HTTP traffic and the complaint lifecycle.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ComplaintsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaints_created_total",
			Help: "Complaints filed, by zone code.",
		},
		[]string{"zone"},
	)

	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_status_transitions_total",
			Help: "Applied complaint status transitions.",
		},
		[]string{"from", "to"},
	)

	SequenceAllocations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "complaint_sequence_allocations_total",
		Help: "Complaint numbers drawn from the per-zone sequences, including ones later left unused.",
	})

	AttachmentsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_attachments_rejected_total",
			Help: "Uploaded files refused by validation.",
		},
		[]string{"reason"},
	)

	registerOnce sync.Once
)

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight,
			httpRequestsTotal,
			httpRequestDuration,
			ComplaintsCreated,
			StatusTransitions,
			SequenceAllocations,
			AttachmentsRejected,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records request count, latency and in-flight gauge, labelled by route template.
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
