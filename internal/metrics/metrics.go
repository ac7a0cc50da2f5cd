// Package metrics holds the Prometheus collectors of the outreach service.
// Collectors register with the default registry on import.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	draftsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_drafts_created_total",
			Help: "Drafts written, by message kind and generation mode",
		},
		[]string{"kind", "mode"},
	)

	generationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_generation_failures_total",
			Help: "Draft generation calls that failed or timed out",
		},
		[]string{"kind"},
	)

	messagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outreach_messages_sent_total",
			Help: "Messages accepted by the send gateway",
		},
	)

	sendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outreach_send_failures_total",
			Help: "Send gateway calls that failed or timed out",
		},
	)

	repliesRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outreach_replies_recorded_total",
			Help: "Inbound replies stored",
		},
	)

	guardViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_guard_violations_total",
			Help: "Operations refused because the thread or message was in the wrong state",
		},
		[]string{"op"},
	)

	sweepThreads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_sweep_threads_total",
			Help: "Threads visited by scheduler sweeps, by outcome",
		},
		[]string{"job", "outcome"},
	)

	sweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "outreach_sweep_duration_seconds",
			Help:    "Duration of scheduler sweeps",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latencies labelled by the chi route
// pattern, so path parameters do not blow up the label space.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := strconv.Itoa(rw.statusCode)
		httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func RecordDraft(kind, mode string) {
	draftsCreated.WithLabelValues(kind, mode).Inc()
}

func RecordGenerationFailure(kind string) {
	generationFailures.WithLabelValues(kind).Inc()
}

func RecordSend() {
	messagesSent.Inc()
}

func RecordSendFailure() {
	sendFailures.Inc()
}

func RecordReply() {
	repliesRecorded.Inc()
}

func RecordGuardViolation(op string) {
	guardViolations.WithLabelValues(op).Inc()
}

// RecordSweep counts one sweep's outcomes and observes its duration.
func RecordSweep(job string, created, skipped, failed int, took time.Duration) {
	sweepThreads.WithLabelValues(job, "created").Add(float64(created))
	sweepThreads.WithLabelValues(job, "skipped").Add(float64(skipped))
	sweepThreads.WithLabelValues(job, "failed").Add(float64(failed))
	sweepDuration.WithLabelValues(job).Observe(took.Seconds())
}
