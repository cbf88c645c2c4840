// Package metrics exposes the studio's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ExportOutcomeSubmitted       = "submitted"
	ExportOutcomeNothingSelected = "nothing_selected"
	ExportOutcomeDispatchFailed  = "dispatch_failed"
	ExportOutcomeFailed          = "failed"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "darkroom",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "darkroom",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"method", "path"},
	)

	exports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "darkroom",
			Subsystem: "exports",
			Name:      "submissions_total",
			Help:      "Selection submissions by outcome.",
		},
		[]string{"outcome"},
	)

	exportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "darkroom",
			Subsystem: "exports",
			Name:      "submission_duration_seconds",
			Help:      "Time spent bundling and notifying for a submission.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	uploads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "darkroom",
			Subsystem: "assets",
			Name:      "uploads_total",
			Help:      "Number of uploaded photos stored.",
		},
	)

	mails = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "darkroom",
			Subsystem: "mail",
			Name:      "sent_total",
			Help:      "Outbound mail attempts by kind and result.",
		},
		[]string{"kind", "success"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		exports,
		exportDuration,
		uploads,
		mails,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler records request counts and latency.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}

		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

func RecordExport(outcome string, duration time.Duration) {
	exports.WithLabelValues(outcome).Inc()

	if outcome == ExportOutcomeSubmitted {
		exportDuration.Observe(duration.Seconds())
	}
}

func RecordUpload() {
	uploads.Inc()
}

func RecordMail(kind string, success bool) {
	mails.WithLabelValues(kind, strconv.FormatBool(success)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
