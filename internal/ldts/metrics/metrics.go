// Package metrics registers the service's Prometheus collectors and exposes
// the scrape handler. Counters are incremented from the HTTP layer so the
// services stay transport-agnostic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

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

	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ldts_logins_total",
			Help: "Login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	otpVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ldts_otp_verifications_total",
			Help: "OTP verification attempts by outcome.",
		},
		[]string{"outcome"},
	)

	tokenRotationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ldts_token_rotations_total",
			Help: "Refresh token rotations by outcome.",
		},
		[]string{"outcome"},
	)

	importRowsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ldts_pastdue_import_rows_total",
		Help: "Past-due report rows stored by import.",
	})
)

// Init registers the collectors in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		loginsTotal, otpVerificationsTotal, tokenRotationsTotal, importRowsTotal,
	)
}

// Handler is the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveLogin(outcome string)           { loginsTotal.WithLabelValues(outcome).Inc() }
func ObserveOtpVerification(outcome string) { otpVerificationsTotal.WithLabelValues(outcome).Inc() }
func ObserveTokenRotation(outcome string)   { tokenRotationsTotal.WithLabelValues(outcome).Inc() }
func ObserveImportRows(n int)               { importRowsTotal.Add(float64(n)) }

// Instrument wraps a handler with RPS, latency and in-flight tracking.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpInFlight.Dec()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
