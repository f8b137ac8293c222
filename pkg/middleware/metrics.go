package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics creates middleware counting requests by method and
// status code and observing their duration. The collectors are owned by
// the caller so they register alongside the gateway's other
// instruments.
func RequestMetrics(
	requests *prometheus.CounterVec,
	duration *prometheus.HistogramVec,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(sw, r)

			requests.WithLabelValues(r.Method, strconv.Itoa(sw.code)).Inc()
			duration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
		})
	}
}
