package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTracePassesRequestThrough(t *testing.T) {
	called := false
	h := Trace()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if !called {
		t.Fatal("handler not called")
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}

func TestTraceSkip(t *testing.T) {
	h := Trace(WithSkip(func(r *http.Request) bool {
		return r.URL.Path == "/updates"
	}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A skipped request must see the original writer, not the
		// status wrapper.
		if _, ok := w.(*statusWriter); ok {
			t.Error("skipped request was wrapped")
		}
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/updates", nil))
}

func TestStatusWriterKeepsFlush(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, code: http.StatusOK}
	var w http.ResponseWriter = sw
	if _, ok := w.(http.Flusher); !ok {
		t.Fatal("statusWriter lost http.Flusher")
	}
	sw.Flush()
	if !rec.Flushed {
		t.Error("flush not forwarded")
	}
}

func TestRequestMetricsCounts(t *testing.T) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_requests_total",
	}, []string{"method", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "test_request_duration_seconds",
	}, []string{"method"})

	h := RequestMetrics(requests, duration)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := testutil.ToFloat64(requests.WithLabelValues("GET", "404")); got != 2 {
		t.Errorf("requests counted = %v, want 2", got)
	}
}
