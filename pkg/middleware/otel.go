// Package middleware provides the HTTP middleware applied to the
// gateway's router: OpenTelemetry request tracing and Prometheus
// request metrics.
package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for the gateway's HTTP surface.
const defaultTracerName = "hxgui/httpd"

// TraceConfig configures the tracing middleware.
type TraceConfig struct {
	// TracerName is the name of the tracer (default: "hxgui/httpd").
	TracerName string

	// Skip decides which requests bypass tracing. Open-ended requests
	// like SSE streams are usually skipped so their spans do not live
	// for the whole connection.
	Skip func(r *http.Request) bool
}

// TraceOption configures the tracing middleware.
type TraceOption func(*TraceConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TraceOption {
	return func(c *TraceConfig) {
		c.TracerName = name
	}
}

// WithSkip sets the request filter.
func WithSkip(skip func(r *http.Request) bool) TraceOption {
	return func(c *TraceConfig) {
		c.Skip = skip
	}
}

// Trace creates middleware that opens a server span for each request,
// records the response status, and marks 5xx responses as errors. The
// tracer comes from the global OpenTelemetry tracer provider; without a
// configured provider the spans are no-ops.
func Trace(opts ...TraceOption) func(http.Handler) http.Handler {
	cfg := TraceConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&cfg)
	}
	tracer := otel.Tracer(cfg.TracerName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}
			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
				),
			)
			defer span.End()

			sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(sw, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.status_code", sw.code))
			if sw.code >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(sw.code))
			}
		})
	}
}

// statusWriter captures the response code. It keeps Flush available so
// wrapped handlers can still stream.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
