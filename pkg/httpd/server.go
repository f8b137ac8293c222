// Package httpd exposes the gateway over HTTP: it serves the master
// document, streams SSE updates, accepts liveness pings and browser
// callbacks, and publishes metrics and health endpoints.
package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hxgui-dev/hxgui/pkg/bus"
	"github.com/hxgui-dev/hxgui/pkg/eventbus"
	"github.com/hxgui-dev/hxgui/pkg/htmldom"
	"github.com/hxgui-dev/hxgui/pkg/middleware"
	"github.com/hxgui-dev/hxgui/pkg/renderer"
	"github.com/hxgui-dev/hxgui/pkg/session"
	"github.com/hxgui-dev/hxgui/pkg/widget"
)

// CallbackRunner resolves and invokes browser callbacks. The GUI
// coordinator implements it.
type CallbackRunner interface {
	TriggerCallback(context widget.CallbackContext, id string, ev *widget.DOMEvent) (string, bool)
}

// UtteranceSender forwards typed utterances to the assistant. The bus
// client implements it.
type UtteranceSender interface {
	SendUtterance(text string) error
}

// Display serves document snapshots. The renderer implements it.
type Display interface {
	Document() *htmldom.Element
}

// Config holds the HTTP surface settings.
type Config struct {
	Host      string
	Port      int
	AssetsDir string
}

// DefaultConfig returns the stock HTTP settings.
func DefaultConfig() Config {
	return Config{
		Host:      "0.0.0.0",
		Port:      8181,
		AssetsDir: "assets",
	}
}

// Server is the HTTP surface of the gateway.
type Server struct {
	cfg       Config
	display   Display
	bus       *eventbus.Bus
	sessions  *session.Registry
	callbacks CallbackRunner
	sender    UtteranceSender
	metrics   *Metrics
	logger    *slog.Logger

	router chi.Router
}

// New assembles the server and its routes. sender may be nil when no
// bus connection exists (utterance posts then answer 503); metrics may
// be nil to disable instrumentation.
func New(
	cfg Config,
	display Display,
	eventBus *eventbus.Bus,
	sessions *session.Registry,
	callbacks CallbackRunner,
	sender UtteranceSender,
	metrics *Metrics,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:       cfg,
		display:   display,
		bus:       eventBus,
		sessions:  sessions,
		callbacks: callbacks,
		sender:    sender,
		metrics:   metrics,
		logger:    logger.With("component", "httpd"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the assembled route tree.
func (s *Server) Handler() http.Handler { return s.router }

// streamingPath reports whether the request is open-ended and should
// bypass per-request tracing and latency metrics.
func streamingPath(r *http.Request) bool {
	return r.URL.Path == "/updates" || r.URL.Path == "/metrics"
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Trace(middleware.WithSkip(streamingPath)))
	if s.metrics != nil {
		r.Use(skipStreaming(middleware.RequestMetrics(
			s.metrics.HTTPRequests, s.metrics.HTTPDuration)))
	}
	r.Get("/", s.handleRoot)
	r.Get("/updates", s.handleUpdates)
	r.Post("/ping/{sid}", s.handlePing)
	r.Get("/local-event/{eventID}", s.handleLocalEvent)
	r.Post("/global-event/{eventID}", s.handleGlobalEvent)
	r.Post("/utterance", s.handleUtterance)
	r.Handle("/assets/*", http.StripPrefix("/assets/",
		http.FileServer(http.Dir(s.cfg.AssetsDir))))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", s.handleHealth)
	return r
}

// skipStreaming exempts open-ended requests from a middleware.
func skipStreaming(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		wrapped := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if streamingPath(r) {
				next.ServeHTTP(w, r)
				return
			}
			wrapped.ServeHTTP(w, r)
		})
	}
}

// Run serves until ctx is done, then shuts down gracefully. The write
// timeout stays unset: SSE responses are open-ended by design of the
// protocol.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// handleRoot serves the master document with a fresh session stamped
// into the hidden liveness node.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	doc := s.display.Document()
	sid := session.NewID()
	node := doc.FindByID(renderer.SessionNodeID)
	if node != nil {
		node.SetAttr("hx-post", "/ping/"+sid)
		node.SetText(sid)
	}
	s.sessions.Register(sid)
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.sessions.Len()))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, "<!DOCTYPE html>"+doc.String())
}

// handleUpdates is the SSE endpoint: one subscription per connection,
// dropped when the browser goes away.
func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := s.bus.Listen()
	defer s.bus.Drop(sub)
	s.logger.Info("sse subscriber connected", "subscribers", s.bus.Len())

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("sse subscriber disconnected")
			return
		case frame, ok := <-sub.C:
			if !ok {
				return
			}
			if _, err := io.WriteString(w, frame.String()); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	s.sessions.Ping(chi.URLParam(r, "sid"))
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.sessions.Len()))
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLocalEvent runs a local callback and returns its HTML for the
// browser to swap in. An unknown id answers empty, not an error.
func (s *Server) handleLocalEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "eventID")
	ev := s.decodeDOMEvent(r, id)

	html, ok := s.callbacks.TriggerCallback(widget.Local, id, ev)
	if !ok {
		s.logger.Warn("local callback not found", "event_id", id)
	}
	if s.metrics != nil {
		s.metrics.CallbacksTotal.WithLabelValues(string(widget.Local)).Inc()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, html)
}

// handleGlobalEvent runs a global callback; its effects travel over
// SSE, so the response is empty.
func (s *Server) handleGlobalEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "eventID")
	ev := s.decodeDOMEvent(r, id)

	if _, ok := s.callbacks.TriggerCallback(widget.Global, id, ev); !ok {
		s.logger.Warn("global callback not found", "event_id", id)
	}
	if s.metrics != nil {
		s.metrics.CallbacksTotal.WithLabelValues(string(widget.Global)).Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeDOMEvent reads the url-encoded JSON payload the browser sends
// under the "event" parameter.
func (s *Server) decodeDOMEvent(r *http.Request, id string) *widget.DOMEvent {
	ev := &widget.DOMEvent{EventID: id}
	raw := r.FormValue("event")
	if raw == "" {
		return ev
	}
	if err := json.Unmarshal([]byte(raw), &ev.Payload); err != nil {
		s.logger.Warn("undecodable dom event payload", "event_id", id, "error", err)
	}
	return ev
}

// handleUtterance forwards a typed utterance to the assistant.
func (s *Server) handleUtterance(w http.ResponseWriter, r *http.Request) {
	text := r.FormValue("utterance")
	if text == "" {
		http.Error(w, "missing utterance", http.StatusBadRequest)
		return
	}
	if s.sender == nil {
		http.Error(w, "bus unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := s.sender.SendUtterance(text); err != nil {
		if errors.Is(err, bus.ErrNotConnected) {
			http.Error(w, "bus unavailable", http.StatusServiceUnavailable)
			return
		}
		s.logger.Error("utterance send failed", "error", err)
		http.Error(w, "send failed", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok")
}
