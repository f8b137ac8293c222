package httpd

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hxgui-dev/hxgui/pkg/bus"
	"github.com/hxgui-dev/hxgui/pkg/eventbus"
	"github.com/hxgui-dev/hxgui/pkg/renderer"
	"github.com/hxgui-dev/hxgui/pkg/session"
	"github.com/hxgui-dev/hxgui/pkg/widget"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRunner struct {
	context widget.CallbackContext
	id      string
	payload map[string]any
	html    string
	found   bool
}

func (f *fakeRunner) TriggerCallback(ctx widget.CallbackContext, id string, ev *widget.DOMEvent) (string, bool) {
	f.context = ctx
	f.id = id
	if ev != nil {
		f.payload = ev.Payload
	}
	return f.html, f.found
}

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) SendUtterance(text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

type fixture struct {
	server   *Server
	bus      *eventbus.Bus
	sessions *session.Registry
	runner   *fakeRunner
	sender   *fakeSender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := eventbus.New(discard())
	r := renderer.New(b, renderer.DefaultConfig(), discard())
	sessions := session.NewRegistry(session.DefaultConfig(), nil, discard())
	runner := &fakeRunner{html: "", found: true}
	sender := &fakeSender{}
	srv := New(DefaultConfig(), r, b, sessions, runner, sender,
		NewMetrics(prometheus.NewRegistry()), discard())
	return &fixture{server: srv, bus: b, sessions: sessions, runner: runner, sender: sender}
}

func TestRootServesDocumentAndRegistersSession(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "<!DOCTYPE html>") {
		t.Errorf("body does not start with doctype: %.40q", body)
	}
	if !strings.Contains(body, `hx-post="/ping/`) {
		t.Error("no ping wiring in served document")
	}
	if got := f.sessions.Len(); got != 1 {
		t.Errorf("registered sessions = %d, want 1", got)
	}
}

func TestEachRootRequestGetsOwnSession(t *testing.T) {
	f := newFixture(t)
	h := f.server.Handler()
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	}
	if got := f.sessions.Len(); got != 3 {
		t.Errorf("registered sessions = %d, want 3", got)
	}
}

func TestPing(t *testing.T) {
	f := newFixture(t)
	f.sessions.Register("cafe0123")

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/ping/cafe0123", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if !f.sessions.Active("cafe0123") {
		t.Error("session lost after ping")
	}
}

func TestLocalEventReturnsCallbackHTML(t *testing.T) {
	f := newFixture(t)
	f.runner.html = "<b>pressed</b>"

	payload := url.QueryEscape(`{"value":1}`)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/local-event/click-aabbccdd?event="+payload, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "<b>pressed</b>" {
		t.Errorf("body = %q, want callback html", got)
	}
	if f.runner.context != widget.Local || f.runner.id != "click-aabbccdd" {
		t.Errorf("callback = %s %s, want local click-aabbccdd", f.runner.context, f.runner.id)
	}
	if f.runner.payload["value"] != float64(1) {
		t.Errorf("payload = %v, want decoded event json", f.runner.payload)
	}
}

func TestLocalEventUnknownIDIsEmpty(t *testing.T) {
	f := newFixture(t)
	f.runner.found = false

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/local-event/nope-00000000", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestGlobalEventAnswers204(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/global-event/toggle-aabbccdd", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if f.runner.context != widget.Global {
		t.Errorf("callback context = %s, want global", f.runner.context)
	}
}

func TestUtterance(t *testing.T) {
	f := newFixture(t)
	h := f.server.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/utterance", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty utterance: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	req := httptest.NewRequest(http.MethodPost, "/utterance",
		strings.NewReader("utterance=what+time+is+it"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(f.sender.sent) != 1 || f.sender.sent[0] != "what time is it" {
		t.Errorf("sent = %v, want the typed utterance", f.sender.sent)
	}

	f.sender.err = bus.ErrNotConnected
	req = httptest.NewRequest(http.MethodPost, "/utterance",
		strings.NewReader("utterance=hello"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("disconnected: status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q, want 200 ok", rec.Code, rec.Body.String())
	}
}

func TestUpdatesStreamsFrames(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/updates", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /updates error: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type = %q, want text/event-stream", got)
	}

	// Wait until the handler has subscribed, then publish.
	deadline := time.Now().Add(2 * time.Second)
	for f.bus.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if f.bus.Len() == 0 {
		t.Fatal("no subscription within deadline")
	}
	f.bus.Publish(eventbus.Frame{Event: "title-aabbccdd", Data: "hello"})

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 2 {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read error after %v: %v", lines, err)
		}
		line = strings.TrimRight(line, "\n")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if lines[0] != "event: title-aabbccdd" || lines[1] != "data: hello" {
		t.Errorf("frame lines = %v", lines)
	}
}
