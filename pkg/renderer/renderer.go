package renderer

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hxgui-dev/hxgui/pkg/eventbus"
	"github.com/hxgui-dev/hxgui/pkg/htmldom"
)

// statusNamespace is the reserved namespace whose fragments bypass the
// active-route gate. The status bar lives outside the swappable root,
// so its updates must always reach the wire.
const statusNamespace = "status"

// transitionQueueSize bounds the route transition queue. Transitions
// arrive from bus handlers and must never block them.
const transitionQueueSize = 32

// Catalog resolves a route to its page's element tree. The GUI
// coordinator implements it; the renderer holds only this view of it.
type Catalog interface {
	PageTree(namespace, pageID string) *htmldom.Element
}

type route struct {
	namespace string
	pageID    string
}

// Config carries the document-level settings.
type Config struct {
	// Title is the document title.
	Title string
	// PingPeriod is the interval at which browsers report liveness.
	PingPeriod time.Duration
}

// DefaultConfig returns the stock document settings.
func DefaultConfig() Config {
	return Config{
		Title:      "OVOS Display",
		PingPeriod: 5 * time.Second,
	}
}

// Renderer holds the master document and streams its mutations to the
// event bus as SSE frames.
type Renderer struct {
	bus     *eventbus.Bus
	catalog Catalog

	mu        sync.Mutex
	doc       *htmldom.Element
	root      *htmldom.Element
	dialog    *htmldom.Element
	status    *htmldom.Element
	lastShown route

	transitions chan route
	onFrame     func(event string)
	logger      *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFrameObserver installs a hook called with the event id of every
// published frame. The metrics layer uses it to count outgoing frames.
func WithFrameObserver(fn func(event string)) Option {
	return func(r *Renderer) { r.onFrame = fn }
}

// New creates a renderer with a freshly built master document.
func New(bus *eventbus.Bus, cfg Config, logger *slog.Logger, opts ...Option) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	doc, root, dialog, status, _ := buildDocument(cfg.Title, cfg.PingPeriod)
	r := &Renderer{
		bus:         bus,
		doc:         doc,
		root:        root,
		dialog:      dialog,
		status:      status,
		transitions: make(chan route, transitionQueueSize),
		logger:      logger.With("component", "renderer"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetCatalog wires the page catalog. The coordinator needs the
// renderer at construction and vice versa, so the catalog arrives
// after both exist.
func (r *Renderer) SetCatalog(c Catalog) {
	r.mu.Lock()
	r.catalog = c
	r.mu.Unlock()
}

// Start launches the transition consumer. It stops when ctx is done.
func (r *Renderer) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case rt := <-r.transitions:
				r.transition(rt)
			}
		}
	}()
}

// ShowRoute enqueues a route transition. It never blocks the caller;
// when the queue is full the transition is dropped and logged.
func (r *Renderer) ShowRoute(namespace, pageID string) {
	select {
	case r.transitions <- route{namespace: namespace, pageID: pageID}:
	default:
		r.logger.Warn("transition queue full, route dropped",
			"namespace", namespace, "page_id", pageID)
	}
}

// transition swaps the page subtree under the root node and publishes
// the new root content. A route equal to the one on display is
// skipped, so redundant show commands cost nothing on the wire.
func (r *Renderer) transition(rt route) {
	r.mu.Lock()
	if rt == r.lastShown {
		r.mu.Unlock()
		r.logger.Debug("route already on display",
			"namespace", rt.namespace, "page_id", rt.pageID)
		return
	}
	if r.catalog == nil {
		r.mu.Unlock()
		r.logger.Warn("no catalog wired, transition dropped")
		return
	}
	tree := r.catalog.PageTree(rt.namespace, rt.pageID)
	if tree == nil {
		r.mu.Unlock()
		r.logger.Warn("route resolves to no page tree",
			"namespace", rt.namespace, "page_id", rt.pageID)
		return
	}
	r.root.DetachChildren()
	r.root.AppendChild(tree)
	r.lastShown = rt
	data := r.root.InnerHTML()
	r.mu.Unlock()

	r.logger.Info("route on display", "namespace", rt.namespace, "page_id", rt.pageID)
	r.publish(RootEvent, data)
}

// PublishFragment implements the fragment sink. Fragments are gated on
// the route they belong to: only the page on display may talk to the
// browser, except the status namespace, which is always wired in.
func (r *Renderer) PublishFragment(namespace, pageID, eventID, data string) {
	r.mu.Lock()
	shown := r.lastShown
	r.mu.Unlock()

	if namespace != statusNamespace &&
		(shown.namespace != namespace || shown.pageID != pageID) {
		r.logger.Debug("fragment for inactive route dropped",
			"namespace", namespace, "page_id", pageID, "event_id", eventID)
		return
	}
	r.publish(eventID, data)
}

// OpenDialog installs the content under the dialog host and pushes the
// opened dialog to all browsers.
func (r *Renderer) OpenDialog(content *htmldom.Element) {
	r.mu.Lock()
	r.dialog.DetachChildren()
	r.dialog.AppendChild(content)
	r.dialog.SetAttr("open", "")
	data := r.dialog.String()
	r.mu.Unlock()
	r.publish(DialogEvent, data)
}

// CloseDialog empties the dialog host and pushes the closed state.
func (r *Renderer) CloseDialog() {
	r.mu.Lock()
	r.dialog.DetachChildren()
	r.dialog.RemoveAttr("open")
	data := r.dialog.String()
	r.mu.Unlock()
	r.publish(DialogEvent, data)
}

// WithDocumentLock runs fn while holding the document lock. Page
// trees reachable from the master document may only be mutated or
// serialised inside it, so fragment updates never race Document or a
// route transition. fn must not call any other renderer method.
func (r *Renderer) WithDocumentLock(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

// AttachStatusWidget mounts the status bar's tree into the master
// document, outside the swappable root.
func (r *Renderer) AttachStatusWidget(tree *htmldom.Element) {
	r.mu.Lock()
	r.status.AppendChild(tree)
	r.mu.Unlock()
}

// Document returns a deep copy of the current master document. The
// HTTP layer stamps a session id into the copy before serving it.
func (r *Renderer) Document() *htmldom.Element {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.Clone()
}

// ActiveRoute returns the route currently on display.
func (r *Renderer) ActiveRoute() (namespace, pageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastShown.namespace, r.lastShown.pageID
}

// publish pushes one frame onto the bus. SSE data must be a single
// line, so raw newlines in callback output are flattened.
func (r *Renderer) publish(event, data string) {
	data = strings.NewReplacer("\r", " ", "\n", " ").Replace(data)
	r.bus.Publish(eventbus.Frame{Event: event, Data: data})
	if r.onFrame != nil {
		r.onFrame(event)
	}
}
