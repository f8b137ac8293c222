package gui

import (
	"log/slog"
	"path"
	"sync"

	"github.com/hxgui-dev/hxgui/pkg/widget"
)

// Builder constructs a page instance for a page id and its session
// data. Builders must return a fresh tree on every call: a page may be
// inserted under several namespaces at once.
type Builder func(pageID string, sessionData map[string]any) widget.Page

// Registry maps page-definition URIs to builders. Skills address pages
// by file URI; the page libraries register their constructors up front
// and inserts resolve against that catalog. Lookup ignores the URI's
// directory and
// extension, so "…/home_screen_carousel.py" and "home_screen_carousel"
// address the same builder.
type Registry struct {
	mu       sync.Mutex
	builders map[string]Builder
	fallback Builder
	logger   *slog.Logger
}

// NewRegistry creates an empty registry. fallback builds the page used
// for unknown URIs; if nil, unknown URIs fail the insert.
func NewRegistry(fallback Builder, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		builders: make(map[string]Builder),
		fallback: fallback,
		logger:   logger.With("component", "page_registry"),
	}
}

// Register adds a builder under the given URI key.
func (r *Registry) Register(uri string, builder Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[normalizeURI(uri)] = builder
}

// Build constructs the page registered for uri. Unknown URIs fall back
// to the registry's placeholder builder when one is configured.
func (r *Registry) Build(uri, pageID string, sessionData map[string]any) (widget.Page, error) {
	r.mu.Lock()
	builder, ok := r.builders[normalizeURI(uri)]
	fallback := r.fallback
	r.mu.Unlock()

	if !ok {
		if fallback == nil {
			return nil, &UnknownPageError{URI: uri}
		}
		r.logger.Warn("no page definition for uri, using placeholder",
			"uri", uri, "page_id", pageID)
		builder = fallback
	}
	return builder(pageID, sessionData), nil
}

// UnknownPageError reports an insert for a URI with no registered
// builder and no fallback.
type UnknownPageError struct {
	URI string
}

func (e *UnknownPageError) Error() string {
	return "no page definition registered for uri " + e.URI
}

func normalizeURI(uri string) string {
	base := path.Base(uri)
	if ext := path.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return base
}
