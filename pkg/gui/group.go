package gui

import (
	"log/slog"
)

// PageGroup is the ordered collection of pages under one namespace,
// plus a stack of recently-active page indices. The top of the stack is
// the group's active page; deactivation resumes the page below it.
type PageGroup struct {
	namespace string
	ids       []string
	pages     map[string]*PageManager
	active    []int

	registry *Registry
	sink     FragmentSink
	logger   *slog.Logger
}

// NewPageGroup creates an empty group for the namespace.
func NewPageGroup(namespace string, registry *Registry, sink FragmentSink, logger *slog.Logger) *PageGroup {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageGroup{
		namespace: namespace,
		pages:     make(map[string]*PageManager),
		registry:  registry,
		sink:      sink,
		logger:    logger.With("component", "page_group", "namespace", namespace),
	}
}

// Namespace returns the group's namespace.
func (g *PageGroup) Namespace() string { return g.namespace }

// Len returns the number of pages in the group.
func (g *PageGroup) Len() int { return len(g.ids) }

// PageIDs returns the ordered page ids.
func (g *PageGroup) PageIDs() []string {
	return append([]string(nil), g.ids...)
}

// PageID returns the page id at the given position, or "" when out of
// range.
func (g *PageGroup) PageID(position int) string {
	if !validPosition(position, len(g.ids)-1) {
		return ""
	}
	return g.ids[position]
}

// Page returns the manager for a page id.
func (g *PageGroup) Page(pageID string) (*PageManager, bool) {
	pm, ok := g.pages[pageID]
	return pm, ok
}

// indexOf returns the position of a page id, or -1.
func (g *PageGroup) indexOf(pageID string) int {
	for i, id := range g.ids {
		if id == pageID {
			return i
		}
	}
	return -1
}

// InsertPage places a page at position, clamping out-of-range
// positions to the nearest bound. Inserting an id that already exists
// repositions it; in either case a freshly built manager replaces any
// previous one. A failed page build leaves the group untouched.
func (g *PageGroup) InsertPage(position int, pageID, uri string, sessionData map[string]any) error {
	pm, err := NewPageManager(g.registry, g.sink, g.namespace, pageID, uri, sessionData, g.logger)
	if err != nil {
		return err
	}

	if i := g.indexOf(pageID); i >= 0 {
		if i != position {
			g.ids = append(g.ids[:i], g.ids[i+1:]...)
			position = clampPosition(position, len(g.ids))
			g.ids = append(g.ids[:position], append([]string{pageID}, g.ids[position:]...)...)
		}
		g.logger.Info("page manager replaced", "page_id", pageID)
	} else {
		if !validPosition(position, len(g.ids)) {
			g.logger.Warn("insert position out of range, clamping", "position", position)
			position = clampPosition(position, len(g.ids))
		}
		g.ids = append(g.ids[:position], append([]string{pageID}, g.ids[position:]...)...)
	}
	g.pages[pageID] = pm
	return nil
}

// RemovePage removes the page at position. Removing the active page
// pops the active-index stack so the previous page resumes.
func (g *PageGroup) RemovePage(position int) {
	if !validPosition(position, len(g.ids)-1) {
		g.logger.Warn("remove position out of range, nothing to remove", "position", position)
		return
	}
	if len(g.active) > 0 && g.active[len(g.active)-1] == position {
		g.active = g.active[:len(g.active)-1]
	}
	pageID := g.ids[position]
	g.ids = append(g.ids[:position], g.ids[position+1:]...)
	delete(g.pages, pageID)
	g.rebound()
}

// MovePage moves the page at from to to, clamping both positions.
func (g *PageGroup) MovePage(from, to int) {
	if !validPosition(from, len(g.ids)-1) {
		g.logger.Warn("move source out of range, nothing to move", "from", from)
		return
	}
	to = clampPosition(to, len(g.ids)-1)
	id := g.ids[from]
	g.ids = append(g.ids[:from], g.ids[from+1:]...)
	g.ids = append(g.ids[:to], append([]string{id}, g.ids[to:]...)...)
}

// ActivatePage pushes the page's index onto the active stack.
func (g *PageGroup) ActivatePage(position int) {
	if len(g.ids) == 0 {
		return
	}
	position = clampPosition(position, len(g.ids)-1)
	g.active = append(g.active, position)
}

// ActivatePageID activates a page by id.
func (g *PageGroup) ActivatePageID(pageID string) {
	if i := g.indexOf(pageID); i >= 0 {
		g.active = append(g.active, i)
	}
}

// DeactivatePage rotates the top of the active stack one position
// down, so the previously active page resumes while the deactivated
// page stays in the history below it. A skill may overlay a dialog
// page and expect the prior page to come back afterwards. A stack
// with fewer than two entries is left as is.
func (g *PageGroup) DeactivatePage() {
	n := len(g.active)
	if n < 2 {
		return
	}
	g.active[n-1], g.active[n-2] = g.active[n-2], g.active[n-1]
}

// ActiveIndex returns the active page index, or -1 when none.
func (g *PageGroup) ActiveIndex() int {
	if len(g.active) == 0 {
		return -1
	}
	return g.active[len(g.active)-1]
}

// ActivePageID returns the active page id, or "".
func (g *PageGroup) ActivePageID() string {
	i := g.ActiveIndex()
	if i < 0 || i >= len(g.ids) {
		return ""
	}
	return g.ids[i]
}

// Managers returns the group's page managers in page order. The
// coordinator snapshots them under its lock and fans updates out to
// the snapshot, so page churn never races the walk.
func (g *PageGroup) Managers() []*PageManager {
	managers := make([]*PageManager, 0, len(g.ids))
	for _, id := range g.ids {
		if pm, ok := g.pages[id]; ok {
			managers = append(managers, pm)
		}
	}
	return managers
}

// rebound drops active-stack entries that no longer index a page.
func (g *PageGroup) rebound() {
	valid := g.active[:0]
	for _, i := range g.active {
		if i >= 0 && i < len(g.ids) {
			valid = append(valid, i)
		}
	}
	g.active = valid
}
