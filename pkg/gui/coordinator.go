package gui

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/hxgui-dev/hxgui/pkg/htmldom"
	"github.com/hxgui-dev/hxgui/pkg/widget"
)

// StatusNamespace is the reserved namespace of the persistent status
// bar. Its fragments are always delivered regardless of the active
// route.
const StatusNamespace = "status"

// Coordinator is the top-level catalog of page groups keyed by
// namespace. It tracks the ordered list of active namespaces (front =
// active) and routes data and event updates to the pages that bind
// them.
type Coordinator struct {
	mu         sync.Mutex
	namespaces []string
	catalog    map[string]*PageGroup
	status     *PageManager

	registry *Registry
	display  Display
	logger   *slog.Logger
}

// NewCoordinator creates a coordinator publishing through the given
// display.
func NewCoordinator(registry *Registry, display Display, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		catalog:  make(map[string]*PageGroup),
		registry: registry,
		display:  display,
		logger:   logger.With("component", "gui_coordinator"),
	}
}

// InstallStatusPage builds the status bar page under the reserved
// namespace. Its manager is created once at start-up and survives all
// namespace churn.
func (c *Coordinator) InstallStatusPage(uri string) (*PageManager, error) {
	pm, err := NewPageManager(c.registry, c.display, StatusNamespace, StatusNamespace,
		uri, nil, c.logger)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.status = pm
	c.mu.Unlock()
	return pm, nil
}

// ActiveNamespace returns the namespace at the front of the active
// list, or "".
func (c *Coordinator) ActiveNamespace() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeNamespace()
}

func (c *Coordinator) activeNamespace() string {
	if len(c.namespaces) == 0 {
		return ""
	}
	return c.namespaces[0]
}

// ActivePageID returns the active page id of the active namespace.
func (c *Coordinator) ActivePageID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ns := c.activeNamespace()
	if group, ok := c.catalog[ns]; ok {
		return group.ActivePageID()
	}
	return ""
}

// InCatalog reports whether the namespace has a page group.
func (c *Coordinator) InCatalog(namespace string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.catalog[namespace]
	return ok
}

// ActivateNamespace moves the namespace to the front of the active
// list, creating its page group if absent.
func (c *Coordinator) ActivateNamespace(namespace string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activateNamespace(namespace)
}

func (c *Coordinator) activateNamespace(namespace string) {
	for i, ns := range c.namespaces {
		if ns == namespace {
			c.namespaces = append(c.namespaces[:i], c.namespaces[i+1:]...)
			break
		}
	}
	c.namespaces = append([]string{namespace}, c.namespaces...)
	c.ensureGroup(namespace)
}

// DeactivateNamespace rotates the front namespace to position 1, so
// the previously active namespace resumes.
func (c *Coordinator) DeactivateNamespace() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.namespaces) < 2 {
		return
	}
	c.namespaces[0], c.namespaces[1] = c.namespaces[1], c.namespaces[0]
}

// InsertNamespace places a namespace at the given position in the
// active list, creating its page group if absent.
func (c *Coordinator) InsertNamespace(namespace string, position int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, ns := range c.namespaces {
		if ns == namespace {
			c.namespaces = append(c.namespaces[:i], c.namespaces[i+1:]...)
			break
		}
	}
	position = clampPosition(position, len(c.namespaces))
	c.namespaces = append(c.namespaces[:position],
		append([]string{namespace}, c.namespaces[position:]...)...)
	c.ensureGroup(namespace)
}

// RemoveNamespace drops a namespace from the active list and destroys
// its page group. Removing the active namespace closes it first so the
// next namespace is shown.
func (c *Coordinator) RemoveNamespace(namespace string) {
	c.mu.Lock()
	wasActive := c.activeNamespace() == namespace
	for i, ns := range c.namespaces {
		if ns == namespace {
			c.namespaces = append(c.namespaces[:i], c.namespaces[i+1:]...)
			break
		}
	}
	delete(c.catalog, namespace)
	ns, pid := c.activeRoute()
	c.mu.Unlock()

	if wasActive && ns != "" && pid != "" {
		c.display.ShowRoute(ns, pid)
	}
}

func (c *Coordinator) ensureGroup(namespace string) *PageGroup {
	group, ok := c.catalog[namespace]
	if !ok {
		group = NewPageGroup(namespace, c.registry, c.display, c.logger)
		c.catalog[namespace] = group
	}
	return group
}

// activeRoute resolves the currently active (namespace, page id) pair.
func (c *Coordinator) activeRoute() (string, string) {
	ns := c.activeNamespace()
	if ns == "" {
		return "", ""
	}
	group, ok := c.catalog[ns]
	if !ok {
		return ns, ""
	}
	return ns, group.ActivePageID()
}

// InsertPages inserts the referenced pages at position, building each
// page from its URI. When the namespace dominates the display (it is
// the only active namespace, or nothing was on display yet), the page
// at the insert position is shown immediately.
func (c *Coordinator) InsertPages(namespace string, position int, pages []PageRef, sessionData map[string]any) {
	c.mu.Lock()
	wasEmpty := len(c.catalog) == 0
	group := c.ensureGroup(namespace)

	prefix := strings.ReplaceAll(namespace, ".", "_")
	for i := len(pages) - 1; i >= 0; i-- {
		ref := pages[i]
		pageID := ref.Page
		if pageID == "" {
			pageID = prefix + "_" + newToken()
		}
		if err := group.InsertPage(position, pageID, ref.URL, sessionData); err != nil {
			c.logger.Warn("page build failed, catalog entry not created",
				"namespace", namespace, "page_id", pageID, "uri", ref.URL, "error", err)
		}
	}

	dominates := wasEmpty ||
		(len(c.namespaces) == 1 && c.namespaces[0] == namespace)
	c.mu.Unlock()

	if dominates && len(pages) > 0 {
		c.ShowIndex(namespace, position)
	}
}

// RemovePages removes n pages starting at position. An unknown
// namespace is logged and skipped.
func (c *Coordinator) RemovePages(namespace string, position, n int) {
	c.mu.Lock()
	group, ok := c.catalog[namespace]
	if !ok {
		c.mu.Unlock()
		c.logger.Warn("page group not in catalog, nothing to remove", "namespace", namespace)
		return
	}
	closing := false
	for i := 0; i < n; i++ {
		if group.ActiveIndex() == position {
			group.DeactivatePage()
			closing = true
		}
		group.RemovePage(position)
	}
	ns, pid := c.activeRoute()
	c.mu.Unlock()

	if closing && ns != "" && pid != "" {
		c.display.ShowRoute(ns, pid)
	}
}

// MovePages moves n pages from from to to. An unknown namespace is
// logged and skipped.
func (c *Coordinator) MovePages(namespace string, from, to, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	group, ok := c.catalog[namespace]
	if !ok {
		c.logger.Warn("page group not in catalog, nothing to move", "namespace", namespace)
		return
	}
	for i := 0; i < n; i++ {
		group.MovePage(from, to)
	}
}

// Show activates the namespace and page and pushes the route to the
// display. Empty arguments resolve against the current active state.
func (c *Coordinator) Show(namespace, pageID string) {
	c.mu.Lock()
	if namespace == "" {
		namespace = c.activeNamespace()
	}
	group, ok := c.catalog[namespace]
	if !ok {
		c.mu.Unlock()
		c.logger.Info("namespace not in catalog, nothing to display", "namespace", namespace)
		return
	}
	if c.activeNamespace() != namespace {
		c.activateNamespace(namespace)
		c.logger.Info("namespace activated", "namespace", namespace)
	}
	if pageID == "" {
		pageID = group.ActivePageID()
		if pageID == "" && group.Len() > 0 {
			pageID = group.PageID(0)
		}
	}
	if _, ok := group.Page(pageID); !ok {
		c.mu.Unlock()
		c.logger.Info("page not available, nothing to display",
			"namespace", namespace, "page_id", pageID)
		return
	}
	if group.ActivePageID() != pageID {
		group.ActivatePageID(pageID)
	}
	c.mu.Unlock()

	c.logger.Info("page activated", "namespace", namespace, "page_id", pageID)
	c.display.ShowRoute(namespace, pageID)
}

// ShowIndex shows the page at a position within the namespace.
func (c *Coordinator) ShowIndex(namespace string, position int) {
	c.mu.Lock()
	group, ok := c.catalog[namespace]
	if !ok {
		c.mu.Unlock()
		c.logger.Info("namespace not in catalog, nothing to display", "namespace", namespace)
		return
	}
	pageID := group.PageID(clampPosition(position, group.Len()-1))
	c.mu.Unlock()

	if pageID == "" {
		return
	}
	c.Show(namespace, pageID)
}

// Close deactivates a namespace or a single page and pushes whatever
// becomes active. With a namespace only, the namespace rotates down
// and the next one resumes; with a page id, that page deactivates
// within its namespace.
func (c *Coordinator) Close(namespace, pageID string) {
	c.mu.Lock()
	if namespace == "" {
		namespace = c.activeNamespace()
	}
	group, ok := c.catalog[namespace]
	if !ok {
		c.mu.Unlock()
		c.logger.Info("namespace not in catalog, nothing to close", "namespace", namespace)
		return
	}
	if pageID == "" {
		if c.activeNamespace() == namespace && len(c.namespaces) > 1 {
			c.namespaces[0], c.namespaces[1] = c.namespaces[1], c.namespaces[0]
		}
	} else {
		if group.ActivePageID() == pageID {
			group.DeactivatePage()
		} else {
			c.logger.Info("page not active, nothing to close",
				"namespace", namespace, "page_id", pageID)
		}
	}
	ns, pid := c.activeRoute()
	c.mu.Unlock()

	if ns != "" && pid != "" {
		c.display.ShowRoute(ns, pid)
	}
}

// CloseIndex closes the page at a position within the namespace.
func (c *Coordinator) CloseIndex(namespace string, position int) {
	c.mu.Lock()
	group, ok := c.catalog[namespace]
	if !ok {
		c.mu.Unlock()
		return
	}
	pageID := group.PageID(position)
	c.mu.Unlock()

	c.Close(namespace, pageID)
}

// UpdateData routes fresh session data to the namespace's pages. The
// bus may push data before the page group exists; that is logged and
// skipped. The group's managers are snapshotted under the lock; the
// updates themselves run outside it, so a page walk never blocks the
// renderer.
func (c *Coordinator) UpdateData(namespace string, sessionData map[string]any) {
	managers, ok := c.snapshotManagers(namespace)
	if !ok {
		c.logger.Info("page group not in catalog, nothing to update", "namespace", namespace)
		return
	}
	for _, pm := range managers {
		pm.UpdateData(sessionData)
	}
}

// UpdateState routes a triggered event to the namespace's pages.
func (c *Coordinator) UpdateState(namespace, event string) {
	managers, ok := c.snapshotManagers(namespace)
	if !ok {
		c.logger.Info("page group not in catalog, nothing to update", "namespace", namespace)
		return
	}
	for _, pm := range managers {
		pm.UpdateState(event)
	}
}

func (c *Coordinator) snapshotManagers(namespace string) ([]*PageManager, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	group, ok := c.catalog[namespace]
	if !ok {
		return nil, false
	}
	return group.Managers(), true
}

// UpdateStatus drives the persistent status bar: data updates carry
// the originating event alongside their payload, and the event itself
// always reaches the page's trigger bindings.
func (c *Coordinator) UpdateStatus(event string, data map[string]any) {
	c.mu.Lock()
	status := c.status
	c.mu.Unlock()
	if status == nil {
		return
	}
	if data != nil {
		payload := make(map[string]any, len(data)+1)
		for k, v := range data {
			payload[k] = v
		}
		payload["ovos_event"] = event
		status.UpdateData(payload)
	}
	status.UpdateState(event)
}

// TriggerCallback locates a registered callback by id across the
// catalog and invokes it. The boolean reports whether it was found.
func (c *Coordinator) TriggerCallback(
	context widget.CallbackContext,
	id string,
	ev *widget.DOMEvent,
) (string, bool) {
	c.mu.Lock()
	managers := make([]*PageManager, 0, 8)
	for _, group := range c.catalog {
		managers = append(managers, group.Managers()...)
	}
	if c.status != nil {
		managers = append(managers, c.status)
	}
	c.mu.Unlock()

	for _, pm := range managers {
		if html, ok := pm.TriggerCallback(context, id, ev); ok {
			return html, true
		}
	}
	c.logger.Warn("callback not found", "event_id", id, "context", string(context))
	return "", false
}

// OpenDialog locates a registered dialog subtree and opens it.
func (c *Coordinator) OpenDialog(dialogID string) bool {
	c.mu.Lock()
	var content *htmldom.Element
	for _, group := range c.catalog {
		for _, pm := range group.pages {
			if d, ok := pm.Dialog(dialogID); ok {
				content = d
				break
			}
		}
	}
	c.mu.Unlock()

	if content == nil {
		c.logger.Warn("dialog not registered", "dialog_id", dialogID)
		return false
	}
	c.display.OpenDialog(content)
	return true
}

// CloseDialog clears the dialog root.
func (c *Coordinator) CloseDialog() {
	c.display.CloseDialog()
}

// PageTree implements the renderer's catalog view: it resolves the
// element tree for a route. The status namespace resolves to the
// status page.
func (c *Coordinator) PageTree(namespace, pageID string) *htmldom.Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	if namespace == StatusNamespace && c.status != nil {
		return c.status.Tree()
	}
	group, ok := c.catalog[namespace]
	if !ok {
		return nil
	}
	pm, ok := group.Page(pageID)
	if !ok {
		return nil
	}
	return pm.Tree()
}
