package gui

import (
	"log/slog"

	"github.com/hxgui-dev/hxgui/pkg/htmldom"
	"github.com/hxgui-dev/hxgui/pkg/widget"
)

// PageManager owns one page: it builds the page from its definition,
// hosts its binding table, and routes updates between the page and the
// renderer. It implements widget.Registrar and widget.Updater, so the
// page sees only the interface, never the coordinator.
type PageManager struct {
	namespace string
	pageID    string
	route     string
	page      widget.Page

	parameters      map[string][]*InteractionParameter
	dialogs         map[string]*htmldom.Element
	localCallbacks  map[string]*Callback
	globalCallbacks map[string]*Callback

	sink   FragmentSink
	logger *slog.Logger
}

// NewPageManager builds the page for uri and runs its set-up hook,
// which registers parameters, callbacks, and dialogs back into the
// manager. A failed build leaves no manager behind.
func NewPageManager(
	registry *Registry,
	sink FragmentSink,
	namespace, pageID, uri string,
	sessionData map[string]any,
	logger *slog.Logger,
) (*PageManager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	page, err := registry.Build(uri, pageID, sessionData)
	if err != nil {
		return nil, err
	}
	pm := &PageManager{
		namespace:       namespace,
		pageID:          pageID,
		route:           page.Route(),
		page:            page,
		parameters:      make(map[string][]*InteractionParameter),
		dialogs:         make(map[string]*htmldom.Element),
		localCallbacks:  make(map[string]*Callback),
		globalCallbacks: make(map[string]*Callback),
		sink:            sink,
		logger: logger.With(
			"component", "page_manager",
			"namespace", namespace,
			"page_id", pageID,
		),
	}
	page.SetUp(pm)
	return pm, nil
}

// PageID returns the hosted page's id.
func (pm *PageManager) PageID() string { return pm.pageID }

// Route returns the hosted page's route.
func (pm *PageManager) Route() string { return pm.route }

// Tree returns the page's element tree.
func (pm *PageManager) Tree() *htmldom.Element { return pm.page.Root() }

// Dialog returns a registered dialog subtree.
func (pm *PageManager) Dialog(dialogID string) (*htmldom.Element, bool) {
	d, ok := pm.dialogs[dialogID]
	return d, ok
}

// RegisterParameter implements widget.Registrar. The target element is
// annotated so the browser listens to the assigned SSE event id and
// applies the binding's swap mode.
func (pm *PageManager) RegisterParameter(parameter string, target *htmldom.Element, swap string) {
	id := parameterID(parameter)
	target.SetAttr("sse-swap", id)
	target.SetAttr("hx-swap", swap)
	pm.parameters[parameter] = append(pm.parameters[parameter], &InteractionParameter{
		Name:   parameter,
		ID:     id,
		Target: target,
		Swap:   swap,
	})
}

// RegisterCallback implements widget.Registrar. Local callbacks wire
// the source element to GET /local-event/<id> with the response swapped
// into the target; global callbacks wire POST /global-event/<id> and
// give the target an SSE listener for the event id.
func (pm *PageManager) RegisterCallback(
	event string,
	context widget.CallbackContext,
	fn widget.CallbackFunc,
	source, target *htmldom.Element,
	swap string,
) {
	id := eventID(event)
	cb := &Callback{
		Context: context,
		Event:   event,
		ID:      id,
		Fn:      fn,
		Source:  source,
		Target:  target,
		Swap:    swap,
	}
	switch context {
	case widget.Local:
		targetID, ok := target.Attr("id")
		if !ok {
			targetID = "target-" + newToken()
			target.SetAttr("id", targetID)
		}
		source.UpdateAttributes(map[string]string{
			"hx-get":     "/local-event/" + id,
			"hx-trigger": event,
			"hx-target":  "#" + targetID,
			"hx-swap":    swap,
		}, "hx-get", "hx-trigger", "hx-target", "hx-swap")
		pm.localCallbacks[id] = cb
	case widget.Global:
		target.SetAttr("sse-swap", id)
		source.UpdateAttributes(map[string]string{
			"hx-post":    "/global-event/" + id,
			"hx-trigger": event,
		}, "hx-post", "hx-trigger")
		pm.globalCallbacks[id] = cb
	default:
		pm.logger.Warn("unknown callback context, callback not registered",
			"context", string(context), "event", event)
	}
}

// RegisterDialog implements widget.Registrar.
func (pm *PageManager) RegisterDialog(dialogID string, content *htmldom.Element) {
	pm.dialogs[dialogID] = content
}

// UpdateAttributes implements widget.Updater: it applies the updates
// to the binding addressed by the component (every binding of the
// parameter when component is nil) and hands the resulting fragments
// to the renderer. Several widgets may bind the same parameter name;
// the component keeps each walk on its own element, one fragment per
// element. Mutation and serialisation happen under the sink's document
// lock; the fragments go on the wire after it is released. A lone
// inner_content update travels as bare text; anything touching real
// attributes re-serialises the element.
func (pm *PageManager) UpdateAttributes(parameter string, component *htmldom.Element, updates []widget.AttrUpdate) {
	bindings, ok := pm.parameters[parameter]
	if !ok || len(bindings) == 0 {
		pm.logger.Warn("parameter not registered", "parameter", parameter)
		return
	}
	type fragment struct {
		eventID string
		data    string
	}
	var fragments []fragment
	pm.sink.WithDocumentLock(func() {
		for _, binding := range bindings {
			if component != nil && binding.Target != component {
				continue
			}
			var text string
			hasText := false
			hasAttrs := false
			for _, u := range updates {
				if u.Name == widget.InnerContent {
					text = u.Value
					hasText = true
					continue
				}
				binding.Target.SetAttr(u.Name, u.Value)
				hasAttrs = true
			}
			if hasText {
				binding.Target.SetText(text)
			}
			if hasAttrs {
				fragments = append(fragments, fragment{binding.ID, binding.Target.String()})
			} else if hasText {
				fragments = append(fragments, fragment{binding.ID, text})
			}
		}
	})
	for _, f := range fragments {
		pm.sink.PublishFragment(pm.namespace, pm.pageID, f.eventID, f.data)
	}
}

// UpdateData forwards fresh session data to the page.
func (pm *PageManager) UpdateData(sessionData map[string]any) {
	pm.page.UpdateSessionData(sessionData, pm)
}

// UpdateState forwards a triggered bus event to the page.
func (pm *PageManager) UpdateState(event string) {
	pm.page.UpdateTriggerState(event, pm)
}

// TriggerCallback invokes a registered callback with the decoded DOM
// event. The second return value reports whether the callback exists.
func (pm *PageManager) TriggerCallback(
	context widget.CallbackContext,
	id string,
	ev *widget.DOMEvent,
) (string, bool) {
	var cb *Callback
	var ok bool
	if context == widget.Local {
		cb, ok = pm.localCallbacks[id]
	} else {
		cb, ok = pm.globalCallbacks[id]
	}
	if !ok {
		return "", false
	}
	return cb.Fn(ev), true
}
