package widget

import (
	"github.com/hxgui-dev/hxgui/pkg/htmldom"
)

// Registrar is the page-side registration interface published by the
// page manager. Pages never hold a reference to the coordinator or the
// renderer; all registration and update traffic goes through this
// method table.
type Registrar interface {
	RegisterParameter(parameter string, target *htmldom.Element, swap string)
	RegisterCallback(event string, context CallbackContext, fn CallbackFunc,
		source, target *htmldom.Element, swap string)
	RegisterDialog(dialogID string, content *htmldom.Element)
}

// Updater receives attribute updates produced by binding walks. The
// component names the element the walk is updating, so a parameter
// bound by several widgets updates each element exactly once.
type Updater interface {
	UpdateAttributes(parameter string, component *htmldom.Element, updates []AttrUpdate)
}

// Page is what the page manager hosts: an element tree plus the hooks
// that register and drive its bindings.
type Page interface {
	Name() string
	Route() string
	Root() *htmldom.Element
	SetUp(reg Registrar)
	UpdateSessionData(data map[string]any, up Updater)
	UpdateTriggerState(event string, up Updater)
}

// BasePage is the standard Page implementation: a root widget plus any
// number of component widgets.
type BasePage struct {
	*Widget
	route   string
	widgets []*Widget
}

// NewBasePage creates a page with the given name and declared
// parameters. Its route is derived from the name.
func NewBasePage(name string, parameters []string, sessionData map[string]any) *BasePage {
	p := &BasePage{
		Widget: NewWidget(name, parameters, sessionData),
		route:  "/" + name,
	}
	p.widgets = []*Widget{p.Widget}
	return p
}

// Route returns the page route.
func (p *BasePage) Route() string { return p.route }

// AddWidget attaches component widgets to the page.
func (p *BasePage) AddWidget(widgets ...*Widget) {
	p.widgets = append(p.widgets, widgets...)
}

// SetUp registers every widget's session items, triggers, controls,
// and dialog subtrees with the page manager.
func (p *BasePage) SetUp(reg Registrar) {
	for _, w := range p.widgets {
		for _, item := range w.sessionItems {
			if item.registered {
				continue
			}
			reg.RegisterParameter(item.Parameter, item.Component, item.Swap)
			item.registered = true
		}
		for _, trigger := range w.triggers {
			if trigger.registered {
				continue
			}
			reg.RegisterParameter(trigger.Event, trigger.Component, trigger.Swap)
			trigger.registered = true
		}
		for _, control := range w.controls {
			if control.registered {
				continue
			}
			reg.RegisterCallback(control.Event, control.Context, control.Fn,
				control.Source, control.Target, control.Swap)
			control.registered = true
		}
		if w.kind == KindDialog && !w.dialogRegistered {
			reg.RegisterDialog(w.name, w.root)
			w.dialogRegistered = true
		}
	}
}

// UpdateSessionData walks the declared bindings for every incoming
// parameter, applies formatters, and forwards the attribute updates.
func (p *BasePage) UpdateSessionData(data map[string]any, up Updater) {
	for parameter, value := range data {
		for _, w := range p.widgets {
			if !w.Has(parameter) {
				continue
			}
			w.setSessionValue(parameter, value)
			item := w.sessionItems[parameter]

			updates := make([]AttrUpdate, 0, len(item.Attributes))
			for _, name := range item.Attributes {
				if format, ok := item.Format[name]; ok {
					updates = append(updates, AttrUpdate{Name: name, Value: format(value)})
				} else {
					updates = append(updates, AttrUpdate{Name: name, Value: Stringify(value)})
				}
			}
			up.UpdateAttributes(item.Parameter, item.Component, updates)
		}
	}
}

// UpdateTriggerState walks the widgets bound to the triggered event and
// forwards the attribute values their getters produce.
func (p *BasePage) UpdateTriggerState(event string, up Updater) {
	for _, w := range p.widgets {
		if !w.ActsOn(event) {
			continue
		}
		trigger := w.triggers[event]

		updates := make([]AttrUpdate, 0, len(trigger.Attributes))
		for _, name := range trigger.Attributes {
			if get, ok := trigger.Get[name]; ok {
				updates = append(updates, AttrUpdate{Name: name, Value: get(event)})
			}
		}
		if len(updates) > 0 {
			up.UpdateAttributes(trigger.Event, trigger.Component, updates)
		}
	}
}

// RawPage wraps a bare element tree as a Page. It registers nothing
// and ignores updates; the tree is shown as-is.
type RawPage struct {
	name string
	root *htmldom.Element
}

// NewRawPage wraps an element tree.
func NewRawPage(name string, root *htmldom.Element) *RawPage {
	return &RawPage{name: name, root: root}
}

// Name returns the page name.
func (p *RawPage) Name() string { return p.name }

// Route returns the page route.
func (p *RawPage) Route() string { return "/" + p.name }

// Root returns the wrapped tree.
func (p *RawPage) Root() *htmldom.Element { return p.root }

// SetUp is a no-op for raw trees.
func (p *RawPage) SetUp(Registrar) {}

// UpdateSessionData is a no-op for raw trees.
func (p *RawPage) UpdateSessionData(map[string]any, Updater) {}

// UpdateTriggerState is a no-op for raw trees.
func (p *RawPage) UpdateTriggerState(string, Updater) {}
