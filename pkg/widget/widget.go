// Package widget provides the declarative binding kit that page
// libraries build on: widgets declare session items, triggers, and
// controls, and a Page registers them with its page manager and routes
// data and event updates through the declared bindings.
package widget

import (
	"fmt"
	"sync"

	"github.com/hxgui-dev/hxgui/pkg/htmldom"
)

// InnerContent is the pseudo-attribute that targets an element's text
// content instead of a real attribute.
const InnerContent = "inner_content"

// Swap modes understood by the browser runtime.
const (
	SwapInnerHTML = "innerHTML"
	SwapOuterHTML = "outerHTML"
)

// DefaultSwap returns the swap mode implied by an attribute tuple:
// a lone inner_content swaps innerHTML, anything else replaces the
// whole element.
func DefaultSwap(attributes []string) string {
	if len(attributes) == 1 && attributes[0] == InnerContent {
		return SwapInnerHTML
	}
	return SwapOuterHTML
}

// CallbackContext distinguishes local callbacks (response swapped into
// the requesting browser) from global ones (side effects pushed to all
// subscribers).
type CallbackContext string

const (
	Local  CallbackContext = "local"
	Global CallbackContext = "global"
)

// DOMEvent is the decoded browser event delivered to a callback.
type DOMEvent struct {
	EventID string
	Payload map[string]any
}

// CallbackFunc handles a DOM event. Local callbacks return the HTML to
// swap into their target; global callbacks return an empty string.
type CallbackFunc func(ev *DOMEvent) string

// Formatter converts a session value into an attribute value.
type Formatter func(value any) string

// Getter produces an attribute value for a triggered event.
type Getter func(event string) string

// AttrUpdate is one attribute assignment, in declaration order.
type AttrUpdate struct {
	Name  string
	Value string
}

// SessionItem binds a session parameter to one element.
type SessionItem struct {
	Parameter  string
	Attributes []string
	Component  *htmldom.Element
	Format     map[string]Formatter
	Swap       string

	registered bool
}

// Trigger binds a bus event to one element.
type Trigger struct {
	Event      string
	Attributes []string
	Component  *htmldom.Element
	Get        map[string]Getter
	Swap       string

	registered bool
}

// Control binds a browser event to a callback.
type Control struct {
	Context CallbackContext
	Event   string
	Fn      CallbackFunc
	Source  *htmldom.Element
	Target  *htmldom.Element
	Swap    string

	registered bool
}

// Kind discriminates plain component widgets from dialog widgets.
type Kind int

const (
	KindComponent Kind = iota
	KindDialog
)

// Widget is a reusable fragment of a page: an element subtree plus the
// bindings that keep it current. Session values are guarded by their
// own mutex; several sources (bus, clock, status workers) may update
// the same page concurrently.
type Widget struct {
	name        string
	kind        Kind
	dataMu      sync.Mutex
	sessionData map[string]any

	sessionItems map[string]*SessionItem
	triggers     map[string]*Trigger
	controls     map[string]*Control

	root             *htmldom.Element
	dialogRegistered bool
}

// NewWidget creates a widget holding the given session parameters.
// Values present in sessionData for declared parameters seed the
// widget's local state.
func NewWidget(name string, parameters []string, sessionData map[string]any) *Widget {
	w := &Widget{
		name:         name,
		sessionData:  make(map[string]any, len(parameters)),
		sessionItems: make(map[string]*SessionItem),
		triggers:     make(map[string]*Trigger),
		controls:     make(map[string]*Control),
	}
	for _, p := range parameters {
		w.sessionData[p] = ""
	}
	for k, v := range sessionData {
		if _, ok := w.sessionData[k]; ok {
			w.sessionData[k] = v
		}
	}
	return w
}

// NewDialogWidget creates a widget registered as a dialog subtree.
func NewDialogWidget(name string, content *htmldom.Element) *Widget {
	w := NewWidget(name, nil, nil)
	w.kind = KindDialog
	w.root = content
	return w
}

// Name returns the widget name (also the dialog id for dialog widgets).
func (w *Widget) Name() string { return w.name }

// Kind returns the widget kind.
func (w *Widget) Kind() Kind { return w.kind }

// Root returns the widget's element subtree.
func (w *Widget) Root() *htmldom.Element { return w.root }

// SetRoot sets the widget's element subtree.
func (w *Widget) SetRoot(root *htmldom.Element) { w.root = root }

// SessionValue returns the widget's current value for a parameter.
func (w *Widget) SessionValue(parameter string) any {
	w.dataMu.Lock()
	defer w.dataMu.Unlock()
	return w.sessionData[parameter]
}

// setSessionValue stores a parameter value.
func (w *Widget) setSessionValue(parameter string, value any) {
	w.dataMu.Lock()
	defer w.dataMu.Unlock()
	w.sessionData[parameter] = value
}

// AddSessionItem declares a session binding under the given parameter.
// The same item may be declared under several parameters; it is
// registered only once.
func (w *Widget) AddSessionItem(parameter string, item *SessionItem) {
	if item.Swap == "" {
		item.Swap = DefaultSwap(item.Attributes)
	}
	w.sessionItems[parameter] = item
	if _, ok := w.sessionData[parameter]; !ok {
		w.sessionData[parameter] = ""
	}
}

// AddTrigger declares an event binding for the given bus event.
func (w *Widget) AddTrigger(event string, trigger *Trigger) {
	if trigger.Swap == "" {
		trigger.Swap = DefaultSwap(trigger.Attributes)
	}
	w.triggers[event] = trigger
}

// AddControl declares a callback binding.
func (w *Widget) AddControl(name string, control *Control) {
	if control.Swap == "" {
		control.Swap = SwapInnerHTML
	}
	w.controls[name] = control
}

// Has reports whether the widget binds the session parameter.
func (w *Widget) Has(parameter string) bool {
	_, ok := w.sessionItems[parameter]
	return ok
}

// ActsOn reports whether the widget binds the triggered event.
func (w *Widget) ActsOn(event string) bool {
	_, ok := w.triggers[event]
	return ok
}

// Stringify renders an arbitrary session value as an attribute value.
func Stringify(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
