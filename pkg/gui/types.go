// Package gui implements the coordinator state machine over named page
// groups: page insertion, movement, removal, activation tracking, and
// the routing of session data and bus events to the pages they bind.
package gui

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/hxgui-dev/hxgui/pkg/htmldom"
	"github.com/hxgui-dev/hxgui/pkg/widget"
)

// InteractionParameter is one registered binding: a parameter name, its
// assigned SSE event id, and the element it drives.
type InteractionParameter struct {
	Name   string
	ID     string
	Target *htmldom.Element
	Swap   string
}

// Callback is one registered callback binding.
type Callback struct {
	Context widget.CallbackContext
	Event   string
	ID      string
	Fn      widget.CallbackFunc
	Source  *htmldom.Element
	Target  *htmldom.Element
	Swap    string
}

// PageRef identifies one page to insert: the definition URI and the
// page id it is published under.
type PageRef struct {
	URL  string
	Page string
}

// FragmentSink receives serialised HTML fragments addressed by SSE
// event id. The renderer implements it and decides, per fragment,
// whether the owning route is visible enough to go on the wire.
//
// WithDocumentLock runs fn under the sink's document lock. Every
// mutation of an element reachable from the master document, and every
// serialisation of one, must happen inside it; the renderer clones and
// serialises the document under the same lock. fn must not call back
// into the sink.
type FragmentSink interface {
	PublishFragment(namespace, pageID, eventID, data string)
	WithDocumentLock(fn func())
}

// Display is the renderer surface the coordinator drives.
type Display interface {
	FragmentSink
	ShowRoute(namespace, pageID string)
	OpenDialog(content *htmldom.Element)
	CloseDialog()
}

// newToken returns an 8-hex-digit id suffix.
func newToken() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// parameterID builds the SSE event id for a parameter binding.
func parameterID(parameter string) string {
	return parameter + "-" + newToken()
}

// eventID builds the SSE event id for a callback binding. Whitespace in
// the event expression collapses into the id the same way the browser
// runtime expects it.
func eventID(event string) string {
	parts := append(strings.Fields(event), newToken())
	return strings.Join(parts, "-")
}

// clampPosition corrects a position to the nearest bound of [0, ub].
func clampPosition(position, ub int) int {
	if position < 0 {
		return 0
	}
	if position > ub {
		return ub
	}
	return position
}

// validPosition reports whether position lies within [0, ub].
func validPosition(position, ub int) bool {
	return position >= 0 && position <= ub
}
