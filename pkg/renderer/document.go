// Package renderer owns the live HTML document and the stream of
// fragments that keep connected browsers in sync with it. It
// implements the display surface the GUI coordinator drives: route
// transitions swap the page subtree under the root node, attribute
// updates travel as addressed SSE fragments, and a persistent status
// region stays wired across every transition.
package renderer

import (
	"fmt"
	"time"

	"github.com/hxgui-dev/hxgui/pkg/htmldom"
)

// Reserved SSE event ids. The root and dialog nodes of the master
// document listen on these; everything else gets a generated id at
// binding registration.
const (
	RootEvent   = "root"
	DialogEvent = "dialog"
)

// SessionNodeID is the id of the hidden liveness node. The HTTP layer
// points its hx-post at the session's ping endpoint before serving.
const SessionNodeID = "session-id"

// buildDocument assembles the master document. The body carries the
// SSE wiring, the liveness pinger, the status region, the swappable
// page root, and the dialog host.
func buildDocument(title string, pingPeriod time.Duration) (doc, root, dialog, status, session *htmldom.Element) {
	head := htmldom.Head(
		htmldom.Meta().SetAttr("charset", "utf-8"),
		htmldom.Meta().
			SetAttr("name", "viewport").
			SetAttr("content", "width=device-width, initial-scale=1"),
		htmldom.Title(title),
		htmldom.Link().
			SetAttr("rel", "stylesheet").
			SetAttr("href", "/assets/css/style.css"),
		htmldom.Script().SetAttr("src", "/assets/js/htmx.min.js"),
		htmldom.Script().SetAttr("src", "/assets/js/sse.js"),
		htmldom.Script().
			SetAttr("src", "https://unpkg.com/@lottiefiles/lottie-player@latest/dist/lottie-player.js"),
	)

	session = htmldom.Div().
		SetAttr("id", SessionNodeID).
		SetAttr("style", "display:none").
		SetAttr("hx-trigger", fmt.Sprintf("every %ds", int(pingPeriod.Seconds())))

	status = htmldom.Div().SetAttr("id", "status")

	root = htmldom.Div().
		SetAttr("id", RootEvent).
		SetAttr("sse-swap", RootEvent).
		SetAttr("hx-swap", "innerHTML")

	dialog = htmldom.Dialog().
		SetAttr("id", DialogEvent).
		SetAttr("sse-swap", DialogEvent).
		SetAttr("hx-swap", "outerHTML")

	body := htmldom.Body(session, status, root, dialog).
		SetAttr("hx-ext", "sse").
		SetAttr("sse-connect", "/updates")

	doc = htmldom.Html(head, body).SetAttr("lang", "en")
	return doc, root, dialog, status, session
}
