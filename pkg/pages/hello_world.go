package pages

import (
	"github.com/hxgui-dev/hxgui/pkg/gui"
	"github.com/hxgui-dev/hxgui/pkg/htmldom"
	"github.com/hxgui-dev/hxgui/pkg/widget"
)

// Navigator lets built-in pages steer the display without holding a
// reference to the coordinator.
type Navigator interface {
	// CloseActive closes whatever is currently shown so the previous
	// route resumes.
	CloseActive()
}

// NavigatorFunc adapts a plain function to Navigator.
type NavigatorFunc func()

func (f NavigatorFunc) CloseActive() { f() }

// NewHelloWorld returns the builder for the hello-world demo page: a
// title, a text line, and a button returning to the previous route.
func NewHelloWorld(nav Navigator) gui.Builder {
	return func(pageID string, sessionData map[string]any) widget.Page {
		p := widget.NewBasePage("hello-world", []string{"title", "text"}, sessionData)

		title := htmldom.TextDiv(widget.Stringify(p.SessionValue("title"))).
			SetAttr("id", "title").
			SetAttr("class", "text-[4vw] font-bold")
		p.AddSessionItem("title", &widget.SessionItem{
			Parameter:  "title",
			Attributes: []string{widget.InnerContent},
			Component:  title,
		})

		text := htmldom.TextDiv(widget.Stringify(p.SessionValue("text"))).
			SetAttr("id", "text").
			SetAttr("class", "text-[2vw] font-bold")
		p.AddSessionItem("text", &widget.SessionItem{
			Parameter:  "text",
			Attributes: []string{widget.InnerContent},
			Component:  text,
		})

		closeButton := htmldom.Button(htmldom.Span().SetText("Back to Home")).
			SetAttr("id", "btn-close").
			SetAttr("class", "btn btn-outline btn-info btn-lg")

		container := htmldom.Div(title, text, closeButton).
			SetAttr("id", "hello-world-widget").
			SetAttr("class", htmldom.ClassList(
				"p-[1vw]", "flex", "grow", "flex-col",
				"justify-start", "items-center", "bg-white",
			))
		p.AddControl("btn-close-click", &widget.Control{
			Context: widget.Global,
			Event:   "click",
			Fn: func(*widget.DOMEvent) string {
				if nav != nil {
					nav.CloseActive()
				}
				return ""
			},
			Source: closeButton,
			Target: container,
		})

		p.SetRoot(htmldom.Div(container).
			SetAttr("id", "hello-world").
			SetAttr("class", "flex flex-col").
			SetAttr("style", "width: 100vw; height: 100vh;"))
		return p
	}
}
