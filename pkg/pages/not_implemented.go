package pages

import (
	"github.com/hxgui-dev/hxgui/pkg/gui"
	"github.com/hxgui-dev/hxgui/pkg/htmldom"
	"github.com/hxgui-dev/hxgui/pkg/widget"
)

// NewNotImplemented returns the builder for the placeholder shown when
// a skill references a page definition the gateway does not know.
func NewNotImplemented(nav Navigator) gui.Builder {
	return func(pageID string, sessionData map[string]any) widget.Page {
		p := widget.NewBasePage("not-implemented-page",
			[]string{"title", "text"}, sessionData)

		title := htmldom.TextDiv("Not Implemented").
			SetAttr("id", "title").
			SetAttr("class", "text-[4vw] font-bold text-[currentColor] mt-[20vh]")
		p.AddSessionItem("title", &widget.SessionItem{
			Parameter:  "title",
			Attributes: []string{widget.InnerContent},
			Component:  title,
		})

		text := htmldom.Div(
			htmldom.Span().SetText("Page "),
			htmldom.New("strong").SetText(pageID),
			htmldom.Span().SetText(" not received."),
		).
			SetAttr("id", "text").
			SetAttr("class", "text-[3vw] text-[currentColor] mt-[5vh] mb-[5vh]")
		p.AddSessionItem("text", &widget.SessionItem{
			Parameter:  "text",
			Attributes: []string{widget.InnerContent},
			Component:  text,
		})

		closeButton := htmldom.Button(htmldom.Span().SetText("Back to Home")).
			SetAttr("id", "btn-close").
			SetAttr("class", "btn btn-outline btn-lg")

		container := htmldom.Div(title, text, closeButton).
			SetAttr("id", "not-implemented-widget").
			SetAttr("class", htmldom.ClassList(
				"p-[1vw]", "flex", "grow", "flex-col",
				"justify-start", "items-center", "bg-transparent",
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
			SetAttr("id", "not-implemented-page").
			SetAttr("class", "flex flex-col bg-blue-400 dark:bg-blue-900 fade-in").
			SetAttr("style", "width: 100vw; height: 100vh;"))
		return p
	}
}
