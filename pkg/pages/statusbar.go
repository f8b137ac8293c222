// Package pages is the built-in page library: the persistent status
// bar, the home screen carousel, the hello-world demo page, and the
// placeholder shown for page definitions the gateway does not know.
package pages

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hxgui-dev/hxgui/pkg/htmldom"
	"github.com/hxgui-dev/hxgui/pkg/status"
	"github.com/hxgui-dev/hxgui/pkg/widget"
)

// SSE parameter names of the status bar bindings.
const (
	speechParameter    = "status-speech"
	utteranceParameter = "status-utterance"
	spinnerEvent       = "status-spinner"
)

// NewStatusBar builds the persistent status bar page: the assistant's
// spoken reply, the transcribed user utterance, and the activity
// spinner animation.
func NewStatusBar(pageID string, sessionData map[string]any) widget.Page {
	p := widget.NewBasePage("status",
		[]string{"ovos_event", "speech", "utterance"}, sessionData)

	speech := htmldom.Div().
		SetAttr("id", "speech").
		SetAttr("class", statusTextClass("speech", ""))
	p.AddSessionItem("speech", &widget.SessionItem{
		Parameter:  speechParameter,
		Attributes: []string{widget.InnerContent, "class"},
		Component:  speech,
		Format: map[string]widget.Formatter{
			widget.InnerContent: func(v any) string {
				return capitalize(widget.Stringify(v))
			},
			"class": func(v any) string {
				return statusTextClass("speech", widget.Stringify(v))
			},
		},
		Swap: widget.SwapOuterHTML,
	})

	utterance := htmldom.Div().
		SetAttr("id", "utterance").
		SetAttr("class", statusTextClass("utterance", ""))
	p.AddSessionItem("utterance", &widget.SessionItem{
		Parameter:  utteranceParameter,
		Attributes: []string{widget.InnerContent, "class"},
		Component:  utterance,
		Format: map[string]widget.Formatter{
			widget.InnerContent: func(v any) string {
				return capitalize(widget.Stringify(v))
			},
			"class": func(v any) string {
				return statusTextClass("utterance", widget.Stringify(v))
			},
		},
		Swap: widget.SwapOuterHTML,
	})

	spinner := htmldom.New("lottie-player").
		SetAttr("id", "spinner").
		SetAttr("src", "assets/animations/spinner2.json").
		SetAttr("background", "transparent").
		SetAttr("disableCheck", "true").
		SetAttr("disableShadowDOM", "true").
		SetAttr("loop", "").
		SetAttr("autoplay", "").
		SetAttr("class", "fade-out")
	spinnerTrigger := &widget.Trigger{
		Event:      spinnerEvent,
		Attributes: []string{"class"},
		Component:  spinner,
		Get: map[string]widget.Getter{
			"class": spinnerClass,
		},
		Swap: "outerHTML transition:true",
	}
	for _, event := range []string{
		status.EventWakeword,
		status.EventRecordBegin,
		status.EventUtterance,
		status.EventUtteranceHandled,
		status.EventUtteranceCancelled,
		status.EventUtteranceUndetected,
		status.EventIntentFailure,
		status.EventUtteranceEnd,
	} {
		p.AddTrigger(event, spinnerTrigger)
	}

	root := htmldom.Div(
		htmldom.Div(utterance, speech).SetAttr("class", "flex flex-col grow"),
		spinner,
	).
		SetAttr("id", "status-bar").
		SetAttr("class", htmldom.ClassList(
			"flex", "flex-row", "items-start", "w-full",
			"bg-transparent", "text-white", "px-[1vw]",
		)).
		SetAttr("style", "height: 25%; width: 100%; position: fixed; "+
			"z-index: 1000; top: 0; left: 0; "+
			"background-color: rgba(0, 0, 0, 0); overflow-y: hidden; "+
			"pointer-events: none;")
	p.SetRoot(root)
	return p
}

// spinnerClass maps an assistant lifecycle event onto the spinner's CSS
// animation state.
func spinnerClass(event string) string {
	switch event {
	case status.EventWakeword, status.EventRecordBegin, status.EventUtterance:
		return "visible"
	case status.EventUtteranceHandled:
		return "success"
	case status.EventUtteranceCancelled:
		return "cancelled"
	case status.EventUtteranceUndetected, status.EventIntentFailure:
		return "failure"
	case status.EventUtteranceEnd:
		return "fade-out"
	default:
		return ""
	}
}

// statusTextClass builds the class list for the speech or utterance
// line. A non-empty text gets a typing-animation period derived from
// its reading duration and a width sized to its glyphs; an empty text
// collapses the line.
func statusTextClass(key, text string) string {
	fontSize := 32
	fontWeight := "font-normal"
	if key == "utterance" {
		fontSize = 24
		fontWeight = "font-medium"
	}
	tokens := []string{
		fmt.Sprintf("text-[%dpx]", fontSize),
		"text-white",
		fontWeight,
		"border-0",
	}
	if text == "" {
		return htmldom.ClassList(append(tokens, "w-[0px]", "border-r-0")...)
	}

	display := capitalize(text)
	if key == "utterance" {
		display += " "
	}
	period := status.Duration(text).Seconds()
	tokens = append(tokens,
		fmt.Sprintf("%s-period-%.2f", key, period),
		fmt.Sprintf("w-[%dpx]", approxTextWidth(display, fontSize)),
		"border-r-8",
	)
	return htmldom.ClassList(tokens...)
}

// approxTextWidth estimates rendered pixel width from an average glyph
// aspect ratio. Good enough to size the typing-cursor border; exact
// font metrics are not worth shipping a rasteriser for.
func approxTextWidth(text string, fontSize int) int {
	glyphs := utf8.RuneCountInString(text)
	return int(0.55*float64(fontSize)*float64(glyphs)) + 8
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return strings.ToUpper(string(r)) + s[size:]
}
