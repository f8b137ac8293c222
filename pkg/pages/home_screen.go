package pages

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/hxgui-dev/hxgui/pkg/htmldom"
	"github.com/hxgui-dev/hxgui/pkg/widget"
)

// weatherIcons maps OVOS weather codes onto bundled icon assets.
var weatherIcons = map[int]string{
	0: "assets/icons/sun.svg",
	1: "assets/icons/partial_clouds.svg",
	2: "assets/icons/clouds.svg",
	3: "assets/icons/rain.svg",
	4: "assets/icons/rain.svg",
	5: "assets/icons/storm.svg",
	6: "assets/icons/snow.svg",
	7: "assets/icons/fog.svg",
}

const weatherFallbackIcon = "assets/icons/no-internet.svg"

// NewHomeScreen builds the idle home screen: a carousel of cards
// showing the clock, the date, the weather, and skill suggestions.
func NewHomeScreen(pageID string, sessionData map[string]any) widget.Page {
	p := widget.NewBasePage("home", nil, sessionData)

	clock := newClockTimeWidget(sessionData)
	date := newDateTimeWidget(sessionData)
	weatherLarge := newWeatherWidget(sessionData)
	weatherSmall := newWeatherWidget(sessionData)
	exampleWidgets := newSkillExampleWidgets(sessionData)
	examples := exampleWidgets[len(exampleWidgets)-1]
	p.AddWidget(clock, date, weatherLarge, weatherSmall)
	p.AddWidget(exampleWidgets...)

	carousel := htmldom.Div(
		carouselItem(
			htmldom.Div(
				htmldom.Div(date.Root()).
					SetAttr("class", "flex flex-col items-center space-y-2"),
				htmldom.Div(weatherLarge.Root()),
			).
				SetAttr("id", "full-screen-image").
				SetAttr("class", htmldom.ClassList(
					"full-screen-image", "flex", "flex-col",
					"items-center", "justify-center",
				)),
		),
		carouselItem(
			htmldom.Div(
				card(clock.Root()).SetAttr("class",
					cardClass("bg-opacity-60", "w-full")),
				htmldom.Div(
					htmldom.Div(
						modernTitle("Weather"),
						htmldom.Div(weatherSmall.Root()).
							SetAttr("class", "weather-widget-small"),
					).SetAttr("class", cardClass("bg-opacity-60", "w-1/2")),
					htmldom.Div(
						modernTitle("Alarm clock"),
						modernText("Set an alarm to wake up on time"),
					).SetAttr("class", cardClass("bg-opacity-60", "w-1/2")),
				).SetAttr("class", "flex w-full justify-between space-x-4"),
			).SetAttr("class", htmldom.ClassList(
				"flex", "flex-col", "items-center", "space-y-4",
				"w-full", "max-w-4xl", "px-4",
			)),
		),
		carouselItem(
			htmldom.Div(
				suggestionCard("What is the latest news?",
					"Stay updated with the latest events happening around the world."),
				suggestionCard("Play music on Spotify",
					"Listen to your favorite playlists and artists on Spotify."),
				suggestionCard("Tell me a joke",
					"Enjoy a lighthearted joke to brighten your day."),
				htmldom.Div(
					modernTitle("Skill examples"),
					examples.Root(),
				).SetAttr("class", cardClass("bg-opacity-40")),
			).SetAttr("class", htmldom.ClassList(
				"grid", "grid-cols-2", "gap-4", "w-full", "max-w-4xl", "px-4",
			)),
		),
		carouselItem(
			htmldom.Div(
				modernTitle("Another widget"),
				modernText("Room for other skills content."),
			).SetAttr("class", cardClass()),
		),
	).
		SetAttr("id", "carousel").
		SetAttr("class", htmldom.ClassList(
			"carousel", "w-full", "h-full", "relative",
			"snap-x", "snap-mandatory", "overflow-x-auto", "flex",
		))

	tabs := htmldom.Div()
	for i := 1; i <= 4; i++ {
		tabs.AppendChild(htmldom.TextDiv(strconv.Itoa(i)).
			SetAttr("class", "tab tab-lifted text-white font-bold"))
	}
	tabs.
		SetAttr("id", "tabs-container").
		SetAttr("class", htmldom.ClassList(
			"tabs", "tabs-boxed", "tabs-lg", "tabs-hidden",
			"mb-4", "flex", "justify-center",
		)).
		SetAttr("style", "height: 10%; width: 100%; position: fixed; "+
			"z-index: 1; top: 90vh; left: 0; "+
			"background-color: rgba(0, 0, 0, 0); overflow-y: hidden; "+
			"transition: 0.5s;")

	mainView := htmldom.Div(carousel, tabs).
		SetAttr("id", "carousel-bg").
		SetAttr("class", htmldom.ClassList(
			"h-full", "w-full", "flex", "flex-col",
			"items-center", "justify-center",
		)).
		SetAttr("style", "background: linear-gradient(to right, "+
			"rgb(59, 130, 246), rgb(255, 182, 193)); "+
			"transition: background 0.5s ease;")

	root := htmldom.Div(mainView).
		SetAttr("id", "home").
		SetAttr("class", "flex flex-col").
		SetAttr("style", "width: 100vw; height: 100vh;")
	root.AppendChild(htmldom.Script().SetAttr("src", "assets/js/carousel.js"))
	root.AppendChild(htmldom.Link().
		SetAttr("rel", "stylesheet").
		SetAttr("href", "assets/css/style.css"))
	p.SetRoot(root)
	return p
}

func newClockTimeWidget(sessionData map[string]any) *widget.Widget {
	w := widget.NewWidget("clock-time", []string{"time_string"}, sessionData)
	timeText := htmldom.TextDiv(widget.Stringify(w.SessionValue("time_string"))).
		SetAttr("id", "clock").
		SetAttr("class", "digital-clock")
	w.AddSessionItem("time_string", &widget.SessionItem{
		Parameter:  "clock",
		Attributes: []string{widget.InnerContent},
		Component:  timeText,
	})
	w.SetRoot(htmldom.Div(modernTitle("Current Time"), timeText))
	return w
}

func newDateTimeWidget(sessionData map[string]any) *widget.Widget {
	w := widget.NewWidget("date-time", []string{
		"time_string", "weekday_string", "month_string",
		"day_string", "year_string",
	}, sessionData)

	timeText := htmldom.TextDiv(widget.Stringify(w.SessionValue("time_string"))).
		SetAttr("id", "time").
		SetAttr("class", "text-[10vw] text-white font-bold")
	w.AddSessionItem("time_string", &widget.SessionItem{
		Parameter:  "time",
		Attributes: []string{widget.InnerContent},
		Component:  timeText,
	})

	dateText := htmldom.TextDiv(formatDate(w)).
		SetAttr("id", "date").
		SetAttr("class", "text-[4vw] text-white font-bold")
	// One shared item under every date parameter: whichever of them
	// changes, the full date line is reformatted.
	dateItem := &widget.SessionItem{
		Parameter:  "date",
		Attributes: []string{widget.InnerContent},
		Component:  dateText,
		Format: map[string]widget.Formatter{
			widget.InnerContent: func(any) string { return formatDate(w) },
		},
	}
	for _, parameter := range []string{
		"weekday_string", "month_string", "day_string", "year_string",
	} {
		w.AddSessionItem(parameter, dateItem)
	}

	w.SetRoot(htmldom.Div(timeText, dateText).
		SetAttr("class", htmldom.ClassList(
			"p-[1vw]", "flex", "flex-col", "justify-start", "items-start",
		)))
	return w
}

func formatDate(w *widget.Widget) string {
	weekday := widget.Stringify(w.SessionValue("weekday_string"))
	if len(weekday) > 3 {
		weekday = weekday[:3]
	}
	return fmt.Sprintf("%s %s %s, %s",
		weekday,
		widget.Stringify(w.SessionValue("month_string")),
		widget.Stringify(w.SessionValue("day_string")),
		widget.Stringify(w.SessionValue("year_string")))
}

func newWeatherWidget(sessionData map[string]any) *widget.Widget {
	w := widget.NewWidget("weather", []string{"weather_code", "weather_temp"}, sessionData)

	icon := htmldom.Img().
		SetAttr("id", "weather_code").
		SetAttr("src", weatherIconSrc(w.SessionValue("weather_code"))).
		SetAttr("width", "auto").
		SetAttr("height", "auto")
	w.AddSessionItem("weather_code", &widget.SessionItem{
		Parameter:  "weather_code",
		Attributes: []string{"src"},
		Component:  icon,
		Format: map[string]widget.Formatter{
			"src": weatherIconSrc,
		},
		Swap: widget.SwapOuterHTML,
	})

	temp := htmldom.TextDiv(weatherTemperature(w.SessionValue("weather_temp"))).
		SetAttr("id", "weather_temp").
		SetAttr("class", "text-[4vw] leading-[8vw] font-bold")
	w.AddSessionItem("weather_temp", &widget.SessionItem{
		Parameter:  "weather_temp",
		Attributes: []string{widget.InnerContent},
		Component:  temp,
		Format: map[string]widget.Formatter{
			widget.InnerContent: weatherTemperature,
		},
	})

	w.SetRoot(htmldom.Div(
		htmldom.Div(
			htmldom.Div(icon).SetAttr("class", "w-[8vw] h-[8vw]"),
			temp,
		).SetAttr("class", "p-[1vw] flex gap-[2vw]"),
	).SetAttr("class", "flex grow justify-end items-start"))
	return w
}

// weatherIconSrc resolves a weather code to an icon path. Codes arrive
// as JSON numbers; anything unmapped means no forecast is available.
func weatherIconSrc(value any) string {
	var code int
	switch v := value.(type) {
	case int:
		code = v
	case float64:
		code = int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return weatherFallbackIcon
		}
		code = n
	default:
		return weatherFallbackIcon
	}
	if src, ok := weatherIcons[code]; ok {
		return src
	}
	return weatherFallbackIcon
}

func weatherTemperature(value any) string {
	s := widget.Stringify(value)
	if s == "" {
		return "--.-°F"
	}
	return s + "°F"
}

// newSkillExampleWidgets builds five example lines, each its own widget
// so every line holds an independent binding on the shared
// skill_examples parameter. The last widget in the slice carries the
// list container as its root.
func newSkillExampleWidgets(sessionData map[string]any) []*widget.Widget {
	list := htmldom.New("ul").SetAttr("style", "list-style-type: disc;")
	widgets := make([]*widget.Widget, 0, 6)
	for i := 0; i < 5; i++ {
		w := widget.NewWidget(fmt.Sprintf("skill-example-%d", i),
			[]string{"skill_examples"}, sessionData)
		item := htmldom.New("li").
			SetAttr("id", fmt.Sprintf("skill-example-%d", i)).
			SetAttr("class", "font-bold")
		list.AppendChild(item)
		w.AddSessionItem("skill_examples", &widget.SessionItem{
			Parameter:  fmt.Sprintf("example-%d", i),
			Attributes: []string{widget.InnerContent},
			Component:  item,
			Format: map[string]widget.Formatter{
				widget.InnerContent: skillExample,
			},
		})
		widgets = append(widgets, w)
	}

	container := widget.NewWidget("skill-examples", nil, nil)
	container.SetRoot(htmldom.Div(list).SetAttr("class", htmldom.ClassList(
		"p-[1vw]", "text-left", "flex", "flex-col",
		"justify-start", "items-start",
	)))
	return append(widgets, container)
}

// skillExample picks a random example command out of the skill metadata
// pushed by the homescreen skill.
func skillExample(value any) string {
	data, ok := value.(map[string]any)
	if !ok {
		return ""
	}
	raw, ok := data["examples"].([]any)
	if !ok || len(raw) == 0 {
		return ""
	}
	example := widget.Stringify(raw[rand.Intn(len(raw))])
	return capitalize(example)
}

func carouselItem(content *htmldom.Element) *htmldom.Element {
	return htmldom.Div(content).SetAttr("class", htmldom.ClassList(
		"carousel-item", "w-full", "h-full", "flex",
		"justify-center", "items-center", "snap-center",
	))
}

func cardClass(extra ...string) string {
	tokens := append([]string{
		"bg-white", "rounded-lg", "p-8", "text-center", "shadow-lg",
	}, extra...)
	return htmldom.ClassList(tokens...)
}

func card(content *htmldom.Element) *htmldom.Element {
	return htmldom.Div(content)
}

func modernTitle(text string) *htmldom.Element {
	return htmldom.TextDiv(text).SetAttr("class", "modern-title")
}

func modernText(text string) *htmldom.Element {
	return htmldom.TextDiv(text).SetAttr("class", "modern-text text-lg mt-4")
}

func suggestionCard(title, text string) *htmldom.Element {
	return htmldom.Div(modernTitle(title), modernText(text)).
		SetAttr("class", cardClass("bg-opacity-40"))
}
