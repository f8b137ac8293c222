package pages

import (
	"github.com/hxgui-dev/hxgui/pkg/gui"
)

// StatusBarURI is the registry key of the built-in status bar page.
const StatusBarURI = "status_bar"

// Register installs the built-in page builders. The registry lookup
// normalises URIs to their base name, so skill-provided paths like
// "ui/home_screen_carousel.py" resolve to the same builders.
func Register(registry *gui.Registry, nav Navigator) {
	registry.Register(StatusBarURI, NewStatusBar)
	registry.Register("home_screen", NewHomeScreen)
	registry.Register("home_screen_carousel", NewHomeScreen)
	registry.Register("hello_world", NewHelloWorld(nav))
}
