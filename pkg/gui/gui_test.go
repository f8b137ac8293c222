package gui

import (
	"io"
	"log/slog"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/hxgui-dev/hxgui/pkg/eventbus"
	"github.com/hxgui-dev/hxgui/pkg/htmldom"
	"github.com/hxgui-dev/hxgui/pkg/renderer"
	"github.com/hxgui-dev/hxgui/pkg/widget"
)

type publishedFrame struct {
	namespace string
	pageID    string
	eventID   string
	data      string
}

// fakeDisplay records every call the coordinator makes on its Display.
type fakeDisplay struct {
	mu          sync.Mutex
	routes      []string
	frames      []publishedFrame
	dialogOpens int
	dialogClose int
}

func (d *fakeDisplay) PublishFragment(namespace, pageID, eventID, data string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, publishedFrame{namespace, pageID, eventID, data})
}

func (d *fakeDisplay) WithDocumentLock(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

func (d *fakeDisplay) ShowRoute(namespace, pageID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routes = append(d.routes, namespace+"/"+pageID)
}

func (d *fakeDisplay) OpenDialog(*htmldom.Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialogOpens++
}

func (d *fakeDisplay) CloseDialog() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialogClose++
}

func (d *fakeDisplay) lastRoute() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.routes) == 0 {
		return ""
	}
	return d.routes[len(d.routes)-1]
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawBuilder(pageID string, _ map[string]any) widget.Page {
	return widget.NewRawPage("blank", htmldom.TextDiv(pageID))
}

// bindingBuilder produces a page with one session item, one trigger,
// and one local control, so registration and update routing can be
// observed end to end.
func bindingBuilder(pageID string, data map[string]any) widget.Page {
	p := widget.NewBasePage("binding", []string{"title"}, data)
	label := htmldom.TextDiv("")
	ear := htmldom.Div()
	button := htmldom.Button()
	target := htmldom.Div()
	p.SetRoot(htmldom.Div(label, ear, button, target))

	p.AddSessionItem("title", &widget.SessionItem{
		Parameter:  "title",
		Attributes: []string{widget.InnerContent},
		Component:  label,
	})
	p.AddTrigger("recognizer_loop:wakeword", &widget.Trigger{
		Event:      "recognizer_loop:wakeword",
		Attributes: []string{"class"},
		Component:  ear,
		Get: map[string]widget.Getter{
			"class": func(string) string { return "listening" },
		},
	})
	p.AddControl("pressed", &widget.Control{
		Context: widget.Local,
		Event:   "click",
		Fn:      func(*widget.DOMEvent) string { return "<b>pressed</b>" },
		Source:  button,
		Target:  target,
	})
	return p
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry(rawBuilder, discard())
	reg.Register("blank", rawBuilder)
	reg.Register("binding", bindingBuilder)
	return reg
}

func testGroup(t *testing.T) (*PageGroup, *fakeDisplay) {
	t.Helper()
	display := &fakeDisplay{}
	return NewPageGroup("demo", testRegistry(t), display, discard()), display
}

func mustInsert(t *testing.T, g *PageGroup, position int, pageID string) {
	t.Helper()
	if err := g.InsertPage(position, pageID, "blank", nil); err != nil {
		t.Fatalf("InsertPage(%d, %q) error: %v", position, pageID, err)
	}
}

func TestPageGroupInsertOrdering(t *testing.T) {
	g, _ := testGroup(t)

	mustInsert(t, g, 0, "a")
	mustInsert(t, g, 0, "b")
	mustInsert(t, g, 1, "c")
	mustInsert(t, g, 99, "d") // clamps to the tail
	mustInsert(t, g, -5, "e") // clamps to the head

	got := g.PageIDs()
	want := []string{"e", "b", "c", "a", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("page order = %v, want %v", got, want)
	}
}

func TestPageGroupReinsertRepositions(t *testing.T) {
	g, _ := testGroup(t)
	mustInsert(t, g, 0, "a")
	mustInsert(t, g, 1, "b")
	mustInsert(t, g, 2, "c")

	mustInsert(t, g, 0, "c")

	got := g.PageIDs()
	want := []string{"c", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("page order = %v, want %v", got, want)
	}
	if g.Len() != 3 {
		t.Errorf("Len() = %d, want 3", g.Len())
	}
}

func TestPageGroupMoveClamped(t *testing.T) {
	g, _ := testGroup(t)
	mustInsert(t, g, 0, "a")
	mustInsert(t, g, 1, "b")
	mustInsert(t, g, 2, "c")

	g.MovePage(0, 99)
	if got, want := g.PageIDs(), []string{"b", "c", "a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("after move 0->99: %v, want %v", got, want)
	}

	g.MovePage(-1, 0) // out-of-range source is a no-op
	if got, want := g.PageIDs(), []string{"b", "c", "a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("after invalid move: %v, want %v", got, want)
	}
}

func TestPageGroupRemoveActivePops(t *testing.T) {
	g, _ := testGroup(t)
	mustInsert(t, g, 0, "a")
	mustInsert(t, g, 1, "b")

	g.ActivatePage(0)
	g.ActivatePage(1)
	if got := g.ActivePageID(); got != "b" {
		t.Fatalf("ActivePageID() = %q, want %q", got, "b")
	}

	g.RemovePage(1)
	if got := g.ActivePageID(); got != "a" {
		t.Errorf("ActivePageID() after removal = %q, want %q", got, "a")
	}
	if _, ok := g.Page("b"); ok {
		t.Error("removed page still in group")
	}
}

func TestPageGroupDeactivateRotates(t *testing.T) {
	g, _ := testGroup(t)
	mustInsert(t, g, 0, "a")
	mustInsert(t, g, 1, "b")
	mustInsert(t, g, 2, "c")

	g.ActivatePage(0)
	g.ActivatePage(1)
	g.ActivatePage(2)

	g.DeactivatePage()
	if got := g.ActivePageID(); got != "b" {
		t.Errorf("ActivePageID() after first deactivate = %q, want %q", got, "b")
	}
	g.DeactivatePage()
	if got := g.ActivePageID(); got != "c" {
		t.Errorf("ActivePageID() after second deactivate = %q, want %q", got, "c")
	}
	g.DeactivatePage()
	if got := g.ActivePageID(); got != "b" {
		t.Errorf("ActivePageID() after third deactivate = %q, want %q", got, "b")
	}
}

func TestPageGroupDeactivateKeepsHistory(t *testing.T) {
	g, _ := testGroup(t)
	mustInsert(t, g, 0, "a")
	mustInsert(t, g, 1, "b")

	g.ActivatePage(0)
	g.ActivatePage(1)

	// Closing "b" resumes "a"; "b" stays in the history below it.
	g.DeactivatePage()
	if got := g.ActivePageID(); got != "a" {
		t.Errorf("ActivePageID() after deactivate = %q, want %q", got, "a")
	}
	g.DeactivatePage()
	if got := g.ActivePageID(); got != "b" {
		t.Errorf("ActivePageID() after second deactivate = %q, want %q", got, "b")
	}
}

func TestPageGroupDeactivateSoleEntry(t *testing.T) {
	g, _ := testGroup(t)
	mustInsert(t, g, 0, "a")
	g.ActivatePage(0)

	g.DeactivatePage()
	if got := g.ActivePageID(); got != "a" {
		t.Errorf("ActivePageID() after deactivating sole page = %q, want %q", got, "a")
	}
}

func TestCoordinatorFirstInsertShows(t *testing.T) {
	display := &fakeDisplay{}
	c := NewCoordinator(testRegistry(t), display, discard())

	c.InsertPages("skill-demo", 0, []PageRef{{URL: "blank", Page: "intro"}}, nil)

	if got, want := display.lastRoute(), "skill-demo/intro"; got != want {
		t.Errorf("route = %q, want %q", got, want)
	}
	if got := c.ActiveNamespace(); got != "skill-demo" {
		t.Errorf("ActiveNamespace() = %q, want %q", got, "skill-demo")
	}
	if got := c.ActivePageID(); got != "intro" {
		t.Errorf("ActivePageID() = %q, want %q", got, "intro")
	}
}

func TestCoordinatorInsertWhileOtherActive(t *testing.T) {
	display := &fakeDisplay{}
	c := NewCoordinator(testRegistry(t), display, discard())

	c.InsertPages("skill-a", 0, []PageRef{{URL: "blank", Page: "a1"}}, nil)
	routes := len(display.routes)

	// skill-a stays on display; skill-b only lands in the catalog.
	c.InsertNamespace("skill-b", 1)
	c.InsertPages("skill-b", 0, []PageRef{{URL: "blank", Page: "b1"}}, nil)

	if got := len(display.routes); got != routes {
		t.Errorf("routes pushed = %d, want %d", got, routes)
	}
	if got := c.ActiveNamespace(); got != "skill-a" {
		t.Errorf("ActiveNamespace() = %q, want %q", got, "skill-a")
	}
	if !c.InCatalog("skill-b") {
		t.Error("skill-b not in catalog after insert")
	}
}

func TestCoordinatorShowActivatesNamespace(t *testing.T) {
	display := &fakeDisplay{}
	c := NewCoordinator(testRegistry(t), display, discard())

	c.InsertPages("skill-a", 0, []PageRef{{URL: "blank", Page: "a1"}}, nil)
	c.InsertNamespace("skill-b", 1)
	c.InsertPages("skill-b", 0, []PageRef{{URL: "blank", Page: "b1"}}, nil)

	c.Show("skill-b", "b1")
	if got, want := display.lastRoute(), "skill-b/b1"; got != want {
		t.Errorf("route = %q, want %q", got, want)
	}
	if got := c.ActiveNamespace(); got != "skill-b" {
		t.Errorf("ActiveNamespace() = %q, want %q", got, "skill-b")
	}
}

func TestCoordinatorShowUnknownPage(t *testing.T) {
	display := &fakeDisplay{}
	c := NewCoordinator(testRegistry(t), display, discard())
	c.InsertPages("skill-a", 0, []PageRef{{URL: "blank", Page: "a1"}}, nil)
	routes := len(display.routes)

	c.Show("skill-a", "missing")
	if got := len(display.routes); got != routes {
		t.Errorf("routes pushed = %d, want %d", got, routes)
	}
}

func TestCoordinatorCloseNamespaceResumesPrevious(t *testing.T) {
	display := &fakeDisplay{}
	c := NewCoordinator(testRegistry(t), display, discard())

	c.InsertPages("skill-a", 0, []PageRef{{URL: "blank", Page: "a1"}}, nil)
	c.Show("skill-a", "a1")
	c.InsertNamespace("skill-b", 1)
	c.InsertPages("skill-b", 0, []PageRef{{URL: "blank", Page: "b1"}}, nil)
	c.Show("skill-b", "b1")

	c.Close("skill-b", "")
	if got, want := display.lastRoute(), "skill-a/a1"; got != want {
		t.Errorf("route after close = %q, want %q", got, want)
	}
	if got := c.ActiveNamespace(); got != "skill-a" {
		t.Errorf("ActiveNamespace() = %q, want %q", got, "skill-a")
	}
	if !c.InCatalog("skill-b") {
		t.Error("closed namespace must stay in catalog")
	}
}

func TestCoordinatorClosePageResumesPrevious(t *testing.T) {
	display := &fakeDisplay{}
	c := NewCoordinator(testRegistry(t), display, discard())

	c.InsertPages("skill-a", 0, []PageRef{
		{URL: "blank", Page: "main"},
		{URL: "blank", Page: "overlay"},
	}, nil)
	c.Show("skill-a", "main")
	c.Show("skill-a", "overlay")

	c.Close("skill-a", "overlay")
	if got, want := display.lastRoute(), "skill-a/main"; got != want {
		t.Errorf("route after close = %q, want %q", got, want)
	}
}

func TestCoordinatorRemoveNamespaceShowsNext(t *testing.T) {
	display := &fakeDisplay{}
	c := NewCoordinator(testRegistry(t), display, discard())

	c.InsertPages("skill-a", 0, []PageRef{{URL: "blank", Page: "a1"}}, nil)
	c.Show("skill-a", "a1")
	c.InsertNamespace("skill-b", 0)
	c.InsertPages("skill-b", 0, []PageRef{{URL: "blank", Page: "b1"}}, nil)
	c.Show("skill-b", "b1")

	c.RemoveNamespace("skill-b")
	if got, want := display.lastRoute(), "skill-a/a1"; got != want {
		t.Errorf("route after namespace removal = %q, want %q", got, want)
	}
	if c.InCatalog("skill-b") {
		t.Error("removed namespace still in catalog")
	}
}

func TestCoordinatorUpdateUnknownNamespace(t *testing.T) {
	c := NewCoordinator(testRegistry(t), &fakeDisplay{}, discard())
	// Data for a namespace with no page group is logged and dropped.
	c.UpdateData("skill-ghost", map[string]any{"title": "x"})
	c.UpdateState("skill-ghost", "recognizer_loop:wakeword")
	c.MovePages("skill-ghost", 0, 1, 1)
	c.RemovePages("skill-ghost", 0, 1)
}

func TestCoordinatorUpdateDataPublishesFragment(t *testing.T) {
	display := &fakeDisplay{}
	c := NewCoordinator(testRegistry(t), display, discard())
	c.InsertPages("skill-a", 0, []PageRef{{URL: "binding", Page: "p1"}}, nil)

	c.UpdateData("skill-a", map[string]any{"title": "Hello"})

	var found bool
	for _, f := range display.frames {
		if f.namespace == "skill-a" && f.pageID == "p1" && f.data == "Hello" {
			found = true
		}
	}
	if !found {
		t.Errorf("no fragment carrying %q, frames: %v", "Hello", display.frames)
	}
}

func TestCoordinatorUpdateStateDrivesTrigger(t *testing.T) {
	display := &fakeDisplay{}
	c := NewCoordinator(testRegistry(t), display, discard())
	c.InsertPages("skill-a", 0, []PageRef{{URL: "binding", Page: "p1"}}, nil)

	c.UpdateState("skill-a", "recognizer_loop:wakeword")

	var found bool
	for _, f := range display.frames {
		if f.data == `<div sse-swap="`+f.eventID+`" hx-swap="outerHTML" class="listening"></div>` {
			found = true
		}
	}
	if !found {
		t.Errorf("no fragment with updated class, frames: %v", display.frames)
	}
}

// statusBuilder produces a minimal status bar page with one utterance
// label.
func statusBuilder(pageID string, data map[string]any) widget.Page {
	p := widget.NewBasePage("statusbar", []string{"utterance"}, data)
	label := htmldom.TextDiv("")
	p.SetRoot(htmldom.Div(label))
	p.AddSessionItem("utterance", &widget.SessionItem{
		Parameter:  "utterance",
		Attributes: []string{widget.InnerContent},
		Component:  label,
	})
	return p
}

func TestCoordinatorStatusPage(t *testing.T) {
	display := &fakeDisplay{}
	reg := testRegistry(t)
	reg.Register("statusbar", statusBuilder)
	c := NewCoordinator(reg, display, discard())
	if _, err := c.InstallStatusPage("statusbar"); err != nil {
		t.Fatalf("InstallStatusPage() error: %v", err)
	}

	c.UpdateStatus("recognizer_loop:utterance", map[string]any{"utterance": "hello there"})

	var found bool
	for _, f := range display.frames {
		if f.namespace == StatusNamespace && f.data == "hello there" {
			found = true
		}
	}
	if !found {
		t.Errorf("status fragment not published, frames: %v", display.frames)
	}
	if tree := c.PageTree(StatusNamespace, StatusNamespace); tree == nil {
		t.Error("PageTree() for status = nil")
	}
}

// sharedParameterBuilder binds the same parameter name from two
// widgets, each to its own element, like the home screen's two weather
// widgets.
func sharedParameterBuilder(pageID string, data map[string]any) widget.Page {
	p := widget.NewBasePage("weather", []string{"weather_temp"}, data)
	large := htmldom.TextDiv("")
	small := htmldom.TextDiv("")
	p.SetRoot(htmldom.Div(large, small))
	p.AddSessionItem("weather_temp", &widget.SessionItem{
		Parameter:  "weather_temp",
		Attributes: []string{widget.InnerContent},
		Component:  large,
	})
	w := widget.NewWidget("weather-small", []string{"weather_temp"}, nil)
	w.AddSessionItem("weather_temp", &widget.SessionItem{
		Parameter:  "weather_temp",
		Attributes: []string{widget.InnerContent},
		Component:  small,
	})
	p.AddWidget(w)
	return p
}

func TestUpdateDataSharedParameterPublishesOncePerElement(t *testing.T) {
	display := &fakeDisplay{}
	reg := testRegistry(t)
	reg.Register("weather", sharedParameterBuilder)
	c := NewCoordinator(reg, display, discard())
	c.InsertPages("skill-weather", 0, []PageRef{{URL: "weather", Page: "w1"}}, nil)

	c.UpdateData("skill-weather", map[string]any{"weather_temp": "17°F"})

	if len(display.frames) != 2 {
		t.Fatalf("published %d fragments, want 2 (one per bound element), frames: %v",
			len(display.frames), display.frames)
	}
	if display.frames[0].eventID == display.frames[1].eventID {
		t.Errorf("both fragments target %q, want distinct event ids",
			display.frames[0].eventID)
	}
	for _, f := range display.frames {
		if f.data != "17°F" {
			t.Errorf("fragment data = %q, want %q", f.data, "17°F")
		}
	}
}

func TestCoordinatorUpdateDataDuringInserts(t *testing.T) {
	display := &fakeDisplay{}
	c := NewCoordinator(testRegistry(t), display, discard())
	c.InsertPages("skill-a", 0, []PageRef{{URL: "binding", Page: "p0"}}, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			page := "p" + strconv.Itoa(i%4)
			c.InsertPages("skill-a", i%3, []PageRef{{URL: "binding", Page: page}}, nil)
		}
	}()
	for i := 0; i < 200; i++ {
		c.UpdateData("skill-a", map[string]any{"title": "tick " + strconv.Itoa(i)})
	}
	<-done

	if !c.InCatalog("skill-a") {
		t.Error("namespace lost during concurrent updates")
	}
}

func TestStatusUpdateWhileServingDocument(t *testing.T) {
	reg := testRegistry(t)
	reg.Register("statusbar", statusBuilder)
	rend := renderer.New(eventbus.New(discard()), renderer.DefaultConfig(), discard())
	c := NewCoordinator(reg, rend, discard())
	rend.SetCatalog(c)

	status, err := c.InstallStatusPage("statusbar")
	if err != nil {
		t.Fatalf("InstallStatusPage() error: %v", err)
	}
	rend.AttachStatusWidget(status.Tree())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			_ = rend.Document()
		}
	}()
	for i := 0; i < 500; i++ {
		c.UpdateStatus("recognizer_loop:utterance",
			map[string]any{"utterance": "utterance " + strconv.Itoa(i)})
	}
	<-done

	if doc := rend.Document(); !strings.Contains(doc.String(), "utterance 499") {
		t.Error("document does not carry the last status text")
	}
}

func TestCoordinatorTriggerCallback(t *testing.T) {
	display := &fakeDisplay{}
	c := NewCoordinator(testRegistry(t), display, discard())
	c.InsertPages("skill-a", 0, []PageRef{{URL: "binding", Page: "p1"}}, nil)

	tree := c.PageTree("skill-a", "p1")
	if tree == nil {
		t.Fatal("PageTree() = nil")
	}
	buttons := tree.FindByTag("button")
	if len(buttons) == 0 {
		t.Fatal("no button in page tree")
	}
	id, ok := buttons[0].Attr("hx-get")
	if !ok {
		t.Fatal("button has no hx-get attribute")
	}
	id = id[len("/local-event/"):]

	html, ok := c.TriggerCallback(widget.Local, id, &widget.DOMEvent{EventID: id})
	if !ok {
		t.Fatalf("TriggerCallback(%q) not found", id)
	}
	if html != "<b>pressed</b>" {
		t.Errorf("callback html = %q, want %q", html, "<b>pressed</b>")
	}

	if _, ok := c.TriggerCallback(widget.Local, "click-00000000", nil); ok {
		t.Error("unknown callback id reported as found")
	}
}

func TestCoordinatorPageTreeUnknown(t *testing.T) {
	c := NewCoordinator(testRegistry(t), &fakeDisplay{}, discard())
	if tree := c.PageTree("skill-ghost", "p1"); tree != nil {
		t.Errorf("PageTree() for unknown namespace = %v, want nil", tree)
	}
}

func TestParameterIDFormat(t *testing.T) {
	re := regexp.MustCompile(`^title-[0-9a-f]{8}$`)
	if id := parameterID("title"); !re.MatchString(id) {
		t.Errorf("parameterID(%q) = %q, want match for %v", "title", id, re)
	}
}

func TestEventIDCollapsesWhitespace(t *testing.T) {
	re := regexp.MustCompile(`^click-from-button-[0-9a-f]{8}$`)
	if id := eventID("click from button"); !re.MatchString(id) {
		t.Errorf("eventID(%q) = %q, want match for %v", "click from button", id, re)
	}
}

func TestRegistryNormalizesURI(t *testing.T) {
	reg := NewRegistry(nil, discard())
	reg.Register("home_screen_carousel", rawBuilder)

	page, err := reg.Build("ui/home_screen_carousel.py", "home", nil)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if page == nil {
		t.Fatal("Build() = nil page")
	}

	if _, err := reg.Build("ui/not_there.qml", "x", nil); err == nil {
		t.Error("Build() for unknown uri without fallback: want error")
	}
}

func TestRegistryFallback(t *testing.T) {
	reg := NewRegistry(rawBuilder, discard())
	page, err := reg.Build("ui/not_there.qml", "x", nil)
	if err != nil {
		t.Fatalf("Build() with fallback error: %v", err)
	}
	if page == nil {
		t.Fatal("Build() with fallback = nil page")
	}
}
