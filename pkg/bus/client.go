package bus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hxgui-dev/hxgui/pkg/gui"
	"github.com/hxgui-dev/hxgui/pkg/status"
)

// HomescreenNamespace is the homescreen skill's namespace. Inserts for
// it are redirected to the built-in home screen page.
const HomescreenNamespace = "skill-ovos-homescreen.openvoiceos"

// systemNamespace scopes assistant lifecycle events.
const systemNamespace = "system"

// Reconnect back-off bounds.
const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// ErrNotConnected is returned when an outbound message has no live
// connection to travel on.
var ErrNotConnected = errors.New("bus: not connected")

// Coordinator is the slice of the GUI coordinator the bus client
// drives.
type Coordinator interface {
	InsertPages(namespace string, position int, pages []gui.PageRef, sessionData map[string]any)
	RemovePages(namespace string, position, n int)
	MovePages(namespace string, from, to, n int)
	ShowIndex(namespace string, position int)
	UpdateData(namespace string, sessionData map[string]any)
	UpdateState(namespace, event string)
	InsertNamespace(namespace string, position int)
	RemoveNamespace(namespace string)
}

// StatusSink receives translated lifecycle events.
type StatusSink interface {
	ProcessEvent(event string, data map[string]any)
}

// Config carries the bus connection settings.
type Config struct {
	// URL is the GUI bus websocket endpoint.
	URL string
	// GUIID identifies this client on the bus. A random suffix is
	// generated when empty.
	GUIID string
	// Framework is announced to the bus so skills can serve matching
	// page definitions.
	Framework string
}

// DefaultConfig returns the stock connection settings.
func DefaultConfig() Config {
	return Config{
		URL:       "ws://localhost:18181/gui",
		Framework: "go-htmx",
	}
}

// Client connects to the GUI bus, decodes inbound frames, and
// dispatches them to the coordinator and the status machine. It keeps
// a local mirror of per-namespace session data and the active-skills
// stack.
type Client struct {
	cfg    Config
	coord  Coordinator
	status StatusSink
	logger *slog.Logger
	tracer trace.Tracer

	onMessage func(messageType string)

	mu           sync.Mutex
	conn         *websocket.Conn
	session      map[string]map[string]any
	activeSkills []string
}

// Option configures a Client.
type Option func(*Client)

// WithMessageObserver installs a hook called with every decoded
// message's type. The metrics layer counts bus traffic through it.
func WithMessageObserver(fn func(messageType string)) Option {
	return func(c *Client) { c.onMessage = fn }
}

// New creates a bus client. It does not connect; Run does.
func New(cfg Config, coord Coordinator, statusSink StatusSink, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.URL == "" {
		cfg.URL = DefaultConfig().URL
	}
	if cfg.Framework == "" {
		cfg.Framework = DefaultConfig().Framework
	}
	if cfg.GUIID == "" {
		cfg.GUIID = "ovos-hxgui-" + uuid.NewString()[:8]
	}
	c := &Client{
		cfg:     cfg,
		coord:   coord,
		status:  statusSink,
		logger:  logger.With("component", "bus_client"),
		tracer:  otel.Tracer("hxgui/bus"),
		session: make(map[string]map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run connects and processes frames until ctx is done. Connection
// failures never propagate: the client logs, backs off, and retries,
// so the HTTP surface keeps serving whatever state it has.
func (c *Client) Run(ctx context.Context) {
	backoff := initialBackoff
	for {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("bus connect failed, retrying",
				"url", c.cfg.URL, "backoff", backoff, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = initialBackoff
		c.logger.Info("connected to gui bus", "url", c.cfg.URL)

		c.setConn(conn)
		if err := c.announce(); err != nil {
			c.logger.Error("announce failed", "error", err)
		}
		c.readLoop(ctx, conn)
		c.setConn(nil)
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("bus connection lost, reconnecting")
	}
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// announce introduces this client to the bus.
func (c *Client) announce() error {
	data, _ := json.Marshal(map[string]any{"framework": c.cfg.Framework})
	return c.send(&Message{
		Type:      TypeGUIConnected,
		GUIID:     c.cfg.GUIID,
		Framework: c.cfg.Framework,
		Data:      data,
	})
}

// readLoop decodes frames until the connection breaks or ctx is done.
// A frame that fails to decode is logged and skipped; the connection
// stays up.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Error("bus read failed", "error", err)
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.logger.Warn("undecodable bus frame skipped", "error", err)
			continue
		}
		if c.onMessage != nil {
			c.onMessage(msg.Type)
		}
		c.dispatch(ctx, &msg)
	}
}

// dispatch routes one decoded message, wrapped in a span so bus
// traffic shows up in traces.
func (c *Client) dispatch(ctx context.Context, msg *Message) {
	_, span := c.tracer.Start(ctx, "bus."+msg.Type,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("bus.namespace", msg.Namespace),
			attribute.String("bus.event_name", msg.EventName),
		),
	)
	defer span.End()

	switch msg.Type {
	case TypeGUIListInsert:
		c.handleGUIListInsert(msg)
	case TypeGUIListMove:
		c.coord.MovePages(msg.Namespace, msg.from(), msg.to(), msg.count())
	case TypeGUIListRemove:
		c.coord.RemovePages(msg.Namespace, msg.position(), msg.count())
	case TypeEventTriggered:
		c.handleEventTriggered(msg)
	case TypeSessionSet:
		c.handleSessionSet(msg)
	case TypeSessionDelete:
		c.handleSessionDelete(msg)
	case TypeSessionListInsert:
		c.handleSessionListInsert(msg)
	case TypeSessionListRemove:
		c.handleSessionListRemove(msg)
	case TypeSessionListUpdate, TypeSessionListMove:
		c.logger.Warn("session list subtype not supported", "type", msg.Type)
	default:
		c.logger.Warn("no handler for message type", "type", msg.Type)
	}
}

func (c *Client) handleGUIListInsert(msg *Message) {
	values := msg.Values
	if len(values) == 0 {
		values = msg.DataObjects()
	}
	if msg.Namespace == HomescreenNamespace {
		values = []map[string]any{{
			"url":  "home_screen_carousel.py",
			"page": "home_screen",
		}}
	}
	pages := make([]gui.PageRef, 0, len(values))
	for _, v := range values {
		url, _ := v["url"].(string)
		pageID, _ := v["page"].(string)
		pages = append(pages, gui.PageRef{URL: url, Page: pageID})
	}
	c.coord.InsertPages(msg.Namespace, msg.position(), pages, c.sessionSnapshot(msg.Namespace))
}

func (c *Client) handleEventTriggered(msg *Message) {
	event := msg.EventName
	data := msg.DataObject()
	if data == nil {
		data = msg.Parameters
	}
	switch {
	case event == status.EventPageGainedFocus:
		c.coord.ShowIndex(msg.Namespace, intParam(data, "number", 0))
	case msg.Namespace == systemNamespace && status.IsSystemEvent(event):
		if event == status.EventRecordEnd && status.ExtractUtterance(data) == "" {
			// End of recording blanks the utterance line.
			if data == nil {
				data = make(map[string]any, 1)
			}
			data["utterance"] = " "
		}
		c.status.ProcessEvent(event, data)
	default:
		c.coord.UpdateState(msg.Namespace, event)
	}
}

func (c *Client) handleSessionSet(msg *Message) {
	data := msg.DataObject()
	if data == nil {
		return
	}
	c.mu.Lock()
	mirror, ok := c.session[msg.Namespace]
	if !ok {
		mirror = make(map[string]any, len(data))
		c.session[msg.Namespace] = mirror
	}
	for k, v := range data {
		mirror[k] = v
	}
	c.mu.Unlock()

	c.coord.UpdateData(msg.Namespace, data)
}

func (c *Client) handleSessionDelete(msg *Message) {
	c.mu.Lock()
	if mirror, ok := c.session[msg.Namespace]; ok {
		delete(mirror, msg.Property)
	}
	c.mu.Unlock()
}

func (c *Client) handleSessionListInsert(msg *Message) {
	if msg.Namespace == ActiveSkillsNamespace {
		objs := msg.DataObjects()
		if len(objs) == 0 {
			objs = msg.Values
		}
		if len(objs) == 0 {
			return
		}
		skill, _ := objs[0]["skill_id"].(string)
		if skill == "" {
			return
		}
		pos := msg.position()
		c.mu.Lock()
		if pos < 0 {
			pos = 0
		}
		if pos > len(c.activeSkills) {
			pos = len(c.activeSkills)
		}
		c.activeSkills = append(c.activeSkills[:pos],
			append([]string{skill}, c.activeSkills[pos:]...)...)
		c.mu.Unlock()

		c.coord.InsertNamespace(skill, pos)
		return
	}

	if msg.Property == "" {
		c.logger.Warn("session list insert without property", "namespace", msg.Namespace)
		return
	}
	c.mu.Lock()
	mirror, ok := c.session[msg.Namespace]
	if !ok {
		mirror = make(map[string]any)
		c.session[msg.Namespace] = mirror
	}
	list, _ := mirror[msg.Property].([]any)
	pos := msg.position()
	if pos < 0 {
		pos = 0
	}
	for pos > len(list) {
		list = append(list, nil)
	}
	items := make([]any, 0, len(msg.Values))
	for _, v := range msg.Values {
		items = append(items, v)
	}
	list = append(list[:pos], append(items, list[pos:]...)...)
	mirror[msg.Property] = list
	c.mu.Unlock()

	c.coord.UpdateData(msg.Namespace, c.sessionSnapshot(msg.Namespace))
}

func (c *Client) handleSessionListRemove(msg *Message) {
	if msg.Namespace == ActiveSkillsNamespace {
		pos := msg.position()
		c.mu.Lock()
		if pos < 0 || pos >= len(c.activeSkills) {
			c.mu.Unlock()
			c.logger.Warn("active skill position out of range", "position", pos)
			return
		}
		skill := c.activeSkills[pos]
		c.activeSkills = append(c.activeSkills[:pos], c.activeSkills[pos+1:]...)
		c.mu.Unlock()

		c.coord.RemoveNamespace(skill)
		return
	}

	c.mu.Lock()
	if mirror, ok := c.session[msg.Namespace]; ok {
		delete(mirror, msg.Property)
	}
	c.mu.Unlock()
}

// sessionSnapshot copies the mirrored session data for a namespace.
func (c *Client) sessionSnapshot(namespace string) map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	mirror, ok := c.session[namespace]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(mirror))
	for k, v := range mirror {
		out[k] = v
	}
	return out
}

// ActiveSkills returns a copy of the active-skills stack.
func (c *Client) ActiveSkills() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.activeSkills...)
}

// SendFocusEvent reports that a page gained focus in the browser.
func (c *Client) SendFocusEvent(namespace string, index int) error {
	data, _ := json.Marshal(map[string]any{"number": index})
	return c.send(&Message{
		Type:      TypeEventTriggered,
		Namespace: namespace,
		EventName: status.EventPageGainedFocus,
		Data:      data,
	})
}

// SendUtterance forwards a typed utterance to the assistant.
func (c *Client) SendUtterance(text string) error {
	data, _ := json.Marshal(map[string]any{"utterances": []string{text}})
	return c.send(&Message{
		Type:      TypeEventTriggered,
		Namespace: systemNamespace,
		EventName: status.EventUtterance,
		Data:      data,
	})
}

func (c *Client) send(msg *Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	return c.conn.WriteJSON(msg)
}
