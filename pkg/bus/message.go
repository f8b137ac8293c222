// Package bus implements the client side of the assistant's GUI
// message bus: a JSON-framed websocket carrying page catalog commands,
// session data, and lifecycle events.
package bus

import (
	"encoding/json"
)

// Message types on the GUI bus.
const (
	TypeGUIConnected      = "mycroft.gui.connected"
	TypeGUIListInsert     = "mycroft.gui.list.insert"
	TypeGUIListMove       = "mycroft.gui.list.move"
	TypeGUIListRemove     = "mycroft.gui.list.remove"
	TypeEventTriggered    = "mycroft.events.triggered"
	TypeSessionSet        = "mycroft.session.set"
	TypeSessionDelete     = "mycroft.session.delete"
	TypeSessionListInsert = "mycroft.session.list.insert"
	TypeSessionListUpdate = "mycroft.session.list.update"
	TypeSessionListMove   = "mycroft.session.list.move"
	TypeSessionListRemove = "mycroft.session.list.remove"
)

// ActiveSkillsNamespace is the pseudo-namespace whose session list
// mirrors the stack of active skills.
const ActiveSkillsNamespace = "mycroft.system.active_skills"

// Message is the bus envelope. The data field is either an object or a
// list of objects depending on the message type, so it stays raw until
// a handler asks for one shape or the other.
type Message struct {
	Type        string           `json:"type"`
	Namespace   string           `json:"namespace,omitempty"`
	GUIID       string           `json:"gui_id,omitempty"`
	Framework   string           `json:"framework,omitempty"`
	Property    string           `json:"property,omitempty"`
	Position    *int             `json:"position,omitempty"`
	From        *int             `json:"from,omitempty"`
	To          *int             `json:"to,omitempty"`
	ItemsNumber *int             `json:"items_number,omitempty"`
	EventName   string           `json:"event_name,omitempty"`
	Parameters  map[string]any   `json:"parameters,omitempty"`
	Data        json.RawMessage  `json:"data,omitempty"`
	Values      []map[string]any `json:"values,omitempty"`
}

// DataObject decodes the data field as a single object. A list decodes
// to its first element; anything else yields nil.
func (m *Message) DataObject() map[string]any {
	if len(m.Data) == 0 {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(m.Data, &obj); err == nil {
		return obj
	}
	if objs := m.DataObjects(); len(objs) > 0 {
		return objs[0]
	}
	return nil
}

// DataObjects decodes the data field as a list of objects. A single
// object decodes to a one-element list.
func (m *Message) DataObjects() []map[string]any {
	if len(m.Data) == 0 {
		return nil
	}
	var objs []map[string]any
	if err := json.Unmarshal(m.Data, &objs); err == nil {
		return objs
	}
	var obj map[string]any
	if err := json.Unmarshal(m.Data, &obj); err == nil {
		return []map[string]any{obj}
	}
	return nil
}

// position, from, to, and count unwrap optional envelope integers with
// the protocol's defaults.

func (m *Message) position() int {
	if m.Position == nil {
		return 0
	}
	return *m.Position
}

func (m *Message) from() int {
	if m.From == nil {
		return 0
	}
	return *m.From
}

func (m *Message) to() int {
	if m.To == nil {
		return 0
	}
	return *m.To
}

func (m *Message) count() int {
	if m.ItemsNumber == nil {
		return 1
	}
	return *m.ItemsNumber
}

// intParam pulls an integer out of a decoded JSON payload, where
// numbers arrive as float64.
func intParam(data map[string]any, key string, fallback int) int {
	if data == nil {
		return fallback
	}
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}
