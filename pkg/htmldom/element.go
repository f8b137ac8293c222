package htmldom

import "strings"

// Element is a mutable HTML element node.
//
// Unlike an immutable virtual DOM, elements here are long-lived: pages
// mutate their attributes and text in place, and the renderer serialises
// the affected subtree for the wire. Attribute insertion order is
// preserved so serialisation is deterministic.
type Element struct {
	Tag      string
	Text     string
	Children []*Element

	attrs     map[string]string
	attrOrder []string
}

// New creates an element with the given tag and optional children.
func New(tag string, children ...*Element) *Element {
	e := &Element{
		Tag:   tag,
		attrs: make(map[string]string),
	}
	for _, child := range children {
		if child != nil {
			e.Children = append(e.Children, child)
		}
	}
	return e
}

// Attr returns the value of an attribute and whether it is set.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// SetAttr sets a single attribute, preserving first-set order.
func (e *Element) SetAttr(name, value string) *Element {
	if _, ok := e.attrs[name]; !ok {
		e.attrOrder = append(e.attrOrder, name)
	}
	e.attrs[name] = value
	return e
}

// UpdateAttributes merges the given attributes into the element.
// Existing values are overwritten; new attributes keep insertion order.
func (e *Element) UpdateAttributes(attrs map[string]string, order ...string) {
	if len(order) > 0 {
		for _, name := range order {
			if v, ok := attrs[name]; ok {
				e.SetAttr(name, v)
			}
		}
		return
	}
	// No explicit order: append unseen attributes in sorted-by-first-use
	// order of the map iteration is not deterministic, so collect keys.
	for _, name := range sortedKeys(attrs) {
		e.SetAttr(name, attrs[name])
	}
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(name string) {
	if _, ok := e.attrs[name]; !ok {
		return
	}
	delete(e.attrs, name)
	for i, n := range e.attrOrder {
		if n == name {
			e.attrOrder = append(e.attrOrder[:i], e.attrOrder[i+1:]...)
			break
		}
	}
}

// SetText replaces the element's text content.
func (e *Element) SetText(text string) *Element {
	e.Text = text
	return e
}

// AppendChild adds a child element.
func (e *Element) AppendChild(child *Element) *Element {
	if child != nil {
		e.Children = append(e.Children, child)
	}
	return e
}

// DetachChildren removes and returns all children.
func (e *Element) DetachChildren() []*Element {
	detached := e.Children
	e.Children = nil
	return detached
}

// FindByID searches the subtree for the element with the given id.
func (e *Element) FindByID(id string) *Element {
	if v, ok := e.attrs["id"]; ok && v == id {
		return e
	}
	for _, child := range e.Children {
		if found := child.FindByID(id); found != nil {
			return found
		}
	}
	return nil
}

// FindByTag returns all elements in the subtree with the given tag.
func (e *Element) FindByTag(tag string) []*Element {
	var found []*Element
	if e.Tag == tag {
		found = append(found, e)
	}
	for _, child := range e.Children {
		found = append(found, child.FindByTag(tag)...)
	}
	return found
}

// Clone returns a deep copy of the subtree.
func (e *Element) Clone() *Element {
	clone := &Element{
		Tag:       e.Tag,
		Text:      e.Text,
		attrs:     make(map[string]string, len(e.attrs)),
		attrOrder: append([]string(nil), e.attrOrder...),
	}
	for k, v := range e.attrs {
		clone.attrs[k] = v
	}
	for _, child := range e.Children {
		clone.Children = append(clone.Children, child.Clone())
	}
	return clone
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// insertion sort; attribute maps are tiny
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// ClassList joins class tokens into a single class attribute value.
func ClassList(tokens ...string) string {
	var nonEmpty []string
	for _, t := range tokens {
		if t != "" {
			nonEmpty = append(nonEmpty, t)
		}
	}
	return strings.Join(nonEmpty, " ")
}
