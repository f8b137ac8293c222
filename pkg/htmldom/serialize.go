package htmldom

import "strings"

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// String serialises the subtree to a single-line HTML string.
// Newlines never appear in the output, so the result is safe to place
// on an SSE data line as-is.
func (e *Element) String() string {
	var buf strings.Builder
	e.write(&buf)
	return buf.String()
}

// InnerHTML serialises only the element's content: its text followed by
// its children.
func (e *Element) InnerHTML() string {
	var buf strings.Builder
	e.writeContent(&buf)
	return buf.String()
}

func (e *Element) write(buf *strings.Builder) {
	buf.WriteByte('<')
	buf.WriteString(e.Tag)
	for _, name := range e.attrOrder {
		buf.WriteByte(' ')
		buf.WriteString(name)
		value := e.attrs[name]
		if value == "" {
			continue
		}
		buf.WriteString(`="`)
		buf.WriteString(escapeAttr(value))
		buf.WriteByte('"')
	}
	if IsVoidElement(e.Tag) {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	e.writeContent(buf)
	buf.WriteString("</")
	buf.WriteString(e.Tag)
	buf.WriteByte('>')
}

func (e *Element) writeContent(buf *strings.Builder) {
	if e.Text != "" {
		buf.WriteString(escapeHTML(e.Text))
	}
	for _, child := range e.Children {
		child.write(buf)
	}
}

// escapeHTML escapes text for safe inclusion in HTML content.
func escapeHTML(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}

// escapeAttr escapes text for safe inclusion in HTML attribute values.
// In addition to the standard entities, it escapes whitespace characters
// that could break attribute parsing or SSE line framing.
func escapeAttr(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\n':
			buf.WriteString("&#10;")
		case '\r':
			buf.WriteString("&#13;")
		case '\t':
			buf.WriteString("&#9;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}
