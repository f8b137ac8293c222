package htmldom

// Common element constructors. Pages compose their trees from these.

// Div creates a <div> element.
func Div(children ...*Element) *Element { return New("div", children...) }

// Span creates a <span> element.
func Span(children ...*Element) *Element { return New("span", children...) }

// Img creates an <img> element.
func Img() *Element { return New("img") }

// Input creates an <input> element.
func Input() *Element { return New("input") }

// Button creates a <button> element.
func Button(children ...*Element) *Element { return New("button", children...) }

// Dialog creates a <dialog> element.
func Dialog(children ...*Element) *Element { return New("dialog", children...) }

// Html creates an <html> element.
func Html(children ...*Element) *Element { return New("html", children...) }

// Head creates a <head> element.
func Head(children ...*Element) *Element { return New("head", children...) }

// Body creates a <body> element.
func Body(children ...*Element) *Element { return New("body", children...) }

// Meta creates a <meta> element.
func Meta() *Element { return New("meta") }

// Link creates a <link> element.
func Link() *Element { return New("link") }

// Script creates a <script> element.
func Script() *Element { return New("script") }

// Title creates a <title> element with the given text.
func Title(text string) *Element { return New("title").SetText(text) }

// TextDiv creates a <div> with text content.
func TextDiv(text string) *Element { return New("div").SetText(text) }
