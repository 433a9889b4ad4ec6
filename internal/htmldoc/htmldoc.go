// Package htmldoc is a small HTML document builder used by the report
// assembler. It models pages as a tree of nodes and renders them in
// one pass; it knows nothing about the archive's structure or styling.
package htmldoc

import (
	"html"
	"strings"
)

type attr struct {
	key   string
	value string
}

// Node is one element in a page tree. Text content set via SetText is
// escaped on render; SetHTML inserts pre-sanitized markup verbatim.
type Node struct {
	Tag      string
	attrs    []attr
	text     string
	rawText  bool
	children []*Node
}

func NewNode(tag string) *Node {
	return &Node{Tag: tag}
}

func (n *Node) SetAttr(key, value string) *Node {
	for i := range n.attrs {
		if n.attrs[i].key == key {
			n.attrs[i].value = value
			return n
		}
	}
	n.attrs = append(n.attrs, attr{key: key, value: value})
	return n
}

func (n *Node) Attr(key string) string {
	for _, a := range n.attrs {
		if a.key == key {
			return a.value
		}
	}
	return ""
}

func (n *Node) AddClass(class string) *Node {
	existing := n.Attr("class")
	if existing == "" {
		return n.SetAttr("class", class)
	}
	for _, c := range strings.Fields(existing) {
		if c == class {
			return n
		}
	}
	return n.SetAttr("class", existing+" "+class)
}

func (n *Node) SetID(id string) *Node {
	return n.SetAttr("id", id)
}

func (n *Node) SetText(text string) *Node {
	n.text = text
	n.rawText = false
	return n
}

// SetHTML sets pre-sanitized content that is rendered without escaping.
func (n *Node) SetHTML(markup string) *Node {
	n.text = markup
	n.rawText = true
	return n
}

func (n *Node) AppendChild(child *Node) *Node {
	n.children = append(n.children, child)
	return n
}

func (n *Node) Children() []*Node {
	return n.children
}

// voidTags render without a closing tag.
var voidTags = map[string]bool{
	"img": true, "br": true, "hr": true, "link": true, "meta": true,
}

func (n *Node) render(b *strings.Builder, indent int) {
	pad := strings.Repeat("  ", indent)
	b.WriteString(pad)
	b.WriteString("<")
	b.WriteString(n.Tag)
	for _, a := range n.attrs {
		b.WriteString(" ")
		b.WriteString(a.key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.value))
		b.WriteString(`"`)
	}
	if voidTags[n.Tag] {
		b.WriteString(">\n")
		return
	}
	b.WriteString(">")

	if n.text != "" {
		if n.rawText {
			b.WriteString(n.text)
		} else {
			b.WriteString(html.EscapeString(n.text))
		}
	}

	if len(n.children) > 0 {
		b.WriteString("\n")
		for _, child := range n.children {
			child.render(b, indent+1)
		}
		b.WriteString(pad)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteString(">\n")
}

// matchesClass reports whether the node carries the given class.
func (n *Node) matchesClass(class string) bool {
	for _, c := range strings.Fields(n.Attr("class")) {
		if c == class {
			return true
		}
	}
	return false
}

// Document is a full page: title, linked stylesheets and a body tree.
type Document struct {
	Title string
	CSS   []string
	body  []*Node
}

func NewDocument(title string, css ...string) *Document {
	return &Document{Title: title, CSS: css}
}

func (d *Document) AppendChild(n *Node) {
	d.body = append(d.body, n)
}

// ByClass returns every node in the document carrying the given class,
// in document order.
func (d *Document) ByClass(class string) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(n *Node) {
		if n.matchesClass(class) {
			out = append(out, n)
		}
		for _, child := range n.children {
			walk(child)
		}
	}
	for _, n := range d.body {
		walk(n)
	}
	return out
}

// Render emits the complete HTML page.
func (d *Document) Render() []byte {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString(`  <meta charset="utf-8">` + "\n")
	b.WriteString("  <title>")
	b.WriteString(html.EscapeString(d.Title))
	b.WriteString("</title>\n")
	for _, css := range d.CSS {
		b.WriteString(`  <link rel="stylesheet" href="`)
		b.WriteString(html.EscapeString(css))
		b.WriteString("\">\n")
	}
	b.WriteString("</head>\n<body>\n")
	for _, n := range d.body {
		n.render(&b, 1)
	}
	b.WriteString("</body>\n</html>\n")
	return []byte(b.String())
}
