package html

import (
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/goliatone/go-surveysync/pkg/engine"
)

// domControl drives the form elements sharing one name attribute. Radio
// and checkbox groups hold their value as the comma-joined checked values.
type domControl struct {
	container *Container
	name      string
	nodes     []*xhtml.Node
}

var _ engine.Control = (*domControl)(nil)

func (d *domControl) Name() string { return d.name }

func (d *domControl) Value() string {
	first := d.nodes[0]
	switch {
	case first.Data == "select":
		for _, option := range children(first, "option") {
			if hasAttr(option, "selected") {
				return attr(option, "value")
			}
		}
		return ""
	case first.Data == "textarea":
		return textContent(first)
	case isCheckable(first):
		var checked []string
		for _, node := range d.nodes {
			if hasAttr(node, "checked") {
				checked = append(checked, attr(node, "value"))
			}
		}
		return strings.Join(checked, ",")
	default:
		return attr(first, "value")
	}
}

func (d *domControl) SetValue(value string) {
	first := d.nodes[0]
	switch {
	case first.Data == "select":
		for _, option := range children(first, "option") {
			setFlag(option, "selected", attr(option, "value") == value)
		}
	case first.Data == "textarea":
		for child := first.FirstChild; child != nil; {
			next := child.NextSibling
			first.RemoveChild(child)
			child = next
		}
		first.AppendChild(&xhtml.Node{Type: xhtml.TextNode, Data: value})
	case isCheckable(first):
		wanted := make(map[string]bool)
		for _, part := range strings.Split(value, ",") {
			wanted[strings.TrimSpace(part)] = true
		}
		for _, node := range d.nodes {
			setFlag(node, "checked", wanted[attr(node, "value")])
		}
	default:
		setAttr(first, "value", value)
	}
}

func (d *domControl) Dispatch(kind engine.EventKind) {
	d.container.forward(d.name, d.Value(), kind)
}

func findByName(root *xhtml.Node, name string) []*xhtml.Node {
	var out []*xhtml.Node
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode && isFormElement(n) && attr(n, "name") == name {
			out = append(out, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return out
}

func isFormElement(n *xhtml.Node) bool {
	switch n.Data {
	case "input", "select", "textarea":
		return true
	default:
		return false
	}
}

func isCheckable(n *xhtml.Node) bool {
	if n.Data != "input" {
		return false
	}
	switch strings.ToLower(attr(n, "type")) {
	case "radio", "checkbox":
		return true
	default:
		return false
	}
}

func children(n *xhtml.Node, tag string) []*xhtml.Node {
	var out []*xhtml.Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xhtml.ElementNode && child.Data == tag {
			out = append(out, child)
		}
	}
	return out
}

func textContent(n *xhtml.Node) string {
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xhtml.TextNode {
			b.WriteString(child.Data)
		}
	}
	return b.String()
}

func attr(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *xhtml.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *xhtml.Node, key, value string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, xhtml.Attribute{Key: key, Val: value})
}

func setFlag(n *xhtml.Node, key string, on bool) {
	filtered := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			filtered = append(filtered, a)
		}
	}
	n.Attr = filtered
	if on {
		n.Attr = append(n.Attr, xhtml.Attribute{Key: key})
	}
}
