package editor

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ZaguanLabs/livelang"
)

// Attributes and classes the editor writes into the page.
const (
	BaselineAttr = "data-livelang-original"
	HoverClass   = "livelang-hovering"
	ActiveClass  = "livelang-active"
	WrapClass    = "livelang-wrap"
	OverlayClass = "livelang-temp-input"
	editableAttr = "contenteditable"
)

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrOr(n *html.Node, key, fallback string) string {
	if v, ok := getAttr(n, key); ok {
		return v
	}
	return fallback
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrOr(n, "class", "")) {
		if c == class {
			return true
		}
	}
	return false
}

func addClass(n *html.Node, class string) {
	if hasClass(n, class) {
		return
	}
	classes := strings.Fields(attrOr(n, "class", ""))
	setAttr(n, "class", strings.Join(append(classes, class), " "))
}

func removeClass(n *html.Node, class string) {
	v, ok := getAttr(n, "class")
	if !ok {
		return
	}
	var kept []string
	for _, c := range strings.Fields(v) {
		if c != class {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		removeAttr(n, "class")
		return
	}
	setAttr(n, "class", strings.Join(kept, " "))
}

// textContent concatenates every descendant text node.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

// setText replaces the children of n with a single text node.
func setText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// appendText adds text after the last child, as typing at the caret end would.
func appendText(n *html.Node, text string) {
	if last := n.LastChild; last != nil && last.Type == html.TextNode {
		last.Data += text
		return
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// directText joins the non-blank text nodes directly under n.
func directText(n *html.Node) string {
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
			parts = append(parts, livelang.NormalizeText(c.Data))
		}
	}
	return strings.Join(parts, " ")
}

// editableText is the normalized text an edit of n reads and writes: all of it
// for leaves, only the direct text nodes when n also holds elements.
func editableText(n *html.Node) string {
	if hasElementChildren(n) {
		return directText(n)
	}
	return livelang.NormalizeText(textContent(n))
}

// rawEditableText is the unnormalized text that setEditableText replaces.
func rawEditableText(n *html.Node) string {
	if !hasElementChildren(n) {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
			return c.Data
		}
	}
	return ""
}

// padding returns the leading and trailing whitespace of s.
func padding(s string) (lead, trail string) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", ""
	}
	i := strings.Index(s, trimmed)
	return s[:i], s[i+len(trimmed):]
}

// setEditableText is the write side of editableText. Element children of a
// mixed node are kept; its first direct text node takes the new text.
func setEditableText(n *html.Node, text string) {
	if !hasElementChildren(n) {
		setText(n, text)
		return
	}
	var first *html.Node
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
			if first == nil {
				first = c
				c.Data = text
			} else {
				n.RemoveChild(c)
			}
		}
		c = next
	}
	if first == nil {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

func hasElementChildren(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
	}
	return false
}

func hasText(n *html.Node) bool {
	return strings.TrimSpace(textContent(n)) != ""
}

// isButtonInput reports whether n is an input whose value is its visible label.
func isButtonInput(n *html.Node) bool {
	if n.DataAtom != atom.Input {
		return false
	}
	switch strings.ToLower(attrOr(n, "type", "")) {
	case "submit", "button", "reset":
		return true
	}
	return false
}

func hasPlaceholder(n *html.Node) bool {
	return strings.TrimSpace(attrOr(n, "placeholder", "")) != ""
}

// isRoot reports nodes a click can never target.
func isRoot(n *html.Node) bool {
	return n == nil || n.Type == html.DocumentNode || n.DataAtom == atom.Html || n.DataAtom == atom.Body
}

// isGuard reports elements whose native activation navigates or submits.
func isGuard(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.DataAtom == atom.A || n.DataAtom == atom.Button)
}

func isSubmit(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	typ := strings.ToLower(attrOr(n, "type", ""))
	switch n.DataAtom {
	case atom.Button:
		return typ == "" || typ == "submit"
	case atom.Input:
		return typ == "submit"
	}
	return false
}

// closest returns the nearest ancestor-or-self matching fn.
func closest(n *html.Node, fn func(*html.Node) bool) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && fn(n) {
			return n
		}
	}
	return nil
}

// wrapBareText wraps each non-blank text node directly under n in a span and
// returns every wrapper child of n, previously created ones included.
func wrapBareText(n *html.Node) []*html.Node {
	var wrappers []*html.Node
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) != "":
			span := &html.Node{
				Type:     html.ElementNode,
				Data:     "span",
				DataAtom: atom.Span,
				Attr:     []html.Attribute{{Key: "class", Val: WrapClass}},
			}
			n.InsertBefore(span, c)
			n.RemoveChild(c)
			span.AppendChild(c)
			wrappers = append(wrappers, span)
		case c.Type == html.ElementNode && c.DataAtom == atom.Span && hasClass(c, WrapClass):
			wrappers = append(wrappers, c)
		}
		c = next
	}
	return wrappers
}

// firstTextLeaf descends through the first text-bearing child at each level.
func firstTextLeaf(n *html.Node) *html.Node {
	leaf := n
	for {
		var next *html.Node
		for c := leaf.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && hasText(c) {
				next = c
				break
			}
		}
		if next == nil {
			return leaf
		}
		leaf = next
	}
}
