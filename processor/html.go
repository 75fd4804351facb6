package processor

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ZaguanLabs/livelang"
)

// HTMLProcessor applies a mapping to parsed HTML. Unlike the string-level
// processor it only touches text nodes and visible attributes, so markup,
// scripts and attribute names can never be rewritten.
type HTMLProcessor struct {
	ignoredTags map[string]bool
}

// NewHTMLProcessor creates a new HTML processor with default ignored tags.
func NewHTMLProcessor() *HTMLProcessor {
	return &HTMLProcessor{
		ignoredTags: IgnoredTags,
	}
}

// NewHTMLProcessorWithIgnoredTags creates a new HTML processor with custom ignored tags.
func NewHTMLProcessorWithIgnoredTags(tags []string) *HTMLProcessor {
	ignored := make(map[string]bool)
	for _, tag := range tags {
		ignored[strings.ToLower(tag)] = true
	}
	return &HTMLProcessor{
		ignoredTags: ignored,
	}
}

// textEscaper renders text node data the way it appears in markup, so keys
// saved with escaped angle brackets still match.
var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Apply parses content, substitutes every text node and visible attribute,
// and serializes the result. Fragments stay fragments; full documents keep
// their doctype and head.
func (p *HTMLProcessor) Apply(content string, m *livelang.Mapping) (string, error) {
	if content == "" || m.Len() == 0 {
		return content, nil
	}

	root, err := parse(content)
	if err != nil {
		return "", &livelang.ProcessorError{
			Message:     "failed to parse HTML",
			Cause:       err,
			ContentType: "html",
		}
	}
	doc := goquery.NewDocumentFromNode(root)

	p.walk(root, m)
	applyAttributes(doc, m)

	out, err := doc.Html()
	if err != nil {
		return "", &livelang.ProcessorError{
			Message:     "failed to serialize HTML",
			Cause:       err,
			ContentType: "html",
		}
	}
	return out, nil
}

// ContentType returns "html".
func (p *HTMLProcessor) ContentType() string {
	return "html"
}

func (p *HTMLProcessor) walk(n *xhtml.Node, m *livelang.Mapping) {
	if n.Type == xhtml.ElementNode {
		if p.ignoredTags[strings.ToLower(n.Data)] || hasAttr(n, NoTranslateAttr) {
			return
		}
	}

	if n.Type == xhtml.TextNode {
		if out, ok := translate(n.Data, m); ok {
			n.Data = out
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, m)
	}
}

// applyAttributes translates placeholders and the labels of button-like inputs.
func applyAttributes(doc *goquery.Document, m *livelang.Mapping) {
	doc.Find("[placeholder], input[value]").Each(func(_ int, s *goquery.Selection) {
		if s.Closest("["+NoTranslateAttr+"]").Length() > 0 {
			return
		}
		n := s.Get(0)
		for i, attr := range n.Attr {
			switch {
			case attr.Key == "placeholder":
			case attr.Key == "value" && n.DataAtom == atom.Input && buttonInputTypes[strings.ToLower(s.AttrOr("type", ""))]:
			default:
				continue
			}
			if out, ok := translate(attr.Val, m); ok {
				n.Attr[i].Val = out
			}
		}
	})
}

// translate maps one unescaped text value. A whole-value match keeps the
// surrounding whitespace; otherwise substrings are substituted in place.
func translate(text string, m *livelang.Mapping) (string, bool) {
	escaped := textEscaper.Replace(text)
	trimmed := strings.TrimSpace(escaped)
	if trimmed == "" {
		return text, false
	}

	for _, candidate := range []string{trimmed, strings.TrimSpace(text)} {
		if v, ok := m.Lookup(livelang.NormalizeText(candidate)); ok {
			return preserveWhitespace(text, html.UnescapeString(v)), true
		}
	}

	out := livelang.Apply(escaped, m)
	if out == escaped {
		return text, false
	}
	return html.UnescapeString(out), true
}

// parse returns a document node for full pages and a synthetic body holding
// the nodes of a fragment otherwise.
func parse(content string) (*xhtml.Node, error) {
	if isDocument(content) {
		return xhtml.Parse(strings.NewReader(content))
	}

	body := &xhtml.Node{Type: xhtml.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := xhtml.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return body, nil
}

func isDocument(content string) bool {
	head := strings.ToLower(strings.TrimSpace(content))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<!doctype") || strings.Contains(head, "<html")
}

func hasAttr(n *xhtml.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}

// preserveWhitespace preserves the original leading/trailing whitespace.
func preserveWhitespace(original, translated string) string {
	// Find leading whitespace
	leadingLen := len(original) - len(strings.TrimLeft(original, " \t\n\r"))
	leading := original[:leadingLen]

	// Find trailing whitespace
	trailingLen := len(original) - len(strings.TrimRight(original, " \t\n\r"))
	trailing := ""
	if trailingLen > 0 {
		trailing = original[len(original)-trailingLen:]
	}

	return leading + translated + trailing
}

// Verify HTMLProcessor implements ContentProcessor
var _ ContentProcessor = (*HTMLProcessor)(nil)
