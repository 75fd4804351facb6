package livelang

import (
	"html"
	"strings"
)

// ContentProcessor rewrites rendered content with a mapping.
type ContentProcessor interface {
	Apply(content string, m *Mapping) (string, error)
	ContentType() string
}

// TextProcessor substitutes on the raw HTML string without parsing it.
type TextProcessor struct{}

// NewTextProcessor creates the default string-level processor.
func NewTextProcessor() *TextProcessor {
	return &TextProcessor{}
}

// Apply implements ContentProcessor.
func (p *TextProcessor) Apply(content string, m *Mapping) (string, error) {
	return Apply(content, m), nil
}

// ContentType returns "text".
func (p *TextProcessor) ContentType() string {
	return "text"
}

// Apply substitutes every pair of m into htmlText, in insertion order.
//
// The page is held as a list of spans. A pair only matches inside spans no
// pair has produced yet, and each match becomes a closed span carrying the
// translation. A translation is therefore never matched again, neither by its
// own key nor by any later one. Exact keys match in their raw and
// entity-escaped forms. Keys holding NumPlaceholder are matched as templates
// and the captured digits are injected into the translation.
func Apply(htmlText string, m *Mapping) string {
	if htmlText == "" || m.Len() == 0 {
		return htmlText
	}

	spans := []span{{text: htmlText}}
	for _, e := range m.entries {
		if e.key == "" || e.value == "" {
			continue
		}
		if e.template != nil {
			spans = replaceTemplate(spans, e.template, e.value)
			continue
		}
		spans = replaceLiteral(spans, e.key, e.value)
		for _, escaped := range escapedForms(e.key) {
			spans = replaceLiteral(spans, escaped, e.value)
		}
	}

	if len(spans) == 1 {
		return spans[0].text
	}
	var b strings.Builder
	b.Grow(len(htmlText))
	for _, s := range spans {
		b.WriteString(s.text)
	}
	return b.String()
}

// span is a piece of the page. Closed spans hold substituted output.
type span struct {
	text   string
	closed bool
}

func replaceLiteral(spans []span, key, value string) []span {
	find := func(text string) [][]int {
		var locs [][]int
		for i := 0; ; {
			j := strings.Index(text[i:], key)
			if j < 0 {
				return locs
			}
			locs = append(locs, []int{i + j, i + j + len(key)})
			i += j + len(key)
		}
	}
	return replaceSpans(spans, find, func(string, []int) string { return value })
}

func replaceTemplate(spans []span, t *numericTemplate, value string) []span {
	render := func(text string, loc []int) string {
		captures := make([]string, 0, len(loc)/2-1)
		for i := 2; i+1 < len(loc); i += 2 {
			captures = append(captures, text[loc[i]:loc[i+1]])
		}
		return renderTemplate(value, captures)
	}
	return replaceSpans(spans, func(text string) [][]int {
		return t.pattern.FindAllStringSubmatchIndex(text, -1)
	}, render)
}

// replaceSpans splits every open span around the matches find reports and
// closes each match with its rendered replacement. The input slice is
// returned untouched when nothing matches.
func replaceSpans(spans []span, find func(string) [][]int, render func(string, []int) string) []span {
	var out []span
	for i, s := range spans {
		var locs [][]int
		if !s.closed {
			locs = find(s.text)
		}
		if len(locs) == 0 {
			if out != nil {
				out = append(out, s)
			}
			continue
		}
		if out == nil {
			out = make([]span, i, len(spans)+2*len(locs))
			copy(out, spans[:i])
		}

		last := 0
		for _, loc := range locs {
			if loc[0] > last {
				out = append(out, span{text: s.text[last:loc[0]]})
			}
			out = append(out, span{text: render(s.text, loc), closed: true})
			last = loc[1]
		}
		if last < len(s.text) {
			out = append(out, span{text: s.text[last:]})
		}
	}
	if out == nil {
		return spans
	}
	return out
}

// escapedForms returns the entity-escaped renderings of key that differ from
// it: the one html/template produces and the named-entity variant most CMS
// templates emit.
func escapedForms(key string) []string {
	if !strings.ContainsAny(key, `&<>"'`) {
		return nil
	}

	forms := make([]string, 0, 2)
	std := html.EscapeString(key)
	forms = append(forms, std)

	named := strings.NewReplacer(
		`&`, "&amp;",
		`<`, "&lt;",
		`>`, "&gt;",
		`"`, "&quot;",
		`'`, "&#039;",
	).Replace(key)
	if named != std {
		forms = append(forms, named)
	}
	return forms
}
