package livelang

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

var angleEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// SanitizeText strips markup from user-supplied text and collapses whitespace.
// Entities are decoded, then angle brackets are re-escaped, so the result is
// plain text that can be injected into HTML without opening a tag.
func SanitizeText(text string) string {
	stripped := html.UnescapeString(strictPolicy.Sanitize(text))
	return NormalizeText(angleEscaper.Replace(stripped))
}
