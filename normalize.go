package livelang

import (
	"regexp"
	"strings"
)

var digitRun = regexp.MustCompile(`[0-9]+`)

// NormalizeText collapses runs of whitespace into a single space and trims the result.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ContainsDigit reports whether text contains at least one decimal digit.
func ContainsDigit(text string) bool {
	return strings.ContainsAny(text, "0123456789")
}

// NormalizeNumbers replaces every maximal run of digits with NumPlaceholder.
func NormalizeNumbers(text string) string {
	return digitRun.ReplaceAllLiteralString(text, NumPlaceholder)
}

// hasLiteralText reports whether a normalized key still carries text once the
// placeholders are removed. Keys made only of numbers would match every
// number on the page.
func hasLiteralText(normalized string) bool {
	return strings.TrimSpace(strings.ReplaceAll(normalized, NumPlaceholder, "")) != ""
}
