// Package processor provides markup-aware content processors for the overlay.
package processor

import "github.com/ZaguanLabs/livelang"

// ContentProcessor is an alias to the main package interface.
type ContentProcessor = livelang.ContentProcessor

// IgnoredTags contains HTML tags whose content is never translated.
var IgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"pre":      true,
	"textarea": true,
	"noscript": true,
}

// NoTranslateAttr marks a subtree that must be left untouched.
const NoTranslateAttr = "data-no-translate"

// buttonInputTypes are the input types whose value is visible text.
var buttonInputTypes = map[string]bool{
	"submit": true,
	"button": true,
	"reset":  true,
}
