package livelang

import (
	"context"
	"encoding/json"
)

// BuildMapping turns active entries into a substitution mapping.
//
// With translateNumbers disabled, entries whose original text contains digits
// also yield a numeric-normalized pair, so one saved sentence matches every
// numeric variant of it. Exact pairs always overwrite earlier ones; a
// normalized pair never replaces a key that is already present.
func BuildMapping(entries []Entry, translateNumbers bool) *Mapping {
	m := NewMapping()

	for _, e := range entries {
		if !e.Active() {
			continue
		}
		original := NormalizeText(e.OriginalText)
		translated := NormalizeText(e.TranslatedText)
		if original == "" || translated == "" {
			continue
		}

		m.Set(original, translated)

		if translateNumbers || !ContainsDigit(original) {
			continue
		}
		key := NormalizeNumbers(original)
		if hasLiteralText(key) {
			m.SetIfAbsent(key, NormalizeNumbers(translated))
		}
	}

	return m
}

// BuildMap returns the mapping for a page, consulting the render cache first.
// A store failure yields an empty mapping so the page renders untranslated.
func (o *Overlay) BuildMap(ctx context.Context, page Page) (*Mapping, bool) {
	page = o.normalizePage(page)
	key := CacheKey(page.Language, page.Slug)

	if o.cache != nil {
		if raw, ok := o.cache.Get(ctx, key); ok {
			m := NewMapping()
			if err := json.Unmarshal([]byte(raw), m); err == nil {
				return m, true
			}
			o.logger.Warn("discarding undecodable cached mapping", "key", key)
		}
	}

	entries, err := o.store.ActiveEntriesForSlug(ctx, page.Slug, page.Language)
	if err != nil {
		o.logger.Warn("loading translations failed", "slug", page.Slug, "language", page.Language, "error", err)
		return NewMapping(), false
	}

	m := BuildMapping(entries, o.settingsFor(ctx).TranslateNumbers)

	if o.cache != nil {
		data, err := json.Marshal(m)
		if err == nil {
			err = o.cache.Set(ctx, key, string(data), o.cacheTTL)
		}
		if err != nil {
			o.logger.Warn("caching mapping failed", "key", key, "error", err)
		}
	}

	return m, false
}

func (o *Overlay) settingsFor(ctx context.Context) Settings {
	if o.settings == nil {
		return DefaultSettings()
	}
	s, err := o.settings.Settings(ctx)
	if err != nil {
		o.logger.Warn("loading settings failed, using defaults", "error", err)
		return DefaultSettings()
	}
	return s
}
