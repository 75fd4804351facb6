package livelang

import (
	"context"
	"strings"
	"unicode"
)

// Page identifies the rendering scope of a request.
type Page struct {
	Slug     string
	Language string
}

type pageKey struct{}

// WithPage returns a copy of ctx carrying page.
func WithPage(ctx context.Context, page Page) context.Context {
	return context.WithValue(ctx, pageKey{}, page)
}

// PageFromContext returns the page stored by WithPage.
func PageFromContext(ctx context.Context) (Page, bool) {
	page, ok := ctx.Value(pageKey{}).(Page)
	return page, ok
}

// NormalizeSlug trims slashes and surrounding space; the empty slug is HomeSlug.
func NormalizeSlug(slug string) string {
	slug = strings.Trim(strings.TrimSpace(slug), "/")
	if slug == "" {
		return HomeSlug
	}
	return slug
}

// SlugFromPath derives the page slug from a request path, dropping a leading
// segment equal to the active language.
func SlugFromPath(path, language string) string {
	slug := strings.Trim(path, "/")
	if language != "" {
		switch {
		case slug == language:
			slug = ""
		case strings.HasPrefix(slug, language+"/"):
			slug = slug[len(language)+1:]
		}
	}
	return NormalizeSlug(slug)
}

// maxSlugLength matches the width of the slug column.
const maxSlugLength = 190

// ValidSlug reports whether slug can be stored.
func ValidSlug(slug string) bool {
	if slug == "" || len(slug) > maxSlugLength {
		return false
	}
	for _, r := range slug {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == '?' || r == '#' {
			return false
		}
	}
	return true
}
