package livelang

import (
	"context"
	"strings"
	"testing"
)

func TestSlugFromPath(t *testing.T) {
	tests := []struct {
		path     string
		language string
		expected string
	}{
		{"/", "en", "home"},
		{"", "", "home"},
		{"/about/", "en", "about"},
		{"/es/about", "es", "about"},
		{"/es", "es", "home"},
		{"/es/", "es", "home"},
		{"/blog/es-guide", "es", "blog/es-guide"},
		{"/estate", "es", "estate"},
		{"/fr/about", "es", "fr/about"},
	}

	for _, tt := range tests {
		if got := SlugFromPath(tt.path, tt.language); got != tt.expected {
			t.Errorf("SlugFromPath(%q, %q) = %q, want %q", tt.path, tt.language, got, tt.expected)
		}
	}
}

func TestPageContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := PageFromContext(ctx); ok {
		t.Fatal("empty context should carry no page")
	}

	ctx = WithPage(ctx, Page{Slug: "about", Language: "es"})
	page, ok := PageFromContext(ctx)
	if !ok {
		t.Fatal("expected page in context")
	}
	if page.Slug != "about" || page.Language != "es" {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestValidSlug(t *testing.T) {
	valid := []string{"home", "about", "blog/post-1", "über-uns"}
	for _, s := range valid {
		if !ValidSlug(s) {
			t.Errorf("ValidSlug(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "with space", "query?x=1", "frag#top", strings.Repeat("a", 191)}
	for _, s := range invalid {
		if ValidSlug(s) {
			t.Errorf("ValidSlug(%q) = true, want false", s)
		}
	}
}
