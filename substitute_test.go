package livelang

import (
	"strings"
	"testing"
)

func mappingOf(pairs ...string) *Mapping {
	m := NewMapping()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		mapping  *Mapping
		expected string
	}{
		{
			name:     "exact key",
			html:     "<h1>Welcome</h1>",
			mapping:  mappingOf("Welcome", "Bienvenido"),
			expected: "<h1>Bienvenido</h1>",
		},
		{
			name:     "every occurrence",
			html:     "<a>Home</a><footer>Home</footer>",
			mapping:  mappingOf("Home", "Inicio"),
			expected: "<a>Inicio</a><footer>Inicio</footer>",
		},
		{
			name:     "escaped ampersand",
			html:     "<p>Fish &amp; Chips</p>",
			mapping:  mappingOf("Fish & Chips", "Pescado y papas"),
			expected: "<p>Pescado y papas</p>",
		},
		{
			name:     "raw and escaped apostrophe forms",
			html:     "<p>It's here</p><p>It&#39;s here</p><p>It&#039;s here</p>",
			mapping:  mappingOf("It's here", "Está aquí"),
			expected: "<p>Está aquí</p><p>Está aquí</p><p>Está aquí</p>",
		},
		{
			name:     "value containing its key",
			html:     "<p>Books</p>",
			mapping:  mappingOf("Books", "Books (Libros)"),
			expected: "<p>Books (Libros)</p>",
		},
		{
			name:     "translation containing a later key",
			html:     "<p>Hello</p>",
			mapping:  mappingOf("Hello", "Hola amigo", "amigo", "friend"),
			expected: "<p>Hola amigo</p>",
		},
		{
			name:     "later key still matches untouched text",
			html:     "<p>Hello</p><p>amigo</p>",
			mapping:  mappingOf("Hello", "Hola amigo", "amigo", "friend"),
			expected: "<p>Hola amigo</p><p>friend</p>",
		},
		{
			name:     "translation containing an earlier key",
			html:     "<p>Books</p><p>Shop</p>",
			mapping:  mappingOf("Books", "Libros", "Shop", "Books shop"),
			expected: "<p>Libros</p><p>Books shop</p>",
		},
		{
			name:     "template output not matched by a later key",
			html:     "<li>3 Books</li>",
			mapping:  mappingOf("::NUM:: Books", "::NUM:: Libros", "Libros", "Tomos"),
			expected: "<li>3 Libros</li>",
		},
		{
			name:     "escaped form output not matched by a later key",
			html:     "<p>Tom &amp; Jerry</p>",
			mapping:  mappingOf("Tom & Jerry", "Tom y Jerry", "Tom", "Tomás"),
			expected: "<p>Tom y Jerry</p>",
		},
		{
			name:     "empty pairs skipped",
			html:     "<p>Hello</p>",
			mapping:  mappingOf("", "Hola", "Hello", ""),
			expected: "<p>Hello</p>",
		},
		{
			name:     "no match",
			html:     "<h1>Welcome</h1>",
			mapping:  mappingOf("Goodbye", "Adiós"),
			expected: "<h1>Welcome</h1>",
		},
		{
			name:     "template injects digits",
			html:     "<p>42 Books</p>",
			mapping:  mappingOf("::NUM:: Books", "::NUM:: Libros"),
			expected: "<p>42 Libros</p>",
		},
		{
			name:     "template with several placeholders",
			html:     "<span>Page 2 of 12</span>",
			mapping:  mappingOf("Page ::NUM:: of ::NUM::", "Página ::NUM:: de ::NUM::"),
			expected: "<span>Página 2 de 12</span>",
		},
		{
			name:     "template literal with regex metacharacters",
			html:     "<td>Price (USD) 25.</td>",
			mapping:  mappingOf("Price (USD) ::NUM::.", "Precio (USD) ::NUM::."),
			expected: "<td>Precio (USD) 25.</td>",
		},
		{
			name:     "template every match",
			html:     "<li>3 Books</li><li>7 Books</li>",
			mapping:  mappingOf("::NUM:: Books", "::NUM:: Libros"),
			expected: "<li>3 Libros</li><li>7 Libros</li>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Apply(tt.html, tt.mapping)
			if result != tt.expected {
				t.Errorf("Apply() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestApply_NumericPolicyEndToEnd(t *testing.T) {
	m := BuildMapping([]Entry{
		{OriginalText: "10 Books", TranslatedText: "10 Libros", Status: StatusActive},
	}, false)

	html := "<p>10 Books</p><p>42 Books</p>"
	expected := "<p>10 Libros</p><p>42 Libros</p>"

	if got := Apply(html, m); got != expected {
		t.Errorf("Apply() = %q, want %q", got, expected)
	}
}

func TestApply_Idempotent(t *testing.T) {
	m := BuildMapping([]Entry{
		{OriginalText: "Welcome", TranslatedText: "Bienvenido", Status: StatusActive},
		{OriginalText: "Books", TranslatedText: "Libros", Status: StatusActive},
		{OriginalText: "Page 1 of 3", TranslatedText: "Página 1 de 3", Status: StatusActive},
		{OriginalText: "Tom & Jerry", TranslatedText: "Tom y Jerry", Status: StatusActive},
	}, false)

	html := `<h1>Welcome</h1><p>Books</p><nav>Page 2 of 9</nav><p title="Tom &amp; Jerry">Tom &amp; Jerry</p>`

	once := Apply(html, m)
	twice := Apply(once, m)
	if once != twice {
		t.Errorf("second pass changed output:\nonce:  %s\ntwice: %s", once, twice)
	}
	if !strings.Contains(once, "Página 2 de 9") {
		t.Errorf("template not applied: %s", once)
	}
}

func TestApply_NilAndEmpty(t *testing.T) {
	if got := Apply("<p>Hi</p>", nil); got != "<p>Hi</p>" {
		t.Errorf("nil mapping changed output: %q", got)
	}
	if got := Apply("", mappingOf("Hi", "Hola")); got != "" {
		t.Errorf("empty html changed: %q", got)
	}
}

func TestTextProcessor(t *testing.T) {
	p := NewTextProcessor()
	if p.ContentType() != "text" {
		t.Errorf("unexpected content type %q", p.ContentType())
	}

	out, err := p.Apply("<b>Hello</b>", mappingOf("Hello", "Hola"))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if out != "<b>Hola</b>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestEscapedForms(t *testing.T) {
	if forms := escapedForms("Plain text"); forms != nil {
		t.Errorf("expected no escaped forms, got %v", forms)
	}

	forms := escapedForms(`Say "hi"`)
	want := map[string]bool{"Say &#34;hi&#34;": true, "Say &quot;hi&quot;": true}
	if len(forms) != 2 {
		t.Fatalf("expected 2 forms, got %v", forms)
	}
	for _, f := range forms {
		if !want[f] {
			t.Errorf("unexpected form %q", f)
		}
	}

	// html.EscapeString and the named form agree on ampersands
	if forms := escapedForms("A & B"); len(forms) != 1 || forms[0] != "A &amp; B" {
		t.Errorf("unexpected forms for ampersand: %v", forms)
	}
}
