package livelang

import "testing"

func active(original, translated string) Entry {
	return Entry{OriginalText: original, TranslatedText: translated, Status: StatusActive}
}

func TestBuildMapping_SkipsInactiveAndEmpty(t *testing.T) {
	m := BuildMapping([]Entry{
		active("Welcome", "Bienvenido"),
		{OriginalText: "Hidden", TranslatedText: "Oculto", Status: StatusInactive},
		active("  ", "Nada"),
		active("Blank", " "),
	}, true)

	if m.Len() != 1 {
		t.Fatalf("expected 1 pair, got %v", m.Pairs())
	}
	if v, _ := m.Get("Welcome"); v != "Bienvenido" {
		t.Errorf("unexpected value %q", v)
	}
}

func TestBuildMapping_NormalizesWhitespace(t *testing.T) {
	m := BuildMapping([]Entry{active("  Hello \n World ", "Hola   Mundo")}, true)

	if v, ok := m.Get("Hello World"); !ok || v != "Hola Mundo" {
		t.Errorf("Get(Hello World) = %q, %v", v, ok)
	}
}

func TestBuildMapping_NumericPolicy(t *testing.T) {
	entries := []Entry{active("10 Books", "10 Libros")}

	off := BuildMapping(entries, false)
	if v, ok := off.Get("::NUM:: Books"); !ok || v != "::NUM:: Libros" {
		t.Errorf("normalized pair missing: %q, %v", v, ok)
	}
	if _, ok := off.Get("10 Books"); !ok {
		t.Error("exact pair must be kept")
	}

	on := BuildMapping(entries, true)
	if on.Len() != 1 {
		t.Errorf("translateNumbers should not add normalized pairs, got %v", on.Pairs())
	}
}

func TestBuildMapping_NormalizedDoesNotOverwrite(t *testing.T) {
	m := BuildMapping([]Entry{
		active("10 Books", "10 Libros"),
		active("20 Books", "20 Tomos"),
	}, false)

	if v, _ := m.Get("::NUM:: Books"); v != "::NUM:: Libros" {
		t.Errorf("first normalized pair should win, got %q", v)
	}
	if v, _ := m.Get("20 Books"); v != "20 Tomos" {
		t.Errorf("exact pair missing, got %q", v)
	}
}

func TestBuildMapping_ExactLastWriteWins(t *testing.T) {
	m := BuildMapping([]Entry{
		active("Welcome", "Bienvenido"),
		active("Welcome", "Bienvenidos"),
	}, false)

	if v, _ := m.Get("Welcome"); v != "Bienvenidos" {
		t.Errorf("expected last write to win, got %q", v)
	}
}

func TestBuildMapping_BareNumbersHaveNoTemplate(t *testing.T) {
	m := BuildMapping([]Entry{active("2024", "MMXXIV")}, false)

	if m.Len() != 1 {
		t.Errorf("a number-only key must not become a template, got %v", m.Pairs())
	}
}
