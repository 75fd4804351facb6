package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZaguanLabs/livelang"
	"github.com/ZaguanLabs/livelang/store"
)

// setupDB points the CLI at a fresh database seeded with entries.
func setupDB(t *testing.T, entries ...livelang.Entry) string {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "data", "livelang.db")
	t.Setenv("LIVELANG_DB_DRIVER", "sqlite")
	t.Setenv("LIVELANG_DB_DSN", dsn)
	t.Setenv("LIVELANG_REDIS_URL", "")
	t.Setenv("LIVELANG_LOG_LEVEL", "error")

	if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil {
		t.Fatal(err)
	}
	db, err := store.Open(store.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer db.Close()
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	translations := store.NewTranslationStore(db)
	for i := range entries {
		if entries[i].Status == "" {
			entries[i].Status = livelang.StatusActive
		}
		if _, err := translations.Insert(context.Background(), &entries[i]); err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}
	return dsn
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run([]string{"version"}, &stdout, &stderr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout.String(), "livelang "+livelang.Version) {
		t.Errorf("expected version output, got: %s", stdout.String())
	}
}

func TestRun_NoCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(nil, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "missing command") {
		t.Fatalf("expected missing command error, got: %v", err)
	}
	if !strings.Contains(stderr.String(), "Usage: livelang") {
		t.Errorf("expected usage on stderr, got: %s", stderr.String())
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"translate"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), `unknown command "translate"`) {
		t.Fatalf("expected unknown command error, got: %v", err)
	}
}

func TestRun_Apply(t *testing.T) {
	setupDB(t,
		livelang.Entry{OriginalText: "Welcome", TranslatedText: "Bienvenido", Slug: "home", Language: "es"},
		livelang.Entry{OriginalText: "Contact", TranslatedText: "Contacto", Slug: "about", Language: "es"},
	)
	input := writeFile(t, "page.html", `<h1 class="Welcome">Welcome</h1><a>Contact</a>`)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"text mode", []string{"--lang", "es", "--quiet", input}, `<h1 class="Bienvenido">Bienvenido</h1><a>Contact</a>`},
		{"html mode", []string{"--lang", "es", "--mode", "html", "--quiet", input}, `<h1 class="Welcome">Bienvenido</h1><a>Contact</a>`},
		{"other slug", []string{"--lang", "es", "--slug", "/about/", "--quiet", input}, `<h1 class="Welcome">Welcome</h1><a>Contacto</a>`},
		{"other language", []string{"--lang", "fr", "--quiet", input}, `<h1 class="Welcome">Welcome</h1><a>Contact</a>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if err := run(append([]string{"apply"}, tt.args...), &stdout, &stderr); err != nil {
				t.Fatalf("apply failed: %v\n%s", err, stderr.String())
			}
			if stdout.String() != tt.want {
				t.Errorf("got %q, want %q", stdout.String(), tt.want)
			}
		})
	}
}

func TestRun_ApplyJSON(t *testing.T) {
	setupDB(t, livelang.Entry{OriginalText: "Welcome", TranslatedText: "Bienvenido", Slug: "home", Language: "es"})
	input := writeFile(t, "page.html", `<p>Welcome</p>`)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"apply", "--lang", "es", "--json", input}, &stdout, &stderr); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	var out ApplyOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if out.Content != `<p>Bienvenido</p>` || out.MapSize != 1 || out.Slug != "home" || out.Language != "es" {
		t.Errorf("unexpected output: %+v", out)
	}
}

func TestRun_ApplyOutputFile(t *testing.T) {
	setupDB(t, livelang.Entry{OriginalText: "Welcome", TranslatedText: "Bienvenido", Slug: "home", Language: "es"})
	input := writeFile(t, "page.html", `<p>Welcome</p>`)
	output := filepath.Join(t.TempDir(), "out.html")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"apply", "--lang", "es", "-o", output, input}, &stdout, &stderr); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `<p>Bienvenido</p>` {
		t.Errorf("output file = %q", data)
	}
	if !strings.Contains(stderr.String(), "Applied 1 translations for es/home") {
		t.Errorf("expected stats on stderr, got: %s", stderr.String())
	}
}

func TestRun_ApplyErrors(t *testing.T) {
	setupDB(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing file", []string{"apply", "--lang", "es", "/does/not/exist.html"}, "reading file"},
		{"bad mode", []string{"apply", "--mode", "dom", "x.html"}, "--mode must be text or html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(tt.args, &stdout, &stderr)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestRun_ExportClearImport(t *testing.T) {
	setupDB(t,
		livelang.Entry{OriginalText: "Welcome", TranslatedText: "Bienvenido", Slug: "home", Language: "es"},
		livelang.Entry{OriginalText: "Read more", TranslatedText: "Leer más", Language: "es", IsGlobal: true},
	)
	exportFile := filepath.Join(t.TempDir(), "export.json")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"export", "-o", exportFile}, &stdout, &stderr); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(stderr.String(), "Exported 2 translations") {
		t.Errorf("unexpected export output: %s", stderr.String())
	}

	stdout.Reset()
	if err := run([]string{"clear"}, &stdout, &stderr); err == nil {
		t.Fatal("clear without --yes should fail")
	}
	if err := run([]string{"clear", "--yes"}, &stdout, &stderr); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	stdout.Reset()
	if err := run([]string{"export"}, &stdout, &stderr); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	var empty store.ExportFormat
	if err := json.Unmarshal(stdout.Bytes(), &empty); err != nil {
		t.Fatalf("invalid export: %v", err)
	}
	if len(empty.Entries) != 0 {
		t.Errorf("expected no entries after clear, got %d", len(empty.Entries))
	}

	stdout.Reset()
	if err := run([]string{"import", exportFile}, &stdout, &stderr); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "Imported 2, skipped 0, failed 0") {
		t.Errorf("unexpected import output: %s", stdout.String())
	}

	stdout.Reset()
	if err := run([]string{"export"}, &stdout, &stderr); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	var restored store.ExportFormat
	if err := json.Unmarshal(stdout.Bytes(), &restored); err != nil {
		t.Fatalf("invalid export: %v", err)
	}
	if len(restored.Entries) != 2 {
		t.Errorf("expected 2 entries after import, got %d", len(restored.Entries))
	}
}

func TestRun_ImportUsage(t *testing.T) {
	setupDB(t)
	var stdout, stderr bytes.Buffer
	err := run([]string{"import"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "usage: livelang import") {
		t.Errorf("expected usage error, got: %v", err)
	}
}

func TestRun_Languages(t *testing.T) {
	setupDB(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"languages"}, &stdout, &stderr); err != nil {
		t.Fatalf("languages failed: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "English [ltr] (default)") || !strings.Contains(out, "Spanish [ltr]") {
		t.Errorf("unexpected languages output: %s", out)
	}

	stdout.Reset()
	if err := run([]string{"languages", "--json"}, &stdout, &stderr); err != nil {
		t.Fatalf("languages --json failed: %v", err)
	}
	var langs []livelang.Language
	if err := json.Unmarshal(stdout.Bytes(), &langs); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(langs) != 2 || langs[0].Code != "en" || !langs[0].IsDefault {
		t.Errorf("unexpected languages: %+v", langs)
	}
}

func TestRun_Migrate(t *testing.T) {
	setupDB(t)
	var stdout, stderr bytes.Buffer
	if err := run([]string{"migrate"}, &stdout, &stderr); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "Database sqlite is up to date") {
		t.Errorf("unexpected output: %s", stdout.String())
	}
}

func TestRun_ServeRejectsInvalidConfig(t *testing.T) {
	setupDB(t)
	t.Setenv("LIVELANG_OVERLAY_MODE", "dom")

	var stdout, stderr bytes.Buffer
	err := run([]string{"serve"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "LIVELANG_OVERLAY_MODE") {
		t.Errorf("expected config error, got: %v", err)
	}
}
