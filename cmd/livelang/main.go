// Command livelang serves a translated site and manages stored translations.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ZaguanLabs/livelang"
	"github.com/ZaguanLabs/livelang/cache"
	"github.com/ZaguanLabs/livelang/internal/config"
	"github.com/ZaguanLabs/livelang/internal/server"
	"github.com/ZaguanLabs/livelang/processor"
	"github.com/ZaguanLabs/livelang/store"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = livelang.Version
	commit    = livelang.GitCommit
	buildDate = livelang.BuildDate
)

const usage = `Usage: livelang <command> [flags]

Commands:
  serve       Serve the site with translations applied
  apply       Apply stored translations to an HTML file
  export      Export translations as JSON
  import      Import translations from a JSON export
  clear       Delete every stored translation
  languages   List configured languages
  migrate     Apply database migrations
  version     Show version

Configuration is read from LIVELANG_* environment variables and .env.
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("missing command")
	}

	// Load .env if present; real environment variables take precedence.
	_ = godotenv.Load()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "serve":
		return runServe(rest, stderr)
	case "apply":
		return runApply(rest, stdout, stderr)
	case "export":
		return runExport(rest, stdout, stderr)
	case "import":
		return runImport(rest, stdout, stderr)
	case "clear":
		return runClear(rest, stdout, stderr)
	case "languages":
		return runLanguages(rest, stdout, stderr)
	case "migrate":
		return runMigrate(rest, stdout, stderr)
	case "version", "--version", "-version":
		printVersion(stdout)
		return nil
	case "help", "--help", "-h":
		fmt.Fprint(stdout, usage)
		return nil
	}

	fmt.Fprint(stderr, usage)
	return fmt.Errorf("unknown command %q", cmd)
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", livelang.Name, version)
	if commit != "unknown" && commit != "" {
		fmt.Fprintf(w, "  commit:  %s\n", commit)
	}
	if buildDate != "unknown" && buildDate != "" {
		fmt.Fprintf(w, "  built:   %s\n", buildDate)
	}
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevelValue()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openStore opens and migrates the configured database.
func openStore(cfg *config.Config) (*store.DB, error) {
	if cfg.DBDriver == store.DriverSQLite || cfg.DBDriver == "sqlite3" {
		if dir := filepath.Dir(cfg.DBDSN); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
	}

	db, err := store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := store.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return db, nil
}

// newCache returns the shared Redis cache when configured, otherwise an
// in-process cache.
func newCache(ctx context.Context, cfg *config.Config) (livelang.TranslationCache, func(), error) {
	if !cfg.UseRedisCache() {
		return cache.NewInMemoryCache(cfg.CacheTTL()), func() {}, nil
	}
	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		URL:       cfg.RedisURL,
		TTL:       cfg.CacheTTL(),
		KeyPrefix: cfg.CachePrefix,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return rc, func() { _ = rc.Close() }, nil
}

func contentProcessor(mode string) livelang.ContentProcessor {
	if mode == "html" {
		return processor.NewHTMLProcessor()
	}
	return livelang.NewTextProcessor()
}

func runServe(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg, stderr)
	slog.SetDefault(logger)

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	renderCache, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	translations := store.NewTranslationStore(db)
	settings := store.NewSettingsStore(db)
	overlay := livelang.NewOverlay(translations,
		livelang.WithCache(renderCache),
		livelang.WithCacheTTL(cfg.CacheTTL()),
		livelang.WithSettings(settings),
		livelang.WithProcessor(contentProcessor(cfg.OverlayMode)),
		livelang.WithDefaultLanguage(cfg.DefaultLanguage),
		livelang.WithLogger(logger),
	)

	srv, err := server.New(cfg, server.Deps{
		Overlay:      overlay,
		Translations: translations,
		Settings:     settings,
		Languages:    livelang.NewLanguageRegistry(store.NewLanguageStore(db), livelang.WithLanguageLimit(cfg.LanguageLimit)),
		Cache:        renderCache,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	logger.Info("livelang starting",
		"version", livelang.FullVersion(),
		"db_driver", cfg.DBDriver,
		"redis", cfg.UseRedisCache(),
		"mode", cfg.OverlayMode,
	)
	return srv.Run(ctx)
}

// ApplyOutput is the JSON form of an apply run.
type ApplyOutput struct {
	Content   string `json:"content"`
	Slug      string `json:"slug"`
	Language  string `json:"language"`
	MapSize   int    `json:"map_size"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

func runApply(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	fs.SetOutput(stderr)

	slug := fs.String("slug", livelang.HomeSlug, "Page slug whose translations apply")
	lang := fs.String("lang", "", "Target language code (default: LIVELANG_DEFAULT_LANGUAGE)")
	mode := fs.String("mode", "", "Substitution mode: text or html (default: LIVELANG_OVERLAY_MODE)")
	output := fs.String("output", "", "Output file (default: stdout)")
	outputShort := fs.String("o", "", "Output file (short for --output)")
	jsonOutput := fs.Bool("json", false, "Output result as JSON")
	quiet := fs.Bool("quiet", false, "Suppress progress output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outputShort != "" && *output == "" {
		*output = *outputShort
	}

	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	if *lang == "" {
		*lang = cfg.DefaultLanguage
	}
	if *mode == "" {
		*mode = cfg.OverlayMode
	}
	if *mode != "text" && *mode != "html" {
		return fmt.Errorf("--mode must be text or html, got %q", *mode)
	}

	var input []byte
	if fs.NArg() == 0 {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	} else {
		input, err = os.ReadFile(fs.Arg(0)) // #nosec G304 - CLI tool reads user-specified files
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	overlay := livelang.NewOverlay(store.NewTranslationStore(db),
		livelang.WithSettings(store.NewSettingsStore(db)),
		livelang.WithProcessor(contentProcessor(*mode)),
		livelang.WithDefaultLanguage(cfg.DefaultLanguage),
		livelang.WithLogger(newLogger(cfg, stderr)),
	)

	page := livelang.Page{Slug: livelang.NormalizeSlug(*slug), Language: *lang}
	start := time.Now()
	result := overlay.Process(context.Background(), page, string(input))
	elapsed := time.Since(start)

	var out io.Writer = stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if *jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ApplyOutput{
			Content:   result.Content,
			Slug:      page.Slug,
			Language:  page.Language,
			MapSize:   result.MapSize,
			ElapsedMs: elapsed.Milliseconds(),
		})
	}

	fmt.Fprint(out, result.Content)
	if !*quiet {
		fmt.Fprintf(stderr, "\nApplied %d translations for %s/%s in %v\n",
			result.MapSize, page.Language, page.Slug, elapsed.Round(time.Millisecond))
	}
	return nil
}

func runExport(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("o", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	exporter := store.NewExporter(store.NewTranslationStore(db))
	metadata := map[string]string{"tool": livelang.UserAgent()}
	ctx := context.Background()

	if *output != "" {
		n, err := exporter.ExportToFile(ctx, *output, metadata)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Exported %d translations to %s\n", n, *output)
		return nil
	}

	_, err = exporter.Export(ctx, stdout, metadata)
	return err
}

func runImport(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: livelang import <file>")
	}

	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	result, err := store.NewImporter(store.NewTranslationStore(db)).ImportFromFile(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Imported %d, skipped %d, failed %d\n", result.Imported, result.Skipped, result.Failed)

	return flushSharedCache(ctx, cfg)
}

func runClear(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	fs.SetOutput(stderr)
	yes := fs.Bool("yes", false, "Confirm deleting every translation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("refusing to delete all translations without --yes")
	}

	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := store.NewTranslationStore(db).DeleteAll(ctx); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "All translations deleted")

	return flushSharedCache(ctx, cfg)
}

// flushSharedCache drops Redis mappings a running server would otherwise
// keep serving after a bulk change. The in-process cache dies with the server.
func flushSharedCache(ctx context.Context, cfg *config.Config) error {
	if !cfg.UseRedisCache() {
		return nil
	}
	c, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	if err := c.Clear(ctx); err != nil {
		return fmt.Errorf("flushing render cache: %w", err)
	}
	return nil
}

func runLanguages(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("languages", flag.ContinueOnError)
	fs.SetOutput(stderr)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	registry := livelang.NewLanguageRegistry(store.NewLanguageStore(db), livelang.WithLanguageLimit(cfg.LanguageLimit))
	langs, err := registry.List(context.Background())
	if err != nil {
		return err
	}

	if *jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(langs)
	}

	for _, l := range langs {
		marker := ""
		if l.IsDefault {
			marker = " (default)"
		}
		fmt.Fprintf(stdout, "%-5s %s [%s]%s\n", l.Code, l.Label, livelang.GetDirection(l.Code), marker)
	}
	return nil
}

func runMigrate(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(stdout, "Database %s is up to date\n", db.Adapter().Name())
	return nil
}
