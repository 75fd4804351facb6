package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ZaguanLabs/livelang"
)

// ExportFormat represents the JSON structure for translation export/import.
type ExportFormat struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Entries    []ExportEntry     `json:"entries"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ExportEntry represents a single translation.
type ExportEntry struct {
	Original   string          `json:"original"`
	Translated string          `json:"translated"`
	Slug       string          `json:"slug"`
	Language   string          `json:"language"`
	IsGlobal   bool            `json:"is_global"`
	Status     livelang.Status `json:"status"`
}

// exportVersion is bumped when ExportFormat changes incompatibly.
const exportVersion = "1.0"

// Exporter writes stored translations as JSON.
type Exporter struct {
	store *TranslationStore
}

// NewExporter creates a new exporter.
func NewExporter(store *TranslationStore) *Exporter {
	return &Exporter{store: store}
}

// Export writes every translation, oldest first, to w.
func (e *Exporter) Export(ctx context.Context, w io.Writer, metadata map[string]string) (int, error) {
	entries, err := e.store.List(ctx, ListFilter{})
	if err != nil {
		return 0, fmt.Errorf("getting translations: %w", err)
	}

	out := make([]ExportEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		en := entries[i]
		out = append(out, ExportEntry{
			Original:   en.OriginalText,
			Translated: en.TranslatedText,
			Slug:       en.Slug,
			Language:   en.Language,
			IsGlobal:   en.IsGlobal,
			Status:     en.Status,
		})
	}

	export := ExportFormat{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Entries:    out,
		Metadata:   metadata,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return 0, fmt.Errorf("encoding JSON: %w", err)
	}

	return len(out), nil
}

// ExportToFile exports the translations to a file.
// The path is provided by the caller and is intentionally user-controlled.
func (e *Exporter) ExportToFile(ctx context.Context, path string, metadata map[string]string) (int, error) {
	f, err := os.Create(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return 0, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	return e.Export(ctx, f, metadata)
}

// Importer loads exported translations into the store.
type Importer struct {
	store *TranslationStore
}

// NewImporter creates a new importer.
func NewImporter(store *TranslationStore) *Importer {
	return &Importer{store: store}
}

// ImportResult contains statistics about the import operation.
type ImportResult struct {
	Version  string
	Metadata map[string]string
	Imported int
	Skipped  int
	Failed   int
}

// Import reads translations from r. Entries are sanitized like saves;
// entries left empty are skipped. Existing rows with the same scope are
// overwritten.
func (i *Importer) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var export ExportFormat
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}

	result := &ImportResult{
		Version:  export.Version,
		Metadata: export.Metadata,
	}

	for _, in := range export.Entries {
		e := &livelang.Entry{
			OriginalText:   livelang.SanitizeText(in.Original),
			TranslatedText: livelang.SanitizeText(in.Translated),
			Slug:           in.Slug,
			Language:       in.Language,
			IsGlobal:       in.IsGlobal,
			Status:         livelang.StatusActive,
		}
		if e.OriginalText == "" || e.TranslatedText == "" || (e.Slug == "" && !e.IsGlobal) {
			result.Skipped++
			continue
		}
		if _, err := i.store.Insert(ctx, e); err != nil {
			result.Failed++
			continue
		}
		if in.Status == livelang.StatusInactive {
			status := livelang.StatusInactive
			if err := i.store.Update(ctx, e.ID, livelang.EntryFields{Status: &status}); err != nil {
				result.Failed++
				continue
			}
		}
		result.Imported++
	}

	return result, nil
}

// ImportFromFile imports translations from a file.
// The path is provided by the caller and is intentionally user-controlled.
func (i *Importer) ImportFromFile(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return i.Import(ctx, f)
}
