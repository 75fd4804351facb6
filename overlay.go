package livelang

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DefaultCacheTTL is how long a page mapping stays in the render cache.
const DefaultCacheTTL = 12 * time.Hour

// Overlay builds per-page mappings and applies them to rendered HTML.
type Overlay struct {
	store           EntryStore
	settings        SettingsSource
	cache           TranslationCache
	cacheTTL        time.Duration
	processor       ContentProcessor
	defaultLanguage string
	logger          *slog.Logger
}

// EntrySource is the read side of the translation store used when rendering.
// The result must include global entries.
type EntrySource interface {
	ActiveEntriesForSlug(ctx context.Context, slug, language string) ([]Entry, error)
}

// EntryStore is the translation store consumed by the overlay.
type EntryStore interface {
	EntrySource
	// OneByOriginalAndSlug returns the active entry matching original for the
	// page or a global one. It returns ErrNotFound when nothing matches.
	OneByOriginalAndSlug(ctx context.Context, original, slug, language string) (*Entry, error)
	// Insert stores e. Inserting an existing (original, slug, language) tuple
	// updates that row instead of creating a duplicate.
	Insert(ctx context.Context, e *Entry) (int64, error)
	Update(ctx context.Context, id int64, fields EntryFields) error
	DeleteAll(ctx context.Context) error
}

// SettingsSource provides the site-wide settings.
type SettingsSource interface {
	Settings(ctx context.Context) (Settings, error)
}

// TranslationCache is the interface for the render cache.
// A failed Get is reported as a miss.
type TranslationCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// OverlayOption is a functional option for configuring the Overlay.
type OverlayOption func(*Overlay)

// WithCache sets the render cache.
func WithCache(cache TranslationCache) OverlayOption {
	return func(o *Overlay) {
		o.cache = cache
	}
}

// WithCacheTTL sets how long mappings stay cached.
func WithCacheTTL(ttl time.Duration) OverlayOption {
	return func(o *Overlay) {
		if ttl > 0 {
			o.cacheTTL = ttl
		}
	}
}

// WithSettings sets the settings source. Without it DefaultSettings apply.
func WithSettings(s SettingsSource) OverlayOption {
	return func(o *Overlay) {
		o.settings = s
	}
}

// WithProcessor replaces the default string-level processor.
func WithProcessor(p ContentProcessor) OverlayOption {
	return func(o *Overlay) {
		o.processor = p
	}
}

// WithDefaultLanguage sets the language used when a page carries none.
func WithDefaultLanguage(code string) OverlayOption {
	return func(o *Overlay) {
		if code != "" {
			o.defaultLanguage = code
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) OverlayOption {
	return func(o *Overlay) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOverlay creates an overlay reading translations from store.
func NewOverlay(store EntryStore, opts ...OverlayOption) *Overlay {
	o := &Overlay{
		store:           store,
		cacheTTL:        DefaultCacheTTL,
		processor:       NewTextProcessor(),
		defaultLanguage: "en",
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// DefaultLanguage returns the language used for pages without one.
func (o *Overlay) DefaultLanguage() string {
	return o.defaultLanguage
}

// Process rewrites content for page. It never fails: when the mapping cannot
// be built or applied the content is returned unchanged.
func (o *Overlay) Process(ctx context.Context, page Page, content string) *ProcessedContent {
	m, fromCache := o.BuildMap(ctx, page)
	result := &ProcessedContent{Content: content, MapSize: m.Len(), FromCache: fromCache}
	if m.Len() == 0 {
		return result
	}

	out, err := o.processor.Apply(content, m)
	if err != nil {
		o.logger.Warn("applying translations failed", "processor", o.processor.ContentType(), "error", err)
		return result
	}
	result.Content = out
	return result
}

// ProcessRequest rewrites content for the page stored in ctx.
// Without a page in ctx the content is returned unchanged.
func (o *Overlay) ProcessRequest(ctx context.Context, content string) *ProcessedContent {
	page, ok := PageFromContext(ctx)
	if !ok {
		return &ProcessedContent{Content: content}
	}
	return o.Process(ctx, page, content)
}

// Save validates, sanitizes and persists a translation, then invalidates the
// cached mapping it affects.
func (o *Overlay) Save(ctx context.Context, req SaveRequest) (int64, error) {
	req, err := o.prepareSave(req)
	if err != nil {
		return 0, err
	}

	var id int64
	existing, err := o.store.OneByOriginalAndSlug(ctx, req.Original, req.Slug, req.Language)
	switch {
	case err == nil:
		id = existing.ID
		err = o.store.Update(ctx, id, EntryFields{
			TranslatedText: &req.Translated,
			IsGlobal:       &req.IsGlobal,
		})
		if err != nil {
			return 0, &StoreError{Op: "update translation", Cause: err}
		}
	case errors.Is(err, ErrNotFound):
		id, err = o.store.Insert(ctx, &Entry{
			OriginalText:   req.Original,
			TranslatedText: req.Translated,
			Slug:           req.Slug,
			Language:       req.Language,
			IsGlobal:       req.IsGlobal,
			Status:         StatusActive,
		})
		if err != nil {
			return 0, &StoreError{Op: "insert translation", Cause: err}
		}
	default:
		return 0, &StoreError{Op: "lookup translation", Cause: err}
	}

	// A global entry shows up on every page, so every cached mapping is stale.
	if req.IsGlobal || (existing != nil && existing.IsGlobal) {
		err = o.Invalidate(ctx, "", "")
	} else {
		err = o.Invalidate(ctx, req.Language, req.Slug)
	}
	if err != nil {
		o.logger.Warn("invalidating render cache failed", "error", err)
	}

	o.logger.Info("translation saved", "id", id, "slug", req.Slug, "language", req.Language, "global", req.IsGlobal)
	return id, nil
}

// Invalidate drops cached mappings. With both language and slug it drops the
// one page; otherwise it flushes the whole cache.
func (o *Overlay) Invalidate(ctx context.Context, language, slug string) error {
	if o.cache == nil {
		return nil
	}
	if language == "" || slug == "" {
		if err := o.cache.Clear(ctx); err != nil {
			return &CacheError{Message: "flush failed", Cause: err}
		}
		return nil
	}
	if err := o.cache.Delete(ctx, CacheKey(language, slug)); err != nil {
		return &CacheError{Message: "delete failed", Cause: err}
	}
	return nil
}

// ClearAll deletes every stored translation and flushes the render cache.
func (o *Overlay) ClearAll(ctx context.Context) error {
	if err := o.store.DeleteAll(ctx); err != nil {
		return &StoreError{Op: "delete all translations", Cause: err}
	}
	return o.Invalidate(ctx, "", "")
}

func (o *Overlay) normalizePage(page Page) Page {
	if page.Language == "" {
		page.Language = o.defaultLanguage
	}
	page.Slug = NormalizeSlug(page.Slug)
	return page
}

func (o *Overlay) prepareSave(req SaveRequest) (SaveRequest, error) {
	req.Original = SanitizeText(req.Original)
	req.Translated = SanitizeText(req.Translated)

	if req.Original == "" {
		return req, &ValidationError{Field: "original", Message: "must not be empty"}
	}
	if req.Translated == "" {
		return req, &ValidationError{Field: "translated", Message: "must not be empty"}
	}

	if req.Language == "" {
		req.Language = o.defaultLanguage
	}
	if !ValidLanguageCode(req.Language) {
		return req, &ValidationError{Field: "language", Message: "must be 2 to 5 lowercase letters"}
	}

	if req.Slug == "" && !req.IsGlobal {
		return req, &ValidationError{Field: "slug", Message: "is required unless the translation is global"}
	}
	if req.Slug != "" {
		req.Slug = NormalizeSlug(req.Slug)
		if !ValidSlug(req.Slug) {
			return req, &ValidationError{Field: "slug", Message: "contains invalid characters"}
		}
	}

	return req, nil
}
