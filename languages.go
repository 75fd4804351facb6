package livelang

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultLanguageLimit is the number of languages allowed when the cap is enforced.
const DefaultLanguageLimit = 3

var languageCodePattern = regexp.MustCompile(`^[a-z]{2,5}$`)

// ValidLanguageCode reports whether code is 2 to 5 lowercase ASCII letters.
func ValidLanguageCode(code string) bool {
	return languageCodePattern.MatchString(code)
}

// DefaultLanguages is the language set used until one is configured.
func DefaultLanguages() []Language {
	return []Language{
		{Code: "en", Label: "English", IsDefault: true, Order: 0},
		{Code: "es", Label: "Spanish", IsDefault: false, Order: 1},
	}
}

// GetLanguageName returns the English display name for a language code.
// Falls back to the code itself if not found.
func GetLanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// GetDirection returns "rtl" for right-to-left languages, "ltr" otherwise.
func GetDirection(code string) string {
	base := strings.ToLower(strings.Split(strings.ReplaceAll(code, "-", "_"), "_")[0])
	if RTLLanguages[base] {
		return "rtl"
	}
	return "ltr"
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(code string) bool {
	return GetDirection(code) == "rtl"
}

// MatchLanguage picks the configured code that best satisfies an
// Accept-Language header. It returns "" when nothing matches.
func MatchLanguage(acceptLanguage string, codes []string) string {
	if acceptLanguage == "" || len(codes) == 0 {
		return ""
	}
	accepted, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(accepted) == 0 {
		return ""
	}

	tags := make([]language.Tag, 0, len(codes))
	known := make([]string, 0, len(codes))
	for _, c := range codes {
		tag, err := language.Parse(c)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		known = append(known, c)
	}
	if len(tags) == 0 {
		return ""
	}

	_, idx, conf := language.NewMatcher(tags).Match(accepted...)
	if conf == language.No {
		return ""
	}
	return known[idx]
}

// LanguageRepository persists the configured language set as a whole.
type LanguageRepository interface {
	Languages(ctx context.Context) ([]Language, error)
	ReplaceLanguages(ctx context.Context, langs []Language) error
}

// LanguageRegistry enforces the rules of the language set: unique codes, one
// default, dense ordering and an optional cap.
type LanguageRegistry struct {
	repo  LanguageRepository
	limit int
	mu    sync.Mutex
}

// RegistryOption configures a LanguageRegistry.
type RegistryOption func(*LanguageRegistry)

// WithLanguageLimit sets the maximum number of languages; 0 disables the cap.
func WithLanguageLimit(n int) RegistryOption {
	return func(r *LanguageRegistry) {
		if n >= 0 {
			r.limit = n
		}
	}
}

// NewLanguageRegistry creates a registry over repo with the default cap.
func NewLanguageRegistry(repo LanguageRepository, opts ...RegistryOption) *LanguageRegistry {
	r := &LanguageRegistry{repo: repo, limit: DefaultLanguageLimit}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns the languages in display order, or DefaultLanguages when none
// are configured.
func (r *LanguageRegistry) List(ctx context.Context) ([]Language, error) {
	langs, err := r.repo.Languages(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list languages", Cause: err}
	}
	if len(langs) == 0 {
		return DefaultLanguages(), nil
	}
	sort.SliceStable(langs, func(i, j int) bool { return langs[i].Order < langs[j].Order })
	return langs, nil
}

// Codes returns the configured language codes in display order.
func (r *LanguageRegistry) Codes(ctx context.Context) ([]string, error) {
	langs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	codes := make([]string, len(langs))
	for i, l := range langs {
		codes[i] = l.Code
	}
	return codes, nil
}

// Default returns the code of the default language.
func (r *LanguageRegistry) Default(ctx context.Context) (string, error) {
	langs, err := r.List(ctx)
	if err != nil {
		return "", err
	}
	for _, l := range langs {
		if l.IsDefault {
			return l.Code, nil
		}
	}
	return langs[0].Code, nil
}

// Add appends a language. An empty label falls back to the English name of
// the code.
func (r *LanguageRegistry) Add(ctx context.Context, code, label string) (Language, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code = strings.TrimSpace(code)
	if !ValidLanguageCode(code) {
		return Language{}, &ValidationError{Field: "code", Message: "must be 2 to 5 lowercase letters"}
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = GetLanguageName(code)
		if label == code {
			return Language{}, &ValidationError{Field: "label", Message: "is required"}
		}
	}

	langs, err := r.List(ctx)
	if err != nil {
		return Language{}, err
	}
	if indexOf(langs, code) >= 0 {
		return Language{}, &ValidationError{Field: "code", Message: "language " + code + " already exists"}
	}
	if r.limit > 0 && len(langs) >= r.limit {
		return Language{}, &CapacityError{Limit: r.limit}
	}

	added := Language{Code: code, Label: label, Order: len(langs)}
	langs = append(langs, added)
	if err := r.save(ctx, langs); err != nil {
		return Language{}, err
	}
	return added, nil
}

// Update changes the label of an existing language.
func (r *LanguageRegistry) Update(ctx context.Context, code, label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	label = strings.TrimSpace(label)
	if label == "" {
		return &ValidationError{Field: "label", Message: "is required"}
	}

	langs, err := r.List(ctx)
	if err != nil {
		return err
	}
	i := indexOf(langs, code)
	if i < 0 {
		return &NotFoundError{Kind: "language", Key: code}
	}
	langs[i].Label = label
	return r.save(ctx, langs)
}

// Delete removes a language. Deleting the default promotes the first
// remaining language.
func (r *LanguageRegistry) Delete(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	langs, err := r.List(ctx)
	if err != nil {
		return err
	}
	i := indexOf(langs, code)
	if i < 0 {
		return &NotFoundError{Kind: "language", Key: code}
	}
	wasDefault := langs[i].IsDefault
	langs = append(langs[:i], langs[i+1:]...)
	if wasDefault && len(langs) > 0 {
		langs[0].IsDefault = true
	}
	return r.save(ctx, langs)
}

// Reorder assigns display order from the position of each code in codes.
// codes must name every configured language exactly once.
func (r *LanguageRegistry) Reorder(ctx context.Context, codes []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	langs, err := r.List(ctx)
	if err != nil {
		return err
	}
	if len(codes) != len(langs) {
		return &ValidationError{Field: "order", Message: "must list every configured language once"}
	}

	reordered := make([]Language, 0, len(langs))
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		i := indexOf(langs, code)
		if i < 0 || seen[code] {
			return &ValidationError{Field: "order", Message: "must list every configured language once"}
		}
		seen[code] = true
		reordered = append(reordered, langs[i])
	}
	return r.save(ctx, reordered)
}

// SetDefault makes code the only default language.
func (r *LanguageRegistry) SetDefault(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	langs, err := r.List(ctx)
	if err != nil {
		return err
	}
	if indexOf(langs, code) < 0 {
		return &NotFoundError{Kind: "language", Key: code}
	}
	for i := range langs {
		langs[i].IsDefault = langs[i].Code == code
	}
	return r.save(ctx, langs)
}

// save renumbers orders densely and replaces the stored set.
func (r *LanguageRegistry) save(ctx context.Context, langs []Language) error {
	for i := range langs {
		langs[i].Order = i
	}
	if err := r.repo.ReplaceLanguages(ctx, langs); err != nil {
		return &StoreError{Op: "save languages", Cause: err}
	}
	return nil
}

func indexOf(langs []Language, code string) int {
	for i, l := range langs {
		if l.Code == code {
			return i
		}
	}
	return -1
}
