package livelang

import "time"

// Status is the lifecycle state of a translation entry.
type Status string

const (
	// StatusActive entries take part in substitution.
	StatusActive Status = "active"
	// StatusInactive entries are kept but ignored when rendering.
	StatusInactive Status = "inactive"
)

// Toggle returns the opposite status.
func (s Status) Toggle() Status {
	if s == StatusActive {
		return StatusInactive
	}
	return StatusActive
}

// HomeSlug identifies the site root.
const HomeSlug = "home"

// NumPlaceholder replaces digit runs in numeric-normalized keys and values.
const NumPlaceholder = "::NUM::"

// Entry is a stored translation.
type Entry struct {
	ID             int64     `db:"id" json:"id"`
	OriginalText   string    `db:"original_text" json:"original_text"`
	TranslatedText string    `db:"translated_text" json:"translated_text"`
	Slug           string    `db:"slug" json:"slug"`
	Language       string    `db:"language" json:"language"`
	IsGlobal       bool      `db:"is_global" json:"is_global"`
	Status         Status    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Active reports whether the entry participates in substitution.
func (e Entry) Active() bool {
	return e.Status == StatusActive
}

// EntryFields holds the mutable columns of an entry. Nil fields are left untouched.
type EntryFields struct {
	TranslatedText *string
	IsGlobal       *bool
	Status         *Status
}

// Language is a configured site language.
type Language struct {
	Code      string `json:"code" db:"code"`
	Label     string `json:"label" db:"label"`
	IsDefault bool   `json:"is_default" db:"is_default"`
	Order     int    `json:"order" db:"sort_order"`
}

// Settings are the site-wide overlay settings.
type Settings struct {
	Enabled          bool     `json:"enabled"`
	AllowedRoles     []string `json:"allowed_roles"`
	TranslateNumbers bool     `json:"translate_numbers"`
}

// DefaultSettings returns the settings used before anything is saved.
func DefaultSettings() Settings {
	return Settings{
		Enabled:          true,
		AllowedRoles:     []string{"administrator"},
		TranslateNumbers: false,
	}
}

// RoleAllowed reports whether role may edit translations.
// The pseudo-role "all" opens editing to every authenticated caller.
func (s Settings) RoleAllowed(role string) bool {
	for _, r := range s.AllowedRoles {
		if r == "all" || (role != "" && r == role) {
			return true
		}
	}
	return false
}

// SaveRequest is the payload of a save operation.
type SaveRequest struct {
	Original   string
	Translated string
	Slug       string
	Language   string
	IsGlobal   bool
}

// ProcessedContent is the result of an overlay pass.
type ProcessedContent struct {
	Content   string // Rewritten content
	MapSize   int    // Number of pairs in the applied mapping
	FromCache bool   // Whether the mapping came from the render cache
}

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}
