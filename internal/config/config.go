// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// MinCSRFKeyLength is the minimum length of the CSRF authentication key.
const MinCSRFKeyLength = 32

// Config holds the server configuration loaded from environment variables.
type Config struct {
	Env        string `env:"LIVELANG_ENV" envDefault:"development"`
	LogLevel   string `env:"LIVELANG_LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"LIVELANG_LOG_FORMAT" envDefault:"text"` // text or json
	ServerHost string `env:"LIVELANG_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"LIVELANG_SERVER_PORT" envDefault:"8080"`

	// Database
	DBDriver string `env:"LIVELANG_DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"LIVELANG_DB_DSN" envDefault:"./data/livelang.db"`

	// Render cache
	RedisURL       string `env:"LIVELANG_REDIS_URL"` // Optional Redis URL for a shared cache
	CachePrefix    string `env:"LIVELANG_CACHE_PREFIX" envDefault:"livelang:"`
	CacheTTLHours  int    `env:"LIVELANG_CACHE_TTL_HOURS" envDefault:"12"`
	CacheSweepSpec string `env:"LIVELANG_CACHE_SWEEP" envDefault:"@every 10m"` // cron spec for in-memory sweeps
	WarmCache      bool   `env:"LIVELANG_WARM_CACHE" envDefault:"false"`
	WarmWorkers    int    `env:"LIVELANG_WARM_WORKERS" envDefault:"4"`

	// Editing
	EditorToken    string   `env:"LIVELANG_EDITOR_TOKEN"`
	CSRFKey        string   `env:"LIVELANG_CSRF_KEY"`
	TrustedOrigins []string `env:"LIVELANG_TRUSTED_ORIGINS" envSeparator:","`
	SaveRateLimit  int      `env:"LIVELANG_SAVE_RATE" envDefault:"60"` // saves per minute per client
	SaveRateBurst  int      `env:"LIVELANG_SAVE_BURST" envDefault:"10"`
	LanguageLimit  int      `env:"LIVELANG_LANGUAGE_LIMIT" envDefault:"3"` // 0 disables the cap

	// Site being translated
	Upstream        string `env:"LIVELANG_UPSTREAM"`                       // origin URL to proxy
	StaticDir       string `env:"LIVELANG_STATIC_DIR"`                     // or a directory of pages
	OverlayMode     string `env:"LIVELANG_OVERLAY_MODE" envDefault:"text"` // text or html
	DefaultLanguage string `env:"LIVELANG_DEFAULT_LANGUAGE" envDefault:"en"`
}

// IsDevelopment returns true if the server is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// CacheTTL returns the render cache TTL.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// LogLevelValue maps LogLevel to a slog level.
func (c Config) LogLevelValue() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Parse reads environment variables into a Config without validating it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case "sqlite", "sqlite3", "mysql":
	default:
		errs = append(errs, fmt.Errorf("LIVELANG_DB_DRIVER must be sqlite or mysql, got %q", c.DBDriver))
	}
	if c.DBDSN == "" {
		errs = append(errs, errors.New("LIVELANG_DB_DSN must not be empty"))
	}

	switch c.OverlayMode {
	case "text", "html":
	default:
		errs = append(errs, fmt.Errorf("LIVELANG_OVERLAY_MODE must be text or html, got %q", c.OverlayMode))
	}

	if c.CacheTTLHours <= 0 {
		errs = append(errs, fmt.Errorf("LIVELANG_CACHE_TTL_HOURS must be positive, got %d", c.CacheTTLHours))
	}
	if c.LanguageLimit < 0 {
		errs = append(errs, fmt.Errorf("LIVELANG_LANGUAGE_LIMIT must not be negative, got %d", c.LanguageLimit))
	}
	if c.SaveRateLimit <= 0 || c.SaveRateBurst <= 0 {
		errs = append(errs, errors.New("LIVELANG_SAVE_RATE and LIVELANG_SAVE_BURST must be positive"))
	}

	if c.Upstream != "" && c.StaticDir != "" {
		errs = append(errs, errors.New("set only one of LIVELANG_UPSTREAM and LIVELANG_STATIC_DIR"))
	}
	if c.Upstream != "" {
		u, err := url.Parse(c.Upstream)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("LIVELANG_UPSTREAM must be an absolute URL, got %q", c.Upstream))
		}
	}

	if c.CSRFKey != "" && len(c.CSRFKey) < MinCSRFKeyLength {
		errs = append(errs, fmt.Errorf("LIVELANG_CSRF_KEY must be at least %d bytes long, got %d bytes",
			MinCSRFKeyLength, len(c.CSRFKey)))
	}
	if !c.IsDevelopment() && c.EditorToken == "" {
		errs = append(errs, errors.New("LIVELANG_EDITOR_TOKEN is required outside development"))
	}

	for _, origin := range c.TrustedOrigins {
		if strings.Contains(origin, "://") {
			errs = append(errs, fmt.Errorf("LIVELANG_TRUSTED_ORIGINS entries must be host[:port], got %q", origin))
		}
	}

	return errors.Join(errs...)
}
