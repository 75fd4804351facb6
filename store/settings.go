package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ZaguanLabs/livelang"
)

const (
	settingEnabled          = "enabled"
	settingAllowedRoles     = "allowed_roles"
	settingTranslateNumbers = "translate_numbers"
)

// SettingsStore persists site-wide settings as name/value rows.
type SettingsStore struct {
	db *DB
}

// NewSettingsStore creates a settings store on db.
func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Settings returns the stored settings over livelang.DefaultSettings.
func (s *SettingsStore) Settings(ctx context.Context) (livelang.Settings, error) {
	settings := livelang.DefaultSettings()

	rows := []struct {
		Name  string `db:"name"`
		Value string `db:"value"`
	}{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT name, value FROM livelang_settings`); err != nil {
		return settings, fmt.Errorf("selecting settings: %w", err)
	}

	for _, r := range rows {
		switch r.Name {
		case settingEnabled:
			settings.Enabled = parseFlag(r.Value, settings.Enabled)
		case settingTranslateNumbers:
			settings.TranslateNumbers = parseFlag(r.Value, settings.TranslateNumbers)
		case settingAllowedRoles:
			settings.AllowedRoles = splitRoles(r.Value)
		}
	}
	return settings, nil
}

// SaveSettings writes every setting in one transaction.
func (s *SettingsStore) SaveSettings(ctx context.Context, settings livelang.Settings) error {
	values := map[string]string{
		settingEnabled:          formatFlag(settings.Enabled),
		settingTranslateNumbers: formatFlag(settings.TranslateNumbers),
		settingAllowedRoles:     strings.Join(splitRoles(strings.Join(settings.AllowedRoles, ",")), ","),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for name, value := range values {
		if _, err := tx.ExecContext(ctx, s.db.adapter.UpsertSettingQuery(), name, value); err != nil {
			return fmt.Errorf("saving setting %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing settings: %w", err)
	}
	return nil
}

func parseFlag(v string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return b
}

func formatFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func splitRoles(v string) []string {
	roles := []string{}
	for _, r := range strings.Split(v, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

// Verify SettingsStore implements livelang.SettingsSource
var _ livelang.SettingsSource = (*SettingsStore)(nil)
