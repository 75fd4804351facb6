package store

import (
	"context"
	"fmt"

	"github.com/ZaguanLabs/livelang"
)

// LanguageStore persists the configured language set.
type LanguageStore struct {
	db *DB
}

// NewLanguageStore creates a language store on db.
func NewLanguageStore(db *DB) *LanguageStore {
	return &LanguageStore{db: db}
}

// Languages returns the stored languages in display order.
func (s *LanguageStore) Languages(ctx context.Context) ([]livelang.Language, error) {
	langs := []livelang.Language{}
	err := s.db.SelectContext(ctx, &langs,
		`SELECT code, label, is_default, sort_order FROM livelang_languages ORDER BY sort_order, code`)
	if err != nil {
		return nil, fmt.Errorf("selecting languages: %w", err)
	}
	return langs, nil
}

// ReplaceLanguages swaps the whole set in one transaction.
func (s *LanguageStore) ReplaceLanguages(ctx context.Context, langs []livelang.Language) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM livelang_languages`); err != nil {
		return fmt.Errorf("clearing languages: %w", err)
	}

	for _, l := range langs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO livelang_languages (code, label, is_default, sort_order) VALUES (?, ?, ?, ?)`,
			l.Code, l.Label, l.IsDefault, l.Order)
		if err != nil {
			return fmt.Errorf("inserting language %s: %w", l.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing languages: %w", err)
	}
	return nil
}

// Verify LanguageStore implements livelang.LanguageRepository
var _ livelang.LanguageRepository = (*LanguageStore)(nil)
