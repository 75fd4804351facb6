package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ZaguanLabs/livelang"
)

const entryColumns = `id, original_text, translated_text, slug, language, is_global, status, created_at, updated_at`

// TranslationStore reads and writes translation entries.
type TranslationStore struct {
	db *DB
}

// NewTranslationStore creates a translation store on db.
func NewTranslationStore(db *DB) *TranslationStore {
	return &TranslationStore{db: db}
}

// ActiveEntriesForSlug returns the active entries of a page together with
// every active global entry. An empty language matches all languages.
func (s *TranslationStore) ActiveEntriesForSlug(ctx context.Context, slug, language string) ([]livelang.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM livelang_translations
		WHERE (slug = ? OR is_global = 1) AND status = 'active'`
	args := []any{slug}
	if language != "" {
		query += ` AND (language = ? OR is_global = 1)`
		args = append(args, language)
	}
	query += ` ORDER BY id`

	var entries []livelang.Entry
	if err := s.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("selecting entries for %q: %w", slug, err)
	}
	return entries, nil
}

// OneByOriginalAndSlug returns the active entry for original on the page, a
// page-specific row winning over a global one.
func (s *TranslationStore) OneByOriginalAndSlug(ctx context.Context, original, slug, language string) (*livelang.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM livelang_translations
		WHERE original_hash = ? AND original_text = ? AND (slug = ? OR is_global = 1) AND status = 'active'`
	args := []any{livelang.HashText(original), original, slug}
	if language != "" {
		query += ` AND (language = ? OR is_global = 1)`
		args = append(args, language)
	}
	query += ` ORDER BY is_global, id LIMIT 1`

	var e livelang.Entry
	err := s.db.GetContext(ctx, &e, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, livelang.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting entry: %w", err)
	}
	return &e, nil
}

// Insert stores e and fills in its id and timestamps. A row with the same
// (original, slug, language) is updated and reactivated instead.
func (s *TranslationStore) Insert(ctx context.Context, e *livelang.Entry) (int64, error) {
	now := s.db.now().UTC()
	if e.Status == "" {
		e.Status = livelang.StatusActive
	}
	args := []any{
		e.OriginalText, livelang.HashText(e.OriginalText), e.TranslatedText,
		e.Slug, e.Language, e.IsGlobal, e.Status, now, now,
	}

	var id int64
	if s.db.adapter.UpsertReturnsID() {
		if err := s.db.QueryRowxContext(ctx, s.db.adapter.UpsertEntryQuery(), args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("upserting entry: %w", err)
		}
	} else {
		res, err := s.db.ExecContext(ctx, s.db.adapter.UpsertEntryQuery(), args...)
		if err != nil {
			return 0, fmt.Errorf("upserting entry: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("reading entry id: %w", err)
		}
	}

	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now
	return id, nil
}

// Update changes the non-nil fields of an entry.
func (s *TranslationStore) Update(ctx context.Context, id int64, fields livelang.EntryFields) error {
	sets := []string{"updated_at = ?"}
	args := []any{s.db.now().UTC()}

	if fields.TranslatedText != nil {
		sets = append(sets, "translated_text = ?")
		args = append(args, *fields.TranslatedText)
	}
	if fields.IsGlobal != nil {
		sets = append(sets, "is_global = ?")
		args = append(args, *fields.IsGlobal)
	}
	if fields.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *fields.Status)
	}
	args = append(args, id)

	query := `UPDATE livelang_translations SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating entry %d: %w", id, err)
	}
	return expectRow(res, "translation", id)
}

// Get returns an entry by id.
func (s *TranslationStore) Get(ctx context.Context, id int64) (*livelang.Entry, error) {
	var e livelang.Entry
	err := s.db.GetContext(ctx, &e, `SELECT `+entryColumns+` FROM livelang_translations WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &livelang.NotFoundError{Kind: "translation", Key: fmt.Sprint(id)}
	}
	if err != nil {
		return nil, fmt.Errorf("selecting entry %d: %w", id, err)
	}
	return &e, nil
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Slug     string
	Language string
	Status   livelang.Status
	Search   string
	Limit    int
	Offset   int
}

// List returns entries, newest first.
func (s *TranslationStore) List(ctx context.Context, f ListFilter) ([]livelang.Entry, error) {
	var where []string
	var args []any

	if f.Slug != "" {
		where = append(where, "slug = ?")
		args = append(args, f.Slug)
	}
	if f.Language != "" {
		where = append(where, "language = ?")
		args = append(args, f.Language)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Search != "" {
		where = append(where, "(original_text LIKE ? OR translated_text LIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}

	query := `SELECT ` + entryColumns + ` FROM livelang_translations`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	entries := []livelang.Entry{}
	if err := s.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}

// Slugs returns the distinct pages that carry active page-specific entries,
// paired with their languages.
func (s *TranslationStore) Slugs(ctx context.Context) ([]livelang.Page, error) {
	rows := []struct {
		Slug     string `db:"slug"`
		Language string `db:"language"`
	}{}
	err := s.db.SelectContext(ctx, &rows, `SELECT DISTINCT slug, language FROM livelang_translations
		WHERE status = 'active' AND is_global = 0 ORDER BY slug, language`)
	if err != nil {
		return nil, fmt.Errorf("listing slugs: %w", err)
	}

	pages := make([]livelang.Page, len(rows))
	for i, r := range rows {
		pages[i] = livelang.Page{Slug: r.Slug, Language: r.Language}
	}
	return pages, nil
}

// ToggleStatus flips an entry between active and inactive and returns the new status.
func (s *TranslationStore) ToggleStatus(ctx context.Context, id int64) (livelang.Status, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	next := e.Status.Toggle()
	if err := s.Update(ctx, id, livelang.EntryFields{Status: &next}); err != nil {
		return "", err
	}
	return next, nil
}

// Delete removes an entry.
func (s *TranslationStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM livelang_translations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting entry %d: %w", id, err)
	}
	return expectRow(res, "translation", id)
}

// DeleteAll removes every entry.
func (s *TranslationStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM livelang_translations`); err != nil {
		return fmt.Errorf("deleting all entries: %w", err)
	}
	return nil
}

func expectRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return &livelang.NotFoundError{Kind: kind, Key: fmt.Sprint(id)}
	}
	return nil
}

// Verify TranslationStore implements livelang.EntryStore
var _ livelang.EntryStore = (*TranslationStore)(nil)
