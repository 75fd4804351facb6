package store

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Adapter provides database-driver-specific setup and query strings.
type Adapter interface {
	// Name is the driver name accepted by Open and the migrations directory.
	Name() string
	DriverName() string
	GooseDialect() string
	DSN(dsn string) (string, error)
	PostCreate(*sqlx.DB) error
	// UpsertEntryQuery inserts an entry or updates the row with the same
	// (original_hash, slug, language).
	UpsertEntryQuery() string
	// UpsertReturnsID reports whether UpsertEntryQuery yields the id as a row.
	UpsertReturnsID() bool
	UpsertSettingQuery() string
}

func newAdapter(driver string) (Adapter, error) {
	switch driver {
	case DriverSQLite, "sqlite3":
		return SQLiteAdapter{}, nil
	case DriverMySQL:
		return MySQLAdapter{}, nil
	}
	return nil, fmt.Errorf("no adapter available for database driver %q", driver)
}

const insertEntryColumns = `INSERT INTO livelang_translations
	(original_text, original_hash, translated_text, slug, language, is_global, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteAdapter provides support for SQLite through the pure-Go modernc driver.
type SQLiteAdapter struct{}

func (SQLiteAdapter) Name() string         { return DriverSQLite }
func (SQLiteAdapter) DriverName() string   { return "sqlite" }
func (SQLiteAdapter) GooseDialect() string { return "sqlite3" }

func (SQLiteAdapter) DSN(dsn string) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("empty sqlite path")
	}
	return dsn, nil
}

// PostCreate pins a single connection so the pragmas hold for every query.
func (SQLiteAdapter) PostCreate(db *sqlx.DB) error {
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",   // Write-Ahead Logging for better concurrency
		"PRAGMA busy_timeout=5000",  // Wait 5s when database is locked
		"PRAGMA synchronous=NORMAL", // Good balance of safety and speed
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}
	return nil
}

func (SQLiteAdapter) UpsertEntryQuery() string {
	return insertEntryColumns + `
	ON CONFLICT(original_hash, slug, language) DO UPDATE SET
		translated_text = excluded.translated_text,
		is_global = excluded.is_global,
		status = 'active',
		updated_at = excluded.updated_at
	RETURNING id`
}

func (SQLiteAdapter) UpsertReturnsID() bool { return true }

func (SQLiteAdapter) UpsertSettingQuery() string {
	return `INSERT INTO livelang_settings (name, value) VALUES (?, ?)
	ON CONFLICT(name) DO UPDATE SET value = excluded.value`
}

// MySQLAdapter provides support for MySQL and MariaDB.
type MySQLAdapter struct{}

func (MySQLAdapter) Name() string         { return DriverMySQL }
func (MySQLAdapter) DriverName() string   { return "mysql" }
func (MySQLAdapter) GooseDialect() string { return "mysql" }

// DSN enables time parsing and found-rows semantics the store relies on.
func (MySQLAdapter) DSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if _, ok := cfg.Params["charset"]; !ok {
		cfg.Params["charset"] = "utf8mb4"
	}
	return cfg.FormatDSN(), nil
}

// PostCreate sizes the pool; connections are recycled before typical
// server-side wait_timeout values close them.
func (MySQLAdapter) PostCreate(db *sqlx.DB) error {
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	return nil
}

func (MySQLAdapter) UpsertEntryQuery() string {
	return insertEntryColumns + `
	ON DUPLICATE KEY UPDATE
		id = LAST_INSERT_ID(id),
		translated_text = VALUES(translated_text),
		is_global = VALUES(is_global),
		status = 'active',
		updated_at = VALUES(updated_at)`
}

func (MySQLAdapter) UpsertReturnsID() bool { return false }

func (MySQLAdapter) UpsertSettingQuery() string {
	return `INSERT INTO livelang_settings (name, value) VALUES (?, ?)
	ON DUPLICATE KEY UPDATE value = VALUES(value)`
}
