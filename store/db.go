// Package store persists translations, languages and settings in SQL.
package store

import (
	"embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrations embed.FS

// DB is a database handle bound to its dialect adapter.
type DB struct {
	*sqlx.DB
	adapter Adapter
	now     func() time.Time
}

// Open connects to the database and applies the dialect's session settings.
// driver is "sqlite" or "mysql".
func Open(driver, dsn string) (*DB, error) {
	adapter, err := newAdapter(driver)
	if err != nil {
		return nil, err
	}

	dsn, err = adapter.DSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("preparing dsn: %w", err)
	}

	sqlxDB, err := sqlx.Open(adapter.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := adapter.PostCreate(sqlxDB); err != nil {
		sqlxDB.Close()
		return nil, err
	}

	if err := sqlxDB.Ping(); err != nil {
		sqlxDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{DB: sqlxDB, adapter: adapter, now: time.Now}, nil
}

// Adapter returns the dialect adapter of db.
func (db *DB) Adapter() Adapter {
	return db.adapter
}

// Migrate runs all pending database migrations for the dialect of db.
func Migrate(db *DB) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(db.adapter.GooseDialect()); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.Up(db.DB.DB, "migrations/"+db.adapter.Name()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}
