// Package storage opens the local SQLite database, applies migrations and
// hands out the repositories that live in it.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/subguard/internal/client/migrations"
	"github.com/dmitrijs2005/subguard/internal/client/repositories/audit"
	"github.com/dmitrijs2005/subguard/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/subguard/internal/client/repositories/records"
	"github.com/dmitrijs2005/subguard/internal/filex"
)

type Repositories struct {
	DB       *sql.DB
	Metadata metadata.Repository
	Records  records.Repository
	Audit    *audit.SQLiteJournal
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens dsn (a file path or ":memory:") and migrates it.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	if err := filex.EnsureParentDir(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite serialises writers; one connection also keeps :memory: alive.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dsn, err)
	}

	return &Repositories{
		DB:       db,
		Metadata: metadata.NewSQLiteRepository(db),
		Records:  records.NewSQLiteRepository(db),
		Audit:    audit.NewSQLiteJournal(db),
	}, nil
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}
