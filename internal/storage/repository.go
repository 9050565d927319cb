package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"scadenze/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the Storage Port: typed queries over one SQLite connection plus
// transactions and schema management.
type SQLiteRepository struct {
	*Queries
	db       *sql.DB
	migrator *Migrator
}

// Open opens (creating if needed) the database file without touching the schema.
func Open(ctx context.Context, dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// Single writer: every statement, including those of an open transaction, goes
	// through this one connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %q: %w", pragma, err)
		}
	}
	return db, nil
}

// NewSQLiteRepository opens the database and migrates it to the latest schema. A
// migration failure is returned and the database is closed.
func NewSQLiteRepository(ctx context.Context, dbPath string) (*SQLiteRepository, error) {
	db, err := Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	steps, err := DefaultSteps()
	if err != nil {
		db.Close()
		return nil, core.Migration("load migrations", err)
	}

	repo := &SQLiteRepository{
		Queries:  New(db),
		db:       db,
		migrator: NewMigrator(db, steps...),
	}

	if err := repo.migrator.MigrateToLatest(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.InfoContext(ctx, "SQLite repository ready", "path", dbPath, "schema_version", repo.migrator.Latest())
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// WithTx runs fn inside a transaction. The transaction commits when fn returns nil and
// rolls back otherwise; fn's error is returned unchanged.
func (r *SQLiteRepository) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Persistence("begin transaction", err)
	}

	if err := fn(r.Queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Transaction rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return core.Persistence("commit transaction", err)
	}
	return nil
}

// SchemaVersion returns the applied schema version.
func (r *SQLiteRepository) SchemaVersion(ctx context.Context) (uint, error) {
	v, err := r.migrator.CurrentVersion(ctx)
	if err != nil {
		return 0, core.Persistence("read schema version", err)
	}
	return v, nil
}

// MigrateToLatest applies pending migrations.
func (r *SQLiteRepository) MigrateToLatest(ctx context.Context) error {
	return r.migrator.MigrateToLatest(ctx)
}

// ResetAppData drops every user data table and rebuilds the schema.
func (r *SQLiteRepository) ResetAppData(ctx context.Context) error {
	return r.migrator.Reset(ctx)
}

// Ping checks the connection for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
