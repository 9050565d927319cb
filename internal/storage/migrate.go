package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"

	"scadenze/internal/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Tables dropped by a full data reset. Categories survive a reset.
var resetTables = []string{"payments", "entries", "reports", "settings", "schema_version"}

// Step is one schema migration. Steps run inside the migrator's transaction and
// must not commit or roll back themselves.
type Step interface {
	Version() uint
	Name() string
	Apply(ctx context.Context, tx *sql.Tx) error
}

// SQLStep applies a plain DDL/DML script.
type SQLStep struct {
	version uint
	name    string
	script  string
}

func NewSQLStep(version uint, name, script string) SQLStep {
	return SQLStep{version: version, name: name, script: script}
}

func (s SQLStep) Version() uint { return s.version }
func (s SQLStep) Name() string  { return s.name }

func (s SQLStep) Apply(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, s.script); err != nil {
		return fmt.Errorf("exec script: %w", err)
	}
	return nil
}

// RebuildStep recreates a table with a new definition and backfills every row with a
// freshly generated primary key. The old rows are read fully into memory before they
// are re-inserted, which is fine at single-user scale.
type RebuildStep struct {
	version uint
	name    string
	// Table is rebuilt in place: renamed to Table_old, recreated with Create, backfilled, dropped.
	Table string
	// Create is the CREATE TABLE statement of the new definition.
	Create string
	// Columns are copied verbatim; the id column is regenerated and must not be listed.
	Columns []string
	// NewID generates primary keys. Defaults to random UUIDs.
	NewID func() string
}

func NewRebuildStep(version uint, name, table, create string, columns ...string) RebuildStep {
	return RebuildStep{
		version: version,
		name:    name,
		Table:   table,
		Create:  create,
		Columns: columns,
		NewID:   uuid.NewString,
	}
}

func (s RebuildStep) Version() uint { return s.version }
func (s RebuildStep) Name() string  { return s.name }

func (s RebuildStep) Apply(ctx context.Context, tx *sql.Tx) error {
	old := s.Table + "_old"
	cols := strings.Join(s.Columns, ", ")

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", s.Table, old)); err != nil {
		return fmt.Errorf("rename %s: %w", s.Table, err)
	}
	if _, err := tx.ExecContext(ctx, s.Create); err != nil {
		return fmt.Errorf("create %s: %w", s.Table, err)
	}

	rows, err := tx.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s", cols, old))
	if err != nil {
		return fmt.Errorf("read %s: %w", old, err)
	}
	var backlog [][]any
	for rows.Next() {
		vals := make([]any, len(s.Columns))
		ptrs := make([]any, len(s.Columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			rows.Close()
			return fmt.Errorf("scan %s: %w", old, err)
		}
		backlog = append(backlog, vals)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate %s: %w", old, err)
	}
	rows.Close()

	newID := s.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	insert := fmt.Sprintf("INSERT INTO %s (id, %s) VALUES (?%s)",
		s.Table, cols, strings.Repeat(", ?", len(s.Columns)))
	for _, vals := range backlog {
		args := append([]any{newID()}, vals...)
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			return fmt.Errorf("backfill %s: %w", s.Table, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE "+old); err != nil {
		return fmt.Errorf("drop %s: %w", old, err)
	}
	return nil
}

// categoriesTextID moves categories from an integer key to an opaque text key.
var categoriesTextID = NewRebuildStep(2, "categories_text_id", "categories", `
CREATE TABLE categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('expense', 'income', 'receivable')),
    icon TEXT,
    color TEXT,
    created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, "name", "type", "icon", "color", "created_at")

// LoadSQLSteps reads every N_name.up.sql script under dir.
func LoadSQLSteps(fsys fs.FS, dir string) ([]Step, error) {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}
	defer src.Close()

	var steps []Step
	version, err := src.First()
	for err == nil {
		r, name, rerr := src.ReadUp(version)
		if rerr != nil {
			return nil, fmt.Errorf("read migration %d: %w", version, rerr)
		}
		body, rerr := io.ReadAll(r)
		r.Close()
		if rerr != nil {
			return nil, fmt.Errorf("read migration %d: %w", version, rerr)
		}
		steps = append(steps, NewSQLStep(version, name, string(body)))
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	return steps, nil
}

// DefaultSteps returns the application's migrations in version order.
func DefaultSteps() ([]Step, error) {
	steps, err := LoadSQLSteps(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	return append(steps, categoriesTextID), nil
}

// Migrator brings the schema to the latest version inside a single transaction.
type Migrator struct {
	db    *sql.DB
	steps []Step
}

func NewMigrator(db *sql.DB, steps ...Step) *Migrator {
	sorted := append([]Step(nil), steps...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Version() < sorted[j].Version() })
	return &Migrator{db: db, steps: sorted}
}

// Latest returns the version reached once every step is applied.
func (m *Migrator) Latest() uint {
	if len(m.steps) == 0 {
		return 0
	}
	return m.steps[len(m.steps)-1].Version()
}

// CurrentVersion returns the applied schema version, 0 for an empty database.
func (m *Migrator) CurrentVersion(ctx context.Context) (uint, error) {
	return readVersion(ctx, m.db)
}

// MigrateToLatest applies every pending step. Either all pending steps and the new
// version are committed, or nothing is. When the schema is already current no write
// is issued.
func (m *Migrator) MigrateToLatest(ctx context.Context) error {
	current, err := readVersion(ctx, m.db)
	if err != nil {
		return core.Migration("read schema version", err)
	}

	target := m.Latest()
	if current >= target {
		slog.DebugContext(ctx, "Schema up to date", "version", current)
		return nil
	}

	err = m.inTx(ctx, func(tx *sql.Tx) error {
		return m.apply(ctx, tx, current)
	})
	if err != nil {
		slog.ErrorContext(ctx, "Schema migration failed", "from", current, "to", target, "error", err)
		return err
	}

	slog.InfoContext(ctx, "Schema migrated", "from", current, "to", target)
	return nil
}

// Reset drops all user data tables and rebuilds the schema from version 0 in the same
// transaction. Destructive: callers must have the user's explicit confirmation.
func (m *Migrator) Reset(ctx context.Context) error {
	err := m.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range resetTables {
			if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
				return core.Migration("drop "+table, err)
			}
		}
		return m.apply(ctx, tx, 0)
	})
	if err != nil {
		slog.ErrorContext(ctx, "Data reset failed", "error", err)
		return err
	}

	slog.WarnContext(ctx, "Application data reset", "version", m.Latest())
	return nil
}

func (m *Migrator) apply(ctx context.Context, tx *sql.Tx, current uint) error {
	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return core.Migration("create schema_version", err)
	}

	for _, step := range m.steps {
		if current >= step.Version() {
			continue
		}
		if err := step.Apply(ctx, tx); err != nil {
			return core.Migration(fmt.Sprintf("v%d %s", step.Version(), step.Name()), err)
		}
		slog.InfoContext(ctx, "Applied migration", "version", step.Version(), "name", step.Name())
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM schema_version`); err != nil {
		return core.Migration("clear schema_version", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, m.Latest()); err != nil {
		return core.Migration("write schema_version", err)
	}
	return nil
}

func (m *Migrator) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Migration("begin transaction", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return core.Migration("commit", err)
	}
	return nil
}

func readVersion(ctx context.Context, q DBTX) (uint, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'`).Scan(&n)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}

	var version sql.NullInt64
	if err := q.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return uint(version.Int64), nil
}
