package preferences

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteRepository stores preferences in an embedded SQLite database,
// one row per key.
type SQLiteRepository struct {
	// db is the single-connection pool of the database.
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path, applies PRAGMAs and runs migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite is a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err = applyPragmas(ctx, db); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err = runMigrations(ctx, db); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// applyPragmas configures the connection for durability.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}

	return nil
}

// runMigrations executes the embedded SQL files in name order, each in its own transaction.
func runMigrations(ctx context.Context, db *sql.DB) error {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		statement, err := fs.ReadFile(migrationsFS, "migrations/"+e.Name())
		if err != nil {
			return err
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}

		if _, err = tx.ExecContext(ctx, string(statement)); err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("%s: %w", e.Name(), err)
		}

		if err = tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}

// Load reads every row.
func (r *SQLiteRepository) Load(ctx context.Context) (Values, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, kind, value FROM preferences`)
	if err != nil {
		return nil, fmt.Errorf("query preferences: %w", err)
	}
	defer rows.Close()

	values := make(Values)

	for rows.Next() {
		var (
			key  string
			kind Kind
			raw  string
		)

		if err = rows.Scan(&key, &kind, &raw); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}

		value, err := decodeColumn(kind, raw)
		if err != nil {
			return nil, fmt.Errorf("preference %q: %w", key, err)
		}

		values[key] = value
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate preferences: %w", err)
	}

	return values, nil
}

// Edit starts a batch of changes applied in one transaction.
func (r *SQLiteRepository) Edit() Editor {
	return newEditor(r.apply)
}

// Close releases the underlying database resources.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) apply(ctx context.Context, changes *Changes) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin preferences transaction: %w", err)
	}

	for key := range changes.Removes {
		if _, err = tx.ExecContext(ctx, `DELETE FROM preferences WHERE key = ?`, key); err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("delete preference %q: %w", key, err)
		}
	}

	for key, value := range changes.Puts {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO preferences (key, kind, value) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				kind  = excluded.kind,
				value = excluded.value`,
			key, int(value.Kind), encodeColumn(value),
		)
		if err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("upsert preference %q: %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit preferences: %w", err)
	}

	return nil
}

// encodeColumn renders a value as the text stored in the value column.
func encodeColumn(value Value) string {
	switch value.Kind {
	case KindInt:
		return strconv.FormatInt(value.Int, 10)
	case KindBool:
		return strconv.FormatBool(value.Bool)
	default:
		return value.Str
	}
}

// decodeColumn is the inverse of encodeColumn.
func decodeColumn(kind Kind, raw string) (Value, error) {
	switch kind {
	case KindString:
		return StringValue(raw), nil
	case KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, err
		}

		return IntValue(n), nil
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Value{}, err
		}

		return BoolValue(b), nil
	default:
		return Value{}, fmt.Errorf("unknown kind %d", kind)
	}
}
