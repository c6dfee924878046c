// Package migration applies the embedded schema files and records them in the migrations table.
package migration

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/prperemyshlev/pages-service/pkg/database"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var files embed.FS

// advisoryLockKey serializes concurrent runs across instances
const advisoryLockKey = 727274

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS migrations (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) UNIQUE NOT NULL,
		executed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)
`

// Migration is one schema step. Name is the file name without version and suffix.
type Migration struct {
	Version uint
	Name    string
	SQL     string
}

// Load returns the embedded migrations in version order
func Load() ([]Migration, error) {
	return load(files, "sql")
}

func load(fsys fs.FS, dir string) ([]Migration, error) {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations: %w", err)
	}
	defer src.Close()

	var migrations []Migration

	version, err := src.First()
	for err == nil {
		m, readErr := readUp(src, version)
		if readErr != nil {
			return nil, readErr
		}
		migrations = append(migrations, m)

		version, err = src.Next(version)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	return migrations, nil
}

type upReader interface {
	ReadUp(version uint) (io.ReadCloser, string, error)
}

func readUp(src upReader, version uint) (Migration, error) {
	r, name, err := src.ReadUp(version)
	if err != nil {
		return Migration{}, fmt.Errorf("failed to read migration %d: %w", version, err)
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		return Migration{}, fmt.Errorf("failed to read migration %d: %w", version, err)
	}

	return Migration{Version: version, Name: name, SQL: string(body)}, nil
}

// Runner applies pending migrations
type Runner struct {
	db         *database.Postgres
	migrations []Migration
	logger     *zap.Logger
}

// NewRunner creates a runner for the embedded migrations
func NewRunner(db *database.Postgres, logger *zap.Logger) (*Runner, error) {
	migrations, err := Load()
	if err != nil {
		return nil, err
	}
	return newRunner(db, migrations, logger), nil
}

func newRunner(db *database.Postgres, migrations []Migration, logger *zap.Logger) *Runner {
	return &Runner{db: db, migrations: migrations, logger: logger}
}

// Up applies every migration not yet recorded and returns the names it ran.
// All pending steps share one transaction; a failure leaves the schema untouched.
func (r *Runner) Up(ctx context.Context) ([]string, error) {
	if _, err := r.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var executed []string

	err := r.db.Transaction(ctx, func(ctx context.Context, tx database.DBTX) error {
		executed = executed[:0]

		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryLockKey); err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}

		applied, err := appliedNames(ctx, tx)
		if err != nil {
			return err
		}

		for _, m := range r.migrations {
			if applied[m.Name] {
				continue
			}

			if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
				return fmt.Errorf("migration %s failed: %w", m.Name, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO migrations (name) VALUES ($1)`, m.Name); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", m.Name, err)
			}

			r.logger.Info("migration applied", zap.String("name", m.Name))
			executed = append(executed, m.Name)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if executed == nil {
		executed = []string{}
	}
	return executed, nil
}

func appliedNames(ctx context.Context, tx database.DBTX) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, `SELECT name FROM migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan migration name: %w", err)
		}
		applied[name] = true
	}

	return applied, rows.Err()
}
