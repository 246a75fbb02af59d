// AngelaMos | 2026
// migrate.go

package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const trackingTable = "schema_migrations"

// Runner applies versioned SQL files from a directory. Files named
// NNNN_name.up.sql apply in lexical order; each has a matching
// NNNN_name.down.sql used for rollback.
type Runner struct {
	db  *sql.DB
	dir string
}

func NewRunner(db *sql.DB, dir string) *Runner {
	return &Runner{
		db:  db,
		dir: dir,
	}
}

// Up applies every migration not yet recorded in the tracking table.
func (r *Runner) Up(ctx context.Context) error {
	applied, err := r.appliedSet(ctx)
	if err != nil {
		return err
	}

	files, err := collectFiles(r.dir, ".up.sql")
	if err != nil {
		return err
	}

	for _, file := range files {
		if applied[file.Name] {
			continue
		}

		if err := r.execFile(ctx, file.Path); err != nil {
			return fmt.Errorf("apply migration %s: %w", file.Name, err)
		}

		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO `+trackingTable+` (name) VALUES ($1)`,
			file.Name,
		); err != nil {
			return fmt.Errorf("record migration %s: %w", file.Name, err)
		}
	}

	return nil
}

// Down rolls back the most recently applied migration.
func (r *Runner) Down(ctx context.Context) error {
	history, err := r.Status(ctx)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return errors.New("no migrations applied")
	}

	last := history[len(history)-1]
	downPath := strings.TrimSuffix(
		filepath.Join(r.dir, last),
		".up.sql",
	) + ".down.sql"

	if _, err := os.Stat(downPath); err != nil {
		return fmt.Errorf("missing down migration for %s", last)
	}

	if err := r.execFile(ctx, downPath); err != nil {
		return fmt.Errorf("rollback migration %s: %w", last, err)
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM `+trackingTable+` WHERE name = $1`,
		last,
	); err != nil {
		return fmt.Errorf("unrecord migration %s: %w", last, err)
	}

	return nil
}

// Status returns applied migrations in application order.
func (r *Runner) Status(ctx context.Context) ([]string, error) {
	if err := r.ensureTrackingTable(ctx); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM `+trackingTable+` ORDER BY applied_at ASC, name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("read migration history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan migration name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read migration history: %w", err)
	}

	return names, nil
}

func (r *Runner) ensureTrackingTable(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS ` + trackingTable + ` (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`

	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure tracking table: %w", err)
	}

	return nil
}

// execFile runs one migration file inside a transaction.
func (r *Runner) execFile(ctx context.Context, path string) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, string(contents)); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Runner) appliedSet(ctx context.Context) (map[string]bool, error) {
	names, err := r.Status(ctx)
	if err != nil {
		return nil, err
	}

	applied := make(map[string]bool, len(names))
	for _, name := range names {
		applied[name] = true
	}
	return applied, nil
}

type migrationFile struct {
	Name string
	Path string
}

func collectFiles(dir, suffix string) ([]migrationFile, error) {
	var files []migrationFile

	err := filepath.WalkDir(dir, func(
		path string,
		d fs.DirEntry,
		err error,
	) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), suffix) {
			files = append(files, migrationFile{Name: d.Name(), Path: path})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect migrations: %w", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}
