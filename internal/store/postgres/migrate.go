package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/uptrace/bun"
)

const migrationsTable = "easyapt_migrations"

// Migrate applies the "-- +goose Up" section of every *.sql file in fsys that has not
// been applied yet, in file name order. Each file runs in its own transaction.
func Migrate(ctx context.Context, db *bun.DB, fsys fs.FS) ([]string, error) {
	_, err := db.NewRaw("CREATE TABLE IF NOT EXISTS " + migrationsTable + " (name text PRIMARY KEY, applied_at timestamptz NOT NULL DEFAULT now())").Exec(ctx)
	if err != nil {
		return nil, err
	}

	names, err := migrationNames(fsys)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, name := range names {
		done, err := migrationApplied(ctx, db, name)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}

		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return applied, err
		}
		err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if err := applyMigration(ctx, tx, string(b)); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			_, err := tx.NewRaw("INSERT INTO "+migrationsTable+" (name) VALUES (?)", name).Exec(ctx)
			return err
		})
		if err != nil {
			return applied, err
		}
		applied = append(applied, name)
	}
	return applied, nil
}

type rawExecutor interface {
	NewRaw(query string, args ...any) *bun.RawQuery
}

func applyMigration(ctx context.Context, exec rawExecutor, contents string) error {
	upSQL, err := extractGooseUp(contents)
	if err != nil {
		return err
	}
	for _, stmt := range splitSQLStatements(upSQL) {
		if normalized, ok := normalizeExtensionStatement(stmt); ok {
			stmt = normalized
		}
		if _, err := exec.NewRaw(stmt).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func migrationApplied(ctx context.Context, db bun.IDB, name string) (bool, error) {
	var got string
	err := db.NewRaw("SELECT name FROM "+migrationsTable+" WHERE name = ?", name).Scan(ctx, &got)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func migrationNames(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func extractGooseUp(sql string) (string, error) {
	upMarker := "-- +goose Up"
	downMarker := "-- +goose Down"

	upIdx := strings.Index(sql, upMarker)
	if upIdx < 0 {
		return "", fmt.Errorf("missing goose up marker")
	}
	afterUp := sql[upIdx+len(upMarker):]
	afterUp = strings.TrimLeft(afterUp, "\r\n")

	downIdx := strings.Index(afterUp, downMarker)
	if downIdx < 0 {
		return strings.TrimSpace(afterUp), nil
	}
	return strings.TrimSpace(afterUp[:downIdx]), nil
}

// normalizeExtensionStatement pins btree_gist to the public schema so that migrating
// into a non-default schema still finds its operator classes.
func normalizeExtensionStatement(stmt string) (string, bool) {
	s := strings.TrimSpace(stmt)
	upper := strings.ToUpper(s)
	if !strings.HasPrefix(upper, "CREATE EXTENSION") {
		return "", false
	}
	if !strings.Contains(upper, "BTREE_GIST") {
		return "", false
	}
	if strings.Contains(upper, " SCHEMA ") {
		return "", false
	}
	return s + " SCHEMA public", true
}

func splitSQLStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
