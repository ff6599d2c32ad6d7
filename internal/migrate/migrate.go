// Package migrate keeps the Postgres credential schema current. Migrations
// are embedded SQL files named NNNN_name.sql and are applied in version order.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var embedded embed.FS

const (
	versionTable = "credential_schema_versions"

	// lockKey serializes gateways that start against the same database.
	lockKey int64 = 0x6b6a_6372_6564 // "kjcred"
)

// Migration is one versioned schema change.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Result reports what a Run did.
type Result struct {
	Applied []int
	Current int
}

// Embedded returns the migrations shipped with the binary.
func Embedded() ([]Migration, error) {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// Load reads every .sql file at the root of fsys and returns them sorted by
// version. Gaps are allowed; a repeated version is an error.
func Load(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var out []Migration
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		version, name, err := parseFileName(e.Name())
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %d used by %s and %s", version, prev, e.Name())
		}
		seen[version] = e.Name()

		body, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		if strings.TrimSpace(string(body)) == "" {
			return nil, fmt.Errorf("migration %s is empty", e.Name())
		}
		out = append(out, Migration{Version: version, Name: name, SQL: string(body)})
	}
	slices.SortFunc(out, func(a, b Migration) int { return a.Version - b.Version })
	return out, nil
}

func parseFileName(file string) (int, string, error) {
	stem := strings.TrimSuffix(file, ".sql")
	num, name, ok := strings.Cut(stem, "_")
	if !ok || name == "" {
		return 0, "", fmt.Errorf("migration %s: want NNNN_name.sql", file)
	}
	version, err := strconv.Atoi(num)
	if err != nil || version <= 0 {
		return 0, "", fmt.Errorf("migration %s: version must be a positive number", file)
	}
	return version, name, nil
}

// Run applies the embedded migrations that the database has not seen yet.
// It is safe to call on every start.
func Run(ctx context.Context, db *sql.DB, logger *slog.Logger) (Result, error) {
	migrations, err := Embedded()
	if err != nil {
		return Result{}, err
	}
	return Apply(ctx, db, migrations, logger)
}

// Apply runs the pending subset of migrations, each in its own transaction,
// while holding a session advisory lock.
func Apply(ctx context.Context, db *sql.DB, migrations []Migration, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "migrate", "table", versionTable)

	conn, err := db.Conn(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, lockKey); err != nil {
		return Result{}, fmt.Errorf("lock credential schema: %w", err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, lockKey); err != nil {
			logger.WarnContext(ctx, "unlock credential schema failed", "error", err)
		}
	}()

	if _, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+versionTable+` (
			version    INTEGER     PRIMARY KEY,
			name       TEXT        NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return Result{}, fmt.Errorf("create %s: %w", versionTable, err)
	}

	done, err := appliedVersions(ctx, conn)
	if err != nil {
		return Result{}, err
	}

	var res Result
	known := make(map[int]bool, len(migrations))
	for _, m := range migrations {
		known[m.Version] = true
		if done[m.Version] {
			continue
		}
		logger.InfoContext(ctx, "applying credential schema migration", "version", m.Version, "name", m.Name)
		if err := applyOne(ctx, conn, m, logger); err != nil {
			return res, err
		}
		res.Applied = append(res.Applied, m.Version)
		done[m.Version] = true
	}

	for v := range done {
		if !known[v] {
			logger.WarnContext(ctx, "credential schema has a version this build does not ship", "version", v)
		}
		res.Current = max(res.Current, v)
	}
	return res, nil
}

func appliedVersions(ctx context.Context, conn *sql.Conn) (map[int]bool, error) {
	rows, err := conn.QueryContext(ctx, `SELECT version FROM `+versionTable)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	done := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		done[v] = true
	}
	return done, rows.Err()
}

func applyOne(ctx context.Context, conn *sql.Conn, m Migration, logger *slog.Logger) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.Version, err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logger.ErrorContext(ctx, "rollback failed", "version", m.Version, "error", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO `+versionTable+` (version, name) VALUES ($1, $2)`, m.Version, m.Name); err != nil {
		return fmt.Errorf("record migration %d: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.Version, err)
	}
	return nil
}
