// Package migrations embeds the portal schema and walks it up or down
// against a live database. Each migration is an up/down pair of SQL
// files under sql/, applied transactionally and recorded in a ledger
// table so reruns are idempotent.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var embeddedFS embed.FS

const ledgerTable = "portal_schema_migrations"

type migration struct {
	Version int64
	UpSQL   string
	DownSQL string
}

type Runner struct {
	fsys fs.FS
}

func NewRunner() *Runner {
	return &Runner{fsys: embeddedFS}
}

// Up applies pending migrations in version order. steps <= 0 means all
// pending. Returns how many were applied.
func (r *Runner) Up(ctx context.Context, db *sql.DB, steps int) (int, error) {
	pending, err := r.pending(ctx, db)
	if err != nil {
		return 0, err
	}
	if steps > 0 && len(pending) > steps {
		pending = pending[:steps]
	}
	for i, m := range pending {
		err := inTx(ctx, db, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.UpSQL); err != nil {
				return fmt.Errorf("apply migration %d: %w", m.Version, err)
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO `+ledgerTable+` (version) VALUES ($1)`, m.Version)
			if err != nil {
				return fmt.Errorf("record migration %d: %w", m.Version, err)
			}
			return nil
		})
		if err != nil {
			return i, err
		}
	}
	return len(pending), nil
}

// Down rolls back the most recently applied migrations. steps <= 0
// means one. Returns how many were rolled back.
func (r *Runner) Down(ctx context.Context, db *sql.DB, steps int) (int, error) {
	if steps <= 0 {
		steps = 1
	}
	byVersion, err := r.sourceByVersion()
	if err != nil {
		return 0, err
	}
	if err := ensureLedger(ctx, db); err != nil {
		return 0, err
	}
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return 0, err
	}

	// Newest first.
	sort.Slice(applied, func(i, j int) bool { return applied[i] > applied[j] })
	if len(applied) > steps {
		applied = applied[:steps]
	}

	for i, version := range applied {
		m, ok := byVersion[version]
		if !ok {
			return i, fmt.Errorf("applied migration %d is missing from source", version)
		}
		err := inTx(ctx, db, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.DownSQL); err != nil {
				return fmt.Errorf("roll back migration %d: %w", version, err)
			}
			_, err := tx.ExecContext(ctx, `DELETE FROM `+ledgerTable+` WHERE version = $1`, version)
			if err != nil {
				return fmt.Errorf("unrecord migration %d: %w", version, err)
			}
			return nil
		})
		if err != nil {
			return i, err
		}
	}
	return len(applied), nil
}

// pending loads source migrations, ensures the ledger exists, and
// returns the not-yet-applied migrations in ascending version order.
func (r *Runner) pending(ctx context.Context, db *sql.DB) ([]migration, error) {
	source, err := loadMigrations(r.fsys)
	if err != nil {
		return nil, err
	}
	if err := ensureLedger(ctx, db); err != nil {
		return nil, err
	}
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}
	done := make(map[int64]bool, len(applied))
	for _, version := range applied {
		done[version] = true
	}

	pending := source[:0:0]
	for _, m := range source {
		if !done[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

func (r *Runner) sourceByVersion() (map[int64]migration, error) {
	source, err := loadMigrations(r.fsys)
	if err != nil {
		return nil, err
	}
	byVersion := make(map[int64]migration, len(source))
	for _, m := range source {
		byVersion[m.Version] = m
	}
	return byVersion, nil
}

func ensureLedger(ctx context.Context, db *sql.DB) error {
	query := `
CREATE TABLE IF NOT EXISTS ` + ledgerTable + ` (
	version BIGINT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure migration ledger: %w", err)
	}
	return nil
}

func appliedVersions(ctx context.Context, db *sql.DB) ([]int64, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM `+ledgerTable)
	if err != nil {
		return nil, fmt.Errorf("query migration ledger: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var versions []int64
	for rows.Next() {
		var version int64
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan ledger version: %w", err)
		}
		versions = append(versions, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read migration ledger: %w", err)
	}
	return versions, nil
}

func inTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// loadMigrations reads sql/<version>_<name>.<up|down>.sql pairs and
// returns them sorted ascending by version. A version with only one
// direction on disk is an error.
func loadMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, "sql")
	if err != nil {
		return nil, fmt.Errorf("read migration dir: %w", err)
	}

	byVersion := map[int64]migration{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := path.Base(entry.Name())
		version, direction, ok := parseMigrationName(name)
		if !ok {
			continue
		}
		script, err := fs.ReadFile(fsys, path.Join("sql", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %q: %w", name, err)
		}

		m := byVersion[version]
		m.Version = version
		if direction == "up" {
			m.UpSQL = string(script)
		} else {
			m.DownSQL = string(script)
		}
		byVersion[version] = m
	}

	migrations := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		if strings.TrimSpace(m.UpSQL) == "" {
			return nil, fmt.Errorf("migration %d missing up SQL", m.Version)
		}
		if strings.TrimSpace(m.DownSQL) == "" {
			return nil, fmt.Errorf("migration %d missing down SQL", m.Version)
		}
		migrations = append(migrations, m)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// parseMigrationName splits "0003_engagement.up.sql" into (3, "up").
// Files that do not follow the pattern are skipped, not rejected.
func parseMigrationName(name string) (version int64, direction string, ok bool) {
	rest, found := strings.CutSuffix(name, ".sql")
	if !found {
		return 0, "", false
	}
	switch {
	case strings.HasSuffix(rest, ".up"):
		rest, direction = strings.TrimSuffix(rest, ".up"), "up"
	case strings.HasSuffix(rest, ".down"):
		rest, direction = strings.TrimSuffix(rest, ".down"), "down"
	default:
		return 0, "", false
	}
	digits, _, found := strings.Cut(rest, "_")
	if !found || digits == "" {
		return 0, "", false
	}
	version, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return version, direction, true
}
