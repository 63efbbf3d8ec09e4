// Package probe answers "is this store fully migrated" without mutating the
// store's on-disk representation, not even transiently.
package probe

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/evolvedb/evolve/internal/dialect"
	"github.com/evolvedb/evolve/internal/everr"
	"github.com/evolvedb/evolve/internal/migrate"
)

// IsMigrated reports whether every unit's revision is recorded in the ledger.
// Fail-closed: an absent ledger table, a connection failure, or any other
// storage error all report "not migrated" rather than an error.
func IsMigrated(ctx context.Context, db *sql.DB, d dialect.Dialect, units []*migrate.Unit) bool {
	if db == nil || d == nil {
		return false
	}
	if len(units) == 0 {
		return true
	}

	exists, err := ledgerExists(ctx, db, d)
	if err != nil || !exists {
		return false
	}

	applied, err := appliedRevisions(ctx, db)
	if err != nil {
		return false
	}
	for _, u := range units {
		if !applied[u.Revision] {
			return false
		}
	}
	return true
}

// ledgerExists checks for the ledger table using the catalog each engine
// actually has.
func ledgerExists(ctx context.Context, db *sql.DB, d dialect.Dialect) (bool, error) {
	var query string
	switch d.Name() {
	case "sqlite":
		query = "SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ? LIMIT 1"
	case "postgres":
		query = "SELECT 1 FROM information_schema.tables WHERE table_name = $1 LIMIT 1"
	case "mysql":
		query = "SELECT 1 FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ? LIMIT 1"
	default:
		return false, everr.Newf(everr.ErrSQLConnection, "unsupported dialect %q", d.Name())
	}

	var one int
	err := db.QueryRowContext(ctx, query, migrate.LedgerTable).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func appliedRevisions(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT revision FROM "+migrate.LedgerTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var rev string
		if err := rows.Scan(&rev); err != nil {
			return nil, err
		}
		applied[rev] = true
	}
	return applied, rows.Err()
}

// SQLiteReadOnlyDSN returns a DSN that opens path strictly read-only with no
// WAL or SHM sidecar creation. The file is stat'd first: opening a path that
// does not exist yet would otherwise create an empty database file.
func SQLiteReadOnlyDSN(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", everr.Wrap(everr.ErrSQLConnection, err, "database file not found").
			With("path", path)
	}
	if info.IsDir() {
		return "", everr.New(everr.ErrSQLConnection, "database path is a directory").
			With("path", path)
	}
	return fmt.Sprintf("file:%s?mode=ro&immutable=1", path), nil
}
