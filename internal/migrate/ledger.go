package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/evolvedb/evolve/internal/dialect"
	"github.com/evolvedb/evolve/internal/everr"
)

// LedgerTable is the name of the durable revision-tracking table.
const LedgerTable = "evolve_migrations"

// AppliedMigration is one ledger row.
type AppliedMigration struct {
	Revision  string
	Slug      string
	Checksum  string
	AppliedAt time.Time
}

// execer is satisfied by both *sql.DB and *sql.Tx, so ledger writes can run
// inside the same transaction as the unit they record.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Ledger reads and writes the evolve_migrations table.
type Ledger struct {
	db      *sql.DB
	dialect dialect.Dialect
}

// NewLedger creates a ledger bound to a database handle and dialect.
func NewLedger(db *sql.DB, d dialect.Dialect) *Ledger {
	return &Ledger{db: db, dialect: d}
}

// EnsureTable creates the ledger table if it does not exist.
func (l *Ledger) EnsureTable(ctx context.Context) error {
	stmt := l.createTableSQL()
	if _, err := l.db.ExecContext(ctx, stmt); err != nil {
		return everr.Wrap(everr.ErrSQLExecution, err, "failed to create ledger table").
			WithSQL(stmt)
	}
	return nil
}

func (l *Ledger) createTableSQL() string {
	table := l.dialect.QuoteIdent(LedgerTable)
	now := l.dialect.CurrentTimestamp()

	switch l.dialect.Name() {
	case "postgres":
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id         SERIAL PRIMARY KEY,
    revision   VARCHAR(64) UNIQUE NOT NULL,
    slug       TEXT,
    checksum   VARCHAR(64),
    applied_at TIMESTAMPTZ NOT NULL DEFAULT %s
)`, table, now)

	case "mysql":
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id         INT AUTO_INCREMENT PRIMARY KEY,
    revision   VARCHAR(64) UNIQUE NOT NULL,
    slug       VARCHAR(255),
    checksum   VARCHAR(64),
    applied_at TIMESTAMP NOT NULL DEFAULT %s
)`, table, now)

	default: // sqlite function defaults need parentheses
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    revision   TEXT UNIQUE NOT NULL,
    slug       TEXT,
    checksum   TEXT,
    applied_at TEXT NOT NULL DEFAULT (%s)
)`, table, now)
	}
}

// Applied returns all ledger rows ordered by revision ascending.
func (l *Ledger) Applied(ctx context.Context) ([]AppliedMigration, error) {
	query := fmt.Sprintf(
		"SELECT revision, slug, checksum, applied_at FROM %s ORDER BY revision ASC",
		l.dialect.QuoteIdent(LedgerTable),
	)

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, everr.Wrap(everr.ErrSQLExecution, err, "failed to query ledger").
			WithSQL(query)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var m AppliedMigration
		var slug, checksum sql.NullString
		var appliedAt any
		if err := rows.Scan(&m.Revision, &slug, &checksum, &appliedAt); err != nil {
			return nil, everr.Wrap(everr.ErrSQLExecution, err, "failed to scan ledger row")
		}
		m.Slug = slug.String
		m.Checksum = checksum.String
		m.AppliedAt = parseAppliedAt(appliedAt)
		applied = append(applied, m)
	}
	if err := rows.Err(); err != nil {
		return nil, everr.Wrap(everr.ErrSQLExecution, err, "error iterating ledger rows")
	}
	return applied, nil
}

// parseAppliedAt normalizes the applied_at column: postgres and mysql drivers
// return time.Time, sqlite stores text.
func parseAppliedAt(val any) time.Time {
	switch t := val.(type) {
	case time.Time:
		return t
	case string:
		for _, format := range []string{
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05",
		} {
			if parsed, err := time.Parse(format, t); err == nil {
				return parsed
			}
		}
		return time.Time{}
	case []byte:
		return parseAppliedAt(string(t))
	default:
		return time.Time{}
	}
}

// Record inserts a ledger row for an applied unit. The execer may be the
// unit's own transaction so the row commits or rolls back with the unit.
func (l *Ledger) Record(ctx context.Context, ex execer, u *Unit) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (revision, slug, checksum) VALUES (%s, %s, %s)",
		l.dialect.QuoteIdent(LedgerTable),
		l.dialect.Placeholder(1), l.dialect.Placeholder(2), l.dialect.Placeholder(3),
	)
	if _, err := ex.ExecContext(ctx, query, u.Revision, u.Slug, u.Checksum); err != nil {
		return everr.Wrap(everr.ErrSQLExecution, err, "failed to record applied migration").
			WithRevision(u.Revision).
			WithSQL(query)
	}
	return nil
}

// Remove deletes the ledger row for a rolled-back revision.
func (l *Ledger) Remove(ctx context.Context, ex execer, revision string) error {
	query := fmt.Sprintf(
		"DELETE FROM %s WHERE revision = %s",
		l.dialect.QuoteIdent(LedgerTable),
		l.dialect.Placeholder(1),
	)
	result, err := ex.ExecContext(ctx, query, revision)
	if err != nil {
		return everr.Wrap(everr.ErrSQLExecution, err, "failed to remove ledger row").
			WithRevision(revision).
			WithSQL(query)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return everr.New(everr.ErrMigrationConflict, "revision not present in ledger").
			WithRevision(revision)
	}
	return nil
}
