// Package dialect provides database-specific SQL generation.
// Each dialect implements type mappings from canonical snapshot types to SQL,
// identifier quoting, and the statement shapes that differ between engines.
package dialect

// Dialect defines the interface for database-specific SQL generation.
// Implementations exist for SQLite, PostgreSQL, and MySQL.
type Dialect interface {
	// Name returns the dialect name (sqlite, postgres, mysql).
	Name() string

	// -------------------------------------------------------------------------
	// Identifiers
	// -------------------------------------------------------------------------

	// QuoteIdent quotes an identifier (table/column name) for the dialect.
	// PostgreSQL/SQLite: "name", MySQL: `name`
	QuoteIdent(name string) string

	// Placeholder returns a parameter placeholder for the given index (1-based).
	// PostgreSQL: $1, $2, ... SQLite/MySQL: ?
	Placeholder(index int) string

	// -------------------------------------------------------------------------
	// Type mappings (canonical snapshot types -> SQL)
	// -------------------------------------------------------------------------

	// ColumnType maps a canonical type name to a concrete SQL type.
	// maxLength applies to varchar; zero means the dialect default.
	ColumnType(canonical string, maxLength int) string

	// AutoIncrementType returns the column clause for an auto-increment
	// integer primary key and whether that clause already includes PRIMARY KEY.
	// PostgreSQL: SERIAL / BIGSERIAL
	// SQLite: INTEGER PRIMARY KEY AUTOINCREMENT (table-level integer pk)
	// MySQL: INT/BIGINT AUTO_INCREMENT
	AutoIncrementType(big bool) (clause string, includesPrimaryKey bool)

	// -------------------------------------------------------------------------
	// Literals
	// -------------------------------------------------------------------------

	// BooleanLiteral renders a boolean value.
	BooleanLiteral(b bool) string

	// DefaultLiteral renders a default value for a DEFAULT clause.
	DefaultLiteral(value any) string

	// CurrentTimestamp returns the dialect's now() expression.
	CurrentTimestamp() string

	// -------------------------------------------------------------------------
	// Feature support
	// -------------------------------------------------------------------------

	// SupportsAlterColumn reports whether the dialect can modify an existing
	// column's type, nullability, or default in place.
	SupportsAlterColumn() bool

	// SupportsAddConstraint reports whether ALTER TABLE ADD CONSTRAINT works.
	SupportsAddConstraint() bool

	// SupportsDropConstraint reports whether constraints can be dropped.
	SupportsDropConstraint() bool

	// SupportsTransactionalDDL reports whether DDL can run inside transactions.
	SupportsTransactionalDDL() bool

	// -------------------------------------------------------------------------
	// Statement shapes that differ structurally between engines.
	// ok=false means the dialect cannot express the statement at all;
	// callers degrade to a comment pseudo-statement instead of failing.
	// -------------------------------------------------------------------------

	// AlterColumnTypeSQL changes a column's type.
	// PostgreSQL: ALTER TABLE t ALTER COLUMN c TYPE x
	// MySQL: ALTER TABLE t MODIFY COLUMN c x [NOT NULL]
	// SQLite: not expressible (table rebuild required)
	AlterColumnTypeSQL(table, column, sqlType string, nullable bool) (string, bool)

	// AlterColumnNullSQL changes a column's nullability.
	AlterColumnNullSQL(table, column, sqlType string, nullable bool) (string, bool)

	// AlterColumnDefaultSQL sets or drops a column default.
	// defaultSQL is the rendered literal; ignored when drop is true.
	AlterColumnDefaultSQL(table, column, defaultSQL string, drop bool) (string, bool)

	// DropConstraintSQL removes a named constraint of the given kind
	// (foreign_key, check, unique).
	// PostgreSQL: ALTER TABLE t DROP CONSTRAINT name
	// MySQL: ALTER TABLE t DROP FOREIGN KEY|CHECK|INDEX name
	// SQLite: not expressible
	DropConstraintSQL(table, name, kind string) (string, bool)

	// DropIndexSQL removes an index.
	// PostgreSQL/SQLite: DROP INDEX name
	// MySQL: DROP INDEX name ON table
	DropIndexSQL(table, name string) string

	// RenameColumnSQL renames a column. Supported by all three dialects.
	RenameColumnSQL(table, oldName, newName string) string

	// RenameTableSQL renames a table.
	RenameTableSQL(oldName, newName string) string
}

// Get returns the dialect implementation for the given name.
// Valid names: "sqlite", "sqlite3", "postgres", "postgresql", "mysql", "mariadb".
// Returns nil if the dialect is not supported.
func Get(name string) Dialect {
	switch name {
	case "sqlite", "sqlite3":
		return SQLite()
	case "postgres", "postgresql":
		return Postgres()
	case "mysql", "mariadb":
		return MySQL()
	default:
		return nil
	}
}

// Names returns the list of supported dialect names.
func Names() []string {
	return []string{"sqlite", "postgres", "mysql"}
}
