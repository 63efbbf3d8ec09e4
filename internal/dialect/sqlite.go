package dialect

// sqlite implements the Dialect interface for SQLite.
type sqlite struct{}

// SQLite returns the SQLite dialect implementation.
func SQLite() Dialect {
	return &sqlite{}
}

func (d *sqlite) Name() string {
	return "sqlite"
}

// -----------------------------------------------------------------------------
// Identifiers
// -----------------------------------------------------------------------------

func (d *sqlite) QuoteIdent(name string) string {
	return quoteIdentDoubleQuote(name)
}

func (d *sqlite) Placeholder(index int) string {
	// SQLite uses ? for all placeholders
	return "?"
}

// -----------------------------------------------------------------------------
// Type mappings
// SQLite has dynamic typing with type affinities: TEXT, INTEGER, REAL, BLOB.
// -----------------------------------------------------------------------------

func (d *sqlite) ColumnType(canonical string, maxLength int) string {
	switch canonical {
	case "integer", "bigint", "boolean":
		// SQLite has no native BOOLEAN; INTEGER (0/1) by affinity.
		return "INTEGER"
	case "float":
		return "REAL"
	case "varchar", "text", "uuid", "json":
		// SQLite ignores length constraints; everything textual is TEXT.
		return "TEXT"
	case "date":
		return "DATE"
	case "datetime":
		// DATETIME affinity allows round-tripping timestamps stored as TEXT.
		return "DATETIME"
	case "blob":
		return "BLOB"
	default:
		return "TEXT"
	}
}

func (d *sqlite) AutoIncrementType(big bool) (string, bool) {
	// SQLite auto-increment requires a table-level INTEGER PRIMARY KEY;
	// the clause already carries PRIMARY KEY.
	return "INTEGER PRIMARY KEY AUTOINCREMENT", true
}

// -----------------------------------------------------------------------------
// Literals
// -----------------------------------------------------------------------------

func (d *sqlite) BooleanLiteral(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (d *sqlite) DefaultLiteral(value any) string {
	return buildDefaultLiteral(value, d.BooleanLiteral)
}

func (d *sqlite) CurrentTimestamp() string {
	return "datetime('now')"
}

// -----------------------------------------------------------------------------
// Feature support
// -----------------------------------------------------------------------------

func (d *sqlite) SupportsAlterColumn() bool      { return false }
func (d *sqlite) SupportsAddConstraint() bool    { return false }
func (d *sqlite) SupportsDropConstraint() bool   { return false }
func (d *sqlite) SupportsTransactionalDDL() bool { return true }

// -----------------------------------------------------------------------------
// Statement shapes
// SQLite has very limited ALTER TABLE support. Modifying a column's type,
// nullability, default, or constraints requires table recreation:
// create new table, copy data, drop old, rename. That rebuild is left to the
// operator, so these shapes report not-expressible.
// -----------------------------------------------------------------------------

func (d *sqlite) AlterColumnTypeSQL(table, column, sqlType string, nullable bool) (string, bool) {
	return "", false
}

func (d *sqlite) AlterColumnNullSQL(table, column, sqlType string, nullable bool) (string, bool) {
	return "", false
}

func (d *sqlite) AlterColumnDefaultSQL(table, column, defaultSQL string, drop bool) (string, bool) {
	return "", false
}

func (d *sqlite) DropConstraintSQL(table, name, kind string) (string, bool) {
	return "", false
}

func (d *sqlite) DropIndexSQL(table, name string) string {
	return "DROP INDEX " + d.QuoteIdent(name)
}

func (d *sqlite) RenameColumnSQL(table, oldName, newName string) string {
	// SQLite 3.25.0+ supports RENAME COLUMN
	return buildRenameColumnSQL(table, oldName, newName, d.QuoteIdent)
}

func (d *sqlite) RenameTableSQL(oldName, newName string) string {
	return buildRenameTableSQL(oldName, newName, d.QuoteIdent)
}
