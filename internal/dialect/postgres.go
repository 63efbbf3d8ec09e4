package dialect

import "fmt"

// postgres implements the Dialect interface for PostgreSQL.
type postgres struct{}

// Postgres returns the PostgreSQL dialect implementation.
func Postgres() Dialect {
	return &postgres{}
}

func (d *postgres) Name() string {
	return "postgres"
}

// -----------------------------------------------------------------------------
// Identifiers
// -----------------------------------------------------------------------------

func (d *postgres) QuoteIdent(name string) string {
	return quoteIdentDoubleQuote(name)
}

func (d *postgres) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

// -----------------------------------------------------------------------------
// Type mappings
// -----------------------------------------------------------------------------

func (d *postgres) ColumnType(canonical string, maxLength int) string {
	switch canonical {
	case "integer":
		return "INTEGER"
	case "bigint":
		return "BIGINT"
	case "float":
		return "DOUBLE PRECISION"
	case "varchar":
		if maxLength <= 0 {
			maxLength = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", maxLength)
	case "text":
		return "TEXT"
	case "boolean":
		return "BOOLEAN"
	case "date":
		return "DATE"
	case "datetime":
		return "TIMESTAMPTZ"
	case "uuid":
		return "UUID"
	case "json":
		return "JSONB"
	case "blob":
		return "BYTEA"
	default:
		return "TEXT"
	}
}

func (d *postgres) AutoIncrementType(big bool) (string, bool) {
	if big {
		return "BIGSERIAL", false
	}
	return "SERIAL", false
}

// -----------------------------------------------------------------------------
// Literals
// -----------------------------------------------------------------------------

func (d *postgres) BooleanLiteral(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (d *postgres) DefaultLiteral(value any) string {
	return buildDefaultLiteral(value, d.BooleanLiteral)
}

func (d *postgres) CurrentTimestamp() string {
	return "CURRENT_TIMESTAMP"
}

// -----------------------------------------------------------------------------
// Feature support
// -----------------------------------------------------------------------------

func (d *postgres) SupportsAlterColumn() bool      { return true }
func (d *postgres) SupportsAddConstraint() bool    { return true }
func (d *postgres) SupportsDropConstraint() bool   { return true }
func (d *postgres) SupportsTransactionalDDL() bool { return true }

// -----------------------------------------------------------------------------
// Statement shapes
// -----------------------------------------------------------------------------

func (d *postgres) AlterColumnTypeSQL(table, column, sqlType string, nullable bool) (string, bool) {
	return "ALTER TABLE " + d.QuoteIdent(table) +
		" ALTER COLUMN " + d.QuoteIdent(column) +
		" TYPE " + sqlType, true
}

func (d *postgres) AlterColumnNullSQL(table, column, sqlType string, nullable bool) (string, bool) {
	clause := " SET NOT NULL"
	if nullable {
		clause = " DROP NOT NULL"
	}
	return "ALTER TABLE " + d.QuoteIdent(table) +
		" ALTER COLUMN " + d.QuoteIdent(column) + clause, true
}

func (d *postgres) AlterColumnDefaultSQL(table, column, defaultSQL string, drop bool) (string, bool) {
	prefix := "ALTER TABLE " + d.QuoteIdent(table) +
		" ALTER COLUMN " + d.QuoteIdent(column)
	if drop {
		return prefix + " DROP DEFAULT", true
	}
	return prefix + " SET DEFAULT " + defaultSQL, true
}

func (d *postgres) DropConstraintSQL(table, name, kind string) (string, bool) {
	// PostgreSQL drops every constraint kind with the same clause.
	return "ALTER TABLE " + d.QuoteIdent(table) +
		" DROP CONSTRAINT " + d.QuoteIdent(name), true
}

func (d *postgres) DropIndexSQL(table, name string) string {
	return "DROP INDEX " + d.QuoteIdent(name)
}

func (d *postgres) RenameColumnSQL(table, oldName, newName string) string {
	return buildRenameColumnSQL(table, oldName, newName, d.QuoteIdent)
}

func (d *postgres) RenameTableSQL(oldName, newName string) string {
	return buildRenameTableSQL(oldName, newName, d.QuoteIdent)
}
