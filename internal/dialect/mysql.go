package dialect

import "fmt"

// mysql implements the Dialect interface for MySQL/MariaDB.
type mysql struct{}

// MySQL returns the MySQL dialect implementation.
func MySQL() Dialect {
	return &mysql{}
}

func (d *mysql) Name() string {
	return "mysql"
}

// -----------------------------------------------------------------------------
// Identifiers
// -----------------------------------------------------------------------------

func (d *mysql) QuoteIdent(name string) string {
	return quoteIdentBacktick(name)
}

func (d *mysql) Placeholder(index int) string {
	return "?"
}

// -----------------------------------------------------------------------------
// Type mappings
// -----------------------------------------------------------------------------

func (d *mysql) ColumnType(canonical string, maxLength int) string {
	switch canonical {
	case "integer":
		return "INT"
	case "bigint":
		return "BIGINT"
	case "float":
		return "DOUBLE"
	case "varchar":
		if maxLength <= 0 {
			maxLength = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", maxLength)
	case "text":
		return "TEXT"
	case "boolean":
		// MySQL BOOLEAN is an alias for TINYINT(1).
		return "TINYINT(1)"
	case "date":
		return "DATE"
	case "datetime":
		return "DATETIME"
	case "uuid":
		return "CHAR(36)"
	case "json":
		return "JSON"
	case "blob":
		return "BLOB"
	default:
		return "TEXT"
	}
}

func (d *mysql) AutoIncrementType(big bool) (string, bool) {
	if big {
		return "BIGINT AUTO_INCREMENT", false
	}
	return "INT AUTO_INCREMENT", false
}

// -----------------------------------------------------------------------------
// Literals
// -----------------------------------------------------------------------------

func (d *mysql) BooleanLiteral(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (d *mysql) DefaultLiteral(value any) string {
	return buildDefaultLiteral(value, d.BooleanLiteral)
}

func (d *mysql) CurrentTimestamp() string {
	return "CURRENT_TIMESTAMP"
}

// -----------------------------------------------------------------------------
// Feature support
// -----------------------------------------------------------------------------

func (d *mysql) SupportsAlterColumn() bool      { return true }
func (d *mysql) SupportsAddConstraint() bool    { return true }
func (d *mysql) SupportsDropConstraint() bool   { return true }
func (d *mysql) SupportsTransactionalDDL() bool { return false }

// -----------------------------------------------------------------------------
// Statement shapes
// MySQL modifies columns with MODIFY COLUMN, which restates the full column
// definition, so nullability rides along with the type.
// -----------------------------------------------------------------------------

func (d *mysql) modifyColumn(table, column, sqlType string, nullable bool) string {
	stmt := "ALTER TABLE " + d.QuoteIdent(table) +
		" MODIFY COLUMN " + d.QuoteIdent(column) + " " + sqlType
	if !nullable {
		stmt += " NOT NULL"
	}
	return stmt
}

func (d *mysql) AlterColumnTypeSQL(table, column, sqlType string, nullable bool) (string, bool) {
	return d.modifyColumn(table, column, sqlType, nullable), true
}

func (d *mysql) AlterColumnNullSQL(table, column, sqlType string, nullable bool) (string, bool) {
	return d.modifyColumn(table, column, sqlType, nullable), true
}

func (d *mysql) AlterColumnDefaultSQL(table, column, defaultSQL string, drop bool) (string, bool) {
	prefix := "ALTER TABLE " + d.QuoteIdent(table) +
		" ALTER COLUMN " + d.QuoteIdent(column)
	if drop {
		return prefix + " DROP DEFAULT", true
	}
	return prefix + " SET DEFAULT " + defaultSQL, true
}

func (d *mysql) DropConstraintSQL(table, name, kind string) (string, bool) {
	prefix := "ALTER TABLE " + d.QuoteIdent(table)
	switch kind {
	case "foreign_key":
		return prefix + " DROP FOREIGN KEY " + d.QuoteIdent(name), true
	case "check":
		return prefix + " DROP CHECK " + d.QuoteIdent(name), true
	case "unique":
		// Unique constraints are backed by indexes in MySQL.
		return prefix + " DROP INDEX " + d.QuoteIdent(name), true
	default:
		return prefix + " DROP CONSTRAINT " + d.QuoteIdent(name), true
	}
}

func (d *mysql) DropIndexSQL(table, name string) string {
	return "DROP INDEX " + d.QuoteIdent(name) + " ON " + d.QuoteIdent(table)
}

func (d *mysql) RenameColumnSQL(table, oldName, newName string) string {
	// MySQL 8.0+ supports RENAME COLUMN
	return buildRenameColumnSQL(table, oldName, newName, d.QuoteIdent)
}

func (d *mysql) RenameTableSQL(oldName, newName string) string {
	return "RENAME TABLE " + d.QuoteIdent(oldName) + " TO " + d.QuoteIdent(newName)
}
