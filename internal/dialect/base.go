// Package dialect provides database-specific SQL generation.
// This file contains shared helper functions used by all dialect implementations.
package dialect

import (
	"fmt"
	"strings"
)

// quoteIdentDoubleQuote quotes an identifier with double quotes (ANSI style),
// escaping embedded quotes. Used by PostgreSQL and SQLite.
func quoteIdentDoubleQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteIdentBacktick quotes an identifier with backticks. Used by MySQL.
func quoteIdentBacktick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Expr marks a raw SQL expression so DefaultLiteral passes it through unquoted.
// Used for server-side defaults such as CURRENT_TIMESTAMP.
type Expr string

// buildDefaultLiteral renders a default value as SQL. Booleans go through the
// dialect's BooleanLiteral, the only literal that differs between engines.
func buildDefaultLiteral(value any, boolLit func(bool) string) string {
	switch v := value.(type) {
	case Expr:
		return string(v)
	case string:
		escaped := strings.ReplaceAll(v, "'", "''")
		return "'" + escaped + "'"
	case bool:
		return boolLit(v)
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%g", v)
	case nil:
		return "NULL"
	default:
		return fmt.Sprintf("'%v'", v)
	}
}

// buildRenameColumnSQL generates ALTER TABLE RENAME COLUMN SQL.
// This is identical across PostgreSQL, SQLite 3.25.0+, and MySQL 8+.
func buildRenameColumnSQL(table, oldName, newName string, quote func(string) string) string {
	var b strings.Builder

	b.WriteString("ALTER TABLE ")
	b.WriteString(quote(table))
	b.WriteString(" RENAME COLUMN ")
	b.WriteString(quote(oldName))
	b.WriteString(" TO ")
	b.WriteString(quote(newName))

	return b.String()
}

// buildRenameTableSQL generates ALTER TABLE RENAME TO SQL.
func buildRenameTableSQL(oldName, newName string, quote func(string) string) string {
	var b strings.Builder

	b.WriteString("ALTER TABLE ")
	b.WriteString(quote(oldName))
	b.WriteString(" RENAME TO ")
	b.WriteString(quote(newName))

	return b.String()
}
