package ast

import (
	"fmt"
	"strings"

	"github.com/evolvedb/evolve/internal/dialect"
	"github.com/evolvedb/evolve/internal/everr"
	"github.com/evolvedb/evolve/internal/strutil"
)

// PseudoPrefix marks comment pseudo-statements: SQL the target dialect cannot
// express degrades to a comment carrying this prefix instead of failing the
// compile. The runner skips them; the sql command prints them so the gap is
// visible in review.
const PseudoPrefix = "-- evolve: "

// IsPseudoStatement reports whether stmt is a comment pseudo-statement (or any
// other comment-only line) that must not be sent to the database.
func IsPseudoStatement(stmt string) bool {
	return strings.HasPrefix(strings.TrimSpace(stmt), "--")
}

func pseudo(format string, args ...any) string {
	return PseudoPrefix + fmt.Sprintf(format, args...)
}

func errIrreversible(kind OpKind, detail string) error {
	return everr.New(everr.ErrIrreversible, "operation cannot be reversed").
		With("operation", string(kind)).
		With("detail", detail)
}

// -----------------------------------------------------------------------------
// CreateModel
// -----------------------------------------------------------------------------

func (op *CreateModel) Forward(d dialect.Dialect) ([]string, error) {
	cols := make([]string, len(op.Columns))
	for i, col := range op.Columns {
		cols[i] = col.SQL(d)
	}
	body := strutil.Indent(strings.Join(cols, ",\n"), 2)
	stmt := "CREATE TABLE " + d.QuoteIdent(op.Table) + " (\n" + body + "\n)"
	return []string{stmt}, nil
}

func (op *CreateModel) Reverse(d dialect.Dialect) ([]string, error) {
	return []string{"DROP TABLE " + d.QuoteIdent(op.Table)}, nil
}

// -----------------------------------------------------------------------------
// DropModel
// -----------------------------------------------------------------------------

func (op *DropModel) Forward(d dialect.Dialect) ([]string, error) {
	return []string{"DROP TABLE " + d.QuoteIdent(op.Table)}, nil
}

func (op *DropModel) Reverse(d dialect.Dialect) ([]string, error) {
	return nil, errIrreversible(op.Kind(), "dropped table definition is not retained")
}

// -----------------------------------------------------------------------------
// RenameModel
// -----------------------------------------------------------------------------

func (op *RenameModel) Forward(d dialect.Dialect) ([]string, error) {
	return []string{d.RenameTableSQL(op.OldTable, op.NewTable)}, nil
}

func (op *RenameModel) Reverse(d dialect.Dialect) ([]string, error) {
	return []string{d.RenameTableSQL(op.NewTable, op.OldTable)}, nil
}

// -----------------------------------------------------------------------------
// AddField
// -----------------------------------------------------------------------------

func (op *AddField) Forward(d dialect.Dialect) ([]string, error) {
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s",
		d.QuoteIdent(op.Table), op.Column.SQL(d))
	return []string{stmt}, nil
}

func (op *AddField) Reverse(d dialect.Dialect) ([]string, error) {
	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
		d.QuoteIdent(op.Table), d.QuoteIdent(op.Column.Name))
	return []string{stmt}, nil
}

// -----------------------------------------------------------------------------
// RemoveField
// -----------------------------------------------------------------------------

func (op *RemoveField) Forward(d dialect.Dialect) ([]string, error) {
	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
		d.QuoteIdent(op.Table), d.QuoteIdent(op.Column))
	return []string{stmt}, nil
}

func (op *RemoveField) Reverse(d dialect.Dialect) ([]string, error) {
	return nil, errIrreversible(op.Kind(), "removed column definition is not retained")
}

// -----------------------------------------------------------------------------
// AlterField
// -----------------------------------------------------------------------------

func (op *AlterField) Forward(d dialect.Dialect) ([]string, error) {
	col := op.Column
	if !d.SupportsAlterColumn() {
		return []string{
			pseudo("%s cannot alter column %q on table %q in place; recreate the table manually",
				d.Name(), col.Name, op.Table),
		}, nil
	}

	sqlType := d.ColumnType(col.Type, col.MaxLength)
	var stmts []string

	if stmt, ok := d.AlterColumnTypeSQL(op.Table, col.Name, sqlType, col.Nullable); ok {
		stmts = append(stmts, stmt)
	}
	// MySQL restates the full column in MODIFY COLUMN, making the nullability
	// statement identical to the type statement; emit it once.
	if stmt, ok := d.AlterColumnNullSQL(op.Table, col.Name, sqlType, col.Nullable); ok {
		if len(stmts) == 0 || stmts[len(stmts)-1] != stmt {
			stmts = append(stmts, stmt)
		}
	}
	if col.Default != nil {
		if stmt, ok := d.AlterColumnDefaultSQL(op.Table, col.Name, d.DefaultLiteral(col.Default), false); ok {
			stmts = append(stmts, stmt)
		}
	} else {
		if stmt, ok := d.AlterColumnDefaultSQL(op.Table, col.Name, "", true); ok {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}

func (op *AlterField) Reverse(d dialect.Dialect) ([]string, error) {
	return nil, errIrreversible(op.Kind(), "previous column definition is not retained")
}

// -----------------------------------------------------------------------------
// RenameField
// -----------------------------------------------------------------------------

func (op *RenameField) Forward(d dialect.Dialect) ([]string, error) {
	return []string{d.RenameColumnSQL(op.Table, op.OldName, op.NewName)}, nil
}

func (op *RenameField) Reverse(d dialect.Dialect) ([]string, error) {
	return []string{d.RenameColumnSQL(op.Table, op.NewName, op.OldName)}, nil
}

// -----------------------------------------------------------------------------
// CreateIndex / DropIndex
// -----------------------------------------------------------------------------

func createIndexSQL(d dialect.Dialect, table, name string, columns []string, unique bool) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	b.WriteString(d.QuoteIdent(name))
	b.WriteString(" ON ")
	b.WriteString(d.QuoteIdent(table))
	b.WriteString(" (")
	writeQuotedList(&b, columns, d.QuoteIdent)
	b.WriteString(")")
	return b.String()
}

func (op *CreateIndex) Forward(d dialect.Dialect) ([]string, error) {
	return []string{createIndexSQL(d, op.Table, op.Index.Name, op.Index.Columns, op.Index.Unique)}, nil
}

func (op *CreateIndex) Reverse(d dialect.Dialect) ([]string, error) {
	return []string{d.DropIndexSQL(op.Table, op.Index.Name)}, nil
}

func (op *DropIndex) Forward(d dialect.Dialect) ([]string, error) {
	return []string{d.DropIndexSQL(op.Table, op.Name)}, nil
}

func (op *DropIndex) Reverse(d dialect.Dialect) ([]string, error) {
	if len(op.Columns) == 0 {
		return nil, errIrreversible(op.Kind(), "dropped index columns are not retained")
	}
	return []string{createIndexSQL(d, op.Table, op.Name, op.Columns, op.Unique)}, nil
}

// -----------------------------------------------------------------------------
// AddConstraint / RemoveConstraint
// -----------------------------------------------------------------------------

func (op *AddConstraint) Forward(d dialect.Dialect) ([]string, error) {
	c := op.Constraint
	name := c.EffectiveName(op.Table)
	if !d.SupportsAddConstraint() {
		return []string{
			pseudo("%s cannot add constraint %q to table %q; recreate the table manually",
				d.Name(), name, op.Table),
		}, nil
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s",
		d.QuoteIdent(op.Table), d.QuoteIdent(name), c.bodySQL(d))
	return []string{stmt}, nil
}

func (op *AddConstraint) Reverse(d dialect.Dialect) ([]string, error) {
	name := op.Constraint.EffectiveName(op.Table)
	stmt, ok := d.DropConstraintSQL(op.Table, name, op.Constraint.Kind)
	if !ok {
		return []string{
			pseudo("%s cannot drop constraint %q from table %q; recreate the table manually",
				d.Name(), name, op.Table),
		}, nil
	}
	return []string{stmt}, nil
}

func (op *RemoveConstraint) Forward(d dialect.Dialect) ([]string, error) {
	stmt, ok := d.DropConstraintSQL(op.Table, op.Name, op.ConstraintKind)
	if !ok {
		return []string{
			pseudo("%s cannot drop constraint %q from table %q; recreate the table manually",
				d.Name(), op.Name, op.Table),
		}, nil
	}
	return []string{stmt}, nil
}

func (op *RemoveConstraint) Reverse(d dialect.Dialect) ([]string, error) {
	return nil, errIrreversible(op.Kind(), "removed constraint definition is not retained")
}

// -----------------------------------------------------------------------------
// RunRaw
// -----------------------------------------------------------------------------

// sqlFor picks the dialect-specific override when one is set.
func (op *RunRaw) sqlFor(d dialect.Dialect) string {
	switch d.Name() {
	case "postgres":
		if op.Postgres != "" {
			return op.Postgres
		}
	case "sqlite":
		if op.SQLite != "" {
			return op.SQLite
		}
	case "mysql":
		if op.MySQL != "" {
			return op.MySQL
		}
	}
	return op.SQL
}

func (op *RunRaw) Forward(d dialect.Dialect) ([]string, error) {
	stmt := op.sqlFor(d)
	if stmt == "" {
		return []string{pseudo("no raw SQL provided for dialect %s", d.Name())}, nil
	}
	return []string{stmt}, nil
}

func (op *RunRaw) Reverse(d dialect.Dialect) ([]string, error) {
	if op.Down == "" {
		return nil, errIrreversible(op.Kind(), "no reverse SQL provided")
	}
	return []string{op.Down}, nil
}

// -----------------------------------------------------------------------------
// RunCallback
// -----------------------------------------------------------------------------

// Callbacks compile to pseudo-statements: the runner invokes the registered
// handler directly and the sql command shows the marker in the rendered plan.
func (op *RunCallback) Forward(d dialect.Dialect) ([]string, error) {
	return []string{pseudo("callback %s", op.Name)}, nil
}

func (op *RunCallback) Reverse(d dialect.Dialect) ([]string, error) {
	if op.DownName == "" {
		return nil, errIrreversible(op.Kind(), "no reverse callback registered")
	}
	return []string{pseudo("callback %s", op.DownName)}, nil
}
