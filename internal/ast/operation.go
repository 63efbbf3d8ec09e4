package ast

import (
	"github.com/evolvedb/evolve/internal/dialect"
	"github.com/evolvedb/evolve/internal/everr"
)

// Operation represents a single atomic change to the database schema.
// All schema changes are converted to Operations before being rendered to SQL.
//
// The set of variants is closed: every variant implements its own Forward and
// Reverse compilation, so there is no central dispatch with an "unknown
// operation" fallback.
type Operation interface {
	// Kind returns the operation kind (OpCreateModel, OpAddField, etc.)
	Kind() OpKind

	// Validate checks that the operation is well-formed.
	Validate() error

	// Forward compiles the operation to forward SQL statements for the dialect.
	// Statements the dialect cannot express degrade to comment pseudo-statements
	// (see IsPseudoStatement); Forward never fails for a supported dialect.
	Forward(d dialect.Dialect) ([]string, error)

	// Reverse compiles the reverse SQL statements where a safe reverse exists.
	// Operations without one return an error matching everr.ErrIrreversible,
	// which is distinct from returning an empty statement list.
	Reverse(d dialect.Dialect) ([]string, error)
}

// -----------------------------------------------------------------------------
// CreateModel - creates a model's table
// -----------------------------------------------------------------------------

// CreateModel represents creating a new table with its full column set.
type CreateModel struct {
	Model   string       `yaml:"model,omitempty"`
	Table   string       `yaml:"table"`
	Columns []*ColumnDef `yaml:"columns"`
}

func (op *CreateModel) Kind() OpKind { return OpCreateModel }

func (op *CreateModel) Validate() error {
	if op.Table == "" {
		return everr.New(everr.ErrInvalidOperation, "table name is required").
			WithModel(op.Model)
	}
	if len(op.Columns) == 0 {
		return everr.New(everr.ErrInvalidOperation, "model must have at least one field").
			WithModel(op.Model)
	}
	for _, col := range op.Columns {
		if err := col.Validate(); err != nil {
			return everr.Wrap(everr.ErrInvalidOperation, err, "invalid column").
				WithModel(op.Model).
				WithField(col.Name)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// DropModel - removes a model's table
// -----------------------------------------------------------------------------

// DropModel represents dropping a model's table. It has no safe reverse.
type DropModel struct {
	Model string `yaml:"model,omitempty"`
	Table string `yaml:"table"`
}

func (op *DropModel) Kind() OpKind { return OpDropModel }

func (op *DropModel) Validate() error {
	if op.Table == "" {
		return everr.New(everr.ErrInvalidOperation, "table name is required for drop").
			WithModel(op.Model)
	}
	return nil
}

// -----------------------------------------------------------------------------
// RenameModel - renames a model's table
// -----------------------------------------------------------------------------

// RenameModel represents renaming a model's table.
type RenameModel struct {
	OldModel string `yaml:"old_model,omitempty"`
	NewModel string `yaml:"new_model,omitempty"`
	OldTable string `yaml:"old_table"`
	NewTable string `yaml:"new_table"`
}

func (op *RenameModel) Kind() OpKind { return OpRenameModel }

func (op *RenameModel) Validate() error {
	if op.OldTable == "" || op.NewTable == "" {
		return everr.New(everr.ErrInvalidOperation, "old and new table names are required for rename")
	}
	if op.OldTable == op.NewTable {
		return everr.New(everr.ErrInvalidOperation, "old and new table names must be different").
			With("table", op.OldTable)
	}
	return nil
}

// -----------------------------------------------------------------------------
// AddField - adds a column to an existing table
// -----------------------------------------------------------------------------

// AddField represents adding a new column to an existing table.
type AddField struct {
	Model  string     `yaml:"model,omitempty"`
	Table  string     `yaml:"table"`
	Column *ColumnDef `yaml:"column"`
}

func (op *AddField) Kind() OpKind { return OpAddField }

func (op *AddField) Validate() error {
	if op.Table == "" {
		return everr.New(everr.ErrInvalidOperation, "table name is required for add field")
	}
	if op.Column == nil {
		return everr.New(everr.ErrInvalidOperation, "column definition is required").
			WithModel(op.Model)
	}
	if err := op.Column.Validate(); err != nil {
		return everr.Wrap(everr.ErrInvalidOperation, err, "invalid column").
			WithModel(op.Model).
			WithField(op.Column.Name)
	}
	return nil
}

// -----------------------------------------------------------------------------
// RemoveField - removes a column
// -----------------------------------------------------------------------------

// RemoveField represents removing a column. It has no safe reverse.
type RemoveField struct {
	Model  string `yaml:"model,omitempty"`
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
}

func (op *RemoveField) Kind() OpKind { return OpRemoveField }

func (op *RemoveField) Validate() error {
	if op.Table == "" {
		return everr.New(everr.ErrInvalidOperation, "table name is required for remove field")
	}
	if op.Column == "" {
		return everr.New(everr.ErrInvalidOperation, "column name is required for remove field").
			WithModel(op.Model)
	}
	return nil
}

// -----------------------------------------------------------------------------
// AlterField - modifies a column in place
// -----------------------------------------------------------------------------

// AlterField carries the full desired column definition; the dialect decides
// which ALTER statements realize it. It has no auto-derived reverse - the old
// definition is not retained.
type AlterField struct {
	Model  string     `yaml:"model,omitempty"`
	Table  string     `yaml:"table"`
	Column *ColumnDef `yaml:"column"`
}

func (op *AlterField) Kind() OpKind { return OpAlterField }

func (op *AlterField) Validate() error {
	if op.Table == "" {
		return everr.New(everr.ErrInvalidOperation, "table name is required for alter field")
	}
	if op.Column == nil {
		return everr.New(everr.ErrInvalidOperation, "column definition is required for alter field").
			WithModel(op.Model)
	}
	if err := op.Column.Validate(); err != nil {
		return everr.Wrap(everr.ErrInvalidOperation, err, "invalid column").
			WithModel(op.Model).
			WithField(op.Column.Name)
	}
	return nil
}

// -----------------------------------------------------------------------------
// RenameField - renames a column
// -----------------------------------------------------------------------------

// RenameField represents renaming a column in an existing table.
type RenameField struct {
	Model   string `yaml:"model,omitempty"`
	Table   string `yaml:"table"`
	OldName string `yaml:"old_name"`
	NewName string `yaml:"new_name"`
}

func (op *RenameField) Kind() OpKind { return OpRenameField }

func (op *RenameField) Validate() error {
	if op.Table == "" {
		return everr.New(everr.ErrInvalidOperation, "table name is required for rename field")
	}
	if op.OldName == "" || op.NewName == "" {
		return everr.New(everr.ErrInvalidOperation, "old and new column names are required for rename").
			WithModel(op.Model)
	}
	if op.OldName == op.NewName {
		return everr.New(everr.ErrInvalidOperation, "old and new column names must be different").
			WithModel(op.Model).
			WithField(op.OldName)
	}
	return nil
}

// -----------------------------------------------------------------------------
// CreateIndex / DropIndex
// -----------------------------------------------------------------------------

// CreateIndex represents creating a new index on one or more columns.
type CreateIndex struct {
	Model string    `yaml:"model,omitempty"`
	Table string    `yaml:"table"`
	Index *IndexDef `yaml:"index"`
}

func (op *CreateIndex) Kind() OpKind { return OpCreateIndex }

func (op *CreateIndex) Validate() error {
	if op.Table == "" {
		return everr.New(everr.ErrInvalidOperation, "table name is required for create index")
	}
	if op.Index == nil {
		return everr.New(everr.ErrInvalidOperation, "index definition is required").
			WithModel(op.Model)
	}
	return op.Index.Validate()
}

// DropIndex represents removing an index. When Columns is retained the drop
// can be reversed by recreating the index; without it there is no safe reverse.
type DropIndex struct {
	Model   string   `yaml:"model,omitempty"`
	Table   string   `yaml:"table"`
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns,omitempty"`
	Unique  bool     `yaml:"unique,omitempty"`
}

func (op *DropIndex) Kind() OpKind { return OpDropIndex }

func (op *DropIndex) Validate() error {
	if op.Table == "" {
		return everr.New(everr.ErrInvalidOperation, "table name is required for drop index")
	}
	if op.Name == "" {
		return everr.New(everr.ErrInvalidOperation, "index name is required for drop index").
			WithModel(op.Model)
	}
	return nil
}

// -----------------------------------------------------------------------------
// AddConstraint / RemoveConstraint
// -----------------------------------------------------------------------------

// AddConstraint represents adding a named table constraint.
type AddConstraint struct {
	Model      string      `yaml:"model,omitempty"`
	Table      string      `yaml:"table"`
	Constraint *Constraint `yaml:"constraint"`
}

func (op *AddConstraint) Kind() OpKind { return OpAddConstraint }

func (op *AddConstraint) Validate() error {
	if op.Table == "" {
		return everr.New(everr.ErrInvalidOperation, "table name is required for add constraint")
	}
	if op.Constraint == nil {
		return everr.New(everr.ErrInvalidOperation, "constraint definition is required").
			WithModel(op.Model)
	}
	return op.Constraint.Validate()
}

// RemoveConstraint represents removing a named table constraint.
// It has no safe reverse - the constraint definition is not retained.
type RemoveConstraint struct {
	Model          string `yaml:"model,omitempty"`
	Table          string `yaml:"table"`
	Name           string `yaml:"name"`
	ConstraintKind string `yaml:"constraint_kind,omitempty"`
}

func (op *RemoveConstraint) Kind() OpKind { return OpRemoveConstraint }

func (op *RemoveConstraint) Validate() error {
	if op.Table == "" {
		return everr.New(everr.ErrInvalidOperation, "table name is required for remove constraint")
	}
	if op.Name == "" {
		return everr.New(everr.ErrInvalidOperation, "constraint name is required for remove constraint").
			WithModel(op.Model)
	}
	return nil
}

// -----------------------------------------------------------------------------
// RunRaw - executes raw SQL
// -----------------------------------------------------------------------------

// RunRaw represents a raw SQL statement (escape hatch for unsupported
// operations). Reverse SQL must be supplied explicitly via Down.
// Use sparingly; prefer structured operations for better dialect support.
type RunRaw struct {
	SQL  string `yaml:"sql,omitempty"`
	Down string `yaml:"down,omitempty"`
	// Per-dialect overrides (optional)
	Postgres string `yaml:"postgres,omitempty"`
	SQLite   string `yaml:"sqlite,omitempty"`
	MySQL    string `yaml:"mysql,omitempty"`
}

func (op *RunRaw) Kind() OpKind { return OpRunRaw }

func (op *RunRaw) Validate() error {
	if op.SQL == "" && op.Postgres == "" && op.SQLite == "" && op.MySQL == "" {
		return everr.New(everr.ErrInvalidOperation, "raw SQL statement is required")
	}
	return nil
}

// -----------------------------------------------------------------------------
// RunCallback - invokes a registered handler
// -----------------------------------------------------------------------------

// RunCallback invokes an explicitly-registered Go handler with the unit's
// active transaction. The handler is resolved by name at execution time;
// callback failure aborts the transaction exactly like a failed statement.
type RunCallback struct {
	Name string `yaml:"name"`
	// DownName is the handler invoked on rollback; empty means irreversible.
	DownName string `yaml:"down_name,omitempty"`
}

func (op *RunCallback) Kind() OpKind { return OpRunCallback }

func (op *RunCallback) Validate() error {
	if op.Name == "" {
		return everr.New(everr.ErrInvalidOperation, "callback name is required")
	}
	return nil
}
