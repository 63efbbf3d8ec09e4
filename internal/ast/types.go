// Package ast defines the closed set of schema-change operations.
// Operations represent atomic changes to the database schema; each one
// compiles itself to forward and, where safe, reverse SQL for any dialect.
package ast

// OpKind identifies an operation variant. The string values double as the
// stable on-disk encoding in migration unit files.
type OpKind string

const (
	// OpCreateModel creates a new table for a model with its full column set.
	OpCreateModel OpKind = "create_model"

	// OpDropModel removes a model's table.
	OpDropModel OpKind = "drop_model"

	// OpRenameModel renames a model's table.
	OpRenameModel OpKind = "rename_model"

	// OpAddField adds a column to an existing table.
	OpAddField OpKind = "add_field"

	// OpRemoveField removes a column from an existing table.
	OpRemoveField OpKind = "remove_field"

	// OpAlterField modifies a column's type, nullability, or default.
	OpAlterField OpKind = "alter_field"

	// OpRenameField renames a column.
	OpRenameField OpKind = "rename_field"

	// OpCreateIndex creates an index on one or more columns.
	OpCreateIndex OpKind = "create_index"

	// OpDropIndex removes an index.
	OpDropIndex OpKind = "drop_index"

	// OpAddConstraint adds a named table constraint.
	OpAddConstraint OpKind = "add_constraint"

	// OpRemoveConstraint removes a named table constraint.
	OpRemoveConstraint OpKind = "remove_constraint"

	// OpRunRaw executes a raw SQL statement (escape hatch).
	OpRunRaw OpKind = "run_raw"

	// OpRunCallback invokes a registered Go handler inside the unit's transaction.
	OpRunCallback OpKind = "run_callback"
)

// Kinds returns every operation kind in the closed set.
func Kinds() []OpKind {
	return []OpKind{
		OpCreateModel, OpDropModel, OpRenameModel,
		OpAddField, OpRemoveField, OpAlterField, OpRenameField,
		OpCreateIndex, OpDropIndex,
		OpAddConstraint, OpRemoveConstraint,
		OpRunRaw, OpRunCallback,
	}
}

// String returns the string representation of an OpKind.
func (k OpKind) String() string {
	return string(k)
}

// Constraint kinds used by AddConstraint/RemoveConstraint.
const (
	ConstraintForeignKey = "foreign_key"
	ConstraintCheck      = "check"
	ConstraintUnique     = "unique"
)
