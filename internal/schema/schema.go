// Package schema turns declarative model definitions into immutable structural
// snapshots. Snapshots are the single input to the diff engine: the database is
// never introspected to decide what changed.
package schema

import (
	"strings"

	"github.com/evolvedb/evolve/internal/ast"
	"github.com/evolvedb/evolve/internal/everr"
	"github.com/evolvedb/evolve/internal/strutil"
)

// canonicalTypes is the closed set of dialect-independent field types.
var canonicalTypes = map[string]bool{
	"integer":  true,
	"bigint":   true,
	"float":    true,
	"varchar":  true,
	"text":     true,
	"boolean":  true,
	"date":     true,
	"datetime": true,
	"uuid":     true,
	"json":     true,
	"blob":     true,
}

// Model is a declarative model definition supplied by the caller.
// Models are passed as an explicit ordered slice; there is no global registry.
type Model struct {
	// Name is the model name, e.g. "User".
	Name string

	// Table overrides the table name; empty means snake_case of Name.
	Table string

	Fields []Field

	// Indexes declares composite indexes in addition to the implicit
	// single-column indexes derived from Indexed fields.
	Indexes []Index

	// Ordering is the default query ordering for the model, as field names
	// with an optional "-" prefix for descending. Query-layer metadata only:
	// it never reaches the snapshot and has no structural effect.
	Ordering []string

	// Abstract models contribute no table of their own.
	Abstract bool

	// Unmanaged models map to tables owned by something else; they are
	// excluded from snapshots and therefore never migrated.
	Unmanaged bool
}

// TableName returns the effective table name.
func (m *Model) TableName() string {
	if m.Table != "" {
		return m.Table
	}
	return strutil.ToSnakeCase(m.Name)
}

// Field is a declarative field definition.
type Field struct {
	// Name is the field name; the column name is its snake_case form unless
	// Column is set.
	Name   string
	Column string

	// Type is a canonical type name: integer, bigint, float, varchar, text,
	// boolean, date, datetime, uuid, json, blob.
	Type string

	PrimaryKey    bool
	AutoIncrement bool
	Unique        bool
	Nullable      bool

	// Indexed requests a single-column index. Redundant on unique or primary
	// key fields, which are already backed by an index.
	Indexed bool

	Default   any
	MaxLength int

	// Reference marks the field as a foreign key.
	Reference *ast.Reference
}

// ColumnName returns the effective column name. Relation fields follow the
// foreign key convention: a field named "Author" maps to "author_id" unless
// the name already carries the suffix or Column overrides it.
func (f *Field) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}
	name := strutil.ToSnakeCase(f.Name)
	if f.Reference != nil && !strings.HasSuffix(name, "_id") {
		return strutil.FKColumn(name)
	}
	return name
}

// Index is a declared composite index.
type Index struct {
	// Name overrides the index name; empty means idx_<table>_<cols...>.
	Name    string
	Columns []string
	Unique  bool
}

func validateModel(m *Model) error {
	if m.Name == "" {
		return everr.New(everr.ErrSchemaInvalid, "model name is required")
	}
	if len(m.Fields) == 0 && !m.Abstract {
		return everr.New(everr.ErrSchemaInvalid, "model must declare at least one field").
			WithModel(m.Name)
	}
	for i := range m.Fields {
		if err := validateField(&m.Fields[i]); err != nil {
			return everr.Wrap(everr.ErrSchemaInvalid, err, "invalid field").
				WithModel(m.Name)
		}
	}
	for _, idx := range m.Indexes {
		if len(idx.Columns) == 0 {
			return everr.New(everr.ErrSchemaInvalid, "index must have at least one column").
				WithModel(m.Name)
		}
	}
	return nil
}

func validateField(f *Field) error {
	if f.Name == "" {
		return everr.New(everr.ErrSchemaInvalid, "field name is required")
	}
	if !canonicalTypes[f.Type] {
		return everr.Newf(everr.ErrSchemaInvalid, "unknown field type %q", f.Type).
			WithField(f.Name)
	}
	if f.Type == "varchar" && f.MaxLength <= 0 {
		return everr.New(everr.ErrSchemaInvalid, "varchar field requires max length").
			WithField(f.Name)
	}
	if f.AutoIncrement && !f.PrimaryKey {
		return everr.New(everr.ErrSchemaInvalid, "auto-increment field must be the primary key").
			WithField(f.Name)
	}
	if f.Reference != nil && f.Reference.Table == "" {
		return everr.New(everr.ErrSchemaInvalid, "reference must name a table").
			WithField(f.Name)
	}
	return nil
}
