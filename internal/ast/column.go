package ast

import (
	"strings"

	"github.com/evolvedb/evolve/internal/dialect"
	"github.com/evolvedb/evolve/internal/everr"
	"github.com/evolvedb/evolve/internal/strutil"
)

// Reference describes a foreign key relation carried by a column.
type Reference struct {
	Table    string `yaml:"table"`
	Column   string `yaml:"column,omitempty"`
	OnDelete string `yaml:"on_delete,omitempty"`
	OnUpdate string `yaml:"on_update,omitempty"`
}

// ColumnDef is a concrete, dialect-independent column description.
// It owns its own dialect-aware rendering.
type ColumnDef struct {
	Name          string     `yaml:"name"`
	Type          string     `yaml:"type"` // canonical type name (varchar, integer, ...)
	PrimaryKey    bool       `yaml:"primary_key,omitempty"`
	AutoIncrement bool       `yaml:"auto_increment,omitempty"`
	Unique        bool       `yaml:"unique,omitempty"`
	Nullable      bool       `yaml:"nullable,omitempty"`
	Default       any        `yaml:"default,omitempty"`
	MaxLength     int        `yaml:"max_length,omitempty"`
	Reference     *Reference `yaml:"reference,omitempty"`
}

// Validate checks that the column definition is well-formed.
func (c *ColumnDef) Validate() error {
	if c.Name == "" {
		return everr.New(everr.ErrInvalidOperation, "column name is required")
	}
	if c.Type == "" {
		return everr.New(everr.ErrInvalidOperation, "column type is required").
			WithField(c.Name)
	}
	if c.AutoIncrement && !c.PrimaryKey {
		return everr.New(everr.ErrInvalidOperation, "auto-increment column must be the primary key").
			WithField(c.Name)
	}
	if c.Reference != nil && c.Reference.Table == "" {
		return everr.New(everr.ErrInvalidOperation, "reference must name a table").
			WithField(c.Name)
	}
	return nil
}

// SQL renders the column definition clause for the given dialect, e.g.
// `"email" VARCHAR(255) NOT NULL UNIQUE`.
func (c *ColumnDef) SQL(d dialect.Dialect) string {
	var b strings.Builder

	b.WriteString(d.QuoteIdent(c.Name))
	b.WriteString(" ")

	if c.AutoIncrement {
		clause, includesPK := d.AutoIncrementType(c.Type == "bigint")
		b.WriteString(clause)
		if c.PrimaryKey && !includesPK {
			b.WriteString(" PRIMARY KEY")
		}
		return b.String()
	}

	b.WriteString(d.ColumnType(c.Type, c.MaxLength))

	if c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
	}
	if !c.Nullable && !c.PrimaryKey {
		b.WriteString(" NOT NULL")
	}
	if c.Unique && !c.PrimaryKey {
		b.WriteString(" UNIQUE")
	}
	if c.Default != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(d.DefaultLiteral(c.Default))
	}

	// Inline foreign key reference.
	if c.Reference != nil {
		b.WriteString(" REFERENCES ")
		b.WriteString(d.QuoteIdent(c.Reference.Table))
		b.WriteString("(")
		refCol := c.Reference.Column
		if refCol == "" {
			refCol = "id"
		}
		b.WriteString(d.QuoteIdent(refCol))
		b.WriteString(")")

		if c.Reference.OnDelete != "" {
			b.WriteString(" ON DELETE ")
			b.WriteString(c.Reference.OnDelete)
		}
		if c.Reference.OnUpdate != "" {
			b.WriteString(" ON UPDATE ")
			b.WriteString(c.Reference.OnUpdate)
		}
	}

	return b.String()
}

// IndexDef describes a named index over one or more columns.
type IndexDef struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Unique  bool     `yaml:"unique,omitempty"`
}

// Validate checks that the index definition is well-formed.
func (i *IndexDef) Validate() error {
	if i.Name == "" {
		return everr.New(everr.ErrInvalidOperation, "index name is required")
	}
	if len(i.Columns) == 0 {
		return everr.New(everr.ErrInvalidOperation, "index must have at least one column").
			With("index", i.Name)
	}
	return nil
}

// Constraint describes a table constraint.
// Kind is one of ConstraintForeignKey, ConstraintCheck, ConstraintUnique.
// Name may be left empty; a deterministic one is derived from the kind,
// table, and columns when the constraint is compiled.
type Constraint struct {
	Name       string   `yaml:"name"`
	Kind       string   `yaml:"kind"`
	Columns    []string `yaml:"columns,omitempty"`
	Expression string   `yaml:"expression,omitempty"` // check constraints
	RefTable   string   `yaml:"ref_table,omitempty"`  // foreign keys
	RefColumn  string   `yaml:"ref_column,omitempty"`
	OnDelete   string   `yaml:"on_delete,omitempty"`
	OnUpdate   string   `yaml:"on_update,omitempty"`
}

// Validate checks that the constraint definition is well-formed.
func (c *Constraint) Validate() error {
	switch c.Kind {
	case ConstraintForeignKey:
		if len(c.Columns) == 0 {
			return everr.New(everr.ErrInvalidOperation, "foreign key must have at least one column").
				With("constraint", c.Name)
		}
		if c.RefTable == "" {
			return everr.New(everr.ErrInvalidOperation, "foreign key must reference a table").
				With("constraint", c.Name)
		}
	case ConstraintCheck:
		if c.Expression == "" {
			return everr.New(everr.ErrInvalidOperation, "check constraint requires an expression").
				With("constraint", c.Name)
		}
	case ConstraintUnique:
		if len(c.Columns) == 0 {
			return everr.New(everr.ErrInvalidOperation, "unique constraint must have at least one column").
				With("constraint", c.Name)
		}
	default:
		return everr.Newf(everr.ErrInvalidOperation, "unknown constraint kind %q", c.Kind).
			With("constraint", c.Name)
	}
	return nil
}

// EffectiveName returns the explicit constraint name, or derives a
// deterministic one: fk_<table>_<cols>, ck_<table>_<cols>, uq_<table>_<cols>.
func (c *Constraint) EffectiveName(table string) string {
	if c.Name != "" {
		return c.Name
	}
	prefix := "ct"
	switch c.Kind {
	case ConstraintForeignKey:
		prefix = "fk"
	case ConstraintCheck:
		prefix = "ck"
	case ConstraintUnique:
		prefix = "uq"
	}
	suffix := strings.Join(c.Columns, "_")
	if suffix == "" {
		// check constraints may carry only an expression
		suffix = "expr"
	}
	return strutil.ConstraintName(prefix, table, suffix)
}

// bodySQL renders the constraint body (without ADD CONSTRAINT prefix).
func (c *Constraint) bodySQL(d dialect.Dialect) string {
	var b strings.Builder

	switch c.Kind {
	case ConstraintForeignKey:
		b.WriteString("FOREIGN KEY (")
		writeQuotedList(&b, c.Columns, d.QuoteIdent)
		b.WriteString(") REFERENCES ")
		b.WriteString(d.QuoteIdent(c.RefTable))
		b.WriteString(" (")
		refCol := c.RefColumn
		if refCol == "" {
			refCol = "id"
		}
		b.WriteString(d.QuoteIdent(refCol))
		b.WriteString(")")
		if c.OnDelete != "" {
			b.WriteString(" ON DELETE ")
			b.WriteString(c.OnDelete)
		}
		if c.OnUpdate != "" {
			b.WriteString(" ON UPDATE ")
			b.WriteString(c.OnUpdate)
		}
	case ConstraintCheck:
		b.WriteString("CHECK (")
		b.WriteString(c.Expression)
		b.WriteString(")")
	case ConstraintUnique:
		b.WriteString("UNIQUE (")
		writeQuotedList(&b, c.Columns, d.QuoteIdent)
		b.WriteString(")")
	}

	return b.String()
}

// writeQuotedList writes comma-separated quoted identifiers to the builder.
func writeQuotedList(b *strings.Builder, items []string, quote func(string) string) {
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(item))
	}
}
