package schema

import (
	"github.com/evolvedb/evolve/internal/ast"
	"github.com/evolvedb/evolve/internal/everr"
	"github.com/evolvedb/evolve/internal/strutil"
)

// SnapshotVersion is the on-disk snapshot format version.
const SnapshotVersion = 1

// Snapshot is an immutable structural capture of a model set.
// Two identical model sets always produce byte-identical snapshots.
type Snapshot struct {
	Version  int             `yaml:"version"`
	Checksum string          `yaml:"checksum"`
	Models   []ModelSnapshot `yaml:"models"`
}

// ModelSnapshot captures one concrete model. Field order is declaration order.
type ModelSnapshot struct {
	Name    string          `yaml:"name"`
	Table   string          `yaml:"table"`
	Fields  []FieldSnapshot `yaml:"fields"`
	Indexes []IndexSnapshot `yaml:"indexes,omitempty"`
}

// FieldSnapshot captures one column-backed field.
type FieldSnapshot struct {
	Name          string         `yaml:"name"` // column name
	Type          string         `yaml:"type"`
	PrimaryKey    bool           `yaml:"primary_key,omitempty"`
	AutoIncrement bool           `yaml:"auto_increment,omitempty"`
	Unique        bool           `yaml:"unique,omitempty"`
	Nullable      bool           `yaml:"nullable,omitempty"`
	Default       any            `yaml:"default,omitempty"`
	MaxLength     int            `yaml:"max_length,omitempty"`
	Reference     *ast.Reference `yaml:"reference,omitempty"`
}

// IndexSnapshot captures one index by name, columns and uniqueness.
type IndexSnapshot struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Unique  bool     `yaml:"unique,omitempty"`
}

// ModelByTable returns the model snapshot for a table name, or nil.
func (s *Snapshot) ModelByTable(table string) *ModelSnapshot {
	for i := range s.Models {
		if s.Models[i].Table == table {
			return &s.Models[i]
		}
	}
	return nil
}

// Field returns the field snapshot for a column name, or nil.
func (m *ModelSnapshot) Field(name string) *FieldSnapshot {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	return nil
}

// FieldNames returns the column names in declaration order.
func (m *ModelSnapshot) FieldNames() []string {
	names := make([]string, len(m.Fields))
	for i := range m.Fields {
		names[i] = m.Fields[i].Name
	}
	return names
}

// Column converts the field snapshot to a column definition.
func (f *FieldSnapshot) Column() *ast.ColumnDef {
	return &ast.ColumnDef{
		Name:          f.Name,
		Type:          f.Type,
		PrimaryKey:    f.PrimaryKey,
		AutoIncrement: f.AutoIncrement,
		Unique:        f.Unique,
		Nullable:      f.Nullable,
		Default:       f.Default,
		MaxLength:     f.MaxLength,
		Reference:     f.Reference,
	}
}

// StructurallyEqual reports whether two field snapshots describe the same
// column. Name equality is not included; renames are detected separately.
func (f *FieldSnapshot) StructurallyEqual(o *FieldSnapshot) bool {
	if f.Type != o.Type ||
		f.PrimaryKey != o.PrimaryKey ||
		f.AutoIncrement != o.AutoIncrement ||
		f.Unique != o.Unique ||
		f.Nullable != o.Nullable ||
		f.MaxLength != o.MaxLength {
		return false
	}
	if !defaultEqual(f.Default, o.Default) {
		return false
	}
	return referenceEqual(f.Reference, o.Reference)
}

func defaultEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	// YAML round-trips may change the concrete numeric type; compare the
	// rendered literal forms instead of the Go values.
	return canonicalValue(a) == canonicalValue(b)
}

func referenceEqual(a, b *ast.Reference) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Build produces a snapshot from an ordered model set.
// Abstract and unmanaged models are skipped. Duplicate field or index names
// within a model keep the first occurrence. Duplicate table names across
// models are an error.
func Build(models []Model) (*Snapshot, error) {
	snap := &Snapshot{Version: SnapshotVersion}
	seen := make(map[string]string) // table -> model name

	for i := range models {
		m := &models[i]
		if err := validateModel(m); err != nil {
			return nil, err
		}
		if m.Abstract || m.Unmanaged {
			continue
		}

		table := m.TableName()
		if prev, dup := seen[table]; dup {
			return nil, everr.Newf(everr.ErrSchemaDuplicate, "table %q declared by both %s and %s", table, prev, m.Name).
				WithModel(m.Name)
		}
		seen[table] = m.Name

		snap.Models = append(snap.Models, buildModel(m, table))
	}

	snap.Checksum = computeChecksum(snap.Models)
	return snap, nil
}

func buildModel(m *Model, table string) ModelSnapshot {
	ms := ModelSnapshot{Name: m.Name, Table: table}

	seenFields := make(map[string]bool)
	for i := range m.Fields {
		f := &m.Fields[i]
		col := f.ColumnName()
		if seenFields[col] {
			continue
		}
		seenFields[col] = true

		ms.Fields = append(ms.Fields, FieldSnapshot{
			Name:          col,
			Type:          f.Type,
			PrimaryKey:    f.PrimaryKey,
			AutoIncrement: f.AutoIncrement,
			Unique:        f.Unique,
			Nullable:      f.Nullable,
			Default:       f.Default,
			MaxLength:     f.MaxLength,
			Reference:     f.Reference,
		})
	}

	seenIndexes := make(map[string]bool)
	add := func(idx IndexSnapshot) {
		if seenIndexes[idx.Name] {
			return
		}
		seenIndexes[idx.Name] = true
		ms.Indexes = append(ms.Indexes, idx)
	}

	// Implicit single-column indexes. Unique and primary key fields are
	// already index-backed by the database.
	for i := range m.Fields {
		f := &m.Fields[i]
		if !f.Indexed || f.Unique || f.PrimaryKey {
			continue
		}
		col := f.ColumnName()
		add(IndexSnapshot{
			Name:    strutil.IndexName(table, col),
			Columns: []string{col},
		})
	}

	for _, idx := range m.Indexes {
		name := idx.Name
		if name == "" {
			name = strutil.IndexName(table, idx.Columns...)
		}
		add(IndexSnapshot{Name: name, Columns: idx.Columns, Unique: idx.Unique})
	}

	return ms
}
