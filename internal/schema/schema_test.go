package schema

import (
	"path/filepath"
	"testing"

	"github.com/evolvedb/evolve/internal/ast"
	"github.com/evolvedb/evolve/internal/everr"
)

func userModel() Model {
	return Model{
		Name: "User",
		Fields: []Field{
			{Name: "id", Type: "integer", PrimaryKey: true, AutoIncrement: true},
			{Name: "Email", Type: "varchar", MaxLength: 255, Unique: true},
			{Name: "CreatedAt", Type: "datetime", Indexed: true},
		},
	}
}

func TestBuildSnapshot(t *testing.T) {
	snap, err := Build([]Model{userModel()})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(snap.Models) != 1 {
		t.Fatalf("expected 1 model, got %d", len(snap.Models))
	}
	m := snap.Models[0]
	if m.Table != "user" {
		t.Errorf("table = %q, want %q", m.Table, "user")
	}
	if got := m.FieldNames(); len(got) != 3 || got[1] != "email" || got[2] != "created_at" {
		t.Errorf("field names = %v", got)
	}
	if snap.Checksum == "" {
		t.Error("checksum not set")
	}
}

func TestBuildSkipsAbstractAndUnmanaged(t *testing.T) {
	models := []Model{
		{Name: "Base", Abstract: true},
		{Name: "External", Unmanaged: true, Fields: []Field{{Name: "id", Type: "integer"}}},
		userModel(),
	}
	snap, err := Build(models)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(snap.Models) != 1 || snap.Models[0].Name != "User" {
		t.Errorf("models = %+v", snap.Models)
	}
}

func TestColumnNameForRelationFields(t *testing.T) {
	cases := []struct {
		field Field
		want  string
	}{
		{Field{Name: "Author", Type: "integer", Reference: &ast.Reference{Table: "users"}}, "author_id"},
		{Field{Name: "author_id", Type: "integer", Reference: &ast.Reference{Table: "users"}}, "author_id"},
		{Field{Name: "Author", Column: "writer", Type: "integer", Reference: &ast.Reference{Table: "users"}}, "writer"},
		{Field{Name: "Title", Type: "text"}, "title"},
	}
	for _, tc := range cases {
		if got := tc.field.ColumnName(); got != tc.want {
			t.Errorf("ColumnName(%s) = %q, want %q", tc.field.Name, got, tc.want)
		}
	}
}

func TestBuildIgnoresOrderingMeta(t *testing.T) {
	plain := userModel()
	ordered := userModel()
	ordered.Ordering = []string{"-created_at", "name"}

	a, err := Build([]Model{plain})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	b, err := Build([]Model{ordered})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if a.Checksum != b.Checksum {
		t.Errorf("ordering meta changed checksum: %s != %s", a.Checksum, b.Checksum)
	}
}

func TestBuildImplicitIndexes(t *testing.T) {
	m := Model{
		Name: "Post",
		Fields: []Field{
			{Name: "id", Type: "integer", PrimaryKey: true},
			{Name: "slug", Type: "varchar", MaxLength: 100, Unique: true, Indexed: true},
			{Name: "published_at", Type: "datetime", Indexed: true},
		},
		Indexes: []Index{
			{Columns: []string{"slug", "published_at"}},
		},
	}
	snap, err := Build([]Model{m})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	idxs := snap.Models[0].Indexes
	// slug is unique so its Indexed flag is redundant; only published_at gets
	// an implicit index, plus the declared composite.
	if len(idxs) != 2 {
		t.Fatalf("indexes = %+v", idxs)
	}
	if idxs[0].Name != "idx_post_published_at" {
		t.Errorf("implicit index name = %q", idxs[0].Name)
	}
	if idxs[1].Name != "idx_post_slug_published_at" || len(idxs[1].Columns) != 2 {
		t.Errorf("composite index = %+v", idxs[1])
	}
}

func TestBuildDuplicateFieldKeepsFirst(t *testing.T) {
	m := Model{
		Name: "User",
		Fields: []Field{
			{Name: "email", Type: "varchar", MaxLength: 255},
			{Name: "email", Type: "text"},
		},
	}
	snap, err := Build([]Model{m})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	fields := snap.Models[0].Fields
	if len(fields) != 1 || fields[0].Type != "varchar" {
		t.Errorf("fields = %+v", fields)
	}
}

func TestBuildDuplicateTableFails(t *testing.T) {
	models := []Model{
		{Name: "User", Fields: []Field{{Name: "id", Type: "integer"}}},
		{Name: "Person", Table: "user", Fields: []Field{{Name: "id", Type: "integer"}}},
	}
	_, err := Build(models)
	if !everr.Is(err, everr.ErrSchemaDuplicate) {
		t.Errorf("expected ErrSchemaDuplicate, got %v", err)
	}
}

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name  string
		model Model
	}{
		{"missing field type", Model{Name: "User", Fields: []Field{{Name: "id"}}}},
		{"unknown type", Model{Name: "User", Fields: []Field{{Name: "id", Type: "serial"}}}},
		{"varchar without max length", Model{Name: "User", Fields: []Field{{Name: "email", Type: "varchar"}}}},
		{"auto increment without pk", Model{Name: "User", Fields: []Field{{Name: "id", Type: "integer", AutoIncrement: true}}}},
		{"no fields", Model{Name: "User"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build([]Model{tt.model}); !everr.Is(err, everr.ErrSchemaInvalid) {
				t.Errorf("expected ErrSchemaInvalid, got %v", err)
			}
		})
	}
}

func TestChecksumDeterminism(t *testing.T) {
	models := []Model{
		userModel(),
		{
			Name: "Post",
			Fields: []Field{
				{Name: "id", Type: "integer", PrimaryKey: true},
				{Name: "author_id", Type: "integer", Reference: &ast.Reference{Table: "user"}},
			},
		},
	}

	a, err := Build(models)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	b, err := Build(models)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if a.Checksum != b.Checksum {
		t.Errorf("checksums differ: %s vs %s", a.Checksum, b.Checksum)
	}

	// Declaration order of models must not change the checksum.
	reordered, err := Build([]Model{models[1], models[0]})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if a.Checksum != reordered.Checksum {
		t.Error("checksum depends on model declaration order")
	}

	// A structural change must change it.
	changed := models
	changed[0].Fields[1].MaxLength = 100
	c, err := Build(changed)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if a.Checksum == c.Checksum {
		t.Error("checksum unchanged after structural change")
	}
}

func TestEmptyChecksum(t *testing.T) {
	snap, err := Build(nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if snap.Checksum != Empty().Checksum {
		t.Errorf("empty snapshot checksum = %s, want %s", snap.Checksum, Empty().Checksum)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	snap, err := Build([]Model{userModel()})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "schema", "snapshot.yaml")
	if err := Save(snap, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if loaded.Checksum != snap.Checksum {
		t.Errorf("checksum after round trip = %s, want %s", loaded.Checksum, snap.Checksum)
	}
	if len(loaded.Models) != 1 || loaded.Models[0].Table != "user" {
		t.Errorf("models after round trip = %+v", loaded.Models)
	}

	// Recomputing the checksum from loaded models must agree: YAML decoding
	// may change numeric default types but not the canonical rendering.
	if got := computeChecksum(loaded.Models); got != snap.Checksum {
		t.Errorf("recomputed checksum = %s, want %s", got, snap.Checksum)
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	snap, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil snapshot for missing file, got %+v", snap)
	}
}

func TestStructurallyEqual(t *testing.T) {
	base := FieldSnapshot{Name: "age", Type: "integer", Nullable: true}

	same := base
	same.Name = "years" // name excluded from structural comparison
	if !base.StructurallyEqual(&same) {
		t.Error("renamed field should be structurally equal")
	}

	typed := base
	typed.Type = "bigint"
	if base.StructurallyEqual(&typed) {
		t.Error("type change should not be structurally equal")
	}

	// int vs int64 default values compare by rendered literal.
	a := FieldSnapshot{Name: "n", Type: "integer", Default: int(5)}
	b := FieldSnapshot{Name: "n", Type: "integer", Default: int64(5)}
	if !a.StructurallyEqual(&b) {
		t.Error("numeric default types should compare by value")
	}
}
