package ast

import (
	"testing"

	"github.com/evolvedb/evolve/internal/everr"
)

func TestOperationValidate(t *testing.T) {
	tests := []struct {
		name    string
		op      Operation
		wantErr bool
	}{
		{
			name: "valid create model",
			op: &CreateModel{
				Model: "User",
				Table: "users",
				Columns: []*ColumnDef{
					{Name: "id", Type: "integer", PrimaryKey: true, AutoIncrement: true},
					{Name: "email", Type: "varchar", MaxLength: 255},
				},
			},
		},
		{
			name:    "create model without table",
			op:      &CreateModel{Model: "User"},
			wantErr: true,
		},
		{
			name:    "create model without columns",
			op:      &CreateModel{Model: "User", Table: "users"},
			wantErr: true,
		},
		{
			name: "create model with invalid column",
			op: &CreateModel{
				Model:   "User",
				Table:   "users",
				Columns: []*ColumnDef{{Name: "", Type: "text"}},
			},
			wantErr: true,
		},
		{
			name: "valid drop model",
			op:   &DropModel{Model: "User", Table: "users"},
		},
		{
			name:    "drop model without table",
			op:      &DropModel{Model: "User"},
			wantErr: true,
		},
		{
			name: "valid rename model",
			op:   &RenameModel{OldTable: "customers", NewTable: "clients"},
		},
		{
			name:    "rename model to same name",
			op:      &RenameModel{OldTable: "users", NewTable: "users"},
			wantErr: true,
		},
		{
			name: "valid add field",
			op: &AddField{
				Table:  "users",
				Column: &ColumnDef{Name: "age", Type: "integer", Nullable: true},
			},
		},
		{
			name:    "add field without column",
			op:      &AddField{Table: "users"},
			wantErr: true,
		},
		{
			name: "valid remove field",
			op:   &RemoveField{Table: "users", Column: "age"},
		},
		{
			name:    "remove field without column",
			op:      &RemoveField{Table: "users"},
			wantErr: true,
		},
		{
			name: "valid alter field",
			op: &AlterField{
				Table:  "users",
				Column: &ColumnDef{Name: "age", Type: "bigint"},
			},
		},
		{
			name: "valid rename field",
			op:   &RenameField{Table: "users", OldName: "full_name", NewName: "name"},
		},
		{
			name:    "rename field to same name",
			op:      &RenameField{Table: "users", OldName: "name", NewName: "name"},
			wantErr: true,
		},
		{
			name: "valid create index",
			op: &CreateIndex{
				Table: "users",
				Index: &IndexDef{Name: "idx_users_email", Columns: []string{"email"}},
			},
		},
		{
			name: "create index without columns",
			op: &CreateIndex{
				Table: "users",
				Index: &IndexDef{Name: "idx_users_email"},
			},
			wantErr: true,
		},
		{
			name: "valid drop index",
			op:   &DropIndex{Table: "users", Name: "idx_users_email"},
		},
		{
			name: "valid add constraint",
			op: &AddConstraint{
				Table: "posts",
				Constraint: &Constraint{
					Name:     "fk_posts_author_id",
					Kind:     ConstraintForeignKey,
					Columns:  []string{"author_id"},
					RefTable: "users",
				},
			},
		},
		{
			name: "foreign key without ref table",
			op: &AddConstraint{
				Table: "posts",
				Constraint: &Constraint{
					Name:    "fk_posts_author_id",
					Kind:    ConstraintForeignKey,
					Columns: []string{"author_id"},
				},
			},
			wantErr: true,
		},
		{
			name: "check constraint without expression",
			op: &AddConstraint{
				Table:      "users",
				Constraint: &Constraint{Name: "ck_users_age", Kind: ConstraintCheck},
			},
			wantErr: true,
		},
		{
			name: "unknown constraint kind",
			op: &AddConstraint{
				Table:      "users",
				Constraint: &Constraint{Name: "x", Kind: "exclusion"},
			},
			wantErr: true,
		},
		{
			name: "valid remove constraint",
			op:   &RemoveConstraint{Table: "posts", Name: "fk_posts_author_id"},
		},
		{
			name: "valid raw SQL",
			op:   &RunRaw{SQL: "UPDATE users SET active = 1"},
		},
		{
			name:    "raw SQL with no statements",
			op:      &RunRaw{},
			wantErr: true,
		},
		{
			name: "raw SQL with only dialect override",
			op:   &RunRaw{Postgres: "CREATE EXTENSION IF NOT EXISTS pgcrypto"},
		},
		{
			name: "valid callback",
			op:   &RunCallback{Name: "backfill_slugs"},
		},
		{
			name:    "callback without name",
			op:      &RunCallback{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && everr.GetErrorCode(err) != everr.ErrInvalidOperation {
				t.Errorf("Validate() code = %s, want %s", everr.GetErrorCode(err), everr.ErrInvalidOperation)
			}
		})
	}
}

func TestOperationKinds(t *testing.T) {
	ops := map[OpKind]Operation{
		OpCreateModel:      &CreateModel{},
		OpDropModel:        &DropModel{},
		OpRenameModel:      &RenameModel{},
		OpAddField:         &AddField{},
		OpRemoveField:      &RemoveField{},
		OpAlterField:       &AlterField{},
		OpRenameField:      &RenameField{},
		OpCreateIndex:      &CreateIndex{},
		OpDropIndex:        &DropIndex{},
		OpAddConstraint:    &AddConstraint{},
		OpRemoveConstraint: &RemoveConstraint{},
		OpRunRaw:           &RunRaw{},
		OpRunCallback:      &RunCallback{},
	}
	if len(ops) != len(Kinds()) {
		t.Fatalf("expected %d kinds, got %d", len(Kinds()), len(ops))
	}
	for kind, op := range ops {
		if op.Kind() != kind {
			t.Errorf("%T.Kind() = %s, want %s", op, op.Kind(), kind)
		}
	}
}
