package migrate

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/evolvedb/evolve/internal/ast"
	"github.com/evolvedb/evolve/internal/dialect"
	"github.com/evolvedb/evolve/internal/everr"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	// In-memory sqlite gives each connection its own database.
	db.SetMaxOpenConns(1)
	return db
}

func newTestRunner(t *testing.T, db *sql.DB) *Runner {
	t.Helper()
	return NewRunner(db, dialect.Get("sqlite"), nil)
}

func createUsersUnit(rev string) *Unit {
	return &Unit{
		Revision: rev,
		Slug:     "create_users",
		Checksum: "sum-" + rev,
		Operations: []ast.Operation{
			&ast.CreateModel{
				Model: "User",
				Table: "users",
				Columns: []*ast.ColumnDef{
					{Name: "id", Type: "integer", PrimaryKey: true, AutoIncrement: true},
					{Name: "email", Type: "varchar", MaxLength: 255, Unique: true},
				},
			},
		},
	}
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&n)
	if err != nil {
		t.Fatalf("failed to check table %s: %v", name, err)
	}
	return n > 0
}

func ledgerCount(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + LedgerTable).Scan(&n); err != nil {
		t.Fatalf("failed to count ledger rows: %v", err)
	}
	return n
}

func TestMigrateAppliesAndRecords(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRunner(t, db)
	ctx := context.Background()

	units := []*Unit{createUsersUnit("20260101120000")}
	applied, err := r.Migrate(ctx, units)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if len(applied) != 1 || applied[0] != "20260101120000" {
		t.Errorf("applied = %v", applied)
	}
	if !tableExists(t, db, "users") {
		t.Error("users table was not created")
	}
	if n := ledgerCount(t, db); n != 1 {
		t.Errorf("ledger rows = %d, want 1", n)
	}

	// After applying, the plan is empty.
	stmts, err := r.Plan(ctx, units)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(stmts) != 0 {
		t.Errorf("plan after migrate = %v", stmts)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRunner(t, db)
	ctx := context.Background()

	units := []*Unit{createUsersUnit("20260101120000")}
	if _, err := r.Migrate(ctx, units); err != nil {
		t.Fatalf("first Migrate() error = %v", err)
	}

	applied, err := r.Migrate(ctx, units)
	if err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("second run applied %v, want none", applied)
	}
	if n := ledgerCount(t, db); n != 1 {
		t.Errorf("ledger rows = %d, want 1", n)
	}
}

// A failing statement mid-unit must leave no ledger row and roll back every
// earlier statement of that unit; previously applied units stay committed.
func TestMigrateAtomicity(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRunner(t, db)
	ctx := context.Background()

	good := createUsersUnit("20260101120000")
	bad := &Unit{
		Revision: "20260102120000",
		Slug:     "add_posts",
		Operations: []ast.Operation{
			&ast.CreateModel{
				Model:   "Post",
				Table:   "posts",
				Columns: []*ast.ColumnDef{{Name: "id", Type: "integer", PrimaryKey: true}},
			},
			// Fails: the table does not exist.
			&ast.RunRaw{SQL: "INSERT INTO nowhere (x) VALUES (1)"},
		},
	}

	applied, err := r.Migrate(ctx, []*Unit{good, bad})
	if !everr.Is(err, everr.ErrMigrationFailed) {
		t.Fatalf("expected ErrMigrationFailed, got %v", err)
	}
	if len(applied) != 1 || applied[0] != good.Revision {
		t.Errorf("applied = %v", applied)
	}

	if !tableExists(t, db, "users") {
		t.Error("previously applied unit was rolled back")
	}
	if tableExists(t, db, "posts") {
		t.Error("failing unit left partial schema changes")
	}
	if n := ledgerCount(t, db); n != 1 {
		t.Errorf("ledger rows = %d, want 1", n)
	}
}

func TestMigrateFake(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRunner(t, db)
	ctx := context.Background()

	units := []*Unit{createUsersUnit("20260101120000")}
	faked, err := r.MigrateFake(ctx, units)
	if err != nil {
		t.Fatalf("MigrateFake() error = %v", err)
	}
	if len(faked) != 1 {
		t.Errorf("faked = %v", faked)
	}
	if tableExists(t, db, "users") {
		t.Error("fake migration executed statements")
	}
	if n := ledgerCount(t, db); n != 1 {
		t.Errorf("ledger rows = %d, want 1", n)
	}

	// A real migrate afterwards sees nothing pending.
	applied, err := r.Migrate(ctx, units)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("applied after fake = %v", applied)
	}
}

// R1 then R2 applied; rollback to R1 reverses R2 only and deletes its ledger
// row, leaving R1's row and schema untouched.
func TestRollbackTo(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRunner(t, db)
	ctx := context.Background()

	r1 := createUsersUnit("20260101120000")
	r2 := &Unit{
		Revision:     "20260102120000",
		Slug:         "add_posts",
		Dependencies: []string{r1.Revision},
		Operations: []ast.Operation{
			&ast.CreateModel{
				Model:   "Post",
				Table:   "posts",
				Columns: []*ast.ColumnDef{{Name: "id", Type: "integer", PrimaryKey: true}},
			},
		},
	}

	units := []*Unit{r1, r2}
	if _, err := r.Migrate(ctx, units); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	rolledBack, err := r.RollbackTo(ctx, units, r1.Revision)
	if err != nil {
		t.Fatalf("RollbackTo() error = %v", err)
	}
	if len(rolledBack) != 1 || rolledBack[0] != r2.Revision {
		t.Errorf("rolled back = %v", rolledBack)
	}

	if tableExists(t, db, "posts") {
		t.Error("posts table still exists after rollback")
	}
	if !tableExists(t, db, "users") {
		t.Error("rollback touched the target revision's schema")
	}
	if n := ledgerCount(t, db); n != 1 {
		t.Errorf("ledger rows = %d, want 1", n)
	}
}

func TestRollbackToUnknownTarget(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRunner(t, db)
	ctx := context.Background()

	units := []*Unit{createUsersUnit("20260101120000")}
	if _, err := r.Migrate(ctx, units); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if _, err := r.RollbackTo(ctx, units, "19990101000000"); !everr.Is(err, everr.ErrMigrationConflict) {
		t.Errorf("expected ErrMigrationConflict, got %v", err)
	}
}

func TestRollbackIrreversibleUnitFails(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRunner(t, db)
	ctx := context.Background()

	r1 := createUsersUnit("20260101120000")
	r2 := &Unit{
		Revision: "20260102120000",
		Slug:     "drop_email",
		Operations: []ast.Operation{
			&ast.RemoveField{Model: "User", Table: "users", Column: "email"},
		},
	}

	units := []*Unit{r1, r2}
	if _, err := r.Migrate(ctx, units); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	_, err := r.RollbackTo(ctx, units, r1.Revision)
	if err == nil {
		t.Fatal("expected rollback of irreversible unit to fail")
	}
	if !everr.Is(err, everr.ErrIrreversible) && !everr.Is(err, everr.ErrMigrationFailed) {
		t.Errorf("unexpected error: %v", err)
	}
	// The failed rollback must not have removed the ledger row.
	if n := ledgerCount(t, db); n != 2 {
		t.Errorf("ledger rows = %d, want 2", n)
	}
}

// Reverse correctness: a unit of reversible-only operations, reversed right
// after applying, returns the store to its pre-unit structural state.
func TestReverseRestoresStructure(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRunner(t, db)
	ctx := context.Background()

	base := createUsersUnit("20260101120000")
	reversible := &Unit{
		Revision: "20260102120000",
		Slug:     "rename_and_index",
		Operations: []ast.Operation{
			&ast.RenameField{Model: "User", Table: "users", OldName: "email", NewName: "address"},
			&ast.CreateIndex{
				Model: "User",
				Table: "users",
				Index: &ast.IndexDef{Name: "idx_users_address", Columns: []string{"address"}},
			},
		},
	}

	units := []*Unit{base, reversible}
	if _, err := r.Migrate(ctx, units); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if _, err := r.RollbackTo(ctx, units, base.Revision); err != nil {
		t.Fatalf("RollbackTo() error = %v", err)
	}

	var n int
	if err := db.QueryRow(
		"SELECT COUNT(*) FROM pragma_table_info('users') WHERE name = 'email'",
	).Scan(&n); err != nil || n != 1 {
		t.Errorf("email column not restored (n=%d, err=%v)", n, err)
	}
	if err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_users_address'",
	).Scan(&n); err != nil || n != 0 {
		t.Errorf("index not dropped on rollback (n=%d, err=%v)", n, err)
	}
}

func TestCallbacksRunInTransaction(t *testing.T) {
	db := setupTestDB(t)
	registry := NewRegistry()
	r := NewRunner(db, dialect.Get("sqlite"), registry)
	ctx := context.Background()

	registry.Register("seed_admin", func(ctx context.Context, db DBTX) error {
		_, err := db.ExecContext(ctx, "INSERT INTO users (email) VALUES ('admin@example.com')")
		return err
	})

	unit := &Unit{
		Revision: "20260101120000",
		Slug:     "create_and_seed",
		Operations: []ast.Operation{
			&ast.CreateModel{
				Model: "User",
				Table: "users",
				Columns: []*ast.ColumnDef{
					{Name: "id", Type: "integer", PrimaryKey: true, AutoIncrement: true},
					{Name: "email", Type: "varchar", MaxLength: 255},
				},
			},
			&ast.RunCallback{Name: "seed_admin"},
		},
	}

	if _, err := r.Migrate(ctx, []*Unit{unit}); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n); err != nil || n != 1 {
		t.Errorf("callback row missing (n=%d, err=%v)", n, err)
	}
}

func TestUnknownCallbackAbortsUnit(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRunner(t, db)
	ctx := context.Background()

	unit := &Unit{
		Revision: "20260101120000",
		Slug:     "create_and_seed",
		Operations: []ast.Operation{
			&ast.CreateModel{
				Model:   "User",
				Table:   "users",
				Columns: []*ast.ColumnDef{{Name: "id", Type: "integer", PrimaryKey: true}},
			},
			&ast.RunCallback{Name: "not_registered"},
		},
	}

	_, err := r.Migrate(ctx, []*Unit{unit})
	if !everr.Is(err, everr.ErrMigrationFailed) {
		t.Fatalf("expected ErrMigrationFailed, got %v", err)
	}
	if tableExists(t, db, "users") {
		t.Error("aborted unit left partial schema changes")
	}
	if n := ledgerCount(t, db); n != 0 {
		t.Errorf("ledger rows = %d, want 0", n)
	}
}

func TestVerifyChecksums(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRunner(t, db)
	ctx := context.Background()

	unit := createUsersUnit("20260101120000")
	if _, err := r.Migrate(ctx, []*Unit{unit}); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// Unchanged file: no findings.
	findings, err := r.VerifyChecksums(ctx, []*Unit{unit})
	if err != nil {
		t.Fatalf("VerifyChecksums() error = %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("findings = %+v", findings)
	}

	// Edited file: one mismatch finding, advisory only.
	edited := *unit
	edited.Checksum = "different"
	findings, err = r.VerifyChecksums(ctx, []*Unit{&edited})
	if err != nil {
		t.Fatalf("VerifyChecksums() error = %v", err)
	}
	if len(findings) != 1 || findings[0].Revision != unit.Revision || findings[0].MissingFile {
		t.Errorf("findings = %+v", findings)
	}

	// Missing file: flagged, still advisory.
	findings, err = r.VerifyChecksums(ctx, nil)
	if err != nil {
		t.Fatalf("VerifyChecksums() error = %v", err)
	}
	if len(findings) != 1 || !findings[0].MissingFile {
		t.Errorf("findings = %+v", findings)
	}
}

func TestStatus(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRunner(t, db)
	ctx := context.Background()

	r1 := createUsersUnit("20260101120000")
	r2 := &Unit{
		Revision: "20260102120000",
		Slug:     "add_posts",
		Operations: []ast.Operation{
			&ast.CreateModel{
				Model:   "Post",
				Table:   "posts",
				Columns: []*ast.ColumnDef{{Name: "id", Type: "integer", PrimaryKey: true}},
			},
		},
	}

	if _, err := r.Migrate(ctx, []*Unit{r1}); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	statuses, err := r.Status(ctx, []*Unit{r1, r2})
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("statuses = %+v", statuses)
	}
	if !statuses[0].Applied || statuses[0].Revision != r1.Revision {
		t.Errorf("status[0] = %+v", statuses[0])
	}
	if statuses[1].Applied {
		t.Errorf("status[1] = %+v", statuses[1])
	}
}

func TestPlanOnFreshDatabase(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRunner(t, db)
	ctx := context.Background()

	// No ledger table yet: everything is pending.
	stmts, err := r.Plan(ctx, []*Unit{createUsersUnit("20260101120000")})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(stmts) != 1 {
		t.Errorf("stmts = %v", stmts)
	}
	// Plan must not have created the ledger table.
	if tableExists(t, db, LedgerTable) {
		t.Error("plan created the ledger table")
	}
}
