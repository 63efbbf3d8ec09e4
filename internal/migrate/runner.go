package migrate

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"time"

	"github.com/evolvedb/evolve/internal/ast"
	"github.com/evolvedb/evolve/internal/dialect"
	"github.com/evolvedb/evolve/internal/everr"
)

// Runner applies migration units to a database, strictly sequentially, one
// transaction per unit. The ledger row for a unit is written inside that same
// transaction, so a failed unit leaves no trace and previously applied units
// stay committed.
//
// On dialects without transactional DDL (mysql) statements execute directly
// and the ledger row is written after the unit succeeds; atomicity is then
// only as good as the engine's DDL behavior.
type Runner struct {
	db        *sql.DB
	dialect   dialect.Dialect
	ledger    *Ledger
	callbacks *Registry
}

// NewRunner creates a runner. A nil registry means no callbacks are
// available; units using them will fail at execution time.
func NewRunner(db *sql.DB, d dialect.Dialect, callbacks *Registry) *Runner {
	if db == nil || d == nil {
		return nil
	}
	if callbacks == nil {
		callbacks = NewRegistry()
	}
	return &Runner{
		db:        db,
		dialect:   d,
		ledger:    NewLedger(db, d),
		callbacks: callbacks,
	}
}

// Ledger exposes the runner's ledger, mainly for status rendering.
func (r *Runner) Ledger() *Ledger {
	return r.ledger
}

// step is one executable piece of a unit: either SQL statements or one
// callback invocation.
type step struct {
	stmts    []string
	callback string
}

// unitSteps compiles a unit into executable steps. down reverses both the
// operation order and each operation.
func (r *Runner) unitSteps(u *Unit, down bool) ([]step, error) {
	var steps []step

	appendOp := func(op ast.Operation) error {
		if cb, ok := op.(*ast.RunCallback); ok {
			name := cb.Name
			if down {
				if cb.DownName == "" {
					return everr.New(everr.ErrIrreversible, "operation cannot be reversed").
						With("operation", string(cb.Kind())).
						With("detail", "no reverse callback registered")
				}
				name = cb.DownName
			}
			steps = append(steps, step{callback: name})
			return nil
		}

		var stmts []string
		var err error
		if down {
			stmts, err = op.Reverse(r.dialect)
		} else {
			stmts, err = op.Forward(r.dialect)
		}
		if err != nil {
			return err
		}
		steps = append(steps, step{stmts: stmts})
		return nil
	}

	if down {
		for i := len(u.Operations) - 1; i >= 0; i-- {
			if err := appendOp(u.Operations[i]); err != nil {
				return nil, err
			}
		}
	} else {
		for _, op := range u.Operations {
			if err := appendOp(op); err != nil {
				return nil, err
			}
		}
	}
	return steps, nil
}

func (r *Runner) execSteps(ctx context.Context, db DBTX, steps []step) error {
	for _, s := range steps {
		if s.callback != "" {
			fn, err := r.callbacks.Lookup(s.callback)
			if err != nil {
				return err
			}
			if err := fn(ctx, db); err != nil {
				return everr.Wrap(everr.ErrSQLExecution, err, "callback failed").
					With("callback", s.callback)
			}
			continue
		}
		for _, stmt := range s.stmts {
			if ast.IsPseudoStatement(stmt) {
				continue
			}
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return everr.Wrap(everr.ErrSQLExecution, err, "failed to execute statement").
					WithSQL(stmt)
			}
		}
	}
	return nil
}

// applyUnit executes one unit in the given direction and updates the ledger.
func (r *Runner) applyUnit(ctx context.Context, u *Unit, down bool) error {
	steps, err := r.unitSteps(u, down)
	if err != nil {
		return err
	}

	record := func(ctx context.Context, ex execer) error {
		if down {
			return r.ledger.Remove(ctx, ex, u.Revision)
		}
		return r.ledger.Record(ctx, ex, u)
	}

	if !r.dialect.SupportsTransactionalDDL() {
		slog.Warn("dialect cannot roll back DDL; applying without a transaction",
			"dialect", r.dialect.Name(), "revision", u.Revision)
		if err := r.execSteps(ctx, r.db, steps); err != nil {
			return err
		}
		return record(ctx, r.db)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return everr.Wrap(everr.ErrSQLTransaction, err, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := r.execSteps(ctx, tx, steps); err != nil {
		return err
	}
	if err := record(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return everr.Wrap(everr.ErrSQLTransaction, err, "failed to commit transaction")
	}
	committed = true
	return nil
}

// pending returns the units not yet recorded in the ledger, in revision
// order.
func (r *Runner) pending(ctx context.Context, units []*Unit) ([]*Unit, error) {
	applied, err := r.ledger.Applied(ctx)
	if err != nil {
		return nil, err
	}
	appliedSet := make(map[string]bool, len(applied))
	for _, m := range applied {
		appliedSet[m.Revision] = true
	}

	var out []*Unit
	for _, u := range units {
		if !appliedSet[u.Revision] {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Revision < out[j].Revision })
	return out, nil
}

// Migrate applies every pending unit in revision order. It returns the
// revisions applied before any failure; the failing unit leaves no ledger row
// and later units are not attempted.
func (r *Runner) Migrate(ctx context.Context, units []*Unit) ([]string, error) {
	if err := r.ledger.EnsureTable(ctx); err != nil {
		return nil, err
	}
	pending, err := r.pending(ctx, units)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, u := range pending {
		if err := r.applyUnit(ctx, u, false); err != nil {
			return applied, everr.Wrap(everr.ErrMigrationFailed, err, "migration failed").
				WithRevision(u.Revision)
		}
		applied = append(applied, u.Revision)
	}
	return applied, nil
}

// MigrateFake records every pending unit in the ledger without executing any
// of its statements. Used to adopt a database whose schema is already
// current.
func (r *Runner) MigrateFake(ctx context.Context, units []*Unit) ([]string, error) {
	if err := r.ledger.EnsureTable(ctx); err != nil {
		return nil, err
	}
	pending, err := r.pending(ctx, units)
	if err != nil {
		return nil, err
	}

	var faked []string
	for _, u := range pending {
		if err := r.ledger.Record(ctx, r.db, u); err != nil {
			return faked, everr.Wrap(everr.ErrMigrationFailed, err, "fake migration failed").
				WithRevision(u.Revision)
		}
		faked = append(faked, u.Revision)
	}
	return faked, nil
}

// RollbackTo reverses every applied revision strictly after target, newest
// first, each in its own transaction with its ledger row deleted alongside.
// The target itself stays applied. A target missing from the ledger, a
// missing unit file, or an irreversible unit is fatal.
func (r *Runner) RollbackTo(ctx context.Context, units []*Unit, target string) ([]string, error) {
	applied, err := r.ledger.Applied(ctx)
	if err != nil {
		return nil, err
	}

	targetFound := false
	for _, m := range applied {
		if m.Revision == target {
			targetFound = true
			break
		}
	}
	if !targetFound {
		return nil, everr.New(everr.ErrMigrationConflict, "rollback target not found in ledger").
			WithRevision(target)
	}

	byRevision := make(map[string]*Unit, len(units))
	for _, u := range units {
		byRevision[u.Revision] = u
	}

	var rolledBack []string
	for i := len(applied) - 1; i >= 0; i-- {
		rev := applied[i].Revision
		if rev <= target {
			break
		}
		u, ok := byRevision[rev]
		if !ok {
			return rolledBack, everr.New(everr.ErrMigrationConflict, "applied revision has no unit file").
				WithRevision(rev)
		}
		if err := r.applyUnit(ctx, u, true); err != nil {
			return rolledBack, everr.Wrap(everr.ErrMigrationFailed, err, "rollback failed").
				WithRevision(rev)
		}
		rolledBack = append(rolledBack, rev)
	}
	return rolledBack, nil
}

// Plan renders the forward SQL of every pending unit without touching the
// database beyond reading the ledger. An absent ledger table means nothing
// has been applied, so every unit is pending.
func (r *Runner) Plan(ctx context.Context, units []*Unit) ([]string, error) {
	appliedSet := make(map[string]bool)
	if applied, err := r.ledger.Applied(ctx); err == nil {
		for _, m := range applied {
			appliedSet[m.Revision] = true
		}
	}

	var stmts []string
	for _, u := range units {
		if appliedSet[u.Revision] {
			continue
		}
		s, err := u.ForwardSQL(r.dialect)
		if err != nil {
			return nil, everr.Wrap(everr.ErrMigrationFailed, err, "failed to render plan").
				WithRevision(u.Revision)
		}
		stmts = append(stmts, s...)
	}
	return stmts, nil
}

// SQLForRevision renders the forward SQL of one unit, resolved by revision or
// unique prefix.
func (r *Runner) SQLForRevision(units []*Unit, revision string) ([]string, error) {
	u, err := Resolve(units, revision)
	if err != nil {
		return nil, err
	}
	return u.ForwardSQL(r.dialect)
}

// Finding is one checksum discrepancy reported by VerifyChecksums.
// Findings are advisory data: they are never raised as errors and the ledger
// is never auto-corrected.
type Finding struct {
	Revision       string
	LedgerChecksum string
	FileChecksum   string

	// MissingFile marks an applied revision with no unit file on disk.
	MissingFile bool
}

// VerifyChecksums compares the ledger's stored checksums against the current
// unit files and reports every mismatch.
func (r *Runner) VerifyChecksums(ctx context.Context, units []*Unit) ([]Finding, error) {
	applied, err := r.ledger.Applied(ctx)
	if err != nil {
		return nil, err
	}

	byRevision := make(map[string]*Unit, len(units))
	for _, u := range units {
		byRevision[u.Revision] = u
	}

	var findings []Finding
	for _, m := range applied {
		u, ok := byRevision[m.Revision]
		if !ok {
			findings = append(findings, Finding{
				Revision:       m.Revision,
				LedgerChecksum: m.Checksum,
				MissingFile:    true,
			})
			continue
		}
		if u.Checksum != m.Checksum {
			findings = append(findings, Finding{
				Revision:       m.Revision,
				LedgerChecksum: m.Checksum,
				FileChecksum:   u.Checksum,
			})
		}
	}
	return findings, nil
}

// UnitStatus is one row of the status listing.
type UnitStatus struct {
	Revision  string
	Slug      string
	Applied   bool
	AppliedAt time.Time

	// MissingFile marks a ledger row with no matching unit file.
	MissingFile bool
}

// Status lists every known unit and applied revision in revision order.
func (r *Runner) Status(ctx context.Context, units []*Unit) ([]UnitStatus, error) {
	appliedRows := make(map[string]AppliedMigration)
	if applied, err := r.ledger.Applied(ctx); err == nil {
		for _, m := range applied {
			appliedRows[m.Revision] = m
		}
	}

	seen := make(map[string]bool, len(units))
	var statuses []UnitStatus
	for _, u := range units {
		seen[u.Revision] = true
		st := UnitStatus{Revision: u.Revision, Slug: u.Slug}
		if m, ok := appliedRows[u.Revision]; ok {
			st.Applied = true
			st.AppliedAt = m.AppliedAt
		}
		statuses = append(statuses, st)
	}
	for rev, m := range appliedRows {
		if !seen[rev] {
			statuses = append(statuses, UnitStatus{
				Revision:    rev,
				Slug:        m.Slug,
				Applied:     true,
				AppliedAt:   m.AppliedAt,
				MissingFile: true,
			})
		}
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Revision < statuses[j].Revision })
	return statuses, nil
}
