package evolve

import (
	"github.com/evolvedb/evolve/internal/migrate"
	"github.com/evolvedb/evolve/internal/probe"
)

// Units loads every migration unit from the migrations directory, sorted by
// revision.
func (c *Client) Units() ([]*migrate.Unit, error) {
	return migrate.Discover(c.config.MigrationsDir)
}

// Migrate applies every pending migration unit in revision order and returns
// the revisions applied.
func (c *Client) Migrate() ([]string, error) {
	units, err := c.Units()
	if err != nil {
		return nil, err
	}
	runner, err := c.connect()
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.context()
	defer cancel()

	applied, err := runner.Migrate(ctx, units)
	for _, rev := range applied {
		c.log("applied %s", rev)
	}
	return applied, err
}

// FakeMigrate records every pending unit in the ledger without executing any
// statements. Use it to adopt a database whose schema is already current.
func (c *Client) FakeMigrate() ([]string, error) {
	units, err := c.Units()
	if err != nil {
		return nil, err
	}
	runner, err := c.connect()
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.context()
	defer cancel()
	return runner.MigrateFake(ctx, units)
}

// RollbackTo reverses every applied revision after target, newest first.
// Target may be a unique revision prefix.
func (c *Client) RollbackTo(target string) ([]string, error) {
	units, err := c.Units()
	if err != nil {
		return nil, err
	}
	u, err := migrate.Resolve(units, target)
	if err != nil {
		return nil, err
	}
	runner, err := c.connect()
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.context()
	defer cancel()

	rolledBack, err := runner.RollbackTo(ctx, units, u.Revision)
	for _, rev := range rolledBack {
		c.log("rolled back %s", rev)
	}
	return rolledBack, err
}

// Plan renders the forward SQL of every pending unit without executing or
// recording anything. The ledger is consulted through a read-only handle, so
// planning against a store that does not exist yet renders every unit and
// leaves no file behind.
func (c *Client) Plan() ([]string, error) {
	units, err := c.Units()
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.context()
	defer cancel()

	ro, cleanup, err := c.readOnlyDB(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	if ro == nil {
		// No store, nothing applied: every unit is pending.
		var stmts []string
		for _, u := range units {
			s, err := u.ForwardSQL(c.dialect)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s...)
		}
		return stmts, nil
	}
	return migrate.NewRunner(ro, c.dialect, nil).Plan(ctx, units)
}

// Status reports every known revision with its applied state, including
// ledger rows whose unit file has gone missing. Reads through a read-only
// handle; a store that does not exist yet reports every unit pending.
func (c *Client) Status() ([]migrate.UnitStatus, error) {
	units, err := c.Units()
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.context()
	defer cancel()

	ro, cleanup, err := c.readOnlyDB(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	if ro == nil {
		statuses := make([]migrate.UnitStatus, 0, len(units))
		for _, u := range units {
			statuses = append(statuses, migrate.UnitStatus{Revision: u.Revision, Slug: u.Slug})
		}
		return statuses, nil
	}
	return migrate.NewRunner(ro, c.dialect, nil).Status(ctx, units)
}

// SQLForRevision renders the forward SQL of one unit, resolved by revision or
// unique prefix. Pure rendering: the store is never touched.
func (c *Client) SQLForRevision(revision string) ([]string, error) {
	units, err := c.Units()
	if err != nil {
		return nil, err
	}
	u, err := migrate.Resolve(units, revision)
	if err != nil {
		return nil, err
	}
	return u.ForwardSQL(c.dialect)
}

// VerifyChecksums compares ledger checksums against unit files on disk.
// Findings are advisory: they are returned as data, never as an error.
// A store that does not exist yet has no ledger and yields no findings.
func (c *Client) VerifyChecksums() ([]migrate.Finding, error) {
	units, err := c.Units()
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.context()
	defer cancel()

	ro, cleanup, err := c.readOnlyDB(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	if ro == nil {
		return nil, nil
	}
	return migrate.NewRunner(ro, c.dialect, nil).VerifyChecksums(ctx, units)
}

// Probe reports whether the target store is fully migrated without mutating
// it. The store is opened through a strictly read-only handle so that probing
// a missing or behind store never creates the file or its WAL sidecars.
// Fail-closed: any error reports "not migrated".
func (c *Client) Probe() bool {
	units, err := c.Units()
	if err != nil {
		return false
	}

	ctx, cancel := c.context()
	defer cancel()

	ro, cleanup, err := c.readOnlyDB(ctx)
	if err != nil {
		return false
	}
	defer cleanup()
	if ro == nil {
		// No store: migrated only in the trivial no-units case.
		return len(units) == 0
	}
	return probe.IsMigrated(ctx, ro, c.dialect, units)
}
