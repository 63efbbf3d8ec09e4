package evolve

import (
	"sort"
	"time"

	"github.com/evolvedb/evolve/internal/ast"
	"github.com/evolvedb/evolve/internal/diff"
	"github.com/evolvedb/evolve/internal/migrate"
	"github.com/evolvedb/evolve/internal/schema"
	"github.com/evolvedb/evolve/internal/strutil"
)

// Model types consumed by the snapshot builder, re-exported so callers never
// import internal packages.
type (
	Model     = schema.Model
	Field     = schema.Field
	Index     = schema.Index
	Reference = ast.Reference
)

// Diff compares the current model definitions against the stored snapshot.
func (c *Client) Diff(models []Model) (diff.SchemaDiff, error) {
	old, err := schema.LoadSnapshot(c.config.SnapshotPath)
	if err != nil {
		return diff.SchemaDiff{}, err
	}
	next, err := schema.Build(models)
	if err != nil {
		return diff.SchemaDiff{}, err
	}
	return diff.Diff(old, next, diff.Options{}), nil
}

// MakeMigration diffs the given models against the stored snapshot, writes a
// new migration unit for the changes, and advances the snapshot. It returns
// the written unit's path, or "" when there is nothing to migrate.
func (c *Client) MakeMigration(models []Model, slug string) (string, error) {
	old, err := schema.LoadSnapshot(c.config.SnapshotPath)
	if err != nil {
		return "", err
	}
	next, err := schema.Build(models)
	if err != nil {
		return "", err
	}

	d := diff.Diff(old, next, diff.Options{})
	if d.Empty() {
		return "", nil
	}
	ops := diff.Generate(d, old, next)

	// A metadata-only change (a model renamed over its own table) needs no
	// DDL. Advance the snapshot so the new name sticks, but write no unit.
	if len(ops) == 0 {
		return "", schema.Save(next, c.config.SnapshotPath)
	}

	existing, err := c.Units()
	if err != nil {
		return "", err
	}
	var last string
	if len(existing) > 0 {
		last = existing[len(existing)-1].Revision
	}

	u := &migrate.Unit{
		Revision:   migrate.NewRevisionAfter(time.Now(), last),
		Slug:       strutil.Slugify(slug),
		Models:     touchedModels(d, old, next),
		Operations: ops,
	}
	if len(existing) > 0 {
		u.Dependencies = []string{existing[len(existing)-1].Revision}
	}

	path, err := migrate.WriteUnit(u, c.config.MigrationsDir)
	if err != nil {
		return "", err
	}
	if err := schema.Save(next, c.config.SnapshotPath); err != nil {
		return "", err
	}
	c.log("wrote %s", path)
	return path, nil
}

// touchedModels lists the model names a diff touches, sorted and deduped.
func touchedModels(d diff.SchemaDiff, old, next *schema.Snapshot) []string {
	if old == nil {
		old = schema.Empty()
	}
	set := make(map[string]bool)
	for _, r := range d.ModelRenames {
		set[r.NewModel] = true
	}
	for _, table := range d.AddedModels {
		if m := next.ModelByTable(table); m != nil {
			set[m.Name] = true
		}
	}
	for _, table := range d.RemovedModels {
		if m := old.ModelByTable(table); m != nil {
			set[m.Name] = true
		}
	}
	for _, md := range d.ChangedModels {
		if m := next.ModelByTable(md.Table); m != nil {
			set[m.Name] = true
		}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
