package diff

import (
	"github.com/evolvedb/evolve/internal/ast"
	"github.com/evolvedb/evolve/internal/schema"
)

// Generate turns a schema diff into an ordered operation list.
//
// Global ordering: model renames, model removals, model additions. Then, per
// changed model: field renames, field removals, field additions, field
// alterations, index additions, index removals. Renames always precede
// removals and additions so later operations address tables and columns by
// their current names.
func Generate(d SchemaDiff, old, new *schema.Snapshot) []ast.Operation {
	if old == nil {
		old = schema.Empty()
	}
	if new == nil {
		new = schema.Empty()
	}

	var ops []ast.Operation

	for _, r := range d.ModelRenames {
		// A model rename that keeps its table name needs no DDL.
		if r.OldTable == r.NewTable {
			continue
		}
		ops = append(ops, &ast.RenameModel{
			OldModel: r.OldModel,
			NewModel: r.NewModel,
			OldTable: r.OldTable,
			NewTable: r.NewTable,
		})
	}

	for _, table := range d.RemovedModels {
		ops = append(ops, &ast.DropModel{
			Model: modelName(old, table),
			Table: table,
		})
	}

	// New models carry their full column set in one CreateModel, followed by
	// their declared indexes.
	for _, table := range d.AddedModels {
		nm := new.ModelByTable(table)
		create := &ast.CreateModel{Model: nm.Name, Table: table}
		for i := range nm.Fields {
			create.Columns = append(create.Columns, nm.Fields[i].Column())
		}
		ops = append(ops, create)
		for _, ix := range nm.Indexes {
			ops = append(ops, &ast.CreateIndex{
				Model: nm.Name,
				Table: table,
				Index: &ast.IndexDef{Name: ix.Name, Columns: ix.Columns, Unique: ix.Unique},
			})
		}
	}

	for _, md := range d.ChangedModels {
		nm := new.ModelByTable(md.Table)
		om := oldModelFor(d, old, md.Table)

		for _, r := range md.FieldRenames {
			ops = append(ops, &ast.RenameField{
				Model:   nm.Name,
				Table:   md.Table,
				OldName: r.Old,
				NewName: r.New,
			})
		}
		for _, name := range md.RemovedFields {
			ops = append(ops, &ast.RemoveField{
				Model:  nm.Name,
				Table:  md.Table,
				Column: name,
			})
		}
		for _, name := range md.AddedFields {
			ops = append(ops, &ast.AddField{
				Model:  nm.Name,
				Table:  md.Table,
				Column: nm.Field(name).Column(),
			})
		}
		for _, name := range md.AlteredFields {
			ops = append(ops, &ast.AlterField{
				Model:  nm.Name,
				Table:  md.Table,
				Column: nm.Field(name).Column(),
			})
		}
		for _, name := range md.AddedIndexes {
			ix := indexByName(nm.Indexes, name)
			ops = append(ops, &ast.CreateIndex{
				Model: nm.Name,
				Table: md.Table,
				Index: &ast.IndexDef{Name: ix.Name, Columns: ix.Columns, Unique: ix.Unique},
			})
		}
		for _, name := range md.RemovedIndexes {
			drop := &ast.DropIndex{Model: nm.Name, Table: md.Table, Name: name}
			// Retain the old column list so the drop stays reversible.
			if om != nil {
				if ix := indexByName(om.Indexes, name); ix != nil {
					drop.Columns = ix.Columns
					drop.Unique = ix.Unique
				}
			}
			ops = append(ops, drop)
		}
	}

	return ops
}

// oldModelFor resolves the old snapshot model backing a changed model,
// following a rename when one was detected.
func oldModelFor(d SchemaDiff, old *schema.Snapshot, newTable string) *schema.ModelSnapshot {
	for _, r := range d.ModelRenames {
		if r.NewTable == newTable {
			return old.ModelByTable(r.OldTable)
		}
	}
	return old.ModelByTable(newTable)
}

func modelName(snap *schema.Snapshot, table string) string {
	if m := snap.ModelByTable(table); m != nil {
		return m.Name
	}
	return table
}

func indexByName(idxs []schema.IndexSnapshot, name string) *schema.IndexSnapshot {
	for i := range idxs {
		if idxs[i].Name == name {
			return &idxs[i]
		}
	}
	return nil
}
