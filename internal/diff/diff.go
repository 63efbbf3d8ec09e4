// Package diff computes the structural difference between two schema
// snapshots. The comparison is pure: identical inputs always produce the same
// diff, and diffing a snapshot against itself is always empty.
//
// Rename detection runs before removal/addition classification so that a
// renamed model or field is never expressed as a destructive drop+create pair.
package diff

import (
	"sort"

	"github.com/evolvedb/evolve/internal/schema"
)

// DefaultRenameThreshold is the minimum similarity score for a rename
// candidate to be accepted instead of a drop+create pair.
const DefaultRenameThreshold = 0.6

// fieldTypeWeight and fieldNameWeight split the field rename score between
// type equality and column name similarity.
const (
	fieldTypeWeight = 0.7
	fieldNameWeight = 0.3
)

// Options tune rename detection.
type Options struct {
	// ModelRenameThreshold is the minimum Jaccard similarity of field name
	// sets for two differently-named models to be treated as a rename.
	// Zero means DefaultRenameThreshold.
	ModelRenameThreshold float64

	// FieldRenameThreshold is the minimum weighted score (type equality plus
	// name similarity) for two differently-named fields to be treated as a
	// rename. Zero means DefaultRenameThreshold.
	FieldRenameThreshold float64
}

func (o Options) modelThreshold() float64 {
	if o.ModelRenameThreshold > 0 {
		return o.ModelRenameThreshold
	}
	return DefaultRenameThreshold
}

func (o Options) fieldThreshold() float64 {
	if o.FieldRenameThreshold > 0 {
		return o.FieldRenameThreshold
	}
	return DefaultRenameThreshold
}

// ModelRename records a detected model rename. The table name may be
// unchanged: renaming model Customer to Client while keeping table
// "customers" is still a rename, it just compiles to no SQL.
type ModelRename struct {
	OldModel string
	NewModel string
	OldTable string
	NewTable string
	Score    float64
}

// FieldRename records a detected column rename within one model.
type FieldRename struct {
	Old   string
	New   string
	Score float64
}

// ModelDiff describes the changes within one model that exists (possibly
// under a new table name) in both snapshots. Field lists hold column names in
// the new snapshot except RemovedFields, which no longer exist there.
type ModelDiff struct {
	// Table is the model's table name in the new snapshot.
	Table string

	FieldRenames  []FieldRename
	AddedFields   []string
	RemovedFields []string
	AlteredFields []string

	AddedIndexes   []string
	RemovedIndexes []string
}

func (d *ModelDiff) empty() bool {
	return len(d.FieldRenames) == 0 &&
		len(d.AddedFields) == 0 &&
		len(d.RemovedFields) == 0 &&
		len(d.AlteredFields) == 0 &&
		len(d.AddedIndexes) == 0 &&
		len(d.RemovedIndexes) == 0
}

// SchemaDiff is the full structural difference between two snapshots.
type SchemaDiff struct {
	// ModelRenames holds detected model renames.
	ModelRenames []ModelRename

	// AddedModels/RemovedModels hold table names.
	AddedModels   []string
	RemovedModels []string

	// ChangedModels holds per-model changes for matched models, ordered by
	// table name.
	ChangedModels []ModelDiff
}

// Empty reports whether the two snapshots are structurally identical.
func (d *SchemaDiff) Empty() bool {
	return len(d.ModelRenames) == 0 &&
		len(d.AddedModels) == 0 &&
		len(d.RemovedModels) == 0 &&
		len(d.ChangedModels) == 0
}

// modelPair is a matched old/new model, by identity or by detected rename.
type modelPair struct {
	old *schema.ModelSnapshot
	new *schema.ModelSnapshot
}

// Diff computes the structural difference from old to new.
// A nil snapshot is treated as empty, so the first run of a project diffs the
// whole model set as additions.
func Diff(old, new *schema.Snapshot, opts Options) SchemaDiff {
	if old == nil {
		old = schema.Empty()
	}
	if new == nil {
		new = schema.Empty()
	}

	var result SchemaDiff

	pairs, renames, removed, added := matchModels(old, new, opts.modelThreshold())
	result.ModelRenames = renames
	result.RemovedModels = removed
	result.AddedModels = added

	for _, p := range pairs {
		md := diffModel(p.old, p.new, opts.fieldThreshold())
		if !md.empty() {
			result.ChangedModels = append(result.ChangedModels, md)
		}
	}
	sort.Slice(result.ChangedModels, func(i, j int) bool {
		return result.ChangedModels[i].Table < result.ChangedModels[j].Table
	})

	return result
}

// matchModels pairs old models with new models. First pass matches identical
// table names; second pass scores the leftovers by field name set similarity
// and greedily accepts the best pairs above the threshold.
func matchModels(old, new *schema.Snapshot, threshold float64) (pairs []modelPair, renames []ModelRename, removed, added []string) {
	matchedNew := make(map[string]bool)

	var unmatchedOld []*schema.ModelSnapshot
	for i := range old.Models {
		om := &old.Models[i]
		if nm := new.ModelByTable(om.Table); nm != nil {
			pairs = append(pairs, modelPair{old: om, new: nm})
			matchedNew[nm.Table] = true
			// Same table, different model name: a rename with no DDL.
			if om.Name != nm.Name {
				renames = append(renames, ModelRename{
					OldModel: om.Name,
					NewModel: nm.Name,
					OldTable: om.Table,
					NewTable: nm.Table,
					Score:    1.0,
				})
			}
		} else {
			unmatchedOld = append(unmatchedOld, om)
		}
	}

	var unmatchedNew []*schema.ModelSnapshot
	for i := range new.Models {
		nm := &new.Models[i]
		if !matchedNew[nm.Table] {
			unmatchedNew = append(unmatchedNew, nm)
		}
	}

	type match struct {
		oi, ni int
		score  float64
	}
	var candidates []match
	for oi, om := range unmatchedOld {
		for ni, nm := range unmatchedNew {
			score := Jaccard(om.FieldNames(), nm.FieldNames())
			if score >= threshold {
				candidates = append(candidates, match{oi: oi, ni: ni, score: score})
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		// Stable tie-break on old table name.
		return unmatchedOld[candidates[i].oi].Table < unmatchedOld[candidates[j].oi].Table
	})

	usedOld := make(map[int]bool)
	usedNew := make(map[int]bool)
	for _, c := range candidates {
		if usedOld[c.oi] || usedNew[c.ni] {
			continue
		}
		usedOld[c.oi] = true
		usedNew[c.ni] = true
		pairs = append(pairs, modelPair{old: unmatchedOld[c.oi], new: unmatchedNew[c.ni]})
		renames = append(renames, ModelRename{
			OldModel: unmatchedOld[c.oi].Name,
			NewModel: unmatchedNew[c.ni].Name,
			OldTable: unmatchedOld[c.oi].Table,
			NewTable: unmatchedNew[c.ni].Table,
			Score:    c.score,
		})
	}

	for oi, om := range unmatchedOld {
		if !usedOld[oi] {
			removed = append(removed, om.Table)
		}
	}
	for ni, nm := range unmatchedNew {
		if !usedNew[ni] {
			added = append(added, nm.Table)
		}
	}

	sort.Slice(renames, func(i, j int) bool { return renames[i].OldTable < renames[j].OldTable })
	sort.Strings(removed)
	sort.Strings(added)
	return pairs, renames, removed, added
}

// diffModel computes field and index changes within a matched model pair.
func diffModel(old, new *schema.ModelSnapshot, threshold float64) ModelDiff {
	md := ModelDiff{Table: new.Table}

	matchedNew := make(map[string]bool)
	type fieldPair struct {
		old *schema.FieldSnapshot
		new *schema.FieldSnapshot
	}
	var pairs []fieldPair

	var unmatchedOld []*schema.FieldSnapshot
	for i := range old.Fields {
		of := &old.Fields[i]
		if nf := new.Field(of.Name); nf != nil {
			pairs = append(pairs, fieldPair{old: of, new: nf})
			matchedNew[nf.Name] = true
		} else {
			unmatchedOld = append(unmatchedOld, of)
		}
	}

	var unmatchedNew []*schema.FieldSnapshot
	for i := range new.Fields {
		nf := &new.Fields[i]
		if !matchedNew[nf.Name] {
			unmatchedNew = append(unmatchedNew, nf)
		}
	}

	type match struct {
		oi, ni int
		score  float64
	}
	var candidates []match
	for oi, of := range unmatchedOld {
		for ni, nf := range unmatchedNew {
			score := fieldNameWeight * nameSimilarity(of.Name, nf.Name)
			if of.Type == nf.Type {
				score += fieldTypeWeight
			}
			if score >= threshold {
				candidates = append(candidates, match{oi: oi, ni: ni, score: score})
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return unmatchedOld[candidates[i].oi].Name < unmatchedOld[candidates[j].oi].Name
	})

	usedOld := make(map[int]bool)
	usedNew := make(map[int]bool)
	for _, c := range candidates {
		if usedOld[c.oi] || usedNew[c.ni] {
			continue
		}
		usedOld[c.oi] = true
		usedNew[c.ni] = true
		pairs = append(pairs, fieldPair{old: unmatchedOld[c.oi], new: unmatchedNew[c.ni]})
		md.FieldRenames = append(md.FieldRenames, FieldRename{
			Old:   unmatchedOld[c.oi].Name,
			New:   unmatchedNew[c.ni].Name,
			Score: c.score,
		})
	}

	for oi, of := range unmatchedOld {
		if !usedOld[oi] {
			md.RemovedFields = append(md.RemovedFields, of.Name)
		}
	}
	for ni, nf := range unmatchedNew {
		if !usedNew[ni] {
			md.AddedFields = append(md.AddedFields, nf.Name)
		}
	}

	// A matched field with any structural property changed is altered; the
	// whole new definition travels with the operation, so one flag suffices.
	for _, p := range pairs {
		if !p.old.StructurallyEqual(p.new) {
			md.AlteredFields = append(md.AlteredFields, p.new.Name)
		}
	}

	// Indexes are compared by name only.
	oldIdx := make(map[string]bool, len(old.Indexes))
	for _, ix := range old.Indexes {
		oldIdx[ix.Name] = true
	}
	newIdx := make(map[string]bool, len(new.Indexes))
	for _, ix := range new.Indexes {
		newIdx[ix.Name] = true
		if !oldIdx[ix.Name] {
			md.AddedIndexes = append(md.AddedIndexes, ix.Name)
		}
	}
	for _, ix := range old.Indexes {
		if !newIdx[ix.Name] {
			md.RemovedIndexes = append(md.RemovedIndexes, ix.Name)
		}
	}

	sort.Slice(md.FieldRenames, func(i, j int) bool { return md.FieldRenames[i].Old < md.FieldRenames[j].Old })
	sort.Strings(md.AddedFields)
	sort.Strings(md.RemovedFields)
	sort.Strings(md.AlteredFields)
	sort.Strings(md.AddedIndexes)
	sort.Strings(md.RemovedIndexes)
	return md
}
