// Package migrate loads migration units from disk and applies them to a
// database, one transaction per unit, recording every applied revision in a
// durable ledger table.
package migrate

import (
	"fmt"
	"time"

	"github.com/evolvedb/evolve/internal/ast"
	"github.com/evolvedb/evolve/internal/dialect"
)

// Unit is one migration: an ordered operation list under a unique revision.
// Unit files are read-only inputs; the runner never modifies them.
type Unit struct {
	Revision     string   `yaml:"revision"`
	Slug         string   `yaml:"slug,omitempty"`
	Models       []string `yaml:"models,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`

	Operations []ast.Operation `yaml:"-"`

	// Path and Checksum are set by the loader. Checksum is the sha256 hex of
	// the file bytes and is what the ledger stores at apply time.
	Path     string `yaml:"-"`
	Checksum string `yaml:"-"`
}

// revisionFormat derives totally-ordered revisions from UTC wall time.
const revisionFormat = "20060102150405"

// NewRevision returns a timestamp-derived revision for the given time.
func NewRevision(t time.Time) string {
	return t.UTC().Format(revisionFormat)
}

// NewRevisionAfter returns a revision for t that sorts strictly after last.
// Generating two units within the same wall-clock second bumps the newer one
// forward instead of colliding.
func NewRevisionAfter(t time.Time, last string) string {
	rev := NewRevision(t)
	if last == "" || rev > last {
		return rev
	}
	lt, err := time.Parse(revisionFormat, last)
	if err != nil {
		return rev
	}
	return NewRevision(lt.Add(time.Second))
}

// Filename returns the canonical on-disk name, <revision>_<slug>.yaml.
func (u *Unit) Filename() string {
	if u.Slug == "" {
		return u.Revision + ".yaml"
	}
	return fmt.Sprintf("%s_%s.yaml", u.Revision, u.Slug)
}

// ForwardSQL compiles the unit's forward statements for the dialect.
func (u *Unit) ForwardSQL(d dialect.Dialect) ([]string, error) {
	var stmts []string
	for _, op := range u.Operations {
		s, err := op.Forward(d)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s...)
	}
	return stmts, nil
}

// ReverseSQL compiles the unit's reverse statements for the dialect.
// Operations reverse in the opposite order they were applied. Any
// irreversible operation fails the whole unit.
func (u *Unit) ReverseSQL(d dialect.Dialect) ([]string, error) {
	var stmts []string
	for i := len(u.Operations) - 1; i >= 0; i-- {
		s, err := u.Operations[i].Reverse(d)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s...)
	}
	return stmts, nil
}
