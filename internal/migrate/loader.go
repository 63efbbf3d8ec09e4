package migrate

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evolvedb/evolve/internal/everr"
)

// Discover loads every unit file (*.yaml) in dir, sorted by revision.
// A missing directory is an empty project, not an error. Any file that fails
// to parse aborts the whole discovery: a partially-loaded unit set must never
// reach the runner.
func Discover(dir string) ([]*Unit, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, everr.Wrap(everr.ErrUnitLoad, err, "failed to read migrations directory").
			With("dir", dir)
	}

	var units []*Unit
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		u, err := LoadUnit(path)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}

	sort.Slice(units, func(i, j int) bool { return units[i].Revision < units[j].Revision })

	for i := 1; i < len(units); i++ {
		if units[i].Revision == units[i-1].Revision {
			return nil, everr.Newf(everr.ErrUnitLoad, "duplicate revision in %s and %s",
				units[i-1].Path, units[i].Path).
				WithRevision(units[i].Revision)
		}
	}
	return units, nil
}

// LoadUnit reads and decodes a single unit file, computing its checksum from
// the raw file bytes.
func LoadUnit(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, everr.Wrap(everr.ErrUnitLoad, err, "failed to read unit file").
			With("path", path)
	}

	u, err := UnmarshalUnit(data)
	if err != nil {
		return nil, everr.Wrap(everr.ErrUnitLoad, err, "invalid unit file").
			With("path", path)
	}

	sum := sha256.Sum256(data)
	u.Path = path
	u.Checksum = hex.EncodeToString(sum[:])
	return u, nil
}

// WriteUnit writes a unit to dir under its canonical filename and returns the
// written path.
func WriteUnit(u *Unit, dir string) (string, error) {
	data, err := MarshalUnit(u)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", everr.Wrap(everr.ErrUnitLoad, err, "failed to create migrations directory").
			With("dir", dir)
	}
	path := filepath.Join(dir, u.Filename())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", everr.Wrap(everr.ErrUnitLoad, err, "failed to write unit file").
			With("path", path)
	}
	return path, nil
}

// Resolve finds a unit by revision or unique revision prefix.
func Resolve(units []*Unit, revision string) (*Unit, error) {
	for _, u := range units {
		if u.Revision == revision {
			return u, nil
		}
	}

	var matches []*Unit
	for _, u := range units {
		if strings.HasPrefix(u.Revision, revision) {
			matches = append(matches, u)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, everr.Newf(everr.ErrMigrationConflict, "no migration matches revision %q", revision)
	default:
		return nil, everr.Newf(everr.ErrMigrationConflict, "revision %q is ambiguous (%d matches)", revision, len(matches))
	}
}
