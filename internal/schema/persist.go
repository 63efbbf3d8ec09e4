package schema

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/evolvedb/evolve/internal/everr"
)

// Save writes the snapshot as YAML, creating parent directories as needed.
func Save(snap *Snapshot, path string) error {
	data, err := yaml.Marshal(snap)
	if err != nil {
		return everr.Wrap(everr.ErrSchemaInvalid, err, "failed to encode snapshot")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return everr.Wrap(everr.ErrSchemaInvalid, err, "failed to create snapshot directory")
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return everr.Wrap(everr.ErrSchemaInvalid, err, "failed to write snapshot")
	}
	return nil
}

// LoadSnapshot reads a snapshot from disk. A missing file returns (nil, nil):
// the first run of a project has no previous snapshot and diffs from empty.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, everr.Wrap(everr.ErrSchemaInvalid, err, "failed to read snapshot")
	}

	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, everr.Wrap(everr.ErrSchemaInvalid, err, "failed to parse snapshot")
	}
	if snap.Version != SnapshotVersion {
		return nil, everr.Newf(everr.ErrSchemaInvalid, "unsupported snapshot version %d", snap.Version)
	}
	return &snap, nil
}

// Empty returns the snapshot of a project with no models.
func Empty() *Snapshot {
	return &Snapshot{Version: SnapshotVersion, Checksum: emptyChecksum()}
}
