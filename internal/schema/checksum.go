package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cbergoon/merkletree"
)

// modelContent implements merkletree.Content over one model's canonical JSON.
type modelContent struct {
	data []byte
}

func (c modelContent) CalculateHash() ([]byte, error) {
	h := sha256.Sum256(c.data)
	return h[:], nil
}

func (c modelContent) Equals(other merkletree.Content) (bool, error) {
	o, ok := other.(modelContent)
	if !ok {
		return false, nil
	}
	return string(c.data) == string(o.data), nil
}

// computeChecksum computes the merkle root over the models, sorted by table
// name so declaration order never leaks into the checksum. An empty model set
// has a fixed sentinel checksum.
func computeChecksum(models []ModelSnapshot) string {
	if len(models) == 0 {
		return emptyChecksum()
	}

	sorted := make([]ModelSnapshot, len(models))
	copy(sorted, models)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Table < sorted[j].Table })

	contents := make([]merkletree.Content, len(sorted))
	for i := range sorted {
		contents[i] = modelContent{data: canonicalJSON(&sorted[i])}
	}

	tree, err := merkletree.NewTree(contents)
	if err != nil {
		// NewTree only fails on an empty content list, which is handled above.
		return emptyChecksum()
	}
	return hex.EncodeToString(tree.MerkleRoot())
}

// canonicalJSON renders a model snapshot as deterministic JSON: struct fields
// marshal in declaration order and defaults are normalized via canonicalValue.
func canonicalJSON(m *ModelSnapshot) []byte {
	type field struct {
		Name          string `json:"name"`
		Type          string `json:"type"`
		PrimaryKey    bool   `json:"primary_key"`
		AutoIncrement bool   `json:"auto_increment"`
		Unique        bool   `json:"unique"`
		Nullable      bool   `json:"nullable"`
		Default       string `json:"default"`
		MaxLength     int    `json:"max_length"`
		Reference     string `json:"reference"`
	}
	type index struct {
		Name    string   `json:"name"`
		Columns []string `json:"columns"`
		Unique  bool     `json:"unique"`
	}
	type model struct {
		Name    string  `json:"name"`
		Table   string  `json:"table"`
		Fields  []field `json:"fields"`
		Indexes []index `json:"indexes"`
	}

	cm := model{Name: m.Name, Table: m.Table}
	for _, f := range m.Fields {
		ref := ""
		if f.Reference != nil {
			ref = fmt.Sprintf("%s.%s|%s|%s",
				f.Reference.Table, f.Reference.Column, f.Reference.OnDelete, f.Reference.OnUpdate)
		}
		cm.Fields = append(cm.Fields, field{
			Name:          f.Name,
			Type:          f.Type,
			PrimaryKey:    f.PrimaryKey,
			AutoIncrement: f.AutoIncrement,
			Unique:        f.Unique,
			Nullable:      f.Nullable,
			Default:       canonicalValue(f.Default),
			MaxLength:     f.MaxLength,
			Reference:     ref,
		})
	}

	idxs := make([]index, len(m.Indexes))
	for i, ix := range m.Indexes {
		idxs[i] = index{Name: ix.Name, Columns: ix.Columns, Unique: ix.Unique}
	}
	sort.Slice(idxs, func(i, j int) bool { return idxs[i].Name < idxs[j].Name })
	cm.Indexes = idxs

	data, err := json.Marshal(cm)
	if err != nil {
		// The canonical types above are always marshalable.
		panic(err)
	}
	return data
}

// canonicalValue renders a default value in a type-stable form. YAML decoding
// may turn an int into an int64 or a float; the rendered literal is identical.
func canonicalValue(v any) string {
	if v == nil {
		return ""
	}
	switch n := v.(type) {
	case float64:
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%g", n)
	case float32:
		return canonicalValue(float64(n))
	default:
		return fmt.Sprintf("%v", v)
	}
}

func emptyChecksum() string {
	h := sha256.Sum256([]byte("empty_schema"))
	return hex.EncodeToString(h[:])
}
