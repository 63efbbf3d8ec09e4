package migrate

import (
	"gopkg.in/yaml.v3"

	"github.com/evolvedb/evolve/internal/ast"
	"github.com/evolvedb/evolve/internal/everr"
)

// Unit files encode operations as a tagged union: each list entry carries a
// `kind` key naming one of the closed operation set, and the remaining keys
// are that operation's payload.
//
//	operations:
//	  - kind: create_model
//	    table: users
//	    columns:
//	      - name: id
//	        type: integer
//	        primary_key: true

type unitDoc struct {
	Revision     string      `yaml:"revision"`
	Slug         string      `yaml:"slug,omitempty"`
	Models       []string    `yaml:"models,omitempty"`
	Dependencies []string    `yaml:"dependencies,omitempty"`
	Operations   []yaml.Node `yaml:"operations"`
}

type opKindProbe struct {
	Kind ast.OpKind `yaml:"kind"`
}

// MarshalUnit encodes a unit to YAML.
func MarshalUnit(u *Unit) ([]byte, error) {
	doc := unitDoc{
		Revision:     u.Revision,
		Slug:         u.Slug,
		Models:       u.Models,
		Dependencies: u.Dependencies,
	}

	for _, op := range u.Operations {
		var node yaml.Node
		if err := node.Encode(op); err != nil {
			return nil, everr.Wrap(everr.ErrUnitLoad, err, "failed to encode operation").
				With("kind", string(op.Kind()))
		}
		var kindKey, kindVal yaml.Node
		kindKey.SetString("kind")
		kindVal.SetString(string(op.Kind()))
		node.Content = append([]*yaml.Node{&kindKey, &kindVal}, node.Content...)
		doc.Operations = append(doc.Operations, node)
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, everr.Wrap(everr.ErrUnitLoad, err, "failed to encode unit").
			WithRevision(u.Revision)
	}
	return data, nil
}

// UnmarshalUnit decodes a unit from YAML. An operation kind outside the
// closed set is a load failure, never a silent skip.
func UnmarshalUnit(data []byte) (*Unit, error) {
	var doc unitDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, everr.Wrap(everr.ErrUnitLoad, err, "failed to parse unit")
	}
	if doc.Revision == "" {
		return nil, everr.New(everr.ErrUnitLoad, "unit has no revision")
	}

	u := &Unit{
		Revision:     doc.Revision,
		Slug:         doc.Slug,
		Models:       doc.Models,
		Dependencies: doc.Dependencies,
	}

	for i := range doc.Operations {
		op, err := decodeOperation(&doc.Operations[i])
		if err != nil {
			return nil, everr.Wrap(everr.ErrUnitLoad, err, "failed to decode operation").
				WithRevision(doc.Revision)
		}
		u.Operations = append(u.Operations, op)
	}
	return u, nil
}

func decodeOperation(node *yaml.Node) (ast.Operation, error) {
	var probe opKindProbe
	if err := node.Decode(&probe); err != nil {
		return nil, err
	}

	op := newOperation(probe.Kind)
	if op == nil {
		return nil, everr.Newf(everr.ErrUnknownOperation, "unknown operation kind %q", probe.Kind)
	}
	if err := node.Decode(op); err != nil {
		return nil, err
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	return op, nil
}

// newOperation returns a zero value of the operation variant for a kind, or
// nil for a kind outside the closed set.
func newOperation(kind ast.OpKind) ast.Operation {
	switch kind {
	case ast.OpCreateModel:
		return &ast.CreateModel{}
	case ast.OpDropModel:
		return &ast.DropModel{}
	case ast.OpRenameModel:
		return &ast.RenameModel{}
	case ast.OpAddField:
		return &ast.AddField{}
	case ast.OpRemoveField:
		return &ast.RemoveField{}
	case ast.OpAlterField:
		return &ast.AlterField{}
	case ast.OpRenameField:
		return &ast.RenameField{}
	case ast.OpCreateIndex:
		return &ast.CreateIndex{}
	case ast.OpDropIndex:
		return &ast.DropIndex{}
	case ast.OpAddConstraint:
		return &ast.AddConstraint{}
	case ast.OpRemoveConstraint:
		return &ast.RemoveConstraint{}
	case ast.OpRunRaw:
		return &ast.RunRaw{}
	case ast.OpRunCallback:
		return &ast.RunCallback{}
	default:
		return nil
	}
}
