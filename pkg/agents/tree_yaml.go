package agents

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// TreeDescription is the YAML form of a tree. Leaves name their handler,
// interior nodes list their children.
type TreeDescription struct {
	Key         string             `yaml:"key,omitempty"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Handler     string             `yaml:"handler,omitempty"`
	Children    []*TreeDescription `yaml:"children,omitempty"`
}

// LoadTree builds a tree from YAML, resolving leaf handlers by name.
func LoadTree(r io.Reader, handlers map[string]Handler) (Node, error) {
	var desc TreeDescription
	if err := yaml.NewDecoder(r).Decode(&desc); err != nil {
		return nil, errors.Wrap(err, "could not decode tree")
	}

	root, err := desc.Build(handlers)
	if err != nil {
		return nil, err
	}
	if err := Validate(root); err != nil {
		return nil, err
	}
	return root, nil
}

func (d *TreeDescription) Build(handlers map[string]Handler) (Node, error) {
	if len(d.Children) == 0 {
		if d.Handler == "" {
			return nil, &InvalidConstructionError{Key: d.Key, Reason: "leaf has no handler"}
		}
		h, ok := handlers[d.Handler]
		if !ok {
			return nil, &InvalidConstructionError{Key: d.Key, Reason: "unknown handler " + d.Handler}
		}
		leaf, err := NewLeaf(d.Key, d.Name, d.Description, h)
		if err != nil {
			return nil, err
		}
		return leaf, nil
	}

	if d.Handler != "" {
		return nil, &InvalidConstructionError{Key: d.Key, Reason: "node has both children and a handler"}
	}

	ret, err := NewInterior(d.Key, d.Name, d.Description)
	if err != nil {
		return nil, err
	}
	for _, child := range d.Children {
		if child == nil {
			return nil, &InvalidConstructionError{Key: ret.Key(), Reason: "child is nil"}
		}
		n, err := child.Build(handlers)
		if err != nil {
			return nil, err
		}
		if err := ret.AddChild(n); err != nil {
			return nil, err
		}
	}
	return ret, nil
}
