package agents

import (
	"context"
	"sync/atomic"

	"github.com/iancoleman/strcase"
)

// Handler is the terminal action of a leaf. The returned value is handed back
// to the caller of the executor.
type Handler func(ctx context.Context, c *Context) (interface{}, error)

// Node is either a *Leaf or an *Interior.
type Node interface {
	Key() string
	Name() string
	Description() string
	isNode()
}

type nodeInfo struct {
	key         string
	name        string
	description string
}

func (n *nodeInfo) Key() string         { return n.key }
func (n *nodeInfo) Name() string        { return n.name }
func (n *nodeInfo) Description() string { return n.description }
func (n *nodeInfo) isNode()             {}

func newNodeInfo(key, name, description string) (nodeInfo, error) {
	if name == "" {
		return nodeInfo{}, &InvalidConstructionError{Key: key, Reason: "name is required"}
	}
	if key == "" {
		key = strcase.ToSnake(name)
	}
	if description == "" {
		return nodeInfo{}, &InvalidConstructionError{Key: key, Reason: "description is required"}
	}
	return nodeInfo{key: key, name: name, description: description}, nil
}

type Leaf struct {
	nodeInfo
	handler Handler
}

var _ Node = &Leaf{}

// NewLeaf creates a leaf node. An empty key is derived from the name.
func NewLeaf(key, name, description string, handler Handler) (*Leaf, error) {
	info, err := newNodeInfo(key, name, description)
	if err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, &InvalidConstructionError{Key: info.key, Reason: "leaf requires a handler"}
	}
	return &Leaf{nodeInfo: info, handler: handler}, nil
}

func (l *Leaf) Handler() Handler {
	return l.handler
}

type Interior struct {
	nodeInfo
	children []Node
	sealed   atomic.Bool
}

var _ Node = &Interior{}

// NewInterior creates an interior node. Children can also be added later
// with AddChild, until the tree is handed to an Executor.
func NewInterior(key, name, description string, children ...Node) (*Interior, error) {
	info, err := newNodeInfo(key, name, description)
	if err != nil {
		return nil, err
	}
	ret := &Interior{nodeInfo: info}
	for _, child := range children {
		if err := ret.AddChild(child); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func (i *Interior) AddChild(child Node) error {
	if i.sealed.Load() {
		return ErrTreeSealed
	}
	if child == nil {
		return &InvalidConstructionError{Key: i.key, Reason: "child is nil"}
	}
	for _, c := range i.children {
		if c.Key() == child.Key() {
			return &InvalidConstructionError{Key: i.key, Reason: "duplicate child key " + child.Key()}
		}
	}
	i.children = append(i.children, child)
	return nil
}

// Children returns the children in declared order.
func (i *Interior) Children() []Node {
	return append([]Node{}, i.children...)
}

// Equal compares nodes by key.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}

// Validate checks the whole tree below root.
func Validate(root Node) error {
	return validate(root, map[Node]bool{})
}

func validate(n Node, path map[Node]bool) error {
	switch v := n.(type) {
	case nil:
		return &InvalidConstructionError{Reason: "nil node"}
	case *Leaf:
		if v == nil {
			return &InvalidConstructionError{Reason: "nil node"}
		}
		if v.handler == nil {
			return &InvalidConstructionError{Key: v.key, Reason: "leaf requires a handler"}
		}
	case *Interior:
		if v == nil {
			return &InvalidConstructionError{Reason: "nil node"}
		}
		if len(v.children) == 0 {
			return &InvalidConstructionError{Key: v.key, Reason: "interior node has no children"}
		}
		if path[v] {
			return &InvalidConstructionError{Key: v.key, Reason: "cycle in tree"}
		}
		path[v] = true
		defer delete(path, v)

		seen := map[string]bool{}
		for _, child := range v.children {
			if child == nil {
				return &InvalidConstructionError{Key: v.key, Reason: "child is nil"}
			}
			if seen[child.Key()] {
				return &InvalidConstructionError{Key: v.key, Reason: "duplicate child key " + child.Key()}
			}
			seen[child.Key()] = true
			if err := validate(child, path); err != nil {
				return err
			}
		}
	default:
		return ErrInvalidNode
	}

	if n.Key() == "" || n.Name() == "" || n.Description() == "" {
		return &InvalidConstructionError{Key: n.Key(), Reason: "key, name and description are required"}
	}
	return nil
}

func seal(n Node) {
	if i, ok := n.(*Interior); ok {
		if i.sealed.Swap(true) {
			return
		}
		for _, c := range i.children {
			seal(c)
		}
	}
}
