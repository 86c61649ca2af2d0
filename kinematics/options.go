package kinematics

import (
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/kinetree/arena"
	spatial "go.viam.com/kinetree/spatialmath"
)

// Order is the order in which a skeleton is traversed. Both orders visit parents before children.
type Order int

const (
	// DepthFirst visits nodes in pre-order, children in insertion order.
	DepthFirst Order = iota
	// BreadthFirst visits nodes level by level.
	BreadthFirst
)

func (o Order) String() string {
	if o == BreadthFirst {
		return "breadth"
	}
	return "depth"
}

// ParseOrder parses "depth" or "breadth", ignoring case.
func ParseOrder(name string) (Order, error) {
	switch strings.ToLower(name) {
	case "depth", "dfs":
		return DepthFirst, nil
	case "breadth", "bfs":
		return BreadthFirst, nil
	default:
		return DepthFirst, errors.Errorf("unknown traversal order %q, expected depth or breadth", name)
	}
}

// Option configures an accumulation or evaluation pass.
type Option func(*options)

type options struct {
	world any
	root  arena.NodeID
	order Order
}

func newOptions(opts []Option) options {
	o := options{root: arena.NoNode, order: DepthFirst}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithWorld sets the pose the root is placed at. It defaults to the identity. The pose must be of the
// skeleton's transformation type.
func WithWorld[T spatial.Transformation[T]](world T) Option {
	return func(o *options) {
		o.world = world
	}
}

// WithRoot restricts the pass to the subtree rooted at id. The world pose then is the pose of id's parent.
func WithRoot(id arena.NodeID) Option {
	return func(o *options) {
		o.root = id
	}
}

// WithOrder selects the traversal order.
func WithOrder(order Order) Option {
	return func(o *options) {
		o.order = order
	}
}
