// Package arena implements an append-only tree whose nodes live in one flat slice and refer to
// each other by index. Parents are back-references used for lookup only; the arena owns every node.
package arena

import (
	"iter"

	"github.com/eapache/queue"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// NodeID identifies a node within one Tree. Identifiers are dense, start at zero for the root and
// are never reused.
type NodeID int

// NoNode is the parent of the root.
const NoNode NodeID = -1

type node[P any] struct {
	payload  P
	parent   NodeID
	children []NodeID
	depth    int
	// width is the size of the subtree rooted at this node, including itself.
	width int
}

// Tree is an arena allocated tree. The zero value is an empty tree ready to use.
// Mutation and reads must not be interleaved; callers provide the locking.
type Tree[P any] struct {
	nodes    []node[P]
	maxDepth int
}

// New returns an empty tree.
func New[P any]() *Tree[P] {
	return &Tree[P]{}
}

// NewWithCapacity returns an empty tree with room for n nodes.
func NewWithCapacity[P any](n int) *Tree[P] {
	return &Tree[P]{nodes: make([]node[P], 0, n)}
}

// AddRoot adds the root of the tree. It fails if the tree already has one.
func (t *Tree[P]) AddRoot(payload P) (NodeID, error) {
	if len(t.nodes) != 0 {
		return NoNode, &TreeError{Kind: NotEmpty, ID: 0}
	}
	t.nodes = append(t.nodes, node[P]{payload: payload, parent: NoNode, width: 1})
	return 0, nil
}

// AddChild appends a new node below parent. Children keep the order in which they were added.
func (t *Tree[P]) AddChild(parent NodeID, payload P) (NodeID, error) {
	if !t.contains(parent) {
		return NoNode, NewUnknownParentError(parent)
	}
	id := NodeID(len(t.nodes))
	depth := t.nodes[parent].depth + 1
	t.nodes = append(t.nodes, node[P]{payload: payload, parent: parent, depth: depth, width: 1})
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	for p := parent; p != NoNode; p = t.nodes[p].parent {
		t.nodes[p].width++
	}
	if depth > t.maxDepth {
		t.maxDepth = depth
	}
	return id, nil
}

func (t *Tree[P]) contains(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

func (t *Tree[P]) lookup(id NodeID) (*node[P], error) {
	if !t.contains(id) {
		return nil, NewUnknownNodeError(id)
	}
	return &t.nodes[id], nil
}

// Len returns the number of nodes.
func (t *Tree[P]) Len() int {
	return len(t.nodes)
}

// Contains reports whether id refers to a node of this tree.
func (t *Tree[P]) Contains(id NodeID) bool {
	return t.contains(id)
}

// Root returns the identifier of the root.
func (t *Tree[P]) Root() (NodeID, error) {
	if len(t.nodes) == 0 {
		return NoNode, &TreeError{Kind: Empty, ID: NoNode}
	}
	return 0, nil
}

// Parent returns the parent of id. ok is false for the root.
func (t *Tree[P]) Parent(id NodeID) (parent NodeID, ok bool, err error) {
	n, err := t.lookup(id)
	if err != nil {
		return NoNode, false, err
	}
	return n.parent, n.parent != NoNode, nil
}

// Children returns a copy of the ordered children of id.
func (t *Tree[P]) Children(id NodeID) ([]NodeID, error) {
	n, err := t.lookup(id)
	if err != nil {
		return nil, err
	}
	out := make([]NodeID, len(n.children))
	copy(out, n.children)
	return out, nil
}

// ChildAt returns the i-th child of id without copying the child list. ok is false once i is past the last child.
func (t *Tree[P]) ChildAt(id NodeID, i int) (child NodeID, ok bool) {
	if !t.contains(id) {
		return NoNode, false
	}
	children := t.nodes[id].children
	if i < 0 || i >= len(children) {
		return NoNode, false
	}
	return children[i], true
}

// Payload returns the payload stored at id.
func (t *Tree[P]) Payload(id NodeID) (P, error) {
	n, err := t.lookup(id)
	if err != nil {
		var zero P
		return zero, err
	}
	return n.payload, nil
}

// Depth returns the number of edges between id and the root.
func (t *Tree[P]) Depth(id NodeID) (int, error) {
	n, err := t.lookup(id)
	if err != nil {
		return 0, err
	}
	return n.depth, nil
}

// Width returns the number of nodes in the subtree rooted at id, including id.
func (t *Tree[P]) Width(id NodeID) (int, error) {
	n, err := t.lookup(id)
	if err != nil {
		return 0, err
	}
	return n.width, nil
}

// MaxDepth returns the depth of the deepest node.
func (t *Tree[P]) MaxDepth() int {
	return t.maxDepth
}

// IsLeaf reports whether id has no children. Unknown identifiers are not leaves.
func (t *Tree[P]) IsLeaf(id NodeID) bool {
	return t.contains(id) && len(t.nodes[id].children) == 0
}

// Ancestors returns the parent chain of id, nearest first, ending at the root.
func (t *Tree[P]) Ancestors(id NodeID) ([]NodeID, error) {
	n, err := t.lookup(id)
	if err != nil {
		return nil, err
	}
	out := make([]NodeID, 0, n.depth)
	for p := n.parent; p != NoNode; p = t.nodes[p].parent {
		out = append(out, p)
	}
	return out, nil
}

// IsAncestor reports whether ancestor lies on the path from id to the root. A node is its own ancestor.
func (t *Tree[P]) IsAncestor(ancestor, id NodeID) bool {
	if !t.contains(ancestor) || !t.contains(id) {
		return false
	}
	for p := id; p != NoNode; p = t.nodes[p].parent {
		if p == ancestor {
			return true
		}
		if t.nodes[p].depth <= t.nodes[ancestor].depth {
			return false
		}
	}
	return false
}

// DepthFirst walks the subtree rooted at from in pre-order, visiting children in insertion order.
// The walk keeps one cursor per level, so its state is proportional to the depth of the tree.
func (t *Tree[P]) DepthFirst(from NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		if !t.contains(from) {
			return
		}
		if !yield(from) {
			return
		}
		type cursor struct {
			id   NodeID
			next int
		}
		stack := make([]cursor, 0, t.maxDepth+1)
		stack = append(stack, cursor{id: from})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			child, ok := t.ChildAt(top.id, top.next)
			if !ok {
				stack = stack[:len(stack)-1]
				continue
			}
			top.next++
			if !yield(child) {
				return
			}
			stack = append(stack, cursor{id: child})
		}
	}
}

// BreadthFirst walks the subtree rooted at from level by level.
func (t *Tree[P]) BreadthFirst(from NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		if !t.contains(from) {
			return
		}
		pending := queue.New()
		pending.Add(from)
		for pending.Length() > 0 {
			id := pending.Remove().(NodeID)
			if !yield(id) {
				return
			}
			for _, child := range t.nodes[id].children {
				pending.Add(child)
			}
		}
	}
}

// Validate re-derives every structural invariant and returns all violations. A tree built only through
// AddRoot and AddChild always validates; a failure means the arena was corrupted.
func (t *Tree[P]) Validate() error {
	var errAll error
	if len(t.nodes) == 0 {
		return nil
	}
	if t.nodes[0].parent != NoNode {
		multierr.AppendInto(&errAll, errors.New("node 0 is not the root"))
	}
	childCount := 0
	for i := range t.nodes {
		id := NodeID(i)
		n := &t.nodes[i]
		childCount += len(n.children)
		if id == 0 {
			continue
		}
		switch {
		case n.parent == NoNode:
			multierr.AppendInto(&errAll, errors.Errorf("node %d is a second root", id))
			continue
		case !t.contains(n.parent):
			multierr.AppendInto(&errAll, errors.Errorf("node %d has unknown parent %d", id, n.parent))
			continue
		case n.parent >= id:
			// parents are always inserted before their children, so this also rules out cycles
			multierr.AppendInto(&errAll, errors.Errorf("node %d has parent %d added after it", id, n.parent))
		}
		parent := &t.nodes[n.parent]
		if n.depth != parent.depth+1 {
			multierr.AppendInto(&errAll, errors.Errorf("node %d has depth %d, parent has %d", id, n.depth, parent.depth))
		}
		found := 0
		for _, c := range parent.children {
			if c == id {
				found++
			}
		}
		if found != 1 {
			multierr.AppendInto(&errAll, errors.Errorf("node %d listed %d times among the children of %d", id, found, n.parent))
		}
	}
	if childCount != len(t.nodes)-1 {
		multierr.AppendInto(&errAll, errors.Errorf("%d child links for %d nodes", childCount, len(t.nodes)))
	}
	for i := len(t.nodes) - 1; i >= 0; i-- {
		width := 1
		for _, c := range t.nodes[i].children {
			if t.contains(c) {
				width += t.nodes[c].width
			}
		}
		if width != t.nodes[i].width {
			multierr.AppendInto(&errAll, errors.Errorf("node %d has width %d, expected %d", i, t.nodes[i].width, width))
		}
	}
	return errAll
}
