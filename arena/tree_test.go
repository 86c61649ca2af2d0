package arena

import (
	"errors"
	"slices"
	"testing"

	"go.viam.com/test"
)

// buildTree returns
//
//	    0
//	  / | \
//	 1  2  3
//	/ \     \
//	4  5     6
//	         |
//	         7
func buildTree(t *testing.T) *Tree[string] {
	t.Helper()
	tree := New[string]()
	root, err := tree.AddRoot("root")
	test.That(t, err, test.ShouldBeNil)
	add := func(parent NodeID, name string) NodeID {
		id, err := tree.AddChild(parent, name)
		test.That(t, err, test.ShouldBeNil)
		return id
	}
	a := add(root, "a")
	add(root, "b")
	c := add(root, "c")
	add(a, "a0")
	add(a, "a1")
	c0 := add(c, "c0")
	add(c0, "c00")
	return tree
}

func TestAddRoot(t *testing.T) {
	tree := New[int]()
	_, err := tree.Root()
	test.That(t, errors.Is(err, ErrEmpty), test.ShouldBeTrue)

	id, err := tree.AddRoot(7)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, id, test.ShouldEqual, NodeID(0))
	test.That(t, tree.Len(), test.ShouldEqual, 1)

	_, err = tree.AddRoot(8)
	test.That(t, err, test.ShouldNotBeNil)
	var treeErr *TreeError
	test.That(t, errors.As(err, &treeErr), test.ShouldBeTrue)
	test.That(t, treeErr.Kind, test.ShouldEqual, NotEmpty)
	test.That(t, errors.Is(err, ErrNotEmpty), test.ShouldBeTrue)
	test.That(t, tree.Len(), test.ShouldEqual, 1)

	payload, err := tree.Payload(id)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, payload, test.ShouldEqual, 7)
}

func TestAddChild(t *testing.T) {
	tree := buildTree(t)
	test.That(t, tree.Len(), test.ShouldEqual, 8)

	children, err := tree.Children(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, children, test.ShouldResemble, []NodeID{1, 2, 3})

	// mutating the returned slice does not affect the tree
	children[0] = 99
	children, err = tree.Children(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, children, test.ShouldResemble, []NodeID{1, 2, 3})

	parent, ok, err := tree.Parent(7)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, parent, test.ShouldEqual, NodeID(6))

	_, ok, err = tree.Parent(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)

	depth, err := tree.Depth(7)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, depth, test.ShouldEqual, 3)
	test.That(t, tree.MaxDepth(), test.ShouldEqual, 3)

	for id, expected := range map[NodeID]int{0: 8, 1: 3, 2: 1, 3: 3, 6: 2, 7: 1} {
		width, err := tree.Width(id)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, width, test.ShouldEqual, expected)
	}
	test.That(t, tree.IsLeaf(2), test.ShouldBeTrue)
	test.That(t, tree.IsLeaf(3), test.ShouldBeFalse)
	test.That(t, tree.IsLeaf(100), test.ShouldBeFalse)
}

func TestUnknownIdentifiers(t *testing.T) {
	tree := buildTree(t)

	_, err := tree.AddChild(42, "orphan")
	test.That(t, errors.Is(err, ErrUnknownParent), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "42")
	test.That(t, tree.Len(), test.ShouldEqual, 8)

	_, err = New[string]().AddChild(0, "orphan")
	test.That(t, errors.Is(err, ErrUnknownParent), test.ShouldBeTrue)

	for _, id := range []NodeID{-1, 8, 100} {
		_, _, err = tree.Parent(id)
		test.That(t, errors.Is(err, ErrUnknownNode), test.ShouldBeTrue)
		_, err = tree.Children(id)
		test.That(t, errors.Is(err, ErrUnknownNode), test.ShouldBeTrue)
		_, err = tree.Payload(id)
		test.That(t, errors.Is(err, ErrUnknownNode), test.ShouldBeTrue)
		_, err = tree.Depth(id)
		test.That(t, errors.Is(err, ErrUnknownNode), test.ShouldBeTrue)
		_, err = tree.Ancestors(id)
		test.That(t, errors.Is(err, ErrUnknownNode), test.ShouldBeTrue)
	}
}

func TestWalks(t *testing.T) {
	tree := buildTree(t)

	t.Run("depth first", func(t *testing.T) {
		test.That(t, slices.Collect(tree.DepthFirst(0)), test.ShouldResemble, []NodeID{0, 1, 4, 5, 2, 3, 6, 7})
		test.That(t, slices.Collect(tree.DepthFirst(3)), test.ShouldResemble, []NodeID{3, 6, 7})
		test.That(t, slices.Collect(tree.DepthFirst(2)), test.ShouldResemble, []NodeID{2})
		test.That(t, slices.Collect(tree.DepthFirst(50)), test.ShouldBeEmpty)
	})

	t.Run("breadth first", func(t *testing.T) {
		test.That(t, slices.Collect(tree.BreadthFirst(0)), test.ShouldResemble, []NodeID{0, 1, 2, 3, 4, 5, 6, 7})
		test.That(t, slices.Collect(tree.BreadthFirst(1)), test.ShouldResemble, []NodeID{1, 4, 5})
	})

	t.Run("early stop", func(t *testing.T) {
		var seen []NodeID
		for id := range tree.DepthFirst(0) {
			seen = append(seen, id)
			if id == 5 {
				break
			}
		}
		test.That(t, seen, test.ShouldResemble, []NodeID{0, 1, 4, 5})
	})

	t.Run("subtree width matches walk", func(t *testing.T) {
		for id := range tree.DepthFirst(0) {
			width, err := tree.Width(id)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, len(slices.Collect(tree.DepthFirst(id))), test.ShouldEqual, width)
		}
	})
}

func TestAncestors(t *testing.T) {
	tree := buildTree(t)
	ancestors, err := tree.Ancestors(7)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ancestors, test.ShouldResemble, []NodeID{6, 3, 0})

	ancestors, err = tree.Ancestors(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ancestors, test.ShouldBeEmpty)

	test.That(t, tree.IsAncestor(3, 7), test.ShouldBeTrue)
	test.That(t, tree.IsAncestor(7, 7), test.ShouldBeTrue)
	test.That(t, tree.IsAncestor(1, 7), test.ShouldBeFalse)
	test.That(t, tree.IsAncestor(7, 3), test.ShouldBeFalse)
}

// TestStructuralInvariant checks that after any sequence of successful insertions every node reaches the
// root by a finite parent chain, and that a node is the child of its parent exactly once.
func TestStructuralInvariant(t *testing.T) {
	tree := New[int]()
	_, err := tree.AddRoot(0)
	test.That(t, err, test.ShouldBeNil)

	// a deterministic but irregular shape, including some rejected insertions
	for i := 1; i < 200; i++ {
		parent := NodeID((i * 7919) % (i + 3))
		id, err := tree.AddChild(parent, i)
		if int(parent) >= tree.Len() {
			test.That(t, errors.Is(err, ErrUnknownParent), test.ShouldBeTrue)
			continue
		}
		test.That(t, err, test.ShouldBeNil)
		test.That(t, tree.Contains(id), test.ShouldBeTrue)
	}
	test.That(t, tree.Validate(), test.ShouldBeNil)

	for i := 0; i < tree.Len(); i++ {
		id := NodeID(i)
		ancestors, err := tree.Ancestors(id)
		test.That(t, err, test.ShouldBeNil)
		depth, err := tree.Depth(id)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(ancestors), test.ShouldEqual, depth)
		if id == 0 {
			continue
		}
		test.That(t, ancestors[len(ancestors)-1], test.ShouldEqual, NodeID(0))

		parent, ok, err := tree.Parent(id)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeTrue)
		siblings, err := tree.Children(parent)
		test.That(t, err, test.ShouldBeNil)
		count := 0
		for _, s := range siblings {
			if s == id {
				count++
			}
		}
		test.That(t, count, test.ShouldEqual, 1)
	}
	test.That(t, len(slices.Collect(tree.DepthFirst(0))), test.ShouldEqual, tree.Len())
	test.That(t, len(slices.Collect(tree.BreadthFirst(0))), test.ShouldEqual, tree.Len())
}

func TestValidateCorruption(t *testing.T) {
	tree := buildTree(t)
	test.That(t, tree.Validate(), test.ShouldBeNil)

	tree.nodes[7].parent = 2
	tree.nodes[4].depth = 9
	err := tree.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "node 7 listed 0 times")
	test.That(t, err.Error(), test.ShouldContainSubstring, "node 4 has depth 9")

	test.That(t, New[int]().Validate(), test.ShouldBeNil)
}
