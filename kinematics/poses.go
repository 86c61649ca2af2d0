package kinematics

import (
	"iter"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/kinetree/arena"
	spatial "go.viam.com/kinetree/spatialmath"
)

// Poses is the result of a forward kinematics evaluation: the world pose of every evaluated node.
// Slots are indexed by node, so concurrent workers filling disjoint subtrees never contend.
type Poses[T spatial.Transformation[T]] struct {
	names []string
	poses []T
	set   []bool
}

func newPoses[T spatial.Transformation[T]](skel *Skeleton[T]) *Poses[T] {
	n := skel.tree.Len()
	names := make([]string, n)
	for i := range names {
		bone, _ := skel.tree.Payload(arena.NodeID(i))
		names[i] = bone.Name()
	}
	return &Poses[T]{names: names, poses: make([]T, n), set: make([]bool, n)}
}

func (p *Poses[T]) put(id arena.NodeID, pose T) {
	p.poses[id] = pose
	p.set[id] = true
}

// Get returns the world pose of id.
func (p *Poses[T]) Get(id arena.NodeID) (T, bool) {
	if id < 0 || int(id) >= len(p.poses) || !p.set[id] {
		var zero T
		return zero, false
	}
	return p.poses[id], true
}

// ByName returns the world pose of the bone with the given name.
func (p *Poses[T]) ByName(name string) (T, bool) {
	for i, n := range p.names {
		if n == name {
			return p.Get(arena.NodeID(i))
		}
	}
	var zero T
	return zero, false
}

// Len returns the number of evaluated nodes.
func (p *Poses[T]) Len() int {
	n := 0
	for _, ok := range p.set {
		if ok {
			n++
		}
	}
	return n
}

// All yields the evaluated nodes and their poses ordered by node.
func (p *Poses[T]) All() iter.Seq2[arena.NodeID, T] {
	return func(yield func(arena.NodeID, T) bool) {
		for i, ok := range p.set {
			if ok && !yield(arena.NodeID(i), p.poses[i]) {
				return
			}
		}
	}
}

// Map returns the poses as a map.
func (p *Poses[T]) Map() map[arena.NodeID]T {
	out := make(map[arena.NodeID]T, len(p.poses))
	for id, pose := range p.All() {
		out[id] = pose
	}
	return out
}

// Point returns the world position of id.
func (p *Poses[T]) Point(id arena.NodeID) (r3.Vector, bool) {
	pose, ok := p.Get(id)
	if !ok {
		return r3.Vector{}, false
	}
	return spatial.Point(pose), true
}

// Relative returns the pose of to expressed in the frame of from, i.e. from⁻¹∘to.
func (p *Poses[T]) Relative(from, to arena.NodeID) (T, error) {
	var zero T
	a, ok := p.Get(from)
	if !ok {
		return zero, errors.Errorf("no pose for node %d", from)
	}
	b, ok := p.Get(to)
	if !ok {
		return zero, errors.Errorf("no pose for node %d", to)
	}
	return a.Inverse().Compose(b), nil
}

// Globalize maps a point given in the local frame of pose to world coordinates.
func Globalize[T spatial.Transformation[T]](pose T, local r3.Vector) r3.Vector {
	return pose.Transform(local)
}

// Localize maps a world point into the local frame of pose.
func Localize[T spatial.Transformation[T]](pose T, world r3.Vector) r3.Vector {
	return pose.Inverse().Transform(world)
}

// PosesAlmostEqual reports whether a and b hold the same nodes with poses within epsilon of each other.
func PosesAlmostEqual[T spatial.Transformation[T]](a, b *Poses[T], epsilon float64) bool {
	if len(a.set) != len(b.set) {
		return false
	}
	for i := range a.set {
		if a.set[i] != b.set[i] {
			return false
		}
		if a.set[i] && !spatial.TransformationAlmostEqual(a.poses[i], b.poses[i], epsilon) {
			return false
		}
	}
	return true
}
