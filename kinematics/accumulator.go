package kinematics

import (
	"iter"

	"github.com/eapache/queue"
	"github.com/pkg/errors"

	"go.viam.com/kinetree/arena"
	"go.viam.com/kinetree/referenceframe"
	spatial "go.viam.com/kinetree/spatialmath"
	"go.viam.com/kinetree/utils"
)

// frame is a depth first stack entry: a visited node, its world pose and the next child to descend into.
type frame[T any] struct {
	id    arena.NodeID
	pose  T
	depth int
	next  int
}

// pending is a breadth first queue entry: a node waiting to be visited and the pose of its parent.
type pending[T any] struct {
	id         arena.NodeID
	parentPose T
	depth      int
}

// Accumulator walks a skeleton parents first and yields the world pose of every node, composed from its
// parent's already accumulated pose and its own local transformation. Ancestor chains are never walked
// again. It is lazy and single pass; Reset starts a new pass over the same parameters.
//
//	acc := NewAccumulator(skel, params)
//	for acc.Next() {
//		fmt.Println(acc.ID(), acc.Pose())
//	}
//	if err := acc.Err(); err != nil {
//		...
//	}
//
// The skeleton is read locked only for the duration of each Next call. Bones must not be added while a pass
// is in progress: the next call to Next then fails with ErrSkeletonModified. Evaluate holds the lock for
// a whole pass instead.
type Accumulator[T spatial.Transformation[T]] struct {
	skel   *Skeleton[T]
	params Assignment
	opts   options
	world  T
	// locked is set when the caller already holds the skeleton's read lock for the whole pass.
	locked bool

	started bool
	done    bool
	err     error
	// errDepth is the depth of the node whose evaluation failed.
	errDepth int

	// root is the node the pass started at and size the number of bones when it did.
	root arena.NodeID
	size int

	id    arena.NodeID
	pose  T
	depth int

	stack []frame[T]
	queue *queue.Queue
}

// ErrSkeletonModified is reported by an Accumulator whose skeleton gained bones during a pass.
var ErrSkeletonModified = errors.New("skeleton modified during evaluation")

// NewAccumulator returns an accumulator over skel for the given parameters.
func NewAccumulator[T spatial.Transformation[T]](skel *Skeleton[T], params Assignment, opts ...Option) *Accumulator[T] {
	return newAccumulator(skel, params, newOptions(opts), false)
}

func newAccumulator[T spatial.Transformation[T]](skel *Skeleton[T], params Assignment, opts options, locked bool) *Accumulator[T] {
	a := &Accumulator[T]{skel: skel, params: params, opts: opts, locked: locked, world: skel.backend.Identity()}
	if opts.world != nil {
		world, ok := opts.world.(T)
		if !ok {
			a.err = errors.Wrap(utils.NewUnexpectedTypeError(a.world, opts.world), "world pose does not match skeleton transformation")
			a.done = true
		}
		a.world = world
	}
	a.id = arena.NoNode
	a.root = arena.NoNode
	return a
}

// Reset rewinds the accumulator so the next call to Next starts a new pass from the root.
func (a *Accumulator[T]) Reset() {
	var zero T
	keepErr := a.err != nil && !a.started
	a.started = false
	a.done = keepErr
	if !keepErr {
		a.err = nil
	}
	a.id = arena.NoNode
	a.root = arena.NoNode
	a.pose = zero
	a.depth = 0
	a.stack = a.stack[:0]
	a.queue = nil
}

// Next advances to the next node. It returns false when every node has been visited or an error occurred.
func (a *Accumulator[T]) Next() bool {
	if a.done {
		return false
	}
	if !a.locked {
		a.skel.mu.RLock()
		defer a.skel.mu.RUnlock()
	}
	if a.started && a.skel.tree.Len() != a.size {
		a.err = errors.Wrapf(ErrSkeletonModified, "%d bones added during the pass", a.skel.tree.Len()-a.size)
		a.done = true
		var zero T
		a.id, a.pose = arena.NoNode, zero
		return false
	}
	var ok bool
	if a.opts.order == BreadthFirst {
		ok = a.nextBreadthFirst()
	} else {
		ok = a.nextDepthFirst()
	}
	if !ok {
		a.done = true
		var zero T
		a.id, a.pose = arena.NoNode, zero
	}
	return ok
}

// start returns the node the pass begins at and its depth.
func (a *Accumulator[T]) start() (arena.NodeID, int, bool) {
	a.started = true
	root := a.opts.root
	if root == arena.NoNode {
		var err error
		if root, err = a.skel.tree.Root(); err != nil {
			// an empty skeleton has no poses
			return arena.NoNode, 0, false
		}
	}
	depth, err := a.skel.tree.Depth(root)
	if err != nil {
		a.err = err
		return arena.NoNode, 0, false
	}
	a.root = root
	a.size = a.skel.tree.Len()
	return root, depth, true
}

func (a *Accumulator[T]) nextDepthFirst() bool {
	if !a.started {
		root, depth, ok := a.start()
		if !ok {
			return false
		}
		return a.visit(root, a.world, depth)
	}
	for len(a.stack) > 0 {
		top := &a.stack[len(a.stack)-1]
		child, ok := a.skel.tree.ChildAt(top.id, top.next)
		if !ok {
			a.stack = a.stack[:len(a.stack)-1]
			continue
		}
		top.next++
		return a.visit(child, top.pose, top.depth+1)
	}
	return false
}

func (a *Accumulator[T]) nextBreadthFirst() bool {
	if !a.started {
		root, depth, ok := a.start()
		if !ok {
			return false
		}
		a.queue = queue.New()
		a.queue.Add(pending[T]{id: root, parentPose: a.world, depth: depth})
	}
	if a.queue.Length() == 0 {
		return false
	}
	item := a.queue.Remove().(pending[T])
	return a.visit(item.id, item.parentPose, item.depth)
}

// visit computes the pose of id from its parent's pose and makes it current.
func (a *Accumulator[T]) visit(id arena.NodeID, parentPose T, depth int) bool {
	local, err := localTransformation(a.skel, id, a.params)
	if err != nil {
		a.err = err
		a.errDepth = depth
		return false
	}
	a.id = id
	a.pose = parentPose.Compose(local)
	a.depth = depth
	if a.opts.order == BreadthFirst {
		for i := 0; ; i++ {
			child, ok := a.skel.tree.ChildAt(id, i)
			if !ok {
				break
			}
			a.queue.Add(pending[T]{id: child, parentPose: a.pose, depth: depth + 1})
		}
	} else {
		a.stack = append(a.stack, frame[T]{id: id, pose: a.pose, depth: depth})
	}
	return true
}

// ID returns the current node.
func (a *Accumulator[T]) ID() arena.NodeID {
	return a.id
}

// Pose returns the world pose of the current node.
func (a *Accumulator[T]) Pose() T {
	return a.pose
}

// Depth returns the depth of the current node below the skeleton root.
func (a *Accumulator[T]) Depth() int {
	return a.depth
}

// Err returns the error that stopped the pass, if any.
func (a *Accumulator[T]) Err() error {
	return a.err
}

// All restarts the accumulator and yields every (node, world pose) pair. Check Err once the loop is done.
func (a *Accumulator[T]) All() iter.Seq2[arena.NodeID, T] {
	return func(yield func(arena.NodeID, T) bool) {
		a.Reset()
		for a.Next() {
			if !yield(a.id, a.pose) {
				return
			}
		}
	}
}

// localTransformation evaluates the bone at id with its parameter from params. The caller holds the skeleton's
// read lock.
func localTransformation[T spatial.Transformation[T]](skel *Skeleton[T], id arena.NodeID, params Assignment) (T, error) {
	var zero T
	bone, err := skel.tree.Payload(id)
	if err != nil {
		return zero, err
	}
	p, err := resolveParameter(bone, id, params)
	if err != nil {
		return zero, err
	}
	local, err := bone.LocalTransformation(p)
	if err != nil {
		if jErr, ok := referenceframe.AsJointError(err); ok {
			return zero, jErr.At(id, bone.Name())
		}
		return zero, errors.Wrapf(err, "bone %q (node %d)", bone.Name(), id)
	}
	return local, nil
}

// resolveParameter picks the parameter of a bone: the assigned one, else the joint default.
func resolveParameter[T spatial.Transformation[T]](
	bone referenceframe.Rigid[T], id arena.NodeID, params Assignment,
) (referenceframe.Parameter, error) {
	joint := bone.Joint()
	if !joint.RequiresParameter() {
		return joint.Neutral(), nil
	}
	if p, ok := params[id]; ok && p != nil {
		return p, nil
	}
	if def, ok := joint.Default(); ok {
		return def, nil
	}
	return nil, referenceframe.NewMissingParameterError().At(id, bone.Name())
}
