package kinematics

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"go.viam.com/kinetree/arena"
	spatial "go.viam.com/kinetree/spatialmath"
	"go.viam.com/kinetree/utils"
)

// Evaluate computes the world pose of every node of skel, or of the subtree selected with WithRoot.
// Evaluation is all or nothing: on any error, including cancellation of ctx, no poses are returned.
func Evaluate[T spatial.Transformation[T]](
	ctx context.Context, skel *Skeleton[T], params Assignment, opts ...Option,
) (*Poses[T], error) {
	skel.mu.RLock()
	defer skel.mu.RUnlock()
	start := time.Now()

	poses := newPoses(skel)
	acc := newAccumulator(skel, params, newOptions(opts), true)
	if err := drain(ctx, acc, poses); err != nil {
		return nil, err
	}
	skel.logger.CDebugf(ctx, "evaluated %d bones of %q in %v", poses.Len(), skel.name, time.Since(start))
	return poses, nil
}

// drain runs acc to completion into poses, checking ctx between node visits.
func drain[T spatial.Transformation[T]](ctx context.Context, acc *Accumulator[T], poses *Poses[T]) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !acc.Next() {
			return acc.Err()
		}
		poses.put(acc.ID(), acc.Pose())
	}
}

// ErrIncompleteEvaluation is returned by EvaluateParallel when its executor reports success without having
// run every task.
var ErrIncompleteEvaluation = errors.New("incomplete evaluation")

// Executor runs a set of independent tasks and waits for them. The first failure may cancel the context
// given to the others.
type Executor interface {
	Run(ctx context.Context, tasks []utils.SimpleFunc) error
}

var (
	_ Executor = utils.ParallelExecutor{}
	_ Executor = utils.PoolExecutor{}
	_ Executor = (*BoundedExecutor)(nil)
)

// BoundedExecutor runs tasks on an errgroup with at most Limit of them in flight.
type BoundedExecutor struct {
	Limit int
}

// NewBoundedExecutor returns an executor running at most limit tasks at once; utils.ParallelFactor if limit is not positive.
func NewBoundedExecutor(limit int) *BoundedExecutor {
	if limit <= 0 {
		limit = utils.ParallelFactor
	}
	return &BoundedExecutor{Limit: limit}
}

// Run runs the tasks and returns the first error.
func (e *BoundedExecutor) Run(ctx context.Context, tasks []utils.SimpleFunc) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Limit)
	for _, task := range tasks {
		g.Go(func() error {
			return task(ctx)
		})
	}
	return g.Wait()
}

// EvaluateParallel computes the same poses as Evaluate, splitting the tree into subtrees evaluated by
// executor. The chain from the root down to the first node with several children is evaluated first;
// every subtree below that node then becomes one task starting from the node's pose. Tasks share no
// mutable state and write into disjoint slots of the result. A nil executor evaluates sequentially.
//
// On failure the error is the one Evaluate would have returned for the same traversal order, no matter
// how the tasks were scheduled.
func EvaluateParallel[T spatial.Transformation[T]](
	ctx context.Context, skel *Skeleton[T], params Assignment, executor Executor, opts ...Option,
) (*Poses[T], error) {
	if executor == nil {
		return Evaluate(ctx, skel, params, opts...)
	}
	skel.mu.RLock()
	defer skel.mu.RUnlock()
	start := time.Now()

	o := newOptions(opts)
	poses := newPoses(skel)

	// the spine is run through an accumulator restricted to it, so the world pose is handled the same way
	spine := newAccumulator(skel, params, o, true)
	var (
		fork     = arena.NoNode
		forkPose T
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !spine.Next() {
			if err := spine.Err(); err != nil {
				return nil, err
			}
			break
		}
		id := spine.ID()
		poses.put(id, spine.Pose())
		if _, ok := skel.tree.ChildAt(id, 1); ok {
			fork, forkPose = id, spine.Pose()
			break
		}
	}
	if fork == arena.NoNode {
		// a chain, nothing to split
		return poses, nil
	}

	children, err := skel.tree.Children(fork)
	if err != nil {
		return nil, err
	}
	failures := make([]*taskFailure, len(children))
	tasks := make([]utils.SimpleFunc, len(children))
	for i, child := range children {
		taskOpts := o
		taskOpts.root = child
		taskOpts.world = forkPose
		tasks[i] = func(ctx context.Context) error {
			acc := newAccumulator(skel, params, taskOpts, true)
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				if !acc.Next() {
					break
				}
				poses.put(acc.ID(), acc.Pose())
			}
			if err := acc.Err(); err != nil {
				// recorded rather than returned so one failure does not cut the others short
				failures[i] = &taskFailure{err: err, depth: acc.errDepth}
			}
			return nil
		}
	}
	if err := executor.Run(ctx, tasks); err != nil {
		return nil, errors.Wrap(err, "parallel evaluation")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := firstFailure(failures, o.order); err != nil {
		return nil, err
	}
	// the executor is trusted to run every task, but a skipped task must not pass for a complete result
	want, err := skel.tree.Width(spine.root)
	if err != nil {
		return nil, err
	}
	if got := poses.Len(); got != want {
		return nil, errors.Wrapf(ErrIncompleteEvaluation, "executor left %d of %d bones unevaluated", want-got, want)
	}
	skel.logger.CDebugf(ctx, "evaluated %d bones of %q in %d tasks in %v", poses.Len(), skel.name, len(tasks), time.Since(start))
	return poses, nil
}

type taskFailure struct {
	err   error
	depth int
}

// firstFailure picks the failure sequential evaluation would hit first. Depth first visits subtrees one after
// another in child order. Breadth first visits level by level, left to right.
func firstFailure(failures []*taskFailure, order Order) error {
	var first *taskFailure
	for _, f := range failures {
		if f == nil {
			continue
		}
		if first == nil || (order == BreadthFirst && f.depth < first.depth) {
			first = f
		}
	}
	if first == nil {
		return nil
	}
	return first.err
}
