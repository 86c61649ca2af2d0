package ik

import (
	"context"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/kinetree/arena"
	"go.viam.com/kinetree/kinematics"
	"go.viam.com/kinetree/logging"
	"go.viam.com/kinetree/referenceframe"
)

func TestSqNormMetric(t *testing.T) {
	targets := map[arena.NodeID]r3.Vector{0: {}, 1: {Z: 10}}
	sqMet := NewPositionOnlyMetric(targets)

	d1 := sqMet(&State{Points: map[arena.NodeID]r3.Vector{0: {}, 1: {Z: 10}}})
	test.That(t, d1, test.ShouldAlmostEqual, 0)
	d2 := sqMet(&State{Points: map[arena.NodeID]r3.Vector{0: {}, 1: {}}})
	test.That(t, d2, test.ShouldAlmostEqual, 100)
	d3 := sqMet(&State{Points: map[arena.NodeID]r3.Vector{0: {}}})
	test.That(t, math.IsInf(d3, 1), test.ShouldBeTrue)

	weighted := NewWeightedPositionMetric(targets, map[arena.NodeID]float64{1: 0.5})
	test.That(t, weighted(&State{Points: map[arena.NodeID]r3.Vector{0: {X: 1}, 1: {}}}), test.ShouldAlmostEqual, 51)

	combined := CombineMetrics(sqMet, NewZeroMetric(), sqMet)
	test.That(t, combined(&State{Points: map[arena.NodeID]r3.Vector{0: {}, 1: {}}}), test.ShouldAlmostEqual, 200)
}

func TestJointMetric(t *testing.T) {
	seg := &Segment{
		StartConfiguration: kinematics.Assignment{0: referenceframe.Scalar(1), 1: referenceframe.Pair{U: 0.5, V: 0.5}},
		EndConfiguration:   kinematics.Assignment{0: referenceframe.Scalar(-1), 2: referenceframe.Scalar(3)},
	}
	// 2 for node 0, 1 for the dropped pair, 3 for the new scalar
	test.That(t, JointMetric(seg), test.ShouldAlmostEqual, 6)
	test.That(t, JointMetric(&Segment{}), test.ShouldEqual, 0.)
}

func TestSolveReportsJointDistance(t *testing.T) {
	skel, ids := planarArm(t)
	// a metric that ignores the targets still lets the solver converge
	solver, err := NewSolver(skel, logging.NewTestLogger(t), WithMetric(func(map[arena.NodeID]r3.Vector) StateMetric {
		return NewZeroMetric()
	}))
	test.That(t, err, test.ShouldBeNil)

	seed := kinematics.Assignment{ids["shoulder"]: referenceframe.Scalar(0), ids["elbow"]: referenceframe.Scalar(math.Pi / 2)}
	solution, info, err := solver.Solve(context.Background(), seed, map[arena.NodeID]r3.Vector{ids["tip"]: {X: 1, Y: 1}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Converged, test.ShouldBeTrue)
	test.That(t, info.Iterations, test.ShouldEqual, 0)
	test.That(t, info.SquaredError, test.ShouldEqual, 0.)
	test.That(t, info.JointDistance, test.ShouldAlmostEqual, 0)
	test.That(t, solution[ids["elbow"]], test.ShouldEqual, referenceframe.Scalar(math.Pi/2))
}
