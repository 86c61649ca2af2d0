package ik

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/kinetree/arena"
	"go.viam.com/kinetree/kinematics"
	"go.viam.com/kinetree/referenceframe"
)

// Segment is a move from one assignment to another.
type Segment struct {
	StartConfiguration kinematics.Assignment
	EndConfiguration   kinematics.Assignment
}

// State holds the world positions of the effectors for a configuration.
type State struct {
	Points        map[arena.NodeID]r3.Vector
	Configuration kinematics.Assignment
}

// StateMetric are functions which, given a State, produces some score. Lower is better.
// The solver keeps the configuration with the lowest score.
type StateMetric func(*State) float64

// SegmentMetric are functions which produce some score given a Segment. Lower is better.
type SegmentMetric func(*Segment) float64

// NewZeroMetric always returns zero.
func NewZeroMetric() StateMetric {
	return func(*State) float64 { return 0 }
}

type combinableStateMetric struct {
	metrics []StateMetric
}

func (m *combinableStateMetric) combinedDist(input *State) float64 {
	dist := 0.
	for _, metric := range m.metrics {
		dist += metric(input)
	}
	return dist
}

// CombineMetrics will take a variable number of Metrics and return a new Metric which will combine all given metrics into one, summing
// their distances.
func CombineMetrics(metrics ...StateMetric) StateMetric {
	cm := &combinableStateMetric{metrics: metrics}
	return cm.combinedDist
}

// NewPositionOnlyMetric returns the sum of the squared distances between each effector and its target.
// Effectors missing from the state count as infinitely far away.
func NewPositionOnlyMetric(targets map[arena.NodeID]r3.Vector) StateMetric {
	return NewWeightedPositionMetric(targets, nil)
}

// NewWeightedPositionMetric is NewPositionOnlyMetric with a per effector weight on the squared distance.
// Effectors without a weight get 1.
func NewWeightedPositionMetric(targets map[arena.NodeID]r3.Vector, weights map[arena.NodeID]float64) StateMetric {
	return func(state *State) float64 {
		dist := 0.
		for id, goal := range targets {
			p, ok := state.Points[id]
			if !ok {
				return math.Inf(1)
			}
			w, ok := weights[id]
			if !ok {
				w = 1
			}
			dist += w * p.Sub(goal).Norm2()
		}
		return dist
	}
}

// JointMetric sums the absolute differences of every parameter component from start to end.
// A parameter missing on one side counts as its zero value.
func JointMetric(segment *Segment) float64 {
	jScore := 0.
	diff := func(a, b referenceframe.Parameter) {
		pa, pb := referenceframe.AsPair(a), referenceframe.AsPair(b)
		jScore += math.Abs(pa.U-pb.U) + math.Abs(pa.V-pb.V)
	}
	for id, start := range segment.StartConfiguration {
		diff(start, segment.EndConfiguration[id])
	}
	for id, end := range segment.EndConfiguration {
		if _, ok := segment.StartConfiguration[id]; !ok {
			diff(nil, end)
		}
	}
	return jScore
}
