package referenceframe

import (
	"fmt"
	"math"

	"go.viam.com/kinetree/utils"
)

// Limit represents the limits of motion for a joint.
type Limit struct {
	Min float64
	Max float64
}

// Unbounded is the limit of a joint which accepts any finite value, e.g. a continuous revolute joint.
func Unbounded() Limit {
	return Limit{Min: math.Inf(-1), Max: math.Inf(1)}
}

// Contains reports whether v lies in [Min, Max]. NaN and infinities are never contained.
func (l Limit) Contains(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= l.Min && v <= l.Max
}

// Clamp returns the value of [Min, Max] closest to v.
func (l Limit) Clamp(v float64) float64 {
	return math.Max(l.Min, math.Min(l.Max, v))
}

// IsUnbounded reports whether the limit accepts every finite value.
func (l Limit) IsUnbounded() bool {
	return math.IsInf(l.Min, -1) && math.IsInf(l.Max, 1)
}

func (l Limit) String() string {
	return fmt.Sprintf("[%g, %g]", l.Min, l.Max)
}

func (l Limit) valid() error {
	if math.IsNaN(l.Min) || math.IsNaN(l.Max) || l.Min > l.Max {
		return fmt.Errorf("invalid limit %v", l)
	}
	return nil
}

func limitsAlmostEqual(a, b []Limit) bool {
	if len(a) != len(b) {
		return false
	}

	const epsilon = 1e-5
	for idx, x := range a {
		if !utils.Float64AlmostEqual(x.Min, b[idx].Min, epsilon) ||
			!utils.Float64AlmostEqual(x.Max, b[idx].Max, epsilon) {
			return false
		}
	}

	return true
}
