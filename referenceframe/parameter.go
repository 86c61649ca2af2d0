package referenceframe

import "fmt"

// Component selects which half of a Pair a single-axis joint reads.
type Component int

// The two components of a Pair.
const (
	U Component = iota
	V
)

func (c Component) String() string {
	if c == V {
		return "v"
	}
	return "u"
}

// Parameter is the value a joint is evaluated at. It is either an independent Scalar or a coupled Pair
// shared by the nodes of a multi-parameter joint. No other implementations exist.
type Parameter interface {
	// Component returns one half of the parameter. A Scalar s reads as the pair (s, 0).
	Component(c Component) float64
	fmt.Stringer
	isParameter()
}

// Scalar is an independent one dimensional parameter: an angle in radians or a distance.
type Scalar float64

// Component returns s for U and 0 for V.
func (s Scalar) Component(c Component) float64 {
	if c == V {
		return 0
	}
	return float64(s)
}

func (s Scalar) String() string {
	return fmt.Sprintf("%g", float64(s))
}

func (Scalar) isParameter() {}

// Pair is a coupled parameter, e.g. the (u, v) coordinates on a spline patch.
type Pair struct {
	U, V float64
}

// Component returns the requested half of the pair.
func (p Pair) Component(c Component) float64 {
	if c == V {
		return p.V
	}
	return p.U
}

func (p Pair) String() string {
	return fmt.Sprintf("(%g, %g)", p.U, p.V)
}

func (Pair) isParameter() {}

// AsPair widens any parameter to a Pair.
func AsPair(p Parameter) Pair {
	switch p := p.(type) {
	case Pair:
		return p
	case Scalar:
		return Pair{U: float64(p)}
	default:
		return Pair{}
	}
}
