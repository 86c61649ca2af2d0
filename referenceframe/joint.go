package referenceframe

import (
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	spatial "go.viam.com/kinetree/spatialmath"
)

// JointKind names a type of joint.
type JointKind int

// The supported joint types.
const (
	FixedJoint JointKind = iota
	RevoluteJoint
	PrismaticJoint
	UniversalJoint
	Spline2DJoint
)

var jointKindNames = map[JointKind]string{
	FixedJoint:     "fixed",
	RevoluteJoint:  "revolute",
	PrismaticJoint: "prismatic",
	UniversalJoint: "universal",
	Spline2DJoint:  "spline2d",
}

func (k JointKind) String() string {
	if name, ok := jointKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("JointKind(%d)", int(k))
}

// ParseJointKind parses the name of a joint type, ignoring case.
func ParseJointKind(name string) (JointKind, error) {
	for k, n := range jointKindNames {
		if strings.EqualFold(n, name) {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown joint type %q", name)
}

// Joint maps a parameter to the local transformation of a joint frame.
type Joint[T spatial.Transformation[T]] interface {
	Kind() JointKind

	// Transform returns the transformation of the joint at p. It is pure and safe for concurrent use.
	Transform(p Parameter) (T, error)

	// Default returns the parameter used when an evaluation supplies none, if the joint declares one.
	Default() (Parameter, bool)

	// Neutral returns the parameter at which the joint transformation is the identity.
	Neutral() Parameter

	// Limits returns one limit per component the joint reads. Fixed joints return none.
	Limits() []Limit

	// RequiresParameter reports whether evaluation reads a parameter for this joint at all.
	RequiresParameter() bool
}

// JointOption configures a joint.
type JointOption func(*jointOptions)

type jointOptions struct {
	limit      Limit
	def        Parameter
	component  Component
	hasDefault bool
}

func newJointOptions(opts []JointOption) jointOptions {
	o := jointOptions{limit: Unbounded(), component: U}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLimit bounds the values a single-axis joint accepts.
func WithLimit(l Limit) JointOption {
	return func(o *jointOptions) {
		o.limit = l
	}
}

// WithDefault declares the parameter used when an evaluation omits this joint.
func WithDefault(p Parameter) JointOption {
	return func(o *jointOptions) {
		o.def = p
		o.hasDefault = p != nil
	}
}

// WithComponent selects which half of a Pair a single-axis joint reads.
func WithComponent(c Component) JointOption {
	return func(o *jointOptions) {
		o.component = c
	}
}

// value extracts the scalar a single-axis joint is driven by and checks it against the limit.
func (o *jointOptions) value(p Parameter) (float64, error) {
	var v float64
	switch p := p.(type) {
	case Scalar:
		v = float64(p)
	case Pair:
		v = p.Component(o.component)
	default:
		return 0, NewKindMismatchError(p)
	}
	if !o.limit.Contains(v) {
		return 0, NewOutOfDomainError(p, o.limit)
	}
	return v, nil
}

func (o *jointOptions) validate(kind JointKind) error {
	if err := o.limit.valid(); err != nil {
		return errors.Wrapf(err, "%s joint", kind)
	}
	if o.hasDefault {
		if _, err := o.value(o.def); err != nil {
			return errors.Wrapf(err, "%s joint default", kind)
		}
	}
	return nil
}

func (o *jointOptions) defaultParameter() (Parameter, bool) {
	return o.def, o.hasDefault
}

// Fixed is a joint without degrees of freedom. Its transformation is always the identity.
type Fixed[T spatial.Transformation[T]] struct {
	identity T
}

// NewFixed returns a fixed joint.
func NewFixed[T spatial.Transformation[T]](backend spatial.Backend[T]) *Fixed[T] {
	return &Fixed[T]{identity: backend.Identity()}
}

// Kind returns FixedJoint.
func (j *Fixed[T]) Kind() JointKind { return FixedJoint }

// Transform returns the identity and ignores p.
func (j *Fixed[T]) Transform(Parameter) (T, error) { return j.identity, nil }

// Default returns a zero scalar; a fixed joint never needs a parameter.
func (j *Fixed[T]) Default() (Parameter, bool) { return Scalar(0), true }

// Neutral returns a zero scalar.
func (j *Fixed[T]) Neutral() Parameter { return Scalar(0) }

// Limits returns nil.
func (j *Fixed[T]) Limits() []Limit { return nil }

// RequiresParameter returns false.
func (j *Fixed[T]) RequiresParameter() bool { return false }

// Revolute rotates about a fixed unit axis by an angle in radians. Without a limit any finite angle is
// accepted and interpreted modulo a full turn.
type Revolute[T spatial.Transformation[T]] struct {
	backend spatial.Backend[T]
	axis    r3.Vector
	opts    jointOptions
}

// NewRevolute returns a revolute joint about axis, which is normalized.
func NewRevolute[T spatial.Transformation[T]](backend spatial.Backend[T], axis r3.Vector, opts ...JointOption) (*Revolute[T], error) {
	if spatial.R3VectorAlmostEqual(r3.Vector{}, axis, 1e-8) {
		return nil, NewZeroAxisError(RevoluteJoint)
	}
	o := newJointOptions(opts)
	if err := o.validate(RevoluteJoint); err != nil {
		return nil, err
	}
	return &Revolute[T]{backend: backend, axis: axis.Normalize(), opts: o}, nil
}

// Kind returns RevoluteJoint.
func (j *Revolute[T]) Kind() JointKind { return RevoluteJoint }

// Axis returns the unit rotation axis.
func (j *Revolute[T]) Axis() r3.Vector { return j.axis }

// Component returns the half of a Pair the joint reads.
func (j *Revolute[T]) Component() Component { return j.opts.component }

// Transform returns the rotation by p about the axis.
func (j *Revolute[T]) Transform(p Parameter) (T, error) {
	theta, err := j.opts.value(p)
	if err != nil {
		var zero T
		return zero, err
	}
	return j.backend.Rotation(j.axis, theta), nil
}

// Default returns the declared default angle.
func (j *Revolute[T]) Default() (Parameter, bool) { return j.opts.defaultParameter() }

// Neutral returns a zero angle.
func (j *Revolute[T]) Neutral() Parameter { return Scalar(0) }

// Limits returns the angle limit.
func (j *Revolute[T]) Limits() []Limit { return []Limit{j.opts.limit} }

// RequiresParameter returns true.
func (j *Revolute[T]) RequiresParameter() bool { return true }

// Prismatic translates along a fixed unit axis.
type Prismatic[T spatial.Transformation[T]] struct {
	backend spatial.Backend[T]
	axis    r3.Vector
	opts    jointOptions
}

// NewPrismatic returns a prismatic joint along axis, which is normalized.
func NewPrismatic[T spatial.Transformation[T]](backend spatial.Backend[T], axis r3.Vector, opts ...JointOption) (*Prismatic[T], error) {
	if spatial.R3VectorAlmostEqual(r3.Vector{}, axis, 1e-8) {
		return nil, NewZeroAxisError(PrismaticJoint)
	}
	o := newJointOptions(opts)
	if err := o.validate(PrismaticJoint); err != nil {
		return nil, err
	}
	return &Prismatic[T]{backend: backend, axis: axis.Normalize(), opts: o}, nil
}

// Kind returns PrismaticJoint.
func (j *Prismatic[T]) Kind() JointKind { return PrismaticJoint }

// Axis returns the unit translation axis.
func (j *Prismatic[T]) Axis() r3.Vector { return j.axis }

// Component returns the half of a Pair the joint reads.
func (j *Prismatic[T]) Component() Component { return j.opts.component }

// Transform returns the translation by p along the axis.
func (j *Prismatic[T]) Transform(p Parameter) (T, error) {
	d, err := j.opts.value(p)
	if err != nil {
		var zero T
		return zero, err
	}
	return j.backend.Translation(j.axis.Mul(d)), nil
}

// Default returns the declared default distance.
func (j *Prismatic[T]) Default() (Parameter, bool) { return j.opts.defaultParameter() }

// Neutral returns a zero distance.
func (j *Prismatic[T]) Neutral() Parameter { return Scalar(0) }

// Limits returns the distance limit.
func (j *Prismatic[T]) Limits() []Limit { return []Limit{j.opts.limit} }

// RequiresParameter returns true.
func (j *Prismatic[T]) RequiresParameter() bool { return true }

// Universal rotates about two axes in one joint: by U about the first axis, then by V about the second
// axis carried along by the first rotation. It is equivalent to two chained revolute joints reading the
// U and V components of the same Pair.
type Universal[T spatial.Transformation[T]] struct {
	backend spatial.Backend[T]
	axes    [2]r3.Vector
	limits  [2]Limit
	def     Parameter
}

// NewUniversal returns a two axis rotational joint. limits may be empty, in which case both angles are unbounded.
func NewUniversal[T spatial.Transformation[T]](
	backend spatial.Backend[T], first, second r3.Vector, limits []Limit, def Parameter,
) (*Universal[T], error) {
	j := &Universal[T]{backend: backend, limits: [2]Limit{Unbounded(), Unbounded()}, def: def}
	for i, axis := range []r3.Vector{first, second} {
		if spatial.R3VectorAlmostEqual(r3.Vector{}, axis, 1e-8) {
			return nil, NewZeroAxisError(UniversalJoint)
		}
		j.axes[i] = axis.Normalize()
	}
	switch len(limits) {
	case 0:
	case 2:
		for i, l := range limits {
			if err := l.valid(); err != nil {
				return nil, errors.Wrap(err, "universal joint")
			}
			j.limits[i] = l
		}
	default:
		return nil, errors.Errorf("universal joint needs 2 limits, got %d", len(limits))
	}
	if def != nil {
		if _, err := j.Transform(def); err != nil {
			return nil, errors.Wrap(err, "universal joint default")
		}
	}
	return j, nil
}

// Kind returns UniversalJoint.
func (j *Universal[T]) Kind() JointKind { return UniversalJoint }

// Transform returns the rotation by (u, v). A Scalar s is read as (s, 0).
func (j *Universal[T]) Transform(p Parameter) (T, error) {
	var zero T
	if p == nil {
		return zero, NewKindMismatchError(p)
	}
	pair := AsPair(p)
	for i, v := range []float64{pair.U, pair.V} {
		if !j.limits[i].Contains(v) {
			return zero, NewOutOfDomainError(p, j.limits[i])
		}
	}
	return j.backend.Rotation(j.axes[0], pair.U).Compose(j.backend.Rotation(j.axes[1], pair.V)), nil
}

// Default returns the declared default pair.
func (j *Universal[T]) Default() (Parameter, bool) { return j.def, j.def != nil }

// Neutral returns the zero pair.
func (j *Universal[T]) Neutral() Parameter { return Pair{} }

// Limits returns the limits of the U and V angles.
func (j *Universal[T]) Limits() []Limit { return []Limit{j.limits[0], j.limits[1]} }

// RequiresParameter returns true.
func (j *Universal[T]) RequiresParameter() bool { return true }

// Spline2D translates the joint frame across a bilinear patch spanned by four corner points, driven by a
// coupled parameter (u, v) in the unit square. The patch is anchored at its (0, 0) corner, so the neutral
// parameter gives the identity.
type Spline2D[T spatial.Transformation[T]] struct {
	backend spatial.Backend[T]
	// corners are ordered (0,0), (1,0), (0,1), (1,1).
	corners [4]r3.Vector
	def     Parameter
}

// NewSpline2D returns a spline joint over the given corners, ordered (0,0), (1,0), (0,1), (1,1).
func NewSpline2D[T spatial.Transformation[T]](backend spatial.Backend[T], corners [4]r3.Vector, def Parameter) (*Spline2D[T], error) {
	for _, c := range corners {
		if math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsNaN(c.Z) {
			return nil, errors.New("spline2d corner is not a number")
		}
	}
	j := &Spline2D[T]{backend: backend, corners: corners, def: def}
	if def != nil {
		if _, err := j.Transform(def); err != nil {
			return nil, errors.Wrap(err, "spline2d joint default")
		}
	}
	return j, nil
}

// Kind returns Spline2DJoint.
func (j *Spline2D[T]) Kind() JointKind { return Spline2DJoint }

// Point returns the position on the patch at (u, v) relative to the (0, 0) corner.
func (j *Spline2D[T]) Point(u, v float64) r3.Vector {
	c := j.corners
	p := c[0].Mul((1 - u) * (1 - v)).
		Add(c[1].Mul(u * (1 - v))).
		Add(c[2].Mul((1 - u) * v)).
		Add(c[3].Mul(u * v))
	return p.Sub(c[0])
}

// Transform returns the translation to the patch point at p. A Scalar s is read as (s, 0).
func (j *Spline2D[T]) Transform(p Parameter) (T, error) {
	var zero T
	if p == nil {
		return zero, NewKindMismatchError(p)
	}
	pair := AsPair(p)
	unit := Limit{Min: 0, Max: 1}
	if !unit.Contains(pair.U) || !unit.Contains(pair.V) {
		return zero, NewOutOfDomainError(p, unit)
	}
	return j.backend.Translation(j.Point(pair.U, pair.V)), nil
}

// Default returns the declared default pair.
func (j *Spline2D[T]) Default() (Parameter, bool) { return j.def, j.def != nil }

// Neutral returns the zero pair.
func (j *Spline2D[T]) Neutral() Parameter { return Pair{} }

// Limits returns the unit interval for both components.
func (j *Spline2D[T]) Limits() []Limit { return []Limit{{0, 1}, {0, 1}} }

// RequiresParameter returns true.
func (j *Spline2D[T]) RequiresParameter() bool { return true }

// JointsAlmostEqual compares two joints by kind, limits and their transformations at a few probe parameters.
func JointsAlmostEqual[T spatial.Transformation[T]](a, b Joint[T]) bool {
	if a.Kind() != b.Kind() || !limitsAlmostEqual(a.Limits(), b.Limits()) {
		return false
	}
	for _, p := range []Parameter{a.Neutral(), Scalar(0.25), Pair{U: 0.25, V: 0.75}} {
		ta, errA := a.Transform(p)
		tb, errB := b.Transform(p)
		if (errA == nil) != (errB == nil) {
			return false
		}
		if errA == nil && !spatial.TransformationAlmostEqual(ta, tb, 1e-8) {
			return false
		}
	}
	return true
}
