package config

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/kinetree/spatialmath"
	"go.viam.com/kinetree/utils"
)

// Translation is a displacement between two frames.
type Translation struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Vector returns the translation as an r3.Vector.
func (t Translation) Vector() r3.Vector {
	return r3.Vector{X: t.X, Y: t.Y, Z: t.Z}
}

// Orientation is the orientation between two frames as a rotation of TH degrees about the axis (X, Y, Z).
// The axis need not be normalized. It may be omitted when TH is zero.
type Orientation struct {
	X  float64 `json:"x" yaml:"x"`
	Y  float64 `json:"y" yaml:"y"`
	Z  float64 `json:"z" yaml:"z"`
	TH float64 `json:"th" yaml:"th" jsonschema:"description=rotation about the axis in degrees"`
}

// Axis returns the rotation axis.
func (o Orientation) Axis() r3.Vector {
	return r3.Vector{X: o.X, Y: o.Y, Z: o.Z}
}

// IsIdentity reports whether the orientation does not rotate.
func (o Orientation) IsIdentity() bool {
	return o.TH == 0
}

func (o Orientation) validate() error {
	if math.IsNaN(o.TH) || math.IsInf(o.TH, 0) {
		return errors.Errorf("orientation angle %v is not a finite number", o.TH)
	}
	if !o.IsIdentity() && spatialmath.R3VectorAlmostEqual(o.Axis(), r3.Vector{}, 1e-8) {
		return errors.Errorf("orientation rotates %g degrees about a zero axis", o.TH)
	}
	return nil
}

// Frame is the fixed offset of a bone from its parent: a rotation followed by a translation in the parent frame.
type Frame struct {
	Translation Translation `json:"translation" yaml:"translation"`
	Orientation Orientation `json:"orientation" yaml:"orientation"`
}

// Transformation builds the offset with backend.
func Transformation[T spatialmath.Transformation[T]](f Frame, backend spatialmath.Backend[T]) T {
	offset := backend.Translation(f.Translation.Vector())
	if f.Orientation.IsIdentity() {
		return offset
	}
	return offset.Compose(backend.Rotation(f.Orientation.Axis(), utils.DegToRad(f.Orientation.TH)))
}
