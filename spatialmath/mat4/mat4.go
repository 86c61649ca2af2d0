// Package mat4 is a homogeneous 4x4 matrix backend for kinematic trees, built on mathgl.
package mat4

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/kinetree/spatialmath"
)

// singularDet is the determinant magnitude below which SafeInverse refuses to invert.
const singularDet = 1e-12

// Matrix is a homogeneous transformation matrix. The upper left 3x3 block is the rotation and
// the last column the translation.
type Matrix struct {
	M mgl64.Mat4
}

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{mgl64.Ident4()}
}

// Compose returns m∘other, i.e. other is applied first.
func (m Matrix) Compose(other Matrix) Matrix {
	return Matrix{m.M.Mul4(other.M)}
}

// Inverse returns the inverse of a rigid transformation: the transposed rotation and the
// back-rotated, negated translation. Use SafeInverse for matrices which may not be rigid.
func (m Matrix) Inverse() Matrix {
	rt := m.M.Mat3().Transpose()
	t := m.M.Col(3).Vec3()
	out := rt.Mat4()
	out.SetCol(3, rt.Mul3x1(t).Mul(-1).Vec4(1))
	return Matrix{out}
}

// SafeInverse inverts any non-singular matrix, returning a *spatialmath.NumericError otherwise.
func (m Matrix) SafeInverse() (Matrix, error) {
	if det := m.M.Det(); math.Abs(det) < singularDet || math.IsNaN(det) {
		return Matrix{}, spatialmath.NewNumericError("mat4 inverse", errors.Wrapf(spatialmath.ErrSingular, "determinant %g", det))
	}
	return Matrix{m.M.Inv()}, nil
}

// Transform applies m to the point p.
func (m Matrix) Transform(p r3.Vector) r3.Vector {
	v := m.M.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// Backend builds Matrix transformations.
type Backend struct{}

// Name returns the name of the backend.
func (Backend) Name() string {
	return "mat4"
}

// Identity returns the identity transformation.
func (Backend) Identity() Matrix {
	return Identity()
}

// Translation returns a pure translation.
func (Backend) Translation(v r3.Vector) Matrix {
	return Matrix{mgl64.Translate3D(v.X, v.Y, v.Z)}
}

// Rotation returns a pure rotation. A zero axis yields the identity.
func (Backend) Rotation(axis r3.Vector, theta float64) Matrix {
	if axis.Norm() == 0 {
		return Identity()
	}
	axis = axis.Normalize()
	return Matrix{mgl64.HomogRotate3D(theta, mgl64.Vec3{axis.X, axis.Y, axis.Z})}
}
