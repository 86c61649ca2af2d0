//go:build mat4

// Package backend selects the transformation type used by tools which do not want to be generic,
// such as the command line. The dual quaternion backend is the default; build with -tags mat4
// to use homogeneous matrices instead.
package backend

import (
	"go.viam.com/kinetree/spatialmath"
	"go.viam.com/kinetree/spatialmath/mat4"
)

// Transformation is the selected transformation type.
type Transformation = mat4.Matrix

// New returns the selected backend.
func New() spatialmath.Backend[Transformation] {
	return mat4.Backend{}
}
