// Package ik solves inverse kinematics for skeletons: joint parameters that bring effector bones to target
// positions. It uses the analytic position Jacobian with damped least squares steps.
package ik

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/kinetree/arena"
	"go.viam.com/kinetree/kinematics"
	"go.viam.com/kinetree/referenceframe"
	spatial "go.viam.com/kinetree/spatialmath"
)

// axisJoint is a single axis joint, i.e. a revolute or prismatic joint.
type axisJoint interface {
	Axis() r3.Vector
	Component() referenceframe.Component
}

// Jacobian returns the position Jacobian of effectors with respect to the active joints at poses: three rows
// per effector (x, y, z) and one column per active joint. A revolute joint moves an effector below it by
// ω×(pₑ−pⱼ), a prismatic joint by ω, where ω is the joint axis in world coordinates. Joints that are not
// ancestors of an effector do not move it.
func Jacobian[T spatial.Transformation[T]](
	skel *kinematics.Skeleton[T], poses *kinematics.Poses[T], active, effectors []arena.NodeID,
) (*mat.Dense, error) {
	if len(active) == 0 || len(effectors) == 0 {
		return nil, errors.New("jacobian needs at least one active joint and one effector")
	}
	jac := mat.NewDense(3*len(effectors), len(active), nil)
	for col, jointID := range active {
		bone, err := skel.Bone(jointID)
		if err != nil {
			return nil, err
		}
		joint, ok := bone.Joint().(axisJoint)
		if !ok {
			return nil, errors.Errorf("bone %q has a %s joint, only single axis joints can be active", bone.Name(), bone.Joint().Kind())
		}
		jointPose, ok := poses.Get(jointID)
		if !ok {
			return nil, errors.Errorf("no pose for joint %q", bone.Name())
		}
		omega := spatial.RotateVector(jointPose, joint.Axis())
		pivot := spatial.Point(jointPose)
		for i, effectorID := range effectors {
			if !skel.IsAncestor(jointID, effectorID) {
				continue
			}
			var column r3.Vector
			switch bone.Joint().Kind() {
			case referenceframe.RevoluteJoint:
				effector, ok := poses.Point(effectorID)
				if !ok {
					return nil, errors.Errorf("no pose for effector node %d", effectorID)
				}
				column = omega.Cross(effector.Sub(pivot))
			case referenceframe.PrismaticJoint:
				column = omega
			case referenceframe.FixedJoint, referenceframe.UniversalJoint, referenceframe.Spline2DJoint:
				return nil, errors.Errorf("bone %q has a %s joint, only single axis joints can be active", bone.Name(), bone.Joint().Kind())
			}
			jac.Set(3*i, col, column.X)
			jac.Set(3*i+1, col, column.Y)
			jac.Set(3*i+2, col, column.Z)
		}
	}
	return jac, nil
}
