package referenceframe

import (
	"github.com/pkg/errors"

	spatial "go.viam.com/kinetree/spatialmath"
)

// Rigid is the payload of a kinematic tree node: a rigid segment attached to its parent by a fixed
// offset followed by a joint.
type Rigid[T spatial.Transformation[T]] interface {
	// Name identifies the segment within its skeleton.
	Name() string

	// Offset is the parameter independent transformation from the parent frame to the joint frame.
	Offset() T

	// Joint returns the joint driving the segment.
	Joint() Joint[T]

	// LocalTransformation returns Offset composed with the joint transformation at p.
	LocalTransformation(p Parameter) (T, error)
}

// Bone is the standard Rigid implementation.
type Bone[T spatial.Transformation[T]] struct {
	name   string
	offset T
	joint  Joint[T]
}

// NewBone returns a bone. The name must not be empty and the joint must not be nil.
func NewBone[T spatial.Transformation[T]](name string, offset T, joint Joint[T]) (*Bone[T], error) {
	if name == "" {
		return nil, errors.New("bone name cannot be empty")
	}
	if joint == nil {
		return nil, errors.Errorf("bone %q has no joint", name)
	}
	return &Bone[T]{name: name, offset: offset, joint: joint}, nil
}

// NewStaticBone returns a bone with a fixed joint, i.e. a constant offset from its parent.
func NewStaticBone[T spatial.Transformation[T]](name string, backend spatial.Backend[T], offset T) (*Bone[T], error) {
	return NewBone[T](name, offset, NewFixed(backend))
}

// Name returns the name of the bone.
func (b *Bone[T]) Name() string {
	return b.name
}

// Offset returns the parent to joint frame transformation.
func (b *Bone[T]) Offset() T {
	return b.offset
}

// Joint returns the joint of the bone.
func (b *Bone[T]) Joint() Joint[T] {
	return b.joint
}

// LocalTransformation returns the bone's transformation relative to its parent at p.
func (b *Bone[T]) LocalTransformation(p Parameter) (T, error) {
	jt, err := b.joint.Transform(p)
	if err != nil {
		var zero T
		return zero, err
	}
	return b.offset.Compose(jt), nil
}

func (b *Bone[T]) String() string {
	return b.name + " (" + b.joint.Kind().String() + ")"
}
