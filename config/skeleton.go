package config

import (
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/kinetree/arena"
	"go.viam.com/kinetree/kinematics"
	"go.viam.com/kinetree/logging"
	"go.viam.com/kinetree/referenceframe"
	"go.viam.com/kinetree/spatialmath"
)

// SkeletonConfig describes a skeleton. Bones may be listed in any order but exactly one of them has no parent.
type SkeletonConfig struct {
	Name  string       `json:"name" yaml:"name"`
	Bones []BoneConfig `json:"bones" yaml:"bones" jsonschema:"minItems=1"`

	OriginalFile *File `json:"-" yaml:"-"`
}

// File holds the raw bytes a config was read from and their extension.
type File struct {
	Bytes     []byte
	Extension string
}

// BoneConfig describes one bone.
type BoneConfig struct {
	Name   string      `json:"name" yaml:"name"`
	Parent string      `json:"parent,omitempty" yaml:"parent,omitempty"`
	Offset Frame       `json:"offset" yaml:"offset"`
	Joint  JointConfig `json:"joint" yaml:"joint"`
}

// LimitConfig bounds a joint parameter. A missing bound is infinite.
type LimitConfig struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// Limit converts the config to a referenceframe.Limit.
func (l LimitConfig) Limit() referenceframe.Limit {
	out := referenceframe.Unbounded()
	if l.Min != nil {
		out.Min = *l.Min
	}
	if l.Max != nil {
		out.Max = *l.Max
	}
	return out
}

// JointConfig describes the joint of a bone. Angles are in radians.
type JointConfig struct {
	Type string `json:"type" yaml:"type" jsonschema:"enum=fixed,enum=revolute,enum=prismatic,enum=universal,enum=spline2d"`
	// Axis is the axis of revolute and prismatic joints and the first axis of universal joints.
	Axis *Translation `json:"axis,omitempty" yaml:"axis,omitempty"`
	// SecondAxis is the second axis of universal joints.
	SecondAxis *Translation `json:"second_axis,omitempty" yaml:"second_axis,omitempty"`
	// Limits has one entry for single axis joints and two for universal joints.
	Limits []LimitConfig `json:"limits,omitempty" yaml:"limits,omitempty"`
	// Default has one value for single axis joints and two for two parameter joints.
	Default []float64 `json:"default,omitempty" yaml:"default,omitempty" jsonschema:"maxItems=2"`
	// Component selects the half of a pair parameter a single axis joint reads.
	Component string `json:"component,omitempty" yaml:"component,omitempty" jsonschema:"enum=u,enum=v"`
	// Corners are the control points of a spline2d joint at (0,0), (1,0), (0,1) and (1,1).
	Corners []Translation `json:"corners,omitempty" yaml:"corners,omitempty"`
}

func (j JointConfig) kind() (referenceframe.JointKind, error) {
	if j.Type == "" {
		return referenceframe.FixedJoint, nil
	}
	return referenceframe.ParseJointKind(j.Type)
}

func (j JointConfig) component() (referenceframe.Component, error) {
	switch strings.ToLower(j.Component) {
	case "", "u":
		return referenceframe.U, nil
	case "v":
		return referenceframe.V, nil
	default:
		return referenceframe.U, errors.Errorf("unknown component %q, expected u or v", j.Component)
	}
}

func (j JointConfig) defaultParameter() referenceframe.Parameter {
	switch len(j.Default) {
	case 1:
		return referenceframe.Scalar(j.Default[0])
	case 2:
		return referenceframe.Pair{U: j.Default[0], V: j.Default[1]}
	default:
		return nil
	}
}

// validate checks the fields a joint of the configured type needs. Values are checked when the joint is built.
func (j JointConfig) validate() error {
	kind, err := j.kind()
	if err != nil {
		return err
	}
	if _, err := j.component(); err != nil {
		return err
	}
	if len(j.Default) > 2 {
		return errors.Errorf("default has %d values, at most 2 are allowed", len(j.Default))
	}
	switch kind {
	case referenceframe.FixedJoint:
	case referenceframe.RevoluteJoint, referenceframe.PrismaticJoint:
		if j.Axis == nil {
			return errors.Errorf("%s joint needs an axis", kind)
		}
		if len(j.Limits) > 1 {
			return errors.Errorf("%s joint takes one limit, got %d", kind, len(j.Limits))
		}
	case referenceframe.UniversalJoint:
		if j.Axis == nil || j.SecondAxis == nil {
			return errors.New("universal joint needs axis and second_axis")
		}
		if len(j.Limits) != 0 && len(j.Limits) != 2 {
			return errors.Errorf("universal joint takes zero or two limits, got %d", len(j.Limits))
		}
	case referenceframe.Spline2DJoint:
		if len(j.Corners) != 4 {
			return errors.Errorf("spline2d joint needs 4 corners, got %d", len(j.Corners))
		}
	}
	return nil
}

// Validate reports every problem with the config at once.
func (cfg *SkeletonConfig) Validate() error {
	if len(cfg.Bones) == 0 {
		return errors.New("skeleton has no bones")
	}
	var errs error
	counts := lo.CountValuesBy(cfg.Bones, func(b BoneConfig) string { return b.Name })
	reported := map[string]bool{}
	for i, bone := range cfg.Bones {
		if bone.Name == "" {
			errs = multierr.Append(errs, errors.Errorf("bone %d has no name", i))
			continue
		}
		if counts[bone.Name] > 1 && !reported[bone.Name] {
			errs = multierr.Append(errs, errors.Errorf("bone name %q used %d times", bone.Name, counts[bone.Name]))
			reported[bone.Name] = true
		}
		switch {
		case bone.Parent == bone.Name:
			errs = multierr.Append(errs, errors.Errorf("bone %q is its own parent", bone.Name))
		case bone.Parent != "" && counts[bone.Parent] == 0:
			errs = multierr.Append(errs, errors.Errorf("bone %q has unknown parent %q", bone.Name, bone.Parent))
		}
		if err := bone.Joint.validate(); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "bone %q", bone.Name))
		}
		if err := bone.Offset.Orientation.validate(); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "bone %q offset", bone.Name))
		}
	}
	roots := lo.Filter(cfg.Bones, func(b BoneConfig, _ int) bool { return b.Parent == "" })
	if len(roots) != 1 {
		errs = multierr.Append(errs, errors.Errorf("skeleton needs exactly one bone without a parent, have %v",
			lo.Map(roots, func(b BoneConfig, _ int) string { return b.Name })))
	}
	if errs != nil {
		return errs
	}
	if _, err := cfg.order(); err != nil {
		return err
	}
	return nil
}

// order returns the bones parents first, so every parent is inserted before its children.
func (cfg *SkeletonConfig) order() ([]BoneConfig, error) {
	children := lo.GroupBy(cfg.Bones, func(b BoneConfig) string { return b.Parent })
	ordered := make([]BoneConfig, 0, len(cfg.Bones))
	queue := children[""]
	for len(queue) > 0 {
		bone := queue[0]
		queue = queue[1:]
		ordered = append(ordered, bone)
		queue = append(queue, children[bone.Name]...)
	}
	if len(ordered) != len(cfg.Bones) {
		placed := lo.SliceToMap(ordered, func(b BoneConfig) (string, bool) { return b.Name, true })
		cyclic := lo.FilterMap(cfg.Bones, func(b BoneConfig, _ int) (string, bool) { return b.Name, !placed[b.Name] })
		return nil, errors.Errorf("bones %v are not connected to the root, check for circular parents", cyclic)
	}
	return ordered, nil
}

// Build validates cfg and constructs the skeleton it describes.
func Build[T spatialmath.Transformation[T]](
	cfg *SkeletonConfig, backend spatialmath.Backend[T], logger logging.Logger,
) (*kinematics.Skeleton[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ordered, err := cfg.order()
	if err != nil {
		return nil, err
	}
	skel := kinematics.NewSkeleton(cfg.Name, backend, logger)
	for _, bc := range ordered {
		joint, err := buildJoint(bc.Joint, backend)
		if err != nil {
			return nil, errors.Wrapf(err, "bone %q", bc.Name)
		}
		bone, err := referenceframe.NewBone(bc.Name, Transformation(bc.Offset, backend), joint)
		if err != nil {
			return nil, err
		}
		if bc.Parent == "" {
			_, err = skel.AddRoot(bone)
		} else {
			var parent arena.NodeID
			if parent, err = skel.Lookup(bc.Parent); err != nil {
				return nil, err
			}
			_, err = skel.AddChild(parent, bone)
		}
		if err != nil {
			return nil, err
		}
	}
	logger.Debugw("built skeleton", "name", cfg.Name, "bones", skel.Len())
	return skel, nil
}

func buildJoint[T spatialmath.Transformation[T]](jc JointConfig, backend spatialmath.Backend[T]) (referenceframe.Joint[T], error) {
	kind, err := jc.kind()
	if err != nil {
		return nil, err
	}
	def := jc.defaultParameter()
	switch kind {
	case referenceframe.FixedJoint:
		return referenceframe.NewFixed(backend), nil
	case referenceframe.RevoluteJoint, referenceframe.PrismaticJoint:
		component, err := jc.component()
		if err != nil {
			return nil, err
		}
		opts := []referenceframe.JointOption{referenceframe.WithComponent(component)}
		if len(jc.Limits) == 1 {
			opts = append(opts, referenceframe.WithLimit(jc.Limits[0].Limit()))
		}
		if def != nil {
			opts = append(opts, referenceframe.WithDefault(def))
		}
		if kind == referenceframe.RevoluteJoint {
			return referenceframe.NewRevolute(backend, jc.Axis.Vector(), opts...)
		}
		return referenceframe.NewPrismatic(backend, jc.Axis.Vector(), opts...)
	case referenceframe.UniversalJoint:
		limits := lo.Map(jc.Limits, func(l LimitConfig, _ int) referenceframe.Limit { return l.Limit() })
		return referenceframe.NewUniversal(backend, jc.Axis.Vector(), jc.SecondAxis.Vector(), limits, def)
	case referenceframe.Spline2DJoint:
		var corners [4]r3.Vector
		for i, c := range jc.Corners {
			corners[i] = c.Vector()
		}
		return referenceframe.NewSpline2D(backend, corners, def)
	default:
		return nil, errors.Errorf("unsupported joint type %s", kind)
	}
}
