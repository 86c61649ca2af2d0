package config

import (
	"encoding/xml"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/kinetree/spatialmath"
	"go.viam.com/kinetree/utils"
)

// URDF joint types.
const (
	urdfFixed      = "fixed"
	urdfRevolute   = "revolute"
	urdfContinuous = "continuous"
	urdfPrismatic  = "prismatic"
)

// urdfRobot holds the fields of a Universal Robot Description Format (URDF) file that describe kinematics.
type urdfRobot struct {
	XMLName xml.Name    `xml:"robot"`
	Name    string      `xml:"name,attr"`
	Links   []urdfLink  `xml:"link"`
	Joints  []urdfJoint `xml:"joint"`
}

type urdfLink struct {
	Name string `xml:"name,attr"`
}

type urdfFrame struct {
	Link string `xml:"link,attr"`
}

type urdfOrigin struct {
	RPY string `xml:"rpy,attr"` // fixed axis angles "r p y", in radians
	XYZ string `xml:"xyz,attr"` // "x y z"
}

type urdfAxis struct {
	XYZ string `xml:"xyz,attr"`
}

type urdfLimit struct {
	Lower float64 `xml:"lower,attr"`
	Upper float64 `xml:"upper,attr"`
}

type urdfJoint struct {
	Name   string      `xml:"name,attr"`
	Type   string      `xml:"type,attr"`
	Parent urdfFrame   `xml:"parent"`
	Child  urdfFrame   `xml:"child"`
	Origin *urdfOrigin `xml:"origin"`
	Axis   *urdfAxis   `xml:"axis"`
	Limit  *urdfLimit  `xml:"limit"`
}

// ConvertURDFToConfig converts URDF XML into a skeleton config. Every link becomes a bone of the same name.
// A joint becomes the joint of its child link's bone, and its origin the bone's offset from the parent link.
// Lengths keep the units of the file. Floating and planar joints are not supported.
func ConvertURDFToConfig(xmlData []byte, name string) (*SkeletonConfig, error) {
	// empty data probably means that the read URDF has no actionable information
	if len(xmlData) == 0 {
		return nil, ErrNoSkeletonInformation
	}
	robot := &urdfRobot{}
	if err := xml.Unmarshal(xmlData, robot); err != nil {
		return nil, errors.Wrap(err, "failed to convert URDF data")
	}
	if name == "" {
		name = robot.Name
	}
	cfg := &SkeletonConfig{Name: name, OriginalFile: &File{Bytes: xmlData, Extension: "urdf"}}

	children := lo.SliceToMap(robot.Joints, func(j urdfJoint) (string, bool) { return j.Child.Link, true })
	for _, link := range robot.Links {
		if !children[link.Name] {
			cfg.Bones = append(cfg.Bones, BoneConfig{Name: link.Name})
		}
	}
	for _, joint := range robot.Joints {
		bone, err := boneFromURDF(joint)
		if err != nil {
			return nil, errors.Wrapf(err, "joint %q", joint.Name)
		}
		cfg.Bones = append(cfg.Bones, bone)
	}
	return cfg, nil
}

func boneFromURDF(joint urdfJoint) (BoneConfig, error) {
	bone := BoneConfig{Name: joint.Child.Link, Parent: joint.Parent.Link}
	if joint.Origin != nil {
		xyz, err := spaceDelimitedFloats(joint.Origin.XYZ, 3)
		if err != nil {
			return BoneConfig{}, errors.Wrap(err, "origin xyz")
		}
		rpy, err := spaceDelimitedFloats(joint.Origin.RPY, 3)
		if err != nil {
			return BoneConfig{}, errors.Wrap(err, "origin rpy")
		}
		bone.Offset.Translation = Translation{X: xyz[0], Y: xyz[1], Z: xyz[2]}
		aa := spatialmath.QuatToR4AA(spatialmath.EulerAnglesToQuat(spatialmath.EulerAngles{Roll: rpy[0], Pitch: rpy[1], Yaw: rpy[2]}))
		bone.Offset.Orientation = Orientation{X: aa.RX, Y: aa.RY, Z: aa.RZ, TH: utils.RadToDeg(aa.Theta)}
	}

	// the URDF default axis
	axis := &Translation{X: 1}
	if joint.Axis != nil {
		xyz, err := spaceDelimitedFloats(joint.Axis.XYZ, 3)
		if err != nil {
			return BoneConfig{}, errors.Wrap(err, "axis")
		}
		axis = &Translation{X: xyz[0], Y: xyz[1], Z: xyz[2]}
	}
	limits := func() []LimitConfig {
		if joint.Limit == nil {
			return nil
		}
		lower, upper := joint.Limit.Lower, joint.Limit.Upper
		return []LimitConfig{{Min: &lower, Max: &upper}}
	}

	switch joint.Type {
	case urdfFixed:
		bone.Joint = JointConfig{Type: "fixed"}
	case urdfContinuous:
		bone.Joint = JointConfig{Type: "revolute", Axis: axis}
	case urdfRevolute:
		bone.Joint = JointConfig{Type: "revolute", Axis: axis, Limits: limits()}
	case urdfPrismatic:
		bone.Joint = JointConfig{Type: "prismatic", Axis: axis, Limits: limits()}
	default:
		return BoneConfig{}, errors.Errorf("unsupported joint type %q", joint.Type)
	}
	return bone, nil
}

// spaceDelimitedFloats parses n space separated floats. An empty string is n zeros.
func spaceDelimitedFloats(s string, n int) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return make([]float64, n), nil
	}
	if len(fields) != n {
		return nil, errors.Errorf("expected %d values, got %q", n, s)
	}
	out := make([]float64, n)
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(v) {
			return nil, errors.Errorf("%q is not a number", field)
		}
		out[i] = v
	}
	return out, nil
}
