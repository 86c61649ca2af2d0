package config

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"
	"go.viam.com/test"
	"gopkg.in/yaml.v3"

	"go.viam.com/kinetree/kinematics"
	"go.viam.com/kinetree/logging"
	"go.viam.com/kinetree/referenceframe"
	spatial "go.viam.com/kinetree/spatialmath"
	"go.viam.com/kinetree/spatialmath/backend"
)

func buildArm(t *testing.T, file string) *kinematics.Skeleton[backend.Transformation] {
	t.Helper()
	cfg, err := ParseSkeletonFile(file)
	test.That(t, err, test.ShouldBeNil)
	skel, err := Build(cfg, backend.New(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return skel
}

func TestParseSkeletonFile(t *testing.T) {
	for _, file := range []string{"testdata/arm.json", "testdata/arm.yaml"} {
		t.Run(filepath.Ext(file), func(t *testing.T) {
			skel := buildArm(t, file)
			test.That(t, skel.Name(), test.ShouldEqual, "arm")
			test.That(t, skel.Len(), test.ShouldEqual, 6)
			// bones are inserted parents first regardless of the order in the file
			test.That(t, skel.Names(), test.ShouldResemble, []string{"base", "shoulder", "pad", "forearm", "tip", "wrist"})

			forearm, err := skel.Lookup("forearm")
			test.That(t, err, test.ShouldBeNil)
			bone, err := skel.Bone(forearm)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, bone.Joint().Kind(), test.ShouldEqual, referenceframe.PrismaticJoint)
			test.That(t, bone.Joint().Limits(), test.ShouldResemble, []referenceframe.Limit{{Min: 0, Max: 1}})
			def, ok := bone.Joint().Default()
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, def, test.ShouldEqual, referenceframe.Scalar(0.25))

			params, err := ParseParametersFile("testdata/params" + filepath.Ext(file))
			test.That(t, err, test.ShouldBeNil)
			assignment, err := Resolve(params, skel)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, len(assignment), test.ShouldEqual, 4)

			poses, err := kinematics.Evaluate(context.Background(), skel, assignment)
			test.That(t, err, test.ShouldBeNil)
			expected := map[string]r3.Vector{
				"base":     {},
				"shoulder": {Z: 0.5},
				"forearm":  {X: -0.5, Y: 1, Z: 0.5},
				"tip":      {X: -1.5, Y: 1, Z: 0.5},
				"wrist":    {X: -1.5, Y: 1, Z: 0.5},
				"pad":      {X: -0.5, Y: 0.5, Z: 0.25},
			}
			for name, want := range expected {
				pose, ok := poses.ByName(name)
				test.That(t, ok, test.ShouldBeTrue)
				test.That(t, spatial.R3VectorAlmostEqual(spatial.Point(pose), want, 1e-9), test.ShouldBeTrue)
			}
		})
	}
}

func TestFileNameIsDefaultName(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "leg.yml")
	err := os.WriteFile(file, []byte("bones:\n  - name: hip\n"), 0o600)
	test.That(t, err, test.ShouldBeNil)
	cfg, err := ParseSkeletonFile(file)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Name, test.ShouldEqual, "leg")
	test.That(t, cfg.OriginalFile.Extension, test.ShouldEqual, ".yml")

	_, err = ParseSkeletonFile(filepath.Join(dir, "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = UnmarshalSkeleton(nil, "json")
	test.That(t, errors.Is(err, ErrNoSkeletonInformation), test.ShouldBeTrue)
	_, err = UnmarshalSkeleton([]byte("{}"), "toml")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestValidate(t *testing.T) {
	axis := &Translation{Z: 1}
	cfg := &SkeletonConfig{Bones: []BoneConfig{
		{Name: "root"},
		{Name: "other_root"},
		{Name: "a", Parent: "ghost"},
		{Name: "b", Parent: "root", Joint: JointConfig{Type: "hinge"}},
		{Name: "b", Parent: "root", Joint: JointConfig{Type: "revolute"}},
		{Name: "c", Parent: "root", Joint: JointConfig{Type: "spline2d", Corners: []Translation{{}}}},
		{Name: "d", Parent: "root", Joint: JointConfig{Type: "prismatic", Axis: axis, Component: "w"}},
		{Name: "e", Parent: "e"},
		{Parent: "root"},
	}}
	err := cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	// every problem is reported, not just the first
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 9)
	for _, msg := range []string{
		`bone name "b" used 2 times`,
		`unknown parent "ghost"`,
		`unknown joint type "hinge"`,
		"revolute joint needs an axis",
		"needs 4 corners",
		`unknown component "w"`,
		`bone "e" is its own parent`,
		"bone 8 has no name",
		"exactly one bone without a parent",
	} {
		test.That(t, err.Error(), test.ShouldContainSubstring, msg)
	}

	cyclic := &SkeletonConfig{Bones: []BoneConfig{
		{Name: "root"},
		{Name: "a", Parent: "b"},
		{Name: "b", Parent: "a"},
	}}
	err = cyclic.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not connected to the root")

	test.That(t, (&SkeletonConfig{}).Validate(), test.ShouldNotBeNil)
}

func TestBuildRejectsBadJointValues(t *testing.T) {
	logger := logging.NewTestLogger(t)
	zero := &SkeletonConfig{Bones: []BoneConfig{
		{Name: "root", Joint: JointConfig{Type: "revolute", Axis: &Translation{}}},
	}}
	_, err := Build(zero, backend.New(), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `bone "root"`)

	lo, hi := 0., 1.
	outside := &SkeletonConfig{Bones: []BoneConfig{
		{Name: "root", Joint: JointConfig{
			Type: "prismatic", Axis: &Translation{X: 1},
			Limits: []LimitConfig{{Min: &lo, Max: &hi}}, Default: []float64{2},
		}},
	}}
	_, err = Build(outside, backend.New(), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, referenceframe.ErrParameterOutOfDomain), test.ShouldBeTrue)
}

func TestLimitConfig(t *testing.T) {
	lo := -1.
	l := LimitConfig{Min: &lo}.Limit()
	test.That(t, l.Min, test.ShouldEqual, -1.)
	test.That(t, math.IsInf(l.Max, 1), test.ShouldBeTrue)
	test.That(t, LimitConfig{}.Limit().IsUnbounded(), test.ShouldBeTrue)
}

func TestOffsetOrientation(t *testing.T) {
	bk := backend.New()
	f := Frame{Translation: Translation{X: 1}, Orientation: Orientation{Z: 2, TH: 90}}
	off := Transformation(f, bk)
	// rotate first, then translate
	test.That(t, spatial.R3VectorAlmostEqual(off.Transform(r3.Vector{X: 1}), r3.Vector{X: 1, Y: 1}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatial.TransformationAlmostEqual(Transformation(Frame{}, bk), bk.Identity(), 1e-12), test.ShouldBeTrue)
}

func TestOffsetOrientationNeedsAxis(t *testing.T) {
	cfg := &SkeletonConfig{Name: "bent", Bones: []BoneConfig{
		{Name: "base"},
		{Name: "arm", Parent: "base", Offset: Frame{Orientation: Orientation{TH: 45}}},
		{Name: "tip", Parent: "arm", Offset: Frame{Orientation: Orientation{Z: 1, TH: math.NaN()}}},
	}}
	err := cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 2)
	test.That(t, err.Error(), test.ShouldContainSubstring, `bone "arm" offset: orientation rotates 45 degrees about a zero axis`)
	test.That(t, err.Error(), test.ShouldContainSubstring, `bone "tip" offset`)

	_, err = Build(cfg, backend.New(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)

	// no rotation needs no axis
	cfg.Bones[1].Offset.Orientation = Orientation{}
	cfg.Bones[2].Offset.Orientation = Orientation{Z: 1, TH: 30}
	test.That(t, cfg.Validate(), test.ShouldBeNil)
}

func TestParameters(t *testing.T) {
	params, err := UnmarshalParameters([]byte(`{"a": 1, "b": [0.5, -2]}`), "json")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, params["a"], test.ShouldEqual, referenceframe.Scalar(1))
	test.That(t, params["b"], test.ShouldEqual, referenceframe.Pair{U: 0.5, V: -2})

	fromYAML, err := UnmarshalParameters([]byte("a: 1\nb: [0.5, -2]\n"), ".yaml")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fromYAML, test.ShouldResemble, params)

	_, err = UnmarshalParameters([]byte(`{"a": "x", "b": [1], "c": [1, 2]}`), "json")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 2)

	out, err := json.Marshal(params)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldEqual, `{"a":1,"b":[0.5,-2]}`)
	yamlOut, err := yaml.Marshal(params)
	test.That(t, err, test.ShouldBeNil)
	back, err := UnmarshalParameters(yamlOut, "yaml")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back, test.ShouldResemble, params)

	skel := buildArm(t, "testdata/arm.json")
	_, err = Resolve(Parameters{"shoulder": referenceframe.Scalar(0), "elbow": referenceframe.Scalar(0), "knee": referenceframe.Scalar(0)}, skel)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 2)

	assignment, err := Resolve(Parameters{"shoulder": referenceframe.Scalar(0.5)}, skel)
	test.That(t, err, test.ShouldBeNil)
	named, err := FromAssignment(skel, assignment)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, named, test.ShouldResemble, Parameters{"shoulder": referenceframe.Scalar(0.5)})
}

func TestSchema(t *testing.T) {
	out, err := SchemaJSON()
	test.That(t, err, test.ShouldBeNil)
	var doc map[string]interface{}
	test.That(t, json.Unmarshal(out, &doc), test.ShouldBeNil)
	test.That(t, string(out), test.ShouldContainSubstring, "kinetree skeleton")
	test.That(t, string(out), test.ShouldContainSubstring, "spline2d")
	test.That(t, string(out), test.ShouldContainSubstring, "second_axis")
}

func TestURDF(t *testing.T) {
	skel := buildArm(t, "testdata/planar.urdf")
	test.That(t, skel.Name(), test.ShouldEqual, "planar")
	test.That(t, skel.Len(), test.ShouldEqual, 5)

	shoulder, err := skel.Lookup("upper_arm")
	test.That(t, err, test.ShouldBeNil)
	bone, err := skel.Bone(shoulder)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bone.Joint().Limits(), test.ShouldResemble, []referenceframe.Limit{{Min: -1, Max: 1}})
	elbow, err := skel.Lookup("forearm")
	test.That(t, err, test.ShouldBeNil)
	bone, err = skel.Bone(elbow)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bone.Joint().Limits()[0].IsUnbounded(), test.ShouldBeTrue)

	params, err := UnmarshalParameters([]byte(`{"upper_arm": 0, "forearm": 0, "carriage": 0.25}`), "json")
	test.That(t, err, test.ShouldBeNil)
	assignment, err := Resolve(params, skel)
	test.That(t, err, test.ShouldBeNil)
	poses, err := kinematics.Evaluate(context.Background(), skel, assignment)
	test.That(t, err, test.ShouldBeNil)
	for name, want := range map[string]r3.Vector{
		"base_link": {},
		"upper_arm": {Z: 0.1},
		"forearm":   {X: 1, Z: 0.1},
		"tool":      {X: 1, Y: 1, Z: 0.1},
		"carriage":  {Y: 0.25},
	} {
		pose, ok := poses.ByName(name)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, spatial.R3VectorAlmostEqual(spatial.Point(pose), want, 1e-9), test.ShouldBeTrue)
	}

	_, err = ConvertURDFToConfig([]byte(`<robot name="r"><link name="a"/><link name="b"/>`+
		`<joint name="j" type="floating"><parent link="a"/><child link="b"/></joint></robot>`), "")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unsupported joint type "floating"`)

	_, err = ConvertURDFToConfig([]byte(`<robot name="r"><link name="a"/><link name="b"/>`+
		`<joint name="j" type="fixed"><parent link="a"/><child link="b"/><origin xyz="1 2"/></joint></robot>`), "")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ConvertURDFToConfig(nil, "")
	test.That(t, errors.Is(err, ErrNoSkeletonInformation), test.ShouldBeTrue)
}
