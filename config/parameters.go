package config

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/kinetree/kinematics"
	"go.viam.com/kinetree/referenceframe"
	"go.viam.com/kinetree/spatialmath"
)

// Parameters maps bone names to joint parameters.
type Parameters map[string]referenceframe.Parameter

// UnmarshalParameters parses a parameters document: an object from bone name to either a number or a [u, v] pair.
func UnmarshalParameters(data []byte, ext string) (Parameters, error) {
	var raw map[string]interface{}
	if err := decode(data, ext, &raw); err != nil {
		return nil, err
	}
	params := make(Parameters, len(raw))
	var errs error
	for _, name := range lo.Keys(raw) {
		p, err := parameterFromValue(raw[name])
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "parameter %q", name))
			continue
		}
		params[name] = p
	}
	if errs != nil {
		return nil, errs
	}
	return params, nil
}

func parameterFromValue(v interface{}) (referenceframe.Parameter, error) {
	switch v := v.(type) {
	case []interface{}:
		if len(v) != 2 {
			return nil, errors.Errorf("a pair needs 2 values, got %d", len(v))
		}
		u, err := number(v[0])
		if err != nil {
			return nil, err
		}
		w, err := number(v[1])
		if err != nil {
			return nil, err
		}
		return referenceframe.Pair{U: u, V: w}, nil
	default:
		s, err := number(v)
		if err != nil {
			return nil, err
		}
		return referenceframe.Scalar(s), nil
	}
}

// number accepts the numeric types encoding/json and yaml.v3 decode into.
func number(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, errors.Errorf("expected a number, got %v (%T)", v, v)
	}
}

// Resolve maps the bone names to nodes of skel. Every unknown name is reported.
func Resolve[T spatialmath.Transformation[T]](params Parameters, skel *kinematics.Skeleton[T]) (kinematics.Assignment, error) {
	out := make(kinematics.Assignment, len(params))
	names := lo.Keys(params)
	sort.Strings(names)
	var errs error
	for _, name := range names {
		id, err := skel.Lookup(name)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out[id] = params[name]
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

// FromAssignment names the parameters of an assignment by bone.
func FromAssignment[T spatialmath.Transformation[T]](skel *kinematics.Skeleton[T], assignment kinematics.Assignment) (Parameters, error) {
	out := make(Parameters, len(assignment))
	for id, p := range assignment {
		bone, err := skel.Bone(id)
		if err != nil {
			return nil, err
		}
		out[bone.Name()] = p
	}
	return out, nil
}

// MarshalJSON writes scalars as numbers and pairs as [u, v].
func (p Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.plain())
}

// MarshalYAML writes scalars as numbers and pairs as [u, v].
func (p Parameters) MarshalYAML() (interface{}, error) {
	return p.plain(), nil
}

func (p Parameters) plain() map[string]interface{} {
	return lo.MapValues(p, func(v referenceframe.Parameter, _ string) interface{} {
		switch v := v.(type) {
		case referenceframe.Pair:
			return []float64{v.U, v.V}
		case referenceframe.Scalar:
			return float64(v)
		default:
			return nil
		}
	})
}
