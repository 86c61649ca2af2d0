package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrNoSkeletonInformation is returned for empty skeleton files.
var ErrNoSkeletonInformation = errors.New("no skeleton information")

// decode unmarshals data as JSON or YAML depending on ext. An empty extension means JSON.
func decode(data []byte, ext string, v interface{}) error {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "", "json":
		if err := json.Unmarshal(data, v); err != nil {
			return errors.Wrap(err, "failed to unmarshal json file")
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return errors.Wrap(err, "failed to unmarshal yaml file")
		}
	default:
		return errors.Errorf("unsupported file extension %q, expected json, yaml or yml", ext)
	}
	return nil
}

// UnmarshalSkeleton parses a skeleton config from data in the format named by ext (json, yaml, yml or urdf)
// and validates it.
func UnmarshalSkeleton(data []byte, ext string) (*SkeletonConfig, error) {
	if len(data) == 0 {
		return nil, ErrNoSkeletonInformation
	}
	var cfg *SkeletonConfig
	if strings.EqualFold(strings.TrimPrefix(ext, "."), "urdf") {
		var err error
		if cfg, err = ConvertURDFToConfig(data, ""); err != nil {
			return nil, err
		}
	} else {
		cfg = &SkeletonConfig{OriginalFile: &File{Bytes: data, Extension: ext}}
		if err := decode(data, ext, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid skeleton")
	}
	return cfg, nil
}

// ParseSkeletonFile reads a skeleton config file. The format follows the file extension.
// The skeleton takes the file name when the config does not name it.
func ParseSkeletonFile(filename string) (*SkeletonConfig, error) {
	//nolint:gosec
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skeleton file")
	}
	ext := filepath.Ext(filename)
	cfg, err := UnmarshalSkeleton(data, ext)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", filename)
	}
	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(filepath.Base(filename), ext)
	}
	return cfg, nil
}

// ParseParametersFile reads a parameters file. The format follows the file extension.
func ParseParametersFile(filename string) (Parameters, error) {
	//nolint:gosec
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read parameters file")
	}
	params, err := UnmarshalParameters(data, filepath.Ext(filename))
	if err != nil {
		return nil, errors.Wrapf(err, "%s", filename)
	}
	return params, nil
}
