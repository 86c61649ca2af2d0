package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/kinetree/config"
	"go.viam.com/kinetree/kinematics"
	"go.viam.com/kinetree/logging"
	"go.viam.com/kinetree/spatialmath/backend"
	"go.viam.com/kinetree/utils"
)

// printf prints a message to w with a newline.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// newLogger returns a logger writing to the app's error writer. With --debug it logs at debug level and
// the command context is put in debug mode.
func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewBlankLogger("kinetree")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if c.Bool(debugFlag) {
		logger.SetLevel(logging.DEBUG)
		c.Context = logging.EnableDebugMode(c.Context, "")
	} else {
		logger.SetLevel(logging.WARN)
	}
	return logger
}

// loadSkeleton builds the skeleton named by --skeleton and resolves the parameters named by --params.
func loadSkeleton(c *cli.Context, logger logging.Logger) (*kinematics.Skeleton[backend.Transformation], kinematics.Assignment, error) {
	cfg, err := config.ParseSkeletonFile(c.Path(skeletonFlag))
	if err != nil {
		return nil, nil, err
	}
	skel, err := config.Build(cfg, backend.New(), logger)
	if err != nil {
		return nil, nil, err
	}
	assignment := kinematics.Assignment{}
	if file := c.Path(paramsFlag); file != "" {
		params, err := config.ParseParametersFile(file)
		if err != nil {
			return nil, nil, err
		}
		if assignment, err = config.Resolve(params, skel); err != nil {
			return nil, nil, err
		}
	}
	return skel, assignment, nil
}

// executor returns the executor for --parallel, nil for sequential evaluation.
func executor(c *cli.Context) (kinematics.Executor, error) {
	n := c.Int(parallelFlag)
	switch {
	case n < 0:
		return nil, errors.Errorf("--%s must not be negative", parallelFlag)
	case n == 0:
		return nil, nil
	default:
		return utils.PoolExecutor{Workers: n}, nil
	}
}

// parseTarget parses BONE=X,Y,Z.
func parseTarget(raw string) (string, r3.Vector, error) {
	name, coords, ok := strings.Cut(raw, "=")
	if !ok || name == "" {
		return "", r3.Vector{}, errors.Errorf("target %q is not of the form BONE=X,Y,Z", raw)
	}
	parts := strings.Split(coords, ",")
	if len(parts) != 3 {
		return "", r3.Vector{}, errors.Errorf("target %q needs 3 coordinates, got %d", raw, len(parts))
	}
	var xyz [3]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return "", r3.Vector{}, errors.Wrapf(err, "target %q", raw)
		}
		xyz[i] = v
	}
	return name, r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}
