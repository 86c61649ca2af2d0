// Package cli contains the kinetree command line: forward and inverse kinematics on skeleton files.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	debugFlag      = "debug"
	skeletonFlag   = "skeleton"
	paramsFlag     = "params"
	orderFlag      = "order"
	parallelFlag   = "parallel"
	jsonFlag       = "json"
	targetFlag     = "target"
	iterationsFlag = "iterations"
	toleranceFlag  = "tolerance"
	dampingFlag    = "damping"
)

var skeletonFlags = []cli.Flag{
	&cli.PathFlag{
		Name:     skeletonFlag,
		Aliases:  []string{"s"},
		Usage:    "skeleton `FILE` (.json, .yaml or .yml)",
		Required: true,
	},
	&cli.PathFlag{
		Name:    paramsFlag,
		Aliases: []string{"p"},
		Usage:   "joint parameters `FILE`, bones not listed use their defaults",
	},
}

func newApp() *cli.App {
	return &cli.App{
		Name:            "kinetree",
		Usage:           "evaluate articulated kinematic trees",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    debugFlag,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "print the bones of a skeleton",
				UsageText: "kinetree show --skeleton <file>",
				Flags:     skeletonFlags[:1],
				Action:    ShowAction,
			},
			{
				Name:      "fk",
				Usage:     "compute the world pose of every bone",
				UsageText: "kinetree fk --skeleton <file> [--params <file>] [other options]",
				Flags: append(skeletonFlags[:2:2],
					&cli.StringFlag{
						Name:  orderFlag,
						Usage: "traversal order, depth or breadth",
						Value: "depth",
					},
					&cli.IntFlag{
						Name:  parallelFlag,
						Usage: "evaluate subtrees on `N` workers, 0 evaluates sequentially",
					},
					&cli.BoolFlag{
						Name:  jsonFlag,
						Usage: "print poses as JSON instead of a table",
					},
				),
				Action: ForwardKinematicsAction,
			},
			{
				Name:      "ik",
				Usage:     "solve joint parameters that bring bones to target positions",
				UsageText: "kinetree ik --skeleton <file> --target <bone>=<x>,<y>,<z> [--target ...] [other options]",
				Flags: append(skeletonFlags[:2:2],
					&cli.StringSliceFlag{
						Name:     targetFlag,
						Aliases:  []string{"t"},
						Usage:    "target position of a bone as `BONE=X,Y,Z`, repeatable",
						Required: true,
					},
					&cli.IntFlag{
						Name:  iterationsFlag,
						Usage: "maximum number of solver steps",
						Value: 200,
					},
					&cli.Float64Flag{
						Name:  toleranceFlag,
						Usage: "largest remaining distance that counts as reached",
						Value: 1e-6,
					},
					&cli.Float64Flag{
						Name:  dampingFlag,
						Usage: "damping of the least squares steps",
						Value: 0.05,
					},
				),
				Action: InverseKinematicsAction,
			},
			{
				Name:      "bench",
				Usage:     "time repeated evaluations of a skeleton",
				UsageText: "kinetree bench --skeleton <file> [--params <file>] [--iterations N] [--parallel N]",
				Flags: append(skeletonFlags[:2:2],
					&cli.IntFlag{
						Name:  iterationsFlag,
						Usage: "number of evaluations",
						Value: 1000,
					},
					&cli.IntFlag{
						Name:  parallelFlag,
						Usage: "evaluate subtrees on `N` workers, 0 evaluates sequentially",
					},
				),
				Action: BenchAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of skeleton files",
				Action: SchemaAction,
			},
		},
	}
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app := newApp()
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
