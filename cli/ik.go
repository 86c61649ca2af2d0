package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"go.viam.com/kinetree/arena"
	"go.viam.com/kinetree/config"
	"go.viam.com/kinetree/motionplan/ik"
)

// InverseKinematicsAction solves for the joint parameters that bring bones to the --target positions and
// prints them. The best parameters found are printed even when the solver does not converge.
func InverseKinematicsAction(c *cli.Context) error {
	logger := newLogger(c)
	skel, seed, err := loadSkeleton(c, logger)
	if err != nil {
		return err
	}
	targets := map[arena.NodeID]r3.Vector{}
	for _, raw := range c.StringSlice(targetFlag) {
		name, target, err := parseTarget(raw)
		if err != nil {
			return err
		}
		id, err := skel.Lookup(name)
		if err != nil {
			return err
		}
		targets[id] = target
	}
	solver, err := ik.NewSolver(skel, logger.Sublogger("ik"),
		ik.WithMaxIterations(c.Int(iterationsFlag)),
		ik.WithTolerance(c.Float64(toleranceFlag)),
		ik.WithDamping(c.Float64(dampingFlag)),
	)
	if err != nil {
		return err
	}
	solution, info, err := solver.Solve(c.Context, seed, targets)
	if err != nil && !errors.Is(err, ik.ErrNotConverged) {
		return err
	}
	named, convErr := config.FromAssignment(skel, solution)
	if convErr != nil {
		return convErr
	}

	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("%s: %d iterations, squared error %.3g", skel.Name(), info.Iterations, info.SquaredError))
	t.AppendHeader(table.Row{"Bone", "Parameter"})
	names := lo.Keys(named)
	sort.Strings(names)
	for _, name := range names {
		t.AppendRow(table.Row{name, named[name].String()})
	}
	printf(c.App.Writer, "%s", t.Render())
	if summary, statsErr := info.ErrorStats(); statsErr == nil {
		printf(c.App.Writer, "error min %.3g max %.3g mean %.3g median %.3g", summary.Min, summary.Max, summary.Mean, summary.Median)
	}
	// non convergence still fails the command after printing the best effort
	return err
}
