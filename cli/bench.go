package cli

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/kinetree/kinematics"
)

// BenchStats summarizes evaluation times.
type BenchStats struct {
	Runs                   int
	Min, Max, Mean, Median time.Duration
	P90, P99               time.Duration
	StdDev                 time.Duration
}

// benchmark calls eval n times and returns the duration of each call as measured by clk.
func benchmark(ctx context.Context, clk clock.Clock, n int, eval func(context.Context) error) ([]time.Duration, error) {
	if n <= 0 {
		return nil, errors.Errorf("need a positive number of iterations, got %d", n)
	}
	durations := make([]time.Duration, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := clk.Now()
		if err := eval(ctx); err != nil {
			return nil, err
		}
		durations = append(durations, clk.Since(start))
	}
	return durations, nil
}

// summarize computes BenchStats from the durations of a benchmark.
func summarize(durations []time.Duration) (BenchStats, error) {
	data := stats.LoadRawData(durations)
	out := BenchStats{Runs: len(durations)}
	for _, s := range []struct {
		dst *time.Duration
		fn  func() (float64, error)
	}{
		{&out.Min, data.Min},
		{&out.Max, data.Max},
		{&out.Mean, data.Mean},
		{&out.Median, data.Median},
		{&out.P90, func() (float64, error) { return data.Percentile(90) }},
		{&out.P99, func() (float64, error) { return data.Percentile(99) }},
		{&out.StdDev, data.StandardDeviation},
	} {
		v, err := s.fn()
		if err != nil {
			return BenchStats{}, err
		}
		*s.dst = time.Duration(v)
	}
	return out, nil
}

// BenchAction times repeated evaluations of a skeleton and prints a summary.
func BenchAction(c *cli.Context) error {
	logger := newLogger(c)
	skel, params, err := loadSkeleton(c, logger)
	if err != nil {
		return err
	}
	exec, err := executor(c)
	if err != nil {
		return err
	}
	durations, err := benchmark(c.Context, clock.New(), c.Int(iterationsFlag), func(ctx context.Context) error {
		_, err := kinematics.EvaluateParallel(ctx, skel, params, exec)
		return err
	})
	if err != nil {
		return err
	}
	summary, err := summarize(durations)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetTitle(skel.Name())
	t.AppendHeader(table.Row{"Runs", "Min", "Median", "Mean", "P90", "P99", "Max", "StdDev"})
	t.AppendRow(table.Row{
		summary.Runs, summary.Min, summary.Median, summary.Mean, summary.P90, summary.P99, summary.Max, summary.StdDev,
	})
	printf(c.App.Writer, "%s", t.Render())
	return nil
}
