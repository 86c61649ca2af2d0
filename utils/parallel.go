package utils

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
	quarterProcs := float64(ParallelFactor) * .25
	if quarterProcs > 8 {
		ParallelFactor = int(quarterProcs)
	}
}

// SimpleFunc is for RunInParallel.
type SimpleFunc func(ctx context.Context) error

// RunInParallel runs all functions in parallel, return is elapsed time and an error.
// The first failure cancels the context handed to the remaining functions; a panic counts as a failure.
func RunInParallel(ctx context.Context, fs []SimpleFunc) (time.Duration, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	var bigError error
	var bigErrorMutex sync.Mutex
	storeError := func(err error) {
		bigErrorMutex.Lock()
		defer bigErrorMutex.Unlock()
		if bigError == nil || !errors.Is(err, context.Canceled) {
			bigError = multierr.Combine(bigError, err)
		}
	}

	helper := func(f SimpleFunc) {
		defer func() {
			if thePanic := recover(); thePanic != nil {
				storeError(fmt.Errorf("got panic running something in parallel: %v", thePanic))
				cancel()
			}
			wg.Done()
		}()
		err := f(ctx)
		if err != nil {
			storeError(err)
			cancel()
		}
	}

	for _, f := range fs {
		wg.Add(1)
		go helper(f)
	}

	wg.Wait()
	return time.Since(start), bigError
}

// ParallelExecutor runs every task on its own goroutine through RunInParallel.
type ParallelExecutor struct{}

// Run runs tasks in parallel and returns once all of them are done.
func (ParallelExecutor) Run(ctx context.Context, tasks []SimpleFunc) error {
	_, err := RunInParallel(ctx, tasks)
	return err
}

// PoolExecutor runs tasks on a fixed number of workers. Workers pull tasks in order; once a task fails or
// panics the remaining unstarted tasks are skipped and the failure is returned.
type PoolExecutor struct {
	Workers int
}

// Run runs tasks on at most Workers goroutines, ParallelFactor if Workers is not positive.
func (p PoolExecutor) Run(ctx context.Context, tasks []SimpleFunc) error {
	workers := p.Workers
	if workers <= 0 {
		workers = ParallelFactor
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu     sync.Mutex
		next   int
		errAll error
		wg     sync.WaitGroup
	)
	claimed := func() (SimpleFunc, bool) {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(tasks) || ctx.Err() != nil {
			return nil, false
		}
		f := tasks[next]
		next++
		return f, true
	}
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if errAll == nil || !errors.Is(err, context.Canceled) {
			errAll = multierr.Combine(errAll, err)
		}
		cancel()
	}

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		utils.PanicCapturingGo(func() {
			defer wg.Done()
			// recovered here so the failure is recorded before Run can return
			defer func() {
				if thePanic := recover(); thePanic != nil {
					fail(fmt.Errorf("got panic running something in parallel: %v", thePanic))
				}
			}()
			for {
				f, ok := claimed()
				if !ok {
					return
				}
				if err := f(ctx); err != nil {
					fail(err)
				}
			}
		})
	}
	wg.Wait()
	return errAll
}
