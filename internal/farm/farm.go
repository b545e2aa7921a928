// Package farm is the external worker pool request bodies dispatch
// CPU-bound work to, per spec.md §6. The tracker never touches it
// directly — it is handed to request bodies as a read-only shared
// resource alongside options.
package farm

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Farm bounds concurrent work to a fixed number of workers using the
// errgroup + worker-count pattern.
type Farm struct {
	maxWorkers int
}

// New returns a Farm that runs at most maxWorkers tasks concurrently.
// A non-positive maxWorkers means unbounded.
func New(maxWorkers int) *Farm {
	return &Farm{maxWorkers: maxWorkers}
}

// Run executes every task in tasks, bounded by the farm's worker
// count, and returns the first error encountered (if any), after every
// task has returned.
func (f *Farm) Run(ctx context.Context, tasks []func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if f.maxWorkers > 0 {
		g.SetLimit(f.maxWorkers)
	}
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			return task(gctx)
		})
	}
	return g.Wait()
}
