package kriging

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// forEach calls fn for every index in [0, n) on at most workers goroutines.
// Completion order is unspecified; fn must only write to its own index.
func forEach(ctx context.Context, n, workers int, fn func(i int) error) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
