package core

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ParallelRows calls fn over contiguous row ranges [start, end) covering
// [0, height), using up to workers goroutines, and returns once every range
// is done. workers <= 0 means GOMAXPROCS. Ranges never overlap, so fn may
// write the rows it is given without further synchronisation.
func ParallelRows(height, workers int, fn func(start, end int)) {
	if height <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, height)
	if workers == 1 {
		fn(0, height)
		return
	}

	chunk := (height + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < height; start += chunk {
		end := min(start+chunk, height)
		g.Go(func() error {
			fn(start, end)
			return nil
		})
	}
	_ = g.Wait()
}
