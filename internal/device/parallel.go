package device

import (
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ParallelDevice partitions the outermost dimension of the index space
// into contiguous chunks and runs each chunk on its own goroutine. Inner
// dimensions are walked in order within a chunk.
type ParallelDevice struct {
	name    string
	workers int
}

// NewParallelDevice creates a device running kernels on up to workers
// goroutines.
func NewParallelDevice(name string, workers int) *ParallelDevice {
	if workers < 1 {
		workers = 1
	}
	return &ParallelDevice{name: name, workers: workers}
}

func (d *ParallelDevice) Name() string {
	return d.name
}

// Workers returns the goroutine count this device schedules kernels on.
func (d *ParallelDevice) Workers() int {
	return d.workers
}

func (d *ParallelDevice) Run(dims []int, kernel func(idx []int)) error {
	if err := checkDims(dims); err != nil {
		return err
	}
	outer := dims[0]
	workers := d.workers
	if workers > outer {
		workers = outer
	}

	var g errgroup.Group
	chunk := (outer + workers - 1) / workers
	for w := 0; w < workers; w++ {
		from := w * chunk
		to := from + chunk
		if to > outer {
			to = outer
		}
		if from >= to {
			break
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.Errorf("kernel panicked on device %s: %v", d.name, r)
				}
			}()
			idx := make([]int, len(dims))
			iterate(dims, idx, 0, from, to, kernel)
			return nil
		})
	}
	return g.Wait()
}
