package device

import (
	"github.com/pkg/errors"
)

// SerialDevice walks the whole index space in row-major order on the
// calling goroutine. It is the reference implementation every other
// device must agree with.
type SerialDevice struct {
	name string
}

// NewSerialDevice creates a serial device with the given name.
func NewSerialDevice(name string) *SerialDevice {
	return &SerialDevice{name: name}
}

func (d *SerialDevice) Name() string {
	return d.name
}

func (d *SerialDevice) Run(dims []int, kernel func(idx []int)) (err error) {
	if err := checkDims(dims); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("kernel panicked on device %s: %v", d.name, r)
		}
	}()
	idx := make([]int, len(dims))
	iterate(dims, idx, 0, 0, dims[0], kernel)
	return nil
}

// iterate walks dims[depth:] in row-major order, restricting the current
// dimension to [from, to).
func iterate(dims, idx []int, depth, from, to int, kernel func(idx []int)) {
	last := depth == len(dims)-1
	for i := from; i < to; i++ {
		idx[depth] = i
		if last {
			kernel(idx)
		} else {
			iterate(dims, idx, depth+1, 0, dims[depth+1], kernel)
		}
	}
}

func checkDims(dims []int) error {
	if len(dims) == 0 {
		return errors.New("kernel has no parallel dimensions")
	}
	for i, d := range dims {
		if d <= 0 {
			return errors.Errorf("parallel dimension %d has non-positive size %d", i, d)
		}
	}
	return nil
}
