package device

import (
	"fmt"
)

// Handle identifies a device as a (backend, device) index pair. It is
// opaque beyond identity: the session resolves it through a Registry and
// never inspects it otherwise.
type Handle struct {
	Backend int
	Device  int
}

func (h Handle) String() string {
	return fmt.Sprintf("%d:%d", h.Backend, h.Device)
}

// Registry enumerates execution backends and resolves handles to devices.
// Implementations must not fail Device for any in-range pair.
type Registry interface {
	// BackendCount returns the number of available backends.
	BackendCount() int

	// DeviceCount returns the number of devices exposed by the given
	// backend, or 0 if the backend index is out of range.
	DeviceCount(backend int) int

	// Device resolves a (backend, device) pair to a Device.
	Device(backend, device int) (Device, error)
}

// Device schedules a kernel over a parallel index space. dims gives the
// size of each index dimension; kernel is invoked once per point of the
// space with kernel's idx slice valid only for the duration of the call.
//
// How the space is walked is the device's choice: a serial device runs
// it in row-major order on the calling goroutine, a parallel device
// partitions the outermost dimension across workers. Kernels must be
// pure over their buffers at a single index so that scheduling order
// cannot change the result.
type Device interface {
	Name() string
	Run(dims []int, kernel func(idx []int)) error
}
