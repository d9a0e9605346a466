package device

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// HostRegistry exposes the execution backends available on the local
// host. Backend 0 ("serial") has a single device running kernels on the
// calling goroutine. Backend 1 ("goroutines") exposes one device per
// power-of-two worker count up to runtime.NumCPU, so device 0 is the
// narrowest and the last device the widest.
type HostRegistry struct {
	backends []backend
	logger   *zap.Logger
}

type backend struct {
	name    string
	devices []Device
}

// NewHostRegistry enumerates the host backends.
func NewHostRegistry(logger *zap.Logger) *HostRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("registry")

	serial := backend{
		name:    "serial",
		devices: []Device{NewSerialDevice("serial-0")},
	}

	parallel := backend{name: "goroutines"}
	for workers := 2; workers <= runtime.NumCPU(); workers *= 2 {
		name := fmt.Sprintf("goroutines-%dw", workers)
		parallel.devices = append(parallel.devices, NewParallelDevice(name, workers))
	}
	if len(parallel.devices) == 0 {
		// Single-core host: still expose the backend with one device.
		parallel.devices = []Device{NewParallelDevice("goroutines-1w", 1)}
	}

	r := &HostRegistry{
		backends: []backend{serial, parallel},
		logger:   log,
	}
	for b, be := range r.backends {
		log.Info("backend available",
			zap.Int("backend", b),
			zap.String("name", be.name),
			zap.Int("devices", len(be.devices)))
	}
	return r
}

func (r *HostRegistry) BackendCount() int {
	return len(r.backends)
}

func (r *HostRegistry) DeviceCount(backend int) int {
	if backend < 0 || backend >= len(r.backends) {
		return 0
	}
	return len(r.backends[backend].devices)
}

func (r *HostRegistry) Device(backend, device int) (Device, error) {
	if backend < 0 || backend >= len(r.backends) {
		return nil, errors.Errorf("backend index %d out of range (have %d backends)", backend, len(r.backends))
	}
	b := r.backends[backend]
	if device < 0 || device >= len(b.devices) {
		return nil, errors.Errorf("device index %d out of range for backend %s (have %d devices)", device, b.name, len(b.devices))
	}
	return b.devices[device], nil
}

// BackendName returns the name of the given backend, or "unknown" when
// the index is out of range.
func (r *HostRegistry) BackendName(backend int) string {
	if backend < 0 || backend >= len(r.backends) {
		return "unknown"
	}
	return r.backends[backend].name
}
