package device

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// StaticRegistry is a fixed-shape registry for tests. Each entry in the
// layout gives the device count of one backend; all devices are serial.
// Resolutions are recorded so tests can assert which handle a session
// ended up bound to.
type StaticRegistry struct {
	layout []int

	mu       sync.Mutex
	resolved []Handle
}

// NewStaticRegistry creates a registry with len(layout) backends, where
// backend b exposes layout[b] devices.
func NewStaticRegistry(layout ...int) *StaticRegistry {
	return &StaticRegistry{layout: layout}
}

func (r *StaticRegistry) BackendCount() int {
	return len(r.layout)
}

func (r *StaticRegistry) DeviceCount(backend int) int {
	if backend < 0 || backend >= len(r.layout) {
		return 0
	}
	return r.layout[backend]
}

func (r *StaticRegistry) Device(backend, device int) (Device, error) {
	if backend < 0 || backend >= len(r.layout) {
		return nil, errors.Errorf("backend index %d out of range (have %d backends)", backend, len(r.layout))
	}
	if device < 0 || device >= r.layout[backend] {
		return nil, errors.Errorf("device index %d out of range for backend %d (have %d devices)", device, backend, r.layout[backend])
	}
	r.mu.Lock()
	r.resolved = append(r.resolved, Handle{Backend: backend, Device: device})
	r.mu.Unlock()
	return NewSerialDevice(fmt.Sprintf("static-%d:%d", backend, device)), nil
}

// Resolved returns the handles resolved through this registry, in order.
func (r *StaticRegistry) Resolved() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Handle, len(r.resolved))
	copy(out, r.resolved)
	return out
}
