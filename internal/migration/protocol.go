package migration

import (
	"strconv"
	"strings"

	"github.com/heterokit/offload/internal/device"
)

// Sentinel is the line a client sends to end its session.
const Sentinel = "q"

// ParseSelector parses a "<backendIndex>:<deviceIndex>" request line.
// A malformed line (wrong shape, non-numeric fields) yields the default
// handle (0, 0) and ok=false; selection favors availability over strict
// validation at this boundary.
func ParseSelector(line string) (h device.Handle, ok bool) {
	parts := strings.Split(strings.TrimSpace(line), ":")
	if len(parts) != 2 {
		return device.Handle{}, false
	}
	backend, err := strconv.Atoi(parts[0])
	if err != nil {
		return device.Handle{}, false
	}
	dev, err := strconv.Atoi(parts[1])
	if err != nil {
		return device.Handle{}, false
	}
	return device.Handle{Backend: backend, Device: dev}, true
}

// NormalizeSelector clamps a parsed handle against the registry: an
// out-of-range backend index falls back to backend 0, and the device
// index is then validated against the substituted backend's device
// count, falling back to device 0 if it is also out of range. The
// returned flag reports whether anything was clamped.
func NormalizeSelector(h device.Handle, reg device.Registry) (device.Handle, bool) {
	clamped := false
	if h.Backend < 0 || h.Backend >= reg.BackendCount() {
		h.Backend = 0
		clamped = true
	}
	if h.Device < 0 || h.Device >= reg.DeviceCount(h.Backend) {
		h.Device = 0
		clamped = true
	}
	return h, clamped
}
