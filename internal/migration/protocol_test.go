package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/heterokit/offload/internal/device"
)

func TestParseSelector(t *testing.T) {
	tests := []struct {
		name string
		line string
		want device.Handle
		ok   bool
	}{
		{"valid", "1:2", device.Handle{Backend: 1, Device: 2}, true},
		{"valid with whitespace", "  0:0\r", device.Handle{}, true},
		{"non-numeric", "abc:def", device.Handle{}, false},
		{"missing separator", "12", device.Handle{}, false},
		{"too many fields", "1:2:3", device.Handle{}, false},
		{"empty", "", device.Handle{}, false},
		{"empty fields", ":", device.Handle{}, false},
		{"negative parses", "-1:-2", device.Handle{Backend: -1, Device: -2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSelector(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeSelector(t *testing.T) {
	// Two backends: backend 0 has 1 device, backend 1 has 3.
	reg := device.NewStaticRegistry(1, 3)

	tests := []struct {
		name    string
		in      device.Handle
		want    device.Handle
		clamped bool
	}{
		{"in range", device.Handle{Backend: 1, Device: 2}, device.Handle{Backend: 1, Device: 2}, false},
		{"backend out of range", device.Handle{Backend: 5, Device: 0}, device.Handle{}, true},
		{
			// The device index is re-validated against the substituted
			// backend: backend 0 has a single device, so device 2 falls
			// back too.
			"backend clamp forces device clamp",
			device.Handle{Backend: 5, Device: 2},
			device.Handle{},
			true,
		},
		{"device out of range", device.Handle{Backend: 1, Device: 9}, device.Handle{Backend: 1}, true},
		{"negative backend", device.Handle{Backend: -1, Device: 0}, device.Handle{}, true},
		{"negative device", device.Handle{Backend: 1, Device: -4}, device.Handle{Backend: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamped := NormalizeSelector(tt.in, reg)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.clamped, clamped)
		})
	}
}
