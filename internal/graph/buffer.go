package graph

import (
	"github.com/pkg/errors"
)

// Point is a 2D coordinate used by the clustering demos.
type Point struct {
	X float64
	Y float64
}

// Buffer is a named host-side array that a graph stage can read or
// write. The session keeps device-side copies in a private arena;
// kernels only ever see the arena copies, and host data is updated by
// transfer-out according to the stage's transfer policy.
type Buffer interface {
	Name() string
	Len() int

	clone() Buffer
	copyInto(dst Buffer) error
}

// F32 is a float32 buffer.
type F32 struct {
	name string
	Data []float32
}

// NewF32 allocates a float32 buffer of length n.
func NewF32(name string, n int) *F32 {
	return &F32{name: name, Data: make([]float32, n)}
}

func (b *F32) Name() string { return b.name }
func (b *F32) Len() int     { return len(b.Data) }

func (b *F32) clone() Buffer {
	out := NewF32(b.name, len(b.Data))
	copy(out.Data, b.Data)
	return out
}

func (b *F32) copyInto(dst Buffer) error {
	d, ok := dst.(*F32)
	if !ok || d.Len() != b.Len() {
		return errors.Errorf("buffer %s: incompatible copy target", b.name)
	}
	copy(d.Data, b.Data)
	return nil
}

// F64 is a float64 buffer.
type F64 struct {
	name string
	Data []float64
}

// NewF64 allocates a float64 buffer of length n.
func NewF64(name string, n int) *F64 {
	return &F64{name: name, Data: make([]float64, n)}
}

func (b *F64) Name() string { return b.name }
func (b *F64) Len() int     { return len(b.Data) }

func (b *F64) clone() Buffer {
	out := NewF64(b.name, len(b.Data))
	copy(out.Data, b.Data)
	return out
}

func (b *F64) copyInto(dst Buffer) error {
	d, ok := dst.(*F64)
	if !ok || d.Len() != b.Len() {
		return errors.Errorf("buffer %s: incompatible copy target", b.name)
	}
	copy(d.Data, b.Data)
	return nil
}

// I32 is an int32 buffer.
type I32 struct {
	name string
	Data []int32
}

// NewI32 allocates an int32 buffer of length n.
func NewI32(name string, n int) *I32 {
	return &I32{name: name, Data: make([]int32, n)}
}

func (b *I32) Name() string { return b.name }
func (b *I32) Len() int     { return len(b.Data) }

func (b *I32) clone() Buffer {
	out := NewI32(b.name, len(b.Data))
	copy(out.Data, b.Data)
	return out
}

func (b *I32) copyInto(dst Buffer) error {
	d, ok := dst.(*I32)
	if !ok || d.Len() != b.Len() {
		return errors.Errorf("buffer %s: incompatible copy target", b.name)
	}
	copy(d.Data, b.Data)
	return nil
}

// Points is a buffer of 2D points.
type Points struct {
	name string
	Data []Point
}

// NewPoints allocates a point buffer of length n.
func NewPoints(name string, n int) *Points {
	return &Points{name: name, Data: make([]Point, n)}
}

func (b *Points) Name() string { return b.name }
func (b *Points) Len() int     { return len(b.Data) }

func (b *Points) clone() Buffer {
	out := NewPoints(b.name, len(b.Data))
	copy(out.Data, b.Data)
	return out
}

func (b *Points) copyInto(dst Buffer) error {
	d, ok := dst.(*Points)
	if !ok || d.Len() != b.Len() {
		return errors.Errorf("buffer %s: incompatible copy target", b.name)
	}
	copy(d.Data, b.Data)
	return nil
}

// Bindings gives a kernel access to the device-side copies of the
// buffers its stage declared. Accessors panic on a missing name or a
// type mismatch; the device turns the panic into a fatal execution
// error.
type Bindings struct {
	bufs map[string]Buffer
}

func (b *Bindings) get(name string) Buffer {
	buf, ok := b.bufs[name]
	if !ok {
		panic(errors.Errorf("buffer %s is not bound", name))
	}
	return buf
}

// F32 returns the bound float32 buffer with the given name.
func (b *Bindings) F32(name string) *F32 {
	buf, ok := b.get(name).(*F32)
	if !ok {
		panic(errors.Errorf("buffer %s is not an F32", name))
	}
	return buf
}

// F64 returns the bound float64 buffer with the given name.
func (b *Bindings) F64(name string) *F64 {
	buf, ok := b.get(name).(*F64)
	if !ok {
		panic(errors.Errorf("buffer %s is not an F64", name))
	}
	return buf
}

// I32 returns the bound int32 buffer with the given name.
func (b *Bindings) I32(name string) *I32 {
	buf, ok := b.get(name).(*I32)
	if !ok {
		panic(errors.Errorf("buffer %s is not an I32", name))
	}
	return buf
}

// Points returns the bound point buffer with the given name.
func (b *Bindings) Points(name string) *Points {
	buf, ok := b.get(name).(*Points)
	if !ok {
		panic(errors.Errorf("buffer %s is not a Points", name))
	}
	return buf
}
