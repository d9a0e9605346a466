// Package graph models offloadable computations as immutable graphs of
// named, data-parallel stages, and executes them through sessions bound
// to a swappable device.
package graph

import (
	"github.com/pkg/errors"
)

// TransferMode controls when a buffer is copied between host and device
// across repeated executions of the same session.
type TransferMode int

const (
	// FirstExecution copies the buffer only on the session's first
	// execution for the current device binding.
	FirstExecution TransferMode = iota
	// EveryExecution copies the buffer on every execution.
	EveryExecution
	// OnDemand defers the copy: inputs are brought over the first time
	// the stage runs, outputs only when the caller asks the session to
	// read them back.
	OnDemand
)

func (m TransferMode) String() string {
	switch m {
	case FirstExecution:
		return "FIRST_EXECUTION"
	case EveryExecution:
		return "EVERY_EXECUTION"
	case OnDemand:
		return "ON_DEMAND"
	default:
		return "UNKNOWN"
	}
}

// Kernel is the compute body of a stage, invoked once per point of the
// stage's parallel index space. It must be pure over the bound buffers
// at a single index: two invocations with different idx values must not
// write the same element.
type Kernel func(b *Bindings, idx []int)

// Stage describes one named computation of a graph: which buffers it
// reads and writes, when they move between host and device, and the
// data-parallel index space its kernel runs over.
type Stage struct {
	Name         string
	Inputs       []Buffer
	TransferIn   TransferMode
	ParallelDims []int
	Kernel       Kernel
	Outputs      []Buffer
	TransferOut  TransferMode
}

// Graph is an immutable, ordered sequence of stages. Build one with New
// and execute it repeatedly through a Session; the description never
// changes after construction, only the session's device binding does.
type Graph struct {
	name   string
	stages []Stage
}

// New validates the stage descriptors and builds a graph. Stage order is
// execution order.
func New(name string, stages ...Stage) (*Graph, error) {
	if name == "" {
		return nil, errors.New("graph name must not be empty")
	}
	if len(stages) == 0 {
		return nil, errors.Errorf("graph %s has no stages", name)
	}

	seen := make(map[string]bool, len(stages))
	buffers := make(map[string]Buffer)
	for _, st := range stages {
		if st.Name == "" {
			return nil, errors.Errorf("graph %s: stage name must not be empty", name)
		}
		if seen[st.Name] {
			return nil, errors.Errorf("graph %s: duplicate stage name %s", name, st.Name)
		}
		seen[st.Name] = true
		if st.Kernel == nil {
			return nil, errors.Errorf("graph %s: stage %s has no kernel", name, st.Name)
		}
		if len(st.ParallelDims) == 0 {
			return nil, errors.Errorf("graph %s: stage %s has no parallel dimensions", name, st.Name)
		}
		for i, d := range st.ParallelDims {
			if d <= 0 {
				return nil, errors.Errorf("graph %s: stage %s dimension %d has non-positive size %d", name, st.Name, i, d)
			}
		}
		for _, buf := range append(append([]Buffer{}, st.Inputs...), st.Outputs...) {
			if buf == nil {
				return nil, errors.Errorf("graph %s: stage %s references a nil buffer", name, st.Name)
			}
			if buf.Len() == 0 {
				return nil, errors.Errorf("graph %s: stage %s references empty buffer %s", name, st.Name, buf.Name())
			}
			if prev, ok := buffers[buf.Name()]; ok && prev != buf {
				return nil, errors.Errorf("graph %s: buffer name %s refers to two different buffers", name, buf.Name())
			}
			buffers[buf.Name()] = buf
		}
	}

	g := &Graph{
		name:   name,
		stages: make([]Stage, len(stages)),
	}
	copy(g.stages, stages)
	return g, nil
}

// Name returns the graph's name.
func (g *Graph) Name() string { return g.name }

// StageNames returns the stage names in execution order.
func (g *Graph) StageNames() []string {
	names := make([]string, len(g.stages))
	for i, st := range g.stages {
		names[i] = st.Name
	}
	return names
}
