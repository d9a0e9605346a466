package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopKernel(b *Bindings, idx []int) {}

func TestNewValidation(t *testing.T) {
	a := NewF32("a", 4)
	b := NewF32("b", 4)

	valid := Stage{
		Name:         "t0",
		Inputs:       []Buffer{a},
		TransferIn:   EveryExecution,
		ParallelDims: []int{4},
		Kernel:       noopKernel,
		Outputs:      []Buffer{b},
		TransferOut:  EveryExecution,
	}

	t.Run("valid graph", func(t *testing.T) {
		g, err := New("s0", valid)
		require.NoError(t, err)
		assert.Equal(t, "s0", g.Name())
		assert.Equal(t, []string{"t0"}, g.StageNames())
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := New("", valid)
		assert.Error(t, err)
	})

	t.Run("no stages", func(t *testing.T) {
		_, err := New("s0")
		assert.Error(t, err)
	})

	t.Run("duplicate stage names", func(t *testing.T) {
		_, err := New("s0", valid, valid)
		assert.Error(t, err)
	})

	t.Run("missing kernel", func(t *testing.T) {
		st := valid
		st.Kernel = nil
		_, err := New("s0", st)
		assert.Error(t, err)
	})

	t.Run("no parallel dims", func(t *testing.T) {
		st := valid
		st.ParallelDims = nil
		_, err := New("s0", st)
		assert.Error(t, err)
	})

	t.Run("non-positive dim", func(t *testing.T) {
		st := valid
		st.ParallelDims = []int{4, 0}
		_, err := New("s0", st)
		assert.Error(t, err)
	})

	t.Run("nil buffer", func(t *testing.T) {
		st := valid
		st.Inputs = []Buffer{nil}
		_, err := New("s0", st)
		assert.Error(t, err)
	})

	t.Run("empty buffer", func(t *testing.T) {
		st := valid
		st.Inputs = []Buffer{NewF32("empty", 0)}
		_, err := New("s0", st)
		assert.Error(t, err)
	})

	t.Run("conflicting buffer name", func(t *testing.T) {
		st := valid
		st.Outputs = []Buffer{NewF32("a", 4)} // distinct buffer, same name as input
		_, err := New("s0", st)
		assert.Error(t, err)
	})
}

func TestTransferModeString(t *testing.T) {
	assert.Equal(t, "FIRST_EXECUTION", FirstExecution.String())
	assert.Equal(t, "EVERY_EXECUTION", EveryExecution.String())
	assert.Equal(t, "ON_DEMAND", OnDemand.String())
	assert.Equal(t, "UNKNOWN", TransferMode(42).String())
}
