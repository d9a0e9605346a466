package graph

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/heterokit/offload/internal/device"
	"github.com/heterokit/offload/internal/metrics"
)

// Session binds an immutable graph to a device and executes it. The
// device may be rebound any number of times between executions; the
// graph never changes. A session is single-writer: all calls must come
// from one goroutine.
type Session struct {
	reg   device.Registry
	graph *Graph
	log   *zap.Logger

	handle device.Handle
	dev    device.Device

	// Device-side state for the current binding. Rebinding to a
	// different handle discards all of it, so a migrated session is
	// indistinguishable from a fresh one on the target device.
	arena         map[string]Buffer
	transferredIn map[string]bool
	firstDone     bool

	// Lifetime host-to-device copy counts per buffer, for tests and
	// metrics.
	transferCounts map[string]int
}

// StageTiming is the measured duration of one stage in one execution.
type StageTiming struct {
	Name     string
	Duration time.Duration
}

// ExecutionResult carries the timing and transfer metadata of a single
// Execute call.
type ExecutionResult struct {
	Device       device.Handle
	DeviceName   string
	Total        time.Duration
	Stages       []StageTiming
	HostToDevice int
	DeviceToHost int
}

// NewSession creates a session for the graph. No device is bound yet;
// the first Execute without a WithDevice call binds the registry's
// (0, 0) device.
func NewSession(reg device.Registry, g *Graph, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		reg:            reg,
		graph:          g,
		log:            logger.Named("session"),
		arena:          make(map[string]Buffer),
		transferredIn:  make(map[string]bool),
		transferCounts: make(map[string]int),
	}
}

// Graph returns the graph this session executes.
func (s *Session) Graph() *Graph { return s.graph }

// Device returns the currently bound handle. Before the first bind it is
// the default (0, 0).
func (s *Session) Device() device.Handle { return s.handle }

// WithDevice rebinds the session to the given handle and returns the
// session for chaining. An unresolvable handle is not an error: the
// session falls back to the registry's (0, 0) device and logs the
// substitution. Rebinding to a different device discards all
// device-side state, so the next execution re-transfers everything.
func (s *Session) WithDevice(h device.Handle) *Session {
	dev, err := s.reg.Device(h.Backend, h.Device)
	if err != nil {
		s.log.Warn("device not resolvable, using default",
			zap.String("requested", h.String()),
			zap.Error(err))
		h = device.Handle{}
		dev, err = s.reg.Device(h.Backend, h.Device)
		if err != nil {
			s.log.Error("default device not resolvable, keeping current binding", zap.Error(err))
			return s
		}
	}
	if s.dev != nil && h != s.handle {
		s.resetDeviceState()
	}
	s.handle = h
	s.dev = dev
	return s
}

func (s *Session) resetDeviceState() {
	s.arena = make(map[string]Buffer)
	s.transferredIn = make(map[string]bool)
	s.firstDone = false
}

// Execute runs every stage of the graph in declared order on the bound
// device, honoring each stage's transfer policy. A kernel failure is
// fatal for the run: the error is returned and no fallback device is
// tried.
func (s *Session) Execute() (*ExecutionResult, error) {
	if s.dev == nil {
		dev, err := s.reg.Device(s.handle.Backend, s.handle.Device)
		if err != nil {
			return nil, errors.Wrap(err, "binding default device")
		}
		s.dev = dev
	}

	start := time.Now()
	res := &ExecutionResult{Device: s.handle, DeviceName: s.dev.Name()}
	bind := &Bindings{bufs: s.arena}
	produced := make(map[string]bool)

	for i := range s.graph.stages {
		st := &s.graph.stages[i]

		for _, in := range st.Inputs {
			if produced[in.Name()] {
				// Written by an earlier stage this run; the device copy
				// is fresher than the host one.
				continue
			}
			switch st.TransferIn {
			case EveryExecution:
				s.transferIn(in, res)
			case FirstExecution, OnDemand:
				if !s.transferredIn[in.Name()] {
					s.transferIn(in, res)
				}
			}
		}
		for _, out := range st.Outputs {
			if _, ok := s.arena[out.Name()]; !ok {
				s.arena[out.Name()] = out.clone()
			}
		}

		stageStart := time.Now()
		if err := s.dev.Run(st.ParallelDims, func(idx []int) {
			st.Kernel(bind, idx)
		}); err != nil {
			return nil, errors.Wrapf(err, "graph %s: stage %s", s.graph.name, st.Name)
		}
		res.Stages = append(res.Stages, StageTiming{Name: st.Name, Duration: time.Since(stageStart)})

		for _, out := range st.Outputs {
			produced[out.Name()] = true
			switch st.TransferOut {
			case EveryExecution:
				if err := s.transferOut(out, res); err != nil {
					return nil, err
				}
			case FirstExecution:
				if !s.firstDone {
					if err := s.transferOut(out, res); err != nil {
						return nil, err
					}
				}
			case OnDemand:
				// Copied back only through Read.
			}
		}
	}

	s.firstDone = true
	res.Total = time.Since(start)

	metrics.GraphExecutions.WithLabelValues(s.graph.name, s.dev.Name()).Inc()
	metrics.GraphExecutionDuration.WithLabelValues(s.graph.name).
		Observe(float64(res.Total.Microseconds()) / 1000.0)
	return res, nil
}

// Read forces a device-to-host copy of a buffer, regardless of its
// transfer-out policy. It fails if the buffer is not resident on the
// device, i.e. no stage has transferred or produced it yet.
func (s *Session) Read(buf Buffer) error {
	resident, ok := s.arena[buf.Name()]
	if !ok {
		return errors.Errorf("buffer %s is not resident on device %s", buf.Name(), s.handle)
	}
	if err := resident.copyInto(buf); err != nil {
		return err
	}
	metrics.BufferTransfers.WithLabelValues(s.graph.name, metrics.DeviceToHost).Inc()
	return nil
}

// TransferCount returns how many times the buffer has been copied from
// host to device over the lifetime of this session.
func (s *Session) TransferCount(buf Buffer) int {
	return s.transferCounts[buf.Name()]
}

func (s *Session) transferIn(buf Buffer, res *ExecutionResult) {
	if resident, ok := s.arena[buf.Name()]; ok {
		// Refresh the existing device copy in place.
		if err := buf.copyInto(resident); err == nil {
			s.afterTransferIn(buf, res)
			return
		}
	}
	s.arena[buf.Name()] = buf.clone()
	s.afterTransferIn(buf, res)
}

func (s *Session) afterTransferIn(buf Buffer, res *ExecutionResult) {
	s.transferredIn[buf.Name()] = true
	s.transferCounts[buf.Name()]++
	res.HostToDevice++
	metrics.BufferTransfers.WithLabelValues(s.graph.name, metrics.HostToDevice).Inc()
}

func (s *Session) transferOut(buf Buffer, res *ExecutionResult) error {
	resident, ok := s.arena[buf.Name()]
	if !ok {
		return errors.Errorf("buffer %s produced no device copy", buf.Name())
	}
	if err := resident.copyInto(buf); err != nil {
		return err
	}
	res.DeviceToHost++
	metrics.BufferTransfers.WithLabelValues(s.graph.name, metrics.DeviceToHost).Inc()
	return nil
}
