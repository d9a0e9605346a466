// Package migration serves the live task-migration protocol: a peer
// retargets a running offload session to another device by sending
// plaintext "<backendIndex>:<deviceIndex>" lines, and every accepted
// line triggers one execution of the session's graph on the newly bound
// device.
package migration

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"net"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/heterokit/offload/internal/device"
	"github.com/heterokit/offload/internal/graph"
	"github.com/heterokit/offload/internal/kernels"
	"github.com/heterokit/offload/internal/metrics"
)

// DefaultVectorSize is the demo buffer length each connection computes
// over.
const DefaultVectorSize = 256

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithVectorSize overrides the per-connection demo buffer length.
func WithVectorSize(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.vectorSize = n
		}
	}
}

// Server accepts migration connections. Each connection owns a private
// session and buffers; workers share nothing but read-only access to the
// device registry.
type Server struct {
	reg        device.Registry
	log        *zap.Logger
	vectorSize int
}

// NewServer creates a migration server resolving devices through reg.
func NewServer(reg device.Registry, logger *zap.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		reg:        reg,
		log:        logger.Named("migration"),
		vectorSize: DefaultVectorSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", addr)
	}
	s.log.Info("listening", zap.String("address", l.Addr().String()))
	return s.Serve(ctx, l)
}

// Serve accepts connections from l until ctx is done, handing each one
// to its own worker goroutine.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	go func() {
		<-ctx.Done()
		l.Close()
	}()
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "accepting connection")
		}
		go s.handle(conn)
	}
}

// handle runs one connection's request loop. All connection-scoped
// resources are released on every exit path.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	log := s.log.With(
		zap.String("conn", uuid.NewString()),
		zap.String("peer", conn.RemoteAddr().String()))
	log.Info("client connected")
	metrics.ActiveConnections.Inc()
	defer metrics.ActiveConnections.Dec()

	in := graph.NewF32("a", s.vectorSize)
	out := graph.NewF32("b", s.vectorSize)
	g, err := graph.New("s0", kernels.Double(in, out))
	if err != nil {
		log.Error("building graph", zap.Error(err))
		return
	}
	session := graph.NewSession(s.reg, g, log)
	rng := rand.New(rand.NewSource(rand.Int63()))

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if line == Sentinel {
			log.Info("client ended session")
			return
		}

		requested, parsed := ParseSelector(line)
		normalized, clamped := NormalizeSelector(requested, s.reg)
		if !parsed || clamped {
			log.Warn("selector normalized",
				zap.String("request", line),
				zap.String("selected", normalized.String()))
			metrics.NormalizedSelectors.Inc()
		}

		// Normalized pairs are in range, so resolution only fails if the
		// registry breaks its contract; that is fatal for this
		// connection, not for the listener.
		dev, err := s.reg.Device(normalized.Backend, normalized.Device)
		if err != nil {
			log.Error("resolving normalized device", zap.String("selected", normalized.String()), zap.Error(err))
			return
		}
		session.WithDevice(normalized)
		log.Info("session migrated",
			zap.String("device", dev.Name()),
			zap.String("selected", normalized.String()))
		metrics.DeviceMigrations.WithLabelValues(strconv.Itoa(normalized.Backend)).Inc()

		// Acknowledge with the normalized selector before executing.
		if _, err := fmt.Fprintf(conn, "%s\n", normalized); err != nil {
			log.Error("writing acknowledgment", zap.Error(err))
			return
		}

		for i := range in.Data {
			in.Data[i] = rng.Float32()
		}
		res, err := session.Execute()
		if err != nil {
			// Fatal for this cycle only; keep serving request lines.
			log.Error("execution failed", zap.Error(err))
			continue
		}
		log.Info("executed",
			zap.String("device", res.DeviceName),
			zap.Duration("total", res.Total))
	}
	if err := scanner.Err(); err != nil {
		log.Warn("connection read failed", zap.Error(err))
		return
	}
	log.Info("client disconnected")
}
