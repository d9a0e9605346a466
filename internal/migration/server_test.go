package migration

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/heterokit/offload/internal/device"
)

func startServer(t *testing.T, reg device.Registry) (addr string, cancel context.CancelFunc) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(reg, zap.NewNop(), WithVectorSize(16))
	go func() {
		_ = srv.Serve(ctx, l)
	}()
	t.Cleanup(cancel)
	return l.Addr().String(), cancel
}

func sendAndEcho(t *testing.T, conn net.Conn, r *bufio.Reader, line string) string {
	t.Helper()
	_, err := fmt.Fprintf(conn, "%s\n", line)
	require.NoError(t, err)
	reply, err := r.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSuffix(reply, "\n")
}

func TestServerNormalizesAndEchoes(t *testing.T) {
	reg := device.NewStaticRegistry(1, 2)
	addr, _ := startServer(t, reg)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	r := bufio.NewReader(conn)

	// Valid selector echoes unchanged.
	assert.Equal(t, "1:1", sendAndEcho(t, conn, r, "1:1"))

	// Malformed selector normalizes to the default device.
	assert.Equal(t, "0:0", sendAndEcho(t, conn, r, "abc:def"))

	// Out-of-range backend clamps, then the device index is validated
	// against backend 0 (a single device) and clamps too.
	assert.Equal(t, "0:0", sendAndEcho(t, conn, r, "5:1"))

	// Out-of-range device on a valid backend.
	assert.Equal(t, "1:0", sendAndEcho(t, conn, r, "1:9"))
}

func TestServerSentinelClosesSession(t *testing.T) {
	reg := device.NewStaticRegistry(1)
	addr, _ := startServer(t, reg)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	r := bufio.NewReader(conn)

	assert.Equal(t, "0:0", sendAndEcho(t, conn, r, "0:0"))

	_, err = fmt.Fprintf(conn, "%s\n", Sentinel)
	require.NoError(t, err)

	// Server side closes; the next read reports EOF.
	_, err = r.ReadString('\n')
	assert.Error(t, err)
}

func TestServerHandlesConcurrentConnections(t *testing.T) {
	reg := device.NewStaticRegistry(2, 2)
	addr, _ := startServer(t, reg)

	const conns = 4
	done := make(chan error, conns)
	for c := 0; c < conns; c++ {
		go func(c int) {
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				done <- err
				return
			}
			defer conn.Close()
			r := bufio.NewReader(conn)
			for i := 0; i < 5; i++ {
				line := fmt.Sprintf("%d:%d", c%2, i%2)
				if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
					done <- err
					return
				}
				reply, err := r.ReadString('\n')
				if err != nil {
					done <- err
					return
				}
				if strings.TrimSuffix(reply, "\n") != line {
					done <- fmt.Errorf("connection %d: got echo %q, want %q", c, reply, line)
					return
				}
			}
			done <- nil
		}(c)
	}
	for c := 0; c < conns; c++ {
		require.NoError(t, <-done)
	}
}

func TestServerAbruptDisconnectLeavesListenerAlive(t *testing.T) {
	reg := device.NewStaticRegistry(1)
	addr, _ := startServer(t, reg)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	_, err = fmt.Fprintf(conn, "0:0\n")
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	// A new connection still works.
	conn2, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn2.Close()
	r := bufio.NewReader(conn2)
	assert.Equal(t, "0:0", sendAndEcho(t, conn2, r, "0:0"))
}
