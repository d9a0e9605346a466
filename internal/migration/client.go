package migration

import (
	"bufio"
	"fmt"
	"io"
	"net"

	"github.com/pkg/errors"
)

// RunClient connects to a migration server and forwards selector lines
// from input until EOF or the sentinel. Echoed acknowledgments are
// written to output. The loop mirrors the interactive demo: prompt,
// read a "<Backend:Device>" line, send it, print the server's echo.
func RunClient(addr string, input io.Reader, output io.Writer) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "connecting to %s", addr)
	}
	defer conn.Close()

	fmt.Fprintf(output, "Connected to %s\n", addr)
	stdin := bufio.NewScanner(input)
	replies := bufio.NewScanner(conn)

	for {
		fmt.Fprint(output, "[CLIENT] <Backend:Device> : ")
		if !stdin.Scan() {
			return stdin.Err()
		}
		line := stdin.Text()
		if line == Sentinel {
			return nil
		}
		if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
			return errors.Wrap(err, "sending selector")
		}
		if !replies.Scan() {
			if err := replies.Err(); err != nil {
				return errors.Wrap(err, "reading acknowledgment")
			}
			return errors.New("server closed the connection")
		}
		fmt.Fprintf(output, "[SERVER] %s\n", replies.Text())
	}
}
