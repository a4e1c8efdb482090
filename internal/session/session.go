// Package session represents a single connection lifecycle, binding a
// network connection with I/O endpoints and shared context.
//
// Capabilities read and write through the session rather than touching
// os.Stdin or os.Stdout, so the same code runs against test buffers.
package session

import (
	"io"
	"net"

	"dualnet/internal/metrics"
	"dualnet/util"
)

// Session encapsulates the runtime context for a single connection.
type Session struct {
	Conn    net.Conn
	Stdin   io.Reader
	Stdout  io.Writer
	Logger  *util.Logger
	Metrics *metrics.Collector // optional
}

// New creates a Session bound to the given connection and I/O pair.
func New(conn net.Conn, stdin io.Reader, stdout io.Writer, logger *util.Logger) *Session {
	return &Session{
		Conn:   conn,
		Stdin:  stdin,
		Stdout: stdout,
		Logger: logger,
	}
}

// Input is Stdin with every byte read counted as sent to the peer.
func (s *Session) Input() io.Reader {
	if s.Metrics == nil {
		return s.Stdin
	}
	return &countingReader{r: s.Stdin, m: s.Metrics}
}

// Output is Stdout with every byte written counted as received from
// the peer.
func (s *Session) Output() io.Writer {
	if s.Metrics == nil {
		return s.Stdout
	}
	return &countingWriter{w: s.Stdout, m: s.Metrics}
}

type countingReader struct {
	r io.Reader
	m *metrics.Collector
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.m.BytesSent(int64(n))
	}
	return n, err
}

type countingWriter struct {
	w io.Writer
	m *metrics.Collector
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if n > 0 {
		c.m.BytesReceived(int64(n))
	}
	return n, err
}
