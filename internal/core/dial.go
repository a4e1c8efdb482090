package core

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"dualnet/dualstack"
	"dualnet/internal/capability"
	ncerr "dualnet/internal/errors"
	"dualnet/internal/metrics"
	"dualnet/internal/retry"
	"dualnet/internal/session"
	"dualnet/sock"
	"dualnet/util"
)

// DialMode resolves a host, dials every family it has and runs a
// capability over the first live connection.  Resolution and dialing
// are retried together under Backoff.
type DialMode struct {
	Resolver   *dualstack.Resolver
	Dialer     *dualstack.Dialer
	Transport  sock.Transport // Stream or Datagram
	Host       string
	Port       int
	Backoff    *retry.Backoff
	Capability capability.Capability
	Logger     *util.Logger
	Metrics    *metrics.Collector

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	Stdin  io.Reader
	Stdout io.Writer
}

// Run dials, creates a session, and hands it to the capability.  The
// transports are closed when Run returns.
func (m *DialMode) Run(ctx context.Context) error {
	defer m.closeTransports()

	address := util.FormatAddr(m.Host, m.Port)
	m.Logger.Verbose("dialing %s (%s)", address, m.Transport)

	var conn net.Conn
	var family sock.Family
	err := m.backoff().Do(ctx, func(attempt int) error {
		c, f, err := m.dialOnce(ctx)
		if err != nil {
			m.Metrics.RecordError(err.Error())
			if !ncerr.IsRetryable(err) {
				return retry.Permanent(err)
			}
			return err
		}
		conn, family = c, f
		return nil
	})
	if err != nil {
		return fmt.Errorf("dial %s: %w", address, err)
	}
	defer conn.Close()

	m.Metrics.ConnectionOpened()
	defer m.Metrics.ConnectionClosed()
	m.Logger.Verbose("connected to %s over %s", conn.RemoteAddr(), family)

	sess := session.New(conn, stdio{m.Stdin, m.Stdout}.stdin(), stdio{m.Stdin, m.Stdout}.stdout(), m.Logger)
	sess.Metrics = m.Metrics
	return m.Capability.Handle(ctx, sess)
}

// dialOnce resolves and dials once, keeping the first connection of the
// outcome and closing the other.
func (m *DialMode) dialOnce(ctx context.Context) (net.Conn, sock.Family, error) {
	addr, err := m.Resolver.Resolve(ctx, m.Host, m.Port)
	if err != nil {
		return nil, 0, err
	}
	m.Logger.Debug("%s resolved to %s", m.Host, addr)

	var o dualstack.Outcome[net.Conn]
	if m.Transport == sock.Datagram {
		o, err = m.Dialer.DialUDP(ctx, addr)
	} else {
		o, err = m.Dialer.DialTCP(ctx, addr)
	}
	if err != nil {
		return nil, 0, err
	}

	conn, family, _ := o.First()
	if o.HasV4 && o.HasV6 {
		o.V6.Close()
	}
	return conn, family, nil
}

func (m *DialMode) backoff() *retry.Backoff {
	b := m.Backoff
	if b == nil {
		b = retry.DefaultBackoff()
	}
	if b.OnRetry == nil {
		b.OnRetry = func(attempt int, wait time.Duration, err error) {
			m.Logger.Warn("attempt %d failed: %v (retrying in %v)", attempt, err, wait.Round(time.Millisecond))
		}
	}
	return b
}

func (m *DialMode) closeTransports() {
	if m.Dialer == nil {
		return
	}
	for _, d := range []interface{ Close() error }{m.Dialer.TCP, m.Dialer.UDP} {
		if d != nil {
			d.Close()
		}
	}
}
