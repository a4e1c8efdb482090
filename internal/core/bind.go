package core

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"golang.org/x/net/icmp"

	"dualnet/internal/capability"
	"dualnet/internal/metrics"
	"dualnet/internal/session"
	"dualnet/sock"
	"dualnet/util"
	"dualnet/wire"
)

// BindMode binds one socket through the factory and serves it.
//
//   - Stream: accept connections and run Capability on each.  With
//     KeepOpen every connection gets its own goroutine; otherwise the
//     first connection is served and Run returns.
//   - Datagram: write every datagram to stdout, or send it back when
//     Echo is set.
//   - Raw ICMP: strip the IPv4 header, verify the checksum and log one
//     line per message.
type BindMode struct {
	Kind       sock.Kind
	Address    string
	KeepOpen   bool
	Echo       bool
	Capability capability.Capability
	Logger     *util.Logger
	Metrics    *metrics.Collector

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	Stdin  io.Reader
	Stdout io.Writer

	// Ready, if set, receives the bound address once the socket is
	// live.
	Ready func(net.Addr)
}

// Run binds the socket and serves it until ctx is cancelled or, for
// stream sockets without KeepOpen, the first connection finishes.
func (m *BindMode) Run(ctx context.Context) error {
	s, err := sock.Bind(m.Kind, m.Address)
	if err != nil {
		m.Metrics.RecordError(err.Error())
		return err
	}
	m.Metrics.SocketBound()

	switch m.Kind.Transport {
	case sock.Stream:
		ln, err := s.Listener()
		if err != nil {
			return err
		}
		defer ln.Close()
		m.ready(ln.Addr())
		return m.serveStream(ctx, ln)
	default:
		pc, err := s.PacketConn()
		if err != nil {
			return err
		}
		defer pc.Close()
		m.ready(pc.LocalAddr())
		if m.Kind.Transport == sock.Datagram {
			return m.serveDatagram(ctx, pc)
		}
		return m.serveICMP(ctx, pc)
	}
}

func (m *BindMode) ready(addr net.Addr) {
	m.Logger.Verbose("bound %s on %s", m.Kind, addr)
	if m.Ready != nil {
		m.Ready(addr)
	}
}

func (m *BindMode) local() stdio { return stdio{Stdin: m.Stdin, Stdout: m.Stdout} }

// ── Stream ───────────────────────────────────────────────────────────

func (m *BindMode) serveStream(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		m.Logger.Verbose("connection from %s", conn.RemoteAddr())

		if !m.KeepOpen {
			return m.serveConn(ctx, conn)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.serveConn(ctx, conn); err != nil {
				m.Logger.Warn("%s: %v", conn.RemoteAddr(), err)
			}
		}()
	}
}

func (m *BindMode) serveConn(ctx context.Context, conn net.Conn) error {
	defer conn.Close()
	m.Metrics.ConnectionOpened()
	defer m.Metrics.ConnectionClosed()

	sess := session.New(conn, m.local().stdin(), m.local().stdout(), m.Logger)
	sess.Metrics = m.Metrics
	return m.Capability.Handle(ctx, sess)
}

// ── Datagram ─────────────────────────────────────────────────────────

func (m *BindMode) serveDatagram(ctx context.Context, pc net.PacketConn) error {
	stop := context.AfterFunc(ctx, func() { pc.Close() })
	defer stop()

	bufp := util.GetDatagramBuf()
	defer util.PutDatagramBuf(bufp)
	buf := *bufp
	out := m.local().stdout()

	for {
		n, peer, err := pc.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || util.IsHarmless(err) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		m.Metrics.BytesReceived(int64(n))
		m.Logger.Debug("%d bytes from %s", n, peer)

		if m.Echo {
			if _, err := pc.WriteTo(buf[:n], peer); err != nil {
				m.Logger.Warn("echo to %s: %v", peer, err)
				continue
			}
			m.Metrics.BytesSent(int64(n))
			continue
		}
		if _, err := out.Write(buf[:n]); err != nil {
			return err
		}
	}
}

// ── Raw ICMP ─────────────────────────────────────────────────────────

func (m *BindMode) serveICMP(ctx context.Context, pc net.PacketConn) error {
	stop := context.AfterFunc(ctx, func() { pc.Close() })
	defer stop()

	bufp := util.GetDatagramBuf()
	defer util.PutDatagramBuf(bufp)
	buf := *bufp
	out := m.local().stdout()
	proto := icmpProtocol(m.Kind.Family)

	for {
		n, peer, err := pc.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || util.IsHarmless(err) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		m.Metrics.BytesReceived(int64(n))

		b := buf[:n]
		status := "ok"
		if m.Kind.Family == sock.IPv4 {
			b = wire.StripIPv4Header(b)
			valid := wire.Valid(b)
			m.Metrics.PacketChecked(valid)
			if !valid {
				status = "bad-checksum"
			}
		}

		msg, err := icmp.ParseMessage(proto, b)
		if err != nil {
			m.Logger.Debug("unparseable icmp from %s: %v", peer, err)
			continue
		}
		fmt.Fprintf(out, "%s %v code=%d len=%d checksum=%s\n", peer, msg.Type, msg.Code, len(b), status)
	}
}
