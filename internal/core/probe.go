package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"dualnet/dualstack"
	"dualnet/internal/metrics"
	"dualnet/internal/retry"
	"dualnet/sock"
	"dualnet/util"
	"dualnet/wire"
)

var (
	// ErrNoReply is returned when a probe run saw no echo reply at all.
	ErrNoReply = errors.New("no echo replies")

	errLost        = errors.New("echo lost")
	errBadChecksum = errors.New("bad checksum")
)

// ProbeMode sends ICMP echo requests to every reachable family of a
// host and reports per-family loss and round-trip time.
type ProbeMode struct {
	Resolver *dualstack.Resolver
	Dialer   *dualstack.Dialer
	Host     string
	Count    int
	Interval time.Duration
	Wait     time.Duration // per-reply deadline
	MaxLoss  int           // consecutive lost rounds before giving up; 0 never
	Progress bool
	Logger   *util.Logger
	Metrics  *metrics.Collector

	// Stdout defaults to os.Stdout when nil.
	Stdout io.Writer

	// ID is the echo identifier; zero uses the process id.
	ID int
}

// probeTarget is one family's connected raw socket and its tally.
type probeTarget struct {
	family   sock.Family
	conn     net.Conn
	sent     int
	received int
	rtt      time.Duration
}

// Run resolves the host, opens a raw ICMP socket per family and sends
// Count rounds of echo requests.
func (m *ProbeMode) Run(ctx context.Context) error {
	addr, err := m.Resolver.Resolve(ctx, m.Host, 0)
	if err != nil {
		return err
	}
	m.Logger.Verbose("probing %s (%s)", m.Host, addr)

	o, err := m.Dialer.DialICMP(ctx, addr)
	if err != nil {
		return err
	}
	defer dualstack.CloseAll(o) //nolint:errcheck

	var targets []*probeTarget
	if o.HasV4 {
		targets = append(targets, &probeTarget{family: sock.IPv4, conn: o.V4})
	}
	if o.HasV6 {
		targets = append(targets, &probeTarget{family: sock.IPv6, conn: o.V6})
	}

	id := m.ID
	if id == 0 {
		id = os.Getpid()
	}
	id &= 0xffff

	var bar *progressbar.ProgressBar
	if m.Progress {
		bar = progressbar.NewOptions(m.Count*len(targets),
			progressbar.OptionSetWriter(m.Logger.Writer()),
			progressbar.OptionSetDescription("probe "+m.Host),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Close()
	}

	var breaker *retry.CircuitBreaker
	if m.MaxLoss > 0 {
		breaker = retry.NewCircuitBreaker(m.MaxLoss)
	}

	for seq := 1; seq <= m.Count; seq++ {
		if breaker != nil {
			if err := breaker.Allow(); err != nil {
				m.Logger.Warn("giving up on %s: %v", m.Host, err)
				break
			}
		}

		lost := true
		for _, t := range targets {
			rtt, err := m.echo(ctx, t, id, seq)
			if bar != nil {
				bar.Add(1) //nolint:errcheck
			}
			if err != nil {
				if ctx.Err() != nil {
					return m.report(targets)
				}
				m.Logger.Verbose("%s seq=%d: %v", t.family, seq, err)
				continue
			}
			lost = false
			m.Logger.Verbose("%s seq=%d rtt=%v", t.family, seq, rtt)
		}
		if breaker != nil {
			if lost {
				breaker.Record(errLost)
			} else {
				breaker.Record(nil)
			}
		}

		if seq < m.Count {
			select {
			case <-ctx.Done():
				return m.report(targets)
			case <-time.After(m.Interval):
			}
		}
	}
	return m.report(targets)
}

// echo sends one request on t and waits for the matching reply.
func (m *ProbeMode) echo(ctx context.Context, t *probeTarget, id, seq int) (time.Duration, error) {
	req, err := echoRequest(t.family, id, seq)
	if err != nil {
		return 0, err
	}

	deadline := time.Now().Add(m.Wait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	t.conn.SetReadDeadline(deadline) //nolint:errcheck
	stop := context.AfterFunc(ctx, func() { t.conn.SetReadDeadline(time.Now()) }) //nolint:errcheck
	defer stop()

	start := time.Now()
	if _, err := t.conn.Write(req); err != nil {
		m.Metrics.RecordError(err.Error())
		return 0, err
	}
	t.sent++
	m.Metrics.EchoSent()
	m.Metrics.BytesSent(int64(len(req)))

	bufp := util.GetDatagramBuf()
	defer util.PutDatagramBuf(bufp)
	buf := *bufp

	for {
		n, err := t.conn.Read(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return 0, errLost
			}
			return 0, err
		}
		m.Metrics.BytesReceived(int64(n))

		reply, err := decodeEcho(t.family, buf[:n])
		if errors.Is(err, errBadChecksum) {
			m.Metrics.PacketChecked(false)
			continue
		}
		if err != nil || reply == nil || reply.ID != id || reply.Seq != seq {
			continue
		}
		if t.family == sock.IPv4 {
			m.Metrics.PacketChecked(true)
		}

		rtt := time.Since(start)
		t.received++
		t.rtt += rtt
		m.Metrics.EchoReceived(rtt)
		return rtt, nil
	}
}

// report prints a per-family summary and returns ErrNoReply when no
// family answered.
func (m *ProbeMode) report(targets []*probeTarget) error {
	out := stdio{Stdout: m.Stdout}.stdout()
	answered := false
	for _, t := range targets {
		loss := 0.0
		if t.sent > 0 {
			loss = 100 * float64(t.sent-t.received) / float64(t.sent)
		}
		line := fmt.Sprintf("%s %s: %d sent, %d received, %.0f%% loss",
			t.family, t.conn.RemoteAddr(), t.sent, t.received, loss)
		if t.received > 0 {
			answered = true
			line += fmt.Sprintf(", avg rtt %v", (t.rtt / time.Duration(t.received)).Round(time.Microsecond))
		}
		fmt.Fprintln(out, line)
	}
	if !answered {
		return fmt.Errorf("%s: %w", m.Host, ErrNoReply)
	}
	return nil
}

// ── ICMP framing ─────────────────────────────────────────────────────

func icmpProtocol(f sock.Family) int {
	if f == sock.IPv6 {
		return ipv6.ICMPTypeEchoRequest.Protocol()
	}
	return ipv4.ICMPTypeEcho.Protocol()
}

// echoRequest marshals an echo request.  IPv6 requests leave the
// checksum to the kernel.
func echoRequest(f sock.Family, id, seq int) ([]byte, error) {
	var typ icmp.Type = ipv4.ICMPTypeEcho
	if f == sock.IPv6 {
		typ = ipv6.ICMPTypeEchoRequest
	}
	msg := icmp.Message{
		Type: typ,
		Body: &icmp.Echo{ID: id, Seq: seq, Data: []byte("dualnet")},
	}
	return msg.Marshal(nil)
}

// decodeEcho extracts an echo reply from a raw socket read.  IPv4 reads
// carry the IP header, which is stripped and the ICMP checksum
// verified; the kernel verifies ICMPv6 checksums itself.  Other message
// types return a nil reply.
func decodeEcho(f sock.Family, b []byte) (*icmp.Echo, error) {
	var want icmp.Type = ipv6.ICMPTypeEchoReply
	if f == sock.IPv4 {
		b = wire.StripIPv4Header(b)
		if !wire.Valid(b) {
			return nil, errBadChecksum
		}
		want = ipv4.ICMPTypeEchoReply
	}

	msg, err := icmp.ParseMessage(icmpProtocol(f), b)
	if err != nil {
		return nil, err
	}
	if msg.Type != want {
		return nil, nil
	}
	echo, ok := msg.Body.(*icmp.Echo)
	if !ok {
		return nil, nil
	}
	return echo, nil
}
