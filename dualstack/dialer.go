package dualstack

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/sync/errgroup"

	ncerr "dualnet/internal/errors"
	"dualnet/internal/metrics"
	"dualnet/internal/transport"
	"dualnet/sock"
	"dualnet/util"
)

// Dialer dials DualAddrs.  The zero value uses plain TCP, UDP and ICMP
// transports, dials both families concurrently, and neither logs nor
// counts.
type Dialer struct {
	// Per-transport dialers; nil selects the plain one.
	TCP  transport.Dialer
	UDP  transport.Dialer
	ICMP transport.Dialer

	// Sequential dials IPv4 then IPv6 instead of both at once.
	Sequential bool

	Logger  *util.Logger
	Metrics *metrics.Collector
}

// DialTCP opens a stream connection to each family of a.
func (d *Dialer) DialTCP(ctx context.Context, a DualAddr) (Outcome[net.Conn], error) {
	return d.dial(ctx, sock.Stream, a)
}

// DialUDP binds an ephemeral datagram socket per family of a and
// connects it.  Success does not imply the peer is reachable.
func (d *Dialer) DialUDP(ctx context.Context, a DualAddr) (Outcome[net.Conn], error) {
	return d.dial(ctx, sock.Datagram, a)
}

// DialICMP opens a raw ICMP socket per family of a, connected to the
// address; ports are ignored.  IPv4 reads include the IP header.
func (d *Dialer) DialICMP(ctx context.Context, a DualAddr) (Outcome[net.Conn], error) {
	return d.dial(ctx, sock.RawICMP, a)
}

// DialTCP dials a with a zero Dialer.
func DialTCP(ctx context.Context, a DualAddr) (Outcome[net.Conn], error) {
	return (&Dialer{}).DialTCP(ctx, a)
}

// DialUDP dials a with a zero Dialer.
func DialUDP(ctx context.Context, a DualAddr) (Outcome[net.Conn], error) {
	return (&Dialer{}).DialUDP(ctx, a)
}

// DialICMP dials a with a zero Dialer.
func DialICMP(ctx context.Context, a DualAddr) (Outcome[net.Conn], error) {
	return (&Dialer{}).DialICMP(ctx, a)
}

func (d *Dialer) transport(t sock.Transport) transport.Dialer {
	switch t {
	case sock.Stream:
		if d.TCP != nil {
			return d.TCP
		}
		return &transport.TCPDialer{}
	case sock.Datagram:
		if d.UDP != nil {
			return d.UDP
		}
		return &transport.UDPDialer{}
	default:
		if d.ICMP != nil {
			return d.ICMP
		}
		return &transport.ICMPDialer{}
	}
}

func (d *Dialer) dial(ctx context.Context, t sock.Transport, a DualAddr) (Outcome[net.Conn], error) {
	tr := d.transport(t)
	log := d.Logger.Named("dualstack")

	switch a := a.(type) {
	case V4:
		c, err := d.one(ctx, tr, sock.Kind{Transport: t, Family: sock.IPv4}, a.Addr)
		if err != nil {
			return Outcome[net.Conn]{}, err
		}
		return Some4(c), nil

	case V6:
		c, err := d.one(ctx, tr, sock.Kind{Transport: t, Family: sock.IPv6}, a.Addr)
		if err != nil {
			return Outcome[net.Conn]{}, err
		}
		return Some6(c), nil

	case Both:
		var (
			c4, c6     net.Conn
			err4, err6 error
		)
		dial4 := func() error {
			c4, err4 = d.one(ctx, tr, sock.Kind{Transport: t, Family: sock.IPv4}, a.V4)
			return nil
		}
		dial6 := func() error {
			c6, err6 = d.one(ctx, tr, sock.Kind{Transport: t, Family: sock.IPv6}, a.V6)
			return nil
		}
		if d.Sequential {
			dial4() //nolint:errcheck
			dial6() //nolint:errcheck
		} else {
			// Plain Group, no WithContext: both closures return nil and
			// each family's error goes to Combine, so one failing never
			// cancels the other.
			var g errgroup.Group
			g.Go(dial4)
			g.Go(dial6)
			g.Wait() //nolint:errcheck
		}

		o, err := Combine(c4, err4, c6, err6)
		if err != nil {
			log.Verbose("%s %s: %v", t, a.V6, err6)
			return o, err
		}
		switch {
		case err4 != nil:
			log.Verbose("%s %s unreachable, continuing on ipv6: %v", t, a.V4, err4)
			d.Metrics.PartialOutcome()
		case err6 != nil:
			log.Verbose("%s %s unreachable, continuing on ipv4: %v", t, a.V6, err6)
			d.Metrics.PartialOutcome()
		}
		return o, nil
	}

	return Outcome[net.Conn]{}, fmt.Errorf("%w: address type %T", ncerr.ErrUnsupported, a)
}

// one dials a single family and keeps the metrics.
func (d *Dialer) one(ctx context.Context, tr transport.Dialer, k sock.Kind, ap netip.AddrPort) (net.Conn, error) {
	log := d.Logger.Named("dualstack")
	d.Metrics.DialAttempt(k.Family)

	c, err := tr.Dial(ctx, k.Network(), ap.String())
	if err != nil {
		d.Metrics.DialFailure(k.Family)
		log.Debug("%s %s: %v", k, ap, err)
		return nil, err
	}
	log.Debug("%s %s connected from %s", k, ap, c.LocalAddr())
	return c, nil
}
