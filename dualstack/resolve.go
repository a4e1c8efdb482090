package dualstack

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"

	ncerr "dualnet/internal/errors"
	"dualnet/util"
)

// ResolvConf is read for a nameserver when Resolver.Server is empty.
var ResolvConf = "/etc/resolv.conf"

// Resolver turns a host name into a DualAddr by asking a nameserver for
// A and AAAA records in parallel.
type Resolver struct {
	// Server is the nameserver as "host:port".  Empty selects the first
	// nameserver in ResolvConf.
	Server string

	// Network restricts the lookup: "ip" (default), "ip4" or "ip6".
	Network string

	// Timeout bounds each query; zero means two seconds.
	Timeout time.Duration

	// NoDNS accepts only address literals.
	NoDNS bool

	Logger *util.Logger
}

// Resolve returns the destination for host on port.  An IP literal is
// used as is.  A name with both record types becomes Both; a name with
// one becomes V4 or V6.  When neither lookup produces an address the A
// lookup's error is returned.
func (r *Resolver) Resolve(ctx context.Context, host string, port int) (DualAddr, error) {
	if port < 0 || port > 65535 {
		return nil, ncerr.InvalidAddress(util.FormatAddr(host, port), "", fmt.Errorf("port out of range"))
	}
	p := uint16(port)

	if a, err := netip.ParseAddr(strings.Trim(host, "[]")); err == nil {
		ap := netip.AddrPortFrom(a, p)
		if ap.Addr().Is4() {
			if r.Network == "ip6" {
				return nil, ncerr.InvalidAddress(host, "ipv6", ncerr.ErrWrongFamily)
			}
			return FromAddrPorts(ap, netip.AddrPort{})
		}
		if r.Network == "ip4" {
			return nil, ncerr.InvalidAddress(host, "ipv4", ncerr.ErrWrongFamily)
		}
		return FromAddrPorts(netip.AddrPort{}, ap)
	}
	if r.NoDNS {
		return nil, ncerr.InvalidAddress(host, "", fmt.Errorf("not an IP address and DNS is disabled"))
	}

	server, err := r.server()
	if err != nil {
		return nil, err
	}
	log := r.Logger.Named("resolve")

	errSkipped := errors.New("family not requested")
	// The lookups return nil to the group and keep their own errors for
	// Combine, so a missing A record never cancels the AAAA query.
	var (
		a4, a6     netip.Addr
		err4, err6 = errSkipped, errSkipped
		g          errgroup.Group
	)
	if r.Network != "ip6" {
		g.Go(func() error {
			a4, err4 = r.lookup(ctx, server, host, dns.TypeA)
			return nil
		})
	}
	if r.Network != "ip4" {
		g.Go(func() error {
			a6, err6 = r.lookup(ctx, server, host, dns.TypeAAAA)
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	o, err := Combine(a4, err4, a6, err6)
	if err != nil {
		if errors.Is(err, errSkipped) {
			err = err6
		}
		return nil, err
	}
	log.Verbose("%s: A=%v AAAA=%v via %s", host, a4, a6, server)

	var v4, v6 netip.AddrPort
	if o.HasV4 {
		v4 = netip.AddrPortFrom(o.V4, p)
	}
	if o.HasV6 {
		v6 = netip.AddrPortFrom(o.V6, p)
	}
	return FromAddrPorts(v4, v6)
}

func (r *Resolver) server() (string, error) {
	if r.Server != "" {
		if _, _, err := net.SplitHostPort(r.Server); err != nil {
			return util.FormatAddr(r.Server, 53), nil
		}
		return r.Server, nil
	}
	cc, err := dns.ClientConfigFromFile(ResolvConf)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", ResolvConf, err)
	}
	if len(cc.Servers) == 0 {
		return "", fmt.Errorf("%s lists no nameserver", ResolvConf)
	}
	return net.JoinHostPort(cc.Servers[0], cc.Port), nil
}

// lookup returns the first address of type qtype for name.  Failures are
// *net.DNSError so callers can classify them like resolver errors.
func (r *Resolver) lookup(ctx context.Context, server, name string, qtype uint16) (netip.Addr, error) {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = 2 * time.Second
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true

	c := &dns.Client{Net: "udp", Timeout: timeout}
	in, _, err := c.ExchangeContext(ctx, m, server)
	if err == nil && in.Truncated {
		c = &dns.Client{Net: "tcp", Timeout: timeout}
		in, _, err = c.ExchangeContext(ctx, m, server)
	}
	if err != nil {
		var ne net.Error
		timedOut := errors.As(err, &ne) && ne.Timeout()
		return netip.Addr{}, &net.DNSError{
			Err: err.Error(), Name: name, Server: server,
			IsTimeout: timedOut, IsTemporary: timedOut,
		}
	}
	if in.Rcode != dns.RcodeSuccess {
		return netip.Addr{}, &net.DNSError{
			Err: dns.RcodeToString[in.Rcode], Name: name, Server: server,
			IsNotFound:  in.Rcode == dns.RcodeNameError,
			IsTemporary: in.Rcode == dns.RcodeServerFailure,
		}
	}

	for _, rr := range in.Answer {
		switch rr := rr.(type) {
		case *dns.A:
			if a, ok := netip.AddrFromSlice(rr.A.To4()); ok && qtype == dns.TypeA {
				return a, nil
			}
		case *dns.AAAA:
			if a, ok := netip.AddrFromSlice(rr.AAAA.To16()); ok && qtype == dns.TypeAAAA {
				return a, nil
			}
		}
	}
	return netip.Addr{}, &net.DNSError{
		Err: "no " + dns.TypeToString[qtype] + " record", Name: name, Server: server,
		IsNotFound: true,
	}
}
