// Package transport opens single-family outbound connections.  Each
// Dialer handles one transport (stream, datagram or raw ICMP); the
// dual-stack layer picks the family and calls Dial once per family.
package transport

import (
	"context"
	"net"
	"net/netip"
	"strings"

	ncerr "dualnet/internal/errors"
	"dualnet/sock"
)

// Dialer opens outbound network connections.  Implementations include
// the plain TCP, UDP and ICMP dialers and an SSH-tunnelled dialer that
// routes stream traffic through a gateway.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	// network names a family ("tcp4", "udp6", "ip4:icmp", ...).
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}

// networkFamily reports the family a net-style network name pins, if
// any: "tcp4" and "ip4:icmp" are IPv4, "udp6" and "ip6:ipv6-icmp" IPv6.
func networkFamily(network string) (sock.Family, bool) {
	name, _, _ := strings.Cut(network, ":")
	switch {
	case strings.HasSuffix(name, "4"):
		return sock.IPv4, true
	case strings.HasSuffix(name, "6"):
		return sock.IPv6, true
	}
	return 0, false
}

// target parses a literal destination.  Raw sockets have no ports, so
// when portless is set a bare address is accepted and any port dropped.
func target(network, address string, portless bool) (netip.AddrPort, sock.Family, error) {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		if !portless {
			return netip.AddrPort{}, 0, ncerr.InvalidAddress(address, "", err)
		}
		a, err2 := netip.ParseAddr(strings.Trim(address, "[]"))
		if err2 != nil {
			return netip.AddrPort{}, 0, ncerr.InvalidAddress(address, "", err)
		}
		ap = netip.AddrPortFrom(a, 0)
	}
	if portless {
		ap = netip.AddrPortFrom(ap.Addr(), 0)
	}

	f := sock.FamilyOf(ap.Addr())
	if want, ok := networkFamily(network); ok && want != f {
		return netip.AddrPort{}, 0, ncerr.InvalidAddress(address, want.String(), ncerr.ErrWrongFamily)
	}
	return ap, f, nil
}
