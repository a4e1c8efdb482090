// Package sock creates and binds system sockets for a (transport,
// family) pair.
//
// Transport and family are independent axes combined in a Kind.  Stream
// and datagram IPv6 sockets are always IPV6_V6ONLY so an IPv4 socket can
// hold the same port number alongside them.
package sock

import (
	"fmt"
	"net/netip"
	"strings"

	ncerr "dualnet/internal/errors"
)

// Backlog is the listen queue length given to every stream socket.
const Backlog = 16

// Transport selects the socket type.
type Transport int

const (
	Stream Transport = iota
	Datagram
	RawICMP
)

func (t Transport) String() string {
	switch t {
	case Stream:
		return "tcp"
	case Datagram:
		return "udp"
	case RawICMP:
		return "icmp"
	default:
		return fmt.Sprintf("transport(%d)", int(t))
	}
}

// Family selects the address family.
type Family int

const (
	IPv4 Family = iota
	IPv6
)

func (f Family) String() string {
	if f == IPv6 {
		return "ipv6"
	}
	return "ipv4"
}

// Kind pairs a transport with an address family.
type Kind struct {
	Transport Transport
	Family    Family
}

// The six supported kinds.
var (
	TCP4  = Kind{Stream, IPv4}
	UDP4  = Kind{Datagram, IPv4}
	ICMP4 = Kind{RawICMP, IPv4}
	TCP6  = Kind{Stream, IPv6}
	UDP6  = Kind{Datagram, IPv6}
	ICMP6 = Kind{RawICMP, IPv6}
)

// String returns "tcp4", "udp6", "icmp4" and so on.
func (k Kind) String() string {
	if k.Family == IPv6 {
		return k.Transport.String() + "6"
	}
	return k.Transport.String() + "4"
}

// Network returns the name the net package uses for k: "tcp4", "udp6",
// "ip4:icmp" or "ip6:ipv6-icmp".
func (k Kind) Network() string {
	if k.Transport == RawICMP {
		if k.Family == IPv6 {
			return "ip6:ipv6-icmp"
		}
		return "ip4:icmp"
	}
	return k.String()
}

// ParseKind accepts the names printed by Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{TCP4, UDP4, ICMP4, TCP6, UDP6, ICMP6} {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return Kind{}, fmt.Errorf("unknown socket kind %q (want tcp4, udp4, icmp4, tcp6, udp6 or icmp6)", s)
}

// ParseTransport accepts "tcp", "udp" or "icmp".
func ParseTransport(s string) (Transport, error) {
	switch strings.ToLower(s) {
	case "tcp", "stream":
		return Stream, nil
	case "udp", "datagram":
		return Datagram, nil
	case "icmp", "raw":
		return RawICMP, nil
	}
	return 0, fmt.Errorf("unknown transport %q (want tcp, udp or icmp)", s)
}

// ParseAddr parses a textual "host:port" socket address for family f.
// IPv4 wants a dotted quad, IPv6 a bracketed address with optional zone.
// Failures are *errors.AddressError.
func ParseAddr(f Family, s string) (netip.AddrPort, error) {
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return netip.AddrPort{}, ncerr.InvalidAddress(s, f.String(), err)
	}
	if FamilyOf(ap.Addr()) != f {
		return netip.AddrPort{}, ncerr.InvalidAddress(s, f.String(), ncerr.ErrWrongFamily)
	}
	return ap, nil
}

// FamilyOf reports the family a is dialled on.  IPv4-mapped IPv6
// addresses count as IPv6.
func FamilyOf(a netip.Addr) Family {
	if a.Is4() {
		return IPv4
	}
	return IPv6
}
