// Package dualstack dials destinations that may be reachable over IPv4,
// IPv6 or both, keeping every connection that succeeds.
//
// A [DualAddr] names the destination; [Combine] merges the two
// per-family results into an [Outcome].  When both families fail the
// IPv4 error is the one reported.
package dualstack

import (
	"fmt"
	"net/netip"
	"strings"

	ncerr "dualnet/internal/errors"
	"dualnet/sock"
)

// DualAddr is a destination on IPv4, IPv6 or both.  The only
// implementations are [V4], [V6] and [Both].
type DualAddr interface {
	String() string
	dualAddr()
}

// V4 is an IPv4-only destination.
type V4 struct{ Addr netip.AddrPort }

// V6 is an IPv6-only destination.
type V6 struct{ Addr netip.AddrPort }

// Both is a destination reachable on either family.
type Both struct{ V4, V6 netip.AddrPort }

func (V4) dualAddr()   {}
func (V6) dualAddr()   {}
func (Both) dualAddr() {}

func (a V4) String() string   { return a.Addr.String() }
func (a V6) String() string   { return a.Addr.String() }
func (a Both) String() string { return a.V4.String() + "," + a.V6.String() }

// FromAddrPorts builds a DualAddr from at most one address per family.
// Invalid (zero) arguments are treated as absent.
func FromAddrPorts(v4, v6 netip.AddrPort) (DualAddr, error) {
	if v4.IsValid() && sock.FamilyOf(v4.Addr()) != sock.IPv4 {
		return nil, ncerr.InvalidAddress(v4.String(), "ipv4", ncerr.ErrWrongFamily)
	}
	if v6.IsValid() && sock.FamilyOf(v6.Addr()) != sock.IPv6 {
		return nil, ncerr.InvalidAddress(v6.String(), "ipv6", ncerr.ErrWrongFamily)
	}
	switch {
	case v4.IsValid() && v6.IsValid():
		return Both{V4: v4, V6: v6}, nil
	case v4.IsValid():
		return V4{Addr: v4}, nil
	case v6.IsValid():
		return V6{Addr: v6}, nil
	}
	return nil, ncerr.ErrNoAddress
}

// Parse reads "a:p" or "a:p,[b]:p" (one address per family, either
// order) as printed by DualAddr.String.
func Parse(s string) (DualAddr, error) {
	var v4, v6 netip.AddrPort
	parts := strings.Split(s, ",")
	if len(parts) > 2 {
		return nil, ncerr.InvalidAddress(s, "", fmt.Errorf("more than two addresses"))
	}
	for _, p := range parts {
		ap, err := netip.ParseAddrPort(strings.TrimSpace(p))
		if err != nil {
			return nil, ncerr.InvalidAddress(s, "", err)
		}
		slot := &v4
		if sock.FamilyOf(ap.Addr()) == sock.IPv6 {
			slot = &v6
		}
		if slot.IsValid() {
			return nil, ncerr.InvalidAddress(s, sock.FamilyOf(ap.Addr()).String(),
				fmt.Errorf("two addresses of the same family"))
		}
		*slot = ap
	}
	return FromAddrPorts(v4, v6)
}

// Families lists the families a covers, IPv4 first.
func Families(a DualAddr) []sock.Family {
	switch a.(type) {
	case V4:
		return []sock.Family{sock.IPv4}
	case V6:
		return []sock.Family{sock.IPv6}
	case Both:
		return []sock.Family{sock.IPv4, sock.IPv6}
	}
	return nil
}
