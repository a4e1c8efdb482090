package transport

import (
	"context"
	"net"

	ncerr "dualnet/internal/errors"
	"dualnet/sock"
	"dualnet/util"
)

// UDPDialer binds a datagram socket of the destination's family through
// the socket factory and connects it, so the returned *net.UDPConn
// reads and writes only that peer.
type UDPDialer struct {
	LocalPort int // optional source-port binding (0 = ephemeral)
}

// Dial binds an ephemeral (or LocalPort) endpoint on the unspecified
// address of the family and connects it to address.  No packets are
// sent, so success says nothing about reachability.
func (d *UDPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, ncerr.Wrap("dial", address, err)
	}
	ap, f, err := target(network, address, false)
	if err != nil {
		return nil, err
	}

	k := sock.Kind{Transport: sock.Datagram, Family: f}
	s, err := sock.Bind(k, util.FormatAddr(util.Wildcard(f == sock.IPv6), d.LocalPort))
	if err != nil {
		return nil, err
	}
	if err := s.Connect(ap); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s.Conn()
}

// Close is a no-op for stateless UDP dialers.
func (d *UDPDialer) Close() error { return nil }
