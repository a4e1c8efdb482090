package transport

import (
	"context"
	"net"

	ncerr "dualnet/internal/errors"
	"dualnet/sock"
)

// ICMPDialer opens a raw ICMP (IPv4) or ICMPv6 socket connected to a
// single peer.  The result is an *net.IPConn; on IPv4 every read
// returns the full datagram including the IP header.
//
// Raw sockets need CAP_NET_RAW; without it Dial fails with EPERM.
type ICMPDialer struct{}

// Dial accepts "addr" or "addr:port"; any port is ignored.
func (d *ICMPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, ncerr.Wrap("dial", address, err)
	}
	ap, f, err := target(network, address, true)
	if err != nil {
		return nil, err
	}

	s, err := sock.Open(sock.Kind{Transport: sock.RawICMP, Family: f})
	if err != nil {
		return nil, err
	}
	if err := s.Connect(ap); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s.Conn()
}

// Close is a no-op for stateless ICMP dialers.
func (d *ICMPDialer) Close() error { return nil }
