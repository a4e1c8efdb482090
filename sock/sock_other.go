//go:build !unix

package sock

import (
	"net"
	"net/netip"

	ncerr "dualnet/internal/errors"
)

// Open is unsupported off unix.
func Open(k Kind) (*Socket, error) {
	return nil, ncerr.Wrap("socket", k.String(), ncerr.ErrUnsupported)
}

// Bind validates address and then reports that sockets are unsupported.
func Bind(k Kind, address string) (*Socket, error) {
	if _, err := ParseAddr(k.Family, address); err != nil {
		return nil, err
	}
	return Open(k)
}

func (s *Socket) Connect(ap netip.AddrPort) error {
	return ncerr.Wrap("connect", ap.String(), ncerr.ErrUnsupported)
}

func (s *Socket) LocalAddr() (netip.AddrPort, error) {
	return netip.AddrPort{}, ncerr.ErrUnsupported
}

func (s *Socket) Close() error { return nil }

func (s *Socket) Listener() (net.Listener, error) { return nil, ncerr.ErrUnsupported }

func (s *Socket) PacketConn() (net.PacketConn, error) { return nil, ncerr.ErrUnsupported }

func (s *Socket) Conn() (net.Conn, error) { return nil, ncerr.ErrUnsupported }
