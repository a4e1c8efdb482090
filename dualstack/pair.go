package dualstack

import (
	"net"

	"dualnet/sock"
)

// NewUDPPair returns two loopback datagram connections, each connected
// to the other.  Both are built by the socket factory.
func NewUDPPair() (net.Conn, net.Conn, error) {
	a, err := sock.Bind(sock.UDP4, "127.0.0.1:0")
	if err != nil {
		return nil, nil, err
	}
	b, err := sock.Bind(sock.UDP4, "127.0.0.1:0")
	if err != nil {
		a.Close() //nolint:errcheck
		return nil, nil, err
	}

	fail := func(err error) (net.Conn, net.Conn, error) {
		a.Close() //nolint:errcheck
		b.Close() //nolint:errcheck
		return nil, nil, err
	}

	addrA, err := a.LocalAddr()
	if err != nil {
		return fail(err)
	}
	addrB, err := b.LocalAddr()
	if err != nil {
		return fail(err)
	}
	if err := a.Connect(addrB); err != nil {
		return fail(err)
	}
	if err := b.Connect(addrA); err != nil {
		return fail(err)
	}

	ca, err := a.Conn()
	if err != nil {
		return fail(err)
	}
	cb, err := b.Conn()
	if err != nil {
		ca.Close()
		return fail(err)
	}
	return ca, cb, nil
}
