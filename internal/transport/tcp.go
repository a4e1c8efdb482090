package transport

import (
	"context"
	"net"
	"time"

	ncerr "dualnet/internal/errors"
	"dualnet/sock"
	"dualnet/util"
)

// TCPDialer establishes plain TCP connections, optionally binding to a
// specific source port.
type TCPDialer struct {
	Timeout   time.Duration
	LocalPort int // optional source-port binding (0 = ephemeral)
}

// Dial connects to address over TCP.  With LocalPort set the source is
// the unspecified address of network's family on that port.
func (d *TCPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.Timeout}

	if d.LocalPort > 0 {
		f, ok := networkFamily(network)
		if !ok {
			if ap, _, err := target(network, address, false); err == nil {
				f = sock.FamilyOf(ap.Addr())
			}
		}
		local := util.FormatAddr(util.Wildcard(f == sock.IPv6), d.LocalPort)
		a, err := net.ResolveTCPAddr(network, local)
		if err != nil {
			return nil, ncerr.InvalidAddress(local, f.String(), err)
		}
		dialer.LocalAddr = a
	}

	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, ncerr.Wrap("dial", address, err)
	}
	return conn, nil
}

// Close is a no-op for stateless TCP dialers.
func (d *TCPDialer) Close() error { return nil }
