// Package tunnel routes stream dials through an SSH gateway.  The
// dual-stack dialer uses it in place of a direct TCP dial when a
// gateway is configured; datagram and raw ICMP traffic cannot cross it.
package tunnel

import (
	"context"
	"net"
)

// Tunnel abstracts an encrypted channel through which stream
// connections can be forwarded.
type Tunnel interface {
	// Connect establishes the tunnel to the gateway.
	Connect(ctx context.Context) error

	// Dial opens a connection to address through the tunnel.  Only
	// "tcp", "tcp4" and "tcp6" are accepted.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close tears down the tunnel and frees resources.
	Close() error

	// IsAlive reports whether the underlying connection is still up.
	IsAlive() bool
}
