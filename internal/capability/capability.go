// Package capability defines what happens over an established
// connection.  Each Capability encapsulates a single behaviour (relay
// stdio, echo the peer) and operates on a Session rather than a raw
// net.Conn, which keeps capabilities testable.
package capability

import (
	"context"

	"dualnet/internal/session"
)

// Capability handles a single connection according to a specific
// behaviour.
type Capability interface {
	// Handle runs the capability against the given session.
	// It blocks until the connection is done or the context is
	// cancelled.
	Handle(ctx context.Context, sess *session.Session) error
}
