package sock

// Socket owns one system socket descriptor.  It has a single logical
// owner; Listener, PacketConn and Conn transfer the descriptor to the net
// package and leave the Socket closed.
type Socket struct {
	fd   int
	kind Kind
}

// Kind returns the transport and family the socket was opened with.
func (s *Socket) Kind() Kind { return s.kind }

// Fd returns the raw descriptor, or -1 once the socket has been closed
// or converted.
func (s *Socket) Fd() int { return s.fd }
