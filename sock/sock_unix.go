//go:build unix

package sock

import (
	"fmt"
	"net"
	"net/netip"
	"os"
	"strconv"

	"golang.org/x/sys/unix"

	ncerr "dualnet/internal/errors"
)

func (k Kind) params() (domain, typ, proto int) {
	domain = unix.AF_INET
	if k.Family == IPv6 {
		domain = unix.AF_INET6
	}
	switch k.Transport {
	case Stream:
		typ = unix.SOCK_STREAM
	case Datagram:
		typ = unix.SOCK_DGRAM
	case RawICMP:
		typ = unix.SOCK_RAW
		proto = unix.IPPROTO_ICMP
		if k.Family == IPv6 {
			proto = unix.IPPROTO_ICMPV6
		}
	}
	return domain, typ, proto
}

// Open creates an unbound socket for k.  Stream and datagram IPv6
// sockets are made IPv6-only here, before any bind.  Raw ICMPv6 sockets
// cannot carry IPv4 and the kernel refuses the option on them.
func Open(k Kind) (*Socket, error) {
	domain, typ, proto := k.params()
	fd, err := socket(domain, typ, proto)
	if err != nil {
		return nil, ncerr.Syscall("socket", k.String(), err)
	}

	s := &Socket{fd: fd, kind: k}
	if k.Family == IPv6 && k.Transport != RawICMP {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 1); err != nil {
			s.Close() //nolint:errcheck
			return nil, ncerr.Syscall("setsockopt", k.String(), err)
		}
	}
	return s, nil
}

// Bind parses address for k's family, opens a socket and binds it.
// Stream sockets are left listening with a backlog of [Backlog].
//
// A malformed address is reported as *errors.AddressError before any
// descriptor is created; OS failures are *errors.NetworkError.
func Bind(k Kind, address string) (*Socket, error) {
	ap, err := ParseAddr(k.Family, address)
	if err != nil {
		return nil, err
	}
	s, err := Open(k)
	if err != nil {
		return nil, err
	}

	sa, err := sockaddr(k.Family, ap)
	if err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	if err := unix.Bind(s.fd, sa); err != nil {
		s.Close() //nolint:errcheck
		return nil, ncerr.Syscall("bind", ap.String(), err)
	}

	if k.Transport == Stream {
		if err := unix.Listen(s.fd, Backlog); err != nil {
			s.Close() //nolint:errcheck
			return nil, ncerr.Syscall("listen", ap.String(), err)
		}
	}
	return s, nil
}

// Connect sets the socket's default peer.  On datagram and raw sockets
// this returns immediately; later reads and writes use the connected
// pair without naming the peer again.
func (s *Socket) Connect(ap netip.AddrPort) error {
	if s.fd < 0 {
		return ncerr.Wrap("connect", ap.String(), net.ErrClosed)
	}
	sa, err := sockaddr(s.kind.Family, ap)
	if err != nil {
		return err
	}
	if err := unix.Connect(s.fd, sa); err != nil {
		return ncerr.Syscall("connect", ap.String(), err)
	}
	return nil
}

// LocalAddr returns the address the kernel bound the socket to.
func (s *Socket) LocalAddr() (netip.AddrPort, error) {
	if s.fd < 0 {
		return netip.AddrPort{}, ncerr.Wrap("getsockname", s.kind.String(), net.ErrClosed)
	}
	sa, err := unix.Getsockname(s.fd)
	if err != nil {
		return netip.AddrPort{}, ncerr.Syscall("getsockname", s.kind.String(), err)
	}
	return addrPort(sa)
}

// Close releases the descriptor.  Closing twice is a no-op.
func (s *Socket) Close() error {
	if s.fd < 0 {
		return nil
	}
	fd := s.fd
	s.fd = -1
	if err := unix.Close(fd); err != nil {
		return ncerr.Syscall("close", s.kind.String(), err)
	}
	return nil
}

// ── conversion into net types ────────────────────────────────────────

// Listener converts a bound stream socket into a net.Listener.
func (s *Socket) Listener() (net.Listener, error) {
	if s.kind.Transport != Stream {
		return nil, ncerr.Wrap("listener", s.kind.String(), ncerr.ErrWrongTransport)
	}
	f, err := s.release()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, ncerr.Wrap("listener", s.kind.String(), err)
	}
	return ln, nil
}

// PacketConn converts a datagram or raw socket into a net.PacketConn:
// *net.UDPConn for datagram kinds, *net.IPConn for raw ICMP.
func (s *Socket) PacketConn() (net.PacketConn, error) {
	if s.kind.Transport == Stream {
		return nil, ncerr.Wrap("packetconn", s.kind.String(), ncerr.ErrWrongTransport)
	}
	f, err := s.release()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pc, err := net.FilePacketConn(f)
	if err != nil {
		return nil, ncerr.Wrap("packetconn", s.kind.String(), err)
	}
	return pc, nil
}

// Conn converts the socket into a net.Conn.  Datagram and raw sockets
// should be connected first so Read and Write have a peer.
func (s *Socket) Conn() (net.Conn, error) {
	f, err := s.release()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := net.FileConn(f)
	if err != nil {
		return nil, ncerr.Wrap("conn", s.kind.String(), err)
	}
	return c, nil
}

// release hands the descriptor to an *os.File and marks s closed.  The
// net package dups the descriptor, so the file is closed by the caller.
func (s *Socket) release() (*os.File, error) {
	if s.fd < 0 {
		return nil, ncerr.Wrap("release", s.kind.String(), net.ErrClosed)
	}
	f := os.NewFile(uintptr(s.fd), s.kind.String())
	s.fd = -1
	return f, nil
}

// ── sockaddr helpers ─────────────────────────────────────────────────

func sockaddr(f Family, ap netip.AddrPort) (unix.Sockaddr, error) {
	a := ap.Addr()
	if !a.IsValid() || FamilyOf(a) != f {
		return nil, ncerr.InvalidAddress(ap.String(), f.String(), ncerr.ErrWrongFamily)
	}
	if f == IPv4 {
		return &unix.SockaddrInet4{Port: int(ap.Port()), Addr: a.As4()}, nil
	}

	sa := &unix.SockaddrInet6{Port: int(ap.Port()), Addr: a.As16()}
	if zone := a.Zone(); zone != "" {
		id, err := zoneIndex(zone)
		if err != nil {
			return nil, ncerr.InvalidAddress(ap.String(), f.String(), err)
		}
		sa.ZoneId = id
	}
	return sa, nil
}

func addrPort(sa unix.Sockaddr) (netip.AddrPort, error) {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port)), nil
	case *unix.SockaddrInet6:
		a := netip.AddrFrom16(sa.Addr)
		if sa.ZoneId != 0 {
			a = a.WithZone(zoneName(sa.ZoneId))
		}
		return netip.AddrPortFrom(a, uint16(sa.Port)), nil
	}
	return netip.AddrPort{}, fmt.Errorf("unexpected sockaddr %T", sa)
}

func zoneIndex(zone string) (uint32, error) {
	if n, err := strconv.ParseUint(zone, 10, 32); err == nil {
		return uint32(n), nil
	}
	ifi, err := net.InterfaceByName(zone)
	if err != nil {
		return 0, err
	}
	return uint32(ifi.Index), nil
}

func zoneName(id uint32) string {
	if ifi, err := net.InterfaceByIndex(int(id)); err == nil {
		return ifi.Name
	}
	return strconv.FormatUint(uint64(id), 10)
}
