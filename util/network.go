package util

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// FormatAddr returns "host:port", bracketing IPv6 literals.
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// SplitHostPort splits "host:port" and checks that the port is numeric
// and in 0-65535.  IPv6 hosts come back without brackets.
func SplitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return "", 0, err
	}
	port, err := ParsePort(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

// ParsePort parses a numeric port in 0-65535.
func ParsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 0-65535", port)
	}
	return port, nil
}

// Wildcard returns the unspecified address for an IPv4 ("0.0.0.0") or
// IPv6 ("::") bind.
func Wildcard(ipv6 bool) string {
	if ipv6 {
		return "::"
	}
	return "0.0.0.0"
}

// FindFreePort returns a port that was free on the loopback address of
// the given network ("tcp4", "tcp6", "udp4" or "udp6").
func FindFreePort(network string) (int, error) {
	host := "127.0.0.1"
	if strings.HasSuffix(network, "6") {
		host = "::1"
	}
	addr := FormatAddr(host, 0)

	if strings.HasPrefix(network, "udp") {
		pc, err := net.ListenPacket(network, addr)
		if err != nil {
			return 0, fmt.Errorf("finding free port: %w", err)
		}
		defer pc.Close()
		return pc.LocalAddr().(*net.UDPAddr).Port, nil
	}

	l, err := net.Listen(network, addr)
	if err != nil {
		return 0, fmt.Errorf("finding free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
