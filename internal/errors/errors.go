// Package errors provides the error taxonomy shared by the socket
// factory, the dual-stack dialer and the CLI.
//
// Three kinds of failure are distinguished: resource errors from the OS
// (NetworkError, possibly worth retrying), input errors from malformed
// addresses (AddressError, never worth retrying), and configuration
// errors (ConfigError).  Header-stripping misses are not errors at all.
package errors

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrTunnelClosed   = errors.New("tunnel is closed")
	ErrNotConnected   = errors.New("not connected")
	ErrNoAddress      = errors.New("no usable address")
	ErrWrongFamily    = errors.New("address family does not match socket")
	ErrWrongTransport = errors.New("operation not valid for this transport")
	ErrUnsupported    = errors.ErrUnsupported
)

// ── Structured error types ───────────────────────────────────────────

// NetworkError is a resource failure: creating, configuring, binding,
// connecting or converting a socket.
type NetworkError struct {
	Op        string // "socket", "setsockopt", "bind", "listen", "connect", "dial"
	Addr      string // address or socket kind involved
	Err       error  // underlying error, usually *os.SyscallError or *net.OpError
	Retryable bool   // whether a higher layer may retry
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AddressError is an input error: the caller supplied an address that
// does not parse, or parses to the wrong family.
type AddressError struct {
	Addr   string
	Family string // "ipv4", "ipv6" or "" when any family is accepted
	Err    error
}

func (e *AddressError) Error() string {
	if e.Family == "" {
		return fmt.Sprintf("invalid address %q: %v", e.Addr, e.Err)
	}
	return fmt.Sprintf("invalid %s address %q: %v", e.Family, e.Addr, e.Err)
}

func (e *AddressError) Unwrap() error { return e.Err }

// SSHError represents an SSH-specific failure with gateway context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey", "dial"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // flag name without dashes
	Value   interface{} // the invalid value (nil if missing)
	Message string
	Hint    string // optional
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError, detecting retryability from err.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// Syscall wraps a raw errno from golang.org/x/sys/unix as a NetworkError
// whose inner error is an *os.SyscallError naming the call.
func Syscall(call, addr string, err error) *NetworkError {
	return Wrap(call, addr, os.NewSyscallError(call, err))
}

// InvalidAddress creates an AddressError.
func InvalidAddress(addr, family string, err error) *AddressError {
	return &AddressError{Addr: addr, Family: family, Err: err}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsRetryable reports whether err is worth retrying.  Input and
// configuration errors never are.
func IsRetryable(err error) bool {
	if err == nil || IsInputError(err) {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return classifyRetryable(err)
}

// IsInputError reports whether err stems from caller input that no
// amount of retrying will fix.
func IsInputError(err error) bool {
	var ae *AddressError
	if errors.As(err, &ae) {
		return true
	}
	var ce *ConfigError
	return errors.As(err, &ce)
}

// classifyRetryable inspects errno values and standard library types.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EADDRINUSE, syscall.ECONNREFUSED, syscall.ECONNRESET,
			syscall.EHOSTUNREACH, syscall.ENETUNREACH, syscall.ETIMEDOUT,
			syscall.EAGAIN, syscall.EINTR, syscall.ENOBUFS, syscall.EMFILE, syscall.ENFILE:
			return true
		}
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Timeout() || dnsErr.IsTemporary
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Timeout()
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
