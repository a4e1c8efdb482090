package errors

import (
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"
)

func TestNetworkError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  NetworkError
		want string
	}{
		{
			name: "retryable",
			err:  NetworkError{Op: "connect", Addr: "192.0.2.1:80", Err: io.EOF, Retryable: true},
			want: "connect 192.0.2.1:80: EOF (retryable)",
		},
		{
			name: "non-retryable",
			err:  NetworkError{Op: "bind", Addr: "[::]:8080", Err: fmt.Errorf("permission denied")},
			want: "bind [::]:8080: permission denied",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAddressError_Format(t *testing.T) {
	inner := fmt.Errorf("unexpected character")
	tests := []struct {
		err  *AddressError
		want string
	}{
		{InvalidAddress("1.2.3:80", "ipv4", inner), `invalid ipv4 address "1.2.3:80": unexpected character`},
		{InvalidAddress("nope", "", inner), `invalid address "nope": unexpected character`},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
		if !Is(tt.err, inner) {
			t.Error("should unwrap to inner error")
		}
	}
}

func TestSyscall_WrapsErrno(t *testing.T) {
	err := Syscall("bind", "0.0.0.0:80", syscall.EADDRINUSE)

	var se *os.SyscallError
	if !As(err, &se) || se.Syscall != "bind" {
		t.Fatalf("expected *os.SyscallError for bind, got %#v", err.Err)
	}
	if !Is(err, syscall.EADDRINUSE) {
		t.Error("should unwrap to EADDRINUSE")
	}
	if !err.Retryable {
		t.Error("EADDRINUSE should be retryable")
	}

	if Syscall("socket", "icmp6", syscall.EPERM).Retryable {
		t.Error("EPERM should not be retryable")
	}
}

func TestSSHError_Format(t *testing.T) {
	err := WrapSSH("handshake", "bastion.example.com", 22, fmt.Errorf("connection refused"))
	want := "ssh handshake bastion.example.com:22: connection refused"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConfigError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  ConfigError
		want string
	}{
		{
			name: "with value and hint",
			err: ConfigError{
				Field:   "transport",
				Value:   "sctp",
				Message: "unknown transport",
				Hint:    "use tcp, udp or icmp",
			},
			want: "config: --transport=sctp: unknown transport\n  hint: use tcp, udp or icmp",
		},
		{
			name: "missing value no hint",
			err: ConfigError{
				Field:   "port",
				Message: "required for dial",
			},
			want: "config: --port: required for dial",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"retryable network", &NetworkError{Op: "dial", Addr: "x", Err: io.EOF, Retryable: true}, true},
		{"non-retryable network", &NetworkError{Op: "dial", Addr: "x", Err: io.EOF}, false},
		{"address", InvalidAddress("x", "ipv4", io.EOF), false},
		{"wrapped address", fmt.Errorf("bind: %w", InvalidAddress("x", "", io.EOF)), false},
		{"config", &ConfigError{Field: "port", Message: "bad"}, false},
		{"bare errno", syscall.ECONNREFUSED, true},
		{"plain error", fmt.Errorf("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsInputError(t *testing.T) {
	if !IsInputError(fmt.Errorf("wrapped: %w", InvalidAddress("x", "", io.EOF))) {
		t.Error("wrapped AddressError should be an input error")
	}
	if IsInputError(Wrap("connect", "x", syscall.ECONNREFUSED)) {
		t.Error("NetworkError should not be an input error")
	}
}

func TestClassifyRetryable_DNS(t *testing.T) {
	opErr := &net.OpError{
		Op:  "dial",
		Net: "udp",
		Err: &net.DNSError{IsTemporary: true},
	}
	if !classifyRetryable(opErr) {
		t.Error("temporary DNS error should be retryable")
	}
}

func TestSentinels(t *testing.T) {
	sentinels := []error{
		ErrTunnelClosed, ErrNotConnected, ErrNoAddress,
		ErrWrongFamily, ErrWrongTransport, ErrUnsupported,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && Is(a, b) {
				t.Errorf("sentinel %d and %d should not match", i, j)
			}
		}
	}
}
