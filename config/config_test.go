package config

import (
	"strings"
	"testing"

	"dualnet/sock"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Transport != "tcp" || cfg.Retries != DefaultRetries || cfg.Wait != DefaultProbeWait {
		t.Errorf("Default() = %+v", cfg)
	}
}

func TestBindAddress(t *testing.T) {
	tests := []struct {
		addr string
		ipv6 bool
		want string
	}{
		{"127.0.0.1:8080", false, "127.0.0.1:8080"},
		{"8080", false, "0.0.0.0:8080"},
		{":8080", false, "0.0.0.0:8080"},
		{":8080", true, "[::]:8080"},
		{"8080", true, "[::]:8080"},
		{"[::1]:53", true, "[::1]:53"},
		{"127.0.0.1", false, "127.0.0.1:0"},
		{"::1", true, "[::1]:0"},
		{"[::1]", true, "[::1]:0"},
		{"", false, "0.0.0.0:0"},
	}
	for _, tt := range tests {
		cfg := &Config{Address: tt.addr, IPv6Only: tt.ipv6}
		if got := cfg.BindAddress(); got != tt.want {
			t.Errorf("BindAddress(%q, ipv6=%v) = %q, want %q", tt.addr, tt.ipv6, got, tt.want)
		}
	}
}

func TestBindKind(t *testing.T) {
	tests := []struct {
		transport string
		ipv6      bool
		want      sock.Kind
		wantErr   bool
	}{
		{"tcp", false, sock.TCP4, false},
		{"udp", true, sock.UDP6, false},
		{"icmp", false, sock.ICMP4, false},
		{"ICMP", true, sock.ICMP6, false},
		{"sctp", false, sock.Kind{}, true},
	}
	for _, tt := range tests {
		cfg := &Config{Transport: tt.transport, IPv6Only: tt.ipv6}
		got, err := cfg.BindKind()
		if (err != nil) != tt.wantErr {
			t.Errorf("BindKind(%s) err = %v", tt.transport, err)
			continue
		}
		if got != tt.want {
			t.Errorf("BindKind(%s, %v) = %s, want %s", tt.transport, tt.ipv6, got, tt.want)
		}
	}
}

func TestNetwork(t *testing.T) {
	tests := []struct {
		v4, v6 bool
		want   string
	}{
		{false, false, "ip"},
		{true, false, "ip4"},
		{false, true, "ip6"},
		{true, true, "ip"},
	}
	for _, tt := range tests {
		cfg := &Config{IPv4Only: tt.v4, IPv6Only: tt.v6}
		if got := cfg.Network(); got != tt.want {
			t.Errorf("Network(-4=%v, -6=%v) = %q, want %q", tt.v4, tt.v6, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	cfg := Default()
	cfg.Mode = ModeDial
	cfg.Host = "2001:db8::1"
	cfg.Port = 443
	cfg.Gateway = "admin@bastion"

	got := cfg.Summary()
	for _, want := range []string{"dial tcp", "[2001:db8::1]:443", "via admin@bastion"} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary() = %q, missing %q", got, want)
		}
	}
}

func TestDecodeHex(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"45000014", "\x45\x00\x00\x14", false},
		{"0x4500", "\x45\x00", false},
		{"45:00 00-14", "\x45\x00\x00\x14", false},
		{"", "", false},
		{"450", "", true},
		{"zz", "", true},
	}
	for _, tt := range tests {
		got, err := DecodeHex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("DecodeHex(%q) err = %v", tt.in, err)
			continue
		}
		if err == nil && string(got) != tt.want {
			t.Errorf("DecodeHex(%q) = %x", tt.in, got)
		}
	}
}
