package util

import "testing"

func TestFormatAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"1.2.3.4", 22, "1.2.3.4:22"},
		{"::1", 443, "[::1]:443"},
		{"example.com", 80, "example.com:80"},
	}
	for _, tt := range tests {
		if got := FormatAddr(tt.host, tt.port); got != tt.want {
			t.Errorf("FormatAddr(%q, %d) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestSplitHostPort(t *testing.T) {
	tests := []struct {
		in       string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"127.0.0.1:80", "127.0.0.1", 80, false},
		{"[::1]:0", "::1", 0, false},
		{" example.com:53 ", "example.com", 53, false},
		{"example.com", "", 0, true},
		{"host:http", "", 0, true},
		{"host:70000", "", 0, true},
	}
	for _, tt := range tests {
		host, port, err := SplitHostPort(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("SplitHostPort(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if host != tt.wantHost || port != tt.wantPort {
			t.Errorf("SplitHostPort(%q) = %q, %d", tt.in, host, port)
		}
	}
}

func TestWildcard(t *testing.T) {
	if Wildcard(false) != "0.0.0.0" || Wildcard(true) != "::" {
		t.Errorf("Wildcard = %q / %q", Wildcard(false), Wildcard(true))
	}
}

func TestFindFreePort(t *testing.T) {
	for _, network := range []string{"tcp4", "udp4"} {
		port, err := FindFreePort(network)
		if err != nil {
			t.Fatalf("%s: %v", network, err)
		}
		if port < 1 || port > 65535 {
			t.Errorf("%s: port %d out of range", network, port)
		}
	}
}
