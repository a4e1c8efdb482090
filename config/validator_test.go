package config

import (
	"strings"
	"testing"

	ncerr "dualnet/internal/errors"
)

func valid(mode Mode) *Config {
	cfg := Default()
	cfg.Mode = mode
	switch mode {
	case ModeBind:
		cfg.Address = "127.0.0.1:0"
	case ModeDial:
		cfg.Host, cfg.Port = "example.com", 80
	case ModeProbe:
		cfg.Host = "example.com"
	case ModeChecksum:
		cfg.Payload = []string{"45000014"}
	}
	return cfg
}

func TestValidate_OK(t *testing.T) {
	for _, mode := range []Mode{ModeBind, ModeDial, ModeProbe, ModeChecksum} {
		if err := valid(mode).Validate(); err != nil {
			t.Errorf("%s: %v", mode, err)
		}
	}

	cfg := valid(ModeBind)
	cfg.Transport, cfg.IPv6Only, cfg.Address = "icmp", true, "::"
	if err := cfg.Validate(); err != nil {
		t.Errorf("bind icmp6: %v", err)
	}

	cfg = valid(ModeDial)
	cfg.Gateway = "admin@bastion:2222"
	if err := cfg.Validate(); err != nil {
		t.Errorf("dial via gateway: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		mutate  func(*Config)
		wantSub string
	}{
		{"unknown transport", ModeDial, func(c *Config) { c.Transport = "sctp" }, "hint: use tcp, udp or icmp"},
		{"bind no address", ModeBind, func(c *Config) { c.Address = "" }, "hint:"},
		{"bind both families", ModeBind, func(c *Config) { c.IPv4Only, c.IPv6Only = true, true }, "one family"},
		{"bind v4 address with -6", ModeBind, func(c *Config) { c.IPv6Only = true }, "--address"},
		{"bind hostname", ModeBind, func(c *Config) { c.Address = "localhost:80" }, "literal"},
		{"bind echo icmp", ModeBind, func(c *Config) { c.Transport, c.Echo = "icmp", true }, "--echo"},
		{"dial no host", ModeDial, func(c *Config) { c.Host = "" }, "hostname is required"},
		{"dial port 0", ModeDial, func(c *Config) { c.Port = 0 }, "--port=0"},
		{"dial icmp", ModeDial, func(c *Config) { c.Transport = "icmp" }, "probe"},
		{"dial udp via gateway", ModeDial, func(c *Config) { c.Transport, c.Gateway = "udp", "a@b" }, "tcp only"},
		{"dial bad gateway", ModeDial, func(c *Config) { c.Gateway = "bastion" }, "user@host"},
		{"dial zero retries", ModeDial, func(c *Config) { c.Retries = 0 }, "--retries"},
		{"probe count", ModeProbe, func(c *Config) { c.Count = 0 }, "--count"},
		{"probe via", ModeProbe, func(c *Config) { c.Gateway = "a@b" }, "ICMP"},
		{"checksum empty", ModeChecksum, func(c *Config) { c.Payload = nil }, "nothing to checksum"},
		{"checksum odd hex", ModeChecksum, func(c *Config) { c.Payload = []string{"abc"} }, "--payload"},
		{"bad local port", ModeDial, func(c *Config) { c.LocalPort = 70000 }, "--local-port"},
		{"unknown mode", "scan", func(c *Config) {}, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(tt.mode)
			cfg.Mode = tt.mode
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			var ce *ncerr.ConfigError
			if !ncerr.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantSub)
			}
			if !ncerr.IsInputError(err) {
				t.Error("config errors are input errors")
			}
		})
	}
}
