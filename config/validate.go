package config

import (
	"encoding/hex"
	"strings"

	ncerr "dualnet/internal/errors"
	"dualnet/sock"
	"dualnet/tunnel"
)

// Validate checks that the configuration is internally consistent for
// its Mode.  Every failure is an *errors.ConfigError.
func (c *Config) Validate() error {
	t, err := c.TransportKind()
	if err != nil {
		return &ncerr.ConfigError{
			Field: "transport", Value: c.Transport,
			Message: "unknown transport", Hint: "use tcp, udp or icmp",
		}
	}

	if c.Timeout < 0 {
		return &ncerr.ConfigError{Field: "timeout", Value: c.Timeout, Message: "must not be negative"}
	}
	if c.LocalPort < 0 || c.LocalPort > 65535 {
		return &ncerr.ConfigError{Field: "local-port", Value: c.LocalPort, Message: "out of range 0-65535"}
	}

	switch c.Mode {
	case ModeBind:
		if strings.TrimSpace(c.Address) == "" {
			return &ncerr.ConfigError{
				Field: "address", Message: "bind needs an address",
				Hint: "dualnet bind 0.0.0.0:8080, or dualnet bind -6 '[::]:8080'",
			}
		}
		if c.IPv4Only && c.IPv6Only {
			return &ncerr.ConfigError{Field: "6", Message: "a socket binds one family", Hint: "drop -4 or -6"}
		}
		k, _ := c.BindKind()
		if _, err := sock.ParseAddr(k.Family, c.BindAddress()); err != nil {
			return &ncerr.ConfigError{
				Field: "address", Value: c.Address, Message: err.Error(),
				Hint: "bind takes a literal " + k.Family.String() + " address; -6 selects IPv6",
			}
		}
		if c.Echo && t != sock.Stream && t != sock.Datagram {
			return &ncerr.ConfigError{Field: "echo", Message: "needs tcp or udp"}
		}
		if c.Gateway != "" {
			return &ncerr.ConfigError{Field: "via", Value: c.Gateway, Message: "bind does not use a gateway"}
		}

	case ModeDial:
		if c.Host == "" {
			return &ncerr.ConfigError{Field: "host", Message: "hostname is required", Hint: "dualnet dial HOST PORT"}
		}
		if c.Port < 1 || c.Port > 65535 {
			return &ncerr.ConfigError{Field: "port", Value: c.Port, Message: "out of range 1-65535"}
		}
		if t == sock.RawICMP {
			return &ncerr.ConfigError{Field: "transport", Value: c.Transport, Message: "dial relays tcp or udp", Hint: "use dualnet probe for icmp"}
		}
		if c.Retries < 1 {
			return &ncerr.ConfigError{Field: "retries", Value: c.Retries, Message: "must be at least 1"}
		}
		if c.Gateway != "" {
			if t != sock.Stream {
				return &ncerr.ConfigError{
					Field: "via", Value: c.Gateway, Message: "SSH gateways carry tcp only",
					Hint: "drop -u or --via",
				}
			}
			if _, err := tunnel.ParseGateway(c.Gateway); err != nil {
				return &ncerr.ConfigError{Field: "via", Value: c.Gateway, Message: err.Error()}
			}
		}

	case ModeProbe:
		if c.Host == "" {
			return &ncerr.ConfigError{Field: "host", Message: "hostname is required", Hint: "dualnet probe HOST"}
		}
		if c.Count < 1 {
			return &ncerr.ConfigError{Field: "count", Value: c.Count, Message: "must be at least 1"}
		}
		if c.Wait <= 0 {
			return &ncerr.ConfigError{Field: "wait", Value: c.Wait, Message: "must be positive"}
		}
		if c.Gateway != "" {
			return &ncerr.ConfigError{Field: "via", Value: c.Gateway, Message: "ICMP cannot cross an SSH gateway"}
		}

	case ModeChecksum:
		if len(c.Payload) == 0 {
			return &ncerr.ConfigError{Field: "payload", Message: "nothing to checksum", Hint: "dualnet checksum 4500001c..."}
		}
		for _, p := range c.Payload {
			if _, err := DecodeHex(p); err != nil {
				return &ncerr.ConfigError{Field: "payload", Value: p, Message: err.Error()}
			}
		}

	default:
		return &ncerr.ConfigError{Field: "mode", Value: string(c.Mode), Message: "unknown command", Hint: "use bind, dial, probe or checksum"}
	}
	return nil
}

// DecodeHex decodes a hex buffer, ignoring whitespace, colons and an
// optional 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', ':', '-':
			return -1
		}
		return r
	}, s)
	return hex.DecodeString(s)
}
