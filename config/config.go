// Package config defines the runtime configuration for dualnet and
// loads it in layers: defaults, an optional YAML file, DUALNET_*
// environment variables, then command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"dualnet/sock"
	"dualnet/util"
)

// Mode names the subcommand a Config drives.
type Mode string

const (
	ModeBind     Mode = "bind"
	ModeDial     Mode = "dial"
	ModeProbe    Mode = "probe"
	ModeChecksum Mode = "checksum"
)

// Config holds every tuneable for a single dualnet run.
type Config struct {
	Mode Mode `yaml:"-"`

	// ── Addressing ───────────────────────────────────────────────────
	Transport  string `yaml:"transport"` // tcp, udp or icmp
	IPv4Only   bool   `yaml:"ipv4_only"` // -4
	IPv6Only   bool   `yaml:"ipv6_only"` // -6
	Address    string `yaml:"address"`   // bind: host:port
	Host       string `yaml:"-"`         // dial, probe
	Port       int    `yaml:"-"`         // dial
	LocalPort  int    `yaml:"local_port"`
	NoDNS      bool   `yaml:"no_dns"`
	Nameserver string `yaml:"nameserver"`

	// ── Dialing ──────────────────────────────────────────────────────
	Timeout    time.Duration `yaml:"timeout"`
	Sequential bool          `yaml:"sequential"`
	Retries    int           `yaml:"retries"` // total attempts
	RetryDelay time.Duration `yaml:"retry_delay"`

	// ── Bind ─────────────────────────────────────────────────────────
	KeepOpen bool `yaml:"keep_open"`
	Echo     bool `yaml:"echo"`

	// ── Probe ────────────────────────────────────────────────────────
	Count    int           `yaml:"count"`
	Interval time.Duration `yaml:"interval"`
	Wait     time.Duration `yaml:"wait"`
	MaxLoss  int           `yaml:"max_loss"`
	Progress bool          `yaml:"progress"`

	// ── Checksum ─────────────────────────────────────────────────────
	Payload   []string `yaml:"-"`
	StripIPv4 bool     `yaml:"strip_ipv4"`

	// ── SSH gateway ──────────────────────────────────────────────────
	Gateway        string `yaml:"via"` // user@host[:port]
	SSHKeyPath     string `yaml:"via_key"`
	SSHPassword    bool   `yaml:"via_password"`
	UseSSHAgent    bool   `yaml:"via_agent"`
	StrictHostKey  bool   `yaml:"via_strict"`
	KnownHostsPath string `yaml:"via_known_hosts"`

	// ── Output ───────────────────────────────────────────────────────
	Verbose    int    `yaml:"verbose"`
	Stats      bool   `yaml:"stats"`
	DryRun     bool   `yaml:"-"`
	ConfigFile string `yaml:"-"`
}

// Default returns a Config holding every default from defaults.go.
func Default() *Config {
	return &Config{
		Transport:  DefaultTransport,
		Timeout:    DefaultDialTimeout,
		Retries:    DefaultRetries,
		RetryDelay: DefaultRetryDelay,
		Count:      DefaultProbeCount,
		Interval:   DefaultProbeInterval,
		Wait:       DefaultProbeWait,
		MaxLoss:    DefaultMaxLoss,
	}
}

// ── Derived values ───────────────────────────────────────────────────

// TransportKind parses Transport.
func (c *Config) TransportKind() (sock.Transport, error) {
	return sock.ParseTransport(c.Transport)
}

// BindKind is the socket kind for bind mode.  IPv4 unless -6.
func (c *Config) BindKind() (sock.Kind, error) {
	t, err := c.TransportKind()
	if err != nil {
		return sock.Kind{}, err
	}
	f := sock.IPv4
	if c.IPv6Only {
		f = sock.IPv6
	}
	return sock.Kind{Transport: t, Family: f}, nil
}

// BindAddress completes Address for the bind family: a bare port
// ("8080" or ":8080") binds the wildcard address, and a bare IP gets
// port 0, which is the only sensible choice for raw ICMP.
func (c *Config) BindAddress() string {
	addr := strings.TrimSpace(c.Address)
	wildcard := util.Wildcard(c.IPv6Only)

	if host, port, err := util.SplitHostPort(addr); err == nil {
		if host == "" {
			host = wildcard
		}
		return util.FormatAddr(host, port)
	}
	if port, err := util.ParsePort(addr); err == nil {
		return util.FormatAddr(wildcard, port)
	}
	if addr == "" {
		return util.FormatAddr(wildcard, 0)
	}
	return util.FormatAddr(strings.Trim(addr, "[]"), 0)
}

// Network is the resolver network for -4 / -6: "ip4", "ip6" or "ip".
func (c *Config) Network() string {
	switch {
	case c.IPv4Only && !c.IPv6Only:
		return "ip4"
	case c.IPv6Only && !c.IPv4Only:
		return "ip6"
	}
	return "ip"
}

// Summary is a one-line description for --dry-run and verbose logs.
func (c *Config) Summary() string {
	switch c.Mode {
	case ModeBind:
		return fmt.Sprintf("bind %s %s", c.Transport, c.BindAddress())
	case ModeDial:
		s := fmt.Sprintf("dial %s %s (%s)", c.Transport, util.FormatAddr(c.Host, c.Port), c.Network())
		if c.Gateway != "" {
			s += " via " + c.Gateway
		}
		return s
	case ModeProbe:
		return fmt.Sprintf("probe %s (%s) count=%d interval=%s", c.Host, c.Network(), c.Count, c.Interval)
	case ModeChecksum:
		return fmt.Sprintf("checksum %d buffer(s)", len(c.Payload))
	}
	return string(c.Mode)
}
