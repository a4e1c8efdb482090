package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. YAML config file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the DUALNET_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).  Durations accept Go
// syntax ("1500ms") or whole seconds.

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty,
// well-formed values override the existing value.  Call it before flag
// parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := env("TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if envBool("IPV4") {
		cfg.IPv4Only = true
	}
	if envBool("IPV6") {
		cfg.IPv6Only = true
	}
	if v := env("ADDRESS"); v != "" {
		cfg.Address = v
	}
	if v := envInt("LOCAL_PORT"); v > 0 {
		cfg.LocalPort = v
	}
	if envBool("NO_DNS") {
		cfg.NoDNS = true
	}
	if v := env("NAMESERVER"); v != "" {
		cfg.Nameserver = v
	}

	// Dialing
	if v := envDuration("TIMEOUT"); v > 0 {
		cfg.Timeout = v
	}
	if envBool("SEQUENTIAL") {
		cfg.Sequential = true
	}
	if v := envInt("RETRIES"); v > 0 {
		cfg.Retries = v
	}
	if v := envDuration("RETRY_DELAY"); v > 0 {
		cfg.RetryDelay = v
	}

	// Bind
	if envBool("KEEP_OPEN") {
		cfg.KeepOpen = true
	}
	if envBool("ECHO") {
		cfg.Echo = true
	}

	// Probe
	if v := envInt("COUNT"); v > 0 {
		cfg.Count = v
	}
	if v := envDuration("INTERVAL"); v > 0 {
		cfg.Interval = v
	}
	if v := envDuration("WAIT"); v > 0 {
		cfg.Wait = v
	}

	// SSH gateway
	if v := env("VIA"); v != "" {
		cfg.Gateway = v
	}
	if v := env("VIA_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("VIA_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("VIA_STRICT") {
		cfg.StrictHostKey = true
	}
	if v := env("VIA_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Output
	if v := envInt("VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if envBool("STATS") {
		cfg.Stats = true
	}
}

// ConfigFileFromEnv returns DUALNET_CONFIG.
func ConfigFileFromEnv() string {
	return env("CONFIG")
}

// ── helpers ──────────────────────────────────────────────────────────

func env(key string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + key))
}

func envInt(key string) int {
	v := env(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(env(key))
	return v == "1" || v == "true" || v == "yes"
}

func envDuration(key string) time.Duration {
	v := env(key)
	if v == "" {
		return 0
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return 0
}
