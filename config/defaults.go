package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// EnvPrefix prefixes every environment variable read by LoadFromEnv.
	EnvPrefix = "DUALNET_"

	// DefaultTransport is used when -t is not given.
	DefaultTransport = "tcp"

	// DefaultDialTimeout bounds one connection attempt per family.
	DefaultDialTimeout = 10 * time.Second

	// DefaultRetries is the number of dial attempts including the first.
	DefaultRetries = 3

	// DefaultRetryDelay is the wait before the second attempt; later
	// waits double.
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay caps the wait between dial attempts.
	DefaultMaxRetryDelay = 10 * time.Second

	// DefaultProbeCount is the number of echo requests per family.
	DefaultProbeCount = 4

	// DefaultProbeInterval separates echo requests.
	DefaultProbeInterval = time.Second

	// DefaultProbeWait is how long to wait for each echo reply.
	DefaultProbeWait = 2 * time.Second

	// DefaultMaxLoss is the number of consecutive lost replies after
	// which a probe gives up.
	DefaultMaxLoss = 3

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultSSHTimeout bounds the gateway handshake.
	DefaultSSHTimeout = 30 * time.Second
)
