package tunnel

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	ncerr "dualnet/internal/errors"
	"dualnet/util"
)

// SSHConfig holds everything needed to dial an SSH gateway.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration

	// Network selects the family used to reach the gateway itself:
	// "tcp" (default), "tcp4" or "tcp6".
	Network string
}

// Addr returns the gateway as "host:port", bracketing IPv6 literals.
func (c *SSHConfig) Addr() string {
	return util.FormatAddr(c.Host, c.Port)
}

// ParseGateway splits "user@host[:port]" into an SSHConfig with the
// remaining fields at their defaults.  IPv6 hosts must be bracketed
// when a port is given.
func ParseGateway(gateway string) (*SSHConfig, error) {
	user, hostport, ok := strings.Cut(gateway, "@")
	if !ok || user == "" || hostport == "" {
		return nil, fmt.Errorf("gateway %q: want user@host[:port]", gateway)
	}

	cfg := &SSHConfig{User: user, Port: 22}
	if host, port, err := util.SplitHostPort(hostport); err == nil {
		cfg.Host, cfg.Port = host, port
	} else if strings.Count(hostport, ":") == 1 {
		// "host:port" that failed to split means a bad port.
		return nil, fmt.Errorf("gateway %q: %w", gateway, err)
	} else {
		cfg.Host = strings.Trim(hostport, "[]")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("gateway %q: empty host", gateway)
	}
	return cfg, nil
}

// SSHTunnel implements [Tunnel] by opening an SSH connection and
// forwarding stream dials with direct-tcpip channels.
type SSHTunnel struct {
	config *SSHConfig
	client *ssh.Client
	logger *util.Logger
	mu     sync.RWMutex
	alive  bool
}

// NewSSHTunnel creates a tunnel that is ready to [Connect].
func NewSSHTunnel(cfg *SSHConfig, logger *util.Logger) *SSHTunnel {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	if cfg.Network == "" {
		cfg.Network = "tcp"
	}
	return &SSHTunnel{config: cfg, logger: logger.Named("ssh")}
}

// Connect dials the SSH gateway and completes the handshake.
func (t *SSHTunnel) Connect(ctx context.Context) error {
	authMethods, err := BuildAuthMethods(t.config)
	if err != nil {
		return ncerr.WrapSSH("auth", t.config.Host, t.config.Port, err)
	}

	hkCallback, err := hostKeyCallback(t.config)
	if err != nil {
		return ncerr.WrapSSH("hostkey", t.config.Host, t.config.Port, err)
	}

	sshCfg := &ssh.ClientConfig{
		User:            t.config.User,
		Auth:            authMethods,
		HostKeyCallback: hkCallback,
		Timeout:         t.config.ConnTimeout,
	}

	addr := t.config.Addr()
	t.logger.Debug("dialing %s %s as %s", t.config.Network, addr, t.config.User)

	dialer := net.Dialer{Timeout: t.config.ConnTimeout}
	tcpConn, err := dialer.DialContext(ctx, t.config.Network, addr)
	if err != nil {
		return ncerr.Wrap("dial", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, sshCfg)
	if err != nil {
		tcpConn.Close()
		return ncerr.WrapSSH("handshake", t.config.Host, t.config.Port, err)
	}

	client := ssh.NewClient(sshConn, chans, reqs)

	t.mu.Lock()
	t.client = client
	t.alive = true
	t.mu.Unlock()

	go t.monitor(client)

	return nil
}

// Dial forwards a stream connection through the tunnel.  The gateway
// resolves and connects to address on its side, so the family in
// network only constrains how a hostname is resolved there.
func (t *SSHTunnel) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	switch network {
	case "tcp", "tcp4", "tcp6":
	default:
		return nil, ncerr.Wrap("dial", address,
			fmt.Errorf("%w: %s over ssh", ncerr.ErrWrongTransport, network))
	}

	t.mu.RLock()
	client := t.client
	alive := t.alive
	t.mu.RUnlock()

	if !alive || client == nil {
		return nil, ncerr.ErrNotConnected
	}

	t.logger.Debug("forwarding %s %s", network, address)
	conn, err := client.DialContext(ctx, network, address)
	if err != nil {
		return nil, ncerr.Wrap("dial", address, fmt.Errorf("via %s: %w", t.config.Addr(), err))
	}
	return conn, nil
}

// Close shuts down the SSH connection.
func (t *SSHTunnel) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.alive = false
	if t.client != nil {
		err := t.client.Close()
		t.client = nil
		return err
	}
	return nil
}

// IsAlive reports whether the tunnel is still connected.
func (t *SSHTunnel) IsAlive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.alive
}

// monitor blocks until the SSH connection closes and flips the alive flag.
func (t *SSHTunnel) monitor(client *ssh.Client) {
	err := client.Wait()

	t.mu.Lock()
	if t.client == client {
		t.alive = false
	}
	t.mu.Unlock()

	if err != nil {
		t.logger.Debug("tunnel closed: %v", err)
	} else {
		t.logger.Debug("tunnel closed")
	}
}
