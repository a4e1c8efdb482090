package core

import (
	"fmt"

	"dualnet/config"
	"dualnet/dualstack"
	"dualnet/internal/capability"
	"dualnet/internal/metrics"
	"dualnet/internal/retry"
	"dualnet/internal/transport"
	"dualnet/tunnel"
	"dualnet/util"
)

// Build constructs the Mode for cfg.Mode.  cfg is expected to have
// passed Validate.
func Build(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	switch cfg.Mode {
	case config.ModeBind:
		return buildBind(cfg, logger, m)
	case config.ModeDial:
		return buildDial(cfg, logger, m)
	case config.ModeProbe:
		return buildProbe(cfg, logger, m)
	case config.ModeChecksum:
		return buildChecksum(cfg, logger)
	}
	return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
}

// ── mode builders ────────────────────────────────────────────────────

func buildBind(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	kind, err := cfg.BindKind()
	if err != nil {
		return nil, err
	}
	return &BindMode{
		Kind:       kind,
		Address:    cfg.BindAddress(),
		KeepOpen:   cfg.KeepOpen,
		Echo:       cfg.Echo,
		Capability: buildCapability(cfg),
		Logger:     logger.Named("bind"),
		Metrics:    m,
	}, nil
}

func buildDial(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	t, err := cfg.TransportKind()
	if err != nil {
		return nil, err
	}
	d, err := buildDialer(cfg, logger, m)
	if err != nil {
		return nil, err
	}

	b := retry.DefaultBackoff()
	b.MaxAttempts = cfg.Retries
	if cfg.RetryDelay > 0 {
		b.InitialDelay = cfg.RetryDelay
	}
	b.MaxDelay = config.DefaultMaxRetryDelay

	return &DialMode{
		Resolver:   buildResolver(cfg, logger),
		Dialer:     d,
		Transport:  t,
		Host:       cfg.Host,
		Port:       cfg.Port,
		Backoff:    b,
		Capability: &capability.Relay{},
		Logger:     logger.Named("dial"),
		Metrics:    m,
	}, nil
}

func buildProbe(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	return &ProbeMode{
		Resolver: buildResolver(cfg, logger),
		Dialer: &dualstack.Dialer{
			Sequential: cfg.Sequential,
			Logger:     logger,
			Metrics:    m,
		},
		Host:     cfg.Host,
		Count:    cfg.Count,
		Interval: cfg.Interval,
		Wait:     cfg.Wait,
		MaxLoss:  cfg.MaxLoss,
		Progress: cfg.Progress,
		Logger:   logger.Named("probe"),
		Metrics:  m,
	}, nil
}

func buildChecksum(cfg *config.Config, logger *util.Logger) (Mode, error) {
	payloads := make([][]byte, 0, len(cfg.Payload))
	for _, p := range cfg.Payload {
		b, err := config.DecodeHex(p)
		if err != nil {
			return nil, fmt.Errorf("payload %q: %w", p, err)
		}
		payloads = append(payloads, b)
	}
	return &ChecksumMode{
		Payloads:  payloads,
		StripIPv4: cfg.StripIPv4,
		Logger:    logger,
	}, nil
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer creates the dual-stack dialer for dial mode.  With a
// gateway, stream dials of both families share one SSH tunnel.
func buildDialer(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (*dualstack.Dialer, error) {
	d := &dualstack.Dialer{
		UDP:        &transport.UDPDialer{LocalPort: cfg.LocalPort},
		Sequential: cfg.Sequential,
		Logger:     logger,
		Metrics:    m,
	}

	if cfg.Gateway == "" {
		d.TCP = &transport.TCPDialer{Timeout: cfg.Timeout, LocalPort: cfg.LocalPort}
		return d, nil
	}

	sshCfg, err := tunnel.ParseGateway(cfg.Gateway)
	if err != nil {
		return nil, err
	}
	sshCfg.KeyPath = cfg.SSHKeyPath
	sshCfg.PromptPass = cfg.SSHPassword
	sshCfg.UseAgent = cfg.UseSSHAgent
	sshCfg.StrictHostKey = cfg.StrictHostKey
	sshCfg.KnownHosts = cfg.KnownHostsPath
	sshCfg.ConnTimeout = config.DefaultSSHTimeout
	if cfg.IPv4Only != cfg.IPv6Only {
		sshCfg.Network = "tcp4"
		if cfg.IPv6Only {
			sshCfg.Network = "tcp6"
		}
	}
	d.TCP = transport.NewSSHDialer(sshCfg, logger)
	return d, nil
}

func buildResolver(cfg *config.Config, logger *util.Logger) *dualstack.Resolver {
	return &dualstack.Resolver{
		Server:  cfg.Nameserver,
		Network: cfg.Network(),
		NoDNS:   cfg.NoDNS,
		Logger:  logger.Named("resolve"),
	}
}

// buildCapability selects the per-connection behaviour for bind mode.
func buildCapability(cfg *config.Config) capability.Capability {
	if cfg.Echo {
		return &capability.Echo{}
	}
	return &capability.Relay{}
}
