// Package cmd wires up the CLI subcommands and dispatches to the core
// modes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"dualnet/config"
	"dualnet/internal/core"
	"dualnet/internal/metrics"
	"dualnet/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X dualnet/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the selected subcommand.
func Execute(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr, "", nil)
		return nil
	}
	switch args[0] {
	case "-h", "--help", "help":
		printUsage(stderr, "", nil)
		return nil
	case "--version", "version":
		fmt.Fprintf(stdout, "dualnet %s\n", version)
		return nil
	}

	mode := config.Mode(args[0])
	if !knownMode(mode) {
		return fmt.Errorf("unknown command %q (use --help for usage)", args[0])
	}

	cfg, fs, help, err := parse(mode, args[1:])
	if err != nil {
		return err
	}
	if help {
		printUsage(stderr, mode, fs)
		return nil
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Verbose)
	logger.SetOutput(stderr)
	logger.SetTimestamps(cfg.Verbose >= int(util.LogDebug))
	if cfg.ConfigFile != "" {
		logger.Verbose("config loaded from %s", cfg.ConfigFile)
	}

	if cfg.DryRun {
		fmt.Fprintf(stdout, "dry run: %s\n", cfg.Summary())
		return nil
	}

	// ── build and run ────────────────────────────────────────────
	m := metrics.New()
	md, err := core.Build(cfg, logger, m)
	if err != nil {
		return err
	}
	setIO(md, stdin, stdout)

	logger.Verbose("%s", cfg.Summary())
	err = md.Run(ctx)
	if err != nil {
		m.RecordError(err.Error())
	}
	if cfg.Stats {
		fmt.Fprintln(stderr, m.JSON())
	}
	return err
}

// parse layers defaults, the YAML file, DUALNET_* variables and flags
// into a Config for mode.  Flags are registered with the values already
// loaded so an unset flag leaves the lower layers alone.
func parse(mode config.Mode, args []string) (*config.Config, *flag.FlagSet, bool, error) {
	cfg := config.Default()
	path := configPath(args)
	if path != "" {
		if err := config.LoadFile(path, cfg); err != nil {
			return nil, nil, false, err
		}
	}
	config.LoadFromEnv(cfg)
	cfg.Mode = mode
	cfg.ConfigFile = path

	fs := flag.NewFlagSet("dualnet "+string(mode), flag.ContinueOnError)
	fs.SortFlags = false
	fs.SetOutput(io.Discard)

	// ── common ───────────────────────────────────────────────────
	if mode == config.ModeBind || mode == config.ModeDial {
		fs.StringVarP(&cfg.Transport, "transport", "t", cfg.Transport, "Transport: tcp, udp or icmp")
	}
	if mode != config.ModeChecksum {
		fs.BoolVarP(&cfg.IPv4Only, "ipv4", "4", cfg.IPv4Only, "IPv4 only")
		fs.BoolVarP(&cfg.IPv6Only, "ipv6", "6", cfg.IPv6Only, "IPv6 only (bind: IPv6 socket)")
	}
	if mode == config.ModeDial || mode == config.ModeProbe {
		fs.BoolVarP(&cfg.NoDNS, "no-dns", "n", cfg.NoDNS, "Numeric addresses only, no DNS")
		fs.StringVar(&cfg.Nameserver, "nameserver", cfg.Nameserver, "DNS server host[:port] (default from /etc/resolv.conf)")
		fs.BoolVar(&cfg.Sequential, "sequential", cfg.Sequential, "Try IPv4 then IPv6 instead of both at once")
	}

	// ── per mode ─────────────────────────────────────────────────
	var udp bool
	switch mode {
	case config.ModeBind:
		fs.BoolVarP(&cfg.KeepOpen, "keep-open", "k", cfg.KeepOpen, "Accept multiple connections (tcp)")
		fs.BoolVar(&cfg.Echo, "echo", cfg.Echo, "Echo received data back to the peer")

	case config.ModeDial:
		fs.BoolVarP(&udp, "udp", "u", false, "Shorthand for --transport udp")
		fs.IntVarP(&cfg.LocalPort, "local-port", "p", cfg.LocalPort, "Local source port")
		fs.DurationVarP(&cfg.Timeout, "timeout", "w", cfg.Timeout, "Connect timeout")
		fs.IntVar(&cfg.Retries, "retries", cfg.Retries, "Total dial attempts")
		fs.DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "Delay before the first retry")
		fs.StringVar(&cfg.Gateway, "via", cfg.Gateway, "Route tcp through an SSH gateway user@host[:port]")
		fs.StringVar(&cfg.SSHKeyPath, "via-key", cfg.SSHKeyPath, "SSH private key file")
		fs.BoolVar(&cfg.SSHPassword, "via-password", cfg.SSHPassword, "Prompt for the SSH password")
		fs.BoolVar(&cfg.UseSSHAgent, "via-agent", cfg.UseSSHAgent, "Use the SSH agent")
		fs.BoolVar(&cfg.StrictHostKey, "via-strict", cfg.StrictHostKey, "Verify the gateway host key")
		fs.StringVar(&cfg.KnownHostsPath, "via-known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	case config.ModeProbe:
		fs.IntVarP(&cfg.Count, "count", "c", cfg.Count, "Echo requests per family")
		fs.DurationVarP(&cfg.Interval, "interval", "i", cfg.Interval, "Delay between rounds")
		fs.DurationVarP(&cfg.Wait, "wait", "W", cfg.Wait, "Time to wait for each reply")
		fs.IntVar(&cfg.MaxLoss, "max-loss", cfg.MaxLoss, "Stop after this many consecutive lost rounds (0 never)")
		fs.BoolVar(&cfg.Progress, "progress", cfg.Progress, "Show a progress bar")

	case config.ModeChecksum:
		fs.BoolVar(&cfg.StripIPv4, "strip-ipv4", cfg.StripIPv4, "Strip a leading IPv4 header first")
	}

	// ── output ───────────────────────────────────────────────────
	verbose := cfg.Verbose
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.Stats, "stats", cfg.Stats, "Print metrics as JSON on exit")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Validate and print the plan without running")
	fs.StringVar(&cfg.ConfigFile, "config", path, "YAML config file (also DUALNET_CONFIG)")

	var help bool
	fs.BoolVarP(&help, "help", "h", false, "Show this help")

	if err := fs.Parse(args); err != nil {
		return nil, nil, false, err
	}
	if !fs.Changed("verbose") {
		cfg.Verbose = verbose
	}
	if udp {
		cfg.Transport = "udp"
	}
	if help {
		return cfg, fs, true, nil
	}

	if err := positional(cfg, fs.Args()); err != nil {
		return nil, nil, false, err
	}
	return cfg, fs, false, nil
}

// configPath finds --config before the flag set exists, falling back
// to DUALNET_CONFIG.
func configPath(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return config.ConfigFileFromEnv()
}

func positional(cfg *config.Config, args []string) error {
	switch cfg.Mode {
	case config.ModeBind:
		switch len(args) {
		case 0:
		case 1:
			cfg.Address = args[0]
		default:
			return fmt.Errorf("bind takes one address, got %d", len(args))
		}

	case config.ModeDial:
		if len(args) != 2 {
			return fmt.Errorf("dial needs HOST PORT (use --help for usage)")
		}
		port, err := util.ParsePort(args[1])
		if err != nil {
			return fmt.Errorf("port: %w", err)
		}
		cfg.Host, cfg.Port = args[0], port

	case config.ModeProbe:
		if len(args) != 1 {
			return fmt.Errorf("probe needs exactly one HOST")
		}
		cfg.Host = args[0]

	case config.ModeChecksum:
		cfg.Payload = args
	}
	return nil
}

func knownMode(m config.Mode) bool {
	switch m {
	case config.ModeBind, config.ModeDial, config.ModeProbe, config.ModeChecksum:
		return true
	}
	return false
}

// setIO points a mode at the process's stdio.
func setIO(m core.Mode, stdin io.Reader, stdout io.Writer) {
	switch m := m.(type) {
	case *core.BindMode:
		m.Stdin, m.Stdout = stdin, stdout
	case *core.DialMode:
		m.Stdin, m.Stdout = stdin, stdout
	case *core.ProbeMode:
		m.Stdout = stdout
	case *core.ChecksumMode:
		m.Stdout = stdout
	}
}

func printUsage(w io.Writer, mode config.Mode, fs *flag.FlagSet) {
	if fs != nil {
		fmt.Fprintf(w, "Usage:\n  %s\n\nOptions:\n%s", usageLine(mode), fs.FlagUsages())
		return
	}
	fmt.Fprintf(w, `dualnet v%s

Dual-stack sockets: bind, dial with IPv4/IPv6 fallback, ICMP probes
and Internet checksums.

Usage:
  %s
  %s
  %s
  %s

Run "dualnet <command> --help" for the options of each command.

Examples:
  dualnet bind 8080                            TCP on 0.0.0.0:8080, relay stdio
  dualnet bind -6 -t udp --echo '[::]:5353'    UDP echo on IPv6
  dualnet dial example.com 443                 first family to answer wins
  dualnet dial --via admin@bastion db 5432     through an SSH gateway
  dualnet probe -c 3 example.com               ICMP echo on both families
  dualnet checksum 4500001c...                 checksum of a hex buffer
`, version,
		usageLine(config.ModeBind), usageLine(config.ModeDial),
		usageLine(config.ModeProbe), usageLine(config.ModeChecksum))
}

func usageLine(mode config.Mode) string {
	switch mode {
	case config.ModeBind:
		return "dualnet bind [-t tcp|udp|icmp] [-6] [options] ADDR"
	case config.ModeDial:
		return "dualnet dial [-u] [options] HOST PORT"
	case config.ModeProbe:
		return "dualnet probe [options] HOST"
	case config.ModeChecksum:
		return "dualnet checksum [--strip-ipv4] HEX..."
	}
	return "dualnet <command> [options]"
}
