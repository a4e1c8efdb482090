package core

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"dualnet/dualstack"
	"dualnet/internal/capability"
	ncerr "dualnet/internal/errors"
	"dualnet/internal/metrics"
	"dualnet/internal/retry"
	"dualnet/sock"
	"dualnet/util"
)

func dialMode(host string, port int, m *metrics.Collector) *DialMode {
	return &DialMode{
		Resolver:   &dualstack.Resolver{NoDNS: true},
		Dialer:     &dualstack.Dialer{Metrics: m},
		Transport:  sock.Stream,
		Host:       host,
		Port:       port,
		Backoff:    &retry.Backoff{InitialDelay: 10 * time.Millisecond, MaxAttempts: 2},
		Capability: &capability.Relay{},
		Logger:     util.NewLogger(0),
		Metrics:    m,
		Stdin:      &bytes.Buffer{},
		Stdout:     &bytes.Buffer{},
	}
}

// TestDialMode_TCP verifies end-to-end dial mode with Relay.
func TestDialMode_TCP(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("hello from server\n")) //nolint:errcheck
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	m := metrics.New()
	mode := dialMode("127.0.0.1", ln.Addr().(*net.TCPAddr).Port, m)
	out := &bytes.Buffer{}
	mode.Stdout = out

	if err := mode.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := out.String(); got != "hello from server\n" {
		t.Errorf("output = %q", got)
	}
	if m.DialAttempts(sock.IPv4) != 1 || m.TotalConnections() != 1 {
		t.Errorf("attempts=%d connections=%d", m.DialAttempts(sock.IPv4), m.TotalConnections())
	}
}

// TestDialMode_SendData verifies data flows from stdin to the server.
func TestDialMode_SendData(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var buf bytes.Buffer
		buf.ReadFrom(conn) //nolint:errcheck
		received <- buf.String()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	mode := dialMode("127.0.0.1", ln.Addr().(*net.TCPAddr).Port, nil)
	mode.Stdin = bytes.NewBufferString("payload from client")
	_ = mode.Run(ctx)

	select {
	case got := <-received:
		if got != "payload from client" {
			t.Errorf("server got %q", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for data")
	}
}

func TestDialMode_RetriesRefused(t *testing.T) {
	port, err := util.FindFreePort("tcp4")
	if err != nil {
		t.Fatal(err)
	}

	m := metrics.New()
	var retries []int
	mode := dialMode("127.0.0.1", port, m)
	mode.Backoff.OnRetry = func(attempt int, _ time.Duration, _ error) { retries = append(retries, attempt) }

	err = mode.Run(context.Background())
	if err == nil {
		t.Fatal("expected connection refused")
	}
	if !strings.Contains(err.Error(), "max retries (2)") {
		t.Errorf("err = %v", err)
	}
	if m.DialAttempts(sock.IPv4) != 2 || len(retries) != 1 {
		t.Errorf("attempts=%d retries=%v", m.DialAttempts(sock.IPv4), retries)
	}
}

func TestDialMode_HostnameWithoutDNS(t *testing.T) {
	m := metrics.New()
	mode := dialMode("example.com", 80, m)

	err := mode.Run(context.Background())
	if !ncerr.IsInputError(err) {
		t.Fatalf("err = %v, want input error", err)
	}
	if m.DialAttempts(sock.IPv4)+m.DialAttempts(sock.IPv6) != 0 {
		t.Error("nothing should be dialed for an unresolvable name")
	}
}
