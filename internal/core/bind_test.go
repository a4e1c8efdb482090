package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
	"testing"
	"time"

	"dualnet/dualstack"
	"dualnet/internal/capability"
	"dualnet/internal/metrics"
	"dualnet/sock"
	"dualnet/util"
)

// startBind runs m in the background and returns the bound address and
// a channel carrying Run's result.
func startBind(t *testing.T, ctx context.Context, m *BindMode) (net.Addr, <-chan error) {
	t.Helper()
	ready := make(chan net.Addr, 1)
	m.Ready = func(a net.Addr) { ready <- a }
	if m.Logger == nil {
		m.Logger = util.NewLogger(0)
	}

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case a := <-ready:
		return a, done
	case err := <-done:
		if errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES) {
			t.Skipf("raw sockets not permitted: %v", err)
		}
		t.Fatalf("Run returned before binding: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for bind")
	}
	return nil, nil
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
	}
	return nil
}

// chanWriter forwards each write to a channel.
type chanWriter chan string

func (c chanWriter) Write(p []byte) (int, error) {
	c <- string(p)
	return len(p), nil
}

func TestBindMode_StreamRelay(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := &bytes.Buffer{}
	m := metrics.New()
	addr, done := startBind(t, ctx, &BindMode{
		Kind:       sock.TCP4,
		Address:    "127.0.0.1:0",
		Capability: &capability.Relay{},
		Metrics:    m,
		Stdin:      &bytes.Buffer{},
		Stdout:     out,
	})

	conn, err := net.Dial("tcp4", addr.String())
	if err != nil {
		t.Fatal(err)
	}
	conn.Write([]byte("hello bind")) //nolint:errcheck
	conn.Close()

	if err := wait(t, done); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != "hello bind" {
		t.Errorf("stdout = %q", out.String())
	}
	if m.TotalConnections() != 1 || m.Snapshot().SocketsBound != 1 {
		t.Errorf("connections=%d bound=%d", m.TotalConnections(), m.Snapshot().SocketsBound)
	}
	if m.TotalBytesIn() != int64(len("hello bind")) {
		t.Errorf("bytes in = %d", m.TotalBytesIn())
	}
}

func TestBindMode_StreamKeepOpen(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, done := startBind(t, ctx, &BindMode{
		Kind:       sock.TCP4,
		Address:    "127.0.0.1:0",
		KeepOpen:   true,
		Capability: &capability.Echo{},
	})

	for _, msg := range []string{"one", "two"} {
		conn, err := net.Dial("tcp4", addr.String())
		if err != nil {
			t.Fatal(err)
		}
		conn.Write([]byte(msg)) //nolint:errcheck
		buf := make([]byte, len(msg))
		conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
		if _, err := io.ReadFull(conn, buf); err != nil {
			t.Fatalf("%s: %v", msg, err)
		}
		if string(buf) != msg {
			t.Errorf("echo = %q, want %q", buf, msg)
		}
		conn.Close()
	}

	cancel()
	if err := wait(t, done); err != nil {
		t.Errorf("Run after cancel: %v", err)
	}
}

func TestBindMode_DatagramSink(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chanWriter, 1)
	addr, done := startBind(t, ctx, &BindMode{
		Kind:    sock.UDP4,
		Address: "127.0.0.1:0",
		Stdout:  out,
	})

	conn, err := net.Dial("udp4", addr.String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.Write([]byte("datagram")) //nolint:errcheck

	select {
	case got := <-out:
		if got != "datagram" {
			t.Errorf("stdout = %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("datagram not written to stdout")
	}

	cancel()
	if err := wait(t, done); err != nil {
		t.Errorf("Run after cancel: %v", err)
	}
}

func TestBindMode_DatagramEcho(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	addr, done := startBind(t, ctx, &BindMode{
		Kind:    sock.UDP4,
		Address: "127.0.0.1:0",
		Echo:    true,
		Metrics: m,
	})

	conn, err := net.Dial("udp4", addr.String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.Write([]byte("ping")) //nolint:errcheck

	buf := make([]byte, 16)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf[:n]) != "ping" {
		t.Errorf("echo = %q", buf[:n])
	}

	cancel()
	if err := wait(t, done); err != nil {
		t.Errorf("Run after cancel: %v", err)
	}
	if m.TotalBytesIn() != 4 || m.TotalBytesOut() != 4 {
		t.Errorf("bytes in/out = %d/%d", m.TotalBytesIn(), m.TotalBytesOut())
	}
}

func TestBindMode_RawICMP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines := make(chanWriter, 64)
	_, done := startBind(t, ctx, &BindMode{
		Kind:    sock.ICMP4,
		Address: "127.0.0.1:0",
		Stdout:  lines,
	})

	a, err := dualstack.Parse("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	o, err := dualstack.DialICMP(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	defer dualstack.CloseAll(o) //nolint:errcheck

	req, err := echoRequest(sock.IPv4, 0x1234, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := o.V4.Write(req); err != nil {
		t.Fatal(err)
	}

	select {
	case line := <-lines:
		if !strings.Contains(line, "echo") || !strings.Contains(line, "checksum=ok") {
			t.Errorf("line = %q", line)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no icmp line written")
	}

	cancel()
	if err := wait(t, done); err != nil {
		t.Errorf("Run after cancel: %v", err)
	}
}

func TestBindMode_BadAddress(t *testing.T) {
	m := &BindMode{Kind: sock.TCP6, Address: "127.0.0.1:0", Capability: &capability.Relay{}}
	if err := m.Run(context.Background()); err == nil {
		t.Fatal("binding an IPv4 address to a tcp6 socket should fail")
	}
}
