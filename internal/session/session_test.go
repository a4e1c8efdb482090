package session

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"dualnet/internal/metrics"
)

func TestSession_Counting(t *testing.T) {
	m := metrics.New()
	out := &bytes.Buffer{}
	sess := New(nil, strings.NewReader("ping!"), out, nil)
	sess.Metrics = m

	if _, err := io.Copy(io.Discard, sess.Input()); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.Output().Write([]byte("pong")); err != nil {
		t.Fatal(err)
	}

	if got := m.TotalBytesOut(); got != 5 {
		t.Errorf("bytes out = %d, want 5", got)
	}
	if got := m.TotalBytesIn(); got != 4 {
		t.Errorf("bytes in = %d, want 4", got)
	}
	if out.String() != "pong" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestSession_NoMetrics(t *testing.T) {
	in := strings.NewReader("x")
	out := &bytes.Buffer{}
	sess := New(nil, in, out, nil)

	if sess.Input() != io.Reader(in) {
		t.Error("Input should be Stdin when metrics are off")
	}
	if sess.Output() != io.Writer(out) {
		t.Error("Output should be Stdout when metrics are off")
	}
}
