// Package core is the orchestration layer.  It composes the socket
// factory, the dual-stack dialer and capabilities into the four CLI
// modes and provides a builder that selects the right mode from a
// Config.
//
// Architecture layers (bottom → top):
//
//	wire, sock  →  transport  →  dualstack  →  capability/session  →  core  →  cmd
package core

import (
	"context"
	"io"
	"os"
)

// Mode represents a complete operational mode of dualnet (bind, dial,
// probe or checksum).  Each mode owns its full lifecycle from socket
// creation to teardown.
type Mode interface {
	Run(ctx context.Context) error
}

// stdio holds the local endpoints a mode reads and writes.  Nil fields
// fall back to os.Stdin and os.Stdout; tests override them.
type stdio struct {
	Stdin  io.Reader
	Stdout io.Writer
}

func (s stdio) stdin() io.Reader {
	if s.Stdin != nil {
		return s.Stdin
	}
	return os.Stdin
}

func (s stdio) stdout() io.Writer {
	if s.Stdout != nil {
		return s.Stdout
	}
	return os.Stdout
}
