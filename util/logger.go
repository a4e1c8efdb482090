// Package util provides low-level helpers shared by all other packages:
// the levelled logger, address formatting, buffer pools and the stdio
// relay loop.
package util

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
)

// sink is the output shared by a logger and every child from Named.
type sink struct {
	mu         sync.Mutex
	output     io.Writer
	timestamps bool
}

// Logger writes levelled lines to stderr.  A nil *Logger discards
// everything, so library packages can take one without nil checks.
type Logger struct {
	level LogLevel
	name  string
	sink  *sink
}

// NewLogger returns a Logger that prints messages at or below the given
// verbosity (0 = quiet, 1 = normal, 2 = verbose, 3 = debug).
func NewLogger(verbosity int) *Logger {
	return &Logger{
		level: LogLevel(verbosity),
		sink: &sink{
			output:     os.Stderr,
			timestamps: verbosity >= 3,
		},
	}
}

// Named returns a child logger that tags each line with component.
// Children share the parent's output, level and timestamp setting.
func (l *Logger) Named(component string) *Logger {
	if l == nil {
		return nil
	}
	name := component
	if l.name != "" {
		name = l.name + "/" + component
	}
	return &Logger{level: l.level, name: name, sink: l.sink}
}

// SetTimestamps enables or disables timestamp prefixes.
func (l *Logger) SetTimestamps(on bool) {
	l.sink.mu.Lock()
	l.sink.timestamps = on
	l.sink.mu.Unlock()
}

// SetOutput overrides the output writer (default: os.Stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	l.sink.output = w
	l.sink.mu.Unlock()
}

// Writer returns the current output, for progress bars and other
// collaborators that draw on the same stream.
func (l *Logger) Writer() io.Writer {
	if l == nil {
		return io.Discard
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.output
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel {
	if l == nil {
		return LogQuiet
	}
	return l.level
}

// Info prints when verbosity ≥ 1.
func (l *Logger) Info(format string, args ...interface{}) { l.at(LogNormal, "INF", format, args...) }

// Warn prints when verbosity ≥ 1.
func (l *Logger) Warn(format string, args ...interface{}) { l.at(LogNormal, "WRN", format, args...) }

// Verbose prints when verbosity ≥ 2.
func (l *Logger) Verbose(format string, args ...interface{}) {
	l.at(LogVerbose, "VRB", format, args...)
}

// Debug prints when verbosity ≥ 3.
func (l *Logger) Debug(format string, args ...interface{}) { l.at(LogDebug, "DBG", format, args...) }

// Error always prints regardless of verbosity.
func (l *Logger) Error(format string, args ...interface{}) { l.at(LogQuiet, "ERR", format, args...) }

func (l *Logger) at(min LogLevel, tag, format string, args ...interface{}) {
	if l == nil || l.level < min {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if l.name != "" {
		msg = l.name + ": " + msg
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if l.sink.timestamps {
		ts := time.Now().Format("15:04:05.000")
		fmt.Fprintf(l.sink.output, "%s [%s] %s\n", ts, tag, msg)
	} else {
		fmt.Fprintf(l.sink.output, "[%s] %s\n", tag, msg)
	}
}
