// Package metrics provides lock-free counters for a dualnet run: dial
// attempts per address family, partial dual-stack outcomes, relayed
// bytes, validated packets and probe round trips.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"dualnet/sock"
)

// family indexes the per-family counter arrays.
func family(f sock.Family) int {
	if f == sock.IPv6 {
		return 1
	}
	return 0
}

// Collector tracks runtime metrics.  A nil Collector is safe to use.
type Collector struct {
	dialAttempts    [2]atomic.Int64
	dialFailures    [2]atomic.Int64
	partialOutcomes atomic.Int64

	socketsBound      atomic.Int64
	connectionsActive atomic.Int64
	connectionsTotal  atomic.Int64
	bytesIn           atomic.Int64
	bytesOut          atomic.Int64

	packetsValid   atomic.Int64
	packetsInvalid atomic.Int64

	echoSent     atomic.Int64
	echoReceived atomic.Int64
	rttTotal     atomic.Int64 // nanoseconds

	errorsTotal atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Dial metrics ─────────────────────────────────────────────────────

// DialAttempt records one dial started on family f.
func (c *Collector) DialAttempt(f sock.Family) {
	if c == nil {
		return
	}
	c.dialAttempts[family(f)].Add(1)
}

// DialFailure records one dial on family f that returned an error,
// whether or not the error reached the caller.
func (c *Collector) DialFailure(f sock.Family) {
	if c == nil {
		return
	}
	c.dialFailures[family(f)].Add(1)
}

// PartialOutcome records a dual-stack dial where one family failed and
// its error was absorbed.
func (c *Collector) PartialOutcome() {
	if c == nil {
		return
	}
	c.partialOutcomes.Add(1)
}

// DialAttempts returns the attempt count for family f.
func (c *Collector) DialAttempts(f sock.Family) int64 {
	if c == nil {
		return 0
	}
	return c.dialAttempts[family(f)].Load()
}

// DialFailures returns the failure count for family f.
func (c *Collector) DialFailures(f sock.Family) int64 {
	if c == nil {
		return 0
	}
	return c.dialFailures[family(f)].Load()
}

// PartialOutcomes returns the number of absorbed single-family failures.
func (c *Collector) PartialOutcomes() int64 {
	if c == nil {
		return 0
	}
	return c.partialOutcomes.Load()
}

// ── Socket and connection metrics ────────────────────────────────────

// SocketBound records a socket bound through the factory.
func (c *Collector) SocketBound() {
	if c == nil {
		return
	}
	c.socketsBound.Add(1)
}

// ConnectionOpened increments both the active and total counters.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(1)
	c.connectionsTotal.Add(1)
}

// ConnectionClosed decrements the active connection counter.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(-1)
}

// ActiveConnections returns the current number of open connections.
func (c *Collector) ActiveConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsActive.Load()
}

// TotalConnections returns the lifetime connection count.
func (c *Collector) TotalConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsTotal.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from the network.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to the network.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Packet metrics ───────────────────────────────────────────────────

// PacketChecked records one raw packet whose checksum was verified.
func (c *Collector) PacketChecked(valid bool) {
	if c == nil {
		return
	}
	if valid {
		c.packetsValid.Add(1)
	} else {
		c.packetsInvalid.Add(1)
	}
}

// ChecksumFailures returns the number of packets that failed validation.
func (c *Collector) ChecksumFailures() int64 {
	if c == nil {
		return 0
	}
	return c.packetsInvalid.Load()
}

// EchoSent records an ICMP echo request.
func (c *Collector) EchoSent() {
	if c == nil {
		return
	}
	c.echoSent.Add(1)
}

// EchoReceived records a matching echo reply and its round-trip time.
func (c *Collector) EchoReceived(rtt time.Duration) {
	if c == nil {
		return
	}
	c.echoReceived.Add(1)
	c.rttTotal.Add(int64(rtt))
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// FamilyStats is the dial tally for one address family.
type FamilyStats struct {
	Attempts int64 `json:"attempts"`
	Failures int64 `json:"failures"`
}

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime            string      `json:"uptime"`
	DialIPv4          FamilyStats `json:"dial_ipv4"`
	DialIPv6          FamilyStats `json:"dial_ipv6"`
	PartialOutcomes   int64       `json:"partial_outcomes"`
	SocketsBound      int64       `json:"sockets_bound"`
	ConnectionsActive int64       `json:"connections_active"`
	ConnectionsTotal  int64       `json:"connections_total"`
	BytesIn           int64       `json:"bytes_in"`
	BytesOut          int64       `json:"bytes_out"`
	PacketsValid      int64       `json:"packets_valid"`
	PacketsInvalid    int64       `json:"packets_invalid"`
	EchoSent          int64       `json:"echo_sent"`
	EchoReceived      int64       `json:"echo_received"`
	AvgRTT            string      `json:"avg_rtt,omitempty"`
	ErrorsTotal       int64       `json:"errors_total"`
	LastError         string      `json:"last_error,omitempty"`
	LastErrorMessage  string      `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime: time.Since(c.startTime).Truncate(time.Second).String(),
		DialIPv4: FamilyStats{
			Attempts: c.dialAttempts[0].Load(),
			Failures: c.dialFailures[0].Load(),
		},
		DialIPv6: FamilyStats{
			Attempts: c.dialAttempts[1].Load(),
			Failures: c.dialFailures[1].Load(),
		},
		PartialOutcomes:   c.partialOutcomes.Load(),
		SocketsBound:      c.socketsBound.Load(),
		ConnectionsActive: c.connectionsActive.Load(),
		ConnectionsTotal:  c.connectionsTotal.Load(),
		BytesIn:           c.bytesIn.Load(),
		BytesOut:          c.bytesOut.Load(),
		PacketsValid:      c.packetsValid.Load(),
		PacketsInvalid:    c.packetsInvalid.Load(),
		EchoSent:          c.echoSent.Load(),
		EchoReceived:      c.echoReceived.Load(),
		ErrorsTotal:       c.errorsTotal.Load(),
	}
	if s.EchoReceived > 0 {
		avg := time.Duration(c.rttTotal.Load() / s.EchoReceived)
		s.AvgRTT = avg.Round(time.Microsecond).String()
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
