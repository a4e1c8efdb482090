package metrics

import (
	"testing"

	"dualnet/sock"
)

// BenchmarkCollector_DialAttempt measures the overhead of recording a
// per-family dial attempt (one atomic add).
func BenchmarkCollector_DialAttempt(b *testing.B) {
	c := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.DialAttempt(sock.IPv6)
	}
}

// BenchmarkCollector_BytesSent measures byte-counter overhead.
func BenchmarkCollector_BytesSent(b *testing.B) {
	c := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.BytesSent(32768)
	}
}

// BenchmarkCollector_Snapshot measures the cost of taking a snapshot.
func BenchmarkCollector_Snapshot(b *testing.B) {
	c := New()
	c.DialAttempt(sock.IPv4)
	c.DialFailure(sock.IPv6)
	c.BytesSent(1024)
	c.RecordError("test")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Snapshot()
	}
}

// BenchmarkCollector_JSON measures JSON export overhead.
func BenchmarkCollector_JSON(b *testing.B) {
	c := New()
	c.ConnectionOpened()
	c.BytesSent(1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.JSON()
	}
}

// BenchmarkNilCollector verifies nil-safe no-ops have zero overhead.
func BenchmarkNilCollector(b *testing.B) {
	var c *Collector
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.DialAttempt(sock.IPv4)
		c.BytesSent(32768)
		c.RecordError("test")
	}
}
