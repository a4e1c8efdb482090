package wire

// Checksum returns the RFC 1071 one's-complement checksum of b.
//
// The word loop stops before the final byte (bound len(b)-1).  When that
// bound is even the final byte is added as the high half of a zero-padded
// word, so odd and even lengths both cover every byte exactly once.  An
// empty buffer yields 0xffff.
func Checksum(b []byte) uint16 {
	if len(b) == 0 {
		return 0xffff
	}
	n := len(b) - 1
	var sum uint64
	for i := 0; i < n; i += 2 {
		sum += uint64(b[i])<<8 | uint64(b[i+1])
	}
	if n%2 == 0 {
		sum += uint64(b[n]) << 8
	}
	for sum > 0xffff {
		sum = sum>>16 + sum&0xffff
	}
	return ^uint16(sum)
}

// Valid reports whether b, which carries its own checksum field, sums to
// zero.  ICMPv4 messages and IPv4 headers are checked this way.
func Valid(b []byte) bool {
	return len(b) > 0 && Checksum(b) == 0
}
