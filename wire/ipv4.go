package wire

import "golang.org/x/net/ipv4"

// StripIPv4Header returns the payload that follows an IPv4 header at the
// start of b.  It is a best-effort strip: when b is shorter than a minimal
// header, is not version 4, or declares a header length outside
// [20, len(b)], b is returned unchanged and the caller must cope with the
// unstripped buffer.
func StripIPv4Header(b []byte) []byte {
	hl, ok := IPv4HeaderLen(b)
	if !ok {
		return b
	}
	return b[hl:]
}

// IPv4HeaderLen reports the header length declared by an IPv4 packet and
// whether it passes the checks StripIPv4Header applies.
func IPv4HeaderLen(b []byte) (int, bool) {
	if len(b) < ipv4.HeaderLen {
		return 0, false
	}
	if b[0]>>4 != ipv4.Version {
		return 0, false
	}
	hl := int(b[0]&0x0f) << 2
	if hl < ipv4.HeaderLen || hl > len(b) {
		return 0, false
	}
	return hl, true
}
