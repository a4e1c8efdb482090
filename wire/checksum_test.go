package wire

import (
	"encoding/hex"
	"testing"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

func TestChecksum_Vectors(t *testing.T) {
	tests := []struct {
		name string
		hex  string
		want uint16
	}{
		{"zeros", "00000000", 0xffff},
		{"repeated words", "000000001234123412341234", 0xb72f},
		{
			"captured packet",
			"00000000a91dc7365cc861240a090002ffffff000a0900010808080801010101051408bad5e789aafe821aca0aedc5538d2f3d",
			0x8b78,
		},
		{"single byte", "01", 0xfeff},
		{"odd length", "000102", 0xfdfe},
		{"carry fold", "ffffffff01", 0xfeff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := hex.DecodeString(tt.hex)
			if err != nil {
				t.Fatal(err)
			}
			if got := Checksum(b); got != tt.want {
				t.Errorf("Checksum = %#04x, want %#04x", got, tt.want)
			}
		})
	}
}

func TestChecksum_Empty(t *testing.T) {
	if got := Checksum(nil); got != 0xffff {
		t.Errorf("Checksum(nil) = %#04x, want 0xffff", got)
	}
	if Valid(nil) {
		t.Error("empty buffer should not be valid")
	}
}

// TestChecksum_SelfVerifying writes the checksum into the buffer and
// checks that the sum over the result folds to zero.
func TestChecksum_SelfVerifying(t *testing.T) {
	b := []byte{0x08, 0x00, 0x00, 0x00, 0x12, 0x34, 0x00, 0x01, 'p', 'i', 'n', 'g', '!'}
	cs := Checksum(b)
	b[2], b[3] = byte(cs>>8), byte(cs)
	if !Valid(b) {
		t.Fatalf("Checksum after embedding = %#04x, want 0", Checksum(b))
	}
}

// TestChecksum_MatchesICMPMarshal cross-checks against the checksum
// golang.org/x/net/icmp writes into an echo request.
func TestChecksum_MatchesICMPMarshal(t *testing.T) {
	for _, payload := range []string{"", "a", "hello", "hello, world"} {
		msg := icmp.Message{
			Type: ipv4.ICMPTypeEcho,
			Body: &icmp.Echo{ID: 0x4242, Seq: 9, Data: []byte(payload)},
		}
		b, err := msg.Marshal(nil)
		if err != nil {
			t.Fatal(err)
		}
		if !Valid(b) {
			t.Errorf("payload %q: marshalled echo does not verify", payload)
		}

		want := uint16(b[2])<<8 | uint16(b[3])
		b[2], b[3] = 0, 0
		if got := Checksum(b); got != want {
			t.Errorf("payload %q: Checksum = %#04x, icmp wrote %#04x", payload, got, want)
		}
	}
}
