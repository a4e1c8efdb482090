package core

import (
	"context"
	"fmt"
	"io"

	"dualnet/util"
	"dualnet/wire"
)

// ChecksumMode prints the Internet checksum of each payload together
// with its leading big-endian words.
type ChecksumMode struct {
	Payloads  [][]byte
	StripIPv4 bool
	Logger    *util.Logger

	// Stdout defaults to os.Stdout when nil.
	Stdout io.Writer
}

// Run writes one line per payload:
//
//	checksum=0xb1e6 valid=false len=20 u16=0x4500 u32=0x45000014 u64=0x4500001400000000
func (m *ChecksumMode) Run(ctx context.Context) error {
	out := stdio{Stdout: m.Stdout}.stdout()
	for i, b := range m.Payloads {
		if err := ctx.Err(); err != nil {
			return err
		}
		if m.StripIPv4 {
			stripped := wire.StripIPv4Header(b)
			if len(stripped) == len(b) {
				m.Logger.Warn("payload %d: no IPv4 header to strip", i+1)
			}
			b = stripped
		}
		fmt.Fprintf(out, "checksum=%#04x valid=%t len=%d u16=%#04x u32=%#08x u64=%#016x\n",
			wire.Checksum(b), wire.Valid(b), len(b), wire.U16(b), wire.U32(b), wire.U64(b))
	}
	return nil
}
