package util

import "sync"

// Buffer sizes for the two I/O shapes: stream relays read in 32 KiB
// chunks; datagram reads need room for the largest UDP/ICMP payload.
const (
	StreamBufSize   = 32 * 1024
	DatagramBufSize = 64 * 1024
)

var (
	streamPool = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, StreamBufSize)
			return &buf
		},
	}
	datagramPool = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, DatagramBufSize)
			return &buf
		},
	}
)

// GetStreamBuf retrieves a StreamBufSize buffer.  Return it with
// [PutStreamBuf].
func GetStreamBuf() *[]byte {
	return streamPool.Get().(*[]byte)
}

// PutStreamBuf returns a buffer obtained from [GetStreamBuf].
func PutStreamBuf(buf *[]byte) {
	if buf == nil || cap(*buf) < StreamBufSize {
		return
	}
	*buf = (*buf)[:StreamBufSize]
	streamPool.Put(buf)
}

// GetDatagramBuf retrieves a DatagramBufSize buffer.  Return it with
// [PutDatagramBuf].
func GetDatagramBuf() *[]byte {
	return datagramPool.Get().(*[]byte)
}

// PutDatagramBuf returns a buffer obtained from [GetDatagramBuf].
func PutDatagramBuf(buf *[]byte) {
	if buf == nil || cap(*buf) < DatagramBufSize {
		return
	}
	*buf = (*buf)[:DatagramBufSize]
	datagramPool.Put(buf)
}
