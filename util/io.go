package util

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
)

// BidirectionalCopy shuffles data between a connection and a
// reader/writer pair (typically stdin/stdout) until one side reaches EOF
// or the context is cancelled.  The connection is closed on return.
//
// Stream connections read through pooled StreamBufSize buffers.
// Datagram and raw connections get DatagramBufSize buffers so a single
// read never truncates a message.
func BidirectionalCopy(ctx context.Context, conn net.Conn, r io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	get, put := GetStreamBuf, PutStreamBuf
	if !isStream(conn) {
		get, put = GetDatagramBuf, PutDatagramBuf
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	// network → writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := get()
		defer put(buf)
		_, err := io.CopyBuffer(w, onlyReader{conn}, *buf)
		errCh <- err
		cancel()
	}()

	// reader → network
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := get()
		defer put(buf)
		_, err := io.CopyBuffer(onlyWriter{conn}, onlyReader{r}, *buf)
		// Half-close so the remote sees EOF but can keep sending.
		if cw, ok := conn.(interface{ CloseWrite() error }); ok {
			cw.CloseWrite() //nolint:errcheck
		}
		errCh <- err
		// A clean EOF from the reader must not tear down the
		// connection before the remote finishes sending.
		if err != nil {
			cancel()
		}
	}()

	<-ctx.Done()
	conn.Close() // unblock any pending reads/writes
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil && !IsHarmless(err) {
			return err
		}
	}
	return nil
}

// IsHarmless reports whether err is expected during shutdown.
func IsHarmless(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}

func isStream(conn net.Conn) bool {
	switch conn.(type) {
	case *net.UDPConn, *net.IPConn:
		return false
	}
	return true
}

// onlyReader and onlyWriter hide ReaderFrom/WriterTo so CopyBuffer
// actually uses the pooled buffer.
type onlyReader struct{ io.Reader }
type onlyWriter struct{ io.Writer }
