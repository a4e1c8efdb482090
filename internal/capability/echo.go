package capability

import (
	"context"

	"dualnet/internal/session"
	"dualnet/util"
)

// Echo writes every byte or datagram received on the connection back
// to the peer.  Stdin and stdout are not used.
type Echo struct{}

// Handle echoes until the peer closes or the context is cancelled.
func (e *Echo) Handle(ctx context.Context, sess *session.Session) error {
	conn := sess.Conn
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	bufp := util.GetDatagramBuf()
	defer util.PutDatagramBuf(bufp)
	buf := *bufp

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			sess.Metrics.BytesReceived(int64(n))
			if _, werr := conn.Write(buf[:n]); werr != nil {
				return echoErr(ctx, werr)
			}
			sess.Metrics.BytesSent(int64(n))
		}
		if err != nil {
			return echoErr(ctx, err)
		}
	}
}

func echoErr(ctx context.Context, err error) error {
	if ctx.Err() != nil || util.IsHarmless(err) {
		return nil
	}
	return err
}
