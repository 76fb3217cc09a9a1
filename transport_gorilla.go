//go:build !js

package nashws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// GorillaTransport opens connections with github.com/gorilla/websocket.
//
// gorilla connections cannot be read after a read error, so the first
// failed Read ends the Receiver's stream.
type GorillaTransport struct {
	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// Header is sent with the opening handshake.
	Header http.Header

	// CloseTimeout bounds how long the connection stays open waiting
	// for the peer's close frame after a close frame was written.
	// Defaults to 5 seconds.
	CloseTimeout time.Duration
}

var _ Transport = GorillaTransport{}

// aLongTimeAgo is a deadline in the past used to interrupt blocked
// reads and writes.
var aLongTimeAgo = time.Unix(1, 0)

const defaultCloseTimeout = time.Second * 5

// Open implements Transport.
func (t GorillaTransport) Open(ctx context.Context, url string) (Conn, error) {
	d := t.Dialer
	if d == nil {
		d = websocket.DefaultDialer
	}

	c, resp, err := d.DialContext(ctx, url, t.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: unexpected handshake response %v", err, resp.Status)
		}
		return nil, err
	}

	closeTimeout := t.CloseTimeout
	if closeTimeout == 0 {
		closeTimeout = defaultCloseTimeout
	}
	return &gorillaConn{
		c:            c,
		closeTimeout: closeTimeout,
	}, nil
}

type gorillaConn struct {
	c            *websocket.Conn
	closeTimeout time.Duration

	// Only accessed by Read.
	readDone bool

	closeMu    sync.Mutex
	closeTimer *time.Timer
}

func (c *gorillaConn) Read(ctx context.Context) (Message, error) {
	if c.readDone {
		return nil, io.EOF
	}

	stop := context.AfterFunc(ctx, func() {
		c.c.SetReadDeadline(aLongTimeAgo)
	})
	defer stop()

	typ, p, err := c.c.ReadMessage()
	if err != nil {
		c.readDone = true
		c.c.Close()

		var ce *websocket.CloseError
		if errors.As(err, &ce) {
			// gorilla reports a dropped connection as a 1006 close
			// although no close frame was received.
			if ce.Code == websocket.CloseAbnormalClosure {
				return nil, abnormalClosure(err)
			}
			return Close{Reason: ce.Text}, nil
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, io.EOF
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("failed to read message: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	switch typ {
	case websocket.TextMessage:
		return decode(MessageText, p)
	case websocket.BinaryMessage:
		return decode(MessageBinary, p)
	default:
		return nil, fmt.Errorf("unexpected message type from websocket.Conn: %v", typ)
	}
}

// writeDeadline returns the deadline of ctx or the zero time.
func writeDeadline(ctx context.Context) time.Time {
	d, _ := ctx.Deadline()
	return d
}

func (c *gorillaConn) Write(ctx context.Context, typ MessageType, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var gtyp int
	switch typ {
	case MessageText:
		gtyp = websocket.TextMessage
	case MessageBinary:
		gtyp = websocket.BinaryMessage
	default:
		return fmt.Errorf("cannot write %v as a data frame", typ)
	}

	err := c.c.SetWriteDeadline(writeDeadline(ctx))
	if err != nil {
		return err
	}
	return c.c.WriteMessage(gtyp, p)
}

func (c *gorillaConn) WriteClose(ctx context.Context, reason string) error {
	deadline := writeDeadline(ctx)
	if deadline.IsZero() {
		deadline = time.Now().Add(c.closeTimeout)
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	err := c.c.WriteControl(websocket.CloseMessage, msg, deadline)
	if err != nil {
		return fmt.Errorf("failed to write close frame: %w", err)
	}

	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closeTimer == nil {
		c.closeTimer = time.AfterFunc(c.closeTimeout, func() {
			c.c.Close()
		})
	}
	return nil
}

func (c *gorillaConn) CloseNow() error {
	c.closeMu.Lock()
	if c.closeTimer != nil {
		c.closeTimer.Stop()
	}
	c.closeMu.Unlock()

	err := c.c.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
