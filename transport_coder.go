//go:build !js

package nashws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/coder/websocket"
)

// CoderTransport opens connections with github.com/coder/websocket.
// It is the default Transport outside of GOOS=js.
//
// The library bounds the close handshake by itself: WriteClose waits
// up to 5 seconds for the peer's close frame. While waiting, the library
// reads and discards every frame the peer sends, its close frame
// included. After a Close was sent, the Receiver therefore gets no more
// messages and goes straight to io.EOF. Use GorillaTransport or
// GobwasTransport when messages sent by the peer before its close reply
// must be delivered.
//
// A cancelled Receiver context closes the connection. The first failed
// Read ends the Receiver's stream.
type CoderTransport struct {
	// DialOptions are passed to websocket.Dial.
	DialOptions *websocket.DialOptions

	// ReadLimit is the maximum size of a received message in bytes.
	// Zero keeps the library default of 32768 and -1 disables the limit.
	ReadLimit int64
}

var _ Transport = CoderTransport{}

// Open implements Transport.
func (t CoderTransport) Open(ctx context.Context, url string) (Conn, error) {
	c, _, err := websocket.Dial(ctx, url, t.DialOptions)
	if err != nil {
		return nil, err
	}
	if t.ReadLimit != 0 {
		c.SetReadLimit(t.ReadLimit)
	}
	return &coderConn{c: c}, nil
}

type coderConn struct {
	c *websocket.Conn

	// Only accessed by Read.
	readDone bool
}

func (c *coderConn) Read(ctx context.Context) (Message, error) {
	if c.readDone {
		return nil, io.EOF
	}

	typ, p, err := c.c.Read(ctx)
	if err != nil {
		// Every read error leaves the connection unusable.
		c.readDone = true

		var ce websocket.CloseError
		switch {
		case errors.As(err, &ce):
			return Close{Reason: ce.Reason}, nil
		case errors.Is(err, net.ErrClosed):
			return nil, io.EOF
		case isUnexpectedEOF(err):
			return nil, abnormalClosure(err)
		}
		return nil, err
	}

	switch typ {
	case websocket.MessageText:
		return decode(MessageText, p)
	case websocket.MessageBinary:
		return decode(MessageBinary, p)
	default:
		return nil, fmt.Errorf("unexpected message type from websocket.Conn: %v", typ)
	}
}

func (c *coderConn) Write(ctx context.Context, typ MessageType, p []byte) error {
	switch typ {
	case MessageText:
		return c.c.Write(ctx, websocket.MessageText, p)
	case MessageBinary:
		return c.c.Write(ctx, websocket.MessageBinary, p)
	default:
		return fmt.Errorf("cannot write %v as a data frame", typ)
	}
}

func (c *coderConn) WriteClose(ctx context.Context, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.c.Close(websocket.StatusNormalClosure, reason)
}

func (c *coderConn) CloseNow() error {
	err := c.c.CloseNow()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
