package wstest

import (
	"context"
	"io"

	"github.com/coder/websocket"
)

// EchoLoop echos every msg received from c until an error
// occurs or the context expires.
// The read limit is set to 1 << 30.
func EchoLoop(ctx context.Context, c *websocket.Conn) error {
	defer c.Close(websocket.StatusInternalError, "")

	c.SetReadLimit(1 << 30)

	b := make([]byte, 32<<10)
	for {
		typ, r, err := c.Reader(ctx)
		if err != nil {
			return err
		}

		w, err := c.Writer(ctx, typ)
		if err != nil {
			return err
		}

		_, err = io.CopyBuffer(w, r, b)
		if err != nil {
			return err
		}

		err = w.Close()
		if err != nil {
			return err
		}
	}
}

// SayGoodbye writes msgs to c as text messages and then closes c
// with StatusNormalClosure and reason.
func SayGoodbye(ctx context.Context, c *websocket.Conn, reason string, msgs ...string) error {
	for _, m := range msgs {
		err := c.Write(ctx, websocket.MessageText, []byte(m))
		if err != nil {
			return err
		}
	}
	return c.Close(websocket.StatusNormalClosure, reason)
}
