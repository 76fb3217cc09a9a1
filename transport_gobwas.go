//go:build !js

package nashws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/nash-io/nashws/internal/errd"
)

// GobwasTransport opens connections with github.com/gobwas/ws.
//
// Like GorillaTransport, the first failed Read ends the Receiver's
// stream.
type GobwasTransport struct {
	// Dialer is used for the opening handshake. The zero value is
	// ready to use.
	Dialer ws.Dialer

	// CloseTimeout bounds how long the connection stays open waiting
	// for the peer's close frame after a close frame was written.
	// Defaults to 5 seconds.
	CloseTimeout time.Duration
}

var _ Transport = GobwasTransport{}

// Open implements Transport.
func (t GobwasTransport) Open(ctx context.Context, url string) (Conn, error) {
	nc, br, _, err := t.Dialer.Dial(ctx, url)
	if err != nil {
		return nil, err
	}

	// br holds frames the server sent along with its handshake response.
	var src io.Reader = nc
	if br != nil {
		src = io.MultiReader(br, nc)
	}

	closeTimeout := t.CloseTimeout
	if closeTimeout == 0 {
		closeTimeout = defaultCloseTimeout
	}

	c := &gobwasConn{
		nc:           nc,
		closeTimeout: closeTimeout,
	}
	c.rd = wsutil.Reader{
		Source:         src,
		State:          ws.StateClientSide,
		CheckUTF8:      true,
		OnIntermediate: c.handleControl,
	}
	return c, nil
}

type gobwasConn struct {
	nc           net.Conn
	closeTimeout time.Duration

	// Only accessed by Read.
	rd       wsutil.Reader
	readDone bool

	// writeMu serializes every frame written to nc, including control
	// replies written while reading.
	writeMu    sync.Mutex
	closeSent  bool
	closeTimer *time.Timer
}

func (c *gobwasConn) Read(ctx context.Context) (Message, error) {
	if c.readDone {
		return nil, io.EOF
	}

	stop := context.AfterFunc(ctx, func() {
		c.nc.SetReadDeadline(aLongTimeAgo)
	})
	defer stop()

	m, err := c.read()
	if err != nil {
		c.readDone = true
		c.nc.Close()

		var ce wsutil.ClosedError
		if errors.As(err, &ce) {
			return Close{Reason: ce.Reason}, nil
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, io.EOF
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("failed to read message: %w", ctx.Err())
		}
		if isUnexpectedEOF(err) {
			return nil, abnormalClosure(err)
		}
		return nil, fmt.Errorf("failed to read message: %w", err)
	}
	return m, nil
}

func (c *gobwasConn) read() (Message, error) {
	for {
		h, err := c.rd.NextFrame()
		if err != nil {
			return nil, err
		}

		if h.OpCode.IsControl() {
			err = c.handleControl(h, &c.rd)
			if err != nil {
				return nil, err
			}
			continue
		}

		p, err := io.ReadAll(&c.rd)
		if err != nil {
			return nil, err
		}

		switch h.OpCode {
		case ws.OpText:
			return decode(MessageText, p)
		case ws.OpBinary:
			return decode(MessageBinary, p)
		default:
			return nil, fmt.Errorf("unexpected opcode: %v", h.OpCode)
		}
	}
}

// handleControl answers pings and close frames. The reply is buffered
// so it reaches nc as one write under writeMu.
func (c *gobwasConn) handleControl(h ws.Header, r io.Reader) error {
	var reply bytes.Buffer
	ch := wsutil.ControlHandler{
		Src:   r,
		Dst:   &reply,
		State: ws.StateClientSide,
	}
	err := ch.Handle(h)

	if reply.Len() > 0 {
		c.writeMu.Lock()
		// A close frame we already sent is the reply to the peer's.
		if !c.closeSent {
			if h.OpCode == ws.OpClose {
				c.closeSent = true
			}
			_, werr := c.nc.Write(reply.Bytes())
			if err == nil && werr != nil {
				err = fmt.Errorf("failed to write %v reply: %w", h.OpCode, werr)
			}
		}
		c.writeMu.Unlock()
	}
	return err
}

func (c *gobwasConn) writeFrame(ctx context.Context, op ws.OpCode, p []byte) (err error) {
	defer errd.Wrap(&err, "failed to write %v frame", op)

	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closeSent {
		return errors.New("close frame already sent")
	}

	err = c.nc.SetWriteDeadline(writeDeadline(ctx))
	if err != nil {
		return err
	}
	err = wsutil.WriteClientMessage(c.nc, op, p)
	if err != nil {
		return err
	}

	if op == ws.OpClose {
		c.closeSent = true
		c.closeTimer = time.AfterFunc(c.closeTimeout, func() {
			c.nc.Close()
		})
	}
	return nil
}

func (c *gobwasConn) Write(ctx context.Context, typ MessageType, p []byte) error {
	switch typ {
	case MessageText:
		return c.writeFrame(ctx, ws.OpText, p)
	case MessageBinary:
		return c.writeFrame(ctx, ws.OpBinary, p)
	default:
		return fmt.Errorf("cannot write %v as a data frame", typ)
	}
}

func (c *gobwasConn) WriteClose(ctx context.Context, reason string) error {
	return c.writeFrame(ctx, ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, reason))
}

func (c *gobwasConn) CloseNow() error {
	c.writeMu.Lock()
	if c.closeTimer != nil {
		c.closeTimer.Stop()
	}
	c.writeMu.Unlock()

	err := c.nc.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
