package nashws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/nash-io/nashws/internal/bridge"
)

// eventSocket is a WebSocket that reports everything through callbacks,
// like the browser's WebSocket object. Sends never block.
//
// Every On method registers fn and returns a func that unregisters it.
type eventSocket interface {
	OnOpen(fn func()) (release func())
	// OnMessage receives each data frame in arrival order, or an error
	// for a frame that could not be decoded.
	OnMessage(fn func(m Message, err error)) (release func())
	OnError(fn func()) (release func())
	OnClose(fn func(code StatusCode, reason string, wasClean bool)) (release func())

	SendText(s string) error
	SendBytes(p []byte) error
	Close(code StatusCode, reason string) error
}

// inbound is one entry of the receive queue.
type inbound struct {
	m   Message
	err error
}

// pushConn adapts an eventSocket to Conn. Callbacks push onto an
// unbounded queue which Read pops, so arrival order is read order.
type pushConn struct {
	sock eventSocket
	q    *bridge.Queue[inbound]

	mu        sync.Mutex
	signalled bool
	opened    chan error
	closed    bool

	releaseOnce sync.Once
	releases    []func()
}

// openPush waits for sock to open. Exactly one of the open, error or
// close events decides the result.
func openPush(ctx context.Context, sock eventSocket) (Conn, error) {
	c := &pushConn{
		sock:   sock,
		q:      bridge.New[inbound](),
		opened: make(chan error, 1),
	}
	c.releases = []func(){
		sock.OnOpen(c.onOpen),
		sock.OnMessage(c.onMessage),
		sock.OnError(c.onError),
		sock.OnClose(c.onClose),
	}

	select {
	case err := <-c.opened:
		if err != nil {
			c.release()
			return nil, err
		}
		return c, nil
	case <-ctx.Done():
		c.release()
		sock.Close(StatusNormalClosure, "")
		return nil, ctx.Err()
	}
}

// signal reports the open result once and whether this call did it.
func (c *pushConn) signal(err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.signalled {
		return false
	}
	c.signalled = true
	c.opened <- err
	return true
}

func (c *pushConn) onOpen() {
	c.signal(nil)
}

func (c *pushConn) onMessage(m Message, err error) {
	c.q.Push(inbound{m: m, err: err})
}

func (c *pushConn) onError() {
	if c.signal(errors.New("error event before the connection opened")) {
		return
	}
	c.q.Push(inbound{err: errors.New("error event")})
}

func (c *pushConn) onClose(code StatusCode, reason string, wasClean bool) {
	ce := CloseError{Code: code, Reason: reason}
	if c.signal(fmt.Errorf("closed before the connection opened: %w", ce)) {
		return
	}

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	if wasClean {
		c.q.Push(inbound{m: Close{Reason: reason}})
	} else {
		c.q.Push(inbound{err: fmt.Errorf("connection closed abnormally: %w", ce)})
	}
	c.q.Terminate()
	c.release()
}

func (c *pushConn) release() {
	c.releaseOnce.Do(func() {
		for _, release := range c.releases {
			release()
		}
	})
}

func (c *pushConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *pushConn) Read(ctx context.Context) (Message, error) {
	in, err := c.q.Pop(ctx)
	if errors.Is(err, bridge.ErrTerminated) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}
	return in.m, in.err
}

func (c *pushConn) Write(ctx context.Context, typ MessageType, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// A closed browser WebSocket silently discards sends.
	if c.isClosed() {
		return fmt.Errorf("socket already closed: %w", ErrClosed)
	}

	switch typ {
	case MessageText:
		return c.sock.SendText(string(p))
	case MessageBinary:
		return c.sock.SendBytes(p)
	default:
		return fmt.Errorf("cannot write %v as a data frame", typ)
	}
}

func (c *pushConn) WriteClose(ctx context.Context, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.sock.Close(StatusNormalClosure, reason)
}

// CloseNow closes the socket and discards every message that has not
// been read yet.
func (c *pushConn) CloseNow() error {
	c.mu.Lock()
	wasClosed := c.closed
	c.closed = true
	c.mu.Unlock()

	c.release()
	c.q.Discard()
	if wasClosed {
		return nil
	}
	// Browsers cannot drop a connection without a close handshake.
	return c.sock.Close(StatusNormalClosure, "")
}
