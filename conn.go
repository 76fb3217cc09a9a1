package nashws

import (
	"log/slog"
	"sync"
)

// conn is the connection shared by a Sender and its Receiver.
// The transport Conn is mutated only through the Sender's write path,
// the Receiver's read path and closeNow.
type conn struct {
	tc    Conn
	log   *slog.Logger
	state stateFlag

	closeNowOnce sync.Once
	closeNowErr  error
}

func newConn(tc Conn, log *slog.Logger) *conn {
	c := &conn{
		tc:  tc,
		log: log,
	}
	c.state.transition(stateConnecting, stateOpen)
	log.Debug("connection open")
	return c
}

// closing moves an open connection to closing and reports whether
// this call did it.
func (c *conn) closing() bool {
	return c.state.transition(stateOpen, stateClosing)
}

// closed marks the connection fully closed and releases the transport.
func (c *conn) closed() {
	if c.state.advance(stateClosed) != stateClosed {
		c.log.Debug("connection closed")
	}
	c.closeNow()
}

func (c *conn) closeNow() error {
	c.closeNowOnce.Do(func() {
		c.closeNowErr = c.tc.CloseNow()
	})
	return c.closeNowErr
}
