package nashws

import (
	"context"
	"errors"
	"fmt"

	"github.com/nash-io/nashws/internal/errd"
	"github.com/nash-io/nashws/internal/xsync"
)

// Sender is the write side of a connection.
//
// A *Sender may be shared by any number of goroutines. Their messages
// are written one at a time: a frame is completely written, or has
// failed, before the next one starts.
type Sender struct {
	c       *conn
	writeMu xsync.Mutex
}

// Send writes m to the connection.
//
// Text and Binary are written as text and binary frames without any
// transformation. Close starts the close handshake by writing a close
// frame with StatusNormalClosure.
//
// Once a Close has been sent or received, Send fails with a *SendError
// wrapping ErrClosed. The maximum time spent waiting for the write is
// bounded by ctx.
func (s *Sender) Send(ctx context.Context, m Message) error {
	err := s.send(ctx, m)
	if err != nil {
		return &SendError{Err: err}
	}
	return nil
}

// Close sends Close{Reason: reason}.
func (s *Sender) Close(ctx context.Context, reason string) error {
	return s.Send(ctx, Close{Reason: reason})
}

// CloseNow closes the connection without a close handshake.
// Later sends fail and the Receiver reaches the end of its stream.
func (s *Sender) CloseNow() (err error) {
	defer errd.Wrap(&err, "failed to immediately close WebSocket")

	if s.c.state.advance(stateClosed) == stateClosed {
		return nil
	}
	s.c.log.Debug("closing connection without handshake")
	return s.c.closeNow()
}

func (s *Sender) send(ctx context.Context, m Message) error {
	if m == nil {
		return errors.New("cannot send nil message")
	}

	err := s.writeMu.Lock(ctx)
	if err != nil {
		return err
	}
	defer s.writeMu.Unlock()

	if st := s.c.state.load(); st != stateOpen {
		return fmt.Errorf("connection is %v: %w", st, ErrClosed)
	}

	switch m := m.(type) {
	case Text:
		err = s.c.tc.Write(ctx, MessageText, []byte(m))
	case Binary:
		err = s.c.tc.Write(ctx, MessageBinary, m)
	case Close:
		if !s.c.closing() {
			return fmt.Errorf("connection is %v: %w", s.c.state.load(), ErrClosed)
		}
		s.c.log.Debug("sending close frame", "reason", m.Reason)
		err = s.c.tc.WriteClose(ctx, m.Reason)
	default:
		return fmt.Errorf("unknown message type: %T", m)
	}
	if err != nil {
		s.c.log.Warn("write failed", "msg", m, "err", err)
		return err
	}
	return nil
}
