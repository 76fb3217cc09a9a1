package nashws

import (
	"context"
	"io"

	"github.com/nash-io/nashws/internal/xsync"
)

// Receiver is the read side of a connection.
// It has a single consumer: Next returns messages in the order their
// frames arrived and concurrent calls are served one after another.
type Receiver struct {
	c      *conn
	readMu xsync.Mutex
	eof    bool
}

// Next returns the next message of the connection.
//
// A close frame from the peer is returned as a Close message, after
// which no more messages can be sent. A transport failure is returned
// as a *ReceiveError; later calls may still succeed.
//
// Once the connection is fully closed and every buffered message has
// been returned, Next returns io.EOF and keeps returning it.
func (r *Receiver) Next(ctx context.Context) (Message, error) {
	err := r.readMu.Lock(ctx)
	if err != nil {
		return nil, &ReceiveError{Err: err}
	}
	defer r.readMu.Unlock()

	if r.eof {
		return nil, io.EOF
	}

	m, err := r.c.tc.Read(ctx)
	if err == io.EOF {
		r.eof = true
		r.c.closed()
		return nil, io.EOF
	}
	if err != nil {
		return nil, &ReceiveError{Err: err}
	}

	if cm, ok := m.(Close); ok && r.c.closing() {
		r.c.log.Debug("received close frame", "reason", cm.Reason)
	}
	return m, nil
}
