package nashws

import (
	"errors"
	"fmt"
)

// ErrClosed is wrapped by SendError when a message is sent after a
// Close has been sent or received.
var ErrClosed = errors.New("websocket closed")

// ConnectionError is returned by Dial when the connection could not be
// opened. It is never retried.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %q: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// SendError is returned by Sender when a message could not be written,
// either because the connection is no longer open or because the
// transport rejected the write.
type SendError struct {
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("failed to send: %v", e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// ReceiveError is returned by Receiver when the transport failed to
// deliver or decode a frame. Later calls to Next may still succeed.
type ReceiveError struct {
	Err error
}

func (e *ReceiveError) Error() string {
	return fmt.Sprintf("failed to receive: %v", e.Err)
}

func (e *ReceiveError) Unwrap() error {
	return e.Err
}
