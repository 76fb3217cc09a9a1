package nashws

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Transport opens connections through a host WebSocket implementation.
// The wire framing, TLS and the opening handshake are all the host's.
type Transport interface {
	// Open blocks until the connection to url is open or has failed.
	// It signals exactly once: a Conn or an error.
	Open(ctx context.Context, url string) (Conn, error)
}

// Conn is an open connection returned by a Transport.
//
// Write and WriteClose are never called concurrently with each other.
// Read is never called concurrently with itself but may run while a
// write is in progress.
type Conn interface {
	// Read returns the next Text or Binary message in wire order, or a
	// Close message when the peer's close frame arrives.
	// Once the connection is fully closed it returns io.EOF.
	Read(ctx context.Context) (Message, error)

	// Write writes p as a single data frame of type typ.
	Write(ctx context.Context, typ MessageType, p []byte) error

	// WriteClose writes a close frame with StatusNormalClosure.
	// An empty reason writes a close frame without a reason.
	WriteClose(ctx context.Context, reason string) error

	// CloseNow closes the connection without a close handshake.
	CloseNow() error
}

// abnormalClosure wraps err, a read failure caused by the connection
// ending without a close frame, so that CloseStatus reports
// StatusAbnormalClosure on every transport.
func abnormalClosure(err error) error {
	return fmt.Errorf("connection closed abnormally: %w: %w", CloseError{Code: StatusAbnormalClosure}, err)
}

func isUnexpectedEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
