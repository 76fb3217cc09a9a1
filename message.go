package nashws

import (
	"fmt"
	"log/slog"
)

// Message is a message exchanged over a connection.
// The set of implementations is closed: Text, Binary and Close.
type Message interface {
	// Type returns the frame type the message maps to on the wire.
	Type() MessageType

	slog.LogValuer

	message()
}

// Text is a UTF-8 text message.
type Text string

// Binary is an opaque binary message.
type Binary []byte

// Close ends the connection with StatusNormalClosure.
// An empty Reason means the close frame carries no reason.
//
// After a Close is sent or received no other message may be sent.
type Close struct {
	Reason string
}

var (
	_ Message = Text("")
	_ Message = Binary(nil)
	_ Message = Close{}
)

func (Text) Type() MessageType   { return MessageText }
func (Binary) Type() MessageType { return MessageBinary }
func (Close) Type() MessageType  { return MessageClose }

func (Text) message()   {}
func (Binary) message() {}
func (Close) message()  {}

const maxLogPreview = 64

func (m Text) LogValue() slog.Value {
	preview := string(m)
	if len(preview) > maxLogPreview {
		preview = preview[:maxLogPreview] + "...(truncated)"
	}
	return slog.GroupValue(
		slog.String("type", MessageText.String()),
		slog.Int("len", len(m)),
		slog.String("text", preview),
	)
}

func (m Binary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", MessageBinary.String()),
		slog.Int("len", len(m)),
	)
}

func (m Close) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", MessageClose.String()),
		slog.String("reason", m.Reason),
	)
}

// decode converts a data frame payload into its Message.
// p is owned by the returned message.
func decode(typ MessageType, p []byte) (Message, error) {
	switch typ {
	case MessageText:
		return Text(p), nil
	case MessageBinary:
		return Binary(p), nil
	default:
		return nil, fmt.Errorf("unexpected data frame type: %v", typ)
	}
}
