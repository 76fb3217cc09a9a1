package nashws

import "strconv"

// MessageType represents the type of a WebSocket message.
// See https://tools.ietf.org/html/rfc6455#section-5.6
type MessageType int

// MessageType constants.
const (
	// MessageText is for UTF-8 encoded text messages like JSON.
	MessageText MessageType = iota + 1
	// MessageBinary is for binary messages like Protobufs.
	MessageBinary
	// MessageClose is for the close frame that ends a connection.
	MessageClose
)

func (t MessageType) String() string {
	switch t {
	case MessageText:
		return "MessageText"
	case MessageBinary:
		return "MessageBinary"
	case MessageClose:
		return "MessageClose"
	default:
		return "MessageType(" + strconv.Itoa(int(t)) + ")"
	}
}
