// Package nashws is a message oriented WebSocket client that works the
// same natively and in the browser.
//
// Dial opens a connection and splits it into a *Sender and a *Receiver.
// Messages are Text, Binary or Close values:
//
//	s, r, err := nashws.Dial(ctx, "wss://example.com/ws", nil)
//	if err != nil {
//		return err
//	}
//	defer s.CloseNow()
//
//	err = s.Send(ctx, nashws.Text("hello"))
//	...
//	m, err := r.Next(ctx)
//
// The Sender may be shared between goroutines, its messages are never
// interleaved. Sending a Close starts the close handshake; afterwards
// every Send fails with ErrClosed. The Receiver returns a Close when the
// peer starts the close handshake and io.EOF once the connection is
// fully closed.
//
// Natively, connections are made with github.com/coder/websocket.
// GorillaTransport and GobwasTransport use github.com/gorilla/websocket
// and github.com/gobwas/ws instead. When compiled to Wasm, the
// browser's WebSocket API is used and native options are ignored.
//
// See https://tools.ietf.org/html/rfc6455
package nashws
