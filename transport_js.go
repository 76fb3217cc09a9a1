//go:build js

package nashws

import (
	"context"
	"fmt"
	"syscall/js"

	"github.com/nash-io/nashws/internal/wsjs"
)

// BrowserTransport opens connections with the browser's WebSocket API.
// It is the default Transport under GOOS=js.
//
// The browser reports everything through events; messages are queued
// as they arrive until the Receiver reads them. The queue is unbounded.
type BrowserTransport struct {
	// Subprotocols lists the subprotocols to negotiate with the server.
	Subprotocols []string
}

var _ Transport = BrowserTransport{}

// Open implements Transport.
func (t BrowserTransport) Open(ctx context.Context, url string) (Conn, error) {
	ws, err := wsjs.New(url, t.Subprotocols)
	if err != nil {
		return nil, err
	}
	return openPush(ctx, browserSocket{ws: ws})
}

type browserSocket struct {
	ws wsjs.WebSocket
}

var _ eventSocket = browserSocket{}

func (s browserSocket) OnOpen(fn func()) func() {
	return s.ws.OnOpen(func(js.Value) {
		fn()
	})
}

func (s browserSocket) OnMessage(fn func(Message, error)) func() {
	return s.ws.OnMessage(func(e wsjs.MessageEvent) {
		switch p := e.Data.(type) {
		case string:
			fn(Text(p), nil)
		case []byte:
			fn(Binary(p), nil)
		default:
			fn(nil, fmt.Errorf("unexpected data type from wsjs OnMessage: %T", e.Data))
		}
	})
}

func (s browserSocket) OnError(fn func()) func() {
	return s.ws.OnError(func(js.Value) {
		fn()
	})
}

func (s browserSocket) OnClose(fn func(StatusCode, string, bool)) func() {
	return s.ws.OnClose(func(e wsjs.CloseEvent) {
		fn(StatusCode(e.Code), e.Reason, e.WasClean)
	})
}

func (s browserSocket) SendText(v string) error {
	return s.ws.SendText(v)
}

func (s browserSocket) SendBytes(p []byte) error {
	return s.ws.SendBytes(p)
}

func (s browserSocket) Close(code StatusCode, reason string) error {
	return s.ws.Close(int(code), reason)
}
