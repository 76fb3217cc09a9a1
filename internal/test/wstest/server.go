package wstest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/coder/websocket"
)

// Handler serves one accepted server side connection.
type Handler func(ctx context.Context, c *websocket.Conn) error

// HTTPHandler returns an http.Handler accepting WebSocket connections
// and passing them to h. Every connection's context is derived from ctx.
// wg tracks running handlers and errors from h are passed to logf.
func HTTPHandler(ctx context.Context, wg *sync.WaitGroup, logf func(string, ...interface{}), h Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wg.Add(1)
		defer wg.Done()

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logf("failed to accept: %v", err)
			return
		}
		defer c.CloseNow()

		err = h(ctx, c)
		if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
			logf("server handler: %v", err)
		}
	})
}

// Server starts an httptest.Server running h for every WebSocket connection.
// It is shut down when tb's cleanups run, after all handlers have returned.
func Server(tb testing.TB, h Handler) *httptest.Server {
	tb.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	s := httptest.NewServer(HTTPHandler(ctx, &wg, tb.Logf, h))
	tb.Cleanup(func() {
		s.Close()
		cancel()
		wg.Wait()
	})
	return s
}

// EchoServer is Server running EchoLoop.
func EchoServer(tb testing.TB) *httptest.Server {
	tb.Helper()
	return Server(tb, EchoLoop)
}
