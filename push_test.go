package nashws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/nash-io/nashws/internal/test/assert"
	"github.com/nash-io/nashws/internal/test/xrand"
)

// fakeSocket is a scripted eventSocket. With echo set, sends are
// delivered straight back through the message callback and Close
// fires a clean close event, all on the caller's goroutine.
type fakeSocket struct {
	echo bool

	mu        sync.Mutex
	onOpen    func()
	onMessage func(Message, error)
	onError   func()
	onClose   func(StatusCode, string, bool)
	ready     chan struct{}
	closes    []CloseError
	sent      []Message
}

func newFakeSocket(echo bool) *fakeSocket {
	return &fakeSocket{
		echo:  echo,
		ready: make(chan struct{}),
	}
}

var _ eventSocket = (*fakeSocket)(nil)

// register stores a callback and closes ready once all four are set.
func (s *fakeSocket) register(set func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set()
	if s.onOpen != nil && s.onMessage != nil && s.onError != nil && s.onClose != nil {
		select {
		case <-s.ready:
		default:
			close(s.ready)
		}
	}
}

func (s *fakeSocket) OnOpen(fn func()) func() {
	s.register(func() { s.onOpen = fn })
	return func() { s.register(func() { s.onOpen = nil }) }
}

func (s *fakeSocket) OnMessage(fn func(Message, error)) func() {
	s.register(func() { s.onMessage = fn })
	return func() { s.register(func() { s.onMessage = nil }) }
}

func (s *fakeSocket) OnError(fn func()) func() {
	s.register(func() { s.onError = fn })
	return func() { s.register(func() { s.onError = nil }) }
}

func (s *fakeSocket) OnClose(fn func(StatusCode, string, bool)) func() {
	s.register(func() { s.onClose = fn })
	return func() { s.register(func() { s.onClose = nil }) }
}

func (s *fakeSocket) registered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ok := range []bool{s.onOpen != nil, s.onMessage != nil, s.onError != nil, s.onClose != nil} {
		if ok {
			n++
		}
	}
	return n
}

func (s *fakeSocket) fireOpen() {
	s.mu.Lock()
	fn := s.onOpen
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *fakeSocket) fireMessage(m Message, err error) {
	s.mu.Lock()
	fn := s.onMessage
	s.mu.Unlock()
	if fn != nil {
		fn(m, err)
	}
}

func (s *fakeSocket) fireError() {
	s.mu.Lock()
	fn := s.onError
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *fakeSocket) fireClose(code StatusCode, reason string, wasClean bool) {
	s.mu.Lock()
	fn := s.onClose
	s.mu.Unlock()
	if fn != nil {
		fn(code, reason, wasClean)
	}
}

func (s *fakeSocket) record(m Message) {
	s.mu.Lock()
	s.sent = append(s.sent, m)
	s.mu.Unlock()
	if s.echo {
		s.fireMessage(m, nil)
	}
}

func (s *fakeSocket) SendText(v string) error {
	s.record(Text(v))
	return nil
}

func (s *fakeSocket) SendBytes(p []byte) error {
	s.record(Binary(append([]byte(nil), p...)))
	return nil
}

func (s *fakeSocket) Close(code StatusCode, reason string) error {
	s.mu.Lock()
	s.closes = append(s.closes, CloseError{Code: code, Reason: reason})
	s.mu.Unlock()
	if s.echo {
		s.fireClose(code, reason, true)
	}
	return nil
}

func (s *fakeSocket) closeCalls() []CloseError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CloseError(nil), s.closes...)
}

// fakeTransport opens sock and runs script once every callback is
// registered.
type fakeTransport struct {
	sock   *fakeSocket
	script func(s *fakeSocket)
}

func (t fakeTransport) Open(ctx context.Context, url string) (Conn, error) {
	go func() {
		<-t.sock.ready
		if t.script != nil {
			t.script(t.sock)
		}
	}()
	return openPush(ctx, t.sock)
}

func openScript(s *fakeSocket) {
	s.fireOpen()
}

func dialFake(t *testing.T, sock *fakeSocket, script func(*fakeSocket)) (*Sender, *Receiver) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	s, r, err := Dial(ctx, "ws://fake", &DialOptions{
		Transport: fakeTransport{sock: sock, script: script},
	})
	assert.Success(t, err)
	return s, r
}

func TestPush(t *testing.T) {
	t.Parallel()

	t.Run("echo", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		s, r := dialFake(t, newFakeSocket(true), openScript)

		exp := []Message{Text("Hello"), Binary{1, 2, 3}, Text("Echo")}
		for _, m := range exp {
			assert.Success(t, s.Send(ctx, m))
		}
		for i, m := range exp {
			act, err := r.Next(ctx)
			assert.Success(t, err)
			assert.Equal(t, fmt.Sprintf("message %d", i+1), m, act)
		}
	})

	t.Run("ordering", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		s, r := dialFake(t, newFakeSocket(true), openScript)

		var exp []Message
		for i := 0; i < 100; i++ {
			var m Message = Text(xrand.String(xrand.Int(512)))
			if xrand.Bool() {
				m = Binary(xrand.Bytes(xrand.Int(512)))
			}
			exp = append(exp, m)
			assert.Success(t, s.Send(ctx, m))
		}
		for i := range exp {
			act, err := r.Next(ctx)
			assert.Success(t, err)
			assert.Equal(t, fmt.Sprintf("message %d", i), exp[i], act)
		}
	})

	t.Run("closeHandshake", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		sock := newFakeSocket(true)
		s, r := dialFake(t, sock, openScript)

		assert.Success(t, s.Send(ctx, Text("last")))
		assert.Success(t, s.Close(ctx, "bye"))
		assert.Equal(t, "close calls", []CloseError{{Code: StatusNormalClosure, Reason: "bye"}}, sock.closeCalls())

		err := s.Send(ctx, Text("too late"))
		var se *SendError
		assert.ErrorAs(t, err, &se)
		assert.ErrorIs(t, ErrClosed, err)
		assert.ErrorIs(t, ErrClosed, s.Close(ctx, ""))

		m, err := r.Next(ctx)
		assert.Success(t, err)
		assert.Equal(t, "message", Text("last"), m)

		m, err = r.Next(ctx)
		assert.Success(t, err)
		assert.Equal(t, "message", Close{Reason: "bye"}, m)

		for i := 0; i < 3; i++ {
			_, err = r.Next(ctx)
			assert.Equal(t, "err", io.EOF, err)
		}
		assert.Equal(t, "registered callbacks", 0, sock.registered())
	})

	t.Run("peerClose", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		sock := newFakeSocket(false)
		delivered := make(chan struct{})
		s, r := dialFake(t, sock, func(s *fakeSocket) {
			s.fireOpen()
			s.fireMessage(Text("one"), nil)
			s.fireClose(StatusNormalClosure, "going", true)
			close(delivered)
		})
		<-delivered

		m, err := r.Next(ctx)
		assert.Success(t, err)
		assert.Equal(t, "message", Text("one"), m)

		// The socket has closed but the Close has not been read yet.
		err = s.Send(ctx, Text("x"))
		assert.ErrorIs(t, ErrClosed, err)
		assert.Contains(t, err, "already closed")

		m, err = r.Next(ctx)
		assert.Success(t, err)
		assert.Equal(t, "message", Close{Reason: "going"}, m)

		assert.ErrorIs(t, ErrClosed, s.Send(ctx, Text("x")))

		_, err = r.Next(ctx)
		assert.Equal(t, "err", io.EOF, err)
	})

	t.Run("abnormalClose", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		_, r := dialFake(t, newFakeSocket(false), func(s *fakeSocket) {
			s.fireOpen()
			s.fireError()
			s.fireClose(StatusAbnormalClosure, "", false)
		})

		_, err := r.Next(ctx)
		var re *ReceiveError
		assert.ErrorAs(t, err, &re)
		assert.Contains(t, err, "error event")

		_, err = r.Next(ctx)
		assert.ErrorAs(t, err, &re)
		assert.Equal(t, "close status", StatusAbnormalClosure, CloseStatus(err))

		_, err = r.Next(ctx)
		assert.Equal(t, "err", io.EOF, err)
	})

	t.Run("decodeError", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		_, r := dialFake(t, newFakeSocket(false), func(s *fakeSocket) {
			s.fireOpen()
			s.fireMessage(nil, errors.New("unexpected data type"))
			s.fireMessage(Text("after"), nil)
		})

		_, err := r.Next(ctx)
		var re *ReceiveError
		assert.ErrorAs(t, err, &re)

		m, err := r.Next(ctx)
		assert.Success(t, err)
		assert.Equal(t, "message", Text("after"), m)
	})

	t.Run("closeNowDiscards", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		sock := newFakeSocket(false)
		delivered := make(chan struct{})
		s, r := dialFake(t, sock, func(s *fakeSocket) {
			s.fireOpen()
			for i := 0; i < 3; i++ {
				s.fireMessage(Text("queued"), nil)
			}
			close(delivered)
		})
		<-delivered

		assert.Success(t, s.CloseNow())
		assert.Success(t, s.CloseNow())
		assert.Equal(t, "close calls", []CloseError{{Code: StatusNormalClosure}}, sock.closeCalls())

		_, err := r.Next(ctx)
		assert.Equal(t, "err", io.EOF, err)
		assert.ErrorIs(t, ErrClosed, s.Send(ctx, Text("x")))
	})

	t.Run("openError", func(t *testing.T) {
		t.Parallel()

		sock := newFakeSocket(false)
		_, _, err := Dial(context.Background(), "ws://fake", &DialOptions{
			Transport: fakeTransport{sock: sock, script: func(s *fakeSocket) {
				s.fireError()
				s.fireClose(StatusAbnormalClosure, "", false)
			}},
		})
		var ce *ConnectionError
		assert.ErrorAs(t, err, &ce)
		assert.Equal(t, "url", "ws://fake", ce.URL)
		assert.Contains(t, err, "error event before the connection opened")
		assert.Equal(t, "registered callbacks", 0, sock.registered())
	})

	t.Run("openClosed", func(t *testing.T) {
		t.Parallel()

		_, _, err := Dial(context.Background(), "ws://fake", &DialOptions{
			Transport: fakeTransport{sock: newFakeSocket(false), script: func(s *fakeSocket) {
				s.fireClose(StatusAbnormalClosure, "", false)
			}},
		})
		var ce *ConnectionError
		assert.ErrorAs(t, err, &ce)
		assert.Equal(t, "close status", StatusAbnormalClosure, CloseStatus(err))
	})

	t.Run("openTimeout", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*20)
		defer cancel()

		sock := newFakeSocket(false)
		_, _, err := Dial(ctx, "ws://fake", &DialOptions{
			Transport: fakeTransport{sock: sock},
		})
		var ce *ConnectionError
		assert.ErrorAs(t, err, &ce)
		assert.ErrorIs(t, context.DeadlineExceeded, err)
		assert.Equal(t, "close calls", 1, len(sock.closeCalls()))
	})
}
