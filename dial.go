package nashws

import (
	"context"
	"io"
	"log/slog"
)

// DialOptions represents the options available to pass to Dial.
type DialOptions struct {
	// Transport opens the connection.
	// Defaults to CoderTransport, or BrowserTransport under GOOS=js.
	Transport Transport

	// Logger receives connection lifecycle events at debug level
	// and write failures at warn level. Defaults to discarding them.
	Logger *slog.Logger
}

// Dial opens a WebSocket connection to url and splits it into a Sender
// and a Receiver.
//
// Dial blocks until the transport reports that the connection is open
// or that it failed. A failure is returned as a *ConnectionError and is
// never retried. ctx bounds only the opening of the connection.
func Dial(ctx context.Context, url string, opts *DialOptions) (*Sender, *Receiver, error) {
	if opts == nil {
		opts = &DialOptions{}
	}

	t := opts.Transport
	if t == nil {
		t = defaultTransport()
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log = log.With("url", url)

	tc, err := t.Open(ctx, url)
	if err != nil {
		return nil, nil, &ConnectionError{URL: url, Err: err}
	}

	c := newConn(tc, log)
	return &Sender{c: c}, &Receiver{c: c}, nil
}
