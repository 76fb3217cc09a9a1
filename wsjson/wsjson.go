// Package wsjson provides helpers for reading and writing JSON messages.
package wsjson

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nash-io/nashws"
	"github.com/nash-io/nashws/internal/bpool"
	"github.com/nash-io/nashws/internal/errd"
)

// Read reads the next message from r and unmarshals it into v.
// The message must be a Text message. The end of the stream is
// reported as a wrapped io.EOF.
func Read(ctx context.Context, r *nashws.Receiver, v interface{}) error {
	return read(ctx, r, v)
}

func read(ctx context.Context, r *nashws.Receiver, v interface{}) (err error) {
	defer errd.Wrap(&err, "failed to read JSON message")

	m, err := r.Next(ctx)
	if err != nil {
		return err
	}

	t, ok := m.(nashws.Text)
	if !ok {
		return fmt.Errorf("expected %v message but got %v", nashws.MessageText, m.Type())
	}

	err = json.Unmarshal([]byte(t), v)
	if err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

// Write writes the JSON encoding of v to s as a Text message.
func Write(ctx context.Context, s *nashws.Sender, v interface{}) error {
	return write(ctx, s, v)
}

func write(ctx context.Context, s *nashws.Sender, v interface{}) (err error) {
	defer errd.Wrap(&err, "failed to write JSON message")

	b := bpool.Get()
	defer bpool.Put(b)

	err = json.NewEncoder(b).Encode(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return s.Send(ctx, nashws.Text(b.String()))
}
