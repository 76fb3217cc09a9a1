// Package wspb provides helpers for reading and writing protobuf messages.
package wspb

import (
	"context"
	"fmt"

	"github.com/golang/protobuf/proto"

	"github.com/nash-io/nashws"
	"github.com/nash-io/nashws/internal/errd"
)

// Read reads the next message from r and unmarshals it into v.
// The message must be a Binary message.
func Read(ctx context.Context, r *nashws.Receiver, v proto.Message) (err error) {
	defer errd.Wrap(&err, "failed to read protobuf message")

	m, err := r.Next(ctx)
	if err != nil {
		return err
	}

	b, ok := m.(nashws.Binary)
	if !ok {
		return fmt.Errorf("expected %v message but got %v", nashws.MessageBinary, m.Type())
	}

	err = proto.Unmarshal(b, v)
	if err != nil {
		return fmt.Errorf("failed to unmarshal protobuf: %w", err)
	}
	return nil
}

// Write writes the protobuf encoding of v to s as a Binary message.
func Write(ctx context.Context, s *nashws.Sender, v proto.Message) (err error) {
	defer errd.Wrap(&err, "failed to write protobuf message")

	b, err := proto.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal protobuf: %w", err)
	}

	return s.Send(ctx, nashws.Binary(b))
}
