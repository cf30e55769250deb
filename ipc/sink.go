package ipc

import (
	"context"
	"io"

	"github.com/justapithecus/hdrframe/policy"
	"github.com/justapithecus/hdrframe/types"
)

// Sink forwards decoded messages as frames. It implements policy.Sink.
type Sink struct {
	encoder  *FrameEncoder
	streamID string
	closer   io.Closer
}

// NewSink creates a sink writing message frames for streamID to w.
// If w is an io.Closer it is closed by Close.
func NewSink(w io.Writer, streamID string) *Sink {
	s := &Sink{
		encoder:  NewFrameEncoder(w),
		streamID: streamID,
	}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// WriteMessages writes one frame per message, in order.
func (s *Sink) WriteMessages(ctx context.Context, msgs []*types.Message) error {
	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.encoder.WriteMessage(s.streamID, msg); err != nil {
			return err
		}
	}
	return nil
}

// WriteResult writes the stream result control frame.
func (s *Sink) WriteResult(outcome *types.Outcome) error {
	return s.encoder.WriteStreamResult(s.streamID, outcome)
}

// Close closes the underlying writer, if it is closable.
func (s *Sink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

var _ policy.Sink = (*Sink)(nil)
