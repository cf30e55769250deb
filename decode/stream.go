package decode

import (
	"github.com/justapithecus/hdrframe/cursor"
	"github.com/justapithecus/hdrframe/types"
)

// Stream decodes consecutive frames from one connection. It owns its
// accumulator and state and is not safe for concurrent use.
type Stream struct {
	engine *Engine
	acc    *cursor.Accumulator
	st     State
	seq    int64
	err    error
}

// NewStream returns a stream decoding with the engine's grammar.
func (e *Engine) NewStream() *Stream {
	return &Stream{engine: e, acc: cursor.New()}
}

// NewStream returns a stream decoding the reference grammar.
func NewStream() *Stream {
	return reference.NewStream()
}

// Step appends chunk and resumes decoding.
//
// It returns (msg, nil) when a frame completes, (nil, nil) when more input
// is needed, and a non-nil error once the stream has failed. Bytes after a
// completed frame stay buffered; Step(nil) decodes the next buffered frame.
func (s *Stream) Step(chunk []byte) (*types.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.acc.Append(chunk)

	out := s.engine.Run(s.acc, &s.st)
	switch out.Status {
	case StatusDone:
		s.seq++
		msg := out.Message
		msg.Seq = s.seq
		s.acc.Consume(out.Consumed)
		s.st.Reset()
		return msg, nil
	case StatusFailed:
		s.err = out.Err
		return nil, s.err
	}
	s.acc.Consume(out.Consumed)
	return nil, nil
}

// Reset discards buffered bytes, decode progress and any failure.
func (s *Stream) Reset() {
	s.acc.Reset()
	s.st.Reset()
	s.seq = 0
	s.err = nil
}

// Err returns the error that failed the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// Buffered returns the number of bytes held but not yet consumed.
func (s *Stream) Buffered() int {
	return s.acc.Len()
}

// Consumed returns the absolute offset of the first byte still needed.
func (s *Stream) Consumed() int64 {
	return s.acc.Base()
}

// Received returns the total number of bytes fed to the stream.
func (s *Stream) Received() int64 {
	return s.acc.End()
}

// Messages returns the number of frames decoded.
func (s *Stream) Messages() int64 {
	return s.seq
}

// InFrame reports whether a frame has been started but not completed.
func (s *Stream) InFrame() bool {
	return s.acc.Len() > 0 || s.st.inFrame()
}

// Snapshot returns the decode progress of the current frame.
func (s *Stream) Snapshot() Snapshot {
	return s.st.Snapshot()
}

// Grammar returns the name of the stream's grammar.
func (s *Stream) Grammar() string {
	return s.engine.g.Name
}
