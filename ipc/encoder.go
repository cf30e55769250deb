package ipc

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/justapithecus/hdrframe/types"
)

// FrameEncoder writes length-prefixed msgpack frames. Safe for concurrent
// use; each frame is written with a single Write call.
type FrameEncoder struct {
	mu     sync.Mutex
	writer io.Writer
	buf    []byte
}

// NewFrameEncoder creates a new frame encoder.
func NewFrameEncoder(w io.Writer) *FrameEncoder {
	return &FrameEncoder{writer: w}
}

// WriteMessage writes msg as a message frame for the given stream.
func (e *FrameEncoder) WriteMessage(streamID string, msg *types.Message) error {
	return e.writeFrame(&MessageFrame{
		Type:     MessageType,
		Version:  types.FrameVersion,
		StreamID: streamID,
		Message:  msg,
	})
}

// WriteStreamResult writes the control frame closing a stream.
func (e *FrameEncoder) WriteStreamResult(streamID string, outcome *types.Outcome) error {
	return e.writeFrame(&StreamResultFrame{
		Type:     StreamResultType,
		Version:  types.FrameVersion,
		StreamID: streamID,
		Outcome:  outcome,
	})
}

func (e *FrameEncoder) writeFrame(v any) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if len(payload) > MaxPayloadSize {
		return &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", len(payload), MaxPayloadSize),
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.buf = e.buf[:0]
	e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(len(payload)))
	e.buf = append(e.buf, payload...)
	if _, err := e.writer.Write(e.buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
