package types

import (
	"errors"

	"github.com/google/uuid"
)

// StreamMeta identifies one decoded byte stream (a file, stdin, or one
// accepted connection).
type StreamMeta struct {
	// StreamID is the canonical stream identifier. Must be unique per stream.
	StreamID string
	// Source names where the bytes come from (file path, "stdin", remote address).
	Source string
	// Grammar is the name of the header grammar in use.
	Grammar string
}

// NewStreamMeta returns metadata with a fresh random stream ID.
func NewStreamMeta(source, grammar string) *StreamMeta {
	return &StreamMeta{
		StreamID: uuid.NewString(),
		Source:   source,
		Grammar:  grammar,
	}
}

// Validate checks that the stream is identifiable.
func (m *StreamMeta) Validate() error {
	if m.StreamID == "" {
		return errors.New("stream_id must be non-empty")
	}
	return nil
}

// OutcomeStatus represents the final status of a decoded stream.
type OutcomeStatus string

// Outcome status constants.
const (
	// OutcomeCompleted: the stream ended cleanly on a frame boundary.
	OutcomeCompleted OutcomeStatus = "completed"
	// OutcomeDecodeError: the bytes violated the grammar.
	OutcomeDecodeError OutcomeStatus = "decode_error"
	// OutcomeTruncated: the stream ended inside a frame.
	OutcomeTruncated OutcomeStatus = "truncated"
	// OutcomePolicyFailure: a decoded message could not be delivered.
	OutcomePolicyFailure OutcomeStatus = "policy_failure"
	// OutcomeReadError: reading the stream failed or was canceled.
	OutcomeReadError OutcomeStatus = "read_error"
)

// Outcome is the final result of decoding one stream.
type Outcome struct {
	// Status is the outcome classification.
	Status OutcomeStatus `msgpack:"status" json:"status" yaml:"status"`
	// Message is a human-readable description.
	Message string `msgpack:"message" json:"message" yaml:"message"`
	// Messages is the number of frames decoded.
	Messages int64 `msgpack:"messages" json:"messages" yaml:"messages"`
	// BytesConsumed is the stream offset one past the last complete frame.
	BytesConsumed int64 `msgpack:"bytes_consumed" json:"bytes_consumed" yaml:"bytes_consumed"`
	// BytesPending is the number of bytes read but not part of a complete frame.
	BytesPending int64 `msgpack:"bytes_pending" json:"bytes_pending" yaml:"bytes_pending"`
}
