package policy

import (
	"context"
	"sync"

	"github.com/justapithecus/hdrframe/types"
)

// Sink abstracts persistence for policies.
// Implementations may write to storage, forward over IPC, or stub for testing.
//
// Methods are batch-oriented to support both strict (batch of 1) and
// buffered policies.
type Sink interface {
	// WriteMessages persists a batch of messages.
	// Must preserve ordering within the batch.
	WriteMessages(ctx context.Context, msgs []*types.Message) error

	// Close releases any resources held by the sink.
	Close() error
}

// StubSink is a test sink that accepts writes without persisting.
type StubSink struct {
	mu sync.Mutex

	// MessagesWritten is the total count of messages written.
	MessagesWritten int64
	// Batches is the number of WriteMessages calls.
	Batches int64
	// Closed indicates whether Close was called.
	Closed bool

	// Written stores all written messages for inspection.
	Written []*types.Message
	// BatchSizes records the size of each successful batch.
	BatchSizes []int

	// ErrorOnWrite, if non-nil, is returned by WriteMessages.
	ErrorOnWrite error
}

// NewStubSink creates a new stub sink for testing.
func NewStubSink() *StubSink {
	return &StubSink{}
}

// WriteMessages records the messages without persisting.
func (s *StubSink) WriteMessages(_ context.Context, msgs []*types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ErrorOnWrite != nil {
		return s.ErrorOnWrite
	}

	s.Batches++
	s.MessagesWritten += int64(len(msgs))
	s.Written = append(s.Written, msgs...)
	s.BatchSizes = append(s.BatchSizes, len(msgs))
	return nil
}

// SetError sets or clears the write error.
func (s *StubSink) SetError(err error) {
	s.mu.Lock()
	s.ErrorOnWrite = err
	s.mu.Unlock()
}

// Close marks the sink as closed.
func (s *StubSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Closed = true
	return nil
}

// Stats returns a snapshot of sink statistics.
func (s *StubSink) Stats() StubSinkStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StubSinkStats{
		MessagesWritten: s.MessagesWritten,
		Batches:         s.Batches,
		Closed:          s.Closed,
	}
}

// Messages returns a copy of the written messages.
func (s *StubSink) Messages() []*types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*types.Message(nil), s.Written...)
}

// StubSinkStats is a snapshot of StubSink statistics.
type StubSinkStats struct {
	MessagesWritten int64
	Batches         int64
	Closed          bool
}

// NopSink discards every message.
type NopSink struct{}

// WriteMessages discards msgs.
func (NopSink) WriteMessages(context.Context, []*types.Message) error { return nil }

// Close is a no-op.
func (NopSink) Close() error { return nil }
