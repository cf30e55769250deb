package lode

import (
	"context"
	"sync"
	"time"

	"github.com/justapithecus/hdrframe/metrics"
	"github.com/justapithecus/hdrframe/policy"
	"github.com/justapithecus/hdrframe/types"
)

// Sink is a Lode-backed implementation of policy.Sink.
type Sink struct {
	client Client
}

// NewSink creates a new Lode sink.
func NewSink(client Client) *Sink {
	return &Sink{client: client}
}

// WriteMessages implements policy.Sink.
func (s *Sink) WriteMessages(ctx context.Context, msgs []*types.Message) error {
	return s.client.WriteMessages(ctx, msgs)
}

// Close implements policy.Sink.
func (s *Sink) Close() error {
	return s.client.Close()
}

// Verify Sink implements policy.Sink.
var _ policy.Sink = (*Sink)(nil)

// StubClient is a test client that accepts writes without persisting.
type StubClient struct {
	mu        sync.Mutex
	Batches   [][]*types.Message
	Summaries []StubSummaryRecord
	Closed    bool
}

// StubSummaryRecord is a recorded summary write for testing.
type StubSummaryRecord struct {
	Snapshot    metrics.Snapshot
	Outcome     *types.Outcome
	CompletedAt time.Time
}

// NewStubClient creates a new stub client.
func NewStubClient() *StubClient {
	return &StubClient{}
}

// WriteMessages implements Client.
func (c *StubClient) WriteMessages(_ context.Context, msgs []*types.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Batches = append(c.Batches, msgs)
	return nil
}

// WriteSummary implements Client.
func (c *StubClient) WriteSummary(_ context.Context, snap metrics.Snapshot, outcome *types.Outcome, completedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Summaries = append(c.Summaries, StubSummaryRecord{
		Snapshot:    snap,
		Outcome:     outcome,
		CompletedAt: completedAt,
	})
	return nil
}

// Close implements Client.
func (c *StubClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

// Verify StubClient implements Client.
var _ Client = (*StubClient)(nil)
