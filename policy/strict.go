package policy

import (
	"context"

	"github.com/justapithecus/hdrframe/types"
)

// StrictPolicy implements synchronous, unbuffered persistence.
//
//   - No buffering: each message is written as soon as it is decoded
//   - No drops
//   - Backpressure: decoding blocks on sink latency
//   - Sink errors fail the stream
type StrictPolicy struct {
	sink  Sink
	stats *statsRecorder
}

// NewStrictPolicy creates a new strict policy writing to the given sink.
func NewStrictPolicy(sink Sink) *StrictPolicy {
	return &StrictPolicy{
		sink:  sink,
		stats: newStatsRecorder(),
	}
}

// IngestMessage writes the message immediately to the sink.
func (p *StrictPolicy) IngestMessage(ctx context.Context, msg *types.Message) error {
	p.stats.incTotal()

	if err := p.sink.WriteMessages(ctx, []*types.Message{msg}); err != nil {
		p.stats.incErrors()
		return err
	}

	p.stats.incPersisted(1)
	return nil
}

// Flush is a no-op for strict policy (nothing is buffered).
func (p *StrictPolicy) Flush(_ context.Context) error {
	p.stats.incFlush()
	return nil
}

// Close closes the underlying sink.
func (p *StrictPolicy) Close() error {
	return p.sink.Close()
}

// Stats returns policy statistics.
func (p *StrictPolicy) Stats() Stats {
	return p.stats.snapshot()
}

var _ Policy = (*StrictPolicy)(nil)
