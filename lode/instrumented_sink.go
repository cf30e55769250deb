package lode

import (
	"context"

	"github.com/justapithecus/hdrframe/metrics"
	"github.com/justapithecus/hdrframe/policy"
	"github.com/justapithecus/hdrframe/types"
)

// InstrumentedSink wraps a policy.Sink and records write metrics.
// Each WriteMessages call increments lode_write_success or
// lode_write_failure on the metrics collector.
type InstrumentedSink struct {
	inner     policy.Sink
	collector *metrics.Collector
}

// NewInstrumentedSink wraps a sink with metrics instrumentation.
func NewInstrumentedSink(inner policy.Sink, collector *metrics.Collector) *InstrumentedSink {
	return &InstrumentedSink{inner: inner, collector: collector}
}

// WriteMessages delegates to the inner sink and records success or failure.
func (s *InstrumentedSink) WriteMessages(ctx context.Context, msgs []*types.Message) error {
	err := s.inner.WriteMessages(ctx, msgs)
	if err != nil {
		s.collector.IncLodeWriteFailure()
	} else {
		s.collector.IncLodeWriteSuccess()
	}
	return err
}

// Close delegates to the inner sink.
func (s *InstrumentedSink) Close() error {
	return s.inner.Close()
}

// Verify InstrumentedSink implements policy.Sink.
var _ policy.Sink = (*InstrumentedSink)(nil)
