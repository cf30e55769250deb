// Package adapter defines the notification boundary for finished streams.
//
// Adapters publish a StreamCompletedEvent to a downstream system once a
// stream has been decoded. The CLI owns adapter lifecycle; users provide
// configuration only.
package adapter

import (
	"context"
	"time"

	"github.com/justapithecus/hdrframe/metrics"
	"github.com/justapithecus/hdrframe/types"
)

// EventTypeStreamCompleted is the event_type of every published event.
const EventTypeStreamCompleted = "stream_completed"

// StreamCompletedEvent is the payload published when a stream finishes.
type StreamCompletedEvent struct {
	FrameVersion  string `json:"frame_version"`
	EventType     string `json:"event_type"` // always "stream_completed"
	StreamID      string `json:"stream_id"`
	Source        string `json:"source"`
	Grammar       string `json:"grammar"`
	Outcome       string `json:"outcome"` // completed, decode_error, etc.
	Error         string `json:"error,omitempty"`
	StoragePath   string `json:"storage_path,omitempty"`
	Timestamp     string `json:"timestamp"` // RFC 3339
	MessageCount  int64  `json:"message_count"`
	BytesConsumed int64  `json:"bytes_consumed"`
	DurationMs    int64  `json:"duration_ms"`
}

// NewStreamCompletedEvent builds the event for a finished stream.
// Error is set only for outcomes other than completed.
func NewStreamCompletedEvent(meta *types.StreamMeta, outcome *types.Outcome, storagePath string, duration time.Duration, at time.Time) *StreamCompletedEvent {
	e := &StreamCompletedEvent{
		FrameVersion:  types.FrameVersion,
		EventType:     EventTypeStreamCompleted,
		StreamID:      meta.StreamID,
		Source:        meta.Source,
		Grammar:       meta.Grammar,
		Outcome:       string(outcome.Status),
		StoragePath:   storagePath,
		Timestamp:     at.UTC().Format(time.RFC3339),
		MessageCount:  outcome.Messages,
		BytesConsumed: outcome.BytesConsumed,
		DurationMs:    duration.Milliseconds(),
	}
	if outcome.Status != types.OutcomeCompleted {
		e.Error = outcome.Message
	}
	return e
}

// Adapter publishes stream completion events to a downstream system.
// Implementations must be safe for single-use per stream.
type Adapter interface {
	// Publish sends a stream completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *StreamCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// BackoffBase is the delay before the first retry.
const BackoffBase = 500 * time.Millisecond

// Backoff returns the delay before attempt i (0-based). The first attempt
// is immediate; each retry doubles the previous delay.
func Backoff(i int) time.Duration {
	if i <= 0 {
		return 0
	}
	return time.Duration(1<<uint(i-1)) * BackoffBase
}

// Wait sleeps for the backoff of attempt i, returning early with the
// context's error if it is canceled first.
func Wait(ctx context.Context, i int) error {
	d := Backoff(i)
	if d == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Instrumented wraps an Adapter and records publish outcomes on a
// metrics collector.
type Instrumented struct {
	inner     Adapter
	collector *metrics.Collector
}

// NewInstrumented wraps inner with metrics instrumentation.
func NewInstrumented(inner Adapter, collector *metrics.Collector) *Instrumented {
	return &Instrumented{inner: inner, collector: collector}
}

// Publish delegates to the inner adapter and records success or failure.
func (a *Instrumented) Publish(ctx context.Context, event *StreamCompletedEvent) error {
	err := a.inner.Publish(ctx, event)
	a.collector.IncAdapterPublish(err == nil)
	return err
}

// Close delegates to the inner adapter.
func (a *Instrumented) Close() error {
	return a.inner.Close()
}

var _ Adapter = (*Instrumented)(nil)
