package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/justapithecus/hdrframe/metrics"
	"github.com/justapithecus/hdrframe/types"
)

type stubAdapter struct {
	err       error
	published []*StreamCompletedEvent
	closed    bool
}

func (s *stubAdapter) Publish(_ context.Context, e *StreamCompletedEvent) error {
	s.published = append(s.published, e)
	return s.err
}

func (s *stubAdapter) Close() error {
	s.closed = true
	return nil
}

func TestNewStreamCompletedEvent(t *testing.T) {
	meta := &types.StreamMeta{StreamID: "s-1", Source: "stdin", Grammar: "reference"}
	at := time.Date(2026, 2, 7, 12, 0, 0, 0, time.FixedZone("X", 3600))

	completed := NewStreamCompletedEvent(meta,
		&types.Outcome{Status: types.OutcomeCompleted, Message: "stream completed", Messages: 3, BytesConsumed: 84},
		"file:///data", 1500*time.Millisecond, at)

	if completed.EventType != EventTypeStreamCompleted {
		t.Errorf("EventType = %q", completed.EventType)
	}
	if completed.Timestamp != "2026-02-07T11:00:00Z" {
		t.Errorf("Timestamp = %q", completed.Timestamp)
	}
	if completed.MessageCount != 3 || completed.BytesConsumed != 84 || completed.DurationMs != 1500 {
		t.Errorf("counts = %d/%d/%d", completed.MessageCount, completed.BytesConsumed, completed.DurationMs)
	}
	if completed.Error != "" {
		t.Errorf("Error = %q, want empty for completed", completed.Error)
	}

	failed := NewStreamCompletedEvent(meta,
		&types.Outcome{Status: types.OutcomeDecodeError, Message: "Unexpected `j` at offset 9"},
		"", time.Second, at)
	if failed.Outcome != "decode_error" || failed.Error == "" {
		t.Errorf("failed event = %+v", failed)
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 500 * time.Millisecond},
		{2, time.Second},
		{3, 2 * time.Second},
	}
	for _, tt := range tests {
		if got := Backoff(tt.attempt); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestWait_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if err := Wait(ctx, 3); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait() = %v, want context.Canceled", err)
	}
	if err := Wait(t.Context(), 0); err != nil {
		t.Fatalf("Wait(0) = %v, want nil", err)
	}
}

func TestInstrumented(t *testing.T) {
	collector := metrics.NewCollector(metrics.Dimensions{})
	inner := &stubAdapter{}
	a := NewInstrumented(inner, collector)

	event := &StreamCompletedEvent{StreamID: "s"}
	if err := a.Publish(t.Context(), event); err != nil {
		t.Fatal(err)
	}
	inner.err = errors.New("unreachable")
	if err := a.Publish(t.Context(), event); err == nil {
		t.Fatal("expected error")
	}
	if err := a.Close(); err != nil || !inner.closed {
		t.Errorf("Close() = %v, closed = %v", err, inner.closed)
	}

	snap := collector.Snapshot()
	if snap.AdapterPublishSuccess != 1 || snap.AdapterPublishFailure != 1 {
		t.Errorf("publish success/failure = %d/%d, want 1/1", snap.AdapterPublishSuccess, snap.AdapterPublishFailure)
	}
}
