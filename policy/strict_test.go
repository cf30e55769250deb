package policy_test

import (
	"errors"
	"testing"

	"github.com/justapithecus/hdrframe/policy"
)

func TestStrictPolicy_IngestMessage_ImmediateWrite(t *testing.T) {
	sink := policy.NewStubSink()
	pol := policy.NewStrictPolicy(sink)

	if err := pol.IngestMessage(t.Context(), msg(1, "foobar")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sinkStats := sink.Stats()
	if sinkStats.MessagesWritten != 1 {
		t.Errorf("expected 1 message written immediately, got %d", sinkStats.MessagesWritten)
	}
	if sinkStats.Batches != 1 {
		t.Errorf("expected 1 batch, got %d", sinkStats.Batches)
	}

	stats := pol.Stats()
	if stats.TotalMessages != 1 {
		t.Errorf("expected TotalMessages=1, got %d", stats.TotalMessages)
	}
	if stats.MessagesPersisted != 1 {
		t.Errorf("expected MessagesPersisted=1, got %d", stats.MessagesPersisted)
	}
	if stats.MessagesDropped != 0 {
		t.Errorf("expected MessagesDropped=0, got %d", stats.MessagesDropped)
	}
}

func TestStrictPolicy_PreservesOrder(t *testing.T) {
	sink := policy.NewStubSink()
	pol := policy.NewStrictPolicy(sink)

	for i := int64(1); i <= 5; i++ {
		if err := pol.IngestMessage(t.Context(), msg(i, "foobaz")); err != nil {
			t.Fatalf("IngestMessage(%d) failed: %v", i, err)
		}
	}

	if got := seqs(sink.Messages()); !equalSeqs(got, []int64{1, 2, 3, 4, 5}) {
		t.Errorf("written order = %v", got)
	}
}

func TestStrictPolicy_SinkError(t *testing.T) {
	sink := policy.NewStubSink()
	sinkErr := errors.New("disk full")
	sink.SetError(sinkErr)
	pol := policy.NewStrictPolicy(sink)

	err := pol.IngestMessage(t.Context(), msg(1))
	if !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error, got %v", err)
	}

	stats := pol.Stats()
	if stats.Errors != 1 {
		t.Errorf("expected Errors=1, got %d", stats.Errors)
	}
	if stats.MessagesPersisted != 0 {
		t.Errorf("expected MessagesPersisted=0, got %d", stats.MessagesPersisted)
	}
}

func TestStrictPolicy_FlushAndClose(t *testing.T) {
	sink := policy.NewStubSink()
	pol := policy.NewStrictPolicy(sink)

	if err := pol.Flush(t.Context()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if pol.Stats().FlushCount != 1 {
		t.Errorf("FlushCount = %d, want 1", pol.Stats().FlushCount)
	}
	if err := pol.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !sink.Stats().Closed {
		t.Error("expected sink to be closed")
	}
}
