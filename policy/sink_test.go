package policy_test

import (
	"errors"
	"testing"

	"github.com/justapithecus/hdrframe/policy"
	"github.com/justapithecus/hdrframe/types"
)

func TestStubSink_WriteMessages(t *testing.T) {
	sink := policy.NewStubSink()
	batch := []*types.Message{msg(1), msg(2)}

	if err := sink.WriteMessages(t.Context(), batch); err != nil {
		t.Fatalf("WriteMessages failed: %v", err)
	}

	stats := sink.Stats()
	if stats.MessagesWritten != 2 || stats.Batches != 1 {
		t.Errorf("written/batches = %d/%d, want 2/1", stats.MessagesWritten, stats.Batches)
	}
	if len(sink.BatchSizes) != 1 || sink.BatchSizes[0] != 2 {
		t.Errorf("BatchSizes = %v", sink.BatchSizes)
	}
}

func TestStubSink_ErrorOnWrite(t *testing.T) {
	sink := policy.NewStubSink()
	sink.ErrorOnWrite = errors.New("boom")

	if err := sink.WriteMessages(t.Context(), []*types.Message{msg(1)}); err == nil {
		t.Fatal("expected error")
	}
	if sink.Stats().MessagesWritten != 0 {
		t.Error("failed write should not be recorded")
	}
}

func TestNopSink(t *testing.T) {
	var sink policy.NopSink
	if err := sink.WriteMessages(t.Context(), []*types.Message{msg(1)}); err != nil {
		t.Fatalf("WriteMessages failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}
