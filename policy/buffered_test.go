package policy_test

import (
	"errors"
	"testing"

	"github.com/justapithecus/hdrframe/policy"
)

func mustNewBufferedPolicy(t *testing.T, sink policy.Sink, config policy.BufferedConfig) *policy.BufferedPolicy {
	t.Helper()
	pol, err := policy.NewBufferedPolicy(sink, config)
	if err != nil {
		t.Fatalf("NewBufferedPolicy failed: %v", err)
	}
	return pol
}

func TestBufferedPolicy_BuffersUntilFlush(t *testing.T) {
	sink := policy.NewStubSink()
	pol := mustNewBufferedPolicy(t, sink, policy.BufferedConfig{MaxBufferMessages: 10})

	for i := int64(1); i <= 3; i++ {
		if err := pol.IngestMessage(t.Context(), msg(i)); err != nil {
			t.Fatalf("IngestMessage failed: %v", err)
		}
	}
	if sink.Stats().MessagesWritten != 0 {
		t.Fatalf("expected no writes before flush, got %d", sink.Stats().MessagesWritten)
	}
	if pol.Stats().BufferSize == 0 {
		t.Error("expected non-zero BufferSize while buffered")
	}

	if err := pol.Flush(t.Context()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	sinkStats := sink.Stats()
	if sinkStats.MessagesWritten != 3 || sinkStats.Batches != 1 {
		t.Errorf("written/batches = %d/%d, want 3/1", sinkStats.MessagesWritten, sinkStats.Batches)
	}
	if got := seqs(sink.Messages()); !equalSeqs(got, []int64{1, 2, 3}) {
		t.Errorf("written order = %v", got)
	}

	stats := pol.Stats()
	if stats.MessagesPersisted != 3 {
		t.Errorf("MessagesPersisted = %d, want 3", stats.MessagesPersisted)
	}
	if stats.BufferSize != 0 {
		t.Errorf("BufferSize = %d after flush, want 0", stats.BufferSize)
	}
}

func TestBufferedPolicy_DropsDroppableWhenFull(t *testing.T) {
	sink := policy.NewStubSink()
	pol := mustNewBufferedPolicy(t, sink, policy.BufferedConfig{
		MaxBufferMessages: 2,
		Drop:              policy.NewDropRule("trace"),
	})

	_ = pol.IngestMessage(t.Context(), msg(1, "data"))
	_ = pol.IngestMessage(t.Context(), msg(2, "data"))
	if err := pol.IngestMessage(t.Context(), msg(3, "trace")); err != nil {
		t.Fatalf("droppable message should be dropped silently, got %v", err)
	}

	stats := pol.Stats()
	if stats.MessagesDropped != 1 {
		t.Errorf("MessagesDropped = %d, want 1", stats.MessagesDropped)
	}
	if stats.DroppedByKind["trace"] != 1 {
		t.Errorf("DroppedByKind[trace] = %d, want 1", stats.DroppedByKind["trace"])
	}
}

func TestBufferedPolicy_EvictsDroppableForNonDroppable(t *testing.T) {
	sink := policy.NewStubSink()
	pol := mustNewBufferedPolicy(t, sink, policy.BufferedConfig{
		MaxBufferMessages: 2,
		Drop:              policy.NewDropRule("trace"),
	})

	_ = pol.IngestMessage(t.Context(), msg(1, "trace"))
	_ = pol.IngestMessage(t.Context(), msg(2, "data"))
	if err := pol.IngestMessage(t.Context(), msg(3, "data")); err != nil {
		t.Fatalf("expected eviction to make room, got %v", err)
	}
	if err := pol.Flush(t.Context()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if got := seqs(sink.Messages()); !equalSeqs(got, []int64{2, 3}) {
		t.Errorf("written = %v, want [2 3]", got)
	}
	if pol.Stats().DroppedByKind["trace"] != 1 {
		t.Errorf("expected evicted trace message counted as dropped")
	}
}

func TestBufferedPolicy_ErrorsWhenNothingDroppable(t *testing.T) {
	sink := policy.NewStubSink()
	pol := mustNewBufferedPolicy(t, sink, policy.BufferedConfig{MaxBufferMessages: 1})

	_ = pol.IngestMessage(t.Context(), msg(1, "data"))
	err := pol.IngestMessage(t.Context(), msg(2, "data"))
	if !errors.Is(err, policy.ErrBufferFull) {
		t.Fatalf("expected ErrBufferFull, got %v", err)
	}
	if pol.Stats().Errors != 1 {
		t.Errorf("Errors = %d, want 1", pol.Stats().Errors)
	}
}

func TestBufferedPolicy_ByteLimit(t *testing.T) {
	sink := policy.NewStubSink()
	one := msg(1)
	pol := mustNewBufferedPolicy(t, sink, policy.BufferedConfig{MaxBufferBytes: 100})

	if err := pol.IngestMessage(t.Context(), one); err != nil {
		t.Fatalf("first message should fit: %v", err)
	}
	if err := pol.IngestMessage(t.Context(), msg(2)); !errors.Is(err, policy.ErrBufferFull) {
		t.Fatalf("second message should exceed the byte limit, got %v", err)
	}
}

func TestBufferedPolicy_FlushFailureKeepsBuffer(t *testing.T) {
	sink := policy.NewStubSink()
	pol := mustNewBufferedPolicy(t, sink, policy.BufferedConfig{MaxBufferMessages: 10})

	_ = pol.IngestMessage(t.Context(), msg(1))
	_ = pol.IngestMessage(t.Context(), msg(2))

	sinkErr := errors.New("unavailable")
	sink.SetError(sinkErr)
	if err := pol.Flush(t.Context()); !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if pol.Stats().BufferSize == 0 {
		t.Fatal("buffer cleared after failed flush")
	}

	_ = pol.IngestMessage(t.Context(), msg(3))
	sink.SetError(nil)
	if err := pol.Flush(t.Context()); err != nil {
		t.Fatalf("retry flush failed: %v", err)
	}
	if got := seqs(sink.Messages()); !equalSeqs(got, []int64{1, 2, 3}) {
		t.Errorf("written = %v, want [1 2 3]", got)
	}
	stats := pol.Stats()
	if stats.Errors != 1 || stats.MessagesPersisted != 3 {
		t.Errorf("Errors/Persisted = %d/%d, want 1/3", stats.Errors, stats.MessagesPersisted)
	}
}

func TestBufferedPolicy_CloseFlushesAndCloses(t *testing.T) {
	sink := policy.NewStubSink()
	pol := mustNewBufferedPolicy(t, sink, policy.DefaultBufferedConfig())

	_ = pol.IngestMessage(t.Context(), msg(1))
	if err := pol.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if sink.Stats().MessagesWritten != 1 {
		t.Errorf("expected close to flush, wrote %d", sink.Stats().MessagesWritten)
	}
	if !sink.Stats().Closed {
		t.Error("expected sink closed")
	}
}

func TestBufferedPolicy_InvalidConfig(t *testing.T) {
	_, err := policy.NewBufferedPolicy(policy.NewStubSink(), policy.BufferedConfig{})
	if !errors.Is(err, policy.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestDropRule(t *testing.T) {
	rule := policy.NewDropRule("trace", "debug")

	if kind, ok := rule.Droppable(msg(1, "data", "debug")); !ok || kind != "debug" {
		t.Errorf("Droppable = (%q, %v), want (debug, true)", kind, ok)
	}
	if _, ok := rule.Droppable(msg(1, "data")); ok {
		t.Error("message without droppable kinds reported droppable")
	}
	if _, ok := policy.NewDropRule().Droppable(msg(1, "trace")); ok {
		t.Error("empty rule reported droppable")
	}
	if len(rule.Kinds()) != 2 {
		t.Errorf("Kinds() = %v", rule.Kinds())
	}
}
