package policy_test

import (
	"testing"

	"github.com/justapithecus/hdrframe/policy"
)

func TestNoopPolicy_DroppableVsNonDroppableStats(t *testing.T) {
	pol := policy.NewNoopPolicy(policy.NewDropRule("trace"))

	for i, kinds := range [][]string{{"data"}, {"trace"}, {"data", "trace"}, nil} {
		if err := pol.IngestMessage(t.Context(), msg(int64(i+1), kinds...)); err != nil {
			t.Fatalf("IngestMessage failed: %v", err)
		}
	}

	stats := pol.Stats()
	if stats.TotalMessages != 4 {
		t.Errorf("TotalMessages = %d, want 4", stats.TotalMessages)
	}
	if stats.MessagesDropped != 2 {
		t.Errorf("MessagesDropped = %d, want 2", stats.MessagesDropped)
	}
	if stats.MessagesPersisted != 2 {
		t.Errorf("MessagesPersisted = %d, want 2", stats.MessagesPersisted)
	}
}

func TestNoopPolicy_StatsDefensiveCopy(t *testing.T) {
	pol := policy.NewNoopPolicy(policy.NewDropRule("trace"))
	_ = pol.IngestMessage(t.Context(), msg(1, "trace"))

	stats := pol.Stats()
	stats.DroppedByKind["trace"] = 99

	if got := pol.Stats().DroppedByKind["trace"]; got != 1 {
		t.Errorf("policy mutated through stats copy: %d", got)
	}
}

func TestNoopPolicy_FlushAndClose(t *testing.T) {
	pol := policy.NewNoopPolicy(policy.NewDropRule())
	if err := pol.Flush(t.Context()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if err := pol.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if pol.Stats().FlushCount != 1 {
		t.Errorf("FlushCount = %d, want 1", pol.Stats().FlushCount)
	}
}
