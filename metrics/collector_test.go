package metrics

import (
	"sync"
	"testing"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector(Dimensions{
		Policy:         "strict",
		Sink:           "lode",
		StorageBackend: "fs",
		Grammar:        "reference",
		StreamID:       "stream-001",
	})

	c.IncStreamStarted()
	c.IncStreamCompleted()
	c.IncStreamFailed()
	c.IncStreamFailed()
	c.IncStreamTruncated()
	c.AddChunk(10)
	c.AddChunk(19)
	c.IncMessagesDecoded()
	c.IncSuspensions()
	c.IncSuspensions()
	c.IncDecodeError("unexpected_token")
	c.IncDecodeError("unexpected_token")
	c.IncDecodeError("body_too_large")
	c.IncLodeWriteSuccess()
	c.IncLodeWriteSuccess()
	c.IncLodeWriteFailure()
	c.IncAdapterPublish(true)
	c.IncAdapterPublish(false)

	s := c.Snapshot()

	checks := []struct {
		name string
		got  int64
		want int64
	}{
		{"StreamsStarted", s.StreamsStarted, 1},
		{"StreamsCompleted", s.StreamsCompleted, 1},
		{"StreamsFailed", s.StreamsFailed, 2},
		{"StreamsTruncated", s.StreamsTruncated, 1},
		{"ChunksRead", s.ChunksRead, 2},
		{"BytesRead", s.BytesRead, 29},
		{"MessagesDecoded", s.MessagesDecoded, 1},
		{"Suspensions", s.Suspensions, 2},
		{"DecodeErrors", s.DecodeErrors, 3},
		{"ErrorsByKind[unexpected_token]", s.ErrorsByKind["unexpected_token"], 2},
		{"ErrorsByKind[body_too_large]", s.ErrorsByKind["body_too_large"], 1},
		{"LodeWriteSuccess", s.LodeWriteSuccess, 2},
		{"LodeWriteFailure", s.LodeWriteFailure, 1},
		{"AdapterPublishSuccess", s.AdapterPublishSuccess, 1},
		{"AdapterPublishFailure", s.AdapterPublishFailure, 1},
	}
	for _, chk := range checks {
		if chk.got != chk.want {
			t.Errorf("%s = %d, want %d", chk.name, chk.got, chk.want)
		}
	}

	if s.Policy != "strict" || s.Sink != "lode" || s.StorageBackend != "fs" ||
		s.Grammar != "reference" || s.StreamID != "stream-001" {
		t.Errorf("dimensions = %+v", s)
	}
}

func TestCollector_AbsorbPolicyStats_Accumulates(t *testing.T) {
	c := NewCollector(Dimensions{Policy: "buffered"})

	c.AbsorbPolicyStats(10, 8, 2, map[string]int64{"trace": 2})
	c.AbsorbPolicyStats(5, 5, 1, map[string]int64{"trace": 1})

	s := c.Snapshot()
	if s.MessagesReceived != 15 || s.MessagesPersisted != 13 || s.MessagesDropped != 3 {
		t.Errorf("received/persisted/dropped = %d/%d/%d, want 15/13/3",
			s.MessagesReceived, s.MessagesPersisted, s.MessagesDropped)
	}
	if s.DroppedByKind["trace"] != 3 {
		t.Errorf("DroppedByKind[trace] = %d, want 3", s.DroppedByKind["trace"])
	}
}

func TestCollector_SnapshotIsCopy(t *testing.T) {
	c := NewCollector(Dimensions{})
	c.IncDecodeError("missing_header")

	s := c.Snapshot()
	s.ErrorsByKind["missing_header"] = 100

	if got := c.Snapshot().ErrorsByKind["missing_header"]; got != 1 {
		t.Errorf("collector mutated through snapshot: %d", got)
	}
}

func TestCollector_NilReceiver(t *testing.T) {
	var c *Collector

	c.IncStreamStarted()
	c.IncStreamCompleted()
	c.IncStreamFailed()
	c.IncStreamTruncated()
	c.AddChunk(1)
	c.IncMessagesDecoded()
	c.IncSuspensions()
	c.IncDecodeError("x")
	c.IncLodeWriteSuccess()
	c.IncLodeWriteFailure()
	c.IncAdapterPublish(true)
	c.AbsorbPolicyStats(1, 1, 0, nil)

	if s := c.Snapshot(); s.StreamsStarted != 0 {
		t.Errorf("nil collector snapshot = %+v", s)
	}
}

func TestCollector_ConcurrentIncrements(t *testing.T) {
	c := NewCollector(Dimensions{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncMessagesDecoded()
				c.AddChunk(2)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s.MessagesDecoded != 5000 {
		t.Errorf("MessagesDecoded = %d, want 5000", s.MessagesDecoded)
	}
	if s.BytesRead != 10000 {
		t.Errorf("BytesRead = %d, want 10000", s.BytesRead)
	}
}
