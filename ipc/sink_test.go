package ipc

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/justapithecus/hdrframe/policy"
	"github.com/justapithecus/hdrframe/types"
)

type closeBuffer struct {
	bytes.Buffer
	closed bool
}

func (b *closeBuffer) Close() error {
	b.closed = true
	return nil
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestSink_WithStrictPolicy(t *testing.T) {
	var out closeBuffer
	sink := NewSink(&out, "stream-9")
	pol := policy.NewStrictPolicy(sink)

	for seq := int64(1); seq <= 2; seq++ {
		if err := pol.IngestMessage(t.Context(), sampleMessage(seq)); err != nil {
			t.Fatalf("IngestMessage failed: %v", err)
		}
	}
	if err := sink.WriteResult(&types.Outcome{Status: types.OutcomeCompleted, Messages: 2}); err != nil {
		t.Fatalf("WriteResult failed: %v", err)
	}
	if err := pol.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !out.closed {
		t.Error("Close did not close the writer")
	}

	decoder := NewFrameDecoder(&out.Buffer)
	var seqs []int64
	var result *StreamResultFrame
	for range 3 {
		payload, err := decoder.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame failed: %v", err)
		}
		decoded, err := DecodeFrame(payload)
		if err != nil {
			t.Fatalf("DecodeFrame failed: %v", err)
		}
		switch f := decoded.(type) {
		case *MessageFrame:
			if f.StreamID != "stream-9" {
				t.Errorf("StreamID = %q", f.StreamID)
			}
			seqs = append(seqs, f.Message.Seq)
		case *StreamResultFrame:
			result = f
		}
	}

	if len(seqs) != 2 || seqs[0] != 1 || seqs[1] != 2 {
		t.Errorf("seqs = %v, want [1 2]", seqs)
	}
	if result == nil || result.Outcome.Messages != 2 {
		t.Errorf("stream result = %+v", result)
	}
}

func TestSink_WriteError(t *testing.T) {
	sink := NewSink(failWriter{}, "s")
	err := sink.WriteMessages(t.Context(), []*types.Message{sampleMessage(1)})
	if err == nil {
		t.Fatal("expected write error")
	}
	if err := sink.Close(); err != nil {
		t.Errorf("Close on non-closer = %v, want nil", err)
	}
}

func TestSink_CanceledContext(t *testing.T) {
	var out bytes.Buffer
	sink := NewSink(&out, "s")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := sink.WriteMessages(ctx, []*types.Message{sampleMessage(1)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("WriteMessages() = %v, want context.Canceled", err)
	}
	if out.Len() != 0 {
		t.Errorf("wrote %d bytes after cancellation", out.Len())
	}
}
