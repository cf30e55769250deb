package types //nolint:revive // types is a valid package name

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewStreamMeta(t *testing.T) {
	a := NewStreamMeta("stdin", "reference")
	b := NewStreamMeta("stdin", "reference")

	if a.StreamID == b.StreamID {
		t.Errorf("stream IDs should differ, both %q", a.StreamID)
	}
	if _, err := uuid.Parse(a.StreamID); err != nil {
		t.Errorf("StreamID %q is not a UUID: %v", a.StreamID, err)
	}
	if a.Source != "stdin" || a.Grammar != "reference" {
		t.Errorf("meta = %+v", a)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestStreamMeta_Validate(t *testing.T) {
	meta := &StreamMeta{Source: "file.bin"}
	if err := meta.Validate(); err == nil {
		t.Error("expected error for empty stream_id")
	}
}

func TestMessage_End(t *testing.T) {
	msg := &Message{Offset: 28, Length: 14}
	if got := msg.End(); got != 42 {
		t.Errorf("End() = %d, want 42", got)
	}
}

func TestMessage_HeaderValues(t *testing.T) {
	msg := &Message{
		Headers: []Header{
			{Kind: "foobar", Value: "1"},
			{Kind: "foobaz"},
			{Kind: "foobar", Value: "22"},
		},
	}

	got := msg.HeaderValues("foobar")
	if len(got) != 2 || got[0] != "1" || got[1] != "22" {
		t.Errorf("HeaderValues(foobar) = %v, want [1 22]", got)
	}
	if got := msg.HeaderValues("missing"); got != nil {
		t.Errorf("HeaderValues(missing) = %v, want nil", got)
	}
}
