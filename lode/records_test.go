package lode

import (
	"encoding/json"
	"testing"
)

func TestMessageRecord_JSONRoundTrip(t *testing.T) {
	cfg := testConfig("stream-1")
	record := toMessageRecordMap(testMessage(4, "a\r\x00b"), cfg)

	for _, key := range []string{"source", "day", "stream_id", "record_kind"} {
		if _, ok := record[key]; !ok {
			t.Errorf("record missing partition key %q", key)
		}
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	msg, err := messageFromRecord(decoded)
	if err != nil {
		t.Fatalf("messageFromRecord failed: %v", err)
	}
	if msg.Seq != 4 || msg.Offset != 84 || msg.Length != 28 {
		t.Errorf("position = %d/%d/%d", msg.Seq, msg.Offset, msg.Length)
	}
	if string(msg.Body) != "a\r\x00b" {
		t.Errorf("Body = %q", msg.Body)
	}
	if len(msg.Headers) != 2 || msg.Headers[0].Kind != "foobar" || msg.Headers[0].Value != "1" || msg.Headers[1].Value != "" {
		t.Errorf("Headers = %+v", msg.Headers)
	}
}

func TestMessageFromRecord_WrongKind(t *testing.T) {
	if _, err := messageFromRecord(map[string]any{"record_kind": RecordKindSummary}); err == nil {
		t.Fatal("expected error for summary record")
	}
	if _, err := messageFromRecord(map[string]any{"record_kind": RecordKindMessage, "body": "!!"}); err == nil {
		t.Fatal("expected error for invalid body encoding")
	}
}
