package lode

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/justapithecus/hdrframe/metrics"
	"github.com/justapithecus/hdrframe/types"
)

// RecordKind discriminator values.
const (
	RecordKindMessage = "message"
	RecordKindSummary = "summary"
)

// toMessageRecordMap converts a decoded message to a map for Lode storage.
// Lode HiveLayout requires records as map[string]any.
func toMessageRecordMap(msg *types.Message, cfg Config) map[string]any {
	headers := make([]map[string]any, 0, len(msg.Headers))
	for _, h := range msg.Headers {
		hm := map[string]any{"kind": h.Kind}
		if h.Value != "" {
			hm["value"] = h.Value
		}
		headers = append(headers, hm)
	}
	return map[string]any{
		"record_kind":   RecordKindMessage,
		"frame_version": types.FrameVersion,
		"seq":           msg.Seq,
		"offset":        msg.Offset,
		"length":        msg.Length,
		"headers":       headers,
		"body":          base64.StdEncoding.EncodeToString(msg.Body),
		"grammar":       cfg.Grammar,
		"source":        cfg.Source,
		"day":           cfg.Day,
		"stream_id":     cfg.StreamID,
	}
}

// toSummaryRecordMap converts the final metrics and outcome of a stream to
// a map for storage.
func toSummaryRecordMap(snap metrics.Snapshot, outcome *types.Outcome, completedAt time.Time, cfg Config) map[string]any {
	m := map[string]any{
		"record_kind":              RecordKindSummary,
		"frame_version":            types.FrameVersion,
		"ts":                       completedAt.UTC().Format(time.RFC3339Nano),
		"streams_started_total":    snap.StreamsStarted,
		"streams_completed_total":  snap.StreamsCompleted,
		"streams_failed_total":     snap.StreamsFailed,
		"streams_truncated_total":  snap.StreamsTruncated,
		"chunks_read_total":        snap.ChunksRead,
		"bytes_read_total":         snap.BytesRead,
		"messages_decoded_total":   snap.MessagesDecoded,
		"suspensions_total":        snap.Suspensions,
		"decode_errors_total":      snap.DecodeErrors,
		"messages_persisted_total": snap.MessagesPersisted,
		"messages_dropped_total":   snap.MessagesDropped,
		"lode_write_success_total": snap.LodeWriteSuccess,
		"lode_write_failure_total": snap.LodeWriteFailure,
		"policy":                   cfg.Policy,
		"grammar":                  cfg.Grammar,
		"source":                   cfg.Source,
		"day":                      cfg.Day,
		"stream_id":                cfg.StreamID,
	}
	if len(snap.ErrorsByKind) > 0 {
		m["errors_by_kind"] = snap.ErrorsByKind
	}
	if len(snap.DroppedByKind) > 0 {
		m["dropped_by_kind"] = snap.DroppedByKind
	}
	if outcome != nil {
		m["outcome"] = string(outcome.Status)
		m["outcome_message"] = outcome.Message
		m["bytes_consumed"] = outcome.BytesConsumed
		m["bytes_pending"] = outcome.BytesPending
	}
	return m
}

// messageFromRecord rebuilds a message from a stored record. Numbers may
// come back as float64 after a JSON round trip.
func messageFromRecord(record map[string]any) (*types.Message, error) {
	if record["record_kind"] != RecordKindMessage {
		return nil, fmt.Errorf("record_kind %v is not %q", record["record_kind"], RecordKindMessage)
	}

	body, err := base64.StdEncoding.DecodeString(toString(record["body"]))
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	msg := &types.Message{
		Seq:    toInt64(record["seq"]),
		Offset: toInt64(record["offset"]),
		Length: int(toInt64(record["length"])),
		Body:   body,
	}

	switch hs := record["headers"].(type) {
	case []any:
		for _, item := range hs {
			h, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("header has type %T", item)
			}
			msg.Headers = append(msg.Headers, types.Header{
				Kind:  toString(h["kind"]),
				Value: toString(h["value"]),
			})
		}
	case []map[string]any:
		for _, h := range hs {
			msg.Headers = append(msg.Headers, types.Header{
				Kind:  toString(h["kind"]),
				Value: toString(h["value"]),
			})
		}
	}
	return msg, nil
}

// toString converts a value to string, returning empty string for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// toInt64 converts a numeric record value to int64.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
