package reader

import "errors"

// ParseSummaryRecord converts a Lode summary record to a StreamSummary.
// Numbers may be int64 (direct writes) or float64 (JSON round trips).
func ParseSummaryRecord(record map[string]any) (*StreamSummary, error) {
	if record == nil {
		return nil, errors.New("nil record")
	}

	s := &StreamSummary{
		StreamID:       toString(record["stream_id"]),
		Source:         toString(record["source"]),
		Grammar:        toString(record["grammar"]),
		Policy:         toString(record["policy"]),
		Outcome:        toString(record["outcome"]),
		OutcomeMessage: toString(record["outcome_message"]),
		Ts:             toString(record["ts"]),

		Messages:      toInt64(record["messages_decoded_total"]),
		BytesConsumed: toInt64(record["bytes_consumed"]),
		BytesPending:  toInt64(record["bytes_pending"]),
		BytesRead:     toInt64(record["bytes_read_total"]),
		ChunksRead:    toInt64(record["chunks_read_total"]),
		Suspensions:   toInt64(record["suspensions_total"]),
		DecodeErrors:  toInt64(record["decode_errors_total"]),
		Persisted:     toInt64(record["messages_persisted_total"]),
		Dropped:       toInt64(record["messages_dropped_total"]),
		ErrorsByKind:  toCounts(record["errors_by_kind"]),
	}

	// The write path always sets these.
	if s.Ts == "" {
		return nil, errors.New("summary record missing required field: ts")
	}
	if s.StreamID == "" {
		return nil, errors.New("summary record missing required field: stream_id")
	}
	return s, nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case int:
		return int64(n)
	default:
		return 0
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toCounts(v any) map[string]int64 {
	switch m := v.(type) {
	case map[string]int64:
		return m
	case map[string]any:
		out := make(map[string]int64, len(m))
		for k, val := range m {
			out[k] = toInt64(val)
		}
		return out
	default:
		return nil
	}
}
