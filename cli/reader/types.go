// Package reader provides the read side of the hdrframe CLI: view payloads
// for rendering and a Lode-backed reader for persisted streams.
package reader

import (
	"strings"
	"time"

	"github.com/justapithecus/hdrframe/metrics"
	"github.com/justapithecus/hdrframe/types"
)

// BodyPreviewLimit bounds the body text shown per message row.
const BodyPreviewLimit = 64

// MessageRow is one decoded message as shown by show and decode.
type MessageRow struct {
	Seq     int64  `json:"seq" yaml:"seq"`
	Offset  int64  `json:"offset" yaml:"offset"`
	Length  int    `json:"length" yaml:"length"`
	Headers string `json:"headers" yaml:"headers"`
	Body    string `json:"body" yaml:"body"`
}

// NewMessageRow renders msg for display. Header values follow their kind
// after "=", and the body is truncated to BodyPreviewLimit bytes.
func NewMessageRow(msg *types.Message) MessageRow {
	hs := make([]string, len(msg.Headers))
	for i, h := range msg.Headers {
		hs[i] = h.Kind
		if h.Value != "" {
			hs[i] += "=" + h.Value
		}
	}
	body := msg.Body
	suffix := ""
	if len(body) > BodyPreviewLimit {
		body = body[:BodyPreviewLimit]
		suffix = "..."
	}
	return MessageRow{
		Seq:     msg.Seq,
		Offset:  msg.Offset,
		Length:  msg.Length,
		Headers: strings.Join(hs, ","),
		Body:    string(body) + suffix,
	}
}

// MessageRows renders every message.
func MessageRows(msgs []*types.Message) []MessageRow {
	rows := make([]MessageRow, len(msgs))
	for i, m := range msgs {
		rows[i] = NewMessageRow(m)
	}
	return rows
}

// StreamSummary is the final state of one decoded stream.
type StreamSummary struct {
	StreamID       string           `json:"stream_id" yaml:"stream_id"`
	Source         string           `json:"source" yaml:"source"`
	Grammar        string           `json:"grammar" yaml:"grammar"`
	Policy         string           `json:"policy" yaml:"policy"`
	Outcome        string           `json:"outcome" yaml:"outcome"`
	OutcomeMessage string           `json:"outcome_message" yaml:"outcome_message"`
	Ts             string           `json:"ts" yaml:"ts"`
	Messages       int64            `json:"messages" yaml:"messages"`
	BytesConsumed  int64            `json:"bytes_consumed" yaml:"bytes_consumed"`
	BytesPending   int64            `json:"bytes_pending" yaml:"bytes_pending"`
	BytesRead      int64            `json:"bytes_read" yaml:"bytes_read"`
	ChunksRead     int64            `json:"chunks_read" yaml:"chunks_read"`
	Suspensions    int64            `json:"suspensions" yaml:"suspensions"`
	DecodeErrors   int64            `json:"decode_errors" yaml:"decode_errors"`
	Persisted      int64            `json:"persisted" yaml:"persisted"`
	Dropped        int64            `json:"dropped" yaml:"dropped"`
	ErrorsByKind   map[string]int64 `json:"errors_by_kind,omitempty" yaml:"errors_by_kind,omitempty"`
}

// NewStreamSummary builds the summary of a stream decoded in this process.
// It carries the same fields ParseSummaryRecord reads back from storage.
func NewStreamSummary(meta *types.StreamMeta, policy string, snap metrics.Snapshot, outcome *types.Outcome, ts time.Time) *StreamSummary {
	s := &StreamSummary{
		StreamID:     meta.StreamID,
		Source:       meta.Source,
		Grammar:      meta.Grammar,
		Policy:       policy,
		Ts:           ts.UTC().Format(time.RFC3339Nano),
		Messages:     snap.MessagesDecoded,
		BytesRead:    snap.BytesRead,
		ChunksRead:   snap.ChunksRead,
		Suspensions:  snap.Suspensions,
		DecodeErrors: snap.DecodeErrors,
		Persisted:    snap.MessagesPersisted,
		Dropped:      snap.MessagesDropped,
		ErrorsByKind: snap.ErrorsByKind,
	}
	if outcome != nil {
		s.Outcome = string(outcome.Status)
		s.OutcomeMessage = outcome.Message
		s.BytesConsumed = outcome.BytesConsumed
		s.BytesPending = outcome.BytesPending
	}
	return s
}

// ShowResponse is the payload of the show command.
type ShowResponse struct {
	StreamID string         `json:"stream_id" yaml:"stream_id"`
	Summary  *StreamSummary `json:"summary,omitempty" yaml:"summary,omitempty"`
	Messages []MessageRow   `json:"messages" yaml:"messages"`
}
