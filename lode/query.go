package lode

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/hdrframe/types"
)

// ErrNoSummaryFound is returned when no summary record exists for a stream.
var ErrNoSummaryFound = errors.New("no summary records found")

// QueryMessages reads back every message persisted for streamID, ordered
// by sequence number. Records seen in more than one snapshot are returned
// once.
func QueryMessages(ctx context.Context, ds lode.Dataset, streamID string) ([]*types.Message, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, fmt.Sprintf("%s/snapshots", ds.ID()))
	}

	bySeq := make(map[int64]*types.Message)
	for _, snap := range snapshots {
		if !snapshotMatchesFilter(snap, "record_kind", RecordKindMessage) {
			continue
		}
		if !snapshotMatchesFilter(snap, "stream_id", streamID) {
			continue
		}

		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", ds.ID(), snap.ID))
		}

		// Manifest path filtering is a coarse pre-filter; record fields
		// are authoritative.
		for _, item := range data {
			record, ok := item.(map[string]any)
			if !ok || record["record_kind"] != RecordKindMessage {
				continue
			}
			if streamID != "" && toString(record["stream_id"]) != streamID {
				continue
			}
			msg, err := messageFromRecord(record)
			if err != nil {
				return nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
			}
			bySeq[msg.Seq] = msg
		}
	}

	msgs := make([]*types.Message, 0, len(bySeq))
	for _, msg := range bySeq {
		msgs = append(msgs, msg)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Seq < msgs[j].Seq })
	return msgs, nil
}

// QueryLatestSummary finds and reads the most recent summary record.
// Filters by streamID and source if non-empty.
// Returns the raw record map or ErrNoSummaryFound if none exist.
func QueryLatestSummary(ctx context.Context, ds lode.Dataset, streamID, source string) (map[string]any, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, fmt.Sprintf("%s/snapshots", ds.ID()))
	}

	// Iterate in reverse (latest first); snapshots are ordered by creation time
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]

		if !snapshotMatchesFilter(snap, "record_kind", RecordKindSummary) {
			continue
		}
		if !snapshotMatchesFilter(snap, "stream_id", streamID) {
			continue
		}
		if !snapshotMatchesFilter(snap, "source", source) {
			continue
		}

		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", ds.ID(), snap.ID))
		}

		for _, item := range data {
			record, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if record["record_kind"] != RecordKindSummary {
				continue
			}
			if streamID != "" && toString(record["stream_id"]) != streamID {
				continue
			}
			if source != "" && toString(record["source"]) != source {
				continue
			}
			return record, nil
		}
	}

	return nil, ErrNoSummaryFound
}
