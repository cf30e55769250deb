// Package lode persists decoded messages into a Lode dataset.
//
// Records are JSONL and partitioned with a Hive layout of
// source/day/stream_id/record_kind.
package lode

import (
	"context"
	"strings"
	"time"

	"github.com/justapithecus/hdrframe/metrics"
	"github.com/justapithecus/hdrframe/types"
)

// DefaultDataset is the dataset ID used when none is configured.
const DefaultDataset = "hdrframe"

// partitionKeys is the Hive layout shared by the write and read paths.
var partitionKeys = []string{"source", "day", "stream_id", "record_kind"}

// DeriveDay computes the partition day from the stream start time.
// Format: YYYY-MM-DD in UTC.
func DeriveDay(startTime time.Time) string {
	return startTime.UTC().Format("2006-01-02")
}

// PartitionValue makes s safe to use as a Hive partition value.
// Path separators and '=' are replaced with '_'; empty becomes "unknown".
func PartitionValue(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.NewReplacer("/", "_", "\\", "_", "=", "_").Replace(s)
}

// Config holds Lode sink configuration.
// Source, Day and StreamID are partition keys and are required.
type Config struct {
	// Dataset is the Lode dataset ID.
	Dataset string
	// Source is the partition key naming where the bytes came from.
	Source string
	// Day is the partition key derived from stream start time (YYYY-MM-DD UTC).
	Day string
	// StreamID is the partition key for the stream identifier.
	StreamID string
	// Grammar is recorded on every message record.
	Grammar string
	// Policy is recorded on summary records.
	Policy string
}

// NewConfig builds a config for the given stream, started at start.
func NewConfig(dataset string, meta *types.StreamMeta, start time.Time) Config {
	if dataset == "" {
		dataset = DefaultDataset
	}
	return Config{
		Dataset:  dataset,
		Source:   PartitionValue(meta.Source),
		Day:      DeriveDay(start),
		StreamID: meta.StreamID,
		Grammar:  meta.Grammar,
	}
}

// Client abstracts the Lode storage client.
type Client interface {
	// WriteMessages writes a batch of decoded messages.
	// Must preserve ordering within the batch.
	WriteMessages(ctx context.Context, msgs []*types.Message) error

	// WriteSummary writes the final record of a stream.
	WriteSummary(ctx context.Context, snap metrics.Snapshot, outcome *types.Outcome, completedAt time.Time) error

	// Close releases client resources.
	Close() error
}
