package lode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/hdrframe/metrics"
	"github.com/justapithecus/hdrframe/types"
)

// LodeClient is a Lode-backed implementation of Client.
// Uses Lode's HiveLayout with partition keys source/day/stream_id/record_kind.
type LodeClient struct {
	dataset lode.Dataset
	config  Config

	storeFactory lode.StoreFactory
	storeOnce    sync.Once
	store        lode.Store
	storeErr     error

	mu      sync.Mutex // serializes dataset writes
	lastSeq int64
}

// NewLodeClient creates a new Lode client with filesystem storage.
// The root parameter is the base directory for Hive-partitioned storage.
func NewLodeClient(cfg Config, root string) (*LodeClient, error) {
	return NewLodeClientWithFactory(cfg, lode.NewFSFactory(root))
}

// NewLodeClientWithFactory creates a new Lode client with a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func NewLodeClientWithFactory(cfg Config, factory lode.StoreFactory) (*LodeClient, error) {
	ds, err := newDataset(cfg.Dataset, factory)
	if err != nil {
		return nil, WrapInitError(err, cfg.Dataset)
	}
	return newClient(ds, cfg, factory), nil
}

func newClient(ds lode.Dataset, cfg Config, factory lode.StoreFactory) *LodeClient {
	return &LodeClient{
		dataset:      ds,
		config:       cfg,
		storeFactory: factory,
	}
}

func newDataset(id string, factory lode.StoreFactory) (lode.Dataset, error) {
	return lode.NewDataset(
		lode.DatasetID(id),
		factory,
		lode.WithHiveLayout(partitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
}

// WriteMessages writes a batch of decoded messages as one Lode snapshot.
//
// Sequence numbers must increase across calls; a batch that would
// rewind the stream is rejected before anything is written.
func (c *LodeClient) WriteMessages(ctx context.Context, msgs []*types.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	last := c.lastSeq
	records := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Seq <= last {
			return fmt.Errorf("%w: seq %d after %d", ErrOutOfOrder, msg.Seq, last)
		}
		last = msg.Seq
		records = append(records, toMessageRecordMap(msg, c.config))
	}

	if _, err := c.dataset.Write(ctx, records, lode.Metadata{}); err != nil {
		return WrapWriteError(err, c.partitionPath(RecordKindMessage))
	}

	// Only advance after a successful write so a failed batch can be retried.
	c.lastSeq = last
	return nil
}

// WriteSummary writes the final metrics and outcome of the stream.
func (c *LodeClient) WriteSummary(ctx context.Context, snap metrics.Snapshot, outcome *types.Outcome, completedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	record := toSummaryRecordMap(snap, outcome, completedAt, c.config)
	if _, err := c.dataset.Write(ctx, []any{record}, lode.Metadata{}); err != nil {
		return WrapWriteError(err, c.partitionPath(RecordKindSummary))
	}
	return nil
}

// Close releases client resources.
func (c *LodeClient) Close() error {
	// Dataset doesn't require explicit close in current Lode API
	return nil
}

// StreamPath is the store-relative directory holding this stream's
// partitions.
func (c *LodeClient) StreamPath() string {
	return fmt.Sprintf("datasets/%s/partitions/source=%s/day=%s/stream_id=%s",
		c.config.Dataset, c.config.Source, c.config.Day, c.config.StreamID)
}

// partitionPath renders the Hive partition a record kind lands in, for
// error reporting.
func (c *LodeClient) partitionPath(recordKind string) string {
	return fmt.Sprintf("%s/source=%s/day=%s/stream_id=%s/record_kind=%s",
		c.config.Dataset, c.config.Source, c.config.Day, c.config.StreamID, recordKind)
}

// Verify LodeClient implements Client.
var _ Client = (*LodeClient)(nil)
