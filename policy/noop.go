package policy

import (
	"context"
	"sync"

	"github.com/justapithecus/hdrframe/types"
)

// NoopPolicy accepts every message without persisting it.
//
// Messages matched by the drop rule are counted as dropped; all others are
// counted as persisted so stats stay comparable across policies.
type NoopPolicy struct {
	drop DropRule

	mu    sync.Mutex
	stats *statsRecorder
}

// NewNoopPolicy creates a new no-op policy.
func NewNoopPolicy(drop DropRule) *NoopPolicy {
	return &NoopPolicy{
		drop:  drop,
		stats: newStatsRecorder(),
	}
}

// IngestMessage accepts the message but does not persist it.
func (p *NoopPolicy) IngestMessage(_ context.Context, msg *types.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.incTotalLocked()
	if kind, ok := p.drop.Droppable(msg); ok {
		p.stats.incDroppedLocked(kind)
	} else {
		p.stats.incPersistedLocked(1)
	}
	return nil
}

// Flush is a no-op.
func (p *NoopPolicy) Flush(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.incFlushLocked()
	return nil
}

// Close is a no-op.
func (p *NoopPolicy) Close() error {
	return nil
}

// Stats returns the policy statistics.
func (p *NoopPolicy) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stats.snapshotLocked(0)
}

var _ Policy = (*NoopPolicy)(nil)
