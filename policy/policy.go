// Package policy defines how decoded messages are delivered to a sink.
package policy

import (
	"context"
	"sync"

	"github.com/justapithecus/hdrframe/types"
)

// Policy controls buffering, dropping and persistence of decoded messages.
//
//   - Messages reach the sink in decode order
//   - Only messages matched by the configured DropRule may be dropped
//   - Policy failure terminates the stream
type Policy interface {
	// IngestMessage handles one decoded message.
	// Return error to terminate the stream.
	IngestMessage(ctx context.Context, msg *types.Message) error

	// Flush writes any buffered messages.
	// Called when a stream ends, cleanly or not.
	Flush(ctx context.Context) error

	// Close releases policy resources.
	Close() error

	// Stats returns a consistent snapshot of policy counters.
	Stats() Stats
}

// Stats represents policy observability metrics.
type Stats struct {
	// TotalMessages is the number of messages received.
	TotalMessages int64 `json:"total_messages" yaml:"total_messages"`
	// MessagesPersisted is the number of messages written to the sink.
	MessagesPersisted int64 `json:"messages_persisted" yaml:"messages_persisted"`
	// MessagesDropped is the number of messages dropped.
	MessagesDropped int64 `json:"messages_dropped" yaml:"messages_dropped"`
	// DroppedByKind maps the header kind that made a message droppable to
	// drop counts.
	DroppedByKind map[string]int64 `json:"dropped_by_kind,omitempty" yaml:"dropped_by_kind,omitempty"`
	// BufferSize is the current buffer size in bytes (if buffered).
	BufferSize int64 `json:"buffer_size" yaml:"buffer_size"`
	// FlushCount is the number of flush operations.
	FlushCount int64 `json:"flush_count" yaml:"flush_count"`
	// Errors is the count of sink or buffer errors encountered.
	Errors int64 `json:"errors" yaml:"errors"`
}

// DropRule marks messages carrying any of a set of header kinds as
// droppable under buffer pressure.
type DropRule struct {
	kinds map[string]bool
}

// NewDropRule returns a rule dropping messages with any of kinds.
// With no kinds nothing is droppable.
func NewDropRule(kinds ...string) DropRule {
	r := DropRule{kinds: make(map[string]bool, len(kinds))}
	for _, k := range kinds {
		r.kinds[k] = true
	}
	return r
}

// Droppable reports whether msg may be dropped, and the header kind that
// made it so.
func (r DropRule) Droppable(msg *types.Message) (string, bool) {
	if len(r.kinds) == 0 {
		return "", false
	}
	for _, h := range msg.Headers {
		if r.kinds[h.Kind] {
			return h.Kind, true
		}
	}
	return "", false
}

// Kinds returns the droppable header kinds.
func (r DropRule) Kinds() []string {
	out := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		out = append(out, k)
	}
	return out
}

// estimateMessageSize returns an estimated in-memory size for buffer
// accounting.
func estimateMessageSize(msg *types.Message) int64 {
	size := int64(64 + len(msg.Body))
	for _, h := range msg.Headers {
		size += int64(16 + len(h.Kind) + len(h.Value))
	}
	return size
}

// statsRecorder is an internal helper for thread-safe stats management.
//
// Lock discipline:
//   - StrictPolicy uses the locking methods (incTotal, snapshot, etc.)
//   - BufferedPolicy and StreamingPolicy use the Locked methods only while
//     holding their own mu, keeping buffer state and counters consistent.
type statsRecorder struct {
	mu    sync.Mutex
	stats Stats
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{
		stats: Stats{
			DroppedByKind: make(map[string]int64),
		},
	}
}

func (r *statsRecorder) incTotal() {
	r.mu.Lock()
	r.stats.TotalMessages++
	r.mu.Unlock()
}

func (r *statsRecorder) incPersisted(n int64) {
	r.mu.Lock()
	r.stats.MessagesPersisted += n
	r.mu.Unlock()
}

func (r *statsRecorder) incErrors() {
	r.mu.Lock()
	r.stats.Errors++
	r.mu.Unlock()
}

func (r *statsRecorder) incFlush() {
	r.mu.Lock()
	r.stats.FlushCount++
	r.mu.Unlock()
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(r.stats.BufferSize)
}

// --- Locked methods ---
// Caller must hold the owning policy's mu.

func (r *statsRecorder) incTotalLocked() {
	r.stats.TotalMessages++
}

func (r *statsRecorder) incPersistedLocked(n int64) {
	r.stats.MessagesPersisted += n
}

func (r *statsRecorder) incDroppedLocked(kind string) {
	r.stats.MessagesDropped++
	r.stats.DroppedByKind[kind]++
}

func (r *statsRecorder) incErrorsLocked() {
	r.stats.Errors++
}

func (r *statsRecorder) incFlushLocked() {
	r.stats.FlushCount++
}

func (r *statsRecorder) setBufferSizeLocked(bytes int64) {
	r.stats.BufferSize = bytes
}

// snapshotLocked returns a snapshot of stats with the given bufferSize.
func (r *statsRecorder) snapshotLocked(bufferSize int64) Stats {
	s := r.stats
	s.BufferSize = bufferSize
	s.DroppedByKind = make(map[string]int64, len(r.stats.DroppedByKind))
	for k, v := range r.stats.DroppedByKind {
		s.DroppedByKind[k] = v
	}
	return s
}
