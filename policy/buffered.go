package policy

import (
	"context"
	"errors"
	"sync"

	"github.com/justapithecus/hdrframe/log"
	"github.com/justapithecus/hdrframe/types"
)

// BufferedConfig configures a BufferedPolicy.
type BufferedConfig struct {
	// MaxBufferMessages is the maximum number of messages to buffer.
	// Zero means no limit (use MaxBufferBytes instead).
	MaxBufferMessages int

	// MaxBufferBytes is the maximum buffer size in bytes (estimated).
	// Zero means no limit (use MaxBufferMessages instead).
	// At least one limit must be set.
	MaxBufferBytes int64

	// Drop selects messages that may be dropped when the buffer is full.
	Drop DropRule

	// Logger is an optional logger for policy observability.
	Logger *log.Logger
}

// DefaultBufferedConfig returns sensible defaults for buffered policy.
func DefaultBufferedConfig() BufferedConfig {
	return BufferedConfig{
		MaxBufferMessages: 1000,
		MaxBufferBytes:    10 * 1024 * 1024, // 10 MB
	}
}

// ErrBufferFull is returned when the buffer is full and the message is not
// droppable.
var ErrBufferFull = errors.New("buffer full: cannot accept non-droppable message")

// ErrInvalidConfig is returned when BufferedConfig is invalid.
var ErrInvalidConfig = errors.New("invalid config: at least one of MaxBufferMessages or MaxBufferBytes must be set")

// BufferedPolicy implements bounded buffering with drop rules.
//
//   - Bounded buffer with explicit limits
//   - When full, droppable messages are dropped; a non-droppable message
//     evicts the oldest droppable one or fails the stream
//   - One batch write per flush, in decode order
//   - On flush failure the batch is kept for the next flush
type BufferedPolicy struct {
	sink   Sink
	config BufferedConfig
	logger *log.Logger

	mu          sync.Mutex
	buffer      []*types.Message
	bufferBytes int64
	stats       *statsRecorder

	flushMu sync.Mutex
}

// NewBufferedPolicy creates a new buffered policy.
func NewBufferedPolicy(sink Sink, config BufferedConfig) (*BufferedPolicy, error) {
	if config.MaxBufferMessages <= 0 && config.MaxBufferBytes <= 0 {
		return nil, ErrInvalidConfig
	}

	return &BufferedPolicy{
		sink:   sink,
		config: config,
		logger: config.Logger,
		buffer: make([]*types.Message, 0, min(max(config.MaxBufferMessages, 16), 1024)),
		stats:  newStatsRecorder(),
	}, nil
}

// IngestMessage buffers the message, applying drop rules if the buffer is
// full.
func (p *BufferedPolicy) IngestMessage(_ context.Context, msg *types.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.incTotalLocked()
	size := estimateMessageSize(msg)

	if p.hasRoomForMessage(size) {
		p.appendMessage(msg, size)
		return nil
	}

	if kind, ok := p.config.Drop.Droppable(msg); ok {
		p.stats.incDroppedLocked(kind)
		p.logDrop(msg, kind, "buffer_full")
		return nil
	}

	if p.dropOldestDroppable() && p.hasRoomForMessage(size) {
		p.appendMessage(msg, size)
		return nil
	}

	p.stats.incErrorsLocked()
	p.logBufferOverflow(msg)
	return ErrBufferFull
}

// appendMessage adds a message to the buffer. Caller must hold mu.
func (p *BufferedPolicy) appendMessage(msg *types.Message, size int64) {
	p.buffer = append(p.buffer, msg)
	p.bufferBytes += size
	p.stats.setBufferSizeLocked(p.bufferBytes)
}

// Flush writes all buffered messages to the sink in one batch.
// On failure the batch is restored ahead of messages ingested meanwhile.
func (p *BufferedPolicy) Flush(ctx context.Context) error {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()

	p.mu.Lock()
	p.stats.incFlushLocked()
	batch := p.buffer
	if len(batch) == 0 {
		p.mu.Unlock()
		return nil
	}
	p.buffer = make([]*types.Message, 0, cap(batch))
	p.recalculateBufferBytes()
	p.mu.Unlock()

	if err := p.sink.WriteMessages(ctx, batch); err != nil {
		p.mu.Lock()
		p.stats.incErrorsLocked()
		p.buffer = append(batch, p.buffer...)
		p.recalculateBufferBytes()
		p.mu.Unlock()
		p.logFlushFailure(len(batch), err)
		return err
	}

	p.mu.Lock()
	p.stats.incPersistedLocked(int64(len(batch)))
	p.mu.Unlock()

	return nil
}

// Close flushes remaining messages and closes the sink.
func (p *BufferedPolicy) Close() error {
	// Best-effort flush on close
	_ = p.Flush(context.Background())
	return p.sink.Close()
}

// Stats returns an atomic snapshot of policy statistics.
func (p *BufferedPolicy) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stats.snapshotLocked(p.bufferBytes)
}

// hasRoomForMessage checks if the buffer can accept a message of the given
// size.
func (p *BufferedPolicy) hasRoomForMessage(size int64) bool {
	if p.config.MaxBufferMessages > 0 && len(p.buffer) >= p.config.MaxBufferMessages {
		return false
	}
	return p.hasRoomForBytes(size)
}

// hasRoomForBytes checks if adding bytes would exceed the byte limit.
func (p *BufferedPolicy) hasRoomForBytes(size int64) bool {
	if p.config.MaxBufferBytes > 0 && p.bufferBytes+size > p.config.MaxBufferBytes {
		return false
	}
	return true
}

// dropOldestDroppable removes the oldest droppable message from the buffer.
// Returns false if no buffered message is droppable. Caller must hold mu.
func (p *BufferedPolicy) dropOldestDroppable() bool {
	for i, msg := range p.buffer {
		kind, ok := p.config.Drop.Droppable(msg)
		if !ok {
			continue
		}
		p.buffer = append(p.buffer[:i], p.buffer[i+1:]...)
		p.bufferBytes -= estimateMessageSize(msg)
		p.stats.setBufferSizeLocked(p.bufferBytes)
		p.stats.incDroppedLocked(kind)
		p.logDrop(msg, kind, "evicted_for_non_droppable")
		return true
	}
	return false
}

// recalculateBufferBytes recalculates bufferBytes. Caller must hold mu.
func (p *BufferedPolicy) recalculateBufferBytes() {
	var total int64
	for _, msg := range p.buffer {
		total += estimateMessageSize(msg)
	}
	p.bufferBytes = total
	p.stats.setBufferSizeLocked(p.bufferBytes)
}

// --- Logging helpers ---

func (p *BufferedPolicy) logDrop(msg *types.Message, kind, reason string) {
	if p.logger == nil {
		return
	}
	p.logger.Warn("message dropped", map[string]any{
		"seq":    msg.Seq,
		"kind":   kind,
		"reason": reason,
		"policy": "buffered",
	})
}

func (p *BufferedPolicy) logBufferOverflow(msg *types.Message) {
	if p.logger == nil {
		return
	}
	p.logger.Error("buffer overflow", map[string]any{
		"seq":    msg.Seq,
		"policy": "buffered",
	})
}

func (p *BufferedPolicy) logFlushFailure(n int, err error) {
	if p.logger == nil {
		return
	}
	p.logger.Error("flush failed", map[string]any{
		"messages": n,
		"error":    err.Error(),
		"policy":   "buffered",
	})
}

var _ Policy = (*BufferedPolicy)(nil)
