// Package metrics provides per-stream metrics collection.
//
// The Collector accumulates counters while one or more streams are decoded.
// It is a leaf package with no internal dependencies. Delivery policy
// metrics are absorbed from policy.Stats when a stream finishes rather than
// recorded live, avoiding double-counting.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all metrics.
type Snapshot struct {
	// Stream lifecycle
	StreamsStarted   int64 `json:"streams_started" yaml:"streams_started"`
	StreamsCompleted int64 `json:"streams_completed" yaml:"streams_completed"`
	StreamsFailed    int64 `json:"streams_failed" yaml:"streams_failed"`
	StreamsTruncated int64 `json:"streams_truncated" yaml:"streams_truncated"`

	// Decoding
	ChunksRead      int64            `json:"chunks_read" yaml:"chunks_read"`
	BytesRead       int64            `json:"bytes_read" yaml:"bytes_read"`
	MessagesDecoded int64            `json:"messages_decoded" yaml:"messages_decoded"`
	Suspensions     int64            `json:"suspensions" yaml:"suspensions"`
	DecodeErrors    int64            `json:"decode_errors" yaml:"decode_errors"`
	ErrorsByKind    map[string]int64 `json:"errors_by_kind,omitempty" yaml:"errors_by_kind,omitempty"`

	// Delivery (absorbed from policy.Stats)
	MessagesReceived  int64            `json:"messages_received" yaml:"messages_received"`
	MessagesPersisted int64            `json:"messages_persisted" yaml:"messages_persisted"`
	MessagesDropped   int64            `json:"messages_dropped" yaml:"messages_dropped"`
	DroppedByKind     map[string]int64 `json:"dropped_by_kind,omitempty" yaml:"dropped_by_kind,omitempty"`

	// Lode / Storage
	LodeWriteSuccess int64 `json:"lode_write_success" yaml:"lode_write_success"`
	LodeWriteFailure int64 `json:"lode_write_failure" yaml:"lode_write_failure"`

	// Notifications
	AdapterPublishSuccess int64 `json:"adapter_publish_success" yaml:"adapter_publish_success"`
	AdapterPublishFailure int64 `json:"adapter_publish_failure" yaml:"adapter_publish_failure"`

	// Dimensions (informational, set at construction)
	Policy         string `json:"policy" yaml:"policy"`
	Sink           string `json:"sink" yaml:"sink"`
	StorageBackend string `json:"storage_backend,omitempty" yaml:"storage_backend,omitempty"`
	Grammar        string `json:"grammar" yaml:"grammar"`
	StreamID       string `json:"stream_id,omitempty" yaml:"stream_id,omitempty"`
}

// Collector accumulates metrics.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	streamsStarted   int64
	streamsCompleted int64
	streamsFailed    int64
	streamsTruncated int64

	chunksRead      int64
	bytesRead       int64
	messagesDecoded int64
	suspensions     int64
	decodeErrors    int64
	errorsByKind    map[string]int64

	messagesReceived  int64
	messagesPersisted int64
	messagesDropped   int64
	droppedByKind     map[string]int64

	lodeWriteSuccess int64
	lodeWriteFailure int64

	adapterPublishSuccess int64
	adapterPublishFailure int64

	policy         string
	sink           string
	storageBackend string
	grammar        string
	streamID       string
}

// Dimensions labels a collector.
type Dimensions struct {
	Policy         string
	Sink           string
	StorageBackend string
	Grammar        string
	// StreamID is empty when one collector serves many streams.
	StreamID string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(dims Dimensions) *Collector {
	return &Collector{
		errorsByKind:   make(map[string]int64),
		droppedByKind:  make(map[string]int64),
		policy:         dims.Policy,
		sink:           dims.Sink,
		storageBackend: dims.StorageBackend,
		grammar:        dims.Grammar,
		streamID:       dims.StreamID,
	}
}

// --- Stream lifecycle ---

// IncStreamStarted records a stream start.
func (c *Collector) IncStreamStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.streamsStarted++
	c.mu.Unlock()
}

// IncStreamCompleted records a stream that ended on a frame boundary.
func (c *Collector) IncStreamCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.streamsCompleted++
	c.mu.Unlock()
}

// IncStreamFailed records a stream ended by a decode, read or policy error.
func (c *Collector) IncStreamFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.streamsFailed++
	c.mu.Unlock()
}

// IncStreamTruncated records a stream that ended inside a frame.
func (c *Collector) IncStreamTruncated() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.streamsTruncated++
	c.mu.Unlock()
}

// --- Decoding ---

// AddChunk records one chunk of n bytes read from a source.
func (c *Collector) AddChunk(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chunksRead++
	c.bytesRead += int64(n)
	c.mu.Unlock()
}

// IncMessagesDecoded records a completed frame.
func (c *Collector) IncMessagesDecoded() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.messagesDecoded++
	c.mu.Unlock()
}

// IncSuspensions records a step that needed more input.
func (c *Collector) IncSuspensions() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.suspensions++
	c.mu.Unlock()
}

// IncDecodeError records a decode failure of the given kind.
func (c *Collector) IncDecodeError(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.decodeErrors++
	c.errorsByKind[kind]++
	c.mu.Unlock()
}

// --- Lode / Storage ---
// Lode counters are per-call, not per-record.

// IncLodeWriteSuccess records a successful Lode write operation.
func (c *Collector) IncLodeWriteSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.lodeWriteSuccess++
	c.mu.Unlock()
}

// IncLodeWriteFailure records a failed Lode write operation.
func (c *Collector) IncLodeWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.lodeWriteFailure++
	c.mu.Unlock()
}

// --- Notifications ---

// IncAdapterPublish records an adapter publish attempt result.
func (c *Collector) IncAdapterPublish(ok bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if ok {
		c.adapterPublishSuccess++
	} else {
		c.adapterPublishFailure++
	}
	c.mu.Unlock()
}

// --- Delivery (absorbed from policy.Stats) ---

// AbsorbPolicyStats adds delivery counters from a finished stream's policy
// stats. The droppedByKind keys are header kind names.
func (c *Collector) AbsorbPolicyStats(received, persisted, dropped int64, droppedByKind map[string]int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.messagesReceived += received
	c.messagesPersisted += persisted
	c.messagesDropped += dropped
	for k, v := range droppedByKind {
		c.droppedByKind[k] += v
	}
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		StreamsStarted:   c.streamsStarted,
		StreamsCompleted: c.streamsCompleted,
		StreamsFailed:    c.streamsFailed,
		StreamsTruncated: c.streamsTruncated,

		ChunksRead:      c.chunksRead,
		BytesRead:       c.bytesRead,
		MessagesDecoded: c.messagesDecoded,
		Suspensions:     c.suspensions,
		DecodeErrors:    c.decodeErrors,
		ErrorsByKind:    copyCounts(c.errorsByKind),

		MessagesReceived:  c.messagesReceived,
		MessagesPersisted: c.messagesPersisted,
		MessagesDropped:   c.messagesDropped,
		DroppedByKind:     copyCounts(c.droppedByKind),

		LodeWriteSuccess: c.lodeWriteSuccess,
		LodeWriteFailure: c.lodeWriteFailure,

		AdapterPublishSuccess: c.adapterPublishSuccess,
		AdapterPublishFailure: c.adapterPublishFailure,

		Policy:         c.policy,
		Sink:           c.sink,
		StorageBackend: c.storageBackend,
		Grammar:        c.grammar,
		StreamID:       c.streamID,
	}
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
