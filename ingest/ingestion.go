// Package ingest drives a decode stream from a byte source and delivers
// decoded messages to an ingestion policy.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/justapithecus/hdrframe/decode"
	"github.com/justapithecus/hdrframe/log"
	"github.com/justapithecus/hdrframe/metrics"
	"github.com/justapithecus/hdrframe/policy"
	"github.com/justapithecus/hdrframe/types"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 32 * 1024

// ErrTruncated is wrapped when the source ends inside a frame.
var ErrTruncated = errors.New("stream ended inside a frame")

// IngestionError classifies ingestion errors for outcome determination.
type IngestionError struct {
	// Kind indicates which stage failed.
	Kind IngestionErrorKind
	// Err is the underlying error.
	Err error
}

// IngestionErrorKind classifies ingestion errors.
type IngestionErrorKind int

const (
	// IngestionErrorDecode indicates the bytes violated the grammar.
	IngestionErrorDecode IngestionErrorKind = iota
	// IngestionErrorTruncated indicates EOF inside a frame.
	IngestionErrorTruncated
	// IngestionErrorRead indicates the source returned a non-EOF error.
	IngestionErrorRead
	// IngestionErrorPolicy indicates a policy failure.
	IngestionErrorPolicy
	// IngestionErrorCanceled indicates context cancellation.
	IngestionErrorCanceled
)

func (e *IngestionError) Error() string {
	return e.Err.Error()
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

func isKind(err error, kind IngestionErrorKind) bool {
	var ingErr *IngestionError
	if errors.As(err, &ingErr) {
		return ingErr.Kind == kind
	}
	return false
}

// IsDecodeError returns true if the error is a grammar violation.
func IsDecodeError(err error) bool { return isKind(err, IngestionErrorDecode) }

// IsTruncatedError returns true if the source ended inside a frame.
func IsTruncatedError(err error) bool { return isKind(err, IngestionErrorTruncated) }

// IsReadError returns true if reading the source failed.
func IsReadError(err error) bool { return isKind(err, IngestionErrorRead) }

// IsPolicyError returns true if the error is a policy failure.
func IsPolicyError(err error) bool { return isKind(err, IngestionErrorPolicy) }

// IsCanceledError returns true if the error is due to context cancellation.
func IsCanceledError(err error) bool { return isKind(err, IngestionErrorCanceled) }

// MessageObserver is called synchronously for every decoded message before
// policy dispatch. Observers must not retain or mutate the message.
type MessageObserver func(msg *types.Message)

// IngestionEngine reads chunks from a source and feeds them to a stream.
//   - Chunks are fed in read order, whatever their boundaries
//   - Every buffered frame is drained before the next read
//   - A decode error is fatal (no resync)
//   - EOF on a frame boundary is a clean end
//   - Policy failure terminates ingestion
type IngestionEngine struct {
	reader    io.Reader
	stream    *decode.Stream
	policy    policy.Policy
	logger    *log.Logger
	collector *metrics.Collector
	observer  MessageObserver
	chunkSize int
}

// NewIngestionEngine creates a new ingestion engine. A nil logger discards
// output; a nil collector records nothing.
func NewIngestionEngine(
	reader io.Reader,
	stream *decode.Stream,
	pol policy.Policy,
	logger *log.Logger,
	collector *metrics.Collector,
) *IngestionEngine {
	if logger == nil {
		logger = log.Nop()
	}
	return &IngestionEngine{
		reader:    reader,
		stream:    stream,
		policy:    pol,
		logger:    logger,
		collector: collector,
		chunkSize: DefaultChunkSize,
	}
}

// SetChunkSize overrides the read size. Values below 1 are ignored.
func (e *IngestionEngine) SetChunkSize(n int) {
	if n > 0 {
		e.chunkSize = n
	}
}

// SetObserver installs a per-message observer.
func (e *IngestionEngine) SetObserver(fn MessageObserver) {
	e.observer = fn
}

// Stream returns the underlying decode stream.
func (e *IngestionEngine) Stream() *decode.Stream {
	return e.stream
}

// Run runs the ingestion loop until EOF or fatal error.
// Returns:
//   - nil: source ended on a frame boundary
//   - *IngestionError with Kind=IngestionErrorDecode: grammar violation
//   - *IngestionError with Kind=IngestionErrorTruncated: EOF inside a frame
//   - *IngestionError with Kind=IngestionErrorRead: source read failure
//   - *IngestionError with Kind=IngestionErrorPolicy: policy failure
//   - *IngestionError with Kind=IngestionErrorCanceled: context canceled
func (e *IngestionEngine) Run(ctx context.Context) error {
	buf := make([]byte, e.chunkSize)
	for {
		select {
		case <-ctx.Done():
			return &IngestionError{
				Kind: IngestionErrorCanceled,
				Err:  ctx.Err(),
			}
		default:
		}

		n, readErr := e.reader.Read(buf)
		if n > 0 {
			e.collector.AddChunk(n)
			if err := e.feed(ctx, buf[:n]); err != nil {
				return err
			}
		}

		if readErr == nil {
			continue
		}
		if errors.Is(readErr, io.EOF) {
			return e.finish()
		}
		if ctx.Err() != nil {
			return &IngestionError{
				Kind: IngestionErrorCanceled,
				Err:  fmt.Errorf("read interrupted: %w", ctx.Err()),
			}
		}
		e.logger.Error("read failed", map[string]any{
			"error":    readErr.Error(),
			"received": e.stream.Received(),
		})
		return &IngestionError{
			Kind: IngestionErrorRead,
			Err:  fmt.Errorf("read error: %w", readErr),
		}
	}
}

// feed steps the stream with chunk and drains every complete frame.
func (e *IngestionEngine) feed(ctx context.Context, chunk []byte) error {
	msg, err := e.stream.Step(chunk)
	for {
		if err != nil {
			return e.decodeFailed(err)
		}
		if msg == nil {
			e.collector.IncSuspensions()
			return nil
		}
		if err := e.deliver(ctx, msg); err != nil {
			return err
		}
		msg, err = e.stream.Step(nil)
	}
}

func (e *IngestionEngine) deliver(ctx context.Context, msg *types.Message) error {
	e.collector.IncMessagesDecoded()
	e.logger.Debug("message decoded", map[string]any{
		"seq":     msg.Seq,
		"offset":  msg.Offset,
		"length":  msg.Length,
		"headers": len(msg.Headers),
	})

	if e.observer != nil {
		e.observer(msg)
	}

	if err := e.policy.IngestMessage(ctx, msg); err != nil {
		e.logger.Error("policy ingestion failed", map[string]any{
			"seq":   msg.Seq,
			"error": err.Error(),
		})
		return &IngestionError{
			Kind: IngestionErrorPolicy,
			Err:  fmt.Errorf("policy failure: %w", err),
		}
	}
	return nil
}

func (e *IngestionEngine) decodeFailed(err error) error {
	fields := map[string]any{"error": err.Error()}
	if r := decode.NewReport(err); r != nil {
		fields["kind"] = r.Kind
		fields["offset"] = r.Offset
		fields["found"] = r.Found
		fields["expected"] = r.Expected
		e.collector.IncDecodeError(r.Kind)
	}
	e.logger.Error("decode failed", fields)
	return &IngestionError{
		Kind: IngestionErrorDecode,
		Err:  err,
	}
}

// finish classifies EOF: clean between frames, truncated inside one.
func (e *IngestionEngine) finish() error {
	if !e.stream.InFrame() {
		return nil
	}
	start := e.stream.Snapshot().FrameStart
	received := e.stream.Received()
	e.logger.Warn("source ended inside a frame", map[string]any{
		"frame_start": start,
		"received":    received,
	})
	return &IngestionError{
		Kind: IngestionErrorTruncated,
		Err: fmt.Errorf("%w: frame at offset %d has %d of its bytes",
			ErrTruncated, start, received-start),
	}
}
