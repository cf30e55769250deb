package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/justapithecus/hdrframe/decode"
	"github.com/justapithecus/hdrframe/log"
	"github.com/justapithecus/hdrframe/metrics"
	"github.com/justapithecus/hdrframe/policy"
	"github.com/justapithecus/hdrframe/types"
)

// DefaultFlushTimeout bounds the final policy flush.
const DefaultFlushTimeout = 30 * time.Second

// RunConfig configures decoding of a single stream.
type RunConfig struct {
	// Reader is the byte source.
	Reader io.Reader
	// Engine is the decode engine. If nil, the reference grammar is used.
	Engine *decode.Engine
	// Meta is the stream identity.
	Meta *types.StreamMeta
	// Policy is the ingestion policy.
	Policy policy.Policy
	// ChunkSize overrides DefaultChunkSize when positive.
	ChunkSize int
	// Observer is an optional per-message callback.
	Observer MessageObserver
	// FlushTimeout overrides DefaultFlushTimeout when positive.
	FlushTimeout time.Duration
	// Logger overrides the default stderr logger.
	Logger *log.Logger
	// Collector is the metrics collector for this stream.
	// If nil, no metrics are recorded (all Collector methods are nil-safe).
	Collector *metrics.Collector
}

// RunResult represents the result of decoding one stream.
type RunResult struct {
	// Meta is the stream identity.
	Meta *types.StreamMeta
	// Outcome is the stream outcome.
	Outcome *types.Outcome
	// Duration is the total run duration.
	Duration time.Duration
	// PolicyStats is the policy statistics.
	PolicyStats policy.Stats
	// Report describes the decode failure, if any.
	Report *decode.Report
	// Progress is the decode progress when the run ended.
	Progress decode.Snapshot
}

// RunOrchestrator decodes a single stream end to end.
type RunOrchestrator struct {
	config    *RunConfig
	engine    *decode.Engine
	logger    *log.Logger
	startTime time.Time
}

// NewRunOrchestrator creates a new run orchestrator.
// Returns error if the configuration is incomplete.
func NewRunOrchestrator(config *RunConfig) (*RunOrchestrator, error) {
	if config.Reader == nil {
		return nil, errors.New("reader is required")
	}
	if config.Policy == nil {
		return nil, errors.New("policy is required")
	}
	if config.Meta == nil {
		return nil, errors.New("stream metadata is required")
	}
	if err := config.Meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stream metadata: %w", err)
	}

	engine := config.Engine
	if engine == nil {
		engine = decode.Reference()
	}

	logger := config.Logger
	if logger == nil {
		logger = log.NewLogger(config.Meta)
	}

	return &RunOrchestrator{
		config: config,
		engine: engine,
		logger: logger,
	}, nil
}

// Execute decodes the stream and returns its result.
//
// Execution flow:
//  1. Run the ingestion loop until EOF or a fatal error
//  2. Flush the policy (best effort, on every path)
//  3. Determine outcome
//  4. Record metrics
func (r *RunOrchestrator) Execute(ctx context.Context) *RunResult {
	r.startTime = time.Now()
	r.config.Collector.IncStreamStarted()

	r.logger.Info("starting stream", map[string]any{
		"grammar":    r.engine.Grammar().Name,
		"chunk_size": r.config.ChunkSize,
	})

	stream := r.engine.NewStream()
	ingestion := NewIngestionEngine(r.config.Reader, stream, r.config.Policy, r.logger, r.config.Collector)
	ingestion.SetChunkSize(r.config.ChunkSize)
	ingestion.SetObserver(r.config.Observer)

	ingErr := ingestion.Run(ctx)

	// Use WithoutCancel to keep context values while ignoring parent cancellation.
	timeout := r.config.FlushTimeout
	if timeout <= 0 {
		timeout = DefaultFlushTimeout
	}
	flushCtx, flushCancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	flushErr := r.config.Policy.Flush(flushCtx)
	flushCancel()
	if flushErr != nil {
		r.logger.Warn("policy flush failed (best effort)", map[string]any{
			"error": flushErr.Error(),
		})
	}

	outcome := DetermineOutcome(ingErr)
	if ingErr == nil && flushErr != nil {
		outcome = &types.Outcome{
			Status:  types.OutcomePolicyFailure,
			Message: fmt.Sprintf("policy flush failed: %v", flushErr),
		}
	}
	outcome.Messages = stream.Messages()
	outcome.BytesConsumed = stream.Consumed()
	outcome.BytesPending = stream.Received() - stream.Consumed()

	if ingErr != nil {
		r.logger.Error("stream failed", map[string]any{
			"outcome": outcome.Status,
			"error":   ingErr.Error(),
		})
	} else {
		r.logger.Info("stream completed", map[string]any{
			"outcome":  outcome.Status,
			"messages": outcome.Messages,
			"duration": time.Since(r.startTime).String(),
		})
	}

	return r.buildResult(outcome, stream, ingErr)
}

// buildResult constructs the final run result.
func (r *RunOrchestrator) buildResult(outcome *types.Outcome, stream *decode.Stream, ingErr error) *RunResult {
	result := &RunResult{
		Meta:        r.config.Meta,
		Outcome:     outcome,
		Duration:    time.Since(r.startTime),
		PolicyStats: r.config.Policy.Stats(),
		Report:      decode.NewReport(ingErr),
		Progress:    stream.Snapshot(),
	}

	switch outcome.Status {
	case types.OutcomeCompleted:
		r.config.Collector.IncStreamCompleted()
	case types.OutcomeTruncated:
		r.config.Collector.IncStreamTruncated()
	default:
		r.config.Collector.IncStreamFailed()
	}

	ps := result.PolicyStats
	r.config.Collector.AbsorbPolicyStats(ps.TotalMessages, ps.MessagesPersisted, ps.MessagesDropped, ps.DroppedByKind)

	return result
}
