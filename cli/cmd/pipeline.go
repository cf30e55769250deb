package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/justapithecus/hdrframe/adapter"
	"github.com/justapithecus/hdrframe/cli/reader"
	"github.com/justapithecus/hdrframe/decode"
	"github.com/justapithecus/hdrframe/ingest"
	"github.com/justapithecus/hdrframe/ipc"
	"github.com/justapithecus/hdrframe/log"
	hdrlode "github.com/justapithecus/hdrframe/lode"
	"github.com/justapithecus/hdrframe/metrics"
	"github.com/justapithecus/hdrframe/policy"
	"github.com/justapithecus/hdrframe/types"
)

// reportFile is the sidecar written next to a stream that failed to decode.
const reportFile = "report.json"

// DecodeResponse is the result of decoding one stream.
type DecodeResponse struct {
	Summary     *reader.StreamSummary `json:"summary" yaml:"summary"`
	Report      *decode.Report        `json:"report,omitempty" yaml:"report,omitempty"`
	StoragePath string                `json:"storage_path,omitempty" yaml:"storage_path,omitempty"`
	Messages    []reader.MessageRow   `json:"messages,omitempty" yaml:"messages,omitempty"`

	// Status drives the exit code.
	Status types.OutcomeStatus `json:"-" yaml:"-"`
}

// streamPipeline decodes streams with one set of options. It is safe for
// concurrent use; every run builds its own sink, policy and collector.
type streamPipeline struct {
	engine  *decode.Engine
	opts    *decodeOptions
	adapter adapter.Adapter
	logger  *log.Logger
	// stdout receives ipc frames for --ipc-out -.
	stdout io.Writer
}

// streamOutput is the sink side of one run.
type streamOutput struct {
	sink        policy.Sink
	lode        *hdrlode.LodeClient
	ipc         *ipc.Sink
	storagePath string
	// closer releases the sink when the policy never does.
	closer io.Closer
}

// run decodes r as one stream and records the result. The returned error
// reports setup failures only; decode failures are part of the response.
func (p *streamPipeline) run(ctx context.Context, r io.Reader, source, streamID string) (*DecodeResponse, error) {
	start := time.Now()
	meta := types.NewStreamMeta(source, p.engine.Grammar().Name)
	if streamID != "" {
		meta.StreamID = streamID
	}
	logger := p.logger.WithStream(meta)
	collector := metrics.NewCollector(metrics.Dimensions{
		Policy:         p.opts.Policy.Name,
		Sink:           p.opts.Sink.Kind,
		StorageBackend: p.storageBackend(),
		Grammar:        meta.Grammar,
		StreamID:       meta.StreamID,
	})

	out, err := p.openOutput(ctx, meta, start, collector)
	if err != nil {
		return nil, err
	}
	if out.closer != nil {
		defer func() {
			if err := out.closer.Close(); err != nil && !isAlreadyClosed(err) {
				logger.Warn("sink close failed", map[string]any{"error": err.Error()})
			}
		}()
	}

	pol, err := buildPolicy(p.opts.Policy, out.sink, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := pol.Close(); err != nil {
			logger.Warn("policy close failed", map[string]any{"error": err.Error()})
		}
	}()

	var rows []reader.MessageRow
	cfg := &ingest.RunConfig{
		Reader:    r,
		Engine:    p.engine,
		Meta:      meta,
		Policy:    pol,
		ChunkSize: p.opts.ChunkSize,
		Logger:    logger,
		Collector: collector,
	}
	if p.opts.Messages {
		rows = []reader.MessageRow{}
		cfg.Observer = func(msg *types.Message) {
			rows = append(rows, reader.NewMessageRow(msg))
		}
	}

	orch, err := ingest.NewRunOrchestrator(cfg)
	if err != nil {
		return nil, err
	}
	result := orch.Execute(ctx)

	finishCtx, cancel := finishContext(ctx)
	defer cancel()
	p.persist(finishCtx, out, result, collector, logger)
	p.notify(finishCtx, result, out.storagePath, collector, logger)

	return &DecodeResponse{
		Summary:     reader.NewStreamSummary(meta, p.opts.Policy.Name, collector.Snapshot(), result.Outcome, time.Now()),
		Report:      result.Report,
		StoragePath: out.storagePath,
		Messages:    rows,
		Status:      result.Outcome.Status,
	}, nil
}

func (p *streamPipeline) storageBackend() string {
	if p.opts.Sink.Kind != sinkLode {
		return ""
	}
	return p.opts.Sink.Backend
}

// openOutput builds the sink selected by --sink.
func (p *streamPipeline) openOutput(ctx context.Context, meta *types.StreamMeta, start time.Time, collector *metrics.Collector) (*streamOutput, error) {
	s := p.opts.Sink
	switch s.Kind {
	case sinkLode:
		cfg := hdrlode.NewConfig(s.Dataset, meta, start)
		cfg.Policy = p.opts.Policy.Name

		var (
			client *hdrlode.LodeClient
			root   string
			err    error
		)
		if s.Backend == backendS3 {
			bucket, prefix := hdrlode.ParseS3Path(s.Path)
			client, err = hdrlode.NewLodeS3Client(ctx, cfg, hdrlode.S3Config{
				Bucket:       bucket,
				Prefix:       prefix,
				Region:       s.Region,
				Endpoint:     s.Endpoint,
				UsePathStyle: s.PathStyle,
			})
			root = "s3://" + s.Path
		} else {
			client, err = hdrlode.NewLodeClient(cfg, s.Path)
			root = s.Path
		}
		if err != nil {
			return nil, fmt.Errorf("open lode storage: %w", err)
		}
		sink := hdrlode.NewInstrumentedSink(hdrlode.NewSink(client), collector)
		return &streamOutput{
			sink:        sink,
			lode:        client,
			storagePath: joinStoragePath(root, client.StreamPath()),
			closer:      sink,
		}, nil

	case sinkIPC:
		var w io.Writer
		if s.IPCOut == "-" {
			// Hide stdout's Close from the sink.
			w = struct{ io.Writer }{p.stdout}
		} else {
			f, err := os.OpenFile(s.IPCOut, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open ipc output: %w", err)
			}
			w = f
		}
		sink := ipc.NewSink(w, meta.StreamID)
		return &streamOutput{sink: sink, ipc: sink, closer: sink}, nil

	default:
		return &streamOutput{sink: policy.NopSink{}}, nil
	}
}

// persist writes the failure report, the summary record and the ipc result
// frame. Failures are logged; the stream outcome stands.
func (p *streamPipeline) persist(ctx context.Context, out *streamOutput, result *ingest.RunResult, collector *metrics.Collector, logger *log.Logger) {
	if out.lode != nil {
		if result.Report != nil {
			if err := writeReport(ctx, out.lode, result.Report); err != nil {
				logger.Warn("report write failed", map[string]any{"error": err.Error()})
			}
		}
		if err := out.lode.WriteSummary(ctx, collector.Snapshot(), result.Outcome, time.Now()); err != nil {
			logger.Warn("summary write failed", map[string]any{"error": err.Error()})
		}
	}
	if out.ipc != nil {
		if err := out.ipc.WriteResult(result.Outcome); err != nil {
			logger.Warn("ipc result frame failed", map[string]any{"error": err.Error()})
		}
	}
}

func writeReport(ctx context.Context, w hdrlode.FileWriter, report *decode.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return w.PutFile(ctx, reportFile, data)
}

// notify publishes the stream_completed event. A failed publish never
// changes the stream outcome.
func (p *streamPipeline) notify(ctx context.Context, result *ingest.RunResult, storagePath string, collector *metrics.Collector, logger *log.Logger) {
	if p.adapter == nil {
		return
	}
	event := adapter.NewStreamCompletedEvent(result.Meta, result.Outcome, storagePath, result.Duration, time.Now())
	if err := adapter.NewInstrumented(p.adapter, collector).Publish(ctx, event); err != nil {
		logger.Warn("adapter publish failed", map[string]any{
			"adapter": p.opts.Adapter.Type,
			"error":   err.Error(),
		})
		return
	}
	logger.Debug("adapter publish succeeded", map[string]any{"adapter": p.opts.Adapter.Type})
}

func joinStoragePath(root, rel string) string {
	if root == "" {
		return rel
	}
	if strings.HasPrefix(root, "s3://") {
		return root + "/" + rel
	}
	return filepath.Join(root, filepath.FromSlash(rel))
}

// isAlreadyClosed reports whether err comes from closing a file the policy
// already closed.
func isAlreadyClosed(err error) bool {
	return errors.Is(err, os.ErrClosed)
}
