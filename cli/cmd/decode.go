package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/hdrframe/adapter"
	"github.com/justapithecus/hdrframe/adapter/redis"
	"github.com/justapithecus/hdrframe/adapter/webhook"
	"github.com/justapithecus/hdrframe/cli/config"
	"github.com/justapithecus/hdrframe/cli/render"
	"github.com/justapithecus/hdrframe/cli/tui"
	"github.com/justapithecus/hdrframe/decode"
	"github.com/justapithecus/hdrframe/ingest"
	"github.com/justapithecus/hdrframe/iox"
	"github.com/justapithecus/hdrframe/log"
	"github.com/justapithecus/hdrframe/policy"
)

// Policy names accepted by --policy.
const (
	policyStrict    = "strict"
	policyBuffered  = "buffered"
	policyStreaming = "streaming"
	policyNoop      = "noop"
)

// Sink names accepted by --sink.
const (
	sinkNone = "none"
	sinkLode = "lode"
	sinkIPC  = "ipc"
)

// Storage backends accepted by --lode-backend.
const (
	backendFS = "fs"
	backendS3 = "s3"
)

// Adapter types accepted by --adapter.
const (
	adapterWebhook = "webhook"
	adapterRedis   = "redis"
)

// DecodeCommand returns the decode command.
func DecodeCommand() *cli.Command {
	flags := append(GrammarFlags(), OutputFlags()...)
	flags = append(flags, decodeFlags()...)
	return &cli.Command{
		Name:  "decode",
		Usage: "Decode a header-delimited byte stream",
		Description: `Decodes frames from a file, stdin or TCP connections and delivers the
messages through an ingestion policy to a sink.

Exit codes (single stream):
  0  stream completed
  1  decode error
  2  truncated (EOF inside a frame)
  3  policy failure
  4  read error`,
		Flags:  flags,
		Action: decodeAction,
	}
}

func decodeFlags() []cli.Flag {
	return []cli.Flag{
		InputFlag,
		&cli.StringFlag{
			Name:  "listen",
			Usage: "Accept TCP connections on this address; each connection is one stream",
		},
		&cli.IntFlag{
			Name:  "max-streams",
			Usage: "Stop listening after this many streams (0 = unbounded)",
		},
		&cli.IntFlag{
			Name:  "chunk-size",
			Usage: "Read size per chunk in bytes",
			Value: ingest.DefaultChunkSize,
		},
		&cli.StringFlag{
			Name:  "stream-id",
			Usage: "Stream ID (default: random UUID)",
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "Source label for partitioning (default: input path, stdin or remote address)",
		},

		// Policy
		&cli.StringFlag{
			Name:  "policy",
			Usage: "Ingestion policy: strict, buffered, streaming, noop",
			Value: policyStrict,
		},
		&cli.IntFlag{
			Name:  "buffer-messages",
			Usage: "Buffered policy: maximum messages held",
		},
		&cli.Int64Flag{
			Name:  "buffer-bytes",
			Usage: "Buffered policy: maximum bytes held",
		},
		&cli.StringSliceFlag{
			Name:  "drop-kinds",
			Usage: "Header kinds whose messages may be dropped (buffered, noop)",
		},
		&cli.IntFlag{
			Name:  "flush-count",
			Usage: "Streaming policy: flush after this many messages",
		},
		&cli.DurationFlag{
			Name:  "flush-interval",
			Usage: "Streaming policy: flush at this interval",
		},

		// Sink
		&cli.StringFlag{
			Name:  "sink",
			Usage: "Message sink: none, lode, ipc",
			Value: sinkNone,
		},
		&cli.StringFlag{
			Name:  "ipc-out",
			Usage: "IPC sink output file (\"-\" for stdout)",
			Value: "-",
		},
		&cli.StringFlag{
			Name:  "lode-backend",
			Usage: "Lode storage backend: fs, s3",
			Value: backendFS,
		},
		&cli.StringFlag{
			Name:  "lode-path",
			Usage: "Lode root directory (fs) or bucket/prefix (s3)",
		},
		&cli.StringFlag{
			Name:  "lode-dataset",
			Usage: "Lode dataset ID",
		},
		&cli.StringFlag{
			Name:  "lode-s3-region",
			Usage: "AWS region for the s3 backend",
		},
		&cli.StringFlag{
			Name:  "lode-s3-endpoint",
			Usage: "Custom S3 endpoint for S3-compatible providers",
		},
		&cli.BoolFlag{
			Name:  "lode-s3-path-style",
			Usage: "Force path-style S3 addressing",
		},

		// Adapter
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "Completion notification adapter: webhook, redis",
		},
		&cli.StringFlag{
			Name:  "adapter-url",
			Usage: "Webhook URL or Redis URL",
		},
		&cli.StringFlag{
			Name:  "adapter-channel",
			Usage: "Redis pub/sub channel",
		},
		&cli.StringSliceFlag{
			Name:  "adapter-header",
			Usage: "Webhook header as KEY=VALUE (repeatable)",
		},
		&cli.DurationFlag{
			Name:  "adapter-timeout",
			Usage: "Per-attempt adapter timeout",
		},
		&cli.IntFlag{
			Name:  "adapter-retries",
			Usage: "Adapter retry attempts",
			Value: webhook.DefaultRetries,
		},

		// Output
		&cli.BoolFlag{
			Name:  "messages",
			Usage: "Include decoded messages in the output",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Suppress decode logs on stderr",
		},
	}
}

// policyChoice is the resolved --policy configuration.
type policyChoice struct {
	Name           string
	BufferMessages int
	BufferBytes    int64
	DropKinds      []string
	FlushCount     int
	FlushInterval  time.Duration
}

// sinkChoice is the resolved sink and storage configuration.
type sinkChoice struct {
	Kind      string
	IPCOut    string
	Backend   string
	Path      string
	Dataset   string
	Region    string
	Endpoint  string
	PathStyle bool
}

// adapterChoice is the resolved adapter configuration.
type adapterChoice struct {
	Type    string
	URL     string
	Channel string
	Headers map[string]string
	Timeout time.Duration
	Retries int
}

// decodeOptions is every decode setting after merging flags over config.
type decodeOptions struct {
	Input      string
	Listen     string
	MaxStreams int
	ChunkSize  int
	StreamID   string
	Source     string
	Policy     policyChoice
	Sink       sinkChoice
	Adapter    adapterChoice
	Messages   bool
	Quiet      bool
}

func resolveDecodeOptions(c *cli.Context, cfg *config.Config) (*decodeOptions, error) {
	headers, err := parseHeaders(c.StringSlice("adapter-header"))
	if err != nil {
		return nil, err
	}
	if !c.IsSet("adapter-header") && len(cfg.Adapter.Headers) > 0 {
		headers = cfg.Adapter.Headers
	}
	retries := c.Int("adapter-retries")
	if !c.IsSet("adapter-retries") && cfg.Adapter.Retries != nil {
		retries = *cfg.Adapter.Retries
	}

	opts := &decodeOptions{
		Input:      c.String("input"),
		Listen:     stringOr(c, "listen", cfg.Listen),
		MaxStreams: c.Int("max-streams"),
		ChunkSize:  intOr(c, "chunk-size", cfg.ChunkSize),
		StreamID:   c.String("stream-id"),
		Source:     stringOr(c, "source", cfg.Source),
		Policy: policyChoice{
			Name:           stringOr(c, "policy", cfg.Policy.Name),
			BufferMessages: intOr(c, "buffer-messages", cfg.Policy.BufferMessages),
			BufferBytes:    int64Or(c, "buffer-bytes", cfg.Policy.BufferBytes),
			DropKinds:      sliceOr(c, "drop-kinds", cfg.Policy.DropKinds),
			FlushCount:     intOr(c, "flush-count", cfg.Policy.FlushCount),
			FlushInterval:  durationOr(c, "flush-interval", cfg.Policy.FlushInterval.Duration),
		},
		Sink: sinkChoice{
			Kind:      stringOr(c, "sink", cfg.Storage.Sink),
			IPCOut:    c.String("ipc-out"),
			Backend:   stringOr(c, "lode-backend", cfg.Storage.Backend),
			Path:      stringOr(c, "lode-path", cfg.Storage.Path),
			Dataset:   stringOr(c, "lode-dataset", cfg.Storage.Dataset),
			Region:    stringOr(c, "lode-s3-region", cfg.Storage.Region),
			Endpoint:  stringOr(c, "lode-s3-endpoint", cfg.Storage.Endpoint),
			PathStyle: boolOr(c, "lode-s3-path-style", cfg.Storage.S3PathStyle),
		},
		Adapter: adapterChoice{
			Type:    stringOr(c, "adapter", cfg.Adapter.Type),
			URL:     stringOr(c, "adapter-url", cfg.Adapter.URL),
			Channel: stringOr(c, "adapter-channel", cfg.Adapter.Channel),
			Headers: headers,
			Timeout: durationOr(c, "adapter-timeout", cfg.Adapter.Timeout.Duration),
			Retries: retries,
		},
		Messages: c.Bool("messages"),
		Quiet:    c.Bool("quiet"),
	}

	if opts.Input != "" && opts.Listen != "" {
		return nil, errors.New("--input and --listen are mutually exclusive")
	}
	if opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("--chunk-size must be positive, got %d", opts.ChunkSize)
	}
	if opts.MaxStreams < 0 {
		return nil, fmt.Errorf("--max-streams must be >= 0, got %d", opts.MaxStreams)
	}
	if opts.Listen != "" && opts.StreamID != "" {
		return nil, errors.New("--stream-id cannot be used with --listen; each connection gets its own ID")
	}
	if err := validatePolicyConfig(opts.Policy); err != nil {
		return nil, err
	}
	if err := validateSinkConfig(opts.Sink); err != nil {
		return nil, err
	}
	if err := validateAdapterConfig(opts.Adapter); err != nil {
		return nil, err
	}
	return opts, nil
}

// validatePolicyConfig checks that the chosen policy has the settings it needs.
func validatePolicyConfig(p policyChoice) error {
	if p.BufferMessages < 0 || p.BufferBytes < 0 || p.FlushCount < 0 || p.FlushInterval < 0 {
		return errors.New("policy limits must be >= 0")
	}
	switch p.Name {
	case policyStrict, policyNoop:
		return nil
	case policyBuffered:
		if p.BufferMessages == 0 && p.BufferBytes == 0 {
			return errors.New("buffered policy requires --buffer-messages or --buffer-bytes")
		}
		return nil
	case policyStreaming:
		if p.FlushCount == 0 && p.FlushInterval == 0 {
			return errors.New("streaming policy requires --flush-count or --flush-interval")
		}
		return nil
	default:
		return fmt.Errorf("invalid --policy %q: must be strict, buffered, streaming or noop", p.Name)
	}
}

func validateSinkConfig(s sinkChoice) error {
	switch s.Kind {
	case sinkNone, sinkIPC:
		return nil
	case sinkLode:
	default:
		return fmt.Errorf("invalid --sink %q: must be none, lode or ipc", s.Kind)
	}
	switch s.Backend {
	case backendFS, backendS3:
	default:
		return fmt.Errorf("invalid --lode-backend %q: must be fs or s3", s.Backend)
	}
	if s.Path == "" {
		return errors.New("--lode-path is required with --sink lode")
	}
	return nil
}

func validateAdapterConfig(a adapterChoice) error {
	switch a.Type {
	case "":
		return nil
	case adapterWebhook, adapterRedis:
	default:
		return fmt.Errorf("invalid --adapter %q: must be webhook or redis", a.Type)
	}
	if a.URL == "" {
		return fmt.Errorf("--adapter-url is required with --adapter %s", a.Type)
	}
	if a.Retries < 0 {
		return fmt.Errorf("--adapter-retries must be >= 0, got %d", a.Retries)
	}
	return nil
}

// parseHeaders parses KEY=VALUE pairs.
func parseHeaders(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --adapter-header %q: want KEY=VALUE", p)
		}
		headers[k] = v
	}
	return headers, nil
}

// buildPolicy constructs the policy named by p over sink.
func buildPolicy(p policyChoice, sink policy.Sink, logger *log.Logger) (policy.Policy, error) {
	switch p.Name {
	case policyStrict:
		return policy.NewStrictPolicy(sink), nil
	case policyBuffered:
		return policy.NewBufferedPolicy(sink, policy.BufferedConfig{
			MaxBufferMessages: p.BufferMessages,
			MaxBufferBytes:    p.BufferBytes,
			Drop:              policy.NewDropRule(p.DropKinds...),
			Logger:            logger,
		})
	case policyStreaming:
		return policy.NewStreamingPolicy(sink, policy.StreamingConfig{
			FlushCount:    p.FlushCount,
			FlushInterval: p.FlushInterval,
			Logger:        logger,
		})
	case policyNoop:
		return policy.NewNoopPolicy(policy.NewDropRule(p.DropKinds...)), nil
	default:
		return nil, fmt.Errorf("unknown policy %q", p.Name)
	}
}

// buildAdapter constructs the notification adapter, or returns nil when
// none is configured.
func buildAdapter(a adapterChoice) (adapter.Adapter, error) {
	switch a.Type {
	case "":
		return nil, nil
	case adapterWebhook:
		return webhook.New(webhook.Config{
			URL:     a.URL,
			Headers: a.Headers,
			Timeout: a.Timeout,
			Retries: a.Retries,
		})
	case adapterRedis:
		return redis.New(redis.Config{
			URL:     a.URL,
			Channel: a.Channel,
			Timeout: a.Timeout,
			Retries: a.Retries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter %q", a.Type)
	}
}

func decodeAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") && c.String("listen") != "" {
		return cli.Exit("--tui is not supported with --listen", 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	g, err := resolveGrammar(c, cfg)
	if err != nil {
		return err
	}
	engine, err := decode.New(g)
	if err != nil {
		return err
	}
	opts, err := resolveDecodeOptions(c, cfg)
	if err != nil {
		return err
	}
	notifier, err := buildAdapter(opts.Adapter)
	if err != nil {
		return err
	}
	if notifier != nil {
		defer iox.DiscardClose(notifier)
	}

	logger := log.NewLogger(nil)
	if opts.Quiet {
		logger = log.Nop()
	}
	p := &streamPipeline{
		engine:  engine,
		opts:    opts,
		adapter: notifier,
		logger:  logger,
		stdout:  c.App.Writer,
	}

	if opts.Listen != "" {
		return listenAndDecode(c, p, r)
	}
	return decodeOne(c, p, r)
}

// decodeOne decodes --input or stdin and exits with the outcome's code.
func decodeOne(c *cli.Context, p *streamPipeline, r *render.Renderer) error {
	in, source, err := openInput(c, p.opts.Input)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(in)
	if p.opts.Source != "" {
		source = p.opts.Source
	}

	resp, err := p.run(c.Context, in, source, p.opts.StreamID)
	if err != nil {
		return err
	}

	// IPC frames own stdout; the summary moves to stderr.
	if p.opts.Sink.Kind == sinkIPC && p.opts.Sink.IPCOut == "-" {
		r = render.NewRendererWithWriter(r.Format(), c.App.ErrWriter)
	}
	if c.Bool("tui") {
		if err := r.RenderTUI(tui.ViewSummary, resp.Summary); err != nil {
			return err
		}
	} else if err := r.Render(resp); err != nil {
		return err
	}

	if code := ingest.ExitCode(resp.Status); code != ingest.ExitCodeCompleted {
		return cli.Exit("", code)
	}
	return nil
}

// listenAndDecode serves TCP connections until interrupted or --max-streams
// streams have been decoded.
func listenAndDecode(c *cli.Context, p *streamPipeline, r *render.Renderer) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(c.Context, "tcp", p.opts.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", p.opts.Listen, err)
	}
	p.logger.Info("listening", map[string]any{"addr": ln.Addr().String()})

	out := r
	if p.opts.Sink.Kind == sinkIPC && p.opts.Sink.IPCOut == "-" {
		out = render.NewRendererWithWriter(r.Format(), c.App.ErrWriter)
	}
	return serve(c.Context, ln, p, p.opts.MaxStreams, func(resp *DecodeResponse) {
		if err := out.Render(resp); err != nil {
			p.logger.Warn("render failed", map[string]any{"error": err.Error()})
		}
	})
}

// openInput opens path, or stdin when path is empty or "-".
func openInput(c *cli.Context, path string) (io.ReadCloser, string, error) {
	if path == "" || path == "-" {
		return io.NopCloser(c.App.Reader), "stdin", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open input: %w", err)
	}
	return f, path, nil
}

// finishTimeout bounds the post-stream writes: report, summary, result
// frame and notification.
const finishTimeout = 30 * time.Second

// finishContext detaches from cancellation so a canceled stream is still
// recorded.
func finishContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
}
