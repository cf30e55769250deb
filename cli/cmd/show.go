package cmd

import (
	"errors"
	"fmt"

	"github.com/justapithecus/lode/lode"
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/hdrframe/cli/reader"
	"github.com/justapithecus/hdrframe/cli/render"
	"github.com/justapithecus/hdrframe/cli/tui"
	hdrlode "github.com/justapithecus/hdrframe/lode"
)

// ShowCommand returns the show command.
func ShowCommand() *cli.Command {
	flags := append(OutputFlags(),
		&cli.StringFlag{
			Name:     "stream-id",
			Usage:    "Stream ID to show",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "Restrict the summary lookup to this source partition",
		},
		&cli.StringFlag{
			Name:  "lode-backend",
			Usage: "Lode storage backend: fs, s3",
			Value: backendFS,
		},
		&cli.StringFlag{
			Name:     "lode-path",
			Usage:    "Lode root directory (fs) or bucket/prefix (s3)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "lode-dataset",
			Usage: "Lode dataset ID",
			Value: hdrlode.DefaultDataset,
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
	)
	return &cli.Command{
		Name:   "show",
		Usage:  "Show a persisted stream's messages and summary (read-only)",
		Flags:  flags,
		Action: showAction,
	}
}

func showAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	ds, err := openReadDataset(c)
	if err != nil {
		return err
	}
	resp, err := reader.Show(c.Context, reader.NewLodeReader(ds), c.String("stream-id"), c.String("source"))
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		if resp.Summary == nil {
			return cli.Exit(fmt.Sprintf("stream %s has no summary yet", resp.StreamID), 1)
		}
		return r.RenderTUI(tui.ViewSummary, resp.Summary)
	}
	return r.Render(resp)
}

func openReadDataset(c *cli.Context) (lode.Dataset, error) {
	dataset := c.String("lode-dataset")
	switch c.String("lode-backend") {
	case backendFS:
		return hdrlode.NewReadDatasetFS(dataset, c.String("lode-path"))
	case backendS3:
		bucket, prefix := hdrlode.ParseS3Path(c.String("lode-path"))
		return hdrlode.NewReadDatasetS3(c.Context, dataset, hdrlode.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       c.String("lode-s3-region"),
			Endpoint:     c.String("lode-s3-endpoint"),
			UsePathStyle: c.Bool("lode-s3-path-style"),
		})
	default:
		return nil, errors.New("invalid --lode-backend: must be fs or s3")
	}
}
