package exportdoc

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hashicorp-forge/hermes-export/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-export/internal/config"
	"github.com/hashicorp-forge/hermes-export/pkg/doctree"
	"github.com/hashicorp-forge/hermes-export/pkg/export"
	"github.com/spf13/afero"
)

type Command struct {
	*base.Command

	// Fs is where documents, configuration and file output live.
	Fs afero.Fs

	// Stdin is read when the document argument is "-".
	Stdin io.Reader

	// Stdout receives the raw artifact with -stdout.
	Stdout io.Writer

	// NewS3Client creates the S3 client when an s3 block is configured.
	NewS3Client S3ClientFactory

	flagConfig string
	flagFormat string
	flagTitle  string
	flagOutput string
	flagStdout bool
}

func (c *Command) Synopsis() string {
	return "Export a document to Markdown, JSON or docx"
}

func (c *Command) Help() string {
	return `Usage: hermes-export export [options] <document.json>

  This command converts an editor document into the requested format and
  delivers the result to the configured output. Use "-" to read the
  document from standard input.

  Images that cannot be fetched are replaced by a placeholder; the export
  still succeeds and lists them as degraded.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("export", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to an HCL configuration file",
	)
	f.StringVar(
		&c.flagFormat, "format", string(export.FormatDocx),
		fmt.Sprintf("Output format (%s)", formatList()),
	)
	f.StringVar(
		&c.flagTitle, "title", "",
		"Document title; defaults to the document's title node",
	)
	f.StringVar(
		&c.flagOutput, "output", "",
		"Output directory, overriding the configuration",
	)
	f.BoolVar(
		&c.flagStdout, "stdout", false,
		"Write the artifact to standard output instead of delivering it",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	args = f.Args()
	if len(args) != 1 {
		c.UI.Error("expected exactly one document argument")
		c.UI.Error(c.Help())
		return 1
	}
	if c.Fs == nil {
		c.Fs = afero.NewOsFs()
	}
	if c.NewS3Client == nil {
		c.NewS3Client = defaultS3Client
	}

	cfg, err := c.loadConfig()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	c.Log.SetLevel(cfg.Level())

	tree, err := c.readDocument(args[0])
	if err != nil {
		c.UI.Error(fmt.Sprintf("error reading document: %v", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var s3Client S3Client
	if cfg.S3 != nil {
		s3Client, err = c.NewS3Client(ctx, cfg.S3)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error creating S3 client: %v", err))
			return 1
		}
	}

	exporter := newExporter(cfg, newFetcher(cfg, s3Client, c.Log), c.Log)
	artifact, err := exporter.Export(ctx, export.Request{
		Tree:   tree,
		Format: export.Format(c.flagFormat),
		Title:  c.flagTitle,
	})
	if err != nil {
		c.UI.Error(fmt.Sprintf("export failed: %v", err))
		return 1
	}
	for _, url := range artifact.Degraded {
		c.UI.Warn(fmt.Sprintf("resource unavailable, replaced by placeholder: %s", url))
	}

	if c.flagStdout {
		if c.Stdout == nil {
			c.Stdout = os.Stdout
		}
		if _, err := c.Stdout.Write(artifact.Payload); err != nil {
			c.UI.Error(fmt.Sprintf("error writing artifact: %v", err))
			return 1
		}
		return 0
	}

	sink, err := newSink(cfg, c.Fs, c.flagOutput, s3Client, c.Log)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	location, err := sink.Deliver(ctx, artifact)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error delivering artifact: %v", err))
		return 1
	}

	c.UI.Info(fmt.Sprintf("Exported %s (%d bytes)", location, len(artifact.Payload)))
	return 0
}

func (c *Command) loadConfig() (*config.Config, error) {
	if c.flagConfig == "" {
		return config.Default(), nil
	}
	src, err := afero.ReadFile(c.Fs, c.flagConfig)
	if err != nil {
		return nil, fmt.Errorf("error reading configuration: %w", err)
	}
	return config.Decode(c.flagConfig, src)
}

func (c *Command) readDocument(path string) (*doctree.Node, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		if c.Stdin == nil {
			c.Stdin = os.Stdin
		}
		data, err = io.ReadAll(c.Stdin)
	} else {
		data, err = afero.ReadFile(c.Fs, path)
	}
	if err != nil {
		return nil, err
	}
	return doctree.Parse(data)
}

func formatList() string {
	names := make([]string, 0, len(export.Formats()))
	for _, f := range export.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}
