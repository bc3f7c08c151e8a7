package validate

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/hermes-export/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-export/pkg/doctree"
	"github.com/hashicorp-forge/hermes-export/pkg/export"
	"github.com/spf13/afero"
)

type Command struct {
	*base.Command

	// Fs is where documents are read from.
	Fs afero.Fs

	flagFormat string
}

func (c *Command) Synopsis() string {
	return "Check that a document can be exported"
}

func (c *Command) Help() string {
	return `Usage: hermes-export validate [options] <document.json>

  This command parses a document and checks that it is well formed and that
  every node and mark in it can be represented in each export format,
  without fetching resources or writing output.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("validate", flag.ContinueOnError))

	f.StringVar(
		&c.flagFormat, "format", "",
		"Only check this format; all formats are checked by default",
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
		return 1
	}
	if c.Fs == nil {
		c.Fs = afero.NewOsFs()
	}

	data, err := afero.ReadFile(c.Fs, args[0])
	if err != nil {
		c.UI.Error(fmt.Sprintf("error reading document: %v", err))
		return 1
	}
	tree, err := doctree.Parse(data)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	formats := export.Formats()
	if c.flagFormat != "" {
		formats = []export.Format{export.Canonical(export.Format(c.flagFormat))}
	}

	exporter := export.New(export.WithLogger(c.Log))
	failed := false
	for _, format := range formats {
		if err := exporter.Check(tree, format); err != nil {
			c.UI.Error(fmt.Sprintf("%s: %v", format, err))
			failed = true
			continue
		}
		c.UI.Output(fmt.Sprintf("%s: ok", format))
	}
	if failed {
		return 1
	}

	c.UI.Info(fmt.Sprintf("%d image(s) referenced", len(doctree.ImageURLs(tree))))
	return 0
}
