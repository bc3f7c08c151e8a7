package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/hermes-export/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-export/internal/cmd/commands/exportdoc"
	"github.com/hashicorp-forge/hermes-export/internal/cmd/commands/validate"
	"github.com/hashicorp-forge/hermes-export/internal/cmd/commands/version"
)

// Commands is the mapping of all available hermes-export commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := base.NewCommand(log, ui)

	Commands = map[string]cli.CommandFactory{
		"export": func() (cli.Command, error) {
			return &exportdoc.Command{Command: b}, nil
		},
		"validate": func() (cli.Command, error) {
			return &validate.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
