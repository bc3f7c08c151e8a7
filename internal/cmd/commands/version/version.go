package version

import (
	"github.com/hashicorp-forge/hermes-export/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-export/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return "Usage: hermes-export version"
}

func (c *Command) Run(args []string) int {
	c.UI.Output("hermes-export v" + version.Version)
	return 0
}
