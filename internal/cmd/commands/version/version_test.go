package version

import (
	"testing"

	"github.com/hashicorp-forge/hermes-export/internal/cmd/base"
	"github.com/hashicorp-forge/hermes-export/internal/version"
	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/assert"
)

func TestVersion(t *testing.T) {
	ui := cli.NewMockUi()
	c := &Command{Command: base.NewCommand(nil, ui)}

	assert.Equal(t, 0, c.Run(nil))
	assert.Equal(t, "hermes-export v"+version.Version+"\n", ui.OutputWriter.String())
}
