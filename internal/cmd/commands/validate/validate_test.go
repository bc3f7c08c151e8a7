package validate

import (
	"testing"

	"github.com/hashicorp-forge/hermes-export/internal/cmd/base"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, doc string, args ...string) (int, *cli.MockUi) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "doc.json", []byte(doc), 0o644))

	ui := cli.NewMockUi()
	c := &Command{Command: base.NewCommand(nil, ui), Fs: fs}
	return c.Run(append(args, "doc.json")), ui
}

func TestValidate_OK(t *testing.T) {
	code, ui := run(t, `{"type":"doc","content":[
	  {"type":"paragraph","content":[{"type":"image","attrs":{"src":"https://img/a.png"}}]}
	]}`)
	require.Equal(t, 0, code, ui.ErrorWriter.String())

	out := ui.OutputWriter.String()
	assert.Contains(t, out, "markdown: ok")
	assert.Contains(t, out, "json: ok")
	assert.Contains(t, out, "docx: ok")
	assert.Contains(t, out, "1 image(s) referenced")
}

func TestValidate_UnsupportedNode(t *testing.T) {
	code, ui := run(t, `{"type":"doc","content":[{"type":"mermaid"}]}`, "-format", "word")
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), "docx:")
	assert.Contains(t, ui.ErrorWriter.String(), "mermaid")
	assert.NotContains(t, ui.OutputWriter.String(), "markdown")
}

func TestValidate_Malformed(t *testing.T) {
	code, ui := run(t, `not json`)
	assert.Equal(t, 1, code)
	assert.Contains(t, ui.ErrorWriter.String(), "malformed document tree")
}
