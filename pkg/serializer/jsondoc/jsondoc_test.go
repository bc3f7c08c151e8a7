package jsondoc

import (
	"errors"
	"testing"

	"github.com/hashicorp-forge/hermes-export/pkg/doctree"
	"github.com/hashicorp-forge/hermes-export/pkg/exporterr"
	"github.com/hashicorp-forge/hermes-export/pkg/serializer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *doctree.Node {
	return doctree.Doc(
		doctree.Title("Report"),
		doctree.Heading(2, doctree.Text("Intro")),
		doctree.Paragraph(
			doctree.Text("Hello "),
			doctree.Text("world", doctree.M(doctree.MarkBold), doctree.Mark{
				Type:  doctree.MarkLink,
				Attrs: map[string]any{"href": "https://x/?a=1&b=<2>", "target": nil},
			}),
			&doctree.Node{Type: doctree.TypeHardBreak},
			&doctree.Node{Type: doctree.TypeKatex, Attrs: map[string]any{"text": `\frac{a}{b}`}},
		),
		&doctree.Node{Type: doctree.TypeOrderedList, Attrs: map[string]any{"start": 3}, Content: []*doctree.Node{
			{Type: doctree.TypeListItem, Content: []*doctree.Node{doctree.Paragraph(doctree.Text("one"))}},
		}},
		doctree.Paragraph(doctree.Image("https://x/y.png")),
	)
}

func TestSerialize_RoundTrip(t *testing.T) {
	tree := sampleTree()
	out, err := New().Serialize(serializer.Input{Root: tree})
	require.NoError(t, err)

	parsed, err := doctree.Parse(out)
	require.NoError(t, err)
	assert.True(t, doctree.Equal(tree, parsed))
	assert.NoError(t, doctree.Validate(parsed))
}

func TestSerialize_StripsTransientAttrs(t *testing.T) {
	tree := doctree.Doc(&doctree.Node{
		Type: doctree.TypeParagraph,
		Attrs: map[string]any{
			"textAlign": "center",
			"ychange":   map[string]any{"user": "u1"},
			"_internal": true,
		},
		Content: []*doctree.Node{{
			Type:  doctree.TypeText,
			Text:  "x",
			Marks: []doctree.Mark{{Type: doctree.MarkBold, Attrs: map[string]any{"cursor": 3}}},
		}},
	}, &doctree.Node{Type: doctree.TypeParagraph, Attrs: map[string]any{"selection": "all"}})

	out, err := New(WithIndent("")).Serialize(serializer.Input{Root: tree})
	require.NoError(t, err)
	assert.Equal(t,
		`{"content":[{"attrs":{"textAlign":"center"},"content":[{"marks":[{"type":"bold"}],"text":"x","type":"text"}],"type":"paragraph"},{"type":"paragraph"}],"type":"doc"}`+"\n",
		string(out))

	// The input tree is not modified.
	assert.Contains(t, tree.Content[0].Attrs, "ychange")
}

func TestSerialize_Deterministic(t *testing.T) {
	s := New()
	a, err := s.Serialize(serializer.Input{Root: sampleTree()})
	require.NoError(t, err)
	b, err := s.Serialize(serializer.Input{Root: sampleTree()})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, string(a), `"href": "https://x/?a=1&b=<2>"`)
}

func TestSerialize_Unsupported(t *testing.T) {
	_, err := New().Serialize(serializer.Input{Root: doctree.Doc(&doctree.Node{Type: "mermaid"})})
	require.Error(t, err)
	assert.True(t, errors.Is(err, exporterr.ErrUnsupportedNodeType))
}

func TestIsTransient(t *testing.T) {
	for key, want := range map[string]bool{
		"ychange":   true,
		"selection": true,
		"cursor":    true,
		"_id":       true,
		"level":     false,
		"src":       false,
	} {
		assert.Equal(t, want, IsTransient(key), key)
	}
}
