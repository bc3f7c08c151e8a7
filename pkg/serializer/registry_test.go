package serializer

import (
	"errors"
	"strings"
	"testing"

	"github.com/hashicorp-forge/hermes-export/pkg/doctree"
	"github.com/hashicorp-forge/hermes-export/pkg/exporterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type textState struct {
	sb strings.Builder
}

func newTextRegistry() *Registry[*textState, string] {
	r := NewRegistry[*textState, string]("text")
	r.Node(doctree.TypeDoc, func(s *textState, n, _ *doctree.Node, _ int) error {
		return r.EmitChildren(s, n)
	})
	r.Node(doctree.TypeParagraph, func(s *textState, n, _ *doctree.Node, i int) error {
		if i > 0 {
			s.sb.WriteString("\n")
		}
		return r.EmitChildren(s, n)
	})
	r.Node(doctree.TypeText, func(s *textState, n, _ *doctree.Node, _ int) error {
		text := n.Text
		for _, m := range n.Marks {
			delim, err := r.MarkFor(m.Type)
			if err != nil {
				return err
			}
			text = delim + text + delim
		}
		s.sb.WriteString(text)
		return nil
	})
	r.Mark(doctree.MarkBold, "*")
	return r
}

func TestRegistry_Emit(t *testing.T) {
	r := newTextRegistry()
	assert.Equal(t, "text", r.Format())

	root := doctree.Doc(
		doctree.Paragraph(doctree.Text("a "), doctree.Text("b", doctree.M(doctree.MarkBold))),
		doctree.Paragraph(doctree.Text("c")),
	)
	require.NoError(t, r.Check(root))

	s := &textState{}
	require.NoError(t, r.Emit(s, root, nil, 0))
	assert.Equal(t, "a *b*\nc", s.sb.String())
}

func TestRegistry_UnsupportedNode(t *testing.T) {
	r := newTextRegistry()
	root := doctree.Doc(doctree.Paragraph(doctree.Text("a")), &doctree.Node{Type: doctree.TypeHorizontalRule})

	err := r.Check(root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, exporterr.ErrUnsupportedNodeType))
	assert.True(t, IsUnsupported(err))

	var typed *exporterr.UnsupportedTypeError
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, "horizontalRule", typed.Type)
	assert.Equal(t, "text", typed.Format)

	err = r.Emit(&textState{}, root, nil, 0)
	assert.True(t, IsUnsupported(err))
}

func TestRegistry_UnsupportedMark(t *testing.T) {
	r := newTextRegistry()
	root := doctree.Doc(doctree.Paragraph(doctree.Text("a", doctree.M(doctree.MarkItalic))))

	err := r.Check(root)
	var typed *exporterr.UnsupportedTypeError
	require.True(t, errors.As(err, &typed))
	assert.True(t, typed.Mark)
	assert.Equal(t, "italic", typed.Type)

	_, err = r.MarkFor(doctree.MarkItalic)
	assert.True(t, IsUnsupported(err))
}

func TestRegistry_Clone(t *testing.T) {
	r := newTextRegistry()
	ext := r.Clone()
	ext.Node(doctree.TypeHorizontalRule, func(s *textState, _, _ *doctree.Node, _ int) error {
		s.sb.WriteString("---")
		return nil
	})
	ext.Mark(doctree.MarkItalic, "_")

	assert.True(t, ext.HasNode(doctree.TypeHorizontalRule))
	assert.False(t, r.HasNode(doctree.TypeHorizontalRule))
	assert.True(t, ext.HasMark(doctree.MarkItalic))
	assert.False(t, r.HasMark(doctree.MarkItalic))
	assert.True(t, ext.HasNode(doctree.TypeParagraph))
}
