package doctree

import (
	"errors"
	"testing"

	"github.com/hashicorp-forge/hermes-export/pkg/exporterr"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabulary(t *testing.T) {
	vocab := Vocabulary()
	assert.Len(t, vocab, 22)
	assert.Contains(t, vocab, TypeKatex)

	// Callers get a copy.
	vocab[0] = "mutated"
	assert.Equal(t, TypeDoc, Vocabulary()[0])

	assert.True(t, TypeText.Inline())
	assert.True(t, TypeHorizontalRule.Atomic())
	assert.False(t, TypeHorizontalRule.Inline())
	assert.True(t, TypeCodeBlock.Textblock())
	assert.False(t, NodeType("mermaid").Known())
	assert.True(t, MarkHighlight.Known())
}

func TestValidate(t *testing.T) {
	shared := Text("shared")
	cyclic := Paragraph()
	cyclic.Content = []*Node{cyclic}

	tests := []struct {
		name       string
		root       *Node
		wantErr    bool
		violations int
		contains   string
	}{
		{
			name: "well formed",
			root: Doc(
				Title("Report"),
				Paragraph(Text("Hello "), Text("world", M(MarkBold))),
			),
		},
		{
			name:    "nil root",
			root:    nil,
			wantErr: true,
		},
		{
			name:       "wrong root type",
			root:       Paragraph(Text("x")),
			wantErr:    true,
			violations: 1,
			contains:   `root must be of type "doc"`,
		},
		{
			name:       "nested doc",
			root:       Doc(Doc()),
			wantErr:    true,
			violations: 1,
			contains:   "doc[0]: doc node is only allowed at the root",
		},
		{
			name: "marks on block node",
			root: Doc(&Node{
				Type:    TypeParagraph,
				Marks:   []Mark{M(MarkBold)},
				Content: []*Node{Text("x")},
			}),
			wantErr:    true,
			violations: 1,
			contains:   "marks are only allowed on inline nodes",
		},
		{
			name:       "empty text",
			root:       Doc(Paragraph(Text(""))),
			wantErr:    true,
			violations: 1,
			contains:   "doc/paragraph[0]/text[0]: text nodes cannot be empty",
		},
		{
			name: "atomic with content",
			root: Doc(&Node{
				Type:    TypeHorizontalRule,
				Content: []*Node{Text("x")},
			}),
			wantErr:    true,
			violations: 1,
			contains:   "horizontalRule nodes cannot have content",
		},
		{
			name:       "shared subtree",
			root:       Doc(Paragraph(shared), Paragraph(shared)),
			wantErr:    true,
			violations: 1,
			contains:   "node already appears at doc/paragraph[0]/text[0]",
		},
		{
			name:       "cycle",
			root:       Doc(cyclic),
			wantErr:    true,
			violations: 1,
		},
		{
			name:       "nil child",
			root:       Doc(Paragraph(nil)),
			wantErr:    true,
			violations: 1,
			contains:   "child is nil",
		},
		{
			name:       "multiple violations are all reported",
			root:       Doc(Paragraph(Text("")), Doc()),
			wantErr:    true,
			violations: 2,
		},
		{
			name: "unknown types are structurally fine",
			root: Doc(&Node{Type: "mermaid", Attrs: map[string]any{"code": "graph"}}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.root)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.True(t, IsWellFormed(tt.root))
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, exporterr.ErrMalformedTree))
			assert.False(t, IsWellFormed(tt.root))
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
			if tt.violations > 0 {
				var merr *multierror.Error
				require.True(t, errors.As(err, &merr))
				assert.Len(t, merr.Errors, tt.violations)
			}
		})
	}
}

func TestWalk(t *testing.T) {
	root := Doc(
		Title("T"),
		&Node{Type: TypeBulletList, Content: []*Node{
			{Type: TypeListItem, Content: []*Node{Paragraph(Text("a"))}},
		}},
	)

	var order []NodeType
	var depths []int
	err := Walk(root, func(n *Node, depth int, ancestors []*Node) error {
		order = append(order, n.Type)
		depths = append(depths, depth)
		assert.Len(t, ancestors, depth)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []NodeType{
		TypeDoc, TypeTitle, TypeText, TypeBulletList, TypeListItem, TypeParagraph, TypeText,
	}, order)
	assert.Equal(t, []int{0, 1, 2, 1, 2, 3, 4}, depths)
}

func TestWalk_SkipChildren(t *testing.T) {
	root := Doc(Paragraph(Text("a")), Paragraph(Text("b")))

	var texts []string
	err := Walk(root, func(n *Node, depth int, _ []*Node) error {
		if n.Type == TypeParagraph && n.TextContent() == "a" {
			return SkipChildren
		}
		if n.Type == TypeText {
			texts = append(texts, n.Text)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, texts)
}

func TestWalk_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Walk(Doc(Paragraph(), Paragraph()), func(n *Node, _ int, _ []*Node) error {
		calls++
		if n.Type == TypeParagraph {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestWalk_Cycle(t *testing.T) {
	p := Paragraph()
	p.Content = []*Node{p}
	calls := 0
	require.NoError(t, Walk(Doc(p), func(*Node, int, []*Node) error {
		calls++
		return nil
	}))
	assert.Equal(t, 2, calls)
}

func TestImageURLs(t *testing.T) {
	root := Doc(
		Paragraph(Image("https://x/a.png"), Image("https://x/b.png")),
		Paragraph(Image("https://x/a.png"), Image("")),
	)
	assert.Equal(t, []string{"https://x/a.png", "https://x/b.png"}, ImageURLs(root))
	assert.Empty(t, ImageURLs(Doc()))
}

func TestParse(t *testing.T) {
	root, err := ParseString(`{
		"type": "doc",
		"content": [
			{"type": "title", "content": [{"type": "text", "text": "Report"}]},
			{"type": "bullet_list", "content": [
				{"type": "list_item", "content": [
					{"type": "paragraph", "content": [
						{"type": "text", "text": "x", "marks": [{"type": "strong"}, {"type": "link", "attrs": {"href": "https://h"}}]}
					]}
				]}
			]},
			{"type": "heading", "attrs": {"level": 2}, "content": [{"type": "text", "text": "H"}]}
		]
	}`)
	require.NoError(t, err)
	require.NoError(t, Validate(root))

	assert.Equal(t, TypeBulletList, root.Content[1].Type)
	assert.Equal(t, TypeListItem, root.Content[1].Content[0].Type)

	text := root.Content[1].Content[0].Content[0].Content[0]
	assert.True(t, text.HasMark(MarkBold))
	assert.Equal(t, "https://h", text.Marks[1].StringAttr("href"))
	assert.Equal(t, 2, root.Content[2].HeadingLevel())
}

func TestParse_Envelope(t *testing.T) {
	root, err := ParseString(`{"default": {"type": "doc", "content": [{"type": "paragraph"}]}}`)
	require.NoError(t, err)
	assert.Equal(t, TypeDoc, root.Type)
	assert.Len(t, root.Content, 1)
}

func TestParse_KeepsUnknownTypes(t *testing.T) {
	root, err := ParseString(`{"type": "doc", "content": [{"type": "mermaid"}]}`)
	require.NoError(t, err)
	assert.Equal(t, NodeType("mermaid"), root.Content[0].Type)
}

func TestParse_Errors(t *testing.T) {
	for name, input := range map[string]string{
		"empty":         "",
		"invalid json":  "{not json",
		"missing type":  `{"content": []}`,
		"bad child":     `{"type": "doc", "content": ["x"]}`,
		"bad mark":      `{"type": "doc", "content": [{"type": "text", "text": "a", "marks": [1]}]}`,
		"untyped child": `{"type": "doc", "content": [{}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseString(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, exporterr.ErrMalformedTree))
		})
	}
}

func TestDecodeAttrs(t *testing.T) {
	n := &Node{Type: TypeImage, Attrs: map[string]any{
		"src":   "https://x/a.png",
		"width": float64(320),
		"alt":   "chart",
	}}

	var attrs ImageAttrs
	require.NoError(t, n.DecodeAttrs(&attrs))
	assert.Equal(t, "https://x/a.png", attrs.Src)
	assert.Equal(t, "320", attrs.Width)
	assert.Equal(t, "chart", attrs.Alt)

	var list OrderedListAttrs
	require.NoError(t, (&Node{Attrs: map[string]any{"start": "3"}}).DecodeAttrs(&list))
	assert.Equal(t, 3, list.Start)

	assert.Equal(t, 1, (&Node{Type: TypeOrderedList}).ListStart())
	assert.Equal(t, 6, Heading(9).HeadingLevel())
	assert.Equal(t, 1, Heading(0).HeadingLevel())
}

func TestPixels(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"320", 320, true},
		{"320px", 320, true},
		{" 12.5 ", 12.5, true},
		{"50%", 0, false},
		{"", 0, false},
		{"auto", 0, false},
		{"-4", 0, false},
	}
	for _, tt := range tests {
		got, ok := Pixels(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestEqualAndClone(t *testing.T) {
	a := Doc(Heading(2, Text("H", Mark{Type: MarkLink, Attrs: map[string]any{"href": "u"}})))
	b, err := ParseString(`{"type":"doc","content":[{"type":"heading","attrs":{"level":2},"content":[{"type":"text","text":"H","marks":[{"type":"link","attrs":{"href":"u"}}]}]}]}`)
	require.NoError(t, err)
	assert.True(t, Equal(a, b))

	c := Clone(a)
	assert.True(t, Equal(a, c))
	c.Content[0].Attrs["level"] = 3
	assert.False(t, Equal(a, c))
	assert.Equal(t, 2, a.Content[0].HeadingLevel())

	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(a, nil))
}

func TestFirstOfType(t *testing.T) {
	root := Doc(Paragraph(Text("a")), Title("Report"))
	title := FirstOfType(root, TypeTitle)
	require.NotNil(t, title)
	assert.Equal(t, "Report", title.TextContent())
	assert.Nil(t, FirstOfType(root, TypeTable))
}
