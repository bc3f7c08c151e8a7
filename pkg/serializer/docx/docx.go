// Package docx serializes document trees into WordprocessingML packages.
//
// Serialization runs in two phases. Resources reports every image URL the
// tree references so the caller can resolve them all at once; Serialize then
// builds the package in a single pass using only the resolved cache and
// never performs I/O of its own.
package docx

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/hashicorp-forge/hermes-export/pkg/doctree"
	"github.com/hashicorp-forge/hermes-export/pkg/exporterr"
	"github.com/hashicorp-forge/hermes-export/pkg/ooxml"
	"github.com/hashicorp-forge/hermes-export/pkg/serializer"
	"github.com/hashicorp/go-hclog"
)

// Format is the format name the serializer registers under.
const Format = "docx"

// markFunc applies a mark to the properties of the runs it covers.
type markFunc func(props *ooxml.RunProps, m doctree.Mark)

// Serializer renders document trees as .docx packages.
type Serializer struct {
	reg     *serializer.Registry[*state, markFunc]
	logger  hclog.Logger
	creator string
	style   *chroma.Style
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(s *Serializer) {
		s.logger = l
	}
}

// WithCreator sets the creator recorded in the package properties.
func WithCreator(name string) Option {
	return func(s *Serializer) {
		s.creator = name
	}
}

// WithHighlightStyle selects the chroma style used for code blocks.
func WithHighlightStyle(name string) Option {
	return func(s *Serializer) {
		s.style = highlightStyle(name)
	}
}

// New returns a docx serializer.
func New(opts ...Option) *Serializer {
	s := &Serializer{
		reg:     newRegistry(),
		logger:  hclog.NewNullLogger(),
		creator: "hermes-export",
		style:   highlightStyle(DefaultHighlightStyle),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named(Format)
	return s
}

// Format implements serializer.Serializer.
func (s *Serializer) Format() string {
	return Format
}

// Check implements serializer.Serializer.
func (s *Serializer) Check(root *doctree.Node) error {
	return s.reg.Check(root)
}

// Resources implements serializer.ResourceCollector.
func (s *Serializer) Resources(root *doctree.Node) []string {
	return doctree.ImageURLs(root)
}

// Serialize implements serializer.Serializer.
func (s *Serializer) Serialize(in serializer.Input) ([]byte, error) {
	if err := s.Check(in.Root); err != nil {
		return nil, err
	}

	pkg := ooxml.NewPackage(in.Created)
	pkg.Title = in.Title
	pkg.Creator = s.creator

	st := newState(s.reg, pkg, in.Resources, s.style, s.logger)
	if err := s.reg.Emit(st, in.Root, nil, 0); err != nil {
		return nil, err
	}

	data, err := pkg.Bytes()
	if err != nil {
		return nil, exporterr.Wrap("Serialize", exporterr.ErrPackageWriteFailure, err)
	}
	s.logger.Debug("package written", "bytes", len(data), "media", len(pkg.Media()))
	return data, nil
}

func newRegistry() *serializer.Registry[*state, markFunc] {
	r := serializer.NewRegistry[*state, markFunc](Format)

	r.Node(doctree.TypeDoc, func(s *state, n, _ *doctree.Node, _ int) error {
		return s.reg.EmitChildren(s, n)
	})
	r.Node(doctree.TypeTitle, func(s *state, n, _ *doctree.Node, _ int) error {
		return s.textblock(n, ooxml.StyleHeading1)
	})
	r.Node(doctree.TypeHeading, func(s *state, n, _ *doctree.Node, _ int) error {
		return s.textblock(n, ooxml.HeadingStyle(n.HeadingLevel()))
	})
	r.Node(doctree.TypeParagraph, func(s *state, n, _ *doctree.Node, _ int) error {
		return s.textblock(n, "")
	})
	r.Node(doctree.TypeBlockquote, func(s *state, n, _ *doctree.Node, _ int) error {
		s.quoteDepth++
		defer func() { s.quoteDepth-- }()
		return s.reg.EmitChildren(s, n)
	})
	r.Node(doctree.TypeBulletList, func(s *state, n, _ *doctree.Node, _ int) error {
		return s.list(n, listBullet)
	})
	r.Node(doctree.TypeOrderedList, func(s *state, n, _ *doctree.Node, _ int) error {
		return s.list(n, listOrdered)
	})
	r.Node(doctree.TypeTaskList, func(s *state, n, _ *doctree.Node, _ int) error {
		return s.list(n, listTask)
	})
	r.Node(doctree.TypeListItem, func(s *state, n, _ *doctree.Node, _ int) error {
		return s.mixed(n)
	})
	r.Node(doctree.TypeTaskItem, func(s *state, n, _ *doctree.Node, _ int) error {
		return s.mixed(n)
	})
	r.Node(doctree.TypeDocumentChildren, func(s *state, n, _ *doctree.Node, _ int) error {
		if len(n.Content) == 0 {
			return nil
		}
		return s.mixed(n)
	})
	r.Node(doctree.TypeTableOfContents, func(s *state, _, _ *doctree.Node, _ int) error {
		s.emit(&ooxml.Paragraph{
			Style:    ooxml.StyleTOCHead,
			Children: []ooxml.Inline{ooxml.TextRun("Contents", ooxml.RunProps{})},
		})
		s.emit(&ooxml.Paragraph{Children: []ooxml.Inline{&ooxml.Field{
			Instr:       `TOC \o "1-3" \h \z \u`,
			Placeholder: "Update this field to build the table of contents.",
		}}})
		return nil
	})
	r.Node(doctree.TypeHorizontalRule, func(s *state, _, _ *doctree.Node, _ int) error {
		s.emit(&ooxml.Paragraph{BorderBottom: true})
		s.emit(&ooxml.Paragraph{})
		return nil
	})
	r.Node(doctree.TypeCodeBlock, func(s *state, n, _ *doctree.Node, _ int) error {
		var attrs doctree.CodeBlockAttrs
		s.decodeAttrs(n, &attrs)

		p := s.paragraph(ooxml.StyleCode)
		for _, run := range highlight(s.style, attrs.Language, n.TextContent()) {
			p.Add(run)
		}
		return nil
	})
	r.Node(doctree.TypeHardBreak, func(s *state, _, _ *doctree.Node, _ int) error {
		s.inline(&ooxml.Run{Items: []ooxml.RunItem{ooxml.Break{}}})
		return nil
	})
	r.Node(doctree.TypeText, func(s *state, n, _ *doctree.Node, _ int) error {
		return s.text(n)
	})
	r.Node(doctree.TypeKatex, func(s *state, n, parent *doctree.Node, _ int) error {
		return s.katex(n, parent)
	})
	r.Node(doctree.TypeImage, func(s *state, n, _ *doctree.Node, _ int) error {
		var attrs doctree.ImageAttrs
		s.decodeAttrs(n, &attrs)

		img := s.media(attrs.Src)
		w, h := imageSize(attrs, img.width, img.height)
		descr := attrs.Alt
		if descr == "" {
			descr = attrs.Title
		}
		drawing := s.pkg.NewDrawing(img.media, descr, w, h)
		s.inline(&ooxml.Run{Items: []ooxml.RunItem{drawing}})
		return nil
	})
	r.Node(doctree.TypeTable, func(s *state, n, _ *doctree.Node, _ int) error {
		return s.table(n)
	})
	for _, t := range []doctree.NodeType{doctree.TypeTableRow, doctree.TypeTableHeader, doctree.TypeTableCell} {
		r.Node(t, func(s *state, n, _ *doctree.Node, _ int) error {
			return s.mixed(n)
		})
	}

	r.Mark(doctree.MarkBold, func(p *ooxml.RunProps, _ doctree.Mark) { p.Bold = true })
	r.Mark(doctree.MarkItalic, func(p *ooxml.RunProps, _ doctree.Mark) { p.Italic = true })
	r.Mark(doctree.MarkUnderline, func(p *ooxml.RunProps, _ doctree.Mark) { p.Underline = true })
	r.Mark(doctree.MarkStrike, func(p *ooxml.RunProps, _ doctree.Mark) { p.Strike = true })
	r.Mark(doctree.MarkCode, func(p *ooxml.RunProps, _ doctree.Mark) { p.Code = true })
	r.Mark(doctree.MarkSubscript, func(p *ooxml.RunProps, _ doctree.Mark) { p.VertAlign = "subscript" })
	r.Mark(doctree.MarkSuperscript, func(p *ooxml.RunProps, _ doctree.Mark) { p.VertAlign = "superscript" })
	r.Mark(doctree.MarkHighlight, func(p *ooxml.RunProps, _ doctree.Mark) { p.Highlight = "yellow" })
	// Links wrap runs in a hyperlink; see state.text.
	r.Mark(doctree.MarkLink, func(p *ooxml.RunProps, _ doctree.Mark) { p.Style = ooxml.StyleHyperlink })

	return r
}
