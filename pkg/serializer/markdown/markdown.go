// Package markdown serializes document trees into CommonMark with the GFM
// table, strikethrough and task list extensions.
package markdown

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp-forge/hermes-export/pkg/doctree"
	"github.com/hashicorp-forge/hermes-export/pkg/exporterr"
	"github.com/hashicorp-forge/hermes-export/pkg/serializer"
	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"
)

// Format is the format name the serializer registers under.
const Format = "markdown"

// Serializer renders document trees as Markdown.
type Serializer struct {
	reg         *serializer.Registry[*state, markSpec]
	logger      hclog.Logger
	frontMatter bool
	generator   string
	looseLists  bool
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(s *Serializer) {
		s.logger = l
	}
}

// WithFrontMatter prepends a YAML front matter block with the document title,
// schema version, export time and generator.
func WithFrontMatter(generator string) Option {
	return func(s *Serializer) {
		s.frontMatter = true
		s.generator = generator
	}
}

// WithLooseLists separates list items with blank lines.
func WithLooseLists() Option {
	return func(s *Serializer) {
		s.looseLists = true
	}
}

// New returns a Markdown serializer.
func New(opts ...Option) *Serializer {
	s := &Serializer{
		reg:    newRegistry(),
		logger: hclog.NewNullLogger(),
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

// Serialize implements serializer.Serializer.
func (s *Serializer) Serialize(in serializer.Input) ([]byte, error) {
	if err := s.Check(in.Root); err != nil {
		return nil, err
	}

	st := newState(s.reg, !s.looseLists, s.logger)
	if err := st.render(in.Root, nil, 0); err != nil {
		return nil, err
	}

	body := strings.TrimRight(st.out.String(), "\n")
	if body != "" {
		body += "\n"
	}

	var buf bytes.Buffer
	if s.frontMatter {
		if err := s.writeFrontMatter(&buf, in); err != nil {
			return nil, exporterr.Wrap("Serialize", exporterr.ErrPackageWriteFailure, err)
		}
	}
	buf.WriteString(body)

	s.logger.Debug("document serialized", "bytes", buf.Len())
	return buf.Bytes(), nil
}

type frontMatter struct {
	Title     string `yaml:"title"`
	Schema    int    `yaml:"schema"`
	Exported  string `yaml:"exported,omitempty"`
	Generator string `yaml:"generator,omitempty"`
}

func (s *Serializer) writeFrontMatter(buf *bytes.Buffer, in serializer.Input) error {
	fm := frontMatter{
		Title:     in.Title,
		Schema:    doctree.SchemaVersion,
		Generator: s.generator,
	}
	if !in.Created.IsZero() {
		fm.Exported = in.Created.UTC().Format(time.RFC3339)
	}

	data, err := yaml.Marshal(fm)
	if err != nil {
		return fmt.Errorf("error encoding front matter: %w", err)
	}
	buf.WriteString("---\n")
	buf.Write(data)
	buf.WriteString("---\n\n")
	return nil
}

func newRegistry() *serializer.Registry[*state, markSpec] {
	r := serializer.NewRegistry[*state, markSpec](Format)

	r.Node(doctree.TypeDoc, func(s *state, n, _ *doctree.Node, _ int) error {
		return s.renderContent(n)
	})
	r.Node(doctree.TypeTitle, func(s *state, n, _ *doctree.Node, _ int) error {
		s.write("# ")
		if err := s.renderInline(n); err != nil {
			return err
		}
		s.closeBlock(n)
		return nil
	})
	r.Node(doctree.TypeHeading, func(s *state, n, _ *doctree.Node, _ int) error {
		s.write(repeat("#", n.HeadingLevel()) + " ")
		if err := s.renderInline(n); err != nil {
			return err
		}
		s.closeBlock(n)
		return nil
	})
	r.Node(doctree.TypeParagraph, func(s *state, n, _ *doctree.Node, _ int) error {
		if err := s.renderInline(n); err != nil {
			return err
		}
		s.closeBlock(n)
		return nil
	})
	r.Node(doctree.TypeBlockquote, func(s *state, n, _ *doctree.Node, _ int) error {
		return s.wrapBlock("> ", "", n, func() error {
			return s.renderContent(n)
		})
	})
	r.Node(doctree.TypeBulletList, func(s *state, n, _ *doctree.Node, _ int) error {
		return s.renderList(n, "  ", func(int) string { return "- " })
	})
	r.Node(doctree.TypeOrderedList, func(s *state, n, _ *doctree.Node, _ int) error {
		start := n.ListStart()
		width := len(strconv.Itoa(start + len(n.Content) - 1))
		return s.renderList(n, repeat(" ", width+2), func(i int) string {
			num := strconv.Itoa(start + i)
			return repeat(" ", width-len(num)) + num + ". "
		})
	})
	r.Node(doctree.TypeListItem, func(s *state, n, _ *doctree.Node, _ int) error {
		return s.renderMixed(n)
	})
	r.Node(doctree.TypeTaskList, func(s *state, n, _ *doctree.Node, _ int) error {
		return s.renderList(n, "  ", func(i int) string {
			var attrs doctree.TaskItemAttrs
			s.decodeAttrs(n.Content[i], &attrs)
			if attrs.Checked {
				return "- [x] "
			}
			return "- [ ] "
		})
	})
	r.Node(doctree.TypeTaskItem, func(s *state, n, _ *doctree.Node, _ int) error {
		return s.renderMixed(n)
	})
	r.Node(doctree.TypeTableOfContents, func(s *state, n, _ *doctree.Node, _ int) error {
		s.write("[TOC]")
		s.closeBlock(n)
		return nil
	})
	r.Node(doctree.TypeDocumentChildren, func(s *state, n, _ *doctree.Node, _ int) error {
		if len(n.Content) == 0 {
			return nil
		}
		return s.renderMixed(n)
	})
	r.Node(doctree.TypeHorizontalRule, func(s *state, n, _ *doctree.Node, _ int) error {
		s.write("---")
		s.closeBlock(n)
		return nil
	})
	r.Node(doctree.TypeCodeBlock, renderCodeBlock)
	r.Node(doctree.TypeHardBreak, func(s *state, n, parent *doctree.Node, index int) error {
		if parent == nil {
			return nil
		}
		// A trailing break would be dropped by any Markdown reader.
		for _, sibling := range parent.Content[index+1:] {
			if sibling.Type != doctree.TypeHardBreak {
				s.write("\\\n")
				return nil
			}
		}
		return nil
	})
	r.Node(doctree.TypeKatex, renderKatex)
	r.Node(doctree.TypeText, func(s *state, n, _ *doctree.Node, _ int) error {
		s.text(n.Text, true)
		return nil
	})
	r.Node(doctree.TypeImage, func(s *state, n, parent *doctree.Node, _ int) error {
		var attrs doctree.ImageAttrs
		s.decodeAttrs(n, &attrs)
		src := strings.NewReplacer("(", `\(`, ")", `\)`, " ", "%20").Replace(attrs.Src)
		title := ""
		if attrs.Title != "" {
			title = ` "` + strings.ReplaceAll(attrs.Title, `"`, `\"`) + `"`
		}
		s.write("![" + esc(attrs.Alt, false) + "](" + src + title + ")")
		if parent == nil || !parent.Type.Textblock() {
			s.closeBlock(n)
		}
		return nil
	})
	r.Node(doctree.TypeTable, renderTable)
	for _, t := range []doctree.NodeType{doctree.TypeTableRow, doctree.TypeTableHeader, doctree.TypeTableCell} {
		r.Node(t, func(s *state, n, _ *doctree.Node, _ int) error {
			return s.renderMixed(n)
		})
	}

	r.Mark(doctree.MarkLink, markSpec{rank: 0, open: linkOpen, close: linkClose})
	r.Mark(doctree.MarkBold, delimited(1, "**", "**"))
	r.Mark(doctree.MarkItalic, delimited(2, "*", "*"))
	r.Mark(doctree.MarkStrike, delimited(3, "~~", "~~"))
	r.Mark(doctree.MarkUnderline, delimited(4, "<u>", "</u>"))
	r.Mark(doctree.MarkHighlight, delimited(5, "==", "=="))
	r.Mark(doctree.MarkSubscript, delimited(6, "<sub>", "</sub>"))
	r.Mark(doctree.MarkSuperscript, delimited(7, "<sup>", "</sup>"))
	code := delimited(8, "`", "`")
	code.code = true
	r.Mark(doctree.MarkCode, code)

	return r
}

// renderMixed renders containers that hold either inline content directly
// (as the editor stores some task items) or blocks.
func (s *state) renderMixed(n *doctree.Node) error {
	if len(n.Content) > 0 && n.Content[0].Type.Inline() {
		if err := s.renderInline(n); err != nil {
			return err
		}
		s.closeBlock(n)
		return nil
	}
	return s.renderContent(n)
}

func renderCodeBlock(s *state, n, _ *doctree.Node, _ int) error {
	var attrs doctree.CodeBlockAttrs
	s.decodeAttrs(n, &attrs)

	code := n.TextContent()
	longest, run := 0, 0
	for _, r := range code {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	fence := repeat("`", max(3, longest+1))

	s.write(fence + attrs.Language)
	s.out.WriteByte('\n')
	if code != "" {
		s.text(code, false)
		s.ensureNewLine()
	}
	s.write(fence)
	s.closeBlock(n)
	return nil
}

func renderKatex(s *state, n, parent *doctree.Node, _ int) error {
	var attrs doctree.KatexAttrs
	s.decodeAttrs(n, &attrs)
	expr := strings.TrimSpace(attrs.Text)

	if s.inline || (parent != nil && parent.Type.Textblock()) {
		s.write("$" + expr + "$")
		return nil
	}

	s.write("$$")
	s.out.WriteByte('\n')
	if expr != "" {
		s.text(expr, false)
		s.ensureNewLine()
	}
	s.write("$$")
	s.closeBlock(n)
	return nil
}

// renderTable writes a GFM pipe table. The first row is the header row;
// spanned cells are padded with empty cells.
func renderTable(s *state, n, _ *doctree.Node, _ int) error {
	var rows [][]string
	cols := 0
	for _, row := range n.Content {
		var cells []string
		for _, cell := range row.Content {
			text, err := s.renderCell(cell)
			if err != nil {
				return err
			}
			cells = append(cells, text)

			var attrs doctree.CellAttrs
			s.decodeAttrs(cell, &attrs)
			for k := 1; k < attrs.Colspan; k++ {
				cells = append(cells, "")
			}
		}
		rows = append(rows, cells)
		cols = max(cols, len(cells))
	}
	if cols == 0 {
		return nil
	}

	line := func(cells []string) string {
		padded := make([]string, cols)
		copy(padded, cells)
		return "| " + strings.Join(padded, " | ") + " |"
	}

	sep := make([]string, cols)
	for i := range sep {
		sep[i] = "---"
	}

	s.write(line(rows[0]))
	s.out.WriteByte('\n')
	s.write(line(sep))
	for _, cells := range rows[1:] {
		s.out.WriteByte('\n')
		s.write(line(cells))
	}
	s.closeBlock(n)
	return nil
}

var cellBreaks = strings.NewReplacer("\\\n", "<br>", "\n\n", "<br>", "\n", "<br>", "|", `\|`)

func (s *state) renderCell(cell *doctree.Node) (string, error) {
	sub := newState(s.reg, true, s.logger)
	if err := sub.renderMixed(cell); err != nil {
		return "", err
	}
	return cellBreaks.Replace(strings.TrimSpace(sub.out.String())), nil
}
