package docx

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/hashicorp-forge/hermes-export/pkg/doctree"
	"github.com/hashicorp-forge/hermes-export/pkg/serializer"
	"github.com/hashicorp-forge/hermes-export/pkg/ooxml"
	"github.com/hashicorp-forge/hermes-export/pkg/resource"
	"github.com/hashicorp/go-hclog"
)

const (
	indentStepTwips = 720
	checkedGlyph    = "☑ "
	uncheckedGlyph  = "☐ "
)

type listKind int

const (
	listBullet listKind = iota
	listOrdered
	listTask
)

// listItem is the list context of the item being emitted.
type listItem struct {
	numID   int
	level   int
	task    bool
	checked bool

	// first is set until the item's first paragraph carries the marker.
	first bool
}

type state struct {
	reg       *serializer.Registry[*state, markFunc]
	pkg       *ooxml.Package
	resources resource.Lookup
	style     *chroma.Style
	logger    hclog.Logger

	// sink receives emitted blocks: the body, or a table cell.
	sink *[]ooxml.Block

	// para receives inline content while a textblock is open.
	para *ooxml.Paragraph

	quoteDepth int
	listDepth  int
	item       *listItem

	images map[string]embeddedImage
}

func newState(reg *serializer.Registry[*state, markFunc], pkg *ooxml.Package, res resource.Lookup, style *chroma.Style, logger hclog.Logger) *state {
	return &state{
		reg:       reg,
		pkg:       pkg,
		resources: res,
		style:     style,
		logger:    logger,
		sink:      &pkg.Body,
		images:    make(map[string]embeddedImage),
	}
}

// decodeAttrs decodes the attributes of n into out. Attributes that do not
// decode leave out at its zero value.
func (s *state) decodeAttrs(n *doctree.Node, out any) {
	if err := n.DecodeAttrs(out); err != nil {
		s.logger.Debug("ignoring malformed attributes", "type", n.Type, "error", err)
	}
}

func (s *state) emit(b ooxml.Block) {
	*s.sink = append(*s.sink, b)
}

// paragraph emits a new paragraph carrying the current quote and list
// context. The first paragraph of a list item carries its marker.
func (s *state) paragraph(style string) *ooxml.Paragraph {
	p := &ooxml.Paragraph{Style: style}

	if s.quoteDepth > 0 {
		if p.Style == "" {
			p.Style = ooxml.StyleQuote
		}
		p.IndentTwips = s.quoteDepth * indentStepTwips
	}

	if it := s.item; it != nil {
		indent := (it.level + 1) * indentStepTwips
		switch {
		case it.first && !it.task:
			if p.Style == "" {
				p.Style = ooxml.StyleListPara
			}
			p.List = &ooxml.ListRef{NumID: it.numID, Level: min(it.level, ooxml.MaxListLevel)}
		case it.first && it.task:
			glyph := uncheckedGlyph
			if it.checked {
				glyph = checkedGlyph
			}
			p.IndentTwips += indent
			p.Add(ooxml.TextRun(glyph, ooxml.RunProps{}))
		default:
			p.IndentTwips += indent
		}
		it.first = false
	}

	s.emit(p)
	return p
}

// textblock emits n as one paragraph holding its inline content.
func (s *state) textblock(n *doctree.Node, style string) error {
	p := s.paragraph(style)
	prev := s.para
	s.para = p
	defer func() { s.para = prev }()
	return s.reg.EmitChildren(s, n)
}

// mixed emits containers that hold either inline content directly or blocks.
func (s *state) mixed(n *doctree.Node) error {
	if len(n.Content) > 0 && n.Content[0].Type.Inline() {
		return s.textblock(n, "")
	}
	return s.reg.EmitChildren(s, n)
}

// inline appends to the open paragraph, or to a new one when inline content
// appears at block level.
func (s *state) inline(in ooxml.Inline) {
	if s.para != nil {
		s.para.Add(in)
		return
	}
	s.paragraph("").Add(in)
}

func (s *state) list(n *doctree.Node, kind listKind) error {
	level := s.listDepth
	numID := 0
	if kind != listTask {
		numID = s.pkg.NewList(kind == listOrdered, level, n.ListStart())
	}

	prev := s.item
	s.listDepth++
	defer func() {
		s.item = prev
		s.listDepth--
	}()

	for i, child := range n.Content {
		it := &listItem{numID: numID, level: level, task: kind == listTask, first: true}
		if it.task {
			var attrs doctree.TaskItemAttrs
			s.decodeAttrs(child, &attrs)
			it.checked = attrs.Checked
		}
		s.item = it
		if err := s.reg.Emit(s, child, n, i); err != nil {
			return err
		}
	}
	return nil
}

// text emits a text node as a run. Linked text is wrapped in a hyperlink;
// consecutive runs with the same target share one.
func (s *state) text(n *doctree.Node) error {
	var props ooxml.RunProps
	href := ""
	for _, m := range n.Marks {
		apply, err := s.reg.MarkFor(m.Type)
		if err != nil {
			return err
		}
		apply(&props, m)
		if m.Type == doctree.MarkLink {
			var attrs doctree.LinkAttrs
			if err := m.DecodeAttrs(&attrs); err != nil {
				s.logger.Debug("ignoring malformed attributes", "mark", m.Type, "error", err)
			}
			href = strings.TrimSpace(attrs.Href)
		}
	}

	run := ooxml.TextRun(n.Text, props)
	if href == "" {
		s.inline(run)
		return nil
	}

	relID := s.pkg.AddHyperlink(href)
	if s.para != nil && len(s.para.Children) > 0 {
		if h, ok := s.para.Children[len(s.para.Children)-1].(*ooxml.Hyperlink); ok && h.RelID == relID {
			h.Runs = append(h.Runs, run)
			return nil
		}
	}
	s.inline(&ooxml.Hyperlink{RelID: relID, Runs: []*ooxml.Run{run}})
	return nil
}

// katex emits math as Office Math. Source that cannot be parsed is kept as
// plain text so nothing is lost.
func (s *state) katex(n, parent *doctree.Node) error {
	var attrs doctree.KatexAttrs
	s.decodeAttrs(n, &attrs)
	src := strings.TrimSpace(attrs.Text)

	display := parent == nil || !parent.Type.Textblock()
	elems, err := parseLaTeX(src)
	if err != nil {
		s.logger.Warn("unable to convert math, keeping source", "error", err)
		elems = []ooxml.MathElem{ooxml.MText{Text: src, Plain: true}}
	}

	m := &ooxml.Math{Display: display, Elems: elems}
	if display && s.para == nil {
		p := s.paragraph("")
		p.Align = "center"
		p.Add(m)
		return nil
	}
	s.inline(m)
	return nil
}

// table emits n as a w:tbl. Column widths come from the first row's
// colwidth attributes when every column has one, else the text width is
// split evenly.
func (s *state) table(n *doctree.Node) error {
	cols := 0
	var widths []int
	complete := true
	for i, row := range n.Content {
		rowCols := 0
		for _, cell := range row.Content {
			var attrs doctree.CellAttrs
			s.decodeAttrs(cell, &attrs)
			span := max(attrs.Colspan, 1)
			rowCols += span
			if i == 0 {
				complete = complete && len(attrs.Colwidth) == span
				widths = append(widths, attrs.Colwidth...)
			}
		}
		cols = max(cols, rowCols)
	}
	if cols == 0 {
		return nil
	}

	grid := make([]int, cols)
	if complete && len(widths) == cols && allPositive(widths) {
		for i, px := range widths {
			grid[i] = px * 15
		}
	} else {
		for i := range grid {
			grid[i] = ooxml.TextWidthTwips / cols
		}
	}

	tbl := &ooxml.Table{Grid: grid}

	// Cells start from a clean context; list and quote state does not leak
	// into them.
	prevSink, prevItem, prevQuote, prevDepth := s.sink, s.item, s.quoteDepth, s.listDepth
	s.item, s.quoteDepth, s.listDepth = nil, 0, 0
	defer func() {
		s.sink, s.item, s.quoteDepth, s.listDepth = prevSink, prevItem, prevQuote, prevDepth
	}()

	for i, row := range n.Content {
		tr := &ooxml.TableRow{Header: i == 0 && isHeaderRow(row)}
		for j, cell := range row.Content {
			var attrs doctree.CellAttrs
			s.decodeAttrs(cell, &attrs)

			tc := &ooxml.TableCell{Span: max(attrs.Colspan, 1)}
			s.sink = &tc.Blocks
			if err := s.reg.Emit(s, cell, row, j); err != nil {
				return err
			}
			if !endsWithParagraph(tc.Blocks) {
				tc.Blocks = append(tc.Blocks, &ooxml.Paragraph{})
			}
			tr.Cells = append(tr.Cells, tc)
		}
		if len(tr.Cells) == 0 {
			tr.Cells = []*ooxml.TableCell{{Span: cols, Blocks: []ooxml.Block{&ooxml.Paragraph{}}}}
		}
		tbl.Rows = append(tbl.Rows, tr)
	}

	*prevSink = append(*prevSink, tbl)
	return nil
}

func isHeaderRow(row *doctree.Node) bool {
	if len(row.Content) == 0 {
		return false
	}
	for _, cell := range row.Content {
		if cell.Type != doctree.TypeTableHeader {
			return false
		}
	}
	return true
}

// endsWithParagraph reports whether a cell's content is properly closed;
// word processors require a paragraph as the last block of a cell.
func endsWithParagraph(blocks []ooxml.Block) bool {
	if len(blocks) == 0 {
		return false
	}
	_, ok := blocks[len(blocks)-1].(*ooxml.Paragraph)
	return ok
}

func allPositive(vs []int) bool {
	for _, v := range vs {
		if v <= 0 {
			return false
		}
	}
	return true
}
