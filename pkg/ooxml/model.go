// Package ooxml models a WordprocessingML (.docx) package as a tree of
// package-native constructs (paragraphs, runs, tables, lists, math) and
// writes it as a zip archive of XML parts.
//
// A Package is built in a single pass and then written with WriteTo. All
// binary payloads (images) must be attached with AddMedia while building;
// the writer never performs I/O other than writing the archive.
//
//	pkg := ooxml.NewPackage(time.Now())
//	pkg.Title = "Report"
//	pkg.Append(&ooxml.Paragraph{Style: ooxml.StyleHeading1, Children: []ooxml.Inline{ooxml.TextRun("Report", ooxml.RunProps{})}})
//	_, err := pkg.WriteTo(w)
package ooxml

import (
	"fmt"
	"strings"
	"time"
)

// Paragraph styles defined in styles.xml.
const (
	StyleNormal    = "Normal"
	StyleTitle     = "Title"
	StyleHeading1  = "Heading1"
	StyleCode      = "Code"
	StyleQuote     = "Quote"
	StyleListPara  = "ListParagraph"
	StyleTOCHead   = "TOCHeading"
	StyleHyperlink = "Hyperlink"
	StyleTable     = "TableGrid"
)

// HeadingStyle returns the paragraph style of a heading level (1..6).
func HeadingStyle(level int) string {
	return fmt.Sprintf("Heading%d", min(max(level, 1), 6))
}

// Page geometry in twentieths of a point (US Letter, one inch margins).
const (
	PageWidthTwips  = 12240
	PageHeightTwips = 15840
	MarginTwips     = 1440
	TextWidthTwips  = PageWidthTwips - 2*MarginTwips

	// EMUPerPixel converts 96 DPI pixels to English Metric Units.
	EMUPerPixel = 9525

	// TextWidthPixels is the usable line width in 96 DPI pixels.
	TextWidthPixels = TextWidthTwips / 15
)

// Block is a body level construct: *Paragraph or *Table.
type Block interface {
	block()
}

// Inline is a paragraph level construct: *Run, *Hyperlink, *Math or *Field.
type Inline interface {
	inline()
}

// RunItem is the content of a run: Text, Break, Tab or *Drawing.
type RunItem interface {
	runItem()
}

// Paragraph is a w:p element.
type Paragraph struct {
	Style string

	// List places the paragraph in a numbering instance.
	List *ListRef

	// IndentTwips is the left indentation. It is ignored for list paragraphs,
	// whose indentation comes from the numbering definition.
	IndentTwips int

	// BorderBottom draws a horizontal line under the paragraph.
	BorderBottom bool

	// Align is the justification ("left", "center", "right", "both").
	Align string

	Children []Inline
}

func (*Paragraph) block() {}

// Add appends inline constructs.
func (p *Paragraph) Add(children ...Inline) *Paragraph {
	p.Children = append(p.Children, children...)
	return p
}

// ListRef places a paragraph at a level of a numbering instance.
type ListRef struct {
	NumID int
	Level int
}

// RunProps are the character properties of a run.
type RunProps struct {
	Style     string
	Bold      bool
	Italic    bool
	Underline bool
	Strike    bool
	Code      bool
	VertAlign string // "subscript" or "superscript"
	Highlight string // a w:highlight color name, e.g. "yellow"
	Color     string // RRGGBB
}

// Run is a w:r element.
type Run struct {
	Props RunProps
	Items []RunItem
}

func (*Run) inline() {}

// TextRun returns a run holding text. Newlines become breaks and tabs
// become tab characters.
func TextRun(text string, props RunProps) *Run {
	r := &Run{Props: props}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			r.Items = append(r.Items, Break{})
		}
		parts := strings.Split(line, "\t")
		for j, part := range parts {
			if j > 0 {
				r.Items = append(r.Items, Tab{})
			}
			if part != "" {
				r.Items = append(r.Items, Text(part))
			}
		}
	}
	return r
}

// Text is a w:t element.
type Text string

func (Text) runItem() {}

// Break is a w:br element.
type Break struct{}

func (Break) runItem() {}

// Tab is a w:tab element.
type Tab struct{}

func (Tab) runItem() {}

// Drawing is an inline picture referencing a media part.
type Drawing struct {
	RelID     string
	Name      string
	Descr     string
	WidthEMU  int64
	HeightEMU int64

	id int
}

func (*Drawing) runItem() {}

// Hyperlink is a w:hyperlink element pointing at an external relationship.
type Hyperlink struct {
	RelID string
	Runs  []*Run
}

func (*Hyperlink) inline() {}

// Field is a complex field, e.g. a table of contents. Placeholder is shown
// until the reader updates fields.
type Field struct {
	Instr       string
	Placeholder string
}

func (*Field) inline() {}

// Table is a w:tbl element.
type Table struct {
	// Grid holds the column widths in twips.
	Grid []int
	Rows []*TableRow
}

func (*Table) block() {}

// TableRow is a w:tr element.
type TableRow struct {
	Header bool
	Cells  []*TableCell
}

// TableCell is a w:tc element. It must hold at least one paragraph.
type TableCell struct {
	Span   int
	Blocks []Block
}

// Media is a binary part stored under word/media.
type Media struct {
	RelID       string
	Name        string
	ContentType string
	Data        []byte
}

type relationship struct {
	ID       string
	Type     string
	Target   string
	External bool
}

// list is one numbering instance.
type list struct {
	numID   int
	ordered bool
	level   int
	start   int
}

// Package is an in-memory .docx package.
type Package struct {
	Title   string
	Creator string
	Created time.Time

	Body []Block

	media     []Media
	rels      []relationship
	links     map[string]string
	lists     []list
	drawingID int
}

// Relationship types.
const (
	relTypeImage     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relTypeHyperlink = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	relTypeStyles    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relTypeSettings  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"
	relTypeNumbering = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
)

// NewPackage returns an empty package. created is used for the document
// properties and the archive timestamps.
func NewPackage(created time.Time) *Package {
	p := &Package{
		Created: created,
		links:   make(map[string]string),
	}
	p.addRel(relTypeStyles, "styles.xml", false)
	p.addRel(relTypeSettings, "settings.xml", false)
	p.addRel(relTypeNumbering, "numbering.xml", false)
	return p
}

func (p *Package) addRel(typ, target string, external bool) string {
	id := fmt.Sprintf("rId%d", len(p.rels)+1)
	p.rels = append(p.rels, relationship{ID: id, Type: typ, Target: target, External: external})
	return id
}

// Append adds blocks to the body.
func (p *Package) Append(blocks ...Block) {
	p.Body = append(p.Body, blocks...)
}

// AddMedia stores an image part and returns it. Every call creates a new
// part.
func (p *Package) AddMedia(data []byte, contentType string) Media {
	name := fmt.Sprintf("image%d.%s", len(p.media)+1, mediaExtension(contentType))
	relID := p.addRel(relTypeImage, "media/"+name, false)
	m := Media{RelID: relID, Name: name, ContentType: contentType, Data: data}
	p.media = append(p.media, m)
	return m
}

// Media returns the media parts in the order they were added.
func (p *Package) Media() []Media {
	out := make([]Media, len(p.media))
	copy(out, p.media)
	return out
}

// NewDrawing returns an inline picture of the given pixel size showing m.
func (p *Package) NewDrawing(m Media, descr string, widthPx, heightPx float64) *Drawing {
	p.drawingID++
	return &Drawing{
		RelID:     m.RelID,
		Name:      m.Name,
		Descr:     descr,
		WidthEMU:  int64(widthPx * EMUPerPixel),
		HeightEMU: int64(heightPx * EMUPerPixel),
		id:        p.drawingID,
	}
}

// AddHyperlink returns the relationship ID of an external link target.
// Repeated targets share one relationship.
func (p *Package) AddHyperlink(target string) string {
	if id, ok := p.links[target]; ok {
		return id
	}
	id := p.addRel(relTypeHyperlink, target, true)
	p.links[target] = id
	return id
}

// NewList creates a numbering instance whose items sit at level. Ordered
// lists start counting at start; every instance restarts its numbering.
func (p *Package) NewList(ordered bool, level, start int) int {
	numID := len(p.lists) + 1
	if start < 1 {
		start = 1
	}
	p.lists = append(p.lists, list{numID: numID, ordered: ordered, level: min(max(level, 0), MaxListLevel), start: start})
	return numID
}

func mediaExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return "jpeg"
	case "image/gif":
		return "gif"
	case "image/bmp":
		return "bmp"
	case "image/webp":
		return "webp"
	case "image/tiff":
		return "tiff"
	default:
		return "png"
	}
}
