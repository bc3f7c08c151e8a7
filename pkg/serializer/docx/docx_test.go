package docx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp-forge/hermes-export/pkg/doctree"
	"github.com/hashicorp-forge/hermes-export/pkg/exporterr"
	"github.com/hashicorp-forge/hermes-export/pkg/ooxml"
	"github.com/hashicorp-forge/hermes-export/pkg/resource"
	"github.com/hashicorp-forge/hermes-export/pkg/serializer"
	"github.com/hashicorp/go-hclog"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportTime = time.Date(2024, 5, 4, 10, 30, 0, 0, time.UTC)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func render(t *testing.T, root *doctree.Node, res resource.Lookup) map[string][]byte {
	t.Helper()
	data, err := New().Serialize(serializer.Input{
		Root:      root,
		Title:     "Test",
		Created:   exportTime,
		Resources: res,
	})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	parts := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		parts[f.Name] = b
	}
	return parts
}

func mediaParts(parts map[string][]byte) map[string][]byte {
	out := make(map[string][]byte)
	for name, b := range parts {
		if strings.HasPrefix(name, "word/media/") {
			out[name] = b
		}
	}
	return out
}

func TestSerialize_Scenario(t *testing.T) {
	root := doctree.Doc(
		doctree.Title("Report"),
		doctree.Paragraph(doctree.Text("Hello "), doctree.Text("world", doctree.M(doctree.MarkBold))),
	)
	parts := render(t, root, nil)
	doc := string(parts["word/document.xml"])

	assert.Contains(t, doc, `<w:pStyle w:val="Heading1"/>`)
	assert.Contains(t, doc, `<w:t xml:space="preserve">Report</w:t>`)
	assert.Contains(t, doc, `<w:t xml:space="preserve">Hello </w:t>`)
	assert.Contains(t, doc, `<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">world</w:t></w:r>`)
	assert.Contains(t, string(parts["docProps/core.xml"]), "<dc:title>Test</dc:title>")
}

func TestSerialize_Images(t *testing.T) {
	good := pngBytes(t, 10, 20)
	cache := resource.NewCache(
		resource.Payload{URL: "https://img/a.png", Data: good, ContentType: "image/png"},
		resource.Payload{URL: "https://img/missing.png", Err: errors.New("404")},
		resource.Payload{URL: "https://img/doc.pdf", Data: []byte("%PDF-1.4"), ContentType: "application/pdf"},
	)

	root := doctree.Doc(
		doctree.Paragraph(doctree.Image("https://img/a.png")),
		doctree.Paragraph(doctree.Image("https://img/missing.png")),
		doctree.Paragraph(doctree.Image("https://img/a.png")),
		doctree.Image("https://img/doc.pdf"),
	)

	s := New()
	assert.Equal(t, []string{"https://img/a.png", "https://img/missing.png", "https://img/doc.pdf"}, s.Resources(root))

	parts := render(t, root, cache)
	media := mediaParts(parts)
	require.Len(t, media, 3)
	assert.Equal(t, good, media["word/media/image1.png"])
	assert.Equal(t, resource.Placeholder(), media["word/media/image2.png"])
	assert.Equal(t, resource.Placeholder(), media["word/media/image3.png"])

	doc := string(parts["word/document.xml"])
	assert.Equal(t, 4, strings.Count(doc, "<w:drawing>"))
	assert.Equal(t, 2, strings.Count(doc, `r:embed="rId4"`))

	// 10x20 px at 9525 EMU per pixel.
	assert.Contains(t, doc, `<wp:extent cx="95250" cy="190500"/>`)
}

func TestSerialize_ImagesWithoutResources(t *testing.T) {
	parts := render(t, doctree.Doc(doctree.Image("https://img/a.png")), nil)
	media := mediaParts(parts)
	require.Len(t, media, 1)
	assert.Equal(t, resource.Placeholder(), media["word/media/image1.png"])
}

func TestSerialize_Lists(t *testing.T) {
	item := func(content ...*doctree.Node) *doctree.Node {
		return &doctree.Node{Type: doctree.TypeListItem, Content: content}
	}
	ordered := func(start int, items ...*doctree.Node) *doctree.Node {
		return &doctree.Node{Type: doctree.TypeOrderedList, Attrs: map[string]any{"start": start}, Content: items}
	}

	root := doctree.Doc(
		ordered(3,
			item(doctree.Paragraph(doctree.Text("three")),
				&doctree.Node{Type: doctree.TypeBulletList, Content: []*doctree.Node{
					item(doctree.Paragraph(doctree.Text("nested"))),
				}},
			),
			item(doctree.Paragraph(doctree.Text("four")), doctree.Paragraph(doctree.Text("more"))),
		),
		ordered(1, item(doctree.Paragraph(doctree.Text("one")))),
		&doctree.Node{Type: doctree.TypeTaskList, Content: []*doctree.Node{
			{Type: doctree.TypeTaskItem, Attrs: map[string]any{"checked": true}, Content: []*doctree.Node{doctree.Text("done")}},
			{Type: doctree.TypeTaskItem, Content: []*doctree.Node{doctree.Text("todo")}},
		}},
	)
	parts := render(t, root, nil)
	doc := string(parts["word/document.xml"])
	numbering := string(parts["word/numbering.xml"])

	assert.Equal(t, 3, strings.Count(numbering, "<w:num "), "one instance per list")
	assert.Contains(t, numbering, `<w:startOverride w:val="3"/>`)
	assert.Contains(t, numbering, `<w:startOverride w:val="1"/>`)

	assert.Contains(t, doc, `<w:ilvl w:val="1"/><w:numId w:val="2"/>`)
	assert.Contains(t, doc, `<w:numId w:val="3"/>`)
	assert.Equal(t, 4, strings.Count(doc, "<w:numPr>"), "continuation paragraphs carry no marker")
	assert.Contains(t, doc, `<w:ind w:left="720"/></w:pPr><w:r><w:t xml:space="preserve">more</w:t>`)

	assert.Contains(t, doc, checkedGlyph+"</w:t>")
	assert.Contains(t, doc, uncheckedGlyph+"</w:t>")
}

func TestSerialize_DeepLists(t *testing.T) {
	list := doctree.Paragraph(doctree.Text("level 11"))
	for range 11 {
		list = &doctree.Node{Type: doctree.TypeBulletList, Content: []*doctree.Node{
			{Type: doctree.TypeListItem, Content: []*doctree.Node{doctree.Paragraph(doctree.Text("item")), list}},
		}}
	}
	parts := render(t, doctree.Doc(list), nil)
	doc := string(parts["word/document.xml"])

	assert.Equal(t, 11, strings.Count(doc, "<w:numPr>"))
	assert.Equal(t, 3, strings.Count(doc, fmt.Sprintf(`<w:ilvl w:val="%d"/>`, ooxml.MaxListLevel)))
	assert.NotContains(t, doc, `<w:ilvl w:val="9"/>`)
	assert.Contains(t, doc, ">level 11</w:t>")
}

func TestSerialize_MalformedAttrsAreLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Output: &logs, Level: hclog.Debug})

	root := doctree.Doc(&doctree.Node{
		Type:    doctree.TypeCodeBlock,
		Attrs:   map[string]any{"language": []any{"go"}},
		Content: []*doctree.Node{doctree.Text("x := 1")},
	})
	_, err := New(WithLogger(logger)).Serialize(serializer.Input{Root: root, Title: "Test", Created: exportTime})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "ignoring malformed attributes")
	assert.Contains(t, logs.String(), "type=codeBlock")
}

func TestSerialize_Blocks(t *testing.T) {
	root := doctree.Doc(
		&doctree.Node{Type: doctree.TypeTableOfContents},
		&doctree.Node{Type: doctree.TypeBlockquote, Content: []*doctree.Node{doctree.Paragraph(doctree.Text("quoted"))}},
		&doctree.Node{Type: doctree.TypeHorizontalRule},
		doctree.Paragraph(doctree.Text("a"), &doctree.Node{Type: doctree.TypeHardBreak}, doctree.Text("b")),
		&doctree.Node{Type: doctree.TypeCodeBlock, Attrs: map[string]any{"language": "go"}, Content: []*doctree.Node{
			doctree.Text("// entry point\nfunc main() {\n\tprintln(\"hi\")\n}\n"),
		}},
		&doctree.Node{Type: doctree.TypeDocumentChildren},
	)
	doc := string(render(t, root, nil)["word/document.xml"])

	assert.Contains(t, doc, `<w:pStyle w:val="TOCHeading"/>`)
	assert.Contains(t, doc, `TOC \o &#34;1-3&#34; \h \z \u`)
	assert.Contains(t, doc, `<w:pStyle w:val="Quote"/><w:ind w:left="720"/>`)
	assert.Contains(t, doc, `<w:pBdr><w:bottom`)
	assert.Contains(t, doc, `<w:t xml:space="preserve">a</w:t></w:r><w:r><w:br/></w:r>`)
	assert.Contains(t, doc, `<w:pStyle w:val="Code"/>`)
	assert.Contains(t, doc, "<w:tab/>")
	assert.Contains(t, doc, "func")
	assert.Contains(t, doc, "<w:color ")
}

func TestSerialize_Marks(t *testing.T) {
	link := doctree.Mark{Type: doctree.MarkLink, Attrs: map[string]any{"href": "https://example.com"}}
	root := doctree.Doc(doctree.Paragraph(
		doctree.Text("click ", link),
		doctree.Text("here", link, doctree.M(doctree.MarkBold)),
		doctree.Text("x", doctree.M(doctree.MarkSuperscript)),
		doctree.Text("y", doctree.M(doctree.MarkSubscript)),
		doctree.Text("z", doctree.M(doctree.MarkHighlight), doctree.M(doctree.MarkStrike)),
		doctree.Text("c", doctree.M(doctree.MarkCode), doctree.M(doctree.MarkItalic), doctree.M(doctree.MarkUnderline)),
	))
	parts := render(t, root, nil)
	doc := string(parts["word/document.xml"])

	assert.Equal(t, 1, strings.Count(doc, "<w:hyperlink "), "adjacent linked runs share a hyperlink")
	assert.Contains(t, doc, `<w:rStyle w:val="Hyperlink"/>`)
	assert.Contains(t, doc, `<w:vertAlign w:val="superscript"/>`)
	assert.Contains(t, doc, `<w:vertAlign w:val="subscript"/>`)
	assert.Contains(t, doc, `<w:strike/><w:highlight w:val="yellow"/>`)
	assert.Contains(t, doc, `<w:rFonts w:ascii="Consolas"`)
	assert.Contains(t, string(parts["word/_rels/document.xml.rels"]), `Target="https://example.com" TargetMode="External"`)
}

func TestSerialize_Math(t *testing.T) {
	katex := func(src string) *doctree.Node {
		return &doctree.Node{Type: doctree.TypeKatex, Attrs: map[string]any{"text": src}}
	}
	root := doctree.Doc(
		katex(`\frac{a}{b}`),
		doctree.Paragraph(doctree.Text("inline "), katex(`x^2`)),
		katex(`\unknowncommand{x}`),
	)
	doc := string(render(t, root, nil)["word/document.xml"])

	assert.Equal(t, 2, strings.Count(doc, "<m:oMathPara>"))
	assert.Equal(t, 3, strings.Count(doc, "<m:oMath>"))
	assert.Contains(t, doc, "<m:f><m:num>")
	assert.Contains(t, doc, "<m:sSup>")
	assert.Contains(t, doc, `\unknowncommand{x}`)
	assert.Contains(t, doc, `<w:jc w:val="center"/>`)
}

func TestSerialize_Table(t *testing.T) {
	cell := func(typ doctree.NodeType, attrs map[string]any, text string) *doctree.Node {
		return &doctree.Node{Type: typ, Attrs: attrs, Content: []*doctree.Node{doctree.Paragraph(doctree.Text(text))}}
	}
	root := doctree.Doc(&doctree.Node{Type: doctree.TypeTable, Content: []*doctree.Node{
		{Type: doctree.TypeTableRow, Content: []*doctree.Node{
			cell(doctree.TypeTableHeader, map[string]any{"colwidth": []any{100}}, "A"),
			cell(doctree.TypeTableHeader, map[string]any{"colwidth": []any{200}}, "B"),
		}},
		{Type: doctree.TypeTableRow, Content: []*doctree.Node{
			cell(doctree.TypeTableCell, map[string]any{"colspan": 2}, "wide"),
		}},
		{Type: doctree.TypeTableRow, Content: []*doctree.Node{
			{Type: doctree.TypeTableCell},
			cell(doctree.TypeTableCell, nil, "x"),
		}},
	}})
	doc := string(render(t, root, nil)["word/document.xml"])

	assert.Contains(t, doc, `<w:gridCol w:w="1500"/><w:gridCol w:w="3000"/>`)
	assert.Equal(t, 1, strings.Count(doc, "<w:tblHeader/>"))
	assert.Contains(t, doc, `<w:tcW w:w="4500" w:type="dxa"/><w:gridSpan w:val="2"/>`)
	assert.Contains(t, doc, `<w:tc><w:tcPr><w:tcW w:w="1500" w:type="dxa"/></w:tcPr><w:p></w:p></w:tc>`)
}

func TestSerialize_Deterministic(t *testing.T) {
	root := doctree.Doc(
		doctree.Title("Report"),
		doctree.Paragraph(doctree.Image("https://img/a.png")),
		&doctree.Node{Type: doctree.TypeOrderedList, Content: []*doctree.Node{
			{Type: doctree.TypeListItem, Content: []*doctree.Node{doctree.Paragraph(doctree.Text("one"))}},
		}},
	)
	cache := resource.NewCache(resource.Payload{URL: "https://img/a.png", Data: pngBytes(t, 4, 4), ContentType: "image/png"})
	in := serializer.Input{Root: root, Title: "Report", Created: exportTime, Resources: cache}

	a, err := New().Serialize(in)
	require.NoError(t, err)
	b, err := New().Serialize(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSerialize_Unsupported(t *testing.T) {
	root := doctree.Doc(doctree.Paragraph(doctree.Text("x")), &doctree.Node{Type: "mermaid"})
	out, err := New().Serialize(serializer.Input{Root: root, Created: exportTime})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, exporterr.ErrUnsupportedNodeType))

	var typeErr *exporterr.UnsupportedTypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, Format, typeErr.Format)
	assert.Equal(t, "mermaid", typeErr.Type)
}

func TestImageSize(t *testing.T) {
	cases := map[string]struct {
		attrs  doctree.ImageAttrs
		iw, ih int
		wantW  float64
		wantH  float64
	}{
		"intrinsic":          {iw: 200, ih: 100, wantW: 200, wantH: 100},
		"explicit":           {attrs: doctree.ImageAttrs{Width: "50px", Height: "40"}, iw: 200, ih: 100, wantW: 50, wantH: 40},
		"width keeps aspect": {attrs: doctree.ImageAttrs{Width: "100"}, iw: 200, ih: 100, wantW: 100, wantH: 50},
		"unknown size":       {wantW: defaultImageWidth, wantH: defaultImageHeight},
		"scaled to fit":      {iw: ooxml.TextWidthPixels * 2, ih: 100, wantW: ooxml.TextWidthPixels, wantH: 50},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			w, h := imageSize(c.attrs, c.iw, c.ih)
			assert.InDelta(t, c.wantW, w, 0.001)
			assert.InDelta(t, c.wantH, h, 0.001)
		})
	}
}
