package ooxml

import (
	"sort"
	"time"
)

// MaxListLevel is the deepest list level a numbering definition carries.
// Deeper nesting has to reuse it.
const MaxListLevel = 8

const (
	nsRels         = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsContentTypes = "http://schemas.openxmlformats.org/package/2006/content-types"

	listIndentTwips  = 720
	listHangingTwips = 360
	bulletGlyphs     = "•◦▪"
)

func (p *Package) contentTypesXML() []byte {
	w := newXMLWriter()
	w.open("Types", "xmlns", nsContentTypes)
	w.empty("Default", "Extension", "rels", "ContentType", "application/vnd.openxmlformats-package.relationships+xml")
	w.empty("Default", "Extension", "xml", "ContentType", "application/xml")

	exts := make(map[string]string)
	for _, m := range p.media {
		exts[mediaExtension(m.ContentType)] = m.ContentType
	}
	names := make([]string, 0, len(exts))
	for ext := range exts {
		names = append(names, ext)
	}
	sort.Strings(names)
	for _, ext := range names {
		ct := exts[ext]
		if ext == "png" {
			ct = "image/png"
		}
		w.empty("Default", "Extension", ext, "ContentType", ct)
	}

	overrides := [][2]string{
		{"/word/document.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"},
		{"/word/styles.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"},
		{"/word/settings.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"},
		{"/word/numbering.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"},
		{"/docProps/core.xml", "application/vnd.openxmlformats-package.core-properties+xml"},
		{"/docProps/app.xml", "application/vnd.openxmlformats-officedocument.extended-properties+xml"},
	}
	for _, o := range overrides {
		w.empty("Override", "PartName", o[0], "ContentType", o[1])
	}
	w.close("Types")
	return w.bytes()
}

func packageRelsXML() []byte {
	w := newXMLWriter()
	w.open("Relationships", "xmlns", nsRels)
	w.empty("Relationship", "Id", "rId1",
		"Type", "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument",
		"Target", "word/document.xml")
	w.empty("Relationship", "Id", "rId2",
		"Type", "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties",
		"Target", "docProps/core.xml")
	w.empty("Relationship", "Id", "rId3",
		"Type", "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties",
		"Target", "docProps/app.xml")
	w.close("Relationships")
	return w.bytes()
}

func (p *Package) documentRelsXML() []byte {
	w := newXMLWriter()
	w.open("Relationships", "xmlns", nsRels)
	for _, rel := range p.rels {
		if rel.External {
			w.empty("Relationship", "Id", rel.ID, "Type", rel.Type, "Target", rel.Target, "TargetMode", "External")
			continue
		}
		w.empty("Relationship", "Id", rel.ID, "Type", rel.Type, "Target", rel.Target)
	}
	w.close("Relationships")
	return w.bytes()
}

func (p *Package) corePropsXML() []byte {
	created := p.Created.UTC().Format(time.RFC3339)
	w := newXMLWriter()
	w.open("cp:coreProperties",
		"xmlns:cp", "http://schemas.openxmlformats.org/package/2006/metadata/core-properties",
		"xmlns:dc", "http://purl.org/dc/elements/1.1/",
		"xmlns:dcterms", "http://purl.org/dc/terms/",
		"xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance",
	)
	w.open("dc:title")
	w.text(p.Title)
	w.close("dc:title")
	w.open("dc:creator")
	w.text(p.Creator)
	w.close("dc:creator")
	w.open("dcterms:created", "xsi:type", "dcterms:W3CDTF")
	w.text(created)
	w.close("dcterms:created")
	w.open("dcterms:modified", "xsi:type", "dcterms:W3CDTF")
	w.text(created)
	w.close("dcterms:modified")
	w.close("cp:coreProperties")
	return w.bytes()
}

func (p *Package) appPropsXML() []byte {
	w := newXMLWriter()
	w.open("Properties", "xmlns", "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties")
	w.open("Application")
	w.text(p.Creator)
	w.close("Application")
	w.close("Properties")
	return w.bytes()
}

func settingsXML() []byte {
	w := newXMLWriter()
	w.open("w:settings", "xmlns:w", nsW, "xmlns:m", nsM)
	// Ask the reader to refresh fields (the table of contents) on open.
	w.empty("w:updateFields", "w:val", "true")
	w.empty("w:defaultTabStop", "w:val", "720")
	w.open("m:mathPr")
	w.empty("m:mathFont", "m:val", "Cambria Math")
	w.close("m:mathPr")
	w.empty("w:compat")
	w.close("w:settings")
	return w.bytes()
}

// numberingXML defines one abstract bullet and one abstract decimal format
// and one w:num per list instance. Ordered instances override the start
// value of their level so that every list counts from its own start.
func (p *Package) numberingXML() []byte {
	w := newXMLWriter()
	w.open("w:numbering", "xmlns:w", nsW)

	writeAbstract := func(id int, ordered bool) {
		w.open("w:abstractNum", "w:abstractNumId", itoa(id))
		w.empty("w:multiLevelType", "w:val", "hybridMultilevel")
		glyphs := []rune(bulletGlyphs)
		for lvl := 0; lvl <= MaxListLevel; lvl++ {
			w.open("w:lvl", "w:ilvl", itoa(lvl))
			w.empty("w:start", "w:val", "1")
			if ordered {
				w.empty("w:numFmt", "w:val", orderedFormat(lvl))
				w.empty("w:lvlText", "w:val", "%"+itoa(lvl+1)+".")
			} else {
				w.empty("w:numFmt", "w:val", "bullet")
				w.empty("w:lvlText", "w:val", string(glyphs[lvl%len(glyphs)]))
			}
			w.empty("w:lvlJc", "w:val", "left")
			w.open("w:pPr")
			w.empty("w:ind", "w:left", itoa((lvl+1)*listIndentTwips), "w:hanging", itoa(listHangingTwips))
			w.close("w:pPr")
			w.close("w:lvl")
		}
		w.close("w:abstractNum")
	}
	writeAbstract(abstractBullet, false)
	writeAbstract(abstractDecimal, true)

	for _, l := range p.lists {
		w.open("w:num", "w:numId", itoa(l.numID))
		if l.ordered {
			w.empty("w:abstractNumId", "w:val", itoa(abstractDecimal))
			w.open("w:lvlOverride", "w:ilvl", itoa(l.level))
			w.empty("w:startOverride", "w:val", itoa(l.start))
			w.close("w:lvlOverride")
		} else {
			w.empty("w:abstractNumId", "w:val", itoa(abstractBullet))
		}
		w.close("w:num")
	}
	w.close("w:numbering")
	return w.bytes()
}

const (
	abstractBullet  = 0
	abstractDecimal = 1
)

func orderedFormat(level int) string {
	switch level % 3 {
	case 1:
		return "lowerLetter"
	case 2:
		return "lowerRoman"
	default:
		return "decimal"
	}
}

type styleDef struct {
	id, name, basedOn, kind string
	outline                 int // 0 = none, else heading level
	bold, italic            bool
	sizeHalfPt              int
	color                   string
	font                    string
	indent                  int
	spacingBefore           int
	spacingAfter            int
	underline               bool
	shading                 string
}

var styleDefs = []styleDef{
	{id: StyleNormal, name: "Normal", kind: "paragraph", sizeHalfPt: 22, spacingAfter: 120},
	{id: StyleTitle, name: "Title", kind: "paragraph", basedOn: StyleNormal, bold: true, sizeHalfPt: 52, spacingAfter: 240},
	{id: "Heading1", name: "heading 1", kind: "paragraph", basedOn: StyleNormal, outline: 1, bold: true, sizeHalfPt: 36, spacingBefore: 360, spacingAfter: 120},
	{id: "Heading2", name: "heading 2", kind: "paragraph", basedOn: StyleNormal, outline: 2, bold: true, sizeHalfPt: 32, spacingBefore: 320, spacingAfter: 120},
	{id: "Heading3", name: "heading 3", kind: "paragraph", basedOn: StyleNormal, outline: 3, bold: true, sizeHalfPt: 28, spacingBefore: 280, spacingAfter: 80},
	{id: "Heading4", name: "heading 4", kind: "paragraph", basedOn: StyleNormal, outline: 4, bold: true, sizeHalfPt: 24, spacingBefore: 240, spacingAfter: 80},
	{id: "Heading5", name: "heading 5", kind: "paragraph", basedOn: StyleNormal, outline: 5, bold: true, sizeHalfPt: 22, spacingBefore: 220, spacingAfter: 60},
	{id: "Heading6", name: "heading 6", kind: "paragraph", basedOn: StyleNormal, outline: 6, bold: true, italic: true, sizeHalfPt: 22, spacingBefore: 200, spacingAfter: 60},
	{id: StyleCode, name: "Code", kind: "paragraph", basedOn: StyleNormal, font: "Consolas", sizeHalfPt: 20, shading: "F2F2F2", spacingAfter: 0},
	{id: StyleQuote, name: "Quote", kind: "paragraph", basedOn: StyleNormal, italic: true, color: "595959", indent: 720},
	{id: StyleListPara, name: "List Paragraph", kind: "paragraph", basedOn: StyleNormal, indent: 720},
	{id: StyleTOCHead, name: "TOC Heading", kind: "paragraph", basedOn: "Heading1"},
	{id: StyleHyperlink, name: "Hyperlink", kind: "character", color: "0563C1", underline: true},
}

func stylesXML() []byte {
	w := newXMLWriter()
	w.open("w:styles", "xmlns:w", nsW)

	w.open("w:docDefaults")
	w.open("w:rPrDefault")
	w.open("w:rPr")
	w.empty("w:rFonts", "w:ascii", "Calibri", "w:hAnsi", "Calibri", "w:eastAsia", "SimSun", "w:cs", "Calibri")
	w.empty("w:sz", "w:val", "22")
	w.close("w:rPr")
	w.close("w:rPrDefault")
	w.close("w:docDefaults")

	for _, s := range styleDefs {
		attrs := []string{"w:type", s.kind, "w:styleId", s.id}
		if s.id == StyleNormal {
			attrs = append(attrs, "w:default", "1")
		}
		w.open("w:style", attrs...)
		w.empty("w:name", "w:val", s.name)
		if s.basedOn != "" {
			w.empty("w:basedOn", "w:val", s.basedOn)
		}
		w.empty("w:qFormat")

		if s.kind == "paragraph" {
			w.open("w:pPr")
			if s.outline > 0 {
				w.empty("w:keepNext")
			}
			if s.shading != "" {
				w.empty("w:shd", "w:val", "clear", "w:color", "auto", "w:fill", s.shading)
			}
			w.empty("w:spacing", "w:before", itoa(s.spacingBefore), "w:after", itoa(s.spacingAfter))
			if s.indent > 0 {
				w.empty("w:ind", "w:left", itoa(s.indent))
			}
			if s.outline > 0 {
				w.empty("w:outlineLvl", "w:val", itoa(s.outline-1))
			}
			w.close("w:pPr")
		}

		w.open("w:rPr")
		if s.font != "" {
			w.empty("w:rFonts", "w:ascii", s.font, "w:hAnsi", s.font, "w:cs", s.font)
		}
		if s.bold {
			w.empty("w:b")
		}
		if s.italic {
			w.empty("w:i")
		}
		if s.color != "" {
			w.empty("w:color", "w:val", s.color)
		}
		if s.sizeHalfPt > 0 {
			w.empty("w:sz", "w:val", itoa(s.sizeHalfPt))
		}
		if s.underline {
			w.empty("w:u", "w:val", "single")
		}
		w.close("w:rPr")
		w.close("w:style")
	}

	w.open("w:style", "w:type", "table", "w:styleId", StyleTable)
	w.empty("w:name", "w:val", "Table Grid")
	w.open("w:tblPr")
	w.open("w:tblBorders")
	for _, side := range []string{"w:top", "w:left", "w:bottom", "w:right", "w:insideH", "w:insideV"} {
		w.empty(side, "w:val", "single", "w:sz", "4", "w:space", "0", "w:color", "auto")
	}
	w.close("w:tblBorders")
	w.close("w:tblPr")
	w.close("w:style")

	w.close("w:styles")
	return w.bytes()
}
