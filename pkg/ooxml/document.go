package ooxml

import (
	"strconv"
)

const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	nsM   = "http://schemas.openxmlformats.org/officeDocument/2006/math"
)

func itoa(i int) string { return strconv.Itoa(i) }

func (p *Package) documentXML() []byte {
	w := newXMLWriter()
	w.open("w:document",
		"xmlns:w", nsW,
		"xmlns:r", nsR,
		"xmlns:wp", nsWP,
		"xmlns:a", nsA,
		"xmlns:pic", nsPic,
		"xmlns:m", nsM,
	)
	w.open("w:body")
	for _, b := range p.Body {
		writeBlock(w, b)
	}
	w.open("w:sectPr")
	w.empty("w:pgSz", "w:w", itoa(PageWidthTwips), "w:h", itoa(PageHeightTwips))
	w.empty("w:pgMar",
		"w:top", itoa(MarginTwips), "w:right", itoa(MarginTwips),
		"w:bottom", itoa(MarginTwips), "w:left", itoa(MarginTwips),
		"w:header", "720", "w:footer", "720", "w:gutter", "0")
	w.close("w:sectPr")
	w.close("w:body")
	w.close("w:document")
	return w.bytes()
}

func writeBlock(w *xmlWriter, b Block) {
	switch b := b.(type) {
	case *Paragraph:
		writeParagraph(w, b)
	case *Table:
		writeTable(w, b)
	}
}

func writeParagraph(w *xmlWriter, p *Paragraph) {
	w.open("w:p")
	if p.Style != "" || p.List != nil || p.IndentTwips > 0 || p.BorderBottom || p.Align != "" {
		w.open("w:pPr")
		if p.Style != "" {
			w.empty("w:pStyle", "w:val", p.Style)
		}
		if p.List != nil {
			w.open("w:numPr")
			w.empty("w:ilvl", "w:val", itoa(p.List.Level))
			w.empty("w:numId", "w:val", itoa(p.List.NumID))
			w.close("w:numPr")
		}
		if p.BorderBottom {
			w.open("w:pBdr")
			w.empty("w:bottom", "w:val", "single", "w:sz", "6", "w:space", "1", "w:color", "auto")
			w.close("w:pBdr")
		}
		if p.IndentTwips > 0 && p.List == nil {
			w.empty("w:ind", "w:left", itoa(p.IndentTwips))
		}
		if p.Align != "" {
			w.empty("w:jc", "w:val", p.Align)
		}
		w.close("w:pPr")
	}
	for _, c := range p.Children {
		writeInline(w, c)
	}
	w.close("w:p")
}

func writeInline(w *xmlWriter, in Inline) {
	switch in := in.(type) {
	case *Run:
		writeRun(w, in)
	case *Hyperlink:
		w.open("w:hyperlink", "r:id", in.RelID, "w:history", "1")
		for _, r := range in.Runs {
			writeRun(w, r)
		}
		w.close("w:hyperlink")
	case *Math:
		if in.Display {
			w.open("m:oMathPara")
		}
		w.open("m:oMath")
		for _, e := range in.Elems {
			e.writeMath(w)
		}
		w.close("m:oMath")
		if in.Display {
			w.close("m:oMathPara")
		}
	case *Field:
		writeField(w, in)
	}
}

func writeRunProps(w *xmlWriter, p RunProps) {
	if p == (RunProps{}) {
		return
	}
	w.open("w:rPr")
	if p.Style != "" {
		w.empty("w:rStyle", "w:val", p.Style)
	}
	if p.Code {
		w.empty("w:rFonts", "w:ascii", "Consolas", "w:hAnsi", "Consolas", "w:cs", "Consolas")
	}
	if p.Bold {
		w.empty("w:b")
	}
	if p.Italic {
		w.empty("w:i")
	}
	if p.Strike {
		w.empty("w:strike")
	}
	if p.Color != "" {
		w.empty("w:color", "w:val", p.Color)
	}
	if p.Highlight != "" {
		w.empty("w:highlight", "w:val", p.Highlight)
	}
	if p.Underline {
		w.empty("w:u", "w:val", "single")
	}
	if p.Code {
		w.empty("w:shd", "w:val", "clear", "w:color", "auto", "w:fill", "F2F2F2")
	}
	if p.VertAlign != "" {
		w.empty("w:vertAlign", "w:val", p.VertAlign)
	}
	w.close("w:rPr")
}

func writeRun(w *xmlWriter, r *Run) {
	w.open("w:r")
	writeRunProps(w, r.Props)
	for _, item := range r.Items {
		switch item := item.(type) {
		case Text:
			w.open("w:t", "xml:space", "preserve")
			w.text(string(item))
			w.close("w:t")
		case Break:
			w.empty("w:br")
		case Tab:
			w.empty("w:tab")
		case *Drawing:
			writeDrawing(w, item)
		}
	}
	w.close("w:r")
}

func writeDrawing(w *xmlWriter, d *Drawing) {
	cx := strconv.FormatInt(d.WidthEMU, 10)
	cy := strconv.FormatInt(d.HeightEMU, 10)
	id := itoa(d.id)

	w.open("w:drawing")
	w.open("wp:inline", "distT", "0", "distB", "0", "distL", "0", "distR", "0")
	w.empty("wp:extent", "cx", cx, "cy", cy)
	w.empty("wp:docPr", "id", id, "name", "Picture "+id, "descr", d.Descr)
	w.open("wp:cNvGraphicFramePr")
	w.empty("a:graphicFrameLocks", "noChangeAspect", "1")
	w.close("wp:cNvGraphicFramePr")
	w.open("a:graphic")
	w.open("a:graphicData", "uri", nsPic)
	w.open("pic:pic")
	w.open("pic:nvPicPr")
	w.empty("pic:cNvPr", "id", id, "name", d.Name)
	w.empty("pic:cNvPicPr")
	w.close("pic:nvPicPr")
	w.open("pic:blipFill")
	w.empty("a:blip", "r:embed", d.RelID)
	w.open("a:stretch")
	w.empty("a:fillRect")
	w.close("a:stretch")
	w.close("pic:blipFill")
	w.open("pic:spPr")
	w.open("a:xfrm")
	w.empty("a:off", "x", "0", "y", "0")
	w.empty("a:ext", "cx", cx, "cy", cy)
	w.close("a:xfrm")
	w.open("a:prstGeom", "prst", "rect")
	w.empty("a:avLst")
	w.close("a:prstGeom")
	w.close("pic:spPr")
	w.close("pic:pic")
	w.close("a:graphicData")
	w.close("a:graphic")
	w.close("wp:inline")
	w.close("w:drawing")
}

func writeField(w *xmlWriter, f *Field) {
	w.open("w:r")
	w.empty("w:fldChar", "w:fldCharType", "begin", "w:dirty", "true")
	w.close("w:r")
	w.open("w:r")
	w.open("w:instrText", "xml:space", "preserve")
	w.text(" " + f.Instr + " ")
	w.close("w:instrText")
	w.close("w:r")
	w.open("w:r")
	w.empty("w:fldChar", "w:fldCharType", "separate")
	w.close("w:r")
	if f.Placeholder != "" {
		writeRun(w, TextRun(f.Placeholder, RunProps{}))
	}
	w.open("w:r")
	w.empty("w:fldChar", "w:fldCharType", "end")
	w.close("w:r")
}

func writeTable(w *xmlWriter, t *Table) {
	w.open("w:tbl")
	w.open("w:tblPr")
	w.empty("w:tblStyle", "w:val", StyleTable)
	w.empty("w:tblW", "w:w", "0", "w:type", "auto")
	w.empty("w:tblLook", "w:val", "04A0", "w:firstRow", "1", "w:lastRow", "0",
		"w:firstColumn", "0", "w:lastColumn", "0", "w:noHBand", "0", "w:noVBand", "1")
	w.close("w:tblPr")

	w.open("w:tblGrid")
	for _, width := range t.Grid {
		w.empty("w:gridCol", "w:w", itoa(width))
	}
	w.close("w:tblGrid")

	for _, row := range t.Rows {
		w.open("w:tr")
		if row.Header {
			w.open("w:trPr")
			w.empty("w:tblHeader")
			w.close("w:trPr")
		}
		col := 0
		for _, cell := range row.Cells {
			span := max(cell.Span, 1)
			width := 0
			for i := col; i < col+span && i < len(t.Grid); i++ {
				width += t.Grid[i]
			}
			col += span

			w.open("w:tc")
			w.open("w:tcPr")
			w.empty("w:tcW", "w:w", itoa(width), "w:type", "dxa")
			if span > 1 {
				w.empty("w:gridSpan", "w:val", itoa(span))
			}
			w.close("w:tcPr")
			for _, b := range cell.Blocks {
				writeBlock(w, b)
			}
			w.close("w:tc")
		}
		w.close("w:tr")
	}
	w.close("w:tbl")
}
