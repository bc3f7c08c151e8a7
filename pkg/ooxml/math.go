package ooxml

// Math is an Office Math (OMML) zone. Display math is written as its own
// m:oMathPara; inline math flows with the surrounding text.
type Math struct {
	Display bool
	Elems   []MathElem
}

func (*Math) inline() {}

// MathElem is a node of an OMML expression.
type MathElem interface {
	writeMath(w *xmlWriter)
}

// MText is a math run. Plain runs are set upright (function names,
// operators spelled as words); others use math italics.
type MText struct {
	Text  string
	Plain bool
}

// MFrac is a fraction.
type MFrac struct {
	Num, Den []MathElem
}

// MSup is a superscript.
type MSup struct {
	Base, Sup []MathElem
}

// MSub is a subscript.
type MSub struct {
	Base, Sub []MathElem
}

// MSubSup carries both a subscript and a superscript.
type MSubSup struct {
	Base, Sub, Sup []MathElem
}

// MRad is a radical. A nil Deg hides the degree.
type MRad struct {
	Deg, Body []MathElem
}

// MDelim wraps its body in delimiters.
type MDelim struct {
	Open, Close string
	Body        []MathElem
}

// MNary is an n-ary operator such as a sum or an integral.
type MNary struct {
	Char     string
	Sub, Sup []MathElem
	Body     []MathElem
}

func writeMathArg(w *xmlWriter, name string, elems []MathElem) {
	w.open(name)
	for _, e := range elems {
		e.writeMath(w)
	}
	w.close(name)
}

func (t MText) writeMath(w *xmlWriter) {
	w.open("m:r")
	if t.Plain {
		w.open("m:rPr")
		w.empty("m:sty", "m:val", "p")
		w.close("m:rPr")
	}
	w.open("m:t", "xml:space", "preserve")
	w.text(t.Text)
	w.close("m:t")
	w.close("m:r")
}

func (f MFrac) writeMath(w *xmlWriter) {
	w.open("m:f")
	writeMathArg(w, "m:num", f.Num)
	writeMathArg(w, "m:den", f.Den)
	w.close("m:f")
}

func (s MSup) writeMath(w *xmlWriter) {
	w.open("m:sSup")
	writeMathArg(w, "m:e", s.Base)
	writeMathArg(w, "m:sup", s.Sup)
	w.close("m:sSup")
}

func (s MSub) writeMath(w *xmlWriter) {
	w.open("m:sSub")
	writeMathArg(w, "m:e", s.Base)
	writeMathArg(w, "m:sub", s.Sub)
	w.close("m:sSub")
}

func (s MSubSup) writeMath(w *xmlWriter) {
	w.open("m:sSubSup")
	writeMathArg(w, "m:e", s.Base)
	writeMathArg(w, "m:sub", s.Sub)
	writeMathArg(w, "m:sup", s.Sup)
	w.close("m:sSubSup")
}

func (r MRad) writeMath(w *xmlWriter) {
	w.open("m:rad")
	if r.Deg == nil {
		w.open("m:radPr")
		w.empty("m:degHide", "m:val", "1")
		w.close("m:radPr")
	}
	writeMathArg(w, "m:deg", r.Deg)
	writeMathArg(w, "m:e", r.Body)
	w.close("m:rad")
}

func (d MDelim) writeMath(w *xmlWriter) {
	w.open("m:d")
	w.open("m:dPr")
	w.empty("m:begChr", "m:val", d.Open)
	w.empty("m:endChr", "m:val", d.Close)
	w.close("m:dPr")
	writeMathArg(w, "m:e", d.Body)
	w.close("m:d")
}

func (n MNary) writeMath(w *xmlWriter) {
	w.open("m:nary")
	w.open("m:naryPr")
	w.empty("m:chr", "m:val", n.Char)
	w.empty("m:limLoc", "m:val", "undOvr")
	if n.Sub == nil {
		w.empty("m:subHide", "m:val", "1")
	}
	if n.Sup == nil {
		w.empty("m:supHide", "m:val", "1")
	}
	w.close("m:naryPr")
	writeMathArg(w, "m:sub", n.Sub)
	writeMathArg(w, "m:sup", n.Sup)
	writeMathArg(w, "m:e", n.Body)
	w.close("m:nary")
}
