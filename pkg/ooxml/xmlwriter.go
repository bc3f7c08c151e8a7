package ooxml

import (
	"bytes"
	"encoding/xml"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// xmlWriter streams namespaced XML. Attributes are passed as alternating
// name/value pairs.
type xmlWriter struct {
	buf bytes.Buffer
}

func newXMLWriter() *xmlWriter {
	w := &xmlWriter{}
	w.buf.WriteString(xmlHeader)
	return w
}

func (w *xmlWriter) start(name string, attrs []string) {
	w.buf.WriteByte('<')
	w.buf.WriteString(name)
	for i := 0; i+1 < len(attrs); i += 2 {
		w.buf.WriteByte(' ')
		w.buf.WriteString(attrs[i])
		w.buf.WriteString(`="`)
		w.escape(attrs[i+1])
		w.buf.WriteByte('"')
	}
}

func (w *xmlWriter) open(name string, attrs ...string) {
	w.start(name, attrs)
	w.buf.WriteByte('>')
}

func (w *xmlWriter) empty(name string, attrs ...string) {
	w.start(name, attrs)
	w.buf.WriteString("/>")
}

func (w *xmlWriter) close(name string) {
	w.buf.WriteString("</")
	w.buf.WriteString(name)
	w.buf.WriteByte('>')
}

func (w *xmlWriter) text(s string) {
	w.escape(s)
}

func (w *xmlWriter) escape(s string) {
	_ = xml.EscapeText(&w.buf, []byte(stripInvalidXML(s)))
}

func (w *xmlWriter) bytes() []byte {
	return w.buf.Bytes()
}

// stripInvalidXML drops characters that XML 1.0 cannot represent, such as
// control characters pasted into the editor.
func stripInvalidXML(s string) string {
	clean := true
	for _, r := range s {
		if !validXMLChar(r) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if validXMLChar(r) {
			out = append(out, r)
		}
	}
	return string(out)
}

func validXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}
