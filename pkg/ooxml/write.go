package ooxml

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hashicorp-forge/hermes-export/pkg/exporterr"
	"github.com/klauspost/compress/zip"
)

type part struct {
	name string
	data []byte
}

// parts returns the package parts in archive order. [Content_Types].xml
// comes first as readers expect.
func (p *Package) parts() []part {
	out := []part{
		{"[Content_Types].xml", p.contentTypesXML()},
		{"_rels/.rels", packageRelsXML()},
		{"docProps/core.xml", p.corePropsXML()},
		{"docProps/app.xml", p.appPropsXML()},
		{"word/document.xml", p.documentXML()},
		{"word/_rels/document.xml.rels", p.documentRelsXML()},
		{"word/styles.xml", stylesXML()},
		{"word/settings.xml", settingsXML()},
		{"word/numbering.xml", p.numberingXML()},
	}
	for _, m := range p.media {
		out = append(out, part{"word/media/" + m.Name, m.Data})
	}
	return out
}

// WriteTo validates the package and writes it as a zip archive. The output
// is byte for byte identical for identical packages.
func (p *Package) WriteTo(w io.Writer) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	for _, pt := range p.parts() {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     pt.name,
			Method:   zip.Deflate,
			Modified: p.Created.UTC(),
		})
		if err != nil {
			return cw.n, writeFailure(pt.name, err)
		}
		if _, err := fw.Write(pt.data); err != nil {
			return cw.n, writeFailure(pt.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, writeFailure("archive", err)
	}
	return cw.n, nil
}

// Bytes returns the archive.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFailure(name string, err error) error {
	return &exporterr.Error{
		Op:   "WriteTo",
		Kind: exporterr.ErrPackageWriteFailure,
		Msg:  fmt.Sprintf("error writing %s", name),
		Err:  err,
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
