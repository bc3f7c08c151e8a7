package ooxml

import (
	"fmt"

	"github.com/hashicorp-forge/hermes-export/pkg/exporterr"
	"github.com/hashicorp/go-multierror"
)

// Validate checks the package for constructs a word processor would reject:
// dangling relationship and numbering references and malformed tables.
func (p *Package) Validate() error {
	v := &validator{
		rels:  make(map[string]relationship, len(p.rels)),
		lists: make(map[int]bool, len(p.lists)),
	}
	for _, r := range p.rels {
		v.rels[r.ID] = r
	}
	for _, l := range p.lists {
		v.lists[l.numID] = true
	}
	for i, b := range p.Body {
		v.block(fmt.Sprintf("body[%d]", i), b)
	}

	if err := v.errs.ErrorOrNil(); err != nil {
		return exporterr.Wrap("Validate", exporterr.ErrPackageWriteFailure, err)
	}
	return nil
}

type validator struct {
	rels  map[string]relationship
	lists map[int]bool
	errs  *multierror.Error
}

func (v *validator) fail(path, format string, args ...any) {
	v.errs = multierror.Append(v.errs, fmt.Errorf("%s: %s", path, fmt.Sprintf(format, args...)))
}

func (v *validator) rel(path, id, typ string) {
	r, ok := v.rels[id]
	switch {
	case !ok:
		v.fail(path, "relationship %q does not exist", id)
	case r.Type != typ:
		v.fail(path, "relationship %q is not of type %s", id, typ)
	}
}

func (v *validator) block(path string, b Block) {
	switch b := b.(type) {
	case *Paragraph:
		v.paragraph(path, b)
	case *Table:
		v.table(path, b)
	case nil:
		v.fail(path, "block is nil")
	}
}

func (v *validator) paragraph(path string, p *Paragraph) {
	if p == nil {
		v.fail(path, "paragraph is nil")
		return
	}
	if p.List != nil {
		if !v.lists[p.List.NumID] {
			v.fail(path, "numbering instance %d does not exist", p.List.NumID)
		}
		if p.List.Level < 0 || p.List.Level > MaxListLevel {
			v.fail(path, "list level %d out of range", p.List.Level)
		}
	}
	for i, c := range p.Children {
		cpath := fmt.Sprintf("%s/inline[%d]", path, i)
		switch c := c.(type) {
		case *Run:
			v.run(cpath, c)
		case *Hyperlink:
			v.rel(cpath, c.RelID, relTypeHyperlink)
			for j, r := range c.Runs {
				v.run(fmt.Sprintf("%s/run[%d]", cpath, j), r)
			}
		case *Field:
			if c.Instr == "" {
				v.fail(cpath, "field has no instruction")
			}
		case nil:
			v.fail(cpath, "inline is nil")
		}
	}
}

func (v *validator) run(path string, r *Run) {
	if r == nil {
		v.fail(path, "run is nil")
		return
	}
	for _, item := range r.Items {
		if d, ok := item.(*Drawing); ok {
			v.rel(path, d.RelID, relTypeImage)
			if d.WidthEMU <= 0 || d.HeightEMU <= 0 {
				v.fail(path, "drawing has no extent")
			}
		}
	}
}

func (v *validator) table(path string, t *Table) {
	if len(t.Grid) == 0 {
		v.fail(path, "table has no grid columns")
	}
	if len(t.Rows) == 0 {
		v.fail(path, "table has no rows")
	}
	for i, row := range t.Rows {
		rpath := fmt.Sprintf("%s/row[%d]", path, i)
		if len(row.Cells) == 0 {
			v.fail(rpath, "row has no cells")
		}
		for j, cell := range row.Cells {
			cpath := fmt.Sprintf("%s/cell[%d]", rpath, j)
			hasParagraph := false
			for k, b := range cell.Blocks {
				if _, ok := b.(*Paragraph); ok {
					hasParagraph = true
				}
				v.block(fmt.Sprintf("%s/block[%d]", cpath, k), b)
			}
			if !hasParagraph {
				v.fail(cpath, "cell must contain a paragraph")
			}
		}
	}
}
