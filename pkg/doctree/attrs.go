package doctree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// HeadingAttrs are the attributes of heading nodes.
type HeadingAttrs struct {
	Level int `attr:"level"`
}

// OrderedListAttrs are the attributes of orderedList nodes.
type OrderedListAttrs struct {
	Start int `attr:"start"`
}

// CodeBlockAttrs are the attributes of codeBlock nodes.
type CodeBlockAttrs struct {
	Language string `attr:"language"`
}

// KatexAttrs are the attributes of katex nodes. Text holds the LaTeX source.
type KatexAttrs struct {
	Text string `attr:"text"`
}

// ImageAttrs are the attributes of image nodes. Width and Height are kept as
// strings because the editor stores both numbers and CSS lengths ("320px").
type ImageAttrs struct {
	Src    string `attr:"src"`
	Alt    string `attr:"alt"`
	Title  string `attr:"title"`
	Width  string `attr:"width"`
	Height string `attr:"height"`
}

// TaskItemAttrs are the attributes of taskItem nodes.
type TaskItemAttrs struct {
	Checked bool `attr:"checked"`
}

// CellAttrs are the attributes of tableCell and tableHeader nodes.
type CellAttrs struct {
	Colspan  int   `attr:"colspan"`
	Rowspan  int   `attr:"rowspan"`
	Colwidth []int `attr:"colwidth"`
}

// LinkAttrs are the attributes of link marks.
type LinkAttrs struct {
	Href  string `attr:"href"`
	Title string `attr:"title"`
}

// DecodeAttrs decodes the node attributes into out, which must be a pointer
// to a struct tagged with `attr`. Numbers, strings and booleans are converted
// weakly, matching how loosely the editor types its attributes.
func (n *Node) DecodeAttrs(out any) error {
	return decodeAttrs(n.Attrs, out)
}

// DecodeAttrs decodes the mark attributes into out.
func (m Mark) DecodeAttrs(out any) error {
	return decodeAttrs(m.Attrs, out)
}

func decodeAttrs(attrs map[string]any, out any) error {
	if len(attrs) == 0 {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "attr",
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create attrs decoder: %w", err)
	}

	if err := dec.Decode(attrs); err != nil {
		return fmt.Errorf("failed to decode attrs: %w", err)
	}
	return nil
}

// Pixels parses an editor length ("320", "320px", "320.5") into pixels.
// Percentages and empty values report ok=false.
func Pixels(length string) (float64, bool) {
	s := strings.TrimSpace(length)
	s = strings.TrimSuffix(s, "px")
	if s == "" || strings.HasSuffix(s, "%") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// HeadingLevel returns the heading level clamped to 1..6.
func (n *Node) HeadingLevel() int {
	var attrs HeadingAttrs
	_ = n.DecodeAttrs(&attrs)
	switch {
	case attrs.Level < 1:
		return 1
	case attrs.Level > 6:
		return 6
	default:
		return attrs.Level
	}
}

// ListStart returns the first number of an ordered list, defaulting to 1.
func (n *Node) ListStart() int {
	var attrs OrderedListAttrs
	_ = n.DecodeAttrs(&attrs)
	if attrs.Start < 1 {
		return 1
	}
	return attrs.Start
}
