package markdown

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hashicorp-forge/hermes-export/pkg/doctree"
)

// markSpec describes how a mark is written. Marks are nested by rank, lowest
// rank outermost, so the output does not depend on the order marks were
// applied in the editor.
type markSpec struct {
	rank  int
	open  func(m doctree.Mark) string
	close func(m doctree.Mark) string

	// code spans are written raw and sized to their content.
	code bool
}

func delimited(rank int, open, close string) markSpec {
	return markSpec{
		rank:  rank,
		open:  func(doctree.Mark) string { return open },
		close: func(doctree.Mark) string { return close },
	}
}

type openMark struct {
	mark  doctree.Mark
	spec  markSpec
	close string
}

// renderInline writes the inline children of parent, opening and closing
// mark delimiters so that adjacent children sharing a mark form a single
// span and whitespace at span edges stays outside the delimiters.
func (s *state) renderInline(parent *doctree.Node) error {
	outer := s.inline
	s.inline = true
	defer func() { s.inline = outer }()

	var active []openMark
	trailing := ""

	for i, child := range parent.Content {
		marks, err := s.sortedMarks(child)
		if err != nil {
			return err
		}

		lead, inner, trail := "", child.Text, ""
		isText := child.Type == doctree.TypeText
		if isText && len(marks) > 0 && !hasCode(marks) {
			lead, inner, trail = splitSpace(child.Text)
			if inner == "" {
				// Whitespace alone neither opens nor continues a span.
				marks = marks[:commonPrefix(active, marks)]
			}
		}

		keep := commonPrefix(active, marks)
		for j := len(active) - 1; j >= keep; j-- {
			s.write(active[j].close)
		}
		active = active[:keep]

		if trailing != "" {
			s.text(trailing, false)
			trailing = ""
		}
		if lead != "" {
			s.text(lead, false)
		}

		for _, m := range marks[keep:] {
			spec, _ := s.reg.MarkFor(m.Type)
			om := openMark{mark: m, spec: spec, close: spec.close(m)}
			open := spec.open(m)
			if spec.code {
				open, om.close = codeDelims(codeSpanText(parent.Content[i:]))
			}
			s.write(open)
			active = append(active, om)
		}

		switch {
		case isText && hasCode(marks):
			s.text(inner, false)
		case isText:
			s.text(inner, true)
		default:
			if err := s.render(child, parent, i); err != nil {
				return err
			}
		}
		trailing = trail
	}

	for j := len(active) - 1; j >= 0; j-- {
		s.write(active[j].close)
	}
	if trailing != "" {
		s.text(trailing, false)
	}
	return nil
}

func (s *state) sortedMarks(n *doctree.Node) ([]doctree.Mark, error) {
	if len(n.Marks) == 0 {
		return nil, nil
	}
	marks := make([]doctree.Mark, len(n.Marks))
	copy(marks, n.Marks)
	ranks := make(map[doctree.MarkType]int, len(marks))
	for _, m := range marks {
		spec, err := s.reg.MarkFor(m.Type)
		if err != nil {
			return nil, err
		}
		ranks[m.Type] = spec.rank
	}
	sort.SliceStable(marks, func(i, j int) bool {
		return ranks[marks[i].Type] < ranks[marks[j].Type]
	})
	return marks, nil
}

// commonPrefix returns how many leading marks of active are continued by
// marks.
func commonPrefix(active []openMark, marks []doctree.Mark) int {
	n := 0
	for n < len(active) && n < len(marks) && sameMark(active[n].mark, marks[n]) {
		n++
	}
	return n
}

func sameMark(a, b doctree.Mark) bool {
	if a.Type != b.Type {
		return false
	}
	if a.Type == doctree.MarkLink {
		return a.StringAttr("href") == b.StringAttr("href") && a.StringAttr("title") == b.StringAttr("title")
	}
	return true
}

func hasCode(marks []doctree.Mark) bool {
	for _, m := range marks {
		if m.Type == doctree.MarkCode {
			return true
		}
	}
	return false
}

// codeSpanText returns the text of the code span starting at nodes[0].
func codeSpanText(nodes []*doctree.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		if !n.HasMark(doctree.MarkCode) {
			break
		}
		sb.WriteString(n.Text)
	}
	return sb.String()
}

// codeDelims returns backtick delimiters one longer than the longest
// backtick run in text, padded when text touches a backtick.
func codeDelims(text string) (open, close string) {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	ticks := strings.Repeat("`", longest+1)
	if strings.HasPrefix(text, "`") || strings.HasSuffix(text, "`") {
		return ticks + " ", " " + ticks
	}
	return ticks, ticks
}

// splitSpace separates leading and trailing whitespace from text.
func splitSpace(text string) (lead, inner, trail string) {
	inner = strings.TrimLeftFunc(text, unicode.IsSpace)
	lead = text[:len(text)-len(inner)]
	trimmed := strings.TrimRightFunc(inner, unicode.IsSpace)
	trail = inner[len(trimmed):]
	return lead, trimmed, trail
}

func linkOpen(doctree.Mark) string { return "[" }

func linkClose(m doctree.Mark) string {
	var attrs doctree.LinkAttrs
	_ = m.DecodeAttrs(&attrs)
	href := strings.NewReplacer("(", `\(`, ")", `\)`, `"`, `\"`, " ", "%20").Replace(attrs.Href)
	if attrs.Title != "" {
		return "](" + href + ` "` + strings.ReplaceAll(attrs.Title, `"`, `\"`) + `")`
	}
	return "](" + href + ")"
}
