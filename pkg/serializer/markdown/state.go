package markdown

import (
	"regexp"
	"strings"

	"github.com/hashicorp-forge/hermes-export/pkg/doctree"
	"github.com/hashicorp-forge/hermes-export/pkg/serializer"
	"github.com/hashicorp/go-hclog"
)

// state accumulates Markdown for one export. Blocks do not write their
// trailing separator; they mark themselves closed and the next write decides
// how many newlines (and which delimiters) separate the two.
type state struct {
	reg    *serializer.Registry[*state, markSpec]
	logger hclog.Logger
	out    strings.Builder

	// delim is prefixed to every line of the current block (blockquote
	// markers, list indentation).
	delim string

	// closed is the type of the block waiting to be separated from the next
	// write, or "" if none.
	closed doctree.NodeType

	// lineStart is the output length at which the current line's content
	// begins, just past its delimiters.
	lineStart int

	// inline is set while the children of an inline container are rendered.
	inline bool

	inTightList bool
	tightLists  bool
}

func newState(reg *serializer.Registry[*state, markSpec], tightLists bool, logger hclog.Logger) *state {
	return &state{reg: reg, logger: logger, tightLists: tightLists}
}

// decodeAttrs decodes the attributes of n into out. Attributes that do not
// decode leave out at its zero value.
func (s *state) decodeAttrs(n *doctree.Node, out any) {
	if err := n.DecodeAttrs(out); err != nil {
		s.logger.Debug("ignoring malformed attributes", "type", n.Type, "error", err)
	}
}

// atBlank reports whether the output is empty or ends in a newline.
func (s *state) atBlank() bool {
	str := s.out.String()
	return str == "" || strings.HasSuffix(str, "\n")
}

func (s *state) ensureNewLine() {
	if !s.atBlank() {
		s.out.WriteByte('\n')
	}
}

// flushClose writes the separator owed by the last closed block: a newline
// plus size-1 delimiter-only lines.
func (s *state) flushClose(size int) {
	if s.closed == "" {
		return
	}
	if !s.atBlank() {
		s.out.WriteByte('\n')
	}
	if size > 1 {
		delimMin := strings.TrimRight(s.delim, " \t")
		for i := 1; i < size; i++ {
			s.out.WriteString(delimMin)
			s.out.WriteByte('\n')
		}
	}
	s.closed = ""
}

// write flushes any pending block separator, prefixes the line delimiter at
// the start of a line, then appends content.
func (s *state) write(content string) {
	s.flushClose(2)
	if s.atBlank() {
		s.out.WriteString(s.delim)
		s.lineStart = s.out.Len()
	}
	s.out.WriteString(content)
}

// atLineStart reports whether the next write begins a line's content.
func (s *state) atLineStart() bool {
	return s.atBlank() || s.closed != "" || s.out.Len() == s.lineStart
}

func (s *state) closeBlock(n *doctree.Node) {
	s.closed = n.Type
}

// wrapBlock renders f with delim prefixed to every line. firstDelim, when
// non-empty, replaces delim on the first line.
func (s *state) wrapBlock(delim, firstDelim string, n *doctree.Node, f func() error) error {
	old := s.delim
	if firstDelim == "" {
		firstDelim = delim
	}
	s.write(firstDelim)
	s.lineStart = s.out.Len()
	s.delim += delim
	err := f()
	s.delim = old
	s.closeBlock(n)
	return err
}

// text writes text line by line so that every line receives the current
// delimiter. With escape set, Markdown syntax characters are escaped.
func (s *state) text(text string, escape bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		startOfLine := s.atLineStart()
		s.write("")
		if escape {
			line = esc(line, startOfLine)
		}
		s.out.WriteString(line)
		if i != len(lines)-1 {
			s.out.WriteByte('\n')
		}
	}
}

func (s *state) render(n, parent *doctree.Node, index int) error {
	return s.reg.Emit(s, n, parent, index)
}

func (s *state) renderContent(parent *doctree.Node) error {
	return s.reg.EmitChildren(s, parent)
}

// renderList renders the items of a list container. prefix returns the
// marker of item i.
func (s *state) renderList(n *doctree.Node, delim string, prefix func(i int) string) error {
	if s.closed != "" && s.closed == n.Type {
		// Two adjacent lists of the same kind would merge into one.
		s.flushClose(3)
	} else if s.inTightList {
		s.flushClose(1)
	}

	prevTight := s.inTightList
	s.inTightList = s.tightLists
	defer func() { s.inTightList = prevTight }()

	for i, child := range n.Content {
		if i > 0 && s.tightLists {
			s.flushClose(1)
		}
		err := s.wrapBlock(delim, prefix(i), n, func() error {
			return s.render(child, n, i)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

var (
	escapeChars    = regexp.MustCompile("[`*\\\\~\\[\\]_]")
	lineStartMark  = regexp.MustCompile(`^(\+[ ]|[\-*>])`)
	lineStartHead  = regexp.MustCompile(`^(\s*)(#{1,6})(\s|$)`)
	lineStartOrder = regexp.MustCompile(`^(\s*\d+)([.)])(\s)`)
	lineStartHTML  = regexp.MustCompile(`^(\s*)<`)
)

// esc escapes Markdown syntax in s. Intraword underscores are left alone.
// startOfLine additionally escapes characters that would start a block.
func esc(str string, startOfLine bool) string {
	var sb strings.Builder
	last := 0
	for _, loc := range escapeChars.FindAllStringIndex(str, -1) {
		i := loc[0]
		sb.WriteString(str[last:i])
		if str[i] == '_' && i > 0 && i+1 < len(str) && isWord(str[i-1]) && isWord(str[i+1]) {
			sb.WriteByte('_')
		} else {
			sb.WriteByte('\\')
			sb.WriteByte(str[i])
		}
		last = loc[1]
	}
	sb.WriteString(str[last:])
	out := sb.String()

	if startOfLine {
		out = lineStartMark.ReplaceAllString(out, `\$1`)
		out = lineStartHead.ReplaceAllString(out, `$1\$2$3`)
		out = lineStartOrder.ReplaceAllString(out, `${1}\${2}${3}`)
		out = lineStartHTML.ReplaceAllString(out, `$1\<`)
		out = indentEntity(out)
	}
	return out
}

// indentEntity replaces the first character of leading indentation with a
// character reference so the line is not read as an indented code block.
func indentEntity(line string) string {
	switch {
	case strings.HasPrefix(line, " "):
		return "&#32;" + line[1:]
	case strings.HasPrefix(line, "\t"):
		return "&#9;" + line[1:]
	default:
		return line
	}
}

func isWord(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func repeat(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, n)
}
