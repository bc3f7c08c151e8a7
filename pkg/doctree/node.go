package doctree

import "strings"

// SchemaVersion is the version of the node and mark vocabulary below. Adding a
// node type bumps it and requires one dispatch entry per export format.
const SchemaVersion = 1

// NodeType tags a node. The vocabulary is closed; see Vocabulary.
type NodeType string

const (
	TypeDoc              NodeType = "doc"
	TypeTitle            NodeType = "title"
	TypeParagraph        NodeType = "paragraph"
	TypeHeading          NodeType = "heading"
	TypeBlockquote       NodeType = "blockquote"
	TypeBulletList       NodeType = "bulletList"
	TypeOrderedList      NodeType = "orderedList"
	TypeListItem         NodeType = "listItem"
	TypeTaskList         NodeType = "taskList"
	TypeTaskItem         NodeType = "taskItem"
	TypeTableOfContents  NodeType = "tableOfContents"
	TypeDocumentChildren NodeType = "documentChildren"
	TypeHorizontalRule   NodeType = "horizontalRule"
	TypeCodeBlock        NodeType = "codeBlock"
	TypeHardBreak        NodeType = "hardBreak"
	TypeKatex            NodeType = "katex"
	TypeText             NodeType = "text"
	TypeImage            NodeType = "image"
	TypeTable            NodeType = "table"
	TypeTableRow         NodeType = "tableRow"
	TypeTableHeader      NodeType = "tableHeader"
	TypeTableCell        NodeType = "tableCell"
)

// MarkType tags an inline formatting span.
type MarkType string

const (
	MarkBold        MarkType = "bold"
	MarkItalic      MarkType = "italic"
	MarkUnderline   MarkType = "underline"
	MarkStrike      MarkType = "strike"
	MarkCode        MarkType = "code"
	MarkLink        MarkType = "link"
	MarkSubscript   MarkType = "subscript"
	MarkSuperscript MarkType = "superscript"
	MarkHighlight   MarkType = "highlight"
)

var (
	nodeVocabulary = []NodeType{
		TypeDoc, TypeTitle, TypeParagraph, TypeHeading, TypeBlockquote,
		TypeBulletList, TypeOrderedList, TypeListItem, TypeTaskList, TypeTaskItem,
		TypeTableOfContents, TypeDocumentChildren, TypeHorizontalRule,
		TypeCodeBlock, TypeHardBreak, TypeKatex, TypeText, TypeImage,
		TypeTable, TypeTableRow, TypeTableHeader, TypeTableCell,
	}

	markVocabulary = []MarkType{
		MarkBold, MarkItalic, MarkUnderline, MarkStrike, MarkCode, MarkLink,
		MarkSubscript, MarkSuperscript, MarkHighlight,
	}

	// inline nodes may carry marks; everything else in the vocabulary is a
	// block or container.
	inlineTypes = map[NodeType]bool{
		TypeText:      true,
		TypeImage:     true,
		TypeHardBreak: true,
		TypeKatex:     true,
	}

	atomicTypes = map[NodeType]bool{
		TypeText:           true,
		TypeImage:          true,
		TypeHardBreak:      true,
		TypeKatex:          true,
		TypeHorizontalRule: true,
	}

	// textblocks hold inline content directly.
	textblockTypes = map[NodeType]bool{
		TypeTitle:     true,
		TypeParagraph: true,
		TypeHeading:   true,
		TypeCodeBlock: true,
	}
)

// Vocabulary returns the node types of the current schema version.
func Vocabulary() []NodeType {
	out := make([]NodeType, len(nodeVocabulary))
	copy(out, nodeVocabulary)
	return out
}

// MarkVocabulary returns the mark types of the current schema version.
func MarkVocabulary() []MarkType {
	out := make([]MarkType, len(markVocabulary))
	copy(out, markVocabulary)
	return out
}

// Known reports whether t belongs to the vocabulary.
func (t NodeType) Known() bool {
	for _, v := range nodeVocabulary {
		if v == t {
			return true
		}
	}
	return false
}

// Inline reports whether nodes of this type live inside textblocks.
func (t NodeType) Inline() bool { return inlineTypes[t] }

// Atomic reports whether nodes of this type never have content.
func (t NodeType) Atomic() bool { return atomicTypes[t] }

// Textblock reports whether nodes of this type hold inline content.
func (t NodeType) Textblock() bool { return textblockTypes[t] }

// Known reports whether t belongs to the mark vocabulary.
func (t MarkType) Known() bool {
	for _, v := range markVocabulary {
		if v == t {
			return true
		}
	}
	return false
}

// Node is one element of a document tree.
type Node struct {
	Type    NodeType       `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []*Node        `json:"content,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
	Text    string         `json:"text,omitempty"`
}

// Mark is an inline formatting annotation on an inline node.
type Mark struct {
	Type  MarkType       `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Attr returns the named attribute, or nil.
func (n *Node) Attr(name string) any {
	if n == nil || n.Attrs == nil {
		return nil
	}
	return n.Attrs[name]
}

// StringAttr returns the named attribute if it is a string.
func (n *Node) StringAttr(name string) string {
	s, _ := n.Attr(name).(string)
	return s
}

// HasMark reports whether the node carries a mark of type t.
func (n *Node) HasMark(t MarkType) bool {
	for _, m := range n.Marks {
		if m.Type == t {
			return true
		}
	}
	return false
}

// TextContent returns the concatenated text of the node and its descendants.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	if n.Type == TypeText {
		return n.Text
	}
	var sb strings.Builder
	for _, child := range n.Content {
		sb.WriteString(child.TextContent())
	}
	return sb.String()
}

// StringAttr returns the named mark attribute if it is a string.
func (m Mark) StringAttr(name string) string {
	if m.Attrs == nil {
		return ""
	}
	s, _ := m.Attrs[name].(string)
	return s
}

// Constructors used by callers that build trees in code.

// Doc returns a document root.
func Doc(content ...*Node) *Node {
	return &Node{Type: TypeDoc, Content: content}
}

// Title returns a title node holding text.
func Title(text string) *Node {
	return &Node{Type: TypeTitle, Content: []*Node{Text(text)}}
}

// Paragraph returns a paragraph node.
func Paragraph(content ...*Node) *Node {
	return &Node{Type: TypeParagraph, Content: content}
}

// Heading returns a heading node of the given level.
func Heading(level int, content ...*Node) *Node {
	return &Node{Type: TypeHeading, Attrs: map[string]any{"level": level}, Content: content}
}

// Text returns a text node with optional marks.
func Text(text string, marks ...Mark) *Node {
	return &Node{Type: TypeText, Text: text, Marks: marks}
}

// Image returns an image node referencing src.
func Image(src string) *Node {
	return &Node{Type: TypeImage, Attrs: map[string]any{"src": src}}
}

// M returns a mark without attributes.
func M(t MarkType) Mark {
	return Mark{Type: t}
}
