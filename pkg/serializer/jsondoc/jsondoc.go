// Package jsondoc serializes document trees as canonical JSON in the editor's
// own schema, without transient editor state.
package jsondoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp-forge/hermes-export/pkg/doctree"
	"github.com/hashicorp-forge/hermes-export/pkg/exporterr"
	"github.com/hashicorp-forge/hermes-export/pkg/serializer"
	"github.com/hashicorp/go-hclog"
)

// Format is the format name the serializer registers under.
const Format = "json"

// transientAttrs are attributes written by the collaboration and selection
// plugins. They describe the live editing session, not the document.
var transientAttrs = map[string]bool{
	"ychange":   true,
	"selection": true,
	"cursor":    true,
}

// IsTransient reports whether the attribute key is editor-only state.
func IsTransient(key string) bool {
	return transientAttrs[key] || strings.HasPrefix(key, "_")
}

type markFunc func(m doctree.Mark) map[string]any

// state collects the JSON value of the node being emitted into the content
// slice of its parent.
type state struct {
	reg     *serializer.Registry[*state, markFunc]
	content []any
}

// Serializer renders document trees as JSON.
type Serializer struct {
	reg    *serializer.Registry[*state, markFunc]
	logger hclog.Logger
	indent string
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(s *Serializer) {
		s.logger = l
	}
}

// WithIndent sets the indentation of the output. An empty string produces
// compact JSON.
func WithIndent(indent string) Option {
	return func(s *Serializer) {
		s.indent = indent
	}
}

// New returns a JSON serializer. Output is indented with two spaces unless
// configured otherwise.
func New(opts ...Option) *Serializer {
	s := &Serializer{
		reg:    newRegistry(),
		logger: hclog.NewNullLogger(),
		indent: "  ",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named(Format)
	return s
}

// Format implements serializer.Serializer.
func (s *Serializer) Format() string {
	return Format
}

// Check implements serializer.Serializer.
func (s *Serializer) Check(root *doctree.Node) error {
	return s.reg.Check(root)
}

// Serialize implements serializer.Serializer. Object keys are sorted and HTML
// characters are not escaped, so equal trees produce identical bytes.
func (s *Serializer) Serialize(in serializer.Input) ([]byte, error) {
	if err := s.Check(in.Root); err != nil {
		return nil, err
	}

	st := &state{reg: s.reg}
	if err := s.reg.Emit(st, in.Root, nil, 0); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", s.indent)
	if err := enc.Encode(st.content[0]); err != nil {
		return nil, exporterr.Wrap("Serialize", exporterr.ErrPackageWriteFailure,
			fmt.Errorf("error encoding document: %w", err))
	}

	s.logger.Debug("document serialized", "bytes", buf.Len())
	return buf.Bytes(), nil
}

func newRegistry() *serializer.Registry[*state, markFunc] {
	r := serializer.NewRegistry[*state, markFunc](Format)
	for _, t := range doctree.Vocabulary() {
		r.Node(t, copyNode)
	}
	for _, t := range doctree.MarkVocabulary() {
		r.Mark(t, copyMark)
	}
	return r
}

func copyNode(s *state, n, _ *doctree.Node, _ int) error {
	out := map[string]any{"type": string(n.Type)}
	if attrs := durableAttrs(n.Attrs); len(attrs) > 0 {
		out["attrs"] = attrs
	}
	if n.Type == doctree.TypeText {
		out["text"] = n.Text
	}

	if len(n.Marks) > 0 {
		marks := make([]any, 0, len(n.Marks))
		for _, m := range n.Marks {
			fn, err := s.reg.MarkFor(m.Type)
			if err != nil {
				return err
			}
			marks = append(marks, fn(m))
		}
		out["marks"] = marks
	}

	if len(n.Content) > 0 {
		child := &state{reg: s.reg, content: make([]any, 0, len(n.Content))}
		if err := s.reg.EmitChildren(child, n); err != nil {
			return err
		}
		out["content"] = child.content
	}

	s.content = append(s.content, out)
	return nil
}

func copyMark(m doctree.Mark) map[string]any {
	out := map[string]any{"type": string(m.Type)}
	if attrs := durableAttrs(m.Attrs); len(attrs) > 0 {
		out["attrs"] = attrs
	}
	return out
}

func durableAttrs(attrs map[string]any) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if IsTransient(k) {
			continue
		}
		out[k] = v
	}
	return out
}
