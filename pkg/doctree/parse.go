package doctree

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hashicorp-forge/hermes-export/pkg/exporterr"
	"github.com/iancoleman/strcase"
)

// envelopeKey is the key some editor snapshots wrap the document under.
const envelopeKey = "default"

var markAliases = map[string]MarkType{
	"strong":        MarkBold,
	"em":            MarkItalic,
	"strikethrough": MarkStrike,
	"sub":           MarkSubscript,
	"sup":           MarkSuperscript,
}

// Parse decodes the editor's JSON representation of a document into a tree.
//
// Snapshots wrapped as {"default": {...}} are unwrapped. Type names written
// in snake_case ("bullet_list") are normalized to the vocabulary's camelCase
// form, and common mark aliases ("strong", "em") are mapped to their
// canonical names. Unknown types are kept verbatim so that the failure is
// reported by the serializer that cannot handle them.
//
// Invalid JSON is reported as ErrMalformedTree; Parse never substitutes an
// empty document.
func Parse(data []byte) (*Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, exporterr.New("Parse", exporterr.ErrMalformedTree, "empty document")
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, exporterr.Wrap("Parse", exporterr.ErrMalformedTree, err)
	}

	if _, ok := raw["type"]; !ok {
		if inner, ok := raw[envelopeKey].(map[string]any); ok {
			raw = inner
		}
	}

	root, err := fromMap(raw, "doc")
	if err != nil {
		return nil, exporterr.Wrap("Parse", exporterr.ErrMalformedTree, err)
	}
	return root, nil
}

// ParseString is Parse for string input.
func ParseString(s string) (*Node, error) {
	return Parse([]byte(s))
}

func fromMap(m map[string]any, path string) (*Node, error) {
	typ, _ := m["type"].(string)
	if typ == "" {
		return nil, fmt.Errorf("%s: node has no type", path)
	}

	n := &Node{Type: normalizeNodeType(typ)}

	if text, ok := m["text"].(string); ok {
		n.Text = text
	}

	if attrs, ok := m["attrs"].(map[string]any); ok && len(attrs) > 0 {
		n.Attrs = attrs
	}

	if rawMarks, ok := m["marks"].([]any); ok {
		for i, rm := range rawMarks {
			mm, ok := rm.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s: mark %d is not an object", path, i)
			}
			mt, _ := mm["type"].(string)
			mark := Mark{Type: normalizeMarkType(mt)}
			if attrs, ok := mm["attrs"].(map[string]any); ok && len(attrs) > 0 {
				mark.Attrs = attrs
			}
			n.Marks = append(n.Marks, mark)
		}
	}

	if rawContent, ok := m["content"].([]any); ok {
		n.Content = make([]*Node, 0, len(rawContent))
		for i, rc := range rawContent {
			cm, ok := rc.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s: child %d is not an object", path, i)
			}
			child, err := fromMap(cm, fmt.Sprintf("%s/%d", path, i))
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
	}

	return n, nil
}

func normalizeNodeType(s string) NodeType {
	t := NodeType(s)
	if t.Known() {
		return t
	}
	if camel := NodeType(strcase.ToLowerCamel(s)); camel.Known() {
		return camel
	}
	return t
}

func normalizeMarkType(s string) MarkType {
	t := MarkType(s)
	if t.Known() {
		return t
	}
	if alias, ok := markAliases[s]; ok {
		return alias
	}
	if camel := MarkType(strcase.ToLowerCamel(s)); camel.Known() {
		return camel
	}
	return t
}
