package export

import (
	"strings"

	"github.com/hashicorp-forge/hermes-export/pkg/serializer/docx"
	"github.com/hashicorp-forge/hermes-export/pkg/serializer/jsondoc"
	"github.com/hashicorp-forge/hermes-export/pkg/serializer/markdown"
)

// Format names an export format.
type Format string

// Built-in formats.
const (
	FormatMarkdown Format = markdown.Format
	FormatJSON     Format = jsondoc.Format
	FormatDocx     Format = docx.Format
)

var formatAliases = map[string]Format{
	"markdown": FormatMarkdown,
	"md":       FormatMarkdown,
	"json":     FormatJSON,
	"docx":     FormatDocx,
	"package":  FormatDocx,
	"word":     FormatDocx,
}

type formatInfo struct {
	extension string
	mediaType string
}

var formatInfos = map[Format]formatInfo{
	FormatMarkdown: {"md", "text/markdown"},
	FormatJSON:     {"json", "application/json"},
	FormatDocx:     {"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
}

// Formats returns the built-in formats.
func Formats() []Format {
	return []Format{FormatMarkdown, FormatJSON, FormatDocx}
}

// Canonical resolves aliases ("md", "package") to the format they name.
// Unknown names are returned lowercased so custom serializers can match.
func Canonical(f Format) Format {
	name := strings.ToLower(strings.TrimSpace(string(f)))
	if c, ok := formatAliases[name]; ok {
		return c
	}
	return Format(name)
}

// Extension returns the file extension of the format, without the dot.
func (f Format) Extension() string {
	if info, ok := formatInfos[f]; ok {
		return info.extension
	}
	return string(f)
}

// MediaType returns the MIME type of the format.
func (f Format) MediaType() string {
	if info, ok := formatInfos[f]; ok {
		return info.mediaType
	}
	return "application/octet-stream"
}
