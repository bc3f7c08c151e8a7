package docx

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/hashicorp-forge/hermes-export/pkg/ooxml"
)

// DefaultHighlightStyle is the chroma style used to color code blocks.
const DefaultHighlightStyle = "github"

// highlight splits code into colored runs. Unknown languages are detected
// from the content and fall back to plain text.
func highlight(style *chroma.Style, language, code string) []*ooxml.Run {
	code = strings.TrimRight(code, "\n")
	if code == "" {
		return nil
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return []*ooxml.Run{ooxml.TextRun(code, ooxml.RunProps{})}
	}

	var runs []*ooxml.Run
	for _, tok := range iterator.Tokens() {
		if tok.Value == "" {
			continue
		}
		runs = append(runs, ooxml.TextRun(tok.Value, tokenProps(style, tok.Type)))
	}
	return trimTrailingBreaks(runs)
}

func tokenProps(style *chroma.Style, t chroma.TokenType) ooxml.RunProps {
	if style == nil {
		return ooxml.RunProps{}
	}
	entry := style.Get(t)
	var props ooxml.RunProps
	if entry.Colour.IsSet() {
		props.Color = strings.ToUpper(strings.TrimPrefix(entry.Colour.String(), "#"))
	}
	props.Bold = entry.Bold == chroma.Yes
	props.Italic = entry.Italic == chroma.Yes
	return props
}

// trimTrailingBreaks drops the line breaks lexers append after the last line.
func trimTrailingBreaks(runs []*ooxml.Run) []*ooxml.Run {
	for len(runs) > 0 {
		last := runs[len(runs)-1]
		for len(last.Items) > 0 {
			if _, ok := last.Items[len(last.Items)-1].(ooxml.Break); !ok {
				break
			}
			last.Items = last.Items[:len(last.Items)-1]
		}
		if len(last.Items) > 0 {
			return runs
		}
		runs = runs[:len(runs)-1]
	}
	return runs
}

func highlightStyle(name string) *chroma.Style {
	if name == "" {
		name = DefaultHighlightStyle
	}
	if s := styles.Get(name); s != nil {
		return s
	}
	return styles.Fallback
}
