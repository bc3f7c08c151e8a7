package docx

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/hashicorp-forge/hermes-export/pkg/ooxml"
)

// parseLaTeX converts the LaTeX subset the editor's math node produces into
// Office Math elements. Callers fall back to the raw source when it fails.
func parseLaTeX(src string) ([]ooxml.MathElem, error) {
	p := &mathParser{src: []rune(src)}
	elems, err := p.seq("")
	if err != nil {
		return nil, err
	}
	return elems, nil
}

type mathParser struct {
	src []rune
	pos int
}

func (p *mathParser) eof() bool { return p.pos >= len(p.src) }

func (p *mathParser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *mathParser) skipSpace() {
	for !p.eof() && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *mathParser) hasPrefix(s string) bool {
	rs := []rune(s)
	if p.pos+len(rs) > len(p.src) {
		return false
	}
	for i, r := range rs {
		if p.src[p.pos+i] != r {
			return false
		}
	}
	return true
}

// atEnd reports whether the input continues with the terminator end. A
// command terminator such as \right must not be the prefix of a longer name.
func (p *mathParser) atEnd(end string) bool {
	if end == "" || !p.hasPrefix(end) {
		return false
	}
	next := p.pos + len([]rune(end))
	if strings.HasPrefix(end, `\`) && next < len(p.src) && unicode.IsLetter(p.src[next]) {
		return false
	}
	return true
}

func (p *mathParser) errorf(format string, args ...any) error {
	return fmt.Errorf("offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

// seq parses elements until end, which is consumed. An empty end means the
// end of input.
func (p *mathParser) seq(end string) ([]ooxml.MathElem, error) {
	var out []ooxml.MathElem
	for {
		p.skipSpace()
		if p.eof() {
			if end != "" {
				return nil, p.errorf("missing %q", end)
			}
			return out, nil
		}
		if p.atEnd(end) {
			p.pos += len([]rune(end))
			return out, nil
		}

		base, err := p.atom(false)
		if err != nil {
			return nil, err
		}
		sub, sup, err := p.scripts()
		if err != nil {
			return nil, err
		}

		if len(base) == 1 {
			if nary, ok := base[0].(ooxml.MNary); ok {
				nary.Sub, nary.Sup = sub, sup
				p.skipSpace()
				if !p.eof() && !p.atEnd(end) {
					body, err := p.atom(false)
					if err != nil {
						return nil, err
					}
					nary.Body = body
				}
				out = append(out, nary)
				continue
			}
		}

		switch {
		case sub != nil && sup != nil:
			out = append(out, ooxml.MSubSup{Base: base, Sub: sub, Sup: sup})
		case sub != nil:
			out = append(out, ooxml.MSub{Base: base, Sub: sub})
		case sup != nil:
			out = append(out, ooxml.MSup{Base: base, Sup: sup})
		default:
			out = append(out, base...)
		}
	}
}

func (p *mathParser) scripts() (sub, sup []ooxml.MathElem, err error) {
	for {
		p.skipSpace()
		switch p.peek() {
		case '_':
			if sub != nil {
				return nil, nil, p.errorf("double subscript")
			}
			p.pos++
			if sub, err = p.argument(); err != nil {
				return nil, nil, err
			}
		case '^':
			if sup != nil {
				return nil, nil, p.errorf("double superscript")
			}
			p.pos++
			if sup, err = p.argument(); err != nil {
				return nil, nil, err
			}
		case '\'':
			p.pos++
			sup = append(sup, ooxml.MText{Text: "′", Plain: true})
		default:
			return sub, sup, nil
		}
	}
}

// argument parses a command argument: a braced group or a single token.
func (p *mathParser) argument() ([]ooxml.MathElem, error) {
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("missing argument")
	}
	elems, err := p.atom(true)
	if err != nil {
		return nil, err
	}
	if elems == nil {
		elems = []ooxml.MathElem{}
	}
	return elems, nil
}

func (p *mathParser) atom(single bool) ([]ooxml.MathElem, error) {
	r := p.peek()
	switch {
	case r == '{':
		p.pos++
		return p.seq("}")
	case r == '}':
		return nil, p.errorf("unbalanced '}'")
	case r == '\\':
		return p.command()
	case r == '^' || r == '_':
		return nil, p.errorf("script without a base")
	case r == '&' || r == '#' || r == '$' || r == '%':
		return nil, p.errorf("unsupported character %q", r)
	case r == '~':
		p.pos++
		return text(" ", true), nil
	case unicode.IsDigit(r):
		start := p.pos
		p.pos++
		for !single && !p.eof() {
			c := p.peek()
			if unicode.IsDigit(c) || (c == '.' && p.pos+1 < len(p.src) && unicode.IsDigit(p.src[p.pos+1])) {
				p.pos++
				continue
			}
			break
		}
		return text(string(p.src[start:p.pos]), true), nil
	case unicode.IsLetter(r):
		p.pos++
		return text(string(r), false), nil
	default:
		p.pos++
		return text(string(r), true), nil
	}
}

func text(s string, plain bool) []ooxml.MathElem {
	return []ooxml.MathElem{ooxml.MText{Text: s, Plain: plain}}
}

func (p *mathParser) commandName() string {
	p.pos++ // backslash
	start := p.pos
	for !p.eof() && unicode.IsLetter(p.peek()) && p.peek() < unicode.MaxASCII {
		p.pos++
	}
	if p.pos == start && !p.eof() {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *mathParser) command() ([]ooxml.MathElem, error) {
	name := p.commandName()
	if name == "" {
		return nil, p.errorf("trailing backslash")
	}

	switch name {
	case "frac", "dfrac", "tfrac":
		num, err := p.argument()
		if err != nil {
			return nil, err
		}
		den, err := p.argument()
		if err != nil {
			return nil, err
		}
		return []ooxml.MathElem{ooxml.MFrac{Num: num, Den: den}}, nil

	case "sqrt":
		var deg []ooxml.MathElem
		p.skipSpace()
		if p.peek() == '[' {
			p.pos++
			var err error
			if deg, err = p.seq("]"); err != nil {
				return nil, err
			}
		}
		body, err := p.argument()
		if err != nil {
			return nil, err
		}
		return []ooxml.MathElem{ooxml.MRad{Deg: deg, Body: body}}, nil

	case "left":
		open, err := p.delimiter()
		if err != nil {
			return nil, err
		}
		body, err := p.seq(`\right`)
		if err != nil {
			return nil, err
		}
		closing, err := p.delimiter()
		if err != nil {
			return nil, err
		}
		return []ooxml.MathElem{ooxml.MDelim{Open: open, Close: closing, Body: body}}, nil

	case "right":
		return nil, p.errorf(`\right without \left`)

	case "text", "textrm", "mathrm", "operatorname", "textit", "mbox":
		raw, err := p.rawGroup()
		if err != nil {
			return nil, err
		}
		return text(raw, true), nil

	case "mathbf", "mathit", "mathcal", "mathbb", "boldsymbol", "bm", "displaystyle", "textstyle":
		if name == "displaystyle" || name == "textstyle" {
			return nil, nil
		}
		return p.argument()
	}

	if ch, ok := naryOperators[name]; ok {
		return []ooxml.MathElem{ooxml.MNary{Char: ch}}, nil
	}
	if functionNames[name] {
		return text(name, true), nil
	}
	if sym, ok := mathSymbols[name]; ok {
		return text(sym, !greekLetters[name]), nil
	}
	return nil, p.errorf(`unsupported command \%s`, name)
}

func (p *mathParser) delimiter() (string, error) {
	p.skipSpace()
	if p.eof() {
		return "", p.errorf("missing delimiter")
	}
	if p.peek() == '\\' {
		name := p.commandName()
		if d, ok := namedDelimiters[name]; ok {
			return d, nil
		}
		return "", p.errorf(`unsupported delimiter \%s`, name)
	}
	r := p.peek()
	p.pos++
	switch r {
	case '.':
		return "", nil
	case '(', ')', '[', ']', '|', '/', '<', '>':
		return string(r), nil
	}
	return "", p.errorf("unsupported delimiter %q", r)
}

// rawGroup returns the verbatim content of a braced group.
func (p *mathParser) rawGroup() (string, error) {
	p.skipSpace()
	if p.peek() != '{' {
		return "", p.errorf("expected '{'")
	}
	p.pos++
	start, depth := p.pos, 1
	for !p.eof() {
		switch p.peek() {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				s := string(p.src[start:p.pos])
				p.pos++
				return s, nil
			}
		}
		p.pos++
	}
	return "", errors.New("unterminated group")
}

var naryOperators = map[string]string{
	"sum":    "∑",
	"prod":   "∏",
	"coprod": "∐",
	"int":    "∫",
	"iint":   "∬",
	"iiint":  "∭",
	"oint":   "∮",
	"bigcup": "⋃",
	"bigcap": "⋂",
}

var functionNames = map[string]bool{
	"sin": true, "cos": true, "tan": true, "cot": true, "sec": true, "csc": true,
	"arcsin": true, "arccos": true, "arctan": true,
	"sinh": true, "cosh": true, "tanh": true,
	"log": true, "ln": true, "lg": true, "exp": true,
	"lim": true, "max": true, "min": true, "sup": true, "inf": true,
	"det": true, "gcd": true, "deg": true, "dim": true, "ker": true, "arg": true, "Pr": true,
}

var greekLetters = map[string]bool{
	"alpha": true, "beta": true, "gamma": true, "delta": true, "epsilon": true,
	"varepsilon": true, "zeta": true, "eta": true, "theta": true, "vartheta": true,
	"iota": true, "kappa": true, "lambda": true, "mu": true, "nu": true, "xi": true,
	"pi": true, "varpi": true, "rho": true, "varrho": true, "sigma": true,
	"varsigma": true, "tau": true, "upsilon": true, "phi": true, "varphi": true,
	"chi": true, "psi": true, "omega": true,
}

var mathSymbols = map[string]string{
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ϵ",
	"varepsilon": "ε", "zeta": "ζ", "eta": "η", "theta": "θ", "vartheta": "ϑ",
	"iota": "ι", "kappa": "κ", "lambda": "λ", "mu": "μ", "nu": "ν", "xi": "ξ",
	"pi": "π", "varpi": "ϖ", "rho": "ρ", "varrho": "ϱ", "sigma": "σ",
	"varsigma": "ς", "tau": "τ", "upsilon": "υ", "phi": "ϕ", "varphi": "φ",
	"chi": "χ", "psi": "ψ", "omega": "ω",
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Xi": "Ξ",
	"Pi": "Π", "Sigma": "Σ", "Upsilon": "Υ", "Phi": "Φ", "Psi": "Ψ", "Omega": "Ω",

	"times": "×", "cdot": "⋅", "div": "÷", "pm": "±", "mp": "∓", "ast": "∗",
	"star": "⋆", "circ": "∘", "bullet": "∙",
	"leq": "≤", "le": "≤", "geq": "≥", "ge": "≥", "neq": "≠", "ne": "≠",
	"approx": "≈", "equiv": "≡", "sim": "∼", "simeq": "≃", "cong": "≅",
	"propto": "∝", "ll": "≪", "gg": "≫",
	"in": "∈", "notin": "∉", "ni": "∋", "subset": "⊂", "subseteq": "⊆",
	"supset": "⊃", "supseteq": "⊇", "cup": "∪", "cap": "∩", "setminus": "∖",
	"emptyset": "∅", "varnothing": "∅",
	"forall": "∀", "exists": "∃", "neg": "¬", "land": "∧", "lor": "∨",
	"wedge": "∧", "vee": "∨",
	"to": "→", "rightarrow": "→", "leftarrow": "←", "gets": "←",
	"Rightarrow": "⇒", "Leftarrow": "⇐", "leftrightarrow": "↔",
	"Leftrightarrow": "⇔", "iff": "⟺", "implies": "⟹", "mapsto": "↦",
	"infty": "∞", "partial": "∂", "nabla": "∇", "hbar": "ℏ", "ell": "ℓ",
	"prime": "′", "degree": "°", "angle": "∠", "perp": "⊥", "parallel": "∥",
	"cdots": "⋯", "ldots": "…", "dots": "…", "vdots": "⋮", "ddots": "⋱",
	"langle": "⟨", "rangle": "⟩", "lfloor": "⌊", "rfloor": "⌋",
	"lceil": "⌈", "rceil": "⌉", "vert": "|", "mid": "∣",

	"{": "{", "}": "}", "%": "%", "$": "$", "&": "&", "#": "#", "_": "_",
	"|": "‖", ",": " ", ";": " ", ":": " ", "quad": " ", "qquad": "  ",
	" ": " ", "!": "", "\\": " ",
}

var namedDelimiters = map[string]string{
	"{": "{", "}": "}", "|": "‖",
	"langle": "⟨", "rangle": "⟩",
	"lvert": "|", "rvert": "|", "vert": "|",
	"lVert": "‖", "rVert": "‖", "Vert": "‖",
	"lfloor": "⌊", "rfloor": "⌋", "lceil": "⌈", "rceil": "⌉",
}
