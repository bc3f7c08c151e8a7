package docx

import (
	"testing"

	"github.com/hashicorp-forge/hermes-export/pkg/ooxml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mt(s string) ooxml.MText    { return ooxml.MText{Text: s} }
func mp(s string) ooxml.MText    { return ooxml.MText{Text: s, Plain: true} }
func ms(e ...ooxml.MathElem) []ooxml.MathElem { return e }

func TestParseLaTeX(t *testing.T) {
	cases := map[string]struct {
		src  string
		want []ooxml.MathElem
	}{
		"letters and operators": {
			src:  "a+b",
			want: ms(mt("a"), mp("+"), mt("b")),
		},
		"numbers": {
			src:  "3.14x",
			want: ms(mp("3.14"), mt("x")),
		},
		"fraction": {
			src:  `\frac{1}{n}`,
			want: ms(ooxml.MFrac{Num: ms(mp("1")), Den: ms(mt("n"))}),
		},
		"superscript takes one token": {
			src:  "x^10",
			want: ms(ooxml.MSup{Base: ms(mt("x")), Sup: ms(mp("1"))}, mp("0")),
		},
		"sub and sup": {
			src:  "x_i^{2}",
			want: ms(ooxml.MSubSup{Base: ms(mt("x")), Sub: ms(mt("i")), Sup: ms(mp("2"))}),
		},
		"square root": {
			src:  `\sqrt{x}`,
			want: ms(ooxml.MRad{Body: ms(mt("x"))}),
		},
		"nth root": {
			src:  `\sqrt[3]{x}`,
			want: ms(ooxml.MRad{Deg: ms(mp("3")), Body: ms(mt("x"))}),
		},
		"sum with limits": {
			src: `\sum_{i=1}^n i`,
			want: ms(ooxml.MNary{
				Char: "∑",
				Sub:  ms(mt("i"), mp("="), mp("1")),
				Sup:  ms(mt("n")),
				Body: ms(mt("i")),
			}),
		},
		"delimiters": {
			src:  `\left( a \rightarrow b \right]`,
			want: ms(ooxml.MDelim{Open: "(", Close: "]", Body: ms(mt("a"), mp("→"), mt("b"))}),
		},
		"greek and functions": {
			src:  `\sin\theta \leq \Omega`,
			want: ms(mp("sin"), mt("θ"), mp("≤"), mp("Ω")),
		},
		"text": {
			src:  `\text{if } x`,
			want: ms(mp("if "), mt("x")),
		},
		"prime": {
			src:  "f'",
			want: ms(ooxml.MSup{Base: ms(mt("f")), Sup: ms(mp("′"))}),
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := parseLaTeX(c.src)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestParseLaTeX_Errors(t *testing.T) {
	for _, src := range []string{
		`\frac{a}`,
		`{a`,
		`a}`,
		`x^`,
		`^2`,
		`x_1_2`,
		`\left( a`,
		`\right)`,
		`\unknown`,
		`a & b`,
		`\`,
	} {
		t.Run(src, func(t *testing.T) {
			_, err := parseLaTeX(src)
			assert.Error(t, err)
		})
	}
}
