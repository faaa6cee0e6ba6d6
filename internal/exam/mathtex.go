package exam

import (
	"encoding/base64"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MathMode selects how embedded math is emitted.
type MathMode int

const (
	// MathPassthrough rewrites math as \( \) / \[ \] LaTeX for pandoc.
	MathPassthrough MathMode = iota
	// MathImage replaces math with inline PNG data URIs.
	MathImage
)

func (m MathMode) String() string {
	if m == MathImage {
		return "image"
	}
	return "passthrough"
}


var errNoRasterizer = errors.New("no rasterizer configured")

var skipMathScan = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Code:     true,
	atom.Pre:      true,
	atom.Textarea: true,
}

// Normalizer finds math in rich-text HTML and rewrites it for a target renderer.
type Normalizer struct {
	raster Rasterizer
}

func NewNormalizer(r Rasterizer) *Normalizer {
	return &Normalizer{raster: r}
}

// Normalize returns the fragment's body markup with every recognized math
// expression rewritten according to mode. Expressions that fail to rasterize
// are left as their literal source.
func (n *Normalizer) Normalize(fragment string, mode MathMode) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return fragment, nil
	}
	root, err := parseFragment(fragment)
	if err != nil {
		return "", err
	}
	n.walk(root, mode)
	return renderChildren(root)
}

func (n *Normalizer) walk(node *html.Node, mode MathMode) {
	for c := node.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.TextNode:
			n.rewriteText(c, mode)
		case html.ElementNode:
			switch {
			case c.DataAtom == atom.Span && hasClass(c, "math-tex"):
				n.rewriteMathSpan(c, mode)
			case c.DataAtom == atom.Script && isMathScript(c):
				n.rewriteMathScript(c, mode)
			case skipMathScan[c.DataAtom]:
			default:
				n.walk(c, mode)
			}
		}
		c = next
	}
}

func isMathScript(n *html.Node) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(attr(n, "type"))), "math/tex")
}

func (n *Normalizer) rewriteMathSpan(span *html.Node, mode MathMode) {
	literal := strings.TrimSpace(textContent(span))
	inner := strings.TrimSpace(StripDelimiters(literal))
	if inner == "" {
		return
	}
	display := isSoleBlockChild(span)
	if mode == MathPassthrough {
		replaceNode(span, textNode(wrapLatex(inner, display)))
		return
	}
	replaceNode(span, n.imageOrLiteral(inner, literal))
}

func (n *Normalizer) rewriteMathScript(script *html.Node, mode MathMode) {
	inner := strings.TrimSpace(StripDelimiters(textContent(script)))
	if inner == "" {
		return
	}
	display := strings.Contains(strings.ToLower(attr(script, "type")), "display")
	literal := wrapLatex(inner, display)
	if mode == MathPassthrough {
		replaceNode(script, textNode(literal))
		return
	}
	replaceNode(script, n.imageOrLiteral(inner, literal))
}

func (n *Normalizer) rewriteText(t *html.Node, mode MathMode) {
	locs := findMath(t.Data)
	if len(locs) == 0 {
		return
	}

	if mode == MathPassthrough {
		var b strings.Builder
		last := 0
		for _, loc := range locs {
			m := t.Data[loc[0]:loc[1]]
			b.WriteString(t.Data[last:loc[0]])
			b.WriteString(wrapLatex(strings.TrimSpace(StripDelimiters(m)), isDisplayDelimited(m)))
			last = loc[1]
		}
		b.WriteString(t.Data[last:])
		t.Data = b.String()
		return
	}

	var repl []*html.Node
	last := 0
	for _, loc := range locs {
		if loc[0] > last {
			repl = append(repl, textNode(t.Data[last:loc[0]]))
		}
		src := t.Data[loc[0]:loc[1]]
		repl = append(repl, n.imageOrLiteral(StripDelimiters(src), src))
		last = loc[1]
	}
	if last < len(t.Data) {
		repl = append(repl, textNode(t.Data[last:]))
	}
	replaceNode(t, repl...)
}

// findMath returns the [start, end) offsets of every delimited expression in
// s. Single dollars follow pandoc's tex_math_dollars rule, so currency such
// as "R$ 5,00 e R$ 10,00" stays text.
func findMath(s string) [][2]int {
	var locs [][2]int
	for i := 0; i < len(s); {
		end := -1
		switch {
		case strings.HasPrefix(s[i:], `\$`):
			i += 2
			continue
		case strings.HasPrefix(s[i:], `\[`):
			end = closeAfter(s, i+2, `\]`)
		case strings.HasPrefix(s[i:], `\(`):
			end = closeAfter(s, i+2, `\)`)
		case strings.HasPrefix(s[i:], "$$"):
			end = closeAfter(s, i+2, "$$")
		case s[i] == '$':
			end = closeDollar(s, i)
		}
		if end < 0 {
			i++
			continue
		}
		locs = append(locs, [2]int{i, end})
		i = end
	}
	return locs
}

// closeAfter returns the offset just past the first delim after a non-blank
// body starting at from, or -1.
func closeAfter(s string, from int, delim string) int {
	j := strings.Index(s[from:], delim)
	if j < 0 || strings.TrimSpace(s[from:from+j]) == "" {
		return -1
	}
	return from + j + len(delim)
}

// closeDollar matches a single-dollar expression opened at i: the opening $
// needs a non-space after it, the closing $ a non-space before it and no
// digit after it.
func closeDollar(s string, i int) int {
	if i+1 >= len(s) {
		return -1
	}
	if r, _ := utf8.DecodeRuneInString(s[i+1:]); unicode.IsSpace(r) || r == '$' {
		return -1
	}
	for j := i + 2; j < len(s); j++ {
		if s[j] != '$' {
			continue
		}
		prev, _ := utf8.DecodeLastRuneInString(s[:j])
		if unicode.IsSpace(prev) || prev == '\\' {
			continue
		}
		if j+1 < len(s) && s[j+1] >= '0' && s[j+1] <= '9' {
			continue
		}
		return j + 1
	}
	return -1
}

func (n *Normalizer) imageOrLiteral(inner, literal string) *html.Node {
	img, err := n.mathImage(inner)
	if err != nil {
		return textNode(literal)
	}
	return img
}

func (n *Normalizer) mathImage(inner string) (*html.Node, error) {
	if n.raster == nil {
		return nil, errNoRasterizer
	}
	data, err := n.raster.Rasterize(`\(` + strings.TrimSpace(inner) + `\)`)
	if err != nil {
		return nil, err
	}
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "img",
		DataAtom: atom.Img,
		Attr: []html.Attribute{
			{Key: "alt", Val: "math"},
			{Key: "style", Val: "vertical-align: middle;"},
			{Key: "src", Val: "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)},
		},
	}, nil
}

// Raw text keeps the display style its author chose.
func isDisplayDelimited(m string) bool {
	return strings.HasPrefix(m, "$$") || strings.HasPrefix(m, `\[`)
}

func wrapLatex(inner string, display bool) string {
	if display {
		return `\[` + inner + `\]`
	}
	return `\(` + inner + `\)`
}
