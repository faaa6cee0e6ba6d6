package exam

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"strings"

	"github.com/go-latex/latex"
	"github.com/go-latex/latex/ast"
	"github.com/go-latex/latex/drawtex"
	"github.com/go-latex/latex/drawtex/drawimg"
	"github.com/go-latex/latex/font"
	"github.com/go-latex/latex/font/ttf"
	"github.com/go-latex/latex/mtex"
	"github.com/go-latex/latex/tex"
)

const (
	DefaultMathDPI      = 200
	DefaultMathFontSize = 14
)

// Scripts and fraction parts are set one size level down.
const scriptScale = 0.7

// Rasterizer renders one LaTeX expression to PNG bytes.
type Rasterizer interface {
	Rasterize(latex string) ([]byte, error)
}

// MathRasterizer renders expressions with the mtex engine. Superscripts,
// subscripts and punctuation, which mtex cannot lay out, are placed by
// mathLayout.
type MathRasterizer struct {
	DPI      float64
	FontSize float64
}

func NewMathRasterizer(dpi, fontSize float64) *MathRasterizer {
	if dpi <= 0 {
		dpi = DefaultMathDPI
	}
	if fontSize <= 0 {
		fontSize = DefaultMathFontSize
	}
	return &MathRasterizer{DPI: dpi, FontSize: fontSize}
}

func (r *MathRasterizer) Rasterize(expr string) (out []byte, err error) {
	inner := strings.TrimSpace(StripDelimiters(expr))
	if inner == "" {
		return nil, fmt.Errorf("empty math expression")
	}

	// the latex parser and mtex panic on malformed input instead of returning an error
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("render %q: %v", inner, rec)
		}
	}()

	src := "$" + inner + "$"
	tree, err := latex.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", inner, err)
	}

	canvas := drawtex.New()
	l := &mathLayout{be: ttf.New(canvas)}

	var box tex.Node
	if needsLayout(tree) {
		box = l.list(flattenMath(tree), r.FontSize)
	} else {
		box, err = mtex.Parse(src, r.FontSize, layoutDPI, l.be)
		if err != nil {
			return nil, fmt.Errorf("render %q: %w", inner, err)
		}
	}

	root, ok := box.(tex.Tree)
	if !ok {
		root = tex.HListOf([]tex.Node{box}, false)
	}
	var sh tex.Ship
	sh.Call(0, 0, root)

	w, h := root.Width(), math.Ceil(root.Height()+math.Max(root.Depth(), 0))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render %q: empty layout", inner)
	}

	var raw bytes.Buffer
	if err := drawimg.NewRenderer(&raw).Render(w/layoutDPI, h/layoutDPI, r.DPI, canvas); err != nil {
		return nil, fmt.Errorf("render %q: %w", inner, err)
	}

	img, err := png.Decode(&raw)
	if err != nil {
		return nil, fmt.Errorf("decode rendered math: %w", err)
	}
	rgba := image.NewNRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, fmt.Errorf("encode math png: %w", err)
	}
	return buf.Bytes(), nil
}

// Boxes are laid out in points and scaled to the target DPI when drawn.
const layoutDPI = 72

// mathLayout builds the box tree for expressions mtex cannot lay out alone.
// Script-free runs are handed to mtex so that symbols, spacing and
// macros render exactly as they would without scripts.
type mathLayout struct {
	be *ttf.Backend
}

func (l *mathLayout) state(size float64) tex.State {
	return tex.NewState(l.be, font.Font{Name: "default", Size: size, Type: "it"}, layoutDPI)
}

func (l *mathLayout) xHeight(size float64) float64 {
	st := l.state(size)
	return l.be.Metrics("x", st.Font, st.DPI, true).Iceberg
}

// list lays out a horizontal sequence, attaching each ^ and _ to the node
// before it.
func (l *mathLayout) list(nodes []ast.Node, size float64) *tex.HList {
	var (
		items []tex.Node
		run   []ast.Node
	)
	flush := func() {
		if len(run) > 0 {
			items = append(items, l.plain(run, size))
			run = nil
		}
	}

	for i := 0; i < len(nodes); i++ {
		sup, sub, n := takeScripts(nodes[i:])
		if n == 0 {
			if sym, ok := nodes[i].(*ast.Symbol); ok && punctuation[sym.Text] {
				flush()
				items = append(items, l.punct(sym.Text, size, !isDecimalComma(nodes, i)))
			} else if needsLayout(nodes[i]) {
				flush()
				items = append(items, l.node(nodes[i], size))
			} else {
				run = append(run, nodes[i])
			}
			continue
		}
		i += n - 1

		var base tex.Node
		switch {
		case len(run) > 0:
			last := run[len(run)-1]
			run = run[:len(run)-1]
			if w, ok := last.(*ast.Word); ok && len([]rune(w.Text)) > 1 {
				rs := []rune(w.Text)
				run = append(run, &ast.Word{WordPos: w.WordPos, Text: string(rs[:len(rs)-1])})
				last = &ast.Word{WordPos: w.WordPos, Text: string(rs[len(rs)-1:])}
			}
			flush()
			base = l.plain([]ast.Node{last}, size)
		case len(items) > 0:
			base = items[len(items)-1]
			items = items[:len(items)-1]
		}
		items = append(items, l.scripts(base, sup, sub, size)...)
	}
	flush()
	return tex.HListOf(items, true)
}

// punct sets a punctuation mark, which mtex cannot place, followed by a
// thin space unless it separates decimal digits.
func (l *mathLayout) punct(sym string, size float64, spaced bool) tex.Node {
	st := l.state(size)
	nodes := []tex.Node{tex.NewChar(sym, st, true)}
	if spaced {
		m := l.be.Metrics("m", st.Font, st.DPI, true)
		nodes = append(nodes, tex.NewKern(m.Advance*thinSpace))
	}
	return tex.HListOf(nodes, true)
}

// 3mu
const thinSpace = 0.16667

var punctuation = map[string]bool{",": true, ";": true, "!": true}

func isDecimalComma(nodes []ast.Node, i int) bool {
	if i == 0 || i+1 >= len(nodes) {
		return false
	}
	if sym, ok := nodes[i].(*ast.Symbol); !ok || sym.Text != "," {
		return false
	}
	_, before := nodes[i-1].(*ast.Literal)
	_, after := nodes[i+1].(*ast.Literal)
	return before && after
}

// takeScripts collects at most one superscript and one subscript from the
// head of nodes, in either order, and reports how many nodes it used.
func takeScripts(nodes []ast.Node) (sup, sub ast.Node, n int) {
	for _, c := range nodes {
		switch c := c.(type) {
		case *ast.Sup:
			if sup != nil {
				return sup, sub, n
			}
			sup = c.Node
		case *ast.Sub:
			if sub != nil {
				return sup, sub, n
			}
			sub = c.Node
		default:
			return sup, sub, n
		}
		n++
	}
	return sup, sub, n
}

func (l *mathLayout) node(n ast.Node, size float64) tex.Node {
	switch n := n.(type) {
	case ast.List:
		return l.list(n, size)
	case *ast.MathExpr:
		return l.list(n.List, size)
	case *ast.Macro:
		switch n.Name.Name {
		case `\frac`, `\tfrac`, `\dfrac`:
			return l.frac(n, size)
		case `\sqrt`:
			return l.sqrt(n, size)
		}
		panic(fmt.Errorf("scripts or punctuation inside %s are not supported", n.Name.Name))
	}
	panic(fmt.Errorf("unexpected node %T", n))
}

// plain renders script-free nodes through mtex.
func (l *mathLayout) plain(nodes []ast.Node, size float64) tex.Node {
	box, err := mtex.Parse("$"+texSource(nodes)+"$", size, layoutDPI, l.be)
	if err != nil {
		panic(err)
	}
	return box
}

// scripts returns base followed by its raised and lowered scripts, using
// the TeX font constants relative to the base x-height.
func (l *mathLayout) scripts(base tex.Node, sup, sub ast.Node, size float64) []tex.Node {
	var (
		fc     = tex.DefaultFontConstants
		xh     = l.xHeight(size)
		ssize  = size * scriptScale
		out    []tex.Node
		supBox *tex.HList
		subBox *tex.HList
	)
	if base != nil {
		out = append(out, base)
	}
	if sup != nil {
		supBox = l.list([]ast.Node{sup}, ssize)
	}
	if sub != nil {
		subBox = l.list([]ast.Node{sub}, ssize)
	}

	var baseHeight, baseDepth float64
	if base != nil {
		baseHeight, baseDepth = base.Height(), base.Depth()
	}

	var width float64
	if supBox != nil {
		raise := math.Max(fc.Sup1*xh, baseHeight-fc.SubDrop*xh)
		raise = math.Max(raise, supBox.Depth()+0.25*xh)
		v := tex.VListOf([]tex.Node{supBox})
		v.SetShift(-raise)
		out = append(out, tex.NewKern(fc.Delta*xh), v)
		width = fc.Delta*xh + supBox.Width()
	}
	if subBox != nil {
		drop := math.Max(fc.Sub1*xh, subBox.Height()-0.8*xh)
		if supBox != nil {
			drop = math.Max(drop, fc.Sub2*xh)
		}
		drop = math.Max(drop, baseDepth)
		if width > 0 {
			out = append(out, tex.NewKern(-width))
		}
		v := tex.VListOf([]tex.Node{subBox})
		v.SetShift(drop)
		out = append(out, v)
		if extra := width - subBox.Width(); extra > 0 {
			out = append(out, tex.NewKern(extra))
		}
	}
	return append(out, tex.NewKern(fc.ScriptSpace*xh))
}

// frac mirrors mtex's fraction layout for arguments mtex cannot render.
func (l *mathLayout) frac(m *ast.Macro, size float64) tex.Node {
	args := macroArgs(m)
	if len(args) != 2 {
		panic(fmt.Errorf("%s needs two arguments", m.Name.Name))
	}
	partSize := size * scriptScale
	if m.Name.Name == `\dfrac` {
		partSize = size
	}
	num := l.list(args[0], partSize)
	den := l.list(args[1], partSize)

	st := l.state(size)
	thickness := l.be.UnderlineThickness(st.Font, st.DPI)

	width := math.Max(num.Width(), den.Width())
	cnum := tex.HCentered([]tex.Node{num})
	cden := tex.HCentered([]tex.Node{den})
	cnum.HPack(width, false)
	cden.HPack(width, false)

	v := tex.VListOf([]tex.Node{
		cnum,
		tex.VBox(0, thickness*2),
		tex.HRule(st, thickness),
		tex.VBox(0, thickness*2),
		cden,
	})
	eq := l.be.Metrics("=", st.Font, st.DPI, true)
	v.SetShift(cden.Height() - ((eq.YMax+eq.YMin)/2 - 3*thickness))

	return tex.HListOf([]tex.Node{tex.HBox(thickness), v, tex.HBox(2 * thickness)}, true)
}

// sqrt mirrors mtex's radical layout for a radicand mtex cannot render.
func (l *mathLayout) sqrt(m *ast.Macro, size float64) tex.Node {
	var (
		index ast.List
		body  ast.List
	)
	for _, a := range m.Args {
		switch a := a.(type) {
		case *ast.OptArg:
			index = a.List
		case *ast.Arg:
			body = a.List
		}
	}

	st := l.state(size)
	thickness := l.be.UnderlineThickness(st.Font, st.DPI)
	rad := l.list(body, size)

	height := rad.Height() - rad.Shift() + 5*thickness
	depth := rad.Depth() + rad.Shift()
	check := tex.AutoHeightChar(`\__sqrt__`, height, depth, st, 0)
	height = check.Height() - check.Shift()
	depth = check.Depth() + check.Shift()

	padded := tex.HListOf([]tex.Node{tex.HBox(2 * thickness), rad, tex.HBox(2 * thickness)}, true)
	rhs := tex.VListOf([]tex.Node{tex.HRule(st, -1), tex.NewGlue("fill"), padded})
	rhs.VPack(height+(st.Font.Size*st.DPI)/(100*12), false, depth)

	var root tex.Node = tex.HBox(check.Width() * 0.5)
	if len(index) > 0 {
		root = l.list(index, size*scriptScale*scriptScale)
	}
	rv := tex.VListOf([]tex.Node{tex.HListOf([]tex.Node{root}, true)})
	rv.SetShift(-height * 0.6)

	return tex.HListOf([]tex.Node{rv, tex.NewKern(-check.Width() * 0.5), check, rhs}, true)
}

func macroArgs(m *ast.Macro) []ast.List {
	var out []ast.List
	for _, a := range m.Args {
		if a, ok := a.(*ast.Arg); ok {
			out = append(out, a.List)
		}
	}
	return out
}

// flattenMath unwraps the parsed $...$ into its top-level math nodes.
func flattenMath(n ast.Node) []ast.Node {
	var out []ast.Node
	switch n := n.(type) {
	case ast.List:
		for _, c := range n {
			out = append(out, flattenMath(c)...)
		}
	case *ast.MathExpr:
		out = append(out, n.List...)
	default:
		out = append(out, n)
	}
	return out
}

// needsLayout reports whether n holds scripts or punctuation, the nodes
// mtex cannot render on its own.
func needsLayout(n ast.Node) bool {
	found := false
	ast.Inspect(n, func(c ast.Node) bool {
		switch c := c.(type) {
		case *ast.Sup, *ast.Sub:
			found = true
		case *ast.Symbol:
			if punctuation[c.Text] {
				found = true
			}
		}
		return !found
	})
	return found
}

// texSource writes nodes back as LaTeX for mtex. Math mode ignores the
// separating spaces.
func texSource(nodes []ast.Node) string {
	var b strings.Builder
	for i, n := range nodes {
		if i > 0 {
			b.WriteByte(' ')
		}
		writeTeX(&b, n)
	}
	return b.String()
}

func writeTeX(b *strings.Builder, n ast.Node) {
	switch n := n.(type) {
	case *ast.Word:
		b.WriteString(n.Text)
	case *ast.Literal:
		b.WriteString(n.Text)
	case *ast.Symbol:
		b.WriteString(n.Text)
	case ast.List:
		b.WriteByte('{')
		b.WriteString(texSource(n))
		b.WriteByte('}')
	case *ast.Macro:
		b.WriteString(n.Name.Name)
		for _, a := range n.Args {
			switch a := a.(type) {
			case *ast.OptArg:
				b.WriteByte('[')
				b.WriteString(texSource(a.List))
				b.WriteByte(']')
			case *ast.Arg:
				b.WriteByte('{')
				b.WriteString(texSource(a.List))
				b.WriteByte('}')
			}
		}
		if len(n.Args) == 0 {
			b.WriteByte(' ')
		}
	default:
		panic(fmt.Errorf("unexpected node %T", n))
	}
}

// StripDelimiters removes one pair of $$ $$, $ $, \( \) or \[ \] around expr.
func StripDelimiters(expr string) string {
	t := strings.TrimSpace(expr)
	switch {
	case len(t) >= 4 && strings.HasPrefix(t, "$$") && strings.HasSuffix(t, "$$"):
		return t[2 : len(t)-2]
	case len(t) >= 2 && strings.HasPrefix(t, "$") && strings.HasSuffix(t, "$"):
		return t[1 : len(t)-1]
	case len(t) >= 4 && strings.HasPrefix(t, `\(`) && strings.HasSuffix(t, `\)`):
		return t[2 : len(t)-2]
	case len(t) >= 4 && strings.HasPrefix(t, `\[`) && strings.HasSuffix(t, `\]`):
		return t[2 : len(t)-2]
	}
	return t
}
