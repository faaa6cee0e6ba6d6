package exam

import (
	"bytes"
	"image/png"
	"testing"
)

func TestStripDelimiters(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"$x$", "x"},
		{"$$x$$", "x"},
		{`\(x\)`, "x"},
		{`\[x\]`, "x"},
		{"  $a+b$  ", "a+b"},
		{"x", "x"},
		{"$", "$"},
		{"$$", ""},
	}
	for _, tt := range tests {
		if got := StripDelimiters(tt.in); got != tt.want {
			t.Errorf("StripDelimiters(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMathRasterizerRendersPNG(t *testing.T) {
	r := NewMathRasterizer(0, 0)
	if r.DPI != DefaultMathDPI || r.FontSize != DefaultMathFontSize {
		t.Fatalf("defaults = %v/%v", r.DPI, r.FontSize)
	}

	data, err := r.Rasterize(`\(x^2\)`)
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		t.Errorf("empty image bounds %v", b)
	}
}

func rasterHeight(t *testing.T, r *MathRasterizer, expr string) int {
	t.Helper()
	data, err := r.Rasterize(`\(` + expr + `\)`)
	if err != nil {
		t.Fatalf("Rasterize(%q) error = %v", expr, err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Rasterize(%q) output is not a png: %v", expr, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		t.Fatalf("Rasterize(%q) empty image bounds %v", expr, b)
	}
	return img.Bounds().Dy()
}

func TestMathRasterizerLayouts(t *testing.T) {
	r := NewMathRasterizer(DefaultMathDPI, DefaultMathFontSize)
	base := rasterHeight(t, r, "x")

	tests := []struct {
		name   string
		expr   string
		taller bool
	}{
		{"superscript", `x^2`, true},
		{"subscript", `x_1`, true},
		{"both scripts", `x_1^2`, true},
		{"scripts in either order", `x^2_1`, true},
		{"grouped superscript", `e^{i\pi}`, true},
		{"fraction", `\frac{1}{2}`, true},
		{"fraction with scripts", `\frac{x^2}{2}`, true},
		{"radical with scripts", `\sqrt{b^2-4ac}`, true},
		{"polynomial", `ax^2+bx+c=0`, true},
		{"decimal comma", `1,5`, false},
		{"argument list", `f(x,y)`, false},
		{"greek", `\alpha+\beta`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := rasterHeight(t, r, tt.expr)
			if tt.taller && h <= base {
				t.Errorf("height of %q = %d, want more than %d for plain x", tt.expr, h, base)
			}
		})
	}
}

func TestMathRasterizerRejectsMalformed(t *testing.T) {
	r := NewMathRasterizer(DefaultMathDPI, DefaultMathFontSize)
	for _, in := range []string{`\frac{`, `\frac{1}`, `x^`} {
		if _, err := r.Rasterize(in); err == nil {
			t.Errorf("Rasterize(%q) expected error", in)
		}
	}
}

func TestMathRasterizerRejectsEmpty(t *testing.T) {
	r := NewMathRasterizer(DefaultMathDPI, DefaultMathFontSize)
	for _, in := range []string{"", "$$", `\( \)`} {
		if _, err := r.Rasterize(in); err == nil {
			t.Errorf("Rasterize(%q) expected error", in)
		}
	}
}
