package exam

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
)

// stubRasterizer returns a small PNG for every expression except those
// containing "bad".
type stubRasterizer struct {
	calls int
}

func (s *stubRasterizer) Rasterize(latex string) ([]byte, error) {
	s.calls++
	if strings.Contains(latex, "bad") {
		return nil, errors.New("cannot render")
	}
	return tinyPNG(8, 4), nil
}

func tinyPNG(w, h int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.NRGBA{A: 255})
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

type stubConverter struct {
	name  string
	mode  MathMode
	out   []byte
	err   error
	panic bool
	calls int
	seen  *Document
}

func (s *stubConverter) Name() string       { return s.name }
func (s *stubConverter) MathMode() MathMode { return s.mode }

func (s *stubConverter) Convert(_ context.Context, doc *Document, _ Format) ([]byte, error) {
	s.calls++
	s.seen = doc
	if s.panic {
		panic("boom")
	}
	return s.out, s.err
}

func strPtr(s string) *string { return &s }

func sampleQuestions() []Question {
	return []Question{
		{ID: 10, Statement: "<p>Calcule $x^2$ para x = 3.</p>", Answer: "<p>O resultado é 9.</p>", AnswerKey: strPtr("<p>9</p>")},
		{ID: 20, Statement: "<p>Quanto é \\(1+1\\)?</p>", Answer: "<p>Dois.</p>"},
	}
}

func newTestBuilder() *Builder {
	return NewBuilder("", NewNormalizer(&stubRasterizer{}), nil)
}

func docxDocumentXML(t *testing.T, data []byte) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open docx: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open document.xml: %v", err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read document.xml: %v", err)
		}
		return string(b)
	}
	t.Fatal("word/document.xml not found")
	return ""
}

func docxHasPart(data []byte, name string) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}
