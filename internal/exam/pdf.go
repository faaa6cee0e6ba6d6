package exam

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin     = 20.0
	pdfLineHeight = 5.5
	pdfBodySize   = 11.0
	mmPerInch     = 25.4
)

var pdfHeadingSize = map[int]float64{1: 16, 2: 12, 3: 13, 4: 11}

type pdfWriter struct {
	pdf        *fpdf.Fpdf
	tr         func(string) string
	images     map[string]*nativeImage
	mathDPI    float64
	registered map[string]string
	rowHeight  float64
}

func newPDFWriter(images map[string]*nativeImage, mathDPI float64) *pdfWriter {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetCreator("question-bank", true)
	pdf.AddPage()
	pdf.SetFont("Arial", "", pdfBodySize)
	return &pdfWriter{
		pdf:        pdf,
		tr:         pdf.UnicodeTranslatorFromDescriptor(""),
		images:     images,
		mathDPI:    mathDPI,
		registered: make(map[string]string),
	}
}

func (w *pdfWriter) heading(text string, level int, center bool) {
	size := pdfHeadingSize[level]
	style := "B"
	if level == 4 {
		style = "BI"
	}
	align := "L"
	if center {
		align = "C"
	}
	w.pdf.Ln(1)
	w.pdf.SetFont("Arial", style, size)
	w.pdf.MultiCell(0, size*0.5, w.tr(text), "", align, false)
	w.pdf.SetFont("Arial", "", pdfBodySize)
	w.pdf.Ln(1)
}

func (w *pdfWriter) paragraph(text string) {
	w.pdf.SetFont("Arial", "", pdfBodySize)
	w.pdf.MultiCell(0, pdfLineHeight, w.tr(text), "", "L", false)
}

func (w *pdfWriter) rich(frags iter.Seq[Fragment]) {
	open := false
	for f := range frags {
		switch f.Kind {
		case FragmentText:
			style := ""
			if f.Bold {
				style = "B"
			}
			w.pdf.SetFont("Arial", style, pdfBodySize)
			w.pdf.Write(pdfLineHeight, w.tr(f.Text))
			open = true
		case FragmentImage:
			w.inlineImage(f)
			open = true
		case FragmentBreak:
			if open {
				w.newLine()
				open = false
			}
		}
	}
	if open {
		w.newLine()
	}
	w.pdf.SetFont("Arial", "", pdfBodySize)
	w.pdf.Ln(2)
}

func (w *pdfWriter) newLine() {
	h := pdfLineHeight
	if w.rowHeight > h {
		h = w.rowHeight
	}
	w.pdf.Ln(h)
	w.rowHeight = 0
}

func (w *pdfWriter) inlineImage(f Fragment) {
	img, ok := w.images[f.Src]
	if !ok {
		w.pdf.Write(pdfLineHeight, missingImageText)
		return
	}
	name, ok := w.registered[f.Src]
	if !ok {
		name = fmt.Sprintf("img%d", len(w.registered)+1)
		w.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: img.kind}, bytes.NewReader(img.data))
		if w.pdf.Err() {
			w.pdf.ClearError()
			delete(w.images, f.Src)
			w.pdf.Write(pdfLineHeight, missingImageText)
			return
		}
		w.registered[f.Src] = name
	}

	pageW, pageH := w.pdf.GetPageSize()
	textWidth := (pageW - 2*pdfMargin) / mmPerInch
	wi, hi := img.size(f.Math, w.mathDPI, textWidth)
	width, height := wi*mmPerInch, hi*mmPerInch

	x, y := w.pdf.GetX(), w.pdf.GetY()
	if x+width > pageW-pdfMargin {
		w.newLine()
		x, y = w.pdf.GetX(), w.pdf.GetY()
	}
	if y+height > pageH-pdfMargin {
		w.pdf.AddPage()
		x, y = w.pdf.GetX(), w.pdf.GetY()
	}
	w.pdf.ImageOptions(name, x, y, width, height, false, fpdf.ImageOptions{ImageType: img.kind}, 0, "")
	w.pdf.SetXY(x+width, y)
	if height > w.rowHeight {
		w.rowHeight = height
	}
}

func (w *pdfWriter) pageBreak() {
	w.rowHeight = 0
	w.pdf.AddPage()
}

func (w *pdfWriter) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := w.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
