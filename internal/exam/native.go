package exam

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"iter"
)

const (
	screenDPI        = 96.0
	missingImageText = "[imagem]"
)

// NativeConverter builds DOCX and PDF files in-process. It needs no
// external tools and is the last resort of the fallback chain.
type NativeConverter struct {
	Media   *MediaResolver
	MathDPI float64
}

func (c *NativeConverter) Name() string       { return "native" }
func (c *NativeConverter) MathMode() MathMode { return MathImage }

func (c *NativeConverter) Convert(ctx context.Context, doc *Document, format Format) ([]byte, error) {
	images := c.loadImages(ctx, doc)
	dpi := c.MathDPI
	if dpi <= 0 {
		dpi = DefaultMathDPI
	}

	var w nativeWriter
	switch format {
	case FormatDOCX:
		w = newDocxWriter(images, dpi)
	case FormatPDF:
		w = newPDFWriter(images, dpi)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return renderNative(doc, w)
}

type nativeImage struct {
	data   []byte
	kind   string
	width  int
	height int
}

// size returns the display size in inches, scaled down to maxWidth.
func (img *nativeImage) size(math bool, mathDPI, maxWidth float64) (float64, float64) {
	dpi := screenDPI
	if math {
		dpi = mathDPI
	}
	w := float64(img.width) / dpi
	h := float64(img.height) / dpi
	if w > maxWidth {
		h = h * maxWidth / w
		w = maxWidth
	}
	return w, h
}

func (c *NativeConverter) loadImages(ctx context.Context, doc *Document) map[string]*nativeImage {
	media := c.Media
	if media == nil {
		media = NewMediaResolver("", "")
	}
	srcs := ImageSources(doc)
	remote := media.Prefetch(ctx, srcs)

	images := make(map[string]*nativeImage, len(srcs))
	for _, src := range srcs {
		if _, ok := images[src]; ok {
			continue
		}
		data, ok := remote[src]
		if !ok {
			var err error
			if data, err = media.Load(ctx, src); err != nil {
				continue
			}
		}
		cfg, kind, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			continue
		}
		images[src] = &nativeImage{data: data, kind: kind, width: cfg.Width, height: cfg.Height}
	}
	return images
}

type nativeWriter interface {
	heading(text string, level int, center bool)
	paragraph(text string)
	rich(frags iter.Seq[Fragment])
	pageBreak()
	bytes() ([]byte, error)
}

func renderNative(doc *Document, w nativeWriter) ([]byte, error) {
	for _, b := range doc.Blocks {
		switch b.Kind {
		case BlockHeader:
			w.heading(doc.Institution, 2, true)
			w.heading(b.Text, 1, true)
			w.paragraph(teacherLine)
			w.paragraph(studentLine)
		case BlockQuestionTitle:
			w.heading(b.Text, 3, false)
		case BlockAnswerTitle:
			w.heading(b.Text, 4, false)
		case BlockStatement, BlockAnswer:
			w.rich(Fragments(b.HTML))
		case BlockPageBreak:
			w.pageBreak()
		}
	}
	return w.bytes()
}
