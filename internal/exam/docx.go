package exam

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"iter"
	"strings"
)

const (
	emuPerInch = 914400
	// A4 with 2 cm margins, in twentieths of a point.
	docxPageWidth  = 11906
	docxPageHeight = 16838
	docxMargin     = 1134
	docxTextWidth  = float64(docxPageWidth-2*docxMargin) / 1440
)

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Default Extension="png" ContentType="image/png"/>
  <Default Extension="jpeg" ContentType="image/jpeg"/>
  <Default Extension="gif" ContentType="image/gif"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
  <Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`

const docxRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const docxStyles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:docDefaults>
    <w:rPrDefault><w:rPr><w:rFonts w:ascii="Arial" w:hAnsi="Arial" w:cs="Arial"/><w:sz w:val="22"/><w:szCs w:val="22"/><w:lang w:val="pt-BR"/></w:rPr></w:rPrDefault>
    <w:pPrDefault><w:pPr><w:spacing w:after="120" w:line="264" w:lineRule="auto"/></w:pPr></w:pPrDefault>
  </w:docDefaults>
  <w:style w:type="paragraph" w:default="1" w:styleId="Normal">
    <w:name w:val="Normal"/>
    <w:qFormat/>
  </w:style>
  <w:style w:type="paragraph" w:styleId="Heading1">
    <w:name w:val="heading 1"/>
    <w:basedOn w:val="Normal"/>
    <w:next w:val="Normal"/>
    <w:qFormat/>
    <w:pPr><w:keepNext/><w:spacing w:before="240" w:after="120"/><w:outlineLvl w:val="0"/></w:pPr>
    <w:rPr><w:b/><w:sz w:val="32"/><w:szCs w:val="32"/></w:rPr>
  </w:style>
  <w:style w:type="paragraph" w:styleId="Heading2">
    <w:name w:val="heading 2"/>
    <w:basedOn w:val="Normal"/>
    <w:next w:val="Normal"/>
    <w:qFormat/>
    <w:pPr><w:keepNext/><w:spacing w:before="120" w:after="60"/><w:outlineLvl w:val="1"/></w:pPr>
    <w:rPr><w:b/><w:sz w:val="26"/><w:szCs w:val="26"/></w:rPr>
  </w:style>
  <w:style w:type="paragraph" w:styleId="Heading3">
    <w:name w:val="heading 3"/>
    <w:basedOn w:val="Normal"/>
    <w:next w:val="Normal"/>
    <w:qFormat/>
    <w:pPr><w:keepNext/><w:spacing w:before="240" w:after="60"/><w:outlineLvl w:val="2"/></w:pPr>
    <w:rPr><w:b/><w:sz w:val="24"/><w:szCs w:val="24"/></w:rPr>
  </w:style>
  <w:style w:type="paragraph" w:styleId="Heading4">
    <w:name w:val="heading 4"/>
    <w:basedOn w:val="Normal"/>
    <w:next w:val="Normal"/>
    <w:qFormat/>
    <w:pPr><w:keepNext/><w:spacing w:before="120" w:after="60"/><w:outlineLvl w:val="3"/></w:pPr>
    <w:rPr><w:b/><w:i/></w:rPr>
  </w:style>
</w:styles>`

const docxDocumentOpen = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
            xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
            xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
            xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"
            xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <w:body>
`

type docxMedia struct {
	relID string
	name  string
	data  []byte
}

type docxWriter struct {
	body    bytes.Buffer
	para    bytes.Buffer
	images  map[string]*nativeImage
	mathDPI float64
	media   []docxMedia
	relIDs  map[string]string
	shapeID int
}

func newDocxWriter(images map[string]*nativeImage, mathDPI float64) *docxWriter {
	return &docxWriter{
		images:  images,
		mathDPI: mathDPI,
		relIDs:  make(map[string]string),
	}
}

func (w *docxWriter) heading(text string, level int, center bool) {
	w.flush()
	w.body.WriteString(`<w:p><w:pPr>`)
	fmt.Fprintf(&w.body, `<w:pStyle w:val="Heading%d"/>`, level)
	if center {
		w.body.WriteString(`<w:jc w:val="center"/>`)
	}
	w.body.WriteString(`</w:pPr>`)
	w.body.WriteString(textRun(text, false))
	w.body.WriteString("</w:p>\n")
}

func (w *docxWriter) paragraph(text string) {
	w.flush()
	w.body.WriteString("<w:p>" + textRun(text, false) + "</w:p>\n")
}

func (w *docxWriter) rich(frags iter.Seq[Fragment]) {
	empty := true
	for f := range frags {
		empty = false
		switch f.Kind {
		case FragmentText:
			w.para.WriteString(textRun(f.Text, f.Bold))
		case FragmentImage:
			w.inlineImage(f)
		case FragmentBreak:
			w.flush()
		}
	}
	if empty {
		w.body.WriteString("<w:p/>\n")
	}
	w.flush()
}

func (w *docxWriter) pageBreak() {
	w.flush()
	w.body.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>` + "\n")
}

func (w *docxWriter) flush() {
	if w.para.Len() == 0 {
		return
	}
	w.body.WriteString("<w:p>")
	w.body.Write(w.para.Bytes())
	w.body.WriteString("</w:p>\n")
	w.para.Reset()
}

func (w *docxWriter) inlineImage(f Fragment) {
	img, ok := w.images[f.Src]
	if !ok {
		w.para.WriteString(textRun(missingImageText, false))
		return
	}
	relID, ok := w.relIDs[f.Src]
	if !ok {
		n := len(w.media) + 1
		relID = fmt.Sprintf("rId%d", n+1)
		w.media = append(w.media, docxMedia{
			relID: relID,
			name:  fmt.Sprintf("image%d.%s", n, img.kind),
			data:  img.data,
		})
		w.relIDs[f.Src] = relID
	}

	width, height := img.size(f.Math, w.mathDPI, docxTextWidth)
	cx := int64(width * emuPerInch)
	cy := int64(height * emuPerInch)
	w.shapeID++
	fmt.Fprintf(&w.para, `<w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%d" cy="%d"/><wp:docPr id="%d" name="Picture %d"/>`+
		`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:pic><pic:nvPicPr><pic:cNvPr id="%d" name="Picture %d"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`,
		cx, cy, w.shapeID, w.shapeID, w.shapeID, w.shapeID, relID, cx, cy)
}

func textRun(text string, bold bool) string {
	var b strings.Builder
	b.WriteString("<w:r>")
	if bold {
		b.WriteString("<w:rPr><w:b/></w:rPr>")
	}
	b.WriteString(`<w:t xml:space="preserve">`)
	_ = xml.EscapeText(&b, []byte(text))
	b.WriteString("</w:t></w:r>")
	return b.String()
}

func (w *docxWriter) documentRels() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` + "\n")
	b.WriteString(`  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` + "\n")
	for _, m := range w.media {
		fmt.Fprintf(&b, `  <Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/%s"/>`+"\n", m.relID, m.name)
	}
	b.WriteString("</Relationships>")
	return b.String()
}

func (w *docxWriter) bytes() ([]byte, error) {
	w.flush()

	var doc strings.Builder
	doc.WriteString(docxDocumentOpen)
	doc.Write(w.body.Bytes())
	fmt.Fprintf(&doc, `<w:sectPr><w:pgSz w:w="%d" w:h="%d"/>`+
		`<w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr>`,
		docxPageWidth, docxPageHeight, docxMargin, docxMargin, docxMargin, docxMargin)
	doc.WriteString("\n  </w:body>\n</w:document>")

	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(docxContentTypes)},
		{"_rels/.rels", []byte(docxRootRels)},
		{"word/_rels/document.xml.rels", []byte(w.documentRels())},
		{"word/styles.xml", []byte(docxStyles)},
		{"word/document.xml", []byte(doc.String())},
	}
	for _, m := range w.media {
		parts = append(parts, struct {
			name string
			data []byte
		}{"word/media/" + m.name, m.data})
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, p := range parts {
		entry, err := zw.Create(p.name)
		if err != nil {
			return nil, err
		}
		if _, err := entry.Write(p.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
