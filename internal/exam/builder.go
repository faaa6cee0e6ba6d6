package exam

import (
	"fmt"
	"html"
	"strings"
)

const (
	DefaultInstitution = "INSTITUTO FEDERAL – Sistema de Avaliação"

	TitleExam   = "PROVA"
	TitleAnswer = "GABARITO"

	teacherLine = "Professor(a): __________________    Turma: ______    Data: ____/____/______    Nota: ______"
	studentLine = "Aluno(a): _________________________________________________________________"
)

// Question is the pipeline's read-only view of a stored question.
type Question struct {
	ID        uint
	Statement string
	Answer    string
	AnswerKey *string
}

type BlockKind int

const (
	BlockHeader BlockKind = iota
	BlockQuestionTitle
	BlockStatement
	BlockAnswerTitle
	BlockAnswer
	BlockPageBreak
)

// Block is one ordered piece of an exam document. Header blocks carry the
// page title in Text; statement and answer blocks carry normalized HTML.
type Block struct {
	Kind   BlockKind
	Number int
	Text   string
	HTML   string
}

// Document is the intermediate exam representation shared by every converter.
type Document struct {
	Institution string
	Mode        MathMode
	Blocks      []Block
}

func (d *Document) count(kind BlockKind) int {
	n := 0
	for _, b := range d.Blocks {
		if b.Kind == kind {
			n++
		}
	}
	return n
}

// Questions returns the number of numbered question sections.
func (d *Document) Questions() int { return d.count(BlockQuestionTitle) }

const documentHead = `<meta charset="utf-8"/>` +
	`<style>body{font-family: Arial, sans-serif;margin:40px;} img{max-width:100%;}</style>`

// HTML renders the document as a standalone page for the external converters.
func (d *Document) HTML() string {
	var b strings.Builder
	b.WriteString("<html><head>")
	b.WriteString(documentHead)
	b.WriteString("</head><body>")
	for _, blk := range d.Blocks {
		switch blk.Kind {
		case BlockHeader:
			fmt.Fprintf(&b, "<h2 style='text-align:center'>%s</h2>", html.EscapeString(d.Institution))
			fmt.Fprintf(&b, "<h1 style='text-align:center'>%s</h1>", html.EscapeString(blk.Text))
			fmt.Fprintf(&b, "<div>%s</div>", html.EscapeString(teacherLine))
			fmt.Fprintf(&b, "<div>%s</div>", html.EscapeString(studentLine))
		case BlockQuestionTitle:
			fmt.Fprintf(&b, "<h3>%s</h3>", html.EscapeString(blk.Text))
		case BlockStatement:
			fmt.Fprintf(&b, `<div class="enunciado">%s</div>`, blk.HTML)
		case BlockAnswerTitle:
			fmt.Fprintf(&b, "<h4>%s</h4>", html.EscapeString(blk.Text))
		case BlockAnswer:
			fmt.Fprintf(&b, `<div class="resposta">%s</div>`, blk.HTML)
		case BlockPageBreak:
			b.WriteString(`<p style="page-break-before: always;"></p>`)
		}
	}
	b.WriteString("</body></html>")
	return b.String()
}

// Builder assembles exam documents from questions and a placement policy.
type Builder struct {
	institution string
	normalizer  *Normalizer
	media       *MediaResolver
}

func NewBuilder(institution string, normalizer *Normalizer, media *MediaResolver) *Builder {
	if institution == "" {
		institution = DefaultInstitution
	}
	return &Builder{institution: institution, normalizer: normalizer, media: media}
}

// Build lays out questions in input order, numbering them by position.
func (b *Builder) Build(questions []Question, policy Policy, mode MathMode) (*Document, error) {
	doc := &Document{Institution: b.institution, Mode: mode}

	switch policy.Option {
	case OnlyAnswerKey, OnlyAnswerKeyFull:
		doc.Blocks = append(doc.Blocks, Block{Kind: BlockHeader, Text: TitleAnswer})
		for i, q := range questions {
			text := q.Answer
			if policy.Option == OnlyAnswerKey {
				text = answerKeyText(q)
			}
			if err := b.appendAnswer(doc, i+1, text, mode, false); err != nil {
				return nil, err
			}
		}
		return doc, nil
	}

	doc.Blocks = append(doc.Blocks, Block{Kind: BlockHeader, Text: TitleExam})
	for i, q := range questions {
		if err := b.appendStatement(doc, i+1, q.Statement, mode); err != nil {
			return nil, err
		}
		if policy.Option == AfterEachQuestion {
			if err := b.appendAnswer(doc, i+1, pickAnswer(q, policy.PreferAnswerKey), mode, true); err != nil {
				return nil, err
			}
		}
	}

	if policy.Option == FinalSection && policy.IncludeAnswers {
		doc.Blocks = append(doc.Blocks,
			Block{Kind: BlockPageBreak},
			Block{Kind: BlockHeader, Text: TitleAnswer},
		)
		for i, q := range questions {
			if err := b.appendAnswer(doc, i+1, pickAnswer(q, policy.PreferAnswerKey), mode, false); err != nil {
				return nil, err
			}
		}
	}
	return doc, nil
}

func (b *Builder) appendStatement(doc *Document, number int, text string, mode MathMode) error {
	body, err := b.prepare(text, mode)
	if err != nil {
		return fmt.Errorf("question %d statement: %w", number, err)
	}
	doc.Blocks = append(doc.Blocks,
		Block{Kind: BlockQuestionTitle, Number: number, Text: questionTitle(number)},
		Block{Kind: BlockStatement, Number: number, HTML: body},
	)
	return nil
}

// inline answers follow their statement under a short title instead of a
// repeated question heading.
func (b *Builder) appendAnswer(doc *Document, number int, text string, mode MathMode, inline bool) error {
	body, err := b.prepare(text, mode)
	if err != nil {
		return fmt.Errorf("question %d answer: %w", number, err)
	}
	if inline {
		doc.Blocks = append(doc.Blocks, Block{Kind: BlockAnswerTitle, Number: number, Text: "Resposta"})
	} else {
		doc.Blocks = append(doc.Blocks, Block{Kind: BlockQuestionTitle, Number: number, Text: questionTitle(number)})
	}
	doc.Blocks = append(doc.Blocks, Block{Kind: BlockAnswer, Number: number, HTML: body})
	return nil
}

func (b *Builder) prepare(text string, mode MathMode) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	out := text
	if b.normalizer != nil {
		var err error
		if out, err = b.normalizer.Normalize(text, mode); err != nil {
			return "", err
		}
	}
	if b.media != nil {
		return b.media.RewriteLocalSources(out)
	}
	return out, nil
}

func questionTitle(n int) string {
	return fmt.Sprintf("Questão %d", n)
}

func answerKeyText(q Question) string {
	if q.AnswerKey == nil {
		return ""
	}
	return *q.AnswerKey
}

func pickAnswer(q Question, preferAnswerKey bool) string {
	if preferAnswerKey && strings.TrimSpace(answerKeyText(q)) != "" {
		return *q.AnswerKey
	}
	return q.Answer
}
