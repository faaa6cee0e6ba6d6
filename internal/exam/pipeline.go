package exam

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"question_bank_backend/pkg/monitoring"
	"question_bank_backend/pkg/tracing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

func init() {
	api.DisableConfigDir()
}

type Format string

const (
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatDOCX:
		return FormatDOCX, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func (f Format) Extension() string { return "." + string(f) }

// ErrUnavailable marks a strategy that cannot run in this environment.
var ErrUnavailable = errors.New("converter unavailable")

// Converter turns a built document into a binary file of the given format.
type Converter interface {
	Name() string
	MathMode() MathMode
	Convert(ctx context.Context, doc *Document, format Format) ([]byte, error)
}

// StrategyError records why one converter did not produce a document.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string { return e.Strategy + ": " + e.Err.Error() }
func (e *StrategyError) Unwrap() error { return e.Err }

// ExhaustedError is returned when no strategy in the chain succeeded.
type ExhaustedError struct {
	Format   Format
	Failures []*StrategyError
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("failed to generate %s: %s", e.Format, strings.Join(parts, "; "))
}

// Result is a validated document and the strategy that produced it.
type Result struct {
	Data     []byte
	Format   Format
	Strategy string
}

type Pipeline struct {
	builder  *Builder
	external []Converter
	native   Converter
	timeout  time.Duration
	log      *zap.Logger
}

type Option func(*Pipeline)

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithTimeout bounds each individual strategy attempt.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

func WithNative(c Converter) Option {
	return func(p *Pipeline) { p.native = c }
}

func NewPipeline(builder *Builder, external []Converter, opts ...Option) *Pipeline {
	p := &Pipeline{
		builder:  builder,
		external: external,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Generate tries the external strategies only and returns *ExhaustedError
// when all of them fail.
func (p *Pipeline) Generate(ctx context.Context, questions []Question, policy Policy, format Format) (*Result, error) {
	return p.run(ctx, p.external, questions, policy, format)
}

// GenerateWithFallback appends the native converter to the chain.
func (p *Pipeline) GenerateWithFallback(ctx context.Context, questions []Question, policy Policy, format Format) (*Result, error) {
	chain := append([]Converter(nil), p.external...)
	if p.native != nil {
		chain = append(chain, p.native)
	}
	return p.run(ctx, chain, questions, policy, format)
}

func (p *Pipeline) run(ctx context.Context, chain []Converter, questions []Question, policy Policy, format Format) (*Result, error) {
	docs := make(map[MathMode]*Document, 2)
	exhausted := &ExhaustedError{Format: format}

	for _, c := range chain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, ok := docs[c.MathMode()]
		if !ok {
			var err error
			if doc, err = p.builder.Build(questions, policy, c.MathMode()); err != nil {
				return nil, fmt.Errorf("build %s document: %w", c.MathMode(), err)
			}
			docs[c.MathMode()] = doc
		}

		data, err := p.attempt(ctx, c, doc, format)
		if err == nil {
			p.log.Info("Exam document generated",
				zap.String("strategy", c.Name()),
				zap.String("format", string(format)),
				zap.Int("questions", len(questions)),
				zap.Int("bytes", len(data)))
			return &Result{Data: data, Format: format, Strategy: c.Name()}, nil
		}
		p.log.Warn("Conversion strategy failed",
			zap.String("strategy", c.Name()),
			zap.String("format", string(format)),
			zap.Error(err))
		exhausted.Failures = append(exhausted.Failures, &StrategyError{Strategy: c.Name(), Err: err})
	}
	return nil, exhausted
}

func (p *Pipeline) attempt(ctx context.Context, c Converter, doc *Document, format Format) (data []byte, err error) {
	ctx, span := tracing.Tracer.Start(ctx, "exam.convert "+c.Name())
	span.SetAttributes(
		attribute.String("exam.strategy", c.Name()),
		attribute.String("exam.format", string(format)),
	)
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			data, err = nil, fmt.Errorf("panic: %v", rec)
		}
		outcome := "success"
		switch {
		case errors.Is(err, ErrUnavailable):
			outcome = "unavailable"
		case err != nil:
			outcome = "failure"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		monitoring.ExportAttempts.WithLabelValues(c.Name(), string(format), outcome).Inc()
		monitoring.ExportDuration.WithLabelValues(c.Name(), string(format)).Observe(time.Since(start).Seconds())
		span.End()
	}()

	data, err = c.Convert(ctx, doc, format)
	if err != nil {
		return nil, err
	}
	if err = ValidateOutput(format, data); err != nil {
		return nil, err
	}
	return data, nil
}

// ValidateOutput checks that data is a well-formed document of format.
func ValidateOutput(format Format, data []byte) error {
	if len(data) == 0 {
		return errors.New("empty output")
	}
	switch format {
	case FormatDOCX:
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return fmt.Errorf("invalid docx: %w", err)
		}
		for _, f := range zr.File {
			if f.Name == "word/document.xml" {
				return nil
			}
		}
		return errors.New("invalid docx: missing word/document.xml")
	case FormatPDF:
		conf := model.NewDefaultConfiguration()
		conf.ValidationMode = model.ValidationRelaxed
		if err := api.Validate(bytes.NewReader(data), conf); err != nil {
			return fmt.Errorf("invalid pdf: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unsupported format %q", format)
}

// PageCount returns the number of pages in a PDF document.
func PageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(data), conf)
}
