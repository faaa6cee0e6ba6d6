package exam

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func failingChain() (*stubConverter, *stubConverter) {
	server := &stubConverter{name: "pandoc-server", err: ErrUnavailable}
	cli := &stubConverter{name: "pandoc-cli", err: &CommandError{
		Tool:   "pandoc",
		Err:    errors.New("exit status 64"),
		Stderr: "Unknown input format html+bogus",
	}}
	return server, cli
}

func TestGenerateWithFallbackUsesNative(t *testing.T) {
	server, cli := failingChain()
	p := NewPipeline(newTestBuilder(), []Converter{server, cli},
		WithNative(&NativeConverter{}),
		WithTimeout(30*time.Second))

	res, err := p.GenerateWithFallback(context.Background(), sampleQuestions(), ResolvePolicy("final_section", true, false), FormatDOCX)
	if err != nil {
		t.Fatalf("GenerateWithFallback() error = %v", err)
	}
	if res.Strategy != "native" {
		t.Errorf("strategy = %q, want native", res.Strategy)
	}
	if server.calls != 1 || cli.calls != 1 {
		t.Errorf("external calls = %d/%d, want 1/1", server.calls, cli.calls)
	}

	body := docxDocumentXML(t, res.Data)
	for _, want := range []string{"Questão 1", "Questão 2", "GABARITO"} {
		if !strings.Contains(body, want) {
			t.Errorf("document.xml missing %q", want)
		}
	}
	if !docxHasPart(res.Data, "word/media/image1.png") {
		t.Error("rasterized math not embedded")
	}
}

func TestGenerateWithFallbackRendersMathImages(t *testing.T) {
	b := NewBuilder("", NewNormalizer(NewMathRasterizer(DefaultMathDPI, DefaultMathFontSize)), nil)
	for _, format := range []Format{FormatDOCX, FormatPDF} {
		t.Run(format.Extension(), func(t *testing.T) {
			server, cli := failingChain()
			p := NewPipeline(b, []Converter{server, cli},
				WithNative(&NativeConverter{}),
				WithTimeout(30*time.Second))

			res, err := p.GenerateWithFallback(context.Background(), sampleQuestions(), ResolvePolicy("after_each_question", true, false), format)
			if err != nil {
				t.Fatalf("GenerateWithFallback() error = %v", err)
			}
			if res.Strategy != "native" {
				t.Errorf("strategy = %q, want native", res.Strategy)
			}
			if format != FormatDOCX {
				return
			}
			body := docxDocumentXML(t, res.Data)
			for _, src := range []string{"x^2", "1+1"} {
				if strings.Contains(body, src) {
					t.Errorf("math %q left as text in document.xml", src)
				}
			}
			for _, part := range []string{"word/media/image1.png", "word/media/image2.png"} {
				if !docxHasPart(res.Data, part) {
					t.Errorf("%s not embedded", part)
				}
			}
		})
	}
}

func TestGenerateStrictReturnsExhaustedError(t *testing.T) {
	server, cli := failingChain()
	native := &stubConverter{name: "native", mode: MathImage}
	p := NewPipeline(newTestBuilder(), []Converter{server, cli}, WithNative(native))

	_, err := p.Generate(context.Background(), sampleQuestions(), ResolvePolicy("", true, false), FormatDOCX)
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Generate() error = %v, want *ExhaustedError", err)
	}
	if len(exhausted.Failures) != 2 {
		t.Fatalf("failures = %d, want 2", len(exhausted.Failures))
	}
	if native.calls != 0 {
		t.Error("strict entry point must not reach the native converter")
	}
	msg := err.Error()
	for _, want := range []string{"pandoc-server", "pandoc-cli", "Unknown input format html+bogus"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
	var cmdErr *CommandError
	if !errors.As(exhausted.Failures[1], &cmdErr) {
		t.Error("command error not preserved")
	}
}

func TestPipelineRejectsInvalidOutput(t *testing.T) {
	garbage := &stubConverter{name: "garbage", out: []byte("not a zip")}
	panicky := &stubConverter{name: "panicky", panic: true}
	p := NewPipeline(newTestBuilder(), []Converter{garbage, panicky}, WithNative(&NativeConverter{}))

	res, err := p.GenerateWithFallback(context.Background(), sampleQuestions(), ResolvePolicy("only_questions", false, false), FormatDOCX)
	if err != nil {
		t.Fatalf("GenerateWithFallback() error = %v", err)
	}
	if res.Strategy != "native" {
		t.Errorf("strategy = %q, want native", res.Strategy)
	}
	if garbage.calls != 1 || panicky.calls != 1 {
		t.Errorf("calls = %d/%d", garbage.calls, panicky.calls)
	}
}

func TestPipelineBuildsOneDocumentPerMode(t *testing.T) {
	server, cli := failingChain()
	p := NewPipeline(newTestBuilder(), []Converter{server, cli})

	_, _ = p.Generate(context.Background(), sampleQuestions(), ResolvePolicy("", true, false), FormatPDF)
	if server.seen == nil || server.seen != cli.seen {
		t.Fatal("strategies with the same math mode should share one document")
	}
	if server.seen.Mode != MathPassthrough {
		t.Errorf("mode = %v, want passthrough", server.seen.Mode)
	}
	if strings.Contains(server.seen.HTML(), "<img") {
		t.Error("passthrough document should not contain rasterized math")
	}
}

func TestPipelineStopsOnCancelledContext(t *testing.T) {
	server, cli := failingChain()
	p := NewPipeline(newTestBuilder(), []Converter{server, cli}, WithNative(&NativeConverter{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.GenerateWithFallback(ctx, sampleQuestions(), ResolvePolicy("", true, false), FormatDOCX); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if server.calls != 0 {
		t.Error("no strategy should run after cancellation")
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"docx", "DOCX", " pdf "} {
		if _, err := ParseFormat(in); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", in, err)
		}
	}
	if _, err := ParseFormat("odt"); err == nil {
		t.Error("ParseFormat(odt) expected error")
	}
	if FormatPDF.ContentType() != "application/pdf" || FormatDOCX.Extension() != ".docx" {
		t.Error("unexpected format metadata")
	}
}
