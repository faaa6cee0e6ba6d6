package service

import (
	"context"
	"question_bank_backend/internal/config"
	"question_bank_backend/internal/exam"
	"question_bank_backend/internal/model"
	"question_bank_backend/internal/repository"
	"question_bank_backend/internal/util"
	"question_bank_backend/pkg/logger"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExamGenerator is the part of *exam.Pipeline the export service drives.
type ExamGenerator interface {
	Generate(ctx context.Context, questions []exam.Question, policy exam.Policy, format exam.Format) (*exam.Result, error)
	GenerateWithFallback(ctx context.Context, questions []exam.Question, policy exam.Policy, format exam.Format) (*exam.Result, error)
}

// ExportRequest is the print-test payload. IncludeGabarito defaults to true
// when omitted.
type ExportRequest struct {
	QuestionIDs         []uint `json:"question_ids"`
	GabaritoOption      string `json:"gabarito_option"`
	IncludeGabarito     *bool  `json:"include_gabarito"`
	UseRespostaGabarito bool   `json:"use_resposta_gabarito"`
	TestName            string `json:"test_name"`
}

func (r *ExportRequest) policy() exam.Policy {
	include := true
	if r.IncludeGabarito != nil {
		include = *r.IncludeGabarito
	}
	return exam.ResolvePolicy(r.GabaritoOption, include, r.UseRespostaGabarito)
}

// ExportFile is a generated exam ready to be sent as a download.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
	Strategy    string
}

type ExportService struct {
	QuestionRepo   *repository.QuestionRepository
	Generator      ExamGenerator
	NativeFallback bool
	now            func() time.Time
}

func NewExportService(questionRepo *repository.QuestionRepository, generator ExamGenerator, nativeFallback bool) *ExportService {
	return &ExportService{
		QuestionRepo:   questionRepo,
		Generator:      generator,
		NativeFallback: nativeFallback,
		now:            time.Now,
	}
}

// Export loads the requested questions in request order, duplicates
// included, and renders them. Validation happens before anything is built.
func (s *ExportService) Export(ctx context.Context, req *ExportRequest, format exam.Format) (*ExportFile, error) {
	if len(req.QuestionIDs) == 0 {
		return nil, util.ErrEmptyQuestionIDs
	}

	stored, err := s.QuestionRepo.FindByIDs(req.QuestionIDs)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, util.ErrQuestionsNotFound
	}

	exportID := uuid.NewString()
	policy := req.policy()
	logger.Log.Info("Exam export started",
		zap.String("export_id", exportID),
		zap.String("format", string(format)),
		zap.String("gabarito", policy.Option.String()),
		zap.Int("requested", len(req.QuestionIDs)),
		zap.Int("found", len(stored)))

	questions := toExamQuestions(stored)
	var result *exam.Result
	if s.NativeFallback {
		result, err = s.Generator.GenerateWithFallback(ctx, questions, policy, format)
	} else {
		result, err = s.Generator.Generate(ctx, questions, policy, format)
	}
	if err != nil {
		logger.Log.Error("Exam export failed", zap.String("export_id", exportID), zap.Error(err))
		return nil, err
	}

	return &ExportFile{
		Name:        exam.FileName(req.TestName, policy, format, s.now()),
		ContentType: format.ContentType(),
		Data:        result.Data,
		Strategy:    result.Strategy,
	}, nil
}

func toExamQuestions(stored []model.Question) []exam.Question {
	out := make([]exam.Question, len(stored))
	for i, q := range stored {
		out[i] = exam.Question{
			ID:        q.ID,
			Statement: q.Statement,
			Answer:    q.Answer,
			AnswerKey: q.AnswerKey,
		}
	}
	return out
}

// NewExamComponents wires the math normalizer and the conversion pipeline
// from the export configuration. The normalizer is shared with the question
// detail view.
func NewExamComponents(cfg *config.ExportConfig) (*exam.Normalizer, *exam.Pipeline) {
	normalizer := exam.NewNormalizer(exam.NewMathRasterizer(cfg.MathDPI, cfg.MathFontSize))
	media := exam.NewMediaResolver(cfg.MediaURL, cfg.MediaRoot)
	builder := exam.NewBuilder(cfg.Institution, normalizer, media)

	external := []exam.Converter{
		&exam.PandocServerConverter{URL: cfg.PandocServerURL, Media: media},
		&exam.PandocCLIConverter{Binary: cfg.PandocPath, ResourcePath: cfg.MediaRoot, PDFEngine: cfg.PDFEngine},
	}
	pipeline := exam.NewPipeline(builder, external,
		exam.WithLogger(logger.Log.Named("exam")),
		exam.WithTimeout(cfg.Timeout),
		exam.WithNative(&exam.NativeConverter{Media: media, MathDPI: cfg.MathDPI}),
	)
	return normalizer, pipeline
}
