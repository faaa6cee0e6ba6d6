package service

import (
	"errors"
	"question_bank_backend/internal/exam"
	"question_bank_backend/internal/model"
	"question_bank_backend/internal/repository"
	"question_bank_backend/internal/util"
	"strings"

	"gorm.io/gorm"
)

// QuestionView is the API representation of a question with its taxonomy
// nodes expanded.
type QuestionView struct {
	ID                uint              `json:"id"`
	Area              *model.ContentRef `json:"area"`
	Unit              *model.ContentRef `json:"unidade"`
	Topic             *model.ContentRef `json:"topico"`
	Subtopic          *model.ContentRef `json:"subtopico"`
	Category          *model.ContentRef `json:"categoria"`
	Year              int               `json:"ano"`
	Board             string            `json:"banca"`
	QuestionType      string            `json:"tipo_questao"`
	Difficulty        string            `json:"dificuldade"`
	EducationLevel    string            `json:"grau_escolaridade"`
	Statement         string            `json:"enunciado"`
	Answer            string            `json:"resposta"`
	AnswerKey         *string           `json:"resposta_gabarito"`
	StatementRendered string            `json:"enunciado_rendered,omitempty"`
	AnswerRendered    string            `json:"resposta_rendered,omitempty"`
}

func newQuestionView(q *model.Question) *QuestionView {
	return &QuestionView{
		ID:             q.ID,
		Area:           q.Area.Ref(),
		Unit:           q.Unit.Ref(),
		Topic:          q.Topic.Ref(),
		Subtopic:       q.Subtopic.Ref(),
		Category:       q.Category.Ref(),
		Year:           q.Year,
		Board:          q.Board,
		QuestionType:   q.QuestionType,
		Difficulty:     q.Difficulty,
		EducationLevel: q.EducationLevel,
		Statement:      q.Statement,
		Answer:         q.Answer,
		AnswerKey:      q.AnswerKey,
	}
}

// QuestionInput is the create/update payload.
type QuestionInput struct {
	AreaID         uint    `json:"area_id" binding:"required"`
	UnitID         *uint   `json:"unidade_id"`
	TopicID        *uint   `json:"topico_id"`
	SubtopicID     *uint   `json:"subtopico_id"`
	CategoryID     *uint   `json:"categoria_id"`
	Year           int     `json:"ano"`
	Board          string  `json:"banca"`
	QuestionType   string  `json:"tipo_questao"`
	Difficulty     string  `json:"dificuldade"`
	EducationLevel string  `json:"grau_escolaridade"`
	Statement      string  `json:"enunciado" binding:"required"`
	Answer         string  `json:"resposta"`
	AnswerKey      *string `json:"resposta_gabarito"`
}

func (in *QuestionInput) levels() []*uint {
	area := in.AreaID
	return []*uint{&area, in.UnitID, in.TopicID, in.SubtopicID, in.CategoryID}
}

type QuestionService struct {
	QuestionRepo *repository.QuestionRepository
	ContentRepo  *repository.ContentRepository
	Normalizer   *exam.Normalizer
}

func NewQuestionService(questionRepo *repository.QuestionRepository, contentRepo *repository.ContentRepository, normalizer *exam.Normalizer) *QuestionService {
	return &QuestionService{
		QuestionRepo: questionRepo,
		ContentRepo:  contentRepo,
		Normalizer:   normalizer,
	}
}

func (s *QuestionService) List(filter repository.QuestionFilter, page, limit int) (*util.PageResponse, error) {
	questions, total, err := s.QuestionRepo.List(filter, page, limit)
	if err != nil {
		return nil, err
	}
	views := make([]*QuestionView, len(questions))
	for i := range questions {
		views[i] = newQuestionView(&questions[i])
	}
	return &util.PageResponse{List: views, Total: total, Page: page, Limit: limit}, nil
}

// Detail returns the question with its math rendered to inline images.
func (s *QuestionService) Detail(id uint) (*QuestionView, error) {
	q, err := s.QuestionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}

	view := newQuestionView(q)
	if view.StatementRendered, err = s.Normalizer.Normalize(q.Statement, exam.MathImage); err != nil {
		return nil, err
	}
	if view.AnswerRendered, err = s.Normalizer.Normalize(q.Answer, exam.MathImage); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *QuestionService) Create(in *QuestionInput) (*QuestionView, error) {
	if err := s.validateLevels(in); err != nil {
		return nil, err
	}
	q := &model.Question{}
	applyQuestionInput(q, in)
	if err := s.QuestionRepo.Create(q); err != nil {
		return nil, err
	}
	return s.reload(q.ID)
}

func (s *QuestionService) Update(id uint, in *QuestionInput) (*QuestionView, error) {
	q, err := s.QuestionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	if err := s.validateLevels(in); err != nil {
		return nil, err
	}

	applyQuestionInput(q, in)
	// associations are reloaded below; clearing them keeps Save from upserting stale nodes
	q.Area, q.Unit, q.Topic, q.Subtopic, q.Category = nil, nil, nil, nil, nil
	if err := s.QuestionRepo.Update(q); err != nil {
		return nil, err
	}
	return s.reload(q.ID)
}

func (s *QuestionService) Delete(id uint) error {
	err := s.QuestionRepo.Delete(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrQuestionNotFound
	}
	return err
}

func (s *QuestionService) reload(id uint) (*QuestionView, error) {
	q, err := s.QuestionRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	return newQuestionView(q), nil
}

// validateLevels checks that each referenced node has the type of its slot
// and that consecutive referenced levels are parent and child.
func (s *QuestionService) validateLevels(in *QuestionInput) error {
	var prev *model.Content
	for i, ref := range in.levels() {
		if ref == nil {
			prev = nil
			continue
		}
		c, err := s.ContentRepo.FindByID(*ref)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrContentNotFound
			}
			return err
		}
		if c.Type != model.ContentTypes[i] {
			return util.ErrInvalidContentType
		}
		if prev != nil && (c.ParentID == nil || *c.ParentID != prev.ID) {
			return util.ErrInvalidContentParent
		}
		prev = c
	}
	return nil
}

func applyQuestionInput(q *model.Question, in *QuestionInput) {
	q.AreaID = in.AreaID
	q.UnitID = in.UnitID
	q.TopicID = in.TopicID
	q.SubtopicID = in.SubtopicID
	q.CategoryID = in.CategoryID
	q.Year = in.Year
	q.Board = strings.TrimSpace(in.Board)
	q.QuestionType = strings.TrimSpace(in.QuestionType)
	q.Difficulty = strings.TrimSpace(in.Difficulty)
	q.EducationLevel = strings.TrimSpace(in.EducationLevel)
	q.Statement = in.Statement
	q.Answer = in.Answer
	q.AnswerKey = in.AnswerKey
}
