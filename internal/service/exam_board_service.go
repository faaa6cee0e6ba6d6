package service

import (
	"errors"
	"question_bank_backend/internal/model"
	"question_bank_backend/internal/repository"
	"question_bank_backend/internal/util"
	"strings"

	"gorm.io/gorm"
)

// ExamBoardInput is used for create and partial update; nil fields are left
// untouched on update.
type ExamBoardInput struct {
	Name    *string `json:"nome"`
	Acronym *string `json:"sigla"`
}

type ExamBoardService struct {
	Repo *repository.ExamBoardRepository
}

func NewExamBoardService(repo *repository.ExamBoardRepository) *ExamBoardService {
	return &ExamBoardService{Repo: repo}
}

func (s *ExamBoardService) List() ([]model.ExamBoard, error) {
	return s.Repo.List()
}

func (s *ExamBoardService) Get(id uint) (*model.ExamBoard, error) {
	b, err := s.Repo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrExamBoardNotFound
	}
	return b, err
}

func (s *ExamBoardService) Create(in *ExamBoardInput) (*model.ExamBoard, error) {
	b := &model.ExamBoard{}
	if in.Name == nil {
		return nil, util.ErrNameRequired
	}
	if err := applyExamBoardInput(b, in); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *ExamBoardService) Update(id uint, in *ExamBoardInput) (*model.ExamBoard, error) {
	b, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := applyExamBoardInput(b, in); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *ExamBoardService) Delete(id uint) error {
	err := s.Repo.Delete(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrExamBoardNotFound
	}
	return err
}

func applyExamBoardInput(b *model.ExamBoard, in *ExamBoardInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return util.ErrNameRequired
		}
		b.Name = name
	}
	if in.Acronym != nil {
		b.Acronym = strings.TrimSpace(*in.Acronym)
	}
	return nil
}
