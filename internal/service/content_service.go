package service

import (
	"errors"
	"question_bank_backend/internal/model"
	"question_bank_backend/internal/repository"
	"question_bank_backend/internal/util"
	"strings"

	"gorm.io/gorm"
)

// ContentInput creates a taxonomy node.
type ContentInput struct {
	Name     string            `json:"nome" binding:"required"`
	Type     model.ContentType `json:"tipo" binding:"required"`
	ParentID *uint             `json:"pai_id"`
}

type ContentService struct {
	ContentRepo *repository.ContentRepository
}

func NewContentService(contentRepo *repository.ContentRepository) *ContentService {
	return &ContentService{ContentRepo: contentRepo}
}

func (s *ContentService) List(contentType model.ContentType, parentID *uint) ([]model.Content, error) {
	if contentType != "" && !contentType.Valid() {
		return nil, util.ErrInvalidContentType
	}
	return s.ContentRepo.List(contentType, parentID)
}

func (s *ContentService) Children(parentID uint) ([]repository.ContentChild, error) {
	return s.ContentRepo.Children(parentID)
}

// Create enforces the tree shape: areas are roots and every other node hangs
// from a node exactly one level above it.
func (s *ContentService) Create(in *ContentInput) (*model.Content, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, util.ErrNameRequired
	}
	if !in.Type.Valid() {
		return nil, util.ErrInvalidContentType
	}

	parentType, needsParent := in.Type.ParentType()
	switch {
	case !needsParent && in.ParentID != nil:
		return nil, util.ErrInvalidContentParent
	case needsParent && in.ParentID == nil:
		return nil, util.ErrInvalidContentParent
	case needsParent:
		parent, err := s.ContentRepo.FindByID(*in.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrContentNotFound
			}
			return nil, err
		}
		if parent.Type != parentType {
			return nil, util.ErrInvalidContentParent
		}
	}

	c := &model.Content{Name: name, Type: in.Type, ParentID: in.ParentID}
	if err := s.ContentRepo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}
