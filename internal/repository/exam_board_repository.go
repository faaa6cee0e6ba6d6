package repository

import (
	"question_bank_backend/internal/model"

	"gorm.io/gorm"
)

type ExamBoardRepository struct {
	DB *gorm.DB
}

func NewExamBoardRepository(db *gorm.DB) *ExamBoardRepository {
	return &ExamBoardRepository{DB: db}
}

func (r *ExamBoardRepository) List() ([]model.ExamBoard, error) {
	boards := []model.ExamBoard{}
	err := r.DB.Order("nome ASC").Find(&boards).Error
	return boards, err
}

func (r *ExamBoardRepository) FindByID(id uint) (*model.ExamBoard, error) {
	var b model.ExamBoard
	err := r.DB.First(&b, id).Error
	return &b, err
}

func (r *ExamBoardRepository) Create(b *model.ExamBoard) error {
	return r.DB.Create(b).Error
}

func (r *ExamBoardRepository) Update(b *model.ExamBoard) error {
	return r.DB.Save(b).Error
}

func (r *ExamBoardRepository) Delete(id uint) error {
	res := r.DB.Delete(&model.ExamBoard{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
