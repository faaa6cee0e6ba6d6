package model

// ExamBoard is an organization that issues exams (banca organizadora).
// swagger:model ExamBoard
type ExamBoard struct {
	ID      uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name    string `gorm:"column:nome;size:200;not null" json:"nome"`
	Acronym string `gorm:"column:sigla;size:30" json:"sigla"`
}

func (ExamBoard) TableName() string {
	return "bancas"
}
