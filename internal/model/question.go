package model

import "strings"

// Question is a bank entry. Statement and Answer hold CKEditor HTML that may
// embed LaTeX. AnswerKey is the short canonical answer used by the
// gabarito sections and is nil when the author never filled it in.
// swagger:model Question
type Question struct {
	BaseModel
	AreaID         uint     `gorm:"column:area_id;not null;index" json:"area_id"`
	Area           *Content `gorm:"foreignKey:AreaID;constraint:OnDelete:RESTRICT" json:"-"`
	UnitID         *uint    `gorm:"column:unidade_id;index" json:"unidade_id"`
	Unit           *Content `gorm:"foreignKey:UnitID;constraint:OnDelete:RESTRICT" json:"-"`
	TopicID        *uint    `gorm:"column:topico_id;index" json:"topico_id"`
	Topic          *Content `gorm:"foreignKey:TopicID;constraint:OnDelete:RESTRICT" json:"-"`
	SubtopicID     *uint    `gorm:"column:subtopico_id;index" json:"subtopico_id"`
	Subtopic       *Content `gorm:"foreignKey:SubtopicID;constraint:OnDelete:RESTRICT" json:"-"`
	CategoryID     *uint    `gorm:"column:categoria_id;index" json:"categoria_id"`
	Category       *Content `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"-"`
	Year           int      `gorm:"column:ano;index" json:"ano"`
	Board          string   `gorm:"column:banca;size:100;index" json:"banca"`
	QuestionType   string   `gorm:"column:tipo_questao;size:50" json:"tipo_questao"`
	Difficulty     string   `gorm:"column:dificuldade;size:20" json:"dificuldade"`
	EducationLevel string   `gorm:"column:grau_escolaridade;size:50" json:"grau_escolaridade"`
	Statement      string   `gorm:"column:enunciado;type:text" json:"enunciado"`
	Answer         string   `gorm:"column:resposta;type:text" json:"resposta"`
	AnswerKey      *string  `gorm:"column:resposta_gabarito;type:text" json:"resposta_gabarito"`
}

func (Question) TableName() string {
	return "questoes"
}

// HasImage reports whether the statement or the answer embeds an image.
func (q *Question) HasImage() bool {
	return strings.Contains(q.Statement, "<img") || strings.Contains(q.Answer, "<img")
}

// QuestionFields are the scalar columns exposed by the distinct values lookup.
var QuestionFields = map[string]string{
	"banca":             "banca",
	"tipo_questao":      "tipo_questao",
	"dificuldade":       "dificuldade",
	"ano":               "ano",
	"grau_escolaridade": "grau_escolaridade",
}
