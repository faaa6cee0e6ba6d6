package repository

import (
	"context"
	"question_bank_backend/internal/model"
	"question_bank_backend/internal/util"
	"strings"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// QuestionFilter mirrors the list endpoint query parameters. Empty slices
// do not filter.
type QuestionFilter struct {
	Search          string
	AreaIDs         []uint
	UnitIDs         []uint
	TopicIDs        []uint
	SubtopicIDs     []uint
	CategoryIDs     []uint
	Years           []int
	Boards          []string
	QuestionTypes   []string
	Difficulties    []string
	EducationLevels []string
	HasImage        *bool
}

func (f *QuestionFilter) levelIDs() map[model.ContentType][]uint {
	return map[model.ContentType][]uint{
		model.ContentUnit:     f.UnitIDs,
		model.ContentTopic:    f.TopicIDs,
		model.ContentSubtopic: f.SubtopicIDs,
		model.ContentCategory: f.CategoryIDs,
	}
}

func (f *QuestionFilter) hasChildLevels() bool {
	return len(f.UnitIDs) > 0 || len(f.TopicIDs) > 0 || len(f.SubtopicIDs) > 0 || len(f.CategoryIDs) > 0
}

var levelColumns = map[model.ContentType]string{
	model.ContentArea:     "area_id",
	model.ContentUnit:     "unidade_id",
	model.ContentTopic:    "topico_id",
	model.ContentSubtopic: "subtopico_id",
	model.ContentCategory: "categoria_id",
}

const hasImageCondition = "(LOWER(enunciado) LIKE '%<img%' OR LOWER(resposta) LIKE '%<img%')"

type QuestionRepository struct {
	DB    *gorm.DB
	cache jsonCache
	ctx   context.Context
}

func NewQuestionRepository(db *gorm.DB, rdb *redis.Client) *QuestionRepository {
	return &QuestionRepository{
		DB:    db,
		cache: jsonCache{rdb: rdb},
		ctx:   context.Background(),
	}
}

func (r *QuestionRepository) withRefs(db *gorm.DB) *gorm.DB {
	return db.Preload("Area").
		Preload("Unit").
		Preload("Topic").
		Preload("Subtopic").
		Preload("Category")
}

func (r *QuestionRepository) List(filter QuestionFilter, page, limit int) ([]model.Question, int64, error) {
	db, err := r.applyFilter(r.DB.Model(&model.Question{}), &filter)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var questions []model.Question
	err = r.withRefs(db).
		Order("id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&questions).Error
	return questions, total, err
}

func (r *QuestionRepository) applyFilter(db *gorm.DB, f *QuestionFilter) (*gorm.DB, error) {
	if f.Search != "" {
		db = db.Where("LOWER(enunciado) LIKE ?", "%"+strings.ToLower(f.Search)+"%")
	}

	if len(f.AreaIDs) > 0 && f.hasChildLevels() {
		clause, args, err := r.areaClause(f)
		if err != nil {
			return nil, err
		}
		db = db.Where(clause, args...)
	} else {
		if len(f.AreaIDs) > 0 {
			db = db.Where("area_id IN ?", f.AreaIDs)
		}
		for _, t := range model.ContentTypes[1:] {
			if ids := f.levelIDs()[t]; len(ids) > 0 {
				db = db.Where(levelColumns[t]+" IN ?", ids)
			}
		}
	}

	if len(f.Years) > 0 {
		db = db.Where("ano IN ?", f.Years)
	}
	if len(f.Boards) > 0 {
		db = db.Where("banca IN ?", f.Boards)
	}
	if len(f.QuestionTypes) > 0 {
		db = db.Where("tipo_questao IN ?", f.QuestionTypes)
	}
	if len(f.Difficulties) > 0 {
		db = db.Where("dificuldade IN ?", f.Difficulties)
	}
	if len(f.EducationLevels) > 0 {
		db = db.Where("grau_escolaridade IN ?", f.EducationLevels)
	}

	if f.HasImage != nil {
		if *f.HasImage {
			db = db.Where(hasImageCondition)
		} else {
			db = db.Where("NOT " + hasImageCondition)
		}
	}
	return db, nil
}

// areaClause ORs one condition per selected area. Each condition pins the
// area and, for every lower level, the selected ids that belong to that area.
// An area with no selected descendants matches all of its questions.
func (r *QuestionRepository) areaClause(f *QuestionFilter) (string, []interface{}, error) {
	selected := f.levelIDs()
	var clauses []string
	var args []interface{}

	for _, areaID := range f.AreaIDs {
		levels, err := descendantLevels(r.DB, areaID)
		if err != nil {
			return "", nil, err
		}

		parts := []string{"area_id = ?"}
		args = append(args, areaID)
		for _, t := range model.ContentTypes[1:] {
			if ids := intersect(selected[t], levels[t]); len(ids) > 0 {
				parts = append(parts, levelColumns[t]+" IN ?")
				args = append(args, ids)
			}
		}
		clauses = append(clauses, "("+strings.Join(parts, " AND ")+")")
	}
	return "(" + strings.Join(clauses, " OR ") + ")", args, nil
}

func intersect(selected, allowed []uint) []uint {
	if len(selected) == 0 || len(allowed) == 0 {
		return nil
	}
	set := make(map[uint]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	var out []uint
	for _, id := range selected {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.withRefs(r.DB).First(&q, id).Error
	return &q, err
}

// FindByIDs returns the questions in the order of ids. Repeated ids yield
// repeated entries; unknown ids are skipped.
func (r *QuestionRepository) FindByIDs(ids []uint) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []model.Question
	if err := r.DB.Where("id IN ?", uniqueIDs(ids)).Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]model.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}
	out := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func (r *QuestionRepository) Create(q *model.Question) error {
	if err := r.DB.Create(q).Error; err != nil {
		return err
	}
	r.invalidateDistinct()
	return nil
}

func (r *QuestionRepository) Update(q *model.Question) error {
	if err := r.DB.Save(q).Error; err != nil {
		return err
	}
	r.invalidateDistinct()
	return nil
}

func (r *QuestionRepository) Delete(id uint) error {
	res := r.DB.Delete(&model.Question{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.invalidateDistinct()
	return nil
}

func distinctKey(field string) string {
	return "qbank:questoes:distinct:" + field
}

func (r *QuestionRepository) invalidateDistinct() {
	r.cache.del(r.ctx, distinctKey("*"))
}

// DistinctValues lists the distinct values of a scalar column: []int for
// "ano" (newest first), []string otherwise (ascending).
func (r *QuestionRepository) DistinctValues(field string) (interface{}, error) {
	column, ok := model.QuestionFields[field]
	if !ok {
		return nil, util.ErrInvalidField
	}
	key := distinctKey(field)

	if column == "ano" {
		var years []int
		if r.cache.get(r.ctx, key, &years) {
			return years, nil
		}
		years = []int{}
		err := r.DB.Model(&model.Question{}).
			Distinct(column).
			Order(column+" DESC").
			Pluck(column, &years).Error
		if err != nil {
			return nil, err
		}
		r.cache.set(r.ctx, key, years)
		return years, nil
	}

	var values []string
	if r.cache.get(r.ctx, key, &values) {
		return values, nil
	}
	values = []string{}
	err := r.DB.Model(&model.Question{}).
		Distinct(column).
		Order(column+" ASC").
		Pluck(column, &values).Error
	if err != nil {
		return nil, err
	}
	r.cache.set(r.ctx, key, values)
	return values, nil
}
