package repository

import (
	"errors"
	"question_bank_backend/internal/config"
	"question_bank_backend/internal/model"
	"question_bank_backend/internal/util"
	"question_bank_backend/pkg/database"
	"slices"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{Type: "sqlite", Path: ":memory:"}, logger.Silent)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(database.Models...); err != nil {
		t.Fatal(err)
	}
	return db
}

type taxonomy struct {
	math, chem         model.Content
	algebra, organic   model.Content
	equations, carbons model.Content
}

func seedTaxonomy(t *testing.T, db *gorm.DB) *taxonomy {
	t.Helper()
	tx := &taxonomy{
		math: model.Content{Name: "Matemática", Type: model.ContentArea},
		chem: model.Content{Name: "Química", Type: model.ContentArea},
	}
	mustCreate(t, db, &tx.math, &tx.chem)
	tx.algebra = model.Content{Name: "Álgebra", Type: model.ContentUnit, ParentID: &tx.math.ID}
	tx.organic = model.Content{Name: "Orgânica", Type: model.ContentUnit, ParentID: &tx.chem.ID}
	mustCreate(t, db, &tx.algebra, &tx.organic)
	tx.equations = model.Content{Name: "Equações", Type: model.ContentTopic, ParentID: &tx.algebra.ID}
	tx.carbons = model.Content{Name: "Cadeias", Type: model.ContentTopic, ParentID: &tx.organic.ID}
	mustCreate(t, db, &tx.equations, &tx.carbons)
	return tx
}

func mustCreate(t *testing.T, db *gorm.DB, values ...interface{}) {
	t.Helper()
	for _, v := range values {
		if err := db.Create(v).Error; err != nil {
			t.Fatal(err)
		}
	}
}

// seedQuestions creates:
//
//	1 math/algebra/equations 2020 FGV   with image
//	2 math                   2021 FCC
//	3 chem/organic/carbons   2021 FGV
//	4 chem                   2019 INEP  image in the answer
func seedQuestions(t *testing.T, db *gorm.DB, tx *taxonomy) []model.Question {
	t.Helper()
	qs := []model.Question{
		{AreaID: tx.math.ID, UnitID: &tx.algebra.ID, TopicID: &tx.equations.ID, Year: 2020, Board: "FGV",
			Statement: `<p>Resolva <IMG src="/media/a.png"></p>`, Difficulty: "facil"},
		{AreaID: tx.math.ID, Year: 2021, Board: "FCC", Statement: "<p>Quanto é 2+2?</p>", Difficulty: "media"},
		{AreaID: tx.chem.ID, UnitID: &tx.organic.ID, TopicID: &tx.carbons.ID, Year: 2021, Board: "FGV",
			Statement: "<p>Cadeia carbônica</p>", Difficulty: "dificil"},
		{AreaID: tx.chem.ID, Year: 2019, Board: "INEP", Statement: "<p>pH</p>",
			Answer: `<p><img src="x.png"></p>`, Difficulty: "media"},
	}
	for i := range qs {
		mustCreate(t, db, &qs[i])
	}
	return qs
}

func ids(qs []model.Question) []uint {
	out := make([]uint, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func TestQuestionRepositoryList(t *testing.T) {
	db := newTestDB(t)
	tx := seedTaxonomy(t, db)
	qs := seedQuestions(t, db, tx)
	repo := NewQuestionRepository(db, nil)
	yes, no := true, false

	tests := []struct {
		name   string
		filter QuestionFilter
		want   []uint
	}{
		{"no filter", QuestionFilter{}, ids(qs)},
		{"search is case insensitive", QuestionFilter{Search: "CADEIA"}, []uint{qs[2].ID}},
		{"area", QuestionFilter{AreaIDs: []uint{tx.chem.ID}}, []uint{qs[2].ID, qs[3].ID}},
		{"unit without area", QuestionFilter{UnitIDs: []uint{tx.algebra.ID}}, []uint{qs[0].ID}},
		{
			"selected unit narrows its own area only",
			QuestionFilter{AreaIDs: []uint{tx.math.ID, tx.chem.ID}, UnitIDs: []uint{tx.organic.ID}},
			[]uint{qs[0].ID, qs[1].ID, qs[2].ID},
		},
		{
			"unit of another area leaves area whole",
			QuestionFilter{AreaIDs: []uint{tx.math.ID}, UnitIDs: []uint{tx.organic.ID}},
			[]uint{qs[0].ID, qs[1].ID},
		},
		{
			"deeper levels are all applied",
			QuestionFilter{AreaIDs: []uint{tx.chem.ID}, UnitIDs: []uint{tx.organic.ID}, TopicIDs: []uint{tx.carbons.ID}},
			[]uint{qs[2].ID},
		},
		{"years", QuestionFilter{Years: []int{2021}}, []uint{qs[1].ID, qs[2].ID}},
		{"boards and difficulty", QuestionFilter{Boards: []string{"FGV"}, Difficulties: []string{"dificil"}}, []uint{qs[2].ID}},
		{"with image", QuestionFilter{HasImage: &yes}, []uint{qs[0].ID, qs[3].ID}},
		{"without image", QuestionFilter{HasImage: &no}, []uint{qs[1].ID, qs[2].ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.List(tt.filter, 1, 50)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if !slices.Equal(ids(got), tt.want) {
				t.Errorf("List() ids = %v, want %v", ids(got), tt.want)
			}
			if total != int64(len(tt.want)) {
				t.Errorf("total = %d, want %d", total, len(tt.want))
			}
		})
	}
}

func TestQuestionRepositoryListPaginationAndRefs(t *testing.T) {
	db := newTestDB(t)
	tx := seedTaxonomy(t, db)
	qs := seedQuestions(t, db, tx)
	repo := NewQuestionRepository(db, nil)

	got, total, err := repo.List(QuestionFilter{}, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if total != 4 || len(got) != 1 || got[0].ID != qs[3].ID {
		t.Errorf("page 2 = %v (total %d)", ids(got), total)
	}

	q, err := repo.FindByID(qs[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if q.Area == nil || q.Area.Name != "Matemática" || q.Topic == nil || q.Category != nil {
		t.Errorf("refs not loaded: area=%v topic=%v category=%v", q.Area, q.Topic, q.Category)
	}
}

func TestQuestionRepositoryFindByIDsKeepsOrder(t *testing.T) {
	db := newTestDB(t)
	qs := seedQuestions(t, db, seedTaxonomy(t, db))
	repo := NewQuestionRepository(db, nil)

	in := []uint{qs[2].ID, qs[0].ID, 9999, qs[2].ID}
	got, err := repo.FindByIDs(in)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint{qs[2].ID, qs[0].ID, qs[2].ID}
	if !slices.Equal(ids(got), want) {
		t.Errorf("FindByIDs(%v) = %v, want %v", in, ids(got), want)
	}

	none, err := repo.FindByIDs([]uint{12345})
	if err != nil || len(none) != 0 {
		t.Errorf("FindByIDs(unknown) = %v, %v", none, err)
	}
}

func TestQuestionRepositoryDistinctValues(t *testing.T) {
	db := newTestDB(t)
	seedQuestions(t, db, seedTaxonomy(t, db))
	repo := NewQuestionRepository(db, nil)

	years, err := repo.DistinctValues("ano")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(years.([]int), []int{2021, 2020, 2019}) {
		t.Errorf("ano = %v", years)
	}

	boards, err := repo.DistinctValues("banca")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(boards.([]string), []string{"FCC", "FGV", "INEP"}) {
		t.Errorf("banca = %v", boards)
	}

	if _, err := repo.DistinctValues("enunciado"); !errors.Is(err, util.ErrInvalidField) {
		t.Errorf("invalid field error = %v", err)
	}
}

func TestQuestionRepositoryDelete(t *testing.T) {
	db := newTestDB(t)
	qs := seedQuestions(t, db, seedTaxonomy(t, db))
	repo := NewQuestionRepository(db, nil)

	if err := repo.Delete(qs[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(qs[0].ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}
	_, total, _ := repo.List(QuestionFilter{}, 1, 10)
	if total != 3 {
		t.Errorf("total after delete = %d, want 3", total)
	}
}

func TestContentRepository(t *testing.T) {
	db := newTestDB(t)
	tx := seedTaxonomy(t, db)
	repo := NewContentRepository(db, nil)

	roots, err := repo.List(model.ContentArea, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(roots) != 2 || roots[0].Name != "Matemática" {
		t.Errorf("areas = %+v", roots)
	}

	units, err := repo.List(model.ContentUnit, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 0 {
		t.Errorf("type without parent should list roots only, got %+v", units)
	}

	units, _ = repo.List(model.ContentUnit, &tx.chem.ID)
	if len(units) != 1 || units[0].ID != tx.organic.ID {
		t.Errorf("units of chem = %+v", units)
	}

	all, _ := repo.List("", nil)
	if len(all) != 6 {
		t.Errorf("all = %d nodes, want 6", len(all))
	}

	children, err := repo.Children(tx.math.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(children) != 1 || children[0].Name != "Álgebra" {
		t.Errorf("children = %+v", children)
	}

	empty, err := repo.Children(tx.equations.ID)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("leaf children = %#v, %v", empty, err)
	}

	levels, err := repo.DescendantLevels(tx.math.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(levels[model.ContentTopic], []uint{tx.equations.ID}) || len(levels[model.ContentCategory]) != 0 {
		t.Errorf("levels = %v", levels)
	}
}

func TestExamBoardRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewExamBoardRepository(db)

	b := &model.ExamBoard{Name: "Vunesp"}
	if err := repo.Create(b); err != nil {
		t.Fatal(err)
	}
	mustCreate(t, db, &model.ExamBoard{Name: "Cesgranrio"})

	list, err := repo.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "Cesgranrio" {
		t.Errorf("List() = %+v", list)
	}

	b.Acronym = "VUN"
	if err := repo.Update(b); err != nil {
		t.Fatal(err)
	}
	got, _ := repo.FindByID(b.ID)
	if got.Acronym != "VUN" {
		t.Errorf("Acronym = %q", got.Acronym)
	}

	if err := repo.Delete(b.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.FindByID(b.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("FindByID after delete error = %v", err)
	}
}
