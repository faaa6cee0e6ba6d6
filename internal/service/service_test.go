package service

import (
	"context"
	"errors"
	"question_bank_backend/internal/config"
	"question_bank_backend/internal/exam"
	"question_bank_backend/internal/model"
	"question_bank_backend/internal/repository"
	"question_bank_backend/internal/util"
	"question_bank_backend/pkg/database"
	"strings"
	"testing"
	"time"

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

type fakeRasterizer struct{}

func (fakeRasterizer) Rasterize(string) ([]byte, error) {
	return []byte("\x89PNG fake"), nil
}

type fakeGenerator struct {
	strictCalls   int
	fallbackCalls int
	got           []exam.Question
	policy        exam.Policy
	err           error
}

func (g *fakeGenerator) Generate(_ context.Context, qs []exam.Question, p exam.Policy, f exam.Format) (*exam.Result, error) {
	g.strictCalls++
	return g.result(qs, p, f)
}

func (g *fakeGenerator) GenerateWithFallback(_ context.Context, qs []exam.Question, p exam.Policy, f exam.Format) (*exam.Result, error) {
	g.fallbackCalls++
	return g.result(qs, p, f)
}

func (g *fakeGenerator) result(qs []exam.Question, p exam.Policy, f exam.Format) (*exam.Result, error) {
	g.got, g.policy = qs, p
	if g.err != nil {
		return nil, g.err
	}
	return &exam.Result{Data: []byte("doc"), Format: f, Strategy: "fake"}, nil
}

func seedArea(t *testing.T, db *gorm.DB) (area, unit model.Content) {
	t.Helper()
	area = model.Content{Name: "Física", Type: model.ContentArea}
	if err := db.Create(&area).Error; err != nil {
		t.Fatal(err)
	}
	unit = model.Content{Name: "Cinemática", Type: model.ContentUnit, ParentID: &area.ID}
	if err := db.Create(&unit).Error; err != nil {
		t.Fatal(err)
	}
	return area, unit
}

func TestAuthService(t *testing.T) {
	db := newTestDB(t)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "secret", ExpireTime: time.Hour}}
	s := NewAuthService(repository.NewUserRepository(db), cfg)

	if _, err := s.Register("", "x"); !errors.Is(err, util.ErrMissingCredentials) {
		t.Errorf("Register(empty) error = %v", err)
	}
	user, err := s.Register(" Prof@Example.com ", "senha123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Email != "prof@example.com" || user.Password == "senha123" {
		t.Errorf("user = %+v", user)
	}
	if _, err := s.Register("prof@example.com", "outra"); !errors.Is(err, util.ErrEmailRegistered) {
		t.Errorf("duplicate Register() error = %v", err)
	}

	if _, err := s.Login("prof@example.com", "errada"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Errorf("Login(wrong password) error = %v", err)
	}
	if _, err := s.Login("ninguem@example.com", "x"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Errorf("Login(unknown) error = %v", err)
	}

	if err := s.PromoteStaff("prof@example.com"); err != nil {
		t.Fatal(err)
	}
	res, err := s.Login("PROF@example.com", "senha123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	claims, err := util.ParseJWT(res.Token, "secret")
	if err != nil {
		t.Fatal(err)
	}
	if !claims.IsStaff || claims.UserID != user.ID {
		t.Errorf("claims = %+v", claims)
	}
	if err := s.PromoteStaff("ninguem@example.com"); !errors.Is(err, util.ErrUserNotFound) {
		t.Errorf("PromoteStaff(unknown) error = %v", err)
	}
}

func TestContentServiceCreate(t *testing.T) {
	db := newTestDB(t)
	area, unit := seedArea(t, db)
	s := NewContentService(repository.NewContentRepository(db, nil))
	missing := uint(999)

	tests := []struct {
		name string
		in   ContentInput
		want error
	}{
		{"area", ContentInput{Name: "Química", Type: model.ContentArea}, nil},
		{"area with parent", ContentInput{Name: "X", Type: model.ContentArea, ParentID: &area.ID}, util.ErrInvalidContentParent},
		{"unit without parent", ContentInput{Name: "X", Type: model.ContentUnit}, util.ErrInvalidContentParent},
		{"topic under area", ContentInput{Name: "X", Type: model.ContentTopic, ParentID: &area.ID}, util.ErrInvalidContentParent},
		{"topic under unit", ContentInput{Name: "MRU", Type: model.ContentTopic, ParentID: &unit.ID}, nil},
		{"unknown parent", ContentInput{Name: "X", Type: model.ContentUnit, ParentID: &missing}, util.ErrContentNotFound},
		{"unknown type", ContentInput{Name: "X", Type: "capitulo"}, util.ErrInvalidContentType},
		{"blank name", ContentInput{Name: "  ", Type: model.ContentArea}, util.ErrNameRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(&tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := s.List("capitulo", nil); !errors.Is(err, util.ErrInvalidContentType) {
		t.Errorf("List(invalid type) error = %v", err)
	}
}

func TestQuestionService(t *testing.T) {
	db := newTestDB(t)
	area, unit := seedArea(t, db)
	s := NewQuestionService(
		repository.NewQuestionRepository(db, nil),
		repository.NewContentRepository(db, nil),
		exam.NewNormalizer(fakeRasterizer{}),
	)

	key := "<p>B</p>"
	in := &QuestionInput{
		AreaID:    area.ID,
		UnitID:    &unit.ID,
		Year:      2022,
		Board:     " ENEM ",
		Statement: `<p>Calcule $v = \frac{d}{t}$</p>`,
		Answer:    "<p>10 m/s</p>",
		AnswerKey: &key,
	}
	created, err := s.Create(in)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Board != "ENEM" || created.Unit == nil || created.Unit.Name != "Cinemática" {
		t.Errorf("created = %+v", created)
	}

	detail, err := s.Detail(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(detail.StatementRendered, `<img alt="math"`) {
		t.Errorf("StatementRendered = %q", detail.StatementRendered)
	}
	if detail.AnswerRendered != "<p>10 m/s</p>" {
		t.Errorf("AnswerRendered = %q", detail.AnswerRendered)
	}
	if detail.AnswerKey == nil || *detail.AnswerKey != key {
		t.Errorf("AnswerKey = %v", detail.AnswerKey)
	}

	bad := *in
	bad.AreaID = unit.ID
	if _, err := s.Create(&bad); !errors.Is(err, util.ErrInvalidContentType) {
		t.Errorf("Create(unit as area) error = %v", err)
	}

	other := model.Content{Name: "Química", Type: model.ContentArea}
	db.Create(&other)
	mismatch := *in
	mismatch.AreaID = other.ID
	if _, err := s.Create(&mismatch); !errors.Is(err, util.ErrInvalidContentParent) {
		t.Errorf("Create(unit of another area) error = %v", err)
	}

	in.Year = 2023
	in.UnitID = nil
	updated, err := s.Update(created.ID, in)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Year != 2023 || updated.Unit != nil {
		t.Errorf("updated = %+v", updated)
	}

	if err := s.Delete(created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Detail(created.ID); !errors.Is(err, util.ErrQuestionNotFound) {
		t.Errorf("Detail(deleted) error = %v", err)
	}
	if err := s.Delete(created.ID); !errors.Is(err, util.ErrQuestionNotFound) {
		t.Errorf("Delete(deleted) error = %v", err)
	}
}

func TestExamBoardService(t *testing.T) {
	s := NewExamBoardService(repository.NewExamBoardRepository(newTestDB(t)))
	name, blank, sigla := "Cesgranrio", "   ", " CESG "

	if _, err := s.Create(&ExamBoardInput{}); !errors.Is(err, util.ErrNameRequired) {
		t.Errorf("Create(no name) error = %v", err)
	}
	b, err := s.Create(&ExamBoardInput{Name: &name, Acronym: &sigla})
	if err != nil {
		t.Fatal(err)
	}
	if b.Acronym != "CESG" {
		t.Errorf("Acronym = %q", b.Acronym)
	}
	if _, err := s.Update(b.ID, &ExamBoardInput{Name: &blank}); !errors.Is(err, util.ErrNameRequired) {
		t.Errorf("Update(blank) error = %v", err)
	}
	if _, err := s.Get(12345); !errors.Is(err, util.ErrExamBoardNotFound) {
		t.Errorf("Get(unknown) error = %v", err)
	}
	if err := s.Delete(b.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(b.ID); !errors.Is(err, util.ErrExamBoardNotFound) {
		t.Errorf("Delete(twice) error = %v", err)
	}
}

func seedExportQuestions(t *testing.T, db *gorm.DB) []model.Question {
	t.Helper()
	area, _ := seedArea(t, db)
	qs := []model.Question{
		{AreaID: area.ID, Statement: "<p>Q1</p>", Answer: "<p>A1</p>"},
		{AreaID: area.ID, Statement: "<p>Q2</p>", Answer: "<p>A2</p>"},
	}
	for i := range qs {
		if err := db.Create(&qs[i]).Error; err != nil {
			t.Fatal(err)
		}
	}
	return qs
}

func TestExportServiceValidation(t *testing.T) {
	db := newTestDB(t)
	gen := &fakeGenerator{}
	s := NewExportService(repository.NewQuestionRepository(db, nil), gen, true)

	if _, err := s.Export(context.Background(), &ExportRequest{}, exam.FormatDOCX); !errors.Is(err, util.ErrEmptyQuestionIDs) {
		t.Errorf("empty ids error = %v", err)
	}
	if _, err := s.Export(context.Background(), &ExportRequest{QuestionIDs: []uint{77}}, exam.FormatDOCX); !errors.Is(err, util.ErrQuestionsNotFound) {
		t.Errorf("unknown ids error = %v", err)
	}
	if gen.strictCalls+gen.fallbackCalls != 0 {
		t.Error("generator must not run for invalid requests")
	}
}

func TestExportService(t *testing.T) {
	db := newTestDB(t)
	qs := seedExportQuestions(t, db)
	gen := &fakeGenerator{}
	s := NewExportService(repository.NewQuestionRepository(db, nil), gen, true)
	s.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	req := &ExportRequest{QuestionIDs: []uint{qs[1].ID, qs[0].ID, qs[1].ID}}
	file, err := s.Export(context.Background(), req, exam.FormatDOCX)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if gen.fallbackCalls != 1 || gen.strictCalls != 0 {
		t.Errorf("calls strict=%d fallback=%d", gen.strictCalls, gen.fallbackCalls)
	}
	if len(gen.got) != 3 || gen.got[0].Statement != "<p>Q2</p>" || gen.got[2].ID != qs[1].ID {
		t.Errorf("questions passed = %+v", gen.got)
	}
	if gen.policy.Option != exam.FinalSection || !gen.policy.IncludeAnswers {
		t.Errorf("default policy = %+v", gen.policy)
	}
	if file.Name != "prova_com_gabarito_20240102_030405.docx" || file.ContentType != util.MimeDOCX {
		t.Errorf("file = %q %q", file.Name, file.ContentType)
	}

	no := false
	file, err = s.Export(context.Background(), &ExportRequest{
		QuestionIDs:     []uint{qs[0].ID},
		IncludeGabarito: &no,
		TestName:        "Prova1",
	}, exam.FormatPDF)
	if err != nil {
		t.Fatal(err)
	}
	if file.Name != "Prova1.pdf" || gen.policy.HasAnswers() {
		t.Errorf("file = %q, policy = %+v", file.Name, gen.policy)
	}
}

func TestExportServiceStrict(t *testing.T) {
	db := newTestDB(t)
	qs := seedExportQuestions(t, db)
	exhausted := &exam.ExhaustedError{Format: exam.FormatPDF}
	gen := &fakeGenerator{err: exhausted}
	s := NewExportService(repository.NewQuestionRepository(db, nil), gen, false)

	_, err := s.Export(context.Background(), &ExportRequest{QuestionIDs: []uint{qs[0].ID}}, exam.FormatPDF)
	var target *exam.ExhaustedError
	if !errors.As(err, &target) {
		t.Fatalf("error = %v, want *exam.ExhaustedError", err)
	}
	if gen.strictCalls != 1 || gen.fallbackCalls != 0 {
		t.Errorf("calls strict=%d fallback=%d", gen.strictCalls, gen.fallbackCalls)
	}
}

func TestNewExamComponents(t *testing.T) {
	cfg := &config.ExportConfig{MediaURL: "/media/", MediaRoot: t.TempDir(), PandocPath: "pandoc-missing-binary", Timeout: time.Second}
	normalizer, pipeline := NewExamComponents(cfg)
	if normalizer == nil || pipeline == nil {
		t.Fatal("components not built")
	}

	res, err := pipeline.GenerateWithFallback(context.Background(),
		[]exam.Question{{ID: 1, Statement: "<p>Olá</p>", Answer: "<p>Oi</p>"}},
		exam.ResolvePolicy("after_each", true, false), exam.FormatDOCX)
	if err != nil {
		t.Fatalf("GenerateWithFallback() error = %v", err)
	}
	if res.Strategy != "native" {
		t.Errorf("Strategy = %q, want native", res.Strategy)
	}
}
