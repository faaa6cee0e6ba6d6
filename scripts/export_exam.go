// Offline exam export
//
// Renders stored questions to a DOCX or PDF file without starting the HTTP
// server. Useful for checking a pandoc installation or producing an exam
// straight from the database.
//
// Usage: go run scripts/export_exam.go -ids 3,1,2 -format pdf -gabarito after_each_question -o prova.pdf

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"question_bank_backend/internal/config"
	"question_bank_backend/internal/exam"
	"question_bank_backend/internal/repository"
	"question_bank_backend/internal/service"
	"question_bank_backend/internal/util"
	"question_bank_backend/pkg/database"
	"question_bank_backend/pkg/logger"

	gormlogger "gorm.io/gorm/logger"
)

func main() {
	configPath := flag.String("config", "configs", "directory containing config.yaml")
	ids := flag.String("ids", "", "comma separated question ids, in exam order")
	formatName := flag.String("format", "docx", "docx or pdf")
	gabarito := flag.String("gabarito", "", "answer placement option")
	testName := flag.String("name", "", "exam name, also used for the default output file")
	output := flag.String("o", "", "output file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	format, err := exam.ParseFormat(*formatName)
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Open(&cfg.Database, gormlogger.Warn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	_, pipeline := service.NewExamComponents(&cfg.Export)
	exporter := service.NewExportService(repository.NewQuestionRepository(db, nil), pipeline, cfg.Export.NativeFallback)

	file, err := exporter.Export(context.Background(), &service.ExportRequest{
		QuestionIDs:    util.ParseUintList([]string{*ids}),
		GabaritoOption: *gabarito,
		TestName:       *testName,
	}, format)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	dst := *output
	if dst == "" {
		dst = file.Name
	}
	if err := os.WriteFile(dst, file.Data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", dst, err)
	}
	log.Printf("Wrote %s (%d bytes, strategy %s)", dst, len(file.Data), file.Strategy)
}
