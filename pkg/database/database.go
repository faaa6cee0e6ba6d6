package database

import (
	"fmt"
	"log"
	"question_bank_backend/internal/config"
	"question_bank_backend/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table owned by the service, in migration order.
var Models = []interface{}{
	&model.User{},
	&model.Content{},
	&model.Question{},
	&model.ExamBoard{},
}

// Open connects to the configured dialect without migrating.
func Open(cfg *config.DatabaseConfig, logLevel logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
	default:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		dialector = mysql.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	// sqlite serializes writers; one connection also keeps ":memory:" databases intact
	if cfg.Type == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := Open(cfg, logger.Warn)
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")
	return db, nil
}

// Migrate creates or updates the schema and seeds the exam board list.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return err
	}
	return seedExamBoards(db)
}

func seedExamBoards(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.ExamBoard{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []model.ExamBoard{
		{Name: "Cebraspe", Acronym: "CEBRASPE"},
		{Name: "Fundação Carlos Chagas", Acronym: "FCC"},
		{Name: "Fundação Getulio Vargas", Acronym: "FGV"},
		{Name: "Instituto Nacional de Estudos e Pesquisas Educacionais", Acronym: "INEP"},
		{Name: "Fundação para o Vestibular da Unesp", Acronym: "VUNESP"},
	}
	return db.Create(&defaults).Error
}
