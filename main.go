// @title Question Bank API
// @version 1.0
// @description Question bank backend with exam DOCX/PDF export.

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"
	"question_bank_backend/internal/app"
	"question_bank_backend/internal/config"
	"question_bank_backend/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs", "directory containing config.yaml")
	migrateOnly := flag.Bool("migrate-only", false, "run the database migration and exit")
	promoteStaff := flag.String("promote-staff", "", "grant staff rights to the account with this email and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.MigrateOnly = *migrateOnly || *promoteStaff != ""

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *promoteStaff != "" {
		if err := application.PromoteStaff(*promoteStaff); err != nil {
			log.Fatalf("Failed to promote %s: %v", *promoteStaff, err)
		}
		log.Printf("%s is now staff", *promoteStaff)
		return
	}

	if *migrateOnly {
		log.Println("Database migration finished, exiting")
		return
	}

	application.Run()
}
