package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"question_bank_backend/internal/config"
	"question_bank_backend/internal/controller"
	"question_bank_backend/internal/exam"
	"question_bank_backend/internal/repository"
	"question_bank_backend/internal/service"
	"question_bank_backend/pkg/database"
	"question_bank_backend/pkg/logger"
	"question_bank_backend/pkg/monitoring"
	"question_bank_backend/pkg/security"
	"question_bank_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
	tracer   *sdktrace.TracerProvider
}

type repositories struct {
	user      *repository.UserRepository
	content   *repository.ContentRepository
	question  *repository.QuestionRepository
	examBoard *repository.ExamBoardRepository
}

type services struct {
	auth      *service.AuthService
	storage   *service.StorageService
	content   *service.ContentService
	question  *service.QuestionService
	examBoard *service.ExamBoardService
	export    *service.ExportService
}

type controllers struct {
	auth      *controller.AuthController
	question  *controller.QuestionController
	content   *controller.ContentController
	examBoard *controller.ExamBoardController
	upload    *controller.UploadController
	export    *controller.ExportController
	health    *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:      repository.NewUserRepository(db),
		content:   repository.NewContentRepository(db, rdb),
		question:  repository.NewQuestionRepository(db, rdb),
		examBoard: repository.NewExamBoardRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	normalizer, pipeline := service.NewExamComponents(&cfg.Export)

	return &services{
		auth:      service.NewAuthService(repos.user, cfg),
		storage:   service.NewStorageService(cfg),
		content:   service.NewContentService(repos.content),
		question:  service.NewQuestionService(repos.question, repos.content, normalizer),
		examBoard: service.NewExamBoardService(repos.examBoard),
		export:    service.NewExportService(repos.question, pipeline, cfg.Export.NativeFallback),
	}
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		question:  controller.NewQuestionController(s.question),
		content:   controller.NewContentController(s.content, repos.question),
		examBoard: controller.NewExamBoardController(s.examBoard),
		upload:    controller.NewUploadController(s.storage),
		export:    controller.NewExportController(s.export),
		health:    controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if cfg.RateLimit.MaxRequests > 0 && window > 0 {
		router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))
	}

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// NewApp connects the database and cache, wires every layer and builds the
// router. With cfg.MigrateOnly it stops after the schema migration.
func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	app.Redis = rdb

	if _, err := exam.PandocVersion(context.Background(), cfg.Export.PandocPath); err != nil {
		logger.Log.Warn("pandoc not available, exports will use the remaining strategies",
			zap.String("pandoc_path", cfg.Export.PandocPath), zap.Error(err))
	}

	repos := app.initRepositories(db, rdb)
	app.services = app.initServices(repos, cfg)
	controllers := app.initControllers(app.services, repos, db)

	monitoring.Init()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("question-bank", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static(cfg.Export.MediaURL, cfg.Storage.LocalPath)
	}

	return app
}

// PromoteStaff grants staff rights to an existing account.
func (a *App) PromoteStaff(email string) error {
	repos := a.initRepositories(a.DB, nil)
	return service.NewAuthService(repos.user, a.Config).PromoteStaff(email)
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// wait for an interrupt, then give in-flight exports time to finish
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	timeout := a.Config.Export.Timeout + 5*time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
