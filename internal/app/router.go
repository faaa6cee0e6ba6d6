package app

import (
	"question_bank_backend/docs"
	"question_bank_backend/internal/config"
	"question_bank_backend/internal/middleware"
	"question_bank_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. public routes
	a.registerPublicRoutes(router, c)

	// 2. any authenticated user
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerUserRoutes(authGroup, c)

		// 3. staff only
		staff := authGroup.Group("")
		staff.Use(middleware.StaffMiddleware())
		a.registerStaffRoutes(staff, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerUserRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)

	// questions
	rg.GET("/questoes", c.question.ListQuestions)
	rg.GET("/questoes/:id", c.question.GetQuestion)

	// taxonomy
	rg.GET("/conteudos", c.content.ListContents)
	rg.GET("/buscar-conteudos", c.content.ChildContents)
	rg.GET("/unique-values", c.content.UniqueValues)

	// exam boards
	rg.GET("/bancas", c.examBoard.ListExamBoards)
	rg.GET("/bancas/:id", c.examBoard.GetExamBoard)

	// editor image upload
	rg.POST("/upload", c.upload.UploadImage)

	// exam export
	printTest := rg.Group("/print-test")
	{
		printTest.POST("/docx", c.export.PrintTestDOCX)
		printTest.POST("/pdf", c.export.PrintTestPDF)
	}
}

func (a *App) registerStaffRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/questoes", c.question.CreateQuestion)
	rg.PUT("/questoes/:id", c.question.UpdateQuestion)
	rg.DELETE("/questoes/:id", c.question.DeleteQuestion)

	rg.POST("/conteudos", c.content.CreateContent)

	rg.POST("/bancas", c.examBoard.CreateExamBoard)
	rg.PUT("/bancas/:id", c.examBoard.UpdateExamBoard)
	rg.DELETE("/bancas/:id", c.examBoard.DeleteExamBoard)
}
