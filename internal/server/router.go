package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/typegrove/curricula-backend/internal/http/handlers"
)

type RouterConfig struct {
	HealthHandler       *handlers.HealthHandler
	AssignmentHandler   *handlers.AssignmentHandler
	ConceptIndexHandler *handlers.ConceptIndexHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthz", cfg.HealthHandler.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/lessons/:id/concepts/assign", cfg.AssignmentHandler.AssignLesson)
		api.GET("/lessons/:id/concepts", cfg.AssignmentHandler.ListLessonConcepts)
		api.POST("/courses/:id/concepts/assign", cfg.AssignmentHandler.AssignCourse)
		api.POST("/concepts/index", cfg.ConceptIndexHandler.Reindex)
	}

	return router
}
