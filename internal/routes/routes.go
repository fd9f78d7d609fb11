package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"doc2db/internal/handlers"
)

func RegisterRoutes(
	router *gin.Engine,
	projectHandler *handlers.ProjectHandler,
	extractionHandler *handlers.ExtractionHandler,
	schemaHandler *handlers.SchemaHandler,
	evaluationHandler *handlers.EvaluationHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := router.Group("/api/v1")

	projectRoutes := NewProjectRoutes(projectHandler)
	projectRoutes.RegisterRoutes(api)

	extractionRoutes := NewExtractionRoutes(extractionHandler)
	extractionRoutes.RegisterRoutes(api)

	schemaRoutes := NewSchemaRoutes(schemaHandler)
	schemaRoutes.RegisterRoutes(api)

	evaluationRoutes := NewEvaluationRoutes(evaluationHandler)
	evaluationRoutes.RegisterRoutes(api)

	api.GET("/health", healthHandler.Health)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}
