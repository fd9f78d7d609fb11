package routes

import (
	"github.com/gin-gonic/gin"

	"doc2db/internal/handlers"
)

type ExtractionRoutes struct {
	handler *handlers.ExtractionHandler
}

func NewExtractionRoutes(handler *handlers.ExtractionHandler) *ExtractionRoutes {
	return &ExtractionRoutes{handler: handler}
}

func (r *ExtractionRoutes) RegisterRoutes(router *gin.RouterGroup) {
	projects := router.Group("/projects/:id")
	{
		projects.POST("/uploads", r.handler.UploadDocument)
		projects.POST("/extract", r.handler.Extract)
		projects.POST("/extractions", r.handler.CreateFromPayload)
		projects.GET("/extractions", r.handler.ListExtractions)
		projects.GET("/extractions/:extractionId", r.handler.GetExtraction)
	}
}
