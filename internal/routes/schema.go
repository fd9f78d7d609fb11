package routes

import (
	"github.com/gin-gonic/gin"

	"doc2db/internal/handlers"
)

type SchemaRoutes struct {
	handler *handlers.SchemaHandler
}

func NewSchemaRoutes(handler *handlers.SchemaHandler) *SchemaRoutes {
	return &SchemaRoutes{handler: handler}
}

func (r *SchemaRoutes) RegisterRoutes(router *gin.RouterGroup) {
	projects := router.Group("/projects/:id")
	{
		projects.POST("/extractions/:extractionId/apply", r.handler.ApplySchema)
		projects.GET("/preview", r.handler.PreviewDatabase)
	}
}
