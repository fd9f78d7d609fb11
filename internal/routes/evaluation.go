package routes

import (
	"github.com/gin-gonic/gin"

	"doc2db/internal/handlers"
)

type EvaluationRoutes struct {
	handler *handlers.EvaluationHandler
}

func NewEvaluationRoutes(handler *handlers.EvaluationHandler) *EvaluationRoutes {
	return &EvaluationRoutes{handler: handler}
}

func (r *EvaluationRoutes) RegisterRoutes(router *gin.RouterGroup) {
	evaluation := router.Group("/evaluation")
	{
		evaluation.POST("/accuracy", r.handler.Accuracy)
		evaluation.POST("/quality", r.handler.Quality)
	}
}
