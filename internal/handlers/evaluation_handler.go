package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"doc2db/internal/models"
	"doc2db/internal/responses"
	"doc2db/internal/services"
)

type EvaluationHandler struct {
	evaluationService *services.EvaluationService
}

func NewEvaluationHandler(evaluationService *services.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluationService: evaluationService}
}

type accuracyRequest struct {
	Extracted   models.RawExtraction `json:"extracted"`
	GroundTruth models.RawExtraction `json:"ground_truth"`
}

// Accuracy handles POST /api/v1/evaluation/accuracy
func (h *EvaluationHandler) Accuracy(c *gin.Context) {
	var req accuracyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	report := h.evaluationService.ExtractionAccuracy(&req.Extracted, &req.GroundTruth)
	responses.Success(c, http.StatusOK, report, "Accuracy computed successfully")
}

type qualityRequest struct {
	DDL string `json:"ddl" binding:"required"`
}

// Quality handles POST /api/v1/evaluation/quality
func (h *EvaluationHandler) Quality(c *gin.Context) {
	var req qualityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	report := h.evaluationService.NormalizationQuality(req.DDL)
	responses.Success(c, http.StatusOK, report, "Quality computed successfully")
}
