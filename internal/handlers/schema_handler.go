package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"doc2db/internal/responses"
	"doc2db/internal/services"
)

type SchemaHandler struct {
	applyService   *services.ApplyService
	previewService *services.PreviewService
}

func NewSchemaHandler(applyService *services.ApplyService, previewService *services.PreviewService) *SchemaHandler {
	return &SchemaHandler{
		applyService:   applyService,
		previewService: previewService,
	}
}

// ApplySchema handles POST /api/v1/projects/:id/extractions/:extractionId/apply
func (h *SchemaHandler) ApplySchema(c *gin.Context) {
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	extractionID, ok := parseUUIDParam(c, "extractionId")
	if !ok {
		return
	}

	result, err := h.applyService.Apply(c.Request.Context(), projectID, extractionID)
	if err != nil {
		failFrom(c, err, "Failed to apply schema")
		return
	}

	responses.Success(c, http.StatusOK, result, "Schema applied successfully")
}

// PreviewDatabase handles GET /api/v1/projects/:id/preview
func (h *SchemaHandler) PreviewDatabase(c *gin.Context) {
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.previewService.Preview(c.Request.Context(), projectID)
	if err != nil {
		failFrom(c, err, "Failed to preview project database")
		return
	}

	responses.Success(c, http.StatusOK, result, "Preview generated successfully")
}
