package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"doc2db/internal/config"
	"doc2db/internal/ingest"
	"doc2db/internal/models"
	"doc2db/internal/responses"
	"doc2db/internal/services"
)

type ExtractionHandler struct {
	extractionService *services.ExtractionService
	cfg               *config.Config
}

func NewExtractionHandler(extractionService *services.ExtractionService, cfg *config.Config) *ExtractionHandler {
	return &ExtractionHandler{
		extractionService: extractionService,
		cfg:               cfg,
	}
}

// UploadDocument handles POST /api/v1/projects/:id/uploads. The file is
// stored under the upload directory with a generated name; extraction happens
// in a separate call so the client can re-run it without re-uploading.
func (h *ExtractionHandler) UploadDocument(c *gin.Context) {
	if _, ok := parseUUIDParam(c, "id"); !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "A multipart \"file\" field is required")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !ingest.AllowedExtensions[ext] {
		responses.Fail(c, http.StatusBadRequest,
			fmt.Errorf("unsupported file type %q", ext), "Unsupported file type")
		return
	}

	maxBytes := int64(h.cfg.MaxUploadMB) * 1024 * 1024
	if file.Size > maxBytes {
		responses.Fail(c, http.StatusRequestEntityTooLarge,
			fmt.Errorf("file exceeds the %dMB upload limit", h.cfg.MaxUploadMB), "File too large")
		return
	}

	storedName := uuid.New().String() + ext
	storedPath := filepath.Join(h.cfg.UploadDir, storedName)
	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Failed to store upload")
		return
	}

	responses.Success(c, http.StatusCreated, gin.H{
		"upload_path":       storedPath,
		"original_filename": file.Filename,
		"size_bytes":        file.Size,
	}, "File uploaded successfully")
}

type extractRequest struct {
	UploadPath string `json:"upload_path" binding:"required"`
}

// Extract handles POST /api/v1/projects/:id/extract: runs a stored upload
// through the model and persists the resulting extraction.
func (h *ExtractionHandler) Extract(c *gin.Context) {
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	result, err := h.extractionService.ExtractFromUpload(c.Request.Context(), projectID, req.UploadPath)
	if err != nil {
		failFrom(c, err, "Extraction failed")
		return
	}

	responses.Success(c, http.StatusCreated, result, "Extraction completed successfully")
}

// CreateFromPayload handles POST /api/v1/projects/:id/extractions: validates
// and normalizes an already-extracted payload without calling the model.
func (h *ExtractionHandler) CreateFromPayload(c *gin.Context) {
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var raw models.RawExtraction
	if err := c.ShouldBindJSON(&raw); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	result, err := h.extractionService.CreateFromPayload(c.Request.Context(), projectID, &raw)
	if err != nil {
		failFrom(c, err, "Failed to process extraction payload")
		return
	}

	responses.Success(c, http.StatusCreated, result, "Extraction created successfully")
}

// GetExtraction handles GET /api/v1/projects/:id/extractions/:extractionId
func (h *ExtractionHandler) GetExtraction(c *gin.Context) {
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	extractionID, ok := parseUUIDParam(c, "extractionId")
	if !ok {
		return
	}

	detail, err := h.extractionService.GetDetail(c.Request.Context(), projectID, extractionID)
	if err != nil {
		failFrom(c, err, "Extraction not found")
		return
	}

	responses.Success(c, http.StatusOK, detail, "Extraction retrieved successfully")
}

// ListExtractions handles GET /api/v1/projects/:id/extractions
func (h *ExtractionHandler) ListExtractions(c *gin.Context) {
	projectID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	extractions, err := h.extractionService.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		failFrom(c, err, "Failed to retrieve extractions")
		return
	}

	responses.Success(c, http.StatusOK, extractions, "Extractions retrieved successfully")
}
