package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	metadataDB    *sql.DB
	llmConfigured bool
}

func NewHealthHandler(metadataDB *sql.DB, llmConfigured bool) *HealthHandler {
	return &HealthHandler{
		metadataDB:    metadataDB,
		llmConfigured: llmConfigured,
	}
}

// Health handles GET /api/v1/health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	metadataStatus := "ok"
	if err := h.metadataDB.PingContext(ctx); err != nil {
		status = http.StatusServiceUnavailable
		metadataStatus = err.Error()
	}

	statusWord := "ok"
	if status != http.StatusOK {
		statusWord = "degraded"
	}

	c.JSON(status, gin.H{
		"status":         statusWord,
		"metadata_store": metadataStatus,
		"llm_configured": h.llmConfigured,
	})
}
