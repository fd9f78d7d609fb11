package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"doc2db/internal/config"
	"doc2db/internal/database"
	"doc2db/internal/handlers"
	"doc2db/internal/llm"
	"doc2db/internal/repositories"
	"doc2db/internal/routes"
	"doc2db/internal/services"
)

// NewServer wires the whole application: metadata store, per-project database
// registry, repositories, services, handlers and routes, returning a
// configured HTTP server ready to listen.
func NewServer() *http.Server {
	cfg := config.Load()

	for _, dir := range []string{cfg.DataDir, cfg.UploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}

	metadataDB, err := database.OpenMetadata(cfg)
	if err != nil {
		log.Fatalf("failed to open metadata store: %v", err)
	}
	if err := database.RunMigrations(metadataDB); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	registry := database.NewRegistry(cfg)

	var extractor llm.Extractor
	if cfg.AnthropicAPIKey != "" {
		extractor = llm.NewClaudeExtractor(cfg.AnthropicAPIKey, cfg.LLMModel)
		log.Printf("Extraction model configured: %s", cfg.LLMModel)
	} else {
		log.Println("ANTHROPIC_API_KEY not set, document extraction endpoints are disabled")
	}

	// Dependency injection
	projectRepo := repositories.NewProjectRepository(metadataDB)
	extractionRepo := repositories.NewExtractionRepository(metadataDB)

	projectService := services.NewProjectService(projectRepo)
	extractionService := services.NewExtractionService(projectRepo, extractionRepo, extractor)
	applyService := services.NewApplyService(projectRepo, extractionRepo, registry)
	previewService := services.NewPreviewService(projectRepo, registry, cfg.PreviewRowLimit)
	evaluationService := services.NewEvaluationService()

	projectHandler := handlers.NewProjectHandler(projectService)
	extractionHandler := handlers.NewExtractionHandler(extractionService, cfg)
	schemaHandler := handlers.NewSchemaHandler(applyService, previewService)
	evaluationHandler := handlers.NewEvaluationHandler(evaluationService)
	healthHandler := handlers.NewHealthHandler(metadataDB, extractor != nil)

	// Initialize Gin router
	router := gin.Default()
	router.Use(cors.Default())
	router.MaxMultipartMemory = int64(cfg.MaxUploadMB) * 1024 * 1024
	routes.RegisterRoutes(router, projectHandler, extractionHandler, schemaHandler, evaluationHandler, healthHandler)

	// Create and configure the HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
