package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"doc2db/internal/database"
	"doc2db/internal/models"
	"doc2db/internal/repositories"
)

// PreviewService reflects the actual state of a project's database for
// display. It never mutates, and introspection failures degrade to an empty
// result with an error flag instead of failing the request.
type PreviewService struct {
	projectRepo *repositories.ProjectRepository
	registry    *database.Registry
	rowLimit    int
}

func NewPreviewService(projectRepo *repositories.ProjectRepository, registry *database.Registry, rowLimit int) *PreviewService {
	return &PreviewService{
		projectRepo: projectRepo,
		registry:    registry,
		rowLimit:    rowLimit,
	}
}

type TablePreview struct {
	TableName string           `json:"table_name"`
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
}

type PreviewResult struct {
	Tables    []TablePreview `json:"tables"`
	Error     string         `json:"error,omitempty"`
	ErrorCode string         `json:"error_code,omitempty"`
}

func (s *PreviewService) Preview(ctx context.Context, projectID uuid.UUID) (*PreviewResult, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", projectID, models.ErrNotFound)
	}

	// Nothing applied yet: an empty table list, not an error.
	exists, err := s.registry.Exists(ctx, projectID)
	if err != nil {
		return s.degraded(projectID, err), nil
	}
	if !exists {
		return &PreviewResult{Tables: []TablePreview{}}, nil
	}

	pdb, err := s.registry.Get(ctx, projectID)
	if err != nil {
		return s.degraded(projectID, err), nil
	}
	schemaRepo := repositories.NewSchemaRepository(pdb.DB(), pdb.Driver())

	tableNames, err := schemaRepo.GetTables(ctx)
	if err != nil {
		return s.degraded(projectID, err), nil
	}

	result := &PreviewResult{Tables: make([]TablePreview, 0, len(tableNames))}
	for _, name := range tableNames {
		columns, err := schemaRepo.GetColumns(ctx, name)
		if err != nil {
			return s.degraded(projectID, err), nil
		}
		rows, err := schemaRepo.FetchRows(ctx, name, s.rowLimit)
		if err != nil {
			return s.degraded(projectID, err), nil
		}

		preview := TablePreview{TableName: name, Columns: columns, Rows: make([]map[string]any, 0, len(rows))}
		for _, row := range rows {
			display := make(map[string]any, len(row))
			for col, val := range row {
				display[col] = displayValue(val)
			}
			preview.Rows = append(preview.Rows, display)
		}
		result.Tables = append(result.Tables, preview)
	}
	return result, nil
}

func (s *PreviewService) degraded(projectID uuid.UUID, err error) *PreviewResult {
	perr := &models.PreviewError{Detail: err.Error()}
	log.Printf("Preview for project %s degraded: %v", projectID, perr)
	return &PreviewResult{
		Tables:    []TablePreview{},
		Error:     perr.Error(),
		ErrorCode: models.ErrorCodePreview,
	}
}

// displayValue converts raw driver values to display-safe primitives: byte
// slices become strings (this also covers NUMERIC values PostgreSQL returns
// as text, preserving precision), times become ISO-8601.
func displayValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format(time.RFC3339)
	default:
		return v
	}
}
