package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/google/uuid"

	"doc2db/internal/ingest"
	"doc2db/internal/llm"
	"doc2db/internal/models"
	"doc2db/internal/repositories"
	"doc2db/internal/schema"
)

// ExtractionService runs the inference-to-schema pipeline: document content
// goes to the model, the raw payload is validated into an entity graph,
// normalized into a relational schema, rendered as DDL and diagram text, and
// persisted as an Extraction record.
type ExtractionService struct {
	projectRepo    *repositories.ProjectRepository
	extractionRepo *repositories.ExtractionRepository
	extractor      llm.Extractor
}

func NewExtractionService(
	projectRepo *repositories.ProjectRepository,
	extractionRepo *repositories.ExtractionRepository,
	extractor llm.Extractor,
) *ExtractionService {
	return &ExtractionService{
		projectRepo:    projectRepo,
		extractionRepo: extractionRepo,
		extractor:      extractor,
	}
}

type ExtractResult struct {
	ProjectID        uuid.UUID                `json:"project_id"`
	ExtractionID     uuid.UUID                `json:"extraction_id"`
	DDL              string                   `json:"sql_ddl"`
	Diagram          string                   `json:"er_diagram"`
	Schema           *models.RelationalSchema `json:"relational_schema"`
	RawEntities      []models.RawEntity       `json:"raw_entities"`
	RawRelationships []models.RawRelationship `json:"raw_relationships"`
	TableData        []TableDataSummary       `json:"table_data"`
}

type TableDataSummary struct {
	Table    string `json:"table"`
	RowCount int    `json:"row_count"`
}

// ExtractFromUpload reads an uploaded file, sends it through the model and
// persists the resulting extraction for the project.
func (s *ExtractionService) ExtractFromUpload(ctx context.Context, projectID uuid.UUID, uploadPath string) (*ExtractResult, error) {
	if s.extractor == nil {
		return nil, errors.New("extraction model is not configured (set ANTHROPIC_API_KEY)")
	}

	doc, err := ingest.ReadDocument(uploadPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("upload %q: %w", uploadPath, models.ErrNotFound)
		}
		return nil, err
	}

	var raw *models.RawExtraction
	switch doc.Kind {
	case ingest.KindImage:
		raw, err = s.extractor.ExtractFromImage(ctx, doc.Data, doc.MediaType)
	default:
		raw, err = s.extractor.ExtractFromText(ctx, doc.Text)
	}
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	// When the model extracted a schema but no rows, tabular source files
	// can still supply sample data directly.
	if len(raw.TableData) == 0 && len(raw.Entities) > 0 && len(doc.Rows) >= 2 {
		raw.TableData = tableDataFromRows(raw.Entities[0].Name, doc.Rows)
	}

	return s.CreateFromPayload(ctx, projectID, raw)
}

// CreateFromPayload runs the core pipeline on an already-decoded raw payload:
// validate, normalize, render, persist.
func (s *ExtractionService) CreateFromPayload(ctx context.Context, projectID uuid.UUID, raw *models.RawExtraction) (*ExtractResult, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", projectID, models.ErrNotFound)
	}

	graph, err := models.BuildEntityGraph(raw)
	if err != nil {
		return nil, err
	}

	rs, err := schema.Normalize(graph)
	if err != nil {
		return nil, err
	}

	ddl := schema.GenerateDDL(rs)
	diagram := schema.GenerateMermaid(rs)

	graphJSON, err := json.Marshal(graph)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entity graph: %w", err)
	}
	schemaJSON, err := json.Marshal(rs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}

	extraction := &models.Extraction{
		ProjectID:   projectID,
		GraphJSON:   string(graphJSON),
		SchemaJSON:  string(schemaJSON),
		DDLText:     ddl,
		DiagramText: diagram,
	}
	if len(raw.TableData) > 0 {
		tableDataJSON, err := json.Marshal(raw.TableData)
		if err != nil {
			return nil, fmt.Errorf("failed to encode sample data: %w", err)
		}
		extraction.TableDataJSON = string(tableDataJSON)
	}

	if err := s.extractionRepo.Create(ctx, extraction); err != nil {
		return nil, fmt.Errorf("failed to persist extraction: %w", err)
	}

	result := &ExtractResult{
		ProjectID:        projectID,
		ExtractionID:     extraction.ID,
		DDL:              ddl,
		Diagram:          diagram,
		Schema:           rs,
		RawEntities:      raw.Entities,
		RawRelationships: raw.Relationships,
	}
	for _, td := range raw.TableData {
		result.TableData = append(result.TableData, TableDataSummary{
			Table:    td.Table,
			RowCount: len(td.Rows),
		})
	}
	return result, nil
}

// ExtractionDetail is one stored extraction with its artifacts decoded.
type ExtractionDetail struct {
	ID        uuid.UUID                `json:"id"`
	ProjectID uuid.UUID                `json:"project_id"`
	Graph     *models.EntityGraph      `json:"entity_graph"`
	Schema    *models.RelationalSchema `json:"relational_schema"`
	DDL       string                   `json:"sql_ddl"`
	Diagram   string                   `json:"er_diagram"`
	Applied   bool                     `json:"applied"`
	CreatedAt time.Time                `json:"created_at"`
}

// GetDetail returns a stored extraction with its entity graph and schema
// decoded from the persisted JSON.
func (s *ExtractionService) GetDetail(ctx context.Context, projectID, extractionID uuid.UUID) (*ExtractionDetail, error) {
	extraction, err := s.extractionRepo.GetByIDAndProjectID(ctx, extractionID, projectID)
	if err != nil {
		return nil, err
	}
	if extraction == nil {
		return nil, fmt.Errorf("extraction %s: %w", extractionID, models.ErrNotFound)
	}

	graph, err := extraction.Graph()
	if err != nil {
		return nil, err
	}
	rs, err := extraction.Schema()
	if err != nil {
		return nil, err
	}

	return &ExtractionDetail{
		ID:        extraction.ID,
		ProjectID: extraction.ProjectID,
		Graph:     graph,
		Schema:    rs,
		DDL:       extraction.DDLText,
		Diagram:   extraction.DiagramText,
		Applied:   extraction.Applied,
		CreatedAt: extraction.CreatedAt,
	}, nil
}

// ListByProject returns the project's extractions, newest first.
func (s *ExtractionService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Extraction, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", projectID, models.ErrNotFound)
	}
	return s.extractionRepo.ListByProjectID(ctx, projectID)
}

// tableDataFromRows turns header-first tabular rows into sample data for the
// given entity. Blank headers get positional names.
func tableDataFromRows(entityName string, rows [][]string) []models.TableData {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("col_%d", i)
		}
		headers[i] = h
	}

	var out []map[string]any
	for _, row := range rows[1:] {
		if len(row) < len(headers) {
			continue
		}
		m := make(map[string]any, len(headers))
		for i, h := range headers {
			m[h] = row[i]
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil
	}
	return []models.TableData{{
		Table: strings.ReplaceAll(entityName, " ", "_"),
		Rows:  out,
	}}
}
