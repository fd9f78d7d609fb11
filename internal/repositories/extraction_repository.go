package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"doc2db/internal/models"
)

type ExtractionRepository struct {
	db *sql.DB
}

func NewExtractionRepository(db *sql.DB) *ExtractionRepository {
	return &ExtractionRepository{db: db}
}

func (r *ExtractionRepository) Create(ctx context.Context, extraction *models.Extraction) error {
	extraction.Prepare()
	if extraction.CreatedAt.IsZero() {
		extraction.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO extractions
			(id, project_id, graph_json, schema_json, ddl_text, diagram_text, table_data_json, applied, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	var tableData any
	if extraction.TableDataJSON != "" {
		tableData = extraction.TableDataJSON
	}
	_, err := r.db.ExecContext(ctx, query,
		extraction.ID.String(),
		extraction.ProjectID.String(),
		extraction.GraphJSON,
		extraction.SchemaJSON,
		extraction.DDLText,
		extraction.DiagramText,
		tableData,
		extraction.Applied,
		extraction.CreatedAt,
	)
	return err
}

// GetByIDAndProjectID returns nil, nil when no such extraction belongs to the
// project.
func (r *ExtractionRepository) GetByIDAndProjectID(ctx context.Context, id, projectID uuid.UUID) (*models.Extraction, error) {
	query := `
		SELECT id, project_id, graph_json, schema_json, ddl_text, diagram_text, table_data_json, applied, created_at
		FROM extractions WHERE id = $1 AND project_id = $2
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id.String(), projectID.String()))
}

func (r *ExtractionRepository) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]models.Extraction, error) {
	query := `
		SELECT id, project_id, graph_json, schema_json, ddl_text, diagram_text, table_data_json, applied, created_at
		FROM extractions WHERE project_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var extractions []models.Extraction
	for rows.Next() {
		e, err := scanExtraction(rows.Scan)
		if err != nil {
			return nil, err
		}
		extractions = append(extractions, *e)
	}
	return extractions, rows.Err()
}

// MarkApplied flips the applied flag to true. Calling it again is harmless.
func (r *ExtractionRepository) MarkApplied(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE extractions SET applied = TRUE WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id.String())
	return err
}

func (r *ExtractionRepository) scanOne(row *sql.Row) (*models.Extraction, error) {
	e, err := scanExtraction(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func scanExtraction(scan func(...any) error) (*models.Extraction, error) {
	var (
		e         models.Extraction
		rawID     string
		rawProj   string
		tableData sql.NullString
	)
	err := scan(
		&rawID,
		&rawProj,
		&e.GraphJSON,
		&e.SchemaJSON,
		&e.DDLText,
		&e.DiagramText,
		&tableData,
		&e.Applied,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if e.ID, err = uuid.Parse(rawID); err != nil {
		return nil, err
	}
	if e.ProjectID, err = uuid.Parse(rawProj); err != nil {
		return nil, err
	}
	e.TableDataJSON = tableData.String
	return &e, nil
}
