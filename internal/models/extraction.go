package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Extraction is the persisted result of one model extraction: the validated
// entity graph, the normalized schema, the rendered DDL and diagram text, and
// any sample rows read off the document. Immutable except for Applied, which
// flips false to true exactly once.
type Extraction struct {
	ID            uuid.UUID `json:"id"`
	ProjectID     uuid.UUID `json:"project_id"`
	GraphJSON     string    `json:"-"`
	SchemaJSON    string    `json:"-"`
	DDLText       string    `json:"ddl_text"`
	DiagramText   string    `json:"diagram_text"`
	TableDataJSON string    `json:"-"`
	Applied       bool      `json:"applied"`
	CreatedAt     time.Time `json:"created_at"`
}

func (e *Extraction) Prepare() {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
}

func (e *Extraction) Graph() (*EntityGraph, error) {
	var g EntityGraph
	if err := json.Unmarshal([]byte(e.GraphJSON), &g); err != nil {
		return nil, fmt.Errorf("failed to decode stored entity graph: %w", err)
	}
	return &g, nil
}

func (e *Extraction) Schema() (*RelationalSchema, error) {
	var s RelationalSchema
	if err := json.Unmarshal([]byte(e.SchemaJSON), &s); err != nil {
		return nil, fmt.Errorf("failed to decode stored schema: %w", err)
	}
	return &s, nil
}

// SampleData decodes the stored sample rows. An empty payload is not an
// error, it just means the document had no readable rows.
func (e *Extraction) SampleData() ([]TableData, error) {
	if e.TableDataJSON == "" {
		return nil, nil
	}
	var td []TableData
	if err := json.Unmarshal([]byte(e.TableDataJSON), &td); err != nil {
		return nil, fmt.Errorf("failed to decode stored sample data: %w", err)
	}
	return td, nil
}
