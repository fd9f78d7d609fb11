package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// RunMigrations creates the metadata tables. Statements are idempotent and
// stick to SQL that both SQLite and PostgreSQL accept.
func RunMigrations(db *sql.DB) error {
	ctx := context.Background()

	migrations := []string{
		createProjectsTable,
		createExtractionsTable,
		createExtractionsProjectIndex,
	}

	for i, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Printf("All %d migrations completed", len(migrations))
	return nil
}

const createProjectsTable = `
CREATE TABLE IF NOT EXISTS projects (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL
);
`

const createExtractionsTable = `
CREATE TABLE IF NOT EXISTS extractions (
  id TEXT PRIMARY KEY,
  project_id TEXT NOT NULL REFERENCES projects(id),
  graph_json TEXT NOT NULL,
  schema_json TEXT NOT NULL,
  ddl_text TEXT NOT NULL,
  diagram_text TEXT NOT NULL,
  table_data_json TEXT,
  applied BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMP NOT NULL
);
`

const createExtractionsProjectIndex = `
CREATE INDEX IF NOT EXISTS idx_extractions_project_id ON extractions(project_id);
`
