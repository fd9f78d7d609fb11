package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"doc2db/internal/database"
	"doc2db/internal/models"
	"doc2db/internal/repositories"
	"doc2db/internal/schema"
)

// ApplyService materializes a persisted extraction into the project's
// database: all CREATE TABLE statements in one transaction, then the sample
// rows. Applies against the same project are serialized by the registry's
// per-project lock.
type ApplyService struct {
	projectRepo    *repositories.ProjectRepository
	extractionRepo *repositories.ExtractionRepository
	registry       *database.Registry
}

func NewApplyService(
	projectRepo *repositories.ProjectRepository,
	extractionRepo *repositories.ExtractionRepository,
	registry *database.Registry,
) *ApplyService {
	return &ApplyService{
		projectRepo:    projectRepo,
		extractionRepo: extractionRepo,
		registry:       registry,
	}
}

type ApplyResult struct {
	AppliedTables []string `json:"applied_tables"`
	Warnings      []string `json:"warnings"`
	RowsInserted  int      `json:"rows_inserted"`
}

// Apply executes the extraction's schema against the project database. The
// first apply is all-or-nothing: any conflict rolls back and returns an
// *models.ApplyError with the database untouched. Re-applying an already
// applied extraction skips tables that exist with an identical definition
// (recorded as warnings) and fails on drift. Transient lock contention is
// retried once.
func (s *ApplyService) Apply(ctx context.Context, projectID, extractionID uuid.UUID) (*ApplyResult, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", projectID, models.ErrNotFound)
	}

	extraction, err := s.extractionRepo.GetByIDAndProjectID(ctx, extractionID, projectID)
	if err != nil {
		return nil, err
	}
	if extraction == nil {
		return nil, fmt.Errorf("extraction %s: %w", extractionID, models.ErrNotFound)
	}

	rs, err := extraction.Schema()
	if err != nil {
		return nil, err
	}
	sample, err := extraction.SampleData()
	if err != nil {
		return nil, err
	}

	pdb, err := s.registry.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	pdb.Lock()
	defer pdb.Unlock()

	result, err := s.runApply(ctx, pdb, extraction, rs, sample)
	if err != nil && isLockContention(err) {
		log.Printf("Apply for project %s hit lock contention, retrying once", projectID)
		time.Sleep(200 * time.Millisecond)
		result, err = s.runApply(ctx, pdb, extraction, rs, sample)
	}
	if err != nil {
		return nil, err
	}

	if err := s.extractionRepo.MarkApplied(ctx, extraction.ID); err != nil {
		return nil, fmt.Errorf("failed to mark extraction applied: %w", err)
	}
	return result, nil
}

func (s *ApplyService) runApply(ctx context.Context, pdb *database.ProjectDB, extraction *models.Extraction, rs *models.RelationalSchema, sample []models.TableData) (*ApplyResult, error) {
	schemaRepo := repositories.NewSchemaRepository(pdb.DB(), pdb.Driver())

	tableNames, err := schemaRepo.GetTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect project database: %w", err)
	}
	existing := make(map[string][]string, len(tableNames))
	for _, name := range tableNames {
		cols, err := schemaRepo.GetColumns(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect table %q: %w", name, err)
		}
		existing[strings.ToLower(name)] = cols
	}

	tx, err := pdb.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start apply transaction: %w", err)
	}
	defer tx.Rollback()

	result := &ApplyResult{}
	for _, stmt := range schema.Statements(rs) {
		if cols, ok := existing[strings.ToLower(stmt.Table)]; ok {
			if !extraction.Applied {
				return nil, &models.ApplyError{Table: stmt.Table, Reason: "table already exists"}
			}
			if !columnsMatch(rs.FindTable(stmt.Table), cols) {
				return nil, &models.ApplyError{
					Table:  stmt.Table,
					Reason: "existing table definition differs from this extraction",
				}
			}
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("table %q already exists with an identical definition, skipped", stmt.Table))
			result.AppliedTables = append(result.AppliedTables, stmt.Table)
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt.SQL); err != nil {
			return nil, &models.ApplyError{
				Table:  stmt.Table,
				Reason: "statement execution failed",
				Detail: err.Error(),
			}
		}
		result.AppliedTables = append(result.AppliedTables, stmt.Table)
	}

	inserted, warnings, err := insertSampleData(ctx, tx, rs, sample, existing)
	if err != nil {
		return nil, err
	}
	result.RowsInserted = inserted
	result.Warnings = append(result.Warnings, warnings...)

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit apply transaction: %w", err)
	}
	return result, nil
}

// insertSampleData inserts the extraction's sample rows into freshly created
// tables, coercing values to the declared column types. Rows missing a
// required column are skipped with a warning. Tables that already existed
// before this apply keep their rows; re-inserting would duplicate them.
func insertSampleData(ctx context.Context, tx *sql.Tx, rs *models.RelationalSchema, sample []models.TableData, existing map[string][]string) (int, []string, error) {
	total := 0
	var warnings []string

	for _, block := range sample {
		table := rs.FindTable(strings.ReplaceAll(block.Table, " ", "_"))
		if table == nil {
			warnings = append(warnings,
				fmt.Sprintf("sample data references unknown table %q, rows skipped", block.Table))
			continue
		}
		if _, ok := existing[strings.ToLower(table.Name)]; ok {
			warnings = append(warnings,
				fmt.Sprintf("table %q already had rows applied, sample rows skipped", table.Name))
			continue
		}

		for i, row := range block.Rows {
			cols, vals, missing := bindRow(table, row)
			if missing != "" {
				warnings = append(warnings,
					fmt.Sprintf("row %d for table %q is missing required column %q, skipped", i+1, table.Name, missing))
				continue
			}
			if len(cols) == 0 {
				warnings = append(warnings,
					fmt.Sprintf("row %d for table %q matches no columns, skipped", i+1, table.Name))
				continue
			}

			quoted := make([]string, len(cols))
			placeholders := make([]string, len(cols))
			for j, c := range cols {
				quoted[j] = `"` + c + `"`
				placeholders[j] = "$" + strconv.Itoa(j+1)
			}
			query := fmt.Sprintf(`INSERT INTO "%s" (%s) VALUES (%s)`,
				table.Name, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
			if _, err := tx.ExecContext(ctx, query, vals...); err != nil {
				return 0, nil, &models.ApplyError{
					Table:  table.Name,
					Reason: fmt.Sprintf("failed to insert sample row %d", i+1),
					Detail: err.Error(),
				}
			}
			total++
		}
	}
	return total, warnings, nil
}

// bindRow matches row keys to table columns case-insensitively and coerces
// each value to the column's SQL type. It returns the name of the first
// required column without a usable value, if any.
func bindRow(table *models.Table, row map[string]any) (cols []string, vals []any, missing string) {
	compositePK := len(table.PrimaryKeyColumns()) > 1
	for _, c := range table.Columns {
		val, ok := lookupValue(row, c.Name)
		required := !c.Nullable && (!c.PrimaryKey || compositePK)
		if !ok || val == nil {
			if required {
				return nil, nil, c.Name
			}
			continue
		}
		coerced, err := coerceValue(val, c.SQLType)
		if err != nil {
			if required {
				return nil, nil, c.Name
			}
			continue
		}
		cols = append(cols, c.Name)
		vals = append(vals, coerced)
	}
	return cols, vals, ""
}

func lookupValue(row map[string]any, column string) (any, bool) {
	for k, v := range row {
		if strings.EqualFold(strings.ReplaceAll(k, " ", "_"), column) {
			return v, true
		}
	}
	return nil, false
}

// coerceValue converts a loosely-typed sample value to the declared column
// type. JSON numbers arrive as float64, everything document-derived tends to
// arrive as string.
func coerceValue(v any, sqlType string) (any, error) {
	switch sqlType {
	case "INTEGER":
		switch t := v.(type) {
		case float64:
			return int64(t), nil
		case int:
			return int64(t), nil
		case int64:
			return t, nil
		case string:
			return strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		}
	case "NUMERIC":
		switch t := v.(type) {
		case float64:
			return t, nil
		case int:
			return float64(t), nil
		case int64:
			return float64(t), nil
		case string:
			return strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(t, ",", "")), 64)
		}
	case "BOOLEAN":
		switch t := v.(type) {
		case bool:
			return t, nil
		case float64:
			return t != 0, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(t)) {
			case "true", "yes", "1", "y":
				return true, nil
			case "false", "no", "0", "n":
				return false, nil
			}
		}
	case "DATE":
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "01/02/2006"} {
				if t, err := time.Parse(layout, s); err == nil {
					return t.Format("2006-01-02"), nil
				}
			}
		}
	default:
		return fmt.Sprintf("%v", v), nil
	}
	return nil, fmt.Errorf("cannot coerce %v to %s", v, sqlType)
}

// isLockContention matches the transient locking failures worth one retry:
// SQLite busy/locked states and PostgreSQL lock timeouts and deadlocks.
func isLockContention(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"database is locked",
		"database table is locked",
		"lock timeout",
		"deadlock detected",
		"55p03",
		"40p01",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// columnsMatch compares an introspected column list against the schema's
// declaration: same names, same order, case-insensitively. Introspected type
// spellings vary per engine, so names and order are the drift signal.
func columnsMatch(table *models.Table, introspected []string) bool {
	if table == nil || len(table.Columns) != len(introspected) {
		return false
	}
	for i, c := range table.Columns {
		if !strings.EqualFold(c.Name, introspected[i]) {
			return false
		}
	}
	return true
}
