package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SchemaRepository reflects the actual state of a project database: the
// tables present, their columns in declared order, and sample rows. It is
// driver-aware because SQLite exposes its catalog through pragmas while
// PostgreSQL uses information_schema.
type SchemaRepository struct {
	db     *sql.DB
	driver string
}

func NewSchemaRepository(db *sql.DB, driver string) *SchemaRepository {
	return &SchemaRepository{db: db, driver: driver}
}

// GetTables returns all user table names, sorted by name.
func (r *SchemaRepository) GetTables(ctx context.Context) ([]string, error) {
	var query string
	if r.driver == "pgx" {
		query = `
			SELECT table_name
			FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_type = 'BASE TABLE'
			ORDER BY table_name
		`
	} else {
		query = `
			SELECT name FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name
		`
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// GetColumns returns the column names of a table in database-declared order.
func (r *SchemaRepository) GetColumns(ctx context.Context, table string) ([]string, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if r.driver == "pgx" {
		query := `
			SELECT column_name
			FROM information_schema.columns
			WHERE table_schema = 'public' AND table_name = $1
			ORDER BY ordinal_position
		`
		rows, err = r.db.QueryContext(ctx, query, table)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT name FROM pragma_table_info($1) ORDER BY cid`, table)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

// FetchRows reads up to limit rows from a table, each as a column-to-value
// map with raw driver values.
func (r *SchemaRepository) FetchRows(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(table), limit)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
