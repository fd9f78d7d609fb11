package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc2db/internal/models"
)

func TestPreviewUnknownProject(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.preview.Preview(context.Background(), uuid.New())
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestPreviewEmptyProject(t *testing.T) {
	env := newTestEnv(t)
	projectID := env.createProject(t, "empty")

	result, err := env.preview.Preview(context.Background(), projectID)
	require.NoError(t, err)
	assert.Empty(t, result.Tables)
	assert.Empty(t, result.Error)

	// looking at an empty project must not materialize its database
	exists, err := env.registry.Exists(context.Background(), projectID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPreviewAfterApply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.createProject(t, "billing")

	extracted, err := env.extraction.CreateFromPayload(ctx, projectID, invoicePayload())
	require.NoError(t, err)
	_, err = env.apply.Apply(ctx, projectID, extracted.ExtractionID)
	require.NoError(t, err)

	result, err := env.preview.Preview(ctx, projectID)
	require.NoError(t, err)
	assert.Empty(t, result.Error)
	require.Len(t, result.Tables, 2)

	// table names come back sorted
	assert.Equal(t, "Customer", result.Tables[0].TableName)
	assert.Equal(t, "Invoice", result.Tables[1].TableName)

	customer := result.Tables[0]
	assert.Equal(t, []string{"id", "name"}, customer.Columns)
	require.Len(t, customer.Rows, 2)

	names := []any{customer.Rows[0]["name"], customer.Rows[1]["name"]}
	assert.Contains(t, names, "Ada")
	assert.Contains(t, names, "Grace")
}

func TestPreviewRespectsRowLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.createProject(t, "billing")

	extracted, err := env.extraction.CreateFromPayload(ctx, projectID, invoicePayload())
	require.NoError(t, err)
	_, err = env.apply.Apply(ctx, projectID, extracted.ExtractionID)
	require.NoError(t, err)

	limited := NewPreviewService(env.projectRepo, env.registry, 1)
	result, err := limited.Preview(ctx, projectID)
	require.NoError(t, err)
	for _, table := range result.Tables {
		assert.LessOrEqual(t, len(table.Rows), 1)
	}
}

func TestPreviewDegradesOnCorruptDatabase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.createProject(t, "billing")

	// a database file that is not SQLite at all
	path := filepath.Join(env.cfg.DataDir, "project_"+projectID.String()+".db")
	require.NoError(t, os.WriteFile(path, []byte("this is not a database"), 0o644))

	result, err := env.preview.Preview(ctx, projectID)
	require.NoError(t, err, "introspection failures must not fail the request")
	assert.Empty(t, result.Tables)
	assert.Contains(t, result.Error, "preview failed")
	assert.Equal(t, models.ErrorCodePreview, result.ErrorCode)
}

func TestDisplayValue(t *testing.T) {
	assert.Equal(t, "hello", displayValue([]byte("hello")))
	assert.Equal(t, int64(7), displayValue(int64(7)))
	assert.Nil(t, displayValue(nil))
}
