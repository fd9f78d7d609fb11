package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc2db/internal/config"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(&config.Config{
		DataDir:         t.TempDir(),
		ProjectDBDriver: "sqlite3",
	})
	t.Cleanup(r.Close)
	return r
}

func TestRegistryLazyCreate(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	projectID := uuid.New()

	exists, err := r.Exists(ctx, projectID)
	require.NoError(t, err)
	assert.False(t, exists)

	pdb, err := r.Get(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", pdb.Driver())

	// the file only appears once a statement runs
	_, err = pdb.DB().Exec(`CREATE TABLE "t" ("x" TEXT)`)
	require.NoError(t, err)

	exists, err = r.Exists(ctx, projectID)
	require.NoError(t, err)
	assert.True(t, exists)

	path := filepath.Join(r.cfg.DataDir, "project_"+projectID.String()+".db")
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestRegistryReturnsSameHandle(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	projectID := uuid.New()

	first, err := r.Get(ctx, projectID)
	require.NoError(t, err)
	second, err := r.Get(ctx, projectID)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestRegistryIsolatesProjects(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	a, err := r.Get(ctx, uuid.New())
	require.NoError(t, err)
	b, err := r.Get(ctx, uuid.New())
	require.NoError(t, err)

	_, err = a.DB().Exec(`CREATE TABLE "only_in_a" ("x" TEXT)`)
	require.NoError(t, err)

	var count int
	err = b.DB().QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'only_in_a'`).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProjectDatabaseName(t *testing.T) {
	id := uuid.MustParse("3b241101-e2bb-4255-8caf-4136c566a962")
	assert.Equal(t, "project_3b241101e2bb42558caf4136c566a962", projectDatabaseName(id))
}

func TestReplaceDatabaseName(t *testing.T) {
	dsn, err := replaceDatabaseName("postgres://user:pw@localhost:5432/postgres?sslmode=disable", "project_abc")
	require.NoError(t, err)
	assert.Equal(t, "postgres://user:pw@localhost:5432/project_abc?sslmode=disable", dsn)
}
