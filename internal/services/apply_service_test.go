package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc2db/internal/config"
	"doc2db/internal/database"
	"doc2db/internal/models"
	"doc2db/internal/repositories"
)

type testEnv struct {
	cfg            *config.Config
	projectRepo    *repositories.ProjectRepository
	extractionRepo *repositories.ExtractionRepository
	registry       *database.Registry
	extraction     *ExtractionService
	apply          *ApplyService
	preview        *PreviewService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		DataDir:         t.TempDir(),
		ProjectDBDriver: "sqlite3",
		PreviewRowLimit: 50,
	}

	db, err := database.OpenMetadata(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db))

	registry := database.NewRegistry(cfg)
	t.Cleanup(registry.Close)

	projectRepo := repositories.NewProjectRepository(db)
	extractionRepo := repositories.NewExtractionRepository(db)

	return &testEnv{
		cfg:            cfg,
		projectRepo:    projectRepo,
		extractionRepo: extractionRepo,
		registry:       registry,
		extraction:     NewExtractionService(projectRepo, extractionRepo, nil),
		apply:          NewApplyService(projectRepo, extractionRepo, registry),
		preview:        NewPreviewService(projectRepo, registry, cfg.PreviewRowLimit),
	}
}

func (env *testEnv) createProject(t *testing.T, name string) uuid.UUID {
	t.Helper()
	project := &models.Project{Name: name}
	require.NoError(t, env.projectRepo.Create(context.Background(), project))
	return project.ID
}

func invoicePayload() *models.RawExtraction {
	return &models.RawExtraction{
		Entities: []models.RawEntity{
			{Name: "Customer", Attributes: []models.RawAttribute{
				{Name: "id", Type: "integer"},
				{Name: "name", Type: "string"},
			}},
			{Name: "Invoice", Attributes: []models.RawAttribute{
				{Name: "amount", Type: "decimal"},
				{Name: "paid", Type: "boolean"},
			}},
		},
		Relationships: []models.RawRelationship{
			{From: "Customer", To: "Invoice", Type: "one_to_many"},
		},
		TableData: []models.TableData{
			{Table: "Customer", Rows: []map[string]any{
				{"id": float64(1), "name": "Ada"},
				{"id": "2", "name": "Grace"},
			}},
			{Table: "Invoice", Rows: []map[string]any{
				{"amount": "12.50", "paid": "yes", "customer_id": float64(1)},
			}},
		},
	}
}

func TestApplyRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.createProject(t, "billing")

	extracted, err := env.extraction.CreateFromPayload(ctx, projectID, invoicePayload())
	require.NoError(t, err)

	result, err := env.apply.Apply(ctx, projectID, extracted.ExtractionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Customer", "Invoice"}, result.AppliedTables)
	assert.Equal(t, 3, result.RowsInserted)
	assert.Empty(t, result.Warnings)

	pdb, err := env.registry.Get(ctx, projectID)
	require.NoError(t, err)

	var count int
	require.NoError(t, pdb.DB().QueryRow(`SELECT COUNT(*) FROM "Customer"`).Scan(&count))
	assert.Equal(t, 2, count)

	var amount float64
	var paid bool
	require.NoError(t, pdb.DB().QueryRow(
		`SELECT "amount", "paid" FROM "Invoice" WHERE "customer_id" = 1`).Scan(&amount, &paid))
	assert.Equal(t, 12.5, amount)
	assert.True(t, paid)

	stored, err := env.extractionRepo.GetByIDAndProjectID(ctx, extracted.ExtractionID, projectID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Applied)
}

func TestApplyConflictLeavesDatabaseUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.createProject(t, "billing")

	extracted, err := env.extraction.CreateFromPayload(ctx, projectID, invoicePayload())
	require.NoError(t, err)

	pdb, err := env.registry.Get(ctx, projectID)
	require.NoError(t, err)
	_, err = pdb.DB().Exec(`CREATE TABLE "Invoice" ("x" TEXT)`)
	require.NoError(t, err)

	_, err = env.apply.Apply(ctx, projectID, extracted.ExtractionID)
	var aerr *models.ApplyError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "Invoice", aerr.Table)

	// nothing else was created
	repo := repositories.NewSchemaRepository(pdb.DB(), pdb.Driver())
	tables, err := repo.GetTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Invoice"}, tables)

	stored, err := env.extractionRepo.GetByIDAndProjectID(ctx, extracted.ExtractionID, projectID)
	require.NoError(t, err)
	assert.False(t, stored.Applied)
}

func TestReapplySkipsIdenticalTables(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.createProject(t, "billing")

	extracted, err := env.extraction.CreateFromPayload(ctx, projectID, invoicePayload())
	require.NoError(t, err)

	_, err = env.apply.Apply(ctx, projectID, extracted.ExtractionID)
	require.NoError(t, err)

	result, err := env.apply.Apply(ctx, projectID, extracted.ExtractionID)
	require.NoError(t, err)
	assert.Len(t, result.Warnings, 4, "two skipped tables plus two skipped sample blocks")
	assert.Zero(t, result.RowsInserted)

	pdb, err := env.registry.Get(ctx, projectID)
	require.NoError(t, err)
	var count int
	require.NoError(t, pdb.DB().QueryRow(`SELECT COUNT(*) FROM "Customer"`).Scan(&count))
	assert.Equal(t, 2, count, "sample rows must not be duplicated")
}

func TestReapplyFailsOnDrift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.createProject(t, "billing")

	extracted, err := env.extraction.CreateFromPayload(ctx, projectID, invoicePayload())
	require.NoError(t, err)
	_, err = env.apply.Apply(ctx, projectID, extracted.ExtractionID)
	require.NoError(t, err)

	pdb, err := env.registry.Get(ctx, projectID)
	require.NoError(t, err)
	_, err = pdb.DB().Exec(`DROP TABLE "Invoice"`)
	require.NoError(t, err)
	_, err = pdb.DB().Exec(`CREATE TABLE "Invoice" ("something" TEXT)`)
	require.NoError(t, err)

	_, err = env.apply.Apply(ctx, projectID, extracted.ExtractionID)
	var aerr *models.ApplyError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "Invoice", aerr.Table)
	assert.Contains(t, aerr.Reason, "differs")
}

func TestApplySampleRowWarnings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	projectID := env.createProject(t, "billing")

	payload := invoicePayload()
	payload.TableData = append(payload.TableData,
		models.TableData{Table: "Nonexistent", Rows: []map[string]any{{"a": 1}}})
	// a row whose required foreign key cannot be coerced
	payload.TableData[1].Rows = append(payload.TableData[1].Rows,
		map[string]any{"amount": "99.00", "paid": "no", "customer_id": "not-a-number"})

	extracted, err := env.extraction.CreateFromPayload(ctx, projectID, payload)
	require.NoError(t, err)

	result, err := env.apply.Apply(ctx, projectID, extracted.ExtractionID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.RowsInserted)
	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], "customer_id")
	assert.Contains(t, result.Warnings[1], "unknown table")
}

func TestApplyUnknownProjectAndExtraction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.apply.Apply(ctx, uuid.New(), uuid.New())
	require.ErrorIs(t, err, models.ErrNotFound)

	projectID := env.createProject(t, "billing")
	_, err = env.apply.Apply(ctx, projectID, uuid.New())
	require.ErrorIs(t, err, models.ErrNotFound)
}
