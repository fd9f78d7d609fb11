package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc2db/internal/models"
)

func TestExtractionAccuracy(t *testing.T) {
	svc := NewEvaluationService()

	extracted := &models.RawExtraction{
		Entities: []models.RawEntity{{Name: "Customer"}, {Name: "Invoice"}, {Name: "Ghost"}},
		Relationships: []models.RawRelationship{
			{From: "Customer", To: "Invoice"},
		},
	}
	truth := &models.RawExtraction{
		Entities: []models.RawEntity{{Name: "customer"}, {Name: "invoice"}},
		Relationships: []models.RawRelationship{
			{From: "customer", To: "invoice"},
			{From: "invoice", To: "line_item"},
		},
	}

	report := svc.ExtractionAccuracy(extracted, truth)

	assert.InDelta(t, 2.0/3.0, report.Entities.Precision, 1e-9)
	assert.InDelta(t, 1.0, report.Entities.Recall, 1e-9)
	assert.InDelta(t, 0.8, report.Entities.F1, 1e-9)

	assert.InDelta(t, 1.0, report.Relationships.Precision, 1e-9)
	assert.InDelta(t, 0.5, report.Relationships.Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, report.Relationships.F1, 1e-9)
}

func TestExtractionAccuracyEmptyInputs(t *testing.T) {
	svc := NewEvaluationService()

	report := svc.ExtractionAccuracy(&models.RawExtraction{}, &models.RawExtraction{})
	assert.Zero(t, report.Entities.Precision)
	assert.Zero(t, report.Entities.Recall)
	assert.Zero(t, report.Entities.F1)

	report = svc.ExtractionAccuracy(nil, nil)
	assert.Zero(t, report.Relationships.F1)
}

func TestNormalizationQuality(t *testing.T) {
	svc := NewEvaluationService()

	ddl := `CREATE TABLE "Customer" (
  "id" INTEGER PRIMARY KEY,
  "name" TEXT
);

CREATE TABLE "Invoice" (
  "id" INTEGER PRIMARY KEY,
  "customer_id" INTEGER REFERENCES "Customer"("id")
);
`
	report := svc.NormalizationQuality(ddl)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.TableCount)
	assert.Equal(t, 2, report.TablesWithPK)
	assert.Equal(t, 1, report.FKMentions)
	assert.NotEmpty(t, report.ScoreNote)
}
