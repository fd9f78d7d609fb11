package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc2db/internal/models"
)

func invoiceSchema(t *testing.T) *models.RelationalSchema {
	t.Helper()
	rs, err := Normalize(graph(t, &models.RawExtraction{
		Entities: []models.RawEntity{
			{Name: "Customer", Attributes: []models.RawAttribute{
				{Name: "id", Type: "integer"},
				{Name: "name", Type: "string"},
			}},
			{Name: "Invoice", Attributes: []models.RawAttribute{
				{Name: "amount", Type: "decimal"},
				{Name: "issued", Type: "date"},
			}},
		},
		Relationships: []models.RawRelationship{
			{From: "Customer", To: "Invoice", Type: "one_to_many"},
		},
	}))
	require.NoError(t, err)
	return rs
}

func TestGenerateDDL(t *testing.T) {
	ddl := GenerateDDL(invoiceSchema(t))

	assert.Contains(t, ddl, `CREATE TABLE "Customer" (`)
	assert.Contains(t, ddl, `"id" INTEGER PRIMARY KEY`)
	assert.Contains(t, ddl, `"name" TEXT`)
	assert.Contains(t, ddl, `"amount" NUMERIC`)
	assert.Contains(t, ddl, `"issued" DATE`)
	assert.Contains(t, ddl, `"customer_id" INTEGER REFERENCES "Customer"("id")`)

	// referenced table rendered before the referencing one
	assert.Less(t,
		strings.Index(ddl, `CREATE TABLE "Customer"`),
		strings.Index(ddl, `CREATE TABLE "Invoice"`))

	// no dialect-specific clauses
	assert.NotContains(t, ddl, "AUTOINCREMENT")
	assert.NotContains(t, ddl, "SERIAL")
	assert.True(t, strings.HasSuffix(ddl, ";\n"))
}

func TestStatementsPairTables(t *testing.T) {
	rs := invoiceSchema(t)
	stmts := Statements(rs)
	require.Len(t, stmts, 2)
	assert.Equal(t, "Customer", stmts[0].Table)
	assert.Equal(t, "Invoice", stmts[1].Table)
	for _, s := range stmts {
		assert.Contains(t, s.SQL, "CREATE TABLE "+quoteIdent(s.Table))
		assert.True(t, strings.HasSuffix(s.SQL, ");"))
	}
}

func TestGenerateDDLCompositePrimaryKey(t *testing.T) {
	rs, err := Normalize(graph(t, &models.RawExtraction{
		Entities: []models.RawEntity{
			{Name: "Student", Attributes: []models.RawAttribute{{Name: "name", Type: "string"}}},
			{Name: "Course", Attributes: []models.RawAttribute{{Name: "title", Type: "string"}}},
		},
		Relationships: []models.RawRelationship{
			{From: "Student", To: "Course", Type: "many_to_many"},
		},
	}))
	require.NoError(t, err)

	ddl := GenerateDDL(rs)
	assert.Contains(t, ddl, `PRIMARY KEY ("student_id", "course_id")`)
	// composite PK members are NOT NULL columns, not inline PKs
	assert.Contains(t, ddl, `"student_id" INTEGER NOT NULL REFERENCES "Student"("id")`)
	assert.Contains(t, ddl, `"course_id" INTEGER NOT NULL REFERENCES "Course"("id")`)
}

func TestGenerateDDLDeferredForeignKeyOmitsReferences(t *testing.T) {
	rs, err := Normalize(graph(t, &models.RawExtraction{
		Entities: []models.RawEntity{
			{Name: "A", Attributes: []models.RawAttribute{{Name: "x", Type: "string"}}},
			{Name: "B", Attributes: []models.RawAttribute{{Name: "y", Type: "string"}}},
		},
		Relationships: []models.RawRelationship{
			{From: "A", To: "B", Type: "one_to_one"},
			{From: "B", To: "A", Type: "one_to_one"},
		},
	}))
	require.NoError(t, err)

	ddl := GenerateDDL(rs)
	assert.Equal(t, 1, strings.Count(ddl, "REFERENCES"),
		"the deferred foreign key must not render a REFERENCES clause")
}

func TestQuoteIdentEscapesQuotes(t *testing.T) {
	assert.Equal(t, `"plain"`, quoteIdent("plain"))
	assert.Equal(t, `"we""ird"`, quoteIdent(`we"ird`))
}
