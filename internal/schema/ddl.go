package schema

import (
	"fmt"
	"strings"

	"doc2db/internal/models"
)

// Statement pairs one CREATE TABLE statement with the table it creates, so
// the applier can reason per table without re-parsing SQL.
type Statement struct {
	Table string
	SQL   string
}

// Statements renders one CREATE TABLE statement per table, in schema order.
// The output stays in an ANSI-compatible subset: quoted identifiers, inline
// primary and foreign keys, a table-level constraint for composite primary
// keys, and no dialect-specific clauses.
func Statements(rs *models.RelationalSchema) []Statement {
	stmts := make([]Statement, 0, len(rs.Tables))
	for i := range rs.Tables {
		stmts = append(stmts, Statement{
			Table: rs.Tables[i].Name,
			SQL:   renderCreateTable(&rs.Tables[i]),
		})
	}
	return stmts
}

// GenerateDDL renders the full DDL text. Pure function of the schema: the
// same input always produces byte-identical output.
func GenerateDDL(rs *models.RelationalSchema) string {
	stmts := Statements(rs)
	parts := make([]string, 0, len(stmts))
	for _, s := range stmts {
		parts = append(parts, s.SQL)
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func renderCreateTable(t *models.Table) string {
	pks := t.PrimaryKeyColumns()

	var defs []string
	for _, c := range t.Columns {
		def := "  " + quoteIdent(c.Name) + " " + c.SQLType
		if c.PrimaryKey && len(pks) == 1 {
			def += " PRIMARY KEY"
		} else if !c.Nullable {
			def += " NOT NULL"
		}
		if c.ForeignKey && !c.Deferred && c.References != nil {
			def += fmt.Sprintf(" REFERENCES %s(%s)",
				quoteIdent(c.References.Table),
				quoteIdent(c.References.Column))
		}
		defs = append(defs, def)
	}

	if len(pks) > 1 {
		quoted := make([]string, 0, len(pks))
		for _, pk := range pks {
			quoted = append(quoted, quoteIdent(pk))
		}
		defs = append(defs, "  PRIMARY KEY ("+strings.Join(quoted, ", ")+")")
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE " + quoteIdent(t.Name) + " (\n")
	sb.WriteString(strings.Join(defs, ",\n"))
	sb.WriteString("\n);")
	return sb.String()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
