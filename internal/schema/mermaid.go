package schema

import (
	"fmt"
	"strings"

	"doc2db/internal/models"
)

// GenerateMermaid renders a Mermaid ER diagram for a relational schema: one
// relationship line per foreign key and one entity block per table. It walks
// the same ordered table sequence as the DDL generator, so the two artifacts
// never disagree, and is deterministic for equal input.
func GenerateMermaid(rs *models.RelationalSchema) string {
	var sb strings.Builder
	sb.WriteString("erDiagram\n")

	seen := make(map[string]bool)
	wroteRelationship := false
	writeRel := func(from, relType, to string) {
		key := from + ":" + relType + ":" + to
		if seen[key] {
			return
		}
		seen[key] = true
		sb.WriteString(fmt.Sprintf("    %s %s %s : \"\"\n", from, relType, to))
		wroteRelationship = true
	}

	for _, t := range rs.Tables {
		if t.Junction {
			// draw the many-to-many between the referenced tables, not
			// the junction itself
			var refs []string
			for _, c := range t.Columns {
				if c.ForeignKey && c.References != nil {
					refs = append(refs, c.References.Table)
				}
			}
			for i := 0; i < len(refs); i++ {
				for j := i + 1; j < len(refs); j++ {
					writeRel(refs[i], "}o--o{", refs[j])
				}
			}
			continue
		}
		for _, c := range t.Columns {
			if !c.ForeignKey || c.References == nil {
				continue
			}
			relType := "||--o{"
			if c.Relation == models.OneToOne {
				relType = "||--||"
			}
			writeRel(c.References.Table, relType, t.Name)
		}
	}

	if wroteRelationship {
		sb.WriteString("\n")
	}

	for _, t := range rs.Tables {
		sb.WriteString(fmt.Sprintf("    %s {\n", t.Name))
		for _, c := range t.Columns {
			annotations := ""
			if c.PrimaryKey {
				annotations = " PK"
			}
			if c.ForeignKey {
				annotations += " FK"
			}
			sb.WriteString(fmt.Sprintf("        %s %s%s\n", c.SQLType, c.Name, annotations))
		}
		sb.WriteString("    }\n\n")
	}

	return sb.String()
}
