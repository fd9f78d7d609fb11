package schema

import (
	"strings"

	"doc2db/internal/models"
)

// Fixed mapping from inferred attribute types to the ANSI column types used
// in generated DDL.
var typeMap = map[models.AttributeType]string{
	models.AttrString:  "TEXT",
	models.AttrInteger: "INTEGER",
	models.AttrDecimal: "NUMERIC",
	models.AttrDate:    "DATE",
	models.AttrBoolean: "BOOLEAN",
}

// Normalize deterministically maps a validated entity graph onto a relational
// schema. Every entity becomes a table; every many-to-many relationship
// becomes a junction table; one-to-many and one-to-one relationships become
// foreign-key columns. Tables come back topologically sorted so that a table
// referenced by a foreign key always precedes the table referencing it.
func Normalize(g *models.EntityGraph) (*models.RelationalSchema, error) {
	tables := make([]models.Table, 0, len(g.Entities))
	index := make(map[string]int, len(g.Entities))

	for _, ent := range g.Entities {
		t := buildEntityTable(ent)
		index[strings.ToLower(t.Name)] = len(tables)
		tables = append(tables, t)
	}

	for _, rel := range g.Relationships {
		switch rel.Cardinality {
		case models.OneToMany:
			// The foreign key lives on the many side and is named after
			// the one side it references.
			if err := addForeignKey(tables, index, rel.To, rel.From, models.OneToMany); err != nil {
				return nil, err
			}
		case models.OneToOne:
			if err := addForeignKey(tables, index, rel.From, rel.To, models.OneToOne); err != nil {
				return nil, err
			}
		case models.ManyToMany:
			jt, err := buildJunctionTable(tables, index, rel)
			if err != nil {
				return nil, err
			}
			index[strings.ToLower(jt.Name)] = len(tables)
			tables = append(tables, jt)
		}
	}

	ordered, err := sortByDependency(tables, index)
	if err != nil {
		return nil, err
	}
	return &models.RelationalSchema{Tables: ordered}, nil
}

// buildEntityTable maps one entity to a table. The first attribute named "id"
// (case-insensitive) is treated as the natural primary key and forced to
// INTEGER; without one, a surrogate integer "id" column is prepended.
func buildEntityTable(ent models.Entity) models.Table {
	t := models.Table{Name: sanitizeName(ent.Name)}

	hasNaturalKey := false
	for _, attr := range ent.Attributes {
		col := models.Column{
			Name:     sanitizeName(attr.Name),
			SQLType:  typeMap[attr.Type],
			Nullable: true,
		}
		if !hasNaturalKey && strings.EqualFold(attr.Name, "id") {
			col.SQLType = "INTEGER"
			col.PrimaryKey = true
			col.Nullable = false
			hasNaturalKey = true
		}
		t.Columns = append(t.Columns, col)
	}

	if !hasNaturalKey {
		surrogate := models.Column{Name: "id", SQLType: "INTEGER", PrimaryKey: true}
		t.Columns = append([]models.Column{surrogate}, t.Columns...)
	}
	return t
}

// addForeignKey puts a foreign-key column on the table for entity "on",
// referencing the primary key of the table for entity "ref". When the entity
// already carries an attribute with the foreign-key name (a customer_id the
// model extracted directly), that column is promoted instead of duplicated.
func addForeignKey(tables []models.Table, index map[string]int, on, ref string, card models.Cardinality) error {
	onTable := &tables[index[strings.ToLower(sanitizeName(on))]]
	refTable := &tables[index[strings.ToLower(sanitizeName(ref))]]

	refPK := primaryKeyColumn(refTable)
	colName := foreignKeyColumnName(ref)

	if existing := onTable.FindColumn(colName); existing != nil {
		if existing.ForeignKey {
			return &models.NormalizationError{
				Subject: onTable.Name,
				Message: "duplicate foreign key column " + colName,
			}
		}
		existing.ForeignKey = true
		existing.SQLType = refPK.SQLType
		existing.References = &models.ColumnRef{Table: refTable.Name, Column: refPK.Name}
		existing.Relation = card
		return nil
	}

	onTable.Columns = append(onTable.Columns, models.Column{
		Name:       colName,
		SQLType:    refPK.SQLType,
		ForeignKey: true,
		References: &models.ColumnRef{Table: refTable.Name, Column: refPK.Name},
		Relation:   card,
	})
	return nil
}

// buildJunctionTable synthesizes the <From>_<To> table for a many-to-many
// relationship: two foreign keys forming a composite primary key, nothing
// else.
func buildJunctionTable(tables []models.Table, index map[string]int, rel models.Relationship) (models.Table, error) {
	name := sanitizeName(rel.From) + "_" + sanitizeName(rel.To)
	if _, exists := index[strings.ToLower(name)]; exists {
		return models.Table{}, &models.NormalizationError{
			Subject: name,
			Message: "junction table name collides with an existing table",
		}
	}

	fromTable := &tables[index[strings.ToLower(sanitizeName(rel.From))]]
	toTable := &tables[index[strings.ToLower(sanitizeName(rel.To))]]
	fromPK := primaryKeyColumn(fromTable)
	toPK := primaryKeyColumn(toTable)

	fromCol := foreignKeyColumnName(rel.From)
	toCol := foreignKeyColumnName(rel.To)
	if strings.EqualFold(fromCol, toCol) {
		// self-referential many-to-many
		toCol = "related_" + toCol
	}

	return models.Table{
		Name:     name,
		Junction: true,
		Columns: []models.Column{
			{
				Name:       fromCol,
				SQLType:    fromPK.SQLType,
				PrimaryKey: true,
				ForeignKey: true,
				References: &models.ColumnRef{Table: fromTable.Name, Column: fromPK.Name},
				Relation:   models.ManyToMany,
			},
			{
				Name:       toCol,
				SQLType:    toPK.SQLType,
				PrimaryKey: true,
				ForeignKey: true,
				References: &models.ColumnRef{Table: toTable.Name, Column: toPK.Name},
				Relation:   models.ManyToMany,
			},
		},
	}, nil
}

// sortByDependency orders tables so that referenced tables precede their
// referencers (Kahn's algorithm, stable over insertion order). Cycles are
// broken by deferring one foreign key per cycle: the column becomes nullable
// and loses its inline REFERENCES clause. One-to-one foreign keys are
// preferred for deferral; a foreign key that is part of a composite primary
// key can never be deferred, so a cycle made only of those is fatal.
func sortByDependency(tables []models.Table, index map[string]int) ([]models.Table, error) {
	n := len(tables)
	for {
		indegree := make([]int, n)
		adj := make([][]int, n)
		for i := range tables {
			for _, c := range tables[i].Columns {
				if !c.ForeignKey || c.Deferred || c.References == nil {
					continue
				}
				ref := index[strings.ToLower(c.References.Table)]
				if ref == i {
					continue // self-reference never blocks ordering
				}
				adj[ref] = append(adj[ref], i)
				indegree[i]++
			}
		}

		var order []int
		done := make([]bool, n)
		for len(order) < n {
			next := -1
			for i := 0; i < n; i++ {
				if !done[i] && indegree[i] == 0 {
					next = i
					break
				}
			}
			if next == -1 {
				break // cycle among the remaining tables
			}
			done[next] = true
			order = append(order, next)
			for _, m := range adj[next] {
				indegree[m]--
			}
		}

		if len(order) == n {
			ordered := make([]models.Table, 0, n)
			for _, i := range order {
				ordered = append(ordered, tables[i])
			}
			return ordered, nil
		}

		if !deferOneForeignKey(tables, index, done) {
			return nil, &models.NormalizationError{
				Subject: firstUndone(tables, done),
				Message: "circular mandatory foreign keys cannot be satisfied",
			}
		}
	}
}

func deferOneForeignKey(tables []models.Table, index map[string]int, done []bool) bool {
	// one_to_one foreign keys first, then any non-primary-key foreign key
	for _, wantOneToOne := range []bool{true, false} {
		for i := range tables {
			if done[i] {
				continue
			}
			for j := range tables[i].Columns {
				c := &tables[i].Columns[j]
				if !c.ForeignKey || c.Deferred || c.PrimaryKey || c.References == nil {
					continue
				}
				if wantOneToOne && c.Relation != models.OneToOne {
					continue
				}
				if done[index[strings.ToLower(c.References.Table)]] {
					continue // edge leaving the cycle, deferring it helps nothing
				}
				c.Deferred = true
				c.Nullable = true
				return true
			}
		}
	}
	return false
}

func firstUndone(tables []models.Table, done []bool) string {
	for i := range tables {
		if !done[i] {
			return tables[i].Name
		}
	}
	return ""
}

func primaryKeyColumn(t *models.Table) *models.Column {
	for i := range t.Columns {
		if t.Columns[i].PrimaryKey {
			return &t.Columns[i]
		}
	}
	return nil
}

// foreignKeyColumnName derives the column name for a foreign key referencing
// the given entity: lower-cased, singularized, with an _id suffix.
func foreignKeyColumnName(entity string) string {
	return singular(strings.ToLower(sanitizeName(entity))) + "_id"
}

func singular(s string) string {
	switch {
	case strings.HasSuffix(s, "ies") && len(s) > 3:
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "ses"):
		return s[:len(s)-2]
	case strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss"):
		return s[:len(s)-1]
	}
	return s
}

func sanitizeName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}
