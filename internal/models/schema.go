package models

import "strings"

// ColumnRef points a foreign-key column at the table and column it references.
type ColumnRef struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

type Column struct {
	Name       string     `json:"name"`
	SQLType    string     `json:"sql_type"`
	PrimaryKey bool       `json:"primary_key"`
	ForeignKey bool       `json:"foreign_key"`
	Nullable   bool       `json:"nullable"`
	References *ColumnRef `json:"references,omitempty"`
	// Relation records which cardinality produced a foreign-key column.
	// Empty for plain attribute columns.
	Relation Cardinality `json:"relation,omitempty"`
	// Deferred foreign keys broke a dependency cycle: the column stays
	// nullable and its REFERENCES clause is left out of the generated DDL.
	Deferred bool `json:"deferred,omitempty"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
	// Junction tables are synthesized for many-to-many relationships and
	// carry a composite primary key over their two foreign keys.
	Junction bool `json:"junction,omitempty"`
}

// PrimaryKeyColumns returns the names of all primary-key columns in order.
func (t *Table) PrimaryKeyColumns() []string {
	var pks []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pks = append(pks, c.Name)
		}
	}
	return pks
}

// FindColumn does a case-insensitive lookup by column name.
func (t *Table) FindColumn(name string) *Column {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}

// RelationalSchema is an ordered table sequence. The order is the dependency
// order: any table referenced by a non-deferred foreign key precedes the
// table that references it. The DDL generator and the applier both rely on
// this ordering.
type RelationalSchema struct {
	Tables []Table `json:"tables"`
}

// FindTable does a case-insensitive lookup by table name.
func (s *RelationalSchema) FindTable(name string) *Table {
	for i := range s.Tables {
		if strings.EqualFold(s.Tables[i].Name, name) {
			return &s.Tables[i]
		}
	}
	return nil
}
