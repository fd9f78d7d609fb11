package models

import (
	"strings"
)

// AttributeType is the inferred type of an entity attribute.
type AttributeType string

const (
	AttrString  AttributeType = "string"
	AttrInteger AttributeType = "integer"
	AttrDecimal AttributeType = "decimal"
	AttrDate    AttributeType = "date"
	AttrBoolean AttributeType = "boolean"
)

// Cardinality of a relationship between two entities.
type Cardinality string

const (
	OneToOne   Cardinality = "one_to_one"
	OneToMany  Cardinality = "one_to_many"
	ManyToMany Cardinality = "many_to_many"
)

// RawExtraction is the payload decoded from a model response, before any
// validation. Field presence and spellings vary per document, so everything
// here is loosely typed.
type RawExtraction struct {
	Entities      []RawEntity       `json:"entities"`
	Relationships []RawRelationship `json:"relationships"`
	TableData     []TableData       `json:"table_data,omitempty"`
}

type RawEntity struct {
	Name       string         `json:"name"`
	Attributes []RawAttribute `json:"attributes"`
}

type RawAttribute struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type RawRelationship struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// TableData carries sample rows the model read off the document.
type TableData struct {
	Table string           `json:"table"`
	Rows  []map[string]any `json:"rows"`
}

// Entity is a validated document-derived concept destined to become a table.
type Entity struct {
	Name       string      `json:"name"`
	Attributes []Attribute `json:"attributes"`
}

type Attribute struct {
	Name string        `json:"name"`
	Type AttributeType `json:"type"`
}

type Relationship struct {
	From        string      `json:"from"`
	To          string      `json:"to"`
	Cardinality Cardinality `json:"cardinality"`
}

// EntityGraph is the validated extraction output: entities with unique names
// and relationships whose endpoints all resolve. Immutable once built.
type EntityGraph struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
}

// BuildEntityGraph validates a raw payload into an EntityGraph. It returns a
// *ValidationError for empty or duplicated entity names (case-insensitive),
// attribute name collisions within an entity, relationships referencing
// undeclared entities, and unknown cardinalities. Unrecognized attribute type
// spellings degrade to string rather than failing, since the model output
// varies per document.
func BuildEntityGraph(raw *RawExtraction) (*EntityGraph, error) {
	if raw == nil || len(raw.Entities) == 0 {
		return nil, &ValidationError{Message: "extraction contains no entities"}
	}

	g := &EntityGraph{}
	byLower := make(map[string]string, len(raw.Entities))

	for _, re := range raw.Entities {
		name := strings.TrimSpace(re.Name)
		if name == "" {
			return nil, &ValidationError{Message: "entity name is empty"}
		}
		lower := strings.ToLower(name)
		if prev, ok := byLower[lower]; ok {
			return nil, &ValidationError{Subject: name, Message: "duplicate entity name (collides with " + prev + ")"}
		}
		byLower[lower] = name

		ent := Entity{Name: name}
		seenAttrs := make(map[string]bool, len(re.Attributes))
		for _, ra := range re.Attributes {
			attrName := strings.TrimSpace(ra.Name)
			if attrName == "" {
				return nil, &ValidationError{Subject: name, Message: "attribute name is empty"}
			}
			attrLower := strings.ToLower(attrName)
			if seenAttrs[attrLower] {
				return nil, &ValidationError{Subject: name, Message: "duplicate attribute " + attrName}
			}
			seenAttrs[attrLower] = true
			ent.Attributes = append(ent.Attributes, Attribute{
				Name: attrName,
				Type: normalizeAttributeType(ra.Type),
			})
		}
		g.Entities = append(g.Entities, ent)
	}

	for _, rr := range raw.Relationships {
		from, ok := byLower[strings.ToLower(strings.TrimSpace(rr.From))]
		if !ok {
			return nil, &ValidationError{Subject: rr.From, Message: "relationship references undeclared entity"}
		}
		to, ok := byLower[strings.ToLower(strings.TrimSpace(rr.To))]
		if !ok {
			return nil, &ValidationError{Subject: rr.To, Message: "relationship references undeclared entity"}
		}
		card, ok := normalizeCardinality(rr.Type)
		if !ok {
			return nil, &ValidationError{Subject: rr.From + "->" + rr.To, Message: "unknown cardinality " + rr.Type}
		}
		g.Relationships = append(g.Relationships, Relationship{From: from, To: to, Cardinality: card})
	}

	return g, nil
}

// normalizeAttributeType maps the type spellings models tend to emit onto the
// fixed attribute type set. Anything unrecognized becomes string.
func normalizeAttributeType(t string) AttributeType {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "integer", "int", "bigint", "smallint":
		return AttrInteger
	case "decimal", "numeric", "real", "float", "double", "number":
		return AttrDecimal
	case "date", "datetime", "timestamp":
		return AttrDate
	case "boolean", "bool":
		return AttrBoolean
	case "string", "text", "varchar", "char":
		return AttrString
	default:
		return AttrString
	}
}

func normalizeCardinality(t string) (Cardinality, bool) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(t), "-", "_")) {
	case "one_to_one", "1_to_1":
		return OneToOne, true
	case "one_to_many", "1_to_many", "has_many":
		return OneToMany, true
	case "many_to_many":
		return ManyToMany, true
	default:
		return "", false
	}
}
