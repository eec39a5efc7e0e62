package models

import "strings"

// DeleteAction is the declared referential delete behavior of a relationship.
type DeleteAction string

const (
	DeleteProtect DeleteAction = "protect"
	DeleteCascade DeleteAction = "cascade"
	DeleteSetNull DeleteAction = "set_null"
	DeleteIgnore  DeleteAction = "ignore"
	// DeleteMissing means the model does not declare a delete action. How it
	// is treated is explicit configuration, never inferred.
	DeleteMissing DeleteAction = ""
)

// Attribute represents a logical attribute mapped to a physical column.
type Attribute struct {
	Column            string `json:"column"`
	DataType          string `json:"data_type"`
	IsIdentifier      bool   `json:"is_identifier"`
	IsMandatory       bool   `json:"is_mandatory"`
	HasDefault        bool   `json:"has_default"`
	DefaultExpression string `json:"default_expression,omitempty"`
}

// Relationship represents a declared reference from one entity to another.
type Relationship struct {
	Name             string       `json:"name"`
	Column           string       `json:"column"`
	ReferencedSchema string       `json:"referenced_schema"`
	ReferencedTable  string       `json:"referenced_table"`
	ReferencedColumn string       `json:"referenced_column"`
	DeleteAction     DeleteAction `json:"delete_action"`
}

// UniqueCandidate represents a declared single- or multi-column uniqueness intent.
type UniqueCandidate struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// Entity represents a logical entity mapped to a physical table.
type Entity struct {
	Schema           string            `json:"schema"`
	Table            string            `json:"table"`
	LogicalName      string            `json:"logical_name,omitempty"`
	Catalog          string            `json:"catalog,omitempty"`
	Attributes       []Attribute       `json:"attributes"`
	Relationships    []Relationship    `json:"relationships,omitempty"`
	UniqueCandidates []UniqueCandidate `json:"unique_candidates,omitempty"`
}

// Model is the logical data model extracted from the source platform.
// It is read-only for the duration of a run.
type Model struct {
	Entities []Entity `json:"entities"`
}

// FindEntity returns the entity for a (schema, table) pair.
func (m *Model) FindEntity(schema, table string) (*Entity, bool) {
	for i := range m.Entities {
		if m.Entities[i].Schema == schema && m.Entities[i].Table == table {
			return &m.Entities[i], true
		}
	}
	return nil, false
}

// FindAttribute returns the attribute for a column name.
func (e *Entity) FindAttribute(column string) (*Attribute, bool) {
	for i := range e.Attributes {
		if e.Attributes[i].Column == column {
			return &e.Attributes[i], true
		}
	}
	return nil, false
}

// TargetKey identifies the unit of decision. For nullability targets Column
// is a single column name; for relationships and unique candidates it is the
// comma-joined column list of the constraint.
type TargetKey struct {
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Column string `json:"column"`
}

// ColumnTarget builds the target key for a single column.
func ColumnTarget(schema, table, column string) TargetKey {
	return TargetKey{Schema: schema, Table: table, Column: column}
}

// CandidateTarget builds the target key for a multi-column candidate.
func CandidateTarget(schema, table string, columns []string) TargetKey {
	return TargetKey{Schema: schema, Table: table, Column: strings.Join(columns, ",")}
}

// String renders the key as schema.table.column for snapshot lookups and logs.
func (k TargetKey) String() string {
	return k.Schema + "." + k.Table + "." + k.Column
}

// TypeFamily groups logical data types for sentinel selection.
type TypeFamily string

const (
	FamilyText     TypeFamily = "text"
	FamilyInteger  TypeFamily = "integer"
	FamilyDecimal  TypeFamily = "decimal"
	FamilyDateTime TypeFamily = "datetime"
	FamilyBoolean  TypeFamily = "boolean"
	FamilyBinary   TypeFamily = "binary"
)

// FamilyForType maps a logical data type to its family.
func FamilyForType(dataType string) TypeFamily {
	switch strings.ToLower(dataType) {
	case "int", "tinyint", "smallint", "mediumint", "bigint", "integer", "year":
		return FamilyInteger
	case "float", "double", "decimal", "numeric", "currency":
		return FamilyDecimal
	case "date", "time", "datetime", "timestamp":
		return FamilyDateTime
	case "bool", "boolean", "bit":
		return FamilyBoolean
	case "binary", "varbinary", "blob", "tinyblob", "mediumblob", "longblob":
		return FamilyBinary
	default:
		return FamilyText
	}
}
