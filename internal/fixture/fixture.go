// Package fixture fabricates models and evidence snapshots for tests. A
// seeded generator makes fabrication repeatable, which the determinism tests
// rely on: the same seed always yields the same model.
package fixture

import (
	"fmt"
	"math/rand"

	"github.com/jaswdr/faker"

	"github.com/danielbdyer/schema-tightener/pkg/models"
)

var dataTypes = []string{"varchar", "int", "bigint", "decimal", "datetime", "bool", "text"}

// Builder fabricates model entities with realistic-looking names.
type Builder struct {
	Faker  faker.Faker
	Schema string
}

// NewBuilder creates a seeded builder.
func NewBuilder(seed int64) *Builder {
	return &Builder{
		Faker:  faker.NewWithSeed(rand.NewSource(seed)),
		Schema: "appdb",
	}
}

// Model fabricates a model with the given number of entities. Each entity
// gets an identifier, a handful of attributes, a relationship to some
// earlier entity, and a unique candidate on its second attribute.
func (b *Builder) Model(entities int) *models.Model {
	model := &models.Model{}

	for i := 0; i < entities; i++ {
		table := fmt.Sprintf("%s_%d", b.Faker.Lorem().Word(), i)
		entity := models.Entity{
			Schema:      b.Schema,
			Table:       table,
			LogicalName: table,
			Attributes: []models.Attribute{
				{Column: "id", DataType: "bigint", IsIdentifier: true, IsMandatory: true},
			},
		}

		attrCount := b.Faker.IntBetween(2, 6)
		for a := 0; a < attrCount; a++ {
			entity.Attributes = append(entity.Attributes, models.Attribute{
				Column:      fmt.Sprintf("%s_%d", b.Faker.Lorem().Word(), a),
				DataType:    dataTypes[b.Faker.IntBetween(0, len(dataTypes)-1)],
				IsMandatory: b.Faker.IntBetween(0, 1) == 1,
				HasDefault:  b.Faker.IntBetween(0, 3) == 0,
			})
		}

		if i > 0 {
			parent := model.Entities[b.Faker.IntBetween(0, i-1)]
			fkColumn := parent.Table + "_id"
			entity.Attributes = append(entity.Attributes, models.Attribute{
				Column:      fkColumn,
				DataType:    "bigint",
				IsMandatory: b.Faker.IntBetween(0, 1) == 1,
			})
			entity.Relationships = append(entity.Relationships, models.Relationship{
				Name:             fmt.Sprintf("fk_%s_%s", table, parent.Table),
				Column:           fkColumn,
				ReferencedSchema: parent.Schema,
				ReferencedTable:  parent.Table,
				ReferencedColumn: "id",
				DeleteAction:     models.DeleteProtect,
			})
		}

		entity.UniqueCandidates = append(entity.UniqueCandidates, models.UniqueCandidate{
			Name:    fmt.Sprintf("uq_%s", table),
			Columns: []string{entity.Attributes[1].Column},
		})

		model.Entities = append(model.Entities, entity)
	}

	return model
}

// Snapshot fabricates full evidence coverage for a model. With clean set,
// every target measures zero violations; otherwise roughly a third of the
// targets get violations.
func (b *Builder) Snapshot(model *models.Model, clean bool) *models.Snapshot {
	snapshot := models.NewSnapshot()

	for _, entity := range model.Entities {
		total := int64(b.Faker.IntBetween(100, 10000))

		for _, attr := range entity.Attributes {
			key := models.ColumnTarget(entity.Schema, entity.Table, attr.Column)
			nulls := int64(0)
			if !clean && b.Faker.IntBetween(0, 2) == 0 {
				nulls = int64(b.Faker.IntBetween(1, 50))
			}
			snapshot.Columns[key.String()] = models.ColumnEvidence{NullCount: nulls, TotalRows: total}
		}

		for _, rel := range entity.Relationships {
			key := models.ColumnTarget(entity.Schema, entity.Table, rel.Column)
			orphans := int64(0)
			if !clean && b.Faker.IntBetween(0, 2) == 0 {
				orphans = int64(b.Faker.IntBetween(1, 20))
			}
			snapshot.Relationships[key.String()] = models.RelationshipEvidence{OrphanCount: orphans, TotalRows: total}
		}

		for _, uc := range entity.UniqueCandidates {
			key := models.CandidateTarget(entity.Schema, entity.Table, uc.Columns)
			groups := int64(0)
			if !clean && b.Faker.IntBetween(0, 2) == 0 {
				groups = int64(b.Faker.IntBetween(1, 10))
			}
			snapshot.Uniques[key.String()] = models.UniqueEvidence{DuplicateGroups: groups, TotalRows: total}
		}
	}

	return snapshot
}
