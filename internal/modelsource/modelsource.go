// Package modelsource loads the logical model extracted from the source
// platform. The model is read-only for the rest of the run.
package modelsource

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/danielbdyer/schema-tightener/pkg/models"
)

// ErrInvalidModel marks a model file the engine refuses to evaluate.
var ErrInvalidModel = errors.New("invalid model")

// Load reads and validates a model JSON file.
func Load(path string, logger *logrus.Logger) (*models.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file %s: %w", path, err)
	}

	var model models.Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("decode model file %s: %w", path, err)
	}

	if err := Validate(&model); err != nil {
		return nil, err
	}

	attrs, rels, uniques := 0, 0, 0
	for _, e := range model.Entities {
		attrs += len(e.Attributes)
		rels += len(e.Relationships)
		uniques += len(e.UniqueCandidates)
	}
	logger.Infof("Loaded model from %s: %d entities, %d attributes, %d relationships, %d unique candidates",
		path, len(model.Entities), attrs, rels, uniques)
	return &model, nil
}

// Validate checks structural sanity. Dangling references between entities
// are not checked here; those surface per target key during evaluation as
// inconsistent-target errors so one bad key does not block the others.
func Validate(model *models.Model) error {
	if len(model.Entities) == 0 {
		return fmt.Errorf("%w: no entities declared", ErrInvalidModel)
	}

	seen := make(map[string]bool)
	for _, entity := range model.Entities {
		if entity.Schema == "" || entity.Table == "" {
			return fmt.Errorf("%w: entity %q must declare schema and table", ErrInvalidModel, entity.LogicalName)
		}
		key := entity.Schema + "." + entity.Table
		if seen[key] {
			return fmt.Errorf("%w: entity %s declared twice", ErrInvalidModel, key)
		}
		seen[key] = true

		if len(entity.Attributes) == 0 {
			return fmt.Errorf("%w: entity %s has no attributes", ErrInvalidModel, key)
		}
		cols := make(map[string]bool)
		for _, attr := range entity.Attributes {
			if attr.Column == "" {
				return fmt.Errorf("%w: entity %s has an attribute without a column", ErrInvalidModel, key)
			}
			if cols[attr.Column] {
				return fmt.Errorf("%w: entity %s declares column %s twice", ErrInvalidModel, key, attr.Column)
			}
			cols[attr.Column] = true
		}
		for _, rel := range entity.Relationships {
			if rel.Column == "" || rel.ReferencedSchema == "" || rel.ReferencedTable == "" || rel.ReferencedColumn == "" {
				return fmt.Errorf("%w: entity %s relationship %q is incomplete", ErrInvalidModel, key, rel.Name)
			}
		}
		for _, uc := range entity.UniqueCandidates {
			if len(uc.Columns) == 0 {
				return fmt.Errorf("%w: entity %s unique candidate %q has no columns", ErrInvalidModel, key, uc.Name)
			}
		}
	}
	return nil
}
