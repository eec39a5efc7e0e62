// Package remediation turns a decision that requires remediation into a
// reviewable correction plan. Plans are emitted for separate, explicit
// execution; nothing here touches data.
package remediation

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/danielbdyer/schema-tightener/internal/policy"
	"github.com/danielbdyer/schema-tightener/pkg/models"
)

// Planner builds remediation plans from the model and configuration.
type Planner struct {
	Model  *models.Model
	Config policy.Config
	Logger *logrus.Logger
}

// NewPlanner creates a remediation planner.
func NewPlanner(model *models.Model, cfg policy.Config, logger *logrus.Logger) *Planner {
	return &Planner{Model: model, Config: cfg, Logger: logger}
}

// Plan produces the correction options for one decision. Strategies are
// alternatives; none is pre-selected. When the affected-row estimate exceeds
// the configured ceiling, or no estimate exists, the plan carries no
// executable scripts and demands manual review instead.
func (p *Planner) Plan(d models.Decision) models.RemediationPlan {
	plan := models.RemediationPlan{
		Target:  d.Target,
		Kind:    d.Kind,
		Applied: false,
	}

	estimated, known := affectedRows(d)
	plan.EstimatedRows = estimated

	switch d.Kind {
	case models.KindNullability:
		plan.Options = p.nullabilityOptions(d.Target)
	case models.KindForeignKey:
		plan.Options = p.foreignKeyOptions(d.Target)
	case models.KindUniqueness:
		plan.Options = p.uniquenessOptions(d.Target)
	}

	if !known {
		plan.EstimatedRows = -1
		plan.ManualReviewRequired = true
		plan.Warning = "no evidence measurement for this target; review data manually before tightening"
		stripScripts(plan.Options)
		return plan
	}

	// Duplicate evidence counts groups, not rows: a group of n rows leaves
	// n-1 to correct, so for uniqueness the estimate is a lower bound.
	unit := "affected rows"
	if d.Kind == models.KindUniqueness {
		unit = "duplicate groups (at least as many affected rows)"
	}

	if estimated > p.Config.RemediationRowCeiling {
		plan.ManualReviewRequired = true
		plan.Warning = fmt.Sprintf("estimated %d %s exceeds ceiling %d; manual intervention required",
			estimated, unit, p.Config.RemediationRowCeiling)
		stripScripts(plan.Options)
		p.Logger.Warningf("Remediation for %s (%s) exceeds row ceiling, downgraded to manual review", d.Target, d.Kind)
	} else if d.Kind == models.KindUniqueness {
		plan.Warning = "estimated rows counts duplicate groups; each group of n rows leaves n-1 to correct"
	}

	return plan
}

func affectedRows(d models.Decision) (int64, bool) {
	switch {
	case d.Evidence.NullCount != nil:
		return *d.Evidence.NullCount, true
	case d.Evidence.OrphanCount != nil:
		return *d.Evidence.OrphanCount, true
	case d.Evidence.DuplicateGroups != nil:
		return *d.Evidence.DuplicateGroups, true
	default:
		return 0, false
	}
}

func stripScripts(options []models.RemediationOption) {
	for i := range options {
		options[i].Script = ""
	}
}

func (p *Planner) nullabilityOptions(target models.TargetKey) []models.RemediationOption {
	sentinel := p.Config.SentinelFor(models.FamilyText)
	if entity, ok := p.Model.FindEntity(target.Schema, target.Table); ok {
		if attr, ok := entity.FindAttribute(target.Column); ok {
			sentinel = p.Config.SentinelFor(models.FamilyForType(attr.DataType))
		}
	}

	return []models.RemediationOption{
		{
			Strategy:    models.StrategySentinelBackfill,
			Description: fmt.Sprintf("backfill NULLs in %s with the %s sentinel", target, sentinel),
			Script: fmt.Sprintf("UPDATE %s.%s SET %s = %s WHERE %s IS NULL;",
				target.Schema, target.Table, target.Column, sentinel, target.Column),
		},
	}
}

func (p *Planner) foreignKeyOptions(target models.TargetKey) []models.RemediationOption {
	rel, ok := p.findRelationship(target)
	if !ok {
		// Plan still gets offered, just without generated SQL.
		return []models.RemediationOption{
			{Strategy: models.StrategyOrphanDelete, Description: fmt.Sprintf("delete orphan rows behind %s", target)},
			{Strategy: models.StrategyOrphanReassign, Description: fmt.Sprintf("reassign orphan rows behind %s to a sentinel parent", target)},
		}
	}

	orphanFilter := fmt.Sprintf(
		"%s IS NOT NULL AND NOT EXISTS (SELECT 1 FROM %s.%s p WHERE p.%s = %s.%s.%s)",
		target.Column,
		rel.ReferencedSchema, rel.ReferencedTable, rel.ReferencedColumn,
		target.Schema, target.Table, target.Column,
	)

	return []models.RemediationOption{
		{
			Strategy:    models.StrategyOrphanDelete,
			Description: fmt.Sprintf("delete rows of %s.%s whose %s has no parent in %s.%s", target.Schema, target.Table, target.Column, rel.ReferencedSchema, rel.ReferencedTable),
			Script:      fmt.Sprintf("DELETE FROM %s.%s WHERE %s;", target.Schema, target.Table, orphanFilter),
		},
		{
			Strategy:    models.StrategyOrphanReassign,
			Description: fmt.Sprintf("point orphan rows of %s.%s at a sentinel parent row in %s.%s (create the sentinel row first)", target.Schema, target.Table, rel.ReferencedSchema, rel.ReferencedTable),
			Script: fmt.Sprintf("UPDATE %s.%s SET %s = %s WHERE %s;",
				target.Schema, target.Table, target.Column, p.Config.SentinelFor(models.FamilyInteger), orphanFilter),
		},
	}
}

func (p *Planner) uniquenessOptions(target models.TargetKey) []models.RemediationOption {
	columns := strings.Split(target.Column, ",")
	first := columns[0]
	partition := strings.Join(columns, ", ")

	rank := fmt.Sprintf(
		"SELECT %s, ROW_NUMBER() OVER (PARTITION BY %s ORDER BY %s) AS rn FROM %s.%s WHERE %s IS NOT NULL",
		partition, partition, first, target.Schema, target.Table, first,
	)

	return []models.RemediationOption{
		{
			Strategy:    models.StrategyDuplicateSuffix,
			Description: fmt.Sprintf("rank duplicate groups on (%s) in %s.%s and suffix every row after the first", partition, target.Schema, target.Table),
			Script:      fmt.Sprintf("-- review ranking before applying a suffix to rn > 1:\n%s;", rank),
		},
		{
			Strategy:    models.StrategyDuplicateDelete,
			Description: fmt.Sprintf("rank duplicate groups on (%s) in %s.%s and delete every row after the first", partition, target.Schema, target.Table),
			Script:      fmt.Sprintf("-- review ranking before deleting rows with rn > 1:\n%s;", rank),
		},
	}
}

func (p *Planner) findRelationship(target models.TargetKey) (models.Relationship, bool) {
	entity, ok := p.Model.FindEntity(target.Schema, target.Table)
	if !ok {
		return models.Relationship{}, false
	}
	for _, rel := range entity.Relationships {
		if rel.Column == target.Column {
			return rel, true
		}
	}
	return models.Relationship{}, false
}
