// Package signals computes the fixed signal set for one column, relationship,
// or unique candidate at a time. Evaluation is a pure function of the model
// and the evidence snapshot; a new run recomputes everything.
package signals

import (
	"fmt"

	"github.com/danielbdyer/schema-tightener/pkg/models"
)

// InconsistentTargetError reports that the model and evidence disagree about
// a target's existence, e.g. a relationship pointing at an undeclared table.
// It is the only error-shaped outcome of signal evaluation; missing evidence
// is a signal value, not an error.
type InconsistentTargetError struct {
	Target models.TargetKey
	Reason string
}

func (e *InconsistentTargetError) Error() string {
	return fmt.Sprintf("inconsistent target %s: %s", e.Target, e.Reason)
}

// SignalSet is the complete signal set for one target. It also carries the
// raw evidence counts and relationship facts the decision evaluators need,
// so a decision never has to re-derive them.
type SignalSet struct {
	Identity             bool
	PhysicalConstraint   bool
	Mandatory            bool
	DefaultPresent       bool
	ReferenceDeclared    bool
	UniqueDeclared       bool
	DataNoViolations     bool
	NullRateWithinBudget bool
	EvidenceMissing      bool

	// Relationship facts.
	CrossSchema  bool
	CrossCatalog bool
	DeleteAction models.DeleteAction

	// Uniqueness facts.
	HasNullableColumn bool

	Evidence models.EvidenceCounts
}

// Evaluator computes signals from a read-only model and snapshot.
type Evaluator struct {
	Model      *models.Model
	Snapshot   *models.Snapshot
	NullBudget float64
}

// NewEvaluator creates a signal evaluator over one run's inputs.
func NewEvaluator(model *models.Model, snapshot *models.Snapshot, nullBudget float64) *Evaluator {
	return &Evaluator{Model: model, Snapshot: snapshot, NullBudget: nullBudget}
}

// ForColumn computes the signal set for a single column target.
func (ev *Evaluator) ForColumn(key models.TargetKey) (SignalSet, error) {
	entity, ok := ev.Model.FindEntity(key.Schema, key.Table)
	if !ok {
		return SignalSet{}, &InconsistentTargetError{Target: key, Reason: "entity not declared in model"}
	}
	attr, ok := entity.FindAttribute(key.Column)
	if !ok {
		return SignalSet{}, &InconsistentTargetError{Target: key, Reason: "attribute not declared in model"}
	}

	referenceDeclared := false
	for _, rel := range entity.Relationships {
		if rel.Column == key.Column {
			referenceDeclared = true
			break
		}
	}
	uniqueDeclared := false
	for _, uc := range entity.UniqueCandidates {
		for _, col := range uc.Columns {
			if col == key.Column {
				uniqueDeclared = true
			}
		}
	}

	facts := ev.Snapshot.PhysicalFor(key)
	sig := SignalSet{
		Identity:           attr.IsIdentifier,
		PhysicalConstraint: facts.NotNull,
		Mandatory:          attr.IsMandatory,
		DefaultPresent:     attr.HasDefault,
		ReferenceDeclared:  referenceDeclared,
		UniqueDeclared:     uniqueDeclared,
	}

	colEv, found := ev.Snapshot.ColumnFor(key)
	if !found {
		sig.EvidenceMissing = true
		return sig, nil
	}

	nulls := colEv.NullCount
	sig.Evidence = models.EvidenceCounts{TotalRows: colEv.TotalRows, NullCount: &nulls}
	sig.DataNoViolations = colEv.NullCount == 0
	sig.NullRateWithinBudget = colEv.NullRate() <= ev.NullBudget
	return sig, nil
}

// ForRelationship computes the signal set for a declared relationship of an
// entity. Self-referencing relationships are evaluated like any other.
func (ev *Evaluator) ForRelationship(entity *models.Entity, rel models.Relationship) (SignalSet, error) {
	key := models.ColumnTarget(entity.Schema, entity.Table, rel.Column)
	if _, ok := entity.FindAttribute(rel.Column); !ok {
		return SignalSet{}, &InconsistentTargetError{Target: key, Reason: fmt.Sprintf("relationship %s owns undeclared column", rel.Name)}
	}
	parent, ok := ev.Model.FindEntity(rel.ReferencedSchema, rel.ReferencedTable)
	if !ok {
		return SignalSet{}, &InconsistentTargetError{
			Target: key,
			Reason: fmt.Sprintf("relationship %s references undeclared table %s.%s", rel.Name, rel.ReferencedSchema, rel.ReferencedTable),
		}
	}
	if _, ok := parent.FindAttribute(rel.ReferencedColumn); !ok {
		return SignalSet{}, &InconsistentTargetError{
			Target: key,
			Reason: fmt.Sprintf("relationship %s references undeclared column %s", rel.Name, rel.ReferencedColumn),
		}
	}

	facts := ev.Snapshot.PhysicalFor(key)
	sig := SignalSet{
		ReferenceDeclared:  true,
		PhysicalConstraint: facts.ForeignKey,
		CrossSchema:        rel.ReferencedSchema != entity.Schema,
		CrossCatalog:       parent.Catalog != entity.Catalog,
		DeleteAction:       rel.DeleteAction,
	}

	relEv, found := ev.Snapshot.RelationshipFor(key)
	if !found {
		sig.EvidenceMissing = true
		return sig, nil
	}

	orphans := relEv.OrphanCount
	sig.Evidence = models.EvidenceCounts{TotalRows: relEv.TotalRows, OrphanCount: &orphans}
	sig.DataNoViolations = relEv.OrphanCount == 0
	return sig, nil
}

// ForUniqueCandidate computes the signal set for a declared unique candidate.
func (ev *Evaluator) ForUniqueCandidate(entity *models.Entity, uc models.UniqueCandidate) (SignalSet, error) {
	key := models.CandidateTarget(entity.Schema, entity.Table, uc.Columns)
	if len(uc.Columns) == 0 {
		return SignalSet{}, &InconsistentTargetError{Target: key, Reason: fmt.Sprintf("unique candidate %s has no columns", uc.Name)}
	}

	hasNullable := false
	for _, col := range uc.Columns {
		attr, ok := entity.FindAttribute(col)
		if !ok {
			return SignalSet{}, &InconsistentTargetError{Target: key, Reason: fmt.Sprintf("unique candidate %s names undeclared column %s", uc.Name, col)}
		}
		colFacts := ev.Snapshot.PhysicalFor(models.ColumnTarget(entity.Schema, entity.Table, col))
		if !attr.IsMandatory && !colFacts.NotNull {
			hasNullable = true
		}
	}

	facts := ev.Snapshot.PhysicalFor(key)
	sig := SignalSet{
		UniqueDeclared:     true,
		PhysicalConstraint: facts.UniqueConstraint,
		HasNullableColumn:  hasNullable,
	}

	uniqEv, found := ev.Snapshot.UniqueFor(key)
	if !found {
		sig.EvidenceMissing = true
		return sig, nil
	}

	groups := uniqEv.DuplicateGroups
	sig.Evidence = models.EvidenceCounts{TotalRows: uniqEv.TotalRows, DuplicateGroups: &groups}
	sig.DataNoViolations = uniqEv.DuplicateGroups == 0
	return sig, nil
}
