package decision

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/danielbdyer/schema-tightener/internal/ledger"
	"github.com/danielbdyer/schema-tightener/internal/policy"
	"github.com/danielbdyer/schema-tightener/internal/signals"
	"github.com/danielbdyer/schema-tightener/pkg/models"
)

// Engine evaluates every target key of the model across a bounded worker
// pool. Signal computation is a pure function of (target, model, snapshot),
// so workers share nothing mutable; the ledger is the single collection
// point and re-sorts on export, keeping output independent of scheduling.
type Engine struct {
	Model    *models.Model
	Snapshot *models.Snapshot
	Config   policy.Config
	Logger   *logrus.Logger
}

// NewEngine creates an engine for one run.
func NewEngine(model *models.Model, snapshot *models.Snapshot, cfg policy.Config, logger *logrus.Logger) *Engine {
	return &Engine{Model: model, Snapshot: snapshot, Config: cfg, Logger: logger}
}

// Result is the terminal artifact of a run. The run counts as failed when
// any inconsistency errors exist, even though all other keys were evaluated.
type Result struct {
	Ledger          *ledger.Ledger
	Inconsistencies []error
	// FailedTables (keyed schema.table) marks tables whose downstream
	// emission must be withheld because of an inconsistent target.
	FailedTables map[string]bool
}

type task struct {
	kind   models.ConstraintKind
	target models.TargetKey
	entity *models.Entity
	rel    models.Relationship
	uc     models.UniqueCandidate
}

type outcome struct {
	decision models.Decision
	err      error
	table    string
}

// Run evaluates all targets. Per-key inconsistency errors are collected and
// reported in aggregate; one bad key never aborts the others.
func (e *Engine) Run() (*Result, error) {
	if err := e.Config.Validate(); err != nil {
		return nil, err
	}

	tasks := e.enumerate()
	e.Logger.Infof("Evaluating %d target keys across %d workers (mode: %s)", len(tasks), e.Config.Workers, e.Config.Mode)

	sigEval := signals.NewEvaluator(e.Model, e.Snapshot, e.Config.NullBudget)

	jobs := make(chan task)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for w := 0; w < e.Config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				results <- e.evaluate(sigEval, t)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()
	go func() {
		for _, t := range tasks {
			jobs <- t
		}
		close(jobs)
	}()

	result := &Result{Ledger: ledger.New(), FailedTables: make(map[string]bool)}
	for o := range results {
		if o.err != nil {
			result.Inconsistencies = append(result.Inconsistencies, o.err)
			result.FailedTables[o.table] = true
			continue
		}
		if err := result.Ledger.Append(o.decision); err != nil {
			// A duplicate (target, kind) means the model declares the same
			// constraint twice; treat it like any other model inconsistency.
			result.Inconsistencies = append(result.Inconsistencies, err)
			result.FailedTables[o.table] = true
		}
	}

	// Stable error ordering so aggregate reports are deterministic too.
	sort.Slice(result.Inconsistencies, func(i, j int) bool {
		return result.Inconsistencies[i].Error() < result.Inconsistencies[j].Error()
	})

	for _, err := range result.Inconsistencies {
		e.Logger.Errorf("Model inconsistency: %v", err)
	}
	e.Logger.Infof("Recorded %d decisions (%d inconsistency errors)", result.Ledger.Len(), len(result.Inconsistencies))
	return result, nil
}

func (e *Engine) evaluate(sigEval *signals.Evaluator, t task) outcome {
	table := t.target.Schema + "." + t.target.Table

	var sig signals.SignalSet
	var err error
	switch t.kind {
	case models.KindNullability:
		sig, err = sigEval.ForColumn(t.target)
	case models.KindForeignKey:
		sig, err = sigEval.ForRelationship(t.entity, t.rel)
	case models.KindUniqueness:
		sig, err = sigEval.ForUniqueCandidate(t.entity, t.uc)
	}
	if err != nil {
		return outcome{err: err, table: table}
	}

	var d models.Decision
	switch t.kind {
	case models.KindNullability:
		d = EvaluateNullability(t.target, sig, e.Config)
	case models.KindForeignKey:
		d = EvaluateForeignKey(t.target, sig, e.Config)
	case models.KindUniqueness:
		d = EvaluateUniqueness(t.target, sig, e.Config)
	}
	return outcome{decision: d, table: table}
}

// enumerate lists every target key of the model in a deterministic order.
func (e *Engine) enumerate() []task {
	entities := make([]*models.Entity, 0, len(e.Model.Entities))
	for i := range e.Model.Entities {
		entities = append(entities, &e.Model.Entities[i])
	}
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Schema != entities[j].Schema {
			return entities[i].Schema < entities[j].Schema
		}
		return entities[i].Table < entities[j].Table
	})

	var tasks []task
	for _, entity := range entities {
		for _, attr := range entity.Attributes {
			tasks = append(tasks, task{
				kind:   models.KindNullability,
				target: models.ColumnTarget(entity.Schema, entity.Table, attr.Column),
				entity: entity,
			})
		}
		for _, rel := range entity.Relationships {
			tasks = append(tasks, task{
				kind:   models.KindForeignKey,
				target: models.ColumnTarget(entity.Schema, entity.Table, rel.Column),
				entity: entity,
				rel:    rel,
			})
		}
		for _, uc := range entity.UniqueCandidates {
			tasks = append(tasks, task{
				kind:   models.KindUniqueness,
				target: models.CandidateTarget(entity.Schema, entity.Table, uc.Columns),
				entity: entity,
				uc:     uc,
			})
		}
	}
	return tasks
}
