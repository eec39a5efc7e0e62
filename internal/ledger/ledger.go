// Package ledger holds the append-only decision collection that is the sole
// output of a run. Exactly one decision may exist per (target, kind); the
// exported ordering is stable regardless of evaluation order.
package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/danielbdyer/schema-tightener/pkg/models"
)

type entryKey struct {
	target models.TargetKey
	kind   models.ConstraintKind
}

// Ledger is safe for concurrent appends; reads are meant for after the
// evaluation phase completes.
type Ledger struct {
	mu        sync.Mutex
	decisions map[entryKey]models.Decision
	plans     map[entryKey]models.RemediationPlan
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		decisions: make(map[entryKey]models.Decision),
		plans:     make(map[entryKey]models.RemediationPlan),
	}
}

// Append records a decision. A second decision for the same (target, kind)
// is rejected so the exactly-one invariant cannot be violated silently.
func (l *Ledger) Append(d models.Decision) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := entryKey{target: d.Target, kind: d.Kind}
	if _, exists := l.decisions[key]; exists {
		return fmt.Errorf("duplicate decision for %s (%s)", d.Target, d.Kind)
	}
	l.decisions[key] = d
	return nil
}

// AttachPlan records the remediation plan for a decision that requires one.
func (l *Ledger) AttachPlan(p models.RemediationPlan) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := entryKey{target: p.Target, kind: p.Kind}
	d, exists := l.decisions[key]
	if !exists {
		return fmt.Errorf("no decision for plan target %s (%s)", p.Target, p.Kind)
	}
	if !d.RequiresRemediation {
		return fmt.Errorf("decision for %s (%s) does not require remediation", p.Target, p.Kind)
	}
	l.plans[key] = p
	return nil
}

// Len returns the number of recorded decisions.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.decisions)
}

func less(a, b entryKey) bool {
	if a.target.Schema != b.target.Schema {
		return a.target.Schema < b.target.Schema
	}
	if a.target.Table != b.target.Table {
		return a.target.Table < b.target.Table
	}
	if a.target.Column != b.target.Column {
		return a.target.Column < b.target.Column
	}
	return a.kind < b.kind
}

// Decisions returns all decisions in stable (schema, table, column, kind)
// order, independent of append order.
func (l *Ledger) Decisions() []models.Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	keys := make([]entryKey, 0, len(l.decisions))
	for k := range l.decisions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })

	out := make([]models.Decision, 0, len(keys))
	for _, k := range keys {
		out = append(out, l.decisions[k])
	}
	return out
}

// Plans returns all remediation plans in the same stable order as Decisions.
func (l *Ledger) Plans() []models.RemediationPlan {
	l.mu.Lock()
	defer l.mu.Unlock()

	keys := make([]entryKey, 0, len(l.plans))
	for k := range l.plans {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })

	out := make([]models.RemediationPlan, 0, len(keys))
	for _, k := range keys {
		out = append(out, l.plans[k])
	}
	return out
}
