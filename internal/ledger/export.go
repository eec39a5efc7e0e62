package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/danielbdyer/schema-tightener/pkg/models"
)

// Exporter writes the ledger to the three audit documents consumed by DDL
// emission and reporting. Output is byte-identical across runs over the same
// inputs: stable ordering, indented JSON, no timestamps.
type Exporter struct {
	OutDir string
	Logger *logrus.Logger
}

// NewExporter creates an exporter writing into outDir.
func NewExporter(outDir string, logger *logrus.Logger) *Exporter {
	return &Exporter{OutDir: outDir, Logger: logger}
}

// decisionRecord is a decision plus the recommended constraint application
// order for tightened foreign keys.
type decisionRecord struct {
	models.Decision
	ApplyOrder int `json:"apply_order,omitempty"`
}

type decisionsDoc struct {
	Decisions []decisionRecord `json:"decisions"`
}

type remediationDoc struct {
	Status string                   `json:"status"`
	Plans  []models.RemediationPlan `json:"plans"`
}

type validatedDoc struct {
	Validated []models.Decision `json:"validated"`
}

// WriteAll exports decisions.json, remediation.json and validated.json.
// Decisions for tables in skipTables (keyed schema.table) are withheld:
// an inconsistent target halts downstream emission for its whole table.
// applyOrder maps schema.table to the recommended FK application rank.
func (e *Exporter) WriteAll(l *Ledger, skipTables map[string]bool, applyOrder map[string]int) error {
	if err := os.MkdirAll(e.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", e.OutDir, err)
	}

	// Initialized so empty documents render as [] rather than null.
	records := []decisionRecord{}
	validated := []models.Decision{}
	for _, d := range l.Decisions() {
		if skipTables[d.Target.Schema+"."+d.Target.Table] {
			e.Logger.Warningf("Withholding decision for %s (%s): table has inconsistency errors", d.Target, d.Kind)
			continue
		}
		rec := decisionRecord{Decision: d}
		if d.Kind == models.KindForeignKey && d.Tighten && !d.AlreadySatisfied {
			rec.ApplyOrder = applyOrder[d.Target.Schema+"."+d.Target.Table]
		}
		records = append(records, rec)
		if d.AlreadySatisfied {
			validated = append(validated, d)
		}
	}

	plans := []models.RemediationPlan{}
	for _, p := range l.Plans() {
		if skipTables[p.Target.Schema+"."+p.Target.Table] {
			continue
		}
		plans = append(plans, p)
	}

	if err := e.writeJSON("decisions.json", decisionsDoc{Decisions: records}); err != nil {
		return err
	}
	if err := e.writeJSON("remediation.json", remediationDoc{Status: "not_yet_applied", Plans: plans}); err != nil {
		return err
	}
	if err := e.writeJSON("validated.json", validatedDoc{Validated: validated}); err != nil {
		return err
	}

	e.Logger.Infof("Exported %d decisions, %d remediation plans, %d validated constraints to %s",
		len(records), len(plans), len(validated), e.OutDir)
	return nil
}

// Render serializes a document the same way the files are written; tests and
// the determinism check compare these bytes.
func Render(doc interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RenderDecisions serializes the decisions document for byte comparison.
func RenderDecisions(l *Ledger, skipTables map[string]bool, applyOrder map[string]int) ([]byte, error) {
	records := []decisionRecord{}
	for _, d := range l.Decisions() {
		if skipTables[d.Target.Schema+"."+d.Target.Table] {
			continue
		}
		rec := decisionRecord{Decision: d}
		if d.Kind == models.KindForeignKey && d.Tighten && !d.AlreadySatisfied {
			rec.ApplyOrder = applyOrder[d.Target.Schema+"."+d.Target.Table]
		}
		records = append(records, rec)
	}
	return Render(decisionsDoc{Decisions: records})
}

func (e *Exporter) writeJSON(name string, doc interface{}) error {
	data, err := Render(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(e.OutDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
