package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielbdyer/schema-tightener/internal/policy"
	"github.com/danielbdyer/schema-tightener/internal/signals"
	"github.com/danielbdyer/schema-tightener/pkg/models"
)

func TestEvaluateUniqueness(t *testing.T) {
	target := models.CandidateTarget("appdb", "customer", []string{"email"})

	tests := []struct {
		name            string
		mode            policy.Mode
		sig             signals.SignalSet
		wantTighten     bool
		wantRemediation bool
		wantIgnoreNulls bool
		wantRationale   []models.RationaleCode
	}{
		{
			name:          "undeclared candidate stays loose",
			mode:          policy.ModeAggressive,
			sig:           signals.SignalSet{DataNoViolations: true},
			wantTighten:   false,
			wantRationale: []models.RationaleCode{models.RationaleNotDeclared},
		},
		{
			name:          "clean duplicate evidence tightens",
			mode:          policy.ModeEvidenceGated,
			sig:           signals.SignalSet{UniqueDeclared: true, DataNoViolations: true},
			wantTighten:   true,
			wantRationale: []models.RationaleCode{models.RationaleUniqueDeclared, models.RationaleDataNoViolations},
		},
		{
			name:            "nullable column gets ignore nulls annotation",
			mode:            policy.ModeEvidenceGated,
			sig:             signals.SignalSet{UniqueDeclared: true, DataNoViolations: true, HasNullableColumn: true},
			wantTighten:     true,
			wantIgnoreNulls: true,
			wantRationale:   []models.RationaleCode{models.RationaleUniqueDeclared, models.RationaleDataNoViolations, models.RationaleIgnoreNullsFilter},
		},
		{
			name:          "duplicates stay loose under evidence gating",
			mode:          policy.ModeEvidenceGated,
			sig:           signals.SignalSet{UniqueDeclared: true},
			wantTighten:   false,
			wantRationale: []models.RationaleCode{models.RationaleUniqueDeclared, models.RationaleDataHasViolations},
		},
		{
			name:          "duplicates stay loose in cautious mode",
			mode:          policy.ModeCautious,
			sig:           signals.SignalSet{UniqueDeclared: true},
			wantTighten:   false,
			wantRationale: []models.RationaleCode{models.RationaleUniqueDeclared, models.RationaleDataHasViolations},
		},
		{
			name:            "duplicates tighten aggressively with remediation",
			mode:            policy.ModeAggressive,
			sig:             signals.SignalSet{UniqueDeclared: true},
			wantTighten:     true,
			wantRemediation: true,
			wantRationale:   []models.RationaleCode{models.RationaleUniqueDeclared, models.RationaleDataHasViolations, models.RationaleRemediateBeforeTighten},
		},
		{
			name:          "missing evidence stays loose under evidence gating",
			mode:          policy.ModeEvidenceGated,
			sig:           signals.SignalSet{UniqueDeclared: true, EvidenceMissing: true},
			wantTighten:   false,
			wantRationale: []models.RationaleCode{models.RationaleEvidenceMissing},
		},
		{
			name:          "missing evidence stays loose even aggressively",
			mode:          policy.ModeAggressive,
			sig:           signals.SignalSet{UniqueDeclared: true, EvidenceMissing: true},
			wantTighten:   false,
			wantRationale: []models.RationaleCode{models.RationaleEvidenceMissing},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := EvaluateUniqueness(target, tt.sig, configWithMode(tt.mode))
			assert.Equal(t, models.KindUniqueness, d.Kind)
			assert.Equal(t, tt.wantTighten, d.Tighten)
			assert.Equal(t, tt.wantRemediation, d.RequiresRemediation)
			assert.Equal(t, tt.wantIgnoreNulls, d.IgnoreNulls)
			assert.Equal(t, tt.wantRationale, d.Rationale)
		})
	}
}

func TestEvaluateUniquenessPhysicalConstraintAlreadySatisfied(t *testing.T) {
	target := models.CandidateTarget("appdb", "customer", []string{"email"})
	sig := signals.SignalSet{UniqueDeclared: true, PhysicalConstraint: true, EvidenceMissing: true}

	d := EvaluateUniqueness(target, sig, configWithMode(policy.ModeEvidenceGated))
	assert.True(t, d.Tighten)
	assert.True(t, d.AlreadySatisfied)
	assert.Equal(t, []models.RationaleCode{models.RationaleUniqueDeclared, models.RationalePhysicalConstraint}, d.Rationale)
}
