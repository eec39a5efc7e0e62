package decision

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielbdyer/schema-tightener/internal/fixture"
	"github.com/danielbdyer/schema-tightener/internal/ledger"
	"github.com/danielbdyer/schema-tightener/internal/policy"
	"github.com/danielbdyer/schema-tightener/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestEngineRunInvalidConfig(t *testing.T) {
	cfg := policy.Default()
	cfg.NullBudget = 1.5

	engine := NewEngine(&models.Model{}, models.NewSnapshot(), cfg, testLogger())
	_, err := engine.Run()
	assert.ErrorIs(t, err, policy.ErrInvalidConfig)
}

func TestEngineProducesExactlyOneDecisionPerTargetKey(t *testing.T) {
	b := fixture.NewBuilder(42)
	model := b.Model(8)
	snapshot := b.Snapshot(model, false)

	wantKeys := 0
	for _, entity := range model.Entities {
		wantKeys += len(entity.Attributes) + len(entity.Relationships) + len(entity.UniqueCandidates)
	}

	result, err := NewEngine(model, snapshot, policy.Default(), testLogger()).Run()
	require.NoError(t, err)
	assert.Empty(t, result.Inconsistencies)
	assert.Equal(t, wantKeys, result.Ledger.Len())
}

func TestEngineOutputIndependentOfWorkerCount(t *testing.T) {
	render := func(workers int) []byte {
		b := fixture.NewBuilder(7)
		model := b.Model(12)
		snapshot := b.Snapshot(model, false)

		cfg := policy.Default()
		cfg.Workers = workers
		result, err := NewEngine(model, snapshot, cfg, testLogger()).Run()
		require.NoError(t, err)

		data, err := ledger.RenderDecisions(result.Ledger, result.FailedTables, nil)
		require.NoError(t, err)
		return data
	}

	first := render(1)
	second := render(8)
	assert.Equal(t, first, second)
}

func TestEngineNeverTightensWithoutEvidenceOutsidePhysicalFacts(t *testing.T) {
	b := fixture.NewBuilder(99)
	model := b.Model(6)

	for _, mode := range []policy.Mode{policy.ModeCautious, policy.ModeEvidenceGated} {
		cfg := policy.Default()
		cfg.Mode = mode

		result, err := NewEngine(model, models.NewSnapshot(), cfg, testLogger()).Run()
		require.NoError(t, err)

		for _, d := range result.Ledger.Decisions() {
			if hasRationale(d, models.RationaleIdentity) || hasRationale(d, models.RationalePhysicalConstraint) {
				continue
			}
			assert.Falsef(t, d.Tighten, "%s (%s) tightened without evidence in %s mode", d.Target, d.Kind, mode)
		}
	}
}

func TestEngineAggressiveTightensAtLeastAsMuch(t *testing.T) {
	b := fixture.NewBuilder(17)
	model := b.Model(10)
	snapshot := b.Snapshot(model, false)

	run := func(mode policy.Mode) map[string]bool {
		cfg := policy.Default()
		cfg.Mode = mode
		result, err := NewEngine(model, snapshot, cfg, testLogger()).Run()
		require.NoError(t, err)

		tightened := make(map[string]bool)
		for _, d := range result.Ledger.Decisions() {
			tightened[d.Target.String()+"/"+string(d.Kind)] = d.Tighten
		}
		return tightened
	}

	aggressive := run(policy.ModeAggressive)
	for _, mode := range []policy.Mode{policy.ModeCautious, policy.ModeEvidenceGated} {
		for key, tighten := range run(mode) {
			if tighten {
				assert.Truef(t, aggressive[key], "%s tightened in %s mode but not aggressively", key, mode)
			}
		}
	}
}

func TestEngineCollectsInconsistenciesWithoutAborting(t *testing.T) {
	model := &models.Model{
		Entities: []models.Entity{
			{
				Schema: "appdb",
				Table:  "customer",
				Attributes: []models.Attribute{
					{Column: "id", DataType: "bigint", IsIdentifier: true, IsMandatory: true},
					{Column: "email", DataType: "varchar", IsMandatory: true},
				},
			},
			{
				Schema: "appdb",
				Table:  "order",
				Attributes: []models.Attribute{
					{Column: "id", DataType: "bigint", IsIdentifier: true, IsMandatory: true},
					{Column: "customer_id", DataType: "bigint", IsMandatory: true},
				},
				Relationships: []models.Relationship{
					{
						Name:             "fk_order_customer",
						Column:           "customer_id",
						ReferencedSchema: "appdb",
						ReferencedTable:  "nonexistent",
						ReferencedColumn: "id",
						DeleteAction:     models.DeleteProtect,
					},
				},
			},
		},
	}

	result, err := NewEngine(model, models.NewSnapshot(), policy.Default(), testLogger()).Run()
	require.NoError(t, err)

	require.Len(t, result.Inconsistencies, 1)
	assert.True(t, result.FailedTables["appdb.order"])
	assert.False(t, result.FailedTables["appdb.customer"])

	// Every well-formed key was still evaluated.
	assert.Equal(t, 4, result.Ledger.Len())
}

func TestEngineDuplicateDeclarationIsAnInconsistency(t *testing.T) {
	model := &models.Model{
		Entities: []models.Entity{
			{
				Schema: "appdb",
				Table:  "customer",
				Attributes: []models.Attribute{
					{Column: "id", DataType: "bigint", IsIdentifier: true, IsMandatory: true},
					{Column: "email", DataType: "varchar"},
				},
				UniqueCandidates: []models.UniqueCandidate{
					{Name: "uq_email", Columns: []string{"email"}},
					{Name: "uq_email_again", Columns: []string{"email"}},
				},
			},
		},
	}

	result, err := NewEngine(model, models.NewSnapshot(), policy.Default(), testLogger()).Run()
	require.NoError(t, err)

	require.Len(t, result.Inconsistencies, 1)
	assert.Contains(t, result.Inconsistencies[0].Error(), "duplicate decision")
	assert.True(t, result.FailedTables["appdb.customer"])
}

func hasRationale(d models.Decision, code models.RationaleCode) bool {
	for _, r := range d.Rationale {
		if r == code {
			return true
		}
	}
	return false
}
