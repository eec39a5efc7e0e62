package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielbdyer/schema-tightener/pkg/models"
)

func TestParseMode(t *testing.T) {
	for _, name := range []string{"cautious", "evidence-gated", "aggressive"} {
		mode, err := ParseMode(name)
		require.NoError(t, err)
		assert.Equal(t, Mode(name), mode)
	}

	_, err := ParseMode("bold")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseMode("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestModePosture(t *testing.T) {
	cautious := ModeCautious.Posture()
	assert.False(t, cautious.TrustsDeclaredIntent)
	assert.True(t, cautious.RequiresCleanData)
	assert.False(t, cautious.OffersRemediation)

	gated := ModeEvidenceGated.Posture()
	assert.True(t, gated.TrustsDeclaredIntent)
	assert.True(t, gated.RequiresCleanData)
	assert.False(t, gated.OffersRemediation)

	aggressive := ModeAggressive.Posture()
	assert.True(t, aggressive.TrustsDeclaredIntent)
	assert.False(t, aggressive.RequiresCleanData)
	assert.True(t, aggressive.OffersRemediation)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Mode = "bold" }},
		{"negative null budget", func(c *Config) { c.NullBudget = -0.1 }},
		{"null budget above one", func(c *Config) { c.NullBudget = 1.1 }},
		{"unknown missing delete action policy", func(c *Config) { c.MissingDeleteAction = "guess" }},
		{"negative remediation ceiling", func(c *Config) { c.RemediationRowCeiling = -1 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestSentinelFor(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "''", cfg.SentinelFor(models.FamilyText))
	assert.Equal(t, "0", cfg.SentinelFor(models.FamilyInteger))
	assert.Equal(t, "'1900-01-01 00:00:00'", cfg.SentinelFor(models.FamilyDateTime))

	cfg.Sentinels = map[models.TypeFamily]string{models.FamilyInteger: "-1"}
	assert.Equal(t, "-1", cfg.SentinelFor(models.FamilyInteger))
	// Families absent from the override fall back to the defaults.
	assert.Equal(t, "''", cfg.SentinelFor(models.FamilyText))
}
