package policy

import (
	"errors"
	"fmt"

	"github.com/danielbdyer/schema-tightener/pkg/models"
)

// Mode is the selected tightening posture.
type Mode string

const (
	ModeCautious      Mode = "cautious"
	ModeEvidenceGated Mode = "evidence-gated"
	ModeAggressive    Mode = "aggressive"
)

// ErrInvalidConfig marks configuration rejected before any evaluation runs.
var ErrInvalidConfig = errors.New("invalid configuration")

// ParseMode parses a mode name strictly. Unknown names are a configuration
// error, never silently defaulted.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case ModeCautious, ModeEvidenceGated, ModeAggressive:
		return Mode(name), nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, name)
	}
}

// Posture describes what a mode is willing to trust.
type Posture struct {
	// TrustsDeclaredIntent permits Mandatory/ReferenceDeclared/UniqueDeclared
	// to justify tightening without clean data evidence.
	TrustsDeclaredIntent bool
	// RequiresCleanData demands DataNoViolations (or an in-budget null rate)
	// before declared intent may tighten.
	RequiresCleanData bool
	// OffersRemediation tightens over dirty data and emits a correction plan
	// instead of backing off.
	OffersRemediation bool
}

// Posture returns the trust posture for a mode.
func (m Mode) Posture() Posture {
	switch m {
	case ModeCautious:
		return Posture{TrustsDeclaredIntent: false, RequiresCleanData: true, OffersRemediation: false}
	case ModeAggressive:
		return Posture{TrustsDeclaredIntent: true, RequiresCleanData: false, OffersRemediation: true}
	default: // evidence-gated
		return Posture{TrustsDeclaredIntent: true, RequiresCleanData: true, OffersRemediation: false}
	}
}

// MissingDeleteActionPolicy says how relationships without a declared delete
// action are treated. This must be configured explicitly.
type MissingDeleteActionPolicy string

const (
	MissingDeleteProtect MissingDeleteActionPolicy = "protect"
	MissingDeleteIgnore  MissingDeleteActionPolicy = "ignore"
)

// Config is the immutable configuration passed explicitly into every
// evaluator call. There is no process-wide state.
type Config struct {
	Mode                  Mode
	NullBudget            float64
	AllowCrossSchema      bool
	AllowCrossCatalog     bool
	MissingDeleteAction   MissingDeleteActionPolicy
	RemediationRowCeiling int64
	Sentinels             map[models.TypeFamily]string
	Workers               int
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Mode:                  ModeEvidenceGated,
		NullBudget:            0.0,
		AllowCrossSchema:      false,
		AllowCrossCatalog:     false,
		MissingDeleteAction:   MissingDeleteProtect,
		RemediationRowCeiling: 100000,
		Sentinels:             DefaultSentinels(),
		Workers:               4,
	}
}

// DefaultSentinels returns the built-in sentinel value per type family.
func DefaultSentinels() map[models.TypeFamily]string {
	return map[models.TypeFamily]string{
		models.FamilyText:     "''",
		models.FamilyInteger:  "0",
		models.FamilyDecimal:  "0.0",
		models.FamilyDateTime: "'1900-01-01 00:00:00'",
		models.FamilyBoolean:  "0",
		models.FamilyBinary:   "''",
	}
}

// Validate fails fast on configuration the engine must not run with.
func (c Config) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.NullBudget < 0 || c.NullBudget > 1 {
		return fmt.Errorf("%w: null budget %v outside [0,1]", ErrInvalidConfig, c.NullBudget)
	}
	switch c.MissingDeleteAction {
	case MissingDeleteProtect, MissingDeleteIgnore:
	default:
		return fmt.Errorf("%w: unknown missing-delete-action policy %q", ErrInvalidConfig, c.MissingDeleteAction)
	}
	if c.RemediationRowCeiling < 0 {
		return fmt.Errorf("%w: remediation row ceiling %d is negative", ErrInvalidConfig, c.RemediationRowCeiling)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: worker count %d must be at least 1", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// SentinelFor returns the configured sentinel for a type family, falling back
// to the built-in defaults.
func (c Config) SentinelFor(family models.TypeFamily) string {
	if v, ok := c.Sentinels[family]; ok {
		return v
	}
	return DefaultSentinels()[family]
}
