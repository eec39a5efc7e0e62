package decision

import (
	"github.com/danielbdyer/schema-tightener/internal/policy"
	"github.com/danielbdyer/schema-tightener/internal/signals"
	"github.com/danielbdyer/schema-tightener/pkg/models"
)

// EvaluateUniqueness decides whether a declared unique candidate can be
// created as a unique constraint.
//
// No mode grants uniqueness without duplicate evidence: a duplicate-tolerant
// unique constraint cannot exist, so the aggressive posture remediates
// duplicates rather than ignoring them, and missing evidence never tightens.
// Nullable participating columns get an ignore-NULLs annotation because
// duplicates among NULLs are not violations.
func EvaluateUniqueness(target models.TargetKey, sig signals.SignalSet, cfg policy.Config) models.Decision {
	posture := cfg.Mode.Posture()
	d := models.Decision{Target: target, Kind: models.KindUniqueness, Evidence: sig.Evidence}

	if !sig.UniqueDeclared {
		d.Rationale = append(d.Rationale, models.RationaleNotDeclared)
		return d
	}

	if sig.PhysicalConstraint {
		d.Tighten = true
		d.AlreadySatisfied = true
		d.Rationale = append(d.Rationale, models.RationaleUniqueDeclared, models.RationalePhysicalConstraint)
		return d
	}

	if sig.EvidenceMissing {
		d.Rationale = []models.RationaleCode{models.RationaleEvidenceMissing}
		return d
	}

	d.Rationale = append(d.Rationale, models.RationaleUniqueDeclared)

	switch {
	case sig.DataNoViolations:
		d.Tighten = true
		d.Rationale = append(d.Rationale, models.RationaleDataNoViolations)
	case posture.OffersRemediation:
		d.Tighten = true
		d.RequiresRemediation = true
		d.Rationale = append(d.Rationale, models.RationaleDataHasViolations, models.RationaleRemediateBeforeTighten)
	default:
		d.Rationale = append(d.Rationale, models.RationaleDataHasViolations)
	}

	if d.Tighten && sig.HasNullableColumn {
		d.IgnoreNulls = true
		d.Rationale = append(d.Rationale, models.RationaleIgnoreNullsFilter)
	}
	return d
}
