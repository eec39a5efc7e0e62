// Package decision applies the mode policy to a target's signals and
// produces one decision per (target, constraint kind). The three evaluators
// are independent pure functions selected by the caller.
package decision

import (
	"github.com/danielbdyer/schema-tightener/internal/policy"
	"github.com/danielbdyer/schema-tightener/internal/signals"
	"github.com/danielbdyer/schema-tightener/pkg/models"
)

// EvaluateNullability decides whether a column can be tightened to NOT NULL.
//
// Tighten iff Identity, or the catalog already enforces NOT NULL, or the mode
// trusts declared intent (mandatory, declared reference, declared uniqueness)
// backed by the evidence the mode demands. A null rate within the configured
// budget tightens without remediation; actual violations tighten only in
// aggressive mode, with a remediation requirement.
func EvaluateNullability(target models.TargetKey, sig signals.SignalSet, cfg policy.Config) models.Decision {
	posture := cfg.Mode.Posture()
	d := models.Decision{Target: target, Kind: models.KindNullability, Evidence: sig.Evidence}

	if sig.Identity || sig.PhysicalConstraint {
		d.Tighten = true
		d.AlreadySatisfied = sig.PhysicalConstraint
		if sig.Identity {
			d.Rationale = append(d.Rationale, models.RationaleIdentity)
		}
		if sig.PhysicalConstraint {
			d.Rationale = append(d.Rationale, models.RationalePhysicalConstraint)
		}
		return d
	}

	declared := sig.Mandatory || sig.ReferenceDeclared || sig.UniqueDeclared
	if !declared {
		d.Rationale = append(d.Rationale, models.RationaleNotDeclared)
		return d
	}

	if sig.EvidenceMissing {
		// Without measurements nothing may be tightened, except that the
		// aggressive posture trusts a mandatory declaration outright and
		// schedules remediation for whatever the data turns out to hold.
		if posture.OffersRemediation && sig.Mandatory {
			d.Tighten = true
			d.RequiresRemediation = true
			d.Rationale = append(d.Rationale, models.RationaleMandatory, models.RationaleEvidenceMissing, models.RationaleRemediateBeforeTighten)
			return d
		}
		d.Rationale = append(d.Rationale, models.RationaleEvidenceMissing)
		return d
	}

	d.Rationale = appendIntent(d.Rationale, sig)

	if !posture.TrustsDeclaredIntent {
		d.Rationale = append(d.Rationale, models.RationaleDeclarationNotTrusted)
		return d
	}

	switch {
	case sig.DataNoViolations:
		d.Tighten = true
		d.Rationale = append(d.Rationale, models.RationaleDataNoViolations)
	case sig.NullRateWithinBudget:
		// Within budget is safe enough to tighten and is not itself remediated.
		d.Tighten = true
		d.Rationale = append(d.Rationale, models.RationaleNullRateWithinBudget)
	case posture.OffersRemediation:
		d.Tighten = true
		d.RequiresRemediation = true
		d.Rationale = append(d.Rationale, models.RationaleDataHasViolations, models.RationaleRemediateBeforeTighten)
	default:
		d.Rationale = append(d.Rationale, models.RationaleDataHasViolations)
	}
	return d
}

func appendIntent(r []models.RationaleCode, sig signals.SignalSet) []models.RationaleCode {
	if sig.Mandatory {
		r = append(r, models.RationaleMandatory)
	}
	if sig.ReferenceDeclared {
		r = append(r, models.RationaleReferenceDeclared)
	}
	if sig.UniqueDeclared {
		r = append(r, models.RationaleUniqueDeclared)
	}
	return r
}
