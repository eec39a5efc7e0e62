package decision

import (
	"github.com/danielbdyer/schema-tightener/internal/policy"
	"github.com/danielbdyer/schema-tightener/internal/signals"
	"github.com/danielbdyer/schema-tightener/pkg/models"
)

// EvaluateForeignKey decides whether a declared relationship can be created
// as an enforced constraint.
//
// The declaration alone is not enough: the schema/catalog pair must be
// permitted by configuration, the declared delete action must not be
// "ignore", and the orphan evidence must be clean, or the aggressive posture
// must be willing to remediate orphans first. Self-referencing relationships
// get no exemption from any of this.
func EvaluateForeignKey(target models.TargetKey, sig signals.SignalSet, cfg policy.Config) models.Decision {
	posture := cfg.Mode.Posture()
	d := models.Decision{Target: target, Kind: models.KindForeignKey, Evidence: sig.Evidence}

	if !sig.ReferenceDeclared {
		d.Rationale = append(d.Rationale, models.RationaleNotDeclared)
		return d
	}

	if sig.PhysicalConstraint {
		d.Tighten = true
		d.AlreadySatisfied = true
		d.Rationale = append(d.Rationale, models.RationaleReferenceDeclared, models.RationalePhysicalConstraint)
		return d
	}

	d.Rationale = append(d.Rationale, models.RationaleReferenceDeclared)

	if sig.CrossSchema && !cfg.AllowCrossSchema {
		d.Rationale = append(d.Rationale, models.RationaleCrossSchemaBlocked)
		return d
	}
	if sig.CrossCatalog && !cfg.AllowCrossCatalog {
		d.Rationale = append(d.Rationale, models.RationaleCrossCatalogBlocked)
		return d
	}

	switch sig.DeleteAction {
	case models.DeleteIgnore:
		d.Rationale = append(d.Rationale, models.RationaleDeleteActionIgnore)
		return d
	case models.DeleteMissing:
		if cfg.MissingDeleteAction == policy.MissingDeleteIgnore {
			d.Rationale = append(d.Rationale, models.RationaleMissingDeleteAction)
			return d
		}
		// Configured to treat a missing action as protect; fall through.
	}

	if sig.EvidenceMissing {
		if posture.OffersRemediation {
			d.Tighten = true
			d.RequiresRemediation = true
			d.Rationale = append(d.Rationale, models.RationaleEvidenceMissing, models.RationaleRemediateBeforeTighten)
			return d
		}
		d.Rationale = []models.RationaleCode{models.RationaleEvidenceMissing}
		return d
	}

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
	return d
}
