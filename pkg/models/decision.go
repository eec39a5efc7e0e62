package models

// ConstraintKind identifies which constraint a decision is about.
type ConstraintKind string

const (
	KindNullability ConstraintKind = "nullability"
	KindForeignKey  ConstraintKind = "foreign_key"
	KindUniqueness  ConstraintKind = "uniqueness"
)

// RationaleCode is a fixed-vocabulary explanation token attached to a decision.
type RationaleCode string

const (
	RationaleIdentity               RationaleCode = "IDENTITY"
	RationalePhysicalConstraint     RationaleCode = "PHYSICAL_CONSTRAINT"
	RationaleMandatory              RationaleCode = "MANDATORY"
	RationaleDefaultPresent         RationaleCode = "DEFAULT_PRESENT"
	RationaleReferenceDeclared      RationaleCode = "REFERENCE_DECLARED"
	RationaleUniqueDeclared         RationaleCode = "UNIQUE_DECLARED"
	RationaleNotDeclared            RationaleCode = "NOT_DECLARED"
	RationaleDataNoViolations       RationaleCode = "DATA_NO_VIOLATIONS"
	RationaleDataHasViolations      RationaleCode = "DATA_HAS_VIOLATIONS"
	RationaleNullRateWithinBudget   RationaleCode = "NULL_RATE_WITHIN_BUDGET"
	RationaleEvidenceMissing        RationaleCode = "EVIDENCE_MISSING"
	RationaleDeclarationNotTrusted  RationaleCode = "DECLARATION_NOT_TRUSTED"
	RationaleRemediateBeforeTighten RationaleCode = "REMEDIATE_BEFORE_TIGHTEN"
	RationaleDeleteActionIgnore     RationaleCode = "DELETE_ACTION_IGNORE"
	RationaleMissingDeleteAction    RationaleCode = "MISSING_DELETE_ACTION"
	RationaleCrossSchemaBlocked     RationaleCode = "CROSS_SCHEMA_BLOCKED"
	RationaleCrossCatalogBlocked    RationaleCode = "CROSS_CATALOG_BLOCKED"
	RationaleIgnoreNullsFilter      RationaleCode = "IGNORE_NULLS_FILTER"
)

// EvidenceCounts carries the raw measurements a decision was justified by.
// Only the counter matching the constraint kind is set.
type EvidenceCounts struct {
	TotalRows       int64  `json:"total_rows"`
	NullCount       *int64 `json:"null_count,omitempty"`
	OrphanCount     *int64 `json:"orphan_count,omitempty"`
	DuplicateGroups *int64 `json:"duplicate_groups,omitempty"`
}

// Decision is the output unit of the engine: one per (target, kind) per run,
// never mutated after creation.
type Decision struct {
	Target              TargetKey       `json:"target"`
	Kind                ConstraintKind  `json:"kind"`
	Tighten             bool            `json:"tighten"`
	Rationale           []RationaleCode `json:"rationale"`
	RequiresRemediation bool            `json:"requires_remediation"`
	AlreadySatisfied    bool            `json:"already_satisfied,omitempty"`
	IgnoreNulls         bool            `json:"ignore_nulls,omitempty"`
	Evidence            EvidenceCounts  `json:"evidence"`
}

// RemediationStrategy names one of the fixed correction strategies.
type RemediationStrategy string

const (
	StrategySentinelBackfill RemediationStrategy = "sentinel_backfill"
	StrategyOrphanDelete     RemediationStrategy = "orphan_delete"
	StrategyOrphanReassign   RemediationStrategy = "orphan_reassign"
	StrategyDuplicateSuffix  RemediationStrategy = "duplicate_suffix"
	StrategyDuplicateDelete  RemediationStrategy = "duplicate_delete"
)

// RemediationOption is one candidate correction, offered never auto-selected.
type RemediationOption struct {
	Strategy    RemediationStrategy `json:"strategy"`
	Description string              `json:"description"`
	Script      string              `json:"script,omitempty"`
}

// RemediationPlan is the child of a decision that requires remediation.
// Applied is always false: plans are emitted for separate, explicit execution.
type RemediationPlan struct {
	Target               TargetKey           `json:"target"`
	Kind                 ConstraintKind      `json:"kind"`
	EstimatedRows        int64               `json:"estimated_rows"`
	Options              []RemediationOption `json:"options"`
	Applied              bool                `json:"applied"`
	ManualReviewRequired bool                `json:"manual_review_required,omitempty"`
	Warning              string              `json:"warning,omitempty"`
}
