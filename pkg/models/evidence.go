package models

// ColumnEvidence is a measured null profile for one column.
type ColumnEvidence struct {
	NullCount int64 `json:"null_count"`
	TotalRows int64 `json:"total_rows"`
}

// NullRate returns the null ratio, 0 for empty tables.
func (e ColumnEvidence) NullRate() float64 {
	if e.TotalRows == 0 {
		return 0
	}
	return float64(e.NullCount) / float64(e.TotalRows)
}

// RelationshipEvidence is a measured orphan profile for one relationship.
type RelationshipEvidence struct {
	OrphanCount int64 `json:"orphan_count"`
	TotalRows   int64 `json:"total_rows"`
}

// UniqueEvidence is a measured duplicate profile for one unique candidate.
// DuplicateGroups counts distinct non-NULL value tuples that occur more than
// once; duplicates among NULLs are not violations.
type UniqueEvidence struct {
	DuplicateGroups int64 `json:"duplicate_groups"`
	TotalRows       int64 `json:"total_rows"`
}

// PhysicalFacts records constraints the physical catalog already enforces
// for a target.
type PhysicalFacts struct {
	NotNull          bool `json:"not_null,omitempty"`
	ForeignKey       bool `json:"foreign_key,omitempty"`
	UniqueConstraint bool `json:"unique_constraint,omitempty"`
}

// Snapshot is a point-in-time measurement of data reality, keyed by the
// string form of TargetKey. Absence of an entry means "no evidence", never
// "zero violations".
type Snapshot struct {
	Columns       map[string]ColumnEvidence       `json:"columns,omitempty"`
	Relationships map[string]RelationshipEvidence `json:"relationships,omitempty"`
	Uniques       map[string]UniqueEvidence       `json:"uniques,omitempty"`
	Physical      map[string]PhysicalFacts        `json:"physical,omitempty"`
}

// NewSnapshot creates an empty snapshot with all maps initialized.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Columns:       make(map[string]ColumnEvidence),
		Relationships: make(map[string]RelationshipEvidence),
		Uniques:       make(map[string]UniqueEvidence),
		Physical:      make(map[string]PhysicalFacts),
	}
}

// ColumnFor looks up null evidence for a target key.
func (s *Snapshot) ColumnFor(key TargetKey) (ColumnEvidence, bool) {
	if s == nil || s.Columns == nil {
		return ColumnEvidence{}, false
	}
	ev, ok := s.Columns[key.String()]
	return ev, ok
}

// RelationshipFor looks up orphan evidence for a target key.
func (s *Snapshot) RelationshipFor(key TargetKey) (RelationshipEvidence, bool) {
	if s == nil || s.Relationships == nil {
		return RelationshipEvidence{}, false
	}
	ev, ok := s.Relationships[key.String()]
	return ev, ok
}

// UniqueFor looks up duplicate evidence for a target key.
func (s *Snapshot) UniqueFor(key TargetKey) (UniqueEvidence, bool) {
	if s == nil || s.Uniques == nil {
		return UniqueEvidence{}, false
	}
	ev, ok := s.Uniques[key.String()]
	return ev, ok
}

// PhysicalFor looks up catalog facts for a target key. Missing catalog facts
// are an ordinary "nothing enforced yet" state, not missing evidence.
func (s *Snapshot) PhysicalFor(key TargetKey) PhysicalFacts {
	if s == nil || s.Physical == nil {
		return PhysicalFacts{}
	}
	return s.Physical[key.String()]
}
