package evidence

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/danielbdyer/schema-tightener/internal/connector"
	"github.com/danielbdyer/schema-tightener/pkg/models"
)

// Profiler measures data reality in a live MySQL database. It only reads:
// information_schema for the physical catalog overlay, COUNT queries for
// nulls, LEFT JOIN probes for orphans, GROUP BY probes for duplicates.
type Profiler struct {
	DB     *connector.DatabaseConnector
	Logger *logrus.Logger
}

// NewProfiler creates a profiler over an open connector.
func NewProfiler(db *connector.DatabaseConnector, logger *logrus.Logger) *Profiler {
	return &Profiler{DB: db, Logger: logger}
}

// GetSnapshot profiles every model entity that physically exists in the
// connected database. Entities without a physical table get no snapshot
// entries at all, which downstream reads as missing evidence.
func (p *Profiler) GetSnapshot(model *models.Model) (*models.Snapshot, error) {
	snapshot := models.NewSnapshot()

	physicalTables, err := p.physicalTables()
	if err != nil {
		return nil, err
	}

	for i := range model.Entities {
		entity := &model.Entities[i]
		if entity.Schema != p.DB.Database {
			p.Logger.Debugf("Skipping %s.%s: schema not covered by this connection", entity.Schema, entity.Table)
			continue
		}
		if !physicalTables[entity.Table] {
			p.Logger.Warningf("Table %s.%s declared in model but absent from database, no evidence collected", entity.Schema, entity.Table)
			continue
		}
		if err := p.profileEntity(entity, snapshot); err != nil {
			return nil, err
		}
	}

	p.Logger.Infof("Profiled evidence: %d columns, %d relationships, %d unique candidates",
		len(snapshot.Columns), len(snapshot.Relationships), len(snapshot.Uniques))
	return snapshot, nil
}

func (p *Profiler) physicalTables() (map[string]bool, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ?
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`
	result, err := p.DB.ExecuteQuery(query, p.DB.Database)
	if err != nil {
		p.Logger.Errorf("Error listing tables: %v", err)
		return nil, err
	}

	tables := make(map[string]bool)
	for _, row := range result {
		tables[row["table_name"].(string)] = true
	}
	return tables, nil
}

func (p *Profiler) profileEntity(entity *models.Entity, snapshot *models.Snapshot) error {
	if err := p.overlayCatalog(entity, snapshot); err != nil {
		return err
	}

	total, err := p.DB.ExecuteScalar(fmt.Sprintf("SELECT COUNT(*) FROM %s", qualify(entity.Schema, entity.Table)))
	if err != nil {
		return fmt.Errorf("count rows of %s.%s: %w", entity.Schema, entity.Table, err)
	}

	for _, attr := range entity.Attributes {
		key := models.ColumnTarget(entity.Schema, entity.Table, attr.Column)
		nulls, err := p.DB.ExecuteScalar(fmt.Sprintf(
			"SELECT COUNT(*) - COUNT(%s) FROM %s", quote(attr.Column), qualify(entity.Schema, entity.Table)))
		if err != nil {
			p.Logger.Warningf("Failed to profile nulls for %s: %v", key, err)
			continue
		}
		snapshot.Columns[key.String()] = models.ColumnEvidence{NullCount: nulls, TotalRows: total}
	}

	for _, rel := range entity.Relationships {
		key := models.ColumnTarget(entity.Schema, entity.Table, rel.Column)
		orphans, err := p.DB.ExecuteScalar(fmt.Sprintf(
			"SELECT COUNT(*) FROM %s c LEFT JOIN %s p ON c.%s = p.%s WHERE c.%s IS NOT NULL AND p.%s IS NULL",
			qualify(entity.Schema, entity.Table),
			qualify(rel.ReferencedSchema, rel.ReferencedTable),
			quote(rel.Column), quote(rel.ReferencedColumn),
			quote(rel.Column), quote(rel.ReferencedColumn)))
		if err != nil {
			p.Logger.Warningf("Failed to profile orphans for %s: %v", key, err)
			continue
		}
		snapshot.Relationships[key.String()] = models.RelationshipEvidence{OrphanCount: orphans, TotalRows: total}
	}

	for _, uc := range entity.UniqueCandidates {
		key := models.CandidateTarget(entity.Schema, entity.Table, uc.Columns)
		groups, err := p.DB.ExecuteScalar(duplicateGroupsQuery(entity, uc))
		if err != nil {
			p.Logger.Warningf("Failed to profile duplicates for %s: %v", key, err)
			continue
		}
		snapshot.Uniques[key.String()] = models.UniqueEvidence{DuplicateGroups: groups, TotalRows: total}
	}

	return nil
}

// overlayCatalog records which constraints the database already enforces.
func (p *Profiler) overlayCatalog(entity *models.Entity, snapshot *models.Snapshot) error {
	columnsQuery := `
		SELECT column_name, is_nullable
		FROM information_schema.columns
		WHERE table_schema = ?
		AND table_name = ?
		ORDER BY ordinal_position
	`
	columnsResult, err := p.DB.ExecuteQuery(columnsQuery, entity.Schema, entity.Table)
	if err != nil {
		p.Logger.Errorf("Error getting columns for %s.%s: %v", entity.Schema, entity.Table, err)
		return err
	}
	for _, row := range columnsResult {
		if row["is_nullable"].(string) == "NO" {
			key := models.ColumnTarget(entity.Schema, entity.Table, row["column_name"].(string))
			facts := snapshot.Physical[key.String()]
			facts.NotNull = true
			snapshot.Physical[key.String()] = facts
		}
	}

	fkQuery := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
		AND table_name = ?
		AND referenced_table_name IS NOT NULL
		ORDER BY column_name
	`
	fkResult, err := p.DB.ExecuteQuery(fkQuery, entity.Schema, entity.Table)
	if err != nil {
		p.Logger.Errorf("Error getting foreign keys for %s.%s: %v", entity.Schema, entity.Table, err)
		return err
	}
	for _, row := range fkResult {
		key := models.ColumnTarget(entity.Schema, entity.Table, row["column_name"].(string))
		facts := snapshot.Physical[key.String()]
		facts.ForeignKey = true
		snapshot.Physical[key.String()] = facts
	}

	uniqueQuery := `
		SELECT index_name, column_name, seq_in_index
		FROM information_schema.statistics
		WHERE table_schema = ?
		AND table_name = ?
		AND non_unique = 0
		ORDER BY index_name, seq_in_index
	`
	uniqueResult, err := p.DB.ExecuteQuery(uniqueQuery, entity.Schema, entity.Table)
	if err != nil {
		p.Logger.Errorf("Error getting unique indexes for %s.%s: %v", entity.Schema, entity.Table, err)
		return err
	}
	indexColumns := make(map[string][]string)
	var indexOrder []string
	for _, row := range uniqueResult {
		name := row["index_name"].(string)
		if _, seen := indexColumns[name]; !seen {
			indexOrder = append(indexOrder, name)
		}
		indexColumns[name] = append(indexColumns[name], row["column_name"].(string))
	}
	for _, name := range indexOrder {
		key := models.CandidateTarget(entity.Schema, entity.Table, indexColumns[name])
		facts := snapshot.Physical[key.String()]
		facts.UniqueConstraint = true
		snapshot.Physical[key.String()] = facts
	}

	return nil
}

func duplicateGroupsQuery(entity *models.Entity, uc models.UniqueCandidate) string {
	quoted := make([]string, len(uc.Columns))
	notNull := make([]string, len(uc.Columns))
	for i, col := range uc.Columns {
		quoted[i] = quote(col)
		notNull[i] = quote(col) + " IS NOT NULL"
	}
	// Duplicates among NULLs are not violations, so NULL tuples are excluded.
	return fmt.Sprintf(
		"SELECT COUNT(*) FROM (SELECT %s FROM %s WHERE %s GROUP BY %s HAVING COUNT(*) > 1) dup",
		strings.Join(quoted, ", "),
		qualify(entity.Schema, entity.Table),
		strings.Join(notNull, " AND "),
		strings.Join(quoted, ", "),
	)
}

func qualify(schema, table string) string {
	return quote(schema) + "." + quote(table)
}

func quote(identifier string) string {
	return "`" + identifier + "`"
}
