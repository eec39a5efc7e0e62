// Package modelgraph analyzes the dependency structure of the declared
// relationships: which tables reference which, where the circular references
// are, and the order in which emitted foreign key constraints should be
// applied so that parents exist before their children point at them.
package modelgraph

import (
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/yourbasic/graph"

	"github.com/danielbdyer/schema-tightener/pkg/models"
)

// Analyzer holds the relationship dependency graph of a model.
type Analyzer struct {
	Model              *models.Model
	DependencyGraph    *graph.Mutable
	TableIndexMap      map[string]int
	IndexTableMap      map[int]string
	DirectCircularDeps [][]string
	Logger             *logrus.Logger
}

// NewAnalyzer builds the dependency graph from the model's declared
// relationships. Edges run child table to referenced table; mandatory
// references get weight 1, optional ones weight 2, mirroring how much a
// missing parent hurts.
func NewAnalyzer(model *models.Model, logger *logrus.Logger) *Analyzer {
	a := &Analyzer{
		Model:         model,
		TableIndexMap: make(map[string]int),
		IndexTableMap: make(map[int]string),
		Logger:        logger,
	}

	tables := a.sortedTables()
	for i, table := range tables {
		a.TableIndexMap[table] = i
		a.IndexTableMap[i] = table
	}

	a.DependencyGraph = graph.New(len(tables))
	for _, entity := range model.Entities {
		src := a.TableIndexMap[tableKey(entity.Schema, entity.Table)]
		for _, rel := range entity.Relationships {
			dest, ok := a.TableIndexMap[tableKey(rel.ReferencedSchema, rel.ReferencedTable)]
			if !ok || dest == src {
				// Undeclared parents surface as inconsistent targets during
				// evaluation; self references need no ordering edge.
				continue
			}
			weight := int64(2)
			if attr, ok := entity.FindAttribute(rel.Column); ok && attr.IsMandatory {
				weight = 1
			}
			a.DependencyGraph.AddCost(src, dest, weight)
		}
	}

	return a
}

// CircularTables returns the tables involved in mutual references, which
// cannot both have their constraints applied parent-first.
func (a *Analyzer) CircularTables() map[string]bool {
	circular := make(map[string]bool)
	a.DirectCircularDeps = nil

	references := a.referenceMap()
	tables := a.sortedTables()

	for i, table1 := range tables {
		for _, table2 := range tables[i+1:] {
			if references[table1][table2] && references[table2][table1] {
				circular[table1] = true
				circular[table2] = true
				a.DirectCircularDeps = append(a.DirectCircularDeps, []string{table1, table2})
			}
		}
	}

	if len(circular) > 0 {
		a.Logger.Warningf("Detected %d tables in circular references; their foreign keys apply last", len(circular))
	}
	return circular
}

// ApplyOrder ranks tables for foreign key application: tables whose parents
// are all ranked come first, circular tables come last, ties break by name.
// The result is deterministic for a given model.
func (a *Analyzer) ApplyOrder() map[string]int {
	circular := a.CircularTables()
	references := a.referenceMap()
	tables := a.sortedTables()

	ranked := make(map[string]int)
	rank := 1

	var pending []string
	for _, table := range tables {
		if circular[table] {
			continue
		}
		pending = append(pending, table)
	}

	for len(pending) > 0 {
		progressed := false
		var next []string
		for _, table := range pending {
			resolved := true
			for parent := range references[table] {
				if parent == table || circular[parent] {
					continue
				}
				if _, done := ranked[parent]; !done {
					resolved = false
					break
				}
			}
			if resolved {
				ranked[table] = rank
				rank++
				progressed = true
			} else {
				next = append(next, table)
			}
		}
		if !progressed {
			// Unresolvable remainder (longer cycles); rank by name so the
			// output stays stable.
			sort.Strings(next)
			for _, table := range next {
				ranked[table] = rank
				rank++
			}
			break
		}
		pending = next
	}

	circularList := make([]string, 0, len(circular))
	for table := range circular {
		circularList = append(circularList, table)
	}
	sort.Strings(circularList)
	for _, table := range circularList {
		ranked[table] = rank
		rank++
	}

	return ranked
}

// referenceMap returns, per table, the set of tables it references.
func (a *Analyzer) referenceMap() map[string]map[string]bool {
	references := make(map[string]map[string]bool)
	for _, entity := range a.Model.Entities {
		src := tableKey(entity.Schema, entity.Table)
		for _, rel := range entity.Relationships {
			dest := tableKey(rel.ReferencedSchema, rel.ReferencedTable)
			if dest == src {
				continue
			}
			if references[src] == nil {
				references[src] = make(map[string]bool)
			}
			references[src][dest] = true
		}
	}
	return references
}

func (a *Analyzer) sortedTables() []string {
	tables := make([]string, 0, len(a.Model.Entities))
	for _, entity := range a.Model.Entities {
		tables = append(tables, tableKey(entity.Schema, entity.Table))
	}
	sort.Strings(tables)
	return tables
}

func tableKey(schema, table string) string {
	return schema + "." + table
}
