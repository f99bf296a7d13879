package analyzer

import "github.com/sqlsage/sqlsage/internal/plan"

// TableStatistic is the size profile of one table, as reported by the
// engine's catalog.
type TableStatistic struct {
	Table          string `json:"table"`
	RowCount       int64  `json:"rowCount"`
	DataSizeBytes  int64  `json:"dataSizeBytes"`
	IndexSizeBytes int64  `json:"indexSizeBytes"`
}

// IndexDescriptor is one column of one index. An index covering several
// columns appears as several descriptors sharing Table and Name.
type IndexDescriptor struct {
	Table  string `json:"table"`
	Name   string `json:"name"`
	Column string `json:"column"`
	Unique bool   `json:"unique"`
}

// Context carries the metadata rules correlate plan nodes against. A zero
// Context is valid and means no metadata: rules that need it stay silent.
type Context struct {
	Engine     plan.Engine
	TableStats map[string]TableStatistic
	Indexes    []IndexDescriptor
}

func NewContext(engine plan.Engine, stats []TableStatistic, indexes []IndexDescriptor) *Context {
	ctx := &Context{
		Engine:     engine,
		TableStats: make(map[string]TableStatistic, len(stats)),
		Indexes:    indexes,
	}
	for _, s := range stats {
		ctx.TableStats[s.Table] = s
	}
	return ctx
}

func (c *Context) Stats(table string) (TableStatistic, bool) {
	s, ok := c.TableStats[table]
	return s, ok
}

// IndexesFor returns the distinct index names defined on a table, in
// descriptor order.
func (c *Context) IndexesFor(table string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, ix := range c.Indexes {
		if ix.Table != table || seen[ix.Name] {
			continue
		}
		seen[ix.Name] = true
		names = append(names, ix.Name)
	}
	return names
}
