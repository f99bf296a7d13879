// Package comparator diffs two analyses of the same query, typically taken
// before and after an optimization attempt.
package comparator

import (
	"fmt"
	"math"

	"github.com/sqlsage/sqlsage/internal/advisor"
	"github.com/sqlsage/sqlsage/internal/analyzer"
	"github.com/sqlsage/sqlsage/internal/plan"
)

type Comparator struct {
	// Threshold is the percentage below which a metric movement does not
	// count as a change.
	Threshold float64
}

func New() *Comparator {
	return &Comparator{Threshold: SignificanceThresholdPct}
}

// Compare diffs two analyses. Both must come from the same engine; cost is
// an engine-defined unit and means nothing across engines.
func (c *Comparator) Compare(before, after *advisor.Result) (*Comparison, error) {
	if before.Engine != after.Engine {
		return nil, fmt.Errorf("cannot compare plans from different engines (%s vs %s)", before.Engine, after.Engine)
	}

	rootDelta := c.diffNodes(before.Plan, after.Plan)

	summary := Summary{
		BeforeCost: before.Plan.Cost,
		AfterCost:  after.Plan.Cost,
		CostPct:    pctChange(before.Plan.Cost, after.Plan.Cost),
		CostDir:    c.direction(before.Plan.Cost, after.Plan.Cost),

		BeforePlanningMs: before.Plan.Flags.PlanningTimeMs,
		AfterPlanningMs:  after.Plan.Flags.PlanningTimeMs,
	}
	countChanges(&rootDelta, &summary)

	fixed, introduced, persisting := diffRecommendations(before.Recommendations, after.Recommendations)
	summary.Verdict = c.verdict(summary.CostDir, fixed, introduced)

	return &Comparison{
		Engine:     before.Engine,
		Summary:    summary,
		Deltas:     []NodeDelta{rootDelta},
		Fixed:      fixed,
		Introduced: introduced,
		Persisting: persisting,
	}, nil
}

func countChanges(delta *NodeDelta, summary *Summary) {
	switch delta.Change {
	case Added:
		summary.NodesAdded++
	case Removed:
		summary.NodesRemoved++
	case Modified:
		summary.NodesModified++
	case KindChanged:
		summary.NodesKindChanged++
	}

	for i := range delta.Children {
		countChanges(&delta.Children[i], summary)
	}
}

func (c *Comparator) diffNodes(before, after *plan.Node) NodeDelta {
	delta := NodeDelta{
		Relation: coalesce(before.Relation, after.Relation),
	}

	if before.Kind != after.Kind {
		delta.Change = KindChanged
		delta.BeforeKind = before.Kind
		delta.AfterKind = after.Kind
		delta.Kind = after.Kind
	} else {
		delta.Change = Modified
		delta.Kind = before.Kind
	}

	delta.BeforeCost = before.Cost
	delta.AfterCost = after.Cost
	delta.CostPct = pctChange(before.Cost, after.Cost)
	delta.CostDir = c.direction(before.Cost, after.Cost)

	delta.BeforeRows = nodeRows(before)
	delta.AfterRows = nodeRows(after)
	delta.RowsPct = pctChange(float64(delta.BeforeRows), float64(delta.AfterRows))

	delta.BeforeIndex = before.Index
	delta.AfterIndex = after.Index

	delta.BeforeSpill = spills(before)
	delta.AfterSpill = spills(after)

	if delta.Change == Modified && !c.isSignificant(delta) {
		delta.Change = NoChange
	}

	delta.Children = c.diffChildren(before.Children, after.Children)

	return delta
}

// diffChildren matches children positionally. Plans of the same query rarely
// reorder inputs, and positional matching keeps the diff readable.
func (c *Comparator) diffChildren(before, after []*plan.Node) []NodeDelta {
	var deltas []NodeDelta

	for i := range max(len(before), len(after)) {
		switch {
		case i >= len(before):
			deltas = append(deltas, addedNode(after[i]))
		case i >= len(after):
			deltas = append(deltas, removedNode(before[i]))
		default:
			deltas = append(deltas, c.diffNodes(before[i], after[i]))
		}
	}

	return deltas
}

func addedNode(n *plan.Node) NodeDelta {
	delta := NodeDelta{
		Change:     Added,
		Kind:       n.Kind,
		Relation:   n.Relation,
		AfterCost:  n.Cost,
		AfterRows:  nodeRows(n),
		AfterIndex: n.Index,
		AfterSpill: spills(n),
	}

	for _, child := range n.Children {
		delta.Children = append(delta.Children, addedNode(child))
	}

	return delta
}

func removedNode(n *plan.Node) NodeDelta {
	delta := NodeDelta{
		Change:      Removed,
		Kind:        n.Kind,
		Relation:    n.Relation,
		BeforeCost:  n.Cost,
		BeforeRows:  nodeRows(n),
		BeforeIndex: n.Index,
		BeforeSpill: spills(n),
	}

	for _, child := range n.Children {
		delta.Children = append(delta.Children, removedNode(child))
	}

	return delta
}

func (c *Comparator) isSignificant(d NodeDelta) bool {
	if math.Abs(d.CostPct) > c.Threshold {
		return true
	}
	if math.Abs(d.RowsPct) > c.Threshold {
		return true
	}
	if d.BeforeSpill != d.AfterSpill {
		return true
	}
	if d.BeforeIndex != d.AfterIndex {
		return true
	}
	return false
}

// diffRecommendations matches findings by type; message text carries
// run-specific numbers and cannot identify a finding across runs. Repeated
// types are consumed one for one.
func diffRecommendations(before, after []analyzer.Recommendation) (fixed, introduced, persisting []analyzer.Recommendation) {
	matched := make([]bool, len(after))

	for _, rec := range before {
		found := false
		for i, cand := range after {
			if !matched[i] && cand.Type == rec.Type {
				matched[i] = true
				persisting = append(persisting, cand)
				found = true
				break
			}
		}
		if !found {
			fixed = append(fixed, rec)
		}
	}

	for i, rec := range after {
		if !matched[i] {
			introduced = append(introduced, rec)
		}
	}

	return fixed, introduced, persisting
}

func (c *Comparator) verdict(costDir Direction, fixed, introduced []analyzer.Recommendation) string {
	issues := Unchanged
	if len(fixed) > len(introduced) {
		issues = Improved
	} else if len(introduced) > len(fixed) {
		issues = Regressed
	}

	switch {
	case costDir == Unchanged && issues == Unchanged:
		return "no significant change"
	case costDir != Regressed && issues != Regressed:
		return "improved"
	case costDir != Improved && issues != Improved:
		return "regressed"
	default:
		return "mixed results"
	}
}

func (c *Comparator) direction(before, after float64) Direction {
	if math.Abs(pctChange(before, after)) < c.Threshold {
		return Unchanged
	}
	if after < before {
		return Improved
	}
	return Regressed
}

func pctChange(before, after float64) float64 {
	if before == 0 {
		if after == 0 {
			return 0
		}
		return 100
	}
	return ((after - before) / before) * 100
}

// nodeRows prefers measured rows; plain MySQL EXPLAIN only estimates.
func nodeRows(n *plan.Node) int64 {
	if n.ActualRows > 0 {
		return n.ActualRows
	}
	return n.EstimatedRows
}

// spills reports whether a node shows any disk pressure signal.
func spills(n *plan.Node) bool {
	return n.Flags.ExternalSort || n.Flags.Temporary ||
		n.Flags.TempDiskBlocks > 0 || n.Flags.HashBatches > 1
}

func coalesce(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
