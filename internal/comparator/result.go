package comparator

import (
	"encoding/json"

	"github.com/sqlsage/sqlsage/internal/analyzer"
	"github.com/sqlsage/sqlsage/internal/plan"
)

type Direction int

const (
	Unchanged Direction = 0
	Improved  Direction = 1
	Regressed Direction = 2

	SignificanceThresholdPct = 1.0
)

func (d Direction) String() string {
	switch d {
	case Improved:
		return "improved"
	case Regressed:
		return "regressed"
	default:
		return "unchanged"
	}
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

type ChangeType int

const (
	NoChange    ChangeType = 0
	Modified    ChangeType = 1
	Added       ChangeType = 2
	Removed     ChangeType = 3
	KindChanged ChangeType = 4
)

func (c ChangeType) String() string {
	switch c {
	case Modified:
		return "modified"
	case Added:
		return "added"
	case Removed:
		return "removed"
	case KindChanged:
		return "kind_changed"
	default:
		return "no_change"
	}
}

func (c ChangeType) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// NodeDelta describes how one plan position moved between the two runs.
// Added and Removed deltas carry metrics for their side only.
type NodeDelta struct {
	Kind     plan.Kind  `json:"kind"`
	Relation string     `json:"relation,omitempty"`
	Change   ChangeType `json:"change"`

	BeforeKind plan.Kind `json:"beforeKind,omitempty"`
	AfterKind  plan.Kind `json:"afterKind,omitempty"`

	BeforeCost float64   `json:"beforeCost,omitempty"`
	AfterCost  float64   `json:"afterCost,omitempty"`
	CostPct    float64   `json:"costPct,omitempty"`
	CostDir    Direction `json:"costDirection,omitempty"`

	BeforeRows int64   `json:"beforeRows,omitempty"`
	AfterRows  int64   `json:"afterRows,omitempty"`
	RowsPct    float64 `json:"rowsPct,omitempty"`

	BeforeIndex string `json:"beforeIndex,omitempty"`
	AfterIndex  string `json:"afterIndex,omitempty"`

	BeforeSpill bool `json:"beforeSpill,omitempty"`
	AfterSpill  bool `json:"afterSpill,omitempty"`

	Children []NodeDelta `json:"children,omitempty"`
}

type Summary struct {
	BeforeCost float64   `json:"beforeCost"`
	AfterCost  float64   `json:"afterCost"`
	CostPct    float64   `json:"costPct"`
	CostDir    Direction `json:"costDirection"`

	BeforePlanningMs float64 `json:"beforePlanningMs,omitempty"`
	AfterPlanningMs  float64 `json:"afterPlanningMs,omitempty"`

	NodesAdded       int `json:"nodesAdded,omitempty"`
	NodesRemoved     int `json:"nodesRemoved,omitempty"`
	NodesModified    int `json:"nodesModified,omitempty"`
	NodesKindChanged int `json:"nodesKindChanged,omitempty"`

	Verdict string `json:"verdict"`
}

// Comparison is the full before/after report: plan movement plus which
// findings were fixed, introduced, or survived the change.
type Comparison struct {
	Engine  plan.Engine `json:"engine"`
	Summary Summary     `json:"summary"`
	Deltas  []NodeDelta `json:"planChanges"`

	Fixed      []analyzer.Recommendation `json:"fixed,omitempty"`
	Introduced []analyzer.Recommendation `json:"introduced,omitempty"`
	Persisting []analyzer.Recommendation `json:"persisting,omitempty"`
}
