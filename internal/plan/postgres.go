package plan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// pgExplain mirrors the top-level shape of EXPLAIN (FORMAT JSON) output.
type pgExplain struct {
	Plan         *pgNode `json:"Plan"`
	PlanningTime float64 `json:"Planning Time"`
}

type pgNode struct {
	NodeType           string   `json:"Node Type"`
	ParentRelationship string   `json:"Parent Relationship"`
	SubplanName        string   `json:"Subplan Name"`
	Strategy           string   `json:"Strategy"`
	RelationName       string   `json:"Relation Name"`
	IndexName          string   `json:"Index Name"`
	IndexCond          string   `json:"Index Cond"`
	CTEName            string   `json:"CTE Name"`
	StartupCost        float64  `json:"Startup Cost"`
	TotalCost          float64  `json:"Total Cost"`
	PlanRows           int64    `json:"Plan Rows"`
	ActualRows         int64    `json:"Actual Rows"`
	ActualLoops        int64    `json:"Actual Loops"`
	SortMethod         string   `json:"Sort Method"`
	SortSpaceType      string   `json:"Sort Space Type"`
	HashBatches        int      `json:"Hash Batches"`
	PeakMemoryUsage    int64    `json:"Peak Memory Usage"`
	TempReadBlocks     int64    `json:"Temp Read Blocks"`
	TempWrittenBlocks  int64    `json:"Temp Written Blocks"`
	WorkersPlanned     int      `json:"Workers Planned"`
	SubplansRemoved    int      `json:"Subplans Removed"`
	Plans              []pgNode `json:"Plans"`
}

// normalizePostgres translates an EXPLAIN (FORMAT JSON) document. PostgreSQL
// emits a one-element array; a bare object saved from a client is accepted
// too.
func normalizePostgres(data []byte) (*Node, error) {
	var outs []pgExplain
	if err := json.Unmarshal(data, &outs); err != nil {
		var single pgExplain
		if json.Unmarshal(data, &single) != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
		}
		outs = []pgExplain{single}
	}
	if len(outs) == 0 || outs[0].Plan == nil {
		return nil, fmt.Errorf("%w: no Plan object in EXPLAIN output", ErrMalformedPlan)
	}

	root, err := pgTranslate(outs[0].Plan)
	if err != nil {
		return nil, err
	}
	root.Flags.PlanningTimeMs = outs[0].PlanningTime
	return root, nil
}

func pgTranslate(pn *pgNode) (*Node, error) {
	if pn.NodeType == "" {
		return nil, fmt.Errorf("%w: plan node missing Node Type", ErrMalformedPlan)
	}

	n := &Node{
		Kind:          pgKind(pn.NodeType),
		SourceType:    pn.NodeType,
		Relation:      pn.RelationName,
		Index:         pn.IndexName,
		EstimatedRows: pn.PlanRows,
		ActualRows:    pn.ActualRows,
		ActualLoops:   pn.ActualLoops,
		Cost:          pn.TotalCost,
	}
	if n.Relation == "" {
		n.Relation = pn.CTEName
	}
	if n.Kind == Aggregate {
		n.Aggregate = pgAggregateMode(pn.Strategy)
	}

	n.Flags.ExternalSort = strings.EqualFold(pn.SortSpaceType, "Disk") ||
		strings.Contains(strings.ToLower(pn.SortMethod), "external")
	n.Flags.IndexCondition = pn.IndexCond != ""
	n.Flags.Materialized = n.Kind == Materialize
	n.Flags.HashBatches = pn.HashBatches
	n.Flags.MemoryUsedBytes = pn.PeakMemoryUsage * 1024
	n.Flags.TempDiskBlocks = pn.TempReadBlocks + pn.TempWrittenBlocks
	n.Flags.WorkersPlanned = pn.WorkersPlanned

	for i := range pn.Plans {
		child, err := pgTranslate(&pn.Plans[i])
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, pgWrapSubplan(&pn.Plans[i], child))
	}

	if n.Kind == PartitionScan {
		n.Flags.PartitionsRemoved = pn.SubplansRemoved
		n.Flags.PartitionsTotal = len(n.Children) + pn.SubplansRemoved
	}
	return n, nil
}

func pgKind(nodeType string) Kind {
	switch nodeType {
	case "Seq Scan":
		return TableScan
	case "Index Scan", "Index Only Scan", "Bitmap Heap Scan", "Bitmap Index Scan":
		return IndexScan
	case "Nested Loop":
		return NestedLoop
	case "Hash Join":
		return HashJoin
	case "Sort", "Incremental Sort":
		return Sort
	case "Aggregate", "GroupAggregate", "HashAggregate", "Group":
		return Aggregate
	case "Materialize", "Memoize":
		return Materialize
	case "CTE Scan":
		return CTEScan
	case "Append", "Merge Append":
		return PartitionScan
	default:
		return Other
	}
}

func pgAggregateMode(strategy string) AggregateMode {
	switch strategy {
	case "Sorted":
		return AggregateGroup
	case "Hashed", "Mixed":
		return AggregateHash
	default:
		return AggregateNone
	}
}

// pgWrapSubplan inserts a Subquery container above children PostgreSQL marks
// as SubPlan (executed per outer row, correlated) or InitPlan (executed
// once). The underlying node stays visible to access-path rules.
func pgWrapSubplan(pn *pgNode, child *Node) *Node {
	if pn.ParentRelationship != "SubPlan" && pn.ParentRelationship != "InitPlan" {
		return child
	}
	name := pn.SubplanName
	if name == "" {
		name = pn.ParentRelationship
	}
	return &Node{
		Kind:       Subquery,
		SourceType: name,
		Relation:   child.Relation,
		Correlated: pn.ParentRelationship == "SubPlan",
		Children:   []*Node{child},
	}
}
