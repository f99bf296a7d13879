package analyzer

import "github.com/sqlsage/sqlsage/internal/plan"

const (
	LargeTableRows        = 10000
	IndexRatioThreshold   = 0.5
	NestedLoopRowLimit    = 1000
	FilesortRowLimit      = 1000
	HashBatchesHigh       = 8
	ParallelCostThreshold = 10000
	SlowPlanningMs        = 100.0
	EstimateMismatchRatio = 10.0
)

// finding is what a rule emits: a type, a severity, and the parameters the
// renderer needs. Wording is not the rule's business.
type finding struct {
	Type     Type
	Severity Severity
	Params   Params
}

// A nodeRule inspects one node (and, through it, its direct children). A
// planRule sees the whole tree and runs once per evaluation.
type (
	nodeRule func(n *plan.Node, ctx *Context) []finding
	planRule func(root *plan.Node, ctx *Context) []finding
)

var defaultNodeRules = []nodeRule{
	checkTableScan,
	checkTableStatistics,
	checkFullIndexScan,
	checkUnusedIndex,
	checkPartialIndexUse,
	checkInefficientJoin,
	checkJoinBuffer,
	checkHashSpill,
	checkTemporary,
	checkTempDiskUsage,
	checkExternalSort,
	checkGrouping,
	checkLooseIndexScan,
	checkSubquery,
	checkPartitionPruning,
	checkMissedMaterialization,
}

var defaultPlanRules = []planRule{
	checkParallelism,
	checkSlowPlanning,
	checkEstimateMismatch,
}

func checkTableScan(n *plan.Node, ctx *Context) []finding {
	if n.Kind != plan.TableScan {
		return nil
	}
	return []finding{{TypeTableScan, High, Params{
		"table": n.Relation,
		"rows":  nodeRows(n),
	}}}
}

func checkTableStatistics(n *plan.Node, ctx *Context) []finding {
	if n.Relation == "" || !isScanKind(n.Kind) {
		return nil
	}
	stat, ok := ctx.Stats(n.Relation)
	if !ok {
		return nil
	}

	var out []finding
	if n.Kind == plan.TableScan && stat.RowCount > LargeTableRows {
		out = append(out, finding{TypeLargeTableScan, High, Params{
			"table":    stat.Table,
			"rowCount": stat.RowCount,
			"dataSize": stat.DataSizeBytes,
		}})
	}
	if stat.DataSizeBytes > 0 {
		ratio := float64(stat.IndexSizeBytes) / float64(stat.DataSizeBytes)
		if ratio > IndexRatioThreshold {
			out = append(out, finding{TypeHighIndexRatio, Low, Params{
				"table":     stat.Table,
				"ratio":     ratio,
				"indexSize": stat.IndexSizeBytes,
				"dataSize":  stat.DataSizeBytes,
			}})
		}
	}
	return out
}

func checkFullIndexScan(n *plan.Node, ctx *Context) []finding {
	if !n.Flags.FullIndexScan {
		return nil
	}
	return []finding{{TypeFullIndexScan, Medium, Params{
		"table": n.Relation,
		"index": n.Index,
		"rows":  nodeRows(n),
	}}}
}

func checkUnusedIndex(n *plan.Node, ctx *Context) []finding {
	if n.Kind != plan.TableScan && !n.Flags.FullIndexScan {
		return nil
	}
	if n.Relation == "" {
		return nil
	}

	candidates := n.CandidateIndexes
	if len(candidates) == 0 {
		candidates = ctx.IndexesFor(n.Relation)
	}
	var unused []string
	for _, name := range candidates {
		if name != n.Index {
			unused = append(unused, name)
		}
	}
	if len(unused) == 0 {
		return nil
	}
	return []finding{{TypeUnusedIndex, Medium, Params{
		"table":   n.Relation,
		"indexes": unused,
	}}}
}

func checkPartialIndexUse(n *plan.Node, ctx *Context) []finding {
	if !n.Flags.PartialKeyUse {
		return nil
	}
	return []finding{{TypePartialIndexUse, Low, Params{
		"table": n.Relation,
		"index": n.Index,
	}}}
}

// checkInefficientJoin covers nested loops only: hash joins build their own
// table and never need index-driven lookup.
func checkInefficientJoin(n *plan.Node, ctx *Context) []finding {
	if n.Kind != plan.NestedLoop {
		return nil
	}

	var out []finding
	if len(n.Children) >= 2 && !joinHasIndexSupport(n) {
		out = append(out, finding{TypeInefficientJoin, High, Params{
			"table": scanSideRelation(n),
			"rows":  nodeRows(n),
		}})
	}
	if n.ActualRows > NestedLoopRowLimit {
		out = append(out, finding{TypeNestedLoopLarge, High, Params{
			"rows": n.ActualRows,
		}})
	}
	return out
}

func joinHasIndexSupport(n *plan.Node) bool {
	for _, child := range n.Children {
		if child.Kind == plan.IndexScan || child.Index != "" {
			return true
		}
	}
	return false
}

func scanSideRelation(n *plan.Node) string {
	for _, child := range n.Children {
		if child.Kind == plan.TableScan && child.Relation != "" {
			return child.Relation
		}
	}
	for _, child := range n.Children {
		if child.Relation != "" {
			return child.Relation
		}
	}
	return ""
}

func checkJoinBuffer(n *plan.Node, ctx *Context) []finding {
	if !n.Flags.JoinBuffer {
		return nil
	}
	return []finding{{TypeJoinBuffer, Medium, Params{
		"table": n.Relation,
	}}}
}

func checkHashSpill(n *plan.Node, ctx *Context) []finding {
	var out []finding
	if n.Flags.HashBatches > 1 {
		severity := Medium
		if n.Flags.HashBatches > HashBatchesHigh {
			severity = High
		}
		out = append(out, finding{TypeHashSpill, severity, Params{
			"batches":    n.Flags.HashBatches,
			"memoryUsed": n.Flags.MemoryUsedBytes,
		}})
	}
	if n.Flags.MemoryAllowedBytes > 0 && n.Flags.MemoryUsedBytes > n.Flags.MemoryAllowedBytes {
		out = append(out, finding{TypeHashMemoryExceeded, Medium, Params{
			"memoryUsed":    n.Flags.MemoryUsedBytes,
			"memoryAllowed": n.Flags.MemoryAllowedBytes,
		}})
	}
	return out
}

func checkTemporary(n *plan.Node, ctx *Context) []finding {
	if !n.Flags.Temporary {
		return nil
	}
	return []finding{{TypeTemporaryTable, Medium, Params{
		"table": n.Relation,
	}}}
}

func checkTempDiskUsage(n *plan.Node, ctx *Context) []finding {
	blocks := n.Flags.TempDiskBlocks
	if blocks == 0 {
		return nil
	}
	return []finding{{TypeTempDiskUsage, Medium, Params{
		"blocks":    blocks,
		"megabytes": float64(blocks*8) / 1024,
	}}}
}

func checkExternalSort(n *plan.Node, ctx *Context) []finding {
	if !n.Flags.ExternalSort {
		return nil
	}
	severity := Medium
	if nodeRows(n) > FilesortRowLimit {
		severity = High
	}
	return []finding{{TypeFilesort, severity, Params{
		"table": n.Relation,
		"rows":  nodeRows(n),
	}}}
}

func checkGrouping(n *plan.Node, ctx *Context) []finding {
	if !n.Flags.Temporary || !n.Flags.ExternalSort || n.Index != "" {
		return nil
	}
	return []finding{{TypeInefficientGrouping, High, Params{
		"table": n.Relation,
	}}}
}

func checkLooseIndexScan(n *plan.Node, ctx *Context) []finding {
	if !n.Flags.Temporary || n.Index == "" {
		return nil
	}
	return []finding{{TypeLooseIndexScan, Medium, Params{
		"table": n.Relation,
		"index": n.Index,
	}}}
}

func checkSubquery(n *plan.Node, ctx *Context) []finding {
	if n.Kind != plan.Subquery {
		return nil
	}
	if n.Correlated {
		return []finding{{TypeDependentSubquery, High, Params{
			"table":  n.Relation,
			"source": n.SourceType,
		}}}
	}
	return []finding{{TypeSubquery, Medium, Params{
		"table":        n.Relation,
		"source":       n.SourceType,
		"materialized": n.Flags.Materialized,
	}}}
}

func checkPartitionPruning(n *plan.Node, ctx *Context) []finding {
	if n.Flags.PartitionsTotal <= 1 || n.Flags.PartitionsRemoved > 0 {
		return nil
	}
	return []finding{{TypeNoPartitionPruning, High, Params{
		"table":      n.Relation,
		"partitions": n.Flags.PartitionsTotal,
	}}}
}

func checkMissedMaterialization(n *plan.Node, ctx *Context) []finding {
	if n.ActualLoops <= 1 || n.Kind == plan.Materialize || n.Flags.Materialized {
		return nil
	}
	return []finding{{TypeMissedMaterialization, Medium, Params{
		"table":  n.Relation,
		"source": n.SourceType,
		"loops":  n.ActualLoops,
	}}}
}

func checkParallelism(root *plan.Node, ctx *Context) []finding {
	if ctx.Engine != plan.Postgres {
		return nil
	}
	if root.Cost <= ParallelCostThreshold || anyWorkersPlanned(root) {
		return nil
	}
	return []finding{{TypeNoParallelWorkers, Medium, Params{
		"cost": root.Cost,
	}}}
}

func checkSlowPlanning(root *plan.Node, ctx *Context) []finding {
	if root.Flags.PlanningTimeMs <= SlowPlanningMs {
		return nil
	}
	return []finding{{TypeSlowPlanning, Low, Params{
		"milliseconds": root.Flags.PlanningTimeMs,
	}}}
}

// checkEstimateMismatch reports the single worst estimate divergence instead
// of flagging every node in a misestimated subtree.
func checkEstimateMismatch(root *plan.Node, ctx *Context) []finding {
	var worst *plan.Node
	var worstRatio float64
	walkNodes(root, func(n *plan.Node) {
		if n.EstimatedRows <= 0 || n.ActualRows <= 0 {
			return
		}
		ratio := float64(n.EstimatedRows) / float64(n.ActualRows)
		if ratio < 1 {
			ratio = 1 / ratio
		}
		if ratio > worstRatio {
			worst, worstRatio = n, ratio
		}
	})
	if worst == nil || worstRatio <= EstimateMismatchRatio {
		return nil
	}
	return []finding{{TypeEstimateMismatch, Low, Params{
		"table":     worst.Relation,
		"source":    worst.SourceType,
		"estimated": worst.EstimatedRows,
		"actual":    worst.ActualRows,
	}}}
}

// nodeRows prefers actual over estimated counts; MySQL plans carry only
// estimates.
func nodeRows(n *plan.Node) int64 {
	if n.ActualRows > 0 {
		return n.ActualRows
	}
	return n.EstimatedRows
}

func isScanKind(k plan.Kind) bool {
	switch k {
	case plan.TableScan, plan.IndexScan, plan.PartitionScan:
		return true
	}
	return false
}

func anyWorkersPlanned(root *plan.Node) bool {
	planned := false
	walkNodes(root, func(n *plan.Node) {
		if n.Flags.WorkersPlanned > 0 {
			planned = true
		}
	})
	return planned
}

func walkNodes(n *plan.Node, visit func(*plan.Node)) {
	visit(n)
	for _, child := range n.Children {
		walkNodes(child, visit)
	}
}
