// Package messages renders recommendations in English. The analyzer hands
// over only a type and parameters; all wording lives here so other locales
// can swap in their own Renderer.
package messages

import (
	"fmt"
	"strings"

	"github.com/sqlsage/sqlsage/internal/analyzer"
)

type Catalog struct{}

func (Catalog) Render(t analyzer.Type, p analyzer.Params) analyzer.Text {
	e, ok := catalog[t]
	if !ok {
		return analyzer.Text{Message: string(t)}
	}
	return analyzer.Text{
		Message:    e.message(p),
		Suggestion: e.suggestion(p),
		Details: analyzer.Details{
			Impact:         e.impact,
			Implementation: e.implementation,
		},
	}
}

type entry struct {
	message        func(analyzer.Params) string
	suggestion     func(analyzer.Params) string
	impact         string
	implementation []string
}

func static(s string) func(analyzer.Params) string {
	return func(analyzer.Params) string { return s }
}

// subject names what a finding is about, falling back from table to the
// native operator when the node had no relation.
func subject(p analyzer.Params) string {
	if t := p.Str("table"); t != "" {
		return "'" + t + "'"
	}
	if s := p.Str("source"); s != "" {
		return s
	}
	return "a plan step"
}

var catalog = map[analyzer.Type]entry{
	analyzer.TypeTableScan: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("Full table scan on %s reads every row (about %d).", subject(p), p.Int("rows"))
		},
		suggestion: static("Add an index matching the query's filter so the engine can seek instead of scanning."),
		impact:     "Read cost grows linearly with table size and degrades every concurrent query.",
		implementation: []string{
			"Identify the columns in the WHERE clause",
			"Create an index covering those columns",
			"Re-run the analysis to confirm the scan became an index lookup",
		},
	},
	analyzer.TypeLargeTableScan: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("Full scan over %s, which holds about %d rows.", subject(p), p.Int("rowCount"))
		},
		suggestion: static("At this size a full scan dominates query time; an index is strongly advised."),
		impact:     "Scan time and buffer-cache pressure grow with the table.",
		implementation: []string{
			"Create an index for the query's access pattern",
			"Consider partitioning if the table keeps growing",
		},
	},
	analyzer.TypeFullIndexScan: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("The entire index '%s' on %s is read instead of a targeted range.", p.Str("index"), subject(p))
		},
		suggestion: static("Constrain the leading index column in the predicate, or add an index that matches the filter."),
		impact:     "Cheaper than a table scan but still proportional to index size.",
		implementation: []string{
			"Check whether the predicate skips the index's leading column",
			"Add or reorder an index so the filter binds its prefix",
		},
	},
	analyzer.TypeUnusedIndex: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("Indexes available on %s were not used: %s.", subject(p), strings.Join(p.Strs("indexes"), ", "))
		},
		suggestion: static("Check predicate sargability: functions, type casts, or leading wildcards on indexed columns prevent index use."),
		impact:     "The engine falls back to scanning although a cheaper path exists.",
		implementation: []string{
			"Compare the WHERE clause with the index column order",
			"Avoid wrapping indexed columns in functions or implicit casts",
			"Refresh table statistics so the optimizer sees current cardinalities",
		},
	},
	analyzer.TypePartialIndexUse: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("Index '%s' on %s is matched against a non-constant reference.", p.Str("index"), subject(p))
		},
		suggestion:     static("A composite index covering the remaining predicate columns can serve the lookup fully."),
		impact:         "Each lookup still filters rows the index cannot exclude.",
		implementation: []string{"Extend the index with the columns compared against non-constants"},
	},
	analyzer.TypeHighIndexRatio: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("Indexes on %s take %.0f%% of the data size (%d index bytes vs %d data bytes).",
				subject(p), p.Float("ratio")*100, p.Int("indexSize"), p.Int("dataSize"))
		},
		suggestion: static("Review the table for redundant or unused indexes; every index taxes each write."),
		impact:     "Write amplification and extra cache pressure on every insert and update.",
		implementation: []string{
			"List the table's indexes and their usage counters",
			"Drop indexes no query uses, merge overlapping ones",
		},
	},
	analyzer.TypeInefficientJoin: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("Nested-loop join probes %s without index support.", subject(p))
		},
		suggestion: static("Index the join columns on the inner side, or let the optimizer switch to a hash join."),
		impact:     "The inner side is rescanned for every outer row.",
		implementation: []string{
			"Create an index on the inner table's join columns",
			"Re-check the plan; the loop should become an indexed lookup",
		},
	},
	analyzer.TypeNestedLoopLarge: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("Nested-loop join produced %d rows; loop joins degrade quickly past a few thousand.", p.Int("rows"))
		},
		suggestion:     static("Index the join keys or restructure the query so a hash join applies."),
		impact:         "Join cost is multiplicative in the input sizes.",
		implementation: []string{"Add indexes on the join keys", "Reduce the joined row sets with earlier filters"},
	},
	analyzer.TypeJoinBuffer: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("Join against %s falls back to the join buffer.", subject(p))
		},
		suggestion:     static("Add an index on the joined columns so the join can probe it directly."),
		impact:         "Buffered joins rescan buffered rows instead of seeking.",
		implementation: []string{"Index the join columns on the buffered side"},
	},
	analyzer.TypeHashSpill: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("Hash operation split into %d batches and spilled to disk.", p.Int("batches"))
		},
		suggestion: static("Raise the session's hash memory or shrink the hashed input."),
		impact:     "Each extra batch re-reads and re-writes spilled tuples.",
		implementation: []string{
			"Increase work_mem (PostgreSQL) or join_buffer_size (MySQL) for the session",
			"Filter earlier so less data reaches the hash",
		},
	},
	analyzer.TypeHashMemoryExceeded: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("Hash used %d bytes against an allowance of %d bytes.", p.Int("memoryUsed"), p.Int("memoryAllowed"))
		},
		suggestion:     static("Grant the operation more memory or reduce its input."),
		impact:         "Exceeding the allowance forces disk batches.",
		implementation: []string{"Raise the memory limit for the session running this query"},
	},
	analyzer.TypeTemporaryTable: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("An intermediate temporary structure is built for %s.", subject(p))
		},
		suggestion:     static("Usually caused by GROUP BY or ORDER BY over unindexed columns, or DISTINCT over wide rows."),
		impact:         "Temporary structures cost memory and may fall back to disk.",
		implementation: []string{"Index the grouping or ordering columns", "Trim unneeded columns from the SELECT list"},
	},
	analyzer.TypeTempDiskUsage: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("Intermediate results wrote %d blocks (about %.1f MB) to temporary storage.", p.Int("blocks"), p.Float("megabytes"))
		},
		suggestion:     static("Raise working memory or restructure the query to shrink intermediate results."),
		impact:         "Temporary I/O is often the slowest part of the plan.",
		implementation: []string{"Increase working memory for the session", "Aggregate or filter before joining"},
	},
	analyzer.TypeFilesort: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("Sort over %s cannot use an index and sorts %d rows externally.", subject(p), p.Int("rows"))
		},
		suggestion: static("Add an index matching the ORDER BY so rows come back already sorted."),
		impact:     "External sorting writes and re-reads the whole result set.",
		implementation: []string{
			"Create an index in the ORDER BY column order",
			"Keep LIMIT close to the sort to cut sorted volume",
		},
	},
	analyzer.TypeInefficientGrouping: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("Grouping on %s builds both a temporary structure and an external sort.", subject(p))
		},
		suggestion:     static("An index on the GROUP BY columns removes both steps."),
		impact:         "The query pays for a temporary table and a sort on top of the scan.",
		implementation: []string{"Index the GROUP BY columns in grouping order"},
	},
	analyzer.TypeLooseIndexScan: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("Query on %s uses index '%s' yet still needs a temporary structure.", subject(p), p.Str("index"))
		},
		suggestion:     static("Reorder or extend the index so grouping can ride the index order."),
		impact:         "Partial index coverage forces the remaining work into temporary storage.",
		implementation: []string{"Align the index column order with the GROUP BY"},
	},
	analyzer.TypeDependentSubquery: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("Correlated subquery over %s re-executes for every outer row.", subject(p))
		},
		suggestion: static("Rewrite as a JOIN, or pre-compute the subquery with a derived table."),
		impact:     "Total work is outer rows times subquery cost.",
		implementation: []string{
			"Express the correlation as a join condition",
			"Verify the rewritten query returns identical results",
		},
	},
	analyzer.TypeSubquery: {
		message: func(p analyzer.Params) string {
			msg := fmt.Sprintf("Subquery over %s executes as a separate step.", subject(p))
			if p.Bool("materialized") {
				msg += " Its result is materialized once."
			}
			return msg
		},
		suggestion:     static("Check whether the optimizer can flatten it into a join."),
		impact:         "A separate step blocks some join-order optimizations.",
		implementation: []string{"Try the equivalent JOIN form and compare plans"},
	},
	analyzer.TypeNoPartitionPruning: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("All %d partitions of %s are touched; no pruning happened.", p.Int("partitions"), subject(p))
		},
		suggestion: static("Filter on the partitioning key with predicates the planner can resolve."),
		impact:     "Partitioning brings no benefit when every partition is read.",
		implementation: []string{
			"Add the partition key to the WHERE clause",
			"Avoid functions over the partition key in predicates",
		},
	},
	analyzer.TypeNoParallelWorkers: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("Plan cost is %.0f yet no parallel workers were planned.", p.Float("cost"))
		},
		suggestion:     static("Check max_parallel_workers_per_gather and whether the query shape blocks parallelism."),
		impact:         "A single backend does work that could be spread across workers.",
		implementation: []string{"Raise the parallel worker limits", "Remove parallel-unsafe functions from the query"},
	},
	analyzer.TypeMissedMaterialization: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("A branch over %s runs %d times without materialization.", subject(p), p.Int("loops"))
		},
		suggestion:     static("Materialize the repeated branch with a CTE or temporary table."),
		impact:         "The same work repeats once per loop.",
		implementation: []string{"Hoist the repeated branch into a CTE", "Confirm the plan shows a single materialized execution"},
	},
	analyzer.TypeSlowPlanning: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("Planning took %.1f ms, more than typical execution for simple queries.", p.Float("milliseconds"))
		},
		suggestion:     static("Heavy planning often follows many indexes or partitions; prepared statements amortize it."),
		impact:         "Planning overhead repeats on every execution of an unprepared statement.",
		implementation: []string{"Use prepared statements for hot queries"},
	},
	analyzer.TypeEstimateMismatch: {
		message: func(p analyzer.Params) string {
			return fmt.Sprintf("Optimizer estimated %d rows but %s produced %d.", p.Int("estimated"), subject(p), p.Int("actual"))
		},
		suggestion:     static("Refresh statistics on the named table so the optimizer plans with real cardinalities."),
		impact:         "Bad estimates cascade into bad join orders and methods.",
		implementation: []string{"Run ANALYZE (PostgreSQL) or ANALYZE TABLE (MySQL)"},
	},
}
