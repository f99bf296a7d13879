package plan

import (
	"errors"
	"testing"
)

func normalizePG(t *testing.T, data string) *Node {
	t.Helper()
	root, err := Normalize(Raw{Engine: Postgres, JSON: []byte(data)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return root
}

func TestNormalizePostgres_SeqScan(t *testing.T) {
	root := normalizePG(t, `[{
		"Plan": {
			"Node Type": "Seq Scan",
			"Relation Name": "users",
			"Startup Cost": 0.00,
			"Total Cost": 20.00,
			"Plan Rows": 1000,
			"Actual Rows": 980,
			"Actual Loops": 1
		},
		"Planning Time": 0.085,
		"Execution Time": 0.523
	}]`)

	if root.Kind != TableScan {
		t.Errorf("Kind = %v, want TABLE_SCAN", root.Kind)
	}
	if root.SourceType != "Seq Scan" {
		t.Errorf("SourceType = %q, want %q", root.SourceType, "Seq Scan")
	}
	if root.Relation != "users" {
		t.Errorf("Relation = %q, want %q", root.Relation, "users")
	}
	if root.EstimatedRows != 1000 {
		t.Errorf("EstimatedRows = %d, want 1000", root.EstimatedRows)
	}
	if root.ActualRows != 980 {
		t.Errorf("ActualRows = %d, want 980", root.ActualRows)
	}
	if root.Cost != 20.00 {
		t.Errorf("Cost = %f, want 20.00", root.Cost)
	}
	if root.Flags.PlanningTimeMs != 0.085 {
		t.Errorf("PlanningTimeMs = %f, want 0.085", root.Flags.PlanningTimeMs)
	}
	if len(root.Children) != 0 {
		t.Errorf("expected leaf node, got %d children", len(root.Children))
	}
}

func TestNormalizePostgres_ExternalSortWithChild(t *testing.T) {
	root := normalizePG(t, `[{
		"Plan": {
			"Node Type": "Sort",
			"Total Cost": 72.33,
			"Sort Method": "external merge",
			"Sort Space Type": "Disk",
			"Plans": [{
				"Node Type": "Seq Scan",
				"Parent Relationship": "Outer",
				"Relation Name": "users",
				"Total Cost": 20.00
			}]
		}
	}]`)

	if root.Kind != Sort {
		t.Errorf("Kind = %v, want SORT", root.Kind)
	}
	if !root.Flags.ExternalSort {
		t.Error("ExternalSort = false, want true")
	}
	if len(root.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(root.Children))
	}
	if root.Children[0].Kind != TableScan {
		t.Errorf("child Kind = %v, want TABLE_SCAN", root.Children[0].Kind)
	}
}

func TestNormalizePostgres_HashJoinSpillFields(t *testing.T) {
	root := normalizePG(t, `[{
		"Plan": {
			"Node Type": "Hash Join",
			"Total Cost": 100.0,
			"Plans": [{
				"Node Type": "Hash",
				"Parent Relationship": "Inner",
				"Hash Batches": 4,
				"Peak Memory Usage": 256,
				"Temp Read Blocks": 5,
				"Temp Written Blocks": 7
			}]
		}
	}]`)

	if root.Kind != HashJoin {
		t.Errorf("Kind = %v, want HASH_JOIN", root.Kind)
	}
	hash := root.Children[0]
	if hash.Kind != Other {
		t.Errorf("Hash node Kind = %v, want OTHER", hash.Kind)
	}
	if hash.Flags.HashBatches != 4 {
		t.Errorf("HashBatches = %d, want 4", hash.Flags.HashBatches)
	}
	if hash.Flags.MemoryUsedBytes != 256*1024 {
		t.Errorf("MemoryUsedBytes = %d, want %d", hash.Flags.MemoryUsedBytes, 256*1024)
	}
	if hash.Flags.TempDiskBlocks != 12 {
		t.Errorf("TempDiskBlocks = %d, want 12", hash.Flags.TempDiskBlocks)
	}
}

func TestNormalizePostgres_SubPlanWrapped(t *testing.T) {
	root := normalizePG(t, `[{
		"Plan": {
			"Node Type": "Seq Scan",
			"Relation Name": "orders",
			"Plans": [{
				"Node Type": "Index Scan",
				"Parent Relationship": "SubPlan",
				"Subplan Name": "SubPlan 1",
				"Relation Name": "customers",
				"Index Name": "customers_pkey",
				"Index Cond": "(id = orders.customer_id)",
				"Actual Loops": 50
			}]
		}
	}]`)

	if len(root.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(root.Children))
	}
	sub := root.Children[0]
	if sub.Kind != Subquery {
		t.Fatalf("child Kind = %v, want SUBQUERY", sub.Kind)
	}
	if !sub.Correlated {
		t.Error("Correlated = false, want true")
	}
	if sub.SourceType != "SubPlan 1" {
		t.Errorf("SourceType = %q, want %q", sub.SourceType, "SubPlan 1")
	}
	if len(sub.Children) != 1 {
		t.Fatalf("expected wrapped node, got %d children", len(sub.Children))
	}
	inner := sub.Children[0]
	if inner.Kind != IndexScan {
		t.Errorf("inner Kind = %v, want INDEX_SCAN", inner.Kind)
	}
	if !inner.Flags.IndexCondition {
		t.Error("inner IndexCondition = false, want true")
	}
	if inner.ActualLoops != 50 {
		t.Errorf("inner ActualLoops = %d, want 50", inner.ActualLoops)
	}
}

func TestNormalizePostgres_InitPlanUncorrelated(t *testing.T) {
	root := normalizePG(t, `[{
		"Plan": {
			"Node Type": "Seq Scan",
			"Relation Name": "orders",
			"Plans": [{
				"Node Type": "Aggregate",
				"Parent Relationship": "InitPlan",
				"Strategy": "Plain"
			}]
		}
	}]`)

	sub := root.Children[0]
	if sub.Kind != Subquery {
		t.Fatalf("child Kind = %v, want SUBQUERY", sub.Kind)
	}
	if sub.Correlated {
		t.Error("Correlated = true, want false for InitPlan")
	}
	if sub.SourceType != "InitPlan" {
		t.Errorf("SourceType = %q, want %q", sub.SourceType, "InitPlan")
	}
}

func TestNormalizePostgres_AppendPartitions(t *testing.T) {
	root := normalizePG(t, `[{
		"Plan": {
			"Node Type": "Append",
			"Subplans Removed": 10,
			"Plans": [
				{"Node Type": "Seq Scan", "Relation Name": "events_2025"},
				{"Node Type": "Seq Scan", "Relation Name": "events_2026"}
			]
		}
	}]`)

	if root.Kind != PartitionScan {
		t.Errorf("Kind = %v, want PARTITION_SCAN", root.Kind)
	}
	if root.Flags.PartitionsTotal != 12 {
		t.Errorf("PartitionsTotal = %d, want 12", root.Flags.PartitionsTotal)
	}
	if root.Flags.PartitionsRemoved != 10 {
		t.Errorf("PartitionsRemoved = %d, want 10", root.Flags.PartitionsRemoved)
	}
}

func TestNormalizePostgres_AggregateModes(t *testing.T) {
	cases := []struct {
		strategy string
		want     AggregateMode
	}{
		{"Hashed", AggregateHash},
		{"Mixed", AggregateHash},
		{"Sorted", AggregateGroup},
		{"Plain", AggregateNone},
	}
	for _, tc := range cases {
		root := normalizePG(t, `[{"Plan": {"Node Type": "Aggregate", "Strategy": "`+tc.strategy+`"}}]`)
		if root.Kind != Aggregate {
			t.Errorf("%s: Kind = %v, want AGGREGATE", tc.strategy, root.Kind)
		}
		if root.Aggregate != tc.want {
			t.Errorf("%s: Aggregate = %v, want %v", tc.strategy, root.Aggregate, tc.want)
		}
	}
}

func TestNormalizePostgres_MemoizeIsMaterialized(t *testing.T) {
	root := normalizePG(t, `[{"Plan": {"Node Type": "Memoize"}}]`)
	if root.Kind != Materialize {
		t.Errorf("Kind = %v, want MATERIALIZE", root.Kind)
	}
	if !root.Flags.Materialized {
		t.Error("Materialized = false, want true")
	}
}

func TestNormalizePostgres_CTEScanUsesCTEName(t *testing.T) {
	root := normalizePG(t, `[{"Plan": {"Node Type": "CTE Scan", "CTE Name": "recent_orders"}}]`)
	if root.Kind != CTEScan {
		t.Errorf("Kind = %v, want CTE_SCAN", root.Kind)
	}
	if root.Relation != "recent_orders" {
		t.Errorf("Relation = %q, want %q", root.Relation, "recent_orders")
	}
}

func TestNormalizePostgres_UnknownNodeTypeMapsToOther(t *testing.T) {
	root := normalizePG(t, `[{"Plan": {"Node Type": "Merge Join"}}]`)
	if root.Kind != Other {
		t.Errorf("Kind = %v, want OTHER", root.Kind)
	}
	if root.SourceType != "Merge Join" {
		t.Errorf("SourceType = %q, want %q", root.SourceType, "Merge Join")
	}
}

func TestNormalizePostgres_BareObjectAccepted(t *testing.T) {
	root := normalizePG(t, `{"Plan": {"Node Type": "Seq Scan", "Relation Name": "users"}}`)
	if root.Kind != TableScan {
		t.Errorf("Kind = %v, want TABLE_SCAN", root.Kind)
	}
}

func TestNormalizePostgres_WorkersPlanned(t *testing.T) {
	root := normalizePG(t, `[{"Plan": {"Node Type": "Gather", "Workers Planned": 4}}]`)
	if root.Flags.WorkersPlanned != 4 {
		t.Errorf("WorkersPlanned = %d, want 4", root.Flags.WorkersPlanned)
	}
}

func TestNormalizePostgres_InvalidJSON(t *testing.T) {
	_, err := Normalize(Raw{Engine: Postgres, JSON: []byte("not json")})
	if !errors.Is(err, ErrMalformedPlan) {
		t.Fatalf("error = %v, want ErrMalformedPlan", err)
	}
}

func TestNormalizePostgres_MissingPlan(t *testing.T) {
	_, err := Normalize(Raw{Engine: Postgres, JSON: []byte(`[{"Planning Time": 1.0}]`)})
	if !errors.Is(err, ErrMalformedPlan) {
		t.Fatalf("error = %v, want ErrMalformedPlan", err)
	}
}

func TestNormalizePostgres_MissingNodeType(t *testing.T) {
	_, err := Normalize(Raw{Engine: Postgres, JSON: []byte(`[{"Plan": {"Total Cost": 5.0}}]`)})
	if !errors.Is(err, ErrMalformedPlan) {
		t.Fatalf("error = %v, want ErrMalformedPlan", err)
	}
}

func TestNormalize_UnknownEngine(t *testing.T) {
	_, err := Normalize(Raw{Engine: Engine("oracle")})
	if !errors.Is(err, ErrMalformedPlan) {
		t.Fatalf("error = %v, want ErrMalformedPlan", err)
	}
}
