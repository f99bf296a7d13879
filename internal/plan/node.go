package plan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Engine identifies the database engine a plan came from.
type Engine string

const (
	MySQL    Engine = "mysql"
	Postgres Engine = "postgres"
)

// ParseEngine maps user-facing engine names, including common aliases, to an
// Engine value.
func ParseEngine(name string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unknown engine %q (use mysql or postgres)", name)
	}
}

// Kind is the engine-neutral classification of a plan operator. Native
// operator names that fit no kind map to Other rather than failing.
type Kind int

const (
	Other Kind = iota
	TableScan
	IndexScan
	NestedLoop
	HashJoin
	Sort
	Aggregate
	Materialize
	CTEScan
	PartitionScan
	Subquery
)

func (k Kind) String() string {
	switch k {
	case TableScan:
		return "TABLE_SCAN"
	case IndexScan:
		return "INDEX_SCAN"
	case NestedLoop:
		return "NESTED_LOOP_JOIN"
	case HashJoin:
		return "HASH_JOIN"
	case Sort:
		return "SORT"
	case Aggregate:
		return "AGGREGATE"
	case Materialize:
		return "MATERIALIZE"
	case CTEScan:
		return "CTE_SCAN"
	case PartitionScan:
		return "PARTITION_SCAN"
	case Subquery:
		return "SUBQUERY"
	default:
		return "OTHER"
	}
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// AggregateMode distinguishes how an Aggregate node groups its input.
type AggregateMode int

const (
	AggregateNone AggregateMode = iota
	AggregateGroup
	AggregateHash
)

func (m AggregateMode) String() string {
	switch m {
	case AggregateGroup:
		return "group"
	case AggregateHash:
		return "hash"
	default:
		return "none"
	}
}

func (m AggregateMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// Flags are facts lifted off the native plan. Fields the engine did not
// report stay at their zero value.
type Flags struct {
	Temporary      bool `json:"temporary,omitempty"`
	ExternalSort   bool `json:"externalSort,omitempty"`
	JoinBuffer     bool `json:"joinBuffer,omitempty"`
	IndexCondition bool `json:"indexCondition,omitempty"`
	FullIndexScan  bool `json:"fullIndexScan,omitempty"`
	PartialKeyUse  bool `json:"partialKeyUse,omitempty"`
	Materialized   bool `json:"materialized,omitempty"`

	PartitionsTotal   int `json:"partitionsTotal,omitempty"`
	PartitionsRemoved int `json:"partitionsRemoved,omitempty"`
	HashBatches       int `json:"hashBatches,omitempty"`
	WorkersPlanned    int `json:"workersPlanned,omitempty"`

	MemoryUsedBytes    int64 `json:"memoryUsedBytes,omitempty"`
	MemoryAllowedBytes int64 `json:"memoryAllowedBytes,omitempty"`
	TempDiskBlocks     int64 `json:"tempDiskBlocks,omitempty"`

	// Set on the root node only.
	PlanningTimeMs float64 `json:"planningTimeMs,omitempty"`
}

// Node is one operator in the normalized plan tree. A single-node tree is a
// valid plan; MySQL single-row EXPLAIN output produces exactly that.
type Node struct {
	Kind             Kind          `json:"kind"`
	SourceType       string        `json:"sourceType,omitempty"`
	Relation         string        `json:"relation,omitempty"`
	Index            string        `json:"index,omitempty"`
	CandidateIndexes []string      `json:"candidateIndexes,omitempty"`
	Correlated       bool          `json:"correlated,omitempty"`
	Aggregate        AggregateMode `json:"aggregate,omitempty"`
	EstimatedRows    int64         `json:"estimatedRows,omitempty"`
	ActualRows       int64         `json:"actualRows,omitempty"`
	ActualLoops      int64         `json:"actualLoops,omitempty"`
	Cost             float64       `json:"cost,omitempty"`
	Flags            Flags         `json:"flags"`
	Children         []*Node       `json:"children,omitempty"`
}
