package analyzer

import "encoding/json"

// Severity orders recommendations for the prioritizer; lower sorts first.
type Severity int

const (
	High   Severity = 0
	Medium Severity = 1
	Low    Severity = 2
)

func (s Severity) String() string {
	switch s {
	case High:
		return "HIGH"
	case Medium:
		return "MEDIUM"
	case Low:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Type identifies what a recommendation is about. The set is fixed;
// renderers key their wording off it.
type Type string

const (
	TypeTableScan             Type = "TABLE_SCAN"
	TypeLargeTableScan        Type = "LARGE_TABLE_SCAN"
	TypeFullIndexScan         Type = "FULL_INDEX_SCAN"
	TypeUnusedIndex           Type = "UNUSED_INDEX"
	TypePartialIndexUse       Type = "PARTIAL_INDEX_USE"
	TypeHighIndexRatio        Type = "HIGH_INDEX_RATIO"
	TypeInefficientJoin       Type = "INEFFICIENT_JOIN"
	TypeNestedLoopLarge       Type = "NESTED_LOOP_LARGE"
	TypeJoinBuffer            Type = "JOIN_BUFFER"
	TypeHashSpill             Type = "HASH_SPILL"
	TypeHashMemoryExceeded    Type = "HASH_MEMORY_EXCEEDED"
	TypeTemporaryTable        Type = "TEMPORARY_TABLE"
	TypeTempDiskUsage         Type = "TEMP_DISK_USAGE"
	TypeFilesort              Type = "FILESORT"
	TypeInefficientGrouping   Type = "INEFFICIENT_GROUPING"
	TypeLooseIndexScan        Type = "LOOSE_INDEX_SCAN"
	TypeDependentSubquery     Type = "DEPENDENT_SUBQUERY"
	TypeSubquery              Type = "SUBQUERY"
	TypeNoPartitionPruning    Type = "NO_PARTITION_PRUNING"
	TypeNoParallelWorkers     Type = "NO_PARALLEL_WORKERS"
	TypeMissedMaterialization Type = "MISSED_MATERIALIZATION"
	TypeSlowPlanning          Type = "SLOW_PLANNING"
	TypeEstimateMismatch      Type = "ESTIMATE_MISMATCH"
)

// Params are the facts a rule extracted for the renderer. Values are the
// rule's business; keys are part of the renderer contract.
type Params map[string]any

func (p Params) Str(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

func (p Params) Int(key string) int64 {
	switch v := p[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

func (p Params) Float(key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func (p Params) Strs(key string) []string {
	if v, ok := p[key].([]string); ok {
		return v
	}
	return nil
}

func (p Params) Bool(key string) bool {
	v, _ := p[key].(bool)
	return v
}

// Details hold the longer-form advice attached to a recommendation.
type Details struct {
	Impact         string   `json:"impact,omitempty"`
	Implementation []string `json:"implementation,omitempty"`
}

// Recommendation is one prioritizable piece of advice. Instances are never
// mutated after the engine builds them; identity is list position only.
type Recommendation struct {
	Type       Type     `json:"type"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Details    Details  `json:"details"`
}

// Text is a rendered finding. Renderer implementations own all wording;
// rules only choose types, severities, and parameters.
type Text struct {
	Message    string
	Suggestion string
	Details    Details
}

type Renderer interface {
	Render(t Type, params Params) Text
}
