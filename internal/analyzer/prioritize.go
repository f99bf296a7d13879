package analyzer

import "sort"

// typePriority is the tie-break order inside a severity band. Types absent
// from the table rank after all listed ones and keep their relative order.
var typePriority = map[Type]int{
	TypeTableScan:             0,
	TypeLargeTableScan:        1,
	TypeInefficientJoin:       2,
	TypeNestedLoopLarge:       3,
	TypeDependentSubquery:     4,
	TypeInefficientGrouping:   5,
	TypeNoPartitionPruning:    6,
	TypeHashSpill:             7,
	TypeHashMemoryExceeded:    8,
	TypeFilesort:              9,
	TypeTemporaryTable:        10,
	TypeTempDiskUsage:         11,
	TypeJoinBuffer:            12,
	TypeUnusedIndex:           13,
	TypeFullIndexScan:         14,
	TypeSubquery:              15,
	TypeMissedMaterialization: 16,
	TypeLooseIndexScan:        17,
	TypeNoParallelWorkers:     18,
	TypePartialIndexUse:       19,
	TypeHighIndexRatio:        20,
}

func typeRank(t Type) int {
	if rank, ok := typePriority[t]; ok {
		return rank
	}
	return len(typePriority)
}

// Prioritize orders recommendations by severity, then by type priority. The
// input is not modified; equal entries keep their original order.
func Prioritize(recs []Recommendation) []Recommendation {
	out := make([]Recommendation, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity < out[j].Severity
		}
		return typeRank(out[i].Type) < typeRank(out[j].Type)
	})
	return out
}
