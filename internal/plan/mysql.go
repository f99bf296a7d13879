package plan

import (
	"fmt"
	"strings"
)

// ExplainRow mirrors one row of classic MySQL EXPLAIN output. JSON tags match
// the column names so captured output parses unchanged.
type ExplainRow struct {
	ID           int     `json:"id"`
	SelectType   string  `json:"select_type"`
	Table        string  `json:"table"`
	Partitions   string  `json:"partitions"`
	AccessType   string  `json:"type"`
	PossibleKeys string  `json:"possible_keys"`
	Key          string  `json:"key"`
	KeyLen       string  `json:"key_len"`
	Ref          string  `json:"ref"`
	Rows         int64   `json:"rows"`
	Filtered     float64 `json:"filtered"`
	Extra        string  `json:"Extra"`
}

// normalizeMySQL builds a tree from flat EXPLAIN rows. Classic EXPLAIN does
// not encode nesting, so the first row becomes the root and the remaining
// rows its children in row order. A single row yields a single-node tree.
func normalizeMySQL(rows []ExplainRow) (*Node, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: EXPLAIN returned no rows", ErrMalformedPlan)
	}
	root, err := mysqlNode(rows[0])
	if err != nil {
		return nil, err
	}
	// A subquery-typed first row arrives wrapped; trailing rows belong under
	// its access node, not beside it on the wrapper.
	attach := root
	if attach.Kind == Subquery && len(attach.Children) == 1 {
		attach = attach.Children[0]
	}
	for _, row := range rows[1:] {
		child, err := mysqlNode(row)
		if err != nil {
			return nil, err
		}
		attach.Children = append(attach.Children, child)
	}
	return root, nil
}

func mysqlNode(row ExplainRow) (*Node, error) {
	if row.SelectType == "" && row.AccessType == "" {
		return nil, fmt.Errorf("%w: row for table %q carries neither select_type nor type", ErrMalformedPlan, row.Table)
	}

	n := &Node{
		Kind:          mysqlKind(row.AccessType),
		SourceType:    row.AccessType,
		Relation:      row.Table,
		Index:         nullable(row.Key),
		EstimatedRows: row.Rows,
	}

	for _, k := range strings.Split(nullable(row.PossibleKeys), ",") {
		if k = strings.TrimSpace(k); k != "" {
			n.CandidateIndexes = append(n.CandidateIndexes, k)
		}
	}

	extra := strings.ToLower(row.Extra)
	n.Flags.Temporary = strings.Contains(extra, "using temporary")
	n.Flags.ExternalSort = strings.Contains(extra, "using filesort")
	n.Flags.JoinBuffer = strings.Contains(extra, "using join buffer")
	n.Flags.IndexCondition = strings.Contains(extra, "using index condition")
	n.Flags.FullIndexScan = strings.EqualFold(row.AccessType, "index")

	if ref := nullable(row.Ref); n.Index != "" && ref != "" && !constRef(ref) {
		n.Flags.PartialKeyUse = true
	}

	// Classic EXPLAIN lists the partitions the query touches; pruning that
	// already happened is invisible, so PartitionsRemoved stays zero.
	if parts := nullable(row.Partitions); parts != "" {
		n.Flags.PartitionsTotal = len(strings.Split(parts, ","))
	}

	if wrap, correlated, materialized := mysqlSubquery(row.SelectType); wrap {
		return &Node{
			Kind:       Subquery,
			SourceType: row.SelectType,
			Relation:   row.Table,
			Correlated: correlated,
			Flags:      Flags{Materialized: materialized},
			Children:   []*Node{n},
		}, nil
	}
	return n, nil
}

func mysqlKind(accessType string) Kind {
	switch strings.ToLower(accessType) {
	case "all":
		return TableScan
	case "index", "range", "ref", "eq_ref", "const", "system", "fulltext",
		"index_merge", "ref_or_null", "unique_subquery", "index_subquery":
		return IndexScan
	default:
		return Other
	}
}

// mysqlSubquery reports whether a select_type marks the row as a subquery
// and, if so, whether the subquery is correlated or materialized. The row
// itself stays a child of the wrapper so access-path rules still see it.
func mysqlSubquery(selectType string) (wrap, correlated, materialized bool) {
	switch strings.ToUpper(strings.TrimSpace(selectType)) {
	case "DEPENDENT SUBQUERY", "DEPENDENT UNION", "UNCACHEABLE SUBQUERY":
		return true, true, false
	case "SUBQUERY", "DERIVED":
		return true, false, false
	case "MATERIALIZED":
		return true, false, true
	default:
		return false, false, false
	}
}

// constRef reports whether every component of the ref column is the literal
// "const". Anything else means the key was matched against a non-constant.
func constRef(ref string) bool {
	for _, part := range strings.Split(ref, ",") {
		if strings.TrimSpace(part) != "const" {
			return false
		}
	}
	return true
}

// nullable collapses the literal NULL that shows up in captured EXPLAIN
// output to the empty string.
func nullable(col string) string {
	col = strings.TrimSpace(col)
	if strings.EqualFold(col, "NULL") {
		return ""
	}
	return col
}
