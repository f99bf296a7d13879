package plan

import (
	"encoding/json"
	"fmt"
)

// pgSignature is the minimal shape that identifies EXPLAIN (FORMAT JSON)
// output: a top-level "Plan" key.
type pgSignature struct {
	Plan json.RawMessage `json:"Plan"`
}

// ParseCapture identifies saved EXPLAIN output and wraps it as a Raw plan.
// It accepts EXPLAIN (FORMAT JSON) documents from PostgreSQL (the native
// one-element array or a bare object) and arrays of classic MySQL EXPLAIN
// rows. The PostgreSQL shape is probed first because its array form also
// decodes into explain rows, just with every field zero.
func ParseCapture(data []byte) (Raw, error) {
	if isPostgresCapture(data) {
		return Raw{Engine: Postgres, JSON: data}, nil
	}

	var rows []ExplainRow
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) > 0 &&
		(rows[0].SelectType != "" || rows[0].AccessType != "") {
		return Raw{Engine: MySQL, Rows: rows}, nil
	}

	return Raw{}, fmt.Errorf("%w: input is neither EXPLAIN (FORMAT JSON) output nor classic EXPLAIN rows", ErrMalformedPlan)
}

func isPostgresCapture(data []byte) bool {
	var list []pgSignature
	if err := json.Unmarshal(data, &list); err == nil {
		return len(list) > 0 && list[0].Plan != nil
	}
	var single pgSignature
	return json.Unmarshal(data, &single) == nil && single.Plan != nil
}
