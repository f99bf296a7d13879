package plan

import (
	"errors"
	"fmt"
)

// ErrMalformedPlan reports engine output that cannot be recognized as an
// execution plan.
var ErrMalformedPlan = errors.New("malformed plan")

// Raw is the untranslated plan handed over by a connector: flat EXPLAIN rows
// for MySQL, the EXPLAIN (FORMAT JSON) document for PostgreSQL.
type Raw struct {
	Engine Engine
	Rows   []ExplainRow
	JSON   []byte
}

// Normalize translates engine output into the neutral plan tree. It is a pure
// transformation: no I/O, and raw is never mutated.
func Normalize(raw Raw) (*Node, error) {
	switch raw.Engine {
	case MySQL:
		return normalizeMySQL(raw.Rows)
	case Postgres:
		return normalizePostgres(raw.JSON)
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrMalformedPlan, raw.Engine)
	}
}
