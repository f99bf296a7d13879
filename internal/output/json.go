package output

import (
	"encoding/json"
	"io"

	"github.com/sqlsage/sqlsage/internal/advisor"
	"github.com/sqlsage/sqlsage/internal/comparator"
)

// RenderResultJSON writes the full analysis, plan tree included, as indented
// JSON for piping into other tools.
func RenderResultJSON(w io.Writer, result *advisor.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// RenderComparisonJSON writes the full comparison as indented JSON.
func RenderComparisonJSON(w io.Writer, cmp *comparator.Comparison) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cmp)
}
