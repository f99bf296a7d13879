package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/sqlsage/sqlsage/internal/analyzer"
	"github.com/sqlsage/sqlsage/internal/comparator"
)

// RenderComparisonText writes a before/after plan diff. Layout follows
// RenderResultText so analyze and compare read the same way.
func RenderComparisonText(w io.Writer, cmp *comparator.Comparison) error {
	tw := &textWriter{w: w}

	tw.printf("%s%sPlan Comparison%s %s(%s)%s\n\n", colorBold, colorCyan, colorReset, colorDim, cmp.Engine, colorReset)

	s := cmp.Summary
	tw.printf("  Verdict: %s%s%s\n", verdictColor(s.Verdict), s.Verdict, colorReset)
	tw.printf("  Cost: %.2f → %.2f (%+.1f%%, %s)\n", s.BeforeCost, s.AfterCost, s.CostPct, s.CostDir)
	if s.BeforePlanningMs > 0 || s.AfterPlanningMs > 0 {
		tw.printf("  Planning: %.3f ms → %.3f ms\n", s.BeforePlanningMs, s.AfterPlanningMs)
	}
	tw.printf("  Nodes: %d added, %d removed, %d modified, %d kind changes\n\n",
		s.NodesAdded, s.NodesRemoved, s.NodesModified, s.NodesKindChanged)

	tw.printf("%s%sPlan Changes%s\n\n", colorBold, colorCyan, colorReset)
	for i := range cmp.Deltas {
		tw.renderDelta(&cmp.Deltas[i], 0)
	}
	tw.printf("\n")

	if len(cmp.Fixed) == 0 && len(cmp.Introduced) == 0 && len(cmp.Persisting) == 0 {
		tw.printf("%s%sNo issues in either run.%s\n", colorBold, colorGreen, colorReset)
		return tw.err
	}

	tw.renderRecommendationList("Fixed", colorGreen, cmp.Fixed)
	tw.renderRecommendationList("Introduced", colorRed, cmp.Introduced)
	tw.renderRecommendationList("Persisting", colorYellow, cmp.Persisting)

	return tw.err
}

func (tw *textWriter) renderDelta(d *comparator.NodeDelta, depth int) {
	indent := strings.Repeat("  ", depth+1)
	marker, color := changeFormat(d.Change)

	tw.printf("%s%s%s%s %s%s%s", indent, color, marker, colorReset, colorBold, deltaLabel(d), colorReset)
	if metrics := deltaMetrics(d); metrics != "" {
		tw.printf(" (%s)", metrics)
	}
	tw.printf("\n")

	for i := range d.Children {
		tw.renderDelta(&d.Children[i], depth+1)
	}
}

func (tw *textWriter) renderRecommendationList(title, color string, recs []analyzer.Recommendation) {
	if len(recs) == 0 {
		return
	}

	tw.printf("%s%s%s (%d)%s\n\n", colorBold, color, title, len(recs), colorReset)
	for _, rec := range recs {
		label, sevColor := severityFormat(rec.Severity)
		tw.printf("  %s%-6s%s %s\n", sevColor, label, colorReset, rec.Message)
	}
	tw.printf("\n")
}

func deltaLabel(d *comparator.NodeDelta) string {
	name := d.Kind.String()
	if d.Change == comparator.KindChanged {
		name = fmt.Sprintf("%s → %s", d.BeforeKind, d.AfterKind)
	}
	if d.Relation != "" {
		return fmt.Sprintf("%s on %s", name, d.Relation)
	}
	return name
}

func deltaMetrics(d *comparator.NodeDelta) string {
	var parts []string

	switch d.Change {
	case comparator.Added:
		if d.AfterCost > 0 {
			parts = append(parts, fmt.Sprintf("cost=%.2f", d.AfterCost))
		}
		if d.AfterRows > 0 {
			parts = append(parts, fmt.Sprintf("rows=%d", d.AfterRows))
		}
	case comparator.Removed:
		if d.BeforeCost > 0 {
			parts = append(parts, fmt.Sprintf("cost=%.2f", d.BeforeCost))
		}
		if d.BeforeRows > 0 {
			parts = append(parts, fmt.Sprintf("rows=%d", d.BeforeRows))
		}
	default:
		if d.BeforeCost != d.AfterCost {
			parts = append(parts, fmt.Sprintf("cost %.2f → %.2f", d.BeforeCost, d.AfterCost))
		}
		if d.BeforeRows != d.AfterRows {
			parts = append(parts, fmt.Sprintf("rows %d → %d", d.BeforeRows, d.AfterRows))
		}
		if d.BeforeIndex != d.AfterIndex {
			parts = append(parts, indexChange(d.BeforeIndex, d.AfterIndex))
		}
		if !d.BeforeSpill && d.AfterSpill {
			parts = append(parts, "now spills to disk")
		}
		if d.BeforeSpill && !d.AfterSpill {
			parts = append(parts, "no longer spills")
		}
	}

	return strings.Join(parts, ", ")
}

func indexChange(before, after string) string {
	switch {
	case before == "":
		return "now uses index " + after
	case after == "":
		return "index " + before + " no longer used"
	default:
		return fmt.Sprintf("index %s → %s", before, after)
	}
}

func changeFormat(c comparator.ChangeType) (string, string) {
	switch c {
	case comparator.Added:
		return "+", colorGreen
	case comparator.Removed:
		return "-", colorRed
	case comparator.Modified, comparator.KindChanged:
		return "~", colorYellow
	default:
		return "=", colorDim
	}
}

func verdictColor(verdict string) string {
	switch verdict {
	case "improved":
		return colorGreen
	case "regressed":
		return colorRed
	case "mixed results":
		return colorYellow
	default:
		return colorDim
	}
}
