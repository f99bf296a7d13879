package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/sqlsage/sqlsage/internal/advisor"
	"github.com/sqlsage/sqlsage/internal/analyzer"
	"github.com/sqlsage/sqlsage/internal/plan"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

type textWriter struct {
	w   io.Writer
	err error
}

func (tw *textWriter) printf(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.w, format, args...)
}

func RenderResultText(w io.Writer, result *advisor.Result) error {
	tw := &textWriter{w: w}

	tw.printf("%s%sExecution Plan%s %s(%s)%s\n\n", colorBold, colorCyan, colorReset, colorDim, result.Engine, colorReset)
	tw.renderNode(result.Plan, 0)
	tw.printf("\n")

	if result.Plan.Flags.PlanningTimeMs > 0 {
		tw.printf("  Planning Time: %.3f ms\n\n", result.Plan.Flags.PlanningTimeMs)
	}

	if len(result.TableStatistics) > 0 {
		tw.printf("%s%sTable Statistics%s\n\n", colorBold, colorCyan, colorReset)
		for _, s := range result.TableStatistics {
			tw.printf("  %-24s %10d rows  data %s, indexes %s\n",
				s.Table, s.RowCount, formatBytes(s.DataSizeBytes), formatBytes(s.IndexSizeBytes))
		}
		tw.printf("\n")
	}

	if len(result.Recommendations) == 0 {
		tw.printf("%s%sNo issues found.%s\n", colorBold, colorGreen, colorReset)
		return tw.err
	}

	tw.printf("%s%sRecommendations (%d)%s\n\n", colorBold, colorCyan, len(result.Recommendations), colorReset)

	for i, rec := range result.Recommendations {
		label, color := severityFormat(rec.Severity)
		tw.printf("  %s%-6s%s %s\n", color, label, colorReset, rec.Message)
		tw.printf("  %s→ %s%s\n", colorDim, rec.Suggestion, colorReset)
		for _, step := range rec.Details.Implementation {
			tw.printf("  %s  • %s%s\n", colorDim, step, colorReset)
		}
		if i < len(result.Recommendations)-1 {
			tw.printf("\n")
		}
	}

	return tw.err
}

// renderNode prints one plan node per line, indented by depth, with the
// native operator name dimmed next to the normalized kind.
func (tw *textWriter) renderNode(n *plan.Node, depth int) {
	indent := strings.Repeat("  ", depth+1)

	tw.printf("%s%s%s%s", indent, colorBold, nodeLabel(n), colorReset)
	if n.SourceType != "" {
		tw.printf(" %s[%s]%s", colorDim, n.SourceType, colorReset)
	}
	if metrics := nodeMetrics(n); metrics != "" {
		tw.printf(" (%s)", metrics)
	}
	tw.printf("\n")

	for _, child := range n.Children {
		tw.renderNode(child, depth+1)
	}
}

func nodeLabel(n *plan.Node) string {
	if n.Relation != "" {
		return fmt.Sprintf("%s on %s", n.Kind, n.Relation)
	}
	return n.Kind.String()
}

func nodeMetrics(n *plan.Node) string {
	var parts []string
	if n.ActualRows > 0 {
		parts = append(parts, fmt.Sprintf("rows=%d", n.ActualRows))
	} else if n.EstimatedRows > 0 {
		parts = append(parts, fmt.Sprintf("rows≈%d", n.EstimatedRows))
	}
	if n.Cost > 0 {
		parts = append(parts, fmt.Sprintf("cost=%.2f", n.Cost))
	}
	if n.ActualLoops > 1 {
		parts = append(parts, fmt.Sprintf("loops=%d", n.ActualLoops))
	}
	if n.Index != "" {
		parts = append(parts, "index="+n.Index)
	}
	return strings.Join(parts, " ")
}

func severityFormat(s analyzer.Severity) (string, string) {
	switch s {
	case analyzer.High:
		return "HIGH", colorRed
	case analyzer.Medium:
		return "MEDIUM", colorYellow
	default:
		return "LOW", colorCyan
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
