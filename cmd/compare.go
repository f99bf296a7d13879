/*
Copyright © 2026 THE SQLSAGE AUTHORS
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqlsage/sqlsage/internal/advisor"
	"github.com/sqlsage/sqlsage/internal/comparator"
	"github.com/sqlsage/sqlsage/internal/db"
	"github.com/sqlsage/sqlsage/internal/output"
)

var compareCmd = &cobra.Command{
	Use:   "compare [before] [after]",
	Short: "Compare two runs of a query",
	Long: `Compare two runs of the same query and report what changed: plan shape,
cost, and which findings were fixed, introduced, or persist.

Inputs can be SQL files or JSON files (saved EXPLAIN output), in any mix.
Either input (but not both) can be "-" to read from stdin. If inputs are
omitted, enters interactive mode.

Both runs must come from the same engine. For SQL input, a database
connection is required so the query plan can be retrieved.`,
	Example: `  # Compare saved plans from before and after an index change
  sqlsage compare before.json after.json

  # Compare two SQL variants against a database
  sqlsage compare old.sql new.sql --profile prod

  # Mix input types
  sqlsage compare prod-plan.json new-query.sql --profile dev

  # Read one plan from stdin
  cat before.json | sqlsage compare - after.json`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != "text" && format != "json" {
			return fmt.Errorf("invalid output format %q: must be \"text\" or \"json\"", format)
		}

		var beforeFile, afterFile string
		if len(args) > 0 {
			beforeFile = args[0]
		}
		if len(args) > 1 {
			afterFile = args[1]
		}
		if beforeFile == "-" && afterFile == "-" {
			return fmt.Errorf("only one input can read from stdin")
		}

		adv := advisor.New(newLogger(cmd))

		beforeData, err := readInput(beforeFile, "first ")
		if err != nil {
			return err
		}
		before, err := resolveAnalysis(cmd, adv, beforeData, beforeFile)
		if err != nil {
			return fmt.Errorf("first input: %w", err)
		}

		afterData, err := readInput(afterFile, "second ")
		if err != nil {
			return err
		}
		after, err := resolveAnalysis(cmd, adv, afterData, afterFile)
		if err != nil {
			return fmt.Errorf("second input: %w", err)
		}

		cmp, err := comparator.New().Compare(before, after)
		if err != nil {
			return err
		}

		switch format {
		case "json":
			return output.RenderComparisonJSON(os.Stdout, cmp)
		default:
			return output.RenderComparisonText(os.Stdout, cmp)
		}
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().StringP("db", "d", "", "Database connection string")
	compareCmd.Flags().StringP("engine", "e", "", "Database engine: mysql, postgres (inferred from the DSN when omitted)")
	compareCmd.Flags().StringP("profile", "p", "", "Use named profile from config")
	compareCmd.Flags().StringP("format", "f", "text", "Output format: text, json")
	compareCmd.Flags().Duration("timeout", db.DefaultQueryTimeout, "Per-statement timeout for EXPLAIN and metadata queries")
	compareCmd.MarkFlagsMutuallyExclusive("db", "profile")
}
