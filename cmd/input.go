/*
Copyright © 2026 THE SQLSAGE AUTHORS
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sqlsage/sqlsage/internal/advisor"
	"github.com/sqlsage/sqlsage/internal/db"
	"github.com/sqlsage/sqlsage/internal/plan"
	"github.com/sqlsage/sqlsage/internal/profile"
)

type inputType int

const (
	inputUnknown inputType = iota
	inputJSON
	inputSQL
	inputText
)

// readInput loads one input argument: a file path, "-" for stdin, or empty
// for interactive paste. The label distinguishes prompts when a command
// reads more than one input.
func readInput(input, label string) ([]byte, error) {
	switch input {
	case "":
		return readInteractive(label)
	case "-":
		return io.ReadAll(os.Stdin)
	default:
		return os.ReadFile(input)
	}
}

func readInteractive(label string) ([]byte, error) {
	fmt.Printf("Paste %sEXPLAIN JSON output or a SELECT query", label)
	if runtime.GOOS == "windows" {
		fmt.Print(" (Ctrl+Z, Enter to submit)\n")
	} else {
		fmt.Print(" (Ctrl+D to submit)\n")
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(data))

	if (strings.HasPrefix(trimmed, "[") ||
		strings.HasPrefix(trimmed, "{")) &&
		!json.Valid(data) {
		return nil, fmt.Errorf("input appears truncated; for large inputs pass a file argument")
	}

	return data, nil
}

// detectType classifies input by file extension first, content second.
func detectType(data []byte, filename string) inputType {
	switch {
	case strings.HasSuffix(filename, ".json"):
		return inputJSON
	case strings.HasSuffix(filename, ".sql"):
		return inputSQL
	case strings.HasSuffix(filename, ".txt"):
		return inputText
	}

	trimmed := strings.TrimSpace(string(data))

	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		return inputJSON
	}

	// Text-format EXPLAIN: cost annotations from PostgreSQL, ASCII table
	// borders from the mysql client.
	if strings.Contains(trimmed, "(cost=") || strings.HasPrefix(trimmed, "+-") {
		return inputText
	}

	upper := strings.ToUpper(trimmed)
	for _, kw := range []string{"SELECT", "WITH", "INSERT", "UPDATE", "DELETE", "EXPLAIN"} {
		if strings.HasPrefix(upper, kw) {
			return inputSQL
		}
	}

	return inputUnknown
}

// resolveAnalysis turns one input into an analysis: saved EXPLAIN JSON is
// parsed offline, SQL runs against the target configured by the command's
// connection flags.
func resolveAnalysis(cmd *cobra.Command, adv *advisor.Advisor, data []byte, filename string) (*advisor.Result, error) {
	switch detectType(data, filename) {
	case inputJSON:
		raw, err := plan.ParseCapture(data)
		if err != nil {
			return nil, err
		}
		return adv.AnalyzeCapture(raw)
	case inputSQL:
		query := strings.TrimSpace(string(data))
		if strings.HasPrefix(strings.ToUpper(query), "EXPLAIN") {
			return nil, fmt.Errorf("input should not include EXPLAIN prefix - provide the raw query only")
		}

		dsn, _ := cmd.Flags().GetString("db")
		engineName, _ := cmd.Flags().GetString("engine")
		profileName, _ := cmd.Flags().GetString("profile")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		selected, err := profile.ResolveTarget(dsn, engineName, profileName)
		if err != nil {
			return nil, err
		}
		if selected.DSN == "" {
			return nil, fmt.Errorf("SQL input requires a database connection: pass --db, --profile, or set a default profile")
		}

		return adv.Analyze(cmd.Context(), query, db.Target{
			Engine:       selected.Engine,
			DSN:          selected.DSN,
			QueryTimeout: timeout,
		})
	case inputText:
		return nil, fmt.Errorf(`text input not supported - provide JSON:

  postgres: EXPLAIN (ANALYZE, VERBOSE, BUFFERS, FORMAT JSON) <query>
  mysql:    EXPLAIN output saved as JSON rows

or pass the query itself and let sqlsage run EXPLAIN for you.`)
	default:
		return nil, fmt.Errorf("unable to detect input type: expected EXPLAIN JSON, SQL query, or .json/.sql file")
	}
}
