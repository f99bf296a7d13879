package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sqlsage/sqlsage/internal/advisor"
	"github.com/sqlsage/sqlsage/internal/db"
)

// Server metadata
const serverName = "sqlsage"

// Tool descriptions
const (
	descAnalyzeQuery = "Analyze a SELECT query against the configured database and return optimization " +
		"recommendations as JSON. Each recommendation has a type, a severity (HIGH, MEDIUM, LOW), " +
		"a message, a suggestion, and implementation steps, ordered most important first. " +
		"The result also includes the normalized plan tree and statistics for the tables the plan touches. " +
		"Use this to find full table scans, missing or unused indexes, spilling sorts and joins, " +
		"and row estimate problems. On PostgreSQL the query IS executed (EXPLAIN ANALYZE) to collect " +
		"actual row counts; on MySQL plain EXPLAIN is used and nothing runs."

	descAnalyzeQuerySQL = "The SELECT query to analyze (without the EXPLAIN keyword)"

	descExplainQuery = "Show the normalized execution plan for a SELECT query without recommendations. " +
		"Returns the plan tree as JSON: engine-neutral node kinds (TABLE_SCAN, INDEX_SCAN, HASH_JOIN, ...), " +
		"the native operator name, relations, chosen indexes, row estimates and actuals, and costs. " +
		"Use this to inspect how the database executes a query before asking for recommendations. " +
		"On PostgreSQL the query IS executed (EXPLAIN ANALYZE); on MySQL plain EXPLAIN is used."

	descExplainQuerySQL = "The SELECT query to explain (without the EXPLAIN keyword)"
)

func RegisterTools(s *server.MCPServer, adv *advisor.Advisor, target db.Target) {
	s.AddTool(
		mcp.NewTool("analyze_query",
			mcp.WithDescription(descAnalyzeQuery),
			mcp.WithString("sql",
				mcp.Required(),
				mcp.Description(descAnalyzeQuerySQL),
			),
		),
		analyzeQueryHandler(adv, target),
	)

	s.AddTool(
		mcp.NewTool("explain_query",
			mcp.WithDescription(descExplainQuery),
			mcp.WithString("sql",
				mcp.Required(),
				mcp.Description(descExplainQuerySQL),
			),
		),
		explainQueryHandler(adv, target),
	)
}

func analyzeQueryHandler(adv *advisor.Advisor, target db.Target) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, ok := request.GetArguments()["sql"].(string)
		if !ok || sql == "" {
			return mcp.NewToolResultError("sql is required"), nil
		}

		result, err := adv.Analyze(ctx, sql, target)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
		}

		data, err := json.Marshal(result)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}

func explainQueryHandler(adv *advisor.Advisor, target db.Target) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, ok := request.GetArguments()["sql"].(string)
		if !ok || sql == "" {
			return mcp.NewToolResultError("sql is required"), nil
		}

		result, err := adv.Analyze(ctx, sql, target)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("explain failed: %v", err)), nil
		}

		data, err := json.Marshal(result.Plan)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcp.NewToolResultText(string(data)), nil
	}
}
