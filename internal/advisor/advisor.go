// Package advisor coordinates one analysis: validate the query, fetch the
// execution plan and metadata, normalize, evaluate, prioritize.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/sqlsage/sqlsage/internal/analyzer"
	"github.com/sqlsage/sqlsage/internal/db"
	"github.com/sqlsage/sqlsage/internal/messages"
	"github.com/sqlsage/sqlsage/internal/plan"
)

var (
	// ErrInvalidQuery marks query text that is empty or whitespace.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrUnsupportedQuery marks statements other than SELECT.
	ErrUnsupportedQuery = errors.New("unsupported query")

	// ErrPlanUnavailable wraps connection and EXPLAIN failures. These are
	// fatal: without a plan there is nothing to analyze.
	ErrPlanUnavailable = errors.New("execution plan unavailable")
)

// OpenFunc connects to an analysis target. It matches db.Open.
type OpenFunc func(ctx context.Context, target db.Target) (db.Connector, error)

// Advisor runs analyses. Safe for concurrent use; every Analyze call opens
// its own session.
type Advisor struct {
	open   OpenFunc
	engine *analyzer.Engine
	logger *slog.Logger
}

func New(logger *slog.Logger) *Advisor {
	return NewWithOpener(logger, db.Open)
}

// NewWithOpener is New with the connection step swappable.
func NewWithOpener(logger *slog.Logger, open OpenFunc) *Advisor {
	return &Advisor{
		open:   open,
		engine: analyzer.New(messages.Catalog{}),
		logger: logger,
	}
}

// Result is everything one analysis produced.
type Result struct {
	Query           string                     `json:"query,omitempty"`
	Engine          plan.Engine                `json:"engine"`
	Plan            *plan.Node                 `json:"plan"`
	TableStatistics []analyzer.TableStatistic  `json:"tableStatistics,omitempty"`
	Indexes         []analyzer.IndexDescriptor `json:"indexes,omitempty"`
	Recommendations []analyzer.Recommendation  `json:"recommendations"`
}

// Analyze validates the query, retrieves its execution plan from the target,
// and returns prioritized recommendations. Metadata lookups may fail without
// failing the analysis; the result then carries no statistics or indexes.
func (a *Advisor) Analyze(ctx context.Context, query string, target db.Target) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query text", ErrInvalidQuery)
	}
	if !isSelect(query) {
		return nil, fmt.Errorf("%w: only SELECT statements can be analyzed", ErrUnsupportedQuery)
	}

	conn, err := a.open(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlanUnavailable, err)
	}
	defer func() {
		if err := conn.Close(ctx); err != nil {
			a.logger.Warn("closing connection", "error", err)
		}
	}()

	raw, err := conn.ExecutionPlan(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlanUnavailable, err)
	}

	stats, err := conn.TableStatistics(ctx)
	if err != nil {
		a.logger.Warn("analyzing without table statistics", "error", err)
		stats = nil
	}
	indexes, err := conn.Indexes(ctx)
	if err != nil {
		a.logger.Warn("analyzing without index metadata", "error", err)
		indexes = nil
	}

	root, err := plan.Normalize(raw)
	if err != nil {
		return nil, err
	}
	stats, indexes = scopeToPlan(root, stats, indexes)

	recs := a.engine.Evaluate(root, analyzer.NewContext(target.Engine, stats, indexes))
	return &Result{
		Query:           query,
		Engine:          target.Engine,
		Plan:            root,
		TableStatistics: stats,
		Indexes:         indexes,
		Recommendations: analyzer.Prioritize(recs),
	}, nil
}

// scopeToPlan keeps only metadata for tables the plan touches. The connector
// returns everything the session can see; the rest of the schema is noise
// here.
func scopeToPlan(root *plan.Node, stats []analyzer.TableStatistic, indexes []analyzer.IndexDescriptor) ([]analyzer.TableStatistic, []analyzer.IndexDescriptor) {
	tables := make(map[string]bool)
	var walk func(n *plan.Node)
	walk = func(n *plan.Node) {
		if n.Relation != "" {
			tables[n.Relation] = true
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(root)

	var keptStats []analyzer.TableStatistic
	for _, s := range stats {
		if tables[s.Table] {
			keptStats = append(keptStats, s)
		}
	}
	var keptIndexes []analyzer.IndexDescriptor
	for _, ix := range indexes {
		if tables[ix.Table] {
			keptIndexes = append(keptIndexes, ix)
		}
	}
	return keptStats, keptIndexes
}

// AnalyzeCapture analyzes a plan captured earlier, without a database
// session. No metadata is available, so statistics-backed rules stay silent.
func (a *Advisor) AnalyzeCapture(raw plan.Raw) (*Result, error) {
	root, err := plan.Normalize(raw)
	if err != nil {
		return nil, err
	}

	recs := a.engine.Evaluate(root, analyzer.NewContext(raw.Engine, nil, nil))
	return &Result{
		Engine:          raw.Engine,
		Plan:            root,
		Recommendations: analyzer.Prioritize(recs),
	}, nil
}

// isSelect reports whether the statement starts with the SELECT keyword.
// Anything after the keyword is the engine's problem; EXPLAIN will reject
// malformed SQL with a far better message than we could produce.
func isSelect(query string) bool {
	const kw = "SELECT"
	if len(query) < len(kw) || !strings.EqualFold(query[:len(kw)], kw) {
		return false
	}
	if len(query) == len(kw) {
		return true
	}
	next := rune(query[len(kw)])
	return !unicode.IsLetter(next) && !unicode.IsDigit(next) && next != '_'
}
