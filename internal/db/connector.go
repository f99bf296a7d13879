// Package db retrieves execution plans and schema metadata from live
// database sessions. Each Connector owns one session and is not safe for
// concurrent use.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sqlsage/sqlsage/internal/analyzer"
	"github.com/sqlsage/sqlsage/internal/plan"
)

// ErrMetadataUnavailable wraps statistics and index lookup failures. Plan
// analysis still works without metadata, so callers treat this as a
// degradation rather than a failure.
var ErrMetadataUnavailable = errors.New("metadata unavailable")

const DefaultQueryTimeout = 30 * time.Second

// Target identifies the database a query should be analyzed against.
type Target struct {
	Engine plan.Engine
	DSN    string
	// QueryTimeout bounds every round trip to the server. Zero means
	// DefaultQueryTimeout.
	QueryTimeout time.Duration
}

func (t Target) timeout() time.Duration {
	if t.QueryTimeout > 0 {
		return t.QueryTimeout
	}
	return DefaultQueryTimeout
}

// Connector is one open database session.
type Connector interface {
	// ExecutionPlan runs the engine's EXPLAIN over the query and returns
	// the raw plan for normalization.
	ExecutionPlan(ctx context.Context, query string) (plan.Raw, error)

	// TableStatistics returns size estimates for the user tables visible
	// to the session. Failures wrap ErrMetadataUnavailable.
	TableStatistics(ctx context.Context) ([]analyzer.TableStatistic, error)

	// Indexes returns one descriptor per index column for the user tables
	// visible to the session. Failures wrap ErrMetadataUnavailable.
	Indexes(ctx context.Context) ([]analyzer.IndexDescriptor, error)

	Close(ctx context.Context) error
}

// Open connects to the target and verifies the connection is usable.
func Open(ctx context.Context, target Target) (Connector, error) {
	switch target.Engine {
	case plan.MySQL:
		return openMySQL(ctx, target)
	case plan.Postgres:
		return openPostgres(ctx, target)
	default:
		return nil, fmt.Errorf("unknown engine %q", target.Engine)
	}
}
