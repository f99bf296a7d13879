package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sqlsage/sqlsage/internal/analyzer"
	"github.com/sqlsage/sqlsage/internal/plan"
)

const pgExplainPrefix = "EXPLAIN (ANALYZE, VERBOSE, BUFFERS, FORMAT JSON) "

// reltuples is -1 on tables that were never analyzed; GREATEST clamps that
// to zero so it does not read as a row count.
const pgTableStatsQuery = `
SELECT c.relname,
       GREATEST(c.reltuples, 0)::bigint,
       COALESCE(pg_relation_size(c.oid), 0),
       COALESCE(pg_indexes_size(c.oid), 0)
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE c.relkind IN ('r', 'p')
  AND n.nspname NOT IN ('pg_catalog', 'information_schema')
  AND n.nspname NOT LIKE 'pg_toast%'
ORDER BY c.relname`

// One row per index column, in column order within each index.
const pgIndexesQuery = `
SELECT t.relname, i.relname, a.attname, ix.indisunique
FROM pg_index ix
JOIN pg_class t ON t.oid = ix.indrelid
JOIN pg_class i ON i.oid = ix.indexrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
WHERE n.nspname NOT IN ('pg_catalog', 'information_schema')
  AND n.nspname NOT LIKE 'pg_toast%'
ORDER BY t.relname, i.relname, a.attnum`

type postgresConnector struct {
	conn    *pgx.Conn
	timeout time.Duration
}

func openPostgres(ctx context.Context, target Target) (*postgresConnector, error) {
	connCtx, cancel := context.WithTimeout(ctx, target.timeout())
	defer cancel()

	conn, err := pgx.Connect(connCtx, target.DSN)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return &postgresConnector{conn: conn, timeout: target.timeout()}, nil
}

// ExecutionPlan runs EXPLAIN ANALYZE inside a transaction that is always
// rolled back. ANALYZE executes the statement, so the rollback keeps the
// session free of side effects even if the query calls volatile functions.
func (c *postgresConnector) ExecutionPlan(ctx context.Context, query string) (plan.Raw, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return plan.Raw{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var explained string
	if err := tx.QueryRow(ctx, pgExplainPrefix+query).Scan(&explained); err != nil {
		return plan.Raw{}, fmt.Errorf("running EXPLAIN: %w", err)
	}
	return plan.Raw{Engine: plan.Postgres, JSON: []byte(explained)}, nil
}

func (c *postgresConnector) TableStatistics(ctx context.Context) ([]analyzer.TableStatistic, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rows, err := c.conn.Query(ctx, pgTableStatsQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: querying table statistics: %w", ErrMetadataUnavailable, err)
	}
	defer rows.Close()

	var stats []analyzer.TableStatistic
	for rows.Next() {
		var stat analyzer.TableStatistic
		if err := rows.Scan(&stat.Table, &stat.RowCount, &stat.DataSizeBytes, &stat.IndexSizeBytes); err != nil {
			return nil, fmt.Errorf("%w: scanning table statistics: %w", ErrMetadataUnavailable, err)
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading table statistics: %w", ErrMetadataUnavailable, err)
	}
	return stats, nil
}

func (c *postgresConnector) Indexes(ctx context.Context) ([]analyzer.IndexDescriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rows, err := c.conn.Query(ctx, pgIndexesQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: querying indexes: %w", ErrMetadataUnavailable, err)
	}
	defer rows.Close()

	var indexes []analyzer.IndexDescriptor
	for rows.Next() {
		var desc analyzer.IndexDescriptor
		if err := rows.Scan(&desc.Table, &desc.Name, &desc.Column, &desc.Unique); err != nil {
			return nil, fmt.Errorf("%w: scanning indexes: %w", ErrMetadataUnavailable, err)
		}
		indexes = append(indexes, desc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading indexes: %w", ErrMetadataUnavailable, err)
	}
	return indexes, nil
}

func (c *postgresConnector) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}
