package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/sqlsage/sqlsage/internal/analyzer"
	"github.com/sqlsage/sqlsage/internal/plan"
)

const mysqlTableStatsQuery = `
SELECT TABLE_NAME, TABLE_ROWS, DATA_LENGTH, INDEX_LENGTH
FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_NAME`

const mysqlIndexesQuery = `
SELECT TABLE_NAME, INDEX_NAME, COLUMN_NAME, NON_UNIQUE
FROM INFORMATION_SCHEMA.STATISTICS
WHERE TABLE_SCHEMA = DATABASE()
ORDER BY TABLE_NAME, INDEX_NAME, SEQ_IN_INDEX`

type mysqlConnector struct {
	db      *sql.DB
	timeout time.Duration
}

func openMySQL(ctx context.Context, target Target) (*mysqlConnector, error) {
	// Parse up front so a bad DSN fails here instead of on first query.
	if _, err := mysqldriver.ParseDSN(target.DSN); err != nil {
		return nil, fmt.Errorf("parsing mysql DSN: %w", err)
	}

	pool, err := sql.Open("mysql", target.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening mysql connection: %w", err)
	}

	// One analysis session needs one connection.
	pool.SetMaxOpenConns(1)
	pool.SetMaxIdleConns(1)
	pool.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, target.timeout())
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to mysql: %w", err)
	}

	return &mysqlConnector{db: pool, timeout: target.timeout()}, nil
}

func (c *mysqlConnector) ExecutionPlan(ctx context.Context, query string) (plan.Raw, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, "EXPLAIN "+query)
	if err != nil {
		return plan.Raw{}, fmt.Errorf("running EXPLAIN: %w", err)
	}
	defer rows.Close()

	explained, err := scanExplainRows(rows)
	if err != nil {
		return plan.Raw{}, fmt.Errorf("reading EXPLAIN output: %w", err)
	}
	return plan.Raw{Engine: plan.MySQL, Rows: explained}, nil
}

// scanExplainRows maps EXPLAIN output by column name. The column set varies
// across server versions (5.x has no partitions or filtered), so positional
// scanning would misread older servers.
func scanExplainRows(rows *sql.Rows) ([]plan.ExplainRow, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []plan.ExplainRow
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		var row plan.ExplainRow
		for i, col := range cols {
			setExplainColumn(&row, col, values[i].String)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func setExplainColumn(row *plan.ExplainRow, column, value string) {
	switch strings.ToLower(column) {
	case "id":
		row.ID, _ = strconv.Atoi(value)
	case "select_type":
		row.SelectType = value
	case "table":
		row.Table = value
	case "partitions":
		row.Partitions = value
	case "type":
		row.AccessType = value
	case "possible_keys":
		row.PossibleKeys = value
	case "key":
		row.Key = value
	case "key_len":
		row.KeyLen = value
	case "ref":
		row.Ref = value
	case "rows":
		row.Rows, _ = strconv.ParseInt(value, 10, 64)
	case "filtered":
		row.Filtered, _ = strconv.ParseFloat(value, 64)
	case "extra":
		row.Extra = value
	}
}

func (c *mysqlConnector) TableStatistics(ctx context.Context) ([]analyzer.TableStatistic, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, mysqlTableStatsQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: querying table statistics: %w", ErrMetadataUnavailable, err)
	}
	defer rows.Close()

	var stats []analyzer.TableStatistic
	for rows.Next() {
		var (
			name                      string
			rowCount, dataLen, idxLen sql.NullInt64
		)
		if err := rows.Scan(&name, &rowCount, &dataLen, &idxLen); err != nil {
			return nil, fmt.Errorf("%w: scanning table statistics: %w", ErrMetadataUnavailable, err)
		}
		stats = append(stats, analyzer.TableStatistic{
			Table:          name,
			RowCount:       rowCount.Int64,
			DataSizeBytes:  dataLen.Int64,
			IndexSizeBytes: idxLen.Int64,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading table statistics: %w", ErrMetadataUnavailable, err)
	}
	return stats, nil
}

func (c *mysqlConnector) Indexes(ctx context.Context) ([]analyzer.IndexDescriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, mysqlIndexesQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: querying indexes: %w", ErrMetadataUnavailable, err)
	}
	defer rows.Close()

	var indexes []analyzer.IndexDescriptor
	for rows.Next() {
		var (
			desc      analyzer.IndexDescriptor
			nonUnique int
		)
		if err := rows.Scan(&desc.Table, &desc.Name, &desc.Column, &nonUnique); err != nil {
			return nil, fmt.Errorf("%w: scanning indexes: %w", ErrMetadataUnavailable, err)
		}
		desc.Unique = nonUnique == 0
		indexes = append(indexes, desc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading indexes: %w", ErrMetadataUnavailable, err)
	}
	return indexes, nil
}

func (c *mysqlConnector) Close(context.Context) error {
	return c.db.Close()
}
