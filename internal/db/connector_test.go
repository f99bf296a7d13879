package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlsage/sqlsage/internal/plan"
)

func TestTargetTimeout(t *testing.T) {
	assert.Equal(t, DefaultQueryTimeout, Target{}.timeout())
	assert.Equal(t, 5*time.Second, Target{QueryTimeout: 5 * time.Second}.timeout())
}

func TestOpen_UnknownEngine(t *testing.T) {
	_, err := Open(context.Background(), Target{Engine: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestOpen_MySQLBadDSN(t *testing.T) {
	// ParseDSN rejects this before any network I/O happens.
	_, err := Open(context.Background(), Target{Engine: plan.MySQL, DSN: "not a dsn"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN")
}
