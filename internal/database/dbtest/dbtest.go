// Package dbtest opens migrated databases for tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Kosench/shortlink/internal/database"
)

var seq atomic.Int64

// NewSQLite returns an isolated in-memory SQLite database with the schema applied.
func NewSQLite(t testing.TB) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb%d?mode=memory&cache=shared", seq.Add(1))
	db, err := database.OpenSQLite(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db, database.DialectSQLite))
	return db
}

// NewPostgres starts a throwaway PostgreSQL container. It skips unless
// SHORTLINK_INTEGRATION is set and -short is off.
func NewPostgres(t testing.TB) *sql.DB {
	t.Helper()

	if testing.Short() || os.Getenv("SHORTLINK_INTEGRATION") == "" {
		t.Skip("set SHORTLINK_INTEGRATION=1 to run PostgreSQL integration tests")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("shortlink"),
		tcpostgres.WithUsername("shortlink"),
		tcpostgres.WithPassword("password"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Connect(dsn, 10)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(ctx, db, database.DialectPostgres))
	return db
}
