package eventstore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pitchside/streaming/internal/infra"
	"github.com/stretchr/testify/require"
)

var (
	pgPool     *pgxpool.Pool
	pgPoolOnce sync.Once
	pgPoolErr  error
)

// postgresTestPool connects once per test binary to the database named by
// TEST_DATABASE_URL and applies migrations. Tests are skipped when the
// variable is unset so the contract suite stays runnable without a database.
func postgresTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pgPoolOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		if pgPoolErr = infra.RunMigrations(dsn, logger); pgPoolErr != nil {
			return
		}
		pgPool, pgPoolErr = pgxpool.New(ctx, dsn)
	})
	require.NoError(t, pgPoolErr)
	return pgPool
}

func TestPostgresStoreContract(t *testing.T) {
	pool := postgresTestPool(t)

	// Contract aggregates carry unique ids, so runs share the database
	// without cleanup between subtests.
	runStoreContract(t, func(t *testing.T) Store {
		return NewPostgresStore(pool)
	})
}
