package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/fieldcrew/crew-tracker-api/internal/adapters/postgres"
	"github.com/fieldcrew/crew-tracker-api/internal/adapters/postgres/migrate"
	"github.com/fieldcrew/crew-tracker-api/internal/platform/logging"
)

// EnvDatabaseURL names the variable that enables Postgres-backed tests.
const EnvDatabaseURL = "TEST_DATABASE_URL"

// OpenMigratedPool connects to TEST_DATABASE_URL, applies migrations and
// truncates every table. The test is skipped when the variable is unset.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv(EnvDatabaseURL)
	if dsn == "" {
		t.Skipf("%s not set; skipping postgres integration test", EnvDatabaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	runner, err := migrate.New(dsn, logging.Discard())
	if err != nil {
		t.Fatalf("migrate.New: %v", err)
	}
	if err := runner.Up(ctx); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolOptions{MaxConns: 4})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, `TRUNCATE crew_locations, crew_members, idempotency_keys`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}
