// Package testutil opens the shared test database for Postgres-backed
// tests. Tests that call it skip unless PLANNER_TEST_DATABASE_URL is set.
package testutil

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tripsync/planner/internal/adapters/postgres"
)

// OpenMigratedPool connects to the test database, applies migrations and
// truncates every table so each test starts from an empty dataset. The pool
// is closed when the test finishes.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := strings.TrimSpace(os.Getenv("PLANNER_TEST_DATABASE_URL"))
	if url == "" {
		t.Skip("PLANNER_TEST_DATABASE_URL not set; skipping postgres-backed tests")
	}

	if err := postgres.Migrate(url); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, url, postgres.PoolOptions{})
	if err != nil {
		t.Fatalf("open test pool: %v", err)
	}
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		TRUNCATE activity_invites, activity_time_options, activities,
		         idempotency_keys, trips, members
		RESTART IDENTITY CASCADE
	`)
	if err != nil {
		t.Fatalf("truncate test database: %v", err)
	}
	return pool
}
