package testutil

import (
	"context"
	"testing"
	"time"

	"arenaserver/database"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDatabase wraps a migrated throwaway Postgres instance
type TestDatabase struct {
	DB        *database.DB
	container *postgres.PostgresContainer
}

// SetupTestDatabase starts a Postgres container, runs migrations and returns
// a connected DB. Cleanup is registered on the test.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("arena_test"),
		postgres.WithUsername("arena"),
		postgres.WithPassword("arena"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := database.RunMigrationsWithURL(connString); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db, err := database.NewConnection(ctx, connString)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	return &TestDatabase{DB: db, container: container}
}
