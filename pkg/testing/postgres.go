package testing

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:16-alpine"
	dbName        = "archive"
	dbUser        = "archiver"
	dbPassword    = "archiver"
)

// SetupTestDB starts a disposable postgres container and returns its connection string.
// The container is terminated when the test finishes.
func SetupTestDB(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping test in short mode, as it requires a database")
	}

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		postgresImage,
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres: %s", err)
	}

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(postgresContainer); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	return postgresContainer.MustConnectionString(ctx, "sslmode=disable")
}
