package repository_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/devshark/starkbank/api"
	"github.com/devshark/starkbank/app/internal/migration"
	"github.com/devshark/starkbank/app/internal/repository"
	testingpkg "github.com/devshark/starkbank/pkg/testing"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("postgres", testingpkg.SetupTestDB(t))
	require.NoError(t, err)
	require.NoError(t, db.Ping())

	t.Cleanup(func() { db.Close() })

	// the migration files are here
	_, err = migration.NewMigrator(db, "../../../migrations").Up(context.Background())
	require.NoError(t, err)

	return db
}

func newLog(id string, created time.Time) *api.TransferLog {
	return &api.TransferLog{
		Resource: api.Resource{ID: id},
		Created:  api.Timestamp{Time: created},
		Type:     api.TransferLogCreated,
		Transfer: api.Transfer{
			Resource:      api.Resource{ID: "t" + id},
			Amount:        1234,
			Name:          "Jon Snow",
			TaxID:         "012.345.678-90",
			BankCode:      "341",
			BranchCode:    "1234",
			AccountNumber: "123456-7",
			Status:        api.TransferCreated,
			Created:       api.Timestamp{Time: created},
		},
	}
}

func TestPostgresRepository_Integration(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewPostgresRepository(db)
	ctx := context.Background()

	latest, err := repo.LatestCreated(ctx)
	require.NoError(t, err)
	require.True(t, latest.IsZero())

	base := time.Date(2020, 3, 10, 10, 30, 0, 0, time.UTC)

	t.Run("Save and read back", func(t *testing.T) {
		log := newLog("1", base)
		log.Errors = []string{"invalid tax id"}

		inserted, err := repo.SaveTransferLog(ctx, log)
		require.NoError(t, err)
		require.True(t, inserted)

		got, err := repo.GetTransferLog(ctx, "1")
		require.NoError(t, err)
		require.Equal(t, log.Errors, got.Errors)
		require.Equal(t, log.Transfer.Name, got.Transfer.Name)
		require.True(t, base.Equal(got.Created.Time))
	})

	t.Run("Saving twice keeps one row", func(t *testing.T) {
		inserted, err := repo.SaveTransferLog(ctx, newLog("1", base))
		require.NoError(t, err)
		require.False(t, inserted)

		count, err := repo.CountTransferLogs(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(1), count)
	})

	t.Run("Concurrent saves", func(t *testing.T) {
		var wg sync.WaitGroup

		for i := range 20 {
			wg.Add(1)

			go func(i int) {
				defer wg.Done()

				_, err := repo.SaveTransferLog(ctx, newLog(string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute)))
				require.NoError(t, err)
			}(i)
		}

		wg.Wait()

		count, err := repo.CountTransferLogs(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(21), count)

		latest, err := repo.LatestCreated(ctx)
		require.NoError(t, err)
		require.True(t, base.Add(19*time.Minute).Equal(latest))
	})

	t.Run("Checkpoint only moves forward", func(t *testing.T) {
		day, err := repo.Checkpoint(ctx)
		require.NoError(t, err)
		require.True(t, day.IsZero())

		require.NoError(t, repo.SaveCheckpoint(ctx, "2020-03-10"))
		require.NoError(t, repo.SaveCheckpoint(ctx, "2020-03-01"))

		day, err = repo.Checkpoint(ctx)
		require.NoError(t, err)
		require.Equal(t, api.Date("2020-03-10"), day)
	})

	t.Run("Unknown id", func(t *testing.T) {
		_, err := repo.GetTransferLog(ctx, "missing")
		require.ErrorIs(t, err, repository.ErrLogNotFound)
	})
}
