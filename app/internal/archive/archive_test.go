package archive_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/devshark/starkbank/api"
	"github.com/devshark/starkbank/app/internal/archive"
	"github.com/devshark/starkbank/app/internal/repository"
	"github.com/devshark/starkbank/client"
	"github.com/devshark/starkbank/pkg/banktest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memoryRepository struct {
	mu         sync.Mutex
	logs       map[string]*api.TransferLog
	saved      []string
	checkpoint api.Date
	// failAfter makes saves fail once that many logs were saved. Zero disables it.
	failAfter int
	saveErr   error
}

func newMemoryRepository(logs ...*api.TransferLog) *memoryRepository {
	repo := &memoryRepository{logs: map[string]*api.TransferLog{}}
	for _, log := range logs {
		repo.logs[log.ID] = log
	}

	return repo
}

func (r *memoryRepository) SaveTransferLog(_ context.Context, log *api.TransferLog) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failAfter > 0 && len(r.saved) >= r.failAfter {
		return false, r.saveErr
	}

	r.saved = append(r.saved, log.ID)

	if _, ok := r.logs[log.ID]; ok {
		return false, nil
	}

	r.logs[log.ID] = log

	return true, nil
}

func (r *memoryRepository) GetTransferLog(_ context.Context, id string) (*api.TransferLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log, ok := r.logs[id]
	if !ok {
		return nil, repository.ErrLogNotFound
	}

	return log, nil
}

func (r *memoryRepository) LatestCreated(context.Context) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest time.Time
	for _, log := range r.logs {
		if log.Created.After(latest) {
			latest = log.Created.Time
		}
	}

	return latest, nil
}

func (r *memoryRepository) CountTransferLogs(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return int64(len(r.logs)), nil
}

func (r *memoryRepository) Checkpoint(context.Context) (api.Date, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.checkpoint, nil
}

func (r *memoryRepository) SaveCheckpoint(_ context.Context, day api.Date) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if day > r.checkpoint {
		r.checkpoint = day
	}

	return nil
}

func requireArchived(t *testing.T, repo *memoryRepository, logs ...*api.TransferLog) {
	t.Helper()

	for _, log := range logs {
		_, err := repo.GetTransferLog(context.Background(), log.ID)
		require.NoError(t, err, "log %s created %s", log.ID, log.Created)
	}
}

func TestArchiver_Run(t *testing.T) {
	day := time.Date(2020, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("Archives every log once", func(t *testing.T) {
		server := banktest.NewServer()
		defer server.Close()

		server.SeedTransferLogs(150, day)
		repo := newMemoryRepository()
		archiver := archive.NewArchiver(client.NewClient(server.URL).TransferLogs(), repo)

		result, err := archiver.Run(context.Background(), archive.Params{})
		require.NoError(t, err)
		require.Equal(t, archive.Result{Fetched: 150, Archived: 150, Complete: true}, result)
		require.Equal(t, api.DateOf(day), repo.checkpoint)

		result, err = archiver.Run(context.Background(), archive.Params{})
		require.NoError(t, err)
		require.Equal(t, archive.Result{Fetched: 150, Archived: 0, Complete: true}, result)

		count, err := repo.CountTransferLogs(context.Background())
		require.NoError(t, err)
		require.Equal(t, int64(150), count)
	})

	t.Run("Resumes from the checkpoint", func(t *testing.T) {
		server := banktest.NewServer()
		defer server.Close()

		old := server.SeedTransferLogs(3, day.AddDate(0, 0, -5))
		recent := server.SeedTransferLogs(2, day)

		repo := newMemoryRepository(recent[0])
		repo.checkpoint = api.DateOf(day)
		archiver := archive.NewArchiver(client.NewClient(server.URL).TransferLogs(), repo)

		result, err := archiver.Run(context.Background(), archive.Params{After: "2020-01-01"})
		require.NoError(t, err)
		require.Equal(t, archive.Result{Fetched: 2, Archived: 1, Complete: true}, result)
		require.ElementsMatch(t, []string{recent[0].ID, recent[1].ID}, repo.saved)

		_, err = repo.GetTransferLog(context.Background(), old[0].ID)
		require.ErrorIs(t, err, repository.ErrLogNotFound)
	})

	t.Run("Configured day wins when later", func(t *testing.T) {
		server := banktest.NewServer()
		defer server.Close()

		server.SeedTransferLogs(3, day.AddDate(0, 0, -5))
		server.SeedTransferLogs(4, day)

		repo := newMemoryRepository()
		repo.checkpoint = api.DateOf(day.AddDate(0, 0, -5))
		archiver := archive.NewArchiver(client.NewClient(server.URL).TransferLogs(), repo)

		result, err := archiver.Run(context.Background(), archive.Params{After: api.DateOf(day)})
		require.NoError(t, err)
		require.Equal(t, 4, result.Archived)
	})

	t.Run("Limited run keeps older logs for the next run", func(t *testing.T) {
		server := banktest.NewServer()
		defer server.Close()

		old := server.SeedTransferLogs(3, day.AddDate(0, 0, -5))
		recent := server.SeedTransferLogs(2, day)

		repo := newMemoryRepository()
		archiver := archive.NewArchiver(client.NewClient(server.URL).TransferLogs(), repo)

		result, err := archiver.Run(context.Background(), archive.Params{After: "2020-01-01", Limit: api.Limit(2)})
		require.NoError(t, err)
		require.Equal(t, archive.Result{Fetched: 2, Archived: 2, Complete: false}, result)
		require.True(t, repo.checkpoint.IsZero())

		result, err = archiver.Run(context.Background(), archive.Params{After: "2020-01-01"})
		require.NoError(t, err)
		require.Equal(t, archive.Result{Fetched: 5, Archived: 3, Complete: true}, result)

		requireArchived(t, repo, append(old, recent...)...)
		require.Equal(t, api.DateOf(day), repo.checkpoint)
	})

	t.Run("Limit above the listing size completes", func(t *testing.T) {
		server := banktest.NewServer()
		defer server.Close()

		server.SeedTransferLogs(30, day)
		repo := newMemoryRepository()
		archiver := archive.NewArchiver(client.NewClient(server.URL).TransferLogs(), repo)

		result, err := archiver.Run(context.Background(), archive.Params{Limit: api.Limit(100)})
		require.NoError(t, err)
		require.Equal(t, archive.Result{Fetched: 30, Archived: 30, Complete: true}, result)
		require.Equal(t, api.DateOf(day), repo.checkpoint)
	})

	t.Run("Failed run keeps older logs for the next run", func(t *testing.T) {
		server := banktest.NewServer()
		defer server.Close()

		old := server.SeedTransferLogs(100, day.AddDate(0, 0, -1))
		recent := server.SeedTransferLogs(50, day)

		repo := newMemoryRepository()
		repo.failAfter = 60
		repo.saveErr = errors.New("disk full")
		archiver := archive.NewArchiver(client.NewClient(server.URL).TransferLogs(), repo)

		result, err := archiver.Run(context.Background(), archive.Params{})
		require.ErrorIs(t, err, repo.saveErr)
		require.False(t, result.Complete)
		require.Equal(t, 60, result.Archived)
		require.True(t, repo.checkpoint.IsZero())

		repo.failAfter = 0

		result, err = archiver.Run(context.Background(), archive.Params{})
		require.NoError(t, err)
		require.Equal(t, archive.Result{Fetched: 150, Archived: 90, Complete: true}, result)

		requireArchived(t, repo, append(old, recent...)...)
	})

	t.Run("Types", func(t *testing.T) {
		server := banktest.NewServer()
		defer server.Close()

		server.SeedTransferLogs(30, day)
		repo := newMemoryRepository()
		archiver := archive.NewArchiver(client.NewClient(server.URL).TransferLogs(), repo)

		result, err := archiver.Run(context.Background(), archive.Params{Types: []api.TransferLogType{api.TransferLogSuccess}})
		require.NoError(t, err)
		require.Zero(t, result.Fetched)
		require.True(t, result.Complete)

		result, err = archiver.Run(context.Background(), archive.Params{Types: []api.TransferLogType{api.TransferLogProcessing}})
		require.NoError(t, err)
		require.Equal(t, 30, result.Archived)
	})

	t.Run("Invalid configured day", func(t *testing.T) {
		server := banktest.NewServer()
		defer server.Close()

		archiver := archive.NewArchiver(client.NewClient(server.URL).TransferLogs(), newMemoryRepository())

		_, err := archiver.Run(context.Background(), archive.Params{After: "03/10/2020"})
		require.ErrorIs(t, err, api.ErrInvalidDate)
		require.Zero(t, server.ListCalls("transfer/log"))
	})

	t.Run("API failure", func(t *testing.T) {
		server := banktest.NewServer()
		defer server.Close()

		server.SeedTransferLogs(5, day)
		server.FailNext(1, http.StatusInternalServerError, "internalError")

		core, recorded := observer.New(zap.InfoLevel)
		repo := newMemoryRepository()
		archiver := archive.NewArchiver(client.NewClient(server.URL).TransferLogs(), repo).
			WithCustomLogger(zap.New(core))

		_, err := archiver.Run(context.Background(), archive.Params{})
		require.ErrorIs(t, err, api.ErrUnexpected)
		require.Contains(t, err.Error(), "failed to fetch transfer logs")
		require.Equal(t, 1, recorded.FilterMessage("archiving transfer logs").Len())
		require.Zero(t, recorded.FilterMessage("transfer logs archived").Len())
		require.True(t, repo.checkpoint.IsZero())
	})
}
