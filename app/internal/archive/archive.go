package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devshark/starkbank/api"
	"github.com/devshark/starkbank/app/internal/repository"
	"github.com/devshark/starkbank/client"
	"go.uber.org/zap"
)

// Source lists transfer logs. *client.TransferLogClient satisfies it.
type Source interface {
	Query(query api.TransferLogQuery) (*client.Iterator[api.TransferLog], error)
}

// Params bound a single archive run.
type Params struct {
	// After is the earliest day to archive. The checkpoint wins when it is later.
	After api.Date
	// Limit caps the logs fetched. A run that reaches it does not move the checkpoint.
	Limit *int
	Types []api.TransferLogType
}

// Result reports what a run fetched and how many of those logs were new to the archive.
type Result struct {
	Fetched  int
	Archived int
	// Complete is true when the listing was exhausted and the checkpoint could advance.
	Complete bool
}

// Archiver mirrors transfer logs from the API into a LogRepository.
type Archiver struct {
	source Source
	repo   repository.LogRepository
	logger *zap.Logger
}

// NewArchiver returns an Archiver reading from source and writing to repo.
func NewArchiver(source Source, repo repository.LogRepository) *Archiver {
	return &Archiver{
		source: source,
		repo:   repo,
		logger: zap.NewNop(),
	}
}

// WithCustomLogger replaces the default no-op logger.
func (a *Archiver) WithCustomLogger(logger *zap.Logger) *Archiver {
	a.logger = logger
	return a
}

// Run copies transfer logs created on or after the start day into the repository.
// The API lists newest first, so the checkpoint only advances, to the day of the
// newest log seen, once the whole listing has been archived. Logs of that day are
// fetched again by the next run and skipped by the repository.
func (a *Archiver) Run(ctx context.Context, params Params) (Result, error) {
	var result Result

	after, err := a.startDay(ctx, params.After)
	if err != nil {
		return result, err
	}

	it, err := a.source.Query(api.TransferLogQuery{
		ListParams: api.ListParams{Limit: params.Limit, After: after},
		Types:      params.Types,
	})
	if err != nil {
		return result, fmt.Errorf("failed to query transfer logs: %w", err)
	}

	a.logger.Info("archiving transfer logs", zap.String("after", string(after)))

	var newest time.Time

	for {
		log, err := it.Next(ctx)
		if errors.Is(err, client.ErrIteratorDone) {
			break
		}

		if err != nil {
			return result, fmt.Errorf("failed to fetch transfer logs: %w", err)
		}

		result.Fetched++

		inserted, err := a.repo.SaveTransferLog(ctx, log)
		if err != nil {
			return result, err
		}

		if inserted {
			result.Archived++
		}

		if log.Created.After(newest) {
			newest = log.Created.Time
		}
	}

	if params.Limit != nil && result.Fetched >= *params.Limit {
		a.logger.Info("transfer log limit reached, checkpoint kept",
			zap.Int("fetched", result.Fetched),
			zap.Int("archived", result.Archived),
		)

		return result, nil
	}

	resume := string(after)
	if !newest.IsZero() {
		if day := string(api.DateOf(newest.UTC())); day > resume {
			resume = day
		}
	}

	if resume != "" {
		if err := a.repo.SaveCheckpoint(ctx, api.Date(resume)); err != nil {
			return result, err
		}
	}

	result.Complete = true

	a.logger.Info("transfer logs archived",
		zap.Int("fetched", result.Fetched),
		zap.Int("archived", result.Archived),
		zap.String("checkpoint", resume),
	)

	return result, nil
}

func (a *Archiver) startDay(ctx context.Context, configured api.Date) (api.Date, error) {
	var after string

	if !configured.IsZero() {
		normalized, err := configured.Normalize()
		if err != nil {
			return "", err
		}

		after = normalized
	}

	checkpoint, err := a.repo.Checkpoint(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read archive checkpoint: %w", err)
	}

	if day := string(checkpoint); day > after {
		after = day
	}

	return api.Date(after), nil
}
