package repository

import (
	"context"
	"errors"
	"time"

	"github.com/devshark/starkbank/api"
)

var ErrLogNotFound = errors.New("transfer log not found")

// LogRepository stores archived transfer logs.
type LogRepository interface {
	// SaveTransferLog returns false when the log was already archived.
	SaveTransferLog(ctx context.Context, log *api.TransferLog) (bool, error)
	GetTransferLog(ctx context.Context, id string) (*api.TransferLog, error)
	// LatestCreated returns the zero time when nothing has been archived yet.
	LatestCreated(ctx context.Context) (time.Time, error)
	CountTransferLogs(ctx context.Context) (int64, error)
	// Checkpoint returns the day the next archive run starts from, or "" before the first complete run.
	Checkpoint(ctx context.Context) (api.Date, error)
	// SaveCheckpoint moves the checkpoint to day. It never moves backwards.
	SaveCheckpoint(ctx context.Context, day api.Date) error
}
