package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/devshark/starkbank/api"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type PostgresRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

const (
	insertTransferLog = `INSERT INTO transfer_logs (id, transfer_id, type, errors, transfer, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	selectTransferLog = `SELECT id, type, errors, transfer, created_at
		FROM transfer_logs
		WHERE id = $1`

	selectLatestCreated = `SELECT MAX(created_at) FROM transfer_logs`

	countTransferLogs = `SELECT COUNT(*) FROM transfer_logs`

	selectCheckpoint = `SELECT resume_day FROM archive_checkpoints WHERE name = $1`

	upsertCheckpoint = `INSERT INTO archive_checkpoints (name, resume_day, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (name)
		DO UPDATE SET resume_day = GREATEST(archive_checkpoints.resume_day, EXCLUDED.resume_day),
			updated_at = EXCLUDED.updated_at`
)

// checkpointName identifies the transfer log sweep in archive_checkpoints.
const checkpointName = "transfer_logs"

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: zap.NewNop(),
	}
}

func (r *PostgresRepository) WithCustomLogger(logger *zap.Logger) *PostgresRepository {
	r.logger = logger
	return r
}

func (r *PostgresRepository) SaveTransferLog(ctx context.Context, log *api.TransferLog) (bool, error) {
	transfer, err := json.Marshal(log.Transfer)
	if err != nil {
		return false, fmt.Errorf("failed to encode transfer: %w", err)
	}

	errs := log.Errors
	if errs == nil {
		errs = []string{}
	}

	result, err := r.db.ExecContext(ctx, insertTransferLog,
		log.ID, log.Transfer.ID, string(log.Type), pq.Array(errs), transfer, log.Created.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to save transfer log %s: %w", log.ID, err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	if inserted == 0 {
		r.logger.Debug("transfer log already archived", zap.String("id", log.ID))
	}

	return inserted > 0, nil
}

func (r *PostgresRepository) GetTransferLog(ctx context.Context, id string) (*api.TransferLog, error) {
	var (
		log      api.TransferLog
		logType  string
		errs     pq.StringArray
		transfer []byte
		created  time.Time
	)

	err := r.db.QueryRowContext(ctx, selectTransferLog, id).Scan(&log.ID, &logType, &errs, &transfer, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrLogNotFound, id)
	}

	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(transfer, &log.Transfer); err != nil {
		return nil, fmt.Errorf("failed to decode transfer of log %s: %w", id, err)
	}

	log.Type = api.TransferLogType(logType)
	log.Errors = []string(errs)
	log.Created = api.Timestamp{Time: created.UTC()}

	if log.Errors == nil {
		log.Errors = []string{}
	}

	return &log, nil
}

func (r *PostgresRepository) LatestCreated(ctx context.Context) (time.Time, error) {
	var latest sql.NullTime

	if err := r.db.QueryRowContext(ctx, selectLatestCreated).Scan(&latest); err != nil {
		return time.Time{}, err
	}

	if !latest.Valid {
		return time.Time{}, nil
	}

	return latest.Time.UTC(), nil
}

func (r *PostgresRepository) CountTransferLogs(ctx context.Context) (int64, error) {
	var count int64

	err := r.db.QueryRowContext(ctx, countTransferLogs).Scan(&count)

	return count, err
}

func (r *PostgresRepository) Checkpoint(ctx context.Context) (api.Date, error) {
	var day time.Time

	err := r.db.QueryRowContext(ctx, selectCheckpoint, checkpointName).Scan(&day)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("failed to read checkpoint: %w", err)
	}

	return api.DateOf(day), nil
}

func (r *PostgresRepository) SaveCheckpoint(ctx context.Context, day api.Date) error {
	normalized, err := day.Normalize()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, upsertCheckpoint, checkpointName, normalized); err != nil {
		return fmt.Errorf("failed to save checkpoint %s: %w", normalized, err)
	}

	r.logger.Debug("checkpoint saved", zap.String("resume_day", normalized))

	return nil
}
