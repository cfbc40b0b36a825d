package migration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type GlobFunc func(pattern string) (matches []string, err error)

type ReadFileFunc func(name string) ([]byte, error)

const (
	createMigration = `CREATE TABLE IF NOT EXISTS migrations (
		id SERIAL NOT NULL,
		name VARCHAR(255) NOT NULL,
		created_at TIMESTAMP(3) NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id)
	);`

	selectMigration = `SELECT COUNT(*) FROM migrations WHERE name = $1`
	insertMigration = `INSERT INTO migrations (name) VALUES ($1)`
)

// Migrator applies *.up.sql files in lexical order, each at most once.
type Migrator struct {
	db            *sql.DB
	logger        *zap.Logger
	migrationPath string
	globFunc      GlobFunc     // makes testing easier
	readFile      ReadFileFunc // makes testing easier
}

func NewMigrator(db *sql.DB, migrationPath string) *Migrator {
	return &Migrator{
		db:            db,
		logger:        zap.NewNop(),
		migrationPath: migrationPath,
		globFunc:      filepath.Glob,
		readFile:      os.ReadFile,
	}
}

func (m *Migrator) WithCustomLogger(logger *zap.Logger) *Migrator {
	m.logger = logger
	return m
}

func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.createMigrationTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	files, err := m.globFunc(filepath.Join(m.migrationPath, "*.up.sql"))
	if err != nil {
		return 0, err
	}

	sort.Strings(files)

	m.logger.Info("found migrations", zap.Int("count", len(files)), zap.String("path", m.migrationPath))

	applied := 0

	for _, file := range files {
		name := filepath.Base(file)

		exists, err := m.exists(ctx, name)
		if err != nil {
			return applied, err
		}

		if exists {
			m.logger.Debug("migration already applied", zap.String("name", name))
			continue
		}

		if err := m.applyMigration(ctx, file); err != nil {
			return applied, fmt.Errorf("failed to apply %s: %w", name, err)
		}

		applied++

		m.logger.Info("migration applied", zap.String("name", name))
	}

	return applied, nil
}

func (m *Migrator) createMigrationTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, createMigration)

	return err
}

func (m *Migrator) exists(ctx context.Context, name string) (bool, error) {
	var count int
	err := m.db.QueryRowContext(ctx, selectMigration, name).Scan(&count)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (m *Migrator) applyMigration(ctx context.Context, file string) error {
	content, err := m.readFile(file)
	if err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, string(content)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if _, err = tx.ExecContext(ctx, insertMigration, filepath.Base(file)); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
