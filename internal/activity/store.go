package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// PostgresStore implements OperationStore using PostgreSQL
type PostgresStore struct {
	db *bun.DB
}

// NewPostgresStore creates a new PostgreSQL operation store
func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenDatabase connects to PostgreSQL and verifies the connection
func OpenDatabase(databaseURL string, maxConnections int) (*bun.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	if maxConnections <= 0 {
		maxConnections = 10
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(databaseURL)))
	sqldb.SetMaxOpenConns(maxConnections)
	sqldb.SetMaxIdleConns(maxConnections / 2)
	sqldb.SetConnMaxLifetime(time.Hour)

	db := bun.NewDB(sqldb, pgdialect.New())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// CreateTables creates the operation log table if it does not exist
func (s *PostgresStore) CreateTables(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*OperationLog)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create table for model %T: %w", (*OperationLog)(nil), err)
	}

	_, err = s.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_directory_operation_logs_timestamp ON directory_operation_logs (timestamp DESC)`)
	if err != nil {
		return fmt.Errorf("failed to create operation log index: %w", err)
	}
	return nil
}

// CreateOperationLog persists a new log entry
func (s *PostgresStore) CreateOperationLog(ctx context.Context, log *OperationLog) error {
	_, err := s.db.NewInsert().Model(log).Exec(ctx)
	return err
}

// ListRecent returns the newest entries first
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*OperationLog, error) {
	var logs []*OperationLog
	err := s.db.NewSelect().
		Model(&logs).
		Order("timestamp DESC").
		Limit(limit).
		Scan(ctx)
	return logs, err
}

// ListFailures returns the newest failed entries first
func (s *PostgresStore) ListFailures(ctx context.Context, limit int) ([]*OperationLog, error) {
	var logs []*OperationLog
	err := s.db.NewSelect().
		Model(&logs).
		Where("success = ?", false).
		Order("timestamp DESC").
		Limit(limit).
		Scan(ctx)
	return logs, err
}

// DeleteOlderThan removes entries logged before cutoff
func (s *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	_, err := s.db.NewDelete().
		Model((*OperationLog)(nil)).
		Where("timestamp < ?", cutoff).
		Exec(ctx)
	return err
}
