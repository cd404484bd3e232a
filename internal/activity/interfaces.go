package activity

import (
	"context"
	"time"
)

// OperationStore defines the interface for operation log persistence
type OperationStore interface {
	// CreateOperationLog persists a new log entry
	CreateOperationLog(ctx context.Context, log *OperationLog) error

	// ListRecent returns the newest entries first
	ListRecent(ctx context.Context, limit int) ([]*OperationLog, error)

	// ListFailures returns the newest failed entries first
	ListFailures(ctx context.Context, limit int) ([]*OperationLog, error)

	// DeleteOlderThan removes entries logged before cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) error
}
