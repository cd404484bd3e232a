package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultLimit = 100

// Recorder validates and persists operation logs. It satisfies
// users.ActivityRecorder.
type Recorder struct {
	store  OperationStore
	logger *zap.Logger
	now    func() time.Time
}

// NewRecorder creates a new recorder
func NewRecorder(store OperationStore, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// RecordOperation stores the outcome of a remote call. Storage failures are
// logged and never reach the caller.
func (r *Recorder) RecordOperation(ctx context.Context, operation string, recordID int, elapsed time.Duration, err error) {
	log := &OperationLog{
		LogID:      uuid.New().String(),
		Operation:  operation,
		RecordID:   recordID,
		Success:    err == nil,
		DurationMS: elapsed.Milliseconds(),
		Timestamp:  r.now(),
	}
	if err != nil {
		log.ErrorMsg = err.Error()
	}

	if logErr := r.Log(ctx, log); logErr != nil {
		r.logger.Error("Failed to record directory operation",
			zap.String("operation", operation),
			zap.Int("record_id", recordID),
			zap.Error(logErr))
	}
}

// Log validates and persists a log entry
func (r *Recorder) Log(ctx context.Context, log *OperationLog) error {
	if log.LogID == "" {
		log.LogID = uuid.New().String()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = r.now()
	}
	if err := log.Validate(); err != nil {
		return fmt.Errorf("invalid operation log: %w", err)
	}

	// the request context may already be cancelled once the response is written
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := r.store.CreateOperationLog(storeCtx, log); err != nil {
		return fmt.Errorf("failed to create operation log: %w", err)
	}
	return nil
}

// Recent returns the newest operation logs
func (r *Recorder) Recent(ctx context.Context, limit int) ([]*OperationLog, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	logs, err := r.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list operation logs: %w", err)
	}
	return logs, nil
}

// RecentFailures returns the newest failed operation logs
func (r *Recorder) RecentFailures(ctx context.Context, limit int) ([]*OperationLog, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	logs, err := r.store.ListFailures(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed operations: %w", err)
	}
	return logs, nil
}

// LastFailure returns the newest failure that happened after the newest
// success, or nil when the last operation went through.
func (r *Recorder) LastFailure(ctx context.Context) (*OperationLog, error) {
	recent, err := r.Recent(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 || recent[0].Success {
		return nil, nil
	}
	return recent[0], nil
}

// Prune removes operation logs older than maxAge
func (r *Recorder) Prune(ctx context.Context, maxAge time.Duration) error {
	if maxAge <= 0 {
		return nil
	}
	if err := r.store.DeleteOlderThan(ctx, r.now().Add(-maxAge)); err != nil {
		return fmt.Errorf("failed to prune operation logs: %w", err)
	}
	return nil
}
