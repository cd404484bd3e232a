package activity

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// OperationLog represents one call made against the remote user directory
type OperationLog struct {
	bun.BaseModel `bun:"table:directory_operation_logs,alias:dol"`

	LogID      string    `bun:"id,pk" json:"log_id"`
	Operation  string    `bun:"operation,notnull" json:"operation"` // e.g., "create_user", "delete_user"
	RecordID   int       `bun:"record_id" json:"record_id,omitempty"`
	Success    bool      `bun:"success,notnull" json:"success"`
	ErrorMsg   string    `bun:"error_msg" json:"error_msg,omitempty"`
	DurationMS int64     `bun:"duration_ms" json:"duration_ms"`
	Timestamp  time.Time `bun:"timestamp,notnull,default:current_timestamp" json:"timestamp"`
}

// Validate validates the operation log entry
func (l *OperationLog) Validate() error {
	if l.LogID == "" {
		return fmt.Errorf("log ID cannot be empty")
	}
	if l.Operation == "" {
		return fmt.Errorf("operation cannot be empty")
	}
	if l.DurationMS < 0 {
		return fmt.Errorf("duration cannot be negative")
	}
	if !l.Success && l.ErrorMsg == "" {
		return fmt.Errorf("failed operations need an error message")
	}
	return nil
}
