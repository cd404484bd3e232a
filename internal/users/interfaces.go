package users

import (
	"context"
	"time"
)

// UserStore defines the operations of the remote user directory
type UserStore interface {
	List(ctx context.Context) ([]Record, error)
	Create(ctx context.Context, record Record) (Record, error)
	Update(ctx context.Context, id int, record Record) (Record, error)
	Delete(ctx context.Context, id int) error
}

// ActivityRecorder receives the outcome of every remote call
type ActivityRecorder interface {
	RecordOperation(ctx context.Context, operation string, recordID int, elapsed time.Duration, err error)
}

// UserService defines the operations the page and API perform on the directory
type UserService interface {
	Refresh(ctx context.Context) ([]Record, error)
	Remove(ctx context.Context, id int) error
	CreateEntry(ctx context.Context, draft Record) (Record, error)
	UpdateEntry(ctx context.Context, id int, draft Record) (Record, error)
	Records() []Record
	Record(id int) (Record, error)

	Form() FormState
	StartEdit(id int) error
	CancelEdit()
	ChangeField(path, value string) error
	ChangeFields(values map[string]string) error
	Submit(ctx context.Context) (Record, error)
}

// Operation names reported to the ActivityRecorder
const (
	OperationList   = "list_users"
	OperationCreate = "create_user"
	OperationUpdate = "update_user"
	OperationDelete = "delete_user"
)

type noopRecorder struct{}

func (noopRecorder) RecordOperation(context.Context, string, int, time.Duration, error) {}
