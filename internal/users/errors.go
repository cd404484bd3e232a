package users

import (
	"errors"
	"fmt"
)

// ErrRecordNotLoaded is returned when an id is not part of the local collection
var ErrRecordNotLoaded = errors.New("user not in local collection")

// InvalidPathError reports a field path that does not address a text field
type InvalidPathError struct {
	Path    string
	Segment string
	Message string
}

func (e *InvalidPathError) Error() string {
	if e.Segment != "" {
		return fmt.Sprintf("invalid field path %q at segment %q: %s", e.Path, e.Segment, e.Message)
	}
	return fmt.Sprintf("invalid field path %q: %s", e.Path, e.Message)
}

func newInvalidPathError(path, segment, message string) *InvalidPathError {
	return &InvalidPathError{
		Path:    path,
		Segment: segment,
		Message: message,
	}
}

// IsInvalidPath reports whether err is or wraps an InvalidPathError
func IsInvalidPath(err error) bool {
	var pathErr *InvalidPathError
	return errors.As(err, &pathErr)
}

// RemoteError represents a failed call against the remote user directory
type RemoteError struct {
	Type       string
	Operation  string
	RecordID   int
	StatusCode int
	Message    string
	Cause      error
}

func (e *RemoteError) Error() string {
	target := "users"
	if e.RecordID != 0 {
		target = fmt.Sprintf("user %d", e.RecordID)
	}
	if e.Cause != nil {
		return fmt.Sprintf("remote error [%s] during %s on %s: %s (caused by: %v)", e.Type, e.Operation, target, e.Message, e.Cause)
	}
	return fmt.Sprintf("remote error [%s] during %s on %s: %s", e.Type, e.Operation, target, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.Cause
}

// Remote error types
const (
	RemoteErrorTypeTransport = "transport"
	RemoteErrorTypeNotFound  = "not_found"
	RemoteErrorTypeStatus    = "status"
	RemoteErrorTypeDecode    = "decode"
)

// NewTransportError creates an error for network or connectivity failures
func NewTransportError(operation string, recordID int, cause error) *RemoteError {
	return &RemoteError{
		Type:      RemoteErrorTypeTransport,
		Operation: operation,
		RecordID:  recordID,
		Message:   "remote directory unreachable",
		Cause:     cause,
	}
}

// NewNotFoundError creates an error for a record the remote directory does not know
func NewNotFoundError(operation string, recordID int) *RemoteError {
	return &RemoteError{
		Type:       RemoteErrorTypeNotFound,
		Operation:  operation,
		RecordID:   recordID,
		StatusCode: 404,
		Message:    "user not found",
	}
}

// NewStatusError creates an error for any other unsuccessful response status
func NewStatusError(operation string, recordID int, statusCode int) *RemoteError {
	return &RemoteError{
		Type:       RemoteErrorTypeStatus,
		Operation:  operation,
		RecordID:   recordID,
		StatusCode: statusCode,
		Message:    fmt.Sprintf("unexpected response status %d", statusCode),
	}
}

// NewDecodeError creates an error for a response body that cannot be parsed
func NewDecodeError(operation string, recordID int, cause error) *RemoteError {
	return &RemoteError{
		Type:      RemoteErrorTypeDecode,
		Operation: operation,
		RecordID:  recordID,
		Message:   "failed to decode response body",
		Cause:     cause,
	}
}

func isRemoteErrorType(err error, errType string) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr) && remoteErr.Type == errType
}

// IsTransport reports whether err is a remote transport failure
func IsTransport(err error) bool {
	return isRemoteErrorType(err, RemoteErrorTypeTransport)
}

// IsNotFound reports whether err is a remote not-found failure
func IsNotFound(err error) bool {
	return isRemoteErrorType(err, RemoteErrorTypeNotFound)
}
