package users

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RemoteStore implements the UserStore interface against a REST collection
// exposing /users and /users/{id}
type RemoteStore struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewRemoteStore creates a new remote store; a non-positive timeout disables
// the per-request deadline.
func NewRemoteStore(baseURL string, timeout time.Duration, logger *zap.Logger) *RemoteStore {
	client := &http.Client{}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return &RemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// List fetches every user in server order
func (s *RemoteStore) List(ctx context.Context) ([]Record, error) {
	var records []Record
	if err := s.do(ctx, OperationList, http.MethodGet, 0, nil, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = make([]Record, 0)
	}
	return records, nil
}

// Create posts a new user and returns the record with its assigned id
func (s *RemoteStore) Create(ctx context.Context, record Record) (Record, error) {
	record.ID = 0
	var created Record
	if err := s.do(ctx, OperationCreate, http.MethodPost, 0, record, &created); err != nil {
		return Record{}, err
	}
	return created, nil
}

// Update replaces a user and returns the server's echo
func (s *RemoteStore) Update(ctx context.Context, id int, record Record) (Record, error) {
	var updated Record
	if err := s.do(ctx, OperationUpdate, http.MethodPut, id, record, &updated); err != nil {
		return Record{}, err
	}
	return updated, nil
}

// Delete removes a user
func (s *RemoteStore) Delete(ctx context.Context, id int) error {
	return s.do(ctx, OperationDelete, http.MethodDelete, id, nil, nil)
}

func (s *RemoteStore) resourceURL(id int) string {
	if id == 0 {
		return s.baseURL + "/users"
	}
	return s.baseURL + "/users/" + strconv.Itoa(id)
}

func (s *RemoteStore) do(ctx context.Context, operation, method string, id int, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.resourceURL(id), reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}

	s.logger.Debug("Calling remote directory",
		zap.String("operation", operation),
		zap.String("method", method),
		zap.String("url", req.URL.String()))

	resp, err := s.client.Do(req)
	if err != nil {
		return NewTransportError(operation, id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewTransportError(operation, id, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return NewNotFoundError(operation, id)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		s.logger.Warn("Remote directory rejected request",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(data), 200)))
		return NewStatusError(operation, id, resp.StatusCode)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return NewDecodeError(operation, id, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
