package activity

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the newest entries in a bounded in-process buffer
type MemoryStore struct {
	mu         sync.RWMutex
	logs       []*OperationLog
	maxEntries int
}

// NewMemoryStore creates a store holding at most maxEntries logs
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	return &MemoryStore{
		logs:       make([]*OperationLog, 0, maxEntries),
		maxEntries: maxEntries,
	}
}

// CreateOperationLog appends an entry, evicting the oldest when full
func (s *MemoryStore) CreateOperationLog(_ context.Context, log *OperationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := *log
	if len(s.logs) == s.maxEntries {
		copy(s.logs, s.logs[1:])
		s.logs = s.logs[:len(s.logs)-1]
	}
	s.logs = append(s.logs, &entry)
	return nil
}

// ListRecent returns the newest entries first
func (s *MemoryStore) ListRecent(_ context.Context, limit int) ([]*OperationLog, error) {
	return s.collect(limit, func(*OperationLog) bool { return true }), nil
}

// ListFailures returns the newest failed entries first
func (s *MemoryStore) ListFailures(_ context.Context, limit int) ([]*OperationLog, error) {
	return s.collect(limit, func(l *OperationLog) bool { return !l.Success }), nil
}

// DeleteOlderThan removes entries logged before cutoff
func (s *MemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.logs[:0]
	for _, l := range s.logs {
		if !l.Timestamp.Before(cutoff) {
			kept = append(kept, l)
		}
	}
	s.logs = kept
	return nil
}

func (s *MemoryStore) collect(limit int, keep func(*OperationLog) bool) []*OperationLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*OperationLog, 0)
	for i := len(s.logs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if keep(s.logs[i]) {
			entry := *s.logs[i]
			out = append(out, &entry)
		}
	}
	return out
}
