package health

import (
	"context"
	"fmt"
	"sync"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/userdir/userdir/internal/users"
)

// Checker defines the interface for health checking components
type Checker interface {
	HealthCheck(ctx context.Context) error
	IsCritical() bool // Critical services block startup if unhealthy
	Name() string
}

// Manager runs the registered checkers
type Manager struct {
	checkers []Checker
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewManager creates a new health manager
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		checkers: make([]Checker, 0),
		logger:   logger,
	}
}

// AddChecker adds a health checker to the manager
func (h *Manager) AddChecker(checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers = append(h.checkers, checker)
}

// StartupHealthCheck fails when any critical checker fails; non-critical
// failures are only logged.
func (h *Manager) StartupHealthCheck(ctx context.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var criticalFailures []error
	for _, checker := range h.checkers {
		err := checker.HealthCheck(ctx)
		switch {
		case err == nil:
			h.logger.Info("Service health check passed",
				zap.String("service", checker.Name()),
				zap.Bool("critical", checker.IsCritical()))
		case checker.IsCritical():
			criticalFailures = append(criticalFailures, fmt.Errorf("%s: %w", checker.Name(), err))
			h.logger.Error("Critical service health check failed",
				zap.String("service", checker.Name()),
				zap.Error(err))
		default:
			h.logger.Warn("Non-critical service health check failed",
				zap.String("service", checker.Name()),
				zap.Error(err))
		}
	}

	if len(criticalFailures) > 0 {
		return fmt.Errorf("critical services failed health check: %v", criticalFailures)
	}
	return nil
}

// RuntimeHealthCheck returns the result of every checker by name
func (h *Manager) RuntimeHealthCheck(ctx context.Context) map[string]error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	results := make(map[string]error, len(h.checkers))
	for _, checker := range h.checkers {
		results[checker.Name()] = checker.HealthCheck(ctx)
	}
	return results
}

// Healthy reports whether every critical checker passed in results
func (h *Manager) Healthy(results map[string]error) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, checker := range h.checkers {
		if checker.IsCritical() && results[checker.Name()] != nil {
			return false
		}
	}
	return true
}

// RemoteDirectoryChecker checks that the remote user directory answers
type RemoteDirectoryChecker struct {
	store users.UserStore
}

// NewRemoteDirectoryChecker creates a remote directory health checker
func NewRemoteDirectoryChecker(store users.UserStore) *RemoteDirectoryChecker {
	return &RemoteDirectoryChecker{store: store}
}

func (r *RemoteDirectoryChecker) HealthCheck(ctx context.Context) error {
	_, err := r.store.List(ctx)
	return err
}

func (r *RemoteDirectoryChecker) IsCritical() bool {
	return false // the page still renders with an empty list
}

func (r *RemoteDirectoryChecker) Name() string {
	return "remote_directory"
}

// DatabaseChecker checks activity database connectivity
type DatabaseChecker struct {
	db *bun.DB
}

// NewDatabaseChecker creates a database health checker
func NewDatabaseChecker(db *bun.DB) *DatabaseChecker {
	return &DatabaseChecker{db: db}
}

func (d *DatabaseChecker) HealthCheck(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DatabaseChecker) IsCritical() bool {
	return true
}

func (d *DatabaseChecker) Name() string {
	return "activity_database"
}
