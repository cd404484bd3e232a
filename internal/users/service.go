package users

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Directory implements the UserService interface. It owns the local
// collection, which only changes after the remote directory confirms an
// operation, and the form state of the page.
type Directory struct {
	store    UserStore
	recorder ActivityRecorder
	logger   *zap.Logger
	policy   UpdatePolicy

	mu      sync.RWMutex
	records []Record
	form    FormState
}

// Option configures a Directory
type Option func(*Directory)

// WithUpdatePolicy sets which value replaces an entry after an update
func WithUpdatePolicy(policy UpdatePolicy) Option {
	return func(d *Directory) {
		d.policy = policy
	}
}

// WithActivityRecorder reports every remote outcome to recorder
func WithActivityRecorder(recorder ActivityRecorder) Option {
	return func(d *Directory) {
		if recorder != nil {
			d.recorder = recorder
		}
	}
}

// NewDirectory creates a new directory with an empty collection
func NewDirectory(store UserStore, logger *zap.Logger, opts ...Option) *Directory {
	d := &Directory{
		store:    store,
		recorder: noopRecorder{},
		logger:   logger,
		policy:   PreferDraft,
		records:  make([]Record, 0),
		form:     FormState{Draft: BlankRecord()},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Directory) track(ctx context.Context, operation string, recordID int, started time.Time, err error) {
	d.recorder.RecordOperation(ctx, operation, recordID, time.Since(started), err)
}

// Refresh replaces the collection with the remote list, keeping server order
func (d *Directory) Refresh(ctx context.Context) ([]Record, error) {
	started := time.Now()
	list, err := d.store.List(ctx)
	d.track(ctx, OperationList, 0, started, err)
	if err != nil {
		d.logger.Error("Failed to fetch users", zap.Error(err))
		return nil, fmt.Errorf("failed to refresh users: %w", err)
	}

	d.mu.Lock()
	d.records = cloneRecords(list)
	d.mu.Unlock()

	d.logger.Debug("Users refreshed", zap.Int("count", len(list)))
	return cloneRecords(list), nil
}

// Remove deletes a user remotely, then drops it from the collection
func (d *Directory) Remove(ctx context.Context, id int) error {
	started := time.Now()
	err := d.store.Delete(ctx, id)
	d.track(ctx, OperationDelete, id, started, err)
	if err != nil {
		d.logger.Error("Failed to delete user", zap.Int("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}

	d.mu.Lock()
	kept := d.records[:0:0]
	for _, r := range d.records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	d.records = kept
	d.mu.Unlock()

	d.logger.Info("User deleted", zap.Int("id", id))
	return nil
}

// CreateEntry creates a user remotely and appends the server's record
func (d *Directory) CreateEntry(ctx context.Context, draft Record) (Record, error) {
	started := time.Now()
	created, err := d.store.Create(ctx, draft.Clone())
	d.track(ctx, OperationCreate, created.ID, started, err)
	if err != nil {
		d.logger.Error("Failed to add user", zap.Error(err))
		return Record{}, fmt.Errorf("failed to create user: %w", err)
	}

	d.mu.Lock()
	d.records = append(d.records, created.Clone())
	d.mu.Unlock()

	d.logger.Info("User created", zap.Int("id", created.ID))
	return created.Clone(), nil
}

// UpdateEntry updates a user remotely, then replaces the matching entry
func (d *Directory) UpdateEntry(ctx context.Context, id int, draft Record) (Record, error) {
	started := time.Now()
	response, err := d.store.Update(ctx, id, draft.Clone())
	d.track(ctx, OperationUpdate, id, started, err)
	if err != nil {
		d.logger.Error("Failed to update user", zap.Int("id", id), zap.Error(err))
		return Record{}, fmt.Errorf("failed to update user %d: %w", id, err)
	}

	value := draft.Clone()
	if d.policy == PreferResponse && response.ID == id {
		value = response.Clone()
	}
	if value.ID == 0 {
		value.ID = id
	}

	d.mu.Lock()
	for i := range d.records {
		if d.records[i].ID == id {
			d.records[i] = value.Clone()
		}
	}
	d.mu.Unlock()

	d.logger.Info("User updated", zap.Int("id", id), zap.String("policy", string(d.policy)))
	return value, nil
}

// Records returns a copy of the collection
func (d *Directory) Records() []Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return cloneRecords(d.records)
}

// Record returns the collection entry with the given id
func (d *Directory) Record(id int) (Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range d.records {
		if r.ID == id {
			return r.Clone(), nil
		}
	}
	return Record{}, fmt.Errorf("user %d: %w", id, ErrRecordNotLoaded)
}

// Form returns a copy of the current form state
func (d *Directory) Form() FormState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	form := d.form
	form.Draft = d.form.Draft.Clone()
	return form
}

// StartEdit copies an entry into the draft and switches to edit mode
func (d *Directory) StartEdit(id int) error {
	record, err := d.Record(id)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.form = FormState{
		Draft:     DraftFrom(record).Record(),
		Editing:   true,
		EditingID: id,
	}
	d.mu.Unlock()
	return nil
}

// CancelEdit resets the form to the blank template
func (d *Directory) CancelEdit() {
	d.mu.Lock()
	d.form = FormState{Draft: BlankRecord()}
	d.mu.Unlock()
}

// ChangeField sets one field of the draft
func (d *Directory) ChangeField(path, value string) error {
	return d.ChangeFields(map[string]string{path: value})
}

// ChangeFields sets several fields of the draft; an invalid path leaves the
// draft untouched.
func (d *Directory) ChangeFields(values map[string]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	draft := DraftFrom(d.form.Draft)
	if err := draft.ApplyAll(values); err != nil {
		return err
	}
	d.form.Draft = draft.Record()
	return nil
}

// Submit creates or updates the draft depending on the form mode. On success
// the form is reset; on failure the draft is kept for another attempt.
func (d *Directory) Submit(ctx context.Context) (Record, error) {
	form := d.Form()

	var (
		saved Record
		err   error
	)
	if form.Editing {
		saved, err = d.UpdateEntry(ctx, form.EditingID, form.Draft)
	} else {
		saved, err = d.CreateEntry(ctx, form.Draft)
	}
	if err != nil {
		return Record{}, err
	}

	d.CancelEdit()
	return saved, nil
}

func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
