package users

import (
	"context"
	"errors"
	"sync"
	"time"
)

func sampleRecord(id int, name string) Record {
	return Record{
		ID:       id,
		Name:     name,
		Username: "Bret",
		Email:    "Sincere@april.biz",
		Address: Address{
			Street:  "Kulas Light",
			Suite:   "Apt. 556",
			City:    "Gwenborough",
			Zipcode: "92998-3874",
			Geo:     Geo{Lat: "40.7128", Lng: "81.1496"},
		},
		Phone:   "1-770-736-8031 x56442",
		Website: "hildegard.org",
		Company: Company{
			Name:        "Romaguera-Crona",
			CatchPhrase: "Multi-layered client-server neural-net",
			BS:          "harness real-time e-markets",
		},
	}
}

// stubStore is a UserStore whose behaviour is set per test
type stubStore struct {
	listFn   func(ctx context.Context) ([]Record, error)
	createFn func(ctx context.Context, record Record) (Record, error)
	updateFn func(ctx context.Context, id int, record Record) (Record, error)
	deleteFn func(ctx context.Context, id int) error

	mu    sync.Mutex
	calls []string
}

func (s *stubStore) called(op string) {
	s.mu.Lock()
	s.calls = append(s.calls, op)
	s.mu.Unlock()
}

func (s *stubStore) List(ctx context.Context) ([]Record, error) {
	s.called(OperationList)
	if s.listFn == nil {
		return nil, errors.New("list not stubbed")
	}
	return s.listFn(ctx)
}

func (s *stubStore) Create(ctx context.Context, record Record) (Record, error) {
	s.called(OperationCreate)
	if s.createFn == nil {
		return Record{}, errors.New("create not stubbed")
	}
	return s.createFn(ctx, record)
}

func (s *stubStore) Update(ctx context.Context, id int, record Record) (Record, error) {
	s.called(OperationUpdate)
	if s.updateFn == nil {
		return Record{}, errors.New("update not stubbed")
	}
	return s.updateFn(ctx, id, record)
}

func (s *stubStore) Delete(ctx context.Context, id int) error {
	s.called(OperationDelete)
	if s.deleteFn == nil {
		return errors.New("delete not stubbed")
	}
	return s.deleteFn(ctx, id)
}

type recordedOperation struct {
	operation string
	recordID  int
	failed    bool
}

type fakeRecorder struct {
	mu  sync.Mutex
	ops []recordedOperation
}

func (f *fakeRecorder) RecordOperation(_ context.Context, operation string, recordID int, _ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, recordedOperation{operation: operation, recordID: recordID, failed: err != nil})
}
