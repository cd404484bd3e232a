package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRecorder(maxEntries int) (*Recorder, *time.Time) {
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := NewRecorder(NewMemoryStore(maxEntries), zap.NewNop())
	r.now = func() time.Time { return clock }
	return r, &clock
}

func TestRecordOperationStoresOutcome(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRecorder(10)

	r.RecordOperation(ctx, "list_users", 0, 120*time.Millisecond, nil)
	r.RecordOperation(ctx, "delete_user", 5, 40*time.Millisecond, errors.New("remote error [not_found]"))

	recent, err := r.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	assert.Equal(t, "delete_user", recent[0].Operation)
	assert.Equal(t, 5, recent[0].RecordID)
	assert.False(t, recent[0].Success)
	assert.Equal(t, "remote error [not_found]", recent[0].ErrorMsg)
	assert.NotEmpty(t, recent[0].LogID)

	assert.Equal(t, "list_users", recent[1].Operation)
	assert.True(t, recent[1].Success)
	assert.EqualValues(t, 120, recent[1].DurationMS)
}

func TestLastFailureClearsAfterSuccess(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRecorder(10)

	failure, err := r.LastFailure(ctx)
	require.NoError(t, err)
	assert.Nil(t, failure)

	r.RecordOperation(ctx, "create_user", 0, time.Millisecond, errors.New("unreachable"))
	failure, err = r.LastFailure(ctx)
	require.NoError(t, err)
	require.NotNil(t, failure)
	assert.Equal(t, "create_user", failure.Operation)

	r.RecordOperation(ctx, "create_user", 11, time.Millisecond, nil)
	failure, err = r.LastFailure(ctx)
	require.NoError(t, err)
	assert.Nil(t, failure)

	failures, err := r.RecentFailures(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, failures, 1)
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRecorder(3)

	for i := 1; i <= 5; i++ {
		r.RecordOperation(ctx, "update_user", i, 0, nil)
	}

	recent, err := r.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []int{5, 4, 3}, []int{recent[0].RecordID, recent[1].RecordID, recent[2].RecordID})
}

func TestPruneRemovesOldEntries(t *testing.T) {
	ctx := context.Background()
	r, clock := newTestRecorder(10)

	r.RecordOperation(ctx, "list_users", 0, 0, nil)
	*clock = clock.Add(2 * time.Hour)
	r.RecordOperation(ctx, "list_users", 0, 0, nil)

	require.NoError(t, r.Prune(ctx, time.Hour))
	recent, err := r.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestLogRejectsInvalidEntries(t *testing.T) {
	r, _ := newTestRecorder(10)

	err := r.Log(context.Background(), &OperationLog{Operation: ""})
	require.Error(t, err)

	err = r.Log(context.Background(), &OperationLog{Operation: "delete_user", Success: false})
	require.Error(t, err)
}
