package users

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func loadedDirectory(t *testing.T, store *stubStore, records []Record, opts ...Option) *Directory {
	t.Helper()
	store.listFn = func(context.Context) ([]Record, error) {
		return cloneRecords(records), nil
	}
	d := NewDirectory(store, zap.NewNop(), opts...)
	_, err := d.Refresh(context.Background())
	require.NoError(t, err)
	return d
}

func TestRefreshKeepsServerOrder(t *testing.T) {
	records := []Record{sampleRecord(3, "C"), sampleRecord(1, "A"), sampleRecord(2, "B")}
	d := loadedDirectory(t, &stubStore{}, records)

	if diff := cmp.Diff(records, d.Records()); diff != "" {
		t.Fatalf("collection mismatch (-want +got):\n%s", diff)
	}
}

func TestRefreshFailureLeavesCollectionUnchanged(t *testing.T) {
	store := &stubStore{}
	recorder := &fakeRecorder{}
	records := []Record{sampleRecord(1, "Ann"), sampleRecord(2, "Bo")}
	d := loadedDirectory(t, store, records, WithActivityRecorder(recorder))

	store.listFn = func(context.Context) ([]Record, error) {
		return nil, NewTransportError(OperationList, 0, errors.New("connection refused"))
	}

	list, err := d.Refresh(context.Background())
	require.Error(t, err)
	assert.Nil(t, list)
	assert.True(t, IsTransport(err))

	if diff := cmp.Diff(records, d.Records()); diff != "" {
		t.Fatalf("collection changed after failed refresh (-want +got):\n%s", diff)
	}
	require.Len(t, recorder.ops, 2)
	assert.True(t, recorder.ops[1].failed)
}

func TestCreateEntryAppendsServerRecord(t *testing.T) {
	store := &stubStore{}
	d := loadedDirectory(t, store, []Record{sampleRecord(1, "Ann")})

	draft := sampleRecord(0, "Nicholas Runolfsdottir")
	store.createFn = func(_ context.Context, record Record) (Record, error) {
		record.ID = 11
		return record, nil
	}

	created, err := d.CreateEntry(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, 11, created.ID)

	records := d.Records()
	require.Len(t, records, 2)
	last := records[len(records)-1]

	want := draft.Clone()
	want.ID = 11
	if diff := cmp.Diff(want, last); diff != "" {
		t.Fatalf("appended record mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateEntryFailureLeavesCollectionUnchanged(t *testing.T) {
	store := &stubStore{}
	records := []Record{sampleRecord(1, "Ann")}
	d := loadedDirectory(t, store, records)

	store.createFn = func(context.Context, Record) (Record, error) {
		return Record{}, NewStatusError(OperationCreate, 0, 500)
	}

	_, err := d.CreateEntry(context.Background(), sampleRecord(0, "New"))
	require.Error(t, err)
	if diff := cmp.Diff(records, d.Records()); diff != "" {
		t.Fatalf("collection changed (-want +got):\n%s", diff)
	}
}

func TestRemoveDropsOnlyMatchingEntry(t *testing.T) {
	store := &stubStore{}
	records := []Record{sampleRecord(4, "D"), sampleRecord(5, "E"), sampleRecord(6, "F")}
	d := loadedDirectory(t, store, records)

	var deleted int
	store.deleteFn = func(_ context.Context, id int) error {
		deleted = id
		return nil
	}

	require.NoError(t, d.Remove(context.Background(), 5))
	assert.Equal(t, 5, deleted)

	want := []Record{records[0], records[2]}
	if diff := cmp.Diff(want, d.Records()); diff != "" {
		t.Fatalf("collection mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveUnknownIDIsNoop(t *testing.T) {
	store := &stubStore{deleteFn: func(context.Context, int) error { return nil }}
	records := []Record{sampleRecord(4, "D"), sampleRecord(5, "E")}
	d := loadedDirectory(t, store, records)

	require.NoError(t, d.Remove(context.Background(), 999))
	if diff := cmp.Diff(records, d.Records()); diff != "" {
		t.Fatalf("collection changed (-want +got):\n%s", diff)
	}
}

func TestRemoveFailureLeavesCollectionUnchanged(t *testing.T) {
	store := &stubStore{deleteFn: func(_ context.Context, id int) error {
		return NewNotFoundError(OperationDelete, id)
	}}
	records := []Record{sampleRecord(5, "E")}
	d := loadedDirectory(t, store, records)

	err := d.Remove(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Len(t, d.Records(), 1)
}

func TestUpdateEntryReplacesInPlace(t *testing.T) {
	store := &stubStore{}
	ann := sampleRecord(1, "Ann")
	bo := sampleRecord(2, "Bo")
	d := loadedDirectory(t, store, []Record{ann, bo})

	store.updateFn = func(_ context.Context, _ int, record Record) (Record, error) {
		return record, nil
	}

	draft := bo.Clone()
	draft.Name = "Bo2"
	_, err := d.UpdateEntry(context.Background(), 2, draft)
	require.NoError(t, err)

	records := d.Records()
	require.Len(t, records, 2)
	assert.Equal(t, ann, records[0])
	assert.Equal(t, 2, records[1].ID)
	assert.Equal(t, "Bo2", records[1].Name)
	assert.Equal(t, bo.Address, records[1].Address)
}

func TestUpdateEntryPolicy(t *testing.T) {
	echo := func(_ context.Context, id int, record Record) (Record, error) {
		record.ID = id
		record.Website = "normalized.example"
		return record, nil
	}

	t.Run("draft", func(t *testing.T) {
		store := &stubStore{updateFn: echo}
		d := loadedDirectory(t, store, []Record{sampleRecord(2, "Bo")})

		draft := sampleRecord(2, "Bo2")
		saved, err := d.UpdateEntry(context.Background(), 2, draft)
		require.NoError(t, err)
		assert.Equal(t, "hildegard.org", saved.Website)
		assert.Equal(t, "hildegard.org", d.Records()[0].Website)
	})

	t.Run("response", func(t *testing.T) {
		store := &stubStore{updateFn: echo}
		d := loadedDirectory(t, store, []Record{sampleRecord(2, "Bo")}, WithUpdatePolicy(PreferResponse))

		saved, err := d.UpdateEntry(context.Background(), 2, sampleRecord(2, "Bo2"))
		require.NoError(t, err)
		assert.Equal(t, "normalized.example", saved.Website)
		assert.Equal(t, "Bo2", d.Records()[0].Name)
	})

	t.Run("response without id falls back to draft", func(t *testing.T) {
		store := &stubStore{updateFn: func(context.Context, int, Record) (Record, error) {
			return Record{}, nil
		}}
		d := loadedDirectory(t, store, []Record{sampleRecord(2, "Bo")}, WithUpdatePolicy(PreferResponse))

		draft := sampleRecord(0, "Bo3")
		saved, err := d.UpdateEntry(context.Background(), 2, draft)
		require.NoError(t, err)
		assert.Equal(t, 2, saved.ID)
		assert.Equal(t, "Bo3", d.Records()[0].Name)
	})
}

func TestUpdateEntryFailureLeavesCollectionUnchanged(t *testing.T) {
	store := &stubStore{updateFn: func(_ context.Context, id int, _ Record) (Record, error) {
		return Record{}, NewTransportError(OperationUpdate, id, errors.New("timeout"))
	}}
	records := []Record{sampleRecord(2, "Bo")}
	d := loadedDirectory(t, store, records)

	_, err := d.UpdateEntry(context.Background(), 2, sampleRecord(2, "Bo2"))
	require.Error(t, err)
	if diff := cmp.Diff(records, d.Records()); diff != "" {
		t.Fatalf("collection changed (-want +got):\n%s", diff)
	}
}

func TestRecordsReturnsCopy(t *testing.T) {
	d := loadedDirectory(t, &stubStore{}, []Record{sampleRecord(1, "Ann")})

	records := d.Records()
	records[0].Name = "mutated"
	assert.Equal(t, "Ann", d.Records()[0].Name)

	got, err := d.Record(1)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)

	_, err = d.Record(42)
	assert.ErrorIs(t, err, ErrRecordNotLoaded)
}

func TestSubmitCreatesAndResetsForm(t *testing.T) {
	store := &stubStore{}
	recorder := &fakeRecorder{}
	d := loadedDirectory(t, store, nil, WithActivityRecorder(recorder))

	store.createFn = func(_ context.Context, record Record) (Record, error) {
		record.ID = 11
		return record, nil
	}

	require.NoError(t, d.ChangeField("name", "Glenna Reichert"))
	require.NoError(t, d.ChangeFields(map[string]string{
		"address.geo.lat": "-38.2386",
		"company.bs":      "e-enable",
	}))

	saved, err := d.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, saved.ID)
	assert.Equal(t, "Glenna Reichert", saved.Name)
	assert.Equal(t, "-38.2386", saved.Address.Geo.Lat)

	form := d.Form()
	assert.False(t, form.Editing)
	if diff := cmp.Diff(BlankRecord(), form.Draft); diff != "" {
		t.Fatalf("form not reset (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{OperationList, OperationCreate}, store.calls)
	require.Len(t, recorder.ops, 2)
	assert.Equal(t, recordedOperation{operation: OperationCreate, recordID: 11}, recorder.ops[1])
}

func TestSubmitUpdatesEditedEntry(t *testing.T) {
	store := &stubStore{}
	d := loadedDirectory(t, store, []Record{sampleRecord(1, "Ann"), sampleRecord(2, "Bo")})

	var updatedID int
	store.updateFn = func(_ context.Context, id int, record Record) (Record, error) {
		updatedID = id
		return record, nil
	}

	require.NoError(t, d.StartEdit(2))
	form := d.Form()
	assert.True(t, form.Editing)
	assert.Equal(t, 2, form.EditingID)
	assert.Equal(t, "Bo", form.Draft.Name)

	require.NoError(t, d.ChangeField("name", "Bo2"))
	_, err := d.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, updatedID)
	assert.Equal(t, "Bo2", d.Records()[1].Name)
	assert.False(t, d.Form().Editing)
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	store := &stubStore{createFn: func(context.Context, Record) (Record, error) {
		return Record{}, NewStatusError(OperationCreate, 0, 503)
	}}
	d := loadedDirectory(t, store, nil)

	require.NoError(t, d.ChangeField("name", "Kept"))
	_, err := d.Submit(context.Background())
	require.Error(t, err)

	assert.Equal(t, "Kept", d.Form().Draft.Name)
	assert.Empty(t, d.Records())
}

func TestFormChangesRejectInvalidPaths(t *testing.T) {
	d := loadedDirectory(t, &stubStore{}, []Record{sampleRecord(1, "Ann")})

	require.NoError(t, d.StartEdit(1))
	err := d.ChangeFields(map[string]string{"name": "x", "address.street.no": "1"})
	require.Error(t, err)
	assert.True(t, IsInvalidPath(err))
	assert.Equal(t, "Ann", d.Form().Draft.Name)

	assert.ErrorIs(t, d.StartEdit(99), ErrRecordNotLoaded)

	d.CancelEdit()
	assert.False(t, d.Form().Editing)
	assert.Empty(t, d.Form().Draft.Name)
}
