package users

import (
	"sort"
)

// Draft builds a Record one field update at a time
type Draft struct {
	record Record
}

// NewDraft starts a draft from the blank template
func NewDraft() *Draft {
	return &Draft{record: BlankRecord()}
}

// DraftFrom starts a draft from a copy of an existing record
func DraftFrom(record Record) *Draft {
	return &Draft{record: record.Clone()}
}

// Apply sets a single field
func (d *Draft) Apply(path, value string) error {
	updated, err := SetField(d.record, path, value)
	if err != nil {
		return err
	}
	d.record = updated
	return nil
}

// ApplyAll sets every field in values. Either all updates are applied or,
// on the first invalid path, none are.
func (d *Draft) ApplyAll(values map[string]string) error {
	paths := make([]string, 0, len(values))
	for path := range values {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	next := d.record
	for _, path := range paths {
		updated, err := SetField(next, path, values[path])
		if err != nil {
			return err
		}
		next = updated
	}
	d.record = next
	return nil
}

// Get returns the current value of a field
func (d *Draft) Get(path string) (string, error) {
	return GetField(d.record, path)
}

// Record returns a copy of the record built so far
func (d *Draft) Record() Record {
	return d.record.Clone()
}
