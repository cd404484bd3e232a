package users

import (
	"strings"
)

// Field describes one editable text field of a Record
type Field struct {
	Path  string
	Label string
	Input string
}

type fieldAccessor struct {
	Field
	get func(*Record) string
	set func(*Record, string)
}

// fieldTable lists the leaf fields in form order
var fieldTable = []fieldAccessor{
	{Field{"name", "Name", "text"},
		func(r *Record) string { return r.Name },
		func(r *Record, v string) { r.Name = v }},
	{Field{"username", "Username", "text"},
		func(r *Record) string { return r.Username },
		func(r *Record, v string) { r.Username = v }},
	{Field{"email", "Email", "email"},
		func(r *Record) string { return r.Email },
		func(r *Record, v string) { r.Email = v }},
	{Field{"address.street", "Street", "text"},
		func(r *Record) string { return r.Address.Street },
		func(r *Record, v string) { r.Address.Street = v }},
	{Field{"address.suite", "Suite", "text"},
		func(r *Record) string { return r.Address.Suite },
		func(r *Record, v string) { r.Address.Suite = v }},
	{Field{"address.city", "City", "text"},
		func(r *Record) string { return r.Address.City },
		func(r *Record, v string) { r.Address.City = v }},
	{Field{"address.zipcode", "Zipcode", "text"},
		func(r *Record) string { return r.Address.Zipcode },
		func(r *Record, v string) { r.Address.Zipcode = v }},
	{Field{"address.geo.lat", "Latitude", "text"},
		func(r *Record) string { return r.Address.Geo.Lat },
		func(r *Record, v string) { r.Address.Geo.Lat = v }},
	{Field{"address.geo.lng", "Longitude", "text"},
		func(r *Record) string { return r.Address.Geo.Lng },
		func(r *Record, v string) { r.Address.Geo.Lng = v }},
	{Field{"phone", "Phone", "text"},
		func(r *Record) string { return r.Phone },
		func(r *Record, v string) { r.Phone = v }},
	{Field{"website", "Website", "text"},
		func(r *Record) string { return r.Website },
		func(r *Record, v string) { r.Website = v }},
	{Field{"company.name", "Company Name", "text"},
		func(r *Record) string { return r.Company.Name },
		func(r *Record, v string) { r.Company.Name = v }},
	{Field{"company.catchPhrase", "Catch Phrase", "text"},
		func(r *Record) string { return r.Company.CatchPhrase },
		func(r *Record, v string) { r.Company.CatchPhrase = v }},
	{Field{"company.bs", "BS", "text"},
		func(r *Record) string { return r.Company.BS },
		func(r *Record, v string) { r.Company.BS = v }},
}

var fieldsByPath = func() map[string]*fieldAccessor {
	m := make(map[string]*fieldAccessor, len(fieldTable))
	for i := range fieldTable {
		m[fieldTable[i].Path] = &fieldTable[i]
	}
	return m
}()

// nestedObjects are the object paths of the fixed shape; "" is the record root.
var nestedObjects = map[string]bool{
	"":            true,
	"address":     true,
	"address.geo": true,
	"company":     true,
}

// id is assigned by the remote directory and is never edited through a path
const idField = "id"

// Fields returns the editable fields in form order
func Fields() []Field {
	out := make([]Field, len(fieldTable))
	for i, f := range fieldTable {
		out[i] = f.Field
	}
	return out
}

// resolvePath returns the accessor for a known leaf, or nil when path names a
// field to be created under a known object.
func resolvePath(path string) (*fieldAccessor, error) {
	if path == "" {
		return nil, newInvalidPathError(path, "", "path is empty")
	}
	if path == idField {
		return nil, newInvalidPathError(path, idField, "id is assigned by the remote directory")
	}

	segments := strings.Split(path, ".")
	for _, segment := range segments {
		if segment == "" {
			return nil, newInvalidPathError(path, "", "path contains an empty segment")
		}
	}

	if accessor, ok := fieldsByPath[path]; ok {
		return accessor, nil
	}
	if nestedObjects[path] {
		return nil, newInvalidPathError(path, segments[len(segments)-1], "path addresses an object, not a field")
	}

	// every intermediate segment must name a nested object
	for i := 0; i < len(segments)-1; i++ {
		prefix := strings.Join(segments[:i+1], ".")
		if nestedObjects[prefix] {
			continue
		}
		if _, isLeaf := fieldsByPath[prefix]; isLeaf || prefix == idField {
			return nil, newInvalidPathError(path, segments[i], "segment refers past a text field")
		}
		return nil, newInvalidPathError(path, segments[i], "unknown field")
	}
	return nil, nil
}

// GetField returns the text value addressed by path
func GetField(record Record, path string) (string, error) {
	accessor, err := resolvePath(path)
	if err != nil {
		return "", err
	}
	if accessor != nil {
		return accessor.get(&record), nil
	}
	return record.Extra[path], nil
}

// SetField returns a copy of record with the field addressed by path set to
// value. The input record is not modified.
func SetField(record Record, path, value string) (Record, error) {
	accessor, err := resolvePath(path)
	if err != nil {
		return record, err
	}

	out := record.Clone()
	if accessor != nil {
		accessor.set(&out, value)
		return out, nil
	}
	if out.Extra == nil {
		out.Extra = make(map[string]string, 1)
	}
	out.Extra[path] = value
	return out, nil
}

// ValidatePath checks that path can be read and written
func ValidatePath(path string) error {
	_, err := resolvePath(path)
	return err
}
