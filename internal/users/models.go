package users

import (
	"encoding/json"
	"strings"
)

// Record represents one user entry of the remote directory
type Record struct {
	ID       int     `json:"id,omitempty"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Address  Address `json:"address"`
	Phone    string  `json:"phone"`
	Website  string  `json:"website"`
	Company  Company `json:"company"`

	// Extra holds fields created through SetField that are not part of the
	// fixed shape, keyed by their full dotted path.
	Extra map[string]string `json:"-"`
}

// Address is the postal address of a user
type Address struct {
	Street  string `json:"street"`
	Suite   string `json:"suite"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
	Geo     Geo    `json:"geo"`
}

// Geo holds the coordinates of an address as text
type Geo struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

// Company is the employer of a user
type Company struct {
	Name        string `json:"name"`
	CatchPhrase string `json:"catchPhrase"`
	BS          string `json:"bs"`
}

// BlankRecord returns the empty template used for new drafts
func BlankRecord() Record {
	return Record{}
}

// Clone returns a copy that shares no mutable state with r
func (r Record) Clone() Record {
	out := r
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// MarshalJSON writes the fixed shape and merges Extra fields into their
// nested objects.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	data, err := json.Marshal(plain(r))
	if err != nil || len(r.Extra) == 0 {
		return data, err
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	for path, value := range r.Extra {
		setDocumentValue(doc, strings.Split(path, "."), value)
	}
	return json.Marshal(doc)
}

// UnmarshalJSON reads the fixed shape and keeps unknown text fields of the
// record and its nested objects in Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	out := Record(decoded)
	collectExtras(doc, "", &out)
	*r = out
	return nil
}

func collectExtras(doc map[string]any, prefix string, r *Record) {
	for key, value := range doc {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if nestedObjects[path] {
			if nested, ok := value.(map[string]any); ok {
				collectExtras(nested, path, r)
			}
			continue
		}

		text, ok := value.(string)
		if !ok {
			continue
		}
		if accessor, err := resolvePath(path); err != nil || accessor != nil {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra[path] = text
	}
}

func setDocumentValue(doc map[string]any, segments []string, value string) {
	current := doc
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

// FormState is the draft being edited and whether it targets an existing entry
type FormState struct {
	Draft     Record `json:"draft"`
	Editing   bool   `json:"editing"`
	EditingID int    `json:"editing_id,omitempty"`
}

// UpdatePolicy decides which value replaces an entry after a successful update
type UpdatePolicy string

const (
	// PreferDraft stores the submitted draft, ignoring the server's echo
	PreferDraft UpdatePolicy = "draft"
	// PreferResponse stores the server's echo when it carries the same id
	PreferResponse UpdatePolicy = "response"
)

// ParseUpdatePolicy maps a config value to a policy, defaulting to PreferDraft
func ParseUpdatePolicy(value string) UpdatePolicy {
	switch UpdatePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case PreferResponse:
		return PreferResponse
	default:
		return PreferDraft
	}
}
