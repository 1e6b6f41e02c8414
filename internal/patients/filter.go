package patients

import (
	"encoding/json"
	"strings"
)

// SearchFilter maps filter fields to values. A missing key means the field is
// unconstrained. Only EnrollmentStatus may hold an explicit empty value, which
// asks for records whose status is blank.
type SearchFilter map[Field]string

// NewSearchFilter returns an empty, fully unconstrained filter.
func NewSearchFilter() SearchFilter {
	return SearchFilter{}
}

// Set stores a trimmed value. Empty values clear the field, except for
// EnrollmentStatus where the empty string is kept.
func (f SearchFilter) Set(field Field, value string) {
	if !field.Valid() {
		return
	}
	value = strings.TrimSpace(value)
	if value == "" && field != FieldEnrollmentStatus {
		delete(f, field)
		return
	}
	f[field] = value
}

// Get returns the value for field and whether it is constrained.
func (f SearchFilter) Get(field Field) (string, bool) {
	v, ok := f[field]
	return v, ok
}

// Has reports whether field is constrained.
func (f SearchFilter) Has(field Field) bool {
	_, ok := f[field]
	return ok
}

// Fields lists the constrained fields in contract order.
func (f SearchFilter) Fields() []Field {
	out := make([]Field, 0, len(f))
	for _, field := range Fields() {
		if _, ok := f[field]; ok {
			out = append(out, field)
		}
	}
	return out
}

// WireParams is the payload sent to the record store: blank values are
// omitted, apart from an explicitly empty EnrollmentStatus.
func (f SearchFilter) WireParams() map[string]string {
	out := make(map[string]string, len(f))
	for field, value := range f {
		if !field.Valid() {
			continue
		}
		if value == "" && field != FieldEnrollmentStatus {
			continue
		}
		out[string(field)] = value
	}
	return out
}

// MarshalJSON encodes the wire form.
func (f SearchFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.WireParams())
}
