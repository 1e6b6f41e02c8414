package patients

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Derived keys added to every record by the normalizer.
const (
	KeyCalculatedAge = "calculatedAge"
	KeyFormattedDOB  = "formattedDOB"

	// Unknown marks a derived value that could not be computed.
	Unknown = "Unknown"
)

// Record is one patient row as returned by the record store. Key casing is not
// consistent upstream, so reads go through the per-field alias lists.
type Record map[string]any

// Value returns the first non-empty value among the field's aliases.
func (r Record) Value(field Field) (any, bool) {
	spec, ok := field.Spec()
	if !ok {
		return nil, false
	}
	for _, key := range spec.Aliases {
		v, ok := r[key]
		if !ok || isBlank(v) {
			continue
		}
		return v, true
	}
	return nil, false
}

// Text returns the display string for field, or "" when absent.
func (r Record) Text(field Field) string {
	v, ok := r.Value(field)
	if !ok {
		return ""
	}
	return stringify(v)
}

// SearchResult is the outcome of one record store search.
type SearchResult struct {
	Success bool     `json:"Success"`
	Message string   `json:"Message,omitempty"`
	Records []Record `json:"Data"`
	Summary *Summary `json:"Summary,omitempty"`
}

// Summary gives the narration turn a ready-made count line.
type Summary struct {
	TotalPatients  int    `json:"totalPatients"`
	DisplayMessage string `json:"displayMessage"`
}

// Failure builds a failed result carrying msg.
func Failure(msg string) SearchResult {
	return SearchResult{Success: false, Message: msg, Records: []Record{}}
}

// Count returns the number of records.
func (r SearchResult) Count() int {
	return len(r.Records)
}

// MarshalJSON always emits Data as an array so consumers never see null.
func (r SearchResult) MarshalJSON() ([]byte, error) {
	type wire SearchResult
	out := wire(r)
	if out.Records == nil {
		out.Records = []Record{}
	}
	return json.Marshal(out)
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
