package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wolfman30/patient-search-assistant/internal/patients"
)

// ErrInvalidArguments is returned when a function-call arguments blob is not
// a JSON object.
var ErrInvalidArguments = errors.New("extraction: invalid filter arguments")

// ParseFilterArguments decodes a JSON object of filter fields, as produced by
// the LLM's function call or the extraction prompt. Keys are matched
// case-insensitively; unknown keys and null values are ignored.
func ParseFilterArguments(raw string, order patients.DateOrder) (patients.SearchFilter, error) {
	filter := patients.NewSearchFilter()
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return filter, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return filter, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if args == nil {
		return filter, fmt.Errorf("%w: not an object", ErrInvalidArguments)
	}
	if dec.More() {
		return filter, fmt.Errorf("%w: trailing data after object", ErrInvalidArguments)
	}

	for key, value := range args {
		field, ok := patients.ParseField(key)
		if !ok {
			continue
		}
		text, ok := argumentText(value)
		if !ok {
			continue
		}
		switch {
		case field == patients.FieldGenderName:
			text = strings.ToLower(strings.TrimSpace(text))
		case field.DateBearing():
			text = patients.NormalizeDate(strings.TrimSpace(text), order)
		}
		filter.Set(field, text)
	}
	return filter, nil
}

func argumentText(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		f, err := v.Float64()
		if err != nil {
			return v.String(), true
		}
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10), true
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}
