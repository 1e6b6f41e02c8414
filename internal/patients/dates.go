package patients

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateOrder decides how an ambiguous NN/NN/YYYY date is read.
type DateOrder string

const (
	DayFirst   DateOrder = "day-first"
	MonthFirst DateOrder = "month-first"
)

// ParseDateOrder accepts "day-first" or "month-first" (case-insensitive).
// An empty string means DayFirst.
func ParseDateOrder(s string) (DateOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(DayFirst):
		return DayFirst, nil
	case string(MonthFirst):
		return MonthFirst, nil
	default:
		return "", fmt.Errorf("patients: unknown date order %q", s)
	}
}

var (
	isoDateRE   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashDateRE = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	dashDateRE  = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)
	yearOnlyRE  = regexp.MustCompile(`^\d{4}$`)
)

// NormalizeDate canonicalises a date fragment used in a filter. YYYY-MM-DD and
// bare years pass through; NN/NN/YYYY is read using order; DD-MM-YYYY is
// always day-first. Anything unrecognised or impossible is returned unchanged.
func NormalizeDate(raw string, order DateOrder) string {
	switch {
	case raw == "":
		return raw
	case isoDateRE.MatchString(raw):
		return raw
	case slashDateRE.MatchString(raw):
		layout := "02/01/2006"
		if order == MonthFirst {
			layout = "01/02/2006"
		}
		return reformat(raw, layout)
	case dashDateRE.MatchString(raw):
		return reformat(raw, "02-01-2006")
	case yearOnlyRE.MatchString(raw):
		return raw
	default:
		return raw
	}
}

func reformat(raw, layout string) string {
	t, err := time.Parse(layout, raw)
	if err != nil {
		return raw
	}
	return t.Format(time.DateOnly)
}

// BirthDate is a parsed date of birth with the age derived from it.
type BirthDate struct {
	Formatted string
	Age       int
}

// Normalizer parses date-of-birth values and enriches records.
// Age is computed against the clock, so results depend on when it runs.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer uses the wall clock.
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewNormalizerWithClock uses clock as "today".
func NewNormalizerWithClock(clock func() time.Time) *Normalizer {
	if clock == nil {
		clock = time.Now
	}
	return &Normalizer{now: clock}
}

var isoTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Normalize parses an ISO-8601 timestamp (optional time and zone) or a value
// starting with YYYY-MM-DD. ok is false when nothing could be parsed.
func (n *Normalizer) Normalize(raw string) (BirthDate, bool) {
	dob, ok := parseBirthDate(strings.TrimSpace(raw))
	if !ok {
		return BirthDate{}, false
	}
	return BirthDate{
		Formatted: dob.Format(time.DateOnly),
		Age:       AgeOn(dob, n.now()),
	}, true
}

func parseBirthDate(raw string) (time.Time, bool) {
	if strings.Contains(raw, "T") {
		for _, layout := range isoTimeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	if len(raw) < len(time.DateOnly) {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, raw[:len(time.DateOnly)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AgeOn returns whole years elapsed between dob and today.
func AgeOn(dob, today time.Time) int {
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}

// Derived returns the calculatedAge and formattedDOB values for r. A record
// without a DOB gets Unknown for both; an unparseable DOB keeps its first ten
// characters as the formatted value.
func (n *Normalizer) Derived(r Record) (age any, formatted string) {
	v, ok := r.Value(FieldPatientDOB)
	if !ok {
		return Unknown, Unknown
	}
	raw := stringify(v)
	if dob, ok := n.Normalize(raw); ok {
		return dob.Age, dob.Formatted
	}
	if len(raw) > len(time.DateOnly) {
		raw = raw[:len(time.DateOnly)]
	}
	return Unknown, raw
}

// Enrich attaches calculatedAge and formattedDOB to r.
func (n *Normalizer) Enrich(r Record) {
	if r == nil {
		return
	}
	age, formatted := n.Derived(r)
	r[KeyCalculatedAge] = age
	r[KeyFormattedDOB] = formatted
}

// EnrichResult enriches every record and, for successful results, attaches
// the summary line.
func (n *Normalizer) EnrichResult(res SearchResult) SearchResult {
	for _, r := range res.Records {
		n.Enrich(r)
	}
	if res.Success {
		total := res.Count()
		res.Summary = &Summary{
			TotalPatients:  total,
			DisplayMessage: fmt.Sprintf("Found %d patients in the live database", total),
		}
	}
	return res
}
