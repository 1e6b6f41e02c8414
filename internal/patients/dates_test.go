package patients

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time { return time.Date(year, month, day, 12, 0, 0, 0, time.UTC) }
}

func TestAgeBoundaryDay(t *testing.T) {
	dob := time.Date(2000, time.June, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 23, AgeOn(dob, time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 24, AgeOn(dob, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 23, AgeOn(dob, time.Date(2024, time.January, 30, 0, 0, 0, 0, time.UTC)))
}

func TestNormalizeAcceptedEncodings(t *testing.T) {
	n := NewNormalizerWithClock(fixedClock(2024, time.June, 14))
	cases := []string{
		"2000-06-15",
		"2000-06-15T00:00:00",
		"2000-06-15T00:00:00Z",
		"2000-06-15T08:30:00.1234567",
		"2000-06-15T08:30:00+13:00",
		"2000-06-15T08:30",
		"2000-06-15 00:00:00",
	}
	for _, raw := range cases {
		t.Run(raw, func(t *testing.T) {
			got, ok := n.Normalize(raw)
			require.True(t, ok)
			assert.Equal(t, "2000-06-15", got.Formatted)
			assert.Equal(t, 23, got.Age)
		})
	}
}

func TestNormalizeRejectsMalformed(t *testing.T) {
	n := NewNormalizer()
	for _, raw := range []string{"", "unknown", "2000-13-45", "15/06/2000", "Tuesday", "2000-06"} {
		_, ok := n.Normalize(raw)
		assert.False(t, ok, "expected %q to be rejected", raw)
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		raw   string
		order DateOrder
		want  string
	}{
		{"1985-03-04", DayFirst, "1985-03-04"},
		{"04/03/1985", DayFirst, "1985-03-04"},
		{"04/03/1985", MonthFirst, "1985-04-03"},
		{"25/12/1990", MonthFirst, "25/12/1990"},
		{"04-03-1985", DayFirst, "1985-03-04"},
		{"04-03-1985", MonthFirst, "1985-03-04"},
		{"1985", DayFirst, "1985"},
		{"march 1985", DayFirst, "march 1985"},
		{"", DayFirst, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeDate(tc.raw, tc.order), "NormalizeDate(%q, %s)", tc.raw, tc.order)
	}
}

func TestNormalizeDateIdempotent(t *testing.T) {
	for _, raw := range []string{"2000-01-01", "1999-12-31", "2024-02-29", "04/03/1985", "04-03-1985", "1970"} {
		for _, order := range []DateOrder{DayFirst, MonthFirst} {
			once := NormalizeDate(raw, order)
			assert.Equal(t, once, NormalizeDate(once, order))
		}
	}
}

func TestParseDateOrder(t *testing.T) {
	order, err := ParseDateOrder("")
	require.NoError(t, err)
	assert.Equal(t, DayFirst, order)

	order, err = ParseDateOrder("Month-First")
	require.NoError(t, err)
	assert.Equal(t, MonthFirst, order)

	_, err = ParseDateOrder("year-first")
	assert.Error(t, err)
}

func TestEnrichDualCasingAndSentinels(t *testing.T) {
	n := NewNormalizerWithClock(fixedClock(2024, time.June, 15))

	upper := Record{"PatientDOB": "2000-06-15T00:00:00"}
	lower := Record{"patientDOB": "2000-06-15"}
	missing := Record{"PatientFullName": "Jane Doe"}
	garbage := Record{"PatientDOB": "not-a-date-at-all"}

	for _, r := range []Record{upper, lower} {
		n.Enrich(r)
		assert.Equal(t, 24, r[KeyCalculatedAge])
		assert.Equal(t, "2000-06-15", r[KeyFormattedDOB])
	}

	n.Enrich(missing)
	assert.Equal(t, Unknown, missing[KeyCalculatedAge])
	assert.Equal(t, Unknown, missing[KeyFormattedDOB])

	n.Enrich(garbage)
	assert.Equal(t, Unknown, garbage[KeyCalculatedAge])
	assert.Equal(t, "not-a-date", garbage[KeyFormattedDOB])
}

func TestEnrichResultSummary(t *testing.T) {
	n := NewNormalizerWithClock(fixedClock(2024, time.June, 15))
	res := n.EnrichResult(SearchResult{Success: true, Records: []Record{{"PatientDOB": "2000-06-15"}, {}}})
	require.NotNil(t, res.Summary)
	assert.Equal(t, 2, res.Summary.TotalPatients)
	assert.Equal(t, "Found 2 patients in the live database", res.Summary.DisplayMessage)

	failed := n.EnrichResult(Failure("Request timed out"))
	assert.Nil(t, failed.Summary)
}
