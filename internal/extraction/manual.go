package extraction

import (
	"strings"

	"github.com/wolfman30/patient-search-assistant/internal/patients"
)

// ExtractManual maps free text to a SearchFilter using the ordered rule
// tables. It is pure: no I/O, no shared state, deterministic for a given
// text and date order. Fields that nothing matched are absent.
func ExtractManual(text string, order patients.DateOrder) patients.SearchFilter {
	lower := strings.ToLower(text)
	filter := patients.NewSearchFilter()

	if v, ok := idRule.match(lower); ok {
		filter.Set(patients.FieldPatientID, v)
	}

	for _, r := range fieldRules {
		if r.field == patients.FieldEnrollmentStatus {
			continue
		}
		v, ok := r.match(lower)
		if !ok {
			continue
		}
		if r.field.DateBearing() {
			v = patients.NormalizeDate(v, order)
		}
		filter.Set(r.field, v)
	}

	if g, ok := detectGender(lower); ok {
		filter.Set(patients.FieldGenderName, g)
	}

	if status, ok := enrollmentStatus(lower); ok {
		filter.Set(patients.FieldEnrollmentStatus, status)
	}

	if !filter.Has(patients.FieldPatientID) {
		if id, ok := fallbackID(lower, filter); ok {
			filter.Set(patients.FieldPatientID, id)
		}
	}
	return filter
}

// detectGender reports male or female when exactly one keyword set is present.
func detectGender(lower string) (string, bool) {
	tokens := words(lower)
	male := containsAny(tokens, maleWords)
	female := containsAny(tokens, femaleWords)
	switch {
	case male && !female:
		return "male", true
	case female && !male:
		return "female", true
	default:
		return "", false
	}
}

func enrollmentStatus(lower string) (string, bool) {
	// "funding status ..." belongs to FundingStatus.
	lower = strings.ReplaceAll(lower, "funding status", "funding")
	for _, phrase := range emptyStatusPhrases {
		if strings.Contains(lower, phrase) {
			return "", true
		}
	}
	for _, r := range fieldRules {
		if r.field == patients.FieldEnrollmentStatus {
			return r.match(lower)
		}
	}
	return "", false
}

// fallbackID picks the first standalone 5+ digit number that no other
// field already claimed (phone numbers, chart numbers, dates).
func fallbackID(lower string, filter patients.SearchFilter) (string, bool) {
	for _, m := range idFallbackRE.FindAllStringSubmatch(lower, -1) {
		candidate := m[1]
		if claimed(candidate, filter) {
			continue
		}
		return candidate, true
	}
	return "", false
}

func claimed(candidate string, filter patients.SearchFilter) bool {
	for _, field := range filter.Fields() {
		v, _ := filter.Get(field)
		if strings.Contains(strings.ReplaceAll(v, " ", ""), candidate) {
			return true
		}
	}
	return false
}
