package patients

import "strings"

// Field names one of the thirteen search criteria understood by the record store.
type Field string

const (
	FieldPatientID        Field = "PatientId"
	FieldPatientNHI       Field = "PatientNHI"
	FieldPatientFullName  Field = "PatientFullName"
	FieldPatientDOB       Field = "PatientDOB"
	FieldFullAddress      Field = "FullAddress"
	FieldProviderName     Field = "ProviderName"
	FieldEmail            Field = "Email"
	FieldPhoneNumber      Field = "PhoneNumber"
	FieldChartNumber      Field = "ChartNumber"
	FieldEnrollmentDate   Field = "EnrollmentDate"
	FieldFundingStatus    Field = "FundingStatus"
	FieldEnrollmentStatus Field = "EnrollmentStatus"
	FieldGenderName       Field = "GenderName"
)

// MatchKind describes how the record store compares a filter value.
type MatchKind string

const (
	MatchSubstring MatchKind = "substring"
	MatchExact     MatchKind = "exact"
)

// FieldSpec carries the contract details for one field.
type FieldSpec struct {
	Field       Field
	Label       string
	Description string
	Match       MatchKind
	// DateBearing fields are canonicalised to YYYY-MM-DD before search.
	DateBearing bool
	// Aliases are the record keys that may carry this field, in lookup order.
	Aliases []string
}

var fieldSpecs = []FieldSpec{
	{Field: FieldPatientID, Label: "Patient ID", Description: "Patient ID digits"},
	{Field: FieldPatientNHI, Label: "NHI Number", Description: "Patient NHI number"},
	{Field: FieldPatientFullName, Label: "Full Name", Description: "Patient full name"},
	{Field: FieldPatientDOB, Label: "Date of Birth", Description: "Date of birth in yyyy-MM-dd format, or a year", DateBearing: true},
	{Field: FieldFullAddress, Label: "Address", Description: "Full address"},
	{Field: FieldProviderName, Label: "Provider Name", Description: "Provider (doctor) name"},
	{Field: FieldEmail, Label: "Email", Description: "Email address"},
	{Field: FieldPhoneNumber, Label: "Phone Number", Description: "Phone number"},
	{Field: FieldChartNumber, Label: "Chart Number", Description: "Chart / medical record number"},
	{Field: FieldEnrollmentDate, Label: "Enrollment Date", Description: "Enrollment date in yyyy-MM-dd format, or a year", DateBearing: true},
	{Field: FieldFundingStatus, Label: "Funding Status", Description: "Funding status"},
	{Field: FieldEnrollmentStatus, Label: "Enrollment Status", Description: `Enrollment status; an empty string "" finds records where the status is blank`},
	{Field: FieldGenderName, Label: "Gender", Description: "Gender, EXACT MATCH ONLY: 'male' or 'female'", Match: MatchExact},
}

var specsByField = func() map[Field]FieldSpec {
	out := make(map[Field]FieldSpec, len(fieldSpecs))
	for i := range fieldSpecs {
		spec := &fieldSpecs[i]
		if spec.Match == "" {
			spec.Match = MatchSubstring
		}
		spec.Aliases = []string{string(spec.Field), lowerFirst(string(spec.Field))}
		out[spec.Field] = *spec
	}
	return out
}()

// Fields returns the thirteen filter fields in contract order.
func Fields() []Field {
	out := make([]Field, 0, len(fieldSpecs))
	for _, spec := range fieldSpecs {
		out = append(out, spec.Field)
	}
	return out
}

// Specs returns the field contracts in contract order.
func Specs() []FieldSpec {
	out := make([]FieldSpec, 0, len(fieldSpecs))
	for _, spec := range fieldSpecs {
		out = append(out, specsByField[spec.Field])
	}
	return out
}

// Spec returns the contract details for f.
func (f Field) Spec() (FieldSpec, bool) {
	spec, ok := specsByField[f]
	return spec, ok
}

// Valid reports whether f is one of the thirteen known fields.
func (f Field) Valid() bool {
	_, ok := specsByField[f]
	return ok
}

// DateBearing reports whether values for f are dates.
func (f Field) DateBearing() bool {
	return specsByField[f].DateBearing
}

// ParseField resolves a field name case-insensitively, so both
// "PatientDOB" and "patientDOB" map to FieldPatientDOB.
func ParseField(name string) (Field, bool) {
	name = strings.TrimSpace(name)
	for _, spec := range fieldSpecs {
		if strings.EqualFold(name, string(spec.Field)) {
			return spec.Field, true
		}
	}
	return "", false
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
