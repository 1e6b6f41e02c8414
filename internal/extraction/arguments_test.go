package extraction

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/patient-search-assistant/internal/patients"
)

func TestParseFilterArguments(t *testing.T) {
	raw := `{"PatientId": 12345, "genderName": "Female", "PatientDOB": "15/06/2000",
		"EnrollmentStatus": "", "ProviderName": null, "Unknown": "x", "ChartNumber": 786.0}`

	got, err := ParseFilterArguments(raw, patients.DayFirst)
	require.NoError(t, err)

	assert.Equal(t, map[patients.Field]string{
		patients.FieldPatientID:        "12345",
		patients.FieldGenderName:       "female",
		patients.FieldPatientDOB:       "2000-06-15",
		patients.FieldEnrollmentStatus: "",
		patients.FieldChartNumber:      "786",
	}, map[patients.Field]string(got))
}

func TestParseFilterArgumentsEmpty(t *testing.T) {
	for _, raw := range []string{"", "  ", "{}"} {
		got, err := ParseFilterArguments(raw, patients.DayFirst)
		require.NoError(t, err, raw)
		assert.Empty(t, got, raw)
	}
}

func TestParseFilterArgumentsInvalid(t *testing.T) {
	for _, raw := range []string{"{", "[1,2]", "not json", "null", `{"GenderName":"male"} {"ChartNumber":"1"}`, `{"GenderName":"male"} hope this helps`} {
		_, err := ParseFilterArguments(raw, patients.DayFirst)
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, ErrInvalidArguments), raw)
	}
}
