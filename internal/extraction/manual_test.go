package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/patient-search-assistant/internal/patients"
)

func TestExtractManual(t *testing.T) {
	cases := []struct {
		name string
		text string
		want map[patients.Field]string
	}{
		{
			name: "gender only",
			text: "show male patients",
			want: map[patients.Field]string{patients.FieldGenderName: "male"},
		},
		{
			name: "female is not male",
			text: "list female patients",
			want: map[patients.Field]string{patients.FieldGenderName: "female"},
		},
		{
			name: "ambiguous gender",
			text: "show male and female patients",
			want: map[patients.Field]string{},
		},
		{
			name: "full name case folded",
			text: "find patient John Smith",
			want: map[patients.Field]string{patients.FieldPatientFullName: "john smith"},
		},
		{
			name: "chart number rejects name capture",
			text: "patient with chart number 786",
			want: map[patients.Field]string{patients.FieldChartNumber: "786"},
		},
		{
			name: "explicit empty enrollment status",
			text: "enrollment status is empty",
			want: map[patients.Field]string{patients.FieldEnrollmentStatus: ""},
		},
		{
			name: "enrollment date is not a status",
			text: "patients with enrollment date 2023-05-01",
			want: map[patients.Field]string{patients.FieldEnrollmentDate: "2023-05-01"},
		},
		{
			name: "enrollment status value",
			text: "patients with enrollment status active",
			want: map[patients.Field]string{patients.FieldEnrollmentStatus: "active"},
		},
		{
			name: "patient id phrase",
			text: "get patient id 42",
			want: map[patients.Field]string{patients.FieldPatientID: "42"},
		},
		{
			name: "bare id fallback",
			text: "look up 1234567 please",
			want: map[patients.Field]string{patients.FieldPatientID: "1234567"},
		},
		{
			name: "nhi skips connective",
			text: "nhi starting with abc",
			want: map[patients.Field]string{patients.FieldPatientNHI: "ABC"},
		},
		{
			name: "provider after doctor title",
			text: "show patients by Dr. Johnson",
			want: map[patients.Field]string{patients.FieldProviderName: "johnson"},
		},
		{
			name: "email containing",
			text: "email containing gmail.com",
			want: map[patients.Field]string{patients.FieldEmail: "gmail.com"},
		},
		{
			name: "day first dob",
			text: "dob 15/06/2000",
			want: map[patients.Field]string{patients.FieldPatientDOB: "2000-06-15"},
		},
		{
			name: "birth year",
			text: "born in 1985",
			want: map[patients.Field]string{patients.FieldPatientDOB: "1985"},
		},
		{
			name: "enrolled iso date",
			text: "enrolled on 2023-01-05",
			want: map[patients.Field]string{patients.FieldEnrollmentDate: "2023-01-05"},
		},
		{
			name: "phone is not an id",
			text: "phone 0211234567",
			want: map[patients.Field]string{patients.FieldPhoneNumber: "0211234567"},
		},
		{
			name: "funding status",
			text: "funding status is ACC",
			want: map[patients.Field]string{patients.FieldFundingStatus: "acc"},
		},
		{
			name: "nothing matched",
			text: "hello there",
			want: map[patients.Field]string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractManual(tc.text, patients.DayFirst)
			assert.Equal(t, tc.want, map[patients.Field]string(got))
		})
	}
}

func TestExtractManualEnrollmentStatusEmptyVsAbsent(t *testing.T) {
	empty := ExtractManual("enrollment status is empty", patients.DayFirst)
	v, ok := empty.Get(patients.FieldEnrollmentStatus)
	require.True(t, ok)
	assert.Equal(t, "", v)

	absent := ExtractManual("show all patients", patients.DayFirst)
	assert.False(t, absent.Has(patients.FieldEnrollmentStatus))
}

func TestExtractManualNameStopWords(t *testing.T) {
	got := ExtractManual("find all patients", patients.DayFirst)
	assert.False(t, got.Has(patients.FieldPatientFullName))
}

func TestExtractManualMonthFirst(t *testing.T) {
	got := ExtractManual("dob 06/15/2000", patients.MonthFirst)
	v, _ := got.Get(patients.FieldPatientDOB)
	assert.Equal(t, "2000-06-15", v)
}

func TestExtractManualDeterministic(t *testing.T) {
	text := "female patients under dr smith enrolled in 2021 with status active"
	first := ExtractManual(text, patients.DayFirst)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ExtractManual(text, patients.DayFirst))
	}
}
