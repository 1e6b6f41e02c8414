package patients

import (
	"bytes"
	"html/template"
	"strconv"
)

const tableTemplate = `<div class="summary-info">Found {{.Count}} patients in the live database</div>

<table class="patient-table">
<thead>
<tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr>
</thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
<div class="summary-info">Total: {{.Count}} patients displayed</div>`

var tableTmpl = template.Must(template.New("patient-table").Parse(tableTemplate))

type column struct {
	header string
	value  func(r Record, age any, dob string) string
}

func rawColumn(header string, field Field) column {
	return column{header: header, value: func(r Record, _ any, _ string) string { return r.Text(field) }}
}

var tableColumns = []column{
	rawColumn("Name", FieldPatientFullName),
	rawColumn("NHI", FieldPatientNHI),
	rawColumn("Chart Number", FieldChartNumber),
	rawColumn("Gender", FieldGenderName),
	{header: "Age", value: func(_ Record, age any, _ string) string { return stringify(age) }},
	{header: "DOB", value: func(_ Record, _ any, dob string) string { return dob }},
	rawColumn("Provider", FieldProviderName),
	rawColumn("Email", FieldEmail),
	rawColumn("Phone", FieldPhoneNumber),
	rawColumn("Address", FieldFullAddress),
	rawColumn("Enrollment Date", FieldEnrollmentDate),
	rawColumn("Funding Status", FieldFundingStatus),
	rawColumn("Enrollment Status", FieldEnrollmentStatus),
}

// TableRenderer turns a SearchResult into an HTML fragment. Every record is
// rendered; there is no paging.
type TableRenderer struct {
	normalizer *Normalizer
}

// NewTableRenderer returns a renderer that derives age and DOB with n for
// records that were not enriched upstream.
func NewTableRenderer(n *Normalizer) *TableRenderer {
	if n == nil {
		n = NewNormalizer()
	}
	return &TableRenderer{normalizer: n}
}

type tableView struct {
	Count   int
	Headers []string
	Rows    [][]string
}

// Render builds the summary line and the patient table. Records are read,
// never modified.
func (t *TableRenderer) Render(result SearchResult) string {
	view := tableView{
		Count:   result.Count(),
		Headers: make([]string, 0, len(tableColumns)),
		Rows:    make([][]string, 0, result.Count()),
	}
	for _, col := range tableColumns {
		view.Headers = append(view.Headers, col.header)
	}
	for _, r := range result.Records {
		age, dob := t.derived(r)
		row := make([]string, 0, len(tableColumns))
		for _, col := range tableColumns {
			row = append(row, col.value(r, age, dob))
		}
		view.Rows = append(view.Rows, row)
	}

	var buf bytes.Buffer
	if err := tableTmpl.Execute(&buf, view); err != nil {
		return `<div class="summary-info">Found ` + strconv.Itoa(view.Count) + ` patients but the table could not be rendered</div>`
	}
	return buf.String()
}

func (t *TableRenderer) derived(r Record) (any, string) {
	age, hasAge := r[KeyCalculatedAge]
	dob, hasDOB := r[KeyFormattedDOB]
	if hasAge && hasDOB {
		return age, stringify(dob)
	}
	return t.normalizer.Derived(r)
}
