package extraction

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/wolfman30/patient-search-assistant/internal/patients"
)

// rule is the ordered pattern list for one field. The first pattern whose
// capture passes accept wins; later patterns are not tried.
type rule struct {
	field    patients.Field
	patterns []*regexp.Regexp
	accept   func(string) bool
	clean    func(string) string
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		out[i] = regexp.MustCompile(expr)
	}
	return out
}

// Words that must never become the value of a free-text field.
var stopWords = map[string]struct{}{
	"male": {}, "female": {}, "patient": {}, "patients": {}, "show": {}, "get": {},
	"find": {}, "all": {}, "with": {}, "by": {}, "dr": {}, "doctor": {},
	"id": {}, "nhi": {}, "chart": {}, "number": {}, "status": {}, "email": {}, "phone": {},
}

// Words that the code-like fields (email, NHI, chart) tend to capture from
// phrasing such as "email containing ..." or "nhi starting with ...".
var connectives = map[string]struct{}{
	"like": {}, "containing": {}, "address": {}, "is": {}, "number": {},
	"starting": {}, "no": {}, "num": {}, "with": {},
}

var (
	maleWords   = []string{"male", "males", "man", "men"}
	femaleWords = []string{"female", "females", "woman", "women"}
)

var (
	emptyStatusPhrases = []string{"enrollment status is empty", "status is empty"}
	idFallbackRE       = regexp.MustCompile(`\b(\d{5,})\b`)
)

var idRule = rule{
	field: patients.FieldPatientID,
	patterns: compileAll(
		`patient\s+id\s+(\d+)`,
		`id\s+(\d+)`,
		`patient\s+(\d{6,})`,
		`id:\s*(\d+)`,
		`patient\s+number\s+(\d+)`,
		`find\s+patient\s+by\s+id\s+(\d+)`,
		`show\s+patient\s+id\s+(\d+)`,
		`get\s+patient\s+id\s+(\d+)`,
		`patient\s+with\s+id\s+(\d+)`,
		`id\s+is\s+(\d+)`,
	),
	accept: nonEmpty,
}

var fieldRules = []rule{
	{
		field: patients.FieldPatientFullName,
		patterns: compileAll(
			`name\s+(?:is\s+)?["']?([a-zA-Z\s]+)["']?`,
			`patient\s+(?:named\s+)?["']?([a-zA-Z\s]+)["']?(?:\s+(?:in|from))?`,
			`full\s+name\s+(?:is\s+)?["']?([a-zA-Z\s]+)["']?`,
			`whose\s+(?:full\s+)?name\s+(?:is\s+)?["']?([a-zA-Z\s]+)["']?`,
			`find\s+(?:patient\s+)?["']?([a-zA-Z\s]+)["']?(?:\s+(?:in|from))?`,
			`search\s+(?:for\s+)?(?:patient\s+)?["']?([a-zA-Z\s]+)["']?`,
			`named\s+["']?([a-zA-Z\s]+)["']?`,
		),
		accept: freeTextWord,
	},
	{
		field: patients.FieldPatientNHI,
		patterns: compileAll(
			`nhi\s+(?:number\s+)?(?:is\s+)?["']?([A-Za-z0-9]+)["']?`,
			`patient\s+nhi\s+["']?([A-Za-z0-9]+)["']?`,
			`nhi\s+["']?([A-Za-z0-9]+)["']?`,
			`with\s+nhi\s+["']?([A-Za-z0-9]+)["']?`,
			`nhi\s+starting\s+with\s+["']?([A-Za-z0-9]+)["']?`,
			`get\s+patient\s+nhi\s+["']?([A-Za-z0-9]+)["']?`,
		),
		accept: notConnective,
		clean:  strings.ToUpper,
	},
	{
		field: patients.FieldChartNumber,
		patterns: compileAll(
			`chart\s+number\s+(?:like\s+)?["']?([A-Za-z0-9]+)["']?`,
			`chart\s+(?:number\s+)?["']?([A-Za-z0-9]+)["']?`,
			`with\s+chart\s+number\s+["']?([A-Za-z0-9]+)["']?`,
			`chart\s+(?:no|num)\s+["']?([A-Za-z0-9]+)["']?`,
			`medical\s+chart\s+["']?([A-Za-z0-9]+)["']?`,
		),
		accept: notConnective,
	},
	{
		field: patients.FieldPatientDOB,
		patterns: compileAll(
			`born\s+on\s+(\d{4}-\d{2}-\d{2})`,
			`dob\s+(\d{4}-\d{2}-\d{2})`,
			`date\s+of\s+birth\s+(\d{4}-\d{2}-\d{2})`,
			`birth\s+date\s+(\d{4}-\d{2}-\d{2})`,
			`born\s+(\d{4}-\d{2}-\d{2})`,
			`dob\s+(\d{2}/\d{2}/\d{4})`,
			`born\s+on\s+(\d{2}/\d{2}/\d{4})`,
			`born\s+in\s+(\d{4})`,
			`dob\s+includes?\s+(\d{4})`,
			`birth.*?(\d{4}-\d{2}-\d{2})`,
		),
		accept: nonEmpty,
	},
	{
		field: patients.FieldProviderName,
		patterns: compileAll(
			`(?:by\s+)?(?:dr\.?\s+|doctor\s+)([a-zA-Z\s]+)`,
			`provider\s+(?:name\s+)?(?:is\s+)?["']?([a-zA-Z\s]+)["']?`,
			`with\s+provider\s+["']?([a-zA-Z\s]+)["']?`,
			`assigned\s+to\s+(?:dr\.?\s+)?["']?([a-zA-Z\s]+)["']?`,
			`under\s+(?:dr\.?\s+)?["']?([a-zA-Z\s]+)["']?`,
		),
		accept: freeTextWord,
	},
	{
		field: patients.FieldEmail,
		patterns: compileAll(
			`email\s+(?:like\s+)?["']?([a-zA-Z0-9@._-]+)["']?`,
			`with\s+email\s+["']?([a-zA-Z0-9@._-]+)["']?`,
			`email\s+(?:address\s+)?["']?([a-zA-Z0-9@._-]+)["']?`,
			`email\s+containing\s+["']?([a-zA-Z0-9@._-]+)["']?`,
		),
		accept: notConnective,
	},
	{
		field: patients.FieldPhoneNumber,
		patterns: compileAll(
			`phone\s+(?:number\s+)?(?:like\s+|containing\s+)?["']?([0-9\-\s\(\)]+)["']?`,
			`with\s+phone\s+(?:number\s+)?["']?([0-9\-\s\(\)]+)["']?`,
			`phone\s+["']?([0-9\-\s\(\)]+)["']?`,
			`contact\s+(?:number\s+)?["']?([0-9\-\s\(\)]+)["']?`,
		),
		accept: hasDigit,
	},
	{
		field: patients.FieldFullAddress,
		patterns: compileAll(
			`(?:from\s+)?address\s+["']?([a-zA-Z0-9\s,.-]+)["']?`,
			`(?:at\s+|from\s+)["']?([a-zA-Z0-9\s,.-]+\s+(?:street|road|avenue|ave|st|rd))["']?`,
			`lives?\s+(?:at\s+)?["']?([a-zA-Z0-9\s,.-]+)["']?`,
			`address\s+(?:like\s+)?["']?([a-zA-Z0-9\s,.-]+)["']?`,
		),
		accept: func(v string) bool { return len(v) > 2 && !hasStopWord(v) },
	},
	{
		field: patients.FieldEnrollmentDate,
		patterns: compileAll(
			`enrolled\s+on\s+(\d{4}-\d{2}-\d{2})`,
			`enrollment\s+date\s+(\d{4}-\d{2}-\d{2})`,
			`enrolled\s+(\d{4}-\d{2}-\d{2})`,
			`enrollment\s+(\d{2}/\d{2}/\d{4})`,
			`enrolled\s+in\s+(\d{4})`,
			`enrollment.*?(\d{4}-\d{2}-\d{2})`,
		),
		accept: nonEmpty,
	},
	{
		field: patients.FieldFundingStatus,
		patterns: compileAll(
			`funding\s+status\s+(?:is\s+)?["']?([a-zA-Z\s]+)["']?`,
			`with\s+funding\s+(?:status\s+)?["']?([a-zA-Z\s]+)["']?`,
			`funding\s+["']?([a-zA-Z\s]+)["']?`,
			`funded\s+by\s+["']?([a-zA-Z\s]+)["']?`,
		),
		accept: freeTextWord,
	},
	{
		field: patients.FieldEnrollmentStatus,
		patterns: compileAll(
			`enrollment\s+status\s+(?:is\s+)?["']?([a-zA-Z\s]*)["']?`,
			`with\s+(?:enrollment\s+)?status\s+["']?([a-zA-Z\s]*)["']?`,
			`status\s+(?:is\s+)?["']?([a-zA-Z\s]*)["']?`,
			`enrollment\s+(?:is\s+)?["']?([a-zA-Z\s]*)["']?`,
		),
		accept: statusWord,
	},
}

// match returns the first accepted capture for r.
func (r rule) match(text string) (string, bool) {
	for _, re := range r.patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v := strings.TrimSpace(m[1])
		if !r.accept(v) {
			continue
		}
		if r.clean != nil {
			v = r.clean(v)
		}
		return v, true
	}
	return "", false
}

func nonEmpty(v string) bool { return v != "" }

// statusWord rejects "date" so "enrollment date ..." stays with EnrollmentDate.
func statusWord(v string) bool {
	w := words(v)
	return len(w) > 0 && w[0] != "date"
}

func notConnective(v string) bool {
	if v == "" {
		return false
	}
	_, ok := connectives[v]
	return !ok
}

// freeTextWord accepts alphabetic text (spaces allowed) longer than one
// character that contains no stop word.
func freeTextWord(v string) bool {
	if len(v) <= 1 || hasStopWord(v) {
		return false
	}
	for _, r := range v {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func hasStopWord(v string) bool {
	for _, w := range words(v) {
		if _, ok := stopWords[w]; ok {
			return true
		}
	}
	return false
}

func hasDigit(v string) bool {
	return strings.IndexFunc(v, unicode.IsDigit) >= 0
}

func words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsAny(tokens []string, set []string) bool {
	for _, t := range tokens {
		for _, s := range set {
			if t == s {
				return true
			}
		}
	}
	return false
}
