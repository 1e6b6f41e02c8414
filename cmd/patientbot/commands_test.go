package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/patient-search-assistant/internal/patients"
)

type scriptedAsker struct{ asked []string }

func (s *scriptedAsker) ProcessQuery(_ context.Context, text string) string {
	s.asked = append(s.asked, text)
	return "answer to " + text
}

type fixedExtractor struct{ usedLLM bool }

func (f *fixedExtractor) ExtractManual(text string) patients.SearchFilter {
	filter := patients.NewSearchFilter()
	filter.Set(patients.FieldPatientFullName, text)
	return filter
}

func (f *fixedExtractor) ExtractWithLLM(_ context.Context, text string) patients.SearchFilter {
	f.usedLLM = true
	return f.ExtractManual(text)
}

type fixedSearcher struct{ result patients.SearchResult }

func (f fixedSearcher) Search(context.Context, patients.SearchFilter) patients.SearchResult {
	return f.result
}

type fixedGetter struct {
	result patients.SearchResult
	err    error
}

func (f fixedGetter) Get(context.Context, string) (patients.SearchResult, error) {
	return f.result, f.err
}

func runCommand(t *testing.T, a *app, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(func() (*app, error) { return a, nil })
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func testApp(asker asker) *app {
	found := patients.SearchResult{Success: true, Records: []patients.Record{{"PatientFullName": "Jane Doe"}}}
	return &app{
		assistant: asker,
		extractor: &fixedExtractor{},
		searcher:  fixedSearcher{result: found},
		records:   fixedGetter{result: found},
		renderer:  patients.NewTableRenderer(nil),
	}
}

func TestChatSkipsBlankLinesAndStopsOnExitWord(t *testing.T) {
	asker := &scriptedAsker{}
	out, err := runCommand(t, testApp(asker), "show all patients\n\n   \nBYE\nnever asked\n", "chat")
	require.NoError(t, err)

	assert.Equal(t, []string{"show all patients"}, asker.asked)
	assert.Contains(t, out, "You: ")
	assert.Contains(t, out, "│ answer to show all patients")
	assert.Contains(t, out, "Goodbye!")
}

func TestChatEndsAtEOF(t *testing.T) {
	asker := &scriptedAsker{}
	_, err := runCommand(t, testApp(asker), "first\nsecond", "chat")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, asker.asked)
}

func TestChatWithoutLLMFails(t *testing.T) {
	_, err := runCommand(t, testApp(nil), "", "chat")
	assert.ErrorIs(t, err, errChatDisabled)
}

func TestAskJoinsArguments(t *testing.T) {
	asker := &scriptedAsker{}
	out, err := runCommand(t, testApp(asker), "", "ask", "patients", "named", "jane")
	require.NoError(t, err)
	assert.Equal(t, []string{"patients named jane"}, asker.asked)
	assert.Contains(t, out, "answer to patients named jane")
}

func TestExtractPrintsFilter(t *testing.T) {
	a := testApp(nil)
	out, err := runCommand(t, a, "", "extract", "--llm", "jane")
	require.NoError(t, err)
	assert.True(t, a.extractor.(*fixedExtractor).usedLLM)
	assert.JSONEq(t, `{"PatientFullName":"jane"}`, out)
}

func TestSearchPrintsTable(t *testing.T) {
	out, err := runCommand(t, testApp(nil), "", "search", "jane")
	require.NoError(t, err)
	assert.Contains(t, out, "<td>Jane Doe</td>")
	assert.Contains(t, out, "Found 1 patients in the live database")
}

func TestSearchFailureIsAnError(t *testing.T) {
	a := testApp(nil)
	a.searcher = fixedSearcher{result: patients.Failure("Request timed out")}
	_, err := runCommand(t, a, "", "search", "jane")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Request timed out")
}

func TestGetPropagatesErrors(t *testing.T) {
	a := testApp(nil)
	a.records = fixedGetter{err: errors.New("recordstore: unexpected status: 404")}
	_, err := runCommand(t, a, "", "get", "42")
	require.Error(t, err)

	out, err := runCommand(t, testApp(nil), "", "get", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "Jane Doe")
}

func TestLoadErrorStopsCommand(t *testing.T) {
	cmd := newRootCommand(func() (*app, error) { return nil, errors.New("bad config") })
	cmd.SetArgs([]string{"search", "x"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.EqualError(t, cmd.Execute(), "bad config")
}
