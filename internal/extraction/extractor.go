package extraction

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/wolfman30/patient-search-assistant/internal/llm"
	"github.com/wolfman30/patient-search-assistant/internal/observability/metrics"
	"github.com/wolfman30/patient-search-assistant/internal/patients"
	"github.com/wolfman30/patient-search-assistant/pkg/logging"
)

const extractionSystemPrompt = "You are a parameter extraction assistant. Extract only the mentioned parameters and return valid JSON."

// Options tunes the LLM extraction request.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float32
	DateOrder   patients.DateOrder
}

// Extractor turns free text into a SearchFilter, preferring the LLM and
// falling back to the rule tables on any failure.
type Extractor struct {
	client  llm.ChatClient
	opts    Options
	logger  *logging.Logger
	metrics *metrics.QueryMetrics
}

// NewExtractor builds an extractor. A nil client makes ExtractWithLLM behave
// like ExtractManual.
func NewExtractor(client llm.ChatClient, opts Options, logger *logging.Logger, m *metrics.QueryMetrics) *Extractor {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 500
	}
	if opts.DateOrder == "" {
		opts.DateOrder = patients.DayFirst
	}
	return &Extractor{client: client, opts: opts, logger: logger, metrics: m}
}

// ExtractManual runs the deterministic rules with the configured date order.
func (e *Extractor) ExtractManual(text string) patients.SearchFilter {
	e.metrics.ObserveExtraction("manual")
	return ExtractManual(text, e.opts.DateOrder)
}

// ExtractWithLLM asks the LLM for the filter as JSON. Callers never see an
// error: any failure yields the rule-based filter instead.
func (e *Extractor) ExtractWithLLM(ctx context.Context, text string) patients.SearchFilter {
	if e.client == nil {
		return e.ExtractManual(text)
	}
	filter, err := e.extractWithLLM(context.WithoutCancel(ctx), text)
	if err != nil {
		e.logger.Warn("llm parameter extraction failed, using rules", "error", err)
		e.metrics.ObserveExtraction("fallback")
		return ExtractManual(text, e.opts.DateOrder)
	}
	e.metrics.ObserveExtraction("llm")
	e.logger.Debug("llm extracted filter", "filter", filter.WireParams())
	return filter
}

func (e *Extractor) extractWithLLM(ctx context.Context, text string) (patients.SearchFilter, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: extractionPrompt(text)},
		},
		Temperature: e.opts.Temperature,
		MaxTokens:   e.opts.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction: completion: %w", err)
	}
	msg, err := llm.FirstMessage(resp)
	if err != nil {
		return nil, fmt.Errorf("extraction: %w", err)
	}
	content := llm.StripCodeFence(msg.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrInvalidArguments)
	}
	return ParseFilterArguments(content, e.opts.DateOrder)
}

func extractionPrompt(text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Extract patient search parameters from this user query: %q\n\n", text)
	b.WriteString("Available parameters (return only the ones mentioned):\n")
	for _, spec := range patients.Specs() {
		fmt.Fprintf(&b, "- %s: %s\n", spec.Field, spec.Description)
	}
	b.WriteString(`
Return ONLY a JSON object with the extracted parameters. Examples:
- "show male patients" → {"GenderName": "male"}
- "find patient John Smith" → {"PatientFullName": "John Smith"}
- "patient with chart number 786" → {"ChartNumber": "786"}
- "show patients by Dr. Johnson" → {"ProviderName": "Dr. Johnson"}
- "enrollment status is empty" → {"EnrollmentStatus": ""}

JSON:`)
	return b.String()
}
