package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/wolfman30/patient-search-assistant/internal/llm"
	"github.com/wolfman30/patient-search-assistant/internal/observability/metrics"
	"github.com/wolfman30/patient-search-assistant/internal/patients"
	"github.com/wolfman30/patient-search-assistant/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("patientsearch.internal.assistant")

const (
	noResponseMessage = "No response received"
	errorPrefix       = "Sorry, I encountered an error: "
)

// FunctionMode selects how the search function is offered to the LLM.
type FunctionMode string

const (
	// FunctionModeFunctions sends functions + function_call:"auto".
	FunctionModeFunctions FunctionMode = "functions"
	// FunctionModeTools sends tools + tool_choice:"auto".
	FunctionModeTools FunctionMode = "tools"
)

// ResponseMode selects what the user gets back after a search.
type ResponseMode string

const (
	// ResponseModeNarrate asks the LLM to narrate the search result.
	ResponseModeNarrate ResponseMode = "narrate"
	// ResponseModeTable returns the rendered table without a second turn.
	ResponseModeTable ResponseMode = "table"
)

// RecordStore runs filter searches against the patient database.
type RecordStore interface {
	Search(ctx context.Context, filter patients.SearchFilter) (patients.SearchResult, error)
}

// Options configures the assistant. Zero values fall back to defaults.
type Options struct {
	Model           string
	MaxTokens       int
	Temperature     float32
	ToolTemperature float32
	FunctionMode    FunctionMode
	ResponseMode    ResponseMode
	SearchTimeout   time.Duration
	SystemPrompt    string
	DateOrder       patients.DateOrder
	// Now overrides the clock used for age calculation. Tests only.
	Now func() time.Time
}

// Assistant answers natural-language questions about patients by letting the
// LLM decide whether to call the search function, running that search, and
// asking the LLM to narrate the result. It holds no per-query state.
type Assistant struct {
	client   llm.ChatClient
	searcher *Searcher
	opts     Options
	renderer *patients.TableRenderer
	logger   *logging.Logger
	metrics  *metrics.QueryMetrics
}

// New builds an Assistant.
func New(client llm.ChatClient, store RecordStore, opts Options, logger *logging.Logger, m *metrics.QueryMetrics) *Assistant {
	if client == nil {
		panic("assistant: chat client cannot be nil")
	}
	if store == nil {
		panic("assistant: record store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Model == "" {
		opts.Model = "openai/gpt-3.5-turbo"
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1000
	}
	if opts.FunctionMode == "" {
		opts.FunctionMode = FunctionModeFunctions
	}
	if opts.ResponseMode == "" {
		opts.ResponseMode = ResponseModeNarrate
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = defaultSearchTimeout
	}
	if strings.TrimSpace(opts.SystemPrompt) == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.DateOrder == "" {
		opts.DateOrder = patients.DayFirst
	}

	normalizer := patients.NewNormalizer()
	if opts.Now != nil {
		normalizer = patients.NewNormalizerWithClock(opts.Now)
	}
	return &Assistant{
		client:   client,
		searcher: NewSearcher(store, opts.SearchTimeout, normalizer, logger, m),
		opts:     opts,
		renderer: patients.NewTableRenderer(normalizer),
		logger:   logger,
		metrics:  m,
	}
}

type state int

const (
	awaitingDecision state = iota
	toolInvocation
	awaitingNarration
	directAnswer
	finalAnswer
)

// call is one function invocation proposed by the LLM.
type call struct {
	id        string
	name      string
	arguments string
}

// query carries the state of one ProcessQuery run.
type query struct {
	state    state
	messages []openai.ChatCompletionMessage
	calls    []call
	results  []patients.SearchResult
	answer   string
	outcome  string
}

// ProcessQuery answers text. It never returns an error: failures become an
// apologetic message. Cancelling ctx does not abort LLM or record store calls
// that are already running; each is bounded by its own timeout.
func (a *Assistant) ProcessQuery(ctx context.Context, text string) string {
	ctx = context.WithoutCancel(ctx)
	q := &query{
		state: awaitingDecision,
		messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: a.opts.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	}

	for q.state != directAnswer && q.state != finalAnswer {
		switch q.state {
		case awaitingDecision:
			a.decide(ctx, q)
		case toolInvocation:
			a.invoke(ctx, q)
		case awaitingNarration:
			a.narrate(ctx, q)
		}
	}

	a.metrics.ObserveQuery(q.outcome)
	return q.answer
}

func (a *Assistant) decide(ctx context.Context, q *query) {
	ctx, span := tracer.Start(ctx, "assistant.decide")
	defer span.End()

	req := openai.ChatCompletionRequest{
		Model:       a.opts.Model,
		Messages:    q.messages,
		Temperature: a.opts.ToolTemperature,
		MaxTokens:   a.opts.MaxTokens,
	}
	if a.opts.FunctionMode == FunctionModeTools {
		req.Tools = []openai.Tool{searchTool()}
		req.ToolChoice = "auto"
	} else {
		req.Functions = []openai.FunctionDefinition{SearchFunction()}
		req.FunctionCall = "auto"
	}

	msg, err := a.complete(ctx, "decide", req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.fail(q, err)
		return
	}

	switch {
	case msg.FunctionCall != nil:
		q.calls = []call{{name: msg.FunctionCall.Name, arguments: msg.FunctionCall.Arguments}}
		q.messages = append(q.messages, openai.ChatCompletionMessage{
			Role:         openai.ChatMessageRoleAssistant,
			Content:      msg.Content,
			FunctionCall: msg.FunctionCall,
		})
	case len(msg.ToolCalls) > 0:
		toolCalls := make([]openai.ToolCall, len(msg.ToolCalls))
		copy(toolCalls, msg.ToolCalls)
		for i := range toolCalls {
			if toolCalls[i].ID == "" {
				toolCalls[i].ID = syntheticCallID()
			}
			if toolCalls[i].Type == "" {
				toolCalls[i].Type = openai.ToolTypeFunction
			}
			q.calls = append(q.calls, call{
				id:        toolCalls[i].ID,
				name:      toolCalls[i].Function.Name,
				arguments: toolCalls[i].Function.Arguments,
			})
		}
		q.messages = append(q.messages, openai.ChatCompletionMessage{
			Role:      openai.ChatMessageRoleAssistant,
			Content:   msg.Content,
			ToolCalls: toolCalls,
		})
	default:
		q.answer = msg.Content
		if strings.TrimSpace(q.answer) == "" {
			q.answer = noResponseMessage
		}
		q.outcome = "direct"
		q.state = directAnswer
		return
	}

	span.SetAttributes(attribute.Int("assistant.call_count", len(q.calls)))
	q.state = toolInvocation
}

func (a *Assistant) invoke(ctx context.Context, q *query) {
	for _, c := range q.calls {
		res := a.execute(ctx, c)
		q.results = append(q.results, res)

		payload, err := resultPayload(res)
		if err != nil {
			a.fail(q, err)
			return
		}
		if c.id != "" {
			q.messages = append(q.messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Name:       c.name,
				ToolCallID: c.id,
				Content:    payload,
			})
		} else {
			q.messages = append(q.messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleFunction,
				Name:    c.name,
				Content: payload,
			})
		}
	}

	if a.opts.ResponseMode == ResponseModeTable {
		q.answer = a.formatResults(q.results)
		q.outcome = "table"
		q.state = finalAnswer
		return
	}
	q.state = awaitingNarration
}

func (a *Assistant) narrate(ctx context.Context, q *query) {
	ctx, span := tracer.Start(ctx, "assistant.narrate")
	defer span.End()

	msg, err := a.complete(ctx, "narrate", openai.ChatCompletionRequest{
		Model:       a.opts.Model,
		Messages:    q.messages,
		Temperature: a.opts.Temperature,
		MaxTokens:   a.opts.MaxTokens,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.fail(q, err)
		return
	}

	q.answer = msg.Content
	if strings.TrimSpace(q.answer) == "" {
		a.logger.Warn("narration turn returned empty content, using rendered result")
		q.answer = a.formatResults(q.results)
	}
	q.outcome = "answered"
	q.state = finalAnswer
}

func (a *Assistant) complete(ctx context.Context, turn string, req openai.ChatCompletionRequest) (openai.ChatCompletionMessage, error) {
	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		a.metrics.ObserveLLM(turn, "error")
		return openai.ChatCompletionMessage{}, fmt.Errorf("assistant: %s completion: %w", turn, err)
	}
	msg, err := llm.FirstMessage(resp)
	if err != nil {
		a.metrics.ObserveLLM(turn, "error")
		return openai.ChatCompletionMessage{}, fmt.Errorf("assistant: %s completion: %w", turn, err)
	}
	a.metrics.ObserveLLM(turn, "ok")
	return msg, nil
}

func (a *Assistant) fail(q *query, err error) {
	a.logger.Error("query failed", "error", err)
	q.answer = errorPrefix + err.Error()
	q.outcome = "error"
	q.state = finalAnswer
}

// formatResults renders successful results as tables and failures as
// "Error: <message>".
func (a *Assistant) formatResults(results []patients.SearchResult) string {
	parts := make([]string, 0, len(results))
	for _, res := range results {
		if res.Success {
			parts = append(parts, a.renderer.Render(res))
			continue
		}
		msg := res.Message
		if msg == "" {
			msg = "Unknown error"
		}
		parts = append(parts, "Error: "+msg)
	}
	if len(parts) == 0 {
		return noResponseMessage
	}
	return strings.Join(parts, "\n")
}
