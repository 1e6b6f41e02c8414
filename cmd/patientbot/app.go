package main

import (
	"context"
	"errors"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wolfman30/patient-search-assistant/internal/assistant"
	appconfig "github.com/wolfman30/patient-search-assistant/internal/config"
	"github.com/wolfman30/patient-search-assistant/internal/extraction"
	"github.com/wolfman30/patient-search-assistant/internal/llm"
	"github.com/wolfman30/patient-search-assistant/internal/observability/metrics"
	"github.com/wolfman30/patient-search-assistant/internal/patients"
	"github.com/wolfman30/patient-search-assistant/internal/recordstore"
	"github.com/wolfman30/patient-search-assistant/pkg/logging"
)

var errChatDisabled = errors.New("OPENROUTER_API_KEY is not set; chat is disabled")

type asker interface {
	ProcessQuery(ctx context.Context, text string) string
}

type filterExtractor interface {
	ExtractManual(text string) patients.SearchFilter
	ExtractWithLLM(ctx context.Context, text string) patients.SearchFilter
}

type searcher interface {
	Search(ctx context.Context, filter patients.SearchFilter) patients.SearchResult
}

type patientGetter interface {
	Get(ctx context.Context, id string) (patients.SearchResult, error)
}

// app holds the collaborators the commands use. assistant is nil when no
// LLM is configured.
type app struct {
	assistant asker
	extractor filterExtractor
	searcher  searcher
	records   patientGetter
	renderer  *patients.TableRenderer
}

// loadApp builds the collaborators from the environment. Logs go to stderr
// so stdout carries only answers.
func loadApp() (*app, error) {
	cfg := appconfig.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: "text", Writer: os.Stderr})
	dateOrder, err := patients.ParseDateOrder(cfg.DateOrder)
	if err != nil {
		return nil, err
	}
	// The CLI exposes no /metrics endpoint; counters go to a private registry.
	m := metrics.NewQueryMetrics(prometheus.NewRegistry())

	store, err := recordstore.New(recordstore.Config{BaseURL: cfg.MCPServerURL, Timeout: cfg.RecordStoreTimeout}, logger)
	if err != nil {
		return nil, err
	}

	var client llm.ChatClient
	if cfg.LLMConfigured() {
		c, err := llm.NewClient(llm.Config{
			APIKey:  cfg.OpenRouterAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Referer: cfg.HTTPReferer,
			Title:   cfg.AppTitle,
			Timeout: cfg.LLMTimeout,
		})
		if err != nil {
			return nil, err
		}
		client = c
		if cfg.FallbackModel != "" {
			client = llm.NewFallbackClient(c, nil, cfg.FallbackModel, logger)
		}
	}

	normalizer := patients.NewNormalizer()
	out := &app{
		extractor: extraction.NewExtractor(client, extraction.Options{
			Model:       cfg.Model,
			MaxTokens:   cfg.ExtractionMaxTokens,
			Temperature: cfg.ToolTemperature,
			DateOrder:   dateOrder,
		}, logger, m),
		records:  store,
		renderer: patients.NewTableRenderer(normalizer),
	}
	if client == nil {
		logger.Warn(errChatDisabled.Error())
		out.searcher = assistant.NewSearcher(store, cfg.SearchWatchdogTimeout, normalizer, logger, m)
		return out, nil
	}

	a := assistant.New(client, store, assistant.Options{
		Model:           cfg.Model,
		MaxTokens:       cfg.MaxTokens,
		Temperature:     cfg.Temperature,
		ToolTemperature: cfg.ToolTemperature,
		FunctionMode:    assistant.FunctionMode(cfg.LLMFunctionMode),
		// The terminal cannot show HTML tables, so the LLM always narrates.
		ResponseMode:  assistant.ResponseModeNarrate,
		SearchTimeout: cfg.SearchWatchdogTimeout,
		SystemPrompt:  assistant.LoadSystemPrompt(cfg.SystemPromptFile, logger),
		DateOrder:     dateOrder,
	}, logger, m)
	out.assistant = a
	out.searcher = a
	return out, nil
}
