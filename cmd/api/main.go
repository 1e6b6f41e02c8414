package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wolfman30/patient-search-assistant/internal/api/router"
	"github.com/wolfman30/patient-search-assistant/internal/assistant"
	appconfig "github.com/wolfman30/patient-search-assistant/internal/config"
	"github.com/wolfman30/patient-search-assistant/internal/extraction"
	"github.com/wolfman30/patient-search-assistant/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/patient-search-assistant/internal/http/middleware"
	"github.com/wolfman30/patient-search-assistant/internal/llm"
	"github.com/wolfman30/patient-search-assistant/internal/observability/metrics"
	"github.com/wolfman30/patient-search-assistant/internal/patients"
	"github.com/wolfman30/patient-search-assistant/internal/recordstore"
	"github.com/wolfman30/patient-search-assistant/pkg/logging"
)

func main() {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("starting patient-search-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"mcp_server_url", cfg.MCPServerURL,
		"llm_initialized", cfg.LLMConfigured(),
	)

	metricsHandler, queryMetrics := setupMetrics()
	handler, err := buildHandler(cfg, logger, queryMetrics, metricsHandler)
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	// The LLM round trips dominate request time, so the write timeout covers
	// two completions plus the search watchdog.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      2*cfg.LLMTimeout + cfg.SearchWatchdogTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupMetrics() (http.Handler, *metrics.QueryMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), metrics.NewQueryMetrics(registry)
}

// buildHandler wires the record store, the LLM (when configured) and the
// HTTP layer. Without an API key /chat reports that the chatbot is not
// initialized while /search and /extract keep working on manual extraction.
func buildHandler(cfg *appconfig.Config, logger *logging.Logger, m *metrics.QueryMetrics, metricsHandler http.Handler) (http.Handler, error) {
	dateOrder, err := patients.ParseDateOrder(cfg.DateOrder)
	if err != nil {
		return nil, err
	}

	store, err := recordstore.New(recordstore.Config{
		BaseURL: cfg.MCPServerURL,
		Timeout: cfg.RecordStoreTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	chatClient, err := setupLLM(cfg, logger)
	if err != nil {
		return nil, err
	}

	extractor := extraction.NewExtractor(chatClient, extraction.Options{
		Model:       cfg.Model,
		MaxTokens:   cfg.ExtractionMaxTokens,
		Temperature: cfg.ToolTemperature,
		DateOrder:   dateOrder,
	}, logger, m)

	var (
		chat     handlers.QueryProcessor
		searcher handlers.Searcher
	)
	if chatClient != nil {
		a := assistant.New(chatClient, store, assistant.Options{
			Model:           cfg.Model,
			MaxTokens:       cfg.MaxTokens,
			Temperature:     cfg.Temperature,
			ToolTemperature: cfg.ToolTemperature,
			FunctionMode:    assistant.FunctionMode(cfg.LLMFunctionMode),
			ResponseMode:    assistant.ResponseMode(cfg.ResponseMode),
			SearchTimeout:   cfg.SearchWatchdogTimeout,
			SystemPrompt:    assistant.LoadSystemPrompt(cfg.SystemPromptFile, logger),
			DateOrder:       dateOrder,
		}, logger, m)
		chat, searcher = a, a
	} else {
		logger.Warn("OPENROUTER_API_KEY is not set; chat is disabled")
		searcher = assistant.NewSearcher(store, cfg.SearchWatchdogTimeout, patients.NewNormalizer(), logger, m)
	}

	var limiter *httpmiddleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	return router.New(&router.Config{
		Logger:             logger,
		Chat:               handlers.NewChatHandler(chat, logger),
		Search:             handlers.NewSearchHandler(extractor, searcher, store, logger),
		Health:             handlers.NewHealthHandler(cfg.MCPServerURL, chatClient != nil),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	}), nil
}

// setupLLM returns nil, nil when no API key is configured.
func setupLLM(cfg *appconfig.Config, logger *logging.Logger) (llm.ChatClient, error) {
	if !cfg.LLMConfigured() {
		return nil, nil
	}
	client, err := llm.NewClient(llm.Config{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Referer: cfg.HTTPReferer,
		Title:   cfg.AppTitle,
		Timeout: cfg.LLMTimeout,
	})
	if err != nil {
		return nil, err
	}
	if cfg.FallbackModel == "" {
		return client, nil
	}
	return llm.NewFallbackClient(client, nil, cfg.FallbackModel, logger), nil
}
