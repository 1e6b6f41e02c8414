package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appconfig "github.com/wolfman30/patient-search-assistant/internal/config"
	"github.com/wolfman30/patient-search-assistant/pkg/logging"
)

func testConfig(recordStoreURL string) *appconfig.Config {
	return &appconfig.Config{
		Port:                  "3000",
		LogFormat:             "json",
		OpenAIBaseURL:         "https://openrouter.ai/api/v1",
		Model:                 "openai/gpt-3.5-turbo",
		MaxTokens:             1000,
		ExtractionMaxTokens:   500,
		LLMTimeout:            time.Second,
		LLMFunctionMode:       "functions",
		ResponseMode:          "narrate",
		MCPServerURL:          recordStoreURL,
		RecordStoreTimeout:    time.Second,
		SearchWatchdogTimeout: time.Second,
		DateOrder:             "day-first",
	}
}

func TestSetupMetricsExposesMetrics(t *testing.T) {
	handler, metrics := setupMetrics()
	if handler == nil || metrics == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	metrics.ObserveQuery("answered")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "patientsearch_assistant_queries_total") {
		t.Fatalf("expected query counter to be exported")
	}
}

func TestBuildHandlerWithoutLLM(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/patients" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"Success":true,"Data":[{"PatientFullName":"John Smith","PatientDOB":"1990-05-01"}]}`))
	}))
	defer backend.Close()

	metricsHandler, m := setupMetrics()
	handler, err := buildHandler(testConfig(backend.URL), logging.Discard(), m, metricsHandler)
	if err != nil {
		t.Fatalf("buildHandler: %v", err)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	var health map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["llm_initialized"] != false || health["mcp_server_url"] != backend.URL {
		t.Fatalf("unexpected health payload %v", health)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`)))
	if !strings.Contains(rr.Body.String(), "not properly initialized") {
		t.Fatalf("expected not-initialized reply, got %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"message":"find patient john smith"}`)))
	if !strings.Contains(rr.Body.String(), "John Smith") || !strings.Contains(rr.Body.String(), `"count":1`) {
		t.Fatalf("expected rendered search result, got %s", rr.Body.String())
	}
}

func TestBuildHandlerRejectsBadURL(t *testing.T) {
	_, m := setupMetrics()
	if _, err := buildHandler(testConfig("not a url"), logging.Discard(), m, nil); err == nil {
		t.Fatalf("expected error for invalid record store url")
	}
}

func TestSetupLLMWithoutKeyReturnsNil(t *testing.T) {
	client, err := setupLLM(testConfig("http://localhost:5000/api/mcp"), logging.Discard())
	if err != nil || client != nil {
		t.Fatalf("expected nil client without API key, got %v %v", client, err)
	}
}
