package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// LLM (any OpenAI-compatible endpoint, OpenRouter by default)
	OpenRouterAPIKey    string
	OpenAIBaseURL       string
	Model               string
	FallbackModel       string
	MaxTokens           int
	ExtractionMaxTokens int
	Temperature         float32
	ToolTemperature     float32
	LLMTimeout          time.Duration
	LLMFunctionMode     string
	ResponseMode        string
	HTTPReferer         string
	AppTitle            string

	// Record store
	MCPServerURL          string
	RecordStoreTimeout    time.Duration
	SearchWatchdogTimeout time.Duration

	DateOrder          string
	SystemPromptFile   string
	CORSAllowedOrigins []string
	// RateLimitRPS <= 0 disables per-client limiting of /chat and /search.
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "3000"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		OpenRouterAPIKey:    getEnv("OPENROUTER_API_KEY", ""),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", "https://openrouter.ai/api/v1"),
		Model:               getEnv("OPENROUTER_MODEL", "openai/gpt-3.5-turbo"),
		FallbackModel:       getEnv("LLM_FALLBACK_MODEL", ""),
		MaxTokens:           getEnvAsInt("MAX_TOKENS", 1000),
		ExtractionMaxTokens: getEnvAsInt("EXTRACTION_MAX_TOKENS", 500),
		Temperature:         getEnvAsFloat32("TEMPERATURE", 0.7),
		ToolTemperature:     getEnvAsFloat32("TOOL_TEMPERATURE", 0.1),
		LLMTimeout:          getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
		LLMFunctionMode:     strings.ToLower(getEnv("LLM_FUNCTION_MODE", "functions")),
		ResponseMode:        strings.ToLower(getEnv("RESPONSE_MODE", "narrate")),
		HTTPReferer:         getEnv("HTTP_REFERER", ""),
		AppTitle:            getEnv("APP_TITLE", "Medical Assistant Chatbot"),

		MCPServerURL:          getEnv("MCP_SERVER_URL", "http://localhost:5000/api/mcp"),
		RecordStoreTimeout:    getEnvAsDuration("RECORD_STORE_TIMEOUT", 30*time.Second),
		SearchWatchdogTimeout: getEnvAsDuration("SEARCH_WATCHDOG_TIMEOUT", 15*time.Second),

		DateOrder:          strings.ToLower(getEnv("DATE_ORDER", "day-first")),
		SystemPromptFile:   getEnv("SYSTEM_PROMPT_FILE", "prompts/mcp_prompt.txt"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:       float64(getEnvAsFloat32("RATE_LIMIT_RPS", 2)),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),
	}
}

// LLMConfigured reports whether an API key is present.
func (c *Config) LLMConfigured() bool {
	return strings.TrimSpace(c.OpenRouterAPIKey) != ""
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	} else if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT must be numeric, got %q", c.Port))
	}
	if err := validateURL("MCP_SERVER_URL", c.MCPServerURL); err != nil {
		errs = append(errs, err)
	}
	if err := validateURL("OPENAI_BASE_URL", c.OpenAIBaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("MAX_TOKENS must be positive, got %d", c.MaxTokens))
	}
	if c.ExtractionMaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("EXTRACTION_MAX_TOKENS must be positive, got %d", c.ExtractionMaxTokens))
	}
	if c.Temperature < 0 || c.Temperature > 2 || c.ToolTemperature < 0 || c.ToolTemperature > 2 {
		errs = append(errs, errors.New("TEMPERATURE and TOOL_TEMPERATURE must be between 0 and 2"))
	}
	for name, d := range map[string]time.Duration{
		"LLM_TIMEOUT":             c.LLMTimeout,
		"RECORD_STORE_TIMEOUT":    c.RecordStoreTimeout,
		"SEARCH_WATCHDOG_TIMEOUT": c.SearchWatchdogTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if !oneOf(c.LLMFunctionMode, "functions", "tools") {
		errs = append(errs, fmt.Errorf("LLM_FUNCTION_MODE must be functions or tools, got %q", c.LLMFunctionMode))
	}
	if !oneOf(c.ResponseMode, "narrate", "table") {
		errs = append(errs, fmt.Errorf("RESPONSE_MODE must be narrate or table, got %q", c.ResponseMode))
	}
	if !oneOf(c.DateOrder, "day-first", "month-first") {
		errs = append(errs, fmt.Errorf("DATE_ORDER must be day-first or month-first, got %q", c.DateOrder))
	}
	if !oneOf(strings.ToLower(c.LogFormat), "json", "text") {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

func validateURL(name, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	// Bare numbers are seconds.
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
