package handlers

import "net/http"

// HealthHandler reports liveness and whether the LLM is configured.
type HealthHandler struct {
	recordStoreURL string
	llmInitialized bool
}

func NewHealthHandler(recordStoreURL string, llmInitialized bool) *HealthHandler {
	return &HealthHandler{recordStoreURL: recordStoreURL, llmInitialized: llmInitialized}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"mcp_server_url":  h.recordStoreURL,
		"llm_initialized": h.llmInitialized,
	})
}
