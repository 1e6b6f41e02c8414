package handlers

import (
	"context"
	_ "embed"
	"net/http"
	"strings"

	"github.com/wolfman30/patient-search-assistant/pkg/logging"
)

const (
	emptyMessageReply   = "Please enter a message."
	notInitializedReply = "Chatbot is not properly initialized. Please check the configuration."
)

//go:embed static/index.html
var indexHTML []byte

// QueryProcessor answers one chat message.
type QueryProcessor interface {
	ProcessQuery(ctx context.Context, text string) string
}

// ChatHandler serves the chat page and the /chat endpoint.
type ChatHandler struct {
	assistant QueryProcessor
	logger    *logging.Logger
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// NewChatHandler builds the handler. A nil assistant is allowed: /chat then
// reports that the chatbot is not initialized.
func NewChatHandler(assistant QueryProcessor, logger *logging.Logger) *ChatHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{assistant: assistant, logger: logger}
}

// Index serves the embedded chat page.
func (h *ChatHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(indexHTML)
}

// Chat handles POST /chat {"message": "..."} and replies {"response": "..."}.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatResponse{Response: "Error: " + err.Error()})
		return
	}
	if h.assistant == nil {
		writeJSON(w, http.StatusOK, chatResponse{Response: notInitializedReply})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusOK, chatResponse{Response: emptyMessageReply})
		return
	}

	h.logger.Debug("processing chat message", "message", message)
	answer := h.assistant.ProcessQuery(r.Context(), message)
	h.logger.Info("chat message answered", "message_chars", len(message), "response_chars", len(answer))
	writeJSON(w, http.StatusOK, chatResponse{Response: answer})
}
