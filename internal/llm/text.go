package llm

import (
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNoChoices is returned when a completion carries no choices.
var ErrNoChoices = errors.New("llm: completion returned no choices")

// FirstMessage returns the message of the first choice.
func FirstMessage(resp openai.ChatCompletionResponse) (openai.ChatCompletionMessage, error) {
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, ErrNoChoices
	}
	return resp.Choices[0].Message, nil
}

// StripCodeFence removes a surrounding ``` or ```json fence from a reply.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
