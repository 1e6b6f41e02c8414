package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
	"github.com/wolfman30/patient-search-assistant/pkg/logging"
)

// FallbackClient retries a failed completion once against a fallback model.
type FallbackClient struct {
	primary       ChatClient
	fallback      ChatClient
	fallbackModel string
	logger        *logging.Logger
}

// NewFallbackClient wraps primary. When fallback is nil the primary client is
// reused with fallbackModel swapped into the request.
func NewFallbackClient(primary, fallback ChatClient, fallbackModel string, logger *logging.Logger) *FallbackClient {
	if primary == nil {
		panic("llm: primary chat client cannot be nil")
	}
	if fallback == nil {
		fallback = primary
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackClient{
		primary:       primary,
		fallback:      fallback,
		fallbackModel: fallbackModel,
		logger:        logger,
	}
}

// CreateChatCompletion implements ChatClient.
func (c *FallbackClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	resp, err := c.primary.CreateChatCompletion(ctx, req)
	if err == nil {
		return resp, nil
	}
	if c.fallbackModel == "" || ctx.Err() != nil {
		return resp, err
	}

	c.logger.Warn("primary LLM failed, attempting fallback",
		"error", err.Error(),
		"model", req.Model,
		"fallback_model", c.fallbackModel,
	)
	req.Model = c.fallbackModel
	fallbackResp, fallbackErr := c.fallback.CreateChatCompletion(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback LLM also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return fallbackResp, fallbackErr
	}
	c.logger.Info("fallback LLM succeeded after primary failure")
	return fallbackResp, nil
}
