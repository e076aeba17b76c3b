package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/spigell/resumematch/internal/ai"
	"github.com/spigell/resumematch/internal/logger"
	"github.com/spigell/resumematch/internal/metrics"
)

const (
	ProviderName   = "openai"
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	defaultTimeout = 60 * time.Second
)

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Provider overrides the name reported in logs and metrics (e.g. "groq").
	Provider string
}

// Client sends chat completions to any OpenAI-compatible endpoint.
type Client struct {
	client   *goopenai.Client
	provider string
	logger   *zap.Logger
}

func NewClient(opts Options, log *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("llm api key is required")
	}

	cfg := goopenai.DefaultConfig(apiKey)
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	provider := strings.TrimSpace(opts.Provider)
	if provider == "" {
		provider = ProviderName
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		client:   goopenai.NewClientWithConfig(cfg),
		provider: provider,
		logger:   log,
	}, nil
}

func (c *Client) Provider() string {
	return c.provider
}

// Complete returns the content of the first choice.
func (c *Client) Complete(ctx context.Context, req ai.Request) (out string, err error) {
	started := time.Now()
	defer func() { metrics.ObserveAI(c.provider, req.Operation, started, err) }()

	log := c.logger.With(
		zap.String(logger.FieldProvider, c.provider),
		zap.String(logger.FieldModel, req.Model),
		zap.String("operation", req.Operation),
	)

	resp, err := c.client.CreateChatCompletion(ctx, buildRequest(req))
	if err != nil {
		log.Warn("chat completion failed", zap.Error(err))
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ai.ErrEmptyResponse
	}

	out = strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ai.ErrEmptyResponse
	}

	log.Debug("chat completion received",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.String("response_preview", logger.TruncateForLog(out, 200)),
	)

	return out, nil
}

func buildRequest(req ai.Request) goopenai.ChatCompletionRequest {
	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	out := goopenai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}
	return out
}
