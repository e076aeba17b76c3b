package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/resumematch/internal/ai"
	"github.com/spigell/resumematch/internal/logger"
	"github.com/spigell/resumematch/internal/metrics"
)

const (
	ProviderName = "gemini"
	defaultModel = "gemini-2.5-flash"
)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	chats *genai.Chats
}

func (g genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	return g.chats.Create(ctx, model, config, history)
}

// Generator sends chat completions to the Gemini API.
type Generator struct {
	chats  chatCreator
	model  string
	logger *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
// model is used when a request does not name one.
func NewGenerator(ctx context.Context, apiKey, model string, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Generator{chats: genaiChats{chats: client.Chats}, model: model, logger: log}, nil
}

func (g *Generator) Provider() string {
	return ProviderName
}

// Complete maps system messages onto the system instruction, earlier turns onto
// chat history and sends the final user message.
func (g *Generator) Complete(ctx context.Context, req ai.Request) (out string, err error) {
	if g == nil || g.chats == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	started := time.Now()
	defer func() { metrics.ObserveAI(ProviderName, req.Operation, started, err) }()

	model := g.resolveModel(req.Model)
	system, history, last, err := splitMessages(req.Messages)
	if err != nil {
		return "", err
	}

	config := buildConfig(req, system)

	chat, err := g.chats.Create(ctx, model, config, history)
	if err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: last})
	if err != nil {
		g.logger.Warn("gemini request failed",
			zap.String(logger.FieldModel, model),
			zap.String("operation", req.Operation),
			zap.Error(err),
		)
		return "", fmt.Errorf("generate content: %w", err)
	}

	out = responseText(resp)
	if out == "" {
		return "", ai.ErrEmptyResponse
	}

	g.logger.Debug("gemini response received",
		zap.String(logger.FieldModel, model),
		zap.String("operation", req.Operation),
		zap.String("response_preview", logger.TruncateForLog(out, 200)),
	)

	return out, nil
}

// Gemini rejects the Groq model identifiers, so those map to the configured model.
func (g *Generator) resolveModel(requested string) string {
	requested = strings.TrimSpace(requested)
	if strings.HasPrefix(requested, "gemini") {
		return requested
	}
	return g.model
}

func splitMessages(messages []ai.Message) (system string, history []*genai.Content, last string, err error) {
	var systemParts []string
	var turns []ai.Message
	for _, m := range messages {
		if m.Role == ai.RoleSystem {
			systemParts = append(systemParts, m.Content)
			continue
		}
		turns = append(turns, m)
	}

	if len(turns) == 0 || turns[len(turns)-1].Role != ai.RoleUser {
		return "", nil, "", errors.New("last message must come from the user")
	}

	for _, m := range turns[:len(turns)-1] {
		role := string(genai.RoleUser)
		if m.Role == ai.RoleAssistant {
			role = string(genai.RoleModel)
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	return strings.Join(systemParts, "\n\n"), history, turns[len(turns)-1].Content, nil
}

func buildConfig(req ai.Request, system string) *genai.GenerateContentConfig {
	temperature := req.Temperature
	topP := req.TopP
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		TopP:            &topP,
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	return config
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}
