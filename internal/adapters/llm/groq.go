package llm

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/PabloGalante/chatrelay/internal/domain"
	"github.com/PabloGalante/chatrelay/internal/observability"
)

const DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

// GroqClient talks to Groq's OpenAI-compatible chat completion endpoint.
type GroqClient struct {
	client *openai.Client
}

// NewGroqClient creates a Completer for the given API key. An empty
// baseURL selects Groq's public endpoint.
func NewGroqClient(apiKey, baseURL string) (*GroqClient, error) {
	if apiKey == "" {
		return nil, errors.New("groq api key is required")
	}
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &GroqClient{client: openai.NewClientWithConfig(cfg)}, nil
}

// Complete implements domain.Completer. One blocking request, no retry.
func (g *GroqClient) Complete(
	ctx context.Context,
	messages []domain.Turn,
	cfg domain.GenerationConfig,
) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("groq chat completion: no messages")
	}

	log := observability.LoggerFromContext(ctx).With(
		"model", cfg.Model,
		"messages", len(messages),
	)

	req := openai.ChatCompletionRequest{
		Model:       cfg.Model,
		Messages:    toOpenAIMessages(messages),
		Temperature: temperature(cfg.Temperature),
		MaxTokens:   cfg.MaxTokens,
		TopP:        1,
		Stream:      false,
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			log.Error("groq request rejected",
				"status", apiErr.HTTPStatusCode,
				"error", apiErr.Message,
				"elapsed_ms", elapsed.Milliseconds())
		} else {
			log.Error("groq request failed", "error", err, "elapsed_ms", elapsed.Milliseconds())
		}
		return "", errors.Wrap(err, "groq chat completion")
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("groq chat completion: response has no choices")
	}

	log.Info("groq completion done",
		"elapsed_ms", elapsed.Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(turns []domain.Turn) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		var role string
		switch t.Role {
		case domain.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case domain.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		default:
			role = openai.ChatMessageRoleUser
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	return out
}

// temperature keeps an explicit 0 on the wire: the request field is
// omitempty, and a dropped field means the server default.
func temperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}
