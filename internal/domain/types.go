package domain

import (
	"errors"
	"fmt"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one role-tagged message of the conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func NewUserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

func NewAssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// Generation limits exposed by the surfaces.
const (
	ModelLlama31Instant = "llama-3.1-8b-instant"

	MinTemperature     = 0.0
	MaxTemperature     = 1.5
	DefaultTemperature = 0.7
	TemperatureStep    = 0.1

	MinMaxTokens     = 100
	MaxMaxTokens     = 2000
	DefaultMaxTokens = 512
	MaxTokensStep    = 50

	DefaultUserName = "Anonymous"
)

// AllowedModels lists the model ids a session may select.
var AllowedModels = []string{ModelLlama31Instant}

var ErrInvalidSettings = errors.New("invalid settings")

// GenerationConfig holds the per-session generation parameters.
type GenerationConfig struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Model:       ModelLlama31Instant,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// Validate reports the first out-of-range field, wrapping ErrInvalidSettings.
func (c GenerationConfig) Validate() error {
	if !isAllowedModel(c.Model) {
		return fmt.Errorf("%w: model %q is not available", ErrInvalidSettings, c.Model)
	}
	if c.Temperature < MinTemperature || c.Temperature > MaxTemperature {
		return fmt.Errorf("%w: temperature %.2f outside [%.1f, %.1f]",
			ErrInvalidSettings, c.Temperature, MinTemperature, MaxTemperature)
	}
	if c.MaxTokens < MinMaxTokens || c.MaxTokens > MaxMaxTokens {
		return fmt.Errorf("%w: max_tokens %d outside [%d, %d]",
			ErrInvalidSettings, c.MaxTokens, MinMaxTokens, MaxMaxTokens)
	}
	return nil
}

func isAllowedModel(model string) bool {
	for _, m := range AllowedModels {
		if m == model {
			return true
		}
	}
	return false
}

// Settings are the user-adjustable values of one session.
type Settings struct {
	UserName   string           `json:"user_name"`
	Generation GenerationConfig `json:"generation"`
}

func DefaultSettings() Settings {
	return Settings{
		UserName:   DefaultUserName,
		Generation: DefaultGenerationConfig(),
	}
}

func (s Settings) Validate() error {
	return s.Generation.Validate()
}

// ChatHistoryRecord is the audit row written once per completed turn.
type ChatHistoryRecord struct {
	UserName string `json:"user_name"`
	Message  string `json:"message"`
	Response string `json:"response"`
}

// Credentials are resolved once at startup and never change afterwards.
type Credentials struct {
	CompletionAPIKey string
	StoreURL         string
	StoreKey         string
}
