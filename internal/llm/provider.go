package llm

import (
	"context"
	"errors"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete returns the full model output for a request. When req.Schema
	// is set the provider asks for structured JSON output.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Stream delivers the output incrementally through emit
	Stream(ctx context.Context, req CompletionRequest, emit func(chunk string)) error
}

// Role is the author of a chat message
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one chat turn
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// CompletionRequest contains the input for one model call
type CompletionRequest struct {
	// System is an optional system instruction
	System string

	// History holds earlier chat turns, oldest first
	History []Message

	// Prompt is the new user message
	Prompt string

	// Schema requests structured output when non-nil
	Schema *Schema

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ErrNoProvider is returned when no provider is configured
var ErrNoProvider = errors.New("no LLM provider configured")

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "gemini", "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   30,
		MaxTokens: 1000,
	}
}

func (c Config) model(req CompletionRequest, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}

func (c Config) maxTokens(req CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1000
}
