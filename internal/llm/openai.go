package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/ppiankov/trustbrowser/internal/util"
)

// OpenAIProvider implements the Provider interface for OpenAI models
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Complete generates a response using OpenAI's Chat Completions API
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, p.chatRequest(req))
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Stream emits deltas from a streamed chat completion
func (p *OpenAIProvider) Stream(ctx context.Context, req CompletionRequest, emit func(string)) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	chatReq := p.chatRequest(req)
	chatReq.Stream = true

	stream, err := p.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return fmt.Errorf("OpenAI API error: %w", err)
	}
	defer func() { _ = stream.Close() }()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("OpenAI stream error: %w", err)
		}
		if len(resp.Choices) > 0 && resp.Choices[0].Delta.Content != "" {
			emit(resp.Choices[0].Delta.Content)
		}
	}
}

func (p *OpenAIProvider) timeout() time.Duration {
	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return timeout
}

func (p *OpenAIProvider) chatRequest(req CompletionRequest) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.History {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       p.config.model(req, openai.GPT4oMini),
		Messages:    messages,
		MaxTokens:   p.config.maxTokens(req),
		Temperature: 0.3,
	}
	if req.Schema != nil {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Schema.Name,
				Schema: openAISchema(*req.Schema),
				Strict: true,
			},
		}
	}
	return chatReq
}

func openAISchema(s Schema) *jsonschema.Definition {
	props := make(map[string]jsonschema.Definition, len(s.Properties))
	for _, name := range s.Properties {
		props[name] = jsonschema.Definition{Type: jsonschema.String}
	}
	return &jsonschema.Definition{
		Type:                 jsonschema.Object,
		Properties:           props,
		Required:             s.Required,
		AdditionalProperties: false,
	}
}
