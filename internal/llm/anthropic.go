package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/trustbrowser/internal/util"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude models
type AnthropicProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     Config
}

// Anthropic API structures
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model string `json:"model"`
}

// anthropicEvent is the data payload of one server-sent event
type anthropicEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &AnthropicProvider{
		apiKey:  config.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		},
		config: config,
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Complete generates a response using Anthropic's Messages API. The Messages
// API has no response schema, so schema requests are expressed in the system
// prompt and validated by the caller.
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	httpResp, err := p.post(ctx, p.messagesRequest(req, false))
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	var resp anthropicResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no content in Anthropic response")
	}
	return strings.TrimSpace(resp.Content[0].Text), nil
}

// Stream reads content_block_delta events from the SSE stream
func (p *AnthropicProvider) Stream(ctx context.Context, req CompletionRequest, emit func(string)) error {
	httpResp, err := p.post(ctx, p.messagesRequest(req, true))
	if err != nil {
		return fmt.Errorf("Anthropic API error: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	scanner := bufio.NewScanner(httpResp.Body)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data:")
		if !ok {
			continue
		}
		var ev anthropicEvent
		if err := json.Unmarshal([]byte(strings.TrimSpace(data)), &ev); err != nil {
			continue
		}
		switch ev.Type {
		case "content_block_delta":
			if ev.Delta.Text != "" {
				emit(ev.Delta.Text)
			}
		case "message_stop":
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

func (p *AnthropicProvider) messagesRequest(req CompletionRequest, stream bool) anthropicRequest {
	messages := make([]anthropicMessage, 0, len(req.History)+1)
	for _, m := range req.History {
		role := "user"
		if m.Role == RoleModel {
			role = "assistant"
		}
		messages = append(messages, anthropicMessage{Role: role, Content: m.Text})
	}
	messages = append(messages, anthropicMessage{Role: "user", Content: req.Prompt})

	system := req.System
	if req.Schema != nil {
		schemaJSON, _ := json.Marshal(req.Schema.JSONSchema())
		system = strings.TrimSpace(system + "\nRespond with a single JSON object matching this JSON Schema and nothing else: " + string(schemaJSON))
	}

	return anthropicRequest{
		Model:       p.config.model(req, "claude-3-5-sonnet-20241022"),
		MaxTokens:   p.config.maxTokens(req),
		System:      system,
		Messages:    messages,
		Temperature: 0.3,
		Stream:      stream,
	}
}

func (p *AnthropicProvider) post(ctx context.Context, apiReq anthropicRequest) (*http.Response, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/messages", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		defer func() { _ = httpResp.Body.Close() }()
		respBody, _ := io.ReadAll(httpResp.Body)
		var apiErr anthropicError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s - %s", httpResp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, string(respBody))
	}
	return httpResp, nil
}
