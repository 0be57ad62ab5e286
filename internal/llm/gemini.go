package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/ppiankov/trustbrowser/internal/util"
)

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	client *genai.Client
	config Config
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		},
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{client: client, config: config}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Complete runs a single generateContent call
func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	resp, err := p.client.Models.GenerateContent(ctx, p.config.model(req, DefaultGeminiModel), geminiContents(req), p.generateConfig(req))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("no content in Gemini response")
	}
	return text, nil
}

// Stream emits response chunks as the model produces them
func (p *GeminiProvider) Stream(ctx context.Context, req CompletionRequest, emit func(string)) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	for resp, err := range p.client.Models.GenerateContentStream(ctx, p.config.model(req, DefaultGeminiModel), geminiContents(req), p.generateConfig(req)) {
		if err != nil {
			return fmt.Errorf("gemini stream error: %w", err)
		}
		if chunk := resp.Text(); chunk != "" {
			emit(chunk)
		}
	}
	return nil
}

func (p *GeminiProvider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (p *GeminiProvider) generateConfig(req CompletionRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(p.config.maxTokens(req)),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = geminiSchema(*req.Schema)
	}
	return cfg
}

func geminiContents(req CompletionRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	return append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))
}

func geminiSchema(s Schema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(s.Properties))
	for _, name := range s.Properties {
		props[name] = &genai.Schema{Type: genai.TypeString}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   s.Required,
	}
}
