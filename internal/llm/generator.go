package llm

import (
	"context"
	"fmt"
)

// Generator produces schema-validated structured output
type Generator interface {
	Generate(ctx context.Context, prompt string, schema Schema) (Record, error)
}

// SchemaGenerator adapts a Provider into a Generator. Output that does not
// match the schema is an error, never a partial record.
type SchemaGenerator struct {
	provider Provider
}

// NewGenerator wraps provider. A nil provider yields ErrNoProvider on every
// call.
func NewGenerator(provider Provider) *SchemaGenerator {
	return &SchemaGenerator{provider: provider}
}

// Generate asks the provider for structured output and validates it
func (g *SchemaGenerator) Generate(ctx context.Context, prompt string, schema Schema) (Record, error) {
	if g == nil || g.provider == nil {
		return nil, ErrNoProvider
	}

	raw, err := g.provider.Complete(ctx, CompletionRequest{
		Prompt: prompt,
		Schema: &schema,
	})
	if err != nil {
		return nil, fmt.Errorf("%s generate: %w", g.provider.Name(), err)
	}
	return schema.Validate(raw)
}

// AnswerPrompt is the prompt for the generative answer fallback
func AnswerPrompt(query string) string {
	return fmt.Sprintf("You are a knowledge graph node assistant. The user is querying: %q. "+
		"Provide a concise explanation and a placeholder 0x hash. Return JSON.", query)
}
