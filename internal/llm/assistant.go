package llm

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

const (
	// ChatSystemPrompt frames the in-browser assistant
	ChatSystemPrompt = "You are TrustShield AI inside TrustBrowser."

	// NoKeyMessage is the single chunk emitted when no provider is configured
	NoKeyMessage = "No AI key provided."

	// ChatErrorMessage is the single chunk emitted when the provider fails
	ChatErrorMessage = "I'm having trouble connecting to the secure node right now."

	// MaxSummaryInput bounds the page text sent for summarization, in runes
	MaxSummaryInput = 18000
)

// Assistant provides chat and page summarization on top of a Provider
type Assistant struct {
	provider Provider
	logger   *zap.Logger
}

// NewAssistant creates an assistant. provider may be nil.
func NewAssistant(provider Provider, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{provider: provider, logger: logger}
}

// IsEnabled reports whether a provider is configured
func (a *Assistant) IsEnabled() bool {
	return a.provider != nil
}

// Stream answers message in the context of history. The returned channel is
// closed when the response is complete. A failure appends a single fixed
// message after whatever was already streamed.
func (a *Assistant) Stream(ctx context.Context, history []Message, message string) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		send := func(chunk string) {
			select {
			case out <- chunk:
			case <-ctx.Done():
			}
		}

		if a.provider == nil {
			send(NoKeyMessage)
			return
		}

		err := a.provider.Stream(ctx, CompletionRequest{
			System:  ChatSystemPrompt,
			History: history,
			Prompt:  message,
		}, send)
		if err != nil {
			a.logger.Warn("chat stream failed", zap.String("provider", a.provider.Name()), zap.Error(err))
			send(ChatErrorMessage)
		}
	}()

	return out
}

// Summarize returns 6-8 markdown bullet points describing text, or "" when no
// provider is configured or the call fails
func (a *Assistant) Summarize(ctx context.Context, text string) string {
	if a.provider == nil || strings.TrimSpace(text) == "" {
		return ""
	}

	summary, err := a.provider.Complete(ctx, CompletionRequest{
		Prompt: "Summarize the following web page in 6-8 concise markdown bullet points:\n\n" + truncateRunes(text, MaxSummaryInput),
	})
	if err != nil {
		a.logger.Warn("summarize failed", zap.String("provider", a.provider.Name()), zap.Error(err))
		return ""
	}
	return summary
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
