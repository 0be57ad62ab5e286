package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// genai pulls in opencensus, which starts a worker at init
var ignoreOpenCensus = goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start")

// mockProvider implements Provider for tests
type mockProvider struct {
	response string
	chunks   []string
	err      error
	lastReq  CompletionRequest
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	m.lastReq = req
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockProvider) Stream(ctx context.Context, req CompletionRequest, emit func(string)) error {
	m.lastReq = req
	for _, c := range m.chunks {
		emit(c)
	}
	return m.err
}

func collect(ch <-chan string) string {
	var sb strings.Builder
	for c := range ch {
		sb.WriteString(c)
	}
	return sb.String()
}

func TestAssistant_Stream(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	p := &mockProvider{chunks: []string{"a", "b", "c"}}
	a := NewAssistant(p, nil)

	out := collect(a.Stream(context.Background(), []Message{{Role: RoleUser, Text: "earlier"}}, "now"))
	assert.Equal(t, "abc", out)
	assert.Equal(t, ChatSystemPrompt, p.lastReq.System)
	assert.Equal(t, "now", p.lastReq.Prompt)
	assert.Len(t, p.lastReq.History, 1)
}

func TestAssistant_StreamWithoutProvider(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	a := NewAssistant(nil, nil)
	assert.False(t, a.IsEnabled())
	assert.Equal(t, NoKeyMessage, collect(a.Stream(context.Background(), nil, "hi")))
}

func TestAssistant_StreamFailure(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	a := NewAssistant(&mockProvider{err: errors.New("boom")}, nil)
	assert.Equal(t, ChatErrorMessage, collect(a.Stream(context.Background(), nil, "hi")))
}

func TestAssistant_StreamFailureAfterPartialReply(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	a := NewAssistant(&mockProvider{chunks: []string{"partial "}, err: errors.New("reset")}, nil)
	assert.Equal(t, "partial "+ChatErrorMessage, collect(a.Stream(context.Background(), nil, "hi")))
}

func TestAssistant_StreamCancelledConsumer(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	ctx, cancel := context.WithCancel(context.Background())
	a := NewAssistant(&mockProvider{chunks: []string{"x", "y", "z"}}, nil)

	ch := a.Stream(ctx, nil, "hi")
	<-ch
	cancel()
	for range ch {
	}
}

func TestAssistant_Summarize(t *testing.T) {
	p := &mockProvider{response: "- one\n- two"}
	a := NewAssistant(p, nil)

	long := strings.Repeat("é", MaxSummaryInput+500)
	got := a.Summarize(context.Background(), long)

	require.Equal(t, "- one\n- two", got)
	body := p.lastReq.Prompt[strings.Index(p.lastReq.Prompt, "\n\n")+2:]
	assert.Equal(t, MaxSummaryInput, utf8.RuneCountInString(body), "input truncated by runes")
}

func TestAssistant_SummarizeFailure(t *testing.T) {
	assert.Equal(t, "", NewAssistant(&mockProvider{err: errors.New("down")}, nil).Summarize(context.Background(), "text"))
	assert.Equal(t, "", NewAssistant(nil, nil).Summarize(context.Background(), "text"))
	assert.Equal(t, "", NewAssistant(&mockProvider{response: "x"}, nil).Summarize(context.Background(), "   "))
}

func TestGenerator_NoProvider(t *testing.T) {
	_, err := NewGenerator(nil).Generate(context.Background(), "q", AnswerSchema)
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestGenerator_InvalidOutputIsError(t *testing.T) {
	_, err := NewGenerator(&mockProvider{response: "not json"}).Generate(context.Background(), "q", AnswerSchema)
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestGenerator_ProviderError(t *testing.T) {
	_, err := NewGenerator(&mockProvider{err: errors.New("quota")}).Generate(context.Background(), "q", AnswerSchema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")
}

func TestNewProvider(t *testing.T) {
	_, err := NewProvider(Config{})
	assert.ErrorIs(t, err, ErrNoProvider)

	_, err = NewProvider(Config{Provider: "bogus"})
	assert.Error(t, err)

	p, err := NewProvider(Config{Provider: "OpenAI", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, err = NewProvider(Config{Provider: "ollama", Model: "llama3.1"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())
}
