package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("Expected path /api/chat, got %s", r.URL.Path)
		}

		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Format == nil || req.Format["type"] != "object" {
			t.Errorf("Expected JSON schema format, got %v", req.Format)
		}
		if req.Stream {
			t.Error("Expected non-streaming request")
		}

		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:   "llama3.1",
			Message: ollamaMessage{Role: "assistant", Content: `{"title":"T","explanation":"E","sourceHash":"0x"}`},
			Done:    true,
		})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1", Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	rec, err := NewGenerator(provider).Generate(context.Background(), "q", AnswerSchema)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if rec["title"] != "T" {
		t.Errorf("Unexpected record: %v", rec)
	}
}

func TestOllamaProvider_Stream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, part := range []string{"one ", "two"} {
			line, _ := json.Marshal(ollamaResponse{Message: ollamaMessage{Role: "assistant", Content: part}})
			_, _ = fmt.Fprintf(w, "%s\n", line)
		}
		_, _ = fmt.Fprint(w, `{"done":true}`+"\n")
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1", Timeout: 5})

	var sb strings.Builder
	if err := provider.Stream(context.Background(), CompletionRequest{Prompt: "count"}, func(s string) { sb.WriteString(s) }); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if sb.String() != "one two" {
		t.Errorf("Unexpected stream output: %q", sb.String())
	}
}

func TestOllamaProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'nope' not found"}`))
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "nope", Timeout: 5})
	_, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestNewOllamaProvider_RequiresModel(t *testing.T) {
	if _, err := NewOllamaProvider(Config{}); err == nil {
		t.Error("Expected error when model is missing")
	}
}
