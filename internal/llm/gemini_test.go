package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash:generateContent") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gc, _ := body["generationConfig"].(map[string]any)
		if gc["responseMimeType"] != "application/json" {
			t.Errorf("Expected JSON response MIME type, got %v", gc["responseMimeType"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"title\":\"G\",\"explanation\":\"gen\",\"sourceHash\":\"0x\"}"}]}}]}`))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if provider.Name() != "gemini" {
		t.Errorf("Expected name gemini, got %s", provider.Name())
	}

	rec, err := NewGenerator(provider).Generate(context.Background(), AnswerPrompt("q"), AnswerSchema)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if rec["title"] != "G" {
		t.Errorf("Unexpected record: %v", rec)
	}
}

func TestNewGeminiProvider_MissingKey(t *testing.T) {
	if _, err := NewGeminiProvider(Config{}); err == nil {
		t.Error("Expected error when API key is missing")
	}
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(AnswerSchema)
	if len(s.Properties) != 3 || len(s.Required) != 3 {
		t.Errorf("Unexpected schema: %+v", s)
	}
}
