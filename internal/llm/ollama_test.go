package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaProvider_Complete(t *testing.T) {
	var captured ollamaRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:           "llava:13b",
			Response:        `  {"status": "valid", "issues": []}  `,
			Done:            true,
			PromptEvalCount: 100,
			EvalCount:       20,
		})
	}))
	defer server.Close()

	p, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llava:13b"})
	if err != nil {
		t.Fatalf("NewOllamaProvider: %v", err)
	}

	completion, err := p.Complete(context.Background(), VisionRequest{
		System:    "system prompt",
		Prompt:    "user prompt",
		Document:  []byte("imagebytes"),
		MIME:      "image/png",
		ForceJSON: true,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if completion.Content != `{"status": "valid", "issues": []}` {
		t.Errorf("Content = %q, want trimmed JSON", completion.Content)
	}
	if completion.Model != "llava:13b" {
		t.Errorf("Model = %q", completion.Model)
	}
	if completion.TokensUsed != 120 {
		t.Errorf("TokensUsed = %d, want 120", completion.TokensUsed)
	}

	if captured.Format != "json" {
		t.Errorf("Format = %q, want json", captured.Format)
	}
	if captured.Stream {
		t.Error("Stream must be false")
	}
	if captured.System != "system prompt" {
		t.Errorf("System = %q", captured.System)
	}
	if len(captured.Images) != 1 {
		t.Fatalf("Images count = %d, want 1", len(captured.Images))
	}
}

func TestOllamaProvider_CompleteNoModel(t *testing.T) {
	p, err := NewOllamaProvider(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Complete(context.Background(), VisionRequest{Prompt: "x"}); err == nil {
		t.Error("expected error without a model")
	}
}

func TestOllamaProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ollamaError{Error: "model 'llava' not found"})
	}))
	defer server.Close()

	p, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llava"})
	_, err := p.Complete(context.Background(), VisionRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "model 'llava' not found") {
		t.Errorf("err = %v, want API error message", err)
	}
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p, _ := NewOllamaProvider(Config{BaseURL: server.URL})
	if !p.IsAvailable(context.Background()) {
		t.Error("expected available")
	}

	server.Close()
	if p.IsAvailable(context.Background()) {
		t.Error("expected unavailable after server close")
	}
}

func TestOllamaProvider_TokenEstimate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaResponse{Model: "llava", Response: "12345678", Done: true})
	}))
	defer server.Close()

	p, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llava"})
	completion, err := p.Complete(context.Background(), VisionRequest{Prompt: "12345678"})
	if err != nil {
		t.Fatal(err)
	}
	// No token counts from the API means a 4-chars-per-token estimate
	if completion.TokensUsed != 4 {
		t.Errorf("TokensUsed = %d, want 4", completion.TokensUsed)
	}
}
