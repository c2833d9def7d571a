package nl2sql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiCompleterSendsGenerateContent(t *testing.T) {
	var payload geminiGenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "g1" {
			t.Errorf("x-goog-api-key = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"SELECT "},{"text":"1"}]}}]}`))
	}))
	defer server.Close()

	completer, err := NewGeminiCompleter(GeminiConfig{BaseURL: server.URL, APIKey: "g1", Model: "gemini-test", Temperature: 0.2})
	if err != nil {
		t.Fatalf("NewGeminiCompleter() error = %v", err)
	}
	got, err := completer.Complete(context.Background(), CompletionRequest{Instruction: "template", Input: "question"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "SELECT 1" {
		t.Fatalf("Complete() = %q", got)
	}
	if len(payload.Contents) != 1 || len(payload.Contents[0].Parts) != 2 {
		t.Fatalf("contents = %#v", payload.Contents)
	}
	if payload.Contents[0].Parts[0].Text != "template" || payload.Contents[0].Parts[1].Text != "question" {
		t.Fatalf("parts = %#v", payload.Contents[0].Parts)
	}
	if payload.GenerationConfig.Temperature != 0.2 {
		t.Fatalf("temperature = %v", payload.GenerationConfig.Temperature)
	}
}

func TestGeminiCompleterReportsBlockedPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer server.Close()

	completer, err := NewGeminiCompleter(GeminiConfig{BaseURL: server.URL, APIKey: "g1"})
	if err != nil {
		t.Fatalf("NewGeminiCompleter() error = %v", err)
	}
	_, err = completer.Complete(context.Background(), CompletionRequest{Input: "q"})
	if err == nil || !strings.Contains(err.Error(), "SAFETY") {
		t.Fatalf("Complete() error = %v", err)
	}
}

func TestGeminiCompleterReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"API key not valid"}}`, http.StatusForbidden)
	}))
	defer server.Close()

	completer, err := NewGeminiCompleter(GeminiConfig{BaseURL: server.URL, APIKey: "bad"})
	if err != nil {
		t.Fatalf("NewGeminiCompleter() error = %v", err)
	}
	_, err = completer.Complete(context.Background(), CompletionRequest{Input: "q"})
	if err == nil || !strings.Contains(err.Error(), "status=403") {
		t.Fatalf("Complete() error = %v", err)
	}
}

func TestNewGeminiCompleterDefaultsModel(t *testing.T) {
	completer, err := NewGeminiCompleter(GeminiConfig{BaseURL: "http://x", APIKey: "k"})
	if err != nil {
		t.Fatalf("NewGeminiCompleter() error = %v", err)
	}
	if completer.Model() != "gemini-2.5-flash" {
		t.Fatalf("Model() = %q", completer.Model())
	}
	if _, err := NewGeminiCompleter(GeminiConfig{BaseURL: "http://x"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
