package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGeminiClientComplete(t *testing.T) {
	var gotBody geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/models/gemini-2.0-flash-exp:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("expected API key in query, got %q", r.URL.Query().Get("key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "hello "}, {"text": "world"}]}}]}`))
	}))
	defer srv.Close()

	c := &geminiClient{
		client:  srv.Client(),
		baseURL: srv.URL,
		apiKey:  "test-key",
		model:   "gemini-2.0-flash-exp",
	}

	text, err := c.Complete(context.Background(), "say hello", CompletionOptions{Temperature: 0.7, MaxOutputTokens: 2000})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("expected concatenated candidate text, got %q", text)
	}
	if gotBody.GenerationConfig.Temperature != 0.7 || gotBody.GenerationConfig.MaxOutputTokens != 2000 {
		t.Fatalf("generation config not forwarded: %+v", gotBody.GenerationConfig)
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Parts[0].Text != "say hello" {
		t.Fatalf("prompt not forwarded: %+v", gotBody.Contents)
	}
}

func TestGeminiClientUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "API key not valid", "status": "UNAUTHENTICATED"}}`))
	}))
	defer srv.Close()

	c := &geminiClient{client: srv.Client(), baseURL: srv.URL, apiKey: "bad", model: "m"}

	_, err := c.Complete(context.Background(), "hi", CompletionOptions{})
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if provErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", provErr.StatusCode)
	}
	if !strings.Contains(provErr.Message, "API key not valid") {
		t.Fatalf("expected upstream message to surface, got %q", provErr.Message)
	}
}

func TestGeminiClientNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	c := &geminiClient{client: srv.Client(), baseURL: srv.URL, apiKey: "k", model: "m"}
	_, err := c.Complete(context.Background(), "hi", CompletionOptions{})
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError for empty candidates, got %v", err)
	}
}

func TestGeminiClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := srv.Client()
	client.Timeout = 20 * time.Millisecond
	c := &geminiClient{client: client, baseURL: srv.URL, apiKey: "k", model: "m"}

	_, err := c.Complete(context.Background(), "hi", CompletionOptions{})
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError on timeout, got %v", err)
	}
	if provErr.StatusCode != 0 {
		t.Fatalf("timeout should carry no upstream status, got %d", provErr.StatusCode)
	}
}
