package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// CompletionOptions are the knobs passed through to the provider on each
// call.
type CompletionOptions struct {
	Temperature     float64
	MaxOutputTokens int
}

// Completer is the boundary to the generative backend: one prompt in, raw
// text out. No guarantee is made about the shape of the returned text.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}

// ProviderError reports a failed provider call. StatusCode carries the
// upstream HTTP status when one was received, 0 otherwise (network errors,
// timeouts).
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

type geminiClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// NewGeminiClient creates a Completer backed by the Gemini generateContent
// endpoint. The timeout bounds each call; an expired deadline surfaces as a
// ProviderError.
func NewGeminiClient(apiKey, model string, timeout time.Duration) Completer {
	return &geminiClient{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: geminiBaseURL,
		apiKey:  apiKey,
		model:   model,
	}
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Complete sends the prompt to Gemini and returns the concatenated text of
// the first candidate. No retry at this layer.
func (c *geminiClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	requestBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxOutputTokens,
		},
	}

	bodyJSON, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyJSON))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &ProviderError{Message: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Message: "failed to read completion response: " + err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Error struct {
				Message string `json:"message"`
				Status  string `json:"status"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
			return "", &ProviderError{StatusCode: resp.StatusCode, Message: errorResp.Error.Message}
		}
		return "", &ProviderError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	var completion geminiResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", &ProviderError{Message: "invalid response format from Gemini: " + err.Error()}
	}
	if len(completion.Candidates) == 0 {
		return "", &ProviderError{Message: "Gemini returned no candidates"}
	}

	var text strings.Builder
	for _, part := range completion.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return text.String(), nil
}
