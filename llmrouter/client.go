// Package llmrouter talks to the OpenRouter chat completions API for
// reference drug analysis and synopsis attribute extraction.
package llmrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DestYchen/ipharma-hack-2026/interfaces"
	"github.com/DestYchen/ipharma-hack-2026/logging"
)

const defaultBaseURL = "https://openrouter.ai/api/v1/chat/completions"

// Compile-time check to ensure Client implements AnalysisClient
var _ interfaces.AnalysisClient = (*Client)(nil)

// Client is an OpenRouter chat completions client
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// chatRequest represents a chat completion request
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// chatMessage represents a chat message
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse represents a chat completion response
type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code,omitempty"`
	} `json:"error,omitempty"`
}

// NewClient creates a new OpenRouter client
func NewClient(apiKey, model string) *Client {
	return &Client{
		httpClient: &http.Client{
			// Web-search models can take minutes on a thorough query
			Timeout: 180 * time.Second,
		},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		model:   model,
	}
}

// Complete sends a system/user prompt pair and returns the model output
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("OpenRouter API key is not configured")
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.2,
		MaxTokens:   7000,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("creating chat request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("HTTP-Referer", "https://github.com/DestYchen/ipharma-hack-2026")
	httpReq.Header.Set("X-Title", "Pharma Reference Extractor")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logging.Error("OpenRouter returned non-200 status",
			"status", resp.StatusCode,
			"body", string(body),
		)
		return "", fmt.Errorf("OpenRouter error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("parsing chat response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("OpenRouter error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenRouter response")
	}

	logging.Info("OpenRouter request completed",
		"model", c.model,
		"tokens_used", chatResp.Usage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return chatResp.Choices[0].Message.Content, nil
}

// AnalyzeReferenceDrug runs the source-grounded regulatory analysis for a
// chosen reference drug
func (c *Client) AnalyzeReferenceDrug(ctx context.Context, referenceDrug string) (string, error) {
	return c.Complete(ctx, analysisSystemPrompt, buildAnalysisPrompt(referenceDrug))
}
