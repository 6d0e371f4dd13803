package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OpenAIClient wraps an OpenAI-compatible /v1/chat/completions API.
// It serves both the hosted OpenAI API and local OpenAI-compatible servers
// such as LM Studio (point BaseURL at the local instance and leave APIKey
// empty).
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	jsonMode   bool
	httpClient *http.Client
}

// OpenAIConfig holds OpenAI-compatible provider configuration.
type OpenAIConfig struct {
	BaseURL        string // e.g., "https://api.openai.com" or "http://localhost:1234"
	APIKey         string // empty for local servers without authentication
	Model          string // e.g., "gpt-4o-mini"
	TimeoutSeconds int    // Request timeout
	MaxTokens      int    // Max tokens in response
	JSONMode       bool   // Request response_format json_object (hosted OpenAI)
}

// openAIChatRequest is the request body for the /v1/chat/completions endpoint
type openAIChatRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	TopP           float64         `json:"top_p,omitempty"`
	Stream         bool            `json:"stream"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// responseFormat specifies the output format
type responseFormat struct {
	Type string `json:"type"` // "json_object" for JSON mode
}

// openAIMessage represents a chat message in OpenAI format
type openAIMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// openAIChatResponse is the response from the /v1/chat/completions endpoint
type openAIChatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int           `json:"index"`
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewOpenAIClient creates a new OpenAI-compatible client
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}

	// Remove trailing slash from base URL
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	if cfg.Model == "" {
		return nil, fmt.Errorf("openai model is required")
	}

	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 120
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}

	return &OpenAIClient{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		jsonMode:  cfg.JSONMode,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Generate sends the prompts to the chat completions endpoint and returns the
// model's raw textual response.
func (c *OpenAIClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, *Stats, error) {
	startTime := time.Now()

	response, err := retryWithBackoff(defaultMaxRetries, func() (*openAIChatResponse, error) {
		return c.callAPI(ctx, systemPrompt, userPrompt)
	})
	if err != nil {
		return "", nil, err
	}

	if len(response.Choices) == 0 {
		return "", nil, fmt.Errorf("empty response from %s (no choices)", c.GetProviderName())
	}

	responseText := response.Choices[0].Message.Content
	if responseText == "" {
		return "", nil, fmt.Errorf("empty response from %s", c.GetProviderName())
	}

	stats := c.calculateStats(response, time.Since(startTime).Seconds())

	return responseText, stats, nil
}

// callAPI makes the actual API call to the chat completions endpoint
func (c *OpenAIClient) callAPI(ctx context.Context, systemPrompt, userPrompt string) (*openAIChatResponse, error) {
	request := openAIChatRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: 0.1, // Low temperature for consistent, factual output
		TopP:        0.9,
		Stream:      false,
	}

	// Local OpenAI-compatible servers (LM Studio) don't all support
	// json_object mode, so it is opt-in.
	if c.jsonMode {
		request.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	url := c.baseURL + "/v1/chat/completions"
	return doJSONPost[openAIChatResponse](ctx, c.httpClient, url, c.apiKey, request)
}

// calculateStats calculates statistics from the response
func (c *OpenAIClient) calculateStats(response *openAIChatResponse, durationSeconds float64) *Stats {
	return &Stats{
		Provider:        c.GetProviderName(),
		Model:           c.model,
		InputTokens:     response.Usage.PromptTokens,
		OutputTokens:    response.Usage.CompletionTokens,
		DurationSeconds: durationSeconds,
	}
}

// GetModelInfo returns information about the configured model
func (c *OpenAIClient) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"model":      c.model,
		"provider":   c.GetProviderName(),
		"max_tokens": c.maxTokens,
		"base_url":   c.baseURL,
	}
}

// GetProviderName returns the name of the provider
func (c *OpenAIClient) GetProviderName() string {
	return "OpenAI"
}

// Ensure OpenAIClient implements Provider interface
var _ Provider = (*OpenAIClient)(nil)
