package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	internalerrors "github.com/logsage/logsage-ai-go/internal/errors"
)

// AnthropicClient wraps the Anthropic Messages API.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicClient creates a new Anthropic client. proxyURL may be empty.
func NewAnthropicClient(apiKey, model, proxyURL string, timeoutSeconds, maxTokens int) (*AnthropicClient, error) {
	var httpClient *http.Client
	timeout := time.Duration(timeoutSeconds) * time.Second

	// Configure proxy if provided
	if proxyURL != "" {
		proxyURLParsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}

		if proxyURLParsed.Scheme != "http" && proxyURLParsed.Scheme != "https" {
			return nil, fmt.Errorf("proxy URL must use http or https scheme, got: %s", proxyURLParsed.Scheme)
		}

		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyURL(proxyURLParsed),
			},
			Timeout: timeout,
		}
	} else {
		httpClient = &http.Client{
			Timeout: timeout,
		}
	}

	client := anthropic.NewClient(
		apiKey,
		anthropic.WithHTTPClient(httpClient),
	)

	return &AnthropicClient{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Generate sends the prompts to the Messages API and returns the model's raw
// textual response.
func (c *AnthropicClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, *Stats, error) {
	startTime := time.Now()

	response, err := retryWithBackoff(defaultMaxRetries, func() (anthropic.MessagesResponse, error) {
		return c.callAPI(ctx, systemPrompt, userPrompt)
	})
	if err != nil {
		return "", nil, err
	}

	if len(response.Content) == 0 {
		return "", nil, fmt.Errorf("empty response from Anthropic")
	}

	responseText := ""
	for _, content := range response.Content {
		if content.Type == "text" && content.Text != nil {
			responseText += *content.Text
		}
	}
	if responseText == "" {
		return "", nil, fmt.Errorf("empty response from Anthropic")
	}

	stats := c.calculateStats(response, time.Since(startTime).Seconds())

	return responseText, stats, nil
}

// callAPI makes the actual API call to the Messages endpoint
func (c *AnthropicClient) callAPI(ctx context.Context, systemPrompt, userPrompt string) (anthropic.MessagesResponse, error) {
	request := anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(userPrompt),
				},
			},
		},
		System:    systemPrompt,
		MaxTokens: c.maxTokens,
	}

	response, err := c.client.CreateMessages(ctx, request)
	if err != nil {
		// Sanitize error to prevent credentials from appearing in error messages
		return anthropic.MessagesResponse{}, internalerrors.Wrapf(err, "API call failed")
	}

	return response, nil
}

// calculateStats calculates cost and token statistics
func (c *AnthropicClient) calculateStats(response anthropic.MessagesResponse, durationSeconds float64) *Stats {
	inputTokens := response.Usage.InputTokens
	outputTokens := response.Usage.OutputTokens

	// Cache tokens (may be 0 if not using cache)
	cacheCreationTokens := response.Usage.CacheCreationInputTokens
	cacheReadTokens := response.Usage.CacheReadInputTokens

	// Claude Sonnet pricing: input $3/MTok, output $15/MTok,
	// cache write $3.75/MTok, cache read $0.30/MTok
	inputCost := float64(inputTokens) / 1000000 * 3.0
	outputCost := float64(outputTokens) / 1000000 * 15.0
	cacheWriteCost := float64(cacheCreationTokens) / 1000000 * 3.75
	cacheReadCost := float64(cacheReadTokens) / 1000000 * 0.30

	totalCost := inputCost + outputCost + cacheWriteCost + cacheReadCost

	return &Stats{
		Provider:            c.GetProviderName(),
		Model:               c.model,
		InputTokens:         inputTokens,
		OutputTokens:        outputTokens,
		CacheCreationTokens: cacheCreationTokens,
		CacheReadTokens:     cacheReadTokens,
		CostUSD:             totalCost,
		DurationSeconds:     durationSeconds,
	}
}

// GetModelInfo returns information about the configured model
func (c *AnthropicClient) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"model":         c.model,
		"provider":      c.GetProviderName(),
		"max_tokens":    c.maxTokens,
		"context_limit": 200000,
	}
}

// GetProviderName returns the name of the provider
func (c *AnthropicClient) GetProviderName() string {
	return "Anthropic"
}

// Ensure AnthropicClient implements Provider interface
var _ Provider = (*AnthropicClient)(nil)
