// Package ai provides text-generation providers for error analysis.
// Providers return the model's raw textual response; structural validation
// happens downstream in the analysis sanitizer.
package ai

import "context"

// Provider defines the interface for text-generation backends
// (OpenAI-compatible, Anthropic, Ollama).
type Provider interface {
	// Generate sends the prompts to the model and returns its raw textual
	// response. The response is treated as an opaque string.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, *Stats, error)

	// GetModelInfo returns information about the configured model
	GetModelInfo() map[string]interface{}

	// GetProviderName returns the name of the provider (e.g., "OpenAI", "Anthropic")
	GetProviderName() string
}

// Stats holds statistics about one generation call.
type Stats struct {
	Provider            string
	Model               string
	InputTokens         int
	OutputTokens        int
	CacheCreationTokens int
	CacheReadTokens     int
	CostUSD             float64
	DurationSeconds     float64
}

// ProviderType represents the type of text-generation provider.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOllama    ProviderType = "ollama"
)

// ValidProviderTypes returns a list of valid provider types.
func ValidProviderTypes() []ProviderType {
	return []ProviderType{ProviderOpenAI, ProviderAnthropic, ProviderOllama}
}

// IsValidProviderType checks if the given provider type is valid.
func IsValidProviderType(pt string) bool {
	for _, valid := range ValidProviderTypes() {
		if string(valid) == pt {
			return true
		}
	}
	return false
}
