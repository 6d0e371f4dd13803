package config

import (
	"crypto/subtle"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// CLIOptions holds command-line argument overrides
type CLIOptions struct {
	LogFile     string // -log-file: path to the application log file to analyze
	OutputPath  string // -output: path for the JSON analysis report
	ShowHelp    bool   // -help: show usage
	ShowVersion bool   // -version: show version
}

// ParseCLI parses command-line arguments and returns CLIOptions
func ParseCLI() *CLIOptions {
	opts := &CLIOptions{}

	flag.StringVar(&opts.LogFile, "log-file", "", "Path to application log file (overrides config)")
	flag.StringVar(&opts.OutputPath, "output", "", "Path for the JSON analysis report (overrides config)")
	flag.BoolVar(&opts.ShowHelp, "help", false, "Show usage information")
	flag.BoolVar(&opts.ShowVersion, "version", false, "Show version information")

	// Custom usage message
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "LogSage AI - Intelligent application log analysis\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nExamples:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  %s -log-file /var/log/app.log\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "  %s -log-file ./app.log -output ./report.json\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment variables can be set in .env file or exported directly.\n")
		_, _ = fmt.Fprintf(os.Stderr, "CLI arguments override environment variables.\n")
	}

	flag.Parse()

	return opts
}

// PrintUsage prints the command-line usage information
func PrintUsage() {
	flag.Usage()
}

// Config holds all application configuration
type Config struct {
	// LLM Provider Selection
	LLMProvider string // "openai" (default), "anthropic" or "ollama"

	// OpenAI Settings (used when LLMProvider = "openai")
	OpenAIAPIKey  string
	OpenAIBaseURL string // e.g., "https://api.openai.com" or a local LM Studio URL
	OpenAIModel   string // e.g., "gpt-4o-mini"

	// Anthropic/Claude Settings (used when LLMProvider = "anthropic")
	AnthropicAPIKey string
	ClaudeModel     string

	// Ollama Settings (used when LLMProvider = "ollama")
	OllamaBaseURL string // e.g., "http://localhost:11434"
	OllamaModel   string // e.g., "llama3.3:latest"

	// Embeddings (vector store)
	EmbeddingProvider string // "openai" (default) or "ollama"
	EmbeddingModel    string // e.g., "text-embedding-3-small" or "nomic-embed-text"
	VectorStorePath   string // persistent vector store directory
	RetrievalK        int    // number of similar chunks retrieved per analysis

	// Chunking
	MaxChunkTokens int // token budget per chunk

	// Log Input
	LogFilePath  string
	MaxLogSizeMB int

	// Output
	OutputPath string // JSON report path ("" disables file output)

	// Application
	LogLevel       string
	EnableDatabase bool
	DatabasePath   string

	// Notifications (all optional)
	TelegramBotToken      string
	TelegramAlertsChannel int64
	SlackWebhookURL       string
	DiscordWebhookURL     string

	// Proxy
	HTTPProxy  string
	HTTPSProxy string

	// AI Settings
	AITimeoutSeconds int
	AIMaxTokens      int
}

// Load loads configuration from .env file and environment variables
// Priority: .env file > OS environment variables
// For CLI overrides, use LoadWithCLI instead
func Load() (*Config, error) {
	return LoadWithCLI(nil)
}

// LoadWithCLI loads configuration with CLI argument overrides
// Priority: CLI args > .env file > OS environment variables
func LoadWithCLI(cli *CLIOptions) (*Config, error) {
	// Set up viper first to read OS environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Load .env file to override OS environment variables
	// godotenv.Load() sets OS env vars from .env, which viper will then read
	_ = godotenv.Load()

	// Set defaults
	setDefaults()

	config := &Config{
		// LLM Provider settings
		LLMProvider:     viper.GetString("LLM_PROVIDER"),
		OpenAIAPIKey:    viper.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:   viper.GetString("OPENAI_BASE_URL"),
		OpenAIModel:     viper.GetString("OPENAI_MODEL"),
		AnthropicAPIKey: viper.GetString("ANTHROPIC_API_KEY"),
		ClaudeModel:     viper.GetString("CLAUDE_MODEL"),
		OllamaBaseURL:   viper.GetString("OLLAMA_BASE_URL"),
		OllamaModel:     viper.GetString("OLLAMA_MODEL"),

		// Embedding / vector store settings
		EmbeddingProvider: viper.GetString("EMBEDDING_PROVIDER"),
		EmbeddingModel:    viper.GetString("EMBEDDING_MODEL"),
		VectorStorePath:   viper.GetString("VECTORSTORE_PATH"),
		RetrievalK:        viper.GetInt("RETRIEVAL_K"),

		// Chunking
		MaxChunkTokens: viper.GetInt("MAX_CHUNK_TOKENS"),

		// Log input
		LogFilePath:  viper.GetString("LOG_FILE_PATH"),
		MaxLogSizeMB: viper.GetInt("MAX_LOG_SIZE_MB"),

		// Output
		OutputPath: viper.GetString("OUTPUT_PATH"),

		// Application settings
		LogLevel:       viper.GetString("LOG_LEVEL"),
		EnableDatabase: viper.GetBool("ENABLE_DATABASE"),
		DatabasePath:   viper.GetString("DATABASE_PATH"),

		// Notifications
		TelegramBotToken:      viper.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramAlertsChannel: viper.GetInt64("TELEGRAM_CHANNEL_ALERTS_ID"),
		SlackWebhookURL:       viper.GetString("SLACK_WEBHOOK_URL"),
		DiscordWebhookURL:     viper.GetString("DISCORD_WEBHOOK_URL"),

		HTTPProxy:        viper.GetString("HTTP_PROXY"),
		HTTPSProxy:       viper.GetString("HTTPS_PROXY"),
		AITimeoutSeconds: viper.GetInt("AI_TIMEOUT_SECONDS"),
		AIMaxTokens:      viper.GetInt("AI_MAX_TOKENS"),
	}

	// Apply CLI overrides (highest priority)
	if cli != nil {
		if cli.LogFile != "" {
			config.LogFilePath = cli.LogFile
		}
		if cli.OutputPath != "" {
			config.OutputPath = cli.OutputPath
		}
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// LLM Provider defaults
	viper.SetDefault("LLM_PROVIDER", "openai")
	viper.SetDefault("OPENAI_BASE_URL", "https://api.openai.com")
	viper.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	viper.SetDefault("CLAUDE_MODEL", "claude-sonnet-4-5-20250929")
	viper.SetDefault("OLLAMA_BASE_URL", "http://localhost:11434")
	viper.SetDefault("OLLAMA_MODEL", "llama3.3:latest")

	// Embedding / vector store defaults
	viper.SetDefault("EMBEDDING_PROVIDER", "openai")
	viper.SetDefault("EMBEDDING_MODEL", "text-embedding-3-small")
	viper.SetDefault("VECTORSTORE_PATH", "./data/vectorstore")
	viper.SetDefault("RETRIEVAL_K", 3)

	// Chunking defaults
	viper.SetDefault("MAX_CHUNK_TOKENS", 500)

	// Log input defaults
	viper.SetDefault("LOG_FILE_PATH", "./app.log")
	viper.SetDefault("MAX_LOG_SIZE_MB", 10)

	// Output defaults
	viper.SetDefault("OUTPUT_PATH", "./analysis_results.json")

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("ENABLE_DATABASE", true)
	viper.SetDefault("DATABASE_PATH", "./data/analyses.db")
	viper.SetDefault("AI_TIMEOUT_SECONDS", 120)
	viper.SetDefault("AI_MAX_TOKENS", 2000)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate LLM Provider
	if err := c.validateLLMProvider(); err != nil {
		return err
	}

	// Validate embedding settings
	if err := c.validateEmbedding(); err != nil {
		return err
	}

	// Validate Telegram settings (optional, but if set must be valid)
	if c.TelegramBotToken != "" {
		telegramTokenRegex := regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)
		if !telegramTokenRegex.MatchString(c.TelegramBotToken) {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN has invalid format (expected: 'number:token')")
		}
		if c.TelegramAlertsChannel == 0 {
			return fmt.Errorf("TELEGRAM_CHANNEL_ALERTS_ID is required when TELEGRAM_BOT_TOKEN is set")
		}
	}

	// Validate webhook URLs (optional, but if set must be valid)
	if c.SlackWebhookURL != "" && !strings.HasPrefix(c.SlackWebhookURL, "https://") {
		return fmt.Errorf("SLACK_WEBHOOK_URL must start with 'https://'")
	}
	if c.DiscordWebhookURL != "" && !strings.HasPrefix(c.DiscordWebhookURL, "https://") {
		return fmt.Errorf("DISCORD_WEBHOOK_URL must start with 'https://'")
	}

	// Validate max log size
	if c.MaxLogSizeMB < 1 || c.MaxLogSizeMB > 100 {
		return fmt.Errorf("MAX_LOG_SIZE_MB must be between 1 and 100")
	}

	// Validate chunking settings
	if c.MaxChunkTokens < 50 || c.MaxChunkTokens > 100000 {
		return fmt.Errorf("MAX_CHUNK_TOKENS must be between 50 and 100000")
	}

	// Validate retrieval settings
	if c.RetrievalK < 1 || c.RetrievalK > 20 {
		return fmt.Errorf("RETRIEVAL_K must be between 1 and 20")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	// Validate AI settings
	if c.AITimeoutSeconds < 30 || c.AITimeoutSeconds > 600 {
		return fmt.Errorf("AI_TIMEOUT_SECONDS must be between 30 and 600")
	}
	if c.AIMaxTokens < 500 || c.AIMaxTokens > 16000 {
		return fmt.Errorf("AI_MAX_TOKENS must be between 500 and 16000")
	}

	return nil
}

// constantTimePrefixMatch checks if s starts with prefix using constant-time comparison.
// This prevents timing attacks that could leak information about the string content.
// Returns false if s is shorter than prefix.
func constantTimePrefixMatch(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	// Compare only the prefix portion using constant-time comparison
	return subtle.ConstantTimeCompare([]byte(s[:len(prefix)]), []byte(prefix)) == 1
}

// validateLLMProvider validates LLM provider configuration
func (c *Config) validateLLMProvider() error {
	validProviders := map[string]bool{
		"openai":    true,
		"anthropic": true,
		"ollama":    true,
	}

	if !validProviders[c.LLMProvider] {
		return fmt.Errorf("LLM_PROVIDER must be 'openai', 'anthropic', or 'ollama' (got: %s)", c.LLMProvider)
	}

	switch c.LLMProvider {
	case "openai":
		if c.OpenAIBaseURL == "" {
			return fmt.Errorf("OPENAI_BASE_URL is required when LLM_PROVIDER=openai")
		}
		if !strings.HasPrefix(c.OpenAIBaseURL, "http://") && !strings.HasPrefix(c.OpenAIBaseURL, "https://") {
			return fmt.Errorf("OPENAI_BASE_URL must start with 'http://' or 'https://'")
		}
		// API key is required against the hosted API, but local
		// OpenAI-compatible servers accept unauthenticated requests.
		if c.OpenAIBaseURL == "https://api.openai.com" && c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		if c.OpenAIModel == "" {
			return fmt.Errorf("OPENAI_MODEL is required when LLM_PROVIDER=openai")
		}

	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic")
		}
		// Use constant-time comparison to prevent timing attacks
		if !constantTimePrefixMatch(c.AnthropicAPIKey, "sk-ant-") {
			return fmt.Errorf("ANTHROPIC_API_KEY must start with 'sk-ant-'")
		}
		if c.ClaudeModel == "" {
			return fmt.Errorf("CLAUDE_MODEL is required when LLM_PROVIDER=anthropic")
		}

	case "ollama":
		if c.OllamaModel == "" {
			return fmt.Errorf("OLLAMA_MODEL is required when LLM_PROVIDER=ollama")
		}
		if c.OllamaBaseURL == "" {
			return fmt.Errorf("OLLAMA_BASE_URL is required when LLM_PROVIDER=ollama")
		}
		if !strings.HasPrefix(c.OllamaBaseURL, "http://") && !strings.HasPrefix(c.OllamaBaseURL, "https://") {
			return fmt.Errorf("OLLAMA_BASE_URL must start with 'http://' or 'https://'")
		}
	}

	return nil
}

// validateEmbedding validates embedding provider configuration
func (c *Config) validateEmbedding() error {
	validProviders := map[string]bool{
		"openai": true,
		"ollama": true,
	}

	if !validProviders[c.EmbeddingProvider] {
		return fmt.Errorf("EMBEDDING_PROVIDER must be 'openai' or 'ollama' (got: %s)", c.EmbeddingProvider)
	}

	if c.EmbeddingModel == "" {
		return fmt.Errorf("EMBEDDING_MODEL is required")
	}

	if c.EmbeddingProvider == "openai" && c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when EMBEDDING_PROVIDER=openai")
	}

	if c.VectorStorePath == "" {
		return fmt.Errorf("VECTORSTORE_PATH is required")
	}

	return nil
}

// HasTelegram returns true if Telegram notifications are configured
func (c *Config) HasTelegram() bool {
	return c.TelegramBotToken != "" && c.TelegramAlertsChannel != 0
}

// HasSlack returns true if Slack notifications are configured
func (c *Config) HasSlack() bool {
	return c.SlackWebhookURL != ""
}

// HasDiscord returns true if Discord notifications are configured
func (c *Config) HasDiscord() bool {
	return c.DiscordWebhookURL != ""
}

// GetProxyURL returns the appropriate proxy URL for HTTP/HTTPS requests
func (c *Config) GetProxyURL(isHTTPS bool) string {
	if isHTTPS && c.HTTPSProxy != "" {
		return c.HTTPSProxy
	}
	if c.HTTPProxy != "" {
		return c.HTTPProxy
	}
	return ""
}

// IsOpenAI returns true if the LLM provider is OpenAI
func (c *Config) IsOpenAI() bool {
	return c.LLMProvider == "openai"
}

// IsAnthropic returns true if the LLM provider is Anthropic
func (c *Config) IsAnthropic() bool {
	return c.LLMProvider == "anthropic"
}

// IsOllama returns true if the LLM provider is Ollama
func (c *Config) IsOllama() bool {
	return c.LLMProvider == "ollama"
}

// GetLLMModel returns the model name for the current LLM provider
func (c *Config) GetLLMModel() string {
	switch c.LLMProvider {
	case "ollama":
		return c.OllamaModel
	case "anthropic":
		return c.ClaudeModel
	default:
		return c.OpenAIModel
	}
}
