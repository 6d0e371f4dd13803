package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/logsage/logsage-ai-go/internal/agent"
	"github.com/logsage/logsage-ai-go/internal/ai"
	"github.com/logsage/logsage-ai-go/internal/analysis"
	"github.com/logsage/logsage-ai-go/internal/applog"
	"github.com/logsage/logsage-ai-go/internal/config"
	"github.com/logsage/logsage-ai-go/internal/logging"
	"github.com/logsage/logsage-ai-go/internal/notification"
	"github.com/logsage/logsage-ai-go/internal/storage"
	"github.com/logsage/logsage-ai-go/internal/tokenizer"
	"github.com/logsage/logsage-ai-go/internal/vectorstore"
	"github.com/logsage/logsage-ai-go/pkg/logger"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

// Version information - injected at build time via ldflags
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse CLI arguments first
	cli := config.ParseCLI()

	// Handle -help flag
	if cli.ShowHelp {
		config.PrintUsage()
		return exitSuccess
	}

	// Handle -version flag
	if cli.ShowVersion {
		fmt.Printf("logsage-analyzer %s\n", version)
		if gitCommit != "unknown" {
			fmt.Printf("  commit: %s\n", gitCommit)
		}
		if buildTime != "unknown" {
			fmt.Printf("  built:  %s\n", buildTime)
		}
		return exitSuccess
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Load configuration with CLI overrides
	cfg, err := config.LoadWithCLI(cli)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return exitFailure
	}

	// Initialize logger with credential sanitization
	baseLog := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		LogDir:     "./logs",
		Filename:   "analyzer.log",
		MaxSizeMB:  10,
		MaxBackups: 5,
		Console:    true,
	})
	log := logging.NewSecure(baseLog)
	defer func() {
		if err := log.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close logger: %v\n", err)
		}
	}()

	log.Info().Str("log_file", cfg.LogFilePath).Msg("Starting LogSage AI Analyzer")
	log.Info().Str("provider", cfg.LLMProvider).Str("model", cfg.GetLLMModel()).Msg("Configured AI model")

	// Run the analyzer
	if err := runAnalyzer(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("Analysis failed")
		return exitFailure
	}

	log.Info().Msg("Analysis completed successfully")
	return exitSuccess
}

func runAnalyzer(ctx context.Context, cfg *config.Config, log *logging.SecureLogger) error {
	startTime := time.Now()

	log.Info().Msg("Initializing components...")

	// 1. Initialize storage (if enabled)
	var store *storage.Storage
	var err error

	if cfg.EnableDatabase {
		store, err = storage.New(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer func(store *storage.Storage) {
			err = store.Close()
			if err != nil {
				log.Warn().Err(err).Msg("Failed to close database")
			}
		}(store)
		log.Info().Str("path", cfg.DatabasePath).Msg("Database initialized")
	}

	// 2. Initialize vector store
	vecStore, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
		Path:              cfg.VectorStorePath,
		EmbeddingProvider: cfg.EmbeddingProvider,
		EmbeddingModel:    cfg.EmbeddingModel,
		OpenAIAPIKey:      cfg.OpenAIAPIKey,
		OllamaBaseURL:     cfg.OllamaBaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}
	log.Info().
		Str("path", cfg.VectorStorePath).
		Str("embeddings", cfg.EmbeddingProvider).
		Int("documents", vecStore.Count()).
		Msg("Vector store initialized")

	// 3. Initialize token counter for chunk sizing
	var counter tokenizer.Counter
	tiktokenCounter, err := tokenizer.NewTiktoken(tokenizer.DefaultEncoding)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load tiktoken encoding, using heuristic estimator")
		counter = tokenizer.Estimator{}
	} else {
		counter = tiktokenCounter
	}

	// 4. Initialize LLM provider
	provider, err := createProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM provider: %w", err)
	}

	modelInfo := provider.GetModelInfo()
	log.Info().
		Str("model", modelInfo["model"].(string)).
		Int("max_tokens", modelInfo["max_tokens"].(int)).
		Msg("LLM provider initialized")

	// Verify local inference is reachable before the full pipeline runs
	if ollamaClient, ok := provider.(*ai.OllamaClient); ok {
		if err := ollamaClient.CheckConnection(ctx); err != nil {
			return fmt.Errorf("ollama connection check failed: %w", err)
		}
	}

	// 5. Build the analysis agent
	logAgent := agent.New(provider, vecStore, counter, cfg.MaxChunkTokens, log, agent.Options{
		RetrievalK:   cfg.RetrievalK,
		MaxLogSizeMB: cfg.MaxLogSizeMB,
	})

	// 6. Process the log file
	log.Info().Str("path", cfg.LogFilePath).Msg("Processing log file...")
	report, err := logAgent.ProcessLogFile(ctx, cfg.LogFilePath)
	if err != nil {
		return fmt.Errorf("log file processing failed: %w", err)
	}

	log.Info().
		Int("entries", report.EntryCount).
		Int("chunks", report.ChunkCount).
		Int("errors_analyzed", len(report.Results)).
		Msg("Log file processed")

	log.Info().
		Int("total_errors", report.Patterns.TotalErrors).
		Msg("Error patterns extracted")

	// 7. Write the JSON report (if configured)
	if cfg.OutputPath != "" {
		if err := writeReport(cfg.OutputPath, cfg.LogFilePath, report); err != nil {
			log.Warn().Err(err).Msg("Failed to write analysis report")
		} else {
			log.Info().Str("path", cfg.OutputPath).Msg("Analysis report written")
		}
	}

	// 8. Save to database (if enabled)
	if store != nil {
		log.Info().Msg("Saving run to database...")
		run := &storage.Run{
			Timestamp:  time.Now(),
			LogFile:    cfg.LogFilePath,
			EntryCount: report.EntryCount,
			ChunkCount: report.ChunkCount,
			ErrorCount: len(report.Results),
		}

		if err := store.SaveRun(run, report.Results); err != nil {
			log.Warn().Err(err).Msg("Failed to save run to database")
		} else {
			log.Info().Int64("id", run.ID).Msg("Run saved to database")
		}

		// Cleanup old runs (>90 days)
		deleted, err := store.CleanupOldRuns(90)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to cleanup old runs")
		} else if deleted > 0 {
			log.Info().Int64("deleted", deleted).Msg("Old runs cleaned up")
		}
	}

	// 9. Send notifications
	summary := notification.BuildSummary(
		cfg.LogFilePath, report.EntryCount, report.ChunkCount, report.Results, 0)

	dispatcher, cleanup, err := createDispatcher(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize notifiers")
	} else {
		defer cleanup()
		if dispatcher.HasNotifiers() && summary.ShouldAlert() {
			log.Info().Msg("Sending notifications (high severity findings present)...")
			if err := dispatcher.Send(ctx, summary); err != nil {
				log.Warn().Err(err).Msg("Some notifications failed")
			}
		}
	}

	// Final summary
	totalDuration := time.Since(startTime)
	log.Info().
		Float64("total_duration_s", totalDuration.Seconds()).
		Msg("All operations completed successfully")

	return nil
}

// createProvider creates the configured LLM provider
func createProvider(cfg *config.Config) (ai.Provider, error) {
	switch cfg.LLMProvider {
	case "anthropic":
		proxyURL := cfg.GetProxyURL(true) // HTTPS proxy for API calls
		return ai.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.ClaudeModel, proxyURL, cfg.AITimeoutSeconds, cfg.AIMaxTokens)

	case "ollama":
		return ai.NewOllamaClient(ai.OllamaConfig{
			BaseURL:        cfg.OllamaBaseURL,
			Model:          cfg.OllamaModel,
			TimeoutSeconds: cfg.AITimeoutSeconds,
			MaxTokens:      cfg.AIMaxTokens,
		})

	case "openai":
		return ai.NewOpenAIClient(ai.OpenAIConfig{
			BaseURL:        cfg.OpenAIBaseURL,
			APIKey:         cfg.OpenAIAPIKey,
			Model:          cfg.OpenAIModel,
			TimeoutSeconds: cfg.AITimeoutSeconds,
			MaxTokens:      cfg.AIMaxTokens,
			JSONMode:       true,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}

// createDispatcher builds the notification dispatcher from configured channels.
// The returned cleanup func closes stateful clients.
func createDispatcher(cfg *config.Config) (*notification.Dispatcher, func(), error) {
	var notifiers []notification.Notifier
	cleanup := func() {}

	if cfg.HasTelegram() {
		telegramClient, err := notification.NewTelegramClient(cfg.TelegramBotToken, cfg.TelegramAlertsChannel)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		notifiers = append(notifiers, telegramClient)
		cleanup = func() { _ = telegramClient.Close() }
	}

	if cfg.HasSlack() {
		notifiers = append(notifiers, notification.NewSlackClient(cfg.SlackWebhookURL))
	}

	if cfg.HasDiscord() {
		notifiers = append(notifiers, notification.NewDiscordClient(cfg.DiscordWebhookURL))
	}

	return notification.NewDispatcher(notifiers...), cleanup, nil
}

// reportPayload is the JSON document written to the output path.
type reportPayload struct {
	GeneratedAt string               `json:"generated_at"`
	LogFile     string               `json:"log_file"`
	EntryCount  int                  `json:"entry_count"`
	ChunkCount  int                  `json:"chunk_count"`
	Patterns    applog.ErrorPatterns `json:"patterns"`
	Results     []analysis.Result    `json:"results"`
}

// writeReport writes the analysis report as pretty-printed JSON.
func writeReport(path, logFile string, report *agent.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	payload := reportPayload{
		GeneratedAt: time.Now().Format(time.RFC3339),
		LogFile:     logFile,
		EntryCount:  report.EntryCount,
		ChunkCount:  report.ChunkCount,
		Patterns:    report.Patterns,
		Results:     report.Results,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}
