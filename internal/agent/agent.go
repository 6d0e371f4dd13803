// Package agent orchestrates log analysis: chunking, vector retrieval and
// LLM-backed root cause analysis of error entries.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/logsage/logsage-ai-go/internal/ai"
	"github.com/logsage/logsage-ai-go/internal/analysis"
	"github.com/logsage/logsage-ai-go/internal/applog"
	"github.com/logsage/logsage-ai-go/internal/logging"
	"github.com/logsage/logsage-ai-go/internal/vectorstore"
)

// DefaultRetrievalK is the number of similar chunks retrieved per analysis.
const DefaultRetrievalK = 3

// Agent ties the log pipeline together: it ingests raw logs into the vector
// store and analyzes individual error entries with historical context.
type Agent struct {
	provider   ai.Provider
	store      vectorstore.Store
	parser     *applog.Parser
	chunker    *applog.Chunker
	reader     *applog.Reader
	log        *logging.SecureLogger
	retrievalK int
}

// Options configures optional Agent behavior.
type Options struct {
	RetrievalK   int // similar chunks per analysis, defaults to DefaultRetrievalK
	MaxLogSizeMB int // log file size guard, defaults to applog defaults
}

// New creates an Agent. The token counter drives chunk sizing.
func New(provider ai.Provider, store vectorstore.Store, counter applog.TokenCounter, maxChunkTokens int, log *logging.SecureLogger, opts Options) *Agent {
	retrievalK := opts.RetrievalK
	if retrievalK <= 0 {
		retrievalK = DefaultRetrievalK
	}

	return &Agent{
		provider:   provider,
		store:      store,
		parser:     applog.NewParser(),
		chunker:    applog.NewChunker(counter, maxChunkTokens),
		reader:     applog.NewReader(opts.MaxLogSizeMB),
		log:        log,
		retrievalK: retrievalK,
	}
}

// Report is the outcome of processing a whole log file.
type Report struct {
	Results      []analysis.Result    `json:"results"`
	Patterns     applog.ErrorPatterns `json:"patterns"`
	EntryCount   int                  `json:"entry_count"`
	ChunkCount   int                  `json:"chunk_count"`
	StoredChunks int                  `json:"stored_chunks"`
}

// AddToStore parses raw log text, chunks it and stores the chunks in the
// vector store. Returns the number of chunks stored; ingestion failures are
// logged and reported as zero rather than propagated.
func (a *Agent) AddToStore(ctx context.Context, rawLog string) int {
	entries, stats := a.parser.Parse(rawLog)
	if stats.DroppedLeading > 0 {
		a.log.Warn().
			Int("dropped_lines", stats.DroppedLeading).
			Msg("Dropped leading lines that match no log entry format")
	}

	if len(entries) == 0 {
		a.log.Warn().Msg("No log entries parsed from input")
		return 0
	}

	chunks := a.chunker.Chunk(entries)
	stored, err := a.store.AddChunks(ctx, chunks)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to store log chunks")
		return 0
	}

	a.log.Info().
		Int("entries", len(entries)).
		Int("chunks", stored).
		Msg("Log chunks stored in vector store")

	return stored
}

// Analyze performs root cause analysis of a single error message. It never
// returns an error: any failure is reported inside the Result with HIGH
// severity and zero confidence so batch processing is never interrupted.
func (a *Agent) Analyze(ctx context.Context, errorMessage string) analysis.Result {
	if strings.TrimSpace(errorMessage) == "" {
		return a.failureResult(errorMessage, "empty error message")
	}

	hits, err := a.store.QuerySimilar(ctx, errorMessage, a.retrievalK)
	if err != nil {
		a.log.Error().Err(err).Msg("Context retrieval failed")
		return a.failureResult(errorMessage, err.Error())
	}
	contextText := FormatContext(hits)

	systemPrompt := GetSystemPrompt()
	userPrompt := GetUserPrompt(errorMessage, contextText)

	raw, stats, err := a.provider.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		a.log.Error().Err(err).Msg("LLM analysis failed")
		return a.failureResult(errorMessage, err.Error())
	}

	if stats != nil {
		a.log.Debug().
			Str("provider", stats.Provider).
			Str("model", stats.Model).
			Int("input_tokens", stats.InputTokens).
			Int("output_tokens", stats.OutputTokens).
			Float64("cost_usd", stats.CostUSD).
			Float64("duration_seconds", stats.DurationSeconds).
			Msg("LLM call completed")
	}

	outcome := analysis.Sanitize(raw)
	if outcome.Kind != analysis.OutcomeClean {
		a.log.Warn().
			Str("outcome", outcome.Kind.String()).
			Msg("LLM response required fallback sanitization")
	}

	result := outcome.Result
	result.ErrorMessage = errorMessage
	result.Timestamp = time.Now().Format(time.RFC3339)

	return result
}

// ProcessLogFile runs the full pipeline on a log file: read, parse, chunk,
// store, then analyze every error entry in input order.
func (a *Agent) ProcessLogFile(ctx context.Context, path string) (*Report, error) {
	raw, err := a.reader.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	entries, stats := a.parser.Parse(raw)
	if stats.DroppedLeading > 0 {
		a.log.Warn().
			Int("dropped_lines", stats.DroppedLeading).
			Msg("Dropped leading lines that match no log entry format")
	}

	if len(entries) == 0 {
		a.log.Warn().Str("path", path).Msg("Log file contains no parseable entries")
		return &Report{Patterns: applog.ExtractErrorPatterns(nil)}, nil
	}

	chunks := a.chunker.Chunk(entries)
	stored, err := a.store.AddChunks(ctx, chunks)
	if err != nil {
		// Analysis can proceed without fresh context, so keep going
		a.log.Error().Err(err).Msg("Failed to store log chunks")
		stored = 0
	}

	patterns := applog.ExtractErrorPatterns(entries)
	errorEntries := applog.FilterErrors(entries)

	a.log.Info().
		Int("entries", len(entries)).
		Int("chunks", len(chunks)).
		Int("errors", len(errorEntries)).
		Msg("Log file ingested, analyzing error entries")

	results := make([]analysis.Result, 0, len(errorEntries))
	for _, entry := range errorEntries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		results = append(results, a.Analyze(ctx, entry.Message))
	}

	return &Report{
		Results:      results,
		Patterns:     patterns,
		EntryCount:   len(entries),
		ChunkCount:   len(chunks),
		StoredChunks: stored,
	}, nil
}

// GetModelInfo exposes the underlying provider's model details.
func (a *Agent) GetModelInfo() map[string]interface{} {
	return a.provider.GetModelInfo()
}

// failureResult builds the fixed-shape result used when analysis cannot run.
func (a *Agent) failureResult(errorMessage, details string) analysis.Result {
	return analysis.Result{
		ErrorMessage:    errorMessage,
		Explanation:     "The analysis could not be completed due to an internal error.",
		PossibleCauses:  []string{"Internal system error"},
		Severity:        analysis.SeverityHigh,
		Recommendations: []string{"Contact the system administrator"},
		ConfidenceScore: 0.0,
		Timestamp:       time.Now().Format(time.RFC3339),
		ErrorDetails:    details,
	}
}
