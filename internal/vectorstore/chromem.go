package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/philippgille/chromem-go"

	"github.com/logsage/logsage-ai-go/internal/applog"
	internalerrors "github.com/logsage/logsage-ai-go/internal/errors"
)

const collectionName = "log_chunks"

// ChromemStore is a Store backed by an embedded chromem-go database
// persisted on disk.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// ChromemConfig holds vector store configuration.
type ChromemConfig struct {
	Path              string // persistence directory
	EmbeddingProvider string // "openai" or "ollama"
	EmbeddingModel    string
	OpenAIAPIKey      string // used when EmbeddingProvider = "openai"
	OllamaBaseURL     string // used when EmbeddingProvider = "ollama"
}

// NewChromemStore opens (or creates) a persistent vector store at cfg.Path.
func NewChromemStore(cfg ChromemConfig) (*ChromemStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("vector store path is required")
	}

	embeddingFunc, err := buildEmbeddingFunc(cfg)
	if err != nil {
		return nil, err
	}

	db, err := chromem.NewPersistentDB(cfg.Path, false)
	if err != nil {
		return nil, internalerrors.Wrapf(err, "failed to open vector store at %s", cfg.Path)
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, embeddingFunc)
	if err != nil {
		return nil, internalerrors.Wrapf(err, "failed to open collection %s", collectionName)
	}

	return &ChromemStore{db: db, collection: collection}, nil
}

// newTestStore builds an in-memory store with a custom embedding function.
// Used by tests to avoid network calls.
func newTestStore(embeddingFunc chromem.EmbeddingFunc) (*ChromemStore, error) {
	db := chromem.NewDB()
	collection, err := db.GetOrCreateCollection(collectionName, nil, embeddingFunc)
	if err != nil {
		return nil, err
	}
	return &ChromemStore{db: db, collection: collection}, nil
}

// buildEmbeddingFunc selects the embedding backend based on configuration.
func buildEmbeddingFunc(cfg ChromemConfig) (chromem.EmbeddingFunc, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai api key is required for openai embeddings")
		}
		model := chromem.EmbeddingModelOpenAI(cfg.EmbeddingModel)
		if cfg.EmbeddingModel == "" {
			model = chromem.EmbeddingModelOpenAI3Small
		}
		return chromem.NewEmbeddingFuncOpenAI(cfg.OpenAIAPIKey, model), nil

	case "ollama":
		model := cfg.EmbeddingModel
		if model == "" {
			model = "nomic-embed-text"
		}
		baseURL := strings.TrimSuffix(cfg.OllamaBaseURL, "/")
		if baseURL != "" {
			baseURL += "/api"
		}
		return chromem.NewEmbeddingFuncOllama(model, baseURL), nil

	default:
		return nil, fmt.Errorf("embedding provider must be 'openai' or 'ollama' (got: %s)", cfg.EmbeddingProvider)
	}
}

// AddChunks embeds and stores the given chunks.
func (s *ChromemStore) AddChunks(ctx context.Context, chunks []applog.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	now := time.Now().Unix()
	documents := make([]chromem.Document, 0, len(chunks))
	for _, chunk := range chunks {
		documents = append(documents, chromem.Document{
			ID:       fmt.Sprintf("chunk_%d_%d", chunk.ChunkID, now),
			Content:  chunk.Text,
			Metadata: chunkMetadata(chunk, now),
		})
	}

	if err := s.collection.AddDocuments(ctx, documents, 2); err != nil {
		return 0, internalerrors.Wrapf(err, "failed to add documents to vector store")
	}

	return len(documents), nil
}

// chunkMetadata flattens chunk attributes into the string map chromem stores.
func chunkMetadata(chunk applog.Chunk, timestamp int64) map[string]string {
	return map[string]string{
		"chunk_id":    strconv.Itoa(chunk.ChunkID),
		"error_count": strconv.Itoa(chunk.ErrorCount),
		"components":  strings.Join(chunk.Components, ","),
		"levels":      strings.Join(chunk.Levels, ","),
		"token_count": strconv.Itoa(chunk.TokenCount),
		"timestamp":   strconv.FormatInt(timestamp, 10),
	}
}

// QuerySimilar returns up to k chunks most similar to the query text.
func (s *ChromemStore) QuerySimilar(ctx context.Context, query string, k int) ([]Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive (got: %d)", k)
	}

	// chromem rejects queries asking for more results than documents stored
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	hits, err := s.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, internalerrors.Wrapf(err, "vector store query failed")
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{
			ID:         hit.ID,
			Content:    hit.Content,
			Metadata:   hit.Metadata,
			Similarity: hit.Similarity,
		})
	}

	return results, nil
}

// Count returns the number of stored documents.
func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// Ensure ChromemStore implements Store interface
var _ Store = (*ChromemStore)(nil)
