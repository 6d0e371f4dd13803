// Package vectorstore provides persistent embedding storage and similarity
// search for log chunks.
package vectorstore

import (
	"context"

	"github.com/logsage/logsage-ai-go/internal/applog"
)

// Result is a single similarity search hit.
type Result struct {
	ID         string
	Content    string
	Metadata   map[string]string
	Similarity float32
}

// Store abstracts the vector database used for chunk retrieval.
type Store interface {
	// AddChunks embeds and stores the given chunks. Returns the number of
	// chunks actually stored.
	AddChunks(ctx context.Context, chunks []applog.Chunk) (int, error)

	// QuerySimilar returns up to k chunks most similar to the query text,
	// ordered by descending similarity. An empty store yields an empty
	// slice, not an error.
	QuerySimilar(ctx context.Context, query string, k int) ([]Result, error)

	// Count returns the number of stored documents.
	Count() int
}
