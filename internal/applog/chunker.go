package applog

import (
	"sort"
	"strings"
)

// TokenCounter measures the token cost of a piece of text. Implementations
// must be deterministic: identical input yields identical counts.
type TokenCounter interface {
	CountTokens(text string) int
}

// Chunker groups entries into token-bounded chunks for embedding.
// The grouping is greedy, order-preserving and deterministic: for the same
// entry sequence and limit the chunk boundaries and IDs are identical on
// every run.
type Chunker struct {
	counter   TokenCounter
	maxTokens int
}

// DefaultMaxChunkTokens is the default per-chunk token budget.
const DefaultMaxChunkTokens = 500

// NewChunker creates a chunker with the given token counter and per-chunk
// token budget. A non-positive budget falls back to DefaultMaxChunkTokens.
func NewChunker(counter TokenCounter, maxTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxChunkTokens
	}
	return &Chunker{
		counter:   counter,
		maxTokens: maxTokens,
	}
}

// Chunk performs a single greedy pass over entries. Each entry's cost is
// computed once from its canonical serialization. When adding an entry to a
// non-empty group would exceed the budget, the group is flushed first. The
// entry is then always added, even if its own cost exceeds the budget, so no
// entry is ever lost; a single oversized entry occupies its own chunk.
func (c *Chunker) Chunk(entries []Entry) []Chunk {
	var chunks []Chunk
	var group []Entry
	groupTokens := 0

	for _, entry := range entries {
		cost := c.counter.CountTokens(entry.Serialized())

		if len(group) > 0 && groupTokens+cost > c.maxTokens {
			chunks = append(chunks, buildChunk(len(chunks), group, groupTokens))
			group = nil
			groupTokens = 0
		}

		group = append(group, entry)
		groupTokens += cost
	}

	if len(group) > 0 {
		chunks = append(chunks, buildChunk(len(chunks), group, groupTokens))
	}

	return chunks
}

// buildChunk finalizes a group of entries into an immutable Chunk.
func buildChunk(id int, group []Entry, tokenCount int) Chunk {
	lines := make([]string, len(group))
	errorCount := 0
	componentSet := make(map[string]bool)
	levelSet := make(map[string]bool)

	for i, e := range group {
		lines[i] = e.FullLine
		if e.IsError {
			errorCount++
		}
		componentSet[e.Component] = true
		levelSet[e.Level] = true
	}

	entries := make([]Entry, len(group))
	copy(entries, group)

	return Chunk{
		ChunkID:    id,
		Text:       strings.Join(lines, "\n"),
		Entries:    entries,
		TokenCount: tokenCount,
		ErrorCount: errorCount,
		Components: sortedKeys(componentSet),
		Levels:     sortedKeys(levelSet),
	}
}

// sortedKeys returns the set's members in sorted order. Set order is not
// significant to consumers, but sorting keeps output deterministic.
func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
