// Package tokenizer provides deterministic token counting for chunk sizing.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used for token counting.
const DefaultEncoding = "cl100k_base"

// Counter measures the token cost of text. Counts must be stable across
// calls for identical input.
type Counter interface {
	CountTokens(text string) int
}

// Tiktoken counts tokens using a tiktoken BPE encoding.
type Tiktoken struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTiktoken creates a tiktoken-backed counter for the given encoding name.
// An empty name selects DefaultEncoding.
func NewTiktoken(encodingName string) (*Tiktoken, error) {
	if encodingName == "" {
		encodingName = DefaultEncoding
	}

	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}

	return &Tiktoken{
		encoding: encoding,
		name:     encodingName,
	}, nil
}

// CountTokens returns the number of BPE tokens in text.
func (t *Tiktoken) CountTokens(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// EncodingName returns the name of the loaded encoding.
func (t *Tiktoken) EncodingName() string {
	return t.name
}

// Estimator approximates token counts without encoding data, using
// max(chars/4, words/0.75). Used as a fallback when the tiktoken encoding
// cannot be loaded (for example, offline hosts).
type Estimator struct{}

// CountTokens returns the heuristic token estimate for text.
func (Estimator) CountTokens(text string) int {
	chars := len(text)
	words := len(strings.Fields(text))

	charsEstimate := chars / 4
	wordsEstimate := int(float64(words) / 0.75)

	if charsEstimate > wordsEstimate {
		return charsEstimate
	}
	return wordsEstimate
}
