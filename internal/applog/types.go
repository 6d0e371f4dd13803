// Package applog parses application log files into structured entries,
// groups them into token-bounded chunks for embedding, and extracts
// aggregate error patterns.
package applog

import (
	"fmt"
	"time"
)

// Error severity levels. An entry with one of these levels is treated
// as an error entry throughout the pipeline.
var errorLevels = map[string]bool{
	"ERROR":    true,
	"CRITICAL": true,
	"FATAL":    true,
}

// IsErrorLevel reports whether the given normalized level marks an error entry.
func IsErrorLevel(level string) bool {
	return errorLevels[level]
}

// Entry represents one logical log record. A record may span multiple
// physical lines: lines that do not match the header grammar are folded
// into the message of the preceding entry.
type Entry struct {
	// LineNumber is the 1-based position of the entry's first physical line.
	LineNumber int

	// Timestamp is the parsed header timestamp. Zero if the header-shaped
	// timestamp could not be parsed.
	Timestamp time.Time

	// TimestampRaw is the original timestamp text from the header.
	TimestampRaw string

	// Level is the normalized (upper-cased) severity token.
	Level string

	// Component is the bracket-enclosed source identifier.
	Component string

	// Message is the entry body, including folded continuation lines.
	Message string

	// FullLine is the complete original line plus continuation text,
	// used for chunk text reconstruction.
	FullLine string

	// IsError is true iff Level is ERROR, CRITICAL or FATAL.
	IsError bool
}

// HasTimestamp reports whether the entry carries a parsed timestamp.
func (e *Entry) HasTimestamp() bool {
	return !e.Timestamp.IsZero()
}

// Serialized returns the canonical re-serialization of the entry used for
// token counting: "<timestamp_raw> <LEVEL> [<component>] <message>".
func (e *Entry) Serialized() string {
	return fmt.Sprintf("%s %s [%s] %s", e.TimestampRaw, e.Level, e.Component, e.Message)
}

// Chunk is a token-bounded batch of entries destined for embedding.
// Chunks are created once by the Chunker and never mutated afterwards.
type Chunk struct {
	// ChunkID is sequential within one processing run, assigned in
	// emission order starting from 0.
	ChunkID int

	// Text is the newline-joined FullLine values of the entries.
	Text string

	// Entries holds the chunk's entries in original order. Never empty.
	Entries []Entry

	// TokenCount is the sum of per-entry token costs.
	TokenCount int

	// ErrorCount is the number of error entries in the chunk.
	ErrorCount int

	// Components and Levels are the distinct values observed among the
	// chunk's entries. Order is not significant.
	Components []string
	Levels     []string
}

// TimeRange is the span between the earliest and latest parsed timestamps.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ErrorPatterns aggregates error statistics over one parse of a file.
type ErrorPatterns struct {
	// TotalErrors is the count of error entries.
	TotalErrors int `json:"total_errors"`

	// ComponentDistribution maps component name to error count.
	ComponentDistribution map[string]int `json:"component_distribution"`

	// ErrorKeywords maps each matched vocabulary keyword to its
	// occurrence count across error messages.
	ErrorKeywords map[string]int `json:"error_keywords"`

	// TimeRange spans the parsed timestamps of the examined entries.
	// Nil when no entry carries a parsed timestamp.
	TimeRange *TimeRange `json:"time_range,omitempty"`
}

// FilterErrors returns the subsequence of entries that are error entries.
// The input slice is not modified.
func FilterErrors(entries []Entry) []Entry {
	var errs []Entry
	for _, e := range entries {
		if e.IsError {
			errs = append(errs, e)
		}
	}
	return errs
}
