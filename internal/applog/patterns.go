package applog

import "strings"

// errorKeywordVocabulary is the closed set of keywords counted across error
// messages. Matching is case-insensitive substring search; one message may
// increment several keywords in the same pass.
var errorKeywordVocabulary = []string{
	"timeout",
	"connection",
	"failed",
	"error",
	"exception",
	"denied",
	"invalid",
	"not found",
	"unauthorized",
}

// ErrorKeywordVocabulary returns a copy of the fixed keyword vocabulary.
func ErrorKeywordVocabulary() []string {
	vocab := make([]string, len(errorKeywordVocabulary))
	copy(vocab, errorKeywordVocabulary)
	return vocab
}

// ExtractErrorPatterns aggregates error statistics over the error subset of
// entries in a single pass. The input is not mutated. TimeRange is computed
// over error entries that carry a parsed timestamp and is nil when none do.
func ExtractErrorPatterns(entries []Entry) ErrorPatterns {
	patterns := ErrorPatterns{
		ComponentDistribution: make(map[string]int),
		ErrorKeywords:         make(map[string]int),
	}

	for _, e := range entries {
		if !e.IsError {
			continue
		}

		if e.HasTimestamp() {
			if patterns.TimeRange == nil {
				patterns.TimeRange = &TimeRange{Start: e.Timestamp, End: e.Timestamp}
			} else {
				if e.Timestamp.Before(patterns.TimeRange.Start) {
					patterns.TimeRange.Start = e.Timestamp
				}
				if e.Timestamp.After(patterns.TimeRange.End) {
					patterns.TimeRange.End = e.Timestamp
				}
			}
		}

		patterns.TotalErrors++
		patterns.ComponentDistribution[e.Component]++

		message := strings.ToLower(e.Message)
		for _, keyword := range errorKeywordVocabulary {
			if strings.Contains(message, keyword) {
				patterns.ErrorKeywords[keyword]++
			}
		}
	}

	return patterns
}
