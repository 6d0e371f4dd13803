package applog

import (
	"regexp"
	"strings"
	"time"
)

// headerPattern matches a log entry header:
// "<YYYY-MM-DD HH:MM:SS> <LEVEL> [<component>] <message>".
var headerPattern = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\s+(\w+)\s+\[([^\]]+)\]\s+(.*)$`,
)

// timestampLayout is the expected header timestamp format.
const timestampLayout = "2006-01-02 15:04:05"

// Parser turns raw log text into structured entries.
type Parser struct{}

// NewParser creates a new log parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseStats reports diagnostic counters from a single Parse call.
type ParseStats struct {
	// TotalLines is the number of physical lines examined.
	TotalLines int

	// ContinuationLines is the number of non-matching lines folded into
	// the preceding entry.
	ContinuationLines int

	// DroppedLeading counts non-matching lines seen before the first
	// recognized header. They cannot be attached to any entry and are
	// excluded from the output; callers should surface this as a warning.
	DroppedLeading int
}

// Parse splits raw text into physical lines and emits one Entry per line
// matching the header grammar. Non-matching lines are appended to the
// message of the previous entry; blank lines are skipped. Timestamp parse
// failures leave Entry.Timestamp zero, never abort the parse.
func (p *Parser) Parse(raw string) ([]Entry, ParseStats) {
	var entries []Entry
	var stats ParseStats

	lines := strings.Split(strings.TrimSpace(raw), "\n")
	for lineNum, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		stats.TotalLines++

		match := headerPattern.FindStringSubmatch(trimmed)
		if match == nil {
			if len(entries) == 0 {
				stats.DroppedLeading++
				continue
			}
			// Continuation of the previous entry.
			last := &entries[len(entries)-1]
			last.Message += " " + trimmed
			last.FullLine += " " + trimmed
			stats.ContinuationLines++
			continue
		}

		tsRaw, level, component, message := match[1], match[2], match[3], match[4]
		level = strings.ToUpper(level)

		ts, err := time.Parse(timestampLayout, tsRaw)
		if err != nil {
			ts = time.Time{}
		}

		entries = append(entries, Entry{
			LineNumber:   lineNum + 1,
			Timestamp:    ts,
			TimestampRaw: tsRaw,
			Level:        level,
			Component:    component,
			Message:      message,
			FullLine:     trimmed,
			IsError:      IsErrorLevel(level),
		})
	}

	return entries, stats
}
