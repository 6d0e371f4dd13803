// Package notification delivers analysis summaries to alerting channels.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/logsage/logsage-ai-go/internal/analysis"
)

// maxFindings caps how many individual findings appear in a summary message.
const maxFindings = 5

// Finding is one error analysis condensed for a notification message.
type Finding struct {
	Severity     analysis.Severity
	ErrorMessage string
	Explanation  string
}

// Summary is the condensed outcome of an analysis run, ready for delivery.
type Summary struct {
	LogFile        string
	Timestamp      time.Time
	EntryCount     int
	ChunkCount     int
	ErrorCount     int
	SeverityCounts map[analysis.Severity]int
	Findings       []Finding
	CostUSD        float64
}

// BuildSummary condenses run results into a Summary. Findings are ordered as
// analyzed and capped at maxFindings, preferring the most severe ones.
func BuildSummary(logFile string, entryCount, chunkCount int, results []analysis.Result, costUSD float64) *Summary {
	summary := &Summary{
		LogFile:        logFile,
		Timestamp:      time.Now(),
		EntryCount:     entryCount,
		ChunkCount:     chunkCount,
		ErrorCount:     len(results),
		SeverityCounts: make(map[analysis.Severity]int),
		CostUSD:        costUSD,
	}

	for _, result := range results {
		summary.SeverityCounts[result.Severity]++
	}

	// Collect findings in severity order so the cap keeps the worst ones
	for _, severity := range []analysis.Severity{
		analysis.SeverityCritical,
		analysis.SeverityHigh,
		analysis.SeverityMedium,
		analysis.SeverityLow,
	} {
		for _, result := range results {
			if result.Severity != severity {
				continue
			}
			if len(summary.Findings) >= maxFindings {
				return summary
			}
			summary.Findings = append(summary.Findings, Finding{
				Severity:     result.Severity,
				ErrorMessage: truncate(result.ErrorMessage, 120),
				Explanation:  truncate(result.Explanation, 200),
			})
		}
	}

	return summary
}

// ShouldAlert reports whether the summary warrants pushing to alert channels.
func (s *Summary) ShouldAlert() bool {
	return s.SeverityCounts[analysis.SeverityHigh] > 0 ||
		s.SeverityCounts[analysis.SeverityCritical] > 0
}

// SeverityEmoji returns the emoji for a severity level.
func SeverityEmoji(severity analysis.Severity) string {
	switch severity {
	case analysis.SeverityCritical:
		return "🔴"
	case analysis.SeverityHigh:
		return "🟠"
	case analysis.SeverityMedium:
		return "🟡"
	case analysis.SeverityLow:
		return "🟢"
	default:
		return "⚪"
	}
}

// Notifier delivers a summary to one channel.
type Notifier interface {
	SendSummary(ctx context.Context, summary *Summary) error
	Name() string
}

// Dispatcher fans a summary out to every configured notifier. A failing
// channel never blocks the others.
type Dispatcher struct {
	notifiers []Notifier
}

// NewDispatcher creates a dispatcher over the given notifiers.
func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{notifiers: notifiers}
}

// Send delivers the summary to all notifiers and returns a combined error
// naming each channel that failed.
func (d *Dispatcher) Send(ctx context.Context, summary *Summary) error {
	var failures []string

	for _, notifier := range d.notifiers {
		if err := notifier.SendSummary(ctx, summary); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", notifier.Name(), err))
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("notification failures: %s", strings.Join(failures, "; "))
	}

	return nil
}

// HasNotifiers reports whether any channel is configured.
func (d *Dispatcher) HasNotifiers() bool {
	return len(d.notifiers) > 0
}

// truncate shortens s to at most n runes, appending an ellipsis when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
