package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/logsage/logsage-ai-go/internal/analysis"
	internalerrors "github.com/logsage/logsage-ai-go/internal/errors"
)

// postWebhook POSTs a JSON payload to a webhook URL. Non-2xx responses are
// reported as errors with sanitized bodies.
func postWebhook(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return internalerrors.Wrapf(err, "webhook request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned status %d: %s",
			resp.StatusCode, internalerrors.SanitizeString(string(respBody)))
	}

	return nil
}

// formatSummaryText renders a plain-text summary shared by webhook channels.
func formatSummaryText(summary *Summary) string {
	var sb bytes.Buffer

	fmt.Fprintf(&sb, "Log Analysis Report\n")
	fmt.Fprintf(&sb, "File: %s\n", summary.LogFile)
	fmt.Fprintf(&sb, "Date: %s\n", summary.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "Entries: %d | Chunks: %d | Errors analyzed: %d\n",
		summary.EntryCount, summary.ChunkCount, summary.ErrorCount)

	if summary.ErrorCount > 0 {
		sb.WriteString("Severity: ")
		first := true
		for _, severity := range []analysis.Severity{
			analysis.SeverityCritical,
			analysis.SeverityHigh,
			analysis.SeverityMedium,
			analysis.SeverityLow,
		} {
			if count := summary.SeverityCounts[severity]; count > 0 {
				if !first {
					sb.WriteString(", ")
				}
				fmt.Fprintf(&sb, "%s %s: %d", SeverityEmoji(severity), string(severity), count)
				first = false
			}
		}
		sb.WriteString("\n")
	}

	if len(summary.Findings) > 0 {
		sb.WriteString("\nTop findings:\n")
		for i, finding := range summary.Findings {
			fmt.Fprintf(&sb, "%d. %s %s\n   %s\n",
				i+1, SeverityEmoji(finding.Severity), finding.ErrorMessage, finding.Explanation)
		}
	}

	return sb.String()
}
