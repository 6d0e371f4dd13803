package notification

import (
	"errors"
	"strings"
	"testing"

	"github.com/logsage/logsage-ai-go/internal/analysis"
)

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain text", "plain text"},
		{"file.log", "file\\.log"},
		{"a_b*c", "a\\_b\\*c"},
		{"[db] error: timeout!", "\\[db\\] error\\: timeout\\!"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := escapeMarkdown(tt.input); got != tt.want {
			t.Errorf("escapeMarkdown(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsTelegramRateLimit(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429 code", errors.New("telegram: 429"), true},
		{"too many requests", errors.New("Too Many Requests: retry after 30"), true},
		{"other error", errors.New("bad request"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTelegramRateLimit(tt.err); got != tt.want {
				t.Errorf("isTelegramRateLimit(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestExtractRetryAfter(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"standard message", errors.New("Too Many Requests: retry after 45"), 45},
		{"no retry value defaults conservative", errors.New("Too Many Requests"), 30},
		{"garbage after marker defaults conservative", errors.New("retry after soon"), 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractRetryAfter(tt.err); got != tt.want {
				t.Errorf("extractRetryAfter(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestTelegramClient_SplitMessage(t *testing.T) {
	client := &TelegramClient{}

	t.Run("short message untouched", func(t *testing.T) {
		parts := client.splitMessage("short message")
		if len(parts) != 1 || parts[0] != "short message" {
			t.Errorf("splitMessage() = %v, want single untouched part", parts)
		}
	})

	t.Run("long message split on lines", func(t *testing.T) {
		var sb strings.Builder
		for i := 0; i < 200; i++ {
			sb.WriteString(strings.Repeat("x", 50))
			sb.WriteString("\n")
		}

		parts := client.splitMessage(sb.String())
		if len(parts) < 2 {
			t.Fatalf("splitMessage() = %d parts, want multiple", len(parts))
		}
		for i, part := range parts {
			if len(part) > maxMessageLength {
				t.Errorf("part %d has length %d, want <= %d", i, len(part), maxMessageLength)
			}
		}
	})

	t.Run("oversized single line is chopped", func(t *testing.T) {
		parts := client.splitMessage(strings.Repeat("y", maxMessageLength*2+10))
		for i, part := range parts {
			if len(part) > maxMessageLength {
				t.Errorf("part %d has length %d, want <= %d", i, len(part), maxMessageLength)
			}
		}
	})
}

func TestTelegramClient_FormatMessage(t *testing.T) {
	client := &TelegramClient{hostname: "web01"}

	summary := BuildSummary("/var/log/app.log", 50, 5, []analysis.Result{
		{
			ErrorMessage: "ERROR [db] connection timeout",
			Explanation:  "Pool exhausted",
			Severity:     analysis.SeverityCritical,
		},
	}, 0.0123)

	msg := client.formatMessage(summary)

	for _, want := range []string{
		"*Log Analysis Report*",
		"web01",
		"Entries\\: 50",
		"CRITICAL\\: 1",
		"*Top Findings*",
		"Pool exhausted",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("formatMessage() missing %q in:\n%s", want, msg)
		}
	}

	// Path dots must be escaped for MarkdownV2
	if !strings.Contains(msg, "app\\.log") {
		t.Error("formatMessage() did not escape the log file path")
	}
	// Cost appears when non-zero
	if !strings.Contains(msg, "0\\.0123") {
		t.Error("formatMessage() missing cost line")
	}
}

func TestTelegramClient_FormatMessageCleanRun(t *testing.T) {
	client := &TelegramClient{hostname: "web01"}
	summary := BuildSummary("app.log", 10, 2, nil, 0)

	msg := client.formatMessage(summary)
	if strings.Contains(msg, "*Severity*") {
		t.Error("formatMessage() shows severity section for clean run")
	}
	if strings.Contains(msg, "*Top Findings*") {
		t.Error("formatMessage() shows findings section for clean run")
	}
	if strings.Contains(msg, "Cost") {
		t.Error("formatMessage() shows cost line for zero cost")
	}
}
