package notification

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/logsage/logsage-ai-go/internal/analysis"
	internalerrors "github.com/logsage/logsage-ai-go/internal/errors"
)

const (
	maxMessageLength = 4096
	// minMessageInterval is the minimum time between messages to the same channel
	// to avoid Telegram rate limits
	minMessageInterval = 1 * time.Second
	// maxRetries is the maximum number of retry attempts for sending messages
	maxRetries = 3
	// baseRetryDelay is the initial delay between retries (doubles each attempt)
	baseRetryDelay = 2 * time.Second
)

// TelegramClient handles Telegram notifications
type TelegramClient struct {
	bot             *tgbotapi.BotAPI
	alertsChannel   int64
	hostname        string
	lastMessageTime time.Time // tracks last message for rate limiting
}

// NewTelegramClient creates a new Telegram client
func NewTelegramClient(botToken string, alertsChannel int64) (*TelegramClient, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		// Sanitize error to prevent bot token from appearing in error messages
		return nil, internalerrors.Wrapf(err, "failed to create Telegram bot")
	}

	// Get hostname for reports
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return &TelegramClient{
		bot:           bot,
		alertsChannel: alertsChannel,
		hostname:      hostname,
	}, nil
}

// Name returns the channel name.
func (t *TelegramClient) Name() string {
	return "telegram"
}

// SendSummary sends the analysis summary to the alerts channel.
func (t *TelegramClient) SendSummary(_ context.Context, summary *Summary) error {
	message := t.formatMessage(summary)

	if err := t.sendToChannel(t.alertsChannel, message); err != nil {
		return fmt.Errorf("failed to send to alerts channel: %w", err)
	}

	return nil
}

// formatMessage formats the summary into a Telegram MarkdownV2 message
func (t *TelegramClient) formatMessage(summary *Summary) string {
	var msg strings.Builder

	// Header
	msg.WriteString("🔍 *Log Analysis Report*\n")
	msg.WriteString(fmt.Sprintf("🖥 Host\\: %s\n", escapeMarkdown(t.hostname)))
	msg.WriteString(fmt.Sprintf("📄 File\\: %s\n", escapeMarkdown(summary.LogFile)))
	msg.WriteString(fmt.Sprintf("📅 Date\\: %s\n\n", escapeMarkdown(summary.Timestamp.Format("2006-01-02 15:04:05"))))

	// Run stats
	msg.WriteString("📋 *Run Stats*\n")
	msg.WriteString(fmt.Sprintf("• Entries\\: %d\n", summary.EntryCount))
	msg.WriteString(fmt.Sprintf("• Chunks\\: %d\n", summary.ChunkCount))
	msg.WriteString(fmt.Sprintf("• Errors Analyzed\\: %d\n", summary.ErrorCount))
	if summary.CostUSD > 0 {
		msg.WriteString(fmt.Sprintf("• Cost\\: %s\n", escapeMarkdown(fmt.Sprintf("$%.4f", summary.CostUSD))))
	}
	msg.WriteString("\n")

	// Severity distribution
	if summary.ErrorCount > 0 {
		msg.WriteString("📊 *Severity*\n")
		for _, severity := range []analysis.Severity{
			analysis.SeverityCritical,
			analysis.SeverityHigh,
			analysis.SeverityMedium,
			analysis.SeverityLow,
		} {
			if count := summary.SeverityCounts[severity]; count > 0 {
				msg.WriteString(fmt.Sprintf("%s %s\\: %d\n", SeverityEmoji(severity), string(severity), count))
			}
		}
		msg.WriteString("\n")
	}

	// Top findings
	if len(summary.Findings) > 0 {
		msg.WriteString("💡 *Top Findings*\n")
		for i, finding := range summary.Findings {
			msg.WriteString(fmt.Sprintf("%d\\. %s %s\n", i+1, SeverityEmoji(finding.Severity), escapeMarkdown(finding.ErrorMessage)))
			msg.WriteString(fmt.Sprintf("   %s\n", escapeMarkdown(finding.Explanation)))
		}
	}

	return msg.String()
}

// sendToChannel sends a message to a Telegram channel with rate limiting
func (t *TelegramClient) sendToChannel(channelID int64, message string) error {
	// Split message if it exceeds Telegram's limit
	messages := t.splitMessage(message)

	for _, msg := range messages {
		t.waitForRateLimit()

		msgConfig := tgbotapi.NewMessage(channelID, msg)
		msgConfig.ParseMode = "MarkdownV2"

		// Send with exponential backoff retry
		if err := t.sendWithRetry(msgConfig); err != nil {
			return err
		}

		// Update last message time for rate limiting
		t.lastMessageTime = time.Now()
	}

	return nil
}

// waitForRateLimit ensures minimum interval between messages
func (t *TelegramClient) waitForRateLimit() {
	if t.lastMessageTime.IsZero() {
		return
	}

	elapsed := time.Since(t.lastMessageTime)
	if elapsed < minMessageInterval {
		time.Sleep(minMessageInterval - elapsed)
	}
}

// sendWithRetry sends a message with exponential backoff retry
func (t *TelegramClient) sendWithRetry(msgConfig tgbotapi.MessageConfig) error {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		_, err := t.bot.Send(msgConfig)
		if err == nil {
			return nil
		}

		lastErr = err

		// Check if this is a rate limit error (429)
		if isTelegramRateLimit(err) {
			// Wait longer for rate limit errors
			retryAfter := extractRetryAfter(err)
			if retryAfter > 0 {
				time.Sleep(time.Duration(retryAfter) * time.Second)
				continue
			}
		}

		// Exponential backoff for other errors
		if attempt < maxRetries {
			delay := baseRetryDelay * time.Duration(1<<(attempt-1)) // 2s, 4s, 8s...
			time.Sleep(delay)
		}
	}

	// Sanitize error to prevent credentials from appearing in error messages
	return internalerrors.Wrapf(lastErr, "failed to send message after %d retries", maxRetries)
}

// isTelegramRateLimit checks if the error is a Telegram rate limit error (429)
func isTelegramRateLimit(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") || strings.Contains(errStr, "Too Many Requests")
}

// extractRetryAfter extracts the retry_after value from a rate limit error
func extractRetryAfter(err error) int {
	if err == nil {
		return 0
	}

	// Telegram API errors typically include retry_after in the message
	// Example: "Too Many Requests: retry after 30"
	errStr := err.Error()

	if idx := strings.Index(strings.ToLower(errStr), "retry after "); idx != -1 {
		remaining := errStr[idx+len("retry after "):]
		var seconds int
		if _, err := fmt.Sscanf(remaining, "%d", &seconds); err == nil {
			return seconds
		}
	}

	// Default to a conservative wait time if we can't extract the value
	return 30
}

// splitMessage splits a long message into multiple messages
func (t *TelegramClient) splitMessage(message string) []string {
	if len(message) <= maxMessageLength {
		return []string{message}
	}

	var messages []string
	lines := strings.Split(message, "\n")
	var currentMsg strings.Builder

	for _, line := range lines {
		// If adding this line would exceed the limit
		if currentMsg.Len()+len(line)+1 > maxMessageLength {
			// Save current message
			if currentMsg.Len() > 0 {
				messages = append(messages, currentMsg.String())
				currentMsg.Reset()
			}

			// If a single line is too long, split it
			if len(line) > maxMessageLength {
				for i := 0; i < len(line); i += maxMessageLength {
					end := i + maxMessageLength
					if end > len(line) {
						end = len(line)
					}
					messages = append(messages, line[i:end])
				}
				continue
			}
		}

		currentMsg.WriteString(line)
		currentMsg.WriteString("\n")
	}

	// Add remaining content
	if currentMsg.Len() > 0 {
		messages = append(messages, currentMsg.String())
	}

	return messages
}

// escapeMarkdown escapes special characters for Telegram MarkdownV2
func escapeMarkdown(text string) string {
	// Characters that need to be escaped in MarkdownV2
	// See: https://core.telegram.org/bots/api#markdownv2-style
	specialChars := []string{
		"_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!", ":",
	}

	result := text
	for _, char := range specialChars {
		result = strings.ReplaceAll(result, char, "\\"+char)
	}

	return result
}

// GetBotInfo returns information about the bot
func (t *TelegramClient) GetBotInfo() map[string]interface{} {
	return map[string]interface{}{
		"username":       t.bot.Self.UserName,
		"alerts_channel": t.alertsChannel,
		"hostname":       t.hostname,
	}
}

// Close closes the Telegram client
func (t *TelegramClient) Close() error {
	t.bot.StopReceivingUpdates()
	return nil
}

// Ensure TelegramClient implements Notifier interface
var _ Notifier = (*TelegramClient)(nil)
