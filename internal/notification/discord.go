package notification

import (
	"context"
	"net/http"
	"time"
)

// discordContentLimit is Discord's maximum message content length.
const discordContentLimit = 2000

// DiscordClient delivers summaries to a Discord webhook.
type DiscordClient struct {
	webhookURL string
	httpClient *http.Client
}

// discordPayload is the webhook message body.
type discordPayload struct {
	Content string `json:"content"`
}

// NewDiscordClient creates a Discord webhook client.
func NewDiscordClient(webhookURL string) *DiscordClient {
	return &DiscordClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the channel name.
func (c *DiscordClient) Name() string {
	return "discord"
}

// SendSummary posts the summary to the Discord webhook.
func (c *DiscordClient) SendSummary(ctx context.Context, summary *Summary) error {
	content := formatSummaryText(summary)
	if len(content) > discordContentLimit {
		content = content[:discordContentLimit-3] + "..."
	}

	return postWebhook(ctx, c.httpClient, c.webhookURL, discordPayload{
		Content: content,
	})
}

// Ensure DiscordClient implements Notifier interface
var _ Notifier = (*DiscordClient)(nil)
