package notification

import (
	"context"
	"net/http"
	"time"
)

// SlackClient delivers summaries to a Slack incoming webhook.
type SlackClient struct {
	webhookURL string
	httpClient *http.Client
}

// slackPayload is the incoming webhook message body.
type slackPayload struct {
	Text string `json:"text"`
}

// NewSlackClient creates a Slack webhook client.
func NewSlackClient(webhookURL string) *SlackClient {
	return &SlackClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the channel name.
func (c *SlackClient) Name() string {
	return "slack"
}

// SendSummary posts the summary to the Slack webhook.
func (c *SlackClient) SendSummary(ctx context.Context, summary *Summary) error {
	return postWebhook(ctx, c.httpClient, c.webhookURL, slackPayload{
		Text: formatSummaryText(summary),
	})
}

// Ensure SlackClient implements Notifier interface
var _ Notifier = (*SlackClient)(nil)
