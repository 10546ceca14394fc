package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	xhttp "SignalOps/pkg/http"
)

// SlackConfig holds Incoming Webhook settings.
type SlackConfig struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	Enabled    bool
}

// SlackNotifier posts ops notifications to a Slack Incoming Webhook.
type SlackNotifier struct {
	cfg    SlackConfig
	client *xhttp.Client
}

// NewSlackNotifier creates a Slack notifier.
func NewSlackNotifier(cfg SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		cfg:    cfg,
		client: xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
	}
}

type slackAttachmentField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Title  string                 `json:"title"`
	Fields []slackAttachmentField `json:"fields,omitempty"`
}

type slackPayload struct {
	Channel     string            `json:"channel"`
	Username    string            `json:"username"`
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

// Notify posts the message; title and fields go into one attachment.
func (n *SlackNotifier) Notify(ctx context.Context, message, title string, fields map[string]string) error {
	if !n.cfg.Enabled {
		return nil
	}

	payload := slackPayload{
		Channel:  n.cfg.Channel,
		Username: n.cfg.Username,
		Text:     message,
	}
	if title != "" || len(fields) > 0 {
		attachment := slackAttachment{Title: title}
		if attachment.Title == "" {
			attachment.Title = "Notification"
		}
		for k, v := range fields {
			attachment.Fields = append(attachment.Fields, slackAttachmentField{
				Title: k,
				Value: v,
				Short: true,
			})
		}
		payload.Attachments = []slackAttachment{attachment}
	}

	err := n.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: http.MethodPost,
		URL:    n.cfg.WebhookURL,
		Body:   payload,
	}, nil)
	if err != nil {
		return fmt.Errorf("slack notify: %w", err)
	}
	return nil
}
