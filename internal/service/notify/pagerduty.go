package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	xhttp "SignalOps/pkg/http"
)

// pagerDutyEventsURL is the Events API v2 enqueue endpoint.
const pagerDutyEventsURL = "https://events.pagerduty.com/v2/enqueue"

// PagerDutyConfig holds Events API v2 settings.
type PagerDutyConfig struct {
	RoutingKey string
	Severity   string
	Source     string
	Timeout    time.Duration
	Enabled    bool
}

// PagerDutyNotifier triggers a PagerDuty event per notification. Intended for
// halt-class commands where a page is warranted.
type PagerDutyNotifier struct {
	cfg    PagerDutyConfig
	client *xhttp.Client
	url    string
}

// NewPagerDutyNotifier creates a PagerDuty notifier.
func NewPagerDutyNotifier(cfg PagerDutyConfig) *PagerDutyNotifier {
	return &PagerDutyNotifier{
		cfg:    cfg,
		client: xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		url:    pagerDutyEventsURL,
	}
}

type pagerDutyPayload struct {
	Summary       string            `json:"summary"`
	Severity      string            `json:"severity"`
	Source        string            `json:"source"`
	CustomDetails map[string]string `json:"custom_details,omitempty"`
}

type pagerDutyEvent struct {
	RoutingKey  string           `json:"routing_key"`
	EventAction string           `json:"event_action"`
	DedupKey    string           `json:"dedup_key,omitempty"`
	Payload     pagerDutyPayload `json:"payload"`
}

// Notify triggers an event. The title becomes the dedup key so repeated halts
// collapse into one incident.
func (n *PagerDutyNotifier) Notify(ctx context.Context, message, title string, fields map[string]string) error {
	if !n.cfg.Enabled {
		return nil
	}

	summary := message
	if title != "" {
		summary = title + ": " + message
	}
	event := pagerDutyEvent{
		RoutingKey:  n.cfg.RoutingKey,
		EventAction: "trigger",
		DedupKey:    title,
		Payload: pagerDutyPayload{
			Summary:       summary,
			Severity:      n.cfg.Severity,
			Source:        n.cfg.Source,
			CustomDetails: fields,
		},
	}

	err := n.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: http.MethodPost,
		URL:    n.url,
		Body:   event,
	}, nil)
	if err != nil {
		return fmt.Errorf("pagerduty notify: %w", err)
	}
	return nil
}
