package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/revcast/internal/contracts"
	"github.com/wonny/revcast/pkg/httputil"
)

// Notification is the webhook payload for one run's alerts
type Notification struct {
	RunID       string                     `json:"run_id"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Counts      map[contracts.Severity]int `json:"counts"`
	Alerts      []contracts.Alert          `json:"alerts"`
}

// WebhookNotifier posts alerts to an HTTP endpoint
type WebhookNotifier struct {
	client      *httputil.Client
	url         string
	minSeverity contracts.Severity
}

// NewWebhookNotifier creates a notifier. minSeverity High drops Medium alerts.
func NewWebhookNotifier(client *httputil.Client, url string, minSeverity contracts.Severity) *WebhookNotifier {
	return &WebhookNotifier{client: client, url: url, minSeverity: minSeverity}
}

// Notify sends the alerts at or above the minimum severity.
// Returns the number of alerts sent (0 = nothing to send, no request made).
func (n *WebhookNotifier) Notify(ctx context.Context, runID string, alerts []contracts.Alert) (int, error) {
	selected := make([]contracts.Alert, 0, len(alerts))
	for _, a := range alerts {
		if n.minSeverity == contracts.SeverityHigh && a.Severity != contracts.SeverityHigh {
			continue
		}
		selected = append(selected, a)
	}
	if len(selected) == 0 {
		return 0, nil
	}

	payload := Notification{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Counts:      CountBySeverity(selected),
		Alerts:      selected,
	}
	if err := n.client.PostJSON(ctx, n.url, payload); err != nil {
		return 0, fmt.Errorf("alert webhook: %w", err)
	}
	return len(selected), nil
}
