package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

const webhookTimeout = 8 * time.Second

// WebhookNotifier posts alerts as JSON to a fixed URL.
type WebhookNotifier struct {
	url  string
	http *http.Client
}

// NewWebhookNotifier builds a notifier for url.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:  url,
		http: &http.Client{Timeout: webhookTimeout},
	}
}

type webhookPayload struct {
	ID          string    `json:"id,omitempty"`
	RecipientID string    `json:"recipient_id"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Title       string    `json:"title"`
	Message     string    `json:"message,omitempty"`
	ReferenceID *string   `json:"reference_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (n *WebhookNotifier) Notify(ctx context.Context, alert domain.Alert) error {
	b, err := json.Marshal(webhookPayload{
		ID:          alert.ID,
		RecipientID: alert.RecipientID,
		Type:        string(alert.Type),
		Severity:    string(alert.Severity),
		Title:       alert.Title,
		Message:     alert.Message,
		ReferenceID: alert.ReferenceID,
		CreatedAt:   alert.CreatedAt,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook http %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	return nil
}
